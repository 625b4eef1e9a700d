package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/regen-tracker/internal/api/handlers"
	"github.com/zatekoja/regen-tracker/internal/application/services"
	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/infrastructure/auth"
	apperrors "github.com/zatekoja/regen-tracker/pkg/errors"
)

func authResult(user entities.UserProfile) *services.AuthResult {
	return &services.AuthResult{
		TokenPair: &auth.TokenPair{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900},
		User:      user,
	}
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(*MockAuthService)
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name: "creates account",
			body: `{"email":"amina@example.com","password":"s3cretpass","name":"Amina","location":"Nairobi"}`,
			setup: func(m *MockAuthService) {
				m.On("Register", mock.Anything, services.RegisterInput{
					Email:    "amina@example.com",
					Password: "s3cretpass",
					Name:     "Amina",
					Location: "Nairobi",
				}).Return(authResult(entities.UserProfile{ID: "u-1", Email: "amina@example.com"}), nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "short password",
			body:       `{"email":"amina@example.com","password":"short","name":"Amina"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   string(apperrors.ErrorTypeValidation),
			wantMsg:    "password must be at least 8 characters",
		},
		{
			name:       "bad email",
			body:       `{"email":"amina","password":"s3cretpass","name":"Amina"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   string(apperrors.ErrorTypeValidation),
			wantMsg:    "email must be a valid email address",
		},
		{
			name: "duplicate email",
			body: `{"email":"amina@example.com","password":"s3cretpass","name":"Amina"}`,
			setup: func(m *MockAuthService) {
				m.On("Register", mock.Anything, mock.Anything).
					Return(nil, apperrors.NewConflictErrorWithCode(apperrors.CodeDuplicateEmail, "email already registered"))
			},
			wantStatus: http.StatusConflict,
			wantCode:   apperrors.CodeDuplicateEmail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authService := new(MockAuthService)
			if tt.setup != nil {
				tt.setup(authService)
			}
			handler := handlers.NewAuthHandler(authService, new(MockProfileService))

			w := httptest.NewRecorder()
			handler.Register(w, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(tt.body)))

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				errBody := decodeError(t, w)
				assert.Equal(t, tt.wantCode, errBody.Error)
				if tt.wantMsg != "" {
					assert.Equal(t, tt.wantMsg, errBody.Message)
				}
				return
			}
			var data struct {
				AccessToken  string               `json:"access_token"`
				RefreshToken string               `json:"refresh_token"`
				User         entities.UserProfile `json:"user"`
			}
			decodeEnvelope(t, w, &data)
			assert.Equal(t, "access", data.AccessToken)
			assert.Equal(t, "refresh", data.RefreshToken)
			assert.Equal(t, "u-1", data.User.ID)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	authService := new(MockAuthService)
	authService.On("Login", mock.Anything, "amina@example.com", "s3cretpass").
		Return(authResult(entities.UserProfile{ID: "u-1"}), nil)
	authService.On("Login", mock.Anything, "amina@example.com", "wrong-pass").
		Return(nil, &apperrors.AppError{Type: apperrors.ErrorTypeUnauthorized, Code: apperrors.CodeInvalidCredentials, Message: "Invalid email or password"})
	handler := handlers.NewAuthHandler(authService, new(MockProfileService))

	w := httptest.NewRecorder()
	handler.Login(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"amina@example.com","password":"s3cretpass"}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.Login(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"amina@example.com","password":"wrong-pass"}`)))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.CodeInvalidCredentials, decodeError(t, w).Error)
}

func TestAuthHandler_Refresh(t *testing.T) {
	authService := new(MockAuthService)
	authService.On("Refresh", mock.Anything, "stale").Return(nil, apperrors.NewUnauthorizedError("invalid or expired refresh token"))
	handler := handlers.NewAuthHandler(authService, new(MockProfileService))

	w := httptest.NewRecorder()
	handler.Refresh(w, httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{"refresh_token":"stale"}`)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	handler.Refresh(w, httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	authService.AssertNumberOfCalls(t, "Refresh", 1)
}

func TestAuthHandler_Me(t *testing.T) {
	profiles := new(MockProfileService)
	profiles.On("Get", mock.Anything, "u-1").Return(&entities.UserProfile{ID: "u-1", Name: "Wanjiru"}, nil)
	handler := handlers.NewAuthHandler(new(MockAuthService), profiles)

	w := httptest.NewRecorder()
	handler.Me(w, withUser(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), member))

	require.Equal(t, http.StatusOK, w.Code)
	var profile entities.UserProfile
	decodeEnvelope(t, w, &profile)
	assert.Equal(t, "Wanjiru", profile.Name)
}

func TestAuthHandler_UpdateProfile_IgnoresTotals(t *testing.T) {
	profiles := new(MockProfileService)
	location := "Kisumu"
	profiles.On("Update", mock.Anything, "u-1", services.ProfileUpdate{Location: &location}).
		Return(&entities.UserProfile{ID: "u-1", Location: "Kisumu", ProfileTotals: entities.ProfileTotals{Points: 20}}, nil)
	handler := handlers.NewAuthHandler(new(MockAuthService), profiles)

	body := `{"location":"Kisumu","total_co2_saved":1000,"total_waste_recycled":1000,"points":99999}`
	w := httptest.NewRecorder()
	handler.UpdateProfile(w, withUser(httptest.NewRequest(http.MethodPut, "/api/auth/profile", strings.NewReader(body)), member))

	require.Equal(t, http.StatusOK, w.Code)
	var profile entities.UserProfile
	env := decodeEnvelope(t, w, &profile)
	assert.Equal(t, "Profile updated successfully", env.Message)
	assert.Equal(t, int64(20), profile.Points)
	profiles.AssertExpectations(t)
}
