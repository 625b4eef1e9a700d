package routes_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/regen-tracker/internal/api/handlers"
	"github.com/zatekoja/regen-tracker/internal/api/middleware"
	"github.com/zatekoja/regen-tracker/internal/api/routes"
	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	apperrors "github.com/zatekoja/regen-tracker/pkg/errors"
)

type stubAuthenticator map[string]*entities.User

func (s stubAuthenticator) Authenticate(ctx context.Context, token string) (*entities.User, error) {
	if user, ok := s[token]; ok {
		return user, nil
	}
	return nil, apperrors.NewUnauthorizedError("invalid token")
}

func newTestRouter(limiter *middleware.RateLimiter) http.Handler {
	authn := stubAuthenticator{
		"member-token": {ID: "u-1", Role: entities.RoleUser},
		"admin-token":  {ID: "u-admin", Role: entities.RoleAdmin},
	}
	router := routes.NewRouter(routes.Handlers{
		Auth:      handlers.NewAuthHandler(nil, nil),
		WasteLog:  handlers.NewWasteLogHandler(nil),
		Facility:  handlers.NewFacilityHandler(nil),
		Community: handlers.NewCommunityHandler(nil, nil),
	}, routes.Options{
		Authenticator:  authn,
		AuthLimiter:    limiter,
		AllowedOrigins: []string{"https://regen.example"},
	})
	return router.SetupRoutes()
}

func TestRouter_Health(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestRouter_Authorization(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{"no token", http.MethodGet, "/api/waste-logs", "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/api/dashboard", "nope", http.StatusUnauthorized},
		{"member on admin list", http.MethodGet, "/api/waste-logs/all", "member-token", http.StatusForbidden},
		{"member on status change", http.MethodPut, "/api/waste-logs/e-1/status", "member-token", http.StatusForbidden},
		{"member creating facility", http.MethodPost, "/api/recycling-centers", "member-token", http.StatusForbidden},
		{"admin update reaches the handler", http.MethodPut, "/api/recycling-centers/f-1", "admin-token", http.StatusBadRequest},
	}

	handler := newTestRouter(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("{"))
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/waste-logs", nil)
	req.Header.Set("Origin", "https://regen.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	w := httptest.NewRecorder()

	newTestRouter(nil).ServeHTTP(w, req)

	assert.Equal(t, "https://regen.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRouter_RateLimitsAuthEndpoints(t *testing.T) {
	limiter := middleware.NewRateLimiter(0.001, 1)
	defer limiter.Stop()
	handler := newTestRouter(limiter)

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("{"))
		req.RemoteAddr = "10.0.0.7:5555"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusBadRequest, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}
