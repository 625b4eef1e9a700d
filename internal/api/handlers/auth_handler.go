package handlers

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/zatekoja/regen-tracker/internal/application/services"
	"github.com/zatekoja/regen-tracker/internal/domain/entities"
)

// AuthService is the subset of the auth service used over HTTP
type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.AuthResult, error)
}

// ProfileService reads and edits the caller's profile
type ProfileService interface {
	Get(ctx context.Context, userID string) (*entities.UserProfile, error)
	Update(ctx context.Context, userID string, in services.ProfileUpdate) (*entities.UserProfile, error)
}

// AuthHandler handles account and profile requests
type AuthHandler struct {
	auth     AuthService
	profiles ProfileService
	validate *validator.Validate
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth AuthService, profiles ProfileService) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		profiles: profiles,
		validate: newValidator(),
	}
}

// RegisterRequest is the sign-up body
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,max=100"`
	Location string `json:"location" validate:"max=200"`
}

// LoginRequest is the sign-in body
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UpdateProfileRequest edits name and location. Any totals in the body are
// not part of this type and are dropped by the decoder.
type UpdateProfileRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Location *string `json:"location" validate:"omitempty,max=200"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	result, err := h.auth.Register(r.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Location: req.Location,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondWithData(w, http.StatusCreated, result, "Registration successful")
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondWithData(w, http.StatusOK, result, "Login successful")
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	result, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondWithData(w, http.StatusOK, result, "")
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	profile, err := h.profiles.Get(r.Context(), user.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondWithData(w, http.StatusOK, profile, "")
}

// UpdateProfile handles PUT /api/auth/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !decodeJSON(w, r, h.validate, &req) {
		return
	}

	profile, err := h.profiles.Update(r.Context(), user.ID, services.ProfileUpdate{
		Name:     req.Name,
		Location: req.Location,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondWithData(w, http.StatusOK, profile, "Profile updated successfully")
}
