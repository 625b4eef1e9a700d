package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/domain/repositories"
	"github.com/zatekoja/regen-tracker/internal/infrastructure/auth"
	apperrors "github.com/zatekoja/regen-tracker/pkg/errors"
)

// AuthResult is returned by register, login and refresh.
type AuthResult struct {
	*auth.TokenPair
	User entities.UserProfile `json:"user"`
}

// RegisterInput carries a new account's details
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Location string
}

// AuthService handles accounts and tokens
type AuthService struct {
	users  repositories.UserRepository
	tokens *auth.TokenManager
	cost   int
}

// NewAuthService creates a new auth service
func NewAuthService(users repositories.UserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		cost:   bcrypt.DefaultCost,
	}
}

// Register creates a user with zero totals and signs them in
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}

	user := &entities.User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(in.Name),
		Location:     strings.TrimSpace(in.Location),
		Role:         entities.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID).Msg("user registered")
	return s.issue(user)
}

// Login verifies credentials. Unknown email and wrong password look the same.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, invalidCredentials()
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, invalidCredentials()
	}
	return s.issue(user)
}

// Refresh exchanges a valid refresh token for a new pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.tokens.Verify(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("invalid or expired refresh token")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewUnauthorizedError("invalid or expired refresh token")
		}
		return nil, err
	}
	return s.issue(user)
}

// Authenticate resolves an access token to its user
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*entities.User, error) {
	claims, err := s.tokens.Verify(accessToken, auth.TokenTypeAccess)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, apperrors.NewUnauthorizedError("token expired")
		}
		return nil, apperrors.NewUnauthorizedError("invalid token")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewUnauthorizedError("invalid token")
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issue(user *entities.User) (*AuthResult, error) {
	pair, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to issue tokens", err)
	}
	return &AuthResult{TokenPair: pair, User: user.Profile()}, nil
}

func invalidCredentials() error {
	return &apperrors.AppError{
		Type:    apperrors.ErrorTypeUnauthorized,
		Code:    apperrors.CodeInvalidCredentials,
		Message: "Invalid email or password",
	}
}
