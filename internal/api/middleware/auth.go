package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/regen-tracker/pkg/errors"
)

type contextKey string

const userContextKey contextKey = "user"

// Authenticator resolves an access token to the user it was issued for
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*entities.User, error)
}

// WithUser returns a copy of ctx carrying user
func WithUser(ctx context.Context, user *entities.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user, if any
func UserFromContext(ctx context.Context) (*entities.User, bool) {
	user, ok := ctx.Value(userContextKey).(*entities.User)
	return user, ok && user != nil
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved user in the request context.
func RequireAuth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "missing bearer token")
				return
			}

			user, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				if appErr, ok := apperrors.As(err); ok && appErr.Type == apperrors.ErrorTypeUnauthorized {
					writeError(w, http.StatusUnauthorized, appErr.ErrorCode(), appErr.Message)
					return
				}
				log.Error().Err(err).Msg("failed to authenticate request")
				writeError(w, http.StatusInternalServerError, string(apperrors.ErrorTypeInternal), "internal server error")
				return
			}

			observability.AnnotateUser(r.Context(), user.ID, string(user.Role))
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireAdmin must run after RequireAuth
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "missing bearer token")
			return
		}
		if !user.IsAdmin() {
			writeError(w, http.StatusForbidden, string(apperrors.ErrorTypeForbidden), "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	// EventSource cannot set headers, so the stream accepts a query token.
	if strings.HasPrefix(r.URL.Path, "/api/stream/") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	}); err != nil {
		log.Warn().Err(err).Msg("failed to write error response")
	}
}
