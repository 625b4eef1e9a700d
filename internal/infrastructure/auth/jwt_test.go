package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/regen-tracker/internal/domain/entities"
	"github.com/zatekoja/regen-tracker/pkg/config"
)

func testManager() *TokenManager {
	return NewTokenManager(config.AuthConfig{
		JWTSecret:  "test-secret",
		Issuer:     "regen-tracker",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	})
}

func TestTokenManager_IssueAndVerify(t *testing.T) {
	m := testManager()
	user := &entities.User{ID: "u-1", Role: entities.RoleAdmin}

	pair, err := m.Issue(user)
	require.NoError(t, err)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	claims, err := m.Verify(pair.AccessToken, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, entities.RoleAdmin, claims.Role)

	refresh, err := m.Verify(pair.RefreshToken, TokenTypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.Type)
}

func TestTokenManager_RejectsWrongType(t *testing.T) {
	m := testManager()
	pair, err := m.Issue(&entities.User{ID: "u-1", Role: entities.RoleUser})
	require.NoError(t, err)

	_, err = m.Verify(pair.RefreshToken, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenManager_Expired(t *testing.T) {
	m := testManager()
	issuedAt := time.Now().Add(-time.Hour)
	m.now = func() time.Time { return issuedAt }
	pair, err := m.Issue(&entities.User{ID: "u-1"})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Verify(pair.AccessToken, TokenTypeAccess)
	assert.True(t, errors.Is(err, ErrTokenExpired))
}

func TestTokenManager_RejectsOtherSecretAndAlgorithm(t *testing.T) {
	m := testManager()
	other := NewTokenManager(config.AuthConfig{JWTSecret: "other", Issuer: "regen-tracker", AccessTTL: time.Minute})
	pair, err := other.Issue(&entities.User{ID: "u-1"})
	require.NoError(t, err)

	_, err = m.Verify(pair.AccessToken, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"iss": "regen-tracker", "sub": "u-1", "typ": "access",
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Verify(raw, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
