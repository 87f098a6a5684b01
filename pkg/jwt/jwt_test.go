package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	return NewService("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	service := newTestService()
	companyID := "company-1"

	token, err := service.GenerateAccessToken("user-1", "maria@example.com", "COMPANY", &companyID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "maria@example.com", claims.Email)
	assert.Equal(t, "COMPANY", claims.Role)
	require.NotNil(t, claims.CompanyID)
	assert.Equal(t, companyID, *claims.CompanyID)
	assert.Equal(t, AccessToken, claims.TokenType)
	assert.Equal(t, "viajabr-marketplace", claims.Issuer)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	service := newTestService()

	token, err := service.GenerateRefreshToken("user-1", "maria@example.com")
	require.NoError(t, err)

	claims, err := service.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, RefreshToken, claims.TokenType)
	assert.Nil(t, claims.CompanyID)
}

func TestTokenTypeMismatch(t *testing.T) {
	service := newTestService()

	access, err := service.GenerateAccessToken("user-1", "maria@example.com", "CUSTOMER", nil)
	require.NoError(t, err)
	refresh, err := service.GenerateRefreshToken("user-1", "maria@example.com")
	require.NoError(t, err)

	// Tokens are signed with different secrets, so a cross-validation must
	// fail even before the type check.
	_, err = service.ValidateRefreshToken(access)
	assert.Error(t, err)

	_, err = service.ValidateAccessToken(refresh)
	assert.Error(t, err)
}

func TestWrongSecret(t *testing.T) {
	service := newTestService()
	other := NewService("other-secret", "other-refresh", 15*time.Minute, 24*time.Hour)

	token, err := service.GenerateAccessToken("user-1", "maria@example.com", "CUSTOMER", nil)
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	service := NewService("access-secret", "refresh-secret", -time.Minute, -time.Minute)

	token, err := service.GenerateAccessToken("user-1", "maria@example.com", "CUSTOMER", nil)
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestGarbageToken(t *testing.T) {
	service := newTestService()

	_, err := service.ValidateAccessToken("not.a.token")
	assert.Error(t, err)

	_, err = service.ValidateAccessToken("")
	assert.Error(t, err)
}
