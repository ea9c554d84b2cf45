package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "storefront-test",
		MaxRefreshCount:        3,
	})
}

func newTestSubject() Subject {
	return Subject{UserID: uuid.New(), Email: "shopper@example.com", Role: "customer"}
}

func TestNewJWTService_UsesSecretForRefreshIfNotProvided(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "test-secret"})
	assert.Equal(t, []byte("test-secret"), svc.refreshSecret)
}

func TestGenerateTokenPair(t *testing.T) {
	svc := newTestJWTService()

	pair, err := svc.GenerateTokenPair(newTestSubject())

	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.True(t, pair.RefreshTokenExpiresAt.After(pair.AccessTokenExpiresAt))
}

func TestValidateAccessToken_Success(t *testing.T) {
	svc := newTestJWTService()
	subject := newTestSubject()
	subject.Role = RoleAdmin

	pair, err := svc.GenerateTokenPair(subject)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	userID, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, subject.UserID, userID)
	assert.Equal(t, subject.Email, claims.Email)
	assert.True(t, claims.IsAdmin())
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.NotEmpty(t, claims.ID)
	assert.Greater(t, claims.GetRemainingTTL(), 14*time.Minute)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		AccessTokenExpiration:  -time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "storefront-test",
	})

	pair, err := svc.GenerateTokenPair(newTestSubject())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateAccessToken_Rejections(t *testing.T) {
	svc := newTestJWTService()
	pair, err := svc.GenerateTokenPair(newTestSubject())
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{
		Secret:                "another-secret-key-at-least-32ch",
		AccessTokenExpiration: time.Minute,
		Issuer:                "storefront-test",
	})

	tests := []struct {
		name  string
		token string
		check func(string) (*Claims, error)
		want  error
	}{
		{"garbage", "not.a.token", svc.ValidateAccessToken, ErrInvalidToken},
		{"refresh used as access", pair.RefreshToken, svc.ValidateAccessToken, ErrInvalidToken},
		{"access used as refresh", pair.AccessToken, svc.ValidateRefreshToken, ErrInvalidToken},
		{"foreign secret", pair.AccessToken, other.ValidateAccessToken, ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.check(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidate_WrongTokenTypeSameSecret(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{
		Secret:                 "shared-secret-key-at-least-32-ch",
		AccessTokenExpiration:  time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "storefront-test",
	})
	pair, err := svc.GenerateTokenPair(newTestSubject())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestRefreshTokenPair_IncrementsCountAndKeepsRole(t *testing.T) {
	svc := newTestJWTService()
	subject := newTestSubject()
	subject.Role = RoleAdmin

	pair, err := svc.GenerateTokenPair(subject)
	require.NoError(t, err)

	refreshed, consumed, err := svc.RefreshTokenPair(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 0, consumed.RefreshCount)

	claims, err := svc.ValidateRefreshToken(refreshed.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 1, claims.RefreshCount)

	access, err := svc.ValidateAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.True(t, access.IsAdmin())
}

func TestRefreshTokenPair_MaxRefreshExceeded(t *testing.T) {
	svc := newTestJWTService()
	pair, err := svc.GenerateTokenPair(newTestSubject())
	require.NoError(t, err)

	token := pair.RefreshToken
	for i := 0; i < 3; i++ {
		next, _, err := svc.RefreshTokenPair(token)
		require.NoError(t, err)
		token = next.RefreshToken
	}

	_, _, err = svc.RefreshTokenPair(token)
	assert.ErrorIs(t, err, ErrMaxRefreshExceeded)
}
