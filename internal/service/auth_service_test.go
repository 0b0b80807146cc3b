package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrenchworks/dispatch-api/internal/models"
	"github.com/wrenchworks/dispatch-api/pkg/config"
)

func signToken(t *testing.T, secret string, method jwt.SigningMethod, expires time.Time) string {
	t.Helper()
	claims := &models.JWTClaims{
		UserID: "user-1",
		Role:   models.RoleManager,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := NewAuthService(config.JWTConfig{Secret: "secret"})
	token := signToken(t, "secret", jwt.SigningMethodHS256, time.Now().Add(time.Hour))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleManager, claims.Role)
}

func TestAuthServiceValidateTokenWrongSecret(t *testing.T) {
	svc := NewAuthService(config.JWTConfig{Secret: "secret"})
	token := signToken(t, "other", jwt.SigningMethodHS256, time.Now().Add(time.Hour))

	_, err := svc.ValidateToken(token)
	require.Error(t, err)
}

func TestAuthServiceValidateTokenExpired(t *testing.T) {
	svc := NewAuthService(config.JWTConfig{Secret: "secret"})
	token := signToken(t, "secret", jwt.SigningMethodHS256, time.Now().Add(-time.Hour))

	_, err := svc.ValidateToken(token)
	require.Error(t, err)
}
