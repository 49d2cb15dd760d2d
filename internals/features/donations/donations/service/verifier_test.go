package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signTestToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTVerifier(t *testing.T) {
	ctx := context.Background()
	secret := "test-secret"
	v := NewJWTVerifier(secret)
	userID := uuid.New()

	t.Run("valid token resolves user id and role", func(t *testing.T) {
		token := signTestToken(t, secret, jwt.MapClaims{
			"user_id": userID.String(),
			"role":    "user",
			"exp":     time.Now().Add(time.Hour).Unix(),
		})

		p, err := v.Verify(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, userID, p.UserID)
		assert.Equal(t, "user", p.Role)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signTestToken(t, "another-secret", jwt.MapClaims{
			"user_id": userID.String(),
			"role":    "user",
		})

		_, err := v.Verify(ctx, token)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signTestToken(t, secret, jwt.MapClaims{
			"user_id": userID.String(),
			"role":    "user",
			"exp":     time.Now().Add(-time.Minute).Unix(),
		})

		_, err := v.Verify(ctx, token)
		assert.Error(t, err)
	})

	t.Run("missing claims", func(t *testing.T) {
		noID := signTestToken(t, secret, jwt.MapClaims{"role": "user"})
		_, err := v.Verify(ctx, noID)
		assert.Error(t, err)

		noRole := signTestToken(t, secret, jwt.MapClaims{"user_id": userID.String()})
		_, err = v.Verify(ctx, noRole)
		assert.Error(t, err)

		badID := signTestToken(t, secret, jwt.MapClaims{"user_id": "nope", "role": "user"})
		_, err = v.Verify(ctx, badID)
		assert.Error(t, err)
	})

	t.Run("empty token or secret", func(t *testing.T) {
		_, err := v.Verify(ctx, "")
		assert.Error(t, err)

		empty := NewJWTVerifier("")
		_, err = empty.Verify(ctx, "whatever")
		assert.Error(t, err)
	})
}
