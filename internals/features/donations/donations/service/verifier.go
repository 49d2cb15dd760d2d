package service

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Principal is the resolved caller identity.
type Principal struct {
	UserID uuid.UUID
	Role   string
}

// TokenVerifier resolves a raw credential into a principal. Injected into
// the orchestrator so tests can substitute a static verifier.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

var errInvalidToken = errors.New("invalid or expired token")

// JWTVerifier verifies HMAC-signed tokens carrying user_id and role claims,
// the same token shape the auth middleware accepts.
type JWTVerifier struct {
	Secret string
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{Secret: secret}
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	if strings.TrimSpace(token) == "" || v.Secret == "" {
		return nil, errInvalidToken
	}

	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(v.Secret), nil
	}); err != nil {
		return nil, errInvalidToken
	}

	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return nil, errInvalidToken
	}

	role, _ := claims["role"].(string)
	if strings.TrimSpace(role) == "" {
		return nil, errInvalidToken
	}

	return &Principal{UserID: userID, Role: role}, nil
}
