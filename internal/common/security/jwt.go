package security

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

type TokenIssuer struct {
	Auth *jwtauth.JWTAuth
	exp  time.Duration
	now  func() time.Time
}

func NewTokenIssuer(secret []byte, exp time.Duration) *TokenIssuer {
	return &TokenIssuer{
		Auth: jwtauth.New("HS256", secret, nil),
		exp:  exp,
		now:  time.Now,
	}
}

func (t *TokenIssuer) GenerateToken(userID, role string) (string, error) {
	now := t.now()
	claims := map[string]interface{}{
		"user_id": userID,
		"role":    role,
		"exp":     now.Add(t.exp).Unix(),
		"iat":     now.Unix(),
	}
	_, tokenString, err := t.Auth.Encode(claims)
	return tokenString, err
}

// Helper functions to extract claims, used by the auth middleware
func GetUserIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}

func GetUserRoleFromClaims(claims jwt.MapClaims) (string, error) {
	role, ok := claims["role"].(string)
	if !ok {
		return "", errors.New("role claim is missing or not a string")
	}
	return role, nil
}
