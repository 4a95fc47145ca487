// Package token issues and validates the signed session tokens handed out
// after OTP verification.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"helpme/internal/domain"
)

// ErrInvalidToken is returned when a token fails signature, shape, or
// expiry checks.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are the session claims embedded in every token. Phone, name, and
// address are echoes for client convenience; UserID is the authoritative
// identity.
type Claims struct {
	UserID  string `json:"userId"`
	Phone   string `json:"phone"`
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	jwt.RegisteredClaims
}

// Generate signs a session token for the user with the given lifetime.
func Generate(secret string, user *domain.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:  user.ID,
		Phone:   user.Phone,
		Name:    user.Name,
		Address: user.Address,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// Parse validates tokenString and returns its claims.
func Parse(secret, tokenString string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
