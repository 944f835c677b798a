// Package jwt issues and validates signed access tokens.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/safetydesk/safetydesk/internal/domain"
)

// ErrInvalidToken is returned for malformed, expired, or forged tokens.
var ErrInvalidToken = errors.New("invalid token")

// Config contains token signing settings.
type Config struct {
	SecretKey           string
	AccessTokenDuration time.Duration
}

// Authenticator issues and validates HS256 access tokens.
type Authenticator struct {
	config Config
}

// NewAuthenticator creates a new authenticator.
func NewAuthenticator(config Config) *Authenticator {
	return &Authenticator{config: config}
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken issues an access token for the user.
func (a *Authenticator) GenerateToken(user *domain.User) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.config.AccessTokenDuration)),
		},
	})

	signed, err := token.SignedString([]byte(a.config.SecretKey))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies a token and returns the user id and role.
func (a *Authenticator) ValidateToken(_ context.Context, tokenString string) (int64, domain.Role, error) {
	token, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(a.config.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return 0, "", ErrInvalidToken
	}

	c, ok := token.Claims.(*claims)
	if !ok {
		return 0, "", ErrInvalidToken
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, "", ErrInvalidToken
	}

	return userID, domain.Role(c.Role), nil
}
