// Package identity handles authentication: credential checks and token
// issuance. User records live in the catalog.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/safetydesk/safetydesk/internal/catalog"
	"github.com/safetydesk/safetydesk/internal/domain"
	"github.com/safetydesk/safetydesk/internal/identity/jwt"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for a wrong email or password.
// Both cases map to the same error so responses don't leak which one.
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserReader resolves user records for authentication.
type UserReader interface {
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
}

// Service implements authentication logic.
type Service struct {
	users UserReader
	auth  *jwt.Authenticator
}

// NewService creates a new identity service.
func NewService(users UserReader, auth *jwt.Authenticator) *Service {
	return &Service{users: users, auth: auth}
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, catalog.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.auth.GenerateToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	return user, token, nil
}

// GetUserByID returns a user by id.
func (s *Service) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetUserByID(ctx, id)
}

// ValidateToken implements httputil.TokenValidator.
func (s *Service) ValidateToken(ctx context.Context, token string) (int64, domain.Role, error) {
	return s.auth.ValidateToken(ctx, token)
}
