package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/safetydesk/safetydesk/internal/catalog"
	"github.com/safetydesk/safetydesk/internal/domain"
	"github.com/safetydesk/safetydesk/internal/identity/jwt"
)

type mockUsers struct {
	byEmail map[string]*domain.User
	byID    map[int64]*domain.User
}

func (m *mockUsers) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, catalog.ErrUserNotFound
}

func (m *mockUsers) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, catalog.ErrUserNotFound
}

func newTestService(t *testing.T, password string) (*Service, *domain.User) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &domain.User{
		ID:           42,
		FullName:     "Riley Reporter",
		Email:        "riley@example.com",
		Role:         domain.RoleReporter,
		PasswordHash: string(hash),
	}

	users := &mockUsers{
		byEmail: map[string]*domain.User{user.Email: user},
		byID:    map[int64]*domain.User{user.ID: user},
	}

	auth := jwt.NewAuthenticator(jwt.Config{
		SecretKey:           "unit-test-secret",
		AccessTokenDuration: time.Minute,
	})

	return NewService(users, auth), user
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc, want := newTestService(t, "correct horse")

	user, token, err := svc.Login(context.Background(), "riley@example.com", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, want.ID, user.ID)

	userID, role, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
	assert.Equal(t, domain.RoleReporter, role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t, "correct horse")

	_, _, err := svc.Login(context.Background(), "riley@example.com", "battery staple")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newTestService(t, "correct horse")

	// Unknown email maps to the same error as a wrong password
	_, _, err := svc.Login(context.Background(), "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newTestService(t, "correct horse")

	_, _, err := svc.ValidateToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	svc, user := newTestService(t, "correct horse")

	other := jwt.NewAuthenticator(jwt.Config{
		SecretKey:           "a-different-secret",
		AccessTokenDuration: time.Minute,
	})
	forged, err := other.GenerateToken(user)
	require.NoError(t, err)

	_, _, err = svc.ValidateToken(context.Background(), forged)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	_, user := newTestService(t, "correct horse")

	auth := jwt.NewAuthenticator(jwt.Config{
		SecretKey:           "unit-test-secret",
		AccessTokenDuration: -time.Minute,
	})
	expired, err := auth.GenerateToken(user)
	require.NoError(t, err)

	_, _, err = auth.ValidateToken(context.Background(), expired)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}
