// Package catalog provides read access to reference data: departments,
// locations, categories, and users.
package catalog

import (
	"context"
	"errors"

	"github.com/safetydesk/safetydesk/internal/domain"
)

// ErrUserNotFound is returned when a user lookup matches no row.
var ErrUserNotFound = errors.New("user not found")

// Repository defines data access for reference data.
type Repository interface {
	ListDepartments(ctx context.Context) ([]domain.Department, error)
	ListLocations(ctx context.Context) ([]domain.Location, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListUsers(ctx context.Context, role string) ([]domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}
