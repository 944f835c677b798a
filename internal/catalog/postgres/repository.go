// Package postgres provides the procedure-backed catalog repository.
package postgres

import (
	"context"

	"github.com/safetydesk/safetydesk/internal/catalog"
	"github.com/safetydesk/safetydesk/internal/domain"
	"github.com/safetydesk/safetydesk/internal/store"
)

// Repository implements catalog.Repository over the store gateway.
type Repository struct {
	gw *store.Gateway
}

// NewRepository creates a new catalog repository.
func NewRepository(gw *store.Gateway) *Repository {
	return &Repository{gw: gw}
}

// ListDepartments returns all active departments.
func (r *Repository) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	rows, err := r.gw.Query(ctx, "department_list")
	if err != nil {
		return nil, err
	}

	departments := make([]domain.Department, 0, len(rows))
	for _, row := range rows {
		departments = append(departments, domain.Department{
			ID:   row.Int64("id"),
			Name: row.String("name"),
		})
	}
	return departments, nil
}

// ListLocations returns all active locations.
func (r *Repository) ListLocations(ctx context.Context) ([]domain.Location, error) {
	rows, err := r.gw.Query(ctx, "location_list")
	if err != nil {
		return nil, err
	}

	locations := make([]domain.Location, 0, len(rows))
	for _, row := range rows {
		locations = append(locations, domain.Location{
			ID:   row.Int64("id"),
			Name: row.String("name"),
		})
	}
	return locations, nil
}

// ListCategories returns all active categories.
func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.gw.Query(ctx, "category_list")
	if err != nil {
		return nil, err
	}

	categories := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		categories = append(categories, domain.Category{
			ID:   row.Int64("id"),
			Name: row.String("name"),
		})
	}
	return categories, nil
}

// ListUsers returns all active users, optionally filtered by role.
// An empty role matches everyone.
func (r *Repository) ListUsers(ctx context.Context, role string) ([]domain.User, error) {
	var roleArg *string
	if role != "" {
		roleArg = &role
	}

	rows, err := r.gw.Query(ctx, "user_list", roleArg)
	if err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, scanUser(row))
	}
	return users, nil
}

// GetUserByID returns a user by id.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	rows, err := r.gw.Query(ctx, "user_get", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, catalog.ErrUserNotFound
	}

	user := scanUser(rows[0])
	return &user, nil
}

// GetUserByEmail returns a user by email, including the password hash
// for credential verification.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	rows, err := r.gw.Query(ctx, "user_by_email", email)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, catalog.ErrUserNotFound
	}

	user := scanUser(rows[0])
	return &user, nil
}

func scanUser(row store.Row) domain.User {
	return domain.User{
		ID:           row.Int64("id"),
		FullName:     row.String("full_name"),
		Email:        row.String("email"),
		Role:         domain.Role(row.String("role")),
		PasswordHash: row.String("password_hash"),
		CreatedAt:    row.Time("created_at"),
	}
}
