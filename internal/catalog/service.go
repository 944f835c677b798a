package catalog

import (
	"context"
	"fmt"

	"github.com/safetydesk/safetydesk/internal/domain"
)

// Service exposes reference data to handlers and other modules.
type Service struct {
	repo Repository
}

// NewService creates a new catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListDepartments returns all active departments.
func (s *Service) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	return s.repo.ListDepartments(ctx)
}

// ListLocations returns all active locations.
func (s *Service) ListLocations(ctx context.Context) ([]domain.Location, error) {
	return s.repo.ListLocations(ctx)
}

// ListCategories returns all active categories.
func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

// ListUsers returns all active users, optionally filtered by role.
func (s *Service) ListUsers(ctx context.Context, role string) ([]domain.User, error) {
	return s.repo.ListUsers(ctx, role)
}

// GetUser returns a user by id.
func (s *Service) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// UserEmail resolves a user's email address. Used by the notification
// dispatcher for assignment messages.
func (s *Service) UserEmail(ctx context.Context, id int64) (string, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("resolve user email: %w", err)
	}
	return user.Email, nil
}
