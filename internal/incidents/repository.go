// Package incidents implements the incident lifecycle: recording,
// updating, searching, archiving, and follow-up actions.
package incidents

import (
	"context"
	"time"

	"github.com/safetydesk/safetydesk/internal/domain"
)

// ListParams controls pagination and ordering for incident listings.
// Sort column safety is the procedure's responsibility: unknown columns
// fall back to the default ordering inside the database.
type ListParams struct {
	Page       int
	PageSize   int
	SortColumn string
	SortDir    string
}

// SearchFilters narrows an incident search. Nil or zero-valued filters
// do not narrow; the keyword matches title and description
// case-insensitively.
type SearchFilters struct {
	Keyword      string
	DepartmentID *int64
	LocationID   *int64
	CategoryID   *int64
	Severity     *int
	Status       string
	From         *time.Time
	To           *time.Time
	Page         int
	PageSize     int
}

// Repository defines data access for incidents and actions.
type Repository interface {
	List(ctx context.Context, params ListParams) ([]domain.Incident, int, error)
	GetByID(ctx context.Context, id int64) (*domain.Incident, error)
	Create(ctx context.Context, incident *domain.Incident) (int64, error)
	Update(ctx context.Context, incident *domain.Incident) (bool, error)
	Archive(ctx context.Context, id int64) (bool, error)
	Search(ctx context.Context, filters SearchFilters) ([]domain.Incident, int, error)

	ListActions(ctx context.Context, incidentID int64) ([]domain.Action, error)
	GetAction(ctx context.Context, id int64) (*domain.Action, error)
	CreateAction(ctx context.Context, action *domain.Action) (int64, error)
	UpdateAction(ctx context.Context, action *domain.Action) (bool, error)
	ListOverdueActions(ctx context.Context) ([]domain.Action, error)
}
