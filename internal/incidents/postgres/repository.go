// Package postgres provides the procedure-backed incidents repository.
package postgres

import (
	"context"

	"github.com/safetydesk/safetydesk/internal/domain"
	"github.com/safetydesk/safetydesk/internal/incidents"
	"github.com/safetydesk/safetydesk/internal/store"
)

// Repository implements incidents.Repository over the store gateway.
type Repository struct {
	gw *store.Gateway
}

// NewRepository creates a new incidents repository.
func NewRepository(gw *store.Gateway) *Repository {
	return &Repository{gw: gw}
}

// List returns a page of non-archived incidents plus the total count.
// Paginated procedures repeat the total count on every row.
func (r *Repository) List(ctx context.Context, params incidents.ListParams) ([]domain.Incident, int, error) {
	rows, err := r.gw.Query(ctx, "incident_list",
		params.Page, params.PageSize, params.SortColumn, params.SortDir)
	if err != nil {
		return nil, 0, err
	}

	return scanIncidentPage(rows)
}

// GetByID returns an incident with resolved display names, archived or
// not.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Incident, error) {
	rows, err := r.gw.Query(ctx, "incident_get", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, incidents.ErrIncidentNotFound
	}

	incident := scanIncident(rows[0])
	return &incident, nil
}

// Create inserts a new incident and returns its generated id.
func (r *Repository) Create(ctx context.Context, incident *domain.Incident) (int64, error) {
	return r.gw.QueryValue(ctx, "incident_insert",
		incident.Title,
		incident.Description,
		incident.SeverityLevel,
		incident.IncidentDate,
		incident.LocationID,
		incident.DepartmentID,
		incident.CategoryID,
		incident.ReportedByID,
		incident.RootCause,
		incident.InjuriesInvolved,
		incident.WitnessCount,
		incident.EstimatedCost,
	)
}

// Update replaces the full writable field set of an incident. Returns
// false when the id matched no row.
func (r *Repository) Update(ctx context.Context, incident *domain.Incident) (bool, error) {
	affected, err := r.gw.Exec(ctx, "incident_update",
		incident.ID,
		incident.Title,
		incident.Description,
		incident.SeverityLevel,
		incident.IncidentDate,
		incident.LocationID,
		incident.DepartmentID,
		incident.CategoryID,
		string(incident.Status),
		incident.RootCause,
		incident.InjuriesInvolved,
		incident.WitnessCount,
		incident.EstimatedCost,
		incident.ClosedByID,
	)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Archive marks an incident archived. Returns false when the id matched
// no row or the incident was already archived.
func (r *Repository) Archive(ctx context.Context, id int64) (bool, error) {
	affected, err := r.gw.Exec(ctx, "incident_archive", id)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Search returns incidents matching the filters plus the total count.
func (r *Repository) Search(ctx context.Context, filters incidents.SearchFilters) ([]domain.Incident, int, error) {
	var keyword *string
	if filters.Keyword != "" {
		keyword = &filters.Keyword
	}
	var status *string
	if filters.Status != "" {
		status = &filters.Status
	}

	rows, err := r.gw.Query(ctx, "incident_search",
		keyword,
		filters.DepartmentID,
		filters.LocationID,
		filters.CategoryID,
		filters.Severity,
		status,
		filters.From,
		filters.To,
		filters.Page,
		filters.PageSize,
	)
	if err != nil {
		return nil, 0, err
	}

	return scanIncidentPage(rows)
}

// ListActions returns all actions recorded for an incident.
func (r *Repository) ListActions(ctx context.Context, incidentID int64) ([]domain.Action, error) {
	rows, err := r.gw.Query(ctx, "incident_actions", incidentID)
	if err != nil {
		return nil, err
	}

	actions := make([]domain.Action, 0, len(rows))
	for _, row := range rows {
		actions = append(actions, scanAction(row))
	}
	return actions, nil
}

// GetAction returns an action with resolved display names and the
// assignee's email.
func (r *Repository) GetAction(ctx context.Context, id int64) (*domain.Action, error) {
	rows, err := r.gw.Query(ctx, "action_get", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, incidents.ErrActionNotFound
	}

	action := scanAction(rows[0])
	return &action, nil
}

// CreateAction inserts a new action and returns its generated id.
func (r *Repository) CreateAction(ctx context.Context, action *domain.Action) (int64, error) {
	return r.gw.QueryValue(ctx, "action_insert",
		action.IncidentID,
		action.Description,
		string(action.Type),
		action.AssignedToID,
		action.CreatedByID,
		action.DueDate,
		action.Status,
		action.Notes,
	)
}

// UpdateAction replaces an action's writable fields. Returns false when
// the id matched no row.
func (r *Repository) UpdateAction(ctx context.Context, action *domain.Action) (bool, error) {
	affected, err := r.gw.Exec(ctx, "action_update",
		action.ID,
		action.Description,
		string(action.Type),
		action.AssignedToID,
		action.DueDate,
		action.CompletedDate,
		action.Status,
		action.Notes,
	)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListOverdueActions returns incomplete actions past their due date,
// ordered by due date ascending.
func (r *Repository) ListOverdueActions(ctx context.Context) ([]domain.Action, error) {
	rows, err := r.gw.Query(ctx, "actions_overdue")
	if err != nil {
		return nil, err
	}

	actions := make([]domain.Action, 0, len(rows))
	for _, row := range rows {
		actions = append(actions, scanAction(row))
	}
	return actions, nil
}

func scanIncidentPage(rows []store.Row) ([]domain.Incident, int, error) {
	items := make([]domain.Incident, 0, len(rows))
	total := 0
	for _, row := range rows {
		items = append(items, scanIncident(row))
		total = int(row.Int64("total_count"))
	}
	return items, total, nil
}

func scanIncident(row store.Row) domain.Incident {
	return domain.Incident{
		ID:               row.Int64("id"),
		Title:            row.String("title"),
		Description:      row.String("description"),
		SeverityLevel:    row.Int("severity_level"),
		SeverityLabel:    domain.SeverityLabel(row.Int("severity_level")),
		IncidentDate:     row.Time("incident_date"),
		LocationID:       row.Int64("location_id"),
		LocationName:     row.String("location_name"),
		DepartmentID:     row.Int64("department_id"),
		DepartmentName:   row.String("department_name"),
		CategoryID:       row.Int64("category_id"),
		CategoryName:     row.String("category_name"),
		ReportedByID:     row.Int64("reported_by_id"),
		ReportedByName:   row.String("reported_by_name"),
		Status:           domain.IncidentStatus(row.String("status")),
		RootCause:        row.String("root_cause"),
		InjuriesInvolved: row.Bool("injuries_involved"),
		WitnessCount:     row.Int("witness_count"),
		EstimatedCost:    row.FloatPtr("estimated_cost"),
		ClosedByID:       row.Int64Ptr("closed_by_id"),
		ClosedByName:     row.String("closed_by_name"),
		CreatedAt:        row.Time("created_at"),
		UpdatedAt:        row.Time("updated_at"),
	}
}

func scanAction(row store.Row) domain.Action {
	return domain.Action{
		ID:              row.Int64("id"),
		IncidentID:      row.Int64("incident_id"),
		IncidentTitle:   row.String("incident_title"),
		Description:     row.String("description"),
		Type:            domain.ActionType(row.String("action_type")),
		AssignedToID:    row.Int64("assigned_to_id"),
		AssignedToName:  row.String("assigned_to_name"),
		AssignedToEmail: row.String("assigned_to_email"),
		CreatedByID:     row.Int64("created_by_id"),
		CreatedByName:   row.String("created_by_name"),
		DueDate:         row.TimePtr("due_date"),
		CompletedDate:   row.TimePtr("completed_date"),
		Status:          row.String("status"),
		Notes:           row.String("notes"),
		CreatedAt:       row.Time("created_at"),
		UpdatedAt:       row.Time("updated_at"),
	}
}
