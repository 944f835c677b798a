// Package postgres provides the procedure-backed reports repository.
package postgres

import (
	"context"
	"time"

	"github.com/safetydesk/safetydesk/internal/domain"
	"github.com/safetydesk/safetydesk/internal/reports"
	"github.com/safetydesk/safetydesk/internal/store"
)

// Repository implements reports.Repository over the store gateway.
type Repository struct {
	gw *store.Gateway
}

// NewRepository creates a new reports repository.
func NewRepository(gw *store.Gateway) *Repository {
	return &Repository{gw: gw}
}

// Dashboard returns the headline dashboard figures as a single row.
func (r *Repository) Dashboard(ctx context.Context) (*reports.DashboardMetrics, error) {
	rows, err := r.gw.Query(ctx, "report_dashboard")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &reports.DashboardMetrics{}, nil
	}

	row := rows[0]
	return &reports.DashboardMetrics{
		TotalIncidents:    row.Int("total_incidents"),
		OpenIncidents:     row.Int("open_incidents"),
		ClosedIncidents:   row.Int("closed_incidents"),
		AvgResolutionDays: row.Float("avg_resolution_days"),
		CriticalIncidents: row.Int("critical_incidents"),
		WithInjuries:      row.Int("with_injuries"),
		OverdueActions:    row.Int("overdue_actions"),
		PendingActions:    row.Int("pending_actions"),
	}, nil
}

// IncidentsByMonth returns the monthly trend, oldest month first.
func (r *Repository) IncidentsByMonth(ctx context.Context, monthsBack int) ([]reports.MonthCount, error) {
	rows, err := r.gw.Query(ctx, "report_by_month", monthsBack)
	if err != nil {
		return nil, err
	}

	counts := make([]reports.MonthCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, reports.MonthCount{
			Month: row.String("month"),
			Count: row.Int("count"),
		})
	}
	return counts, nil
}

// IncidentsByDepartment returns incident counts per department.
func (r *Repository) IncidentsByDepartment(ctx context.Context) ([]reports.DepartmentCount, error) {
	rows, err := r.gw.Query(ctx, "report_by_department")
	if err != nil {
		return nil, err
	}

	counts := make([]reports.DepartmentCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, reports.DepartmentCount{
			Department: row.String("department"),
			Count:      row.Int("count"),
		})
	}
	return counts, nil
}

// IncidentsBySeverity returns incident counts per severity level.
func (r *Repository) IncidentsBySeverity(ctx context.Context) ([]reports.SeverityCount, error) {
	rows, err := r.gw.Query(ctx, "report_by_severity")
	if err != nil {
		return nil, err
	}

	counts := make([]reports.SeverityCount, 0, len(rows))
	for _, row := range rows {
		level := row.Int("severity_level")
		counts = append(counts, reports.SeverityCount{
			SeverityLevel: level,
			SeverityLabel: domain.SeverityLabel(level),
			Count:         row.Int("count"),
		})
	}
	return counts, nil
}

// TopCategories returns the most frequent categories, highest count
// first.
func (r *Repository) TopCategories(ctx context.Context, limit int) ([]reports.CategoryCount, error) {
	rows, err := r.gw.Query(ctx, "report_top_categories", limit)
	if err != nil {
		return nil, err
	}

	counts := make([]reports.CategoryCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, reports.CategoryCount{
			Category: row.String("category"),
			Count:    row.Int("count"),
		})
	}
	return counts, nil
}

// ExportIncidents returns at most limit matching incidents, newest
// first, with resolved display names.
func (r *Repository) ExportIncidents(ctx context.Context, filters reports.ExportFilters, limit int) ([]domain.Incident, error) {
	var keyword *string
	if filters.Keyword != "" {
		keyword = &filters.Keyword
	}
	var status *string
	if filters.Status != "" {
		status = &filters.Status
	}

	rows, err := r.gw.Query(ctx, "report_export",
		keyword,
		filters.DepartmentID,
		filters.LocationID,
		filters.CategoryID,
		filters.Severity,
		status,
		filters.From,
		filters.To,
		limit,
	)
	if err != nil {
		return nil, err
	}

	return scanIncidents(rows), nil
}

// IncidentsForPeriod returns all incidents dated inside [from, to].
func (r *Repository) IncidentsForPeriod(ctx context.Context, from, to time.Time) ([]domain.Incident, error) {
	rows, err := r.gw.Query(ctx, "report_period", from, to)
	if err != nil {
		return nil, err
	}

	return scanIncidents(rows), nil
}

func scanIncidents(rows []store.Row) []domain.Incident {
	items := make([]domain.Incident, 0, len(rows))
	for _, row := range rows {
		items = append(items, domain.Incident{
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
		})
	}
	return items
}
