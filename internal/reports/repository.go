// Package reports implements dashboard aggregates, period summaries, and
// incident exports.
package reports

import (
	"context"
	"time"

	"github.com/safetydesk/safetydesk/internal/domain"
)

// DashboardMetrics is the headline figure set for the dashboard.
type DashboardMetrics struct {
	TotalIncidents    int     `json:"total_incidents"`
	OpenIncidents     int     `json:"open_incidents"`
	ClosedIncidents   int     `json:"closed_incidents"`
	AvgResolutionDays float64 `json:"avg_resolution_days"`
	CriticalIncidents int     `json:"critical_incidents"`
	WithInjuries      int     `json:"with_injuries"`
	OverdueActions    int     `json:"overdue_actions"`
	PendingActions    int     `json:"pending_actions"`
}

// MonthCount is one point of the monthly trend chart.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// DepartmentCount is one bar of the per-department chart.
type DepartmentCount struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

// SeverityCount is one bar of the per-severity chart.
type SeverityCount struct {
	SeverityLevel int    `json:"severity_level"`
	SeverityLabel string `json:"severity_label"`
	Count         int    `json:"count"`
}

// CategoryCount is one row of the top-categories chart.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// ExportFilters narrows an incident export. Mirrors the search filters
// without paging: exports return every matching row up to the cap.
type ExportFilters struct {
	Keyword      string
	DepartmentID *int64
	LocationID   *int64
	CategoryID   *int64
	Severity     *int
	Status       string
	From         *time.Time
	To           *time.Time
}

// Repository defines the reporting reads.
type Repository interface {
	Dashboard(ctx context.Context) (*DashboardMetrics, error)
	IncidentsByMonth(ctx context.Context, monthsBack int) ([]MonthCount, error)
	IncidentsByDepartment(ctx context.Context) ([]DepartmentCount, error)
	IncidentsBySeverity(ctx context.Context) ([]SeverityCount, error)
	TopCategories(ctx context.Context, limit int) ([]CategoryCount, error)

	// ExportIncidents returns at most limit matching rows, newest first.
	ExportIncidents(ctx context.Context, filters ExportFilters, limit int) ([]domain.Incident, error)
	// IncidentsForPeriod returns all incidents dated inside [from, to].
	IncidentsForPeriod(ctx context.Context, from, to time.Time) ([]domain.Incident, error)
}
