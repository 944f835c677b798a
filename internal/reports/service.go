package reports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/safetydesk/safetydesk/internal/domain"
)

// Default parameter values for the chart reads.
const (
	DefaultTrendMonths = 12
	DefaultTopCount    = 5
	DefaultExportLimit = 10000
)

// Sentinel errors for the reports module.
var (
	// ErrNoData means the filter matched nothing; an empty workbook is
	// never produced.
	ErrNoData = errors.New("no incidents match the filter")
	// ErrTooManyRows means the filter matched more rows than the export
	// cap allows.
	ErrTooManyRows = errors.New("too many incidents to export, narrow your filter")
)

// IncidentReader supplies the detail export with its incident and
// actions. Satisfied by the incidents service.
type IncidentReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Incident, error)
	ListActions(ctx context.Context, incidentID int64) ([]domain.Action, error)
}

// Service implements the reporting reads and exports.
type Service struct {
	repo        Repository
	incidents   IncidentReader
	renderer    *Renderer
	exportLimit int
}

// NewService creates a new reports service. exportLimit caps workbook
// exports; values below 1 fall back to the default.
func NewService(repo Repository, incidents IncidentReader, renderer *Renderer, exportLimit int) *Service {
	if exportLimit < 1 {
		exportLimit = DefaultExportLimit
	}
	return &Service{
		repo:        repo,
		incidents:   incidents,
		renderer:    renderer,
		exportLimit: exportLimit,
	}
}

// Dashboard returns the headline dashboard figures.
func (s *Service) Dashboard(ctx context.Context) (*DashboardMetrics, error) {
	return s.repo.Dashboard(ctx)
}

// IncidentsByMonth returns the monthly trend. monthsBack below 1 falls
// back to twelve months.
func (s *Service) IncidentsByMonth(ctx context.Context, monthsBack int) ([]MonthCount, error) {
	if monthsBack < 1 {
		monthsBack = DefaultTrendMonths
	}
	return s.repo.IncidentsByMonth(ctx, monthsBack)
}

// IncidentsByDepartment returns incident counts per department.
func (s *Service) IncidentsByDepartment(ctx context.Context) ([]DepartmentCount, error) {
	return s.repo.IncidentsByDepartment(ctx)
}

// IncidentsBySeverity returns incident counts per severity level.
func (s *Service) IncidentsBySeverity(ctx context.Context) ([]SeverityCount, error) {
	return s.repo.IncidentsBySeverity(ctx)
}

// TopCategories returns the most frequent categories. limit below 1
// falls back to five.
func (s *Service) TopCategories(ctx context.Context, limit int) ([]CategoryCount, error) {
	if limit < 1 {
		limit = DefaultTopCount
	}
	return s.repo.TopCategories(ctx, limit)
}

// ExportIncidents writes a spreadsheet of the matching incidents.
// An empty match set and a match set above the row cap are both errors.
func (s *Service) ExportIncidents(ctx context.Context, w io.Writer, filters ExportFilters) error {
	// Fetch one row past the cap to tell "at the cap" from "over it".
	rows, err := s.repo.ExportIncidents(ctx, filters, s.exportLimit+1)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNoData
	}
	if len(rows) > s.exportLimit {
		return fmt.Errorf("%w (limit %d)", ErrTooManyRows, s.exportLimit)
	}

	return s.renderer.WriteWorkbook(w, rows)
}

// ExportIncidentDetail writes one incident with its actions as an HTML
// document.
func (s *Service) ExportIncidentDetail(ctx context.Context, w io.Writer, id int64) error {
	incident, err := s.incidents.GetByID(ctx, id)
	if err != nil {
		return err
	}

	actions, err := s.incidents.ListActions(ctx, id)
	if err != nil {
		return err
	}

	return s.renderer.WriteIncidentDetail(w, incident, actions)
}

// Summary writes a plain-text period summary for incidents dated inside
// [from, to].
func (s *Service) Summary(ctx context.Context, w io.Writer, from, to time.Time) error {
	rows, err := s.repo.IncidentsForPeriod(ctx, from, to)
	if err != nil {
		return err
	}

	return s.renderer.WriteSummary(w, from, to, rows)
}
