package reports

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safetydesk/safetydesk/internal/domain"
)

type mockRepo struct {
	exportRows []domain.Incident

	trendMonths int
	topLimit    int
}

func (m *mockRepo) Dashboard(_ context.Context) (*DashboardMetrics, error) {
	return &DashboardMetrics{}, nil
}

func (m *mockRepo) IncidentsByMonth(_ context.Context, monthsBack int) ([]MonthCount, error) {
	m.trendMonths = monthsBack
	return nil, nil
}

func (m *mockRepo) IncidentsByDepartment(_ context.Context) ([]DepartmentCount, error) {
	return nil, nil
}

func (m *mockRepo) IncidentsBySeverity(_ context.Context) ([]SeverityCount, error) {
	return nil, nil
}

func (m *mockRepo) TopCategories(_ context.Context, limit int) ([]CategoryCount, error) {
	m.topLimit = limit
	return nil, nil
}

func (m *mockRepo) ExportIncidents(_ context.Context, _ ExportFilters, limit int) ([]domain.Incident, error) {
	if len(m.exportRows) > limit {
		return m.exportRows[:limit], nil
	}
	return m.exportRows, nil
}

func (m *mockRepo) IncidentsForPeriod(_ context.Context, _, _ time.Time) ([]domain.Incident, error) {
	return m.exportRows, nil
}

func exportRows(n int) []domain.Incident {
	rows := make([]domain.Incident, n)
	for i := range rows {
		rows[i] = sampleIncident(int64(i+1), 3)
	}
	return rows
}

func newTestService(t *testing.T, repo Repository, limit int) *Service {
	t.Helper()
	renderer, err := NewRenderer()
	require.NoError(t, err)
	return NewService(repo, nil, renderer, limit)
}

func TestExportIncidentsEmptyIsError(t *testing.T) {
	svc := newTestService(t, &mockRepo{}, 100)

	var buf bytes.Buffer
	err := svc.ExportIncidents(context.Background(), &buf, ExportFilters{})
	assert.ErrorIs(t, err, ErrNoData)
	assert.Zero(t, buf.Len())
}

func TestExportIncidentsOverCap(t *testing.T) {
	svc := newTestService(t, &mockRepo{exportRows: exportRows(11)}, 10)

	var buf bytes.Buffer
	err := svc.ExportIncidents(context.Background(), &buf, ExportFilters{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooManyRows)
	assert.Contains(t, err.Error(), "limit 10")
}

func TestExportIncidentsAtCap(t *testing.T) {
	svc := newTestService(t, &mockRepo{exportRows: exportRows(10)}, 10)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportIncidents(context.Background(), &buf, ExportFilters{}))
	assert.Contains(t, buf.String(), "Excel.Sheet")
}

func TestTrendMonthsDefault(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(t, repo, 0)

	_, err := svc.IncidentsByMonth(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTrendMonths, repo.trendMonths)

	_, err = svc.IncidentsByMonth(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, 6, repo.trendMonths)
}

func TestTopCategoriesDefault(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(t, repo, 0)

	_, err := svc.TopCategories(context.Background(), -1)
	require.NoError(t, err)
	assert.Equal(t, DefaultTopCount, repo.topLimit)
}
