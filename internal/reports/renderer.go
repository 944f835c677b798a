package reports

import (
	"embed"
	"encoding/xml"
	"fmt"
	htmltemplate "html/template"
	"io"
	"strings"
	texttemplate "text/template"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/safetydesk/safetydesk/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Renderer turns incident data into export documents. All methods are
// pure: they write to the provided writer and hold no state between
// calls.
type Renderer struct {
	workbook *texttemplate.Template
	detail   *htmltemplate.Template
	summary  *texttemplate.Template
}

// NewRenderer parses the embedded export templates.
func NewRenderer() (*Renderer, error) {
	titleCaser := cases.Title(language.English)

	workbook, err := texttemplate.New("workbook.tmpl").Funcs(texttemplate.FuncMap{
		"xml":           xmlEscape,
		"severityLabel": domain.SeverityLabel,
		"severityStyle": severityStyle,
		"excelDate":     excelDate,
		"money":         money,
	}).ParseFS(templateFS, "templates/workbook.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse workbook template: %w", err)
	}

	detail, err := htmltemplate.New("incident_detail.tmpl").Funcs(htmltemplate.FuncMap{
		"titleCase":     titleCaser.String,
		"severityLabel": domain.SeverityLabel,
		"severityClass": domain.SeverityClass,
		"badgeClass":    domain.StatusBadgeClass,
		"formatDate":    formatDate,
		"formatTime":    formatTime,
		"money":         money,
	}).ParseFS(templateFS, "templates/incident_detail.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse detail template: %w", err)
	}

	summary, err := texttemplate.New("summary.tmpl").
		ParseFS(templateFS, "templates/summary.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse summary template: %w", err)
	}

	return &Renderer{
		workbook: workbook,
		detail:   detail,
		summary:  summary,
	}, nil
}

// WriteWorkbook writes the incidents as a SpreadsheetML workbook.
func (r *Renderer) WriteWorkbook(w io.Writer, incidents []domain.Incident) error {
	if err := r.workbook.Execute(w, incidents); err != nil {
		return fmt.Errorf("render workbook: %w", err)
	}
	return nil
}

type detailData struct {
	Incident *domain.Incident
	Actions  []domain.Action
	Now      time.Time
}

// WriteIncidentDetail writes one incident with its actions as an HTML
// document.
func (r *Renderer) WriteIncidentDetail(w io.Writer, incident *domain.Incident, actions []domain.Action) error {
	data := detailData{
		Incident: incident,
		Actions:  actions,
		Now:      time.Now(),
	}
	if err := r.detail.Execute(w, data); err != nil {
		return fmt.Errorf("render incident detail: %w", err)
	}
	return nil
}

type summaryData struct {
	From         time.Time
	To           time.Time
	GeneratedAt  time.Time
	Total        int
	Critical     int
	High         int
	Moderate     int
	Low          int
	WithInjuries int
	TotalCost    float64
	StatusCounts []statusCount
}

type statusCount struct {
	Status string
	Count  int
}

// WriteSummary writes a plain-text period summary. Severity buckets:
// Critical is 5, High is 4, Moderate is 2 and 3, Low is 1.
func (r *Renderer) WriteSummary(w io.Writer, from, to time.Time, incidents []domain.Incident) error {
	data := summaryData{
		From:        from,
		To:          to,
		GeneratedAt: time.Now(),
		Total:       len(incidents),
	}

	byStatus := make(map[string]int)
	var statusOrder []string
	for _, incident := range incidents {
		switch incident.SeverityLevel {
		case 5:
			data.Critical++
		case 4:
			data.High++
		case 2, 3:
			data.Moderate++
		case 1:
			data.Low++
		}
		if incident.InjuriesInvolved {
			data.WithInjuries++
		}
		if incident.EstimatedCost != nil {
			data.TotalCost += *incident.EstimatedCost
		}
		status := string(incident.Status)
		if _, seen := byStatus[status]; !seen {
			statusOrder = append(statusOrder, status)
		}
		byStatus[status]++
	}
	for _, status := range statusOrder {
		data.StatusCounts = append(data.StatusCounts, statusCount{Status: status, Count: byStatus[status]})
	}

	if err := r.summary.Execute(w, data); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}
	return nil
}

// severityStyle picks the workbook cell style for a severity level.
// Only levels 4 and 5 get highlighted.
func severityStyle(level int) string {
	switch level {
	case 5:
		return "sCritical"
	case 4:
		return "sHigh"
	default:
		return "sDefault"
	}
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func money(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

func excelDate(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000")
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}
