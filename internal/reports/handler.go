package reports

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/safetydesk/safetydesk/internal/incidents"
	"github.com/safetydesk/safetydesk/internal/pkg/httputil"
	"github.com/safetydesk/safetydesk/internal/store"
)

// Handler handles HTTP requests for the reports module.
type Handler struct {
	service *Service
}

// NewHandler creates a new reports handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers report routes available to any authenticated
// user.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/reports/dashboard", h.Dashboard)
	r.Get("/reports/trend", h.Trend)
	r.Get("/reports/by-department", h.ByDepartment)
	r.Get("/reports/by-severity", h.BySeverity)
	r.Get("/reports/top-categories", h.TopCategories)
	r.Get("/reports/summary", h.Summary)
}

// RegisterManagerRoutes registers export routes requiring the manager
// role.
func (h *Handler) RegisterManagerRoutes(r chi.Router) {
	r.Get("/exports/incidents", h.ExportIncidents)
	r.Get("/exports/incidents/{id}", h.ExportIncidentDetail)
}

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrNoData, Status: http.StatusNotFound},
	{Error: ErrTooManyRows, Status: http.StatusBadRequest},
	{Error: incidents.ErrIncidentNotFound, Status: http.StatusNotFound},
	{Error: store.ErrStore, Status: http.StatusInternalServerError, Message: "database unavailable, try again later"},
}

// Dashboard handles GET /reports/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.Dashboard(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, metrics)
}

// Trend handles GET /reports/trend.
func (h *Handler) Trend(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.IncidentsByMonth(r.Context(), queryInt(r, "months", DefaultTrendMonths))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, counts)
}

// ByDepartment handles GET /reports/by-department.
func (h *Handler) ByDepartment(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.IncidentsByDepartment(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, counts)
}

// BySeverity handles GET /reports/by-severity.
func (h *Handler) BySeverity(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.IncidentsBySeverity(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, counts)
}

// TopCategories handles GET /reports/top-categories.
func (h *Handler) TopCategories(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.TopCategories(r.Context(), queryInt(r, "n", DefaultTopCount))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, counts)
}

// Summary handles GET /reports/summary. Responds with plain text.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	from, err := queryDate(r, "start")
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := queryDate(r, "end")
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if !from.Before(to) {
		httputil.Error(w, http.StatusBadRequest, "start must be before end")
		return
	}

	var buf bytes.Buffer
	if err := h.service.Summary(r.Context(), &buf, from, to); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// ExportIncidents handles GET /exports/incidents. Streams a
// SpreadsheetML workbook of the incidents matching the search filters.
func (h *Handler) ExportIncidents(w http.ResponseWriter, r *http.Request) {
	filters, err := parseExportFilters(r)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	// Render to memory first so filter errors still produce a clean
	// JSON error response instead of a truncated attachment.
	var buf bytes.Buffer
	if err := h.service.ExportIncidents(r.Context(), &buf, filters); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	writeAttachment(w, "incidents", "xls", "application/vnd.ms-excel", buf.Bytes())
}

// ExportIncidentDetail handles GET /exports/incidents/{id}. Streams an
// HTML document of one incident with its actions.
func (h *Handler) ExportIncidentDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		httputil.Error(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}

	var buf bytes.Buffer
	if err := h.service.ExportIncidentDetail(r.Context(), &buf, id); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	writeAttachment(w, "incident_detail", "html", "text/html; charset=utf-8", buf.Bytes())
}

func writeAttachment(w http.ResponseWriter, stem, ext, contentType string, body []byte) {
	filename := fmt.Sprintf("%s_%s.%s", stem, time.Now().Format("20060102_150405"), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = w.Write(body)
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func queryDate(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	t, err := parseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a date (YYYY-MM-DD or RFC 3339)", name)
	}
	return t, nil
}

func parseExportFilters(r *http.Request) (ExportFilters, error) {
	q := r.URL.Query()

	filters := ExportFilters{
		Keyword: q.Get("keyword"),
		Status:  q.Get("status"),
	}

	for name, dst := range map[string]**int64{
		"department_id": &filters.DepartmentID,
		"location_id":   &filters.LocationID,
		"category_id":   &filters.CategoryID,
	} {
		if raw := q.Get(name); raw != "" {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return filters, fmt.Errorf("%s must be an integer", name)
			}
			*dst = &v
		}
	}

	if raw := q.Get("severity"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return filters, fmt.Errorf("severity must be an integer")
		}
		filters.Severity = &v
	}

	for name, dst := range map[string]**time.Time{
		"from": &filters.From,
		"to":   &filters.To,
	} {
		if raw := q.Get(name); raw != "" {
			t, err := parseDate(raw)
			if err != nil {
				return filters, fmt.Errorf("%s must be a date (YYYY-MM-DD or RFC 3339)", name)
			}
			*dst = &t
		}
	}

	return filters, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
