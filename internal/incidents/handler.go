package incidents

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/safetydesk/safetydesk/internal/domain"
	"github.com/safetydesk/safetydesk/internal/pkg/httputil"
	"github.com/safetydesk/safetydesk/internal/store"
)

// Handler handles HTTP requests for the incidents module.
type Handler struct {
	service *Service
}

// NewHandler creates a new incidents handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers read routes available to any authenticated user.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/incidents", h.List)
	r.Get("/incidents/search", h.Search)
	r.Get("/incidents/{id}", h.Get)
	r.Get("/incidents/{id}/actions", h.ListActions)
	r.Get("/actions/overdue", h.ListOverdueActions)
}

// RegisterReporterRoutes registers mutation routes requiring the reporter role.
func (h *Handler) RegisterReporterRoutes(r chi.Router) {
	r.Post("/incidents", h.Create)
	r.Put("/incidents/{id}", h.Update)
	r.Post("/incidents/{id}/actions", h.CreateAction)
	r.Put("/actions/{id}", h.UpdateAction)
}

// RegisterManagerRoutes registers routes requiring the manager role.
func (h *Handler) RegisterManagerRoutes(r chi.Router) {
	r.Delete("/incidents/{id}", h.Delete)
}

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrValidation, Status: http.StatusBadRequest},
	{Error: ErrIncidentNotFound, Status: http.StatusNotFound},
	{Error: ErrActionNotFound, Status: http.StatusNotFound},
	{Error: store.ErrStore, Status: http.StatusInternalServerError, Message: "database unavailable, try again later"},
}

// IncidentRequest is the write body for incidents. Field validation is
// done by the service so every violation is reported in one response.
type IncidentRequest struct {
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	SeverityLevel    int       `json:"severity_level"`
	IncidentDate     time.Time `json:"incident_date"`
	LocationID       int64     `json:"location_id"`
	DepartmentID     int64     `json:"department_id"`
	CategoryID       int64     `json:"category_id"`
	ReportedByID     int64     `json:"reported_by_id"`
	Status           string    `json:"status"`
	RootCause        string    `json:"root_cause"`
	InjuriesInvolved bool      `json:"injuries_involved"`
	WitnessCount     int       `json:"witness_count"`
	EstimatedCost    *float64  `json:"estimated_cost"`
	ClosedByID       *int64    `json:"closed_by_id"`
}

func (req IncidentRequest) toInput() IncidentInput {
	return IncidentInput{
		Title:            req.Title,
		Description:      req.Description,
		SeverityLevel:    req.SeverityLevel,
		IncidentDate:     req.IncidentDate,
		LocationID:       req.LocationID,
		DepartmentID:     req.DepartmentID,
		CategoryID:       req.CategoryID,
		ReportedByID:     req.ReportedByID,
		Status:           domain.IncidentStatus(req.Status),
		RootCause:        req.RootCause,
		InjuriesInvolved: req.InjuriesInvolved,
		WitnessCount:     req.WitnessCount,
		EstimatedCost:    req.EstimatedCost,
		ClosedByID:       req.ClosedByID,
	}
}

// ActionRequest is the write body for follow-up actions.
type ActionRequest struct {
	Description   string     `json:"description"`
	Type          string     `json:"action_type"`
	AssignedToID  int64      `json:"assigned_to_id"`
	DueDate       *time.Time `json:"due_date"`
	CompletedDate *time.Time `json:"completed_date"`
	Status        string     `json:"status"`
	Notes         string     `json:"notes"`
}

// ListResponse wraps a page of incidents with the total count.
type ListResponse struct {
	Items    []domain.Incident `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// List handles GET /incidents.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := ListParams{
		Page:       queryInt(r, "page", 1),
		PageSize:   queryInt(r, "page_size", DefaultPageSize),
		SortColumn: r.URL.Query().Get("sort"),
		SortDir:    r.URL.Query().Get("dir"),
	}

	items, total, err := h.service.List(r.Context(), params)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, ListResponse{
		Items:    items,
		Total:    total,
		Page:     max(params.Page, 1),
		PageSize: params.PageSize,
	})
}

// Search handles GET /incidents/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	filters, err := parseSearchFilters(r)
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.service.Search(r.Context(), filters)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, ListResponse{
		Items:    items,
		Total:    total,
		Page:     max(filters.Page, 1),
		PageSize: filters.PageSize,
	})
}

// Get handles GET /incidents/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	incident, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, incident)
}

// Create handles POST /incidents.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req IncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	input := req.toInput()
	if input.ReportedByID == 0 {
		input.ReportedByID = httputil.GetUserID(r.Context())
	}

	id, err := h.service.Create(r.Context(), input)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, map[string]int64{"id": id})
}

// Update handles PUT /incidents/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req IncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	modified, err := h.service.Update(r.Context(), id, req.toInput())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	if !modified {
		httputil.Error(w, http.StatusNotFound, ErrIncidentNotFound.Error())
		return
	}

	incident, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, incident)
}

// Delete handles DELETE /incidents/{id}. The incident is archived, not
// removed: it disappears from listings but stays retrievable by id.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	archived, err := h.service.Delete(r.Context(), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	if !archived {
		httputil.Error(w, http.StatusNotFound, ErrIncidentNotFound.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListActions handles GET /incidents/{id}/actions.
func (h *Handler) ListActions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	actions, err := h.service.ListActions(r.Context(), id)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, actions)
}

// CreateAction handles POST /incidents/{id}/actions.
func (h *Handler) CreateAction(w http.ResponseWriter, r *http.Request) {
	incidentID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	input := ActionInput{
		Description:  req.Description,
		Type:         req.Type,
		AssignedToID: req.AssignedToID,
		CreatedByID:  httputil.GetUserID(r.Context()),
		DueDate:      req.DueDate,
		Status:       req.Status,
		Notes:        req.Notes,
	}

	id, err := h.service.CreateAction(r.Context(), incidentID, input)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, map[string]int64{"id": id})
}

// UpdateAction handles PUT /actions/{id}.
func (h *Handler) UpdateAction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	input := ActionInput{
		Description:   req.Description,
		Type:          req.Type,
		AssignedToID:  req.AssignedToID,
		DueDate:       req.DueDate,
		CompletedDate: req.CompletedDate,
		Status:        req.Status,
		Notes:         req.Notes,
	}

	modified, err := h.service.UpdateAction(r.Context(), id, input)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	if !modified {
		httputil.Error(w, http.StatusNotFound, ErrActionNotFound.Error())
		return
	}

	httputil.Success(w, http.StatusOK, map[string]bool{"updated": true})
}

// ListOverdueActions handles GET /actions/overdue.
func (h *Handler) ListOverdueActions(w http.ResponseWriter, r *http.Request) {
	actions, err := h.service.ListOverdueActions(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, actions)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		httputil.Error(w, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
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

func parseSearchFilters(r *http.Request) (SearchFilters, error) {
	q := r.URL.Query()

	filters := SearchFilters{
		Keyword:  q.Get("keyword"),
		Status:   q.Get("status"),
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "page_size", DefaultPageSize),
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
