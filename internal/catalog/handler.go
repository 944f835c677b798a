package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/safetydesk/safetydesk/internal/pkg/httputil"
	"github.com/safetydesk/safetydesk/internal/store"
)

// Handler handles HTTP requests for reference data.
type Handler struct {
	service *Service
}

// NewHandler creates a new catalog handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers lookup routes used to populate filter panels.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/departments", h.ListDepartments)
	r.Get("/locations", h.ListLocations)
	r.Get("/categories", h.ListCategories)
	r.Get("/users", h.ListUsers)
}

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrUserNotFound, Status: http.StatusNotFound},
	{Error: store.ErrStore, Status: http.StatusInternalServerError, Message: "database unavailable, try again later"},
}

// ListDepartments handles GET /departments.
func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.service.ListDepartments(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, departments)
}

// ListLocations handles GET /locations.
func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.service.ListLocations(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, locations)
}

// ListCategories handles GET /categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, categories)
}

// ListUsers handles GET /users with an optional role filter.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")

	users, err := h.service.ListUsers(r.Context(), role)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, users)
}
