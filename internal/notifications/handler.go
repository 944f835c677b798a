package notifications

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/safetydesk/safetydesk/internal/pkg/httputil"
	"github.com/safetydesk/safetydesk/internal/store"
)

// Handler handles HTTP requests for the notifications module.
type Handler struct {
	service *Service
}

// NewHandler creates a new notifications handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterManagerRoutes registers routes requiring the manager role.
func (h *Handler) RegisterManagerRoutes(r chi.Router) {
	r.Post("/notifications/digest", h.TriggerDigest)
}

var errorMappings = []httputil.ErrorMapping{
	{Error: store.ErrStore, Status: http.StatusInternalServerError, Message: "database unavailable, try again later"},
}

// TriggerDigest handles POST /notifications/digest. Queues the overdue
// digest immediately instead of waiting for the schedule.
func (h *Handler) TriggerDigest(w http.ResponseWriter, r *http.Request) {
	queued, err := h.service.SendOverdueDigest(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusAccepted, map[string]int{"queued": queued})
}
