package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/safetydesk/safetydesk/internal/pkg/ctxlog"
)

// ErrorMapping pairs a sentinel error with the status it maps to. An
// empty Message exposes err.Error() to the client; set it when the
// underlying error must not leak.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string
}

// HandleError writes the response for the first mapping matched with
// errors.Is. Unmapped errors are logged and answered with a generic 500
// so internals never reach the client.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings []ErrorMapping) {
	for _, m := range mappings {
		if errors.Is(err, m.Error) {
			m.respond(w, err)
			return
		}
	}

	ctxlog.FromContext(ctx).Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, "internal error")
}

func (m ErrorMapping) respond(w http.ResponseWriter, err error) {
	msg := m.Message
	if msg == "" {
		msg = err.Error()
	}
	Error(w, m.Status, msg)
}
