// Package httputil provides the HTTP plumbing shared by all handlers:
// response envelopes, error mapping, middleware, and request metrics.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Success writes data wrapped in the {"data": ...} envelope.
func Success(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, map[string]interface{}{"data": data})
}

// Error writes the {"error": {"message": ...}} envelope.
func Error(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{"message": message},
	})
}

// JSON writes a raw JSON body without envelope. Prefer Success for API
// responses; this is for surfaces like /version.
func JSON(w http.ResponseWriter, status int, body interface{}) {
	if body == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, body)
}

// Text writes a plain text response.
func Text(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(text)); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// ValidationError writes a 400 with per-field details when err is a
// validator.ValidationErrors, or err.Error() as a details string
// otherwise.
func ValidationError(w http.ResponseWriter, err error) {
	var details interface{}
	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		list := make([]map[string]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			list = append(list, map[string]string{
				"field":   fe.Field(),
				"message": fe.Tag(),
			})
		}
		details = list
	} else {
		details = err.Error()
	}

	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error": map[string]interface{}{
			"message": "validation error",
			"details": details,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
