package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hauntworks/platform/internal/domains"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the domain error taxonomy onto HTTP statuses. Operator
// errors carry their actionable message; anything unexpected is logged and
// hidden behind a generic 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domains.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: userMessage(err)})
	case domains.IsConflict(err):
		writeJSON(w, http.StatusConflict, errorResponse{Error: userMessage(err)})
	case domains.IsValidation(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: userMessage(err)})
	default:
		h.log.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// userMessage strips the package prefix from sentinel errors so operators
// see "cannot delete auto-generated subdomain" rather than
// "domains: cannot delete auto-generated subdomain".
func userMessage(err error) string {
	return strings.TrimPrefix(err.Error(), "domains: ")
}
