package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/croustipeze/cookbook/internal/errors"
	"github.com/croustipeze/cookbook/internal/sentry"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError renders err as an AppError body with its status code.
// Anything that is not an AppError becomes a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.NewInternalError("internal server error", err)
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"path", r.URL.Path,
			"type", appErr.Type,
			"code", appErr.Code(),
			"error", err.Error(),
		)
	}
	sentry.CaptureError(r.Context(), appErr)

	writeJSON(w, appErr.StatusCode, appErr)
}
