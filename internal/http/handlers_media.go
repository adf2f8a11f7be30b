package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/target/trendscout/internal/core"
	"github.com/target/trendscout/internal/domain/model"
	"github.com/target/trendscout/internal/service"
)

// MediaHandlers serves transient media cleanup.
type MediaHandlers struct {
	Cleaner core.MediaCleaner
	Logger  *slog.Logger
}

// Cleanup deletes the named media objects. Repeating a request is safe.
func (h *MediaHandlers) Cleanup(w http.ResponseWriter, r *http.Request) {
	var req model.CleanupRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	res, err := h.Cleaner.Cleanup(r.Context(), req)
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, Message: err.Error()})
	case err != nil:
		logger(h.Logger).ErrorContext(r.Context(), "media cleanup failed", "error", err)
		WriteAppError(w, err, "cleanup failed")
	default:
		WriteSuccess(w, res)
	}
}
