package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/target/trendscout/internal/core"
)

// SchedulerHandlers exposes a manual dispatcher tick for out-of-process triggers.
type SchedulerHandlers struct {
	Dispatcher core.Dispatcher
	Now        func() time.Time
	Logger     *slog.Logger
}

// Tick runs one dispatcher tick at the current time.
func (h *SchedulerHandlers) Tick(w http.ResponseWriter, r *http.Request) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	res, err := h.Dispatcher.Tick(r.Context(), now())
	if err != nil {
		logger(h.Logger).ErrorContext(r.Context(), "manual tick failed", "error", err)
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, Message: "tick failed"})
		return
	}
	WriteSuccess(w, res)
}
