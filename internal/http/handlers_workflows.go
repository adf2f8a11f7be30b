package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/target/trendscout/internal/core"
	"github.com/target/trendscout/internal/data"
	"github.com/target/trendscout/internal/domain/model"
	"github.com/target/trendscout/internal/service"
)

// WorkflowHandlers serves pipeline triggers and run lookups.
type WorkflowHandlers struct {
	Runner core.WorkflowRunner
	Runs   core.WorkflowRunRepository
	Logger *slog.Logger
}

// Run executes one pipeline run synchronously and returns its summary.
func (h *WorkflowHandlers) Run(w http.ResponseWriter, r *http.Request) {
	var req model.RunWorkflowRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, Message: err.Error()})
		return
	}

	run, err := h.Runner.RunWorkflow(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, Message: err.Error()})
			return
		}
		logger(h.Logger).ErrorContext(r.Context(), "workflow run failed", "user_id", req.UserID, "error", err)
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, Message: "workflow failed"})
		return
	}
	WriteSuccess(w, run.Summary())
}

// Get returns one persisted run record.
func (h *WorkflowHandlers) Get(w http.ResponseWriter, r *http.Request) {
	run, err := h.Runs.GetByID(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, data.ErrRunNotFound):
		WriteError(w, ErrorParams{Code: http.StatusNotFound, Message: "workflow run not found"})
	case err != nil:
		logger(h.Logger).ErrorContext(r.Context(), "get workflow run", "error", err)
		WriteAppError(w, err, "failed to load workflow run")
	default:
		WriteSuccess(w, run)
	}
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
