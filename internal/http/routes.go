package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/target/trendscout/internal/core"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Runner     core.WorkflowRunner
	Runs       core.WorkflowRunRepository
	Stream     core.StreamAnalyzer
	Cleaner    core.MediaCleaner
	Dispatcher core.Dispatcher // Optional: manual tick route is omitted when nil
	Health     []HealthCheck
	Now        func() time.Time
	Logger     *slog.Logger
}

// NewRouter creates the API router wrapped in recovery and request logging.
func NewRouter(services RouterServices) http.Handler {
	log := logger(services.Logger)
	mux := http.NewServeMux()

	workflows := &WorkflowHandlers{Runner: services.Runner, Runs: services.Runs, Logger: log}
	stream := &StreamHandlers{Analyzer: services.Stream, Logger: log}
	media := &MediaHandlers{Cleaner: services.Cleaner, Logger: log}
	health := &HealthHandlers{Checks: services.Health}

	mux.HandleFunc("POST /api/workflows/run", workflows.Run)
	mux.HandleFunc("GET /api/workflows/runs/{id}", workflows.Get)
	mux.HandleFunc("POST /api/analysis/stream", stream.Analyze)
	mux.HandleFunc("POST /api/media/cleanup", media.Cleanup)
	if services.Dispatcher != nil {
		scheduler := &SchedulerHandlers{Dispatcher: services.Dispatcher, Now: services.Now, Logger: log}
		mux.HandleFunc("POST /api/scheduler/tick", scheduler.Tick)
	}
	mux.HandleFunc("GET /health", health.Health)
	mux.HandleFunc("HEAD /health", health.Health)

	return Recover(log)(Logging(log)(mux))
}
