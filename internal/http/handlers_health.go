package httpx

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck pings one dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthHandlers reports readiness of the process and its dependencies.
type HealthHandlers struct {
	Checks []HealthCheck
}

// Health runs every check concurrently. Any failing check turns the response into a 503.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	var (
		mu     sync.Mutex
		checks = make(map[string]string, len(h.Checks))
		g      errgroup.Group
	)
	for _, c := range h.Checks {
		g.Go(func() error {
			status := "ok"
			if err := c.Check(ctx); err != nil {
				status = "error: " + err.Error()
			}
			mu.Lock()
			checks[c.Name] = status
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	resp := healthResponse{Status: "ok", Checks: checks}
	code := http.StatusOK
	for _, status := range checks {
		if status != "ok" {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		return
	}
	WriteJSON(w, code, resp)
}
