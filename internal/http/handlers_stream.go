package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/target/trendscout/internal/core"
	"github.com/target/trendscout/internal/domain/model"
	"github.com/target/trendscout/internal/service"
)

// StreamHandlers serves streaming video analysis over Server-Sent Events.
type StreamHandlers struct {
	Analyzer core.StreamAnalyzer
	Logger   *slog.Logger
}

func setSSEHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// sseWriter writes each event as one "data: <json>" frame and flushes it immediately.
// Headers are sent with the first event so that request errors can still be reported as JSON.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func (s *sseWriter) send(event model.StreamEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if !s.started {
		setSSEHeaders(s.w)
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}
	if _, err = fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	s.flusher.Flush()
	return nil
}

// Analyze relays one streaming analysis. Closing the connection cancels the upstream request.
func (h *StreamHandlers) Analyze(w http.ResponseWriter, r *http.Request) {
	var req model.StreamAnalyzeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, Message: "streaming unsupported"})
		return
	}

	sw := &sseWriter{w: w, flusher: flusher}
	_, err := h.Analyzer.StreamAnalyze(r.Context(), req, sw.send)
	if err == nil || sw.started {
		if err != nil {
			logger(h.Logger).InfoContext(r.Context(), "stream analysis ended with error", "video_id", req.Video.ID, "error", err)
		}
		return
	}

	if errors.Is(err, service.ErrInvalidRequest) {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, Message: err.Error()})
		return
	}
	if r.Context().Err() != nil {
		return
	}
	WriteError(w, ErrorParams{Code: http.StatusInternalServerError, Message: "stream analysis failed"})
}
