package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/trendscout/internal/core"
	"github.com/target/trendscout/internal/domain/model"
)

func chatResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
	})
	return string(b)
}

func newTestClient(url string, opts ...Option) *Client {
	opts = append([]Option{WithSleeper(func(time.Duration) {})}, opts...)
	return NewClient(Config{APIKey: "k", BaseURL: url, Model: "test-model"}, opts...)
}

func TestGenerateQueries_ReturnsRawContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[1].Content, "Bakery")
		_, _ = w.Write([]byte(chatResponse(`Here you go: ["sourdough", "croissant"]`)))
	}))
	defer srv.Close()

	raw, err := newTestClient(srv.URL).GenerateQueries(context.Background(), "Bakery")
	require.NoError(t, err)
	assert.Equal(t, `Here you go: ["sourdough", "croissant"]`, raw)
}

func TestComplete_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(chatResponse("ok")))
	}))
	defer srv.Close()

	var slept []time.Duration
	c := newTestClient(srv.URL, WithSleeper(func(d time.Duration) { slept = append(slept, d) }))
	out, err := c.GenerateQueries(context.Background(), "Bakery")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{time.Second, time.Second}, slept)
}

func TestComplete_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "bad model", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).GenerateQueries(context.Background(), "Bakery")
	require.Error(t, err)
	var statusErr *httpStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestComplete_EmptyContentExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  "},"finish_reason":"length"}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, WithRetryMaxAttempts(2)).GenerateQueries(context.Background(), "Bakery")
	require.ErrorContains(t, err, "failed after 2 attempts")
}

func TestComplete_RequiresAPIKey(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := c.GenerateQueries(context.Background(), "Bakery")
	require.ErrorContains(t, err, "api key required")
}

func TestSummarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Messages[0].Content, "Content themes:")
		assert.Contains(t, req.Messages[1].Content, "Video 1 (v1):\nlatte art")
		_, _ = w.Write([]byte(chatResponse("Content themes: cozy")))
	}))
	defer srv.Close()

	out, err := newTestClient(srv.URL).Summarize(context.Background(), core.SummarizeRequest{
		BusinessDescription: "Cafe",
		Analyses:            []model.AnalysisResult{{VideoID: "v1", Text: "latte art"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Content themes: cozy", out)

	_, err = newTestClient(srv.URL).Summarize(context.Background(), core.SummarizeRequest{})
	require.Error(t, err)
}

func TestBackoffDelay(t *testing.T) {
	c := NewClient(Config{}, WithRetryBackoff(time.Second, 5*time.Second))
	assert.Equal(t, time.Second, c.backoffDelay(1))
	assert.Equal(t, 2*time.Second, c.backoffDelay(2))
	assert.Equal(t, 4*time.Second, c.backoffDelay(3))
	assert.Equal(t, 5*time.Second, c.backoffDelay(4))
}
