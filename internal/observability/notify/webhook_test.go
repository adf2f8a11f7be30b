package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON_RetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"ok":true}`, string(body))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if calls.Add(1) < 2 {
			http.Error(w, "try again", http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := PostJSON(context.Background(), PostParams{
		Client:     srv.Client(),
		URL:        srv.URL,
		Body:       []byte(`{"ok":true}`),
		RetryLimit: 2,
		Name:       "test",
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPostJSON_ReturnsLastError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	err := PostJSON(context.Background(), PostParams{Client: srv.Client(), URL: srv.URL, Name: "slack"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slack webhook 403")
	assert.Contains(t, err.Error(), "nope")
}

func TestPostJSON_StopsOnContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := PostJSON(ctx, PostParams{Client: srv.Client(), URL: srv.URL, RetryLimit: 10, Name: "pd"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFallback(t *testing.T) {
	assert.Equal(t, "x", Fallback("  ", "x"))
	assert.Equal(t, "y", Fallback("y", "x"))
}
