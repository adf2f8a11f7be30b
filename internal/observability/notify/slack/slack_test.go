package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/trendscout/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestFormatMessageIncludesFields(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
		Channel:    "#pipeline",
		Username:   "bot",
	})
	require.NoError(t, err)

	msg := client.formatMessage(notify.RunFailurePayload{
		RunID:      "run-1",
		UserID:     "user-9",
		Stage:      "reconstruction",
		Error:      "summarizer <503>",
		ErrorClass: "network",
		Metadata:   map[string]string{"hour": "12"},
		OccurredAt: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	})

	assert.Equal(t, "bot", msg["username"])
	assert.Equal(t, "#pipeline", msg["channel"])
	text, ok := msg["text"].(string)
	require.True(t, ok)
	for _, want := range []string{
		"Workflow failure", "`run-1`", "user-9", "reconstruction", "summarizer &lt;503&gt;",
		"network", "hour: 12", "2025-01-01T12:00:00Z",
	} {
		assert.Contains(t, text, want)
	}
}

func TestFormatRunLink(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL:   "https://hooks.slack.com/services/test",
		RunURLPrefix: "https://ops.example.com/runs",
	})
	require.NoError(t, err)
	assert.Equal(t, "<https://ops.example.com/runs/run-7|run-7>", client.formatRun("run-7"))
	assert.Empty(t, client.formatRun(" "))
}

func TestSendRunFailurePostsToWebhook(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL, Client: srv.Client()})
	require.NoError(t, err)
	require.NoError(t, client.SendRunFailure(context.Background(), notify.RunFailurePayload{RunID: "r"}))
	assert.Equal(t, "trendscout runs", got["username"])
}
