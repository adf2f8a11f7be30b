package pagerduty

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

func TestNewClientRequiresRoutingKey(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestBuildEvent(t *testing.T) {
	client, err := NewClient(Config{RoutingKey: "rk"})
	require.NoError(t, err)

	event := client.buildEvent(notify.RunFailurePayload{
		RunID:      "run-1",
		UserID:     "u-1",
		Stage:      "reconstruction",
		Error:      "boom",
		Severity:   "ERROR",
		OccurredAt: time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC),
		Metadata:   map[string]string{"run_id": "ignored", "extra": "kept"},
	})

	assert.Equal(t, "rk", event["routing_key"])
	assert.Equal(t, "u-1:reconstruction:2025-03-04", event["dedup_key"])
	body, ok := event["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "error", body["severity"])
	assert.Equal(t, "trendscout", body["source"])
	assert.Equal(t, "workflow-pipeline", body["component"])
	assert.Equal(t, "Workflow for user u-1 failed at reconstruction", body["summary"])
	custom, ok := body["custom_details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "run-1", custom["run_id"])
	assert.Equal(t, "kept", custom["extra"])
}

func TestSendRunFailureUsesEndpoint(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client, err := NewClient(Config{RoutingKey: "rk", Endpoint: srv.URL, Client: srv.Client()})
	require.NoError(t, err)
	require.NoError(t, client.SendRunFailure(context.Background(), notify.RunFailurePayload{UserID: "u"}))
	assert.Equal(t, "trigger", got["event_action"])
}
