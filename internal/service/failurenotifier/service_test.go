package failurenotifier

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/trendscout/internal/observability/notify"
)

func TestNotifyRunFailure_FansOutWithDefaultSeverity(t *testing.T) {
	var mu sync.Mutex
	var received []notify.RunFailurePayload
	capture := notify.SinkFunc(func(_ context.Context, p notify.RunFailurePayload) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, p)
		return nil
	})

	svc := NewService(Options{Sinks: []SinkRegistration{
		{Name: "a", Sink: capture},
		{Name: "b", Sink: capture},
		{Name: "nil"},
	}})
	require.True(t, svc.Enabled())

	svc.NotifyRunFailure(context.Background(), notify.RunFailurePayload{RunID: "run-1"})

	require.Len(t, received, 2)
	for _, p := range received {
		assert.Equal(t, notify.SeverityCritical, p.Severity)
		assert.Equal(t, "run-1", p.RunID)
	}
}

func TestNotifyRunFailure_SinkErrorsAreSwallowed(t *testing.T) {
	svc := NewService(Options{Sinks: []SinkRegistration{{
		Sink: notify.SinkFunc(func(context.Context, notify.RunFailurePayload) error {
			return errors.New("boom")
		}),
	}}})

	assert.NotPanics(t, func() {
		svc.NotifyRunFailure(context.Background(), notify.RunFailurePayload{Severity: notify.SeverityError})
	})
}

func TestServiceDisabled(t *testing.T) {
	assert.False(t, NewService(Options{}).Enabled())

	var nilSvc *Service
	assert.False(t, nilSvc.Enabled())
	nilSvc.NotifyRunFailure(context.Background(), notify.RunFailurePayload{})
}
