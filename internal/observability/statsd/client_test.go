package statsd

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMetricName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		" pipeline/stage ": "pipeline_stage",
		"foo..bar":         "foo.bar",
		"adapter-call":     "adapter_call",
		".leading.":        "leading",
	}
	for input, want := range tests {
		assert.Equal(t, want, normalizeMetricName(input), input)
	}
}

func TestFormatTags_MergesAndSorts(t *testing.T) {
	t.Parallel()

	global := map[string]string{"env": "prod", " service ": " trendscout "}
	local := map[string]string{"result": " success ", "": "ignored", "env": "stage"}

	assert.Equal(t, "|#env:stage,result:success,service:trendscout", formatTags(global, local))
	assert.Empty(t, formatTags(nil, nil))
}

func TestClientWritesLineProtocol(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	client, err := NewClient(Config{
		Enabled:    true,
		Address:    pc.LocalAddr().String(),
		Prefix:     "trendscout.",
		GlobalTags: map[string]string{"env": "test"},
	})
	require.NoError(t, err)
	defer client.Close()
	require.True(t, client.Enabled())

	client.Count("scheduler.tick", 1, map[string]string{"result": "success"})

	buf := make([]byte, 512)
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "trendscout.scheduler.tick:1|c|#env:test,result:success", string(buf[:n]))
}

func TestClientDisabledDropsMetrics(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{Enabled: true, Address: "   "})
	require.NoError(t, err)
	assert.False(t, client.Enabled())

	client.Gauge("x", 1, nil)
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
	nilClient.Count("x", 1, nil)
	require.NoError(t, nilClient.Close())
}

func TestNewClientDialError(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{Enabled: true, Address: "bad address"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "statsd dial"))
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.Count("a", 2, map[string]string{"k": "v"})
	r.Count("a", 3, nil)
	r.Gauge("g", 1.5, nil)
	r.Timing("t", time.Second, nil)

	assert.Equal(t, int64(5), r.Counter("a"))
	v, ok := r.GaugeValue("g")
	assert.True(t, ok)
	assert.InDelta(t, 1.5, v, 0.0001)
	assert.Equal(t, []time.Duration{time.Second}, r.Timings("t"))
	assert.Equal(t, "v", r.Tags("a")[0]["k"])
}
