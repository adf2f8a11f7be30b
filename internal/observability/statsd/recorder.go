package statsd

import (
	"sync"
	"time"
)

// Recorder is an in-memory Sink for tests and local debugging.
type Recorder struct {
	mu      sync.Mutex
	counts  map[string]int64
	gauges  map[string]float64
	timings map[string][]time.Duration
	tags    map[string][]map[string]string
}

var _ Sink = (*Recorder)(nil)

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		counts:  make(map[string]int64),
		gauges:  make(map[string]float64),
		timings: make(map[string][]time.Duration),
		tags:    make(map[string][]map[string]string),
	}
}

// Count accumulates a counter.
func (r *Recorder) Count(name string, value int64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[name] += value
	r.tags[name] = append(r.tags[name], cloneTags(tags))
}

// Gauge stores the last gauge value.
func (r *Recorder) Gauge(name string, value float64, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gauges[name] = value
	r.tags[name] = append(r.tags[name], cloneTags(tags))
}

// Timing appends a timing sample.
func (r *Recorder) Timing(name string, value time.Duration, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timings[name] = append(r.timings[name], value)
	r.tags[name] = append(r.tags[name], cloneTags(tags))
}

// Counter returns the accumulated value for a counter.
func (r *Recorder) Counter(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name]
}

// GaugeValue returns the last gauge value and whether it was set.
func (r *Recorder) GaugeValue(name string) (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.gauges[name]
	return v, ok
}

// Timings returns the recorded samples for a timing metric.
func (r *Recorder) Timings(name string) []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.timings[name]...)
}

// Tags returns the tag sets seen for a metric, in emission order.
func (r *Recorder) Tags(name string) []map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]map[string]string(nil), r.tags[name]...)
}
