// Package metrics holds the shared metric names and tag conventions for trendscout.
package metrics

import (
	"time"

	obserrors "github.com/target/trendscout/internal/observability/errors"
	"github.com/target/trendscout/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
	ResultSkipped = "skipped"
)

// ResultFor maps an error to a result tag.
func ResultFor(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// StageMetric captures the outcome of one pipeline stage.
type StageMetric struct {
	Stage    string
	Result   string
	Items    int
	Failed   int
	Duration time.Duration
	Err      error
}

// EmitStage emits standardised pipeline stage metrics.
func EmitStage(sink statsd.Sink, in StageMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"stage":  in.Stage,
		"result": in.Result,
	}
	addErrorClass(tags, in.Err)

	sink.Count("pipeline.stage", 1, tags)
	if in.Items > 0 {
		sink.Count("pipeline.stage_items", int64(in.Items), CloneTags(tags))
	}
	if in.Failed > 0 {
		sink.Count("pipeline.stage_item_failures", int64(in.Failed), CloneTags(tags))
	}
	if in.Duration > 0 {
		sink.Timing("pipeline.stage_duration", in.Duration, CloneTags(tags))
	}
}

// CallMetric captures one outbound adapter call.
type CallMetric struct {
	Adapter  string
	Op       string
	Duration time.Duration
	Err      error
}

// EmitCall emits standardised outbound call metrics.
func EmitCall(sink statsd.Sink, in CallMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"adapter": in.Adapter,
		"op":      in.Op,
		"result":  ResultFor(in.Err),
	}
	addErrorClass(tags, in.Err)

	sink.Count("adapter.call", 1, tags)
	if in.Duration > 0 {
		sink.Timing("adapter.call_duration", in.Duration, CloneTags(tags))
	}
}

func addErrorClass(tags map[string]string, err error) {
	if err == nil {
		return
	}
	if class := obserrors.Classify(err); class != "" {
		tags["error_class"] = class
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
