// Package scheduler drives the hourly dispatcher tick from a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/target/trendscout/internal/core"
	"github.com/target/trendscout/internal/domain/model"
	obserrors "github.com/target/trendscout/internal/observability/errors"
	"github.com/target/trendscout/internal/observability/metrics"
	"github.com/target/trendscout/internal/observability/statsd"
)

// DefaultSpec fires at the top of every hour.
const DefaultSpec = "0 * * * *"

// parser accepts the standard 5-field format plus descriptors such as @hourly.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Runner calls Dispatcher.Tick on a cron schedule evaluated in UTC.
type Runner struct {
	dispatcher  core.Dispatcher
	spec        string
	schedule    cron.Schedule
	tickTimeout time.Duration
	logger      *slog.Logger
	metrics     statsd.Sink
	now         func() time.Time
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Dispatcher core.Dispatcher
	// Spec is a cron expression; empty means DefaultSpec.
	Spec string
	// TickTimeout bounds one tick; zero means no bound beyond the run context.
	TickTimeout time.Duration
	Logger      *slog.Logger
	Metrics     statsd.Sink
	// Now overrides the clock (tests).
	Now func() time.Time
}

// NewRunner validates the cron spec and creates a Runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	spec := strings.TrimSpace(opts.Spec)
	if spec == "" {
		spec = DefaultSpec
	}
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse cron spec %q: %w", spec, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		dispatcher:  opts.Dispatcher,
		spec:        spec,
		schedule:    schedule,
		tickTimeout: opts.TickTimeout,
		logger:      logger.With("component", "scheduler_runner"),
		metrics:     opts.Metrics,
		now:         now,
	}, nil
}

// Next returns the next fire time after t.
func (r *Runner) Next(t time.Time) time.Time {
	return r.schedule.Next(t.UTC())
}

// Run starts the cron loop and blocks until ctx is cancelled. A tick still running when
// the next one fires is skipped; the in-flight tick is awaited on shutdown.
func (r *Runner) Run(ctx context.Context) error {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(r.logger.Handler(), slog.LevelWarn))
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	if _, err := c.AddFunc(r.spec, func() {
		_, _ = r.RunOnce(ctx, r.now())
	}); err != nil {
		return fmt.Errorf("schedule tick: %w", err)
	}

	r.logger.InfoContext(ctx, "scheduler runner started", "spec", r.spec, "next_tick", r.Next(r.now()))
	c.Start()

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	r.logger.Info("scheduler runner stopped", "reason", ctx.Err())
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

// RunOnce performs one tick at now, logging and emitting metrics.
func (r *Runner) RunOnce(ctx context.Context, now time.Time) (model.TickResult, error) {
	if r.tickTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.tickTimeout)
		defer cancel()
	}

	start := time.Now()
	res, err := r.dispatcher.Tick(ctx, now)
	elapsed := time.Since(start)
	r.emitTickMetrics(res, elapsed, err)

	switch {
	case err != nil:
		r.logger.ErrorContext(ctx, "scheduler tick failed", "error", err, "tick_at", now.UTC())
	case res.Skipped:
		r.logger.InfoContext(ctx, "scheduler tick skipped; lease held elsewhere", "tick_at", now.UTC())
	default:
		r.logger.InfoContext(ctx, "scheduler tick completed",
			"tick_at", now.UTC(),
			"evaluated", res.Evaluated,
			"analyses_started", res.AnalysesStarted,
			"analyses_failed", res.AnalysesFailed,
			"emails_sent", res.EmailsSent,
			"emails_failed", res.EmailsFailed,
			"users_skipped", res.UsersSkipped,
			"duration", elapsed)
	}
	return res, err
}

func (r *Runner) emitTickMetrics(res model.TickResult, elapsed time.Duration, err error) {
	if r.metrics == nil {
		return
	}

	result := metrics.ResultSuccess
	switch {
	case err != nil:
		result = metrics.ResultError
	case res.Skipped:
		result = metrics.ResultSkipped
	case res.Actions() == 0:
		result = metrics.ResultNoop
	}

	tags := map[string]string{"result": result}
	if err != nil {
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}

	r.metrics.Count("scheduler.tick", 1, tags)
	if res.AnalysesStarted > 0 {
		r.metrics.Count("scheduler.analyses_started", int64(res.AnalysesStarted), metrics.CloneTags(tags))
	}
	if res.AnalysesFailed > 0 {
		r.metrics.Count("scheduler.analyses_failed", int64(res.AnalysesFailed), metrics.CloneTags(tags))
	}
	if res.EmailsSent > 0 {
		r.metrics.Count("scheduler.emails_sent", int64(res.EmailsSent), metrics.CloneTags(tags))
	}
	if res.EmailsFailed > 0 {
		r.metrics.Count("scheduler.emails_failed", int64(res.EmailsFailed), metrics.CloneTags(tags))
	}
	if elapsed > 0 {
		r.metrics.Timing("scheduler.tick_duration", elapsed, metrics.CloneTags(tags))
	}
	if err == nil {
		r.metrics.Gauge("scheduler.last_success_epoch", float64(time.Now().Unix()), nil)
	}
}
