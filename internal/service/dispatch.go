package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/trendscout/internal/core"
	"github.com/target/trendscout/internal/data"
	"github.com/target/trendscout/internal/domain/model"
	"github.com/target/trendscout/internal/domain/schedule"
	obserrors "github.com/target/trendscout/internal/observability/errors"
	"github.com/target/trendscout/internal/observability/notify"
	"github.com/target/trendscout/internal/service/failurenotifier"
)

const (
	// DefaultTickLeaseKey names the lease shared by every dispatcher instance.
	DefaultTickLeaseKey = "trendscout:scheduler:tick"
	// DefaultTickLeaseTTL keeps the lease shorter than the hourly cadence.
	DefaultTickLeaseTTL = 55 * time.Minute
)

// DigestRenderer turns a user's pending snapshot into an email.
type DigestRenderer func(user model.ScheduledUser, at time.Time) (core.Email, error)

// DispatchConfig holds tunables for DispatchService.
type DispatchConfig struct {
	LeaseKey   string
	LeaseTTL   time.Duration
	RunTimeout time.Duration // Optional: bound on one pipeline run
}

// DispatchServiceOptions groups dependencies for DispatchService.
type DispatchServiceOptions struct {
	Users           core.UserScheduleRepository // Required
	Runner          core.WorkflowRunner         // Required
	Mailer          core.EmailSender            // Required
	Render          DigestRenderer              // Required
	Lease           core.TickLease              // Optional: ticks are not serialized when nil
	FailureNotifier *failurenotifier.Service    // Optional: failure notification fan-out
	Config          DispatchConfig
	Logger          *slog.Logger
}

// DispatchService evaluates every subscribed user once per tick against the analysis
// window and the email window.
type DispatchService struct {
	users    core.UserScheduleRepository
	runner   core.WorkflowRunner
	mailer   core.EmailSender
	render   DigestRenderer
	lease    core.TickLease
	notifier *failurenotifier.Service
	cfg      DispatchConfig
	logger   *slog.Logger
}

var _ core.Dispatcher = (*DispatchService)(nil)

// NewDispatchService constructs a DispatchService.
func NewDispatchService(opts DispatchServiceOptions) *DispatchService {
	switch {
	case opts.Users == nil:
		panic("UserScheduleRepository is required")
	case opts.Runner == nil:
		panic("WorkflowRunner is required")
	case opts.Mailer == nil:
		panic("EmailSender is required")
	case opts.Render == nil:
		panic("DigestRenderer is required")
	}

	cfg := opts.Config
	if cfg.LeaseKey == "" {
		cfg.LeaseKey = DefaultTickLeaseKey
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = DefaultTickLeaseTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &DispatchService{
		users:    opts.Users,
		runner:   opts.Runner,
		mailer:   opts.Mailer,
		render:   opts.Render,
		lease:    opts.Lease,
		notifier: opts.FailureNotifier,
		cfg:      cfg,
		logger:   logger.With("component", "dispatcher"),
	}
}

// Tick evaluates every subscribed user for the hour containing now. When another instance
// holds the tick lease the tick is skipped without error. Per-user failures are counted in
// the result and never abort the tick.
func (s *DispatchService) Tick(ctx context.Context, now time.Time) (model.TickResult, error) {
	release, acquired, err := s.acquire(ctx)
	if err != nil {
		return model.TickResult{}, err
	}
	if !acquired {
		return model.TickResult{Skipped: true}, nil
	}
	defer release()

	users, err := s.users.ListSubscribed(ctx)
	if err != nil {
		return model.TickResult{}, fmt.Errorf("list subscribed users: %w", err)
	}

	var res model.TickResult
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		s.evaluate(ctx, user, now, &res)
	}
	return res, nil
}

func (s *DispatchService) acquire(ctx context.Context) (func(), bool, error) {
	if s.lease == nil {
		return func() {}, true, nil
	}
	token, ok, err := s.lease.TryAcquire(ctx, s.cfg.LeaseKey, s.cfg.LeaseTTL)
	if err != nil {
		return nil, false, fmt.Errorf("acquire tick lease: %w", err)
	}
	if !ok {
		s.logger.InfoContext(ctx, "tick lease held elsewhere", "key", s.cfg.LeaseKey)
		return nil, false, nil
	}
	return func() {
		err := s.lease.Release(context.WithoutCancel(ctx), s.cfg.LeaseKey, token)
		switch {
		case errors.Is(err, data.ErrLeaseNotHeld):
			s.logger.WarnContext(ctx, "tick lease expired before release", "key", s.cfg.LeaseKey)
		case err != nil:
			s.logger.ErrorContext(ctx, "release tick lease", "key", s.cfg.LeaseKey, "error", err)
		}
	}, true, nil
}

func (s *DispatchService) evaluate(ctx context.Context, user model.ScheduledUser, now time.Time, res *model.TickResult) {
	log := s.logger.With("user_id", user.Preference.UserID)

	decision, err := schedule.Decide(user, now)
	if err != nil {
		res.UsersSkipped++
		log.WarnContext(ctx, "skipping user with invalid schedule",
			"timezone", user.Preference.Timezone,
			"local_hour", user.Preference.LocalHour,
			"error", err)
		return
	}
	res.Evaluated++

	if decision.RunAnalysis {
		res.AnalysesStarted++
		if err := s.runAnalysis(ctx, user, now); err != nil {
			res.AnalysesFailed++
			log.ErrorContext(ctx, "scheduled analysis failed", "error", err)
		}
	}

	if decision.SendEmail {
		if err := s.sendDigest(ctx, user, now); err != nil {
			res.EmailsFailed++
			log.ErrorContext(ctx, "scheduled email failed", "error", err)
		} else {
			res.EmailsSent++
		}
	}
}

// runAnalysis runs the pipeline and stores its summary as the pending snapshot.
// On failure the pending flag is left as it was and a failure notification is sent.
func (s *DispatchService) runAnalysis(ctx context.Context, user model.ScheduledUser, now time.Time) error {
	runCtx := ctx
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	run, err := s.runner.RunWorkflow(runCtx, model.RunWorkflowRequest{
		BusinessDescription: user.Preference.BusinessDescription,
		UserID:              user.Preference.UserID,
	})
	if err != nil {
		s.notifyFailure(ctx, user, run, err)
		return fmt.Errorf("run workflow: %w", err)
	}

	snapshot, err := json.Marshal(run.Summary())
	if err != nil {
		return fmt.Errorf("encode run snapshot: %w", err)
	}
	err = s.users.SaveRunSnapshot(ctx, core.SaveRunSnapshotParams{
		UserID:   user.Preference.UserID,
		Snapshot: snapshot,
		At:       now,
	})
	if err != nil {
		return fmt.Errorf("save run snapshot: %w", err)
	}
	return nil
}

// sendDigest emails the pending snapshot and clears the pending flag with a compare-and-swap.
// A failed send leaves the flag set for a later tick.
func (s *DispatchService) sendDigest(ctx context.Context, user model.ScheduledUser, now time.Time) error {
	email, err := s.render(user, now)
	if err != nil {
		return fmt.Errorf("render digest: %w", err)
	}
	if err = s.mailer.Send(ctx, email); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}

	swapped, err := s.users.MarkEmailSent(ctx, core.MarkEmailSentParams{UserID: user.Preference.UserID, At: now})
	if err != nil {
		// The email is out; the flag will be retried next tick and may cause a duplicate.
		s.logger.ErrorContext(ctx, "clear pending flag failed", "user_id", user.Preference.UserID, "error", err)
		return nil
	}
	if !swapped {
		s.logger.WarnContext(ctx, "pending flag already cleared by another writer", "user_id", user.Preference.UserID)
	}
	return nil
}

func (s *DispatchService) notifyFailure(ctx context.Context, user model.ScheduledUser, run *model.WorkflowRun, err error) {
	if !s.notifier.Enabled() {
		return
	}
	payload := notify.RunFailurePayload{
		UserID:     user.Preference.UserID,
		Stage:      "dispatch",
		Error:      err.Error(),
		ErrorClass: obserrors.Classify(err),
		Severity:   notify.SeverityError,
		OccurredAt: time.Now().UTC(),
		Metadata:   map[string]string{"trigger": "scheduler"},
	}
	if run != nil {
		payload.RunID = run.ID
		if run.StageStatus[model.StageReconstruction] == model.StageStatusFailed {
			payload.Stage = string(model.StageReconstruction)
		}
	}
	s.notifier.NotifyRunFailure(context.WithoutCancel(ctx), payload)
}
