package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/target/trendscout/internal/core"
	"github.com/target/trendscout/internal/data"
	"github.com/target/trendscout/internal/domain/model"
	"github.com/target/trendscout/internal/observability/notify"
	"github.com/target/trendscout/internal/service/failurenotifier"
	"github.com/target/trendscout/internal/testutil"
)

func renderStub(user model.ScheduledUser, _ time.Time) (core.Email, error) {
	return core.Email{To: user.Preference.Email, Subject: "Your trend report", Text: string(user.State.LastResultsSnapshot)}, nil
}

type dispatchFixture struct {
	users    *memoryUserRepo
	runner   *mockRunner
	mailer   *mockEmailSender
	lease    *mockTickLease
	failures []notify.RunFailurePayload
	mu       sync.Mutex
	svc      *DispatchService
}

func newDispatchFixture(t *testing.T, users ...model.ScheduledUser) *dispatchFixture {
	t.Helper()
	f := &dispatchFixture{
		users:  &memoryUserRepo{users: users},
		runner: &mockRunner{},
		mailer: &mockEmailSender{},
		lease:  &mockTickLease{},
	}
	notifier := failurenotifier.NewService(failurenotifier.Options{
		Sinks: []failurenotifier.SinkRegistration{{
			Name: "capture",
			Sink: notify.SinkFunc(func(_ context.Context, p notify.RunFailurePayload) error {
				f.mu.Lock()
				defer f.mu.Unlock()
				f.failures = append(f.failures, p)
				return nil
			}),
		}},
	})
	f.svc = NewDispatchService(DispatchServiceOptions{
		Users:           f.users,
		Runner:          f.runner,
		Mailer:          f.mailer,
		Render:          renderStub,
		Lease:           f.lease,
		FailureNotifier: notifier,
	})
	t.Cleanup(func() {
		f.runner.AssertExpectations(t)
		f.mailer.AssertExpectations(t)
		f.lease.AssertExpectations(t)
	})
	return f
}

func (f *dispatchFixture) expectLease() {
	f.lease.On("TryAcquire", mock.Anything, DefaultTickLeaseKey, DefaultTickLeaseTTL).Return("tok", true, nil).Once()
	f.lease.On("Release", mock.Anything, DefaultTickLeaseKey, "tok").Return(nil).Once()
}

func completedRun(userID string) *model.WorkflowRun {
	run := model.NewWorkflowRun("run-1", userID, "desc", testutil.TestTime())
	run.SearchQueries = []string{"latte art"}
	run.Complete(testutil.TestTime())
	return run
}

func TestDispatchService_Tick_DualWindowAndFlagReset(t *testing.T) {
	user := testutil.NewScheduledUser("u1").InZone("America/New_York", 9).Build()
	f := newDispatchFixture(t, user)
	ctx := context.Background()

	// 12:00 UTC in July is 08:00 EDT: analysis window only.
	analysisTick := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	f.expectLease()
	f.runner.On("RunWorkflow", mock.Anything, model.RunWorkflowRequest{
		BusinessDescription: user.Preference.BusinessDescription,
		UserID:              "u1",
	}).Return(completedRun("u1"), nil).Once()

	res, err := f.svc.Tick(ctx, analysisTick)
	require.NoError(t, err)
	assert.Equal(t, model.TickResult{Evaluated: 1, AnalysesStarted: 1}, res)

	stored := f.users.get("u1")
	assert.True(t, stored.State.PendingResultsReadyForEmail)
	assert.JSONEq(t, `{"searchQueries":["latte art"],"videosCount":0,"analyzedVideosCount":0,
		"marketingStrategy":{"contentThemes":"","postingFrequency":"","hashtags":"","engagement":"","recommendations":"","rawText":""},
		"deletedVideosCount":0}`, string(stored.State.LastResultsSnapshot))
	require.NotNil(t, stored.State.LastRunAt)
	assert.Equal(t, analysisTick, *stored.State.LastRunAt)

	// 13:00 UTC is 09:00 EDT: email window only.
	emailTick := analysisTick.Add(time.Hour)
	f.expectLease()
	f.mailer.On("Send", mock.Anything, mock.MatchedBy(func(e core.Email) bool { return e.To == "u1@example.com" })).
		Return(nil).Once()

	res, err = f.svc.Tick(ctx, emailTick)
	require.NoError(t, err)
	assert.Equal(t, model.TickResult{Evaluated: 1, EmailsSent: 1}, res)
	assert.False(t, f.users.get("u1").State.PendingResultsReadyForEmail)

	// A second tick in the same hour does not resend.
	f.expectLease()
	res, err = f.svc.Tick(ctx, emailTick.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, model.TickResult{Evaluated: 1}, res)
	f.mailer.AssertNumberOfCalls(t, "Send", 1)
}

func TestDispatchService_Tick_WinterOffset(t *testing.T) {
	user := testutil.NewScheduledUser("u1").InZone("America/New_York", 9).Pending(`{}`).Build()
	f := newDispatchFixture(t, user)

	// 09:00 EST is 14:00 UTC, so 13:00 UTC is the analysis hour in January.
	f.expectLease()
	f.runner.On("RunWorkflow", mock.Anything, mock.Anything).Return(completedRun("u1"), nil).Once()
	res, err := f.svc.Tick(context.Background(), time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, res.AnalysesStarted)
	assert.Equal(t, 0, res.EmailsSent)

	f.expectLease()
	f.mailer.On("Send", mock.Anything, mock.Anything).Return(nil).Once()
	res, err = f.svc.Tick(context.Background(), time.Date(2024, 1, 15, 14, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, res.EmailsSent)
	assert.Equal(t, 0, res.AnalysesStarted)
}

func TestDispatchService_Tick_LeaseHeldSkips(t *testing.T) {
	f := newDispatchFixture(t)
	f.users.listErr = errors.New("must not be called")
	f.lease.On("TryAcquire", mock.Anything, DefaultTickLeaseKey, DefaultTickLeaseTTL).Return("", false, nil).Once()

	res, err := f.svc.Tick(context.Background(), testutil.TestTime())
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	f.lease.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatchService_Tick_LeaseErrorFails(t *testing.T) {
	f := newDispatchFixture(t)
	f.lease.On("TryAcquire", mock.Anything, mock.Anything, mock.Anything).Return("", false, errors.New("redis down")).Once()

	_, err := f.svc.Tick(context.Background(), testutil.TestTime())
	require.Error(t, err)
}

func TestDispatchService_Tick_ListErrorReleasesLease(t *testing.T) {
	f := newDispatchFixture(t)
	f.users.listErr = errors.New("db down")
	f.expectLease()

	_, err := f.svc.Tick(context.Background(), testutil.TestTime())
	require.Error(t, err)
}

func TestDispatchService_Tick_ReleaseNotHeldIsTolerated(t *testing.T) {
	f := newDispatchFixture(t)
	f.lease.On("TryAcquire", mock.Anything, mock.Anything, mock.Anything).Return("tok", true, nil).Once()
	f.lease.On("Release", mock.Anything, DefaultTickLeaseKey, "tok").Return(data.ErrLeaseNotHeld).Once()

	_, err := f.svc.Tick(context.Background(), testutil.TestTime())
	require.NoError(t, err)
}

func TestDispatchService_Tick_InvalidScheduleSkipsUser(t *testing.T) {
	bad := testutil.NewScheduledUser("bad").InZone("Mars/Olympus_Mons", 9).Build()
	badHour := testutil.NewScheduledUser("late").InZone("UTC", 24).Build()
	good := testutil.NewScheduledUser("good").InZone("UTC", 20).Build()
	f := newDispatchFixture(t, bad, badHour, good)
	f.expectLease()

	res, err := f.svc.Tick(context.Background(), time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, model.TickResult{Evaluated: 1, UsersSkipped: 2}, res)
}

func TestDispatchService_Tick_RunFailureLeavesFlagAndNotifies(t *testing.T) {
	user := testutil.NewScheduledUser("u1").InZone("UTC", 13).Build()
	f := newDispatchFixture(t, user)
	f.expectLease()

	failed := model.NewWorkflowRun("run-9", "u1", "desc", testutil.TestTime())
	failed.Finish(model.StageReconstruction, model.StageStatusFailed)
	failed.Complete(testutil.TestTime())
	f.runner.On("RunWorkflow", mock.Anything, mock.Anything).
		Return(failed, errors.Join(ErrStageFailed, errors.New("summarizer quota"))).Once()

	res, err := f.svc.Tick(context.Background(), time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, model.TickResult{Evaluated: 1, AnalysesStarted: 1, AnalysesFailed: 1}, res)

	stored := f.users.get("u1")
	assert.False(t, stored.State.PendingResultsReadyForEmail)
	assert.Nil(t, stored.State.LastRunAt)

	require.Len(t, f.failures, 1)
	assert.Equal(t, "run-9", f.failures[0].RunID)
	assert.Equal(t, "u1", f.failures[0].UserID)
	assert.Equal(t, string(model.StageReconstruction), f.failures[0].Stage)
	assert.Equal(t, notify.SeverityError, f.failures[0].Severity)
}

func TestDispatchService_Tick_SendFailureKeepsFlag(t *testing.T) {
	user := testutil.NewScheduledUser("u1").InZone("UTC", 12).Pending(`{"videosCount":3}`).Build()
	f := newDispatchFixture(t, user)
	f.expectLease()
	f.mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("mail api 503")).Once()

	res, err := f.svc.Tick(context.Background(), time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, model.TickResult{Evaluated: 1, EmailsFailed: 1}, res)
	assert.True(t, f.users.get("u1").State.PendingResultsReadyForEmail)
}

func TestDispatchService_Tick_MidnightWrap(t *testing.T) {
	user := testutil.NewScheduledUser("u1").InZone("UTC", 0).Build()
	f := newDispatchFixture(t, user)
	f.expectLease()
	f.runner.On("RunWorkflow", mock.Anything, mock.Anything).Return(completedRun("u1"), nil).Once()

	res, err := f.svc.Tick(context.Background(), time.Date(2024, 7, 1, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, res.AnalysesStarted)
}

func TestDispatchService_Tick_WithoutLease(t *testing.T) {
	svc := NewDispatchService(DispatchServiceOptions{
		Users:  &memoryUserRepo{},
		Runner: &mockRunner{},
		Mailer: &mockEmailSender{},
		Render: renderStub,
	})
	res, err := svc.Tick(context.Background(), testutil.TestTime())
	require.NoError(t, err)
	assert.Equal(t, model.TickResult{}, res)
}
