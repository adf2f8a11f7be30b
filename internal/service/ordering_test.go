package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/trendscout/internal/core"
	"github.com/target/trendscout/internal/domain/model"
	"github.com/target/trendscout/internal/mocks"
	"github.com/target/trendscout/internal/service"
	"github.com/target/trendscout/internal/testutil"
)

// These tests pin the call order across ports, which the in-memory fakes cannot observe.

func TestDispatchService_Tick_EmailCallOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	lease := mocks.NewMockTickLease(ctrl)
	users := mocks.NewMockUserScheduleRepository(ctrl)
	mailer := mocks.NewMockEmailSender(ctrl)
	runner := mocks.NewMockWorkflowRunner(ctrl)

	now := time.Date(2024, 7, 15, 13, 0, 0, 0, time.UTC)
	user := testutil.NewScheduledUser("u1").InZone("America/New_York", 9).Pending(`{"status":"completed"}`).Build()
	email := core.Email{To: user.Preference.Email, Subject: "digest"}

	gomock.InOrder(
		lease.EXPECT().TryAcquire(gomock.Any(), "k", 10*time.Minute).Return("tok", true, nil),
		users.EXPECT().ListSubscribed(gomock.Any()).Return([]model.ScheduledUser{user}, nil),
		mailer.EXPECT().Send(gomock.Any(), email).Return(nil),
		users.EXPECT().MarkEmailSent(gomock.Any(), core.MarkEmailSentParams{UserID: "u1", At: now}).Return(true, nil),
		lease.EXPECT().Release(gomock.Any(), "k", "tok").Return(nil),
	)

	svc := service.NewDispatchService(service.DispatchServiceOptions{
		Users:  users,
		Runner: runner,
		Mailer: mailer,
		Render: func(model.ScheduledUser, time.Time) (core.Email, error) { return email, nil },
		Lease:  lease,
		Config: service.DispatchConfig{LeaseKey: "k", LeaseTTL: 10 * time.Minute},
	})

	res, err := svc.Tick(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, model.TickResult{Evaluated: 1, EmailsSent: 1}, res)
}

func TestDispatchService_Tick_CancelledStillReleases(t *testing.T) {
	ctrl := gomock.NewController(t)
	lease := mocks.NewMockTickLease(ctrl)
	users := mocks.NewMockUserScheduleRepository(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	user := testutil.NewScheduledUser("u1").Build()

	lease.EXPECT().TryAcquire(gomock.Any(), gomock.Any(), gomock.Any()).Return("tok", true, nil)
	users.EXPECT().ListSubscribed(gomock.Any()).DoAndReturn(func(context.Context) ([]model.ScheduledUser, error) {
		cancel()
		return []model.ScheduledUser{user}, nil
	})
	lease.EXPECT().Release(gomock.Any(), gomock.Any(), "tok").DoAndReturn(func(ctx context.Context, _, _ string) error {
		return ctx.Err()
	})

	svc := service.NewDispatchService(service.DispatchServiceOptions{
		Users:  users,
		Runner: mocks.NewMockWorkflowRunner(ctrl),
		Mailer: mocks.NewMockEmailSender(ctrl),
		Render: func(model.ScheduledUser, time.Time) (core.Email, error) { return core.Email{}, nil },
		Lease:  lease,
	})

	_, err := svc.Tick(ctx, testutil.TestTime())
	require.ErrorIs(t, err, context.Canceled)
}

func TestMediaCleanupService_DeletesBeforeClearingReferences(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMediaStore(ctrl)
	videos := mocks.NewMockVideoRepository(ctrl)

	gomock.InOrder(
		store.EXPECT().Delete(gomock.Any(), []string{"a.mp4"}).Return(1, nil),
		videos.EXPECT().ClearMedia(gomock.Any(), []string{"v1"}).Return([]string{"v1"}, nil),
	)

	svc := service.NewMediaCleanupService(service.MediaCleanupServiceOptions{Store: store, Videos: videos})
	res, err := svc.Cleanup(context.Background(), model.CleanupRequest{FileNames: []string{" a.mp4 ", ""}, VideoIDs: []string{"v1"}})
	require.NoError(t, err)
	assert.Equal(t, model.CleanupResult{DeletedCount: 1, VideoIDs: []string{"v1"}}, res)
}

func TestMediaCleanupService_StoreFailureSkipsReferences(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockMediaStore(ctrl)
	videos := mocks.NewMockVideoRepository(ctrl)

	store.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(0, errors.New("bucket unavailable"))

	svc := service.NewMediaCleanupService(service.MediaCleanupServiceOptions{Store: store, Videos: videos})
	_, err := svc.Cleanup(context.Background(), model.CleanupRequest{FileNames: []string{"a.mp4"}, VideoIDs: []string{"v1"}})
	require.ErrorContains(t, err, "bucket unavailable")
}
