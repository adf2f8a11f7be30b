package data

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/trendscout/internal/core"
	"github.com/target/trendscout/internal/domain/model"
	apperrors "github.com/target/trendscout/internal/errors"
	"github.com/target/trendscout/internal/testutil"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func TestUserScheduleRepo_MarkEmailSent_CompareAndSwap(t *testing.T) {
	at := testutil.TestTime()
	q := regexp.QuoteMeta("WHERE id = $1 AND analysis_ready_for_email = true")

	t.Run("flag set", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(q).WithArgs("u1", at).WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := NewUserScheduleRepo(db).MarkEmailSent(context.Background(), core.MarkEmailSentParams{UserID: "u1", At: at})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("flag already cleared", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(q).WithArgs("u1", at).WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := NewUserScheduleRepo(db).MarkEmailSent(context.Background(), core.MarkEmailSentParams{UserID: "u1", At: at})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("uses time provider when At is zero", func(t *testing.T) {
		db, mock := newMockDB(t)
		tp := NewFixedTimeProvider(at.Add(time.Hour))
		mock.ExpectExec(q).WithArgs("u1", at.Add(time.Hour)).WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := NewUserScheduleRepoWithTimeProvider(db, tp).MarkEmailSent(context.Background(), core.MarkEmailSentParams{UserID: "u1"})
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestUserScheduleRepo_SaveRunSnapshot(t *testing.T) {
	at := testutil.TestTime()
	snapshot := []byte(`{"videosCount":3}`)

	t.Run("sets pending flag", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("analysis_ready_for_email = true")).
			WithArgs("u1", snapshot, at).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := NewUserScheduleRepo(db).SaveRunSnapshot(context.Background(), core.SaveRunSnapshotParams{
			UserID: "u1", Snapshot: snapshot, At: at,
		})
		require.NoError(t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewUserScheduleRepo(db).SaveRunSnapshot(context.Background(), core.SaveRunSnapshotParams{
			UserID: "missing", Snapshot: snapshot, At: at,
		})
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("requires user id", func(t *testing.T) {
		db, _ := newMockDB(t)
		err := NewUserScheduleRepo(db).SaveRunSnapshot(context.Background(), core.SaveRunSnapshotParams{})
		require.Error(t, err)
	})
}

func TestUserScheduleRepo_UpsertPreference(t *testing.T) {
	at := testutil.TestTime()
	pref := model.UserSchedulePreference{
		UserID: "u1", Email: "owner@example.com", BusinessDescription: "Bagel shop",
		Timezone: "America/New_York", LocalHour: 9, NotificationsEnabled: true,
	}
	q := regexp.QuoteMeta("ON CONFLICT (email) DO UPDATE")

	t.Run("returns id", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(q).
			WithArgs("u1", "owner@example.com", "Bagel shop", "America/New_York", 9, true, at).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u1"))

		id, err := NewUserScheduleRepo(db).UpsertPreference(context.Background(), UpsertPreferenceParams{Preference: pref, At: at})
		require.NoError(t, err)
		assert.Equal(t, "u1", id)
	})

	t.Run("id already used by another email", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(q).WillReturnError(&pgconn.PgError{
			Code:           pgerrcode.UniqueViolation,
			TableName:      "users",
			ConstraintName: "users_pkey",
			Detail:         "Key (id)=(u1) already exists.",
		})

		_, err := NewUserScheduleRepo(db).UpsertPreference(context.Background(), UpsertPreferenceParams{Preference: pref, At: at})
		require.Error(t, err)
		assert.True(t, apperrors.IsConflict(err))
		assert.Equal(t, "id", apperrors.GetField(err))
	})

	t.Run("hour out of range", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(q).WillReturnError(&pgconn.PgError{
			Code:       pgerrcode.CheckViolation,
			TableName:  "users",
			ColumnName: "email_time_hour",
		})

		_, err := NewUserScheduleRepo(db).UpsertPreference(context.Background(), UpsertPreferenceParams{Preference: pref, At: at})
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		assert.Equal(t, "email_time_hour", apperrors.GetField(err))
	})
}

func TestUserScheduleRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	now := testutil.TestTime()
	repo := NewUserScheduleRepoWithTimeProvider(db, NewFixedTimeProvider(now))

	subscribedID, err := repo.UpsertPreference(ctx, UpsertPreferenceParams{Preference: model.UserSchedulePreference{
		UserID: "user-ny", Email: "ny@example.com", BusinessDescription: "Bagel shop",
		Timezone: "America/New_York", LocalHour: 9, NotificationsEnabled: true,
	}})
	require.NoError(t, err)
	assert.Equal(t, "user-ny", subscribedID)

	_, err = repo.UpsertPreference(ctx, UpsertPreferenceParams{Preference: model.UserSchedulePreference{
		UserID: "user-off", Email: "off@example.com", Timezone: "UTC", LocalHour: 9,
	}})
	require.NoError(t, err)

	users, err := repo.ListSubscribed(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "America/New_York", users[0].Preference.Timezone)
	assert.Equal(t, 9, users[0].Preference.LocalHour)
	assert.False(t, users[0].State.PendingResultsReadyForEmail)

	require.NoError(t, repo.SaveRunSnapshot(ctx, core.SaveRunSnapshotParams{
		UserID: "user-ny", Snapshot: []byte(`{"videosCount":2}`),
	}))

	users, err = repo.ListSubscribed(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.True(t, users[0].State.PendingResultsReadyForEmail)
	assert.JSONEq(t, `{"videosCount":2}`, string(users[0].State.LastResultsSnapshot))
	require.NotNil(t, users[0].State.LastRunAt)
	assert.True(t, users[0].State.LastRunAt.Equal(now))

	ok, err := repo.MarkEmailSent(ctx, core.MarkEmailSentParams{UserID: "user-ny"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkEmailSent(ctx, core.MarkEmailSentParams{UserID: "user-ny"})
	require.NoError(t, err)
	assert.False(t, ok, "second swap must lose")
}
