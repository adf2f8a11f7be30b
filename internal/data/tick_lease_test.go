package data

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/trendscout/internal/testutil"
)

func TestRedisTickLease(t *testing.T) {
	mr, client := testutil.SetupMiniRedis(t)
	lease := NewRedisTickLease(client)
	ctx := context.Background()

	token, ok, err := lease.TryAcquire(ctx, "dispatch", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, token)
	assert.True(t, mr.Exists("lease:dispatch"))

	_, ok, err = lease.TryAcquire(ctx, "dispatch", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire must fail while held")

	require.ErrorIs(t, lease.Release(ctx, "dispatch", "someone-else"), ErrLeaseNotHeld)
	require.NoError(t, lease.Release(ctx, "dispatch", token))
	assert.False(t, mr.Exists("lease:dispatch"))

	t.Run("expires with ttl", func(t *testing.T) {
		_, ok, err := lease.TryAcquire(ctx, "ttl", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		mr.FastForward(2 * time.Minute)

		_, ok, err = lease.TryAcquire(ctx, "ttl", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rejects non-positive ttl", func(t *testing.T) {
		_, _, err := lease.TryAcquire(ctx, "bad", 0)
		require.Error(t, err)
	})
}

func TestDBTickLease(t *testing.T) {
	now := testutil.TestTime()
	upsertQ := regexp.QuoteMeta("DO UPDATE SET holder = EXCLUDED.holder, expires_at = EXCLUDED.expires_at WHERE scheduler_leases.expires_at <= $4")

	t.Run("acquires when absent or expired", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(upsertQ).
			WithArgs("dispatch", sqlmock.AnyArg(), now.Add(time.Minute), now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		lease := NewDBTickLeaseWithTimeProvider(db, NewFixedTimeProvider(now))
		token, ok, err := lease.TryAcquire(context.Background(), "dispatch", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NotEmpty(t, token)
	})

	t.Run("unexpired row is left alone", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(upsertQ).
			WithArgs("dispatch", sqlmock.AnyArg(), now.Add(time.Minute), now).
			WillReturnResult(sqlmock.NewResult(0, 0))

		lease := NewDBTickLeaseWithTimeProvider(db, NewFixedTimeProvider(now))
		token, ok, err := lease.TryAcquire(context.Background(), "dispatch", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, token)
	})

	t.Run("concurrent callers get one holder", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(upsertQ).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(upsertQ).WillReturnResult(sqlmock.NewResult(0, 0))

		lease := NewDBTickLeaseWithTimeProvider(db, NewFixedTimeProvider(now))
		_, first, err := lease.TryAcquire(context.Background(), "dispatch", time.Minute)
		require.NoError(t, err)
		_, second, err := lease.TryAcquire(context.Background(), "dispatch", time.Minute)
		require.NoError(t, err)
		assert.True(t, first)
		assert.False(t, second)
	})

	t.Run("write error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(upsertQ).WillReturnError(sql.ErrConnDone)

		lease := NewDBTickLeaseWithTimeProvider(db, NewFixedTimeProvider(now))
		_, ok, err := lease.TryAcquire(context.Background(), "dispatch", time.Minute)
		require.ErrorIs(t, err, sql.ErrConnDone)
		assert.False(t, ok)
	})

	t.Run("release", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM scheduler_leases WHERE name = $1 AND holder = $2")).
			WithArgs("dispatch", "tok").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM scheduler_leases").
			WithArgs("dispatch", "tok").WillReturnResult(sqlmock.NewResult(0, 0))

		lease := NewDBTickLease(db)
		require.NoError(t, lease.Release(context.Background(), "dispatch", "tok"))
		require.ErrorIs(t, lease.Release(context.Background(), "dispatch", "tok"), ErrLeaseNotHeld)
	})
}
