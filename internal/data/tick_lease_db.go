package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/target/trendscout/internal/core"
)

// DBTickLease implements core.TickLease with a row in scheduler_leases. It is used when
// Redis is not configured.
type DBTickLease struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

var _ core.TickLease = (*DBTickLease)(nil)

// NewDBTickLease creates a Postgres-backed lease.
func NewDBTickLease(db *sql.DB) *DBTickLease {
	return &DBTickLease{DB: db, timeProvider: RealTimeProvider{}}
}

// NewDBTickLeaseWithTimeProvider creates a Postgres-backed lease with a custom TimeProvider.
func NewDBTickLeaseWithTimeProvider(db *sql.DB, tp TimeProvider) *DBTickLease {
	return &DBTickLease{DB: db, timeProvider: orRealTime(tp)}
}

// TryAcquire takes the lease when no row exists or the existing one has expired. The
// upsert only overwrites an expired row, so of two concurrent callers exactly one sees
// a row affected.
func (l *DBTickLease) TryAcquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if ttl <= 0 {
		return "", false, fmt.Errorf("lease ttl must be positive, got %s", ttl)
	}
	now := l.timeProvider.Now().UTC()
	token := uuid.NewString()

	const q = `
		INSERT INTO scheduler_leases (name, holder, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET holder = EXCLUDED.holder, expires_at = EXCLUDED.expires_at
		WHERE scheduler_leases.expires_at <= $4`
	res, err := l.DB.ExecContext(ctx, q, key, token, now.Add(ttl), now)
	if err != nil {
		return "", false, fmt.Errorf("write lease: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("rows affected: %w", err)
	}
	if n != 1 {
		return "", false, nil
	}
	return token, true, nil
}

// Release deletes the lease row if token still holds it.
func (l *DBTickLease) Release(ctx context.Context, key, token string) error {
	res, err := l.DB.ExecContext(ctx, `DELETE FROM scheduler_leases WHERE name = $1 AND holder = $2`, key, token)
	if err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	return requireOneRow(res, ErrLeaseNotHeld)
}
