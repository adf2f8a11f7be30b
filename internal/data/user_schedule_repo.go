package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/target/trendscout/internal/core"
	"github.com/target/trendscout/internal/data/pgxutil"
	"github.com/target/trendscout/internal/domain/model"
	apperrors "github.com/target/trendscout/internal/errors"
)

// UserScheduleRepo reads delivery preferences from users and mutates their schedule state.
type UserScheduleRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

var _ core.UserScheduleRepository = (*UserScheduleRepo)(nil)

// NewUserScheduleRepo creates a UserScheduleRepo.
func NewUserScheduleRepo(db *sql.DB) *UserScheduleRepo {
	return &UserScheduleRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewUserScheduleRepoWithTimeProvider creates a UserScheduleRepo with a custom TimeProvider.
func NewUserScheduleRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *UserScheduleRepo {
	return &UserScheduleRepo{DB: db, timeProvider: orRealTime(tp)}
}

const subscribedUsersQuery = `
	SELECT id, email, business_description, timezone, email_time_hour, email_notifications,
	       analysis_ready_for_email, last_analysis_results, last_workflow_run, last_email_sent
	FROM users
	WHERE email_notifications
	ORDER BY id`

// ListSubscribed returns every user with email notifications enabled.
func (r *UserScheduleRepo) ListSubscribed(ctx context.Context) ([]model.ScheduledUser, error) {
	var users []model.ScheduledUser
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, subscribedUsersQuery)
		if err != nil {
			return err
		}
		users, err = pgx.CollectRows(rows, rowToScheduledUser)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list subscribed users: %w", err)
	}
	return users, nil
}

func rowToScheduledUser(row pgx.CollectableRow) (model.ScheduledUser, error) {
	var (
		u        model.ScheduledUser
		hour     int16
		snapshot []byte
	)
	err := row.Scan(
		&u.Preference.UserID,
		&u.Preference.Email,
		&u.Preference.BusinessDescription,
		&u.Preference.Timezone,
		&hour,
		&u.Preference.NotificationsEnabled,
		&u.State.PendingResultsReadyForEmail,
		&snapshot,
		&u.State.LastRunAt,
		&u.State.LastEmailSentAt,
	)
	if err != nil {
		return model.ScheduledUser{}, err
	}
	u.Preference.LocalHour = int(hour)
	u.State.LastResultsSnapshot = snapshot
	return u, nil
}

// SaveRunSnapshot stores the run output, raises the pending flag and stamps last_workflow_run.
func (r *UserScheduleRepo) SaveRunSnapshot(ctx context.Context, p core.SaveRunSnapshotParams) error {
	if strings.TrimSpace(p.UserID) == "" {
		return errors.New("user id is required")
	}
	at := p.At
	if at.IsZero() {
		at = r.timeProvider.Now()
	}

	const q = `
		UPDATE users
		SET last_analysis_results = $2,
		    analysis_ready_for_email = true,
		    last_workflow_run = $3,
		    updated_at = $3
		WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, q, p.UserID, []byte(p.Snapshot), at.UTC())
	if err != nil {
		return fmt.Errorf("save run snapshot: %w", err)
	}
	return requireOneRow(res, ErrUserNotFound)
}

// MarkEmailSent clears the pending flag with compare-and-swap semantics: the row is only
// updated while analysis_ready_for_email is still true.
func (r *UserScheduleRepo) MarkEmailSent(ctx context.Context, p core.MarkEmailSentParams) (bool, error) {
	at := p.At
	if at.IsZero() {
		at = r.timeProvider.Now()
	}

	const q = `
		UPDATE users
		SET analysis_ready_for_email = false,
		    last_email_sent = $2,
		    updated_at = $2
		WHERE id = $1 AND analysis_ready_for_email = true`
	res, err := r.DB.ExecContext(ctx, q, p.UserID, at.UTC())
	if err != nil {
		return false, fmt.Errorf("mark email sent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// UpsertPreferenceParams groups the writable preference columns.
type UpsertPreferenceParams struct {
	Preference model.UserSchedulePreference
	At         time.Time
}

// UpsertPreference creates or updates a user's delivery preference. It is used by the admin
// CLI and tests; profile ownership otherwise lives outside this service.
func (r *UserScheduleRepo) UpsertPreference(ctx context.Context, p UpsertPreferenceParams) (string, error) {
	pref := p.Preference
	at := p.At
	if at.IsZero() {
		at = r.timeProvider.Now()
	}

	const q = `
		INSERT INTO users (id, email, business_description, timezone, email_time_hour, email_notifications, created_at, updated_at)
		VALUES (COALESCE(NULLIF($1, ''), gen_random_uuid()::text), $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (email) DO UPDATE
		SET business_description = EXCLUDED.business_description,
		    timezone = EXCLUDED.timezone,
		    email_time_hour = EXCLUDED.email_time_hour,
		    email_notifications = EXCLUDED.email_notifications,
		    updated_at = EXCLUDED.updated_at
		RETURNING id`
	var id string
	err := r.DB.QueryRowContext(ctx, q,
		pref.UserID, pref.Email, pref.BusinessDescription, pref.Timezone,
		pref.LocalHour, pref.NotificationsEnabled, at.UTC(),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert user preference: %w", apperrors.MapDBError(err))
	}
	return id, nil
}

func requireOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
