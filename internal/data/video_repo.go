package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/target/trendscout/internal/core"
	"github.com/target/trendscout/internal/domain/model"
	apperrors "github.com/target/trendscout/internal/errors"
)

// VideoRepo persists scraped video metadata and analyses.
type VideoRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

var _ core.VideoRepository = (*VideoRepo)(nil)

// NewVideoRepo creates a VideoRepo.
func NewVideoRepo(db *sql.DB) *VideoRepo {
	return &VideoRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewVideoRepoWithTimeProvider creates a VideoRepo with a custom TimeProvider.
func NewVideoRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *VideoRepo {
	return &VideoRepo{DB: db, timeProvider: orRealTime(tp)}
}

// Create inserts a video row and returns its id.
func (r *VideoRepo) Create(ctx context.Context, v *model.VideoRecord) (string, error) {
	if v == nil || strings.TrimSpace(v.ID) == "" {
		return "", fmt.Errorf("video platform id is required")
	}
	hashtags, err := json.Marshal(nonNilStrings(v.Hashtags))
	if err != nil {
		return "", fmt.Errorf("encode hashtags: %w", err)
	}
	createdAt := v.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.timeProvider.Now()
	}

	const q = `
		INSERT INTO videos (platform_video_id, trend_query_id, url, description, author, storage_url,
		                    views, likes, comments, shares, hashtags, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	var id string
	err = r.DB.QueryRowContext(ctx, q,
		v.ID, nullableUUID(v.TrendQueryID), v.URL, v.Description, v.Author, nullableString(v.RemoteMediaURL),
		v.Metrics.Views, v.Metrics.Likes, v.Metrics.Comments, v.Metrics.Shares, hashtags, createdAt.UTC(),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert video: %w", apperrors.MapDBError(err))
	}
	return id, nil
}

// SaveAnalysis writes analysis columns onto an existing video row. An empty transcript or
// frame analysis leaves the stored value in place.
func (r *VideoRepo) SaveAnalysis(ctx context.Context, id string, a model.VideoAnalysis) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrVideoNotFound
	}
	at := a.AnalyzedAt
	if at.IsZero() {
		at = r.timeProvider.Now()
	}

	const q = `
		UPDATE videos
		SET summary = $2,
		    transcript = COALESCE($3, transcript),
		    frame_analysis = COALESCE($4, frame_analysis),
		    last_analyzed_at = $5
		WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, q, id,
		nullableString(a.Summary), nullableString(a.Transcript), nullableString(a.FrameAnalysis), at.UTC())
	if err != nil {
		return fmt.Errorf("save video analysis: %w", err)
	}
	return requireOneRow(res, ErrVideoNotFound)
}

// ClearMedia nulls storage_url for the given rows and returns the ids that were updated.
// Ids that are not valid UUIDs are ignored.
func (r *VideoRepo) ClearMedia(ctx context.Context, ids []string) ([]string, error) {
	valid := make([]any, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []string{}, nil
	}

	placeholders := make([]string, len(valid))
	for i := range valid {
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}
	// #nosec G202 -- only positional placeholders are concatenated.
	q := `UPDATE videos SET storage_url = NULL WHERE id IN (` + strings.Join(placeholders, ", ") + `) RETURNING id`

	rows, err := r.DB.QueryContext(ctx, q, valid...)
	if err != nil {
		return nil, fmt.Errorf("clear video media: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0, len(valid))
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan video id: %w", err)
		}
		out = append(out, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate video ids: %w", err)
	}
	return out, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: strings.TrimSpace(s) != ""}
}

func nullableUUID(s string) sql.NullString {
	if _, err := uuid.Parse(s); err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
