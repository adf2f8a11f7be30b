package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/target/trendscout/internal/core"
	"github.com/target/trendscout/internal/domain/model"
	apperrors "github.com/target/trendscout/internal/errors"
)

// WorkflowRunRepo persists workflow run records.
type WorkflowRunRepo struct {
	DB *sql.DB
}

var _ core.WorkflowRunRepository = (*WorkflowRunRepo)(nil)

// NewWorkflowRunRepo creates a WorkflowRunRepo.
func NewWorkflowRunRepo(db *sql.DB) *WorkflowRunRepo {
	return &WorkflowRunRepo{DB: db}
}

type runJSONColumns struct {
	stageStatus []byte
	queries     []byte
	analyses    []byte
	strategy    []byte
}

func encodeRunColumns(run *model.WorkflowRun) (runJSONColumns, error) {
	var (
		cols runJSONColumns
		err  error
	)
	if cols.stageStatus, err = json.Marshal(run.StageStatus); err != nil {
		return cols, fmt.Errorf("encode stage status: %w", err)
	}
	if cols.queries, err = json.Marshal(nonNilStrings(run.SearchQueries)); err != nil {
		return cols, fmt.Errorf("encode search queries: %w", err)
	}
	analyses := run.Analyses
	if analyses == nil {
		analyses = []model.AnalysisResult{}
	}
	if cols.analyses, err = json.Marshal(analyses); err != nil {
		return cols, fmt.Errorf("encode analyses: %w", err)
	}
	if cols.strategy, err = json.Marshal(run.Strategy); err != nil {
		return cols, fmt.Errorf("encode strategy: %w", err)
	}
	return cols, nil
}

// Save inserts or replaces a run record.
func (r *WorkflowRunRepo) Save(ctx context.Context, run *model.WorkflowRun) error {
	if run == nil {
		return errors.New("run is required")
	}
	if _, err := uuid.Parse(run.ID); err != nil {
		return fmt.Errorf("invalid run id %q: %w", run.ID, err)
	}
	cols, err := encodeRunColumns(run)
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO workflow_runs (id, user_id, business_description, state, stage_status, search_queries,
		                           analyses, strategy, videos_count, analyzed_count, deleted_media_count,
		                           error, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE
		SET state = EXCLUDED.state,
		    stage_status = EXCLUDED.stage_status,
		    search_queries = EXCLUDED.search_queries,
		    analyses = EXCLUDED.analyses,
		    strategy = EXCLUDED.strategy,
		    videos_count = EXCLUDED.videos_count,
		    analyzed_count = EXCLUDED.analyzed_count,
		    deleted_media_count = EXCLUDED.deleted_media_count,
		    error = EXCLUDED.error,
		    completed_at = EXCLUDED.completed_at`

	var completedAt sql.NullTime
	if run.CompletedAt != nil {
		completedAt = sql.NullTime{Time: run.CompletedAt.UTC(), Valid: true}
	}

	_, err = r.DB.ExecContext(ctx, q,
		run.ID, run.UserID, run.BusinessDescription, string(run.State),
		cols.stageStatus, cols.queries, cols.analyses, cols.strategy,
		len(run.Videos), run.AnalyzedCount(), run.DeletedMediaCount,
		nullableString(run.Error), run.StartedAt.UTC(), completedAt,
	)
	if err != nil {
		return fmt.Errorf("save workflow run: %w", err)
	}
	return nil
}

// GetByID loads a run record. Videos are not stored on the run; only their count is.
func (r *WorkflowRunRepo) GetByID(ctx context.Context, id string) (*model.WorkflowRun, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrRunNotFound
	}

	const q = `
		SELECT id, user_id, business_description, state, stage_status, search_queries, analyses, strategy,
		       deleted_media_count, error, started_at, completed_at
		FROM workflow_runs
		WHERE id = $1`

	var (
		run         model.WorkflowRun
		state       string
		cols        runJSONColumns
		errText     sql.NullString
		completedAt sql.NullTime
		startedAt   time.Time
	)
	err := r.DB.QueryRowContext(ctx, q, id).Scan(
		&run.ID, &run.UserID, &run.BusinessDescription, &state,
		&cols.stageStatus, &cols.queries, &cols.analyses, &cols.strategy,
		&run.DeletedMediaCount, &errText, &startedAt, &completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow run: %w", apperrors.MapDBError(err))
	}

	run.State = model.RunState(state)
	run.Error = errText.String
	run.StartedAt = startedAt
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	if err = decodeRunColumns(cols, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func decodeRunColumns(cols runJSONColumns, run *model.WorkflowRun) error {
	if err := json.Unmarshal(cols.stageStatus, &run.StageStatus); err != nil {
		return fmt.Errorf("decode stage status: %w", err)
	}
	if err := json.Unmarshal(cols.queries, &run.SearchQueries); err != nil {
		return fmt.Errorf("decode search queries: %w", err)
	}
	if err := json.Unmarshal(cols.analyses, &run.Analyses); err != nil {
		return fmt.Errorf("decode analyses: %w", err)
	}
	if err := json.Unmarshal(cols.strategy, &run.Strategy); err != nil {
		return fmt.Errorf("decode strategy: %w", err)
	}
	return nil
}
