package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/target/trendscout/internal/core"
	"github.com/target/trendscout/internal/domain/model"
)

// TrendQueryRepo persists generated search queries.
type TrendQueryRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

var _ core.TrendQueryRepository = (*TrendQueryRepo)(nil)

// NewTrendQueryRepo creates a TrendQueryRepo.
func NewTrendQueryRepo(db *sql.DB) *TrendQueryRepo {
	return &TrendQueryRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewTrendQueryRepoWithTimeProvider creates a TrendQueryRepo with a custom TimeProvider.
func NewTrendQueryRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *TrendQueryRepo {
	return &TrendQueryRepo{DB: db, timeProvider: orRealTime(tp)}
}

// Create inserts a query row. The id is generated client-side so it can be embedded in
// storage object names before the insert round-trips.
func (r *TrendQueryRepo) Create(ctx context.Context, userID, query string) (*model.TrendQuery, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	tq := &model.TrendQuery{
		ID:        uuid.NewString(),
		UserID:    userID,
		Query:     query,
		CreatedAt: r.timeProvider.Now().UTC(),
	}

	const q = `INSERT INTO trend_queries (id, user_id, query, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.DB.ExecContext(ctx, q, tq.ID, tq.UserID, tq.Query, tq.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert trend query: %w", err)
	}
	return tq, nil
}
