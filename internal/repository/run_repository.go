package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/tokenchain/internal/domain"
)

// RunRepository defines persistence access for the run ledger. Token values
// are never stored.
type RunRepository interface {
	Record(ctx context.Context, result domain.StageResult) error
}

type runRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository returns a Postgres-backed implementation.
func NewRunRepository(pool *pgxpool.Pool) RunRepository {
	return &runRepository{pool: pool}
}

func (r *runRepository) Record(ctx context.Context, result domain.StageResult) error {
	const query = `
        INSERT INTO token_chain_runs (run_id, stage, outcome, http_status, duration_ms, error_code, persisted)
        VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)`

	_, err := r.pool.Exec(ctx, query,
		result.RunID,
		string(result.Stage),
		result.Outcome,
		result.HTTPStatus,
		result.Duration.Milliseconds(),
		result.ErrorCode,
		result.Persisted,
	)
	return err
}
