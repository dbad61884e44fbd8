package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"calendar_syncer/internal/domain"
)

// RunLogStore persists per-run summaries. Reconciliation never reads
// them back; they exist for operators.
type RunLogStore struct {
	db *sqlx.DB
}

func NewRunLogStore(db *sqlx.DB) *RunLogStore {
	return &RunLogStore{db: db}
}

func (s *RunLogStore) Record(ctx context.Context, run *domain.RunRecord) (int64, error) {
	query := `
		INSERT INTO sync_runs (
			feed, started_at, created, updated, skipped, orphaned, errors, dry_run, duration_ms
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		RETURNING id`

	var id int64
	err := s.db.QueryRowContext(ctx, query,
		run.Feed,
		run.StartedAt,
		run.Created,
		run.Updated,
		run.Skipped,
		run.Orphaned,
		run.Errors,
		run.DryRun,
		run.DurationMS,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

// LastRun returns the most recent run for the given feed, or nil when
// the feed has never synced.
func (s *RunLogStore) LastRun(ctx context.Context, feed string) (*domain.RunRecord, error) {
	var run domain.RunRecord
	query := `
		SELECT id, feed, started_at, created, updated, skipped, orphaned, errors, dry_run, duration_ms
		FROM sync_runs
		WHERE feed = $1
		ORDER BY started_at DESC
		LIMIT 1`

	err := s.db.GetContext(ctx, &run, query, feed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}
