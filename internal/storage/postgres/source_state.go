package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"news_ingest/internal/domain"
)

type SourceStateStore struct {
	db *sqlx.DB
}

func NewSourceStateStore(db *sqlx.DB) *SourceStateStore {
	return &SourceStateStore{db: db}
}

// Get returns the state of sourceID, locking the row when called inside a
// transaction. Unknown sources get a zero state.
func (s *SourceStateStore) Get(ctx context.Context, sourceID string) (*domain.SourceState, error) {
	var state domain.SourceState
	query := `
		SELECT source_id, last_attempt_at, last_success_at, last_error,
			consecutive_failures, total_accepted
		FROM source_state
		WHERE source_id = $1
		FOR UPDATE`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &state, query, sourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.SourceState{SourceID: sourceID}, nil
	}
	if err != nil {
		return nil, storeError("get source state", err)
	}
	return &state, nil
}

func (s *SourceStateStore) Update(ctx context.Context, state *domain.SourceState) error {
	query := `
		INSERT INTO source_state (
			source_id, last_attempt_at, last_success_at, last_error,
			consecutive_failures, total_accepted
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (source_id) DO UPDATE SET
			last_attempt_at = EXCLUDED.last_attempt_at,
			last_success_at = EXCLUDED.last_success_at,
			last_error = EXCLUDED.last_error,
			consecutive_failures = EXCLUDED.consecutive_failures,
			total_accepted = EXCLUDED.total_accepted`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		state.SourceID,
		state.LastAttemptAt,
		state.LastSuccessAt,
		state.LastError,
		state.ConsecutiveFailures,
		state.TotalAccepted,
	)
	return storeError("update source state", err)
}

func (s *SourceStateStore) List(ctx context.Context) ([]domain.SourceState, error) {
	states := []domain.SourceState{}
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &states, `
		SELECT source_id, last_attempt_at, last_success_at, last_error,
			consecutive_failures, total_accepted
		FROM source_state
		ORDER BY source_id`)
	if err != nil {
		return nil, storeError("list source states", err)
	}
	return states, nil
}
