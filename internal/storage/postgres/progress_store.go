package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hintwise/hintwise/internal/domain"
)

// ProgressStore persists per-user, per-problem progress states in
// PostgreSQL. It implements progress.Store.
type ProgressStore struct {
	pool *pgxpool.Pool
}

// NewProgressStore creates a new PostgreSQL progress store
func NewProgressStore(pool *pgxpool.Pool) *ProgressStore {
	return &ProgressStore{pool: pool}
}

// Get returns the state for a (user, problem) pair
func (s *ProgressStore) Get(ctx context.Context, userID, problemID uuid.UUID) (*domain.ProgressState, error) {
	query := `
		SELECT user_id, problem_id, attempts_count, failed_attempts_count,
		       current_hint_level, last_activity, created_at, updated_at
		FROM progress_states WHERE user_id = $1 AND problem_id = $2
	`
	return scanProgress(s.pool.QueryRow(ctx, query, userID, problemID))
}

// Save persists a state (insert or update)
func (s *ProgressStore) Save(ctx context.Context, state *domain.ProgressState) error {
	query := `
		INSERT INTO progress_states (user_id, problem_id, attempts_count,
			failed_attempts_count, current_hint_level, last_activity,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, problem_id) DO UPDATE
		SET attempts_count        = EXCLUDED.attempts_count,
		    failed_attempts_count = EXCLUDED.failed_attempts_count,
		    current_hint_level    = EXCLUDED.current_hint_level,
		    last_activity         = EXCLUDED.last_activity,
		    updated_at            = EXCLUDED.updated_at
	`
	_, err := s.pool.Exec(ctx, query,
		state.UserID, state.ProblemID, state.AttemptsCount,
		state.FailedAttemptsCount, int(state.CurrentHintLevel),
		state.LastActivity, state.CreatedAt, state.UpdatedAt,
	)
	return err
}

// Update runs mutate against the current state inside a transaction,
// holding a row lock so concurrent requests for the same (user, problem)
// pair serialize. A missing row behaves like domain.ErrProgressNotFound
// passed through from Get; callers create states via the tracker first.
func (s *ProgressStore) Update(ctx context.Context, userID, problemID uuid.UUID, mutate func(*domain.ProgressState) error) (*domain.ProgressState, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin progress update: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		SELECT user_id, problem_id, attempts_count, failed_attempts_count,
		       current_hint_level, last_activity, created_at, updated_at
		FROM progress_states WHERE user_id = $1 AND problem_id = $2
		FOR UPDATE
	`
	state, err := scanProgress(tx.QueryRow(ctx, query, userID, problemID))
	if err != nil {
		return nil, err
	}

	if err := mutate(state); err != nil {
		return nil, err
	}

	update := `
		UPDATE progress_states
		SET attempts_count        = $3,
		    failed_attempts_count = $4,
		    current_hint_level    = $5,
		    last_activity         = $6,
		    updated_at            = $7
		WHERE user_id = $1 AND problem_id = $2
	`
	_, err = tx.Exec(ctx, update,
		state.UserID, state.ProblemID, state.AttemptsCount,
		state.FailedAttemptsCount, int(state.CurrentHintLevel),
		state.LastActivity, state.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update progress: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit progress update: %w", err)
	}
	return state, nil
}

func scanProgress(row pgx.Row) (*domain.ProgressState, error) {
	state := &domain.ProgressState{}
	var level int
	err := row.Scan(
		&state.UserID, &state.ProblemID, &state.AttemptsCount,
		&state.FailedAttemptsCount, &level, &state.LastActivity,
		&state.CreatedAt, &state.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProgressNotFound
	}
	if err != nil {
		return nil, err
	}
	state.CurrentHintLevel = domain.HintLevel(level)
	return state, nil
}
