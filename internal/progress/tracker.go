package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hintwise/hintwise/internal/domain"
)

// Store persists progress states
type Store interface {
	// Get returns the state for a (user, problem) pair, or
	// domain.ErrProgressNotFound
	Get(ctx context.Context, userID, problemID uuid.UUID) (*domain.ProgressState, error)

	// Save persists a state (insert or update)
	Save(ctx context.Context, state *domain.ProgressState) error
}

// Tracker manages per-user, per-problem struggle state. It is the only
// component that mutates ProgressState; it does not decide hint levels.
type Tracker struct {
	store Store
}

// NewTracker creates a tracker backed by the given store
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// GetOrCreate returns the existing state for a (user, problem) pair,
// creating a fresh one on first contact.
func (t *Tracker) GetOrCreate(ctx context.Context, userID, problemID uuid.UUID) (*domain.ProgressState, error) {
	state, err := t.store.Get(ctx, userID, problemID)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, domain.ErrProgressNotFound) {
		return nil, fmt.Errorf("get progress: %w", err)
	}

	now := time.Now()
	state = &domain.ProgressState{
		UserID:           userID,
		ProblemID:        problemID,
		CurrentHintLevel: domain.MinHintLevel,
		LastActivity:     now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := t.store.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("create progress: %w", err)
	}

	slog.Info("created progress state", "user_id", userID, "problem_id", problemID)
	return state, nil
}

// RecordAttempt applies an attempt outcome to the state. Attempts always
// count; failures accumulate until the next success resets them.
func (t *Tracker) RecordAttempt(state *domain.ProgressState, succeeded bool) {
	state.AttemptsCount++
	if succeeded {
		state.FailedAttemptsCount = 0
	} else {
		state.FailedAttemptsCount++
	}
}

// Touch computes the time elapsed since the last recorded activity and
// stamps the state with the new activity time.
func (t *Tracker) Touch(state *domain.ProgressState, now time.Time) time.Duration {
	var elapsed time.Duration
	if !state.LastActivity.IsZero() {
		elapsed = now.Sub(state.LastActivity)
	}
	if elapsed < 0 {
		elapsed = 0
	}
	state.LastActivity = now
	return elapsed
}

// SetLevel records a new hint level. Levels never regress.
func (t *Tracker) SetLevel(state *domain.ProgressState, level domain.HintLevel) {
	if level > state.CurrentHintLevel {
		state.CurrentHintLevel = level
	}
}

// Save persists the state
func (t *Tracker) Save(ctx context.Context, state *domain.ProgressState) error {
	state.UpdatedAt = time.Now()
	if err := t.store.Save(ctx, state); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}
