package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stuck detection thresholds for unsolicited hints
const (
	StuckInactivity     = 5 * time.Minute
	StuckFailedAttempts = 3
)

// ProgressState tracks a learner's struggle state on a single problem.
// Created lazily on the first request for a (user, problem) pair and
// mutated only through the progress.Tracker.
type ProgressState struct {
	UserID              uuid.UUID
	ProblemID           uuid.UUID
	AttemptsCount       int
	FailedAttemptsCount int
	CurrentHintLevel    HintLevel
	LastActivity        time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsStuck reports whether the learner qualifies for an unsolicited hint:
// inactive past the threshold with repeated recent failures.
func (p *ProgressState) IsStuck(now time.Time) bool {
	return now.Sub(p.LastActivity) > StuckInactivity &&
		p.FailedAttemptsCount >= StuckFailedAttempts
}
