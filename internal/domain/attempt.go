package domain

import (
	"time"

	"github.com/google/uuid"
)

// Attempt represents a single submitted solution attempt
type Attempt struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ProblemID uuid.UUID
	Code      string
	Status    AttemptStatus
	// Evaluation holds the parsed attempt evaluation, when one was produced
	Evaluation *AttemptEvaluation
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AttemptStatus represents the outcome of an attempt
type AttemptStatus string

const (
	AttemptPending AttemptStatus = "pending"
	AttemptSuccess AttemptStatus = "success"
	AttemptFailed  AttemptStatus = "failed"
)

// AttemptEvaluation is the structured result of evaluating a submitted
// attempt. Immutable once produced.
type AttemptEvaluation struct {
	Success     bool     `json:"success"`
	Reason      string   `json:"reason"`
	Complexity  string   `json:"complexity"`
	EdgeCases   []string `json:"edge_cases"`
	CodeQuality string   `json:"code_quality"`
	Suggestions []string `json:"suggestions"`
}
