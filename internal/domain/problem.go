package domain

import (
	"time"

	"github.com/google/uuid"
)

// Problem represents a coding problem a learner can work on
type Problem struct {
	ID          uuid.UUID
	Title       string
	Description string
	Difficulty  Difficulty
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Difficulty represents problem difficulty
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// SearchText returns the text representation used for similarity embedding
func (p *Problem) SearchText() string {
	return p.Title + " " + p.Description + " " + string(p.Difficulty)
}
