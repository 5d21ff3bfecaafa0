package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hintwise/hintwise/internal/domain"
)

// Defaults reported for learners with no attempt history yet
const (
	defaultSuccessRate     = 0.5
	defaultAttemptsPerProb = 3
	defaultTimeToSuccess   = 5 * time.Minute
	defaultDifficultyPref  = 3
	defaultConsistency     = 0.5
)

// AttemptRecord is one attempt in a learner's history, ordered by time
type AttemptRecord struct {
	ProblemID  uuid.UUID
	Success    bool
	Difficulty domain.Difficulty
	CreatedAt  time.Time
}

// Source provides the raw history the analyzer works from
type Source interface {
	// UserAttempts returns the learner's attempts ordered oldest first
	UserAttempts(ctx context.Context, userID uuid.UUID) ([]AttemptRecord, error)

	// HintLevelCounts returns how many hints the learner received at
	// each level
	HintLevelCounts(ctx context.Context, userID uuid.UUID) (map[domain.HintLevel]int, error)
}

// Patterns summarizes a learner's performance for personalization
type Patterns struct {
	SuccessRate           float64                  `json:"success_rate"`
	AvgAttemptsPerProblem float64                  `json:"avg_attempts_per_problem"`
	TimeToSuccess         time.Duration            `json:"time_to_success"`
	DifficultyPreference  float64                  `json:"difficulty_preference"`
	ConsistencyScore      float64                  `json:"consistency_score"`
	HintLevelDistribution map[domain.HintLevel]int `json:"hint_level_distribution"`
}

// Service computes learning patterns from attempt history
type Service struct {
	source Source
	logger *slog.Logger
}

// NewService creates a new analytics service
func NewService(source Source, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, logger: logger}
}

// Analyze computes the learner's performance patterns. Learners with
// no history get neutral defaults rather than an error.
func (s *Service) Analyze(ctx context.Context, userID uuid.UUID) (*Patterns, error) {
	attempts, err := s.source.UserAttempts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}

	hintLevels, err := s.source.HintLevelCounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load hint levels: %w", err)
	}
	if hintLevels == nil {
		hintLevels = map[domain.HintLevel]int{}
	}

	if len(attempts) == 0 {
		return &Patterns{
			SuccessRate:           defaultSuccessRate,
			AvgAttemptsPerProblem: defaultAttemptsPerProb,
			TimeToSuccess:         defaultTimeToSuccess,
			DifficultyPreference:  defaultDifficultyPref,
			ConsistencyScore:      defaultConsistency,
			HintLevelDistribution: hintLevels,
		}, nil
	}

	p := &Patterns{
		SuccessRate:           successRate(attempts),
		AvgAttemptsPerProblem: attemptsPerProblem(attempts),
		TimeToSuccess:         timeToSuccess(attempts),
		DifficultyPreference:  difficultyPreference(attempts),
		ConsistencyScore:      consistency(attempts),
		HintLevelDistribution: hintLevels,
	}

	s.logger.Debug("analyzed learning patterns",
		"user_id", userID,
		"attempts", len(attempts),
		"success_rate", p.SuccessRate,
	)
	return p, nil
}

func successRate(attempts []AttemptRecord) float64 {
	succeeded := 0
	for _, a := range attempts {
		if a.Success {
			succeeded++
		}
	}
	return float64(succeeded) / float64(len(attempts))
}

func attemptsPerProblem(attempts []AttemptRecord) float64 {
	problems := map[uuid.UUID]bool{}
	for _, a := range attempts {
		problems[a.ProblemID] = true
	}
	if len(problems) == 0 {
		return defaultAttemptsPerProb
	}
	return float64(len(attempts)) / float64(len(problems))
}

// timeToSuccess averages the gap between a successful attempt and the
// attempt on the same problem that preceded it. Successes with no
// earlier attempt contribute the default.
func timeToSuccess(attempts []AttemptRecord) time.Duration {
	byProblem := map[uuid.UUID][]AttemptRecord{}
	for _, a := range attempts {
		byProblem[a.ProblemID] = append(byProblem[a.ProblemID], a)
	}

	var total time.Duration
	count := 0
	for _, seq := range byProblem {
		sort.Slice(seq, func(i, j int) bool { return seq[i].CreatedAt.Before(seq[j].CreatedAt) })
		for i, a := range seq {
			if !a.Success {
				continue
			}
			if i == 0 {
				total += defaultTimeToSuccess
			} else {
				total += a.CreatedAt.Sub(seq[i-1].CreatedAt)
			}
			count++
		}
	}
	if count == 0 {
		return defaultTimeToSuccess
	}
	return total / time.Duration(count)
}

func difficultyPreference(attempts []AttemptRecord) float64 {
	var sum float64
	count := 0
	for _, a := range attempts {
		if !a.Success {
			continue
		}
		sum += difficultyScore(a.Difficulty)
		count++
	}
	if count == 0 {
		return defaultDifficultyPref
	}
	return sum / float64(count)
}

func difficultyScore(d domain.Difficulty) float64 {
	switch d {
	case domain.DifficultyEasy:
		return 1
	case domain.DifficultyMedium:
		return 3
	case domain.DifficultyHard:
		return 5
	default:
		return defaultDifficultyPref
	}
}

// consistency windows the success sequence and measures variance across
// window success rates; low variance means steady performance.
func consistency(attempts []AttemptRecord) float64 {
	if len(attempts) < 2 {
		return defaultConsistency
	}

	window := len(attempts) / 2
	if window > 5 {
		window = 5
	}
	if window < 1 {
		window = 1
	}

	var rates []float64
	for i := 0; i+window <= len(attempts); i += window {
		succeeded := 0
		for _, a := range attempts[i : i+window] {
			if a.Success {
				succeeded++
			}
		}
		rates = append(rates, float64(succeeded)/float64(window))
	}
	if len(rates) < 2 {
		return defaultConsistency
	}

	var mean float64
	for _, r := range rates {
		mean += r
	}
	mean /= float64(len(rates))

	var variance float64
	for _, r := range rates {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(rates))

	score := 1 - variance
	if score < 0 {
		score = 0
	}
	return score
}
