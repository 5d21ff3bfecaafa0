package domain

import (
	"time"

	"github.com/google/uuid"
)

// HintLevel represents hint specificity, 1 = most conceptual, 5 = most revealing
type HintLevel int

const (
	MinHintLevel HintLevel = 1
	MaxHintLevel HintLevel = 5
)

// String returns the human-readable name of the hint level
func (l HintLevel) String() string {
	switch l {
	case 1:
		return "conceptual"
	case 2:
		return "directional"
	case 3:
		return "structural"
	case 4:
		return "targeted"
	case 5:
		return "revealing"
	default:
		return "unknown"
	}
}

// Clamp bounds the level to [MinHintLevel, max]
func (l HintLevel) Clamp(max HintLevel) HintLevel {
	if l < MinHintLevel {
		return MinHintLevel
	}
	if l > max {
		return max
	}
	return l
}

// HintType categorizes the angle a hint takes
type HintType string

const (
	TypeConceptual     HintType = "conceptual"
	TypeApproach       HintType = "approach"
	TypeImplementation HintType = "implementation"
	TypeDebug          HintType = "debug"
)

// Hint is a generated hint for a problem
type Hint struct {
	ID        uuid.UUID
	ProblemID uuid.UUID
	Content   string
	Level     HintLevel
	Type      HintType
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HintDelivery records a hint being shown to a specific learner
type HintDelivery struct {
	ID            uuid.UUID
	HintID        uuid.UUID
	UserID        uuid.UUID
	AttemptID     uuid.UUID
	AutoTriggered bool
	Feedback      string
	Rating        *int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Score keys for hint quality evaluation
const (
	ScoreSafety            = "safety_score"
	ScoreHelpfulness       = "helpfulness_score"
	ScoreQuality           = "quality_score"
	ScoreProgressAlignment = "progress_alignment_score"
	ScorePedagogicalValue  = "pedagogical_value_score"
)

// RequiredScoreKeys lists the five scores every hint evaluation must carry
func RequiredScoreKeys() []string {
	return []string{
		ScoreSafety,
		ScoreHelpfulness,
		ScoreQuality,
		ScoreProgressAlignment,
		ScorePedagogicalValue,
	}
}

// HintEvaluation holds quality scores for a delivered hint, each in [0,1]
type HintEvaluation struct {
	ID        uuid.UUID
	HintID    uuid.UUID
	Scores    map[string]float64
	CreatedAt time.Time
}

// HintDecision is the policy output: the level and type of the next hint.
// Derived per request, never persisted on its own.
type HintDecision struct {
	Level HintLevel
	Type  HintType
}

// HintResult is the consolidated output of one orchestration pipeline run
type HintResult struct {
	HintText          string
	Level             HintLevel
	Type              HintType
	AttemptEvaluation AttemptEvaluation
	HintScores        map[string]float64
	// Degraded is set when one or more pipeline stages fell back to a
	// static value after an LLM call failure
	Degraded bool
}
