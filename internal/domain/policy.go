package domain

import (
	"strings"
	"time"
)

// PolicyConfig holds the tunable thresholds for hint escalation
type PolicyConfig struct {
	// FailureThreshold is the failed-attempt count that forces escalation
	FailureThreshold int
	// StuckTimeout is the inactivity duration that forces escalation
	StuckTimeout time.Duration
	// MaxLevel caps escalation
	MaxLevel HintLevel
}

// DefaultPolicyConfig returns the standard escalation thresholds
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		FailureThreshold: 3,
		StuckTimeout:     300 * time.Second,
		MaxLevel:         MaxHintLevel,
	}
}

// HintPolicy is a domain service that decides the next hint level and type
// from struggle signals and the latest attempt evaluation. It is pure:
// identical inputs always produce identical decisions.
type HintPolicy struct {
	cfg PolicyConfig
}

// NewHintPolicy creates a policy with the given thresholds
func NewHintPolicy(cfg PolicyConfig) *HintPolicy {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.StuckTimeout <= 0 {
		cfg.StuckTimeout = 300 * time.Second
	}
	if cfg.MaxLevel < MinHintLevel {
		cfg.MaxLevel = MaxHintLevel
	}
	return &HintPolicy{cfg: cfg}
}

// Decide computes the next hint level and type. Level rules apply in strict
// precedence order; the first matching rule wins.
func (p *HintPolicy) Decide(current HintLevel, failedAttempts int, elapsed time.Duration, eval AttemptEvaluation) HintDecision {
	level := p.NextLevel(current, failedAttempts, elapsed, eval)
	return HintDecision{
		Level: level,
		Type:  p.TypeFor(level, eval),
	}
}

// NextLevel applies the escalation rules to the current level
func (p *HintPolicy) NextLevel(current HintLevel, failedAttempts int, elapsed time.Duration, eval AttemptEvaluation) HintLevel {
	if current < MinHintLevel {
		current = MinHintLevel
	}

	// Repeated failures escalate one step
	if failedAttempts >= p.cfg.FailureThreshold {
		return (current + 1).Clamp(p.cfg.MaxLevel)
	}

	// Prolonged inactivity escalates one step
	if elapsed > p.cfg.StuckTimeout {
		return (current + 1).Clamp(p.cfg.MaxLevel)
	}

	// Missed edge cases warrant at least a structural hint
	if len(eval.EdgeCases) > 0 {
		return maxLevel(3, current)
	}

	reason := strings.ToLower(eval.Reason)

	// Complexity problems warrant at least a directional hint
	if strings.Contains(reason, "complexity") {
		return maxLevel(2, current)
	}

	// Kept as written in the original decision table: max(1, current) can
	// never lower a valid level, so this rule holds the level in place.
	if strings.Contains(reason, "logic") {
		return maxLevel(1, current)
	}

	return current
}

// TypeFor maps a level and evaluation to the hint type. Evaluation signals
// override the level table.
func (p *HintPolicy) TypeFor(level HintLevel, eval AttemptEvaluation) HintType {
	reason := strings.ToLower(eval.Reason)

	if len(eval.EdgeCases) > 0 || strings.Contains(reason, "error") {
		return TypeDebug
	}
	if strings.Contains(reason, "complexity") {
		return TypeApproach
	}

	switch level {
	case 1:
		return TypeConceptual
	case 2:
		return TypeApproach
	case 3:
		return TypeImplementation
	case 4, 5:
		return TypeDebug
	default:
		return TypeConceptual
	}
}

// MaxLevel returns the configured escalation cap
func (p *HintPolicy) MaxLevel() HintLevel {
	return p.cfg.MaxLevel
}

func maxLevel(a, b HintLevel) HintLevel {
	if a > b {
		return a
	}
	return b
}
