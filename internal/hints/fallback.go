package hints

import "github.com/hintwise/hintwise/internal/domain"

// Static fallbacks used when an LLM stage fails. The pipeline always
// returns a complete result; failures degrade hint quality rather than
// surfacing as request errors.

// fallbackEvaluation is the degraded attempt evaluation
func fallbackEvaluation() domain.AttemptEvaluation {
	return domain.AttemptEvaluation{
		Success:     false,
		Reason:      "evaluation failed",
		Complexity:  "unknown",
		EdgeCases:   []string{},
		CodeQuality: "unknown",
		Suggestions: []string{"check your implementation"},
	}
}

// fallbackScores are fixed mid-range hint-quality scores
func fallbackScores() map[string]float64 {
	return map[string]float64{
		domain.ScoreSafety:            0.8,
		domain.ScoreHelpfulness:       0.7,
		domain.ScoreQuality:           0.8,
		domain.ScoreProgressAlignment: 0.7,
		domain.ScorePedagogicalValue:  0.8,
	}
}

// defaultHint returns a static hint for the given level and type
func defaultHint(level domain.HintLevel, hintType domain.HintType) string {
	switch hintType {
	case domain.TypeConceptual:
		switch {
		case level <= 1:
			return "Start by restating the problem in your own words and identifying what data you need to track."
		case level == 2:
			return "Think about which data structure gives you fast access to the values you need to track."
		default:
			return "Walk through a small example by hand and note which operations you repeat."
		}
	case domain.TypeApproach:
		return "Try breaking the problem into smaller steps and solving each one with a single pass over the input."
	case domain.TypeImplementation:
		return "Sketch the skeleton first: initialization, the main loop, and the condition that ends it."
	default: // debug
		return "Re-check your boundary conditions and make sure every branch of your code is reachable."
	}
}
