package analytics

import "github.com/hintwise/hintwise/internal/domain"

// Hint detail settings derived from performance
const (
	DetailConcise  = "concise"
	DetailStandard = "standard"
	DetailDetailed = "detailed"
)

// Personalization tunes hint presentation to the learner: how verbose
// hints should be and which level to open new problems at.
type Personalization struct {
	HintDetail string           `json:"hint_detail"`
	StartLevel domain.HintLevel `json:"start_level"`
}

// Personalize derives presentation settings from learning patterns.
// Strong performers get terse hints starting at the most conceptual
// level; struggling or erratic learners get more detail and a head
// start past the vaguest tiers.
func Personalize(p *Patterns) Personalization {
	out := Personalization{
		HintDetail: DetailStandard,
		StartLevel: domain.MinHintLevel,
	}

	switch {
	case p.SuccessRate >= 0.7:
		out.HintDetail = DetailConcise
	case p.SuccessRate <= 0.3:
		out.HintDetail = DetailDetailed
	}

	// Heavy reliance on revealing hints means the conceptual tiers are
	// not landing; skip them next time.
	if preferredLevel(p.HintLevelDistribution) >= 4 {
		out.StartLevel = 2
	}
	if p.SuccessRate <= 0.3 && p.ConsistencyScore < 0.5 {
		out.StartLevel = 2
	}

	return out
}

// preferredLevel returns the most-used hint level, or MinHintLevel when
// the learner has received no hints. Ties go to the lower level.
func preferredLevel(distribution map[domain.HintLevel]int) domain.HintLevel {
	best := domain.MinHintLevel
	bestCount := 0
	for level := domain.MinHintLevel; level <= domain.MaxHintLevel; level++ {
		if distribution[level] > bestCount {
			best = level
			bestCount = distribution[level]
		}
	}
	return best
}
