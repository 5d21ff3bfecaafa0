package analytics

import (
	"testing"

	"github.com/hintwise/hintwise/internal/domain"
)

func TestPersonalize(t *testing.T) {
	tests := []struct {
		name       string
		patterns   Patterns
		wantDetail string
		wantLevel  domain.HintLevel
	}{
		{
			name:       "strong performer gets concise hints",
			patterns:   Patterns{SuccessRate: 0.8, ConsistencyScore: 0.9},
			wantDetail: DetailConcise,
			wantLevel:  1,
		},
		{
			name:       "struggling learner gets detailed hints",
			patterns:   Patterns{SuccessRate: 0.2, ConsistencyScore: 0.8},
			wantDetail: DetailDetailed,
			wantLevel:  1,
		},
		{
			name:       "average learner gets standard hints",
			patterns:   Patterns{SuccessRate: 0.5, ConsistencyScore: 0.5},
			wantDetail: DetailStandard,
			wantLevel:  1,
		},
		{
			name: "revealing-hint reliance skips the vaguest tier",
			patterns: Patterns{
				SuccessRate:           0.5,
				ConsistencyScore:      0.8,
				HintLevelDistribution: map[domain.HintLevel]int{1: 1, 5: 6},
			},
			wantDetail: DetailStandard,
			wantLevel:  2,
		},
		{
			name:       "struggling and erratic starts past level one",
			patterns:   Patterns{SuccessRate: 0.2, ConsistencyScore: 0.3},
			wantDetail: DetailDetailed,
			wantLevel:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Personalize(&tt.patterns)
			if got.HintDetail != tt.wantDetail {
				t.Errorf("HintDetail = %q, want %q", got.HintDetail, tt.wantDetail)
			}
			if got.StartLevel != tt.wantLevel {
				t.Errorf("StartLevel = %d, want %d", got.StartLevel, tt.wantLevel)
			}
		})
	}
}

func TestPreferredLevel(t *testing.T) {
	if got := preferredLevel(nil); got != 1 {
		t.Errorf("preferredLevel(nil) = %d, want 1", got)
	}
	if got := preferredLevel(map[domain.HintLevel]int{2: 3, 4: 3}); got != 2 {
		t.Errorf("tie should go to the lower level, got %d", got)
	}
}
