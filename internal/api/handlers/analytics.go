package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/hintwise/hintwise/internal/analytics"
)

// PatternAnalyzer computes learning patterns for a learner
type PatternAnalyzer interface {
	Analyze(ctx context.Context, userID uuid.UUID) (*analytics.Patterns, error)
}

// AnalyticsHandler handles learning pattern endpoints
type AnalyticsHandler struct {
	analyzer PatternAnalyzer
	logger   *slog.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyzer PatternAnalyzer, logger *slog.Logger) *AnalyticsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsHandler{analyzer: analyzer, logger: logger}
}

// PatternsResponse represents learning patterns in API responses
type PatternsResponse struct {
	UserID                string                    `json:"user_id"`
	SuccessRate           float64                   `json:"success_rate"`
	AvgAttemptsPerProblem float64                   `json:"avg_attempts_per_problem"`
	TimeToSuccessSeconds  int                       `json:"time_to_success_seconds"`
	DifficultyPreference  float64                   `json:"difficulty_preference"`
	ConsistencyScore      float64                   `json:"consistency_score"`
	HintLevelDistribution map[int]int               `json:"hint_level_distribution"`
	Personalization       analytics.Personalization `json:"personalization"`
}

// GetPatterns returns the learner's performance patterns
func (h *AnalyticsHandler) GetPatterns(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	patterns, err := h.analyzer.Analyze(r.Context(), userID)
	if err != nil {
		h.logger.Error("pattern analysis failed", "user_id", userID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to analyze patterns")
		return
	}

	distribution := make(map[int]int, len(patterns.HintLevelDistribution))
	for level, count := range patterns.HintLevelDistribution {
		distribution[int(level)] = count
	}

	WriteJSONBody(w, http.StatusOK, PatternsResponse{
		UserID:                userID.String(),
		SuccessRate:           patterns.SuccessRate,
		AvgAttemptsPerProblem: patterns.AvgAttemptsPerProblem,
		TimeToSuccessSeconds:  int(patterns.TimeToSuccess.Seconds()),
		DifficultyPreference:  patterns.DifficultyPreference,
		ConsistencyScore:      patterns.ConsistencyScore,
		HintLevelDistribution: distribution,
		Personalization:       analytics.Personalize(patterns),
	})
}
