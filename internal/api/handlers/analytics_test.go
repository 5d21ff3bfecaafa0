package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hintwise/hintwise/internal/analytics"
	"github.com/hintwise/hintwise/internal/domain"
)

type mockAnalyzer struct {
	patterns *analytics.Patterns
	err      error
}

func (m *mockAnalyzer) Analyze(ctx context.Context, userID uuid.UUID) (*analytics.Patterns, error) {
	return m.patterns, m.err
}

func TestAnalyticsHandler_GetPatterns(t *testing.T) {
	h := NewAnalyticsHandler(&mockAnalyzer{
		patterns: &analytics.Patterns{
			SuccessRate:           0.75,
			AvgAttemptsPerProblem: 2.5,
			TimeToSuccess:         4 * time.Minute,
			DifficultyPreference:  3.2,
			ConsistencyScore:      0.8,
			HintLevelDistribution: map[domain.HintLevel]int{1: 4, 3: 2},
		},
	}, nil)

	userID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+userID.String()+"/patterns", nil)
	req.SetPathValue("id", userID.String())
	rec := httptest.NewRecorder()
	h.GetPatterns(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp PatternsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.UserID != userID.String() {
		t.Errorf("UserID = %q", resp.UserID)
	}
	if resp.SuccessRate != 0.75 || resp.AvgAttemptsPerProblem != 2.5 {
		t.Errorf("rates = %v / %v", resp.SuccessRate, resp.AvgAttemptsPerProblem)
	}
	if resp.TimeToSuccessSeconds != 240 {
		t.Errorf("TimeToSuccessSeconds = %d, want 240", resp.TimeToSuccessSeconds)
	}
	if resp.HintLevelDistribution[1] != 4 || resp.HintLevelDistribution[3] != 2 {
		t.Errorf("HintLevelDistribution = %v", resp.HintLevelDistribution)
	}
	if resp.Personalization.HintDetail != analytics.DetailConcise {
		t.Errorf("Personalization.HintDetail = %q, want concise for 0.75 success rate", resp.Personalization.HintDetail)
	}
}

func TestAnalyticsHandler_GetPatternsErrors(t *testing.T) {
	h := NewAnalyticsHandler(&mockAnalyzer{err: errors.New("db down")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/bad/patterns", nil)
	req.SetPathValue("id", "bad")
	rec := httptest.NewRecorder()
	h.GetPatterns(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}

	userID := uuid.New()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/"+userID.String()+"/patterns", nil)
	req.SetPathValue("id", userID.String())
	rec = httptest.NewRecorder()
	h.GetPatterns(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("analyzer error status = %d, want 500", rec.Code)
	}
}
