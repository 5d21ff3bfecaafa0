package similarity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hintwise/hintwise/internal/domain"
)

// errorPatternCap bounds the deduplicated error patterns per context
const errorPatternCap = 8

// HistorySource provides the learner's problem history. Candidates for
// similarity ranking are always drawn from here, never globally, so
// retrieval is personalized per learner.
type HistorySource interface {
	// AttemptedProblems returns the problems the learner has attempted
	AttemptedProblems(ctx context.Context, userID uuid.UUID) ([]*domain.Problem, error)

	// LatestSuccessfulCode returns the learner's most recent successful
	// solution for a problem, or domain.ErrAttemptNotFound
	LatestSuccessfulCode(ctx context.Context, userID, problemID uuid.UUID) (string, error)

	// FailureReasons returns evaluation reasons from the learner's
	// failed attempts at a problem, most recent first
	FailureReasons(ctx context.Context, userID, problemID uuid.UUID) ([]string, error)
}

// ProblemSource resolves problems by ID
type ProblemSource interface {
	GetProblem(ctx context.Context, id uuid.UUID) (*domain.Problem, error)
}

// ContextBuilder assembles the similarity context that enriches hint
// generation: similar problems from the learner's own history, their
// prior solutions, and recurring error patterns.
type ContextBuilder struct {
	index    *Index
	history  HistorySource
	problems ProblemSource
	logger   *slog.Logger
}

// NewContextBuilder creates a context builder
func NewContextBuilder(index *Index, history HistorySource, problems ProblemSource, logger *slog.Logger) *ContextBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContextBuilder{
		index:    index,
		history:  history,
		problems: problems,
		logger:   logger,
	}
}

// BuildContext ranks the learner's attempted problems against the
// target and gathers solutions and error patterns for the top k
func (b *ContextBuilder) BuildContext(ctx context.Context, userID, problemID uuid.UUID, k int) (*domain.SimilarityContext, error) {
	target, err := b.problems.GetProblem(ctx, problemID)
	if err != nil {
		return nil, fmt.Errorf("resolve target problem: %w", err)
	}

	attempted, err := b.history.AttemptedProblems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load attempted problems: %w", err)
	}

	candidates := make([]*domain.Problem, 0, len(attempted))
	for _, p := range attempted {
		if p.ID != problemID {
			candidates = append(candidates, p)
		}
	}

	similar, err := b.index.TopKSimilar(target, candidates, k)
	if err != nil {
		return nil, fmt.Errorf("rank similar problems: %w", err)
	}

	simCtx := &domain.SimilarityContext{
		SimilarProblems: similar,
		PriorSolutions:  make(map[string]string),
	}

	seen := make(map[string]bool)
	for _, sp := range similar {
		code, err := b.history.LatestSuccessfulCode(ctx, userID, sp.Problem.ID)
		switch {
		case err == nil && code != "":
			simCtx.PriorSolutions[sp.Problem.Title] = code
		case err != nil && !errors.Is(err, domain.ErrAttemptNotFound):
			b.logger.Warn("load prior solution failed",
				"user_id", userID,
				"problem_id", sp.Problem.ID,
				"error", err)
		}

		reasons, err := b.history.FailureReasons(ctx, userID, sp.Problem.ID)
		if err != nil {
			b.logger.Warn("load failure reasons failed",
				"user_id", userID,
				"problem_id", sp.Problem.ID,
				"error", err)
			continue
		}
		for _, reason := range reasons {
			if reason == "" || seen[reason] {
				continue
			}
			seen[reason] = true
			simCtx.ErrorPatterns = append(simCtx.ErrorPatterns, reason)
		}
	}

	if len(simCtx.ErrorPatterns) > errorPatternCap {
		simCtx.ErrorPatterns = simCtx.ErrorPatterns[:errorPatternCap]
	}

	return simCtx, nil
}
