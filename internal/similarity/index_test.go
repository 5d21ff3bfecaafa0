package similarity

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/hintwise/hintwise/internal/domain"
)

func newProblem(title, description string) *domain.Problem {
	return &domain.Problem{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Difficulty:  domain.DifficultyEasy,
	}
}

func TestIndex_EmbedCaches(t *testing.T) {
	idx := NewIndex(NewEmbedder(64), nil, nil)
	p := newProblem("Two Sum", "find two numbers that sum to target")

	v1, err := idx.Embed(p)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	v2, err := idx.Embed(p)
	if err != nil {
		t.Fatalf("Embed() second call error = %v", err)
	}

	if &v1[0] != &v2[0] {
		t.Error("second Embed() should return the cached vector")
	}
}

func TestIndex_TopKSimilar_Ordering(t *testing.T) {
	idx := NewIndex(NewEmbedder(128), nil, nil)

	target := newProblem("Two Sum", "array target sum pair indices hash map lookup")
	// Candidates share progressively less vocabulary with the target
	high := newProblem("Three Sum", "array target sum triplet indices hash map")
	mid := newProblem("Subarray Sum", "array sum contiguous window")
	low := newProblem("Valid Parentheses", "stack brackets matching string")

	// Fit the vocabulary over everything before ranking
	for _, p := range []*domain.Problem{target, high, mid, low} {
		idx.Register(p)
	}

	got, err := idx.TopKSimilar(target, []*domain.Problem{low, mid, high}, 2)
	if err != nil {
		t.Fatalf("TopKSimilar() error = %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].Problem.ID != high.ID {
		t.Errorf("first result = %s, want Three Sum", got[0].Problem.Title)
	}
	if got[1].Problem.ID != mid.ID {
		t.Errorf("second result = %s, want Subarray Sum", got[1].Problem.Title)
	}
	if got[0].Score < got[1].Score {
		t.Errorf("scores not descending: %v < %v", got[0].Score, got[1].Score)
	}
}

func TestIndex_TopKSimilar_TiesKeepCandidateOrder(t *testing.T) {
	idx := NewIndex(NewEmbedder(64), nil, nil)

	target := newProblem("Two Sum", "array target sum")
	first := newProblem("Copy A", "array target sum")
	second := newProblem("Copy B", "array target sum")

	got, err := idx.TopKSimilar(target, []*domain.Problem{first, second}, 2)
	if err != nil {
		t.Fatalf("TopKSimilar() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].Problem.ID != first.ID {
		t.Error("equal scores should preserve candidate insertion order")
	}
}

func TestIndex_TopKSimilar_SkipsTarget(t *testing.T) {
	idx := NewIndex(NewEmbedder(64), nil, nil)

	target := newProblem("Two Sum", "array target sum")
	other := newProblem("Other", "array sum variant")

	got, err := idx.TopKSimilar(target, []*domain.Problem{target, other}, 5)
	if err != nil {
		t.Fatalf("TopKSimilar() error = %v", err)
	}
	for _, sp := range got {
		if sp.Problem.ID == target.ID {
			t.Error("target should not appear among results")
		}
	}
}

func TestIndex_TopKSimilar_SkipsUnembeddableCandidates(t *testing.T) {
	idx := NewIndex(NewEmbedder(64), nil, nil)

	target := newProblem("Two Sum", "array target sum")
	// No title, no difficulty, punctuation-only description: tokenless
	bad := &domain.Problem{ID: uuid.New(), Description: "!!! ..."}
	good := newProblem("Other", "array sum variant")

	got, err := idx.TopKSimilar(target, []*domain.Problem{bad, good}, 5)
	if err != nil {
		t.Fatalf("TopKSimilar() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1 (bad candidate skipped)", len(got))
	}
	if got[0].Problem.ID != good.ID {
		t.Error("surviving result should be the embeddable candidate")
	}
}

func TestIndex_Rebuild(t *testing.T) {
	idx := NewIndex(NewEmbedder(64), nil, nil)

	p1 := newProblem("Two Sum", "array target sum")
	if _, err := idx.Embed(p1); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	// New problem registered after the initial fit: its terms are not
	// in the frozen vocabulary until a rebuild
	p2 := newProblem("Parentheses", "stack brackets matching")
	idx.Register(p2)

	if err := idx.Rebuild(); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	v2, err := idx.Embed(p2)
	if err != nil {
		t.Fatalf("Embed() after rebuild error = %v", err)
	}
	nonZero := 0
	for _, v := range v2 {
		if v != 0 {
			nonZero++
		}
	}
	if nonZero == 0 {
		t.Error("rebuilt vocabulary should cover the new problem's terms")
	}
}

func TestIndex_ConcurrentEmbeds(t *testing.T) {
	idx := NewIndex(NewEmbedder(128), nil, nil)

	problems := make([]*domain.Problem, 8)
	for i := range problems {
		problems[i] = newProblem("Problem", "shared vocabulary terms array sum target")
	}

	done := make(chan error, len(problems)*4)
	for i := 0; i < 4; i++ {
		for _, p := range problems {
			go func(p *domain.Problem) {
				_, err := idx.Embed(p)
				done <- err
			}(p)
		}
	}
	for i := 0; i < len(problems)*4; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent Embed() error = %v", err)
		}
	}
}

// stub sources for the context builder

type stubHistory struct {
	problems  []*domain.Problem
	solutions map[uuid.UUID]string
	reasons   map[uuid.UUID][]string
}

func (s *stubHistory) AttemptedProblems(ctx context.Context, userID uuid.UUID) ([]*domain.Problem, error) {
	return s.problems, nil
}

func (s *stubHistory) LatestSuccessfulCode(ctx context.Context, userID, problemID uuid.UUID) (string, error) {
	code, ok := s.solutions[problemID]
	if !ok {
		return "", domain.ErrAttemptNotFound
	}
	return code, nil
}

func (s *stubHistory) FailureReasons(ctx context.Context, userID, problemID uuid.UUID) ([]string, error) {
	return s.reasons[problemID], nil
}

type stubProblems struct {
	byID map[uuid.UUID]*domain.Problem
}

func (s *stubProblems) GetProblem(ctx context.Context, id uuid.UUID) (*domain.Problem, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrProblemNotFound
	}
	return p, nil
}

func TestContextBuilder_BuildContext(t *testing.T) {
	idx := NewIndex(NewEmbedder(128), nil, nil)

	target := newProblem("Two Sum", "array target sum pair indices hash map")
	similar := newProblem("Three Sum", "array target sum triplet hash map")
	unrelated := newProblem("Parentheses", "stack brackets matching string")

	history := &stubHistory{
		problems: []*domain.Problem{similar, unrelated},
		solutions: map[uuid.UUID]string{
			similar.ID: "func threeSum(nums []int) {}",
		},
		reasons: map[uuid.UUID][]string{
			similar.ID:   {"missed duplicate triplets", "missed duplicate triplets", "wrong sort order"},
			unrelated.ID: {"stack underflow"},
		},
	}
	problems := &stubProblems{byID: map[uuid.UUID]*domain.Problem{target.ID: target}}

	builder := NewContextBuilder(idx, history, problems, nil)

	got, err := builder.BuildContext(context.Background(), uuid.New(), target.ID, 2)
	if err != nil {
		t.Fatalf("BuildContext() error = %v", err)
	}

	if len(got.SimilarProblems) != 2 {
		t.Fatalf("SimilarProblems = %d, want 2", len(got.SimilarProblems))
	}
	if got.SimilarProblems[0].Problem.ID != similar.ID {
		t.Errorf("top similar = %s, want Three Sum", got.SimilarProblems[0].Problem.Title)
	}

	if got.PriorSolutions["Three Sum"] != "func threeSum(nums []int) {}" {
		t.Errorf("PriorSolutions missing Three Sum solution: %v", got.PriorSolutions)
	}
	if _, ok := got.PriorSolutions["Parentheses"]; ok {
		t.Error("problems without successful solutions should be absent")
	}

	// Deduplicated, order preserved
	wantPatterns := map[string]bool{
		"missed duplicate triplets": true,
		"wrong sort order":          true,
		"stack underflow":           true,
	}
	seen := map[string]bool{}
	for _, pattern := range got.ErrorPatterns {
		if seen[pattern] {
			t.Errorf("duplicate error pattern %q", pattern)
		}
		seen[pattern] = true
		if !wantPatterns[pattern] {
			t.Errorf("unexpected error pattern %q", pattern)
		}
	}
}

func TestContextBuilder_ErrorPatternsCapped(t *testing.T) {
	idx := NewIndex(NewEmbedder(128), nil, nil)

	target := newProblem("Two Sum", "array target sum")
	other := newProblem("Three Sum", "array target sum triplet")

	reasons := make([]string, 20)
	for i := range reasons {
		reasons[i] = string(rune('a'+i)) + " unique failure"
	}

	history := &stubHistory{
		problems:  []*domain.Problem{other},
		solutions: map[uuid.UUID]string{},
		reasons:   map[uuid.UUID][]string{other.ID: reasons},
	}
	problems := &stubProblems{byID: map[uuid.UUID]*domain.Problem{target.ID: target}}
	builder := NewContextBuilder(idx, history, problems, nil)

	got, err := builder.BuildContext(context.Background(), uuid.New(), target.ID, 3)
	if err != nil {
		t.Fatalf("BuildContext() error = %v", err)
	}
	if len(got.ErrorPatterns) != errorPatternCap {
		t.Errorf("ErrorPatterns = %d, want %d", len(got.ErrorPatterns), errorPatternCap)
	}
}

func TestContextBuilder_UnknownTargetFails(t *testing.T) {
	idx := NewIndex(NewEmbedder(64), nil, nil)
	builder := NewContextBuilder(idx, &stubHistory{}, &stubProblems{byID: map[uuid.UUID]*domain.Problem{}}, nil)

	_, err := builder.BuildContext(context.Background(), uuid.New(), uuid.New(), 3)
	if err == nil {
		t.Error("BuildContext() should fail for unknown target problem")
	}
}
