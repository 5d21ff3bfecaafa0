package similarity

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/hintwise/hintwise/internal/domain"
)

// Index ranks problems by text similarity. Embeddings are cached per
// problem for the life of the index; the vocabulary is fit lazily on
// the first embed and stays frozen until an explicit Rebuild. The cache
// supports concurrent reads; writes are serialized.
type Index struct {
	mu       sync.RWMutex
	embedder *Embedder
	cache    map[uuid.UUID][]float32
	known    map[uuid.UUID]*domain.Problem
	store    *Store
	logger   *slog.Logger
}

// NewIndex creates a similarity index. The store is optional; when set,
// embeddings and the vocabulary are persisted for warm starts.
func NewIndex(embedder *Embedder, store *Store, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		embedder: embedder,
		cache:    make(map[uuid.UUID][]float32),
		known:    make(map[uuid.UUID]*domain.Problem),
		store:    store,
		logger:   logger,
	}
}

// WarmStart loads a persisted vocabulary and embedding cache. Missing
// persisted state is not an error; the index simply starts cold.
func (idx *Index) WarmStart() error {
	if idx.store == nil {
		return nil
	}

	vocab, idf, err := idx.store.LoadVocabulary()
	if err != nil {
		return fmt.Errorf("load vocabulary: %w", err)
	}
	if len(vocab) == 0 {
		return nil
	}
	if err := idx.embedder.SetVocabulary(vocab, idf); err != nil {
		return fmt.Errorf("restore vocabulary: %w", err)
	}

	embeddings, err := idx.store.LoadEmbeddings()
	if err != nil {
		return fmt.Errorf("load embeddings: %w", err)
	}

	idx.mu.Lock()
	for id, vec := range embeddings {
		idx.cache[id] = vec
	}
	idx.mu.Unlock()

	idx.logger.Info("similarity index warm start",
		"vocabulary_terms", len(vocab),
		"cached_embeddings", len(embeddings))
	return nil
}

// Embed returns the cached embedding for a problem, computing and
// caching it on first use. The first embed ever fits the vocabulary on
// all problems registered so far.
func (idx *Index) Embed(problem *domain.Problem) ([]float32, error) {
	idx.mu.RLock()
	if vec, ok := idx.cache[problem.ID]; ok {
		idx.mu.RUnlock()
		return vec, nil
	}
	idx.mu.RUnlock()

	idx.mu.Lock()
	defer idx.mu.Unlock()

	// Another request may have embedded it while we waited for the lock
	if vec, ok := idx.cache[problem.ID]; ok {
		return vec, nil
	}

	idx.known[problem.ID] = problem

	if !idx.embedder.Fitted() {
		if err := idx.fitLocked(); err != nil {
			return nil, fmt.Errorf("fit vocabulary: %w", err)
		}
	}

	vec, err := idx.embedder.Transform(problem.SearchText())
	if err != nil {
		return nil, fmt.Errorf("embed problem %s: %w", problem.ID, err)
	}
	idx.cache[problem.ID] = vec

	if idx.store != nil {
		if err := idx.store.SaveEmbedding(problem.ID, vec); err != nil {
			idx.logger.Warn("persist embedding failed", "problem_id", problem.ID, "error", err)
		}
	}
	return vec, nil
}

// Register adds a problem to the known set without embedding it, so it
// contributes to the vocabulary on the next fit or rebuild
func (idx *Index) Register(problem *domain.Problem) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.known[problem.ID] = problem
}

// Rebuild clears the embedding cache, re-fits the vocabulary on all
// known problems, and re-embeds them. This is the only way the
// vocabulary changes after the initial fit.
func (idx *Index) Rebuild() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.cache = make(map[uuid.UUID][]float32)
	idx.embedder.Reset()

	if len(idx.known) == 0 {
		return nil
	}
	if err := idx.fitLocked(); err != nil {
		return fmt.Errorf("refit vocabulary: %w", err)
	}

	for id, problem := range idx.known {
		vec, err := idx.embedder.Transform(problem.SearchText())
		if err != nil {
			idx.logger.Warn("re-embed failed, skipping problem", "problem_id", id, "error", err)
			continue
		}
		idx.cache[id] = vec
	}

	if idx.store != nil {
		vocab, idf := idx.embedder.Vocabulary()
		if err := idx.store.ReplaceAll(vocab, idf, idx.cache); err != nil {
			idx.logger.Warn("persist rebuilt index failed", "error", err)
		}
	}

	idx.logger.Info("similarity index rebuilt",
		"problems", len(idx.known),
		"embedded", len(idx.cache))
	return nil
}

// fitLocked fits the vocabulary on all known problems. Caller holds the
// write lock.
func (idx *Index) fitLocked() error {
	corpus := make([]string, 0, len(idx.known))
	for _, problem := range idx.known {
		corpus = append(corpus, problem.SearchText())
	}
	if err := idx.embedder.Fit(corpus); err != nil {
		return err
	}

	if idx.store != nil {
		vocab, idf := idx.embedder.Vocabulary()
		if err := idx.store.SaveVocabulary(vocab, idf); err != nil {
			idx.logger.Warn("persist vocabulary failed", "error", err)
		}
	}
	return nil
}

// TopKSimilar ranks candidates by cosine similarity to the target,
// descending, ties broken by candidate order. Candidates that fail to
// embed are skipped with a warning, not fatal to the lookup.
func (idx *Index) TopKSimilar(target *domain.Problem, candidates []*domain.Problem, k int) ([]domain.ScoredProblem, error) {
	targetVec, err := idx.Embed(target)
	if err != nil {
		return nil, fmt.Errorf("embed target: %w", err)
	}

	scored := make([]domain.ScoredProblem, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.ID == target.ID {
			continue
		}
		vec, err := idx.Embed(candidate)
		if err != nil {
			idx.logger.Warn("embed candidate failed, skipping",
				"problem_id", candidate.ID,
				"error", err)
			continue
		}
		scored = append(scored, domain.ScoredProblem{
			Problem: candidate,
			Score:   float64(CosineSimilarity(targetVec, vec)),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}
