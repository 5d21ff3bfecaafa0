package similarity

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := OpenStore(filepath.Join(t.TempDir(), "similarity.db"))
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_VocabularyRoundTrip(t *testing.T) {
	store := newTestStore(t)

	vocab := map[string]int{"alpha": 0, "beta": 1, "gamma": 2}
	idf := []float32{1.0, 1.5, 2.0}

	if err := store.SaveVocabulary(vocab, idf); err != nil {
		t.Fatalf("SaveVocabulary() error = %v", err)
	}

	gotVocab, gotIDF, err := store.LoadVocabulary()
	if err != nil {
		t.Fatalf("LoadVocabulary() error = %v", err)
	}
	if len(gotVocab) != 3 {
		t.Fatalf("vocabulary size = %d, want 3", len(gotVocab))
	}
	for term, i := range vocab {
		if gotVocab[term] != i {
			t.Errorf("vocab[%s] = %d, want %d", term, gotVocab[term], i)
		}
		if gotIDF[i] != idf[i] {
			t.Errorf("idf[%d] = %v, want %v", i, gotIDF[i], idf[i])
		}
	}
}

func TestStore_LoadVocabulary_Empty(t *testing.T) {
	store := newTestStore(t)

	vocab, _, err := store.LoadVocabulary()
	if err != nil {
		t.Fatalf("LoadVocabulary() error = %v", err)
	}
	if len(vocab) != 0 {
		t.Errorf("vocabulary size = %d, want 0", len(vocab))
	}
}

func TestStore_EmbeddingRoundTrip(t *testing.T) {
	store := newTestStore(t)

	id := uuid.New()
	vec := []float32{0.1, 0.2, 0.3}

	if err := store.SaveEmbedding(id, vec); err != nil {
		t.Fatalf("SaveEmbedding() error = %v", err)
	}

	// Upsert replaces
	vec2 := []float32{0.4, 0.5, 0.6}
	if err := store.SaveEmbedding(id, vec2); err != nil {
		t.Fatalf("SaveEmbedding() upsert error = %v", err)
	}

	got, err := store.LoadEmbeddings()
	if err != nil {
		t.Fatalf("LoadEmbeddings() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("embeddings = %d, want 1", len(got))
	}
	for i, v := range vec2 {
		if got[id][i] != v {
			t.Errorf("embedding[%d] = %v, want %v", i, got[id][i], v)
		}
	}
}

func TestStore_ReplaceAll(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveVocabulary(map[string]int{"old": 0}, []float32{1}); err != nil {
		t.Fatal(err)
	}
	oldID := uuid.New()
	if err := store.SaveEmbedding(oldID, []float32{1}); err != nil {
		t.Fatal(err)
	}

	newID := uuid.New()
	err := store.ReplaceAll(
		map[string]int{"new": 0, "terms": 1},
		[]float32{1.1, 1.2},
		map[uuid.UUID][]float32{newID: {0.5, 0.5}},
	)
	if err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	vocab, _, err := store.LoadVocabulary()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := vocab["old"]; ok {
		t.Error("old vocabulary should be gone")
	}
	if len(vocab) != 2 {
		t.Errorf("vocabulary size = %d, want 2", len(vocab))
	}

	embeddings, err := store.LoadEmbeddings()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := embeddings[oldID]; ok {
		t.Error("old embedding should be gone")
	}
	if _, ok := embeddings[newID]; !ok {
		t.Error("new embedding should be present")
	}
}

func TestIndex_WarmStartFromStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "similarity.db")

	store, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}

	// First index fits and persists
	idx := NewIndex(NewEmbedder(64), store, nil)
	p := newProblem("Two Sum", "array target sum")
	if _, err := idx.Embed(p); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	store.Close()

	// Second index warm-starts from the same database
	store2, err := OpenStore(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer store2.Close()

	idx2 := NewIndex(NewEmbedder(64), store2, nil)
	if err := idx2.WarmStart(); err != nil {
		t.Fatalf("WarmStart() error = %v", err)
	}
	if !idx2.embedder.Fitted() {
		t.Error("warm-started embedder should be fitted")
	}

	idx2.mu.RLock()
	_, cached := idx2.cache[p.ID]
	idx2.mu.RUnlock()
	if !cached {
		t.Error("warm-started cache should contain the persisted embedding")
	}
}
