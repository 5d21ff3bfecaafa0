package similarity

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"sync"
)

var (
	ErrNotFitted = errors.New("embedder not fitted")
	ErrEmptyText = errors.New("text has no usable tokens")
)

// fencedCodeBlock matches ``` fenced code blocks, which would otherwise
// dominate term frequencies with identifiers
var fencedCodeBlock = regexp.MustCompile("(?s)```.*?```")

// Embedder produces TF-IDF weighted vectors over a vocabulary frozen at
// fit time. Fitting happens once; subsequent embeds only transform.
// The vocabulary is never re-fit implicitly — only Reset clears it.
type Embedder struct {
	mu          sync.RWMutex
	maxFeatures int
	vocab       map[string]int
	idf         []float32
	fitted      bool
}

// NewEmbedder creates an embedder with a capped vocabulary size
func NewEmbedder(maxFeatures int) *Embedder {
	if maxFeatures <= 0 {
		maxFeatures = 512
	}
	return &Embedder{
		maxFeatures: maxFeatures,
		vocab:       make(map[string]int),
	}
}

// Fitted reports whether a vocabulary has been fit
func (e *Embedder) Fitted() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fitted
}

// Dimension returns the vector dimension (the frozen vocabulary size)
func (e *Embedder) Dimension() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.vocab)
}

// Fit builds the vocabulary and IDF weights from a corpus. Terms are
// ranked by document frequency and capped at maxFeatures; ties are
// broken alphabetically so fitting is deterministic. Fitting twice
// without a Reset is an error — the vocabulary is frozen.
func (e *Embedder) Fit(corpus []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.fitted {
		return errors.New("vocabulary already fitted")
	}
	if len(corpus) == 0 {
		return errors.New("empty corpus")
	}

	// Document frequency per term
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]bool)
		for _, term := range tokenize(stripCodeBlocks(text)) {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}
	if len(df) == 0 {
		return errors.New("corpus has no usable tokens")
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > e.maxFeatures {
		terms = terms[:e.maxFeatures]
	}

	e.vocab = make(map[string]int, len(terms))
	e.idf = make([]float32, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		e.vocab[term] = i
		// Smoothed IDF, always positive
		e.idf[i] = float32(math.Log(n/float64(1+df[term])) + 1)
	}
	e.fitted = true
	return nil
}

// Transform embeds text using the frozen vocabulary. The result is an
// L2-normalized TF-IDF vector.
func (e *Embedder) Transform(text string) ([]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.fitted {
		return nil, ErrNotFitted
	}

	terms := tokenize(stripCodeBlocks(text))
	if len(terms) == 0 {
		return nil, ErrEmptyText
	}

	vec := make([]float32, len(e.vocab))
	for _, term := range terms {
		if i, ok := e.vocab[term]; ok {
			vec[i] += e.idf[i]
		}
	}
	normalize(vec)
	return vec, nil
}

// Reset clears the fitted vocabulary so a subsequent Fit can rebuild it
func (e *Embedder) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vocab = make(map[string]int)
	e.idf = nil
	e.fitted = false
}

// Vocabulary returns a copy of the frozen vocabulary and IDF weights
func (e *Embedder) Vocabulary() (map[string]int, []float32) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	vocab := make(map[string]int, len(e.vocab))
	for term, i := range e.vocab {
		vocab[term] = i
	}
	idf := make([]float32, len(e.idf))
	copy(idf, e.idf)
	return vocab, idf
}

// SetVocabulary installs a previously persisted vocabulary, marking the
// embedder as fitted. Used for warm starts.
func (e *Embedder) SetVocabulary(vocab map[string]int, idf []float32) error {
	if len(vocab) == 0 || len(vocab) != len(idf) {
		return fmt.Errorf("vocabulary/idf size mismatch: %d vs %d", len(vocab), len(idf))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.vocab = make(map[string]int, len(vocab))
	for term, i := range vocab {
		e.vocab[term] = i
	}
	e.idf = make([]float32, len(idf))
	copy(e.idf, idf)
	e.fitted = true
	return nil
}

// CosineSimilarity computes cosine similarity between two vectors
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	denom := float32(math.Sqrt(float64(normA)) * math.Sqrt(float64(normB)))
	if denom == 0 {
		return 0
	}
	return dot / denom
}

// EncodeEmbedding serializes a float32 vector to bytes for BLOB storage
func EncodeEmbedding(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// DecodeEmbedding deserializes bytes to a float32 vector
func DecodeEmbedding(data []byte) []float32 {
	if len(data)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec
}

func stripCodeBlocks(text string) string {
	return fencedCodeBlock.ReplaceAllString(text, " ")
}

// normalize L2-normalizes a vector in place
func normalize(vec []float32) {
	var sum float32
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(float64(sum)))
	for i := range vec {
		vec[i] /= norm
	}
}

// tokenize splits text into lowercase word tokens
func tokenize(text string) []string {
	var words []string
	word := make([]byte, 0, 32)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if isAlphaNum(c) {
			if c >= 'A' && c <= 'Z' {
				c += 32 // lowercase
			}
			word = append(word, c)
		} else if len(word) > 0 {
			words = append(words, string(word))
			word = word[:0]
		}
	}
	if len(word) > 0 {
		words = append(words, string(word))
	}
	return words
}

func isAlphaNum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
