package similarity

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store persists the fitted vocabulary and embedding cache in SQLite so
// the index can warm-start across restarts. Vocabulary and embeddings
// are only meaningful together: ReplaceAll rewrites both atomically.
type Store struct {
	db *sql.DB
}

const storeSchema = `
CREATE TABLE IF NOT EXISTS similarity_vocab (
	term TEXT PRIMARY KEY,
	idx  INTEGER NOT NULL,
	idf  REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS similarity_embeddings (
	problem_id TEXT PRIMARY KEY,
	embedding  BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// OpenStore opens (and initializes) the embedding cache database
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open similarity cache: %w", err)
	}
	if _, err := db.Exec(storeSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init similarity cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveVocabulary persists the fitted vocabulary and IDF weights
func (s *Store) SaveVocabulary(vocab map[string]int, idf []float32) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM similarity_vocab"); err != nil {
		return fmt.Errorf("clear vocabulary: %w", err)
	}
	for term, i := range vocab {
		if _, err := tx.Exec(
			"INSERT INTO similarity_vocab (term, idx, idf) VALUES (?, ?, ?)",
			term, i, idf[i],
		); err != nil {
			return fmt.Errorf("insert term: %w", err)
		}
	}
	return tx.Commit()
}

// LoadVocabulary returns the persisted vocabulary, empty when none exists
func (s *Store) LoadVocabulary() (map[string]int, []float32, error) {
	rows, err := s.db.Query("SELECT term, idx, idf FROM similarity_vocab ORDER BY idx")
	if err != nil {
		return nil, nil, fmt.Errorf("query vocabulary: %w", err)
	}
	defer rows.Close()

	vocab := make(map[string]int)
	var idf []float32
	for rows.Next() {
		var term string
		var i int
		var weight float32
		if err := rows.Scan(&term, &i, &weight); err != nil {
			return nil, nil, fmt.Errorf("scan term: %w", err)
		}
		vocab[term] = i
		idf = append(idf, weight)
	}
	return vocab, idf, rows.Err()
}

// SaveEmbedding upserts a problem embedding
func (s *Store) SaveEmbedding(problemID uuid.UUID, vec []float32) error {
	_, err := s.db.Exec(`
		INSERT INTO similarity_embeddings (problem_id, embedding, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(problem_id) DO UPDATE SET
			embedding=excluded.embedding, updated_at=excluded.updated_at`,
		problemID.String(), EncodeEmbedding(vec),
	)
	if err != nil {
		return fmt.Errorf("upsert embedding: %w", err)
	}
	return nil
}

// LoadEmbeddings returns all persisted embeddings keyed by problem ID.
// Rows that fail to decode are skipped.
func (s *Store) LoadEmbeddings() (map[uuid.UUID][]float32, error) {
	rows, err := s.db.Query("SELECT problem_id, embedding FROM similarity_embeddings")
	if err != nil {
		return nil, fmt.Errorf("query embeddings: %w", err)
	}
	defer rows.Close()

	embeddings := make(map[uuid.UUID][]float32)
	for rows.Next() {
		var idStr string
		var blob []byte
		if err := rows.Scan(&idStr, &blob); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			continue
		}
		vec := DecodeEmbedding(blob)
		if vec == nil {
			continue
		}
		embeddings[id] = vec
	}
	return embeddings, rows.Err()
}

// ReplaceAll rewrites the vocabulary and all embeddings in one
// transaction, used after a rebuild
func (s *Store) ReplaceAll(vocab map[string]int, idf []float32, embeddings map[uuid.UUID][]float32) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM similarity_vocab"); err != nil {
		return fmt.Errorf("clear vocabulary: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM similarity_embeddings"); err != nil {
		return fmt.Errorf("clear embeddings: %w", err)
	}

	for term, i := range vocab {
		if _, err := tx.Exec(
			"INSERT INTO similarity_vocab (term, idx, idf) VALUES (?, ?, ?)",
			term, i, idf[i],
		); err != nil {
			return fmt.Errorf("insert term: %w", err)
		}
	}
	for id, vec := range embeddings {
		if _, err := tx.Exec(`
			INSERT INTO similarity_embeddings (problem_id, embedding, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)`,
			id.String(), EncodeEmbedding(vec),
		); err != nil {
			return fmt.Errorf("insert embedding: %w", err)
		}
	}
	return tx.Commit()
}
