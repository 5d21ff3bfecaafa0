package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hintwise/hintwise/internal/domain"
)

// HintStore persists generated hints, their deliveries to learners,
// and their quality evaluations in PostgreSQL.
type HintStore struct {
	pool *pgxpool.Pool
}

// NewHintStore creates a new PostgreSQL hint store
func NewHintStore(pool *pgxpool.Pool) *HintStore {
	return &HintStore{pool: pool}
}

// CreateHint inserts a generated hint
func (s *HintStore) CreateHint(ctx context.Context, h *domain.Hint) error {
	query := `
		INSERT INTO hints (id, problem_id, content, level, hint_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.pool.Exec(ctx, query,
		h.ID, h.ProblemID, h.Content, int(h.Level), string(h.Type),
		h.CreatedAt, h.UpdatedAt,
	)
	return err
}

// CreateDelivery records a hint being shown to a learner
func (s *HintStore) CreateDelivery(ctx context.Context, d *domain.HintDelivery) error {
	var attemptID *uuid.UUID
	if d.AttemptID != uuid.Nil {
		attemptID = &d.AttemptID
	}

	query := `
		INSERT INTO hint_deliveries (id, hint_id, user_id, attempt_id,
			auto_triggered, feedback, rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.pool.Exec(ctx, query,
		d.ID, d.HintID, d.UserID, attemptID,
		d.AutoTriggered, d.Feedback, d.Rating, d.CreatedAt, d.UpdatedAt,
	)
	return err
}

// CreateEvaluation records quality scores for a hint
func (s *HintStore) CreateEvaluation(ctx context.Context, e *domain.HintEvaluation) error {
	scores, err := json.Marshal(e.Scores)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO hint_evaluations (id, hint_id, scores, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err = s.pool.Exec(ctx, query, e.ID, e.HintID, scores, e.CreatedAt)
	return err
}

// GetHint retrieves a hint by ID
func (s *HintStore) GetHint(ctx context.Context, id uuid.UUID) (*domain.Hint, error) {
	query := `
		SELECT id, problem_id, content, level, hint_type, created_at, updated_at
		FROM hints WHERE id = $1
	`
	h := &domain.Hint{}
	var level int
	var hintType string
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&h.ID, &h.ProblemID, &h.Content, &level, &hintType, &h.CreatedAt, &h.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrHintNotFound
	}
	if err != nil {
		return nil, err
	}
	h.Level = domain.HintLevel(level)
	h.Type = domain.HintType(hintType)
	return h, nil
}

// LastDeliveredHints returns the contents of the last n hints delivered
// to a learner for a problem, most recent first
func (s *HintStore) LastDeliveredHints(ctx context.Context, userID, problemID uuid.UUID, n int) ([]string, error) {
	query := `
		SELECT h.content
		FROM hint_deliveries d
		JOIN hints h ON h.id = d.hint_id
		WHERE d.user_id = $1 AND h.problem_id = $2
		ORDER BY d.created_at DESC
		LIMIT $3
	`
	rows, err := s.pool.Query(ctx, query, userID, problemID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contents []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, err
		}
		contents = append(contents, content)
	}
	return contents, rows.Err()
}

// UpdateDeliveryFeedback attaches learner feedback to a delivery
func (s *HintStore) UpdateDeliveryFeedback(ctx context.Context, deliveryID uuid.UUID, feedback string, rating *int) error {
	query := `
		UPDATE hint_deliveries
		SET feedback = $2, rating = $3, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query, deliveryID, feedback, rating)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDeliveryNotFound
	}
	return nil
}
