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

// AttemptStore persists solution attempts in PostgreSQL. It also serves
// as the learner history source for similarity retrieval.
type AttemptStore struct {
	pool *pgxpool.Pool
}

// NewAttemptStore creates a new PostgreSQL attempt store
func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

// Create inserts a new attempt
func (s *AttemptStore) Create(ctx context.Context, a *domain.Attempt) error {
	var evaluation []byte
	if a.Evaluation != nil {
		var err error
		evaluation, err = json.Marshal(a.Evaluation)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO attempts (id, user_id, problem_id, code, status, evaluation, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.pool.Exec(ctx, query,
		a.ID, a.UserID, a.ProblemID, a.Code, string(a.Status),
		evaluation, a.CreatedAt, a.UpdatedAt,
	)
	return err
}

// Latest retrieves the learner's most recent attempt at a problem
func (s *AttemptStore) Latest(ctx context.Context, userID, problemID uuid.UUID) (*domain.Attempt, error) {
	query := `
		SELECT id, user_id, problem_id, code, status, evaluation, created_at, updated_at
		FROM attempts
		WHERE user_id = $1 AND problem_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanAttempt(s.pool.QueryRow(ctx, query, userID, problemID))
}

// AttemptedProblems returns the problems the learner has attempted
func (s *AttemptStore) AttemptedProblems(ctx context.Context, userID uuid.UUID) ([]*domain.Problem, error) {
	query := `
		SELECT DISTINCT p.id, p.title, p.description, p.difficulty, p.created_at, p.updated_at
		FROM problems p
		JOIN attempts a ON a.problem_id = p.id
		WHERE a.user_id = $1
	`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var problems []*domain.Problem
	for rows.Next() {
		p := &domain.Problem{}
		var difficulty string
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &difficulty, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Difficulty = domain.Difficulty(difficulty)
		problems = append(problems, p)
	}
	return problems, rows.Err()
}

// LatestSuccessfulCode returns the learner's most recent successful
// solution for a problem, or domain.ErrAttemptNotFound
func (s *AttemptStore) LatestSuccessfulCode(ctx context.Context, userID, problemID uuid.UUID) (string, error) {
	query := `
		SELECT code FROM attempts
		WHERE user_id = $1 AND problem_id = $2 AND status = $3
		ORDER BY created_at DESC
		LIMIT 1
	`
	var code string
	err := s.pool.QueryRow(ctx, query, userID, problemID, string(domain.AttemptSuccess)).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrAttemptNotFound
	}
	if err != nil {
		return "", err
	}
	return code, nil
}

// FailureReasons returns evaluation reasons from the learner's failed
// attempts at a problem, most recent first
func (s *AttemptStore) FailureReasons(ctx context.Context, userID, problemID uuid.UUID) ([]string, error) {
	query := `
		SELECT evaluation->>'reason' FROM attempts
		WHERE user_id = $1 AND problem_id = $2 AND status = $3
		      AND evaluation IS NOT NULL
		ORDER BY created_at DESC
	`
	rows, err := s.pool.Query(ctx, query, userID, problemID, string(domain.AttemptFailed))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reasons []string
	for rows.Next() {
		var reason *string
		if err := rows.Scan(&reason); err != nil {
			return nil, err
		}
		if reason != nil && *reason != "" {
			reasons = append(reasons, *reason)
		}
	}
	return reasons, rows.Err()
}

func scanAttempt(row pgx.Row) (*domain.Attempt, error) {
	a := &domain.Attempt{}
	var status string
	var evaluation []byte
	err := row.Scan(&a.ID, &a.UserID, &a.ProblemID, &a.Code, &status, &evaluation, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Status = domain.AttemptStatus(status)
	if len(evaluation) > 0 {
		a.Evaluation = &domain.AttemptEvaluation{}
		if err := json.Unmarshal(evaluation, a.Evaluation); err != nil {
			return nil, err
		}
	}
	return a, nil
}
