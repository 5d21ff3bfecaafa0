package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hintwise/hintwise/internal/domain"
)

// ProblemStore persists coding problems in PostgreSQL
type ProblemStore struct {
	pool *pgxpool.Pool
}

// NewProblemStore creates a new PostgreSQL problem store
func NewProblemStore(pool *pgxpool.Pool) *ProblemStore {
	return &ProblemStore{pool: pool}
}

// Create inserts a new problem
func (s *ProblemStore) Create(ctx context.Context, p *domain.Problem) error {
	query := `
		INSERT INTO problems (id, title, description, difficulty, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.pool.Exec(ctx, query,
		p.ID, p.Title, p.Description, string(p.Difficulty), p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// Upsert inserts a problem or refreshes an existing one by title. The
// stored ID wins on conflict so references stay stable across reloads
// of the problem pack.
func (s *ProblemStore) Upsert(ctx context.Context, p *domain.Problem) (uuid.UUID, error) {
	query := `
		INSERT INTO problems (id, title, description, difficulty, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (title) DO UPDATE
		SET description = EXCLUDED.description,
		    difficulty  = EXCLUDED.difficulty,
		    updated_at  = EXCLUDED.updated_at
		RETURNING id
	`
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	var id uuid.UUID
	err := s.pool.QueryRow(ctx, query,
		p.ID, p.Title, p.Description, string(p.Difficulty), p.CreatedAt, p.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, err
	}
	p.ID = id
	return id, nil
}

// GetProblem retrieves a problem by ID
func (s *ProblemStore) GetProblem(ctx context.Context, id uuid.UUID) (*domain.Problem, error) {
	query := `
		SELECT id, title, description, difficulty, created_at, updated_at
		FROM problems WHERE id = $1
	`
	return s.scanProblem(s.pool.QueryRow(ctx, query, id))
}

// GetByTitle retrieves a problem by its unique title
func (s *ProblemStore) GetByTitle(ctx context.Context, title string) (*domain.Problem, error) {
	query := `
		SELECT id, title, description, difficulty, created_at, updated_at
		FROM problems WHERE title = $1
	`
	return s.scanProblem(s.pool.QueryRow(ctx, query, title))
}

// List retrieves all problems ordered by title
func (s *ProblemStore) List(ctx context.Context) ([]*domain.Problem, error) {
	query := `
		SELECT id, title, description, difficulty, created_at, updated_at
		FROM problems ORDER BY title
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var problems []*domain.Problem
	for rows.Next() {
		p, err := s.scanProblem(rows)
		if err != nil {
			return nil, err
		}
		problems = append(problems, p)
	}
	return problems, rows.Err()
}

func (s *ProblemStore) scanProblem(row pgx.Row) (*domain.Problem, error) {
	p := &domain.Problem{}
	var difficulty string
	err := row.Scan(&p.ID, &p.Title, &p.Description, &difficulty, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProblemNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Difficulty = domain.Difficulty(difficulty)
	return p, nil
}
