package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hintwise/hintwise/internal/analytics"
	"github.com/hintwise/hintwise/internal/domain"
)

// AnalyticsStore reads learner history aggregates for pattern analysis.
// It implements analytics.Source.
type AnalyticsStore struct {
	pool *pgxpool.Pool
}

// NewAnalyticsStore creates a new PostgreSQL analytics store
func NewAnalyticsStore(pool *pgxpool.Pool) *AnalyticsStore {
	return &AnalyticsStore{pool: pool}
}

// UserAttempts returns the learner's attempts ordered oldest first
func (s *AnalyticsStore) UserAttempts(ctx context.Context, userID uuid.UUID) ([]analytics.AttemptRecord, error) {
	query := `
		SELECT a.problem_id, a.status, p.difficulty, a.created_at
		FROM attempts a
		JOIN problems p ON p.id = a.problem_id
		WHERE a.user_id = $1
		ORDER BY a.created_at
	`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []analytics.AttemptRecord
	for rows.Next() {
		var r analytics.AttemptRecord
		var status, difficulty string
		if err := rows.Scan(&r.ProblemID, &status, &difficulty, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Success = domain.AttemptStatus(status) == domain.AttemptSuccess
		r.Difficulty = domain.Difficulty(difficulty)
		records = append(records, r)
	}
	return records, rows.Err()
}

// HintLevelCounts returns how many hints the learner received per level
func (s *AnalyticsStore) HintLevelCounts(ctx context.Context, userID uuid.UUID) (map[domain.HintLevel]int, error) {
	query := `
		SELECT h.level, COUNT(*)
		FROM hint_deliveries d
		JOIN hints h ON h.id = d.hint_id
		WHERE d.user_id = $1
		GROUP BY h.level
	`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[domain.HintLevel]int{}
	for rows.Next() {
		var level, count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, err
		}
		counts[domain.HintLevel(level)] = count
	}
	return counts, rows.Err()
}
