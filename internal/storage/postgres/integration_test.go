//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/hintwise/hintwise/internal/domain"
	"github.com/hintwise/hintwise/internal/storage/postgres"
)

// setupPostgres creates a PostgreSQL container, connects and migrates
func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("hintwise"),
		tcpostgres.WithUsername("hintwise"),
		tcpostgres.WithPassword("hintwise"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := postgres.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := postgres.Migrate(ctx, pool); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return pool
}

func seedProblem(t *testing.T, store *postgres.ProblemStore, title string) *domain.Problem {
	t.Helper()
	p := &domain.Problem{
		ID:          uuid.New(),
		Title:       title,
		Description: "description of " + title,
		Difficulty:  domain.DifficultyEasy,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := store.Create(context.Background(), p); err != nil {
		t.Fatalf("failed to seed problem: %v", err)
	}
	return p
}

func TestIntegration_MigrateIsIdempotent(t *testing.T) {
	pool := setupPostgres(t)

	if err := postgres.Migrate(context.Background(), pool); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
}

func TestIntegration_ProblemStore(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	store := postgres.NewProblemStore(pool)

	p := seedProblem(t, store, "Two Sum")

	got, err := store.GetProblem(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProblem() error = %v", err)
	}
	if got.Title != "Two Sum" || got.Difficulty != domain.DifficultyEasy {
		t.Errorf("GetProblem() = %+v", got)
	}

	if _, err := store.GetProblem(ctx, uuid.New()); err != domain.ErrProblemNotFound {
		t.Errorf("GetProblem() unknown error = %v, want ErrProblemNotFound", err)
	}

	// Upsert on the same title keeps the stored ID
	update := &domain.Problem{
		ID:          uuid.New(),
		Title:       "Two Sum",
		Description: "updated description",
		Difficulty:  domain.DifficultyMedium,
	}
	id, err := store.Upsert(ctx, update)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if id != p.ID {
		t.Errorf("Upsert() id = %v, want original %v", id, p.ID)
	}

	got, err = store.GetByTitle(ctx, "Two Sum")
	if err != nil {
		t.Fatalf("GetByTitle() error = %v", err)
	}
	if got.Description != "updated description" {
		t.Errorf("Upsert() did not refresh description: %q", got.Description)
	}
}

func TestIntegration_ProgressStore(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()

	problems := postgres.NewProblemStore(pool)
	store := postgres.NewProgressStore(pool)

	p := seedProblem(t, problems, "Progress Problem")
	userID := uuid.New()

	if _, err := store.Get(ctx, userID, p.ID); err != domain.ErrProgressNotFound {
		t.Fatalf("Get() fresh error = %v, want ErrProgressNotFound", err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	state := &domain.ProgressState{
		UserID:              userID,
		ProblemID:           p.ID,
		AttemptsCount:       2,
		FailedAttemptsCount: 1,
		CurrentHintLevel:    2,
		LastActivity:        now,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get(ctx, userID, p.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.AttemptsCount != 2 || got.CurrentHintLevel != 2 {
		t.Errorf("Get() = %+v", got)
	}

	// Upsert path
	state.AttemptsCount = 3
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save() upsert error = %v", err)
	}

	// Locked read-modify-write
	updated, err := store.Update(ctx, userID, p.ID, func(s *domain.ProgressState) error {
		s.FailedAttemptsCount++
		s.UpdatedAt = time.Now()
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.FailedAttemptsCount != 2 {
		t.Errorf("Update() FailedAttemptsCount = %d, want 2", updated.FailedAttemptsCount)
	}
}

func TestIntegration_AttemptStoreHistory(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()

	problems := postgres.NewProblemStore(pool)
	store := postgres.NewAttemptStore(pool)

	p := seedProblem(t, problems, "History Problem")
	userID := uuid.New()
	base := time.Now().Add(-time.Hour)

	failed := &domain.Attempt{
		ID: uuid.New(), UserID: userID, ProblemID: p.ID,
		Code: "wrong answer", Status: domain.AttemptFailed,
		Evaluation: &domain.AttemptEvaluation{Success: false, Reason: "off by one"},
		CreatedAt:  base, UpdatedAt: base,
	}
	succeeded := &domain.Attempt{
		ID: uuid.New(), UserID: userID, ProblemID: p.ID,
		Code: "right answer", Status: domain.AttemptSuccess,
		Evaluation: &domain.AttemptEvaluation{Success: true, Reason: "passes"},
		CreatedAt:  base.Add(time.Minute), UpdatedAt: base.Add(time.Minute),
	}
	for _, a := range []*domain.Attempt{failed, succeeded} {
		if err := store.Create(ctx, a); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	latest, err := store.Latest(ctx, userID, p.ID)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.ID != succeeded.ID {
		t.Errorf("Latest() = %v, want most recent attempt", latest.ID)
	}
	if latest.Evaluation == nil || latest.Evaluation.Reason != "passes" {
		t.Errorf("Latest() evaluation = %+v", latest.Evaluation)
	}

	attempted, err := store.AttemptedProblems(ctx, userID)
	if err != nil {
		t.Fatalf("AttemptedProblems() error = %v", err)
	}
	if len(attempted) != 1 || attempted[0].ID != p.ID {
		t.Errorf("AttemptedProblems() = %+v", attempted)
	}

	code, err := store.LatestSuccessfulCode(ctx, userID, p.ID)
	if err != nil {
		t.Fatalf("LatestSuccessfulCode() error = %v", err)
	}
	if code != "right answer" {
		t.Errorf("LatestSuccessfulCode() = %q", code)
	}
	if _, err := store.LatestSuccessfulCode(ctx, uuid.New(), p.ID); err != domain.ErrAttemptNotFound {
		t.Errorf("LatestSuccessfulCode() unknown user error = %v, want ErrAttemptNotFound", err)
	}

	reasons, err := store.FailureReasons(ctx, userID, p.ID)
	if err != nil {
		t.Fatalf("FailureReasons() error = %v", err)
	}
	if len(reasons) != 1 || reasons[0] != "off by one" {
		t.Errorf("FailureReasons() = %v", reasons)
	}
}

func TestIntegration_HintStore(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()

	problems := postgres.NewProblemStore(pool)
	store := postgres.NewHintStore(pool)

	p := seedProblem(t, problems, "Hint Problem")
	userID := uuid.New()
	base := time.Now().Add(-time.Hour)

	var lastDelivery uuid.UUID
	for i, content := range []string{"first hint", "second hint", "third hint"} {
		hint := &domain.Hint{
			ID: uuid.New(), ProblemID: p.ID, Content: content,
			Level: domain.HintLevel(i + 1), Type: domain.TypeConceptual,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.CreateHint(ctx, hint); err != nil {
			t.Fatalf("CreateHint() error = %v", err)
		}

		delivery := &domain.HintDelivery{
			ID: uuid.New(), HintID: hint.ID, UserID: userID,
			CreatedAt: hint.CreatedAt, UpdatedAt: hint.CreatedAt,
		}
		if err := store.CreateDelivery(ctx, delivery); err != nil {
			t.Fatalf("CreateDelivery() error = %v", err)
		}
		lastDelivery = delivery.ID

		evaluation := &domain.HintEvaluation{
			ID: uuid.New(), HintID: hint.ID,
			Scores:    map[string]float64{domain.ScoreSafety: 0.9},
			CreatedAt: hint.CreatedAt,
		}
		if err := store.CreateEvaluation(ctx, evaluation); err != nil {
			t.Fatalf("CreateEvaluation() error = %v", err)
		}
	}

	contents, err := store.LastDeliveredHints(ctx, userID, p.ID, 2)
	if err != nil {
		t.Fatalf("LastDeliveredHints() error = %v", err)
	}
	if len(contents) != 2 || contents[0] != "third hint" || contents[1] != "second hint" {
		t.Errorf("LastDeliveredHints() = %v, want most recent first", contents)
	}

	rating := 4
	if err := store.UpdateDeliveryFeedback(ctx, lastDelivery, "helpful", &rating); err != nil {
		t.Fatalf("UpdateDeliveryFeedback() error = %v", err)
	}
	if err := store.UpdateDeliveryFeedback(ctx, uuid.New(), "x", nil); err != domain.ErrDeliveryNotFound {
		t.Errorf("UpdateDeliveryFeedback() unknown error = %v, want ErrDeliveryNotFound", err)
	}
}

func TestIntegration_AnalyticsStore(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()

	problems := postgres.NewProblemStore(pool)
	attempts := postgres.NewAttemptStore(pool)
	store := postgres.NewAnalyticsStore(pool)

	p := seedProblem(t, problems, "Analytics Problem")
	userID := uuid.New()
	base := time.Now().Add(-time.Hour)

	for i, status := range []domain.AttemptStatus{domain.AttemptFailed, domain.AttemptSuccess} {
		a := &domain.Attempt{
			ID: uuid.New(), UserID: userID, ProblemID: p.ID,
			Code: "code", Status: status,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := attempts.Create(ctx, a); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	records, err := store.UserAttempts(ctx, userID)
	if err != nil {
		t.Fatalf("UserAttempts() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("UserAttempts() = %d records, want 2", len(records))
	}
	if records[0].Success || !records[1].Success {
		t.Errorf("UserAttempts() order or status wrong: %+v", records)
	}
	if records[0].Difficulty != domain.DifficultyEasy {
		t.Errorf("UserAttempts() difficulty = %s", records[0].Difficulty)
	}

	counts, err := store.HintLevelCounts(ctx, userID)
	if err != nil {
		t.Fatalf("HintLevelCounts() error = %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("HintLevelCounts() = %v, want empty", counts)
	}
}
