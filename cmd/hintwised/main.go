package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/hintwise/hintwise/internal/analytics"
	"github.com/hintwise/hintwise/internal/api"
	"github.com/hintwise/hintwise/internal/api/handlers"
	"github.com/hintwise/hintwise/internal/config"
	"github.com/hintwise/hintwise/internal/domain"
	"github.com/hintwise/hintwise/internal/hints"
	"github.com/hintwise/hintwise/internal/llm"
	"github.com/hintwise/hintwise/internal/problems"
	"github.com/hintwise/hintwise/internal/progress"
	"github.com/hintwise/hintwise/internal/queue"
	"github.com/hintwise/hintwise/internal/similarity"
	"github.com/hintwise/hintwise/internal/storage/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	problemStore := postgres.NewProblemStore(pool)
	progressStore := postgres.NewProgressStore(pool)
	attemptStore := postgres.NewAttemptStore(pool)
	hintStore := postgres.NewHintStore(pool)
	analyticsStore := postgres.NewAnalyticsStore(pool)

	// Similarity index with persisted cache. A missing or broken cache
	// file is not fatal: the index starts cold and refits on demand.
	var simStore *similarity.Store
	if s, err := similarity.OpenStore(cfg.SimilarityCachePath); err != nil {
		logger.Warn("similarity cache unavailable, starting cold", "path", cfg.SimilarityCachePath, "error", err)
	} else {
		simStore = s
		defer simStore.Close()
	}

	index := similarity.NewIndex(similarity.NewEmbedder(cfg.EmbedDimensions), simStore, logger)
	if err := index.WarmStart(); err != nil {
		logger.Warn("similarity warm start failed", "error", err)
	}

	// Problem pack
	if _, err := problems.Sync(ctx, problems.NewLoader(cfg.ProblemsPath), problemStore, index, logger); err != nil {
		logger.Warn("problem pack sync failed", "path", cfg.ProblemsPath, "error", err)
	}

	// LLM provider
	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}
	logger.Info("llm provider ready", "provider", provider.Name())

	// Message broker is optional: without it, hint delivery events are
	// simply not published.
	var publisher handlers.EventPublisher
	if conn, err := queue.NewConnection(cfg.RabbitMQURL); err != nil {
		logger.Warn("rabbitmq unavailable, delivery events disabled", "error", err)
	} else {
		defer conn.Close()
		publisher = queue.NewProducer(conn)
	}

	policy := domain.NewHintPolicy(domain.PolicyConfig{
		FailureThreshold: cfg.FailureThreshold,
		StuckTimeout:     cfg.StuckTimeout,
		MaxLevel:         domain.HintLevel(cfg.MaxHintLevel),
	})
	contextProvider := &boundedContext{
		builder: similarity.NewContextBuilder(index, attemptStore, problemStore, logger),
		k:       cfg.ContextK,
	}
	orchestrator := hints.NewService(provider, policy, contextProvider, logger)
	tracker := progress.NewTracker(progressStore)

	router := api.NewRouter(api.Deps{
		Hints:     handlers.NewHintHandler(problemStore, tracker, attemptStore, hintStore, orchestrator, publisher, logger),
		Problems:  handlers.NewProblemHandler(problemStore, logger),
		Analytics: handlers.NewAnalyticsHandler(analytics.NewService(analyticsStore, logger), logger),
		DB:        pool,
		Index:     index,
		Debug:     cfg.Debug,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("daemon stopped")
	return nil
}

func buildProvider(cfg *config.Config) (llm.Provider, error) {
	var base llm.Provider
	switch cfg.LLMProvider {
	case "claude":
		base = llm.NewClaudeProvider(llm.ClaudeConfig{
			APIKey: cfg.LLMAPIKey,
			Model:  cfg.LLMModel,
		})
	case "openai":
		base = llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey: cfg.LLMAPIKey,
			Model:  cfg.LLMModel,
		})
	case "ollama":
		base = llm.NewOllamaProvider(llm.OllamaConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.LLMModel,
		})
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
	return llm.NewResilientProvider(base, llm.DefaultResilientConfig()), nil
}

// boundedContext pins the retrieval depth from configuration
type boundedContext struct {
	builder *similarity.ContextBuilder
	k       int
}

func (b *boundedContext) BuildContext(ctx context.Context, userID, problemID uuid.UUID, _ int) (*domain.SimilarityContext, error) {
	return b.builder.BuildContext(ctx, userID, problemID, b.k)
}
