package hints

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hintwise/hintwise/internal/domain"
	"github.com/hintwise/hintwise/internal/llm"
)

// Per-stage sampling temperatures. Evaluation stages run cold for
// stable structured output; generation runs warmer for varied hints.
const (
	tempAttemptEvaluation = 0.3
	tempHintGeneration    = 0.7
	tempHintEvaluation    = 0.2
	tempAutoTrigger       = 0.4
)

// previousHintsWindow bounds how many recent hints feed the pipeline
const previousHintsWindow = 5

// ContextProvider retrieves similarity context for hint generation.
// A nil provider disables retrieval-augmented generation.
type ContextProvider interface {
	BuildContext(ctx context.Context, userID, problemID uuid.UUID, k int) (*domain.SimilarityContext, error)
}

// Service is the hint orchestrator. It sequences the four LLM-backed
// pipeline stages, applies the escalation policy, enforces the
// duplicate-hint guard, and always returns a complete result: stage
// failures substitute static fallbacks instead of propagating.
type Service struct {
	provider llm.Provider
	policy   *domain.HintPolicy
	parser   *Parser
	prompter *Prompter
	context  ContextProvider
	logger   *slog.Logger
}

// NewService creates a hint orchestration service
func NewService(provider llm.Provider, policy *domain.HintPolicy, contextProvider ContextProvider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider: provider,
		policy:   policy,
		parser:   NewParser(),
		prompter: NewPrompter(),
		context:  contextProvider,
		logger:   logger,
	}
}

// Request is the input snapshot for one pipeline run. The orchestrator
// performs no persistence; the caller resolves problem and progress
// records before the call and writes results after it.
type Request struct {
	UserID             uuid.UUID
	ProblemID          uuid.UUID
	ProblemDescription string
	UserCode           string
	AttemptsCount      int
	FailedAttempts     int
	CurrentHintLevel   domain.HintLevel
	Elapsed            time.Duration
	// PreviousHints is ordered most-recent-first
	PreviousHints []string
}

// Process runs the full pipeline: attempt evaluation, level/type
// decision, hint generation with optional retrieval context, the
// duplicate guard, and hint evaluation.
func (s *Service) Process(ctx context.Context, req Request) *domain.HintResult {
	previousHints := req.PreviousHints
	if len(previousHints) > previousHintsWindow {
		previousHints = previousHints[:previousHintsWindow]
	}

	result := &domain.HintResult{}

	// Stage 1: evaluate the attempt
	eval, degraded := s.evaluateAttempt(ctx, req)
	result.AttemptEvaluation = eval
	result.Degraded = degraded

	// Stage 2: decide level and type
	decision := s.policy.Decide(req.CurrentHintLevel, req.FailedAttempts, req.Elapsed, eval)
	result.Level = decision.Level
	result.Type = decision.Type

	s.logger.Info("hint level decided",
		"user_id", req.UserID,
		"problem_id", req.ProblemID,
		"current_level", req.CurrentHintLevel,
		"level", decision.Level,
		"type", decision.Type)

	// Stage 3: generate the hint, with retrieval context when available
	simCtx := s.buildContext(ctx, req)
	hint, generated := s.generateHint(ctx, req, previousHints, decision, simCtx)
	if !generated {
		result.Degraded = true
	}

	// Duplicate guard: regenerate exactly once when the new hint matches
	// the most recent previous hint after trimming
	if generated && isDuplicate(hint, previousHints) {
		s.logger.Info("duplicate hint generated, regenerating",
			"user_id", req.UserID,
			"problem_id", req.ProblemID)

		retry, retried := s.generateHint(ctx, req, previousHints, decision, simCtx)
		if retried {
			hint = retry
		}
		if isDuplicate(hint, previousHints) {
			s.logger.Warn("hint still duplicates previous hint, accepting",
				"user_id", req.UserID,
				"problem_id", req.ProblemID)
		}
	}
	result.HintText = hint

	// Stage 4: score the hint
	scores, scored := s.evaluateHint(ctx, req, previousHints, decision, hint)
	result.HintScores = scores
	if !scored {
		result.Degraded = true
	}

	return result
}

func (s *Service) evaluateAttempt(ctx context.Context, req Request) (domain.AttemptEvaluation, bool) {
	resp, err := s.provider.Complete(ctx, &llm.Request{
		Prompt:      s.prompter.AttemptEvaluation(req.ProblemDescription, req.UserCode),
		Temperature: tempAttemptEvaluation,
	})
	if err != nil {
		s.logger.Warn("attempt evaluation failed, using fallback",
			"user_id", req.UserID,
			"problem_id", req.ProblemID,
			"error", err)
		return fallbackEvaluation(), true
	}
	return s.parser.ParseAttemptEvaluation(resp.Content), false
}

// buildContext fetches similarity context; failures disable retrieval
// for this request rather than failing the pipeline
func (s *Service) buildContext(ctx context.Context, req Request) *domain.SimilarityContext {
	if s.context == nil {
		return nil
	}

	simCtx, err := s.context.BuildContext(ctx, req.UserID, req.ProblemID, 3)
	if err != nil {
		s.logger.Warn("similarity context lookup failed, generating without context",
			"user_id", req.UserID,
			"problem_id", req.ProblemID,
			"error", err)
		return nil
	}
	return simCtx
}

func (s *Service) generateHint(ctx context.Context, req Request, previousHints []string, decision domain.HintDecision, simCtx *domain.SimilarityContext) (string, bool) {
	prompt := s.prompter.HintGeneration(GenerationInput{
		ProblemDescription: req.ProblemDescription,
		UserCode:           req.UserCode,
		AttemptsCount:      req.AttemptsCount,
		FailedAttempts:     req.FailedAttempts,
		ElapsedSeconds:     int(req.Elapsed.Seconds()),
		PreviousHints:      previousHints,
		Level:              decision.Level,
		Type:               decision.Type,
		Context:            simCtx,
	})

	resp, err := s.provider.Complete(ctx, &llm.Request{
		Prompt:      prompt,
		Temperature: tempHintGeneration,
	})
	if err != nil {
		s.logger.Warn("hint generation failed, using static hint",
			"user_id", req.UserID,
			"problem_id", req.ProblemID,
			"error", err)
		return defaultHint(decision.Level, decision.Type), false
	}
	return strings.TrimSpace(resp.Content), true
}

func (s *Service) evaluateHint(ctx context.Context, req Request, previousHints []string, decision domain.HintDecision, hint string) (map[string]float64, bool) {
	prompt := s.prompter.HintEvaluation(EvaluationInput{
		ProblemDescription: req.ProblemDescription,
		UserCode:           req.UserCode,
		AttemptsCount:      req.AttemptsCount,
		FailedAttempts:     req.FailedAttempts,
		Level:              decision.Level,
		ElapsedSeconds:     int(req.Elapsed.Seconds()),
		PreviousHints:      previousHints,
		HintContent:        hint,
	})

	resp, err := s.provider.Complete(ctx, &llm.Request{
		Prompt:      prompt,
		Temperature: tempHintEvaluation,
	})
	if err != nil {
		s.logger.Warn("hint evaluation failed, using fallback scores",
			"user_id", req.UserID,
			"problem_id", req.ProblemID,
			"error", err)
		return fallbackScores(), false
	}
	return s.parser.ParseScoreBlock(resp.Content, domain.RequiredScoreKeys()), true
}

// isDuplicate reports whether the hint exactly matches the most recent
// previous hint after trimming whitespace. Near-duplicates that differ
// in punctuation or reflow are intentionally not caught.
func isDuplicate(hint string, previousHints []string) bool {
	if len(previousHints) == 0 {
		return false
	}
	return strings.TrimSpace(hint) == strings.TrimSpace(previousHints[0])
}

// ProcessTriggered generates and scores a hint at a level and type that
// an auto-trigger decision already fixed. There is no fresh attempt to
// evaluate and no policy decision to make; the pipeline runs generation,
// the duplicate guard and scoring only.
func (s *Service) ProcessTriggered(ctx context.Context, req Request, decision TriggerDecision) *domain.HintResult {
	previousHints := req.PreviousHints
	if len(previousHints) > previousHintsWindow {
		previousHints = previousHints[:previousHintsWindow]
	}

	fixed := domain.HintDecision{Level: decision.Level, Type: decision.Type}
	result := &domain.HintResult{
		Level: fixed.Level,
		Type:  fixed.Type,
	}

	simCtx := s.buildContext(ctx, req)
	hint, generated := s.generateHint(ctx, req, previousHints, fixed, simCtx)
	if !generated {
		result.Degraded = true
	}

	if generated && isDuplicate(hint, previousHints) {
		s.logger.Info("duplicate hint generated, regenerating",
			"user_id", req.UserID,
			"problem_id", req.ProblemID)

		retry, retried := s.generateHint(ctx, req, previousHints, fixed, simCtx)
		if retried {
			hint = retry
		}
	}
	result.HintText = hint

	scores, scored := s.evaluateHint(ctx, req, previousHints, fixed, hint)
	result.HintScores = scores
	if !scored {
		result.Degraded = true
	}

	return result
}

// TriggerRequest is the input for an auto-trigger check
type TriggerRequest struct {
	UserID             uuid.UUID
	ProblemID          uuid.UUID
	ProblemDescription string
	UserCode           string
	AttemptsCount      int
	FailedAttempts     int
	CurrentHintLevel   domain.HintLevel
	Elapsed            time.Duration
	LastAttemptStatus  string
	LastAttemptError   string
}

// CheckAutoTrigger decides whether to offer an unsolicited hint. It
// runs a single LLM call; on failure it falls back to a struggle-signal
// heuristic instead of erroring.
func (s *Service) CheckAutoTrigger(ctx context.Context, req TriggerRequest) TriggerDecision {
	prompt := s.prompter.AutoTrigger(TriggerInput{
		ProblemDescription: req.ProblemDescription,
		UserCode:           req.UserCode,
		AttemptsCount:      req.AttemptsCount,
		FailedAttempts:     req.FailedAttempts,
		CurrentLevel:       req.CurrentHintLevel,
		ElapsedSeconds:     int(req.Elapsed.Seconds()),
		LastAttemptStatus:  req.LastAttemptStatus,
		LastAttemptError:   req.LastAttemptError,
	})

	resp, err := s.provider.Complete(ctx, &llm.Request{
		Prompt:      prompt,
		Temperature: tempAutoTrigger,
	})
	if err != nil {
		s.logger.Warn("auto-trigger check failed, using heuristic",
			"user_id", req.UserID,
			"problem_id", req.ProblemID,
			"error", err)
		return s.heuristicTrigger(req)
	}

	decision := s.parser.ParseTriggerDecision(resp.Content)
	s.logger.Info("auto-trigger decision",
		"user_id", req.UserID,
		"problem_id", req.ProblemID,
		"trigger", decision.ShouldTrigger,
		"level", decision.Level,
		"type", decision.Type)
	return decision
}

// heuristicTrigger decides from struggle signals alone: repeated
// failures trigger a debug hint one level up
func (s *Service) heuristicTrigger(req TriggerRequest) TriggerDecision {
	level := (req.CurrentHintLevel + 1).Clamp(domain.MaxHintLevel)

	if req.FailedAttempts >= 3 {
		return TriggerDecision{
			ShouldTrigger: true,
			Reason:        "multiple failed attempts",
			Type:          domain.TypeDebug,
			Level:         level,
		}
	}
	return TriggerDecision{
		ShouldTrigger: false,
		Reason:        "user making progress",
		Type:          domain.TypeConceptual,
		Level:         level,
	}
}
