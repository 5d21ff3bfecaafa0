package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hintwise/hintwise/internal/domain"
	"github.com/hintwise/hintwise/internal/hints"
	"github.com/hintwise/hintwise/internal/progress"
	"github.com/hintwise/hintwise/internal/queue"
)

// Orchestrator runs the hint generation pipeline
type Orchestrator interface {
	Process(ctx context.Context, req hints.Request) *domain.HintResult
	ProcessTriggered(ctx context.Context, req hints.Request, decision hints.TriggerDecision) *domain.HintResult
	CheckAutoTrigger(ctx context.Context, req hints.TriggerRequest) hints.TriggerDecision
}

// ProblemGetter resolves problems by ID
type ProblemGetter interface {
	GetProblem(ctx context.Context, id uuid.UUID) (*domain.Problem, error)
}

// AttemptStore persists and reads solution attempts
type AttemptStore interface {
	Create(ctx context.Context, a *domain.Attempt) error
	Latest(ctx context.Context, userID, problemID uuid.UUID) (*domain.Attempt, error)
}

// HintStore persists hints, deliveries and evaluations
type HintStore interface {
	CreateHint(ctx context.Context, h *domain.Hint) error
	CreateDelivery(ctx context.Context, d *domain.HintDelivery) error
	CreateEvaluation(ctx context.Context, e *domain.HintEvaluation) error
	LastDeliveredHints(ctx context.Context, userID, problemID uuid.UUID, n int) ([]string, error)
	UpdateDeliveryFeedback(ctx context.Context, deliveryID uuid.UUID, feedback string, rating *int) error
}

// EventPublisher announces hint deliveries to downstream consumers
type EventPublisher interface {
	PublishHintDelivered(ctx context.Context, event *queue.HintDeliveredEvent) error
}

// previousHintsWindow bounds how many delivered hints feed the pipeline
const previousHintsWindow = 5

// HintHandler handles hint request and auto-trigger endpoints
type HintHandler struct {
	problems     ProblemGetter
	tracker      *progress.Tracker
	attempts     AttemptStore
	hintStore    HintStore
	orchestrator Orchestrator
	publisher    EventPublisher
	logger       *slog.Logger
	now          func() time.Time
}

// NewHintHandler creates a new hint handler. The publisher may be nil
// when no message broker is configured.
func NewHintHandler(
	problems ProblemGetter,
	tracker *progress.Tracker,
	attempts AttemptStore,
	hintStore HintStore,
	orchestrator Orchestrator,
	publisher EventPublisher,
	logger *slog.Logger,
) *HintHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HintHandler{
		problems:     problems,
		tracker:      tracker,
		attempts:     attempts,
		hintStore:    hintStore,
		orchestrator: orchestrator,
		publisher:    publisher,
		logger:       logger,
		now:          time.Now,
	}
}

// RequestHintRequest is the request body for requesting a hint
type RequestHintRequest struct {
	UserID    string `json:"user_id"`
	ProblemID string `json:"problem_id"`
	Code      string `json:"code"`
}

// HintResponse represents a delivered hint in API responses
type HintResponse struct {
	DeliveryID    string             `json:"delivery_id"`
	Hint          string             `json:"hint"`
	Level         int                `json:"level"`
	LevelName     string             `json:"level_name"`
	Type          string             `json:"type"`
	Degraded      bool               `json:"degraded"`
	AutoTriggered bool               `json:"auto_triggered"`
	Scores        map[string]float64 `json:"scores"`
	Evaluation    *EvaluationBody    `json:"evaluation,omitempty"`
}

// EvaluationBody mirrors the attempt evaluation in API responses
type EvaluationBody struct {
	Success     bool     `json:"success"`
	Reason      string   `json:"reason"`
	Complexity  string   `json:"complexity"`
	EdgeCases   []string `json:"edge_cases"`
	CodeQuality string   `json:"code_quality"`
	Suggestions []string `json:"suggestions"`
}

// RequestHint runs the hint pipeline for a submitted attempt
func (h *HintHandler) RequestHint(w http.ResponseWriter, r *http.Request) {
	var req RequestHintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user ID")
		return
	}
	problemID, err := uuid.Parse(req.ProblemID)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid problem ID")
		return
	}
	if req.Code == "" {
		jsonError(w, http.StatusBadRequest, "code is required")
		return
	}

	ctx := r.Context()

	problem, err := h.problems.GetProblem(ctx, problemID)
	if err != nil {
		if errors.Is(err, domain.ErrProblemNotFound) {
			jsonError(w, http.StatusNotFound, "problem not found")
			return
		}
		h.logger.Error("problem lookup failed", "problem_id", problemID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to load problem")
		return
	}

	state, err := h.tracker.GetOrCreate(ctx, userID, problemID)
	if err != nil {
		h.logger.Error("progress lookup failed", "user_id", userID, "problem_id", problemID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to load progress")
		return
	}

	now := h.now()
	elapsed := h.tracker.Touch(state, now)

	previous, err := h.hintStore.LastDeliveredHints(ctx, userID, problemID, previousHintsWindow)
	if err != nil {
		h.logger.Warn("previous hints lookup failed", "user_id", userID, "error", err)
		previous = nil
	}

	result := h.orchestrator.Process(ctx, hints.Request{
		UserID:             userID,
		ProblemID:          problemID,
		ProblemDescription: problem.Description,
		UserCode:           req.Code,
		AttemptsCount:      state.AttemptsCount,
		FailedAttempts:     state.FailedAttemptsCount,
		CurrentHintLevel:   state.CurrentHintLevel,
		Elapsed:            elapsed,
		PreviousHints:      previous,
	})

	// Record the attempt with its evaluation outcome
	attempt := &domain.Attempt{
		ID:         uuid.New(),
		UserID:     userID,
		ProblemID:  problemID,
		Code:       req.Code,
		Status:     domain.AttemptFailed,
		Evaluation: &result.AttemptEvaluation,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if result.AttemptEvaluation.Success {
		attempt.Status = domain.AttemptSuccess
	}
	if err := h.attempts.Create(ctx, attempt); err != nil {
		h.logger.Error("attempt persistence failed", "user_id", userID, "error", err)
	}

	h.tracker.RecordAttempt(state, result.AttemptEvaluation.Success)
	h.tracker.SetLevel(state, result.Level)
	if err := h.tracker.Save(ctx, state); err != nil {
		h.logger.Error("progress persistence failed", "user_id", userID, "error", err)
	}

	delivery := h.persistDelivery(ctx, problemID, userID, attempt.ID, result, false, now)

	WriteHintResponse(w, http.StatusOK, delivery, result, false)
}

// AutoTriggerRequest is the request body for an auto-trigger check
type AutoTriggerRequest struct {
	UserID    string `json:"user_id"`
	ProblemID string `json:"problem_id"`
}

// AutoTriggerResponse reports the trigger decision and, when triggered,
// the generated hint
type AutoTriggerResponse struct {
	Triggered bool          `json:"triggered"`
	Reason    string        `json:"reason"`
	Hint      *HintResponse `json:"hint,omitempty"`
}

// AutoTrigger checks whether a stuck learner should receive an
// unsolicited hint, and generates one when the answer is yes
func (h *HintHandler) AutoTrigger(w http.ResponseWriter, r *http.Request) {
	var req AutoTriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user ID")
		return
	}
	problemID, err := uuid.Parse(req.ProblemID)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid problem ID")
		return
	}

	ctx := r.Context()

	problem, err := h.problems.GetProblem(ctx, problemID)
	if err != nil {
		if errors.Is(err, domain.ErrProblemNotFound) {
			jsonError(w, http.StatusNotFound, "problem not found")
			return
		}
		h.logger.Error("problem lookup failed", "problem_id", problemID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to load problem")
		return
	}

	state, err := h.tracker.GetOrCreate(ctx, userID, problemID)
	if err != nil {
		h.logger.Error("progress lookup failed", "user_id", userID, "problem_id", problemID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to load progress")
		return
	}

	now := h.now()
	if !state.IsStuck(now) {
		WriteJSONBody(w, http.StatusOK, AutoTriggerResponse{
			Triggered: false,
			Reason:    "learner is active",
		})
		return
	}

	// Last attempt feeds the trigger prompt; a learner without attempts
	// still qualifies via inactivity
	var lastCode, lastStatus, lastError string
	if latest, err := h.attempts.Latest(ctx, userID, problemID); err == nil {
		lastCode = latest.Code
		lastStatus = string(latest.Status)
		if latest.Evaluation != nil {
			lastError = latest.Evaluation.Reason
		}
	} else if !errors.Is(err, domain.ErrAttemptNotFound) {
		h.logger.Warn("latest attempt lookup failed", "user_id", userID, "error", err)
	}

	elapsed := now.Sub(state.LastActivity)
	decision := h.orchestrator.CheckAutoTrigger(ctx, hints.TriggerRequest{
		UserID:             userID,
		ProblemID:          problemID,
		ProblemDescription: problem.Description,
		UserCode:           lastCode,
		AttemptsCount:      state.AttemptsCount,
		FailedAttempts:     state.FailedAttemptsCount,
		CurrentHintLevel:   state.CurrentHintLevel,
		Elapsed:            elapsed,
		LastAttemptStatus:  lastStatus,
		LastAttemptError:   lastError,
	})

	if !decision.ShouldTrigger {
		WriteJSONBody(w, http.StatusOK, AutoTriggerResponse{
			Triggered: false,
			Reason:    decision.Reason,
		})
		return
	}

	previous, err := h.hintStore.LastDeliveredHints(ctx, userID, problemID, previousHintsWindow)
	if err != nil {
		h.logger.Warn("previous hints lookup failed", "user_id", userID, "error", err)
		previous = nil
	}

	result := h.orchestrator.ProcessTriggered(ctx, hints.Request{
		UserID:             userID,
		ProblemID:          problemID,
		ProblemDescription: problem.Description,
		UserCode:           lastCode,
		AttemptsCount:      state.AttemptsCount,
		FailedAttempts:     state.FailedAttemptsCount,
		CurrentHintLevel:   state.CurrentHintLevel,
		Elapsed:            elapsed,
		PreviousHints:      previous,
	}, decision)

	h.tracker.Touch(state, now)
	h.tracker.SetLevel(state, result.Level)
	if err := h.tracker.Save(ctx, state); err != nil {
		h.logger.Error("progress persistence failed", "user_id", userID, "error", err)
	}

	delivery := h.persistDelivery(ctx, problemID, userID, uuid.Nil, result, true, now)

	WriteJSONBody(w, http.StatusOK, AutoTriggerResponse{
		Triggered: true,
		Reason:    decision.Reason,
		Hint:      hintResponse(delivery, result, true),
	})
}

// FeedbackRequest is the request body for hint delivery feedback
type FeedbackRequest struct {
	Feedback string `json:"feedback"`
	Rating   *int   `json:"rating,omitempty"`
}

// Feedback attaches learner feedback to a delivered hint
func (h *HintHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	deliveryID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid delivery ID")
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		jsonError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	err = h.hintStore.UpdateDeliveryFeedback(r.Context(), deliveryID, req.Feedback, req.Rating)
	if err != nil {
		if errors.Is(err, domain.ErrDeliveryNotFound) {
			jsonError(w, http.StatusNotFound, "delivery not found")
			return
		}
		h.logger.Error("feedback persistence failed", "delivery_id", deliveryID, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to record feedback")
		return
	}

	WriteJSONBody(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// persistDelivery writes the hint, delivery and evaluation records and
// publishes the delivery event. Persistence failures are logged, not
// surfaced: the learner still gets the hint.
func (h *HintHandler) persistDelivery(ctx context.Context, problemID, userID, attemptID uuid.UUID, result *domain.HintResult, autoTriggered bool, now time.Time) *domain.HintDelivery {
	hint := &domain.Hint{
		ID:        uuid.New(),
		ProblemID: problemID,
		Content:   result.HintText,
		Level:     result.Level,
		Type:      result.Type,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.hintStore.CreateHint(ctx, hint); err != nil {
		h.logger.Error("hint persistence failed", "user_id", userID, "error", err)
	}

	delivery := &domain.HintDelivery{
		ID:            uuid.New(),
		HintID:        hint.ID,
		UserID:        userID,
		AttemptID:     attemptID,
		AutoTriggered: autoTriggered,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.hintStore.CreateDelivery(ctx, delivery); err != nil {
		h.logger.Error("delivery persistence failed", "user_id", userID, "error", err)
	}

	if len(result.HintScores) > 0 {
		evaluation := &domain.HintEvaluation{
			ID:        uuid.New(),
			HintID:    hint.ID,
			Scores:    result.HintScores,
			CreatedAt: now,
		}
		if err := h.hintStore.CreateEvaluation(ctx, evaluation); err != nil {
			h.logger.Error("evaluation persistence failed", "user_id", userID, "error", err)
		}
	}

	if h.publisher != nil {
		event := queue.NewHintDeliveredEvent(delivery, problemID, result)
		if err := h.publisher.PublishHintDelivered(ctx, event); err != nil {
			h.logger.Error("delivery event publish failed", "delivery_id", delivery.ID, "error", err)
		}
	}

	return delivery
}

func hintResponse(delivery *domain.HintDelivery, result *domain.HintResult, autoTriggered bool) *HintResponse {
	resp := &HintResponse{
		DeliveryID:    delivery.ID.String(),
		Hint:          result.HintText,
		Level:         int(result.Level),
		LevelName:     result.Level.String(),
		Type:          string(result.Type),
		Degraded:      result.Degraded,
		AutoTriggered: autoTriggered,
		Scores:        result.HintScores,
	}
	if !autoTriggered {
		resp.Evaluation = &EvaluationBody{
			Success:     result.AttemptEvaluation.Success,
			Reason:      result.AttemptEvaluation.Reason,
			Complexity:  result.AttemptEvaluation.Complexity,
			EdgeCases:   result.AttemptEvaluation.EdgeCases,
			CodeQuality: result.AttemptEvaluation.CodeQuality,
			Suggestions: result.AttemptEvaluation.Suggestions,
		}
	}
	return resp
}

// WriteHintResponse writes a hint pipeline result
func WriteHintResponse(w http.ResponseWriter, status int, delivery *domain.HintDelivery, result *domain.HintResult, autoTriggered bool) {
	WriteJSONBody(w, status, hintResponse(delivery, result, autoTriggered))
}
