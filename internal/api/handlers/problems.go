package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hintwise/hintwise/internal/domain"
)

// ProblemLister reads the problem catalog
type ProblemLister interface {
	ProblemGetter
	List(ctx context.Context) ([]*domain.Problem, error)
}

// ProblemHandler handles problem catalog endpoints
type ProblemHandler struct {
	problems ProblemLister
	logger   *slog.Logger
}

// NewProblemHandler creates a new problem handler
func NewProblemHandler(problems ProblemLister, logger *slog.Logger) *ProblemHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProblemHandler{problems: problems, logger: logger}
}

// ProblemResponse represents a problem in API responses
type ProblemResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
	CreatedAt   string `json:"created_at"`
}

func problemResponse(p *domain.Problem) ProblemResponse {
	return ProblemResponse{
		ID:          p.ID.String(),
		Title:       p.Title,
		Description: p.Description,
		Difficulty:  string(p.Difficulty),
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

// List returns the problem catalog
func (h *ProblemHandler) List(w http.ResponseWriter, r *http.Request) {
	problems, err := h.problems.List(r.Context())
	if err != nil {
		h.logger.Error("problem list failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list problems")
		return
	}

	resp := make([]ProblemResponse, 0, len(problems))
	for _, p := range problems {
		resp = append(resp, problemResponse(p))
	}
	WriteJSONBody(w, http.StatusOK, map[string]any{"problems": resp})
}

// Get returns a single problem
func (h *ProblemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid problem ID")
		return
	}

	p, err := h.problems.GetProblem(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrProblemNotFound) {
			jsonError(w, http.StatusNotFound, "problem not found")
			return
		}
		h.logger.Error("problem lookup failed", "problem_id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to load problem")
		return
	}

	WriteJSONBody(w, http.StatusOK, problemResponse(p))
}
