package api

import (
	"context"
	"net/http"
	"time"

	"github.com/hintwise/hintwise/internal/api/handlers"
	"github.com/hintwise/hintwise/internal/api/middleware"
)

// Pinger verifies backing-store connectivity for readiness checks
type Pinger interface {
	Ping(ctx context.Context) error
}

// Rebuilder refreshes the similarity vocabulary and embeddings
type Rebuilder interface {
	Rebuild() error
}

// Deps holds everything the router wires into handlers
type Deps struct {
	Hints     *handlers.HintHandler
	Problems  *handlers.ProblemHandler
	Analytics *handlers.AnalyticsHandler
	DB        Pinger
	Index     Rebuilder
	Debug     bool
}

// Router wraps the HTTP multiplexer with middleware and handlers
type Router struct {
	mux  *http.ServeMux
	deps Deps
}

// NewRouter creates a new API router with all routes configured
func NewRouter(deps Deps) http.Handler {
	r := &Router{
		mux:  http.NewServeMux(),
		deps: deps,
	}

	r.registerRoutes()

	// Apply middleware in reverse order (last applied = first executed)
	var handler http.Handler = r.mux
	handler = middleware.Recovery(handler)
	handler = middleware.Logger(handler)
	if !deps.Debug {
		// Hint generation costs an LLM round trip per request
		handler = middleware.RateLimit(middleware.NewRateLimiter(30, 10), handler)
	}
	handler = middleware.RequestID(handler)

	return handler
}

func (r *Router) registerRoutes() {
	// Health checks
	r.mux.HandleFunc("GET /health", r.handleHealth)
	r.mux.HandleFunc("GET /ready", r.handleReady)

	// Problem catalog
	r.mux.HandleFunc("GET /api/v1/problems", r.deps.Problems.List)
	r.mux.HandleFunc("GET /api/v1/problems/{id}", r.deps.Problems.Get)

	// Hints
	r.mux.HandleFunc("POST /api/v1/hints/request", r.deps.Hints.RequestHint)
	r.mux.HandleFunc("POST /api/v1/hints/auto-trigger", r.deps.Hints.AutoTrigger)
	r.mux.HandleFunc("POST /api/v1/hints/deliveries/{id}/feedback", r.deps.Hints.Feedback)

	// Learning patterns
	r.mux.HandleFunc("GET /api/v1/users/{id}/patterns", r.deps.Analytics.GetPatterns)

	// Similarity corpus maintenance
	r.mux.HandleFunc("POST /api/v1/similarity/rebuild", r.handleRebuild)
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (r *Router) handleReady(w http.ResponseWriter, req *http.Request) {
	if r.deps.DB != nil {
		if err := r.deps.DB.Ping(req.Context()); err != nil {
			WriteJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not ready",
				"checks": map[string]string{"database": "unhealthy"},
			})
			return
		}
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"checks": map[string]string{"database": "healthy"},
	})
}

func (r *Router) handleRebuild(w http.ResponseWriter, req *http.Request) {
	if r.deps.Index == nil {
		WriteError(w, req, http.StatusServiceUnavailable, NewAPIError("UNAVAILABLE", "similarity index not configured"))
		return
	}

	if err := r.deps.Index.Rebuild(); err != nil {
		InternalError(w, req, "failed to rebuild similarity index", err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "rebuilt"})
}
