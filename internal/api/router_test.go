package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hintwise/hintwise/internal/api/handlers"
	"github.com/hintwise/hintwise/internal/progress"
)

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(ctx context.Context) error { return p.err }

type fakeRebuilder struct {
	called bool
	err    error
}

func (r *fakeRebuilder) Rebuild() error {
	r.called = true
	return r.err
}

func testRouter(db Pinger, index Rebuilder) http.Handler {
	tracker := progress.NewTracker(progress.NewMemoryStore())
	return NewRouter(Deps{
		Hints:     handlers.NewHintHandler(nil, tracker, nil, nil, nil, nil, nil),
		Problems:  handlers.NewProblemHandler(nil, nil),
		Analytics: handlers.NewAnalyticsHandler(nil, nil),
		DB:        db,
		Index:     index,
		Debug:     true,
	})
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(&fakePinger{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("status = %q", resp["status"])
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestReadyEndpoint(t *testing.T) {
	router := testRouter(&fakePinger{}, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthy db status = %d, want 200", rec.Code)
	}

	router = testRouter(&fakePinger{err: errors.New("connection refused")}, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy db status = %d, want 503", rec.Code)
	}
}

func TestRebuildEndpoint(t *testing.T) {
	index := &fakeRebuilder{}
	router := testRouter(&fakePinger{}, index)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/similarity/rebuild", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !index.called {
		t.Error("rebuild was not invoked")
	}

	router = testRouter(&fakePinger{}, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/similarity/rebuild", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("nil index status = %d, want 503", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	router := testRouter(&fakePinger{}, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
