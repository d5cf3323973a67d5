package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inkwell-ai/inkwell/internal/errors"
	"github.com/inkwell-ai/inkwell/pkg/agent"
	"github.com/inkwell-ai/inkwell/pkg/orchestration"
	"github.com/inkwell-ai/inkwell/pkg/provider"
	"github.com/inkwell-ai/inkwell/pkg/retry"
)

type pingAgent struct{}

func (pingAgent) Kind() agent.Kind                   { return agent.KindContentSummarizer }
func (pingAgent) Provider() provider.Name            { return provider.Ollama }
func (pingAgent) Estimate(*agent.Task) time.Duration { return time.Second }
func (pingAgent) CanHandle(t *agent.Task) bool       { return t.Input.OptionalString("paperId", "") != "" }

func (pingAgent) Execute(ctx context.Context, task *agent.Task) (*agent.Result, error) {
	if task.Input.OptionalString("paperId", "") == "" {
		return nil, errors.NewInputError("missing paperId")
	}
	return agent.NewSuccessResult(task, map[string]any{"pong": true}), nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	providers := provider.NewRegistry(nil, provider.DefaultBreakerConfig(), nil, logger)
	retryExec := retry.NewExecutor(retry.DefaultConfig(), nil, logger)
	orch := orchestration.New(providers, retryExec, nil, logger, pingAgent{})
	return newRouter(orch, logger)
}

func TestHealthEndpoints(t *testing.T) {
	router := testRouter(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestTaskIngress(t *testing.T) {
	router := testRouter(t)

	body := `{"kind":"content_summarizer","input":{"paperId":"p1","textContent":"x"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/v1/tasks = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"outcome":"success"`) {
		t.Errorf("response missing success outcome: %s", rec.Body.String())
	}
}

func TestTaskIngressFailure(t *testing.T) {
	router := testRouter(t)

	body := `{"kind":"content_summarizer","input":{}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("POST with bad input = %d, want 422", rec.Code)
	}
}

func TestTaskIngressBadJSON(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("POST with bad JSON = %d, want 400", rec.Code)
	}
}

func TestProviderEndpoints(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/providers", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/providers = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "crossref") {
		t.Error("provider stats missing crossref")
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/providers/crossref/reset", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("reset = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/providers/acme/reset", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("reset unknown = %d, want 404", rec.Code)
	}
}
