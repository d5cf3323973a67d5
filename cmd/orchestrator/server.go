/*
Copyright 2025 The Inkwell Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/inkwell-ai/inkwell/pkg/agent"
	"github.com/inkwell-ai/inkwell/pkg/orchestration"
	"github.com/inkwell-ai/inkwell/pkg/provider"
)

// taskRequest is the ingress payload for one agent task.
type taskRequest struct {
	Kind  agent.Kind  `json:"kind"`
	Input agent.Input `json:"input"`
	// TimeoutSeconds bounds the task; 0 means the server default.
	TimeoutSeconds int `json:"timeout_seconds"`
}

const defaultTaskTimeout = 5 * time.Minute

func newRouter(orch *orchestration.Orchestrator, log *logrus.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"agents": orch.Agents(),
		})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/tasks", func(w http.ResponseWriter, req *http.Request) {
			var payload taskRequest
			if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
				return
			}

			timeout := defaultTaskTimeout
			if payload.TimeoutSeconds > 0 {
				timeout = time.Duration(payload.TimeoutSeconds) * time.Second
			}
			ctx, cancel := context.WithTimeout(req.Context(), timeout)
			defer cancel()

			task := agent.NewTask(payload.Kind, payload.Input)
			result := orch.Dispatch(ctx, task)

			status := http.StatusOK
			if result.Outcome == agent.OutcomeFailure {
				status = http.StatusUnprocessableEntity
			}
			writeJSON(w, status, result)
		})

		r.Get("/providers", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, orch.ProviderStats())
		})

		r.Post("/providers/{provider}/reset", func(w http.ResponseWriter, req *http.Request) {
			name := provider.Name(chi.URLParam(req, "provider"))
			if err := orch.ResetProvider(name); err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
				return
			}
			log.WithField("provider", name).Info("breaker manually reset")
			writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
