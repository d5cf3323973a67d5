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

package agent

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inkwell-ai/inkwell/internal/errors"
	"github.com/inkwell-ai/inkwell/pkg/metrics"
	"github.com/inkwell-ai/inkwell/pkg/retry"
	"github.com/inkwell-ai/inkwell/pkg/shared/logging"
)

// Runner implements the shared agent lifecycle: validate, execute under
// the retry policy, hand off to a registered fallback on permanent
// failure, and stamp metrics. Every agent invocation in the pipeline goes
// through Run.
type Runner struct {
	retry     *retry.Executor
	fallbacks *FallbackRegistry
	metrics   *metrics.ProviderMetrics
	log       *logrus.Logger
}

// NewRunner wires the runner. Metrics may be nil in tests.
func NewRunner(retryExec *retry.Executor, fallbacks *FallbackRegistry, m *metrics.ProviderMetrics, log *logrus.Logger) *Runner {
	if fallbacks == nil {
		fallbacks = NewFallbackRegistry()
	}
	return &Runner{
		retry:     retryExec,
		fallbacks: fallbacks,
		metrics:   m,
		log:       log,
	}
}

// Fallbacks exposes the registry for introspection.
func (r *Runner) Fallbacks() *FallbackRegistry {
	return r.fallbacks
}

// Run executes one task with one agent. It always returns a non-nil
// Result; failures are reported in the result rather than as an error so
// callers have a single shape to persist and serve.
func (r *Runner) Run(ctx context.Context, ag Agent, task *Task) *Result {
	start := time.Now()

	if !ag.CanHandle(task) {
		err := errors.Newf(errors.ErrorTypeInput, "agent %s cannot handle task input %s", ag.Kind(), task.Input)
		return r.finish(NewFailureResult(task, err), ag, start)
	}

	var primary *Result
	err := r.retry.Execute(ctx, ag.Provider(), func(ctx context.Context) error {
		out, execErr := ag.Execute(ctx, task)
		if execErr != nil {
			return execErr
		}
		primary = out
		return nil
	})

	if err == nil {
		primary.Metrics.StartedAt = start
		primary.Metrics.Duration = time.Since(start)
		primary.Metrics.Provider = ag.Provider()
		r.countExecution(ag, primary.Outcome)
		return primary
	}

	if retry.ShouldFallback(err) {
		if fallback, ok := r.fallbacks.Get(task.Kind); ok {
			return r.runFallback(ctx, fallback, task, ag, err, start)
		}
	}

	r.logFailure(ag, task, err)
	return r.finish(NewFailureResult(task, err), ag, start)
}

// runFallback invokes the local fallback with the original task. The
// fallback result is observationally a success except for its metric
// fields.
func (r *Runner) runFallback(ctx context.Context, fallback Agent, task *Task, primary Agent, primaryErr error, start time.Time) *Result {
	if r.log != nil {
		r.log.WithFields(logging.NewFields().
			Component("runner").
			Agent(string(task.Kind)).
			Task(task.ID).
			Error(primaryErr).
			Fields()).Warn("primary agent failed, invoking fallback")
	}
	if r.metrics != nil {
		r.metrics.FallbacksTotal.WithLabelValues(string(task.Kind)).Inc()
	}

	result, err := fallback.Execute(ctx, task)
	if err != nil {
		combined := errors.Wrapf(err, errors.Classify(primaryErr),
			"primary failed (%v); fallback failed: %v", primaryErr, err)
		return r.finish(NewFailureResult(task, combined), primary, start)
	}

	result.Outcome = OutcomeSuccessViaFallback
	result.Metrics.StartedAt = start
	result.Metrics.Duration = time.Since(start)
	result.Metrics.Provider = fallback.Provider()
	result.Metrics.FallbackUsed = true
	result.Metrics.PrimaryFailureReason = primaryErr.Error()
	r.countExecution(primary, OutcomeSuccessViaFallback)
	return result
}

func (r *Runner) finish(result *Result, ag Agent, start time.Time) *Result {
	result.Metrics.StartedAt = start
	result.Metrics.Duration = time.Since(start)
	result.Metrics.Provider = ag.Provider()
	r.countExecution(ag, result.Outcome)
	return result
}

func (r *Runner) countExecution(ag Agent, outcome Outcome) {
	if r.metrics == nil {
		return
	}
	r.metrics.AgentExecutions.WithLabelValues(string(ag.Kind()), metrics.SanitizeOutcome(string(outcome))).Inc()
}

func (r *Runner) logFailure(ag Agent, task *Task, err error) {
	if r.log == nil {
		return
	}
	r.log.WithFields(logging.NewFields().
		Component("runner").
		Agent(string(ag.Kind())).
		Task(task.ID).
		Error(err).
		Fields()).Error("agent execution failed")
}
