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

// Package orchestration assembles the execution substrate into one
// dispatchable value: provider gates, retry policy, agent registry, and
// fallback registry. There are no hidden singletons; everything an agent
// touches hangs off the Orchestrator built at startup.
package orchestration

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/inkwell-ai/inkwell/internal/errors"
	"github.com/inkwell-ai/inkwell/pkg/agent"
	"github.com/inkwell-ai/inkwell/pkg/provider"
	"github.com/inkwell-ai/inkwell/pkg/retry"
	"github.com/inkwell-ai/inkwell/pkg/shared/logging"
)

// Orchestrator routes tasks to their primary agents through the shared
// runner.
type Orchestrator struct {
	providers *provider.Registry
	runner    *agent.Runner
	agents    map[agent.Kind]agent.Agent
	log       *logrus.Logger
}

// New builds an orchestrator. Agents are registered by their Kind; a
// duplicate kind replaces the earlier registration.
func New(providers *provider.Registry, retryExec *retry.Executor, fallbacks *agent.FallbackRegistry, log *logrus.Logger, agents ...agent.Agent) *Orchestrator {
	registry := make(map[agent.Kind]agent.Agent, len(agents))
	for _, a := range agents {
		registry[a.Kind()] = a
	}
	return &Orchestrator{
		providers: providers,
		runner:    agent.NewRunner(retryExec, fallbacks, nil, log),
		agents:    registry,
		log:       log,
	}
}

// NewWithRunner builds an orchestrator around an existing runner,
// preserving its metrics wiring.
func NewWithRunner(providers *provider.Registry, runner *agent.Runner, log *logrus.Logger, agents ...agent.Agent) *Orchestrator {
	registry := make(map[agent.Kind]agent.Agent, len(agents))
	for _, a := range agents {
		registry[a.Kind()] = a
	}
	return &Orchestrator{providers: providers, runner: runner, agents: registry, log: log}
}

// Agents lists the registered kinds.
func (o *Orchestrator) Agents() []agent.Kind {
	kinds := make([]agent.Kind, 0, len(o.agents))
	for _, k := range agent.AllKinds() {
		if _, ok := o.agents[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Dispatch runs one task on its registered agent. Unknown kinds and
// unregistered kinds are input failures; all other failures surface in
// the Result, never as an error.
func (o *Orchestrator) Dispatch(ctx context.Context, task *agent.Task) *agent.Result {
	if !agent.ValidKind(task.Kind) {
		return agent.NewFailureResult(task,
			errors.Newf(errors.ErrorTypeInput, "unknown agent kind %q", task.Kind))
	}
	primary, ok := o.agents[task.Kind]
	if !ok {
		return agent.NewFailureResult(task,
			errors.Newf(errors.ErrorTypeInput, "no agent registered for kind %q", task.Kind))
	}

	if o.log != nil {
		o.log.WithFields(logging.NewFields().
			Component("orchestrator").
			Agent(string(task.Kind)).
			Task(task.ID).
			Fields()).Info("dispatching task")
	}
	return o.runner.Run(ctx, primary, task)
}

// ProviderStats snapshots every gate.
func (o *Orchestrator) ProviderStats() []provider.Stats {
	return o.providers.Stats()
}

// ResetProvider manually closes a provider's breaker.
func (o *Orchestrator) ResetProvider(name provider.Name) error {
	gate, err := o.providers.Gate(name)
	if err != nil {
		return err
	}
	gate.Reset()
	return nil
}

// UpdateProviderRate hot-swaps a provider's rate limit.
func (o *Orchestrator) UpdateProviderRate(name provider.Name, permitsPerSecond float64, burst int) error {
	gate, err := o.providers.Gate(name)
	if err != nil {
		return err
	}
	gate.UpdateRate(rate.Limit(permitsPerSecond), burst)
	return nil
}
