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

	"github.com/inkwell-ai/inkwell/pkg/provider"
)

// Agent is the contract every pipeline agent implements, primary or
// fallback. Execute is the only behavioural method; it returns classified
// errors so the retry policy can act on them.
type Agent interface {
	// Kind identifies the agent for registry lookup and fallback selection.
	Kind() Kind
	// Provider names the external dependency this agent calls, used to pick
	// the gate and the retry tuning.
	Provider() provider.Name
	// Estimate predicts execution time for upstream scheduling.
	Estimate(task *Task) time.Duration
	// CanHandle validates the task's input shape.
	CanHandle(task *Task) bool
	// Execute performs the work for one task.
	Execute(ctx context.Context, task *Task) (*Result, error)
}

// FallbackRegistry maps agent kinds to at most one local fallback agent.
// Populated at startup, read-only afterwards; reads need no locking.
type FallbackRegistry struct {
	fallbacks map[Kind]Agent
}

// NewFallbackRegistry builds the registry from the enabled fallback agents.
func NewFallbackRegistry(agents ...Agent) *FallbackRegistry {
	m := make(map[Kind]Agent, len(agents))
	for _, a := range agents {
		m[a.Kind()] = a
	}
	return &FallbackRegistry{fallbacks: m}
}

// Get returns the fallback for a kind, if one is registered.
func (r *FallbackRegistry) Get(kind Kind) (Agent, bool) {
	a, ok := r.fallbacks[kind]
	return a, ok
}

// Has reports whether a fallback is registered for the kind.
func (r *FallbackRegistry) Has(kind Kind) bool {
	_, ok := r.fallbacks[kind]
	return ok
}

// Available returns the kinds that have a registered fallback.
func (r *FallbackRegistry) Available() []Kind {
	kinds := make([]Kind, 0, len(r.fallbacks))
	for _, k := range AllKinds() {
		if _, ok := r.fallbacks[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
