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

package provider

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inkwell-ai/inkwell/pkg/metrics"
)

// Registry holds the gate for every configured provider. It is built once
// at startup and read-only afterwards; gates themselves are safe for
// concurrent use.
type Registry struct {
	gates map[Name]*Gate
}

// NewRegistry builds gates for every provider in quotas. Providers missing
// from quotas get the documented defaults.
func NewRegistry(quotas map[Name]Quota, breakerCfg BreakerConfig, m *metrics.ProviderMetrics, log *logrus.Logger) *Registry {
	defaults := DefaultQuotas()
	gates := make(map[Name]*Gate, len(defaults))
	for _, name := range All() {
		quota, ok := quotas[name]
		if !ok {
			quota = defaults[name]
		}
		gates[name] = NewGate(name, quota, breakerCfg, m, log)
	}
	return &Registry{gates: gates}
}

// Gate returns the gate for a provider.
func (r *Registry) Gate(name Name) (*Gate, error) {
	gate, ok := r.gates[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	return gate, nil
}

// MustGate returns the gate for a known provider, panicking on unknown
// names. Use only with compile-time provider constants.
func (r *Registry) MustGate(name Name) *Gate {
	gate, err := r.Gate(name)
	if err != nil {
		panic(err)
	}
	return gate
}

// Stats returns a snapshot for every provider.
func (r *Registry) Stats() []Stats {
	out := make([]Stats, 0, len(r.gates))
	for _, name := range All() {
		out = append(out, r.gates[name].Stats())
	}
	return out
}
