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

// Package provider implements per-provider admission control: a token
// bucket rate limiter, a circuit breaker, and usage accounting, combined
// behind a single Gate. No outbound call leaves the process without a
// permit from the owning provider's gate.
package provider

import (
	"time"

	"golang.org/x/time/rate"
)

// Name identifies an external dependency with its own quota and failure
// profile.
type Name string

const (
	OpenAI          Name = "openai"
	Anthropic       Name = "anthropic"
	Perplexity      Name = "perplexity"
	Ollama          Name = "ollama"
	Crossref        Name = "crossref"
	SemanticScholar Name = "semantic_scholar"
)

// All lists every known provider.
func All() []Name {
	return []Name{OpenAI, Anthropic, Perplexity, Ollama, Crossref, SemanticScholar}
}

// Valid reports whether the name is a known provider.
func Valid(name Name) bool {
	switch name {
	case OpenAI, Anthropic, Perplexity, Ollama, Crossref, SemanticScholar:
		return true
	}
	return false
}

// Quota is a provider's statically configured request budget.
type Quota struct {
	// RequestsPerSecond is the sustained rate; rate.Inf means unbounded.
	RequestsPerSecond rate.Limit
	// Burst is the bucket depth.
	Burst int
}

// DefaultQuotas returns the documented budget for each provider. Crossref's
// polite pool allows ~45 rps; the Semantic Scholar public tier allows
// roughly one request every 3 seconds; Perplexity's default tier is about
// one request every 6 seconds. Ollama runs on local hardware and is
// host-bound rather than quota-bound.
func DefaultQuotas() map[Name]Quota {
	return map[Name]Quota{
		OpenAI:          {RequestsPerSecond: 5, Burst: 5},
		Anthropic:       {RequestsPerSecond: 5, Burst: 5},
		Perplexity:      {RequestsPerSecond: 0.17, Burst: 1},
		Ollama:          {RequestsPerSecond: rate.Inf, Burst: 1},
		Crossref:        {RequestsPerSecond: 45, Burst: 45},
		SemanticScholar: {RequestsPerSecond: 0.3, Burst: 1},
	}
}

// BreakerConfig tunes the per-provider circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the consecutive-failure count that opens the
	// breaker from closed.
	FailureThreshold int
	// CoolDown is how long the breaker stays open before admitting probes.
	CoolDown time.Duration
	// ProbeMax bounds concurrent half-open probes.
	ProbeMax int
}

// DefaultBreakerConfig returns the standard breaker tuning.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		CoolDown:         time.Minute,
		ProbeMax:         3,
	}
}
