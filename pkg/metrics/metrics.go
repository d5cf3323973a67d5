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

// Package metrics exposes prometheus instrumentation for the orchestrator.
// Label values pass through sanitizers so unbounded strings never become
// metric labels.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics instruments provider gates: admission, outcomes, latency.
type ProviderMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	AcquireWait     *prometheus.HistogramVec
	RequestLatency  *prometheus.HistogramVec
	BreakerState    *prometheus.GaugeVec
	AcquireDenied   *prometheus.CounterVec
	FallbacksTotal  *prometheus.CounterVec
	AgentExecutions *prometheus.CounterVec
}

// NewProviderMetrics builds and registers the provider collectors against
// the given registerer. Production wiring passes the default registerer;
// tests pass a fresh registry.
func NewProviderMetrics(reg prometheus.Registerer) *ProviderMetrics {
	m := &ProviderMetrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inkwell_provider_requests_total",
			Help: "Outbound provider requests by terminal outcome.",
		}, []string{"provider", "outcome"}),
		AcquireWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inkwell_provider_acquire_wait_seconds",
			Help:    "Time spent waiting for a rate limit permit.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"provider"}),
		RequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inkwell_provider_request_seconds",
			Help:    "Provider call latency.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"provider"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "inkwell_provider_breaker_state",
			Help: "Circuit breaker state per provider (0=closed, 1=half_open, 2=open).",
		}, []string{"provider"}),
		AcquireDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inkwell_provider_acquire_denied_total",
			Help: "Permit acquisitions denied, by reason.",
		}, []string{"provider", "reason"}),
		FallbacksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inkwell_agent_fallbacks_total",
			Help: "Fallback agent invocations by agent kind.",
		}, []string{"agent"}),
		AgentExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inkwell_agent_executions_total",
			Help: "Agent executions by agent kind and outcome.",
		}, []string{"agent", "outcome"}),
	}
	reg.MustRegister(
		m.RequestsTotal,
		m.AcquireWait,
		m.RequestLatency,
		m.BreakerState,
		m.AcquireDenied,
		m.FallbacksTotal,
		m.AgentExecutions,
	)
	return m
}
