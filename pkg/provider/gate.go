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
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/inkwell-ai/inkwell/internal/errors"
	"github.com/inkwell-ai/inkwell/pkg/metrics"
)

// Gate is the single admission point for one provider: circuit breaker,
// then token bucket, then usage accounting. Every acquired permit must be
// paired with exactly one RecordSuccess or RecordFailure.
type Gate struct {
	provider Name
	limiter  *rate.Limiter
	breaker  *CircuitBreaker
	usage    *usageTracker
	metrics  *metrics.ProviderMetrics
	log      *logrus.Logger
}

// Stats combines usage counters with the breaker state.
type Stats struct {
	Provider Name          `json:"provider"`
	Usage    UsageCounters `json:"usage"`
	Breaker  BreakerState  `json:"breaker_state"`
	Rate     float64       `json:"rate_per_second"`
	Burst    int           `json:"burst"`
}

// NewGate builds a gate for one provider. Metrics may be nil (tests).
func NewGate(provider Name, quota Quota, breakerCfg BreakerConfig, m *metrics.ProviderMetrics, log *logrus.Logger) *Gate {
	return &Gate{
		provider: provider,
		limiter:  rate.NewLimiter(quota.RequestsPerSecond, quota.Burst),
		breaker:  NewCircuitBreaker(string(provider), breakerCfg),
		usage:    &usageTracker{},
		metrics:  m,
		log:      log,
	}
}

// TryAcquire attempts non-blocking admission. It returns false immediately
// when the breaker blocks or no permit is available.
func (g *Gate) TryAcquire() bool {
	if !g.breaker.AllowRequest() {
		g.countDenied(metrics.ReasonBreakerOpen)
		return false
	}
	if !g.limiter.Allow() {
		g.breaker.CancelProbe()
		g.countDenied(metrics.ReasonNoPermit)
		return false
	}
	g.publishBreakerState()
	return true
}

// Acquire blocks until a permit is granted or the context is done. A
// breaker-open denial returns immediately as a rate-limit error so the
// retry policy backs off rather than spinning. A context expiry returns a
// timeout error and leaves the breaker untouched.
func (g *Gate) Acquire(ctx context.Context) error {
	if !g.breaker.AllowRequest() {
		g.countDenied(metrics.ReasonBreakerOpen)
		return errors.NewRateLimitError("circuit breaker open for " + string(g.provider)).
			WithDetails(metrics.ReasonBreakerOpen)
	}

	start := time.Now()
	if err := g.limiter.Wait(ctx); err != nil {
		g.breaker.CancelProbe()
		g.countDenied(metrics.ReasonDeadline)
		return errors.Wrap(err, errors.ErrorTypeTimeout, "deadline reached waiting for "+string(g.provider)+" permit")
	}
	waited := time.Since(start)
	g.usage.recordWait(waited)
	if g.metrics != nil {
		g.metrics.AcquireWait.WithLabelValues(string(g.provider)).Observe(waited.Seconds())
	}
	g.publishBreakerState()
	return nil
}

// RecordSuccess closes out an acquired permit after a successful call.
func (g *Gate) RecordSuccess(latency time.Duration) {
	g.usage.recordSuccess(latency)
	g.breaker.RecordSuccess()
	if g.metrics != nil {
		g.metrics.RequestsTotal.WithLabelValues(string(g.provider), metrics.OutcomeSuccess).Inc()
		g.metrics.RequestLatency.WithLabelValues(string(g.provider)).Observe(latency.Seconds())
	}
	g.publishBreakerState()
}

// RecordFailure closes out an acquired permit after a failed call. Only
// provider-attributable failures drive the breaker; client-side errors are
// counted in usage but do not trip it.
func (g *Gate) RecordFailure(err error, latency time.Duration) {
	g.usage.recordFailure(latency)
	if errors.CountsAgainstProvider(err) {
		g.breaker.RecordFailure()
	} else {
		g.breaker.CancelProbe()
	}
	if g.metrics != nil {
		g.metrics.RequestsTotal.WithLabelValues(string(g.provider), metrics.OutcomeFailure).Inc()
		g.metrics.RequestLatency.WithLabelValues(string(g.provider)).Observe(latency.Seconds())
	}
	g.publishBreakerState()
}

// Stats returns a snapshot of usage counters and breaker state.
func (g *Gate) Stats() Stats {
	return Stats{
		Provider: g.provider,
		Usage:    g.usage.snapshot(),
		Breaker:  g.breaker.State(),
		Rate:     float64(g.limiter.Limit()),
		Burst:    g.limiter.Burst(),
	}
}

// UpdateRate hot-swaps the sustained rate and burst. Waiters queued before
// the change complete under the new rate.
func (g *Gate) UpdateRate(permitsPerSecond rate.Limit, burst int) {
	g.limiter.SetLimit(permitsPerSecond)
	if burst > 0 {
		g.limiter.SetBurst(burst)
	}
	if g.log != nil {
		g.log.WithFields(logrus.Fields{
			"provider": g.provider,
			"rate":     float64(permitsPerSecond),
			"burst":    burst,
		}).Info("provider rate updated")
	}
}

// Reset manually closes the breaker.
func (g *Gate) Reset() {
	g.breaker.Reset()
	g.publishBreakerState()
}

// BreakerState exposes the breaker state for dispatch decisions.
func (g *Gate) BreakerState() BreakerState {
	return g.breaker.State()
}

func (g *Gate) countDenied(reason string) {
	if g.metrics != nil {
		g.metrics.AcquireDenied.WithLabelValues(string(g.provider), metrics.SanitizeReason(reason)).Inc()
	}
}

func (g *Gate) publishBreakerState() {
	if g.metrics == nil {
		return
	}
	var v float64
	switch g.breaker.State() {
	case BreakerHalfOpen:
		v = 1
	case BreakerOpen:
		v = 2
	}
	g.metrics.BreakerState.WithLabelValues(string(g.provider)).Set(v)
}
