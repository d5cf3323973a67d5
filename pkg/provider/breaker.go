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
	"sync"
	"time"
)

// BreakerState is the circuit breaker's finite state.
type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half_open"
)

// CircuitBreaker isolates a repeatedly failing provider. It opens after a
// run of consecutive provider-attributable failures, stays open for a cool
// down period, then admits a bounded number of concurrent probes. One probe
// success closes it; one probe failure reopens it.
type CircuitBreaker struct {
	name   string
	config BreakerConfig

	mu                  sync.Mutex
	state               BreakerState
	consecutiveFailures int
	openedAt            time.Time
	probesInFlight      int

	// now is swapped in tests to drive cool-down expiry without sleeping.
	now func() time.Time
}

// NewCircuitBreaker creates a breaker in the closed state.
func NewCircuitBreaker(name string, config BreakerConfig) *CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	if config.CoolDown <= 0 {
		config.CoolDown = DefaultBreakerConfig().CoolDown
	}
	if config.ProbeMax <= 0 {
		config.ProbeMax = DefaultBreakerConfig().ProbeMax
	}
	return &CircuitBreaker{
		name:   name,
		config: config,
		state:  BreakerClosed,
		now:    time.Now,
	}
}

// Name returns the breaker's identifier.
func (b *CircuitBreaker) Name() string {
	return b.name
}

// State returns the current state, accounting for cool-down expiry.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen && b.now().Sub(b.openedAt) >= b.config.CoolDown {
		return BreakerHalfOpen
	}
	return b.state
}

// AllowRequest reports whether a request may proceed. In half-open it
// reserves a probe slot; the caller must follow up with RecordSuccess,
// RecordFailure, or CancelProbe so the slot is returned.
func (b *CircuitBreaker) AllowRequest() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return true
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.config.CoolDown {
			return false
		}
		b.state = BreakerHalfOpen
		b.probesInFlight = 1
		return true
	case BreakerHalfOpen:
		if b.probesInFlight >= b.config.ProbeMax {
			return false
		}
		b.probesInFlight++
		return true
	}
	return false
}

// RecordSuccess notes a successful call. A success during probing closes
// the breaker and clears the failure streak.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerHalfOpen:
		b.state = BreakerClosed
		b.consecutiveFailures = 0
		b.probesInFlight = 0
	case BreakerClosed:
		b.consecutiveFailures = 0
	}
}

// RecordFailure notes a provider-attributable failure. Callers filter out
// client-side errors before reaching here.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		b.consecutiveFailures++
		if b.consecutiveFailures >= b.config.FailureThreshold {
			b.state = BreakerOpen
			b.openedAt = b.now()
		}
	case BreakerHalfOpen:
		b.state = BreakerOpen
		b.openedAt = b.now()
		b.probesInFlight = 0
	case BreakerOpen:
		// Late failure from a call admitted before the trip; the window
		// restarts so a sick provider is not probed early.
		b.openedAt = b.now()
	}
}

// CancelProbe returns a reserved probe slot without recording an outcome.
// Used when admission succeeded at the breaker but failed at the limiter,
// or when the caller's deadline expired before the call started.
func (b *CircuitBreaker) CancelProbe() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerHalfOpen && b.probesInFlight > 0 {
		b.probesInFlight--
	}
}

// Reset forces the breaker closed and clears all counters.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BreakerClosed
	b.consecutiveFailures = 0
	b.probesInFlight = 0
	b.openedAt = time.Time{}
}

// ConsecutiveFailures returns the current failure streak.
func (b *CircuitBreaker) ConsecutiveFailures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consecutiveFailures
}
