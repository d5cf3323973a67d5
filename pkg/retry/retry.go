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

// Package retry wraps provider operations so transient faults are retried
// with backoff and permanent faults surface immediately. Operations return
// classified errors; no panics or sentinel exceptions drive control flow.
package retry

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inkwell-ai/inkwell/internal/errors"
	"github.com/inkwell-ai/inkwell/pkg/provider"
	"github.com/inkwell-ai/inkwell/pkg/shared/logging"
)

// Config controls retry behaviour for one provider.
type Config struct {
	// MaxAttempts bounds attempts for transient faults.
	MaxAttempts int
	// RateLimitMaxAttempts bounds attempts for rate-limited faults, which
	// get more patience and a longer backoff base.
	RateLimitMaxAttempts int
	// InitialDelay is the backoff base for transient faults.
	InitialDelay time.Duration
	// RateLimitInitialDelay is the backoff base after a 429 or a
	// breaker-denied acquisition.
	RateLimitInitialDelay time.Duration
	// MaxDelay caps any single backoff sleep.
	MaxDelay time.Duration
	// BackoffMultiplier grows the delay between attempts.
	BackoffMultiplier float64
	// Jitter randomizes each delay by ±25% when set.
	Jitter bool
	// ProviderDownAfter is the number of consecutive breaker-denied
	// attempts after which the provider is reported down.
	ProviderDownAfter int
}

// DefaultConfig returns the standard retry tuning.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:           3,
		RateLimitMaxAttempts:  5,
		InitialDelay:          500 * time.Millisecond,
		RateLimitInitialDelay: 2 * time.Second,
		MaxDelay:              30 * time.Second,
		BackoffMultiplier:     2.0,
		Jitter:                true,
		ProviderDownAfter:     3,
	}
}

// Operation is a provider call wrapped by the executor. It must return a
// classified error (see internal/errors) on failure.
type Operation func(ctx context.Context) error

// Executor applies the retry policy with per-provider configuration.
type Executor struct {
	defaults  Config
	overrides map[provider.Name]Config
	log       *logrus.Logger
	rng       *rand.Rand
}

// NewExecutor creates an executor. Overrides may be nil.
func NewExecutor(defaults Config, overrides map[provider.Name]Config, log *logrus.Logger) *Executor {
	return &Executor{
		defaults:  defaults,
		overrides: overrides,
		log:       log,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ConfigFor returns the effective config for a provider.
func (e *Executor) ConfigFor(name provider.Name) Config {
	if cfg, ok := e.overrides[name]; ok {
		return cfg
	}
	return e.defaults
}

// Execute runs op under the retry policy for the named provider. It returns
// nil on success, or the last classified error once the policy is
// exhausted. A caller deadline expiring at any point aborts immediately
// with a timeout error.
func (e *Executor) Execute(ctx context.Context, name provider.Name, op Operation) error {
	cfg := e.ConfigFor(name)

	var lastErr error
	breakerDenials := 0
	transientAttempts := 0
	rateLimitAttempts := 0

	for {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeTimeout, "deadline reached before attempt")
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		kind := errors.Classify(lastErr)
		switch kind {
		case errors.ErrorTypeTransient:
			transientAttempts++
			breakerDenials = 0
			if transientAttempts >= cfg.MaxAttempts {
				return lastErr
			}
			if err := e.sleep(ctx, e.backoff(cfg.InitialDelay, cfg, transientAttempts)); err != nil {
				return err
			}

		case errors.ErrorTypeRateLimit:
			rateLimitAttempts++
			if isBreakerDenied(lastErr) {
				breakerDenials++
				if breakerDenials >= cfg.ProviderDownAfter {
					return errors.Wrap(lastErr, errors.ErrorTypeProviderDown,
						"provider "+string(name)+" down: breaker open across probe attempts")
				}
			} else {
				breakerDenials = 0
			}
			if rateLimitAttempts >= cfg.RateLimitMaxAttempts {
				return lastErr
			}
			if err := e.sleep(ctx, e.backoff(cfg.RateLimitInitialDelay, cfg, rateLimitAttempts)); err != nil {
				return err
			}

		default:
			// Input, parse, timeout, persistence, provider_down: never
			// re-attempted here.
			return lastErr
		}

		if e.log != nil {
			e.log.WithFields(logging.NewFields().
				Component("retry").
				Provider(string(name)).
				Attempt(transientAttempts + rateLimitAttempts).
				Error(lastErr).
				Fields()).Debug("retrying provider operation")
		}
	}
}

// backoff computes the exponential delay for the given attempt (1-based).
func (e *Executor) backoff(base time.Duration, cfg Config, attempt int) time.Duration {
	delay := float64(base)
	for i := 1; i < attempt; i++ {
		delay *= cfg.BackoffMultiplier
	}
	if max := float64(cfg.MaxDelay); delay > max {
		delay = max
	}
	if cfg.Jitter {
		// ±25%
		delay *= 0.75 + e.rng.Float64()*0.5
	}
	return time.Duration(delay)
}

// sleep waits for d or until the context is done, whichever comes first.
func (e *Executor) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "deadline reached during backoff")
	case <-timer.C:
		return nil
	}
}

// ShouldFallback reports whether a terminal error from Execute warrants
// handing the task to a registered local fallback agent. Exhausted
// transient and rate-limit errors and provider-down conditions qualify;
// input errors and caller timeouts never do.
func ShouldFallback(err error) bool {
	switch errors.Classify(err) {
	case errors.ErrorTypeTransient, errors.ErrorTypeRateLimit, errors.ErrorTypeProviderDown:
		return true
	default:
		return false
	}
}

func isBreakerDenied(err error) bool {
	var appErr *errors.AppError
	if !errors.AsAppError(err, &appErr) {
		return false
	}
	return strings.Contains(appErr.Details, "breaker_open") ||
		strings.Contains(appErr.Message, "circuit breaker open")
}
