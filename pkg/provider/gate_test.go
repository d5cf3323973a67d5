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
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/inkwell-ai/inkwell/internal/errors"
)

func newTestGate(quota Quota, breakerCfg BreakerConfig) *Gate {
	log := logrus.New()
	log.SetLevel(logrus.FatalLevel)
	return NewGate(Crossref, quota, breakerCfg, nil, log)
}

var _ = Describe("Provider Gate", func() {
	Context("rate limit admission", func() {
		It("should grant at most rate+burst permits in one second", func() {
			gate := newTestGate(Quota{RequestsPerSecond: 10, Burst: 5}, DefaultBreakerConfig())

			var granted int64
			var wg sync.WaitGroup
			deadline := time.Now().Add(time.Second)
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for time.Now().Before(deadline) {
						if gate.TryAcquire() {
							atomic.AddInt64(&granted, 1)
							gate.RecordSuccess(time.Millisecond)
						}
					}
				}()
			}
			wg.Wait()

			// Bucket starts full (burst) and refills at the sustained rate.
			// Allow slack for scheduler timing.
			Expect(granted).To(BeNumerically("<=", 5+10+3))
		})

		It("should deny immediately when no permit is available", func() {
			gate := newTestGate(Quota{RequestsPerSecond: 0.1, Burst: 1}, DefaultBreakerConfig())

			Expect(gate.TryAcquire()).To(BeTrue())
			gate.RecordSuccess(time.Millisecond)
			Expect(gate.TryAcquire()).To(BeFalse())
		})

		It("should serialize blocking acquisitions at the sustained rate", func() {
			// Scaled-down version of the perplexity scenario: 4 permits/s,
			// burst 1, 3 concurrent callers. The second and third grants
			// each wait ~250ms.
			gate := newTestGate(Quota{RequestsPerSecond: 4, Burst: 1}, DefaultBreakerConfig())

			start := time.Now()
			var wg sync.WaitGroup
			for i := 0; i < 3; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					Expect(gate.Acquire(ctx)).To(Succeed())
					gate.RecordSuccess(time.Millisecond)
				}()
			}
			wg.Wait()
			elapsed := time.Since(start)

			Expect(elapsed).To(BeNumerically(">=", 450*time.Millisecond))
			stats := gate.Stats()
			Expect(stats.Usage.SuccessfulRequests).To(Equal(int64(3)))
			Expect(stats.Usage.TotalWaitTime).To(BeNumerically(">", 0))
		})

		It("should return a timeout error when the deadline passes while waiting", func() {
			gate := newTestGate(Quota{RequestsPerSecond: 0.1, Burst: 1}, DefaultBreakerConfig())
			Expect(gate.TryAcquire()).To(BeTrue())
			gate.RecordSuccess(time.Millisecond)

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			err := gate.Acquire(ctx)
			Expect(err).To(HaveOccurred())
			Expect(errors.Classify(err)).To(Equal(errors.ErrorTypeTimeout))
		})
	})

	Context("breaker integration", func() {
		It("should deny admission while the breaker is open", func() {
			gate := newTestGate(Quota{RequestsPerSecond: 100, Burst: 100}, BreakerConfig{
				FailureThreshold: 5,
				CoolDown:         time.Minute,
				ProbeMax:         3,
			})

			for i := 0; i < 5; i++ {
				Expect(gate.TryAcquire()).To(BeTrue())
				gate.RecordFailure(errors.NewTransientError(nil, "upstream 503"), time.Millisecond)
			}

			Expect(gate.BreakerState()).To(Equal(BreakerOpen))
			Expect(gate.TryAcquire()).To(BeFalse())

			err := gate.Acquire(context.Background())
			Expect(err).To(HaveOccurred())
			Expect(errors.Classify(err)).To(Equal(errors.ErrorTypeRateLimit))
		})

		It("should admit one probe after the cool down and recover on success", func() {
			gate := newTestGate(Quota{RequestsPerSecond: 100, Burst: 100}, BreakerConfig{
				FailureThreshold: 5,
				CoolDown:         100 * time.Millisecond,
				ProbeMax:         1,
			})

			for i := 0; i < 5; i++ {
				Expect(gate.TryAcquire()).To(BeTrue())
				gate.RecordFailure(errors.NewTransientError(nil, "upstream 503"), time.Millisecond)
			}
			Expect(gate.TryAcquire()).To(BeFalse())

			time.Sleep(120 * time.Millisecond)
			Expect(gate.TryAcquire()).To(BeTrue())
			Expect(gate.TryAcquire()).To(BeFalse(), "probe slots are bounded")

			gate.RecordSuccess(time.Millisecond)
			Expect(gate.BreakerState()).To(Equal(BreakerClosed))
			Expect(gate.TryAcquire()).To(BeTrue())
		})

		It("should not trip the breaker on client-side errors", func() {
			gate := newTestGate(Quota{RequestsPerSecond: 100, Burst: 100}, DefaultBreakerConfig())

			for i := 0; i < 10; i++ {
				Expect(gate.TryAcquire()).To(BeTrue())
				gate.RecordFailure(errors.NewInputError("malformed task"), time.Millisecond)
			}

			Expect(gate.BreakerState()).To(Equal(BreakerClosed))
			Expect(gate.TryAcquire()).To(BeTrue())
		})
	})

	Context("permit and record pairing", func() {
		It("should account every permit with exactly one terminal record", func() {
			gate := newTestGate(Quota{RequestsPerSecond: rate.Inf, Burst: 1}, DefaultBreakerConfig())

			const workers = 20
			const perWorker = 25
			var wg sync.WaitGroup
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < perWorker; i++ {
						if !gate.TryAcquire() {
							continue
						}
						if (w+i)%3 == 0 {
							gate.RecordFailure(errors.NewInputError("client error"), time.Microsecond)
						} else {
							gate.RecordSuccess(time.Microsecond)
						}
					}
				}(w)
			}
			wg.Wait()

			stats := gate.Stats()
			Expect(stats.Usage.TotalRequests).To(Equal(stats.Usage.SuccessfulRequests + stats.Usage.FailedRequests))
		})
	})

	Context("rate updates", func() {
		It("should hot-swap the sustained rate", func() {
			gate := newTestGate(Quota{RequestsPerSecond: 0.1, Burst: 1}, DefaultBreakerConfig())
			Expect(gate.TryAcquire()).To(BeTrue())
			gate.RecordSuccess(time.Millisecond)
			Expect(gate.TryAcquire()).To(BeFalse())

			gate.UpdateRate(1000, 100)
			time.Sleep(10 * time.Millisecond)
			Expect(gate.TryAcquire()).To(BeTrue())
			gate.RecordSuccess(time.Millisecond)

			stats := gate.Stats()
			Expect(stats.Rate).To(Equal(float64(1000)))
			Expect(stats.Burst).To(Equal(100))
		})
	})
})

var _ = Describe("Provider Registry", func() {
	It("should build a gate for every known provider", func() {
		log := logrus.New()
		log.SetLevel(logrus.FatalLevel)
		registry := NewRegistry(nil, DefaultBreakerConfig(), nil, log)

		for _, name := range All() {
			gate, err := registry.Gate(name)
			Expect(err).ToNot(HaveOccurred())
			Expect(gate).ToNot(BeNil())
		}
		Expect(registry.Stats()).To(HaveLen(len(All())))
	})

	It("should reject unknown providers", func() {
		log := logrus.New()
		log.SetLevel(logrus.FatalLevel)
		registry := NewRegistry(nil, DefaultBreakerConfig(), nil, log)

		_, err := registry.Gate("acme_llm")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unknown provider"))
	})
})
