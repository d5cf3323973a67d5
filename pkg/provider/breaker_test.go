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
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestProvider(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Provider Admission Control Suite")
}

// fakeClock drives breaker cool-down expiry without sleeping.
type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time {
	return c.current
}

func (c *fakeClock) advance(d time.Duration) {
	c.current = c.current.Add(d)
}

var _ = Describe("Circuit Breaker State Machine", func() {
	var (
		breaker *CircuitBreaker
		clock   *fakeClock
	)

	BeforeEach(func() {
		clock = &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
		breaker = NewCircuitBreaker("test-provider", BreakerConfig{
			FailureThreshold: 5,
			CoolDown:         time.Minute,
			ProbeMax:         3,
		})
		breaker.now = clock.now
	})

	Context("closed state", func() {
		It("should initialize closed and allow requests", func() {
			Expect(breaker.State()).To(Equal(BreakerClosed))
			Expect(breaker.AllowRequest()).To(BeTrue())
		})

		It("should stay closed below the failure threshold", func() {
			for i := 0; i < 4; i++ {
				breaker.RecordFailure()
			}
			Expect(breaker.State()).To(Equal(BreakerClosed))
			Expect(breaker.AllowRequest()).To(BeTrue())
			Expect(breaker.ConsecutiveFailures()).To(Equal(4))
		})

		It("should open after exactly threshold consecutive failures", func() {
			for i := 0; i < 5; i++ {
				breaker.RecordFailure()
			}
			Expect(breaker.State()).To(Equal(BreakerOpen))
			Expect(breaker.AllowRequest()).To(BeFalse())
		})

		It("should reset the failure streak on success", func() {
			for i := 0; i < 4; i++ {
				breaker.RecordFailure()
			}
			breaker.RecordSuccess()
			Expect(breaker.ConsecutiveFailures()).To(Equal(0))

			for i := 0; i < 4; i++ {
				breaker.RecordFailure()
			}
			Expect(breaker.State()).To(Equal(BreakerClosed))
		})
	})

	Context("open state", func() {
		BeforeEach(func() {
			for i := 0; i < 5; i++ {
				breaker.RecordFailure()
			}
			Expect(breaker.State()).To(Equal(BreakerOpen))
		})

		It("should deny all requests before the cool down elapses", func() {
			clock.advance(59 * time.Second)
			Expect(breaker.AllowRequest()).To(BeFalse())
		})

		It("should admit a probe once the cool down elapses", func() {
			clock.advance(time.Minute)
			Expect(breaker.AllowRequest()).To(BeTrue())
			Expect(breaker.State()).To(Equal(BreakerHalfOpen))
		})

		It("should restart the window when a straggler failure lands while open", func() {
			clock.advance(50 * time.Second)
			breaker.RecordFailure()
			clock.advance(30 * time.Second)
			Expect(breaker.AllowRequest()).To(BeFalse())
		})
	})

	Context("half-open state", func() {
		BeforeEach(func() {
			for i := 0; i < 5; i++ {
				breaker.RecordFailure()
			}
			clock.advance(time.Minute)
			Expect(breaker.AllowRequest()).To(BeTrue())
		})

		It("should bound concurrent probes at probeMax", func() {
			// One probe slot is held from BeforeEach.
			Expect(breaker.AllowRequest()).To(BeTrue())
			Expect(breaker.AllowRequest()).To(BeTrue())
			Expect(breaker.AllowRequest()).To(BeFalse())
		})

		It("should close on a single probe success", func() {
			breaker.RecordSuccess()
			Expect(breaker.State()).To(Equal(BreakerClosed))
			Expect(breaker.ConsecutiveFailures()).To(Equal(0))
		})

		It("should reopen on a single probe failure and reset openedAt", func() {
			breaker.RecordFailure()
			Expect(breaker.State()).To(Equal(BreakerOpen))

			clock.advance(30 * time.Second)
			Expect(breaker.AllowRequest()).To(BeFalse())
			clock.advance(30 * time.Second)
			Expect(breaker.AllowRequest()).To(BeTrue())
		})

		It("should return probe slots via CancelProbe", func() {
			Expect(breaker.AllowRequest()).To(BeTrue())
			Expect(breaker.AllowRequest()).To(BeTrue())
			Expect(breaker.AllowRequest()).To(BeFalse())

			breaker.CancelProbe()
			Expect(breaker.AllowRequest()).To(BeTrue())
		})
	})

	Context("manual reset", func() {
		It("should force the breaker closed", func() {
			for i := 0; i < 5; i++ {
				breaker.RecordFailure()
			}
			Expect(breaker.State()).To(Equal(BreakerOpen))

			breaker.Reset()
			Expect(breaker.State()).To(Equal(BreakerClosed))
			Expect(breaker.AllowRequest()).To(BeTrue())
		})
	})
})
