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

package metrics

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
)

func TestMetrics(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Metrics Cardinality Protection Suite")
}

var _ = Describe("Cardinality Protection Helpers", func() {
	Context("SanitizeReason", func() {
		DescribeTable("should return known reasons unchanged",
			func(reason string) {
				Expect(SanitizeReason(reason)).To(Equal(reason))
			},
			Entry("breaker_open", ReasonBreakerOpen),
			Entry("no_permit", ReasonNoPermit),
			Entry("deadline", ReasonDeadline),
			Entry("rate_limited", ReasonRateLimited),
			Entry("transient", ReasonTransient),
			Entry("provider_down", ReasonProviderDown),
		)

		DescribeTable("should sanitize unknown reasons to 'unknown'",
			func(unknownReason string) {
				Expect(SanitizeReason(unknownReason)).To(Equal(ReasonUnknown))
			},
			Entry("free-form error text", "dial tcp 10.0.0.1:443: connect: connection refused"),
			Entry("empty string", ""),
			Entry("user input", "paperId=abc123"),
		)
	})

	Context("SanitizeOutcome", func() {
		It("should pass known outcomes through", func() {
			Expect(SanitizeOutcome(OutcomeSuccess)).To(Equal(OutcomeSuccess))
			Expect(SanitizeOutcome(OutcomeFailure)).To(Equal(OutcomeFailure))
			Expect(SanitizeOutcome(OutcomeSuccessFallback)).To(Equal(OutcomeSuccessFallback))
		})

		It("should collapse unknown outcomes", func() {
			Expect(SanitizeOutcome("partial")).To(Equal(ReasonUnknown))
		})
	})

	Context("NewProviderMetrics", func() {
		It("should register all collectors exactly once", func() {
			reg := prometheus.NewRegistry()
			m := NewProviderMetrics(reg)

			Expect(m.RequestsTotal).ToNot(BeNil())
			Expect(m.BreakerState).ToNot(BeNil())

			m.RequestsTotal.WithLabelValues("crossref", OutcomeSuccess).Inc()
			m.BreakerState.WithLabelValues("crossref").Set(0)

			families, err := reg.Gather()
			Expect(err).ToNot(HaveOccurred())
			Expect(len(families)).To(BeNumerically(">=", 2))
		})
	})
})
