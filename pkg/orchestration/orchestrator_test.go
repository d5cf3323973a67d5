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

package orchestration_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/inkwell-ai/inkwell/internal/errors"
	"github.com/inkwell-ai/inkwell/pkg/agent"
	"github.com/inkwell-ai/inkwell/pkg/orchestration"
	"github.com/inkwell-ai/inkwell/pkg/provider"
	"github.com/inkwell-ai/inkwell/pkg/retry"
)

func TestOrchestration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Orchestrator Suite")
}

type echoAgent struct {
	kind agent.Kind
	fail bool
}

func (a *echoAgent) Kind() agent.Kind                  { return a.kind }
func (a *echoAgent) Provider() provider.Name           { return provider.Ollama }
func (a *echoAgent) Estimate(*agent.Task) time.Duration { return time.Second }
func (a *echoAgent) CanHandle(*agent.Task) bool        { return true }

func (a *echoAgent) Execute(ctx context.Context, task *agent.Task) (*agent.Result, error) {
	if a.fail {
		return nil, errors.NewInputError("scripted failure")
	}
	return agent.NewSuccessResult(task, map[string]any{"echo": string(task.Kind)}), nil
}

var _ = Describe("Orchestrator", func() {
	var (
		logger *logrus.Logger
		orch   *orchestration.Orchestrator
	)

	BeforeEach(func() {
		logger = logrus.New()
		logger.SetLevel(logrus.FatalLevel)

		providers := provider.NewRegistry(nil, provider.DefaultBreakerConfig(), nil, logger)
		retryExec := retry.NewExecutor(retry.DefaultConfig(), nil, logger)
		orch = orchestration.New(providers, retryExec, nil, logger,
			&echoAgent{kind: agent.KindContentSummarizer},
			&echoAgent{kind: agent.KindQualityChecker, fail: true},
		)
	})

	It("should dispatch to the agent registered for the task kind", func() {
		task := agent.NewTask(agent.KindContentSummarizer, agent.Input{})
		result := orch.Dispatch(context.Background(), task)

		Expect(result.Outcome).To(Equal(agent.OutcomeSuccess))
		Expect(result.Data["echo"]).To(Equal("content_summarizer"))
	})

	It("should surface agent failures in the result", func() {
		task := agent.NewTask(agent.KindQualityChecker, agent.Input{})
		result := orch.Dispatch(context.Background(), task)

		Expect(result.Outcome).To(Equal(agent.OutcomeFailure))
		Expect(result.ErrorMessage).To(ContainSubstring("scripted failure"))
	})

	It("should fail unknown kinds as input errors", func() {
		task := agent.NewTask(agent.Kind("astrologer"), agent.Input{})
		result := orch.Dispatch(context.Background(), task)

		Expect(result.Outcome).To(Equal(agent.OutcomeFailure))
		Expect(result.ErrorMessage).To(ContainSubstring("unknown agent kind"))
	})

	It("should fail unregistered kinds as input errors", func() {
		task := agent.NewTask(agent.KindCitationFormatter, agent.Input{})
		result := orch.Dispatch(context.Background(), task)

		Expect(result.Outcome).To(Equal(agent.OutcomeFailure))
		Expect(result.ErrorMessage).To(ContainSubstring("no agent registered"))
	})

	It("should list registered agents in canonical order", func() {
		Expect(orch.Agents()).To(Equal([]agent.Kind{
			agent.KindContentSummarizer,
			agent.KindQualityChecker,
		}))
	})

	It("should reset provider breakers on demand", func() {
		Expect(orch.ResetProvider(provider.Crossref)).To(Succeed())
		Expect(orch.ResetProvider(provider.Name("nope"))).ToNot(Succeed())
	})

	It("should hot-swap provider rates", func() {
		Expect(orch.UpdateProviderRate(provider.Crossref, 10, 10)).To(Succeed())
		stats := orch.ProviderStats()
		for _, s := range stats {
			if s.Provider == provider.Crossref {
				Expect(s.Rate).To(Equal(float64(10)))
			}
		}
	})
})
