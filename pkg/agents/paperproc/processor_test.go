package paperproc_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/inkwell-ai/inkwell/internal/errors"
	"github.com/inkwell-ai/inkwell/pkg/agent"
	"github.com/inkwell-ai/inkwell/pkg/agents/paperproc"
	"github.com/inkwell-ai/inkwell/pkg/provider"
	"github.com/inkwell-ai/inkwell/pkg/storage"
)

func TestPaperProcessor(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Paper Processor Suite")
}

type fixedPrompter struct {
	answer string
	calls  int
}

func (p *fixedPrompter) Provider() provider.Name { return provider.OpenAI }

func (p *fixedPrompter) Prompt(ctx context.Context, prompt string) (string, error) {
	p.calls++
	return p.answer, nil
}

const rawPaper = `Introduction

This   paper    studies things.

Methods

We  did things carefully.

Results

Things happened.
`

var _ = Describe("Paper Processor Agent", func() {
	var (
		ctx    context.Context
		logger *logrus.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger = logrus.New()
		logger.SetLevel(logrus.FatalLevel)
	})

	It("should carve sections at headings and count words", func() {
		prompter := &fixedPrompter{}
		processor := paperproc.NewProcessor(prompter, nil, logger)
		task := agent.NewTask(agent.KindPaperProcessor, agent.Input{
			"paperId":    "p1",
			"rawContent": rawPaper,
		})

		result, err := processor.Execute(ctx, task)
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Data["sectionCount"]).To(Equal(3))
		Expect(result.Data["wordCount"]).To(BeNumerically(">", 0))
		Expect(prompter.calls).To(Equal(0), "standard mode makes no provider call")

		sections := result.Data["sections"].([]storage.PaperSection)
		Expect(sections[0].Title).To(Equal("Introduction"))
		Expect(sections[0].Content).To(ContainSubstring("This paper studies things."))
	})

	It("should accept textContent as the alternative content key", func() {
		processor := paperproc.NewProcessor(&fixedPrompter{}, nil, logger)
		task := agent.NewTask(agent.KindPaperProcessor, agent.Input{
			"paperId":     "p1",
			"textContent": "Just a body with no headings here.",
		})

		result, err := processor.Execute(ctx, task)
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Data["sectionCount"]).To(Equal(1))
	})

	It("should ask the provider for an overview in detailed mode", func() {
		prompter := &fixedPrompter{answer: "Three sections, empirical study."}
		processor := paperproc.NewProcessor(prompter, nil, logger)
		task := agent.NewTask(agent.KindPaperProcessor, agent.Input{
			"paperId":        "p1",
			"rawContent":     rawPaper,
			"processingMode": "detailed",
		})

		result, err := processor.Execute(ctx, task)
		Expect(err).ToNot(HaveOccurred())
		Expect(prompter.calls).To(Equal(1))
		Expect(result.Data["overview"]).To(Equal("Three sections, empirical study."))
	})

	It("should fail fast without content", func() {
		processor := paperproc.NewProcessor(&fixedPrompter{}, nil, logger)
		task := agent.NewTask(agent.KindPaperProcessor, agent.Input{"paperId": "p1"})

		Expect(processor.CanHandle(task)).To(BeFalse())
		_, err := processor.Execute(ctx, task)
		Expect(err).To(HaveOccurred())
		Expect(errors.Classify(err)).To(Equal(errors.ErrorTypeInput))
	})
})
