package citation_test

import (
	"context"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/inkwell-ai/inkwell/pkg/agent"
	"github.com/inkwell-ai/inkwell/pkg/agents/citation"
	"github.com/inkwell-ai/inkwell/pkg/provider"
	"github.com/inkwell-ai/inkwell/pkg/storage"
)

var _ = Describe("Rule-Based Fallback Formatter", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("should produce a non-empty bibliography from regex extraction alone", func() {
		fallback := citation.NewFallbackFormatter(nil, newLogger())
		task := agent.NewTask(agent.KindCitationFormatter, agent.Input{
			"documentContent": "Earlier work (Smith, 2021) showed this. See also (Doe & Roe, 2019).",
			"citationStyles":  "APA,IEEE",
		})

		Expect(fallback.Kind()).To(Equal(agent.KindCitationFormatter))
		Expect(fallback.Provider()).To(Equal(provider.Ollama))

		result, err := fallback.Execute(ctx, task)
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Data["ruleBased"]).To(Equal(true))

		bibs := result.Data["bibliographies"].([]citation.Bibliography)
		Expect(bibs).To(HaveLen(2))
		for _, bib := range bibs {
			Expect(bib.Entries).To(HaveLen(2))
			Expect(bib.Error).To(BeEmpty())
		}
	})

	It("should extract author and year into the records", func() {
		fallback := citation.NewFallbackFormatter(nil, newLogger())
		task := agent.NewTask(agent.KindCitationFormatter, agent.Input{
			"documentContent": "A finding (Smith, 2021) near https://doi.org/10.1234/abcd here.",
		})

		result, err := fallback.Execute(ctx, task)
		Expect(err).ToNot(HaveOccurred())

		citations := result.Data["citations"].([]storage.Citation)
		Expect(citations).To(HaveLen(1))
		Expect(citations[0].Authors).To(Equal("Smith"))
		Expect(citations[0].Year).To(Equal(2021))
	})
})

var _ = Describe("RenderBibliography", func() {
	citations := []storage.Citation{
		{Authors: "Zhang, W.", Title: "Zeta Methods", Year: 2020},
		{Authors: "Abbott, K.", Title: "Alpha Results", Year: 2021, DOI: "10.1/alpha"},
	}

	It("should alphabetize by first author surname", func() {
		entries := citation.RenderBibliography(citations, citation.StyleAPA)
		Expect(entries).To(HaveLen(2))
		Expect(entries[0]).To(HavePrefix("Abbott"))
		Expect(entries[1]).To(HavePrefix("Zhang"))
	})

	It("should append DOIs as resolvable links", func() {
		entries := citation.RenderBibliography(citations, citation.StyleAPA)
		Expect(entries[0]).To(ContainSubstring("https://doi.org/10.1/alpha"))
	})

	DescribeTable("style shapes",
		func(style citation.Style, marker string) {
			entries := citation.RenderBibliography(citations[:1], style)
			Expect(entries).To(HaveLen(1))
			Expect(entries[0]).To(ContainSubstring(marker))
		},
		Entry("APA parenthesized year", citation.StyleAPA, "(2020)"),
		Entry("MLA quoted title", citation.StyleMLA, "\"Zeta Methods.\""),
		Entry("Chicago year after author", citation.StyleChicago, "Zhang, W.. 2020."),
		Entry("IEEE quoted title with comma", citation.StyleIEEE, "\"Zeta Methods,\""),
		Entry("Harvard year no parens", citation.StyleHarvard, "Zhang, W. 2020,"),
	)

	It("should render placeholders for unknown fields", func() {
		entries := citation.RenderBibliography([]storage.Citation{{RawText: "[7]"}}, citation.StyleAPA)
		Expect(entries[0]).To(Equal("Unknown (n.d.). [7]."))
	})

	It("should keep one entry per line with no blank entries", func() {
		entries := citation.RenderBibliography(citations, citation.StyleHarvard)
		for _, e := range entries {
			Expect(strings.TrimSpace(e)).ToNot(BeEmpty())
			Expect(e).ToNot(ContainSubstring("\n"))
		}
	})
})
