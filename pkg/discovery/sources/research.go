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

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/inkwell-ai/inkwell/internal/errors"
	"github.com/inkwell-ai/inkwell/pkg/ai/llm"
	"github.com/inkwell-ai/inkwell/pkg/discovery"
)

// OpenEndedResearchSource asks a web research provider for related work
// in natural language and parses the structured reply. The prompter is
// already gate-guarded, so this adapter performs no admission control of
// its own.
type OpenEndedResearchSource struct {
	prompter llm.Prompter
	log      *logrus.Logger
}

// NewOpenEndedResearchSource wraps a guarded research prompter.
func NewOpenEndedResearchSource(prompter llm.Prompter, log *logrus.Logger) *OpenEndedResearchSource {
	return &OpenEndedResearchSource{prompter: prompter, log: log}
}

func (s *OpenEndedResearchSource) Name() string {
	return discovery.SourceOpenEndedResearch
}

const researchPromptTemplate = `Find academic papers closely related to the following paper.

Title: %s
Authors: %s
Abstract: %s

Reply with a JSON array only. Each element must have the shape
{"title": "...", "authors": ["..."], "venue": "...", "year": 2020, "doi": "...", "url": "..."}.
List at most %d papers. Omit unknown fields. No prose outside the JSON.`

type researchPaper struct {
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	Venue   string   `json:"venue"`
	Year    int      `json:"year"`
	DOI     string   `json:"doi"`
	URL     string   `json:"url"`
}

func (s *OpenEndedResearchSource) Discover(ctx context.Context, paper discovery.SourcePaper, cfg discovery.Config) ([]discovery.Candidate, error) {
	prompt := fmt.Sprintf(researchPromptTemplate,
		paper.Title,
		strings.Join(paper.Authors, "; "),
		truncateText(paper.Abstract, 1200),
		cfg.MaxPapersPerSource,
	)

	response, err := s.prompter.Prompt(ctx, prompt)
	if err != nil {
		return nil, err
	}

	papers, err := parseResearchPapers(response)
	if err != nil {
		return nil, err
	}

	out := make([]discovery.Candidate, 0, len(papers))
	for _, p := range papers {
		out = append(out, discovery.Candidate{
			Title:            p.Title,
			Authors:          p.Authors,
			Venue:            p.Venue,
			Year:             p.Year,
			DOI:              p.DOI,
			URL:              p.URL,
			Source:           s.Name(),
			RelationshipType: "ai_recommended",
		})
	}
	return out, nil
}

// parseResearchPapers tolerates prose around the JSON array.
func parseResearchPapers(response string) ([]researchPaper, error) {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start < 0 || end <= start {
		return nil, errors.New(errors.ErrorTypeParse, "no JSON array in research response")
	}
	var papers []researchPaper
	if err := json.Unmarshal([]byte(response[start:end+1]), &papers); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "decoding research response")
	}
	return papers, nil
}

func truncateText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
