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

// Package summarizer produces paper summaries at configurable depth.
package summarizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inkwell-ai/inkwell/pkg/agent"
	"github.com/inkwell-ai/inkwell/pkg/ai/llm"
	"github.com/inkwell-ai/inkwell/pkg/provider"
	"github.com/inkwell-ai/inkwell/pkg/shared/logging"
	"github.com/inkwell-ai/inkwell/pkg/storage"
)

// Target lengths per summary type.
var summaryShapes = map[string]string{
	"brief":    "Write a 2-3 sentence summary.",
	"standard": "Write a one-paragraph summary of roughly 150 words.",
	"detailed": "Write a structured summary of roughly 400 words covering goal, method, results, and limitations.",
}

// Summarizer is the content summarizer agent.
type Summarizer struct {
	prompter llm.Prompter
	store    *storage.Store
	log      *logrus.Logger
}

// NewSummarizer wires the agent. store may be nil.
func NewSummarizer(prompter llm.Prompter, store *storage.Store, log *logrus.Logger) *Summarizer {
	if store == nil {
		store = &storage.Store{}
	}
	return &Summarizer{prompter: prompter, store: store, log: log}
}

func (s *Summarizer) Kind() agent.Kind {
	return agent.KindContentSummarizer
}

func (s *Summarizer) Provider() provider.Name {
	return s.prompter.Provider()
}

func (s *Summarizer) Estimate(task *agent.Task) time.Duration {
	return 20 * time.Second
}

func (s *Summarizer) CanHandle(task *agent.Task) bool {
	return task.Input.OptionalString("paperId", "") != "" &&
		task.Input.OptionalString("textContent", "") != ""
}

func (s *Summarizer) Execute(ctx context.Context, task *agent.Task) (*agent.Result, error) {
	paperID, err := task.Input.RequiredString("paperId")
	if err != nil {
		return nil, err
	}
	text, err := task.Input.RequiredString("textContent")
	if err != nil {
		return nil, err
	}
	summaryType, err := task.Input.OptionalEnum("summaryType", "standard", "brief", "standard", "detailed")
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf("%s\n\nPaper text:\n%s", summaryShapes[summaryType], truncate(text, 24000))
	summary, err := s.prompter.Prompt(ctx, prompt)
	if err != nil {
		return nil, err
	}
	summary = strings.TrimSpace(summary)

	s.persist(ctx, paperID, summaryType, summary)

	return agent.NewSuccessResult(task, map[string]any{
		"paperId":     paperID,
		"summaryType": summaryType,
		"summary":     summary,
		"wordCount":   len(strings.Fields(summary)),
	}), nil
}

func (s *Summarizer) persist(ctx context.Context, paperID, summaryType, summary string) {
	if s.store.Summaries == nil || summary == "" {
		return
	}
	record := storage.Summary{
		ID:          uuid.NewString(),
		PaperID:     paperID,
		SummaryType: summaryType,
		Content:     summary,
		WordCount:   len(strings.Fields(summary)),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.Summaries.ReplaceForPaperType(ctx, paperID, summaryType, []storage.Summary{record}); err != nil && s.log != nil {
		s.log.WithFields(logging.NewFields().
			Component("summarizer").
			Paper(paperID).
			Error(err).
			Fields()).Error("persisting summary failed; result is unaffected")
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
