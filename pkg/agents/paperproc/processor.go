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

// Package paperproc turns raw paper text into structured content and
// sections.
package paperproc

import (
	"context"
	"regexp"
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

var headingPattern = regexp.MustCompile(`(?m)^\s*(?:\d+\.?\s*)?([A-Z][A-Za-z ]{2,60})\s*$`)

// Processor is the paper processor agent: normalizes raw content, carves
// sections at headings, and (in the deeper modes) asks the provider for a
// structural overview.
type Processor struct {
	prompter llm.Prompter
	store    *storage.Store
	log      *logrus.Logger
}

// NewProcessor wires the agent. store may be nil.
func NewProcessor(prompter llm.Prompter, store *storage.Store, log *logrus.Logger) *Processor {
	if store == nil {
		store = &storage.Store{}
	}
	return &Processor{prompter: prompter, store: store, log: log}
}

func (p *Processor) Kind() agent.Kind {
	return agent.KindPaperProcessor
}

func (p *Processor) Provider() provider.Name {
	return p.prompter.Provider()
}

func (p *Processor) Estimate(task *agent.Task) time.Duration {
	size := len(task.Input.OptionalString("rawContent", "")) +
		len(task.Input.OptionalString("textContent", ""))
	return 5*time.Second + time.Duration(size/4000)*time.Second
}

func (p *Processor) CanHandle(task *agent.Task) bool {
	if task.Input.OptionalString("paperId", "") == "" {
		return false
	}
	return task.Input.OptionalString("rawContent", "") != "" ||
		task.Input.OptionalString("textContent", "") != ""
}

func (p *Processor) Execute(ctx context.Context, task *agent.Task) (*agent.Result, error) {
	paperID, err := task.Input.RequiredString("paperId")
	if err != nil {
		return nil, err
	}
	raw, err := task.Input.FirstRequiredString("rawContent", "textContent")
	if err != nil {
		return nil, err
	}
	mode, err := task.Input.OptionalEnum("processingMode", "standard",
		"basic", "standard", "detailed", "full")
	if err != nil {
		return nil, err
	}

	content := normalize(raw)
	sections := carveSections(paperID, content)

	data := map[string]any{
		"paperId":        paperID,
		"processingMode": mode,
		"wordCount":      len(strings.Fields(content)),
		"sectionCount":   len(sections),
		"sections":       sections,
	}

	if mode == "detailed" || mode == "full" {
		overview, err := p.prompter.Prompt(ctx,
			"Give a one-paragraph structural overview of this paper:\n\n"+truncate(content, 24000))
		if err != nil {
			return nil, err
		}
		data["overview"] = strings.TrimSpace(overview)
	}

	p.persist(ctx, paperID, content, sections)

	return agent.NewSuccessResult(task, data), nil
}

// normalize collapses whitespace artifacts from PDF extraction while
// preserving line structure.
func normalize(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(lines, "\n")
}

func carveSections(paperID, content string) []storage.PaperSection {
	matches := headingPattern.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return []storage.PaperSection{{
			ID:      uuid.NewString(),
			PaperID: paperID,
			Title:   "body",
			Content: content,
		}}
	}

	var sections []storage.PaperSection
	for i, m := range matches {
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(content[m[1]:end])
		if body == "" {
			continue
		}
		sections = append(sections, storage.PaperSection{
			ID:       uuid.NewString(),
			PaperID:  paperID,
			Title:    strings.TrimSpace(content[m[2]:m[3]]),
			Content:  body,
			Position: len(sections),
		})
	}
	return sections
}

func (p *Processor) persist(ctx context.Context, paperID, content string, sections []storage.PaperSection) {
	if p.store.PaperContents != nil {
		record := storage.PaperContent{
			ID:        uuid.NewString(),
			PaperID:   paperID,
			Content:   content,
			WordCount: len(strings.Fields(content)),
			CreatedAt: time.Now().UTC(),
		}
		if err := p.store.PaperContents.ReplaceForPaper(ctx, paperID, []storage.PaperContent{record}); err != nil && p.log != nil {
			p.log.WithFields(logging.NewFields().
				Component("paper-processor").
				Paper(paperID).
				Error(err).
				Fields()).Error("persisting content failed; result is unaffected")
		}
	}
	if p.store.PaperSections != nil {
		if err := p.store.PaperSections.ReplaceForPaper(ctx, paperID, sections); err != nil && p.log != nil {
			p.log.WithFields(logging.NewFields().
				Component("paper-processor").
				Paper(paperID).
				Error(err).
				Fields()).Error("persisting sections failed; result is unaffected")
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
