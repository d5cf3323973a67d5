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

package citation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inkwell-ai/inkwell/internal/errors"
	"github.com/inkwell-ai/inkwell/pkg/agent"
	"github.com/inkwell-ai/inkwell/pkg/ai/llm"
	"github.com/inkwell-ai/inkwell/pkg/provider"
	"github.com/inkwell-ai/inkwell/pkg/shared/logging"
	"github.com/inkwell-ai/inkwell/pkg/storage"
)

// Style is a bibliography citation style.
type Style string

const (
	StyleAPA     Style = "APA"
	StyleMLA     Style = "MLA"
	StyleChicago Style = "Chicago"
	StyleIEEE    Style = "IEEE"
	StyleHarvard Style = "Harvard"
)

// KnownStyles lists the supported styles.
func KnownStyles() []Style {
	return []Style{StyleAPA, StyleMLA, StyleChicago, StyleIEEE, StyleHarvard}
}

// ParseStyles maps requested style names onto the known set, ignoring
// unknowns. An empty request defaults to APA.
func ParseStyles(names []string) []Style {
	var out []Style
	for _, name := range names {
		for _, known := range KnownStyles() {
			if strings.EqualFold(name, string(known)) {
				out = append(out, known)
				break
			}
		}
	}
	if len(out) == 0 {
		out = []Style{StyleAPA}
	}
	return out
}

// Bibliography is the rendered output for one style. A style-level failure
// is carried in Error rather than failing the whole task.
type Bibliography struct {
	Style   Style    `json:"style"`
	Entries []string `json:"entries,omitempty"`
	Error   string   `json:"error,omitempty"`
}

const (
	structureBatchSize = 5
	structureWorkers   = 3
)

// Formatter is the primary citation formatter agent: regex extraction, AI
// structuring in batches, AI bibliography rendering per style.
type Formatter struct {
	prompter llm.Prompter
	store    *storage.Store
	log      *logrus.Logger
}

// NewFormatter wires the agent. store may have a nil citation repository,
// which disables persistence.
func NewFormatter(prompter llm.Prompter, store *storage.Store, log *logrus.Logger) *Formatter {
	if store == nil {
		store = &storage.Store{}
	}
	return &Formatter{prompter: prompter, store: store, log: log}
}

func (f *Formatter) Kind() agent.Kind {
	return agent.KindCitationFormatter
}

func (f *Formatter) Provider() provider.Name {
	return f.prompter.Provider()
}

func (f *Formatter) Estimate(task *agent.Task) time.Duration {
	size := len(task.Input.OptionalString("documentContent", ""))
	return 10*time.Second + time.Duration(size/2000)*time.Second
}

func (f *Formatter) CanHandle(task *agent.Task) bool {
	return task.Input.OptionalString("documentContent", "") != "" ||
		task.Input.OptionalString("paperId", "") != ""
}

func (f *Formatter) Execute(ctx context.Context, task *agent.Task) (*agent.Result, error) {
	content, paperID, err := f.resolveContent(ctx, task)
	if err != nil {
		return nil, err
	}
	styles := ParseStyles(task.Input.StringList("citationStyles"))

	raws := ExtractCitations(content)
	citations, err := f.structureAll(ctx, paperID, raws)
	if err != nil {
		return nil, err
	}

	bibliographies := f.formatAll(ctx, citations, styles)

	f.persist(ctx, paperID, citations)

	return agent.NewSuccessResult(task, map[string]any{
		"rawCitationCount": len(raws),
		"citations":        citations,
		"bibliographies":   bibliographies,
	}), nil
}

func (f *Formatter) resolveContent(ctx context.Context, task *agent.Task) (content, paperID string, err error) {
	paperID = task.Input.OptionalString("paperId", "")
	content = task.Input.OptionalString("documentContent", "")
	if content != "" {
		return content, paperID, nil
	}
	if paperID == "" {
		return "", "", errors.New(errors.ErrorTypeInput, "missing required field \"documentContent\" or \"paperId\"")
	}
	if f.store.PaperContents == nil {
		return "", "", errors.New(errors.ErrorTypeInput, "paperId given but no content store available")
	}
	stored, err := f.store.PaperContents.FindByPaperID(ctx, paperID)
	if err != nil {
		return "", "", err
	}
	if len(stored) == 0 {
		return "", "", errors.Newf(errors.ErrorTypeInput, "no stored content for paper %s", paperID)
	}
	return stored[0].Content, paperID, nil
}

// structuredEntry is one element of the AI structuring response. Index
// refers back to the input ordering within the batch, so a dropped or
// reordered reply can never enrich the wrong record.
type structuredEntry struct {
	Index      *int     `json:"index"`
	Authors    []string `json:"authors"`
	Title      string   `json:"title"`
	Venue      string   `json:"venue"`
	Year       int      `json:"year"`
	Volume     string   `json:"volume"`
	Issue      string   `json:"issue"`
	Pages      string   `json:"pages"`
	DOI        string   `json:"doi"`
	Type       string   `json:"type"`
	Confidence float64  `json:"confidence"`
}

const structurePromptTemplate = `Extract structured bibliographic data from these citation fragments.

%s

Reply with a JSON array only. For fragment i include
{"index": i, "authors": ["..."], "title": "...", "venue": "...", "year": 2020,
 "volume": "...", "issue": "...", "pages": "...", "doi": "...", "type": "article",
 "confidence": 0.0-1.0}.
Every field except index is optional; omit what cannot be determined. No prose.`

// structureAll builds one minimal record per raw citation, then enriches
// the records batch by batch through the AI provider. A retryable batch
// failure propagates so the whole operation is retried; parse failures
// leave the affected batch minimal.
func (f *Formatter) structureAll(ctx context.Context, paperID string, raws []RawCitation) ([]storage.Citation, error) {
	citations := make([]storage.Citation, len(raws))
	now := time.Now().UTC()
	for i, raw := range raws {
		citations[i] = storage.Citation{
			ID:         uuid.NewString(),
			PaperID:    paperID,
			RawText:    raw.Text,
			Section:    raw.Section,
			Type:       "unknown",
			Confidence: 0.2,
			CreatedAt:  now,
		}
	}
	if len(raws) == 0 {
		return citations, nil
	}

	batches := agent.Partition(raws, structureBatchSize)
	tasks := make([]agent.ParallelTask[[]structuredEntry], len(batches))
	for i, batch := range batches {
		batch := batch
		tasks[i] = func(ctx context.Context) ([]structuredEntry, error) {
			return f.structureBatch(ctx, batch)
		}
	}

	results, errs := agent.RunParallel(ctx, 0, structureWorkers, tasks)
	for i, err := range errs {
		if err == nil {
			f.enrich(citations, i*structureBatchSize, len(batches[i]), results[i])
			continue
		}
		if errors.IsRetryable(err) || errors.Classify(err) == errors.ErrorTypeTimeout {
			return nil, err
		}
		// Non-retryable: this batch keeps its minimal records.
		if f.log != nil {
			f.log.WithFields(logging.NewFields().
				Component("citation-formatter").
				Operation("structure").
				Error(err).
				Fields()).Warn("citation batch could not be structured, keeping minimal records")
		}
	}
	return citations, nil
}

func (f *Formatter) structureBatch(ctx context.Context, batch []RawCitation) ([]structuredEntry, error) {
	var fragments strings.Builder
	for i, raw := range batch {
		fmt.Fprintf(&fragments, "%d: %s\n   context: %s\n", i, raw.Text, raw.Context)
	}
	response, err := f.prompter.Prompt(ctx, fmt.Sprintf(structurePromptTemplate, fragments.String()))
	if err != nil {
		return nil, err
	}

	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start < 0 || end <= start {
		return nil, errors.New(errors.ErrorTypeParse, "no JSON array in structuring response")
	}
	var entries []structuredEntry
	if err := json.Unmarshal([]byte(response[start:end+1]), &entries); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "decoding structuring response")
	}
	return entries, nil
}

// enrich applies a batch's structured entries onto the pre-built records.
// Entries with a missing or out-of-range index are dropped; the raw text
// already lives on the record, so nothing can be mis-attributed.
func (f *Formatter) enrich(citations []storage.Citation, batchStart, batchLen int, entries []structuredEntry) {
	for _, entry := range entries {
		if entry.Index == nil || *entry.Index < 0 || *entry.Index >= batchLen {
			continue
		}
		record := &citations[batchStart+*entry.Index]
		record.Authors = strings.Join(entry.Authors, "; ")
		record.Title = entry.Title
		record.Venue = entry.Venue
		record.Year = entry.Year
		record.Volume = entry.Volume
		record.Issue = entry.Issue
		record.Pages = entry.Pages
		record.DOI = entry.DOI
		if entry.Type != "" {
			record.Type = entry.Type
		}
		if entry.Confidence > 0 {
			record.Confidence = entry.Confidence
		}
	}
}

const formatPromptTemplate = `Render the following citations as a %s bibliography.
One entry per line, alphabetized by first author surname. No numbering, no prose.

%s`

// formatAll renders one bibliography per requested style. Styles render in
// parallel; a style-level failure becomes an error bibliography.
func (f *Formatter) formatAll(ctx context.Context, citations []storage.Citation, styles []Style) []Bibliography {
	payload, _ := json.Marshal(citations)

	tasks := make([]agent.ParallelTask[[]string], len(styles))
	for i, style := range styles {
		style := style
		tasks[i] = func(ctx context.Context) ([]string, error) {
			response, err := f.prompter.Prompt(ctx, fmt.Sprintf(formatPromptTemplate, style, payload))
			if err != nil {
				return nil, err
			}
			return nonEmptyLines(response), nil
		}
	}

	results, errs := agent.RunParallel(ctx, 0, len(styles), tasks)
	out := make([]Bibliography, len(styles))
	for i, style := range styles {
		if errs[i] != nil {
			out[i] = Bibliography{Style: style, Error: errs[i].Error()}
			continue
		}
		out[i] = Bibliography{Style: style, Entries: results[i]}
	}
	return out
}

func (f *Formatter) persist(ctx context.Context, paperID string, citations []storage.Citation) {
	if f.store.Citations == nil || paperID == "" {
		return
	}
	if err := f.store.Citations.ReplaceForPaper(ctx, paperID, citations); err != nil && f.log != nil {
		f.log.WithFields(logging.NewFields().
			Component("citation-formatter").
			Paper(paperID).
			Error(err).
			Fields()).Error("persisting citations failed; result is unaffected")
	}
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
