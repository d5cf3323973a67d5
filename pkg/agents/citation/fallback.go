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
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inkwell-ai/inkwell/internal/errors"
	"github.com/inkwell-ai/inkwell/pkg/agent"
	"github.com/inkwell-ai/inkwell/pkg/provider"
	"github.com/inkwell-ai/inkwell/pkg/shared/logging"
	"github.com/inkwell-ai/inkwell/pkg/storage"
)

var (
	fallbackAuthorYear = regexp.MustCompile(`([A-Z][\w'-]+(?:\s+(?:and|&)\s+[A-Z][\w'-]+)?(?:\s+et\s+al\.?)?)\s*,?\s*\(?(\d{4})\)?`)
	fallbackDOI        = regexp.MustCompile(`\b10\.\d{4,9}/[-._;()/:a-zA-Z0-9]+`)
	fallbackURL        = regexp.MustCompile(`https?://[^\s)\]]+`)
	// "Smith J. Paper title. Journal X, 2021." reference-list shape
	fallbackRefTitle = regexp.MustCompile(`^[^.]+\.\s+([^.]+)\.`)
)

// FallbackFormatter renders bibliographies deterministically from regex
// extraction alone. It is the local fallback for the citation formatter
// and never calls a provider.
type FallbackFormatter struct {
	store *storage.Store
	log   *logrus.Logger
}

// NewFallbackFormatter wires the rule-based formatter.
func NewFallbackFormatter(store *storage.Store, log *logrus.Logger) *FallbackFormatter {
	if store == nil {
		store = &storage.Store{}
	}
	return &FallbackFormatter{store: store, log: log}
}

func (f *FallbackFormatter) Kind() agent.Kind {
	return agent.KindCitationFormatter
}

func (f *FallbackFormatter) Provider() provider.Name {
	return provider.Ollama
}

func (f *FallbackFormatter) Estimate(task *agent.Task) time.Duration {
	return time.Second
}

func (f *FallbackFormatter) CanHandle(task *agent.Task) bool {
	return task.Input.OptionalString("documentContent", "") != "" ||
		task.Input.OptionalString("paperId", "") != ""
}

func (f *FallbackFormatter) Execute(ctx context.Context, task *agent.Task) (*agent.Result, error) {
	paperID := task.Input.OptionalString("paperId", "")
	content := task.Input.OptionalString("documentContent", "")
	if content == "" {
		return nil, errors.New(errors.ErrorTypeInput, "fallback formatter requires documentContent")
	}
	styles := ParseStyles(task.Input.StringList("citationStyles"))

	raws := ExtractCitations(content)
	citations := make([]storage.Citation, 0, len(raws))
	now := time.Now().UTC()
	for _, raw := range raws {
		record := ruleBasedRecord(raw)
		record.ID = uuid.NewString()
		record.PaperID = paperID
		record.CreatedAt = now
		citations = append(citations, record)
	}

	bibliographies := make([]Bibliography, 0, len(styles))
	for _, style := range styles {
		bibliographies = append(bibliographies, Bibliography{
			Style:   style,
			Entries: RenderBibliography(citations, style),
		})
	}

	if f.store.Citations != nil && paperID != "" {
		if err := f.store.Citations.ReplaceForPaper(ctx, paperID, citations); err != nil && f.log != nil {
			f.log.WithFields(logging.NewFields().
				Component("citation-fallback").
				Paper(paperID).
				Error(err).
				Fields()).Error("persisting citations failed; result is unaffected")
		}
	}

	return agent.NewSuccessResult(task, map[string]any{
		"rawCitationCount": len(raws),
		"citations":        citations,
		"bibliographies":   bibliographies,
		"ruleBased":        true,
	}), nil
}

// ruleBasedRecord extracts author, year, doi, url, and title from one raw
// match and its surrounding context.
func ruleBasedRecord(raw RawCitation) storage.Citation {
	record := storage.Citation{
		RawText:    raw.Text,
		Section:    raw.Section,
		Type:       "unknown",
		Confidence: 0.4,
	}

	if m := fallbackAuthorYear.FindStringSubmatch(raw.Text); m != nil {
		record.Authors = m[1]
		record.Year, _ = strconv.Atoi(m[2])
	} else if m := fallbackAuthorYear.FindStringSubmatch(raw.Context); m != nil {
		record.Authors = m[1]
		record.Year, _ = strconv.Atoi(m[2])
	}
	if m := fallbackDOI.FindString(raw.Context); m != "" {
		record.DOI = strings.TrimRight(m, ".")
	}
	if m := fallbackURL.FindString(raw.Context); m != "" && record.DOI == "" {
		record.DOI = strings.TrimRight(m, ".,")
		record.Type = "web"
	}
	if raw.Section == SectionReferences {
		if m := fallbackRefTitle.FindStringSubmatch(raw.Context); m != nil {
			record.Title = strings.TrimSpace(m[1])
		}
	}
	return record
}

// RenderBibliography renders citations in one style, one entry per line,
// alphabetized by first author surname.
func RenderBibliography(citations []storage.Citation, style Style) []string {
	sorted := make([]storage.Citation, len(citations))
	copy(sorted, citations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sortKey(sorted[i]) < sortKey(sorted[j])
	})

	entries := make([]string, 0, len(sorted))
	for _, c := range sorted {
		entries = append(entries, renderEntry(c, style))
	}
	return entries
}

func sortKey(c storage.Citation) string {
	author := strings.ToLower(strings.TrimSpace(c.Authors))
	if author == "" {
		return "\xff" + strings.ToLower(c.RawText)
	}
	if comma := strings.Index(author, ","); comma > 0 {
		return author[:comma]
	}
	parts := strings.Fields(author)
	return parts[len(parts)-1]
}

func renderEntry(c storage.Citation, style Style) string {
	author := c.Authors
	if author == "" {
		author = "Unknown"
	}
	title := c.Title
	if title == "" {
		title = c.RawText
	}
	year := ""
	if c.Year > 0 {
		year = strconv.Itoa(c.Year)
	} else {
		year = "n.d."
	}

	var entry string
	switch style {
	case StyleMLA:
		entry = fmt.Sprintf("%s. \"%s.\" %s.", author, title, year)
	case StyleChicago:
		entry = fmt.Sprintf("%s. %s. \"%s.\"", author, year, title)
	case StyleIEEE:
		entry = fmt.Sprintf("%s, \"%s,\" %s.", author, title, year)
	case StyleHarvard:
		entry = fmt.Sprintf("%s %s, %s.", author, year, title)
	default: // APA
		entry = fmt.Sprintf("%s (%s). %s.", author, year, title)
	}
	if c.DOI != "" && !strings.HasPrefix(c.DOI, "http") {
		entry += " https://doi.org/" + c.DOI
	} else if c.DOI != "" {
		entry += " " + c.DOI
	}
	return entry
}
