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

// Package metadata enriches a paper's bibliographic metadata with
// keywords, categories, and summary tags.
package metadata

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

// Enhancement is the structured enrichment produced for a paper.
type Enhancement struct {
	Keywords    []string `json:"keywords,omitempty"`
	Categories  []string `json:"categories,omitempty"`
	SummaryTags []string `json:"summary_tags,omitempty"`
	Confidence  float64  `json:"confidence,omitempty"`
}

// Enhancer is the metadata enhancer agent.
type Enhancer struct {
	prompter llm.Prompter
	store    *storage.Store
	log      *logrus.Logger
}

// NewEnhancer wires the agent. store may be nil.
func NewEnhancer(prompter llm.Prompter, store *storage.Store, log *logrus.Logger) *Enhancer {
	if store == nil {
		store = &storage.Store{}
	}
	return &Enhancer{prompter: prompter, store: store, log: log}
}

func (e *Enhancer) Kind() agent.Kind {
	return agent.KindMetadataEnhancer
}

func (e *Enhancer) Provider() provider.Name {
	return e.prompter.Provider()
}

func (e *Enhancer) Estimate(task *agent.Task) time.Duration {
	return 15 * time.Second
}

func (e *Enhancer) CanHandle(task *agent.Task) bool {
	return task.Input.OptionalString("paperId", "") != "" &&
		task.Input.OptionalString("title", "") != ""
}

const enhancePromptTemplate = `Enrich the metadata of this academic paper.
Requested enrichment: %s

Title: %s
Authors: %s
DOI: %s

Reply with JSON only:
{"keywords": ["..."], "categories": ["..."], "summary_tags": ["..."], "confidence": 0.0-1.0}.
Include only the requested sections.`

func (e *Enhancer) Execute(ctx context.Context, task *agent.Task) (*agent.Result, error) {
	paperID, err := task.Input.RequiredString("paperId")
	if err != nil {
		return nil, err
	}
	title, err := task.Input.RequiredString("title")
	if err != nil {
		return nil, err
	}
	enhancementType, err := task.Input.OptionalEnum("enhancementType", "full",
		"keywords", "categories", "summary_tags", "full")
	if err != nil {
		return nil, err
	}
	doi := task.Input.OptionalString("doi", "")
	authors := strings.Join(task.Input.StringList("authors"), "; ")

	response, err := e.prompter.Prompt(ctx, fmt.Sprintf(enhancePromptTemplate,
		enhancementType, title, authors, doi))
	if err != nil {
		return nil, err
	}

	enhancement, err := parseEnhancement(response)
	if err != nil {
		return nil, err
	}

	e.persist(ctx, paperID, enhancement)

	return agent.NewSuccessResult(task, map[string]any{
		"paperId":         paperID,
		"enhancementType": enhancementType,
		"enhancement":     enhancement,
	}), nil
}

func parseEnhancement(response string) (*Enhancement, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return nil, errors.New(errors.ErrorTypeParse, "no JSON object in enhancement response")
	}
	var enhancement Enhancement
	if err := json.Unmarshal([]byte(response[start:end+1]), &enhancement); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "decoding enhancement response")
	}
	return &enhancement, nil
}

// persist writes verification rows for each enriched field and tags for
// the keywords. Failures are logged and do not affect the result.
func (e *Enhancer) persist(ctx context.Context, paperID string, enhancement *Enhancement) {
	now := time.Now().UTC()

	if e.store.MetadataVerifications != nil {
		var rows []storage.MetadataVerification
		appendRows := func(field string, values []string) {
			for _, value := range values {
				rows = append(rows, storage.MetadataVerification{
					ID:         uuid.NewString(),
					PaperID:    paperID,
					Source:     "ai_enhancement",
					Field:      field,
					Value:      value,
					Confidence: enhancement.Confidence,
					CreatedAt:  now,
				})
			}
		}
		appendRows("keyword", enhancement.Keywords)
		appendRows("category", enhancement.Categories)
		appendRows("summary_tag", enhancement.SummaryTags)
		if err := e.store.MetadataVerifications.ReplaceForPaper(ctx, paperID, rows); err != nil && e.log != nil {
			e.log.WithFields(logging.NewFields().
				Component("metadata-enhancer").
				Paper(paperID).
				Error(err).
				Fields()).Error("persisting metadata verifications failed; result is unaffected")
		}
	}

	if e.store.Tags != nil && e.store.PaperTags != nil {
		var links []storage.PaperTag
		for _, keyword := range enhancement.Keywords {
			tag := storage.Tag{
				ID:   uuid.NewString(),
				Name: strings.ToLower(strings.TrimSpace(keyword)),
				Kind: "keyword",
			}
			if tag.Name == "" {
				continue
			}
			if existing, err := e.store.Tags.FindByName(ctx, tag.Name); err == nil && existing != nil {
				tag = *existing
			} else if err := e.store.Tags.Save(ctx, tag); err != nil {
				continue
			}
			links = append(links, storage.PaperTag{PaperID: paperID, TagID: tag.ID})
		}
		if err := e.store.PaperTags.ReplaceForPaper(ctx, paperID, links); err != nil && e.log != nil {
			e.log.WithFields(logging.NewFields().
				Component("metadata-enhancer").
				Paper(paperID).
				Error(err).
				Fields()).Error("persisting paper tags failed; result is unaffected")
		}
	}
}
