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

// Package concepts explains the technical concepts of a paper at a chosen
// depth.
package concepts

import (
	"context"
	"encoding/json"
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

// Explanation is one explained concept.
type Explanation struct {
	Concept     string `json:"concept"`
	Explanation string `json:"explanation"`
}

var levelShapes = map[string]string{
	"basic":    "Explain for an undergraduate with no background in the field.",
	"standard": "Explain for a graduate student in an adjacent field.",
	"detailed": "Explain for a researcher, including assumptions and limitations.",
}

// Explainer is the concept explainer agent.
type Explainer struct {
	prompter llm.Prompter
	store    *storage.Store
	log      *logrus.Logger
}

// NewExplainer wires the agent. store may be nil.
func NewExplainer(prompter llm.Prompter, store *storage.Store, log *logrus.Logger) *Explainer {
	if store == nil {
		store = &storage.Store{}
	}
	return &Explainer{prompter: prompter, store: store, log: log}
}

func (e *Explainer) Kind() agent.Kind {
	return agent.KindConceptExplainer
}

func (e *Explainer) Provider() provider.Name {
	return e.prompter.Provider()
}

func (e *Explainer) Estimate(task *agent.Task) time.Duration {
	return 20 * time.Second
}

func (e *Explainer) CanHandle(task *agent.Task) bool {
	return task.Input.OptionalString("paperId", "") != "" &&
		task.Input.OptionalString("content", "") != ""
}

const explainPromptTemplate = `Identify the key technical concepts in this paper and explain each.
%s

Reply with a JSON array only: [{"concept": "...", "explanation": "..."}].

Paper content:
%s`

func (e *Explainer) Execute(ctx context.Context, task *agent.Task) (*agent.Result, error) {
	paperID, err := task.Input.RequiredString("paperId")
	if err != nil {
		return nil, err
	}
	content, err := task.Input.RequiredString("content")
	if err != nil {
		return nil, err
	}
	level, err := task.Input.OptionalEnum("explanationLevel", "standard", "basic", "standard", "detailed")
	if err != nil {
		return nil, err
	}

	response, err := e.prompter.Prompt(ctx, fmt.Sprintf(explainPromptTemplate, levelShapes[level], truncate(content, 24000)))
	if err != nil {
		return nil, err
	}

	explanations := parseExplanations(response)

	e.persist(ctx, paperID, explanations)

	return agent.NewSuccessResult(task, map[string]any{
		"paperId":          paperID,
		"explanationLevel": level,
		"explanations":     explanations,
	}), nil
}

// parseExplanations tolerates prose around the JSON; an unparseable reply
// degrades to one catch-all explanation rather than failing the task.
func parseExplanations(response string) []Explanation {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start >= 0 && end > start {
		var out []Explanation
		if err := json.Unmarshal([]byte(response[start:end+1]), &out); err == nil {
			return out
		}
	}
	return []Explanation{{Concept: "overview", Explanation: strings.TrimSpace(response)}}
}

func (e *Explainer) persist(ctx context.Context, paperID string, explanations []Explanation) {
	if e.store.Summaries == nil || len(explanations) == 0 {
		return
	}
	payload, err := json.Marshal(explanations)
	if err != nil {
		return
	}
	record := storage.Summary{
		ID:          uuid.NewString(),
		PaperID:     paperID,
		SummaryType: "concepts",
		Content:     string(payload),
		WordCount:   len(strings.Fields(string(payload))),
		CreatedAt:   time.Now().UTC(),
	}
	if err := e.store.Summaries.ReplaceForPaperType(ctx, paperID, "concepts", []storage.Summary{record}); err != nil && e.log != nil {
		e.log.WithFields(logging.NewFields().
			Component("concept-explainer").
			Paper(paperID).
			Error(err).
			Fields()).Error("persisting explanations failed; result is unaffected")
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
