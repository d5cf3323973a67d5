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

package research

import (
	"context"
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

// Research modes. Each enabled mode contributes one query to the fan-out.
const (
	ModeFactVerification = "fact_verification"
	ModeRelatedPapers    = "related_papers"
	ModeTrendAnalysis    = "trend_analysis"
	ModeMethodology      = "methodology"
	ModeExpertOpinion    = "expert_opinion"
)

// Finding is the answer to one research query.
type Finding struct {
	Mode   string `json:"mode"`
	Query  string `json:"query"`
	Answer string `json:"answer,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Researcher runs external research over a paper's claims through a web
// research provider.
type Researcher struct {
	prompter llm.Prompter
	store    *storage.Store
	log      *logrus.Logger
}

// NewResearcher wires the agent. store may be nil.
func NewResearcher(prompter llm.Prompter, store *storage.Store, log *logrus.Logger) *Researcher {
	if store == nil {
		store = &storage.Store{}
	}
	return &Researcher{prompter: prompter, store: store, log: log}
}

func (r *Researcher) Kind() agent.Kind {
	return agent.KindPerplexityResearcher
}

func (r *Researcher) Provider() provider.Name {
	return r.prompter.Provider()
}

func (r *Researcher) Estimate(task *agent.Task) time.Duration {
	return time.Minute
}

func (r *Researcher) CanHandle(task *agent.Task) bool {
	return task.Input.OptionalString("paperId", "") != ""
}

func (r *Researcher) Execute(ctx context.Context, task *agent.Task) (*agent.Result, error) {
	paperID, err := task.Input.RequiredString("paperId")
	if err != nil {
		return nil, err
	}

	claims := r.resolveClaims(task)
	queries := r.buildQueries(task, claims)
	if len(queries) == 0 {
		return nil, errors.New(errors.ErrorTypeInput,
			"no research mode enabled and no abstract, topic, or claims to work from")
	}

	findings, err := r.runQueries(ctx, queries)
	if err != nil {
		return nil, err
	}

	synthesis := r.synthesize(ctx, findings)

	r.persist(ctx, paperID, synthesis)

	return agent.NewSuccessResult(task, map[string]any{
		"paperId":   paperID,
		"claims":    claims,
		"findings":  findings,
		"synthesis": synthesis,
	}), nil
}

// resolveClaims prefers caller-provided claims, then extracts from the
// abstract.
func (r *Researcher) resolveClaims(task *agent.Task) []Claim {
	if provided := task.Input.StringList("claims"); len(provided) > 0 {
		claims := make([]Claim, 0, len(provided))
		for _, text := range provided {
			claims = append(claims, Claim{Text: text, Score: ScoreSentence(text)})
		}
		if len(claims) > maxClaims {
			claims = claims[:maxClaims]
		}
		return claims
	}
	return ExtractClaims(task.Input.OptionalString("abstract", ""))
}

type researchQuery struct {
	mode  string
	query string
}

func (r *Researcher) buildQueries(task *agent.Task, claims []Claim) []researchQuery {
	topic := task.Input.OptionalString("topic", "")
	domain := task.Input.OptionalString("domain", topic)
	contextText := task.Input.OptionalString("context", "")
	methodology := task.Input.OptionalString("methodology", "")
	keywords := strings.Join(task.Input.StringList("keywords"), ", ")

	subject := topic
	if subject == "" {
		subject = keywords
	}

	var queries []researchQuery
	if task.Input.OptionalBool("verifyFacts", true) {
		for _, claim := range claims {
			queries = append(queries, researchQuery{
				mode:  ModeFactVerification,
				query: fmt.Sprintf("Verify this research claim against current literature: %q. %s", claim.Text, contextText),
			})
		}
	}
	if task.Input.OptionalBool("findRelated", false) && subject != "" {
		queries = append(queries, researchQuery{
			mode:  ModeRelatedPapers,
			query: fmt.Sprintf("Find recent academic papers about %s.", subject),
		})
	}
	if task.Input.OptionalBool("analyzeTrends", false) && domain != "" {
		queries = append(queries, researchQuery{
			mode:  ModeTrendAnalysis,
			query: fmt.Sprintf("Summarize current research trends in %s.", domain),
		})
	}
	if task.Input.OptionalBool("verifyMethodology", false) && methodology != "" {
		queries = append(queries, researchQuery{
			mode:  ModeMethodology,
			query: fmt.Sprintf("Assess this methodology against current best practice: %s", methodology),
		})
	}
	if task.Input.OptionalBool("expertOpinions", false) && subject != "" {
		queries = append(queries, researchQuery{
			mode:  ModeExpertOpinion,
			query: fmt.Sprintf("What do domain experts currently say about %s?", subject),
		})
	}
	return queries
}

// runQueries fans the queries out. Retryable errors propagate; anything
// else becomes a per-finding error entry.
func (r *Researcher) runQueries(ctx context.Context, queries []researchQuery) ([]Finding, error) {
	tasks := make([]agent.ParallelTask[string], len(queries))
	for i, q := range queries {
		q := q
		tasks[i] = func(ctx context.Context) (string, error) {
			return r.prompter.Prompt(ctx, q.query)
		}
	}

	answers, errs := agent.RunParallel(ctx, 0, 4, tasks)
	findings := make([]Finding, len(queries))
	for i := range queries {
		findings[i] = Finding{Mode: queries[i].mode, Query: queries[i].query}
		if errs[i] != nil {
			if errors.IsRetryable(errs[i]) || errors.Classify(errs[i]) == errors.ErrorTypeTimeout {
				return nil, errs[i]
			}
			findings[i].Error = errs[i].Error()
			continue
		}
		findings[i].Answer = answers[i]
	}
	return findings, nil
}

// synthesize asks the provider for a combined summary; on failure it
// degrades to joining the individual answers.
func (r *Researcher) synthesize(ctx context.Context, findings []Finding) string {
	var answers []string
	for _, f := range findings {
		if f.Answer != "" {
			answers = append(answers, fmt.Sprintf("[%s] %s", f.Mode, f.Answer))
		}
	}
	if len(answers) == 0 {
		return ""
	}

	prompt := "Synthesize these research findings into one short summary:\n\n" + strings.Join(answers, "\n\n")
	summary, err := r.prompter.Prompt(ctx, prompt)
	if err != nil {
		if r.log != nil {
			r.log.WithFields(logging.NewFields().
				Component("researcher").
				Operation("synthesize").
				Error(err).
				Fields()).Warn("synthesis failed, joining raw findings")
		}
		return strings.Join(answers, "\n\n")
	}
	return summary
}

func (r *Researcher) persist(ctx context.Context, paperID, synthesis string) {
	if r.store.Summaries == nil || synthesis == "" {
		return
	}
	record := storage.Summary{
		ID:          uuid.NewString(),
		PaperID:     paperID,
		SummaryType: "research",
		Content:     synthesis,
		WordCount:   len(strings.Fields(synthesis)),
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.store.Summaries.ReplaceForPaperType(ctx, paperID, "research", []storage.Summary{record}); err != nil && r.log != nil {
		r.log.WithFields(logging.NewFields().
			Component("researcher").
			Paper(paperID).
			Error(err).
			Fields()).Error("persisting research summary failed; result is unaffected")
	}
}
