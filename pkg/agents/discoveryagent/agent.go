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

// Package discoveryagent adapts the discovery coordinator to the agent
// contract: it extracts the source paper and configuration from the task,
// delegates the search, and persists the discovered papers and
// relationships.
package discoveryagent

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inkwell-ai/inkwell/internal/errors"
	"github.com/inkwell-ai/inkwell/pkg/agent"
	"github.com/inkwell-ai/inkwell/pkg/discovery"
	"github.com/inkwell-ai/inkwell/pkg/provider"
	"github.com/inkwell-ai/inkwell/pkg/shared/logging"
	"github.com/inkwell-ai/inkwell/pkg/storage"
)

// Agent is the related-paper discovery agent.
type Agent struct {
	coordinator *discovery.Coordinator
	store       *storage.Store
	defaults    discovery.Config
	log         *logrus.Logger
}

// New wires the agent. store may be nil; defaults back any task that does
// not carry its own configuration.
func New(coordinator *discovery.Coordinator, store *storage.Store, defaults discovery.Config, log *logrus.Logger) *Agent {
	if store == nil {
		store = &storage.Store{}
	}
	return &Agent{coordinator: coordinator, store: store, defaults: defaults, log: log}
}

func (a *Agent) Kind() agent.Kind {
	return agent.KindRelatedPaperDiscovery
}

// Provider reports the dominant external dependency for retry tuning; the
// coordinator itself gates each source on its own provider.
func (a *Agent) Provider() provider.Name {
	return provider.Crossref
}

func (a *Agent) Estimate(task *agent.Task) time.Duration {
	cfg := a.resolveConfig(task)
	return cfg.Timeout()
}

func (a *Agent) CanHandle(task *agent.Task) bool {
	return a.resolvePaperID(task) != ""
}

func (a *Agent) Execute(ctx context.Context, task *agent.Task) (*agent.Result, error) {
	paperID := a.resolvePaperID(task)
	if paperID == "" {
		return nil, errors.New(errors.ErrorTypeInput, "missing required field \"paperId\" (or nested paper.id)")
	}
	paper := a.resolvePaper(task, paperID)
	cfg := a.resolveConfig(task)

	result, err := a.coordinator.Discover(ctx, paper, cfg)
	if err != nil {
		return nil, err
	}

	a.persist(ctx, paperID, result)

	return agent.NewSuccessResult(task, map[string]any{
		"paperId":       paperID,
		"papers":        result.Papers,
		"totalFound":    result.TotalFound,
		"sourcesRun":    result.SourcesRun,
		"sourcesFailed": result.SourcesFailed,
		"elapsed":       result.Elapsed.String(),
	}), nil
}

func (a *Agent) resolvePaperID(task *agent.Task) string {
	if id := task.Input.OptionalString("paperId", ""); id != "" {
		return id
	}
	return task.Input.NestedString("paper.id")
}

func (a *Agent) resolvePaper(task *agent.Task, paperID string) discovery.SourcePaper {
	paper := discovery.SourcePaper{ID: paperID}
	read := func(key string) string {
		if v := task.Input.OptionalString(key, ""); v != "" {
			return v
		}
		return task.Input.NestedString("paper." + key)
	}
	paper.Title = read("title")
	paper.DOI = read("doi")
	paper.Venue = read("venue")
	paper.Abstract = read("abstract")
	paper.Year = task.Input.OptionalInt("year", 0)
	if authors := task.Input.StringList("authors"); len(authors) > 0 {
		paper.Authors = authors
	} else if nested, ok := task.Input.Child("paper"); ok {
		paper.Authors = nested.StringList("authors")
	}
	return paper
}

// resolveConfig layers, in increasing precedence: agent defaults, a named
// configurationType preset, an explicit configuration object, and flat
// overrides.
func (a *Agent) resolveConfig(task *agent.Task) discovery.Config {
	cfg := a.defaults
	if cfg.MaxTotalPapers == 0 {
		cfg = discovery.ComprehensiveConfig()
	}

	if name := task.Input.OptionalString("configurationType", ""); name != "" {
		if preset, ok := discovery.ConfigByName(strings.ToLower(name)); ok {
			cfg = preset
		}
	}

	if obj, ok := task.Input.Child("configuration"); ok {
		if sources := obj.StringList("enabledSources"); len(sources) > 0 {
			cfg.EnabledSources = sources
		}
		cfg.MaxPapersPerSource = obj.OptionalInt("maxPapersPerSource", cfg.MaxPapersPerSource)
		cfg.MaxTotalPapers = obj.OptionalInt("maxTotalPapers", cfg.MaxTotalPapers)
		cfg.MinRelevance = obj.OptionalFloat("minimumRelevanceScore", cfg.MinRelevance)
		cfg.TimeoutSeconds = obj.OptionalInt("timeoutSeconds", cfg.TimeoutSeconds)
		cfg.ParallelExecution = obj.OptionalBool("parallelExecution", cfg.ParallelExecution)
		cfg.AISynthesis = obj.OptionalBool("enableAISynthesis", cfg.AISynthesis)
	}

	cfg.MaxTotalPapers = task.Input.OptionalInt("maxTotalPapers", cfg.MaxTotalPapers)
	cfg.MinRelevance = task.Input.OptionalFloat("minimumRelevanceScore", cfg.MinRelevance)
	cfg.TimeoutSeconds = task.Input.OptionalInt("timeoutSeconds", cfg.TimeoutSeconds)
	cfg.ParallelExecution = task.Input.OptionalBool("parallelExecution", cfg.ParallelExecution)
	cfg.AISynthesis = task.Input.OptionalBool("enableAISynthesis", cfg.AISynthesis)
	if cfg.MaxPapersPerSource > cfg.MaxTotalPapers {
		cfg.MaxPapersPerSource = cfg.MaxTotalPapers
	}
	return cfg
}

// persist merges the run's candidates with previously discovered papers
// for the same source (by DOI, then normalized title) and replaces both
// tables transactionally. Failures are logged; the discovery result
// stands.
func (a *Agent) persist(ctx context.Context, paperID string, result *discovery.Result) {
	if a.store.DiscoveredPapers == nil {
		return
	}
	now := time.Now().UTC()

	existing, err := a.store.DiscoveredPapers.FindByPaperID(ctx, paperID)
	if err != nil {
		a.logPersistError(paperID, err)
		existing = nil
	}
	seen := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		seen[pairKey(p.DOI, p.Title)] = struct{}{}
	}

	rows := existing
	var relationships []storage.PaperRelationship
	for _, candidate := range result.Papers {
		key := pairKey(candidate.DOI, candidate.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		row := storage.DiscoveredPaper{
			ID:             uuid.NewString(),
			SourcePaperID:  paperID,
			Title:          candidate.Title,
			Authors:        strings.Join(candidate.Authors, "; "),
			Venue:          candidate.Venue,
			Year:           candidate.Year,
			DOI:            candidate.DOI,
			URL:            candidate.URL,
			CitationCount:  candidate.CitationCount,
			Source:         candidate.Source,
			RelevanceScore: candidate.RelevanceScore,
			CreatedAt:      now,
		}
		rows = append(rows, row)
		relationships = append(relationships, storage.PaperRelationship{
			ID:               uuid.NewString(),
			SourcePaperID:    paperID,
			RelatedPaperID:   row.ID,
			RelationshipType: candidate.RelationshipType,
			Strength:         candidate.RelevanceScore,
			CreatedAt:        now,
		})
	}

	if err := a.store.DiscoveredPapers.ReplaceForPaper(ctx, paperID, rows); err != nil {
		a.logPersistError(paperID, err)
		return
	}
	if a.store.PaperRelationships != nil {
		if existingRels, err := a.store.PaperRelationships.FindByPaperID(ctx, paperID); err == nil {
			relationships = append(existingRels, relationships...)
		}
		if err := a.store.PaperRelationships.ReplaceForPaper(ctx, paperID, relationships); err != nil {
			a.logPersistError(paperID, err)
		}
	}
}

func pairKey(doi, title string) string {
	if doi = strings.ToLower(strings.TrimSpace(doi)); doi != "" {
		return "doi:" + doi
	}
	return "title:" + discovery.NormalizeTitle(title)
}

func (a *Agent) logPersistError(paperID string, err error) {
	if a.log == nil {
		return
	}
	a.log.WithFields(logging.NewFields().
		Component("discovery-agent").
		Paper(paperID).
		Error(err).
		Fields()).Error("persisting discovery results failed; result is unaffected")
}
