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

package discovery

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inkwell-ai/inkwell/internal/errors"
	"github.com/inkwell-ai/inkwell/pkg/agent"
	"github.com/inkwell-ai/inkwell/pkg/shared/logging"
)

// Source is one discovery strategy over one external API. Discover must
// honour ctx, but the coordinator's deadline holds even if it does not:
// the join abandons stragglers at expiry.
type Source interface {
	Name() string
	Discover(ctx context.Context, source SourcePaper, cfg Config) ([]Candidate, error)
}

// Result is the merged outcome of one discovery run. Partial success is
// success: failed or timed-out sources are recorded, not fatal.
type Result struct {
	SourcePaperID string        `json:"source_paper_id"`
	Papers        []Candidate   `json:"papers"`
	SourcesRun    []string      `json:"sources_run"`
	SourcesFailed []string      `json:"sources_failed"`
	TotalFound    int           `json:"total_found"`
	Elapsed       time.Duration `json:"elapsed"`
}

// Coordinator fans enabled sources out over the shared pool, merges their
// candidates, scores, dedupes, and ranks.
type Coordinator struct {
	sources     map[string]Source
	concurrency int
	log         *logrus.Logger
}

// NewCoordinator registers the available source adapters.
func NewCoordinator(log *logrus.Logger, sources ...Source) *Coordinator {
	m := make(map[string]Source, len(sources))
	for _, s := range sources {
		m[s.Name()] = s
	}
	return &Coordinator{sources: m, concurrency: 8, log: log}
}

// Discover runs one discovery pass. Config problems are an input error;
// after validation the run always returns a result: sources that fail,
// time out, or see a cancelled context are listed in SourcesFailed.
func (c *Coordinator) Discover(ctx context.Context, paper SourcePaper, cfg Config) (*Result, error) {
	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, errors.Newf(errors.ErrorTypeInput, "invalid discovery configuration: %v", problems)
	}

	start := time.Now()
	enabled := make([]Source, 0, len(cfg.EnabledSources))
	var enabledNames []string
	for _, name := range cfg.EnabledSources {
		if s, ok := c.sources[name]; ok {
			enabled = append(enabled, s)
			enabledNames = append(enabledNames, name)
		} else if c.log != nil {
			c.log.WithFields(logging.NewFields().
				Component("discovery").
				Operation(name).
				Fields()).Warn("no adapter registered for enabled source")
		}
	}

	concurrency := c.concurrency
	if !cfg.ParallelExecution {
		concurrency = 1
	}

	tasks := make([]agent.ParallelTask[[]Candidate], len(enabled))
	for i, s := range enabled {
		s := s
		tasks[i] = func(ctx context.Context) ([]Candidate, error) {
			return s.Discover(ctx, paper, cfg)
		}
	}

	lists, errs := agent.RunParallel(ctx, cfg.Timeout(), concurrency, tasks)

	result := &Result{
		SourcePaperID: paper.ID,
		SourcesRun:    enabledNames,
	}
	var merged []Candidate
	for i, list := range lists {
		if errs[i] != nil {
			result.SourcesFailed = append(result.SourcesFailed, enabled[i].Name())
			if c.log != nil {
				c.log.WithFields(logging.NewFields().
					Component("discovery").
					Operation(enabled[i].Name()).
					Error(errs[i]).
					Fields()).Warn("discovery source failed, continuing without it")
			}
			continue
		}
		if len(list) > cfg.MaxPapersPerSource {
			list = list[:cfg.MaxPapersPerSource]
		}
		merged = append(merged, list...)
	}
	result.TotalFound = len(merged)

	kept := merged[:0]
	for _, candidate := range merged {
		if candidate.Title == "" || candidate.matchesSource(paper) {
			continue
		}
		candidate.RelevanceScore = Relevance(candidate, paper)
		if candidate.RelevanceScore < cfg.MinRelevance {
			continue
		}
		kept = append(kept, candidate)
	}

	kept = Dedupe(kept)
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].RelevanceScore > kept[j].RelevanceScore
	})
	if len(kept) > cfg.MaxTotalPapers {
		kept = kept[:cfg.MaxTotalPapers]
	}

	result.Papers = kept
	result.Elapsed = time.Since(start)
	return result, nil
}
