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

// Package discovery finds papers related to a source paper by running
// independent discovery strategies across external scholarly APIs in
// parallel, then merging, scoring, and ranking the candidates under a
// joint deadline.
package discovery

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Strategy names accepted in Config.EnabledSources.
const (
	SourceCitationNetwork    = "citation_network"
	SourceAuthorNetwork      = "author_network"
	SourceVenueNetwork       = "venue_network"
	SourceSemanticSimilarity = "semantic_similarity"
	SourceOpenEndedResearch  = "open_ended_research"
)

// KnownSources lists every discovery strategy.
func KnownSources() []string {
	return []string{
		SourceCitationNetwork,
		SourceAuthorNetwork,
		SourceVenueNetwork,
		SourceSemanticSimilarity,
		SourceOpenEndedResearch,
	}
}

// Config controls one discovery run.
type Config struct {
	EnabledSources     []string `json:"enabled_sources" validate:"required,min=1"`
	MaxPapersPerSource int      `json:"max_papers_per_source" validate:"gt=0,lte=100"`
	MaxTotalPapers     int      `json:"max_total_papers" validate:"gt=0,lte=500"`
	MinRelevance       float64  `json:"min_relevance" validate:"gte=0,lte=1"`
	TimeoutSeconds     int      `json:"timeout_seconds" validate:"gt=0,lte=600"`
	ParallelExecution  bool     `json:"parallel_execution"`
	AISynthesis        bool     `json:"ai_synthesis"`
}

// Timeout returns the joint deadline for the run.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Named configuration presets.

// ComprehensiveConfig enables every strategy with generous limits.
func ComprehensiveConfig() Config {
	return Config{
		EnabledSources:     KnownSources(),
		MaxPapersPerSource: 20,
		MaxTotalPapers:     50,
		MinRelevance:       0.55,
		TimeoutSeconds:     120,
		ParallelExecution:  true,
		AISynthesis:        true,
	}
}

// FastConfig trades coverage for latency.
func FastConfig() Config {
	return Config{
		EnabledSources:     []string{SourceCitationNetwork, SourceSemanticSimilarity},
		MaxPapersPerSource: 10,
		MaxTotalPapers:     20,
		MinRelevance:       0.6,
		TimeoutSeconds:     30,
		ParallelExecution:  true,
		AISynthesis:        false,
	}
}

// CitationConfig restricts discovery to the citation graph.
func CitationConfig() Config {
	return Config{
		EnabledSources:     []string{SourceCitationNetwork},
		MaxPapersPerSource: 25,
		MaxTotalPapers:     25,
		MinRelevance:       0.5,
		TimeoutSeconds:     60,
		ParallelExecution:  true,
		AISynthesis:        false,
	}
}

// ConfigByName resolves a preset name.
func ConfigByName(name string) (Config, bool) {
	switch name {
	case "comprehensive":
		return ComprehensiveConfig(), true
	case "fast":
		return FastConfig(), true
	case "citation":
		return CitationConfig(), true
	default:
		return Config{}, false
	}
}

var validate = validator.New()

// Validate returns the list of problems with the config, empty when valid.
func (c Config) Validate() []string {
	var problems []string
	if err := validate.Struct(c); err != nil {
		if fieldErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrors {
				problems = append(problems, fmt.Sprintf("field %s failed %s validation", fe.Field(), fe.Tag()))
			}
		} else {
			problems = append(problems, err.Error())
		}
	}
	known := make(map[string]struct{}, len(KnownSources()))
	for _, s := range KnownSources() {
		known[s] = struct{}{}
	}
	for _, s := range c.EnabledSources {
		if _, ok := known[s]; !ok {
			problems = append(problems, fmt.Sprintf("unknown discovery source %q", s))
		}
	}
	if c.MaxPapersPerSource > c.MaxTotalPapers {
		problems = append(problems, "max_papers_per_source cannot exceed max_total_papers")
	}
	return problems
}
