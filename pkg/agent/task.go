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

// Package agent defines the contract every pipeline agent obeys and the
// shared execution machinery: task/result model, weakly typed input tree,
// fallback registry, bounded parallel fan-out, and the runner that wires
// retry and fallback around an agent invocation.
package agent

import (
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-ai/inkwell/pkg/provider"
)

// Kind enumerates the closed set of agent kinds.
type Kind string

const (
	KindPaperProcessor        Kind = "paper_processor"
	KindMetadataEnhancer      Kind = "metadata_enhancer"
	KindContentSummarizer     Kind = "content_summarizer"
	KindConceptExplainer      Kind = "concept_explainer"
	KindCitationFormatter     Kind = "citation_formatter"
	KindQualityChecker        Kind = "quality_checker"
	KindPerplexityResearcher  Kind = "perplexity_researcher"
	KindRelatedPaperDiscovery Kind = "related_paper_discovery"
)

// AllKinds lists every agent kind.
func AllKinds() []Kind {
	return []Kind{
		KindPaperProcessor,
		KindMetadataEnhancer,
		KindContentSummarizer,
		KindConceptExplainer,
		KindCitationFormatter,
		KindQualityChecker,
		KindPerplexityResearcher,
		KindRelatedPaperDiscovery,
	}
}

// ValidKind reports whether k is a known agent kind.
func ValidKind(k Kind) bool {
	for _, known := range AllKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Task is one unit of work for one agent. Immutable once created: it is
// consumed at most once by exactly one agent invocation.
type Task struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Input     Input     `json:"input"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTask creates a task with a fresh id.
func NewTask(kind Kind, input Input) *Task {
	return &Task{
		ID:        uuid.NewString(),
		Kind:      kind,
		Input:     input,
		CreatedAt: time.Now().UTC(),
	}
}

// Outcome is the terminal status of an agent invocation.
type Outcome string

const (
	OutcomeSuccess            Outcome = "success"
	OutcomeFailure            Outcome = "failure"
	OutcomeSuccessViaFallback Outcome = "success_via_fallback"
)

// Metrics describes how an invocation ran. Downstream consumers treat a
// fallback success exactly like a success; only these fields differ.
type Metrics struct {
	StartedAt            time.Time     `json:"started_at"`
	Duration             time.Duration `json:"duration"`
	Provider             provider.Name `json:"provider"`
	FallbackUsed         bool          `json:"fallback_used"`
	PrimaryFailureReason string        `json:"primary_failure_reason,omitempty"`
}

// Result is the immutable outcome of one agent invocation.
type Result struct {
	TaskID       string         `json:"task_id"`
	Outcome      Outcome        `json:"outcome"`
	Data         map[string]any `json:"data,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Metrics      Metrics        `json:"metrics"`
}

// Succeeded reports whether the invocation produced usable output,
// regardless of which agent produced it.
func (r *Result) Succeeded() bool {
	return r.Outcome == OutcomeSuccess || r.Outcome == OutcomeSuccessViaFallback
}

// NewSuccessResult builds a success result for a task.
func NewSuccessResult(task *Task, data map[string]any) *Result {
	return &Result{
		TaskID:  task.ID,
		Outcome: OutcomeSuccess,
		Data:    data,
	}
}

// NewFailureResult builds a failure result for a task.
func NewFailureResult(task *Task, err error) *Result {
	result := &Result{
		TaskID:  task.ID,
		Outcome: OutcomeFailure,
	}
	if err != nil {
		result.ErrorMessage = err.Error()
	}
	return result
}
