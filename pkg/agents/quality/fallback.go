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

package quality

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inkwell-ai/inkwell/pkg/agent"
	"github.com/inkwell-ai/inkwell/pkg/provider"
)

// FallbackChecker grades content with simple textual heuristics when no
// AI provider is reachable: sentence length distribution, structural
// markers, and hedging/overclaiming term balance.
type FallbackChecker struct {
	log *logrus.Logger
}

// NewFallbackChecker wires the heuristic checker.
func NewFallbackChecker(log *logrus.Logger) *FallbackChecker {
	return &FallbackChecker{log: log}
}

func (c *FallbackChecker) Kind() agent.Kind {
	return agent.KindQualityChecker
}

func (c *FallbackChecker) Provider() provider.Name {
	return provider.Ollama
}

func (c *FallbackChecker) Estimate(task *agent.Task) time.Duration {
	return time.Second
}

func (c *FallbackChecker) CanHandle(task *agent.Task) bool {
	return task.Input.OptionalString("itemId", "") != "" &&
		task.Input.OptionalString("content", "") != ""
}

var overclaimTerms = []string{"proves", "definitely", "always", "never", "guarantees", "undoubtedly"}

var structureMarkers = []string{"introduction", "method", "result", "conclusion", "summary"}

func (c *FallbackChecker) Execute(ctx context.Context, task *agent.Task) (*agent.Result, error) {
	itemID, err := task.Input.RequiredString("itemId")
	if err != nil {
		return nil, err
	}
	content, err := task.Input.RequiredString("content")
	if err != nil {
		return nil, err
	}

	report := HeuristicReport(content)
	return agent.NewSuccessResult(task, map[string]any{
		"itemId":    itemID,
		"report":    report,
		"heuristic": true,
	}), nil
}

// HeuristicReport runs the rule-based checks and assembles a graded
// report shaped identically to the AI path's.
func HeuristicReport(content string) *Report {
	readability := sentenceLengthScore(content)
	structure := structureScore(content)
	tone := toneScore(content)

	checks := []CheckResult{
		{Name: "readability", Score: readability, Summary: "average sentence length heuristic"},
		{Name: "structure", Score: structure, Summary: "section marker presence heuristic"},
		{Name: "tone", Score: tone, Summary: "overclaiming term heuristic"},
	}
	overall := readability*0.4 + structure*0.3 + tone*0.3
	return &Report{
		OverallScore: overall,
		Grade:        Grade(overall),
		Checks:       checks,
	}
}

// sentenceLengthScore prefers sentences in the 8-30 word range.
func sentenceLengthScore(content string) float64 {
	sentences := splitSentences(content)
	if len(sentences) == 0 {
		return 0
	}
	good := 0
	for _, s := range sentences {
		words := len(strings.Fields(s))
		if words >= 8 && words <= 30 {
			good++
		}
	}
	return float64(good) / float64(len(sentences))
}

func structureScore(content string) float64 {
	lower := strings.ToLower(content)
	found := 0
	for _, marker := range structureMarkers {
		if strings.Contains(lower, marker) {
			found++
		}
	}
	return float64(found) / float64(len(structureMarkers))
}

func toneScore(content string) float64 {
	lower := strings.ToLower(content)
	hits := 0
	for _, term := range overclaimTerms {
		hits += strings.Count(lower, term)
	}
	words := len(strings.Fields(content))
	if words == 0 {
		return 0
	}
	penalty := float64(hits) / float64(words) * 50
	if penalty > 1 {
		penalty = 1
	}
	return 1 - penalty
}

func splitSentences(content string) []string {
	var out []string
	for _, s := range strings.FieldsFunc(content, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
