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

// Package quality scores AI-generated analysis output across five
// independent dimensions and grades the result.
package quality

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inkwell-ai/inkwell/internal/errors"
	"github.com/inkwell-ai/inkwell/pkg/agent"
	"github.com/inkwell-ai/inkwell/pkg/ai/llm"
	"github.com/inkwell-ai/inkwell/pkg/provider"
	"github.com/inkwell-ai/inkwell/pkg/shared/logging"
)

// CheckResult is one dimension's verdict.
type CheckResult struct {
	Name    string   `json:"name"`
	Score   float64  `json:"score"`
	Issues  []string `json:"issues,omitempty"`
	Summary string   `json:"summary,omitempty"`
}

// Report is the full quality assessment.
type Report struct {
	OverallScore float64       `json:"overall_score"`
	Grade        string        `json:"grade"`
	Checks       []CheckResult `json:"checks"`
}

// subCheck describes one quality dimension and its weight in the overall
// score. Weights sum to 1.
type subCheck struct {
	name   string
	weight float64
	prompt string
}

var subChecks = []subCheck{
	{"accuracy", 0.30, "Assess whether the analysis is accurate with respect to the source material."},
	{"consistency", 0.20, "Assess whether the analysis is internally consistent, with no contradicting statements."},
	{"bias", 0.15, "Assess whether the analysis shows bias: unsupported value judgements or one-sided framing."},
	{"hallucination", 0.20, "Assess whether the analysis asserts facts that do not appear in the source material."},
	{"coherence", 0.15, "Assess whether the analysis is logically coherent: claims follow from stated evidence."},
}

// Grade maps an overall score onto a letter grade.
func Grade(score float64) string {
	switch {
	case score >= 0.9:
		return "A"
	case score >= 0.8:
		return "B"
	case score >= 0.7:
		return "C"
	case score >= 0.6:
		return "D"
	default:
		return "F"
	}
}

// Checker is the primary quality checker agent.
type Checker struct {
	prompter llm.Prompter
	log      *logrus.Logger
}

// NewChecker wires the agent.
func NewChecker(prompter llm.Prompter, log *logrus.Logger) *Checker {
	return &Checker{prompter: prompter, log: log}
}

func (c *Checker) Kind() agent.Kind {
	return agent.KindQualityChecker
}

func (c *Checker) Provider() provider.Name {
	return c.prompter.Provider()
}

func (c *Checker) Estimate(task *agent.Task) time.Duration {
	return 30 * time.Second
}

func (c *Checker) CanHandle(task *agent.Task) bool {
	return task.Input.OptionalString("itemId", "") != "" &&
		task.Input.OptionalString("content", "") != ""
}

const checkPromptTemplate = `%s

Content under review:
%s

Source material (may be empty):
%s

Reply with JSON only: {"score": 0.0-1.0, "issues": ["..."], "summary": "..."}.`

func (c *Checker) Execute(ctx context.Context, task *agent.Task) (*agent.Result, error) {
	itemID, err := task.Input.RequiredString("itemId")
	if err != nil {
		return nil, err
	}
	content, err := task.Input.RequiredString("content")
	if err != nil {
		return nil, err
	}
	if _, err := task.Input.OptionalEnum("checkType", "standard",
		"basic", "standard", "detailed", "comprehensive"); err != nil {
		return nil, err
	}
	sourceMaterial := task.Input.OptionalString("sourceContent", "")

	report, err := c.runChecks(ctx, content, sourceMaterial)
	if err != nil {
		return nil, err
	}

	return agent.NewSuccessResult(task, map[string]any{
		"itemId": itemID,
		"report": report,
	}), nil
}

// runChecks fans the five dimensions out in parallel. A retryable failure
// on any dimension propagates so the whole check is retried; a parse
// failure substitutes a neutral result for that dimension.
func (c *Checker) runChecks(ctx context.Context, content, sourceMaterial string) (*Report, error) {
	tasks := make([]agent.ParallelTask[CheckResult], len(subChecks))
	for i, check := range subChecks {
		check := check
		tasks[i] = func(ctx context.Context) (CheckResult, error) {
			return c.runCheck(ctx, check, content, sourceMaterial)
		}
	}

	results, errs := agent.RunParallel(ctx, 0, len(subChecks), tasks)
	report := &Report{}
	var weighted float64
	for i, err := range errs {
		if err != nil {
			if errors.IsRetryable(err) || errors.Classify(err) == errors.ErrorTypeTimeout {
				return nil, err
			}
			if c.log != nil {
				c.log.WithFields(logging.NewFields().
					Component("quality-checker").
					Operation(subChecks[i].name).
					Error(err).
					Fields()).Warn("sub-check unusable, substituting neutral score")
			}
			results[i] = CheckResult{
				Name:    subChecks[i].name,
				Score:   0.5,
				Issues:  []string{"check could not be completed: " + err.Error()},
				Summary: "neutral substitute",
			}
		}
		results[i].Name = subChecks[i].name
		results[i].Score = clamp01(results[i].Score)
		weighted += results[i].Score * subChecks[i].weight
		report.Checks = append(report.Checks, results[i])
	}

	report.OverallScore = weighted
	report.Grade = Grade(weighted)
	return report, nil
}

func (c *Checker) runCheck(ctx context.Context, check subCheck, content, sourceMaterial string) (CheckResult, error) {
	response, err := c.prompter.Prompt(ctx, fmt.Sprintf(checkPromptTemplate,
		check.prompt, truncate(content, 6000), truncate(sourceMaterial, 6000)))
	if err != nil {
		return CheckResult{}, err
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return CheckResult{}, errors.New(errors.ErrorTypeParse, "no JSON object in check response")
	}
	var result CheckResult
	if err := json.Unmarshal([]byte(response[start:end+1]), &result); err != nil {
		return CheckResult{}, errors.Wrap(err, errors.ErrorTypeParse, "decoding check response")
	}
	return result, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
