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

// Package research extracts verifiable claims from paper abstracts and
// runs external research queries over them.
package research

import (
	"regexp"
	"sort"
	"strings"
)

// Claim is one abstract sentence judged to be a verifiable research
// assertion, with its heuristic score.
type Claim struct {
	Text  string `json:"text"`
	Score int    `json:"score"`
}

// Scoring weights. A sentence qualifies as a claim at or above the
// threshold; the top maxClaims by score are kept.
const (
	findingWeight     = 4
	statisticalWeight = 3
	quantWeight       = 3
	comparativeWeight = 2
	certaintyWeight   = 2

	backgroundPenalty  = 3
	methodologyPenalty = 3
	futureWorkPenalty  = 3
	lengthPenalty      = 2

	claimThreshold = 3
	maxClaims      = 5

	longSentenceChars   = 200
	longSentenceClauses = 3
)

var (
	findingTerms = []string{
		"we found", "we find", "we show", "we demonstrate", "results show",
		"results indicate", "findings suggest", "demonstrates", "reveals",
		"found that", "showed that", "observed that",
	}
	statisticalTerms = []string{
		"significant", "p <", "p<", "p =", "p=", "correlation", "confidence interval",
		"statistically", "variance", "regression", "effect size",
	}
	comparativeCausalTerms = []string{
		"outperform", "better than", "worse than", "compared to", "compared with",
		"relative to", "causes", "caused by", "leads to", "results in",
		"improvement", "reduction", "increase", "decrease",
	}
	certaintyTerms = []string{
		"clearly", "strongly", "robust", "consistently", "conclusively", "substantial",
	}
	backgroundTerms = []string{
		"previous work", "prior studies", "prior work", "it is known", "has been studied",
		"literature", "recent years", "traditionally",
	}
	methodologyTerms = []string{
		"we used", "we use", "we conducted", "we collected", "we applied",
		"the dataset", "participants were", "procedure", "is described",
	}
	futureWorkTerms = []string{
		"future work", "future research", "further research", "remains to be",
		"could be explored",
	}

	quantPattern    = regexp.MustCompile(`\d+(?:\.\d+)?\s*%|\b\d+(?:\.\d+)?\b|\bfold\b`)
	sentenceSplit   = regexp.MustCompile(`(?:[.!?])\s+|\n+`)
	clauseSeparator = regexp.MustCompile(`[,;:]`)
)

// ScoreSentence applies the claim heuristic to one sentence.
func ScoreSentence(sentence string) int {
	text := strings.TrimSpace(sentence)
	if text == "" {
		return 0
	}
	lower := strings.ToLower(text)
	score := 0

	if containsAny(lower, findingTerms) {
		score += findingWeight
	}
	if containsAny(lower, statisticalTerms) {
		score += statisticalWeight
	}
	if quantPattern.MatchString(lower) {
		score += quantWeight
	}
	if containsAny(lower, comparativeCausalTerms) {
		score += comparativeWeight
	}
	if containsAny(lower, certaintyTerms) {
		score += certaintyWeight
	}

	if containsAny(lower, backgroundTerms) {
		score -= backgroundPenalty
	}
	if containsAny(lower, methodologyTerms) {
		score -= methodologyPenalty
	}
	if containsAny(lower, futureWorkTerms) {
		score -= futureWorkPenalty
	}
	if len(text) > longSentenceChars || len(clauseSeparator.FindAllString(text, -1)) > longSentenceClauses {
		score -= lengthPenalty
	}
	return score
}

// ExtractClaims scores every sentence of the abstract and returns the top
// claims at or above the threshold, at most five, highest score first.
func ExtractClaims(abstract string) []Claim {
	var claims []Claim
	for _, sentence := range sentenceSplit.Split(abstract, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if score := ScoreSentence(sentence); score >= claimThreshold {
			claims = append(claims, Claim{Text: sentence, Score: score})
		}
	}
	sort.SliceStable(claims, func(i, j int) bool { return claims[i].Score > claims[j].Score })
	if len(claims) > maxClaims {
		claims = claims[:maxClaims]
	}
	return claims
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
