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

// Package citation extracts citations from paper text, structures them
// with an AI provider, and renders styled bibliographies. The rule-based
// fallback formatter lives here too.
package citation

import (
	"regexp"
	"sort"
	"strings"
)

// RawCitation is one regex match in the document.
type RawCitation struct {
	Text     string `json:"text"`
	Position int    `json:"position"`
	Context  string `json:"context"`
	Section  string `json:"section"`
}

// Section labels inferred from the nearest preceding heading.
const (
	SectionIntroduction = "introduction"
	SectionMethods      = "methods"
	SectionReferences   = "references"
	SectionMain         = "main"
)

// contextRadius bounds the surrounding text captured per match: at most 50
// characters on each side, so at most 100 characters besides the match.
const contextRadius = 50

var (
	// [12] or [3, 7, 12]
	numericPattern = regexp.MustCompile(`\[\d+(?:\s*,\s*\d+)*\]`)
	// (Smith, 2021), (Smith & Jones, 2020), (Smith et al., 2019)
	parentheticalPattern = regexp.MustCompile(`\(([A-Z][\w'-]+(?:\s+(?:and|&)\s+[A-Z][\w'-]+)?(?:\s+et\s+al\.?)?)\s*,\s*(\d{4}[a-z]?)\)`)
	// Smith et al., 2021 outside parentheses
	etAlPattern = regexp.MustCompile(`[A-Z][\w'-]+\s+et\s+al\.?\s*,?\s*\(?(\d{4})\)?`)

	headingPattern = regexp.MustCompile(`(?mi)^\s*(?:\d+\.?\s*)?(abstract|introduction|background|related work|methods?|methodology|materials and methods|experiments?|results|discussion|conclusions?|references|bibliography)\s*:?\s*$`)
)

// ExtractCitations scans the document in section-aware fashion, returning
// each citation-shaped match with its position, up to 100 characters of
// context, and the section it appeared in. Matches are ordered by
// position; overlapping matches keep the earliest pattern.
func ExtractCitations(document string) []RawCitation {
	sections := splitSections(document)

	var out []RawCitation
	for _, section := range sections {
		var taken [][2]int
		// Pattern order matters: a parenthetical match shadows the bare
		// et-al match inside it.
		for _, pattern := range []*regexp.Regexp{numericPattern, parentheticalPattern, etAlPattern} {
			for _, loc := range pattern.FindAllStringIndex(section.body, -1) {
				if overlapsAny(taken, loc[0], loc[1]) {
					continue
				}
				taken = append(taken, [2]int{loc[0], loc[1]})
				out = append(out, RawCitation{
					Text:     section.body[loc[0]:loc[1]],
					Position: section.offset + loc[0],
					Context:  contextAround(section.body, loc[0], loc[1]),
					Section:  section.label,
				})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

type documentSection struct {
	label  string
	offset int
	body   string
}

// splitSections carves the document at recognized headings and maps each
// heading onto the coarse label set.
func splitSections(document string) []documentSection {
	matches := headingPattern.FindAllStringSubmatchIndex(document, -1)
	if len(matches) == 0 {
		return []documentSection{{label: SectionMain, body: document}}
	}

	var sections []documentSection
	if matches[0][0] > 0 {
		sections = append(sections, documentSection{
			label: SectionMain,
			body:  document[:matches[0][0]],
		})
	}
	for i, m := range matches {
		start := m[1]
		end := len(document)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sections = append(sections, documentSection{
			label:  sectionLabel(document[m[2]:m[3]]),
			offset: start,
			body:   document[start:end],
		})
	}
	return sections
}

func sectionLabel(heading string) string {
	switch strings.ToLower(strings.TrimSpace(heading)) {
	case "introduction", "abstract", "background":
		return SectionIntroduction
	case "methods", "method", "methodology", "materials and methods":
		return SectionMethods
	case "references", "bibliography":
		return SectionReferences
	default:
		return SectionMain
	}
}

func overlapsAny(taken [][2]int, start, end int) bool {
	for _, r := range taken {
		if start < r[1] && end > r[0] {
			return true
		}
	}
	return false
}

func contextAround(body string, start, end int) string {
	from := start - contextRadius
	if from < 0 {
		from = 0
	}
	to := end + contextRadius
	if to > len(body) {
		to = len(body)
	}
	return strings.TrimSpace(body[from:to])
}
