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

// Package storage defines the domain entities agents persist and the
// narrow repository contracts the orchestrator consumes. Schema details
// live with the implementations.
package storage

import "time"

// PaperContent is the processed full text of a paper.
type PaperContent struct {
	ID        string    `db:"id" json:"id"`
	PaperID   string    `db:"paper_id" json:"paper_id"`
	Content   string    `db:"content" json:"content"`
	WordCount int       `db:"word_count" json:"word_count"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PaperSection is one structural section of a processed paper.
type PaperSection struct {
	ID       string `db:"id" json:"id"`
	PaperID  string `db:"paper_id" json:"paper_id"`
	Title    string `db:"title" json:"title"`
	Content  string `db:"content" json:"content"`
	Position int    `db:"position" json:"position"`
}

// Citation is a structured citation extracted from a paper. RawText is the
// matched source text, stored on the structured record from the start so a
// reordered or partial structuring response can never mis-attribute it.
type Citation struct {
	ID         string    `db:"id" json:"id"`
	PaperID    string    `db:"paper_id" json:"paper_id"`
	RawText    string    `db:"raw_text" json:"raw_text"`
	Section    string    `db:"section" json:"section"`
	Authors    string    `db:"authors" json:"authors"`
	Title      string    `db:"title" json:"title"`
	Venue      string    `db:"venue" json:"venue"`
	Year       int       `db:"year" json:"year"`
	Volume     string    `db:"volume" json:"volume"`
	Issue      string    `db:"issue" json:"issue"`
	Pages      string    `db:"pages" json:"pages"`
	DOI        string    `db:"doi" json:"doi"`
	Type       string    `db:"type" json:"type"`
	Confidence float64   `db:"confidence" json:"confidence"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// CitationVerification records an external check of one citation.
type CitationVerification struct {
	ID         string    `db:"id" json:"id"`
	PaperID    string    `db:"paper_id" json:"paper_id"`
	CitationID string    `db:"citation_id" json:"citation_id"`
	Source     string    `db:"source" json:"source"`
	Verified   bool      `db:"verified" json:"verified"`
	Confidence float64   `db:"confidence" json:"confidence"`
	Notes      string    `db:"notes" json:"notes"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Summary is an AI-produced summary of a paper at one level of detail.
type Summary struct {
	ID          string    `db:"id" json:"id"`
	PaperID     string    `db:"paper_id" json:"paper_id"`
	SummaryType string    `db:"summary_type" json:"summary_type"`
	Content     string    `db:"content" json:"content"`
	WordCount   int       `db:"word_count" json:"word_count"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// MetadataVerification records an enrichment/verification pass over a
// paper's bibliographic metadata.
type MetadataVerification struct {
	ID         string    `db:"id" json:"id"`
	PaperID    string    `db:"paper_id" json:"paper_id"`
	Source     string    `db:"source" json:"source"`
	Field      string    `db:"field" json:"field"`
	Value      string    `db:"value" json:"value"`
	Confidence float64   `db:"confidence" json:"confidence"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Tag is a normalized keyword or category label.
type Tag struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Kind string `db:"kind" json:"kind"`
}

// PaperTag links a tag to a paper.
type PaperTag struct {
	PaperID string `db:"paper_id" json:"paper_id"`
	TagID   string `db:"tag_id" json:"tag_id"`
}

// DiscoveredPaper is a related paper found by the discovery coordinator.
type DiscoveredPaper struct {
	ID             string    `db:"id" json:"id"`
	SourcePaperID  string    `db:"source_paper_id" json:"source_paper_id"`
	Title          string    `db:"title" json:"title"`
	Authors        string    `db:"authors" json:"authors"`
	Venue          string    `db:"venue" json:"venue"`
	Year           int       `db:"year" json:"year"`
	DOI            string    `db:"doi" json:"doi"`
	URL            string    `db:"url" json:"url"`
	CitationCount  int       `db:"citation_count" json:"citation_count"`
	Source         string    `db:"source" json:"source"`
	RelevanceScore float64   `db:"relevance_score" json:"relevance_score"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// PaperRelationship records how a discovered paper relates to the source.
type PaperRelationship struct {
	ID               string    `db:"id" json:"id"`
	SourcePaperID    string    `db:"source_paper_id" json:"source_paper_id"`
	RelatedPaperID   string    `db:"related_paper_id" json:"related_paper_id"`
	RelationshipType string    `db:"relationship_type" json:"relationship_type"`
	Strength         float64   `db:"strength" json:"strength"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}
