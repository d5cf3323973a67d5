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

package storage

import "context"

// Each repository exposes lookup and removal by paper, plus a transactional
// replace: prior rows for the paper are deleted and the new rows inserted
// in one transaction, so re-running an agent can never produce duplicates.
// The orchestrator never opens nested transactions around these calls.

// PaperContentRepository stores processed paper text.
type PaperContentRepository interface {
	FindByPaperID(ctx context.Context, paperID string) ([]PaperContent, error)
	DeleteByPaperID(ctx context.Context, paperID string) error
	ReplaceForPaper(ctx context.Context, paperID string, items []PaperContent) error
}

// PaperSectionRepository stores paper sections.
type PaperSectionRepository interface {
	FindByPaperID(ctx context.Context, paperID string) ([]PaperSection, error)
	DeleteByPaperID(ctx context.Context, paperID string) error
	ReplaceForPaper(ctx context.Context, paperID string, items []PaperSection) error
}

// CitationRepository stores structured citations.
type CitationRepository interface {
	FindByPaperID(ctx context.Context, paperID string) ([]Citation, error)
	DeleteByPaperID(ctx context.Context, paperID string) error
	ReplaceForPaper(ctx context.Context, paperID string, items []Citation) error
}

// CitationVerificationRepository stores citation verification records.
type CitationVerificationRepository interface {
	FindByPaperID(ctx context.Context, paperID string) ([]CitationVerification, error)
	DeleteByPaperID(ctx context.Context, paperID string) error
	ReplaceForPaper(ctx context.Context, paperID string, items []CitationVerification) error
}

// SummaryRepository stores summaries. Several agent kinds write here with
// distinct summary types, so replacement is additionally offered scoped by
// type: one agent's re-run must not clobber another's rows.
type SummaryRepository interface {
	FindByPaperID(ctx context.Context, paperID string) ([]Summary, error)
	DeleteByPaperID(ctx context.Context, paperID string) error
	ReplaceForPaper(ctx context.Context, paperID string, items []Summary) error
	ReplaceForPaperType(ctx context.Context, paperID, summaryType string, items []Summary) error
}

// MetadataVerificationRepository stores metadata verification records.
type MetadataVerificationRepository interface {
	FindByPaperID(ctx context.Context, paperID string) ([]MetadataVerification, error)
	DeleteByPaperID(ctx context.Context, paperID string) error
	ReplaceForPaper(ctx context.Context, paperID string, items []MetadataVerification) error
}

// TagRepository stores tags; tags are shared across papers and are
// upserted by name rather than replaced.
type TagRepository interface {
	FindByName(ctx context.Context, name string) (*Tag, error)
	Save(ctx context.Context, tag Tag) error
}

// PaperTagRepository links tags to papers.
type PaperTagRepository interface {
	FindByPaperID(ctx context.Context, paperID string) ([]PaperTag, error)
	DeleteByPaperID(ctx context.Context, paperID string) error
	ReplaceForPaper(ctx context.Context, paperID string, items []PaperTag) error
}

// DiscoveredPaperRepository stores discovery results keyed by source paper.
type DiscoveredPaperRepository interface {
	FindByPaperID(ctx context.Context, sourcePaperID string) ([]DiscoveredPaper, error)
	DeleteByPaperID(ctx context.Context, sourcePaperID string) error
	ReplaceForPaper(ctx context.Context, sourcePaperID string, items []DiscoveredPaper) error
}

// PaperRelationshipRepository stores relationships keyed by source paper.
type PaperRelationshipRepository interface {
	FindByPaperID(ctx context.Context, sourcePaperID string) ([]PaperRelationship, error)
	DeleteByPaperID(ctx context.Context, sourcePaperID string) error
	ReplaceForPaper(ctx context.Context, sourcePaperID string, items []PaperRelationship) error
}

// Store bundles every repository an agent may need. Agents receive the
// whole store and use the slices relevant to them; a nil repository means
// persistence is disabled for that entity.
type Store struct {
	PaperContents         PaperContentRepository
	PaperSections         PaperSectionRepository
	Citations             CitationRepository
	CitationVerifications CitationVerificationRepository
	Summaries             SummaryRepository
	MetadataVerifications MetadataVerificationRepository
	Tags                  TagRepository
	PaperTags             PaperTagRepository
	DiscoveredPapers      DiscoveredPaperRepository
	PaperRelationships    PaperRelationshipRepository
}
