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

// Package postgres implements the storage repositories over sqlx. Every
// ReplaceForPaper runs delete-then-insert inside one transaction so agent
// re-runs are idempotent.
package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/inkwell-ai/inkwell/internal/errors"
	"github.com/inkwell-ai/inkwell/pkg/storage"
)

// NewStore builds the full repository set over one connection pool.
func NewStore(db *sqlx.DB) *storage.Store {
	return &storage.Store{
		PaperContents:         &paperContentRepo{db: db},
		PaperSections:         &paperSectionRepo{db: db},
		Citations:             &citationRepo{db: db},
		CitationVerifications: &citationVerificationRepo{db: db},
		Summaries:             &summaryRepo{db: db},
		MetadataVerifications: &metadataVerificationRepo{db: db},
		Tags:                  &tagRepo{db: db},
		PaperTags:             &paperTagRepo{db: db},
		DiscoveredPapers:      &discoveredPaperRepo{db: db},
		PaperRelationships:    &paperRelationshipRepo{db: db},
	}
}

// replaceForPaper deletes a paper's rows and inserts replacements in one
// transaction. insert runs with len(items) > 0 only.
func replaceForPaper(ctx context.Context, db *sqlx.DB, deleteQuery, paperID string, hasItems bool, insert func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypePersistence, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, deleteQuery, paperID); err != nil {
		return errors.Wrap(err, errors.ErrorTypePersistence, "deleting prior rows")
	}
	if hasItems {
		if err := insert(tx); err != nil {
			return errors.Wrap(err, errors.ErrorTypePersistence, "inserting rows")
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrorTypePersistence, "committing transaction")
	}
	return nil
}
