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

package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/inkwell-ai/inkwell/internal/errors"
	"github.com/inkwell-ai/inkwell/pkg/storage"
)

type citationRepo struct {
	db *sqlx.DB
}

func (r *citationRepo) FindByPaperID(ctx context.Context, paperID string) ([]storage.Citation, error) {
	var out []storage.Citation
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, paper_id, raw_text, section, authors, title, venue, year,
		        volume, issue, pages, doi, type, confidence, created_at
		 FROM citations WHERE paper_id = $1`, paperID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypePersistence, "querying citations")
	}
	return out, nil
}

func (r *citationRepo) DeleteByPaperID(ctx context.Context, paperID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM citations WHERE paper_id = $1`, paperID)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypePersistence, "deleting citations")
	}
	return nil
}

func (r *citationRepo) ReplaceForPaper(ctx context.Context, paperID string, items []storage.Citation) error {
	return replaceForPaper(ctx, r.db, `DELETE FROM citations WHERE paper_id = $1`, paperID, len(items) > 0, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO citations (id, paper_id, raw_text, section, authors, title, venue, year,
			                        volume, issue, pages, doi, type, confidence, created_at)
			 VALUES (:id, :paper_id, :raw_text, :section, :authors, :title, :venue, :year,
			         :volume, :issue, :pages, :doi, :type, :confidence, :created_at)`, items)
		return err
	})
}

type citationVerificationRepo struct {
	db *sqlx.DB
}

func (r *citationVerificationRepo) FindByPaperID(ctx context.Context, paperID string) ([]storage.CitationVerification, error) {
	var out []storage.CitationVerification
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, paper_id, citation_id, source, verified, confidence, notes, created_at
		 FROM citation_verifications WHERE paper_id = $1`, paperID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypePersistence, "querying citation verifications")
	}
	return out, nil
}

func (r *citationVerificationRepo) DeleteByPaperID(ctx context.Context, paperID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM citation_verifications WHERE paper_id = $1`, paperID)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypePersistence, "deleting citation verifications")
	}
	return nil
}

func (r *citationVerificationRepo) ReplaceForPaper(ctx context.Context, paperID string, items []storage.CitationVerification) error {
	return replaceForPaper(ctx, r.db, `DELETE FROM citation_verifications WHERE paper_id = $1`, paperID, len(items) > 0, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO citation_verifications (id, paper_id, citation_id, source, verified, confidence, notes, created_at)
			 VALUES (:id, :paper_id, :citation_id, :source, :verified, :confidence, :notes, :created_at)`, items)
		return err
	})
}

type metadataVerificationRepo struct {
	db *sqlx.DB
}

func (r *metadataVerificationRepo) FindByPaperID(ctx context.Context, paperID string) ([]storage.MetadataVerification, error) {
	var out []storage.MetadataVerification
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, paper_id, source, field, value, confidence, created_at
		 FROM metadata_verifications WHERE paper_id = $1`, paperID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypePersistence, "querying metadata verifications")
	}
	return out, nil
}

func (r *metadataVerificationRepo) DeleteByPaperID(ctx context.Context, paperID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata_verifications WHERE paper_id = $1`, paperID)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypePersistence, "deleting metadata verifications")
	}
	return nil
}

func (r *metadataVerificationRepo) ReplaceForPaper(ctx context.Context, paperID string, items []storage.MetadataVerification) error {
	return replaceForPaper(ctx, r.db, `DELETE FROM metadata_verifications WHERE paper_id = $1`, paperID, len(items) > 0, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO metadata_verifications (id, paper_id, source, field, value, confidence, created_at)
			 VALUES (:id, :paper_id, :source, :field, :value, :confidence, :created_at)`, items)
		return err
	})
}
