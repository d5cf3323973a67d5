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
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/inkwell-ai/inkwell/internal/errors"
	"github.com/inkwell-ai/inkwell/pkg/storage"
)

type paperContentRepo struct {
	db *sqlx.DB
}

func (r *paperContentRepo) FindByPaperID(ctx context.Context, paperID string) ([]storage.PaperContent, error) {
	var out []storage.PaperContent
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, paper_id, content, word_count, created_at FROM paper_contents WHERE paper_id = $1`, paperID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypePersistence, "querying paper contents")
	}
	return out, nil
}

func (r *paperContentRepo) DeleteByPaperID(ctx context.Context, paperID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM paper_contents WHERE paper_id = $1`, paperID)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypePersistence, "deleting paper contents")
	}
	return nil
}

func (r *paperContentRepo) ReplaceForPaper(ctx context.Context, paperID string, items []storage.PaperContent) error {
	return replaceForPaper(ctx, r.db, `DELETE FROM paper_contents WHERE paper_id = $1`, paperID, len(items) > 0, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO paper_contents (id, paper_id, content, word_count, created_at)
			 VALUES (:id, :paper_id, :content, :word_count, :created_at)`, items)
		return err
	})
}

type paperSectionRepo struct {
	db *sqlx.DB
}

func (r *paperSectionRepo) FindByPaperID(ctx context.Context, paperID string) ([]storage.PaperSection, error) {
	var out []storage.PaperSection
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, paper_id, title, content, position FROM paper_sections WHERE paper_id = $1 ORDER BY position`, paperID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypePersistence, "querying paper sections")
	}
	return out, nil
}

func (r *paperSectionRepo) DeleteByPaperID(ctx context.Context, paperID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM paper_sections WHERE paper_id = $1`, paperID)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypePersistence, "deleting paper sections")
	}
	return nil
}

func (r *paperSectionRepo) ReplaceForPaper(ctx context.Context, paperID string, items []storage.PaperSection) error {
	return replaceForPaper(ctx, r.db, `DELETE FROM paper_sections WHERE paper_id = $1`, paperID, len(items) > 0, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO paper_sections (id, paper_id, title, content, position)
			 VALUES (:id, :paper_id, :title, :content, :position)`, items)
		return err
	})
}

type summaryRepo struct {
	db *sqlx.DB
}

func (r *summaryRepo) FindByPaperID(ctx context.Context, paperID string) ([]storage.Summary, error) {
	var out []storage.Summary
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, paper_id, summary_type, content, word_count, created_at FROM summaries WHERE paper_id = $1`, paperID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypePersistence, "querying summaries")
	}
	return out, nil
}

func (r *summaryRepo) DeleteByPaperID(ctx context.Context, paperID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM summaries WHERE paper_id = $1`, paperID)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypePersistence, "deleting summaries")
	}
	return nil
}

func (r *summaryRepo) ReplaceForPaper(ctx context.Context, paperID string, items []storage.Summary) error {
	return replaceForPaper(ctx, r.db, `DELETE FROM summaries WHERE paper_id = $1`, paperID, len(items) > 0, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO summaries (id, paper_id, summary_type, content, word_count, created_at)
			 VALUES (:id, :paper_id, :summary_type, :content, :word_count, :created_at)`, items)
		return err
	})
}

func (r *summaryRepo) ReplaceForPaperType(ctx context.Context, paperID, summaryType string, items []storage.Summary) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypePersistence, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM summaries WHERE paper_id = $1 AND summary_type = $2`, paperID, summaryType); err != nil {
		return errors.Wrap(err, errors.ErrorTypePersistence, "deleting prior summaries")
	}
	if len(items) > 0 {
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO summaries (id, paper_id, summary_type, content, word_count, created_at)
			 VALUES (:id, :paper_id, :summary_type, :content, :word_count, :created_at)`, items); err != nil {
			return errors.Wrap(err, errors.ErrorTypePersistence, "inserting summaries")
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrorTypePersistence, "committing transaction")
	}
	return nil
}

type tagRepo struct {
	db *sqlx.DB
}

func (r *tagRepo) FindByName(ctx context.Context, name string) (*storage.Tag, error) {
	var tag storage.Tag
	err := r.db.GetContext(ctx, &tag, `SELECT id, name, kind FROM tags WHERE name = $1`, name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypePersistence, "querying tag")
	}
	return &tag, nil
}

func (r *tagRepo) Save(ctx context.Context, tag storage.Tag) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO tags (id, name, kind) VALUES (:id, :name, :kind)
		 ON CONFLICT (name) DO UPDATE SET kind = EXCLUDED.kind`, tag)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypePersistence, "saving tag")
	}
	return nil
}

type paperTagRepo struct {
	db *sqlx.DB
}

func (r *paperTagRepo) FindByPaperID(ctx context.Context, paperID string) ([]storage.PaperTag, error) {
	var out []storage.PaperTag
	err := r.db.SelectContext(ctx, &out,
		`SELECT paper_id, tag_id FROM paper_tags WHERE paper_id = $1`, paperID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypePersistence, "querying paper tags")
	}
	return out, nil
}

func (r *paperTagRepo) DeleteByPaperID(ctx context.Context, paperID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM paper_tags WHERE paper_id = $1`, paperID)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypePersistence, "deleting paper tags")
	}
	return nil
}

func (r *paperTagRepo) ReplaceForPaper(ctx context.Context, paperID string, items []storage.PaperTag) error {
	return replaceForPaper(ctx, r.db, `DELETE FROM paper_tags WHERE paper_id = $1`, paperID, len(items) > 0, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO paper_tags (paper_id, tag_id) VALUES (:paper_id, :tag_id)`, items)
		return err
	})
}
