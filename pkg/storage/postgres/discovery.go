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

type discoveredPaperRepo struct {
	db *sqlx.DB
}

func (r *discoveredPaperRepo) FindByPaperID(ctx context.Context, sourcePaperID string) ([]storage.DiscoveredPaper, error) {
	var out []storage.DiscoveredPaper
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, source_paper_id, title, authors, venue, year, doi, url,
		        citation_count, source, relevance_score, created_at
		 FROM discovered_papers WHERE source_paper_id = $1 ORDER BY relevance_score DESC`, sourcePaperID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypePersistence, "querying discovered papers")
	}
	return out, nil
}

func (r *discoveredPaperRepo) DeleteByPaperID(ctx context.Context, sourcePaperID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM discovered_papers WHERE source_paper_id = $1`, sourcePaperID)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypePersistence, "deleting discovered papers")
	}
	return nil
}

func (r *discoveredPaperRepo) ReplaceForPaper(ctx context.Context, sourcePaperID string, items []storage.DiscoveredPaper) error {
	return replaceForPaper(ctx, r.db, `DELETE FROM discovered_papers WHERE source_paper_id = $1`, sourcePaperID, len(items) > 0, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO discovered_papers (id, source_paper_id, title, authors, venue, year, doi, url,
			                                citation_count, source, relevance_score, created_at)
			 VALUES (:id, :source_paper_id, :title, :authors, :venue, :year, :doi, :url,
			         :citation_count, :source, :relevance_score, :created_at)`, items)
		return err
	})
}

type paperRelationshipRepo struct {
	db *sqlx.DB
}

func (r *paperRelationshipRepo) FindByPaperID(ctx context.Context, sourcePaperID string) ([]storage.PaperRelationship, error) {
	var out []storage.PaperRelationship
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, source_paper_id, related_paper_id, relationship_type, strength, created_at
		 FROM paper_relationships WHERE source_paper_id = $1`, sourcePaperID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypePersistence, "querying paper relationships")
	}
	return out, nil
}

func (r *paperRelationshipRepo) DeleteByPaperID(ctx context.Context, sourcePaperID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM paper_relationships WHERE source_paper_id = $1`, sourcePaperID)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypePersistence, "deleting paper relationships")
	}
	return nil
}

func (r *paperRelationshipRepo) ReplaceForPaper(ctx context.Context, sourcePaperID string, items []storage.PaperRelationship) error {
	return replaceForPaper(ctx, r.db, `DELETE FROM paper_relationships WHERE source_paper_id = $1`, sourcePaperID, len(items) > 0, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx,
			`INSERT INTO paper_relationships (id, source_paper_id, related_paper_id, relationship_type, strength, created_at)
			 VALUES (:id, :source_paper_id, :related_paper_id, :relationship_type, :strength, :created_at)`, items)
		return err
	})
}
