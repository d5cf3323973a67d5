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
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/inkwell-ai/inkwell/pkg/storage"
)

func TestPostgresStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Postgres Store Suite")
}

func newMockStore() (*storage.Store, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	Expect(err).ToNot(HaveOccurred())
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewStore(sqlxDB), mock, func() { _ = db.Close() }
}

func expectReplace(mock sqlmock.Sqlmock, deletePattern, insertPattern string, rows int64) {
	mock.ExpectBegin()
	mock.ExpectExec(deletePattern).WithArgs("paper-1").WillReturnResult(sqlmock.NewResult(0, 1))
	if rows > 0 {
		mock.ExpectExec(insertPattern).WillReturnResult(sqlmock.NewResult(1, rows))
	}
	mock.ExpectCommit()
}

var _ = Describe("ReplaceForPaper", func() {
	var (
		store   *storage.Store
		mock    sqlmock.Sqlmock
		cleanup func()
		ctx     context.Context
	)

	BeforeEach(func() {
		store, mock, cleanup = newMockStore()
		ctx = context.Background()
	})

	AfterEach(func() {
		Expect(mock.ExpectationsWereMet()).To(Succeed())
		cleanup()
	})

	Context("citations", func() {
		citations := []storage.Citation{
			{ID: "c1", PaperID: "paper-1", RawText: "(Smith, 2021)", Authors: "Smith, J.", Year: 2021, Confidence: 0.9, CreatedAt: time.Now()},
			{ID: "c2", PaperID: "paper-1", RawText: "[12]", Authors: "Doe, A.", Year: 2020, Confidence: 0.8, CreatedAt: time.Now()},
		}

		It("should delete prior rows before inserting inside one transaction", func() {
			expectReplace(mock, `DELETE FROM citations`, `INSERT INTO citations`, 2)
			Expect(store.Citations.ReplaceForPaper(ctx, "paper-1", citations)).To(Succeed())
		})

		It("should leave the database in the same state when run twice", func() {
			expectReplace(mock, `DELETE FROM citations`, `INSERT INTO citations`, 2)
			expectReplace(mock, `DELETE FROM citations`, `INSERT INTO citations`, 2)

			Expect(store.Citations.ReplaceForPaper(ctx, "paper-1", citations)).To(Succeed())
			Expect(store.Citations.ReplaceForPaper(ctx, "paper-1", citations)).To(Succeed())
		})

		It("should only delete when there is nothing to insert", func() {
			expectReplace(mock, `DELETE FROM citations`, ``, 0)
			Expect(store.Citations.ReplaceForPaper(ctx, "paper-1", nil)).To(Succeed())
		})

		It("should roll back when the insert fails", func() {
			mock.ExpectBegin()
			mock.ExpectExec(`DELETE FROM citations`).WithArgs("paper-1").WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(`INSERT INTO citations`).WillReturnError(context.DeadlineExceeded)
			mock.ExpectRollback()

			err := store.Citations.ReplaceForPaper(ctx, "paper-1", citations)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("discovered papers", func() {
		papers := []storage.DiscoveredPaper{
			{ID: "d1", SourcePaperID: "paper-1", Title: "Related Work A", DOI: "10.1/a", Source: "crossref", RelevanceScore: 0.8, CreatedAt: time.Now()},
		}

		It("should replace discovery results transactionally", func() {
			expectReplace(mock, `DELETE FROM discovered_papers`, `INSERT INTO discovered_papers`, 1)
			Expect(store.DiscoveredPapers.ReplaceForPaper(ctx, "paper-1", papers)).To(Succeed())
		})
	})

	Context("paper contents", func() {
		It("should replace processed content transactionally", func() {
			expectReplace(mock, `DELETE FROM paper_contents`, `INSERT INTO paper_contents`, 1)
			Expect(store.PaperContents.ReplaceForPaper(ctx, "paper-1", []storage.PaperContent{
				{ID: "pc1", PaperID: "paper-1", Content: "full text", WordCount: 2, CreatedAt: time.Now()},
			})).To(Succeed())
		})
	})

	Context("summaries", func() {
		It("should replace summaries transactionally", func() {
			expectReplace(mock, `DELETE FROM summaries`, `INSERT INTO summaries`, 1)
			Expect(store.Summaries.ReplaceForPaper(ctx, "paper-1", []storage.Summary{
				{ID: "s1", PaperID: "paper-1", SummaryType: "brief", Content: "short", WordCount: 1, CreatedAt: time.Now()},
			})).To(Succeed())
		})
	})
})

var _ = Describe("FindByPaperID", func() {
	It("should map citation rows to the model", func() {
		store, mock, cleanup := newMockStore()
		defer cleanup()

		rows := sqlmock.NewRows([]string{
			"id", "paper_id", "raw_text", "section", "authors", "title", "venue", "year",
			"volume", "issue", "pages", "doi", "type", "confidence", "created_at",
		}).AddRow("c1", "paper-1", "(Smith, 2021)", "introduction", "Smith, J.", "A Title", "J X", 2021,
			"", "", "", "10.1/x", "article", 0.9, time.Now())
		mock.ExpectQuery(`SELECT .* FROM citations`).WithArgs("paper-1").WillReturnRows(rows)

		got, err := store.Citations.FindByPaperID(context.Background(), "paper-1")
		Expect(err).ToNot(HaveOccurred())
		Expect(got).To(HaveLen(1))
		Expect(got[0].RawText).To(Equal("(Smith, 2021)"))
		Expect(got[0].Year).To(Equal(2021))
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})
})
