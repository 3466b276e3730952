// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists the per-article review ledger and run records in
// a SQLite database under the data directory.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/review-engine/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "review.db"
)

// Store manages the review ledger SQLite database.
type Store struct {
	db      *sql.DB
	dataDir string
}

// New opens or creates the ledger database at dataDir/index/review.db,
// creating the schema when absent.
func New(dataDir string) (*Store, error) {
	dbDir := filepath.Join(dataDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dataDir: dataDir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS articles (
			pmid TEXT PRIMARY KEY,
			doi TEXT,
			pmc TEXT,
			title TEXT,
			abstract TEXT,
			journal TEXT,
			pub_year INTEGER,
			status TEXT NOT NULL,
			screening_decision TEXT,
			screening_reason TEXT,
			retrieval_status TEXT,
			has_fulltext INTEGER NOT NULL DEFAULT 0,
			conversion_status TEXT,
			population TEXT,
			intervention TEXT,
			comparison TEXT,
			outcome TEXT,
			study_design TEXT,
			risk_of_bias TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_status ON articles(status)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_decision ON articles(screening_decision)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			query TEXT NOT NULL,
			total_found INTEGER NOT NULL DEFAULT 0
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// BeginRun records a new pipeline run and returns its identifier.
func (s *Store) BeginRun(ctx context.Context, query string, totalFound int) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, query, total_found) VALUES (?, ?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339), query, totalFound)
	if err != nil {
		return "", fmt.Errorf("recording run: %w", err)
	}
	return id, nil
}

// UpsertArticles writes records into the ledger. Existing rows keep their
// insertion order; new rows append after them.
func (s *Store) UpsertArticles(ctx context.Context, recs []types.ArticleRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO articles
		(pmid, doi, pmc, title, abstract, journal, pub_year, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pmid) DO UPDATE SET
			doi = excluded.doi,
			pmc = excluded.pmc,
			title = excluded.title,
			abstract = excluded.abstract,
			journal = excluded.journal,
			pub_year = excluded.pub_year,
			status = excluded.status`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx,
			rec.PMID, rec.DOI(), rec.PMCID(), rec.Title, rec.Abstract,
			rec.Journal, rec.PubYear, string(rec.Status)); err != nil {
			return fmt.Errorf("upserting article %s: %w", rec.PMID, err)
		}
	}
	return tx.Commit()
}

// guardAdvance verifies the article exists and that its status permits
// moving to next. Stage transitions only go forward, one stage at a time.
func (s *Store) guardAdvance(ctx context.Context, pmid string, next types.StageStatus) error {
	var current string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM articles WHERE pmid = ?`, pmid).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("no ledger row for article %s", pmid)
	}
	if err != nil {
		return fmt.Errorf("reading status for %s: %w", pmid, err)
	}
	if !types.StageStatus(current).CanAdvance(next) {
		return fmt.Errorf("article %s cannot move from %s to %s", pmid, current, next)
	}
	return nil
}

// UpdateScreening records a screening decision and advances the article.
func (s *Store) UpdateScreening(ctx context.Context, pmid string, decision types.ScreeningDecision, reason string) error {
	if err := s.guardAdvance(ctx, pmid, types.StatusScreened); err != nil {
		return err
	}
	return s.exec(ctx, `UPDATE articles
		SET screening_decision = ?, screening_reason = ?, status = ?
		WHERE pmid = ?`,
		string(decision), reason, string(types.StatusScreened), pmid)
}

// UpdateRetrieval records the retrieval outcome and advances the article.
func (s *Store) UpdateRetrieval(ctx context.Context, pmid string, status types.RetrievalStatus) error {
	if err := s.guardAdvance(ctx, pmid, types.StatusRetrievalAttempted); err != nil {
		return err
	}
	hasFulltext := 0
	if status.Succeeded() {
		hasFulltext = 1
	}
	return s.exec(ctx, `UPDATE articles
		SET retrieval_status = ?, has_fulltext = ?, status = ?
		WHERE pmid = ?`,
		status.String(), hasFulltext, string(types.StatusRetrievalAttempted), pmid)
}

// UpdateConversion records the conversion outcome. A failure is written
// to the ledger but does not advance the article's stage.
func (s *Store) UpdateConversion(ctx context.Context, pmid string, status types.ConversionStatus) error {
	if status == types.ConversionFailed {
		return s.exec(ctx, `UPDATE articles SET conversion_status = ? WHERE pmid = ?`,
			string(status), pmid)
	}
	if err := s.guardAdvance(ctx, pmid, types.StatusConverted); err != nil {
		return err
	}
	return s.exec(ctx, `UPDATE articles SET conversion_status = ?, status = ? WHERE pmid = ?`,
		string(types.ConversionDone), string(types.StatusConverted), pmid)
}

// UpdateExtraction records extracted fields and the bias profile.
func (s *Store) UpdateExtraction(ctx context.Context, pmid string, pico types.PICOFields, rob types.RiskOfBiasProfile) error {
	if err := s.guardAdvance(ctx, pmid, types.StatusExtracted); err != nil {
		return err
	}
	robJSON, err := json.Marshal(rob)
	if err != nil {
		return fmt.Errorf("marshaling risk of bias for %s: %w", pmid, err)
	}
	return s.exec(ctx, `UPDATE articles
		SET population = ?, intervention = ?, comparison = ?, outcome = ?,
			study_design = ?, risk_of_bias = ?, status = ?
		WHERE pmid = ?`,
		pico.Population, pico.Intervention, pico.Comparison, pico.Outcome,
		pico.StudyDesign, string(robJSON), string(types.StatusExtracted), pmid)
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating ledger: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no ledger row for article")
	}
	return nil
}

// LoadArticles returns all ledger rows in insertion order.
func (s *Store) LoadArticles(ctx context.Context) ([]types.ArticleRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		pmid, doi, pmc, title, abstract, journal, pub_year, status,
		screening_decision, screening_reason, retrieval_status, has_fulltext,
		conversion_status, population, intervention, comparison, outcome,
		study_design, risk_of_bias
		FROM articles ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	var recs []types.ArticleRecord
	for rows.Next() {
		var (
			rec                                 types.ArticleRecord
			doi, pmc                            sql.NullString
			decision, reason, retrieval, robRaw sql.NullString
			conversion                          sql.NullString
			pop, intr, comp, outc, design       sql.NullString
			status                              string
			hasFulltext                         int
		)
		if err := rows.Scan(&rec.PMID, &doi, &pmc, &rec.Title, &rec.Abstract,
			&rec.Journal, &rec.PubYear, &status, &decision, &reason,
			&retrieval, &hasFulltext, &conversion, &pop, &intr, &comp, &outc, &design, &robRaw); err != nil {
			return nil, fmt.Errorf("scanning article row: %w", err)
		}

		rec.Status = types.StageStatus(status)
		rec.ExternalIDs = map[types.IDType]string{}
		if doi.String != "" {
			rec.ExternalIDs[types.IDDOI] = doi.String
		}
		if pmc.String != "" {
			rec.ExternalIDs[types.IDPMC] = pmc.String
		}
		rec.ScreeningDecision = types.ScreeningDecision(decision.String)
		rec.ScreeningReason = reason.String
		rec.HasFulltext = hasFulltext != 0
		if retrieval.String != "" {
			rec.Retrieval = types.ParseRetrievalStatus(retrieval.String)
		}
		rec.Conversion = types.ConversionStatus(conversion.String)
		if rec.Conversion == "" {
			rec.Conversion = types.ConversionNone
		}
		if pop.Valid || intr.Valid || comp.Valid || outc.Valid || design.Valid {
			rec.Extracted = &types.PICOFields{
				Population:   pop.String,
				Intervention: intr.String,
				Comparison:   comp.String,
				Outcome:      outc.String,
				StudyDesign:  design.String,
			}
		}
		if robRaw.String != "" {
			var rob types.RiskOfBiasProfile
			if err := json.Unmarshal([]byte(robRaw.String), &rob); err != nil {
				return nil, fmt.Errorf("parsing risk of bias for %s: %w", rec.PMID, err)
			}
			rec.RiskOfBias = rob
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// LoadIncluded returns the ledger rows screened in, in insertion order.
func (s *Store) LoadIncluded(ctx context.Context) ([]types.ArticleRecord, error) {
	recs, err := s.LoadArticles(ctx)
	if err != nil {
		return nil, err
	}
	var included []types.ArticleRecord
	for _, rec := range recs {
		if rec.ScreeningDecision == types.DecisionIncluded {
			included = append(included, rec)
		}
	}
	return included, nil
}

// ComputeStats derives the review funnel from the ledger plus the latest
// run's total match count.
func (s *Store) ComputeStats(ctx context.Context) (types.RunStatistics, error) {
	var stats types.RunStatistics

	err := s.db.QueryRowContext(ctx,
		`SELECT total_found FROM runs ORDER BY started_at DESC LIMIT 1`).Scan(&stats.TotalFound)
	if err != nil && err != sql.ErrNoRows {
		return stats, fmt.Errorf("querying latest run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT
		COUNT(screening_decision) FILTER (WHERE screening_decision != ''),
		COUNT(*) FILTER (WHERE screening_decision = ?),
		COUNT(*) FILTER (WHERE screening_decision = ?),
		COUNT(*) FILTER (WHERE screening_decision = ? AND has_fulltext = 1)
		FROM articles`,
		string(types.DecisionExcluded), string(types.DecisionIncluded), string(types.DecisionIncluded))
	if err != nil {
		return stats, fmt.Errorf("querying funnel: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&stats.Screened, &stats.Excluded, &stats.Included, &stats.Retrieved); err != nil {
			return stats, fmt.Errorf("scanning funnel: %w", err)
		}
	}
	return stats, rows.Err()
}
