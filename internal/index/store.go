// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index mirrors the publication collection into a SQLite catalog
// with full-text search, and keeps a log of sync runs.
//
// The Markdown files stay the source of truth; the catalog can be dropped
// and rebuilt from them at any time.
package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/scholar-sync/pkg/types"
)

const (
	dbFile            = "catalog.db"
	defaultMaxResults = 20
)

// Store manages the catalog database.
type Store struct {
	db         *sql.DB
	path       string
	maxResults int
}

// NewStore opens or creates the catalog at cfg.Dir/catalog.db and creates
// the schema if it does not exist.
func NewStore(cfg types.IndexConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("index directory is empty")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, path: dbPath, maxResults: maxResults}
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

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS publications (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			authors TEXT,
			author_names TEXT,
			venue TEXT,
			year INTEGER,
			doi TEXT,
			url TEXT,
			pdf TEXT,
			type TEXT,
			featured INTEGER NOT NULL DEFAULT 0,
			abstract TEXT,
			image TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_publications_year ON publications(year)`,
		`CREATE INDEX IF NOT EXISTS idx_publications_type ON publications(type)`,
		`CREATE INDEX IF NOT EXISTS idx_publications_doi ON publications(doi)`,
		`CREATE TABLE IF NOT EXISTS sync_runs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			dry_run INTEGER NOT NULL DEFAULT 0,
			authors_ok INTEGER,
			authors_failed INTEGER,
			fetched INTEGER,
			duplicates INTEGER,
			merged INTEGER,
			new INTEGER,
			orphans INTEGER,
			excluded INTEGER,
			added INTEGER,
			total INTEGER
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='publications_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE publications_fts USING fts5(
			title, author_names, venue, abstract,
			content=publications, content_rowid=rowid
		)`,
		`CREATE TRIGGER publications_ai AFTER INSERT ON publications BEGIN
			INSERT INTO publications_fts(rowid, title, author_names, venue, abstract)
			VALUES (new.rowid, new.title, new.author_names, new.venue, new.abstract);
		END`,
		`CREATE TRIGGER publications_ad AFTER DELETE ON publications BEGIN
			INSERT INTO publications_fts(publications_fts, rowid, title, author_names, venue, abstract)
			VALUES ('delete', old.rowid, old.title, old.author_names, old.venue, old.abstract);
		END`,
		`CREATE TRIGGER publications_au AFTER UPDATE ON publications BEGIN
			INSERT INTO publications_fts(publications_fts, rowid, title, author_names, venue, abstract)
			VALUES ('delete', old.rowid, old.title, old.author_names, old.venue, old.abstract);
			INSERT INTO publications_fts(rowid, title, author_names, venue, abstract)
			VALUES (new.rowid, new.title, new.author_names, new.venue, new.abstract);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// SyncSummary counts catalog changes made by Sync.
type SyncSummary struct {
	Inserted int
	Updated  int
	Removed  int
}

// Sync makes the catalog hold exactly pubs, in one transaction. Rows are
// keyed by publication id; rows whose id is not in pubs are removed.
func (s *Store) Sync(ctx context.Context, pubs []types.Publication) (SyncSummary, error) {
	var summary SyncSummary

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	known, err := existingIDs(ctx, tx)
	if err != nil {
		return summary, err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO publications (id, title, authors, author_names, venue, year, doi, url, pdf, type, featured, abstract, image)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, authors=excluded.authors, author_names=excluded.author_names,
			venue=excluded.venue, year=excluded.year, doi=excluded.doi, url=excluded.url,
			pdf=excluded.pdf, type=excluded.type, featured=excluded.featured,
			abstract=excluded.abstract, image=excluded.image`)
	if err != nil {
		return summary, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	keep := make(map[string]struct{}, len(pubs))
	for _, p := range pubs {
		if p.ID == "" {
			return summary, fmt.Errorf("publication %q has no id", p.Title)
		}
		authorsJSON, err := json.Marshal(p.Authors)
		if err != nil {
			return summary, fmt.Errorf("encoding authors of %s: %w", p.ID, err)
		}
		_, err = stmt.ExecContext(ctx,
			p.ID, p.Title, string(authorsJSON), strings.Join(p.Authors, "; "),
			p.Venue, p.Year, p.DOI, p.URL, p.PDF, string(p.Type), p.Featured,
			p.Abstract, p.Image,
		)
		if err != nil {
			return summary, fmt.Errorf("upserting %s: %w", p.ID, err)
		}
		if _, ok := known[p.ID]; ok {
			summary.Updated++
		} else {
			summary.Inserted++
		}
		keep[p.ID] = struct{}{}
	}

	for id := range known {
		if _, ok := keep[id]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM publications WHERE id = ?`, id); err != nil {
			return summary, fmt.Errorf("removing %s: %w", id, err)
		}
		summary.Removed++
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing: %w", err)
	}
	return summary, nil
}

func existingIDs(ctx context.Context, tx *sql.Tx) (map[string]struct{}, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM publications`)
	if err != nil {
		return nil, fmt.Errorf("listing catalog ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// Count returns the number of catalogued publications.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM publications`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting publications: %w", err)
	}
	return n, nil
}
