// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"fmt"
	"time"
)

// timeLayout keeps a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one row of the sync run log.
type Run struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	DryRun        bool
	AuthorsOK     int
	AuthorsFailed int
	Fetched       int
	Duplicates    int
	Merged        int
	New           int
	Orphans       int
	Excluded      int
	Added         int
	Total         int
}

// RecordRun appends a run to the log. Recording the same run id twice is
// an error.
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	if r.ID == "" {
		return fmt.Errorf("run id is empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_runs (run_id, started_at, finished_at, dry_run, authors_ok, authors_failed,
			fetched, duplicates, merged, new, orphans, excluded, added, total)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UTC().Format(timeLayout), r.FinishedAt.UTC().Format(timeLayout),
		r.DryRun, r.AuthorsOK, r.AuthorsFailed, r.Fetched, r.Duplicates, r.Merged, r.New,
		r.Orphans, r.Excluded, r.Added, r.Total,
	)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", r.ID, err)
	}
	return nil
}

// Runs returns the most recent runs, newest first. A limit of zero or
// less returns every run.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, started_at, finished_at, dry_run, authors_ok, authors_failed,
			fetched, duplicates, merged, new, orphans, excluded, added, total
		 FROM sync_runs ORDER BY started_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.DryRun, &r.AuthorsOK, &r.AuthorsFailed,
			&r.Fetched, &r.Duplicates, &r.Merged, &r.New, &r.Orphans, &r.Excluded, &r.Added, &r.Total,
		); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("run %s: started_at: %w", r.ID, err)
		}
		if r.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("run %s: finished_at: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
