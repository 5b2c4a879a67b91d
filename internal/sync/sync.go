// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sync runs one end-to-end publication sync: fetch every
// configured author, reconcile against the persisted collection, write the
// result, and refresh the catalog index.
package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pdiddy/scholar-sync/internal/index"
	"github.com/pdiddy/scholar-sync/internal/provider"
	"github.com/pdiddy/scholar-sync/internal/reconcile"
	"github.com/pdiddy/scholar-sync/internal/store"
	"github.com/pdiddy/scholar-sync/pkg/types"
)

var (
	// ErrNoAuthors is returned when the configuration lists no authors.
	ErrNoAuthors = errors.New("no authors configured")

	// ErrAllSourcesFailed is returned when not a single author could be
	// fetched. Nothing is written in that case.
	ErrAllSourcesFailed = errors.New("all authors failed")
)

// Options holds the collaborators of one run.
type Options struct {
	Config    types.SyncConfig
	Provider  provider.Provider
	Store     *store.Store
	Overrides types.OverrideSet

	// Index is refreshed after writing when set.
	Index *index.Store

	// DryRun reconciles and reports without writing files or the catalog.
	DryRun bool

	Logger *zap.Logger

	// Out receives the human-readable summary.
	Out io.Writer

	// Now defaults to time.Now.
	Now func() time.Time
}

// Summary describes a finished run.
type Summary struct {
	RunID          string
	Authors        int
	AuthorsOK      int
	AuthorsFailed  int
	Fetched        int
	Invalid        int
	Malformed      int
	Existing       int
	SkippedFiles   int
	Stats          reconcile.Stats
	OverrideErrors int
	Total          int
	Written        int
	DryRun         bool
	Index          *index.SyncSummary
	IndexErr       error
}

// NetChange is the collection size change caused by the run.
func (s Summary) NetChange() int {
	return s.Total - s.Existing
}

// NewLimiter returns a limiter allowing one request per delay. A delay of
// zero or less disables pacing.
func NewLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// authorResult is the outcome of fetching one author.
type authorResult struct {
	records []types.RawRecord
	err     error
}

// Run executes one sync. Authors are fetched concurrently, bounded by
// Config.Concurrency, and their records are processed in configured
// author order. If every author fails the run stops with
// ErrAllSourcesFailed before the collection is read or written.
func Run(ctx context.Context, opts Options) (Summary, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	started := now()
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	sum := Summary{RunID: uuid.NewString(), DryRun: opts.DryRun}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("run_id", sum.RunID))

	cfg := opts.Config
	sum.Authors = len(cfg.Authors)
	if sum.Authors == 0 {
		return sum, ErrNoAuthors
	}

	results, err := fetchAll(ctx, opts.Provider, cfg, log)
	if err != nil {
		return sum, err
	}

	rec := reconcile.DefaultOptions()
	if cfg.SimilarityThreshold > 0 {
		rec.SimilarityThreshold = cfg.SimilarityThreshold
	}

	var fresh []types.Publication
	for i, author := range cfg.Authors {
		r := results[i]
		if r.err != nil {
			sum.AuthorsFailed++
			log.Warn("author failed", zap.String("author", author.Name), zap.Error(r.err))
			fmt.Fprintf(out, "failed  %s: %v\n", author.Name, r.err)
			continue
		}
		sum.AuthorsOK++

		ingested := rec.Ingest(r.records)
		for _, e := range ingested.Failed {
			log.Warn("malformed record", zap.String("author", author.Name), zap.Error(e))
		}
		sum.Malformed += len(ingested.Failed)
		sum.Invalid += ingested.Invalid
		sum.Fetched += len(ingested.Publications)
		fresh = append(fresh, ingested.Publications...)

		log.Info("author fetched",
			zap.String("author", author.Name),
			zap.Int("records", len(r.records)),
			zap.Int("kept", len(ingested.Publications)),
		)
		fmt.Fprintf(out, "fetched %s (%d publications)\n", author.Name, len(ingested.Publications))
	}

	if sum.AuthorsOK == 0 {
		fmt.Fprintf(out, "\nall %d author(s) failed; existing data preserved\n", sum.AuthorsFailed)
		return sum, fmt.Errorf("%w: %d author(s)", ErrAllSourcesFailed, sum.AuthorsFailed)
	}

	loaded, err := opts.Store.Load()
	if err != nil {
		return sum, fmt.Errorf("loading existing publications: %w", err)
	}
	for _, e := range loaded.Skipped {
		log.Warn("skipped existing file", zap.Error(e))
	}
	sum.Existing = len(loaded.Publications)
	sum.SkippedFiles = len(loaded.Skipped)

	result := rec.Run(fresh, loaded.Publications, opts.Overrides)
	for _, e := range result.OverrideErrors {
		log.Warn("override skipped", zap.Error(e))
	}
	sum.Stats = result.Stats
	sum.OverrideErrors = len(result.OverrideErrors)
	sum.Total = len(result.Publications)

	if !opts.DryRun {
		n, err := opts.Store.WriteAll(result.Publications)
		sum.Written = n
		if err != nil {
			return sum, fmt.Errorf("writing publications: %w", err)
		}
		log.Info("publications written", zap.Int("files", n), zap.String("dir", opts.Store.Dir()))
	}

	if opts.Index != nil {
		sum.IndexErr = refreshIndex(ctx, opts, &sum, started, now)
		if sum.IndexErr != nil {
			log.Warn("index refresh failed", zap.Error(sum.IndexErr))
		}
	}

	printSummary(out, sum)
	return sum, nil
}

// fetchAll fetches every author, storing each outcome in the author's
// slot. A failing author does not cancel the others; only a cancelled
// context aborts the batch.
func fetchAll(ctx context.Context, p provider.Provider, cfg types.SyncConfig, log *zap.Logger) ([]authorResult, error) {
	results := make([]authorResult, len(cfg.Authors))

	limit := cfg.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, author := range cfg.Authors {
		i, author := i, author
		if author.OpenAlexID == "" {
			results[i].err = fmt.Errorf("no openalex_id for %q", author.Name)
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			log.Debug("fetching author", zap.String("author", author.Name), zap.String("id", author.OpenAlexID))
			records, err := p.FetchAuthor(gctx, author.OpenAlexID, cfg.MaxResults)
			if err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			results[i] = authorResult{records: records, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// refreshIndex mirrors the collection directory into the catalog, the same
// input catalog rebuild reads. Files the run left in place, such as
// excluded records, stay catalogued until they are removed from disk.
func refreshIndex(ctx context.Context, opts Options, sum *Summary, started time.Time, now func() time.Time) error {
	if !opts.DryRun {
		onDisk, err := opts.Store.Load()
		if err != nil {
			return fmt.Errorf("reloading collection: %w", err)
		}
		is, err := opts.Index.Sync(ctx, onDisk.Publications)
		if err != nil {
			return fmt.Errorf("syncing index: %w", err)
		}
		sum.Index = &is
	}

	run := index.Run{
		ID:            sum.RunID,
		StartedAt:     started,
		FinishedAt:    now(),
		DryRun:        opts.DryRun,
		AuthorsOK:     sum.AuthorsOK,
		AuthorsFailed: sum.AuthorsFailed,
		Fetched:       sum.Fetched,
		Duplicates:    sum.Stats.Duplicates,
		Merged:        sum.Stats.Merged,
		New:           sum.Stats.New,
		Orphans:       sum.Stats.Orphans,
		Excluded:      sum.Stats.Excluded,
		Added:         sum.Stats.Added,
		Total:         sum.Total,
	}
	if err := opts.Index.RecordRun(ctx, run); err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, s Summary) {
	fmt.Fprintf(w, "\nSummary (run %s):\n", s.RunID)
	fmt.Fprintf(w, "  Authors fetched: %d/%d\n", s.AuthorsOK, s.Authors)
	fmt.Fprintf(w, "  Publications fetched: %d\n", s.Fetched)
	if s.Invalid > 0 || s.Malformed > 0 {
		fmt.Fprintf(w, "  Dropped before merge: %d without year, %d malformed\n", s.Invalid, s.Malformed)
	}
	fmt.Fprintf(w, "  Duplicates removed: %d\n", s.Stats.Duplicates)
	fmt.Fprintf(w, "  Merged: %d, new: %d, kept from collection: %d\n", s.Stats.Merged, s.Stats.New, s.Stats.Orphans)
	fmt.Fprintf(w, "  Overrides: %d excluded, %d fields patched, %d added\n", s.Stats.Excluded, s.Stats.Patched, s.Stats.Added)
	fmt.Fprintf(w, "  Total after merge: %d\n", s.Total)

	sign := ""
	if s.NetChange() >= 0 {
		sign = "+"
	}
	fmt.Fprintf(w, "  Net change: %s%d\n", sign, s.NetChange())

	if s.DryRun {
		fmt.Fprintln(w, "  Dry run: nothing written")
	} else {
		fmt.Fprintf(w, "  Files written: %d\n", s.Written)
	}
	if s.Index != nil {
		fmt.Fprintf(w, "  Index: %d inserted, %d updated, %d removed\n", s.Index.Inserted, s.Index.Updated, s.Index.Removed)
	}
	if s.AuthorsFailed > 0 {
		fmt.Fprintf(w, "  Warnings: %d author(s) failed\n", s.AuthorsFailed)
	}
	if s.SkippedFiles > 0 {
		fmt.Fprintf(w, "  Warnings: %d existing file(s) unreadable\n", s.SkippedFiles)
	}
	if s.OverrideErrors > 0 {
		fmt.Fprintf(w, "  Warnings: %d override field(s) skipped\n", s.OverrideErrors)
	}
	if s.IndexErr != nil {
		fmt.Fprintf(w, "  Warnings: index not updated: %v\n", s.IndexErr)
	}
}
