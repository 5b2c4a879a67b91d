// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sync

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pdiddy/scholar-sync/internal/index"
	"github.com/pdiddy/scholar-sync/internal/store"
	"github.com/pdiddy/scholar-sync/pkg/types"
)

// fakeProvider serves canned records per author id.
type fakeProvider struct {
	records map[string][]types.RawRecord
	errs    map[string]error

	// wait, when set for an author, blocks its fetch until the channel
	// is closed.
	wait map[string]chan struct{}
	// started is closed for an author as its fetch begins.
	started map[string]chan struct{}

	mu    stdsync.Mutex
	calls []string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) FetchAuthor(ctx context.Context, authorID string, limit int) ([]types.RawRecord, error) {
	f.mu.Lock()
	f.calls = append(f.calls, authorID)
	f.mu.Unlock()

	if ch, ok := f.started[authorID]; ok {
		close(ch)
	}
	if ch, ok := f.wait[authorID]; ok {
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.errs[authorID]; err != nil {
		return nil, err
	}
	recs := f.records[authorID]
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (f *fakeProvider) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.calls...)
	sort.Strings(out)
	return out
}

func testConfig(authors ...types.AuthorSource) types.SyncConfig {
	return types.SyncConfig{
		Authors:             authors,
		MaxResults:          100,
		Concurrency:         1,
		SimilarityThreshold: 0.9,
	}
}

func janeRecords() []types.RawRecord {
	return []types.RawRecord{
		{Title: "Adaptive Control", Author: "Jane Smith and John Doe", Venue: "ICRA", PubYear: "2024", DOI: "10.1/a"},
		{Title: "Deep Learning for X", Author: "Jane Smith", Venue: "NeurIPS", PubYear: "2020"},
		{Title: "Spam", Author: "Spam Bot", PubYear: "2021", DOI: "10.1/spam"},
		{Title: "Undated Note", Author: "Jane Smith"},
		{Title: "Broken", Author: "Jane Smith", PubYear: "twenty"},
	}
}

func writeExisting(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func readDir(t *testing.T, dir string) map[string]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}
	}
	require.NoError(t, err)
	files := make(map[string]string, len(entries))
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		files[e.Name()] = string(data)
	}
	return files
}

func TestRunEndToEnd(t *testing.T) {
	root := t.TempDir()
	outDir := filepath.Join(root, "publications")
	writeExisting(t, outDir, "smith2020deep.md", "---\ntitle: Deep Learning for X\nfeatured: true\nimage: deep.png\n---\nHand-written notes.\n")
	writeExisting(t, outDir, "cms-talk.md", "---\ntitle: An Invited Talk\nyear: 2019\ntype: workshop\n---\n")

	idx, err := index.NewStore(types.IndexConfig{Dir: filepath.Join(root, "index")})
	require.NoError(t, err)
	defer idx.Close()

	prov := &fakeProvider{
		records: map[string][]types.RawRecord{"A1": janeRecords()},
		errs:    map[string]error{"A2": errors.New("HTTP 503")},
	}
	core, logs := observer.New(zap.InfoLevel)
	var out bytes.Buffer

	sum, err := Run(context.Background(), Options{
		Config: testConfig(
			types.AuthorSource{Name: "Jane Smith", OpenAlexID: "A1"},
			types.AuthorSource{Name: "Flaky", OpenAlexID: "A2"},
			types.AuthorSource{Name: "No ID"},
		),
		Provider: prov,
		Store:    store.New(outDir),
		Index:    idx,
		Overrides: types.OverrideSet{
			Exclude:   []string{"10.1/spam"},
			Overrides: []types.OverridePatch{{DOI: "10.1/a", Set: map[string]any{"featured": true}}},
		},
		Logger: zap.New(core),
		Out:    &out,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Authors)
	assert.Equal(t, 1, sum.AuthorsOK)
	assert.Equal(t, 2, sum.AuthorsFailed)
	assert.Equal(t, 3, sum.Fetched)
	assert.Equal(t, 1, sum.Invalid)
	assert.Equal(t, 1, sum.Malformed)
	assert.Equal(t, 2, sum.Existing)
	assert.Equal(t, 1, sum.Stats.Excluded)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 1, sum.NetChange())
	assert.Equal(t, []string{"A1", "A2"}, prov.called(), "authors without an id are not fetched")

	files := readDir(t, outDir)
	assert.Len(t, files, 3)
	assert.Contains(t, files["smith2020deep.md"], "venue: NeurIPS")
	assert.Contains(t, files["smith2020deep.md"], "featured: true")
	assert.Contains(t, files["smith2020deep.md"], "Hand-written notes.")
	assert.Contains(t, files["smith2024adaptive.md"], "featured: true")
	assert.Contains(t, files["cms-talk.md"], "type: workshop")

	n, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	runs, err := idx.Runs(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, sum.RunID, runs[0].ID)

	assert.Contains(t, out.String(), "Authors fetched: 1/3")
	assert.Contains(t, out.String(), "Net change: +1")
	assert.Equal(t, 2, logs.FilterMessage("author failed").Len())
	for _, entry := range logs.All() {
		assert.Equal(t, sum.RunID, entry.ContextMap()["run_id"])
	}
}

func TestRunIndexMatchesCollectionOnDisk(t *testing.T) {
	root := t.TempDir()
	outDir := filepath.Join(root, "publications")
	writeExisting(t, outDir, "old-spam.md", "---\ntitle: Old Spam\nyear: 2018\ndoi: 10.1/spam\n---\n")

	idx, err := index.NewStore(types.IndexConfig{Dir: filepath.Join(root, "index")})
	require.NoError(t, err)
	defer idx.Close()

	col := store.New(outDir)
	sum, err := Run(context.Background(), Options{
		Config:    testConfig(types.AuthorSource{Name: "Jane", OpenAlexID: "A1"}),
		Provider:  &fakeProvider{records: map[string][]types.RawRecord{"A1": janeRecords()}},
		Store:     col,
		Index:     idx,
		Overrides: types.OverrideSet{Exclude: []string{"10.1/spam"}},
	})
	require.NoError(t, err)
	require.NoError(t, sum.IndexErr)
	assert.Equal(t, 2, sum.Total)

	// The excluded file is left on disk, so the catalog keeps it too.
	files := readDir(t, outDir)
	assert.Contains(t, files, "old-spam.md")
	n, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(files), n)

	loaded, err := col.Load()
	require.NoError(t, err)
	rebuilt, err := idx.Sync(context.Background(), loaded.Publications)
	require.NoError(t, err)
	assert.Zero(t, rebuilt.Inserted)
	assert.Zero(t, rebuilt.Removed)
}

func TestRunAllSourcesFailedPreservesData(t *testing.T) {
	outDir := t.TempDir()
	writeExisting(t, outDir, "keep.md", "---\ntitle: Keep Me\n---\n")
	before := readDir(t, outDir)

	prov := &fakeProvider{errs: map[string]error{"A1": errors.New("down"), "A2": errors.New("down")}}
	_, err := Run(context.Background(), Options{
		Config: testConfig(
			types.AuthorSource{Name: "One", OpenAlexID: "A1"},
			types.AuthorSource{Name: "Two", OpenAlexID: "A2"},
		),
		Provider:  prov,
		Store:     store.New(outDir),
		Overrides: types.OverrideSet{Additions: []types.Publication{{ID: "manual", Title: "Manual", Year: 2020}}},
	})

	require.ErrorIs(t, err, ErrAllSourcesFailed)
	assert.Equal(t, before, readDir(t, outDir))
}

func TestRunNoAuthors(t *testing.T) {
	_, err := Run(context.Background(), Options{Config: testConfig(), Provider: &fakeProvider{}, Store: store.New(t.TempDir())})
	assert.ErrorIs(t, err, ErrNoAuthors)
}

func TestRunDryRun(t *testing.T) {
	root := t.TempDir()
	outDir := filepath.Join(root, "publications")
	idx, err := index.NewStore(types.IndexConfig{Dir: filepath.Join(root, "index")})
	require.NoError(t, err)
	defer idx.Close()

	sum, err := Run(context.Background(), Options{
		Config:   testConfig(types.AuthorSource{Name: "Jane", OpenAlexID: "A1"}),
		Provider: &fakeProvider{records: map[string][]types.RawRecord{"A1": janeRecords()}},
		Store:    store.New(outDir),
		Index:    idx,
		DryRun:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Total)
	assert.Zero(t, sum.Written)
	assert.Empty(t, readDir(t, outDir))

	n, err := idx.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	runs, err := idx.Runs(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].DryRun)
}

func TestRunKeepsAuthorOrderUnderConcurrency(t *testing.T) {
	outDir := t.TempDir()
	release := make(chan struct{})
	secondStarted := make(chan struct{})

	prov := &fakeProvider{
		records: map[string][]types.RawRecord{
			"A1": {{Title: "Shared Paper", Author: "Jane Smith", Venue: "First Venue", PubYear: "2022"}},
			"A2": {{Title: "Shared paper.", Author: "John Doe", Venue: "Second Venue", PubYear: "2022"}},
		},
		// A1 finishes only after A2 has started, so A2 completes first.
		wait:    map[string]chan struct{}{"A1": release},
		started: map[string]chan struct{}{"A2": secondStarted},
	}
	go func() {
		<-secondStarted
		close(release)
	}()

	cfg := testConfig(
		types.AuthorSource{Name: "Jane", OpenAlexID: "A1"},
		types.AuthorSource{Name: "John", OpenAlexID: "A2"},
	)
	cfg.Concurrency = 2

	sum, err := Run(context.Background(), Options{Config: cfg, Provider: prov, Store: store.New(outDir)})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Stats.Duplicates)

	files := readDir(t, outDir)
	require.Len(t, files, 1)
	assert.Contains(t, files["smith2022shared.md"], "venue: First Venue")
}

func TestRunIsIdempotent(t *testing.T) {
	outDir := t.TempDir()
	writeExisting(t, outDir, "cms-talk.md", "---\ntitle: An Invited Talk\nyear: 2019\ntype: workshop\n---\n")
	opts := Options{
		Config:   testConfig(types.AuthorSource{Name: "Jane", OpenAlexID: "A1"}),
		Provider: &fakeProvider{records: map[string][]types.RawRecord{"A1": janeRecords()}},
		Store:    store.New(outDir),
		Overrides: types.OverrideSet{
			Overrides: []types.OverridePatch{{DOI: "10.1/a", Set: map[string]any{"venue": "ICRA 2024"}}},
			Additions: []types.Publication{{Title: "Book Chapter", Authors: []string{"Ann Lee"}, Year: 2015, Type: types.TypeBookChapter}},
		},
	}

	_, err := Run(context.Background(), opts)
	require.NoError(t, err)
	first := readDir(t, outDir)

	sum, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, first, readDir(t, outDir))
	assert.Zero(t, sum.NetChange())
	assert.Contains(t, first, "lee2015book.md")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	prov := &fakeProvider{wait: map[string]chan struct{}{"A1": make(chan struct{})}}
	_, err := Run(ctx, Options{
		Config:   testConfig(types.AuthorSource{Name: "Jane", OpenAlexID: "A1"}),
		Provider: prov,
		Store:    store.New(t.TempDir()),
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewLimiter(t *testing.T) {
	assert.True(t, NewLimiter(0).Allow())
	l := NewLimiter(time.Hour)
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}
