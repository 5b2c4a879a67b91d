// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile turns freshly fetched provider records into the final,
// ordered publication collection. It canonicalizes raw records, assigns
// identifiers, deduplicates, merges against the persisted collection while
// preserving manual curation, applies the override layer, and sorts.
//
// Everything here is pure and synchronous: functions take fully
// materialized slices and return new ones without mutating their inputs.
package reconcile

import (
	"strings"

	"github.com/pdiddy/scholar-sync/pkg/types"
)

// DefaultSimilarityThreshold is the title ratio a pair must exceed to be
// considered the same work.
const DefaultSimilarityThreshold = 0.9

// defaultStopWords are skipped when picking the identifier keyword.
var defaultStopWords = []string{"a", "an", "the", "of", "in", "on", "for", "and", "to", "with", "is", "are"}

// Options holds the tunable constants of the pipeline.
type Options struct {
	// SimilarityThreshold is compared with a strict greater-than.
	SimilarityThreshold float64

	// StopWords are title words never used as an identifier keyword.
	StopWords map[string]struct{}
}

// DefaultOptions returns the standard threshold and stop-word list.
func DefaultOptions() Options {
	return Options{
		SimilarityThreshold: DefaultSimilarityThreshold,
		StopWords:           StopWordSet(defaultStopWords...),
	}
}

// StopWordSet builds a stop-word set from words.
func StopWordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

// Stats counts what happened to records during one Run.
type Stats struct {
	Fresh      int // records entering dedup
	Duplicates int // dropped by dedup
	Merged     int // folded into an existing record
	New        int // no existing counterpart
	Orphans    int // existing records kept without a fresh counterpart
	Excluded   int
	Patched    int // record-field patches applied
	Added      int
}

// Result is the outcome of one Run.
type Result struct {
	Publications []types.Publication
	Stats        Stats

	// OverrideErrors lists patches that could not be applied.
	OverrideErrors []error
}

// Run reconciles fresh records with the existing collection and the
// override layer. Fresh records without an ID receive a generated one.
func (o Options) Run(fresh, existing []types.Publication, overrides types.OverrideSet) Result {
	withIDs := make([]types.Publication, len(fresh))
	for i, p := range fresh {
		p = p.Clone()
		if p.ID == "" {
			p.ID = o.GenerateID(strings.Join(p.Authors, authorSeparator), p.Year, p.Title)
		}
		withIDs[i] = p
	}

	unique, dups := o.Deduplicate(withIDs)
	unique = EnsureUniqueIDs(unique)

	merged := o.Merge(unique, existing)
	applied := ApplyOverrides(merged.Publications, overrides)

	return Result{
		Publications: Sort(applied.Publications),
		Stats: Stats{
			Fresh:      len(fresh),
			Duplicates: dups,
			Merged:     merged.Merged,
			New:        merged.New,
			Orphans:    merged.Orphans,
			Excluded:   applied.Excluded,
			Patched:    applied.Patched,
			Added:      applied.Added,
		},
		OverrideErrors: applied.Errors,
	}
}

func (o Options) threshold() float64 {
	if o.SimilarityThreshold <= 0 {
		return DefaultSimilarityThreshold
	}
	return o.SimilarityThreshold
}

func (o Options) stopWords() map[string]struct{} {
	if o.StopWords == nil {
		return StopWordSet(defaultStopWords...)
	}
	return o.StopWords
}
