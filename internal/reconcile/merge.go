// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import "github.com/pdiddy/scholar-sync/pkg/types"

// MergeResult holds the merged collection and its counts.
type MergeResult struct {
	Publications []types.Publication

	// Merged counts fresh records folded into an existing record.
	Merged int

	// New counts fresh records with no existing counterpart.
	New int

	// Orphans counts existing records kept verbatim because nothing fresh
	// corresponds to them.
	Orphans int
}

// Merge reconciles fresh records against the persisted collection using
// the default similarity threshold.
func Merge(fresh, existing []types.Publication) MergeResult {
	return DefaultOptions().Merge(fresh, existing)
}

// Merge reconciles deduplicated fresh records against the persisted
// collection.
//
// A fresh record matches an existing one by ID when their titles are equal
// after normalization or similar, or failing that by equal normalized
// title. ID matches are resolved for the whole batch before title
// matches, and each existing record absorbs at most one fresh record (the
// first in input order). A matched pair is combined with MergeRecords; an
// unmatched fresh record passes through, suffixed if its ID is already
// held by a kept existing record.
//
// Existing records that absorbed nothing and whose normalized title no
// fresh record shares are appended verbatim, in their original order.
// Manually curated entries are never dropped just because the provider
// stopped reporting them.
func (o Options) Merge(fresh, existing []types.Publication) MergeResult {
	byID := make(map[string]int, len(existing))
	byTitle := make(map[string]int, len(existing))
	for i, e := range existing {
		if e.ID != "" {
			byID[e.ID] = i
		}
		byTitle[NormalizeTitle(e.Title)] = i
	}

	match := make([]int, len(fresh))
	claimed := make([]bool, len(existing))
	for i, p := range fresh {
		match[i] = -1
		j, ok := byID[p.ID]
		if !ok || p.ID == "" || claimed[j] {
			continue
		}
		a, b := NormalizeTitle(p.Title), NormalizeTitle(existing[j].Title)
		if a == b || o.normalizedSimilar(a, b) {
			match[i] = j
			claimed[j] = true
		}
	}
	freshTitles := make(map[string]struct{}, len(fresh))
	for i, p := range fresh {
		title := NormalizeTitle(p.Title)
		freshTitles[title] = struct{}{}
		if match[i] >= 0 {
			continue
		}
		if j, ok := byTitle[title]; ok && !claimed[j] {
			match[i] = j
			claimed[j] = true
		}
	}

	res := MergeResult{Publications: make([]types.Publication, 0, len(fresh)+len(existing))}
	used := make(map[string]struct{}, len(fresh)+len(existing))

	var orphans []types.Publication
	for j, e := range existing {
		if claimed[j] {
			continue
		}
		if _, ok := freshTitles[NormalizeTitle(e.Title)]; ok {
			continue
		}
		orphans = append(orphans, e.Clone())
		used[e.ID] = struct{}{}
	}

	merged := make([]types.Publication, len(fresh))
	for i, p := range fresh {
		if j := match[i]; j >= 0 {
			merged[i] = MergeRecords(existing[j], p)
			used[merged[i].ID] = struct{}{}
		}
	}
	for i, p := range fresh {
		if match[i] >= 0 {
			res.Publications = append(res.Publications, merged[i])
			res.Merged++
			continue
		}
		p = p.Clone()
		if _, taken := used[p.ID]; taken && p.ID != "" {
			p.ID = nextFreeID(p.ID, used)
		}
		used[p.ID] = struct{}{}
		res.Publications = append(res.Publications, p)
		res.New++
	}

	res.Publications = append(res.Publications, orphans...)
	res.Orphans = len(orphans)
	return res
}

// MergeRecords returns existing updated with fresh. The bibliographic core
// (title, authors, venue, year) always takes a set fresh value; every other
// field takes the fresh value only where existing is empty, so curated
// values such as featured, abstract, or image survive.
func MergeRecords(existing, fresh types.Publication) types.Publication {
	out := existing.Clone()

	if fresh.Title != "" {
		out.Title = fresh.Title
	}
	if len(fresh.Authors) > 0 {
		out.Authors = append([]string(nil), fresh.Authors...)
	}
	if fresh.Venue != "" {
		out.Venue = fresh.Venue
	}
	if fresh.Year != 0 {
		out.Year = fresh.Year
	}

	fillString(&out.ID, fresh.ID)
	fillString(&out.DOI, fresh.DOI)
	fillString(&out.URL, fresh.URL)
	fillString(&out.PDF, fresh.PDF)
	fillString(&out.Abstract, fresh.Abstract)
	fillString(&out.BibTeX, fresh.BibTeX)
	fillString(&out.Image, fresh.Image)
	fillString(&out.Body, fresh.Body)
	if out.Type == "" {
		out.Type = fresh.Type
	}
	if !out.Featured {
		out.Featured = fresh.Featured
	}
	return out
}

func fillString(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}
