// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import "github.com/pdiddy/scholar-sync/pkg/types"

// Deduplicate drops records that repeat an earlier DOI or whose title is
// similar to an already accepted title. The first occurrence wins and
// input order is preserved. It returns the survivors and the number of
// records dropped.
//
// Every candidate is compared against every accepted title, so the cost is
// quadratic in the batch size.
func (o Options) Deduplicate(pubs []types.Publication) ([]types.Publication, int) {
	seenDOIs := make(map[string]struct{})
	var accepted []string // normalized titles
	unique := make([]types.Publication, 0, len(pubs))
	removed := 0

	for _, p := range pubs {
		if p.DOI != "" {
			if _, ok := seenDOIs[p.DOI]; ok {
				removed++
				continue
			}
			seenDOIs[p.DOI] = struct{}{}
		}

		norm := NormalizeTitle(p.Title)
		if o.similarToAny(norm, accepted) {
			removed++
			continue
		}

		accepted = append(accepted, norm)
		unique = append(unique, p.Clone())
	}
	return unique, removed
}

// Deduplicate uses the default options.
func Deduplicate(pubs []types.Publication) ([]types.Publication, int) {
	return DefaultOptions().Deduplicate(pubs)
}

func (o Options) similarToAny(norm string, accepted []string) bool {
	for _, seen := range accepted {
		if o.normalizedSimilar(norm, seen) {
			return true
		}
	}
	return false
}
