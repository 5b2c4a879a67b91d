// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"sort"

	"github.com/pdiddy/scholar-sync/pkg/types"
)

// Sort returns a copy of pubs ordered by year descending, then title
// ascending (byte-wise). Records with equal keys keep their input order.
func Sort(pubs []types.Publication) []types.Publication {
	out := make([]types.Publication, len(pubs))
	copy(out, pubs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Title < out[j].Title
	})
	return out
}
