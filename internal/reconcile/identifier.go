// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/scholar-sync/pkg/types"
)

const (
	unknownAuthor   = "unknown"
	untitledKeyword = "untitled"
)

var (
	nonLowerAlpha = regexp.MustCompile(`[^a-z]`)
	lowerAlphaRun = regexp.MustCompile(`[a-z]+`)
)

// GenerateID derives a key like "smith2024adaptive" using the default
// stop words. See Options.GenerateID.
func GenerateID(authors string, year int, title string) string {
	return DefaultOptions().GenerateID(authors, year, title)
}

// GenerateID derives {lastname}{year}{keyword} from a " and "-joined
// author string, a year, and a title. The result is deterministic but not
// unique; use EnsureUniqueIDs on a batch.
func (o Options) GenerateID(authors string, year int, title string) string {
	return lastName(authors) + fmt.Sprint(year) + o.keyword(title)
}

// lastName returns the lowercased final token of the first author with
// everything outside a-z removed.
func lastName(authors string) string {
	first := strings.TrimSpace(strings.Split(authors, authorSeparator)[0])
	parts := strings.Fields(first)
	if len(parts) == 0 {
		return unknownAuthor
	}
	name := nonLowerAlpha.ReplaceAllString(strings.ToLower(parts[len(parts)-1]), "")
	if name == "" {
		return unknownAuthor
	}
	return name
}

// keyword returns the first title word longer than two letters that is
// not a stop word.
func (o Options) keyword(title string) string {
	stop := o.stopWords()
	for _, w := range lowerAlphaRun.FindAllString(strings.ToLower(title), -1) {
		if len(w) <= 2 {
			continue
		}
		if _, skip := stop[w]; skip {
			continue
		}
		return w
	}
	return untitledKeyword
}

// EnsureUniqueIDs returns a copy of pubs in which every later occurrence of
// an already used ID gets a numeric suffix ("-2", "-3", ...).
func EnsureUniqueIDs(pubs []types.Publication) []types.Publication {
	out := make([]types.Publication, len(pubs))
	used := make(map[string]struct{}, len(pubs))
	for _, p := range pubs {
		used[p.ID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(pubs))
	for i, p := range pubs {
		p = p.Clone()
		if _, dup := seen[p.ID]; dup {
			p.ID = nextFreeID(p.ID, used)
			used[p.ID] = struct{}{}
		}
		seen[p.ID] = struct{}{}
		out[i] = p
	}
	return out
}

// nextFreeID returns the first of id-2, id-3, ... not present in used.
func nextFreeID(id string, used map[string]struct{}) string {
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", id, n)
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}
