// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/pdiddy/scholar-sync/pkg/types"
)

var (
	// ErrUnknownField is returned for a patch naming a field the record
	// schema does not have.
	ErrUnknownField = errors.New("unknown field")

	// ErrImmutableField is returned for a patch that tries to change the
	// storage key.
	ErrImmutableField = errors.New("field cannot be patched")
)

// OverrideResult holds the collection after the override layer.
type OverrideResult struct {
	Publications []types.Publication
	Excluded     int
	Patched      int
	Added        int

	// Errors lists field patches that were skipped.
	Errors []error
}

// ApplyOverrides applies the override layer in three steps: records whose
// DOI is excluded are dropped, patches are folded in order (later patches
// to the same field win), and additions are appended.
//
// Additions are trusted and not deduplicated against the set, with two
// exceptions: an addition with an excluded DOI is dropped, and an addition
// whose ID is already present replaces that record in place. An addition
// without an ID gets one from GenerateID, so re-running over persisted
// output replaces the earlier copy instead of duplicating it.
func ApplyOverrides(pubs []types.Publication, set types.OverrideSet) OverrideResult {
	excluded := make(map[string]struct{}, len(set.Exclude))
	for _, doi := range set.Exclude {
		if doi != "" {
			excluded[doi] = struct{}{}
		}
	}
	isExcluded := func(p types.Publication) bool {
		if p.DOI == "" {
			return false
		}
		_, ok := excluded[p.DOI]
		return ok
	}

	var res OverrideResult
	out := make([]types.Publication, 0, len(pubs)+len(set.Additions))
	for _, p := range pubs {
		if isExcluded(p) {
			res.Excluded++
			continue
		}
		out = append(out, p.Clone())
	}

	for n, patch := range set.Overrides {
		if patch.DOI == "" || len(patch.Set) == 0 {
			continue
		}
		for i := range out {
			if out[i].DOI != patch.DOI {
				continue
			}
			for _, field := range sortedKeys(patch.Set) {
				if err := SetField(&out[i], field, patch.Set[field]); err != nil {
					res.Errors = append(res.Errors, fmt.Errorf("override %d (doi %s): %w", n, patch.DOI, err))
					continue
				}
				res.Patched++
			}
		}
	}

	position := make(map[string]int, len(out))
	for i, p := range out {
		position[p.ID] = i
	}
	for _, add := range set.Additions {
		if isExcluded(add) {
			res.Excluded++
			continue
		}
		add = add.Clone()
		if add.ID == "" {
			add.ID = GenerateID(strings.Join(add.Authors, authorSeparator), add.Year, add.Title)
		}
		if i, ok := position[add.ID]; ok {
			out[i] = add
		} else {
			position[add.ID] = len(out)
			out = append(out, add)
		}
		res.Added++
	}

	res.Publications = out
	return res
}

// SetField assigns value to the named front-matter field of p, coercing it
// to the field's type. On error p is left unchanged.
func SetField(p *types.Publication, field string, value any) error {
	var err error
	switch field {
	case "id":
		return fmt.Errorf("%s: %w", field, ErrImmutableField)
	case "title":
		err = setString(&p.Title, value)
	case "authors":
		var authors []string
		if authors, err = toAuthors(value); err == nil {
			p.Authors = authors
		}
	case "venue":
		err = setString(&p.Venue, value)
	case "year":
		var year int
		if year, err = cast.ToIntE(value); err == nil {
			p.Year = year
		}
	case "doi":
		err = setString(&p.DOI, value)
	case "url":
		err = setString(&p.URL, value)
	case "pdf":
		err = setString(&p.PDF, value)
	case "type":
		var s string
		if s, err = cast.ToStringE(value); err == nil {
			if t := types.PubType(s); t.Valid() {
				p.Type = t
			} else {
				err = fmt.Errorf("invalid publication type %q", s)
			}
		}
	case "featured":
		var featured bool
		if featured, err = cast.ToBoolE(value); err == nil {
			p.Featured = featured
		}
	case "abstract":
		err = setString(&p.Abstract, value)
	case "bibtex":
		err = setString(&p.BibTeX, value)
	case "image":
		err = setString(&p.Image, value)
	default:
		return fmt.Errorf("%s: %w", field, ErrUnknownField)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	return nil
}

func setString(dst *string, value any) error {
	s, err := cast.ToStringE(value)
	if err != nil {
		return err
	}
	*dst = s
	return nil
}

// toAuthors accepts a list of names or a single " and "-joined string.
func toAuthors(value any) ([]string, error) {
	if s, ok := value.(string); ok {
		return SplitAuthors(s), nil
	}
	return cast.ToStringSliceE(value)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
