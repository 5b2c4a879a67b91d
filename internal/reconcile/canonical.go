// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/scholar-sync/pkg/types"
)

// authorSeparator joins author names in provider author strings.
const authorSeparator = " and "

// typeRules map venue substrings to a publication type. Order matters:
// the first rule with a matching keyword wins.
var typeRules = []struct {
	typ      types.PubType
	keywords []string
}{
	{types.TypePreprint, []string{"arxiv", "preprint", "biorxiv", "medrxiv", "ssrn"}},
	{types.TypeJournal, []string{"journal", "transactions", "letters"}},
	{types.TypeWorkshop, []string{"workshop", "w@"}},
	{types.TypeThesis, []string{"thesis", "dissertation"}},
	{types.TypeBookChapter, []string{"book", "chapter", "springer", "lecture notes"}},
}

// InferType classifies a venue name. Unrecognized venues, including the
// empty venue, are treated as conferences.
func InferType(venue string) types.PubType {
	v := strings.ToLower(venue)
	for _, rule := range typeRules {
		for _, kw := range rule.keywords {
			if strings.Contains(v, kw) {
				return rule.typ
			}
		}
	}
	return types.TypeConference
}

// SplitAuthors splits a " and "-joined author string into trimmed names.
func SplitAuthors(s string) []string {
	authors := []string{}
	if strings.TrimSpace(s) == "" {
		return authors
	}
	for _, a := range strings.Split(s, authorSeparator) {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}
	return authors
}

// Canonicalize maps one raw provider record into a Publication with no ID
// and featured unset. Only an unparseable year is an error.
func Canonicalize(raw types.RawRecord) (types.Publication, error) {
	year := 0
	if y := strings.TrimSpace(raw.PubYear); y != "" {
		n, err := strconv.Atoi(y)
		if err != nil {
			return types.Publication{}, fmt.Errorf("invalid pub_year %q: %w", raw.PubYear, err)
		}
		year = n
	}

	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = types.UntitledPlaceholder
	}

	venue := firstNonEmpty(raw.Venue, raw.Journal, raw.BookTitle)

	return types.Publication{
		Title:    title,
		Authors:  SplitAuthors(raw.Author),
		Venue:    venue,
		Year:     year,
		Type:     InferType(venue),
		URL:      firstNonEmpty(raw.PubURL, raw.URL),
		Abstract: strings.TrimSpace(raw.Abstract),
		DOI:      strings.TrimSpace(raw.DOI),
	}, nil
}

// IngestResult holds the canonical records built from one provider batch.
type IngestResult struct {
	Publications []types.Publication

	// Invalid counts records dropped for a year of zero or less.
	Invalid int

	// Failed holds one error per record that could not be canonicalized.
	Failed []error
}

// Ingest canonicalizes a batch, assigns identifiers from the raw author
// string, and drops records without a valid year. A malformed record fails
// alone; the rest of the batch is still processed.
func (o Options) Ingest(raws []types.RawRecord) IngestResult {
	var res IngestResult
	for i, raw := range raws {
		p, err := Canonicalize(raw)
		if err != nil {
			res.Failed = append(res.Failed, fmt.Errorf("record %d (%q): %w", i, raw.Title, err))
			continue
		}
		if p.Year <= 0 {
			res.Invalid++
			continue
		}
		p.ID = o.GenerateID(raw.Author, p.Year, p.Title)
		res.Publications = append(res.Publications, p)
	}
	return res
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
