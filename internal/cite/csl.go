// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cite renders publications as CSL (Citation Style Language)
// items for Pandoc and reference managers.
package cite

import (
	"encoding/json"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scholar-sync/pkg/types"
)

// CSLItem is a bibliographic entry following the CSL-JSON/CSL-YAML
// schema.
type CSLItem struct {
	ID             string    `json:"id" yaml:"id"`
	Type           string    `json:"type" yaml:"type"`
	Title          string    `json:"title" yaml:"title"`
	Author         []CSLName `json:"author,omitempty" yaml:"author,omitempty"`
	ContainerTitle string    `json:"container-title,omitempty" yaml:"container-title,omitempty"`
	Abstract       string    `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Issued         *CSLDate  `json:"issued,omitempty" yaml:"issued,omitempty"`
	DOI            string    `json:"DOI,omitempty" yaml:"DOI,omitempty"`
	URL            string    `json:"URL,omitempty" yaml:"URL,omitempty"`
}

// CSLName is a person's name in CSL format.
type CSLName struct {
	Family  string `json:"family,omitempty" yaml:"family,omitempty"`
	Given   string `json:"given,omitempty" yaml:"given,omitempty"`
	Literal string `json:"literal,omitempty" yaml:"literal,omitempty"`
}

// CSLDate is a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `json:"date-parts" yaml:"date-parts"`
}

// cslTypes maps publication types onto CSL item types.
var cslTypes = map[types.PubType]string{
	types.TypeJournal:     "article-journal",
	types.TypeConference:  "paper-conference",
	types.TypeWorkshop:    "paper-conference",
	types.TypePreprint:    "article",
	types.TypeThesis:      "thesis",
	types.TypeBookChapter: "chapter",
}

// CSLType returns the CSL item type for t. Unknown or empty types map to
// paper-conference, the collection default.
func CSLType(t types.PubType) string {
	if s, ok := cslTypes[t]; ok {
		return s
	}
	return cslTypes[types.TypeConference]
}

// ToCSL converts a publication to a CSL item.
func ToCSL(p types.Publication) CSLItem {
	item := CSLItem{
		ID:             p.ID,
		Type:           CSLType(p.Type),
		Title:          p.Title,
		ContainerTitle: p.Venue,
		Abstract:       p.Abstract,
		DOI:            p.DOI,
		URL:            p.URL,
	}
	for _, a := range p.Authors {
		if n := parseAuthorName(a); n != (CSLName{}) {
			item.Author = append(item.Author, n)
		}
	}
	if p.Year > 0 {
		item.Issued = &CSLDate{DateParts: [][]int{{p.Year}}}
	}
	return item
}

// FormatCSL writes publications as a CSL-YAML list to w.
func FormatCSL(pubs []types.Publication, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(toItems(pubs))
}

// FormatJSON writes publications as a CSL-JSON array to w.
func FormatJSON(pubs []types.Publication, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toItems(pubs))
}

func toItems(pubs []types.Publication) []CSLItem {
	items := make([]CSLItem, len(pubs))
	for i, p := range pubs {
		items[i] = ToCSL(p)
	}
	return items
}

// parseAuthorName splits a full name string into CSL family/given parts.
// It splits on the last space: everything before is given, the last token
// is family. A "Family, Given" name is split on the comma. Single-token
// names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	if family, given, ok := strings.Cut(name, ","); ok {
		family, given = strings.TrimSpace(family), strings.TrimSpace(given)
		if family != "" && given != "" {
			return CSLName{Family: family, Given: given}
		}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  strings.TrimSpace(name[:idx]),
		Family: name[idx+1:],
	}
}
