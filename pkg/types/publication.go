// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the scholar-sync pipeline:
// the canonical Publication record, raw provider records, the override
// layer, and run configuration.
package types

// PubType classifies a publication by venue kind.
type PubType string

const (
	TypeJournal     PubType = "journal"
	TypeConference  PubType = "conference"
	TypePreprint    PubType = "preprint"
	TypeWorkshop    PubType = "workshop"
	TypeThesis      PubType = "thesis"
	TypeBookChapter PubType = "book-chapter"
)

// Valid reports whether t is one of the closed set of publication types.
func (t PubType) Valid() bool {
	switch t {
	case TypeJournal, TypeConference, TypePreprint, TypeWorkshop, TypeThesis, TypeBookChapter:
		return true
	}
	return false
}

// UntitledPlaceholder replaces an empty title so a record always has one.
const UntitledPlaceholder = "Untitled"

// Publication is the canonical record persisted as one Markdown file.
// The same shape is used for freshly fetched and persisted data.
type Publication struct {
	// ID is the storage key (the filename stem). The Markdown codec never
	// writes it into the front matter.
	ID string `json:"id" yaml:"id,omitempty"`

	Title    string   `json:"title" yaml:"title"`
	Authors  []string `json:"authors" yaml:"authors"`
	Venue    string   `json:"venue" yaml:"venue"`
	Year     int      `json:"year" yaml:"year"`
	DOI      string   `json:"doi,omitempty" yaml:"doi,omitempty"`
	URL      string   `json:"url,omitempty" yaml:"url,omitempty"`
	PDF      string   `json:"pdf,omitempty" yaml:"pdf,omitempty"`
	Type     PubType  `json:"type" yaml:"type"`
	Featured bool     `json:"featured" yaml:"featured"`
	Abstract string   `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	BibTeX   string   `json:"bibtex,omitempty" yaml:"bibtex,omitempty"`
	Image    string   `json:"image" yaml:"image"`

	// Body is the Markdown content after the front matter. It is carried
	// through reconciliation untouched so curated prose survives rewrites.
	Body string `json:"-" yaml:"-"`
}

// Clone returns a copy of p that shares no backing arrays with it.
func (p Publication) Clone() Publication {
	if p.Authors != nil {
		p.Authors = append([]string(nil), p.Authors...)
	}
	return p
}
