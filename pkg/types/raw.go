// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RawRecord is one publication as reported by a metadata provider, before
// canonicalization. Every field is optional.
type RawRecord struct {
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Author joins author names with " and ", BibTeX style.
	Author string `json:"author,omitempty" yaml:"author,omitempty"`

	Venue     string `json:"venue,omitempty" yaml:"venue,omitempty"`
	Journal   string `json:"journal,omitempty" yaml:"journal,omitempty"`
	BookTitle string `json:"booktitle,omitempty" yaml:"booktitle,omitempty"`

	// PubYear is kept as text because providers disagree on its type.
	PubYear string `json:"pub_year,omitempty" yaml:"pub_year,omitempty"`

	PubURL   string `json:"pub_url,omitempty" yaml:"pub_url,omitempty"`
	URL      string `json:"url,omitempty" yaml:"url,omitempty"`
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	DOI      string `json:"doi,omitempty" yaml:"doi,omitempty"`
}
