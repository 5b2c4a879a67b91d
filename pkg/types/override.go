// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// OverridePatch sets fields on every record carrying DOI.
type OverridePatch struct {
	DOI string `json:"doi" yaml:"doi"`

	// Set maps front-matter field names to replacement values.
	Set map[string]any `json:"set" yaml:"set"`
}

// OverrideSet is the declarative layer of human intent applied after the
// automatic merge: DOIs to drop, field patches, and curated additions.
type OverrideSet struct {
	Exclude   []string        `json:"exclude" yaml:"exclude"`
	Overrides []OverridePatch `json:"overrides" yaml:"overrides"`
	Additions []Publication   `json:"additions" yaml:"additions"`
}

// IsEmpty reports whether the set carries no rules at all.
func (o OverrideSet) IsEmpty() bool {
	return len(o.Exclude) == 0 && len(o.Overrides) == 0 && len(o.Additions) == 0
}
