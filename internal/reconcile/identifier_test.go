// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/scholar-sync/pkg/types"
)

func TestGenerateID(t *testing.T) {
	tests := []struct {
		name    string
		authors string
		year    int
		title   string
		want    string
	}{
		{"first author last name", "Jane Q. Smith and John Doe", 2024, "The Adaptive Control of X", "smith2024adaptive"},
		{"no authors", "", 2020, "Deep Nets", "unknown2020deep"},
		{"punctuation stripped", "Mary O'Brien-Smith", 2018, "Graphs", "obriensmith2018graphs"},
		{"non-ascii stripped", "Jörg Müller", 2017, "Vision", "mller2017vision"},
		{"nothing alphabetic", "李", 2016, "Vision", "unknown2016vision"},
		{"all stop or short words", "A B", 2015, "A Of In", "b2015untitled"},
		{"digits split runs", "A Lee", 2022, "On the 3D Reconstruction", "lee2022reconstruction"},
		{"long stop word skipped", "A Lee", 2022, "With Great Power", "lee2022great"},
		{"unknown year", "A Lee", 0, "Graphs", "lee0graphs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateID(tt.authors, tt.year, tt.title))
		})
	}
}

func TestGenerateIDCustomStopWords(t *testing.T) {
	opts := DefaultOptions()
	opts.StopWords = StopWordSet("adaptive")
	assert.Equal(t, "smith2024control", opts.GenerateID("Jane Smith", 2024, "Adaptive Control"))
}

func TestEnsureUniqueIDs(t *testing.T) {
	in := []types.Publication{
		{ID: "a", Title: "1"},
		{ID: "a-2", Title: "2"},
		{ID: "a", Title: "3"},
		{ID: "a", Title: "4"},
		{ID: "b", Title: "5"},
	}

	out := EnsureUniqueIDs(in)

	ids := make([]string, len(out))
	for i, p := range out {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"a", "a-2", "a-3", "a-4", "b"}, ids)
	assert.Equal(t, "a", in[2].ID, "input must not be modified")
}
