// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scholar-sync/pkg/types"
)

func TestMergePreservesCuration(t *testing.T) {
	existing := []types.Publication{
		{ID: "smith2020deep", Title: "Deep Learning", Featured: true},
	}
	fresh := []types.Publication{
		{ID: "smith2020deep", Title: "Deep Learning", Venue: "NeurIPS", Year: 2020},
	}

	res := Merge(fresh, existing)

	require.Len(t, res.Publications, 1)
	got := res.Publications[0]
	assert.True(t, got.Featured)
	assert.Equal(t, "NeurIPS", got.Venue)
	assert.Equal(t, 2020, got.Year)
	assert.Equal(t, 1, res.Merged)
	assert.Equal(t, 0, res.New)
	assert.Equal(t, 0, res.Orphans)
}

func TestMergeRecords(t *testing.T) {
	existing := types.Publication{
		ID:       "cms-1",
		Title:    "Old Title",
		Authors:  []string{"Old Author"},
		Venue:    "Old Venue",
		Year:     2019,
		Abstract: "Curated abstract.",
		Image:    "cover.png",
		Type:     types.TypeJournal,
		Body:     "Notes.",
	}
	fresh := types.Publication{
		ID:       "smith2020new",
		Title:    "New Title",
		Authors:  []string{"New Author"},
		Venue:    "New Venue",
		Year:     2020,
		Abstract: "Fetched abstract.",
		URL:      "https://example.org",
		DOI:      "10.1/new",
		Type:     types.TypeConference,
	}

	got := MergeRecords(existing, fresh)

	assert.Equal(t, "cms-1", got.ID)
	assert.Equal(t, "New Title", got.Title)
	assert.Equal(t, []string{"New Author"}, got.Authors)
	assert.Equal(t, "New Venue", got.Venue)
	assert.Equal(t, 2020, got.Year)
	assert.Equal(t, "Curated abstract.", got.Abstract)
	assert.Equal(t, "cover.png", got.Image)
	assert.Equal(t, types.TypeJournal, got.Type)
	assert.Equal(t, "https://example.org", got.URL)
	assert.Equal(t, "10.1/new", got.DOI)
	assert.Equal(t, "Notes.", got.Body)

	// Empty fresh core fields do not erase existing values.
	got = MergeRecords(existing, types.Publication{Title: "Only Title"})
	assert.Equal(t, "Old Venue", got.Venue)
	assert.Equal(t, 2019, got.Year)
	assert.Equal(t, []string{"Old Author"}, got.Authors)
}

func TestMergeByNormalizedTitle(t *testing.T) {
	existing := []types.Publication{{ID: "cms-1", Title: "Deep Learning!", Image: "x.png"}}
	fresh := []types.Publication{{ID: "smith2020deep", Title: "deep learning", Year: 2020}}

	res := Merge(fresh, existing)

	require.Len(t, res.Publications, 1)
	assert.Equal(t, "cms-1", res.Publications[0].ID)
	assert.Equal(t, "deep learning", res.Publications[0].Title)
	assert.Equal(t, "x.png", res.Publications[0].Image)
}

func TestMergeTitleMatchIsExact(t *testing.T) {
	existing := []types.Publication{{ID: "cms-1", Title: "Deep Learning Methods"}}
	fresh := []types.Publication{{ID: "smith2020deep", Title: "Deep Learning Method", Year: 2020}}

	res := Merge(fresh, existing)

	require.Len(t, res.Publications, 2)
	assert.Equal(t, 1, res.New)
	assert.Equal(t, 1, res.Orphans)
}

func TestMergeRetainsOrphans(t *testing.T) {
	manual := types.Publication{
		ID: "cms-manual-1", Title: "A Survey of Unrelated Topics", Year: 2018,
		Authors: []string{"Ann Lee"}, Featured: true,
	}
	existing := []types.Publication{
		{ID: "smith2020deep", Title: "Deep Learning"},
		manual,
	}
	fresh := []types.Publication{
		{ID: "smith2020deep", Title: "Deep Learning", Year: 2020},
		{ID: "doe2021graph", Title: "Graph Networks", Year: 2021},
	}

	res := Merge(fresh, existing)

	require.Len(t, res.Publications, 3)
	assert.Equal(t, manual, res.Publications[2])
	assert.Equal(t, 1, res.Orphans)
	assert.Equal(t, 1, res.New)
}

func TestMergeDropsExistingSharingFreshTitle(t *testing.T) {
	// Two persisted files with the same title: the title index points at
	// the last one, the other is superseded by the fresh record's title.
	existing := []types.Publication{
		{ID: "dup-a", Title: "Graph Networks"},
		{ID: "dup-b", Title: "Graph networks."},
	}
	fresh := []types.Publication{{ID: "doe2021graph", Title: "Graph Networks", Year: 2021}}

	res := Merge(fresh, existing)

	require.Len(t, res.Publications, 1)
	assert.Equal(t, "dup-b", res.Publications[0].ID)
}

func TestMergeEachExistingAbsorbsOneFresh(t *testing.T) {
	existing := []types.Publication{{ID: "e1", Title: "Deep Learning", Featured: true}}
	fresh := []types.Publication{
		{ID: "other2020deep", Title: "Deep Learning", Year: 2020},
		{ID: "e1", Title: "Deep Learning", Year: 2021},
	}

	res := Merge(fresh, existing)

	require.Len(t, res.Publications, 2)
	// The ID match claims the existing record even though it comes second.
	assert.Equal(t, "other2020deep", res.Publications[0].ID)
	assert.False(t, res.Publications[0].Featured)
	assert.Equal(t, "e1", res.Publications[1].ID)
	assert.True(t, res.Publications[1].Featured)
	assert.Equal(t, 2021, res.Publications[1].Year)
	assert.Equal(t, 1, res.Merged)
	assert.Equal(t, 1, res.New)
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	existing := []types.Publication{{ID: "a", Title: "T", Authors: []string{"X"}}}
	fresh := []types.Publication{{ID: "a", Title: "T", Authors: []string{"Y"}, Year: 2020}}

	res := Merge(fresh, existing)
	res.Publications[0].Authors[0] = "Z"

	assert.Equal(t, "X", existing[0].Authors[0])
	assert.Equal(t, "Y", fresh[0].Authors[0])
	assert.Equal(t, 0, existing[0].Year)
}

func TestMergeIDMatchRequiresSimilarTitle(t *testing.T) {
	existing := []types.Publication{
		{ID: "smith2020learning", Title: "Learning Graphs", Featured: true, Image: "graphs.png"},
	}
	fresh := []types.Publication{
		{ID: "smith2020learning", Title: "Learning Proteins", Year: 2020},
	}

	res := Merge(fresh, existing)

	require.Len(t, res.Publications, 2)
	assert.Equal(t, 0, res.Merged)
	assert.Equal(t, 1, res.New)
	assert.Equal(t, 1, res.Orphans)

	proteins := res.Publications[0]
	assert.Equal(t, "Learning Proteins", proteins.Title)
	assert.Equal(t, "smith2020learning-2", proteins.ID)
	assert.False(t, proteins.Featured)
	assert.Empty(t, proteins.Image)

	assert.Equal(t, existing[0], res.Publications[1])
}

func TestMergeIDMatchAcceptsSimilarTitle(t *testing.T) {
	existing := []types.Publication{{ID: "smith2020deep", Title: "Deep Learning for X", Featured: true}}
	fresh := []types.Publication{{ID: "smith2020deep", Title: "Deep Learning for Xs", Venue: "NeurIPS", Year: 2020}}

	res := Merge(fresh, existing)

	require.Len(t, res.Publications, 1)
	assert.Equal(t, 1, res.Merged)
	assert.True(t, res.Publications[0].Featured)
	assert.Equal(t, "NeurIPS", res.Publications[0].Venue)
}
