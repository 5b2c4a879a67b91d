// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "deeplearningforx", NormalizeTitle("Deep Learning for X!!"))
	assert.Equal(t, "gpt4technicalreport", NormalizeTitle("GPT-4 Technical Report"))
	assert.Equal(t, "caf", NormalizeTitle("Café"))
	assert.Equal(t, "", NormalizeTitle("—?!"))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("", ""))
	assert.Equal(t, 0.0, Ratio("abc", ""))
	assert.Equal(t, 1.0, Ratio("abcdefghij", "abcdefghij"))
	assert.Equal(t, 0.9, Ratio("abcdefghij", "abcdefghik"))
	assert.InDelta(t, 0.75, Ratio("abcd", "bcde"), 1e-9)
}

func TestTitlesSimilar(t *testing.T) {
	assert.True(t, TitlesSimilar("Deep Learning for X", "deep learning for x!!"))
	assert.True(t, TitlesSimilar("Attention Is All You Need", "Attention is all you need."))
	assert.False(t, TitlesSimilar("Deep Learning", "Shallow Learning"))
}

func TestTitlesSimilarThresholdIsStrict(t *testing.T) {
	// Ratio is exactly 0.9: not a match at the default threshold.
	assert.False(t, TitlesSimilar("abcdefghij", "abcdefghik"))

	opts := DefaultOptions()
	opts.SimilarityThreshold = 0.89
	assert.True(t, opts.TitlesSimilar("abcdefghij", "abcdefghik"))
}

func TestZeroThresholdUsesDefault(t *testing.T) {
	opts := Options{}
	assert.False(t, opts.TitlesSimilar("abcdefghij", "abcdefghik"))
	assert.True(t, opts.TitlesSimilar("abcdefghij", "abcdefghij"))
}
