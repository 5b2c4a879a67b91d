// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reconcile

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// NormalizeTitle lowercases a title and keeps only ASCII letters and digits.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Ratio returns the difflib similarity of two strings in [0, 1]: twice the
// number of characters in matching blocks over the total length. Two empty
// strings have ratio 1.
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}

// TitlesSimilar reports whether two titles denote the same work.
func (o Options) TitlesSimilar(a, b string) bool {
	return o.normalizedSimilar(NormalizeTitle(a), NormalizeTitle(b))
}

// TitlesSimilar compares two titles with the default threshold.
func TitlesSimilar(a, b string) bool {
	return DefaultOptions().TitlesSimilar(a, b)
}

func (o Options) normalizedSimilar(a, b string) bool {
	return Ratio(a, b) > o.threshold()
}
