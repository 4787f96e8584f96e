// Package match implements fuzzy duplicate detection for client records.
// It provides a pure similarity scorer and a read-only detector that ranks
// candidate matches; the decision to block or proceed with a write is
// always left to the caller.
package match

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/cases"
)

// Similarity computes the fuzzy textual similarity between a and b as a
// percentage in [0,100]. It returns 0 when either input is empty.
//
// Strings are Unicode case-folded before comparison, so the function is
// case-insensitive. It is symmetric and deterministic: Similarity(a, b) ==
// Similarity(b, a), and identical non-empty inputs score 100.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	fa := runes(cases.Fold().String(a))
	fb := runes(cases.Fold().String(b))

	// SequenceMatcher is not symmetric by construction (the second sequence
	// is the one indexed), but Ratio over character sequences is; ordering
	// the operands makes this hold even for pathological junk heuristics.
	if len(fa) > len(fb) || (len(fa) == len(fb) && strings.Join(fa, "") > strings.Join(fb, "")) {
		fa, fb = fb, fa
	}
	return difflib.NewMatcher(fa, fb).Ratio() * 100
}

// runes splits s into one string per rune for character-level matching.
func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
