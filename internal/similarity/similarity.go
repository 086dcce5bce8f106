// Package similarity holds the lexical overlap measures used to suppress
// findings and blog topics that were already covered.
package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
	"github.com/tomakado/containers/set"
)

// minJaccardToken drops short words that carry no topical signal.
const minJaccardToken = 3

// Tokens lowercases text and splits it on whitespace.
func Tokens(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func longTokens(text string, minLen int) []string {
	return lo.Filter(Tokens(text), func(tok string, _ int) bool {
		return utf8.RuneCountInString(tok) > minLen
	})
}

// Jaccard is |A∩B| / |A∪B| over the sets of tokens longer than three
// characters. It is 0 when either set is empty.
func Jaccard(a, b string) float64 {
	ta := lo.Uniq(longTokens(a, minJaccardToken))
	tb := lo.Uniq(longTokens(b, minJaccardToken))
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	common := intersection(ta, tb)
	union := len(ta) + len(tb) - common

	return float64(common) / float64(union)
}

// OverlapRatio counts the tokens, repeats included, that also occur in
// reference and divides by the length of reference. It is 0 for an empty
// reference.
func OverlapRatio(tokens, reference []string) float64 {
	if len(reference) == 0 {
		return 0
	}

	members := set.New(reference...)
	found := lo.CountBy(tokens, func(tok string) bool {
		return members.Contains(tok)
	})

	return float64(found) / float64(len(reference))
}

// intersection counts items of a present in b. Both must be free of repeats.
func intersection(a, b []string) int {
	members := set.New(b...)
	return len(lo.Filter(a, func(tok string, _ int) bool {
		return members.Contains(tok)
	}))
}
