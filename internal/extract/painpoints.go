package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kovalyov-valentin/research-digest/internal/model"
)

const (
	minQuoteLen = 10
	maxQuoteLen = 500

	// communityWindow is how far, in characters, a community reference may sit
	// from a quote and still be attributed to it.
	communityWindow = 200
)

var (
	communityRef   = regexp.MustCompile(`(?i)(?:^|[^a-z0-9_])(r/[a-z0-9_]{2,21})`)
	singleQuoted   = regexp.MustCompile(`(?:^|[\s(\[:])'([^'\n]+)'`)
	emotionalWords = []string{
		"frustrated", "frustrating", "nightmare", "hate", "wish", "impossible",
		"terrible", "awful", "annoying", "pain", "struggle", "difficult",
		"confusing", "waste", "broken", "sick of", "fed up",
	}
)

type quoteSpan struct {
	text   string
	offset int
}

type communitySpan struct {
	name   string
	offset int
}

// PainPoints returns every quoted span that looks like a user complaint.
func PainPoints(text string) []model.PainPoint {
	quotes := quotedSpans(text)
	if len(quotes) == 0 {
		return nil
	}

	communities := communityRefs(text)
	seen := make(map[string]struct{}, len(quotes))

	var points []model.PainPoint
	for _, q := range quotes {
		if _, ok := seen[q.text]; ok {
			continue
		}
		seen[q.text] = struct{}{}

		points = append(points, model.PainPoint{
			Quote:     q.text,
			Community: nearestCommunity(communities, q.offset),
			Markers:   emotionalMarkers(q.text),
		})
	}

	return points
}

func quotedSpans(text string) []quoteSpan {
	var spans []quoteSpan
	spans = append(spans, straightSpans(text)...)
	spans = append(spans, curlySpans(text)...)

	for _, loc := range singleQuoted.FindAllStringSubmatchIndex(text, -1) {
		end := loc[3] + 1
		if end < len(text) {
			next, _ := utf8.DecodeRuneInString(text[end:])
			if unicode.IsLetter(next) || unicode.IsDigit(next) {
				continue
			}
		}
		spans = appendSpan(spans, text, loc[2]-1, loc[2], loc[3])
	}

	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].offset < spans[j].offset
	})

	return spans
}

// straightSpans finds "..." spans. A quote mark only opens a span when it does
// not follow a letter or digit (as in 5" screens) and only closes one when no
// letter or digit follows. A rejected candidate is retried from its closing mark.
func straightSpans(text string) []quoteSpan {
	var spans []quoteSpan

	for i := 0; i < len(text); {
		open := strings.IndexByte(text[i:], '"')
		if open < 0 {
			break
		}
		open += i

		if !quoteBoundary(text, open, -1) {
			i = open + 1
			continue
		}

		end := closingQuote(text, open+1)
		if end < 0 {
			i = open + 1
			continue
		}

		before := len(spans)
		spans = appendSpan(spans, text, open, open+1, end)
		if len(spans) == before {
			i = end
			continue
		}
		i = end + 1
	}

	return spans
}

// closingQuote returns the first closing mark after from on the same line, or -1.
func closingQuote(text string, from int) int {
	for j := from; j < len(text); j++ {
		switch text[j] {
		case '\n':
			return -1
		case '"':
			if quoteBoundary(text, j, 1) {
				return j
			}
		}
	}
	return -1
}

// quoteBoundary reports whether the rune before (dir -1) or after (dir 1) the
// mark at i is absent or not a letter or digit.
func quoteBoundary(text string, i, dir int) bool {
	var r rune
	if dir < 0 {
		if i == 0 {
			return true
		}
		r, _ = utf8.DecodeLastRuneInString(text[:i])
	} else {
		if i+1 >= len(text) {
			return true
		}
		r, _ = utf8.DecodeRuneInString(text[i+1:])
	}
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// curlySpans pairs each closing mark with the nearest opening mark before it.
func curlySpans(text string) []quoteSpan {
	var spans []quoteSpan

	start := -1
	for i, r := range text {
		switch {
		case r == '“':
			start = i
		case r == '”' && start >= 0:
			spans = appendSpan(spans, text, start, start+utf8.RuneLen('“'), i)
			start = -1
		}
	}

	return spans
}

func appendSpan(spans []quoteSpan, text string, quoteAt, from, to int) []quoteSpan {
	body := text[from:to]
	n := utf8.RuneCountInString(body)
	if n <= minQuoteLen || n >= maxQuoteLen {
		return spans
	}

	return append(spans, quoteSpan{
		text:   body,
		offset: utf8.RuneCountInString(text[:quoteAt]),
	})
}

func communityRefs(text string) []communitySpan {
	var refs []communitySpan
	for _, loc := range communityRef.FindAllStringSubmatchIndex(text, -1) {
		refs = append(refs, communitySpan{
			name:   text[loc[2]:loc[3]],
			offset: utf8.RuneCountInString(text[:loc[2]]),
		})
	}
	return refs
}

func nearestCommunity(refs []communitySpan, offset int) string {
	best, bestDist := "", communityWindow+1
	for _, ref := range refs {
		dist := ref.offset - offset
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			best, bestDist = ref.name, dist
		}
	}
	return best
}

func emotionalMarkers(quote string) []string {
	lower := strings.ToLower(quote)

	var markers []string
	for _, word := range emotionalWords {
		if strings.Contains(lower, word) {
			markers = append(markers, word)
		}
	}
	return markers
}
