// Package extract pulls typed fields out of free-form research text.
//
// Every extractor is a pure function over the raw text. A pattern that is not
// found is never an error: the extractor returns its documented default.
package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Extractor is the common shape of every text extractor. Alternative parsing
// strategies only have to satisfy this signature to be swapped in.
type Extractor[T any] func(text string) T

const (
	maxKeyFindings    = 10
	maxFallbackItems  = 5
	maxSectionBullets = 5

	minBulletLen = 10
	maxBulletLen = 300
)

var (
	bulletLine   = regexp.MustCompile(`(?m)^[ \t]*(?:[-*•]|\d+[.)])[ \t]+(.+?)[ \t]*$`)
	bulletMarker = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
	boldMarker   = regexp.MustCompile(`\*\*|__`)

	// labelLine matches a section label at the start of a line: optional heading
	// or numbering, optional bold, the label itself, an optional parenthetical,
	// then either a colon (content may follow on the same line) or end of line.
	labelLine = regexp.MustCompile(`(?im)^[ \t>]*(?:#{1,6}[ \t]*)?(?:\d+[.)][ \t]*)?(?:\*\*|__)?[ \t]*(` +
		`key findings?|most important insights?|(?:top )?pain points?|solution requests?|solutions?|` +
		`what [^\n:]{0,40}?asking for|action items?|priority(?: level)?|sources?|citations?` +
		`)(?:[ \t]*\([^)\n]*\))?[ \t]*(?:\*\*|__)?[ \t]*(?::[ \t]*(?:\*\*|__)?|$)[ \t]*`)
)

// section returns the body that follows the first label accepted by match,
// up to the next known label or the end of the text.
func section(text string, match func(label string) bool) (string, bool) {
	labels := labelLine.FindAllStringSubmatchIndex(text, -1)
	for i, loc := range labels {
		label := strings.ToLower(text[loc[2]:loc[3]])
		if !match(label) {
			continue
		}

		end := len(text)
		if i+1 < len(labels) {
			end = labels[i+1][0]
		}
		return text[loc[1]:end], true
	}

	return "", false
}

// bullets returns list entries whose length lies strictly between the bounds.
func bullets(text string, limit int) []string {
	var items []string
	for _, m := range bulletLine.FindAllStringSubmatch(text, -1) {
		item := cleanItem(m[1])
		n := utf8.RuneCountInString(item)
		if n <= minBulletLen || n >= maxBulletLen {
			continue
		}

		items = append(items, item)
		if len(items) == limit {
			break
		}
	}

	return items
}

func cleanItem(s string) string {
	s = bulletMarker.ReplaceAllString(s, "")
	s = boldMarker.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
