package extract

import (
	"regexp"
	"strings"
)

// NoInsight is returned when neither an insight section nor any key finding exists.
const NoInsight = "No key insight extracted"

var (
	sentenceBreak  = regexp.MustCompile(`[.!?]+(?:\s+|$)|\n+`)
	paragraphBreak = regexp.MustCompile(`\n[ \t]*\n`)
)

// KeyFindings prefers list entries anywhere in the text. Only when the text has
// none does it fall back to the sentences of a "key findings" section.
func KeyFindings(text string) []string {
	if items := bullets(text, maxKeyFindings); len(items) > 0 {
		return items
	}

	body, ok := section(text, func(label string) bool {
		return strings.HasPrefix(label, "key finding")
	})
	if !ok {
		return nil
	}

	var sentences []string
	for _, s := range sentenceBreak.Split(body, -1) {
		s = cleanItem(s)
		if s == "" {
			continue
		}

		sentences = append(sentences, s)
		if len(sentences) == maxFallbackItems {
			break
		}
	}

	return sentences
}

// MostImportantInsight returns the first paragraph of the insight section,
// then the first key finding, then NoInsight.
func MostImportantInsight(text string) string {
	body, ok := section(text, func(label string) bool {
		return strings.HasPrefix(label, "most important insight")
	})
	if ok {
		for _, para := range paragraphBreak.Split(body, -1) {
			if insight := joinLines(para); insight != "" {
				return insight
			}
		}
	}

	if findings := KeyFindings(text); len(findings) > 0 {
		return findings[0]
	}

	return NoInsight
}

// SolutionRequests lists what users say they are asking for.
func SolutionRequests(text string) []string {
	return sectionBullets(text, func(label string) bool {
		return strings.HasPrefix(label, "solution") || strings.HasPrefix(label, "what ")
	})
}

func ActionItems(text string) []string {
	return sectionBullets(text, func(label string) bool {
		return strings.HasPrefix(label, "action item")
	})
}

func sectionBullets(text string, match func(string) bool) []string {
	body, ok := section(text, match)
	if !ok {
		return nil
	}
	return bullets(body, maxSectionBullets)
}

func joinLines(para string) string {
	var parts []string
	for _, line := range strings.Split(para, "\n") {
		if line = cleanItem(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}
