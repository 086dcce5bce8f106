package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kovalyov-valentin/research-digest/internal/model"
)

const (
	// LinkTitle is the title given to URLs found in the text rather than cited upstream.
	LinkTitle = "Link"

	urlTrailing = ".,;:!?*_`"
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"'()\[\]{}]+`)

// Sources keeps upstream citations in order, then adds URLs mentioned in the
// text that were not cited. Sources are unique by URL.
func Sources(text string, citations []string) []model.Source {
	var (
		sources []model.Source
		seen    = make(map[string]struct{})
	)

	add := func(title, url string) {
		if url == "" {
			return
		}
		if _, ok := seen[url]; ok {
			return
		}
		seen[url] = struct{}{}
		sources = append(sources, model.Source{Title: title, URL: url})
	}

	for i, citation := range citations {
		add(fmt.Sprintf("Source %d", i+1), strings.TrimSpace(citation))
	}

	for _, url := range urlPattern.FindAllString(text, -1) {
		add(LinkTitle, strings.TrimRight(url, urlTrailing))
	}

	return sources
}

// SourcesFor binds citations so the extractor matches the common signature.
func SourcesFor(citations []string) Extractor[[]model.Source] {
	return func(text string) []model.Source {
		return Sources(text, citations)
	}
}
