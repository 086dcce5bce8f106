package finding

import (
	"time"

	"github.com/kovalyov-valentin/research-digest/internal/extract"
	"github.com/kovalyov-valentin/research-digest/internal/model"
)

const (
	maxKeyFindings = 10
	maxListItems   = 5
)

// Assembler composes extractor outputs into a Finding. Each field holds the
// parsing strategy for one part of the record and can be replaced independently.
type Assembler struct {
	KeyFindings      extract.Extractor[[]string]
	Insight          extract.Extractor[string]
	PainPoints       extract.Extractor[[]model.PainPoint]
	SolutionRequests extract.Extractor[[]string]
	ActionItems      extract.Extractor[[]string]
	Priority         extract.Extractor[model.Priority]
	Sources          func(citations []string) extract.Extractor[[]model.Source]
}

// NewAssembler returns an assembler wired with the lexical extractors.
func NewAssembler() *Assembler {
	return &Assembler{
		KeyFindings:      extract.KeyFindings,
		Insight:          extract.MostImportantInsight,
		PainPoints:       extract.PainPoints,
		SolutionRequests: extract.SolutionRequests,
		ActionItems:      extract.ActionItems,
		Priority:         extract.Priority,
		Sources:          extract.SourcesFor,
	}
}

func (a *Assembler) Assemble(query model.Query, text string, citations []string, now time.Time) model.Finding {
	return model.Finding{
		Query:                query.Text,
		Project:              query.Project,
		Category:             query.Category,
		KeyFindings:          capped(a.KeyFindings(text), maxKeyFindings),
		MostImportantInsight: a.Insight(text),
		PainPoints:           a.PainPoints(text),
		SolutionRequests:     capped(a.SolutionRequests(text), maxListItems),
		ActionItems:          capped(a.ActionItems(text), maxListItems),
		Priority:             clampPriority(a.Priority(text)),
		Sources:              a.Sources(citations)(text),
		RawText:              text,
		CreatedAt:            now,
	}
}

// Condense projects a finding into its history form.
func Condense(f model.Finding) model.HistoryEntry {
	urls := make([]string, 0, 3)
	for _, s := range f.Sources {
		if len(urls) == 3 {
			break
		}
		urls = append(urls, s.URL)
	}

	return model.HistoryEntry{
		Date:        f.CreatedAt,
		Project:     f.Project,
		Category:    f.Category,
		Summary:     f.MostImportantInsight,
		KeyFindings: capped(append([]string(nil), f.KeyFindings...), maxListItems),
		Sources:     urls,
	}
}

// Urgent projects a finding into an urgent item. ok is false below high priority.
func Urgent(f model.Finding) (model.UrgentItem, bool) {
	if !f.Priority.IsUrgent() {
		return model.UrgentItem{}, false
	}

	item := model.UrgentItem{
		Project:   f.Project,
		Summary:   f.MostImportantInsight,
		Priority:  f.Priority,
		Category:  f.Category,
		Timestamp: f.CreatedAt,
	}
	if len(f.Sources) > 0 {
		item.SourceURL = f.Sources[0].URL
	}

	return item, true
}

func capped[T any](items []T, limit int) []T {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

func clampPriority(p model.Priority) model.Priority {
	if p < model.PriorityLow || p > model.PriorityUrgent {
		return model.PriorityLow
	}
	return p
}
