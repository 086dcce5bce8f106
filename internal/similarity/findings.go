package similarity

import (
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/kovalyov-valentin/research-digest/internal/model"
)

const (
	summaryOverlapThreshold  = 0.5
	findingsJaccardThreshold = 0.4
	urgentOverlapThreshold   = 0.5
)

// Match locates the history entry a finding duplicates.
type Match struct {
	WeekStart time.Time
	Index     int
	Entry     model.HistoryEntry
	// Score is the measure that crossed its threshold.
	Score float64
	// By is "summary" or "key findings".
	By string
}

// Duplicate pairs a suppressed finding with the history entry it repeats.
type Duplicate struct {
	Finding model.Finding
	Match   Match
}

// FindDuplicate searches weeks newest first and entries in order, stopping at
// the first entry of the same project whose summary overlaps by more than half
// or whose key findings have a Jaccard similarity above 0.4.
func FindDuplicate(f model.Finding, window []model.WeeklyHistory) (Match, bool) {
	weeks := append([]model.WeeklyHistory(nil), window...)
	sort.SliceStable(weeks, func(i, j int) bool {
		return weeks[i].WeekStart.After(weeks[j].WeekStart)
	})

	summary := lo.Uniq(Tokens(f.MostImportantInsight))
	findings := strings.Join(f.KeyFindings, " ")

	for _, week := range weeks {
		for i, entry := range week.Entries {
			if entry.Project != f.Project {
				continue
			}

			m := Match{WeekStart: week.WeekStart, Index: i, Entry: entry}

			if score := OverlapRatio(Tokens(entry.Summary), summary); score > summaryOverlapThreshold {
				m.Score, m.By = score, "summary"
				return m, true
			}

			if score := Jaccard(findings, strings.Join(entry.KeyFindings, " ")); score > findingsJaccardThreshold {
				m.Score, m.By = score, "key findings"
				return m, true
			}
		}
	}

	return Match{}, false
}

// Partition splits findings into those not yet reported and those repeating history.
func Partition(findings []model.Finding, window []model.WeeklyHistory) ([]model.Finding, []Duplicate) {
	var (
		unique []model.Finding
		dupes  []Duplicate
	)

	for _, f := range findings {
		if m, ok := FindDuplicate(f, window); ok {
			dupes = append(dupes, Duplicate{Finding: f, Match: m})
			continue
		}
		unique = append(unique, f)
	}

	return unique, dupes
}

// SameUrgentItem reports whether an evening item repeats a morning one: same
// project and either the same summary or evening words found in the morning
// summary outnumber half of its words.
func SameUrgentItem(evening, morning model.UrgentItem) bool {
	if evening.Project != morning.Project {
		return false
	}

	eveningTokens, morningTokens := Tokens(evening.Summary), Tokens(morning.Summary)
	if strings.Join(eveningTokens, " ") == strings.Join(morningTokens, " ") {
		return true
	}

	return OverlapRatio(eveningTokens, morningTokens) > urgentOverlapThreshold
}
