package extract

import (
	"strings"

	"github.com/kovalyov-valentin/research-digest/internal/model"
)

// Priority is a literal token search, not a classifier: "no urgent updates"
// still yields urgent. Callers that care about negated phrasing check
// NothingNew before trusting the level.
func Priority(text string) model.Priority {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "urgent"):
		return model.PriorityUrgent
	case strings.Contains(lower, "high"):
		return model.PriorityHigh
	case strings.Contains(lower, "medium"):
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

var nothingNewPhrases = []string{
	"no urgent updates",
	"no urgent issues",
	"nothing urgent",
	"no significant updates",
	"no new urgent",
	"no notable updates",
	"priority: none",
	"priority level: none",
}

// NothingNew reports whether the text explicitly says there is nothing to report.
func NothingNew(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range nothingNewPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
