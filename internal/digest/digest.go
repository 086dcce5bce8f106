// Package digest turns a run's findings into the message that gets delivered.
package digest

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/kovalyov-valentin/research-digest/internal/model"
)

// Digest is everything one run wants to report.
type Digest struct {
	JobType     model.JobType      `json:"jobType"`
	Date        time.Time          `json:"date"`
	Findings    []model.Finding    `json:"findings"`
	Duplicates  int                `json:"duplicatesSuppressed"`
	BlogTopics  []model.BlogTopic  `json:"blogTopics,omitempty"`
	UrgentItems []model.UrgentItem `json:"urgentItems,omitempty"`
	Errors      []string           `json:"errors,omitempty"`
}

// Message is a rendered digest. Markdown marks text escaped for Telegram MarkdownV2.
type Message struct {
	Text     string
	Markdown bool
}

type Formatter interface {
	Format(ctx context.Context, d Digest) (string, error)
}

// Composer asks the formatter first and renders the digest itself when the
// formatter is missing, failing or returns nothing.
type Composer struct {
	formatter Formatter
}

func NewComposer(formatter Formatter) *Composer {
	return &Composer{formatter: formatter}
}

// Compose never fails. The second value reports whether the fallback was used.
func (c *Composer) Compose(ctx context.Context, d Digest) (Message, bool) {
	d.Findings = byPriority(d.Findings)

	if c.formatter != nil {
		text, err := c.formatter.Format(ctx, d)
		switch {
		case err != nil:
			log.Printf("[WARN] failed to format digest, using fallback: %v", err)
		case text != "":
			return Message{Text: text}, false
		}
	}

	return Message{Text: Render(d), Markdown: true}, true
}

// byPriority orders findings most urgent first, keeping query order within a level.
func byPriority(findings []model.Finding) []model.Finding {
	sorted := append([]model.Finding(nil), findings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})
	return sorted
}
