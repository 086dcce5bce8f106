package digest

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/kovalyov-valentin/research-digest/internal/botkit/markup"
	"github.com/kovalyov-valentin/research-digest/internal/model"
)

const maxRenderedSources = 3

var priorityIcons = map[model.Priority]string{
	model.PriorityUrgent: "🔴",
	model.PriorityHigh:   "🟠",
	model.PriorityMedium: "🟡",
	model.PriorityLow:    "⚪",
}

// Render lays the digest out as Telegram MarkdownV2 without any model help.
func Render(d Digest) string {
	if d.JobType == model.JobEvening {
		return renderAlert(d)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Research digest %s*\n", esc(d.Date.Format(time.DateOnly)))

	if len(d.Findings) == 0 {
		b.WriteString("\nNo new findings today\\.\n")
	}

	for _, project := range projects(d.Findings) {
		fmt.Fprintf(&b, "\n*%s*\n", esc(strings.ToUpper(string(project))))

		for _, f := range d.Findings {
			if f.Project == project {
				renderFinding(&b, f)
			}
		}
	}

	if len(d.BlogTopics) > 0 {
		b.WriteString("\n*Blog topics*\n")
		for _, topic := range d.BlogTopics {
			renderTopic(&b, topic)
		}
	}

	renderFooter(&b, d)
	return b.String()
}

func renderAlert(d Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚨 *Evening alert %s*\n\n", esc(d.Date.Format(time.DateOnly)))

	for _, item := range d.UrgentItems {
		fmt.Fprintf(&b, "%s *%s* \\[%s\\] %s\n",
			priorityIcons[item.Priority],
			esc(strings.ToUpper(string(item.Project))),
			esc(item.Priority.String()),
			esc(item.Summary),
		)
		if item.SourceURL != "" {
			fmt.Fprintf(&b, "%s\n", esc(item.SourceURL))
		}
	}

	renderFooter(&b, d)
	return b.String()
}

func renderFinding(b *strings.Builder, f model.Finding) {
	fmt.Fprintf(b, "%s _%s_ %s\n", priorityIcons[f.Priority], esc(string(f.Category)), esc(f.MostImportantInsight))

	for _, kf := range f.KeyFindings {
		fmt.Fprintf(b, "  • %s\n", esc(kf))
	}
	for _, pp := range f.PainPoints {
		if pp.Community != "" {
			fmt.Fprintf(b, "  💬 “%s” %s\n", esc(pp.Quote), esc(pp.Community))
		} else {
			fmt.Fprintf(b, "  💬 “%s”\n", esc(pp.Quote))
		}
	}
	for _, item := range f.ActionItems {
		fmt.Fprintf(b, "  ✅ %s\n", esc(item))
	}

	urls := lo.Map(f.Sources, func(s model.Source, _ int) string { return esc(s.URL) })
	if len(urls) > maxRenderedSources {
		urls = urls[:maxRenderedSources]
	}
	if len(urls) > 0 {
		fmt.Fprintf(b, "  🔗 %s\n", strings.Join(urls, " "))
	}
}

func renderTopic(b *strings.Builder, t model.BlogTopic) {
	switch t.Status {
	case model.TopicDuplicate:
		fmt.Fprintf(b, "♻️ %s \\(covered by %s\\)\n", esc(t.Title), esc(t.ExistingPostTitle))
	case model.TopicSkip:
		fmt.Fprintf(b, "❔ %s \\(not checked\\)\n", esc(t.Title))
	default:
		fmt.Fprintf(b, "✍️ %s\n", esc(t.Title))
	}
}

func renderFooter(b *strings.Builder, d Digest) {
	if d.Duplicates > 0 {
		fmt.Fprintf(b, "\n_%d repeated findings skipped_\n", d.Duplicates)
	}
	if len(d.Errors) > 0 {
		fmt.Fprintf(b, "\n_%d queries failed_\n", len(d.Errors))
	}
}

func projects(findings []model.Finding) []model.Project {
	return lo.Uniq(lo.Map(findings, func(f model.Finding, _ int) model.Project { return f.Project }))
}

func esc(s string) string {
	return markup.EscapeForMarkdown(s)
}
