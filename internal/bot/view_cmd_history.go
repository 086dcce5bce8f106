package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"github.com/kovalyov-valentin/research-digest/internal/botkit"
	"github.com/kovalyov-valentin/research-digest/internal/botkit/markup"
	"github.com/kovalyov-valentin/research-digest/internal/history"
	"github.com/kovalyov-valentin/research-digest/internal/model"
	"github.com/kovalyov-valentin/research-digest/internal/result"
)

type HistoryLoader interface {
	Load(ctx context.Context) result.Result[history.Window]
}

func ViewCmdHistory(loader HistoryLoader) botkit.ViewFunc {
	return func(ctx context.Context, bot botkit.API, update tgbotapi.Update) error {
		loaded := loader.Load(ctx)
		window := history.Prune(loaded.Value(), len(loaded.Value()))

		var b strings.Builder
		fmt.Fprintf(&b, "*History* \\(%d weeks\\)\n", len(window))

		for _, week := range window {
			b.WriteString(formatWeek(week))
		}
		if loaded.IsDegraded() {
			fmt.Fprintf(&b, "\n_%s_\n", markup.EscapeForMarkdown(loaded.Reason()))
		}

		reply := tgbotapi.NewMessage(update.Message.Chat.ID, b.String())
		reply.ParseMode = tgbotapi.ModeMarkdownV2

		if _, err := bot.Send(reply); err != nil {
			return err
		}
		return nil
	}
}

func formatWeek(week model.WeeklyHistory) string {
	byProject := lo.GroupBy(week.Entries, func(e model.HistoryEntry) model.Project {
		return e.Project
	})

	projects := lo.Keys(byProject)
	sort.Slice(projects, func(i, j int) bool { return projects[i] < projects[j] })

	parts := lo.Map(projects, func(p model.Project, _ int) string {
		return fmt.Sprintf("%s %d", markup.EscapeForMarkdown(string(p)), len(byProject[p]))
	})

	line := fmt.Sprintf("\n*Week of %s*: %d entries",
		markup.EscapeForMarkdown(week.WeekStart.Format(time.DateOnly)),
		len(week.Entries),
	)
	if len(parts) > 0 {
		line += " \\(" + strings.Join(parts, ", ") + "\\)"
	}

	return line + "\n"
}
