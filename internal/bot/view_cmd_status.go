package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kovalyov-valentin/research-digest/internal/botkit"
	"github.com/kovalyov-valentin/research-digest/internal/botkit/markup"
	"github.com/kovalyov-valentin/research-digest/internal/model"
	"github.com/kovalyov-valentin/research-digest/internal/result"
)

type JobBoard interface {
	Last(jobType model.JobType) (model.JobResult, bool)
}

type UrgentReader interface {
	LoadToday(ctx context.Context) result.Result[*model.DailyUrgentItems]
}

// Schedule reports the next planned run. It may be nil.
type Schedule interface {
	Next(jobType model.JobType) (time.Time, bool)
}

func ViewCmdStatus(board JobBoard, urgent UrgentReader, schedule Schedule) botkit.ViewFunc {
	return func(ctx context.Context, bot botkit.API, update tgbotapi.Update) error {
		var b strings.Builder
		b.WriteString("*Status*\n")

		for _, jobType := range []model.JobType{model.JobMorning, model.JobEvening} {
			b.WriteString("\n")
			b.WriteString(formatJob(board, schedule, jobType))
		}

		today := urgent.LoadToday(ctx)
		b.WriteString("\n")
		b.WriteString(formatUrgent(today.Value()))
		if today.IsDegraded() {
			fmt.Fprintf(&b, "_%s_\n", markup.EscapeForMarkdown(today.Reason()))
		}

		reply := tgbotapi.NewMessage(update.Message.Chat.ID, b.String())
		reply.ParseMode = tgbotapi.ModeMarkdownV2

		if _, err := bot.Send(reply); err != nil {
			return err
		}
		return nil
	}
}

func formatJob(board JobBoard, schedule Schedule, jobType model.JobType) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", markup.EscapeForMarkdown(string(jobType)))

	if res, ok := board.Last(jobType); ok {
		icon := "✅"
		if !res.Success {
			icon = "❌"
		}
		fmt.Fprintf(&b, "%s last run %s: %d queries, %d urgent, sent: %v, %d errors\n",
			icon,
			markup.EscapeForMarkdown(res.Timestamp.Format(time.DateTime)),
			res.QueriesProcessed,
			res.UrgentItemsFound,
			res.EmailSent,
			len(res.Errors),
		)
	} else {
		b.WriteString("no run since start\n")
	}

	if schedule != nil {
		if next, ok := schedule.Next(jobType); ok {
			fmt.Fprintf(&b, "next run %s\n", markup.EscapeForMarkdown(next.Format(time.DateTime)))
		}
	}

	return b.String()
}

func formatUrgent(rec *model.DailyUrgentItems) string {
	if rec == nil {
		return "No urgent items recorded today\\.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Urgent items %s*\n", markup.EscapeForMarkdown(rec.Date))
	fmt.Fprintf(&b, "morning: %d, evening: %d\n", len(rec.Morning), len(rec.Evening))

	for _, item := range append(append([]model.UrgentItem(nil), rec.Morning...), rec.Evening...) {
		fmt.Fprintf(&b, "• %s: %s\n",
			markup.EscapeForMarkdown(string(item.Project)),
			markup.EscapeForMarkdown(item.Summary),
		)
	}

	return b.String()
}
