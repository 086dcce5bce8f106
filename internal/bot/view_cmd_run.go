package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kovalyov-valentin/research-digest/internal/botkit"
	"github.com/kovalyov-valentin/research-digest/internal/job"
	"github.com/kovalyov-valentin/research-digest/internal/model"
)

type JobRunner interface {
	Run(ctx context.Context, jobType model.JobType) (model.JobResult, error)
}

// ViewCmdRun starts a run in the background and reports its result to the chat
// once it is done. The update context is too short-lived for a whole run.
func ViewCmdRun(runner JobRunner, jobType model.JobType) botkit.ViewFunc {
	return func(ctx context.Context, bot botkit.API, update tgbotapi.Update) error {
		chatID := update.Message.Chat.ID

		if _, err := bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("%s run started", jobType))); err != nil {
			return err
		}

		go func(ctx context.Context) {
			res, err := runner.Run(ctx, jobType)

			var text string
			switch {
			case errors.Is(err, job.ErrAlreadyRunning):
				text = fmt.Sprintf("%s run is already in progress", jobType)
			case err != nil:
				text = fmt.Sprintf("%s run failed: %v", jobType, err)
			default:
				text = formatResult(res)
			}

			if _, err := bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
				log.Printf("[ERROR] failed to send run result: %v", err)
			}
		}(context.WithoutCancel(ctx))

		return nil
	}
}

func formatResult(res model.JobResult) string {
	status := "succeeded"
	if !res.Success {
		status = "failed"
	}

	text := fmt.Sprintf("%s run %s: %d queries, %d urgent items, digest sent: %v",
		res.JobType, status, res.QueriesProcessed, res.UrgentItemsFound, res.EmailSent)
	if len(res.Errors) > 0 {
		text += "\nerrors:\n" + strings.Join(res.Errors, "\n")
	}
	return text
}
