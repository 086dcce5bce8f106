package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kovalyov-valentin/research-digest/internal/botkit"
)

const helpText = `Research digest bot.

/status - last runs and today's urgent items
/history - findings remembered for duplicate suppression
/checktopic {"project":"creatorkit","title":"..."} - check a blog topic against existing posts
/morning, /evening - start a run (admins only)`

func ViewCmdStart() botkit.ViewFunc {
	return func(_ context.Context, bot botkit.API, update tgbotapi.Update) error {
		_, err := bot.Send(tgbotapi.NewMessage(update.Message.Chat.ID, helpText))
		return err
	}
}
