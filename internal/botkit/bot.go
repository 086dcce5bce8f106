package botkit

import (
	"context"
	"log"
	"runtime/debug"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API is the part of the Telegram client the views use.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetChatAdministrators(config tgbotapi.ChatAdministratorsConfig) ([]tgbotapi.ChatMember, error)
}

type Bot struct {
	api      *tgbotapi.BotAPI
	cmdViews map[string]ViewFunc
	timeout  time.Duration
}

// ViewFunc handles one command update.
type ViewFunc func(ctx context.Context, bot API, update tgbotapi.Update) error

func New(api *tgbotapi.BotAPI) *Bot {
	return &Bot{
		api:     api,
		timeout: 5 * time.Second,
	}
}

// WithTimeout sets how long a single view may run.
func (b *Bot) WithTimeout(d time.Duration) *Bot {
	b.timeout = d
	return b
}

func (b *Bot) RegisterCmdView(cmd string, view ViewFunc) {
	if b.cmdViews == nil {
		b.cmdViews = make(map[string]ViewFunc)
	}

	b.cmdViews[cmd] = view
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			updateCtx, updateCancel := context.WithTimeout(ctx, b.timeout)
			b.HandleUpdate(updateCtx, b.api, update)
			updateCancel()
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		}
	}
}

// HandleUpdate routes a command to its view. Views that panic or fail get an
// "internal error" reply.
func (b *Bot) HandleUpdate(ctx context.Context, api API, update tgbotapi.Update) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("[ERROR] panic recovered: %v\n%s", p, string(debug.Stack()))
		}
	}()

	if update.Message == nil || !update.Message.IsCommand() {
		return
	}

	view, ok := b.cmdViews[update.Message.Command()]
	if !ok {
		return
	}

	if err := view(ctx, api, update); err != nil {
		log.Printf("[ERROR] failed to handle update: %v", err)

		if _, err := api.Send(
			tgbotapi.NewMessage(update.Message.Chat.ID, "internal error"),
		); err != nil {
			log.Printf("[ERROR] failed to send message: %v", err)
		}
	}
}
