package notifier

import (
	"context"
	"errors"
	"log"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kovalyov-valentin/research-digest/internal/digest"
)

// maxMessageLen is Telegram's limit for one text message.
const maxMessageLen = 4096

var ErrNotConfigured = errors.New("notifier: telegram is not configured")

type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier posts digests to a Telegram channel.
type Notifier struct {
	bot       Sender
	channelID int64
}

func New(bot Sender, channelID int64) *Notifier {
	return &Notifier{
		bot:       bot,
		channelID: channelID,
	}
}

// Deliver sends the message, split into parts that fit Telegram's limit.
// A markdown part Telegram rejects is resent as plain text.
func (n *Notifier) Deliver(ctx context.Context, msg digest.Message) error {
	if n == nil || n.bot == nil || n.channelID == 0 {
		return ErrNotConfigured
	}

	for _, part := range split(msg.Text, maxMessageLen) {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := n.send(part, msg.Markdown); err != nil {
			if !msg.Markdown {
				return err
			}

			log.Printf("[WARN] failed to send markdown digest, retrying as plain text: %v", err)
			if err := n.send(part, false); err != nil {
				return err
			}
		}
	}

	return nil
}

func (n *Notifier) send(text string, markdown bool) error {
	msg := tgbotapi.NewMessage(n.channelID, text)
	msg.DisableWebPagePreview = true
	if markdown {
		msg.ParseMode = tgbotapi.ModeMarkdownV2
	}

	_, err := n.bot.Send(msg)
	return err
}

// split cuts text on line boundaries into parts of at most limit runes.
// A single longer line is cut on rune boundaries.
func split(text string, limit int) []string {
	var (
		parts   []string
		current strings.Builder
		size    int
	)

	flush := func() {
		if part := strings.TrimRight(current.String(), "\n"); part != "" {
			parts = append(parts, part)
		}
		current.Reset()
		size = 0
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if size+n > limit {
			flush()
		}

		for n > limit {
			runes := []rune(line)
			parts = append(parts, string(runes[:limit]))
			line = string(runes[limit:])
			n -= limit
		}

		current.WriteString(line)
		size += n
	}
	flush()

	return parts
}
