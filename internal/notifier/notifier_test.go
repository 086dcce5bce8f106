package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kovalyov-valentin/research-digest/internal/digest"
)

type fakeBot struct {
	sent       []tgbotapi.MessageConfig
	rejectMode string
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg := c.(tgbotapi.MessageConfig)
	if b.rejectMode != "" && msg.ParseMode == b.rejectMode {
		return tgbotapi.Message{}, errors.New("Bad Request: can't parse entities")
	}

	b.sent = append(b.sent, msg)
	return tgbotapi.Message{MessageID: len(b.sent)}, nil
}

func TestDeliverMarkdown(t *testing.T) {
	bot := &fakeBot{}

	err := New(bot, -100123).Deliver(context.Background(), digest.Message{Text: "*hi*", Markdown: true})

	require.NoError(t, err)
	require.Len(t, bot.sent, 1)
	assert.Equal(t, int64(-100123), bot.sent[0].ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, bot.sent[0].ParseMode)
	assert.Equal(t, "*hi*", bot.sent[0].Text)
}

func TestDeliverRetriesAsPlainText(t *testing.T) {
	bot := &fakeBot{rejectMode: tgbotapi.ModeMarkdownV2}

	err := New(bot, 1).Deliver(context.Background(), digest.Message{Text: "broken *markdown", Markdown: true})

	require.NoError(t, err)
	require.Len(t, bot.sent, 1)
	assert.Empty(t, bot.sent[0].ParseMode)
}

func TestDeliverNotConfigured(t *testing.T) {
	assert.ErrorIs(t, New(nil, 1).Deliver(context.Background(), digest.Message{Text: "x"}), ErrNotConfigured)
	assert.ErrorIs(t, New(&fakeBot{}, 0).Deliver(context.Background(), digest.Message{Text: "x"}), ErrNotConfigured)
}

func TestDeliverSplitsLongDigest(t *testing.T) {
	bot := &fakeBot{}
	line := strings.Repeat("я", 99) + "\n"

	err := New(bot, 1).Deliver(context.Background(), digest.Message{Text: strings.Repeat(line, 100)})

	require.NoError(t, err)
	require.Len(t, bot.sent, 3)
	for _, m := range bot.sent {
		assert.LessOrEqual(t, utf8.RuneCountInString(m.Text), maxMessageLen)
	}
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"ab\ncd"}, split("ab\ncd\n", 10))
	assert.Equal(t, []string{"ab", "cd"}, split("ab\ncd", 4))
	assert.Equal(t, []string{"abcd", "ef"}, split("abcdef", 4))
	assert.Empty(t, split("", 4))
	assert.Empty(t, split("\n\n", 4))
}
