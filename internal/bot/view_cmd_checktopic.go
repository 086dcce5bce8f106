package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kovalyov-valentin/research-digest/internal/botkit"
	"github.com/kovalyov-valentin/research-digest/internal/botkit/markup"
	"github.com/kovalyov-valentin/research-digest/internal/model"
	"github.com/kovalyov-valentin/research-digest/internal/similarity"
)

type PostSource interface {
	Posts(ctx context.Context, project model.Project) ([]model.ExistingBlogPost, error)
}

var errTopicArgs = errors.New(`usage: /checktopic {"project":"creatorkit","title":"..."}`)

func ViewCmdCheckTopic(posts PostSource) botkit.ViewFunc {
	type checkTopicArgs struct {
		Project string `json:"project"`
		Title   string `json:"title"`
	}

	return func(ctx context.Context, bot botkit.API, update tgbotapi.Update) error {
		args, err := botkit.ParseJSON[checkTopicArgs](update.Message.CommandArguments())
		if err != nil || strings.TrimSpace(args.Title) == "" || args.Project == "" {
			_, sendErr := bot.Send(tgbotapi.NewMessage(update.Message.Chat.ID, errTopicArgs.Error()))
			return sendErr
		}

		project := model.Project(strings.ToLower(args.Project))

		var topic model.BlogTopic
		existing, err := posts.Posts(ctx, project)
		if err != nil {
			log.Printf("[WARN] failed to load blog posts for %s: %v", project, err)
			topic = similarity.UncheckedBlogTopic(args.Title, project)
		} else {
			topic = similarity.CheckBlogTopic(args.Title, project, existing)
		}

		reply := tgbotapi.NewMessage(update.Message.Chat.ID, formatTopic(topic))
		reply.ParseMode = tgbotapi.ModeMarkdownV2

		if _, err := bot.Send(reply); err != nil {
			return err
		}
		return nil
	}
}

func formatTopic(topic model.BlogTopic) string {
	var verdict string
	switch topic.Status {
	case model.TopicDuplicate:
		verdict = "♻️ already covered by " + markup.EscapeForMarkdown(topic.ExistingPostTitle)
	case model.TopicSkip:
		verdict = "❔ existing posts unavailable, not checked"
	default:
		verdict = "✍️ new topic"
	}

	return fmt.Sprintf("*%s*\n%s\nkeywords: %s",
		markup.EscapeForMarkdown(topic.Title),
		verdict,
		markup.EscapeForMarkdown(strings.Join(topic.TargetKeywords, ", ")),
	)
}
