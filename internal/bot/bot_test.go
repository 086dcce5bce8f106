package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kovalyov-valentin/research-digest/internal/bot/middleware"
	"github.com/kovalyov-valentin/research-digest/internal/botkit"
	"github.com/kovalyov-valentin/research-digest/internal/history"
	"github.com/kovalyov-valentin/research-digest/internal/job"
	"github.com/kovalyov-valentin/research-digest/internal/model"
	"github.com/kovalyov-valentin/research-digest/internal/result"
)

const chatID = 42

type fakeAPI struct {
	mu     sync.Mutex
	sent   []tgbotapi.MessageConfig
	admins []int64
}

func (a *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.sent = append(a.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func (a *fakeAPI) GetChatAdministrators(tgbotapi.ChatAdministratorsConfig) ([]tgbotapi.ChatMember, error) {
	members := make([]tgbotapi.ChatMember, 0, len(a.admins))
	for _, id := range a.admins {
		members = append(members, tgbotapi.ChatMember{User: &tgbotapi.User{ID: id}})
	}
	return members, nil
}

func (a *fakeAPI) messages() []tgbotapi.MessageConfig {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), a.sent...)
}

func command(text string, from int64) tgbotapi.Update {
	cmd, _, _ := strings.Cut(text, " ")
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID},
		From:     &tgbotapi.User{ID: from},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

type staticPosts struct {
	posts []model.ExistingBlogPost
	err   error
}

func (s staticPosts) Posts(context.Context, model.Project) ([]model.ExistingBlogPost, error) {
	return s.posts, s.err
}

func TestCheckTopicDuplicate(t *testing.T) {
	api := &fakeAPI{}
	view := ViewCmdCheckTopic(staticPosts{posts: []model.ExistingBlogPost{
		{Title: "Creating the Perfect Media Kit", Project: model.ProjectCreatorKit},
	}})

	err := view(context.Background(), api, command(
		`/checktopic {"project":"CreatorKit","title":"Building Your Media Kit: What Brands Actually Want to See"}`, 1,
	))

	require.NoError(t, err)
	require.Len(t, api.sent, 1)
	assert.Contains(t, api.sent[0].Text, "already covered by Creating the Perfect Media Kit")
	assert.Contains(t, api.sent[0].Text, "keywords: media, brands")
	assert.Equal(t, tgbotapi.ModeMarkdownV2, api.sent[0].ParseMode)
}

func TestCheckTopicUnchecked(t *testing.T) {
	api := &fakeAPI{}
	view := ViewCmdCheckTopic(staticPosts{err: errors.New("blog down")})

	require.NoError(t, view(context.Background(), api, command(`/checktopic {"project":"podcastops","title":"Booking guests"}`, 1)))
	assert.Contains(t, api.sent[0].Text, "not checked")
}

func TestCheckTopicUsage(t *testing.T) {
	api := &fakeAPI{}
	view := ViewCmdCheckTopic(staticPosts{})

	require.NoError(t, view(context.Background(), api, command("/checktopic not json", 1)))
	require.Len(t, api.sent, 1)
	assert.Contains(t, api.sent[0].Text, "usage")
}

type urgentToday struct{ rec *model.DailyUrgentItems }

func (u urgentToday) LoadToday(context.Context) result.Result[*model.DailyUrgentItems] {
	return result.Ok(u.rec)
}

type fixedSchedule struct{ at time.Time }

func (s fixedSchedule) Next(model.JobType) (time.Time, bool) { return s.at, true }

func TestStatus(t *testing.T) {
	board := job.NewBoard()
	board.Record(model.JobResult{
		Success:          true,
		JobType:          model.JobMorning,
		Timestamp:        time.Date(2026, 10, 15, 7, 0, 0, 0, time.UTC),
		QueriesProcessed: 13,
		UrgentItemsFound: 1,
		EmailSent:        true,
	})
	rec := &model.DailyUrgentItems{
		Date:    "2026-10-15",
		Morning: []model.UrgentItem{{Project: model.ProjectPodcastOps, Summary: "Directory outage"}},
	}

	api := &fakeAPI{}
	view := ViewCmdStatus(board, urgentToday{rec: rec}, fixedSchedule{at: time.Date(2026, 10, 15, 18, 0, 0, 0, time.UTC)})

	require.NoError(t, view(context.Background(), api, command("/status", 1)))
	require.Len(t, api.sent, 1)
	text := api.sent[0].Text
	assert.Contains(t, text, "✅ last run 2026\\-10\\-15 07:00:00: 13 queries, 1 urgent, sent: true, 0 errors")
	assert.Contains(t, text, "no run since start")
	assert.Contains(t, text, "next run 2026\\-10\\-15 18:00:00")
	assert.Contains(t, text, "morning: 1, evening: 0")
	assert.Contains(t, text, "podcastops: Directory outage")
}

func TestStatusWithoutUrgentRecord(t *testing.T) {
	api := &fakeAPI{}

	require.NoError(t, ViewCmdStatus(job.NewBoard(), urgentToday{}, nil)(context.Background(), api, command("/status", 1)))
	assert.Contains(t, api.sent[0].Text, "No urgent items recorded today")
}

type staticHistory struct{ window history.Window }

func (h staticHistory) Load(context.Context) result.Result[history.Window] {
	return result.Degraded(h.window, "primary history unavailable")
}

func TestHistory(t *testing.T) {
	window := history.Window{
		{WeekStart: time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)},
		{
			WeekStart: time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
			Entries: []model.HistoryEntry{
				{Project: model.ProjectNewsletter},
				{Project: model.ProjectCreatorKit},
				{Project: model.ProjectCreatorKit},
			},
		},
	}

	api := &fakeAPI{}
	require.NoError(t, ViewCmdHistory(staticHistory{window: window})(context.Background(), api, command("/history", 1)))

	text := api.sent[0].Text
	assert.Contains(t, text, "*History* \\(2 weeks\\)")
	assert.Contains(t, text, "*Week of 2026\\-10\\-12*: 3 entries \\(creatorkit 2, newsletter 1\\)")
	assert.Less(t, strings.Index(text, "2026\\-10\\-12"), strings.Index(text, "2026\\-10\\-05"))
	assert.Contains(t, text, "_primary history unavailable_")
}

type stubRunner struct {
	res model.JobResult
	err error
}

func (r stubRunner) Run(_ context.Context, jobType model.JobType) (model.JobResult, error) {
	res := r.res
	res.JobType = jobType
	return res, r.err
}

func TestRunReportsResult(t *testing.T) {
	api := &fakeAPI{}
	view := ViewCmdRun(stubRunner{res: model.JobResult{Success: true, QueriesProcessed: 3}}, model.JobEvening)

	require.NoError(t, view(context.Background(), api, command("/evening", 1)))

	require.Eventually(t, func() bool { return len(api.messages()) == 2 }, time.Second, 5*time.Millisecond)
	msgs := api.messages()
	assert.Equal(t, "evening run started", msgs[0].Text)
	assert.Equal(t, "evening run succeeded: 3 queries, 0 urgent items, digest sent: false", msgs[1].Text)
}

func TestRunAlreadyInProgress(t *testing.T) {
	api := &fakeAPI{}
	view := ViewCmdRun(stubRunner{err: job.ErrAlreadyRunning}, model.JobMorning)

	require.NoError(t, view(context.Background(), api, command("/morning", 1)))

	require.Eventually(t, func() bool { return len(api.messages()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "morning run is already in progress", api.messages()[1].Text)
}

func TestAdminOnly(t *testing.T) {
	api := &fakeAPI{admins: []int64{7}}
	called := 0
	view := middleware.AdminOnly(-100, func(context.Context, botkit.API, tgbotapi.Update) error {
		called++
		return nil
	})

	require.NoError(t, view(context.Background(), api, command("/morning", 7)))
	require.NoError(t, view(context.Background(), api, command("/morning", 8)))

	assert.Equal(t, 1, called)
	require.Len(t, api.sent, 1)
	assert.Contains(t, api.sent[0].Text, "not allowed")
}

func TestHandleUpdateRoutesCommands(t *testing.T) {
	api := &fakeAPI{}
	b := botkit.New(nil)
	b.RegisterCmdView("start", ViewCmdStart())
	b.RegisterCmdView("broken", func(context.Context, botkit.API, tgbotapi.Update) error {
		return errors.New("boom")
	})
	b.RegisterCmdView("panics", func(context.Context, botkit.API, tgbotapi.Update) error {
		panic("boom")
	})

	b.HandleUpdate(context.Background(), api, command("/start", 1))
	b.HandleUpdate(context.Background(), api, command("/broken", 1))
	b.HandleUpdate(context.Background(), api, command("/panics", 1))
	b.HandleUpdate(context.Background(), api, command("/unknown", 1))
	b.HandleUpdate(context.Background(), api, tgbotapi.Update{})

	require.Len(t, api.sent, 2)
	assert.Contains(t, api.sent[0].Text, "/checktopic")
	assert.Equal(t, "internal error", api.sent[1].Text)
}

func TestParseJSON(t *testing.T) {
	type args struct {
		Title string `json:"title"`
	}

	got, err := botkit.ParseJSON[args](`{"title":"x"}`)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Title)

	_, err = botkit.ParseJSON[args]("nope")
	assert.Error(t, err)
}
