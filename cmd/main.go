package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/kovalyov-valentin/research-digest/internal/blog"
	"github.com/kovalyov-valentin/research-digest/internal/bot"
	"github.com/kovalyov-valentin/research-digest/internal/bot/middleware"
	"github.com/kovalyov-valentin/research-digest/internal/botkit"
	"github.com/kovalyov-valentin/research-digest/internal/config"
	"github.com/kovalyov-valentin/research-digest/internal/digest"
	"github.com/kovalyov-valentin/research-digest/internal/fetcher"
	"github.com/kovalyov-valentin/research-digest/internal/finding"
	"github.com/kovalyov-valentin/research-digest/internal/history"
	"github.com/kovalyov-valentin/research-digest/internal/job"
	"github.com/kovalyov-valentin/research-digest/internal/model"
	"github.com/kovalyov-valentin/research-digest/internal/notifier"
	"github.com/kovalyov-valentin/research-digest/internal/queries"
	"github.com/kovalyov-valentin/research-digest/internal/research"
	"github.com/kovalyov-valentin/research-digest/internal/scheduler"
	"github.com/kovalyov-valentin/research-digest/internal/server"
	"github.com/kovalyov-valentin/research-digest/internal/storage"
	"github.com/kovalyov-valentin/research-digest/internal/urgent"
)

func main() {
	cfg := config.Get()
	loc := cfg.Location()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	historyStore, closeHistory := openHistoryStore(ctx, cfg)
	defer closeHistory()

	urgentStore, closeUrgent := openUrgentStore(ctx, cfg)
	defer closeUrgent()

	sites, err := blog.ParseSites(cfg.BlogFeeds, cfg.BlogPages)
	if err != nil {
		log.Printf("[ERROR] invalid blog sites: %v", err)
		return
	}

	var (
		researcher = research.NewClient(
			cfg.ResearchAPIKey,
			research.WithBaseURL(cfg.ResearchBaseURL),
			research.WithModel(cfg.ResearchModel),
		)
		processor = fetcher.NewFetcher(researcher, finding.NewAssembler(), cfg.BatchSize, cfg.BatchDelay)
		composer  = digest.NewComposer(digest.NewOpenAIFormatter(cfg.OpenAIKey, cfg.FormatModel, cfg.OpenAIBaseURL))
		scraper   = blog.NewScraper(sites, nil)
		mirror    history.MirrorStore
	)

	if cfg.HistoryMirrorPath != "" {
		mirror = history.NewMarkdownMirror(cfg.HistoryMirrorPath)
	}

	var (
		historyWindow = history.New(historyStore, mirror, history.WithLocation(loc), history.WithWeeks(cfg.HistoryWeeks))
		tracker       = urgent.New(urgentStore, storage.NewMemory(), urgent.WithLocation(loc))
	)

	var (
		botAPI *tgbotapi.BotAPI
		sender notifier.Sender
	)
	if cfg.TelegramBotToken != "" {
		botAPI, err = tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			log.Printf("[ERROR] failed to create bot: %v", err)
			return
		}
		sender = botAPI
	} else {
		log.Printf("[WARN] telegram bot token is not set, digests will not be delivered")
	}

	runner := job.New(job.Deps{
		Queries:   queries.ForJob,
		Processor: processor,
		History:   historyWindow,
		Urgent:    tracker,
		Blog:      scraper,
		Composer:  composer,
		Deliverer: notifier.New(sender, cfg.TelegramChannelID),
	}, job.NewBoard())

	sched, err := scheduler.New(runner, cfg.MorningTime, cfg.EveningTime, loc)
	if err != nil {
		log.Printf("[ERROR] failed to create scheduler: %v", err)
		return
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func(ctx context.Context) {
		defer wg.Done()

		if err := sched.Start(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Printf("[ERROR] failed to run scheduler: %v", err)
				return
			}

			log.Println("scheduler stopped")
		}
	}(ctx)

	wg.Add(1)
	go func(ctx context.Context) {
		defer wg.Done()

		if err := server.New(runner, cfg.CronSecret).Start(ctx, cfg.HTTPAddr); err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Printf("[ERROR] failed to run http server: %v", err)
				cancel()
				return
			}

			log.Println("http server stopped")
		}
	}(ctx)

	if botAPI != nil {
		researchBot := botkit.New(botAPI)
		researchBot.RegisterCmdView("start", bot.ViewCmdStart())
		researchBot.RegisterCmdView("status", bot.ViewCmdStatus(runner.Board(), tracker, sched))
		researchBot.RegisterCmdView("history", bot.ViewCmdHistory(historyWindow))
		researchBot.RegisterCmdView("checktopic", bot.ViewCmdCheckTopic(scraper))
		researchBot.RegisterCmdView(
			"morning",
			middleware.AdminOnly(cfg.TelegramChannelID, bot.ViewCmdRun(runner, model.JobMorning)),
		)
		researchBot.RegisterCmdView(
			"evening",
			middleware.AdminOnly(cfg.TelegramChannelID, bot.ViewCmdRun(runner, model.JobEvening)),
		)

		if err := researchBot.Run(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Printf("[ERROR] failed to run bot: %v", err)
				cancel()
			} else {
				log.Println("bot stopped")
			}
		}
	} else {
		<-ctx.Done()
	}

	wg.Wait()
}

// openHistoryStore uses Postgres when a DSN is configured. Without it, or when
// the database is unreachable, history lives in memory and the markdown mirror.
func openHistoryStore(ctx context.Context, cfg config.Config) (storage.Store, func()) {
	if cfg.DatabaseDSN == "" {
		log.Printf("[WARN] database dsn is not set, history is kept in memory")
		return storage.NewMemory(), func() {}
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DatabaseDSN)
	if err != nil {
		log.Printf("[ERROR] failed to connect to database, history is kept in memory: %v", err)
		return storage.NewMemory(), func() {}
	}

	pg := storage.NewPostgresStore(db)
	if err := pg.EnsureSchema(ctx); err != nil {
		log.Printf("[ERROR] failed to create history schema: %v", err)
	}
	if n, err := pg.Purge(ctx); err != nil {
		log.Printf("[WARN] failed to purge expired blobs: %v", err)
	} else if n > 0 {
		log.Printf("purged %d expired blobs", n)
	}

	return pg, func() { db.Close() }
}

// openUrgentStore uses Redis when configured. A nil store makes the tracker
// fall back to its in-process cache.
func openUrgentStore(ctx context.Context, cfg config.Config) (storage.Store, func()) {
	if cfg.RedisURL == "" {
		log.Printf("[WARN] redis url is not set, urgent items are kept in memory")
		return nil, func() {}
	}

	rs, err := storage.NewRedisStoreWithURL(cfg.RedisURL, cfg.RedisPrefix)
	if err != nil {
		log.Printf("[ERROR] invalid redis url, urgent items are kept in memory: %v", err)
		return nil, func() {}
	}
	if err := rs.Ping(ctx); err != nil {
		log.Printf("[WARN] redis is not reachable yet: %v", err)
	}

	return rs, func() {
		if err := rs.Close(); err != nil {
			log.Printf("[ERROR] failed to close redis: %v", err)
		}
	}
}
