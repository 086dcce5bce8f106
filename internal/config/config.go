package config

import (
	"log"
	"sync"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfighcl"
)

// Config is read from ./config.hcl, ./config.local.hcl and RDB_* environment variables.
type Config struct {
	ResearchAPIKey  string `hcl:"research_api_key" env:"RESEARCH_API_KEY"`
	ResearchBaseURL string `hcl:"research_base_url" env:"RESEARCH_BASE_URL" default:"https://api.perplexity.ai"`
	ResearchModel   string `hcl:"research_model" env:"RESEARCH_MODEL" default:"sonar"`

	OpenAIKey     string `hcl:"openai_key" env:"OPENAI_KEY"`
	OpenAIBaseURL string `hcl:"openai_base_url" env:"OPENAI_BASE_URL"`
	FormatModel   string `hcl:"format_model" env:"FORMAT_MODEL" default:"gpt-4o-mini"`

	TelegramBotToken  string `hcl:"telegram_bot_token" env:"TELEGRAM_BOT_TOKEN"`
	TelegramChannelID int64  `hcl:"telegram_channel_id" env:"TELEGRAM_CHANNEL_ID"`

	// DatabaseDSN holds the history window; RedisURL holds the urgent items.
	// Either may be empty, the service then keeps that state in memory only.
	DatabaseDSN       string `hcl:"database_dsn" env:"DATABASE_DSN"`
	RedisURL          string `hcl:"redis_url" env:"REDIS_URL"`
	RedisPrefix       string `hcl:"redis_prefix" env:"REDIS_PREFIX" default:"rdb:"`
	HistoryMirrorPath string `hcl:"history_mirror_path" env:"HISTORY_MIRROR_PATH" default:"./RESEARCH_HISTORY.md"`
	HistoryWeeks      int    `hcl:"history_weeks" env:"HISTORY_WEEKS" default:"3"`

	HTTPAddr   string `hcl:"http_addr" env:"HTTP_ADDR" default:":8080"`
	CronSecret string `hcl:"cron_secret" env:"CRON_SECRET"`

	Timezone    string `hcl:"timezone" env:"TIMEZONE" default:"UTC"`
	MorningTime string `hcl:"morning_time" env:"MORNING_TIME" default:"07:00"`
	EveningTime string `hcl:"evening_time" env:"EVENING_TIME" default:"18:00"`

	BatchSize  int           `hcl:"batch_size" env:"BATCH_SIZE" default:"5"`
	BatchDelay time.Duration `hcl:"batch_delay" env:"BATCH_DELAY" default:"2s"`

	// Entries look like "creatorkit=https://creatorkit.example/feed.xml".
	BlogFeeds []string `hcl:"blog_feeds" env:"BLOG_FEEDS"`
	BlogPages []string `hcl:"blog_pages" env:"BLOG_PAGES"`
}

var (
	cfg  Config
	once sync.Once
)

func Get() Config {
	once.Do(func() {
		var err error
		if cfg, err = Load("./config.hcl", "./config.local.hcl"); err != nil {
			log.Printf("[ERROR] failed to load config: %v", err)
		}
	})

	return cfg
}

// Load reads the first of the given HCL files that exists, then the environment.
func Load(files ...string) (Config, error) {
	var c Config

	loader := aconfig.LoaderFor(&c, aconfig.Config{
		EnvPrefix: "RDB",
		SkipFlags: true,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".hcl": aconfighcl.New(),
		},
	})

	err := loader.Load()
	return c, err
}

// Location resolves Timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("[WARN] unknown timezone %q, using UTC: %v", c.Timezone, err)
		return time.UTC
	}
	return loc
}
