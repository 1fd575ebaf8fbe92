package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Server struct {
		Port string `env:"PORT" envDefault:"5250"`

		// Public origin used for sitemap and email links, without trailing slash
		SiteURL string `env:"SITE_URL" envDefault:"https://www.example-estates.com"`

		// Comma separated list of allowed CORS origins
		AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

		// Admin endpoints require X-Admin-Token when set
		AdminToken string `env:"ADMIN_TOKEN"`

		ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	}

	Database struct {
		// sqlite or postgres
		Driver string `env:"DB_DRIVER" envDefault:"sqlite"`
		DSN    string `env:"DB_DSN" envDefault:"database/estates.db"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL" envDefault:"info"`
	}

	OpenAI struct {
		APIKey  string `env:"OPENAI_API_KEY"`
		BaseURL string `env:"OPENAI_BASE_URL"`
		Model   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`

		// Client side limit on completion calls per second
		RequestsPerSecond float64       `env:"OPENAI_RPS" envDefault:"3"`
		Timeout           time.Duration `env:"OPENAI_TIMEOUT" envDefault:"60s"`
	}

	Mail struct {
		APIURL  string `env:"MAIL_API_URL" envDefault:"https://api.resend.com/emails"`
		APIKey  string `env:"MAIL_API_KEY"`
		From    string `env:"MAIL_FROM" envDefault:"Estates <noreply@example-estates.com>"`
		SalesTo string `env:"MAIL_SALES_TO" envDefault:"sales@example-estates.com"`
	}

	Telegram struct {
		BotToken string `env:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `env:"TELEGRAM_CHAT_ID"`
	}

	Translation struct {
		// Rows translated per batch when the request does not say
		BatchSize int `env:"TRANSLATION_BATCH_SIZE" envDefault:"10"`

		// Upper bound on batches per background drain
		MaxBatches int `env:"TRANSLATION_MAX_BATCHES" envDefault:"500"`

		QueueSize int `env:"TRANSLATION_QUEUE_SIZE" envDefault:"4"`
	}

	Geocoding struct {
		CacheDir  string `env:"GEOCODE_CACHE_DIR"`
		UserAgent string `env:"GEOCODE_USER_AGENT" envDefault:"EstatePortal Geocoder/1.0"`
	}

	Chatbot struct {
		MaxSuggestions int `env:"CHATBOT_MAX_SUGGESTIONS" envDefault:"3"`
		MaxHistory     int `env:"CHATBOT_MAX_HISTORY" envDefault:"10"`
	}

	Scheduler struct {
		Enabled       bool `env:"SCHEDULER_ENABLED" envDefault:"true"`
		SyncOnStartup bool `env:"SCHEDULER_SYNC_ON_STARTUP" envDefault:"true"`

		// Hour of day (server local time) for the duplicate cleanup pass
		CleanupHour int `env:"SCHEDULER_CLEANUP_HOUR" envDefault:"3"`

		// Queue a translation catch-up at the top of every hour
		HourlyTranslation bool `env:"SCHEDULER_HOURLY_TRANSLATION" envDefault:"true"`
	}

	// Optional JSON file replacing the built-in market regions
	RegionsFile string `env:"REGIONS_FILE"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.Server.SiteURL = strings.TrimRight(cfg.Server.SiteURL, "/")
	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
	if cfg.Translation.BatchSize <= 0 {
		cfg.Translation.BatchSize = 10
	}
	if cfg.Scheduler.CleanupHour < 0 || cfg.Scheduler.CleanupHour > 23 {
		return nil, fmt.Errorf("SCHEDULER_CLEANUP_HOUR must be between 0 and 23, got %d", cfg.Scheduler.CleanupHour)
	}

	return cfg, nil
}
