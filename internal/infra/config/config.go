package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
type AppConfig struct {
	TelegramToken string
	DatabaseURL   string
	// QueueDatabaseURL optionally points the request queue at its own
	// store. A sqlite:// URL or a plain file path selects the local
	// SQLite backend; empty falls back to DatabaseURL.
	QueueDatabaseURL string
	LogLevel         string
	Environment      string

	// ProcessInterval is how often the queue processor polls for pending
	// requests.
	ProcessInterval time.Duration
	// QueueScanWindow bounds how far back the processor scans for
	// unclaimed rows.
	QueueScanWindow time.Duration
	// PlanWindow is the recency window inside which a plan entry still
	// authorizes supervisor lookups.
	PlanWindow time.Duration
	// RequeueClaimedAfter, when non-zero, enables the remediation job
	// that resets claimed-but-undelivered rows older than this back to
	// unclaimed. Zero keeps stranded rows stranded.
	RequeueClaimedAfter time.Duration
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.QueueDatabaseURL = os.Getenv("QUEUE_DATABASE_URL")

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	var err error
	cfg.ProcessInterval, err = durationEnv("PROCESS_INTERVAL", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.QueueScanWindow, err = durationEnv("QUEUE_SCAN_WINDOW", 720*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.PlanWindow, err = durationEnv("PLAN_WINDOW", 72*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.RequeueClaimedAfter, err = durationEnv("REQUEUE_CLAIMED_AFTER", 0)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}
