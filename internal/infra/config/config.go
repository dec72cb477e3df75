package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"review_reminder/internal/domain/notification"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL string
	BaseURL     string
	LogLevel    string
	Environment string

	HTTPAddr   string
	CronSecret string

	CronSpecDueSweep string
	SweepMode        notification.SweepMode
	SweepConcurrency int
	SweepTimeout     time.Duration

	AWSRegion string
	EmailFrom string

	DefaultIntervalDays float64
	DefaultTimeSlot     notification.TimeSlot
	ScheduleLocation    *time.Location

	OperatorTelegramToken string
	OperatorTelegramID    int64
}

// OperatorBotEnabled reports whether both operator Telegram settings are present.
func (c *AppConfig) OperatorBotEnabled() bool {
	return c.OperatorTelegramToken != "" && c.OperatorTelegramID != 0
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()
	return loadFromEnv()
}

func loadFromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.BaseURL = strings.TrimRight(os.Getenv("APP_BASE_URL"), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("APP_BASE_URL is not set")
	}

	cfg.CronSecret = os.Getenv("CRON_SECRET")
	if cfg.CronSecret == "" {
		return nil, fmt.Errorf("CRON_SECRET is not set")
	}

	cfg.EmailFrom = os.Getenv("EMAIL_FROM")
	if cfg.EmailFrom == "" {
		return nil, fmt.Errorf("EMAIL_FROM is not set")
	}

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", "development"))
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	cfg.CronSpecDueSweep = getEnv("CRON_SPEC_DUE_SWEEP", "*/15 * * * *")
	cfg.AWSRegion = getEnv("AWS_REGION", "eu-central-1")

	cfg.SweepMode = notification.SweepMode(strings.ToLower(getEnv("SWEEP_MODE", string(notification.SweepModeRecurring))))
	if !cfg.SweepMode.Valid() {
		return nil, fmt.Errorf("invalid SWEEP_MODE %q: want %q or %q", cfg.SweepMode, notification.SweepModeRecurring, notification.SweepModeOneShot)
	}

	cfg.SweepConcurrency, err = strconv.Atoi(getEnv("SWEEP_CONCURRENCY", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_CONCURRENCY: %w", err)
	}
	if cfg.SweepConcurrency < 1 {
		return nil, fmt.Errorf("invalid SWEEP_CONCURRENCY: must be >= 1, got %d", cfg.SweepConcurrency)
	}

	cfg.SweepTimeout, err = time.ParseDuration(getEnv("SWEEP_TIMEOUT", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_TIMEOUT: %w", err)
	}

	cfg.DefaultIntervalDays, err = strconv.ParseFloat(getEnv("DEFAULT_INTERVAL_DAYS", "30"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_INTERVAL_DAYS: %w", err)
	}
	if cfg.DefaultIntervalDays < 0 {
		return nil, fmt.Errorf("invalid DEFAULT_INTERVAL_DAYS: must be >= 0, got %v", cfg.DefaultIntervalDays)
	}

	cfg.DefaultTimeSlot = notification.TimeSlot(strings.ToLower(getEnv("DEFAULT_TIME_SLOT", string(notification.TimeSlotAny))))
	if !cfg.DefaultTimeSlot.Valid() {
		return nil, fmt.Errorf("invalid DEFAULT_TIME_SLOT %q", cfg.DefaultTimeSlot)
	}

	cfg.ScheduleLocation, err = time.LoadLocation(getEnv("SCHEDULE_TIMEZONE", "Europe/Berlin"))
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULE_TIMEZONE: %w", err)
	}

	cfg.OperatorTelegramToken = os.Getenv("OPERATOR_TELEGRAM_TOKEN")
	if idStr := os.Getenv("OPERATOR_TELEGRAM_ID"); idStr != "" {
		cfg.OperatorTelegramID, err = strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid OPERATOR_TELEGRAM_ID: %w", err)
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
