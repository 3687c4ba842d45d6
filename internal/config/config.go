// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding variable is unset or invalid.
const (
	DefaultBackendTimeout    = 10 * time.Second
	DefaultReminderHour      = 20
	DefaultTimezone          = "Asia/Kolkata"
	DefaultBucketDueSoonDays = 7
	DefaultPlanDueSoonDays   = 15
	DefaultServiceName       = "finance-bot"
)

// Config holds all configuration for the application.
type Config struct {
	TelegramBotToken     string
	DatabaseURL          string
	BackendURL           string
	BackendToken         string
	BackendTimeout       time.Duration
	LogLevel             string
	LogFormat            string
	WhitelistedUserIDs   []int64
	WhitelistedUsernames []string
	DailyReminderEnabled bool
	ReminderHour         int
	Timezone             string
	BucketDueSoonDays    int
	PlanDueSoonDays      int
	Telemetry            TelemetryConfig
}

// TelemetryConfig selects how traces and metrics are exported.
type TelemetryConfig struct {
	Enabled     bool
	Exporter    string // stdout or otlp
	Protocol    string // grpc or http/protobuf
	ServiceName string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		BackendURL:       strings.TrimRight(strings.TrimSpace(os.Getenv("BACKEND_URL")), "/"),
		BackendToken:     os.Getenv("BACKEND_TOKEN"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		LogFormat:        os.Getenv("LOG_FORMAT"),
	}

	cfg.BackendTimeout = DefaultBackendTimeout
	if v := os.Getenv("BACKEND_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.BackendTimeout = d
		}
	}

	cfg.DailyReminderEnabled = os.Getenv("DAILY_REMINDER_ENABLED") == "true"
	cfg.ReminderHour = DefaultReminderHour
	if hourStr := os.Getenv("REMINDER_HOUR"); hourStr != "" {
		if h, err := strconv.Atoi(hourStr); err == nil && h >= 0 && h <= 23 {
			cfg.ReminderHour = h
		}
	}
	cfg.Timezone = DefaultTimezone
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		if _, err := time.LoadLocation(tz); err == nil {
			cfg.Timezone = tz
		}
	}

	cfg.BucketDueSoonDays = intEnv("BUCKET_DUE_SOON_DAYS", DefaultBucketDueSoonDays)
	cfg.PlanDueSoonDays = intEnv("PLAN_DUE_SOON_DAYS", DefaultPlanDueSoonDays)

	cfg.Telemetry = TelemetryConfig{
		Enabled:     os.Getenv("OTEL_ENABLED") == "true",
		Exporter:    strings.ToLower(envOr("OTEL_EXPORTER", "stdout")),
		Protocol:    strings.ToLower(envOr("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")),
		ServiceName: envOr("OTEL_SERVICE_NAME", DefaultServiceName),
	}

	for idStr := range strings.SplitSeq(os.Getenv("WHITELISTED_USER_IDS"), ",") {
		idStr = strings.TrimSpace(idStr)
		if idStr == "" {
			continue
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			continue
		}
		cfg.WhitelistedUserIDs = append(cfg.WhitelistedUserIDs, id)
	}

	for username := range strings.SplitSeq(os.Getenv("WHITELISTED_USERNAMES"), ",") {
		username = strings.TrimPrefix(strings.TrimSpace(username), "@")
		if username == "" {
			continue
		}
		cfg.WhitelistedUsernames = append(cfg.WhitelistedUsernames, username)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// intEnv reads a non-negative integer, keeping fallback on parse failure.
func intEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.TelegramBotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if c.BackendURL == "" {
		errs = append(errs, "BACKEND_URL is required")
	}

	if len(c.WhitelistedUserIDs) == 0 && len(c.WhitelistedUsernames) == 0 {
		errs = append(errs, "at least one whitelisted user (WHITELISTED_USER_IDS or WHITELISTED_USERNAMES) is required")
	}

	if c.Telemetry.Enabled {
		switch c.Telemetry.Exporter {
		case "stdout", "otlp":
		default:
			errs = append(errs, fmt.Sprintf("OTEL_EXPORTER must be stdout or otlp, got %q", c.Telemetry.Exporter))
		}
		switch c.Telemetry.Protocol {
		case "grpc", "http/protobuf":
		default:
			errs = append(errs, fmt.Sprintf("OTEL_EXPORTER_OTLP_PROTOCOL must be grpc or http/protobuf, got %q", c.Telemetry.Protocol))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Location returns the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsUserWhitelisted checks if a Telegram user ID or username is in the whitelist.
func (c *Config) IsUserWhitelisted(userID int64, username string) bool {
	if slices.Contains(c.WhitelistedUserIDs, userID) {
		return true
	}

	if username != "" {
		username = strings.TrimPrefix(username, "@")
		for _, whitelisted := range c.WhitelistedUsernames {
			if strings.EqualFold(whitelisted, username) {
				return true
			}
		}
	}

	return false
}
