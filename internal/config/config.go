// Package config provides application configuration management.
// It loads settings from a .env file and environment variables and provides
// defaults for the server and the rozklad CLI.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ValidationMode selects which settings are required.
type ValidationMode int

const (
	// ServerMode requires the Telegram token.
	ServerMode ValidationMode = iota
	// CLIMode only needs the schedule source settings.
	CLIMode
)

// Config holds all application configuration
type Config struct {
	// Telegram
	TelegramToken      string
	TelegramWebhookURL string // empty = long polling

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Schedule source
	ScheduleBaseURL  string
	ScheduleSemester int
	ScheduleTermHalf int

	// Scraper Configuration
	ScraperAPIKey        string // optional rendering proxy credential
	ScraperProxyEndpoint string
	ScraperTimeout       time.Duration
	ScraperMinDelay      time.Duration
	ScraperMaxDelay      time.Duration

	// Bot Configuration
	Bot BotConfig

	// Sentry
	SentryDSN         string
	SentryEnvironment string
	SentrySampleRate  float64

	// Better Stack
	BetterStackToken    string
	BetterStackEndpoint string

	// Metrics Authentication
	MetricsUsername string // Username for /metrics endpoint Basic Auth
	MetricsPassword string // Password for /metrics endpoint Basic Auth (empty = no auth)
}

// BotConfig holds bot-specific configuration
type BotConfig struct {
	DefaultGroup string // group used by /rozklad before the chat picks one
	SupportText  string // reply to /support

	SessionCapacity int           // maximum chats with live menu state
	SessionTTL      time.Duration // idle time after which a chat's menu state is dropped
	ResultCacheTTL  time.Duration // how long a fetched schedule is reused

	// Rate Limits (Token Bucket Algorithm)
	UserRateBurst  float64 // Maximum burst tokens per chat
	UserRateRefill float64 // Tokens refilled per second
}

// Load reads server configuration from environment variables.
func Load() (*Config, error) {
	return LoadForMode(ServerMode)
}

// LoadForMode reads configuration and validates it for the given mode.
// A .env file in the working directory is loaded first if present; real
// environment variables take precedence over it.
func LoadForMode(mode ValidationMode) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:      getEnv(EnvTelegramToken, ""),
		TelegramWebhookURL: getEnv(EnvTelegramWebhookURL, ""),

		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),

		ScheduleBaseURL:  getEnv(EnvScheduleBaseURL, "https://student.lpnu.ua"),
		ScheduleSemester: getIntEnv(EnvScheduleSemester, DefaultSemester(time.Now())),
		ScheduleTermHalf: getIntEnv(EnvScheduleTermHalf, 1),

		ScraperAPIKey:        getEnv(EnvScraperAPIKey, ""),
		ScraperProxyEndpoint: getEnv(EnvScraperProxyEndpoint, "https://api.scraperapi.com/"),
		ScraperTimeout:       getDurationEnv(EnvScraperTimeout, ScraperRequest),
		ScraperMinDelay:      getDurationEnv(EnvScraperMinDelay, ScraperMinDelay),
		ScraperMaxDelay:      getDurationEnv(EnvScraperMaxDelay, ScraperMaxDelay),

		Bot: BotConfig{
			DefaultGroup:    getEnv(EnvDefaultGroup, "АВ-11"),
			SupportText:     getEnv(EnvSupportText, "Питання та пропозиції надсилайте адміністратору бота."),
			SessionCapacity: getIntEnv(EnvSessionCapacity, 10000),
			SessionTTL:      getDurationEnv(EnvSessionTTL, 24*time.Hour),
			ResultCacheTTL:  getDurationEnv(EnvResultCacheTTL, 30*time.Minute),
			UserRateBurst:   getFloatEnv(EnvUserRateBurst, 10),
			UserRateRefill:  getFloatEnv(EnvUserRateRefill, 0.2), // 1 per 5s
		},

		SentryDSN:         getEnv(EnvSentryDSN, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),

		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),
	}

	if err := cfg.ValidateForMode(mode); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// DefaultSemester picks the semester in progress: autumn (September to
// January) is the first, the rest of the year the second.
func DefaultSemester(now time.Time) int {
	switch now.Month() {
	case time.September, time.October, time.November, time.December, time.January:
		return 1
	default:
		return 2
	}
}

// UseWebhook reports whether updates arrive by webhook instead of long polling.
func (c *Config) UseWebhook() bool {
	return c.TelegramWebhookURL != ""
}

// Validate checks the configuration for server mode.
func (c *Config) Validate() error {
	return c.ValidateForMode(ServerMode)
}

// ValidateForMode reports every problem at once, joined with errors.Join.
func (c *Config) ValidateForMode(mode ValidationMode) error {
	var errs []error

	if mode == ServerMode {
		if c.TelegramToken == "" {
			errs = append(errs, errors.New(EnvTelegramToken+" is required"))
		}
		if c.Port == "" {
			errs = append(errs, errors.New(EnvPort+" is required"))
		}
		if c.TelegramWebhookURL != "" {
			if u, err := url.Parse(c.TelegramWebhookURL); err != nil || u.Scheme != "https" || u.Host == "" {
				errs = append(errs, fmt.Errorf("%s must be an https URL, got %q", EnvTelegramWebhookURL, c.TelegramWebhookURL))
			}
		}
		if err := c.Bot.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("bot config: %w", err))
		}
	}

	if u, err := url.Parse(c.ScheduleBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("%s must be an absolute URL, got %q", EnvScheduleBaseURL, c.ScheduleBaseURL))
	}
	if c.ScheduleSemester != 1 && c.ScheduleSemester != 2 {
		errs = append(errs, fmt.Errorf("%s must be 1 or 2, got %d", EnvScheduleSemester, c.ScheduleSemester))
	}
	if c.ScheduleTermHalf != 1 && c.ScheduleTermHalf != 2 {
		errs = append(errs, fmt.Errorf("%s must be 1 or 2, got %d", EnvScheduleTermHalf, c.ScheduleTermHalf))
	}
	if c.ScraperTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvScraperTimeout, c.ScraperTimeout))
	}
	if c.ScraperMinDelay < 0 || c.ScraperMaxDelay < c.ScraperMinDelay {
		errs = append(errs, fmt.Errorf("scraper delay window [%v, %v] is invalid", c.ScraperMinDelay, c.ScraperMaxDelay))
	}
	if c.SentrySampleRate < 0 || c.SentrySampleRate > 1 {
		errs = append(errs, fmt.Errorf("%s must be within [0, 1], got %v", EnvSentrySampleRate, c.SentrySampleRate))
	}

	return errors.Join(errs...)
}

// Validate checks the bot limits.
func (b BotConfig) Validate() error {
	var errs []error
	if b.SessionCapacity <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", EnvSessionCapacity, b.SessionCapacity))
	}
	if b.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvSessionTTL, b.SessionTTL))
	}
	if b.ResultCacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvResultCacheTTL, b.ResultCacheTTL))
	}
	if b.UserRateBurst < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %v", EnvUserRateBurst, b.UserRateBurst))
	}
	if b.UserRateRefill <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvUserRateRefill, b.UserRateRefill))
	}
	return errors.Join(errs...)
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
