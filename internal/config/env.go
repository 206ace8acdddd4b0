// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Telegram
	EnvTelegramToken      = "TELEGRAM_TOKEN"
	EnvTelegramWebhookURL = "TELEGRAM_WEBHOOK_URL"

	// Server
	EnvPort            = "PORT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	// Schedule source
	EnvScheduleBaseURL  = "SCHEDULE_BASE_URL"
	EnvScheduleSemester = "SCHEDULE_SEMESTER"
	EnvScheduleTermHalf = "SCHEDULE_TERM_HALF"

	// Scraper
	EnvScraperAPIKey        = "SCRAPER_API_KEY"
	EnvScraperProxyEndpoint = "SCRAPER_PROXY_ENDPOINT"
	EnvScraperTimeout       = "SCRAPER_TIMEOUT"
	EnvScraperMinDelay      = "SCRAPER_MIN_DELAY"
	EnvScraperMaxDelay      = "SCRAPER_MAX_DELAY"

	// Bot
	EnvDefaultGroup = "DEFAULT_GROUP"
	EnvSupportText  = "SUPPORT_TEXT"

	// Bot sessions and caches
	EnvSessionCapacity = "SESSION_CAPACITY"
	EnvSessionTTL      = "SESSION_TTL"
	EnvResultCacheTTL  = "RESULT_CACHE_TTL"

	// Rate Limits
	EnvUserRateBurst  = "USER_RATE_BURST"
	EnvUserRateRefill = "USER_RATE_REFILL"

	// Sentry Feature
	EnvSentryDSN         = "SENTRY_DSN"
	EnvSentryEnvironment = "SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "SENTRY_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackToken    = "BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "BETTERSTACK_ENDPOINT"

	// Metrics Auth Feature
	EnvMetricsUsername = "METRICS_USERNAME"
	EnvMetricsPassword = "METRICS_PASSWORD"
)
