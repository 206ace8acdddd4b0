// Package config provides centralized timeout constants for the application.
//
// The schedule site (student.lpnu.ua) is slow under load and sits behind
// anti-bot protection, so scraper timeouts are generous while the HTTP
// surface facing Telegram stays short.
package config

import "time"

// Update processing
const (
	// UpdateProcessing bounds the handling of one Telegram update, including a
	// schedule lookup with its term-half fallback (two fetches plus jitter).
	UpdateProcessing = 100 * time.Second

	// PollingTimeout is the long-polling timeout, in seconds, for getUpdates.
	PollingTimeout = 60

	// TelegramRequest is the HTTP client timeout for Bot API calls. It must
	// outlast a long-polling getUpdates request.
	TelegramRequest = 75 * time.Second
)

// HTTP server timeouts
const (
	// HTTPReadHeader guards against slow clients on the webhook and health routes.
	HTTPReadHeader = 5 * time.Second

	// HTTPRead is the server read timeout; Telegram sends small JSON payloads.
	HTTPRead = 10 * time.Second

	// HTTPWrite is the server write timeout. Webhook updates are acknowledged
	// before the schedule lookup runs.
	HTTPWrite = 15 * time.Second

	// HTTPIdle is the idle timeout for keep-alive connections.
	HTTPIdle = 120 * time.Second
)

// Scraper timeouts
const (
	// ScraperRequest is the timeout for one request to the schedule site,
	// redirects included. Rendering through the proxy takes longest.
	ScraperRequest = 45 * time.Second

	// ScraperMinDelay and ScraperMaxDelay bound the random pause before each
	// direct request.
	ScraperMinDelay = 300 * time.Millisecond
	ScraperMaxDelay = 1500 * time.Millisecond
)

// Background job intervals
const (
	// RateLimiterCleanupInterval is how often idle per-chat limiters are dropped.
	RateLimiterCleanupInterval = 5 * time.Minute

	// SessionCleanupInterval is how often expired sessions and cached results are purged.
	SessionCleanupInterval = 10 * time.Minute
)

// Graceful shutdown
const (
	// GracefulShutdown is the default timeout for graceful server shutdown.
	GracefulShutdown = 30 * time.Second
)
