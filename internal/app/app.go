// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyellow/lpnu-schedule-bot/internal/bot"
	"github.com/garyellow/lpnu-schedule-bot/internal/buildinfo"
	"github.com/garyellow/lpnu-schedule-bot/internal/config"
	"github.com/garyellow/lpnu-schedule-bot/internal/ctxutil"
	"github.com/garyellow/lpnu-schedule-bot/internal/logger"
	"github.com/garyellow/lpnu-schedule-bot/internal/metrics"
	"github.com/garyellow/lpnu-schedule-bot/internal/schedule"
	"github.com/garyellow/lpnu-schedule-bot/internal/scraper"
	"github.com/garyellow/lpnu-schedule-bot/internal/sentry"
)

// aliveText is the keep-alive reply on / and /health.
const aliveText = "Бот працює! (Web server is alive)"

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg      *config.Config
	logger   *logger.Logger
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	api      *tgbotapi.BotAPI
	bot      *bot.Bot
	router   *gin.Engine
	server   *http.Server

	botName   string
	connected atomic.Bool    // set once updates can flow
	wg        sync.WaitGroup // background goroutines
}

// Initialize creates and initializes a new application with all dependencies.
// It contacts the Bot API once (getMe) to validate the token.
func Initialize(cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(logger.Options{
		Level:               cfg.LogLevel,
		BetterstackToken:    cfg.BetterStackToken,
		BetterstackEndpoint: cfg.BetterStackEndpoint,
	})
	log = log.WithField("service", "lpnu-schedule-bot")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Package-level slog.*Context calls pick up request, chat and user IDs.
	slog.SetDefault(log.Logger)

	log.WithField("release", buildinfo.Release()).Info("Initializing application...")
	if cfg.BetterStackToken != "" {
		log.WithField("endpoint", cfg.BetterStackEndpoint).Info("Better Stack logging enabled")
	}

	if err := sentry.Initialize(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Release(),
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Sentry initialization failed, error tracking disabled")
	} else if sentry.IsEnabled() {
		log.WithField("environment", cfg.SentryEnvironment).Info("Sentry error tracking enabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	client := scraper.NewClient(scraper.ClientConfig{
		BaseURL:       cfg.ScheduleBaseURL,
		Timeout:       cfg.ScraperTimeout,
		MinDelay:      cfg.ScraperMinDelay,
		MaxDelay:      cfg.ScraperMaxDelay,
		ProxyAPIKey:   cfg.ScraperAPIKey,
		ProxyEndpoint: cfg.ScraperProxyEndpoint,
		Metrics:       m,
	})
	if client.ProxyEnabled() {
		log.Info("Schedule pages are fetched through the rendering proxy")
	}

	engine := schedule.NewEngine(schedule.EngineConfig{
		Fetcher: client,
		Logger:  log,
		Metrics: m,
		OnFault: sentry.CaptureExceptionWithContext,
	})

	api, err := tgbotapi.NewBotAPIWithClient(cfg.TelegramToken, tgbotapi.APIEndpoint,
		&http.Client{Timeout: config.TelegramRequest})
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	log.WithField("bot", api.Self.UserName).Info("Authorized on Telegram")

	app := newApplication(cfg, log, registry, m, api, engine)
	app.api = api
	app.botName = api.Self.UserName

	log.Info("Initialization complete")
	return app, nil
}

// newApplication builds the bot and the HTTP surface around an API sender and
// a schedule service.
func newApplication(cfg *config.Config, log *logger.Logger, registry *prometheus.Registry,
	m *metrics.Metrics, sender bot.Sender, svc bot.ScheduleService,
) *Application {
	app := &Application{
		cfg:      cfg,
		logger:   log,
		metrics:  m,
		registry: registry,
	}
	app.bot = bot.New(bot.Config{
		Sender:   sender,
		Schedule: svc,
		Logger:   log,
		Metrics:  m,
		Bot:      cfg.Bot,
		Semester: schedule.Semester(cfg.ScheduleSemester),
		TermHalf: schedule.TermHalf(cfg.ScheduleTermHalf),
		OnFault:  sentry.CaptureExceptionWithContext,
	})
	app.router = app.newRouter()
	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.router,
		ReadHeaderTimeout: config.HTTPReadHeader,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}
	return app
}

func (a *Application) newRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(a.logger))

	router.GET("/", a.alive)
	router.GET("/health", a.alive)
	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)
	router.POST("/telegram/:secret",
		webhookSecretMiddleware(webhookSecret(a.cfg.TelegramToken)),
		a.readinessMiddleware(),
		a.bot.WebhookHandler)
	router.GET("/metrics",
		a.metricsAuth(),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	return router
}

func (a *Application) mode() string {
	if a.cfg.UseWebhook() {
		return "webhook"
	}
	return "polling"
}

func (a *Application) alive(c *gin.Context) {
	c.String(http.StatusOK, aliveText)
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (a *Application) readinessCheck(c *gin.Context) {
	if !a.connected.Load() {
		a.logger.Debug("Readiness check: Telegram updates not flowing yet")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "telegram not connected",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"bot":     a.botName,
		"mode":    a.mode(),
		"cache":   a.bot.Stats(),
		"release": buildinfo.Release(),
	})
}

// Run starts the HTTP server and the update source, then blocks until
// SIGINT/SIGTERM.
//
// Shutdown order:
//  1. Stop receiving updates (polling) and cancel background goroutines
//  2. Stop the HTTP server, so no new webhook updates arrive
//  3. Wait for in-flight updates, then flush Sentry
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.bot.Start(ctx)
	a.startHTTPServer()

	if err := a.startUpdates(ctx); err != nil {
		a.logger.WithError(err).Error("Failed to start receiving updates")
		cancel()
		_ = a.shutdown()
		return err
	}

	sig := a.waitForShutdownSignal()
	a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")

	a.connected.Store(false)
	if !a.cfg.UseWebhook() {
		a.api.StopReceivingUpdates()
	}
	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return a.shutdown()
}

// startUpdates registers the webhook, or clears it and starts long polling.
func (a *Application) startUpdates(ctx context.Context) error {
	if a.cfg.UseWebhook() {
		wh, err := tgbotapi.NewWebhook(webhookURL(a.cfg.TelegramWebhookURL, a.cfg.TelegramToken))
		if err != nil {
			return fmt.Errorf("webhook config: %w", err)
		}
		if _, err := a.api.Request(wh); err != nil {
			return fmt.Errorf("set webhook: %w", err)
		}
		a.logger.WithField("base_url", a.cfg.TelegramWebhookURL).Info("Telegram webhook registered")
	} else {
		// getUpdates is refused while a webhook is set.
		if _, err := a.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			return fmt.Errorf("delete webhook: %w", err)
		}
		u := tgbotapi.NewUpdate(0)
		u.Timeout = config.PollingTimeout
		updates := a.api.GetUpdatesChan(u)
		a.wg.Go(func() {
			a.bot.Run(ctx, updates)
		})
		a.logger.Info("Long polling started")
	}

	a.connected.Store(true)
	return nil
}

// startHTTPServer starts the HTTP server in a goroutine.
func (a *Application) startHTTPServer() {
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Error("HTTP server error")
		}
	}()
}

// waitForShutdownSignal blocks until SIGINT/SIGTERM is received.
func (a *Application) waitForShutdownSignal() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}

// shutdown stops the HTTP server, drains in-flight updates and flushes
// Sentry, all within SHUTDOWN_TIMEOUT.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.logger.Info("Waiting for in-flight updates to complete...")
	if err := a.bot.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Bot shutdown timeout")
	}

	if sentry.IsEnabled() {
		remaining := time.Until(deadline(shutdownCtx))
		if !sentry.Flush(max(remaining, time.Second)) {
			a.logger.Warn("Sentry flush timed out")
		}
	}

	a.logger.Info("Shutdown complete")
	return nil
}

func deadline(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Now().Add(time.Second)
}

// readinessMiddleware rejects webhook requests with 503 until updates may be
// handled. Telegram retries rejected deliveries.
func (a *Application) readinessMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.connected.Load() {
			c.Header("Retry-After", "10")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":       "service starting",
				"retry_after": 10,
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// securityHeadersMiddleware adds security headers to responses.
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Header("X-Permitted-Cross-Domain-Policies", "none")
		c.Next()
	}
}

// loggingMiddleware logs HTTP requests with status-based log levels:
// 5xx=Error, 4xx=Warn, 404=Debug, 3xx/2xx=Debug. The route template is
// logged instead of the raw path so the webhook secret stays out of logs.
func loggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			requestID = c.GetHeader("X-Correlation-Id")
		}
		if requestID != "" {
			ctx := ctxutil.WithRequestID(c.Request.Context(), requestID)
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()

		entry := log.WithField("http_method", method).
			WithField("http_path", path).
			WithField("http_status", status).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("client_ip", c.ClientIP())
		if requestID != "" {
			entry = entry.WithField("request_id", requestID)
		}

		switch {
		case status >= 500:
			entry.Error("HTTP request failed")
		case status >= 400 && status != http.StatusNotFound:
			entry.Warn("HTTP request rejected")
		case status == http.StatusNotFound:
			entry.Debug("HTTP request not found")
		default:
			entry.Debug("HTTP request completed")
		}
	}
}
