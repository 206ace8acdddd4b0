// Package bot is the Telegram front-end of the schedule engine.
//
// A chat walks a short inline menu: group, subgroup, week parity, then day.
// Updates are handled concurrently, one goroutine each; per-chat menu state
// and fetched schedules live in bounded TTL caches, and identical concurrent
// lookups share one fetch.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/garyellow/lpnu-schedule-bot/internal/config"
	"github.com/garyellow/lpnu-schedule-bot/internal/ctxutil"
	"github.com/garyellow/lpnu-schedule-bot/internal/logger"
	"github.com/garyellow/lpnu-schedule-bot/internal/ratelimit"
	"github.com/garyellow/lpnu-schedule-bot/internal/schedule"
	"github.com/garyellow/lpnu-schedule-bot/internal/session"
)

// Telegram Bot API limits.
const (
	maxMessageLength = 4096
	maxCallbackData  = 64

	// defaultGlobalRate stays under the ~30 messages/s bot-wide limit.
	defaultGlobalRate = 25
)

// Sender is the subset of *tgbotapi.BotAPI the bot calls.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// ScheduleService resolves schedule queries. *schedule.Engine implements it.
type ScheduleService interface {
	GetSchedule(ctx context.Context, q schedule.Query) schedule.Result
}

// Recorder receives bot metrics. *metrics.Metrics implements it.
type Recorder interface {
	session.Recorder
	ratelimit.Recorder
	RecordBotUpdate(kind, status string, duration float64)
	RecordSingleflightDedup(module string)
}

// Config wires a Bot.
type Config struct {
	Sender   Sender
	Schedule ScheduleService
	Logger   *logger.Logger
	Metrics  Recorder // optional
	Bot      config.BotConfig

	Semester schedule.Semester
	TermHalf schedule.TermHalf

	UpdateTimeout time.Duration // per update; defaults to config.UpdateProcessing
	GlobalRate    float64       // outgoing API calls per second; defaults to 25

	// OnFault receives recovered panics, e.g. to report them to Sentry.
	OnFault func(ctx context.Context, err error)
}

// Bot handles Telegram updates. It is safe for concurrent use.
type Bot struct {
	sender   Sender
	schedule ScheduleService
	log      *logger.Logger
	metrics  Recorder
	onFault  func(ctx context.Context, err error)

	defaultGroup string
	supportText  string
	semester     schedule.Semester
	termHalf     schedule.TermHalf
	timeout      time.Duration

	sessions *session.Cache[int64, chatState]
	results  *session.Cache[string, schedule.Result]
	flight   singleflight.Group

	chatLimiter *ratelimit.KeyedLimiter
	sendLimiter *ratelimit.Limiter

	wg sync.WaitGroup
}

// New creates a bot. Call Shutdown to release its background resources.
func New(cfg Config) *Bot {
	log := cfg.Logger
	if log == nil {
		log = logger.New("info")
	}
	timeout := cfg.UpdateTimeout
	if timeout <= 0 {
		timeout = config.UpdateProcessing
	}
	rate := cfg.GlobalRate
	if rate <= 0 {
		rate = defaultGlobalRate
	}
	semester := cfg.Semester
	if semester == 0 {
		semester = schedule.SemesterFirst
	}
	termHalf := cfg.TermHalf
	if termHalf == 0 {
		termHalf = schedule.TermHalfFirst
	}

	return &Bot{
		sender:       cfg.Sender,
		schedule:     cfg.Schedule,
		log:          log.WithModule("bot"),
		metrics:      cfg.Metrics,
		onFault:      cfg.OnFault,
		defaultGroup: cfg.Bot.DefaultGroup,
		supportText:  cfg.Bot.SupportText,
		semester:     semester,
		termHalf:     termHalf,
		timeout:      timeout,
		sessions: session.New[int64, chatState](session.Options{
			Name:     "session",
			Capacity: cfg.Bot.SessionCapacity,
			TTL:      cfg.Bot.SessionTTL,
			Sliding:  true,
			Metrics:  cfg.Metrics,
		}),
		results: session.New[string, schedule.Result](session.Options{
			Name:     "result",
			Capacity: cfg.Bot.SessionCapacity,
			TTL:      cfg.Bot.ResultCacheTTL,
			Metrics:  cfg.Metrics,
		}),
		chatLimiter: ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
			Name:          "chat",
			Burst:         cfg.Bot.UserRateBurst,
			RefillRate:    cfg.Bot.UserRateRefill,
			CleanupPeriod: config.RateLimiterCleanupInterval,
			Metrics:       cfg.Metrics,
		}),
		sendLimiter: ratelimit.New(rate, rate),
	}
}

// Start runs the cache janitors until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	go b.sessions.RunJanitor(ctx, config.SessionCleanupInterval)
	go b.results.RunJanitor(ctx, config.SessionCleanupInterval)
}

// Stats reports the number of live chat sessions and cached results.
func (b *Bot) Stats() map[string]int {
	return map[string]int{
		"sessions": b.sessions.Len(),
		"results":  b.results.Len(),
	}
}

// Run dispatches updates from a long-polling channel until ctx is done or
// the channel is closed.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			b.Dispatch(u)
		}
	}
}

// Dispatch handles an update in the background.
func (b *Bot) Dispatch(u tgbotapi.Update) {
	b.wg.Go(func() {
		b.HandleUpdate(context.Background(), u)
	})
}

// Shutdown stops the limiter cleanup and waits for in-flight updates.
func (b *Bot) Shutdown(ctx context.Context) error {
	b.chatLimiter.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		b.wg.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleUpdate processes one update synchronously. Panics are recovered.
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	kind, chatID, user := describe(u)
	if kind == "" {
		return
	}

	start := time.Now()
	status := "success"

	ctx = ctxutil.WithRequestID(ctx, uuid.NewString())
	ctx = ctxutil.WithChatID(ctx, strconv.FormatInt(chatID, 10))
	if user != nil {
		ctx = ctxutil.WithUserID(ctx, strconv.FormatInt(user.ID, 10))
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			status = "panic"
			err := fmt.Errorf("panic handling %s update: %v", kind, r)
			b.log.WithError(err).ErrorContext(ctx, "Recovered from panic in update handler")
			if b.onFault != nil {
				b.onFault(ctx, err)
			}
		}
		b.recordUpdate(kind, status, time.Since(start))
	}()

	if !b.chatLimiter.Allow(strconv.FormatInt(chatID, 10)) {
		status = "throttled"
		b.throttled(ctx, u)
		return
	}

	var err error
	switch kind {
	case "callback":
		err = b.handleCallback(ctx, u.CallbackQuery)
	case "command", "message":
		err = b.handleMessage(ctx, u.Message)
	}
	if err != nil {
		status = "error"
		b.log.WithError(err).WarnContext(ctx, "Failed to handle update", "kind", kind)
	}
}

// describe classifies an update and returns its chat and sender.
func describe(u tgbotapi.Update) (kind string, chatID int64, user *tgbotapi.User) {
	switch {
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil && u.CallbackQuery.Message.Chat != nil:
		return "callback", u.CallbackQuery.Message.Chat.ID, u.CallbackQuery.From
	case u.Message != nil && u.Message.Chat != nil:
		if u.Message.IsCommand() {
			return "command", u.Message.Chat.ID, u.Message.From
		}
		return "message", u.Message.Chat.ID, u.Message.From
	default:
		return "", 0, nil
	}
}

func (b *Bot) throttled(ctx context.Context, u tgbotapi.Update) {
	var err error
	if u.CallbackQuery != nil {
		err = b.request(ctx, tgbotapi.NewCallback(u.CallbackQuery.ID, msgThrottled))
	} else {
		_, err = b.send(ctx, tgbotapi.NewMessage(u.Message.Chat.ID, msgThrottled))
	}
	if err != nil {
		b.log.WithError(err).DebugContext(ctx, "Failed to send throttle notice")
	}
}

// send delivers a message through the bot-wide limiter.
func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := b.acquire(ctx); err != nil {
		return tgbotapi.Message{}, err
	}
	return b.sender.Send(c)
}

// request performs an API call whose result is only a status.
func (b *Bot) request(ctx context.Context, c tgbotapi.Chattable) error {
	if err := b.acquire(ctx); err != nil {
		return err
	}
	_, err := b.sender.Request(c)
	return err
}

func (b *Bot) acquire(ctx context.Context) error {
	if b.sendLimiter.Allow() {
		return nil
	}
	if b.metrics != nil {
		b.metrics.RecordRateLimiterDrop("global")
	}
	return b.sendLimiter.Wait(ctx)
}

// lookup returns the schedule for q from the result cache, or fetches it.
// Concurrent lookups of the same query share one fetch. Only schedules are
// cached; informational results are retried on the next request.
func (b *Bot) lookup(ctx context.Context, q schedule.Query) schedule.Result {
	key := q.CacheKey()
	if res, ok := b.results.Get(key); ok {
		return res
	}

	v, _, shared := b.flight.Do(key, func() (any, error) {
		res := b.schedule.GetSchedule(ctx, q)
		if _, ok := res.(*schedule.Schedule); ok {
			b.results.Set(key, res)
		}
		return res, nil
	})
	if shared && b.metrics != nil {
		b.metrics.RecordSingleflightDedup("schedule")
	}
	return v.(schedule.Result)
}

func (b *Bot) recordUpdate(kind, status string, d time.Duration) {
	if b.metrics != nil {
		b.metrics.RecordBotUpdate(kind, status, d.Seconds())
	}
}
