package schedule

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	domerrors "github.com/garyellow/lpnu-schedule-bot/internal/errors"
	"github.com/garyellow/lpnu-schedule-bot/internal/logger"
	"github.com/garyellow/lpnu-schedule-bot/internal/scraper"
)

// minUnrecognizedText is the amount of page text, in runes, above which a page
// without lessons is reported as an unknown layout rather than an empty schedule.
const minUnrecognizedText = 20

// Page-level phrases the site prints instead of a schedule.
var (
	groupNotFoundPhrases = []string{
		"групу не знайдено",
		"групи не знайдено",
		"такої групи не існує",
		"немає такої групи",
		"группа не найдена",
		"group not found",
	}
	emptySchedulePhrases = []string{
		"немає занять",
		"занять немає",
		"розклад відсутній",
		"розклад не знайдено",
		"нічого не знайдено",
	}
)

// errorMessageSelector matches Drupal status messages of the error kind.
const errorMessageSelector = ".messages.error, .messages--error, .alert-danger"

// Fetcher loads the schedule page for one query.
type Fetcher interface {
	Fetch(ctx context.Context, req scraper.Request) (*scraper.RawDocument, error)
}

// Recorder receives engine metrics. *metrics.Metrics implements it.
type Recorder interface {
	RecordExtraction(strategy, outcome string, duration float64)
	RecordTermHalfFallback(outcome string)
}

// EngineConfig wires an Engine.
type EngineConfig struct {
	Fetcher    Fetcher
	Strategies []Strategy // defaults to DefaultStrategies()
	Logger     *logger.Logger
	Metrics    Recorder // optional

	// OnFault receives recovered panics, e.g. to report them to Sentry.
	OnFault func(ctx context.Context, err error)
}

// Engine turns queries into schedule results. It holds no per-query state
// and is safe for concurrent use.
type Engine struct {
	fetcher    Fetcher
	strategies []Strategy
	log        *logger.Logger
	metrics    Recorder
	onFault    func(ctx context.Context, err error)
}

// NewEngine creates an engine. A nil Fetcher is allowed for engines that only
// run ExtractDocument.
func NewEngine(cfg EngineConfig) *Engine {
	strategies := cfg.Strategies
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.New("info")
	}
	return &Engine{
		fetcher:    cfg.Fetcher,
		strategies: strategies,
		log:        log.WithModule("schedule"),
		metrics:    cfg.Metrics,
		onFault:    cfg.OnFault,
	}
}

// GetSchedule fetches and extracts the schedule for q. It never returns an
// error and never panics: every failure becomes an *Info result.
//
// When the requested term half yields no extractable content, the alternate
// half is tried once. Transport failures are not retried.
func (e *Engine) GetSchedule(ctx context.Context, q Query) (res Result) {
	start := time.Now()
	strategy := ""
	defer func() {
		if r := recover(); r != nil {
			res = e.recovered(ctx, r)
		}
		e.record(strategy, res, time.Since(start))
	}()

	if err := q.Validate(); err != nil {
		return InvalidQueryInfo(err)
	}
	if e.fetcher == nil {
		return e.fault(ctx, errors.New("schedule engine has no fetcher"))
	}

	page, err := e.load(ctx, q)
	if err != nil {
		return e.errorInfo(ctx, q, err)
	}
	if page.hasContent() {
		strategy = page.extraction.Strategy
		return page.result(q)
	}

	alt := q.WithTermHalf(q.TermHalf.Alternate())
	e.log.DebugContext(ctx, "No extractable content, trying alternate term half",
		"group", q.Group, "term_half", int(alt.TermHalf))

	altPage, err := e.load(ctx, alt)
	if err != nil {
		e.log.WithError(err).WarnContext(ctx, "Alternate term half fetch failed",
			"group", q.Group, "term_half", int(alt.TermHalf))
		e.recordFallback("error")
		strategy = page.extraction.Strategy
		return page.result(q)
	}
	if altPage.hasContent() {
		e.recordFallback("hit")
		strategy = altPage.extraction.Strategy
		return altPage.result(alt)
	}
	e.recordFallback("miss")
	strategy = page.extraction.Strategy
	return page.result(q)
}

// ExtractDocument runs the extraction on an already parsed page, without
// fetching or term-half fallback. Panics are recovered like in GetSchedule.
func (e *Engine) ExtractDocument(ctx context.Context, doc *goquery.Document, q Query) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = e.recovered(ctx, r)
		}
	}()
	if err := q.Validate(); err != nil {
		return InvalidQueryInfo(err)
	}
	return e.analyze(doc, q).result(q)
}

// page is one fetched and analyzed document.
type page struct {
	extraction   Extraction
	lines        []string
	groupMissing bool
	markedEmpty  bool
}

// hasContent reports whether the page settles the query without the
// alternate term half.
func (p page) hasContent() bool {
	return p.extraction.Found > 0 || p.groupMissing
}

func (p page) result(q Query) Result {
	if p.groupMissing {
		return GroupNotFoundInfo(q.Group)
	}

	if p.extraction.Found == 0 {
		text := strings.Join(p.lines, "\n")
		if p.markedEmpty || utf8.RuneCountInString(text) <= minUnrecognizedText {
			return EmptyScheduleInfo(false)
		}
		return UnrecognizedFormatInfo(text)
	}

	if len(p.extraction.Entries) == 0 {
		return EmptyScheduleInfo(q.Subgroup != SubgroupAll || q.Parity != ParityAll)
	}

	s := &Schedule{
		Query:    q,
		Days:     groupByDay(p.extraction.Entries),
		Strategy: p.extraction.Strategy,
	}
	if q.Parity != ParityAll && !p.extraction.ParityApplied {
		s.Notices = append(s.Notices, fmt.Sprintf(
			"Фільтр тижня (%s) не застосовано: сторінку розібрано як текст, позначки тижня недоступні.",
			q.Parity.Title()))
	}
	return s
}

// groupByDay keeps days in first-seen order and entries in page order.
func groupByDay(entries []Entry) []Day {
	var days []Day
	index := make(map[Weekday]int)
	for _, entry := range entries {
		i, ok := index[entry.Weekday]
		if !ok {
			i = len(days)
			index[entry.Weekday] = i
			days = append(days, Day{Weekday: entry.Weekday})
		}
		days[i].Entries = append(days[i].Entries, entry)
	}
	return days
}

func (e *Engine) load(ctx context.Context, q Query) (page, error) {
	raw, err := e.fetcher.Fetch(ctx, q.Request())
	if err != nil {
		return page{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Body))
	if err != nil {
		return page{}, fmt.Errorf("%w: parse html: %w", domerrors.ErrInternal, err)
	}

	p := e.analyze(doc, q)
	e.log.DebugContext(ctx, "Schedule page analyzed",
		"group", q.Group,
		"term_half", int(q.TermHalf),
		"via_proxy", raw.ViaProxy,
		"strategy", p.extraction.Strategy,
		"found", p.extraction.Found,
		"kept", len(p.extraction.Entries),
	)
	return p, nil
}

func (e *Engine) analyze(doc *goquery.Document, q Query) page {
	p := page{lines: FlattenText(doc)}
	if groupMissing(doc) {
		p.groupMissing = true
		return p
	}
	p.extraction = Extract(doc, q, e.strategies)
	if p.extraction.Found == 0 {
		p.markedEmpty = containsAny(strings.ToLower(strings.Join(p.lines, " ")), emptySchedulePhrases)
	}
	return p
}

// groupMissing looks for the site's "no such group" answer, either as a
// Drupal error message or anywhere in the page text.
func groupMissing(doc *goquery.Document) bool {
	if containsAny(strings.ToLower(doc.Find(errorMessageSelector).Text()), groupNotFoundPhrases) {
		return true
	}
	return containsAny(strings.ToLower(strings.Join(FlattenText(doc), " ")), groupNotFoundPhrases)
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// errorInfo maps fetch failures to their informational results.
func (e *Engine) errorInfo(ctx context.Context, q Query, err error) Result {
	log := e.log.WithError(err)
	switch {
	case domerrors.IsAntiBot(err):
		log.WarnContext(ctx, "Schedule site blocked the request", "group", q.Group)
		return AntiBotInfo()
	case domerrors.IsNetwork(err), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		log.WarnContext(ctx, "Schedule site unreachable", "group", q.Group)
		return NetworkFailureInfo()
	default:
		return e.fault(ctx, err)
	}
}

func (e *Engine) recovered(ctx context.Context, r any) Result {
	err := fmt.Errorf("%w: panic: %v", domerrors.ErrInternal, r)
	e.log.ErrorContext(ctx, "Recovered from panic in schedule engine",
		"panic", fmt.Sprint(r), "stack", string(debug.Stack()))
	return e.fault(ctx, err)
}

func (e *Engine) fault(ctx context.Context, err error) Result {
	e.log.WithError(err).ErrorContext(ctx, "Schedule engine fault")
	if e.onFault != nil {
		e.onFault(ctx, err)
	}
	return InternalFaultInfo()
}

func (e *Engine) record(strategy string, res Result, d time.Duration) {
	if e.metrics == nil {
		return
	}
	outcome := "schedule"
	if info, ok := res.(*Info); ok {
		outcome = info.Kind.String()
	}
	if strategy == "" {
		strategy = "none"
	}
	e.metrics.RecordExtraction(strategy, outcome, d.Seconds())
}

func (e *Engine) recordFallback(outcome string) {
	if e.metrics != nil {
		e.metrics.RecordTermHalfFallback(outcome)
	}
}
