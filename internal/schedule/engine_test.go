package schedule

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/lpnu-schedule-bot/internal/errors"
	"github.com/garyellow/lpnu-schedule-bot/internal/logger"
	"github.com/garyellow/lpnu-schedule-bot/internal/scraper"
)

type fakeResponse struct {
	body string
	err  error
}

// fakeFetcher answers per term half and records every request.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[int]fakeResponse
	calls     []scraper.Request
}

func newFakeFetcher(responses map[int]fakeResponse) *fakeFetcher {
	return &fakeFetcher{responses: responses}
}

func (f *fakeFetcher) Fetch(_ context.Context, req scraper.Request) (*scraper.RawDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	r, ok := f.responses[req.TermHalf]
	if !ok {
		return &scraper.RawDocument{StatusCode: 200, Body: []byte("<html><body></body></html>")}, nil
	}
	if r.err != nil {
		return nil, r.err
	}
	return &scraper.RawDocument{StatusCode: 200, Body: []byte(r.body)}, nil
}

func (f *fakeFetcher) termHalves() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.TermHalf)
	}
	return out
}

type fakeRecorder struct {
	mu          sync.Mutex
	extractions []string
	fallbacks   []string
}

func (r *fakeRecorder) RecordExtraction(strategy, outcome string, _ float64) {
	r.mu.Lock()
	r.extractions = append(r.extractions, strategy+"/"+outcome)
	r.mu.Unlock()
}

func (r *fakeRecorder) RecordTermHalfFallback(outcome string) {
	r.mu.Lock()
	r.fallbacks = append(r.fallbacks, outcome)
	r.mu.Unlock()
}

type panickingStrategy struct{}

func (panickingStrategy) Name() string { return "panicking" }

func (panickingStrategy) Extract(*goquery.Document, Query) Extraction {
	var m map[string]int
	m["boom"]++ // nil map write
	return Extraction{}
}

func newTestEngine(f Fetcher, opts ...func(*EngineConfig)) *Engine {
	cfg := EngineConfig{Fetcher: f, Logger: logger.NewWithWriter("error", io.Discard)}
	for _, o := range opts {
		o(&cfg)
	}
	return NewEngine(cfg)
}

const unrecognizedPage = `<html><body><div id="content">
<p>Сторінка тимчасово недоступна через технічні роботи на сервері університету</p>
</div></body></html>`

const groupMissingPage = `<html><body>
<div class="messages error">Групу не знайдено</div>
</body></html>`

func TestEngine_ScenarioA_OtherSubgroupDayOmitted(t *testing.T) {
	t.Parallel()
	f := newFakeFetcher(map[int]fakeResponse{1: {body: structuredPage}})
	q := validQuery()
	q.Subgroup = Subgroup1

	res := newTestEngine(f).GetSchedule(context.Background(), q)

	s, ok := res.(*Schedule)
	require.True(t, ok, "got %#v", res)
	m := s.ToMap()
	assert.NotContains(t, m, "Monday")
	assert.Contains(t, m, "Tuesday")
	assert.NotContains(t, m, InfoKey)
	assert.Equal(t, []int{1}, f.termHalves())
}

func TestEngine_ScenarioB_OwnSubgroupDayKept(t *testing.T) {
	t.Parallel()
	f := newFakeFetcher(map[int]fakeResponse{1: {body: structuredPage}})
	q := validQuery()
	q.Subgroup = Subgroup2

	res := newTestEngine(f).GetSchedule(context.Background(), q)

	s, ok := res.(*Schedule)
	require.True(t, ok, "got %#v", res)
	monday, ok := s.Day(Monday)
	require.True(t, ok)
	require.Len(t, monday.Entries, 1)
	assert.Equal(t, "Фізика\nдоц. Іваненко І.І.", monday.Entries[0].Body)
	assert.Equal(t, "<b>Понеділок</b>\n\n<b>Пара 1</b>\nФізика\nдоц. Іваненко І.І.", s.ToMap()["Monday"])
	assert.Equal(t, []Weekday{Monday, Tuesday}, s.Weekdays())
	assert.Equal(t, "structured", s.Strategy)
}

func TestEngine_ScenarioC_UnrecognizedFormat(t *testing.T) {
	t.Parallel()
	f := newFakeFetcher(map[int]fakeResponse{1: {body: unrecognizedPage}, 2: {body: unrecognizedPage}})
	rec := &fakeRecorder{}

	res := newTestEngine(f, func(c *EngineConfig) { c.Metrics = rec }).GetSchedule(context.Background(), validQuery())

	info, ok := res.(*Info)
	require.True(t, ok, "got %#v", res)
	assert.Equal(t, InfoUnrecognizedFormat, info.Kind)
	assert.Contains(t, info.Message, "Сторінка тимчасово недоступна")
	assert.Len(t, res.ToMap(), 1)
	assert.Equal(t, []int{1, 2}, f.termHalves(), "alternate term half is tried once")
	assert.Equal(t, []string{"miss"}, rec.fallbacks)
	assert.Equal(t, []string{"text/unrecognized_format"}, rec.extractions)
}

func TestEngine_ScenarioD_RedirectLoop(t *testing.T) {
	t.Parallel()
	loop := domerrors.NewFetchError("https://student.lpnu.ua/students_schedule", 302, false,
		domerrors.ErrAntiBot, errors.New("redirect loop"))
	f := newFakeFetcher(map[int]fakeResponse{1: {err: loop}})

	var res Result
	assert.NotPanics(t, func() {
		res = newTestEngine(f).GetSchedule(context.Background(), validQuery())
	})

	assert.Equal(t, map[string]string{InfoKey: AntiBotInfo().Message}, res.ToMap())
	assert.Equal(t, []int{1}, f.termHalves(), "transport failures are not retried")
}

func TestEngine_ScenarioE_GroupNotFound(t *testing.T) {
	t.Parallel()
	f := newFakeFetcher(map[int]fakeResponse{1: {body: groupMissingPage}})
	q := validQuery()
	q.Group = "<АВ-99>"

	res := newTestEngine(f).GetSchedule(context.Background(), q)

	info, ok := res.(*Info)
	require.True(t, ok)
	assert.ErrorIs(t, info.Err(), domerrors.ErrGroupNotFound)

	m := res.ToMap()
	require.Len(t, m, 1)
	assert.Contains(t, m[InfoKey], "&lt;АВ-99&gt;")
	assert.NotContains(t, m[InfoKey], "<АВ-99>")
	assert.Equal(t, []int{1}, f.termHalves())
}

func TestEngine_NetworkFailures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
	}{
		{"status", domerrors.NewFetchError("u", 503, false, domerrors.ErrNetwork, nil)},
		{"deadline", context.DeadlineExceeded},
		{"canceled", context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFakeFetcher(map[int]fakeResponse{1: {err: tt.err}})
			res := newTestEngine(f).GetSchedule(context.Background(), validQuery())
			assert.Equal(t, NetworkFailureInfo(), res)
		})
	}
}

func TestEngine_UnknownFetchErrorIsFault(t *testing.T) {
	t.Parallel()
	var faults []error
	f := newFakeFetcher(map[int]fakeResponse{1: {err: errors.New("unexpected")}})
	res := newTestEngine(f, func(c *EngineConfig) {
		c.OnFault = func(_ context.Context, err error) { faults = append(faults, err) }
	}).GetSchedule(context.Background(), validQuery())

	assert.Equal(t, InternalFaultInfo(), res)
	require.Len(t, faults, 1)
}

func TestEngine_TermHalfFallbackHit(t *testing.T) {
	t.Parallel()
	f := newFakeFetcher(map[int]fakeResponse{2: {body: structuredPage}})
	rec := &fakeRecorder{}

	res := newTestEngine(f, func(c *EngineConfig) { c.Metrics = rec }).GetSchedule(context.Background(), validQuery())

	s, ok := res.(*Schedule)
	require.True(t, ok, "got %#v", res)
	assert.Equal(t, TermHalfSecond, s.Query.TermHalf)
	assert.Equal(t, []int{1, 2}, f.termHalves())
	assert.Equal(t, []string{"hit"}, rec.fallbacks)
	assert.Equal(t, []string{"structured/schedule"}, rec.extractions)
}

func TestEngine_TermHalfFallbackErrorKeepsPrimary(t *testing.T) {
	t.Parallel()
	f := newFakeFetcher(map[int]fakeResponse{
		1: {body: "<html><body></body></html>"},
		2: {err: domerrors.NewFetchError("u", 0, false, domerrors.ErrNetwork, nil)},
	})
	res := newTestEngine(f).GetSchedule(context.Background(), validQuery())
	assert.Equal(t, EmptyScheduleInfo(false), res)
}

func TestEngine_EmptyScheduleMarkers(t *testing.T) {
	t.Parallel()
	page := `<html><body><p>На цей період занять немає. Перевірте розклад пізніше.</p></body></html>`
	f := newFakeFetcher(map[int]fakeResponse{1: {body: page}, 2: {body: page}})

	res := newTestEngine(f).GetSchedule(context.Background(), validQuery())
	assert.Equal(t, EmptyScheduleInfo(false), res)
}

func TestEngine_AllLessonsFiltered(t *testing.T) {
	t.Parallel()
	page := `<html><body><main><p>Пн</p><p>1</p><p>Фізика (2)</p></main></body></html>`
	f := newFakeFetcher(map[int]fakeResponse{1: {body: page}})
	q := validQuery()
	q.Subgroup = Subgroup1

	res := newTestEngine(f).GetSchedule(context.Background(), q)
	assert.Equal(t, EmptyScheduleInfo(true), res)
	assert.Equal(t, []int{1}, f.termHalves(), "a page with lessons settles the query")
}

func TestEngine_ParityNoticeOnTextPath(t *testing.T) {
	t.Parallel()
	f := newFakeFetcher(map[int]fakeResponse{1: {body: textPage}})
	q := validQuery()
	q.Parity = ParityDenominator

	res := newTestEngine(f).GetSchedule(context.Background(), q)

	s, ok := res.(*Schedule)
	require.True(t, ok)
	assert.Equal(t, "text", s.Strategy)
	require.Len(t, s.Notices, 1)
	assert.Contains(t, s.Notices[0], "Знаменник")
}

func TestEngine_NoParityNoticeOnStructuredPath(t *testing.T) {
	t.Parallel()
	f := newFakeFetcher(map[int]fakeResponse{1: {body: structuredPage}})
	q := validQuery()
	q.Parity = ParityDenominator

	s, ok := newTestEngine(f).GetSchedule(context.Background(), q).(*Schedule)
	require.True(t, ok)
	assert.Empty(t, s.Notices)
	tuesday, _ := s.Day(Tuesday)
	assert.Equal(t, []string{"Програмування & алгоритми"}, bodies(tuesday.Entries))
}

func TestEngine_Idempotent(t *testing.T) {
	t.Parallel()
	f := newFakeFetcher(map[int]fakeResponse{1: {body: structuredPage}})
	e := newTestEngine(f)
	q := validQuery()
	q.Subgroup = Subgroup2

	first := e.GetSchedule(context.Background(), q).ToMap()
	second := e.GetSchedule(context.Background(), q).ToMap()
	assert.Equal(t, first, second)
}

func TestEngine_RecoversPanics(t *testing.T) {
	t.Parallel()
	var faults []error
	f := newFakeFetcher(map[int]fakeResponse{1: {body: structuredPage}})
	e := newTestEngine(f, func(c *EngineConfig) {
		c.Strategies = []Strategy{panickingStrategy{}}
		c.OnFault = func(_ context.Context, err error) { faults = append(faults, err) }
	})

	var res Result
	require.NotPanics(t, func() { res = e.GetSchedule(context.Background(), validQuery()) })
	assert.Equal(t, InternalFaultInfo(), res)
	require.Len(t, faults, 1)
	assert.ErrorIs(t, faults[0], domerrors.ErrInternal)

	res = e.ExtractDocument(context.Background(), mustDoc(t, structuredPage), validQuery())
	assert.Equal(t, InternalFaultInfo(), res)
}

func TestEngine_InvalidQuery(t *testing.T) {
	t.Parallel()
	f := newFakeFetcher(nil)
	res := newTestEngine(f).GetSchedule(context.Background(), Query{Group: "АВ-11"})

	info, ok := res.(*Info)
	require.True(t, ok)
	assert.Equal(t, InfoInvalidQuery, info.Kind)
	assert.Empty(t, f.termHalves())
}

func TestEngine_NilFetcher(t *testing.T) {
	t.Parallel()
	res := newTestEngine(nil).GetSchedule(context.Background(), validQuery())
	assert.Equal(t, InternalFaultInfo(), res)
}

func TestEngine_ExtractDocument(t *testing.T) {
	t.Parallel()
	e := newTestEngine(nil)

	res := e.ExtractDocument(context.Background(), mustDoc(t, structuredPage), validQuery())
	s, ok := res.(*Schedule)
	require.True(t, ok)
	assert.Len(t, s.Days, 2)

	res = e.ExtractDocument(context.Background(), mustDoc(t, groupMissingPage), validQuery())
	assert.Equal(t, InfoGroupNotFound, res.(*Info).Kind)
}

func TestUnrecognizedFormatInfo_Truncates(t *testing.T) {
	t.Parallel()
	text := strings.Repeat("а", previewLimit) + "<хвіст>"
	info := UnrecognizedFormatInfo(text)

	assert.Contains(t, info.Message, "…")
	assert.NotContains(t, info.Message, "хвіст")
}

func TestDayText_EscapesMarkup(t *testing.T) {
	t.Parallel()
	d := Day{Weekday: Friday, Entries: []Entry{{Slot: "2", Body: "C++ <лаб>"}}}
	assert.Equal(t, "<b>П&#39;ятниця</b>\n\n<b>Пара 2</b>\nC++ &lt;лаб&gt;", d.Text())
}
