package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	domerrors "github.com/garyellow/lpnu-schedule-bot/internal/errors"
	"github.com/garyellow/lpnu-schedule-bot/internal/stringutil"
)

// InfoKey is the wire-map key of an informational result.
const InfoKey = "Info"

// previewLimit bounds the raw text echoed back for unrecognized pages.
const previewLimit = 300

// Result is either a *Schedule or an *Info.
type Result interface {
	// ToMap renders the result in its wire shape: weekday keys mapping to
	// formatted day text, or a single InfoKey entry.
	ToMap() map[string]string
	isResult()
}

// Day groups the retained lessons of one weekday.
type Day struct {
	Weekday Weekday
	Entries []Entry
}

// Text renders the day with bold headers and escaped lesson text.
func (d Day) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(d.Weekday.Title()))
	for _, e := range d.Entries {
		fmt.Fprintf(&b, "\n<b>Пара %s</b>\n%s\n", html.EscapeString(e.Slot), html.EscapeString(e.Body))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Schedule is a successful lookup: the retained lessons per weekday in the
// order the page lists them.
type Schedule struct {
	Query    Query
	Days     []Day
	Notices  []string // plain-text caveats, e.g. a filter that could not be applied
	Strategy string
}

func (*Schedule) isResult() {}

// Day returns the lessons of a weekday, if any survived filtering.
func (s *Schedule) Day(d Weekday) (Day, bool) {
	for _, day := range s.Days {
		if day.Weekday == d {
			return day, true
		}
	}
	return Day{}, false
}

// Weekdays lists the days present in the schedule, in order.
func (s *Schedule) Weekdays() []Weekday {
	out := make([]Weekday, 0, len(s.Days))
	for _, d := range s.Days {
		out = append(out, d.Weekday)
	}
	return out
}

// ToMap renders each day under its canonical English key.
func (s *Schedule) ToMap() map[string]string {
	m := make(map[string]string, len(s.Days))
	for _, d := range s.Days {
		m[d.Weekday.String()] = d.Text()
	}
	return m
}

// MarshalJSON encodes the wire map with the days in schedule order.
func (s *Schedule) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range s.Days {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writePair(&buf, d.Weekday.String(), d.Text()); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writePair appends "key":value without escaping the markup in value.
func writePair(buf *bytes.Buffer, key, value string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	for i, v := range []string{key, value} {
		if i > 0 {
			buf.WriteByte(':')
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
		buf.Truncate(buf.Len() - 1) // Encode ends with a newline
	}
	return nil
}

// InfoKind classifies informational results.
type InfoKind int

// Informational result kinds.
const (
	InfoNetworkFailure InfoKind = iota + 1
	InfoAntiBotBlock
	InfoGroupNotFound
	InfoEmptySchedule
	InfoUnrecognizedFormat
	InfoInternalFault
	InfoInvalidQuery
)

func (k InfoKind) String() string {
	switch k {
	case InfoNetworkFailure:
		return "network_failure"
	case InfoAntiBotBlock:
		return "anti_bot_block"
	case InfoGroupNotFound:
		return "group_not_found"
	case InfoEmptySchedule:
		return "empty_schedule"
	case InfoUnrecognizedFormat:
		return "unrecognized_format"
	case InfoInternalFault:
		return "internal_fault"
	case InfoInvalidQuery:
		return "invalid_query"
	default:
		return "unknown"
	}
}

// Info is a user-facing message in place of a schedule. Message is already
// escaped and may carry markup.
type Info struct {
	Kind    InfoKind
	Message string
}

func (*Info) isResult() {}

// ToMap renders the message under InfoKey.
func (i *Info) ToMap() map[string]string {
	return map[string]string{InfoKey: i.Message}
}

// Err returns the failure category sentinel of the result, for errors.Is.
func (i *Info) Err() error {
	switch i.Kind {
	case InfoNetworkFailure:
		return domerrors.ErrNetwork
	case InfoAntiBotBlock:
		return domerrors.ErrAntiBot
	case InfoGroupNotFound:
		return domerrors.ErrGroupNotFound
	case InfoEmptySchedule:
		return domerrors.ErrEmptySchedule
	case InfoUnrecognizedFormat:
		return domerrors.ErrUnrecognizedFormat
	case InfoInvalidQuery:
		return domerrors.ErrInvalidInput
	default:
		return domerrors.ErrInternal
	}
}

// MarshalJSON encodes the wire map.
func (i *Info) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writePair(&buf, InfoKey, i.Message); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NetworkFailureInfo reports an unreachable or failing schedule site.
func NetworkFailureInfo() *Info {
	return &Info{
		Kind:    InfoNetworkFailure,
		Message: "⚠️ Не вдалося підключитися до сайту університету. Спробуйте пізніше.",
	}
}

// AntiBotInfo reports a redirect loop or challenge page.
func AntiBotInfo() *Info {
	return &Info{
		Kind: InfoAntiBotBlock,
		Message: "🛡 Сайт університету заблокував запит (захист від ботів). " +
			"Потрібен проксі: повідомте адміністратора бота.",
	}
}

// GroupNotFoundInfo echoes the escaped group name back.
func GroupNotFoundInfo(group string) *Info {
	return &Info{
		Kind: InfoGroupNotFound,
		Message: fmt.Sprintf("🔍 Групу <b>%s</b> не знайдено. Перевірте назву, наприклад: <code>АВ-11</code>.",
			html.EscapeString(strings.TrimSpace(group))),
	}
}

// EmptyScheduleInfo reports a valid page without lessons.
func EmptyScheduleInfo(filtered bool) *Info {
	msg := "📭 Розклад порожній: занять не знайдено."
	if filtered {
		msg = "📭 За обраними фільтрами занять немає."
	}
	return &Info{Kind: InfoEmptySchedule, Message: msg}
}

// UnrecognizedFormatInfo carries a bounded, escaped preview of the page text.
func UnrecognizedFormatInfo(text string) *Info {
	return &Info{
		Kind: InfoUnrecognizedFormat,
		Message: "🤔 Не вдалося розпізнати формат сторінки розкладу. Початок тексту:\n<code>" +
			html.EscapeString(stringutil.Truncate(text, previewLimit)) + "</code>",
	}
}

// InternalFaultInfo replaces a crash inside the engine.
func InternalFaultInfo() *Info {
	return &Info{
		Kind:    InfoInternalFault,
		Message: "💥 Сталася внутрішня помилка під час обробки розкладу. Спробуйте ще раз.",
	}
}

// InvalidQueryInfo reports a malformed query.
func InvalidQueryInfo(err error) *Info {
	return &Info{
		Kind:    InfoInvalidQuery,
		Message: "❗ Некоректний запит: " + html.EscapeString(err.Error()),
	}
}
