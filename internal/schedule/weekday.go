package schedule

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Weekday is a canonical day of the week. WeekdayUnknown means the label
// could not be recognized and the lessons under it must be dropped.
type Weekday int

// Canonical weekdays in display order.
const (
	WeekdayUnknown Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// Weekdays lists the canonical weekdays Monday first.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdayNames = [...]struct {
	key, title, short string
}{
	WeekdayUnknown: {"Unknown", "Невідомо", "?"},
	Monday:         {"Monday", "Понеділок", "Пн"},
	Tuesday:        {"Tuesday", "Вівторок", "Вт"},
	Wednesday:      {"Wednesday", "Середа", "Ср"},
	Thursday:       {"Thursday", "Четвер", "Чт"},
	Friday:         {"Friday", "П'ятниця", "Пт"},
	Saturday:       {"Saturday", "Субота", "Сб"},
	Sunday:         {"Sunday", "Неділя", "Нд"},
}

func (d Weekday) valid() bool {
	return d >= Monday && d <= Sunday
}

// String returns the canonical English key used in the wire map.
func (d Weekday) String() string {
	if !d.valid() {
		return weekdayNames[WeekdayUnknown].key
	}
	return weekdayNames[d].key
}

// Title returns the full Ukrainian name.
func (d Weekday) Title() string {
	if !d.valid() {
		return weekdayNames[WeekdayUnknown].title
	}
	return weekdayNames[d].title
}

// Short returns the two-letter Ukrainian abbreviation.
func (d Weekday) Short() string {
	if !d.valid() {
		return weekdayNames[WeekdayUnknown].short
	}
	return weekdayNames[d].short
}

// ParseWeekday resolves a canonical key such as "Monday".
func ParseWeekday(key string) (Weekday, bool) {
	for _, d := range Weekdays {
		if strings.EqualFold(d.String(), key) {
			return d, true
		}
	}
	return WeekdayUnknown, false
}

// weekdayPrefixes is matched in order; the first weekday with a matching
// prefix wins. Ukrainian, Russian and English spellings are covered.
var weekdayPrefixes = []struct {
	day      Weekday
	prefixes []string
}{
	{Monday, []string{"пн", "пон", "mon"}},
	{Tuesday, []string{"вт", "вів", "tue"}},
	{Wednesday, []string{"ср", "сер", "wed"}},
	{Thursday, []string{"чт", "чет", "thu"}},
	{Friday, []string{"пт", "пят", "птн", "fri"}},
	{Saturday, []string{"сб", "суб", "sat"}},
	{Sunday, []string{"нд", "нед", "вс", "вос", "sun"}},
}

// weekdayFullNames are the complete day names, after cleanLabel. A line in
// the flattened page text only starts a day when its first word is an
// abbreviation or a prefix of one of these.
var weekdayFullNames = []struct {
	day   Weekday
	names []string
}{
	{Monday, []string{"понеділок", "понедельник", "monday"}},
	{Tuesday, []string{"вівторок", "вторник", "tuesday"}},
	{Wednesday, []string{"середа", "среда", "wednesday"}},
	{Thursday, []string{"четвер", "четверг", "thursday"}},
	{Friday, []string{"пятниця", "пятница", "friday"}},
	{Saturday, []string{"субота", "суббота", "saturday"}},
	{Sunday, []string{"неділя", "воскресенье", "sunday"}},
}

// minDayWord is the shortest truncated day name accepted at a line start.
const minDayWord = 3

// latinLookalikes maps Latin letters that render like Cyrillic ones.
// The source pages sometimes carry "Bт" or "Cp" instead of "Вт" and "Ср".
var latinLookalikes = strings.NewReplacer(
	"a", "а", "b", "в", "c", "с", "e", "е", "h", "н", "i", "і",
	"k", "к", "m", "м", "o", "о", "p", "р", "t", "т", "x", "х", "y", "у",
)

var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// cleanLabel strips every non-word rune and lowercases the rest.
// The modifier apostrophe (U+02BC) is a letter to Unicode, so apostrophes
// are dropped explicitly.
func cleanLabel(raw string) string {
	s := nonWordRe.ReplaceAllString(norm.NFKC.String(raw), "")
	s = strings.Map(func(r rune) rune {
		if isApostrophe(r) {
			return -1
		}
		return r
	}, s)
	return cases.Lower(language.Ukrainian).String(s)
}

// NormalizeWeekday maps a noisy weekday label such as "ПН", "пн." or "Bт"
// to its canonical weekday. The second return value is false when nothing
// in the prefix table matches.
func NormalizeWeekday(raw string) (Weekday, bool) {
	label := cleanLabel(raw)
	if label == "" {
		return WeekdayUnknown, false
	}
	folded := latinLookalikes.Replace(label)

	for _, row := range weekdayPrefixes {
		for _, p := range row.prefixes {
			if strings.HasPrefix(label, p) || strings.HasPrefix(folded, p) {
				return row.day, true
			}
		}
	}
	return WeekdayUnknown, false
}

// matchDayStart reports whether a text line opens a new day. It returns the
// weekday and the content that follows the day word on the same line.
func matchDayStart(line string) (Weekday, string, bool) {
	line = strings.TrimSpace(line)
	end := strings.IndexFunc(line, func(r rune) bool {
		return !unicode.IsLetter(r) && !isApostrophe(r)
	})
	if end == 0 {
		return WeekdayUnknown, "", false
	}
	word := line
	rest := ""
	if end > 0 {
		word = line[:end]
		rest = strings.TrimLeft(line[end:], " \t.,:;-–—")
	}

	label := cleanLabel(word)
	folded := latinLookalikes.Replace(label)

	// Abbreviations must match exactly: "вся" is not Sunday.
	for _, row := range weekdayPrefixes {
		for _, p := range row.prefixes {
			if label == p || folded == p {
				return row.day, rest, true
			}
		}
	}

	// Longer words must be a leading part of a full name, so "Понед." opens
	// Monday while "четвертий" does not open Thursday.
	if utf8.RuneCountInString(label) < minDayWord {
		return WeekdayUnknown, "", false
	}
	for _, row := range weekdayFullNames {
		for _, name := range row.names {
			if strings.HasPrefix(name, label) || strings.HasPrefix(name, folded) {
				return row.day, rest, true
			}
		}
	}
	return WeekdayUnknown, "", false
}

func isApostrophe(r rune) bool {
	switch r {
	case '\'', '’', 'ʼ', '`':
		return true
	}
	return false
}
