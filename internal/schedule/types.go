// Package schedule turns LPNU student schedule pages into per-day lesson lists.
//
// Extraction runs two strategies in fixed order: the structured extractor
// walks the Drupal view markup (day groupings, lesson rows, content blocks);
// when it finds nothing, the text extractor rebuilds the same structure from
// the page's flattened text lines. Both share the weekday normalizer and the
// subgroup and week-parity classifiers.
package schedule

import (
	"fmt"
	"strings"

	domerrors "github.com/garyellow/lpnu-schedule-bot/internal/errors"
	"github.com/garyellow/lpnu-schedule-bot/internal/scraper"
)

// Semester is the study period index sent as the "semestr" parameter.
type Semester int

// Valid semester values.
const (
	SemesterFirst  Semester = 1
	SemesterSecond Semester = 2
)

// TermHalf selects the first or second half of a semester ("semestrduration").
type TermHalf int

// Valid term half values.
const (
	TermHalfFirst  TermHalf = 1
	TermHalfSecond TermHalf = 2
)

// Alternate returns the other half of the term.
func (h TermHalf) Alternate() TermHalf {
	if h == TermHalfSecond {
		return TermHalfFirst
	}
	return TermHalfSecond
}

// Subgroup is a group sub-division. SubgroupAll disables filtering.
type Subgroup int

// Subgroup values.
const (
	SubgroupAll Subgroup = 0
	Subgroup1   Subgroup = 1
	Subgroup2   Subgroup = 2
)

// Complement returns the other subgroup, or SubgroupAll for SubgroupAll.
func (s Subgroup) Complement() Subgroup {
	switch s {
	case Subgroup1:
		return Subgroup2
	case Subgroup2:
		return Subgroup1
	default:
		return SubgroupAll
	}
}

// WeekParity is the numerator/denominator week rotation. ParityAll disables filtering.
type WeekParity int

// Week parity values.
const (
	ParityAll         WeekParity = 0
	ParityNumerator   WeekParity = 1
	ParityDenominator WeekParity = 2
)

// Opposite returns the other parity, or ParityAll for ParityAll.
func (p WeekParity) Opposite() WeekParity {
	switch p {
	case ParityNumerator:
		return ParityDenominator
	case ParityDenominator:
		return ParityNumerator
	default:
		return ParityAll
	}
}

func (p WeekParity) String() string {
	switch p {
	case ParityNumerator:
		return "numerator"
	case ParityDenominator:
		return "denominator"
	default:
		return "all"
	}
}

// Title returns the Ukrainian display name of the parity.
func (p WeekParity) Title() string {
	switch p {
	case ParityNumerator:
		return "Чисельник"
	case ParityDenominator:
		return "Знаменник"
	default:
		return "Всі тижні"
	}
}

// ParseWeekParity accepts English and Ukrainian spellings.
func ParseWeekParity(s string) (WeekParity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "всі", "усі":
		return ParityAll, nil
	case "numerator", "num", "чисельник", "чис":
		return ParityNumerator, nil
	case "denominator", "den", "знаменник", "знам":
		return ParityDenominator, nil
	default:
		return ParityAll, domerrors.NewValidationError("week", fmt.Sprintf("unknown week parity %q", s))
	}
}

// Query is the immutable input of a schedule lookup.
type Query struct {
	Group    string
	Semester Semester
	TermHalf TermHalf
	Subgroup Subgroup
	Parity   WeekParity
}

// Validate checks the query before any request is made.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Group) == "" {
		return domerrors.NewValidationError("group", "must not be empty")
	}
	if q.Semester != SemesterFirst && q.Semester != SemesterSecond {
		return domerrors.NewValidationError("semester", fmt.Sprintf("must be 1 or 2, got %d", q.Semester))
	}
	if q.TermHalf != TermHalfFirst && q.TermHalf != TermHalfSecond {
		return domerrors.NewValidationError("term_half", fmt.Sprintf("must be 1 or 2, got %d", q.TermHalf))
	}
	if q.Subgroup < SubgroupAll || q.Subgroup > Subgroup2 {
		return domerrors.NewValidationError("subgroup", fmt.Sprintf("must be 1 or 2, got %d", q.Subgroup))
	}
	if q.Parity < ParityAll || q.Parity > ParityDenominator {
		return domerrors.NewValidationError("week", fmt.Sprintf("unknown parity %d", q.Parity))
	}
	return nil
}

// CacheKey identifies the query for result caching and request de-duplication.
func (q Query) CacheKey() string {
	return fmt.Sprintf("%s|%d|%d|%d|%d", strings.TrimSpace(q.Group), q.Semester, q.TermHalf, q.Subgroup, q.Parity)
}

// WithTermHalf returns a copy of the query for another half of the term.
func (q Query) WithTermHalf(h TermHalf) Query {
	q.TermHalf = h
	return q
}

// Request is the page request for q. Filters are applied after fetching.
func (q Query) Request() scraper.Request {
	return scraper.Request{
		Group:    q.Group,
		Semester: int(q.Semester),
		TermHalf: int(q.TermHalf),
	}
}

// Entry is one scheduled class occurrence.
type Entry struct {
	WeekdayRaw string
	Weekday    Weekday
	Slot       string
	Body       string
	Markers    []string // structural class/id tokens; empty on the text path
}
