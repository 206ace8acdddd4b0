package schedule

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// slotLineRe matches a line holding only a lesson number, e.g. "3" or "3.".
var slotLineRe = regexp.MustCompile(`^([1-8])\s*[.):]?$`)

// inlineSlotRe matches a lesson number leading the rest of a day line: "1 Фізика".
var inlineSlotRe = regexp.MustCompile(`^([1-8])(?:\s*[.):]\s*|\s+|$)(.*)$`)

// TextExtractor rebuilds lessons from the flattened page text. It assumes
// the page lists lessons day by day, slot by slot, and cannot see the
// structural week markers, so week-parity filtering is not applied.
type TextExtractor struct{}

// Name identifies the strategy in logs and metrics.
func (TextExtractor) Name() string { return "text" }

// Extract flattens the page and parses the resulting lines.
func (t TextExtractor) Extract(doc *goquery.Document, q Query) Extraction {
	return t.ExtractLines(FlattenText(doc), q)
}

// ExtractLines runs the line state machine:
//
//	no day        -> day line            -> in day
//	in day        -> slot line           -> entry open
//	entry open    -> other line          -> appended to the entry body
//
// End of input closes the last open entry.
func (t TextExtractor) ExtractLines(lines []string, q Query) Extraction {
	out := Extraction{Strategy: t.Name(), ParityApplied: false}

	var (
		day     Weekday
		dayRaw  string
		current *Entry
		body    []string
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Body = strings.TrimSpace(strings.Join(body, "\n"))
		if current.Body != "" {
			out.Found++
			if keep(*current, q, false) {
				out.Entries = append(out.Entries, *current)
			}
		}
		current, body = nil, nil
	}

	open := func(slot, first string) {
		flush()
		current = &Entry{WeekdayRaw: dayRaw, Weekday: day, Slot: slot}
		if first = strings.TrimSpace(first); first != "" {
			body = append(body, first)
		}
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if d, rest, ok := matchDayStart(line); ok {
			flush()
			day, dayRaw = d, strings.TrimSpace(strings.TrimSuffix(line, rest))
			if m := inlineSlotRe.FindStringSubmatch(rest); m != nil {
				open(m[1], m[2])
			}
			continue
		}

		if day == WeekdayUnknown {
			continue
		}

		if m := slotLineRe.FindStringSubmatch(line); m != nil {
			open(m[1], "")
			continue
		}

		if current != nil {
			body = append(body, line)
		}
	}
	flush()

	return out
}
