package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/garyellow/lpnu-schedule-bot/internal/schedule"
)

// printResult writes res as plain text or as the JSON weekday map, days in
// page order. An
// informational result is printed too, but also returned as an error so the
// exit status reflects it.
func printResult(w io.Writer, res schedule.Result, asJSON bool) error {
	var err error
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		err = enc.Encode(res)
	} else {
		_, err = io.WriteString(w, plainText(res))
	}
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if info, ok := res.(*schedule.Info); ok {
		return fmt.Errorf("no schedule (%s): %w", info.Kind, info.Err())
	}
	return nil
}

// plainText renders a result without markup, one block per day.
func plainText(res schedule.Result) string {
	var b strings.Builder
	switch r := res.(type) {
	case *schedule.Schedule:
		for i, day := range r.Days {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "== %s ==\n", day.Weekday.Title())
			for _, e := range day.Entries {
				fmt.Fprintf(&b, "[%s] %s\n", e.Slot, strings.ReplaceAll(e.Body, "\n", " / "))
			}
		}
		for _, n := range r.Notices {
			fmt.Fprintf(&b, "\n! %s\n", n)
		}
	case *schedule.Info:
		b.WriteString(stripMarkup(r.Message))
		b.WriteString("\n")
	}
	return b.String()
}

// stripMarkup returns the text content of an HTML fragment.
func stripMarkup(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.TrimSpace(doc.Text())
}
