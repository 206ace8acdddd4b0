package schedule

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy extracts lesson entries from a parsed schedule page.
// Strategies are tried in a fixed order until one finds entries.
type Strategy interface {
	Name() string
	Extract(doc *goquery.Document, q Query) Extraction
}

// Extraction is the outcome of one strategy.
type Extraction struct {
	Strategy      string
	Found         int     // entries attributable to a weekday, before filtering
	Entries       []Entry // entries that passed every requested filter
	ParityApplied bool    // false when the strategy cannot see week-parity markers
}

// DefaultStrategies returns the structured extractor followed by the text fallback.
func DefaultStrategies() []Strategy {
	return []Strategy{StructuredExtractor{}, TextExtractor{}}
}

// Extract runs strategies in order and returns the first extraction that
// found anything. When none did, the last extraction is returned.
func Extract(doc *goquery.Document, q Query, strategies []Strategy) Extraction {
	var last Extraction
	for _, s := range strategies {
		last = s.Extract(doc, q)
		if last.Found > 0 {
			return last
		}
	}
	return last
}

// keep applies the week-parity and subgroup filters, in that order.
func keep(e Entry, q Query, applyParity bool) bool {
	if applyParity && IsExcludedByWeek(e.Markers, q.Parity) {
		return false
	}
	return !excludedBySubgroup(e, q.Subgroup)
}

// skippedTags never contribute text.
var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"head": true, "select": true, "option": true, "#comment": true,
}

// blockTags break the flattened text into lines.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "section": true, "table": true, "td": true,
	"th": true, "tr": true, "ul": true,
}

// textLines flattens a selection the way a browser would lay it out:
// one line per block element or <br>, whitespace collapsed, empty lines dropped.
func textLines(sel *goquery.Selection) []string {
	var b strings.Builder
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			name := goquery.NodeName(c)
			switch {
			case name == "#text":
				b.WriteString(c.Text())
				b.WriteByte(' ')
			case name == "br":
				b.WriteByte('\n')
			case skippedTags[name]:
			default:
				block := blockTags[name]
				if block {
					b.WriteByte('\n')
				}
				walk(c)
				if block {
					b.WriteByte('\n')
				}
			}
		})
	}
	walk(sel)

	raw := strings.Split(b.String(), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// blockText is textLines joined with newlines.
func blockText(sel *goquery.Selection) string {
	return strings.Join(textLines(sel), "\n")
}

// textRoot picks the narrowest element holding the schedule text.
func textRoot(doc *goquery.Document) *goquery.Selection {
	for _, selector := range []string{".view-content", "#content", "main", "body"} {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return sel
		}
	}
	return doc.Selection
}

// FlattenText returns the page text used by the text extractor and for
// diagnostic previews.
func FlattenText(doc *goquery.Document) []string {
	return textLines(textRoot(doc))
}
