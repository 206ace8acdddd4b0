package schedule

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/garyellow/lpnu-schedule-bot/internal/sliceutil"
)

// Selectors of the Drupal "students_schedule" view.
const (
	containerSelector = ".view-content"
	groupingSelector  = ".view-grouping"
	headerSelector    = ".view-grouping-header"
	lessonSelector    = ".stud_schedule"
	contentSelector   = ".group_content"
	slotSelector      = "h3"

	fallbackHeaderSelector = "h2, h4, strong"
)

// variantIDRe matches the ids the site gives to one variant of a lesson slot:
// group_full, group_chys, sub_1_znam and so on.
var variantIDRe = regexp.MustCompile(`^(?:group|sub)_`)

var slotRe = regexp.MustCompile(`\d+`)

// StructuredExtractor walks day groupings, lesson rows and content blocks.
type StructuredExtractor struct{}

// Name identifies the strategy in logs and metrics.
func (StructuredExtractor) Name() string { return "structured" }

// Extract returns nothing when the schedule container is missing, which
// hands the page to the next strategy.
func (s StructuredExtractor) Extract(doc *goquery.Document, q Query) Extraction {
	out := Extraction{Strategy: s.Name(), ParityApplied: true}

	container := doc.Find(containerSelector).First()
	if container.Length() == 0 {
		return out
	}

	container.Find(groupingSelector).Each(func(_ int, grouping *goquery.Selection) {
		raw := strings.TrimSpace(dayHeader(grouping).Text())
		day, ok := NormalizeWeekday(raw)
		if !ok {
			// Lessons of an unrecognized day cannot be attributed; drop the grouping.
			return
		}

		for _, row := range lessonRows(grouping) {
			body := strings.TrimSpace(blockText(row.content))
			if body == "" {
				continue
			}
			e := Entry{
				WeekdayRaw: raw,
				Weekday:    day,
				Slot:       row.slot,
				Body:       body,
				Markers:    row.markers,
			}
			out.Found++
			if keep(e, q, true) {
				out.Entries = append(out.Entries, e)
			}
		}
	})
	return out
}

// dayHeader finds the day label of a grouping. Older layouts use a plain
// heading instead of the header span; emphasis inside a lesson never counts.
func dayHeader(grouping *goquery.Selection) *goquery.Selection {
	if header := grouping.Find(headerSelector).First(); header.Length() > 0 {
		return header
	}
	return grouping.Find(fallbackHeaderSelector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Closest(lessonSelector).Length() == 0
	}).First()
}

type lessonRow struct {
	slot    string
	content *goquery.Selection
	markers []string
}

// lessonRows lists every lesson variant in a day grouping. A ".stud_schedule"
// block holds one slot; its id-tagged children are the variants (whole group,
// subgroup, numerator or denominator week). A block without variants is a
// row by itself.
func lessonRows(grouping *goquery.Selection) []lessonRow {
	var rows []lessonRow
	grouping.Find(lessonSelector).Each(func(_ int, block *goquery.Selection) {
		slot := slotLabel(block, grouping)
		blockMarkers := markersOf(block)

		variants := block.Find("[id]").FilterFunction(func(_ int, v *goquery.Selection) bool {
			id, _ := v.Attr("id")
			return variantIDRe.MatchString(id)
		})
		if variants.Length() == 0 {
			rows = append(rows, lessonRow{
				slot:    slot,
				content: contentOf(block),
				markers: sliceutil.Unique(append(blockMarkers, descendantMarkers(block)...)),
			})
			return
		}

		variants.Each(func(_ int, v *goquery.Selection) {
			markers := append([]string{}, blockMarkers...)
			markers = append(markers, markersOf(v)...)
			markers = append(markers, descendantMarkers(v)...)
			rows = append(rows, lessonRow{
				slot:    slot,
				content: contentOf(v),
				markers: sliceutil.Unique(markers),
			})
		})
	})
	return rows
}

// contentOf prefers the dedicated content element and falls back to the row itself.
func contentOf(row *goquery.Selection) *goquery.Selection {
	if c := row.Find(contentSelector).First(); c.Length() > 0 {
		return c
	}
	return row
}

// slotLabel finds the lesson number heading preceding a block, looking at the
// block's own siblings first and then at its ancestors inside the grouping.
func slotLabel(block, grouping *goquery.Selection) string {
	candidates := []*goquery.Selection{block}
	block.ParentsUntilSelection(grouping).Each(func(_ int, p *goquery.Selection) {
		candidates = append(candidates, p)
	})
	for _, c := range candidates {
		if h := c.PrevAllFiltered(slotSelector).First(); h.Length() > 0 {
			if n := slotRe.FindString(h.Text()); n != "" {
				return n
			}
		}
	}
	return "?"
}

// markersOf returns the id and class tokens of the selection's first element.
func markersOf(sel *goquery.Selection) []string {
	var markers []string
	if id, ok := sel.Attr("id"); ok && id != "" {
		markers = append(markers, id)
	}
	if class, ok := sel.Attr("class"); ok {
		markers = append(markers, strings.Fields(class)...)
	}
	return markers
}

// descendantMarkers collects id and class tokens below the selection, such
// as a nested "week_color" wrapper.
func descendantMarkers(sel *goquery.Selection) []string {
	var markers []string
	sel.Find("[id], [class]").Each(func(_ int, d *goquery.Selection) {
		markers = append(markers, markersOf(d)...)
	})
	return markers
}
