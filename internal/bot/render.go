package bot

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/garyellow/lpnu-schedule-bot/internal/schedule"
	"github.com/garyellow/lpnu-schedule-bot/internal/stringutil"
)

// dayButtonsPerRow keeps day buttons readable on phones.
const dayButtonsPerRow = 3

func subgroupKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnSubgroup1, callback(actSubgroup, "1")),
			tgbotapi.NewInlineKeyboardButtonData(btnSubgroup2, callback(actSubgroup, "2")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnWholeGroup, callback(actSubgroup, "0")),
		),
	)
}

func weekKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnNumerator, callback(actWeek, "1")),
			tgbotapi.NewInlineKeyboardButtonData(btnDenominator, callback(actWeek, "2")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnAllWeeks, callback(actWeek, "0")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnBack, callback(actBack, backSubgroup)),
		),
	)
}

// daysKeyboard offers the days present in the schedule, Monday first.
func daysKeyboard(s *schedule.Schedule) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, d := range schedule.Weekdays {
		if _, ok := s.Day(d); !ok {
			continue
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(d.Title(), callback(actDay, d.String())))
		if len(row) == dayButtonsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btnWholeWeek, callback(actDay, dayWeek))),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btnFilters, callback(actMenu, menuFilters))),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func dayViewKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnBackToDays, callback(actBack, backDays)),
			tgbotapi.NewInlineKeyboardButtonData(btnFilters, callback(actMenu, menuFilters)),
		),
	)
}

// infoKeyboard follows informational results: retry the same lookup or
// change the filters.
func infoKeyboard(p schedule.WeekParity) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnRetry, callback(actWeek, strconv.Itoa(int(p)))),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnFilters, callback(actMenu, menuFilters)),
		),
	)
}

// summaryText is the header shown above days: group, filters and notices.
func summaryText(s *schedule.Schedule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Розклад групи %s</b>\n%s · %s",
		html.EscapeString(s.Query.Group), subgroupLabel(s.Query.Subgroup), s.Query.Parity.Title())
	for _, n := range s.Notices {
		fmt.Fprintf(&b, "\n\n<i>⚠️ %s</i>", html.EscapeString(n))
	}
	return b.String()
}

// weekParts is the header followed by every day, in page order.
func weekParts(s *schedule.Schedule) []string {
	parts := make([]string, 0, len(s.Days)+1)
	parts = append(parts, summaryText(s))
	for _, d := range s.Days {
		parts = append(parts, d.Text())
	}
	return parts
}

// splitMessage packs parts into chunks of at most limit runes, separated by
// blank lines. Parts are only cut when one alone exceeds the limit: at line
// breaks first, then at the rune limit.
func splitMessage(parts []string, limit int) []string {
	var chunks []string
	var cur strings.Builder
	curLen := 0

	for _, part := range parts {
		for _, piece := range fitPieces(part, limit) {
			n := utf8.RuneCountInString(piece)
			if curLen > 0 && curLen+2+n > limit {
				chunks = append(chunks, cur.String())
				cur.Reset()
				curLen = 0
			}
			if curLen > 0 {
				cur.WriteString("\n\n")
				curLen += 2
			}
			cur.WriteString(piece)
			curLen += n
		}
	}
	if curLen > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

func fitPieces(part string, limit int) []string {
	if utf8.RuneCountInString(part) <= limit {
		return []string{part}
	}

	var out []string
	var cur strings.Builder
	curLen := 0
	for _, line := range strings.Split(part, "\n") {
		for _, seg := range stringutil.ChunkRunes(line, limit) {
			n := utf8.RuneCountInString(seg)
			if curLen > 0 && curLen+1+n > limit {
				out = append(out, cur.String())
				cur.Reset()
				curLen = 0
			}
			if curLen > 0 {
				cur.WriteByte('\n')
				curLen++
			}
			cur.WriteString(seg)
			curLen += n
		}
	}
	if curLen > 0 {
		out = append(out, cur.String())
	}
	return out
}
