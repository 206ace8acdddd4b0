package bot

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/lpnu-schedule-bot/internal/schedule"
)

func TestSplitMessage_PacksWholeParts(t *testing.T) {
	t.Parallel()
	parts := []string{"aaaa", "bbbb", "cccc"}

	assert.Equal(t, []string{"aaaa\n\nbbbb\n\ncccc"}, splitMessage(parts, 100))
	assert.Equal(t, []string{"aaaa\n\nbbbb", "cccc"}, splitMessage(parts, 10))
	assert.Equal(t, []string{"aaaa", "bbbb", "cccc"}, splitMessage(parts, 9))
	assert.Empty(t, splitMessage(nil, 10))
}

func TestSplitMessage_CutsOversizedParts(t *testing.T) {
	t.Parallel()
	day := strings.Join([]string{"<b>Понеділок</b>", strings.Repeat("ф", 6), strings.Repeat("х", 6)}, "\n")

	chunks := splitMessage([]string{day}, 16)
	assert.Equal(t, []string{"<b>Понеділок</b>", "фффффф\nхххххх"}, chunks)

	long := strings.Repeat("я", 25)
	chunks = splitMessage([]string{long}, 10)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 10)
	}
	assert.Equal(t, long, strings.Join(chunks, ""))
}

func TestSplitMessage_RespectsTelegramLimit(t *testing.T) {
	t.Parallel()
	var parts []string
	for range 40 {
		parts = append(parts, strings.Repeat("Лекція з фізики\n", 20))
	}
	for _, c := range splitMessage(parts, maxMessageLength) {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), maxMessageLength)
	}
}

func TestSummaryText(t *testing.T) {
	t.Parallel()
	s := &schedule.Schedule{
		Query:   schedule.Query{Group: "АВ-11", Subgroup: schedule.Subgroup1, Parity: schedule.ParityNumerator},
		Notices: []string{"Фільтр <тижня> не застосовано"},
	}
	text := summaryText(s)
	assert.Equal(t,
		"<b>Розклад групи АВ-11</b>\n1 підгрупа · Чисельник\n\n<i>⚠️ Фільтр &lt;тижня&gt; не застосовано</i>",
		text)
}

func TestDaysKeyboard_MondayFirst(t *testing.T) {
	t.Parallel()
	s := &schedule.Schedule{Days: []schedule.Day{
		{Weekday: schedule.Friday}, {Weekday: schedule.Monday}, {Weekday: schedule.Wednesday}, {Weekday: schedule.Tuesday},
	}}
	kb := daysKeyboard(s)

	require.Len(t, kb.InlineKeyboard, 4)
	assert.Len(t, kb.InlineKeyboard[0], dayButtonsPerRow)
	assert.Equal(t, []string{"day:Monday", "day:Tuesday", "day:Wednesday", "day:Friday", "day:week", "menu:filters"}, buttonData(kb))
	assert.Equal(t, "Понеділок", kb.InlineKeyboard[0][0].Text)
}
