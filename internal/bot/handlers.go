package bot

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/garyellow/lpnu-schedule-bot/internal/schedule"
)

func (b *Bot) handleMessage(ctx context.Context, m *tgbotapi.Message) error {
	chatID := m.Chat.ID

	if m.IsCommand() {
		b.log.DebugContext(ctx, "Command received", "command", m.Command())
		switch m.Command() {
		case "start":
			return b.cmdStart(ctx, m)
		case "rozklad", "schedule":
			return b.cmdRozklad(ctx, chatID, m.CommandArguments())
		case "group":
			return b.cmdGroup(ctx, chatID, m.CommandArguments())
		case "info", "help":
			return b.reply(ctx, chatID, msgInfo, nil)
		case "support":
			return b.reply(ctx, chatID, html.EscapeString(b.supportText), nil)
		default:
			return b.reply(ctx, chatID, msgUnknownCommand, nil)
		}
	}

	text := strings.TrimSpace(m.Text)
	if text == "" {
		return nil
	}
	if kw := MatchKeyword(rozkladRegex, text); kw != "" {
		return b.cmdRozklad(ctx, chatID, ExtractArgument(text, kw))
	}
	if kw := MatchKeyword(groupRegex, text); kw != "" {
		return b.cmdGroup(ctx, chatID, ExtractArgument(text, kw))
	}
	if b.state(chatID).AwaitingGroup {
		return b.selectGroup(ctx, chatID, text)
	}
	return b.reply(ctx, chatID, msgHint, nil)
}

func (b *Bot) cmdStart(ctx context.Context, m *tgbotapi.Message) error {
	name := "друже"
	if m.From != nil && strings.TrimSpace(m.From.FirstName) != "" {
		name = m.From.FirstName
	}
	group := b.group(b.state(m.Chat.ID))
	if group == "" {
		group = "…"
	}
	return b.reply(ctx, m.Chat.ID, fmt.Sprintf(msgStart, html.EscapeString(name), html.EscapeString(group)), nil)
}

// cmdRozklad opens the menu for the given group, the remembered one, or the
// default, in that order.
func (b *Bot) cmdRozklad(ctx context.Context, chatID int64, arg string) error {
	if arg = strings.TrimSpace(arg); arg != "" {
		return b.selectGroup(ctx, chatID, arg)
	}
	if group := b.group(b.state(chatID)); group != "" {
		return b.selectGroup(ctx, chatID, group)
	}
	b.updateState(chatID, func(st *chatState) { st.AwaitingGroup = true })
	return b.reply(ctx, chatID, msgAskGroup, nil)
}

// cmdGroup remembers a group without opening the menu.
func (b *Bot) cmdGroup(ctx context.Context, chatID int64, arg string) error {
	if strings.TrimSpace(arg) == "" {
		b.updateState(chatID, func(st *chatState) { st.AwaitingGroup = true })
		return b.reply(ctx, chatID, msgAskGroup, nil)
	}
	group, err := NormalizeGroup(arg)
	if err != nil {
		return b.reply(ctx, chatID, msgBadGroup, nil)
	}
	b.updateState(chatID, func(st *chatState) {
		st.Group = group
		st.AwaitingGroup = false
	})
	return b.reply(ctx, chatID, fmt.Sprintf(msgGroupSaved, html.EscapeString(group)), nil)
}

// selectGroup stores the group and starts the filter menu in a new message.
func (b *Bot) selectGroup(ctx context.Context, chatID int64, raw string) error {
	group, err := NormalizeGroup(raw)
	if err != nil {
		return b.reply(ctx, chatID, msgBadGroup, nil)
	}
	b.updateState(chatID, func(st *chatState) {
		st.Group = group
		st.AwaitingGroup = false
	})
	kb := subgroupKeyboard()
	return b.reply(ctx, chatID, fmt.Sprintf(msgChooseSubgroup, html.EscapeString(group)), &kb)
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	chatID := cq.Message.Chat.ID
	msgID := cq.Message.MessageID

	data, err := ParseCallback(cq.Data)
	if err != nil {
		_ = b.request(ctx, tgbotapi.NewCallback(cq.ID, msgStaleButton))
		return err
	}
	if err := b.request(ctx, tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.log.WithError(err).DebugContext(ctx, "Failed to answer callback")
	}

	st := b.state(chatID)
	if st.Group == "" {
		return b.edit(ctx, chatID, msgID, msgSessionExpired, nil)
	}

	switch data.Action {
	case actSubgroup:
		sg, err := parseChoice(data.Value)
		if err != nil {
			return err
		}
		st = b.updateState(chatID, func(st *chatState) { st.Subgroup = schedule.Subgroup(sg) })
		return b.showWeekMenu(ctx, chatID, msgID, st)

	case actWeek:
		p, err := parseChoice(data.Value)
		if err != nil {
			return err
		}
		st = b.updateState(chatID, func(st *chatState) { st.Parity = schedule.WeekParity(p) })
		return b.showSchedule(ctx, chatID, msgID, st)

	case actDay:
		return b.showDay(ctx, chatID, msgID, st, data.Value)

	case actBack:
		if data.Value == backDays {
			return b.showSchedule(ctx, chatID, msgID, st)
		}
		return b.showSubgroupMenu(ctx, chatID, msgID, st)

	case actMenu:
		return b.showSubgroupMenu(ctx, chatID, msgID, st)
	}
	return nil
}

// parseChoice accepts the 0/1/2 values of the subgroup and week menus.
func parseChoice(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > 2 {
		return 0, fmt.Errorf("%w: choice %q", errCallbackFormat, v)
	}
	return n, nil
}

func (b *Bot) showSubgroupMenu(ctx context.Context, chatID int64, msgID int, st chatState) error {
	kb := subgroupKeyboard()
	return b.edit(ctx, chatID, msgID, fmt.Sprintf(msgChooseSubgroup, html.EscapeString(st.Group)), &kb)
}

func (b *Bot) showWeekMenu(ctx context.Context, chatID int64, msgID int, st chatState) error {
	kb := weekKeyboard()
	text := fmt.Sprintf(msgChooseWeek, html.EscapeString(st.Group), subgroupLabel(st.Subgroup))
	return b.edit(ctx, chatID, msgID, text, &kb)
}

// showSchedule replaces the menu with a progress note, looks the schedule up
// and then shows either the day picker or the informational message.
func (b *Bot) showSchedule(ctx context.Context, chatID int64, msgID int, st chatState) error {
	q := b.query(st)
	if _, cached := b.results.Get(q.CacheKey()); !cached {
		if err := b.edit(ctx, chatID, msgID, fmt.Sprintf(msgSearching, html.EscapeString(q.Group)), nil); err != nil {
			b.log.WithError(err).DebugContext(ctx, "Failed to show progress message")
		}
		_ = b.request(ctx, tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	}

	switch res := b.lookup(ctx, q).(type) {
	case *schedule.Schedule:
		kb := daysKeyboard(res)
		return b.edit(ctx, chatID, msgID, summaryText(res)+"\n\n"+msgChooseDay, &kb)
	case *schedule.Info:
		kb := infoKeyboard(st.Parity)
		return b.edit(ctx, chatID, msgID, res.Message, &kb)
	default:
		return fmt.Errorf("unexpected result type %T", res)
	}
}

func (b *Bot) showDay(ctx context.Context, chatID int64, msgID int, st chatState, value string) error {
	res := b.lookup(ctx, b.query(st))
	s, ok := res.(*schedule.Schedule)
	if !ok {
		kb := infoKeyboard(st.Parity)
		return b.edit(ctx, chatID, msgID, res.ToMap()[schedule.InfoKey], &kb)
	}

	kb := dayViewKeyboard()
	if value == dayWeek {
		return b.present(ctx, chatID, msgID, weekParts(s), &kb)
	}

	d, ok := schedule.ParseWeekday(value)
	if !ok {
		return fmt.Errorf("%w: weekday %q", errCallbackFormat, value)
	}
	day, ok := s.Day(d)
	if !ok {
		return b.edit(ctx, chatID, msgID, summaryText(s)+"\n\n"+msgNoLessonsDay, &kb)
	}
	return b.present(ctx, chatID, msgID, []string{summaryText(s), day.Text()}, &kb)
}

// present edits the menu message into the first chunk of parts and sends
// the remaining chunks as new messages. The keyboard goes on the last one.
func (b *Bot) present(ctx context.Context, chatID int64, msgID int, parts []string, kb *tgbotapi.InlineKeyboardMarkup) error {
	chunks := splitMessage(parts, maxMessageLength)
	if len(chunks) == 0 {
		return b.edit(ctx, chatID, msgID, msgNoLessonsDay, kb)
	}
	if len(chunks) == 1 {
		return b.edit(ctx, chatID, msgID, chunks[0], kb)
	}

	if err := b.edit(ctx, chatID, msgID, chunks[0], nil); err != nil {
		return err
	}
	for i, chunk := range chunks[1:] {
		var markup *tgbotapi.InlineKeyboardMarkup
		if i == len(chunks)-2 {
			markup = kb
		}
		if err := b.reply(ctx, chatID, chunk, markup); err != nil {
			return err
		}
	}
	return nil
}

// reply sends an HTML message, optionally with an inline keyboard.
func (b *Bot) reply(ctx context.Context, chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	_, err := b.send(ctx, msg)
	return err
}

// edit rewrites a message in place. Telegram rejects edits that change
// nothing; those are not errors here.
func (b *Bot) edit(ctx context.Context, chatID int64, msgID int, text string, kb *tgbotapi.InlineKeyboardMarkup) error {
	cfg := tgbotapi.NewEditMessageText(chatID, msgID, text)
	cfg.ParseMode = tgbotapi.ModeHTML
	cfg.DisableWebPagePreview = true
	cfg.ReplyMarkup = kb
	err := b.request(ctx, cfg)
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}
