package bot

import (
	"github.com/garyellow/lpnu-schedule-bot/internal/schedule"
)

// chatState is the menu position of one chat.
type chatState struct {
	Group         string
	Subgroup      schedule.Subgroup
	Parity        schedule.WeekParity
	AwaitingGroup bool // the next plain message is a group name
}

// query builds the schedule query for the chat's current filters.
func (b *Bot) query(st chatState) schedule.Query {
	return schedule.Query{
		Group:    st.Group,
		Semester: b.semester,
		TermHalf: b.termHalf,
		Subgroup: st.Subgroup,
		Parity:   st.Parity,
	}
}

func (b *Bot) state(chatID int64) chatState {
	st, _ := b.sessions.Get(chatID)
	return st
}

func (b *Bot) updateState(chatID int64, fn func(st *chatState)) chatState {
	return b.sessions.Update(chatID, func(st chatState, _ bool) chatState {
		fn(&st)
		return st
	})
}

// group returns the chat's group, falling back to the configured default.
func (b *Bot) group(st chatState) string {
	if st.Group != "" {
		return st.Group
	}
	return b.defaultGroup
}

func subgroupLabel(s schedule.Subgroup) string {
	switch s {
	case schedule.Subgroup1:
		return "1 підгрупа"
	case schedule.Subgroup2:
		return "2 підгрупа"
	default:
		return "вся група"
	}
}
