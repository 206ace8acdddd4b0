package bot

import (
	"errors"
	"fmt"
	"strings"
)

// Callback actions carried by inline keyboard buttons.
const (
	actSubgroup = "sg"   // value: 0, 1 or 2
	actWeek     = "wk"   // value: 0, 1 or 2
	actDay      = "day"  // value: canonical weekday key or dayWeek
	actBack     = "back" // value: backSubgroup or backDays
	actMenu     = "menu" // value: menuFilters
)

// Callback values that are not numbers or weekdays.
const (
	dayWeek      = "week"
	backSubgroup = "sg"
	backDays     = "days"
	menuFilters  = "filters"
)

// CallbackSplitChar separates the action from its value: "sg:1", "day:Monday".
const CallbackSplitChar = ":"

var errCallbackFormat = errors.New("invalid callback data")

// CallbackData is a decoded inline button payload.
type CallbackData struct {
	Action string
	Value  string
}

// String encodes the payload; the result fits Telegram's 64-byte limit for
// every action this package emits.
func (d CallbackData) String() string {
	return d.Action + CallbackSplitChar + d.Value
}

func callback(action, value string) string {
	return CallbackData{Action: action, Value: value}.String()
}

// ParseCallback decodes "action:value" payloads.
func ParseCallback(data string) (CallbackData, error) {
	data = strings.TrimSpace(data)
	if data == "" || len(data) > maxCallbackData {
		return CallbackData{}, fmt.Errorf("%w: length %d", errCallbackFormat, len(data))
	}
	action, value, ok := strings.Cut(data, CallbackSplitChar)
	if !ok || action == "" || value == "" {
		return CallbackData{}, fmt.Errorf("%w: %q", errCallbackFormat, data)
	}
	switch action {
	case actSubgroup, actWeek, actDay, actBack, actMenu:
		return CallbackData{Action: action, Value: value}, nil
	default:
		return CallbackData{}, fmt.Errorf("%w: unknown action %q", errCallbackFormat, action)
	}
}
