package schedule

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/lpnu-schedule-bot/internal/errors"
)

func TestScheduleMarshalJSON(t *testing.T) {
	t.Parallel()
	s := &Schedule{Days: []Day{
		{Weekday: Thursday, Entries: []Entry{{Slot: "1", Body: "Фізика & хімія"}}},
		{Weekday: Monday, Entries: []Entry{{Slot: "2", Body: "Математика"}}},
	}}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	require.NoError(t, enc.Encode(s))
	assert.Equal(t,
		`{"Thursday":"<b>Четвер</b>\n\n<b>Пара 1</b>\nФізика &amp; хімія","Monday":"<b>Понеділок</b>\n\n<b>Пара 2</b>\nМатематика"}`+"\n",
		buf.String())

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, s.ToMap(), decoded)
}

func TestInfoMarshalJSON(t *testing.T) {
	t.Parallel()
	data, err := json.Marshal(EmptyScheduleInfo(false))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Info":"📭 Розклад порожній: занять не знайдено."}`, string(data))

	data, err = json.Marshal(&Schedule{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestInfoErr(t *testing.T) {
	t.Parallel()
	tests := []struct {
		info *Info
		want error
	}{
		{NetworkFailureInfo(), domerrors.ErrNetwork},
		{AntiBotInfo(), domerrors.ErrAntiBot},
		{GroupNotFoundInfo("АВ-11"), domerrors.ErrGroupNotFound},
		{EmptyScheduleInfo(true), domerrors.ErrEmptySchedule},
		{UnrecognizedFormatInfo("щось"), domerrors.ErrUnrecognizedFormat},
		{InternalFaultInfo(), domerrors.ErrInternal},
		{InvalidQueryInfo(domerrors.NewValidationError("group", "must not be empty")), domerrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.info.Kind.String(), func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, tt.info.Err(), tt.want)
		})
	}
}
