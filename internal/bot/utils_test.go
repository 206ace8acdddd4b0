package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildKeywordRegex(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		keywords []string
		input    string
		expected string
	}{
		{"keyword with argument", []string{"розклад"}, "розклад АВ-11", "розклад"},
		{"case insensitive", []string{"розклад"}, "РОЗКЛАД АВ-11", "РОЗКЛАД"},
		{"keyword alone", []string{"група"}, "група", "група"},
		{"longest first", []string{"роз", "розклад"}, "розклад КН-21", "розклад"},
		{"no space after keyword", []string{"розклад"}, "розкладу немає", ""},
		{"keyword not at start", []string{"розклад"}, "мій розклад", ""},
		{"regex metacharacters are literal", []string{"c++"}, "c++ lab", "c++"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, MatchKeyword(BuildKeywordRegex(tt.keywords), tt.input))
		})
	}
}

func TestBuildKeywordRegex_PanicsOnEmpty(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { BuildKeywordRegex(nil) })
}

func TestExtractArgument(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "АВ-11", ExtractArgument("  Розклад   АВ-11 ", "Розклад"))
	assert.Equal(t, "", ExtractArgument("група", "група"))
	assert.Equal(t, "текст", ExtractArgument(" текст ", ""))
}

func TestNormalizeGroup(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"АВ-11", "АВ-11", nil},
		{"ав-11", "АВ-11", nil},
		{" кн – 21 ", "КН-21", nil},
		{"пі_12", "ПІ-12", nil},
		{"КН-110мп", "КН-110МП", nil},
		{"", "", errGroupEmpty},
		{"   ", "", errGroupEmpty},
		{"АВ-11; DROP", "", errGroupChars},
		{"<b>АВ</b>", "", errGroupChars},
		{"11", "", errGroupDigits},
		{"11 - 2", "", errGroupDigits},
		{"ДУЖЕДОВГАНАЗВАГРУПИЯКОЇНЕІСНУЄ", "", errGroupTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeGroup(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCallback(t *testing.T) {
	t.Parallel()
	got, err := ParseCallback("day:Monday")
	require.NoError(t, err)
	assert.Equal(t, CallbackData{Action: actDay, Value: "Monday"}, got)
	assert.Equal(t, "day:Monday", got.String())

	for _, bad := range []string{"", "sg", "sg:", ":1", "zz:1", string(make([]byte, 65))} {
		_, err := ParseCallback(bad)
		assert.ErrorIs(t, err, errCallbackFormat, "%q", bad)
	}
}

func TestParseChoice(t *testing.T) {
	t.Parallel()
	n, err := parseChoice("2")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, bad := range []string{"3", "-1", "x"} {
		_, err := parseChoice(bad)
		assert.Error(t, err, bad)
	}
}
