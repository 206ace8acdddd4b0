package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsExcludedBySubgroup(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		body      string
		requested Subgroup
		want      bool
	}{
		{"untagged kept", "Фізика", Subgroup1, false},
		{"other subgroup hidden", "Фізика (2)", Subgroup1, true},
		{"own subgroup kept", "Фізика (2)", Subgroup2, false},
		{"both subgroups kept", "Фізика (1) (2)", Subgroup1, false},
		{"п/г form", "Лаб. 2 п/г", Subgroup1, true},
		{"ordinal form", "1-а підгрупа", Subgroup2, true},
		{"abbreviated form", "Хімія підгр. 2", Subgroup1, true},
		{"room number is not a marker", "ауд. 12", Subgroup1, false},
		{"no filter", "Фізика (2)", SubgroupAll, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsExcludedBySubgroup(tt.body, tt.requested))
		})
	}
}

func TestIsExcludedBySubgroup_NeverHidesFromBoth(t *testing.T) {
	t.Parallel()
	bodies := []string{"Фізика", "Фізика (1)", "Фізика (2)", "(1) (2)", "1 п/г", "підгр. 2", "sub_2_full"}
	for _, b := range bodies {
		both := IsExcludedBySubgroup(b, Subgroup1) && IsExcludedBySubgroup(b, Subgroup2)
		assert.False(t, both, b)
	}
}

func TestExcludedBySubgroup_BodyBeforeMarkers(t *testing.T) {
	t.Parallel()
	structural := Entry{Body: "Фізика", Markers: []string{"stud_schedule", "sub_2_full"}}
	assert.True(t, excludedBySubgroup(structural, Subgroup1))
	assert.False(t, excludedBySubgroup(structural, Subgroup2))

	textual := Entry{Body: "Фізика (1)", Markers: []string{"sub_2_full"}}
	assert.False(t, excludedBySubgroup(textual, Subgroup1))
	assert.True(t, excludedBySubgroup(textual, Subgroup2))
}

func TestIsExcludedByWeek(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		markers   []string
		requested WeekParity
		want      bool
	}{
		{"denominator hidden on numerator", []string{"group_znam"}, ParityNumerator, true},
		{"numerator kept on numerator", []string{"group_chys"}, ParityNumerator, false},
		{"numerator hidden on denominator", []string{"sub_1_chys"}, ParityDenominator, true},
		{"unmarked kept", []string{"group_full"}, ParityNumerator, false},
		{"both parities kept", []string{"sub_1_chys", "week_znam"}, ParityDenominator, false},
		{"no filter", []string{"group_znam"}, ParityAll, false},
		{"case insensitive", []string{"Group_ZNAM"}, ParityNumerator, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsExcludedByWeek(tt.markers, tt.requested))
		})
	}
}
