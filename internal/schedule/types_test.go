package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/garyellow/lpnu-schedule-bot/internal/errors"
)

func validQuery() Query {
	return Query{Group: "АВ-11", Semester: SemesterFirst, TermHalf: TermHalfFirst}
}

func TestQuery_Validate(t *testing.T) {
	t.Parallel()
	require.NoError(t, validQuery().Validate())

	tests := []struct {
		name   string
		mutate func(*Query)
	}{
		{"empty group", func(q *Query) { q.Group = "  " }},
		{"semester", func(q *Query) { q.Semester = 3 }},
		{"term half", func(q *Query) { q.TermHalf = 0 }},
		{"subgroup", func(q *Query) { q.Subgroup = 5 }},
		{"parity", func(q *Query) { q.Parity = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q := validQuery()
			tt.mutate(&q)
			err := q.Validate()
			require.Error(t, err)
			assert.True(t, domerrors.IsInvalidInput(err))
		})
	}
}

func TestQuery_CacheKeyAndTermHalf(t *testing.T) {
	t.Parallel()
	q := validQuery()
	q.Subgroup = Subgroup2
	assert.Equal(t, "АВ-11|1|1|2|0", q.CacheKey())

	alt := q.WithTermHalf(q.TermHalf.Alternate())
	assert.Equal(t, TermHalfSecond, alt.TermHalf)
	assert.Equal(t, TermHalfFirst, q.TermHalf)
	assert.NotEqual(t, q.CacheKey(), alt.CacheKey())

	req := alt.Request()
	assert.Equal(t, "АВ-11", req.Group)
	assert.Equal(t, 1, req.Semester)
	assert.Equal(t, 2, req.TermHalf)
}

func TestEnumHelpers(t *testing.T) {
	t.Parallel()
	assert.Equal(t, TermHalfFirst, TermHalfSecond.Alternate())
	assert.Equal(t, Subgroup2, Subgroup1.Complement())
	assert.Equal(t, SubgroupAll, SubgroupAll.Complement())
	assert.Equal(t, ParityDenominator, ParityNumerator.Opposite())
	assert.Equal(t, ParityAll, ParityAll.Opposite())
	assert.Equal(t, "denominator", ParityDenominator.String())
}

func TestParseWeekParity(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]WeekParity{
		"":          ParityAll,
		"all":       ParityAll,
		"Чисельник": ParityNumerator,
		"num":       ParityNumerator,
		"знам":      ParityDenominator,
		"denominator": ParityDenominator,
	} {
		got, err := ParseWeekParity(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseWeekParity("odd")
	assert.True(t, domerrors.IsInvalidInput(err))
}
