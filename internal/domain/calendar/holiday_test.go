package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

func TestParseHoliday(t *testing.T) {
	h, err := ParseHoliday("2025-03-31")
	require.NoError(t, err)
	assert.Equal(t, Holiday{Month: time.March, Day: 31, Year: 2025}, h)
	assert.False(t, h.Recurring())

	h, err = ParseHoliday(" 10-29 ")
	require.NoError(t, err)
	assert.True(t, h.Recurring())
	assert.Equal(t, "10-29", h.String())

	h, err = ParseHoliday("2025-03-30=Ramazan Bayramı")
	require.NoError(t, err)
	assert.Equal(t, "Ramazan Bayramı", h.Name)
	assert.Equal(t, "2025-03-30", h.String())
}

func TestParseHoliday_Invalid(t *testing.T) {
	for _, in := range []string{"", "tomorrow", "2025-13-01", "02-30x", "31-12"} {
		_, err := ParseHoliday(in)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidDate), "input %q", in)
	}
}

func TestTurkishFixedHolidays(t *testing.T) {
	hs := TurkishFixedHolidays()
	require.Len(t, hs, 7)

	got := make([]string, 0, len(hs))
	for _, h := range hs {
		assert.True(t, h.Recurring())
		assert.NotEmpty(t, h.Name)
		got = append(got, h.String())
	}
	assert.Equal(t, []string{"01-01", "04-23", "05-01", "05-19", "07-15", "08-30", "10-29"}, got)
}

func TestHolidaySet_Lookup(t *testing.T) {
	set := NewHolidaySet(
		RecurringHoliday(time.October, 29, "Cumhuriyet Bayramı"),
		RecurringHoliday(time.October, 29, "duplicate"),
	)
	name, ok := set.Lookup(date("2030-10-29"))
	assert.True(t, ok)
	assert.Equal(t, "Cumhuriyet Bayramı", name)
	assert.Equal(t, 1, set.Len())

	_, ok = set.Lookup(date("2030-10-30"))
	assert.False(t, ok)
}

func TestHolidaySet_NilIsEmpty(t *testing.T) {
	var set *HolidaySet
	assert.False(t, set.Contains(date("2026-01-01")))
	assert.Zero(t, set.Len())
	assert.Nil(t, set.Holidays())
}

func TestHolidaySet_WithDoesNotMutate(t *testing.T) {
	base := turkish()
	extended := base.With(FixedHoliday(date("2026-03-20"), "Ramazan Bayramı"))

	assert.Equal(t, 7, base.Len())
	assert.Equal(t, 8, extended.Len())
	assert.False(t, base.Contains(date("2026-03-20")))
	assert.True(t, extended.Contains(date("2026-03-20")))
}

func TestHolidaySet_HolidaysOrdered(t *testing.T) {
	set := NewHolidaySet(
		FixedHoliday(date("2026-03-20"), "b"),
		RecurringHoliday(time.May, 1, "c"),
		FixedHoliday(date("2025-06-06"), "a"),
		RecurringHoliday(time.January, 1, "d"),
	)
	got := make([]string, 0, 4)
	for _, h := range set.Holidays() {
		got = append(got, h.String())
	}
	assert.Equal(t, []string{"01-01", "05-01", "2025-06-06", "2026-03-20"}, got)
}

//Personal.AI order the ending
