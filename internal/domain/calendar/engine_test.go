package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func turkish() *HolidaySet {
	return NewHolidaySet(TurkishFixedHolidays()...)
}

func TestIsWeekend(t *testing.T) {
	assert.True(t, IsWeekend(date("2034-01-07")))
	assert.True(t, IsWeekend(date("2034-01-08")))
	assert.False(t, IsWeekend(date("2034-01-09")))
	assert.False(t, IsWeekend(date("2034-01-06")))
}

func TestIsHoliday(t *testing.T) {
	set := turkish().With(FixedHoliday(date("2025-03-31"), "Ramazan Bayramı"))

	assert.True(t, IsHoliday(date("2026-10-29"), set), "recurring entry matches any year")
	assert.True(t, IsHoliday(date("1999-05-19"), set))
	assert.True(t, IsHoliday(date("2025-03-31"), set), "fixed entry matches its date")
	assert.False(t, IsHoliday(date("2026-03-31"), set), "fixed entry does not recur")
	assert.False(t, IsHoliday(date("2026-10-28"), set))
	assert.False(t, IsHoliday(date("2026-10-29"), nil), "nil set is empty")
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"plain", "2026-06-15", 2, "2026-08-15"},
		{"clamp leap", "2024-01-31", 1, "2024-02-29"},
		{"clamp non-leap", "2023-01-31", 1, "2023-02-28"},
		{"year wrap", "2026-12-15", 2, "2027-02-15"},
		{"clamp across year", "2024-11-30", 3, "2025-02-28"},
		{"negative", "2024-03-31", -1, "2024-02-29"},
		{"negative across year", "2026-01-10", -13, "2024-12-10"},
		{"zero", "2026-10-14", 0, "2026-10-14"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, date(tt.want), AddMonths(date(tt.in), tt.n))
		})
	}
}

func TestAddMonths_KeepsClockAndLocation(t *testing.T) {
	loc := time.FixedZone("TRT", 3*60*60)
	in := time.Date(2024, time.January, 31, 9, 30, 0, 0, loc)
	out := AddMonths(in, 1)
	assert.Equal(t, time.Date(2024, time.February, 29, 9, 30, 0, 0, loc), out)
	assert.Equal(t, loc, out.Location())
}

func TestAddYears_LeapDay(t *testing.T) {
	assert.Equal(t, date("2025-02-28"), AddYears(date("2024-02-29"), 1))
	assert.Equal(t, date("2028-02-29"), AddYears(date("2024-02-29"), 4))
}

func TestFindNextWorkingDay(t *testing.T) {
	set := turkish()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"working day unchanged", "2034-01-10", "2034-01-10"},
		{"saturday", "2034-01-07", "2034-01-09"},
		{"sunday", "2034-01-08", "2034-01-09"},
		{"thursday holiday", "2026-10-29", "2026-10-30"},
		{"sunday holiday", "2026-08-30", "2026-08-31"},
		{"new year on sunday", "2034-01-01", "2034-01-02"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, date(tt.want), FindNextWorkingDay(date(tt.in), set))
		})
	}
}

func TestFindPreviousWorkingDay(t *testing.T) {
	set := turkish()

	assert.Equal(t, date("2034-01-06"), FindPreviousWorkingDay(date("2034-01-07"), set))
	assert.Equal(t, date("2027-04-30"), FindPreviousWorkingDay(date("2027-05-01"), set))
	assert.Equal(t, date("2026-10-28"), FindPreviousWorkingDay(date("2026-10-29"), set))
	assert.Equal(t, date("2034-01-10"), FindPreviousWorkingDay(date("2034-01-10"), set))
}

func TestFindNextWorkingDay_Idempotent(t *testing.T) {
	set := turkish()
	start := date("2026-01-01")
	for i := 0; i < 2*366; i++ {
		d := start.AddDate(0, 0, i)
		once := FindNextWorkingDay(d, set)
		twice := FindNextWorkingDay(once, set)

		require.Equal(t, once, twice, "not idempotent at %s", d.Format("2006-01-02"))
		require.True(t, IsWorkingDay(once, set))
		require.False(t, once.Before(d))
		if IsWorkingDay(d, set) {
			require.Equal(t, d, once)
		}
	}
}

func TestFindNextWorkingDay_AllDaysHolidays(t *testing.T) {
	hs := make([]Holiday, 0, 31)
	for d := 1; d <= 31; d++ {
		hs = append(hs, RecurringHoliday(time.January, d, ""))
	}
	got := FindNextWorkingDay(date("2026-01-01"), NewHolidaySet(hs...))
	assert.Equal(t, date("2026-02-02"), got)
}

func TestStartOfDay(t *testing.T) {
	loc := time.FixedZone("TRT", 3*60*60)
	in := time.Date(2026, time.October, 13, 22, 15, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, time.October, 14, 0, 0, 0, 0, loc), StartOfDay(in, loc))
	assert.Equal(t, date("2026-10-13"), StartOfDay(in, nil))
}

//Personal.AI order the ending
