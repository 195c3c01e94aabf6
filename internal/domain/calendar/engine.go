package calendar

import "time"

// maxWalkDays bounds the working-day walks. No real holiday table removes a
// full year of working days; hitting the bound means the set is corrupt.
const maxWalkDays = 366

// IsWeekend reports whether date falls on a Saturday or Sunday.
func IsWeekend(date time.Time) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}

// IsHoliday reports whether date matches an entry of holidays. A nil set
// contains no holidays.
func IsHoliday(date time.Time, holidays *HolidaySet) bool {
	return holidays.Contains(date)
}

// IsWorkingDay reports whether date is neither a weekend nor a holiday.
func IsWorkingDay(date time.Time, holidays *HolidaySet) bool {
	return !IsWeekend(date) && !IsHoliday(date, holidays)
}

// AddMonths adds n calendar months to date, clamping the day of month to the
// length of the target month, so Jan 31 + 1 month is Feb 28 (or 29).
// time.AddDate would instead overflow into March.
func AddMonths(date time.Time, n int) time.Time {
	y, m, d := date.Date()
	total := int(m) - 1 + n
	ty := y + floorDiv(total, 12)
	tm := time.Month(floorMod(total, 12) + 1)
	if last := daysIn(ty, tm); d > last {
		d = last
	}
	hh, mm, ss := date.Clock()
	return time.Date(ty, tm, d, hh, mm, ss, date.Nanosecond(), date.Location())
}

// AddYears adds n years with the same day clamping as AddMonths, so that
// Feb 29 + 1 year is Feb 28.
func AddYears(date time.Time, n int) time.Time {
	return AddMonths(date, 12*n)
}

// FindNextWorkingDay returns date itself when it is a working day, or the
// first working day after it. It is idempotent.
func FindNextWorkingDay(date time.Time, holidays *HolidaySet) time.Time {
	return walk(date, holidays, 1)
}

// FindPreviousWorkingDay returns date itself when it is a working day, or the
// last working day before it.
func FindPreviousWorkingDay(date time.Time, holidays *HolidaySet) time.Time {
	return walk(date, holidays, -1)
}

func walk(date time.Time, holidays *HolidaySet, step int) time.Time {
	d := date
	for i := 0; i < maxWalkDays && !IsWorkingDay(d, holidays); i++ {
		d = d.AddDate(0, 0, step)
	}
	return d
}

// StartOfDay truncates t to midnight in loc. A nil loc keeps t's location.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}

//Personal.AI order the ending
