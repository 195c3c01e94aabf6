package calendar

import (
	"time"
)

// Defaults applied by NewCalculator to zero-valued Options fields.
const (
	DefaultOperationalLeadDays    = 3
	DefaultRenewalPeriodYears     = 10
	DefaultOppositionOffsetMonths = 2
)

// DueDates pairs the legal deadline with the firm's internal work-ahead date.
// Operational is never after Official and is always a working day.
type DueDates struct {
	Official    time.Time `json:"official_due_date"`
	Operational time.Time `json:"operational_due_date"`
}

// Options configures a Calculator.
type Options struct {
	Holidays               *HolidaySet
	Location               *time.Location
	OperationalLeadDays    int
	RenewalPeriodYears     int
	OppositionOffsetMonths int

	// Now overrides the clock. Tests pin it.
	Now func() time.Time
}

// Calculator derives due dates against one holiday set. It holds no mutable
// state and is safe for concurrent use.
type Calculator struct {
	holidays        *HolidaySet
	loc             *time.Location
	leadDays        int
	renewalYears    int
	oppositionMonth int
	now             func() time.Time
}

// NewCalculator returns a Calculator with defaults filled in for every zero
// field of opts.
func NewCalculator(opts Options) *Calculator {
	c := &Calculator{
		holidays:        opts.Holidays,
		loc:             opts.Location,
		leadDays:        opts.OperationalLeadDays,
		renewalYears:    opts.RenewalPeriodYears,
		oppositionMonth: opts.OppositionOffsetMonths,
		now:             opts.Now,
	}
	if c.loc == nil {
		c.loc = time.UTC
	}
	if c.leadDays <= 0 {
		c.leadDays = DefaultOperationalLeadDays
	}
	if c.renewalYears <= 0 {
		c.renewalYears = DefaultRenewalPeriodYears
	}
	if c.oppositionMonth <= 0 {
		c.oppositionMonth = DefaultOppositionOffsetMonths
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Holidays returns the holiday set the calculator works against.
func (c *Calculator) Holidays() *HolidaySet { return c.holidays }

// Location returns the time zone dates are normalized to.
func (c *Calculator) Location() *time.Location { return c.loc }

// Today returns the current date at midnight in the calculator's location.
func (c *Calculator) Today() time.Time {
	return StartOfDay(c.now(), c.loc)
}

// Normalize truncates t to midnight in the calculator's location.
func (c *Calculator) Normalize(t time.Time) time.Time {
	return StartOfDay(t, c.loc)
}

// IsWorkingDay reports whether t is a working day under the calculator's
// holiday set.
func (c *Calculator) IsWorkingDay(t time.Time) bool {
	return IsWorkingDay(c.Normalize(t), c.holidays)
}

// NextWorkingDay normalizes t and rolls it forward to a working day.
func (c *Calculator) NextWorkingDay(t time.Time) time.Time {
	return FindNextWorkingDay(c.Normalize(t), c.holidays)
}

// PreviousWorkingDay normalizes t and walks it back to a working day.
func (c *Calculator) PreviousWorkingDay(t time.Time) time.Time {
	return FindPreviousWorkingDay(c.Normalize(t), c.holidays)
}

// OperationalDate subtracts the lead time from official and walks backward
// over weekends and holidays.
func (c *Calculator) OperationalDate(official time.Time) time.Time {
	d := c.Normalize(official).AddDate(0, 0, -c.leadDays)
	return FindPreviousWorkingDay(d, c.holidays)
}

// FromOfficial rolls official forward to a working day and derives the
// operational date from the result.
func (c *Calculator) FromOfficial(official time.Time) DueDates {
	o := c.NextWorkingDay(official)
	return DueDates{Official: o, Operational: c.OperationalDate(o)}
}

// RollForward advances base by whole renewal periods until it is no longer
// before today. A nil base means today.
func (c *Calculator) RollForward(base *time.Time) time.Time {
	today := c.Today()
	if base == nil || base.IsZero() {
		return today
	}
	anchor := c.Normalize(*base)
	d := anchor
	for k := 1; d.Before(today); k++ {
		// Each step is computed from the anchor so that a Feb 29 base does
		// not drift to Feb 28 permanently after the first clamp.
		d = AddYears(anchor, k*c.renewalYears)
	}
	return d
}

// Renewal computes due dates for a renewal whose base date has already been
// chosen from the asset (renewal, registration or application date).
func (c *Calculator) Renewal(base *time.Time) DueDates {
	return c.FromOfficial(c.RollForward(base))
}

// Opposition computes due dates for an opposition against a mark published
// on bulletinDate.
func (c *Calculator) Opposition(bulletinDate time.Time) DueDates {
	return c.FromOfficial(AddMonths(c.Normalize(bulletinDate), c.oppositionMonth))
}

// WithHolidays returns a copy of the calculator using holidays instead.
func (c *Calculator) WithHolidays(holidays *HolidaySet) *Calculator {
	cp := *c
	cp.holidays = holidays
	return &cp
}

//Personal.AI order the ending
