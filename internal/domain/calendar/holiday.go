// Package calendar implements the working-day date engine used to derive
// official and operational due dates for docket tasks.
package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Holiday
// ─────────────────────────────────────────────────────────────────────────────

// Holiday is a single non-working day. A zero Year makes it recurring: it
// matches the same day and month of every year.
type Holiday struct {
	Name  string     `json:"name"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
	Year  int        `json:"year,omitempty"`
}

// Recurring reports whether the holiday repeats every year.
func (h Holiday) Recurring() bool {
	return h.Year == 0
}

// String renders the holiday as "MM-DD" or "YYYY-MM-DD".
func (h Holiday) String() string {
	if h.Recurring() {
		return fmt.Sprintf("%02d-%02d", int(h.Month), h.Day)
	}
	return fmt.Sprintf("%04d-%02d-%02d", h.Year, int(h.Month), h.Day)
}

// RecurringHoliday returns a holiday that matches month/day in every year.
func RecurringHoliday(month time.Month, day int, name string) Holiday {
	return Holiday{Name: name, Month: month, Day: day}
}

// FixedHoliday returns a holiday that matches exactly one calendar date.
func FixedHoliday(date time.Time, name string) Holiday {
	y, m, d := date.Date()
	return Holiday{Name: name, Month: m, Day: d, Year: y}
}

// ParseHoliday parses "2006-01-02" into a fixed holiday or "01-02" into a
// recurring one. An optional name may follow after a space or '=' sign, as in
// "2025-03-30=Ramazan Bayramı".
func ParseHoliday(s string) (Holiday, error) {
	raw := strings.TrimSpace(s)
	name := ""
	if i := strings.IndexAny(raw, "= "); i > 0 {
		name = strings.TrimSpace(raw[i+1:])
		raw = raw[:i]
	}

	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return FixedHoliday(t, name), nil
	}
	if t, err := time.Parse("01-02", raw); err == nil {
		return RecurringHoliday(t.Month(), t.Day(), name), nil
	}
	return Holiday{}, errors.Newf(errors.ErrCodeInvalidDate, "invalid holiday %q", s).
		WithDetail("expected YYYY-MM-DD or MM-DD")
}

// TurkishFixedHolidays returns the fixed-date public holidays of Türkiye.
// Religious holidays move with the lunar calendar and are supplied as fixed
// dates through configuration or the holiday feed.
func TurkishFixedHolidays() []Holiday {
	return []Holiday{
		RecurringHoliday(time.January, 1, "Yılbaşı"),
		RecurringHoliday(time.April, 23, "Ulusal Egemenlik ve Çocuk Bayramı"),
		RecurringHoliday(time.May, 1, "Emek ve Dayanışma Günü"),
		RecurringHoliday(time.May, 19, "Atatürk'ü Anma, Gençlik ve Spor Bayramı"),
		RecurringHoliday(time.July, 15, "Demokrasi ve Milli Birlik Günü"),
		RecurringHoliday(time.August, 30, "Zafer Bayramı"),
		RecurringHoliday(time.October, 29, "Cumhuriyet Bayramı"),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// HolidaySet
// ─────────────────────────────────────────────────────────────────────────────

type monthDay struct {
	month time.Month
	day   int
}

type civilDate struct {
	year  int
	month time.Month
	day   int
}

// HolidaySet is an immutable lookup table of holidays. A nil *HolidaySet is
// valid and contains nothing.
type HolidaySet struct {
	recurring map[monthDay]string
	fixed     map[civilDate]string
}

// NewHolidaySet builds a set from the given holidays. Duplicates collapse to
// one entry; the first name wins.
func NewHolidaySet(holidays ...Holiday) *HolidaySet {
	s := &HolidaySet{
		recurring: make(map[monthDay]string),
		fixed:     make(map[civilDate]string),
	}
	s.add(holidays)
	return s
}

func (s *HolidaySet) add(holidays []Holiday) {
	for _, h := range holidays {
		if h.Recurring() {
			k := monthDay{h.Month, h.Day}
			if _, ok := s.recurring[k]; !ok {
				s.recurring[k] = h.Name
			}
			continue
		}
		k := civilDate{h.Year, h.Month, h.Day}
		if _, ok := s.fixed[k]; !ok {
			s.fixed[k] = h.Name
		}
	}
}

// With returns a new set holding the receiver's entries plus holidays. The
// receiver is not modified.
func (s *HolidaySet) With(holidays ...Holiday) *HolidaySet {
	out := NewHolidaySet(s.Holidays()...)
	out.add(holidays)
	return out
}

// Lookup returns the holiday name for date and whether date is a holiday.
// Only the calendar date in date's own location is considered.
func (s *HolidaySet) Lookup(date time.Time) (string, bool) {
	if s == nil {
		return "", false
	}
	y, m, d := date.Date()
	if name, ok := s.fixed[civilDate{y, m, d}]; ok {
		return name, true
	}
	if name, ok := s.recurring[monthDay{m, d}]; ok {
		return name, true
	}
	return "", false
}

// Contains reports whether date is a holiday.
func (s *HolidaySet) Contains(date time.Time) bool {
	_, ok := s.Lookup(date)
	return ok
}

// Len returns the number of distinct entries.
func (s *HolidaySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.recurring) + len(s.fixed)
}

// Holidays returns every entry, recurring first, each group in calendar order.
func (s *HolidaySet) Holidays() []Holiday {
	if s == nil {
		return nil
	}
	out := make([]Holiday, 0, s.Len())
	for k, name := range s.recurring {
		out = append(out, Holiday{Name: name, Month: k.month, Day: k.day})
	}
	for k, name := range s.fixed {
		out = append(out, Holiday{Name: name, Month: k.month, Day: k.day, Year: k.year})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Recurring() != b.Recurring() {
			return a.Recurring()
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.Day < b.Day
	})
	return out
}

//Personal.AI order the ending
