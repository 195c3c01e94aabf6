package tasking

import (
	"context"
	"time"

	"github.com/turtacn/KeyIP-Docket/internal/domain/calendar"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
)

// LoadHolidays merges the provider's holidays between from and to into base.
// When the provider is nil or fails, base is returned unchanged and the
// failure is logged.
func LoadHolidays(ctx context.Context, provider HolidayProvider, base *calendar.HolidaySet, from, to time.Time, logger logging.Logger) *calendar.HolidaySet {
	if base == nil {
		base = calendar.NewHolidaySet()
	}
	if provider == nil {
		return base
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	items, err := provider.Holidays(ctx, from, to)
	if err != nil {
		logger.Warn("holiday feed unavailable, using the static calendar",
			logging.Time("from", from),
			logging.Time("to", to),
			logging.Err(err))
		return base
	}
	merged := base.With(items...)
	logger.Info("holiday feed loaded",
		logging.Int("fetched", len(items)),
		logging.Int("total", merged.Len()))
	return merged
}

// BaseHolidays returns the fixed Turkish holidays plus the configured extra
// entries. Entries that do not parse are logged and skipped.
func BaseHolidays(extra []string, logger logging.Logger) *calendar.HolidaySet {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	items := calendar.TurkishFixedHolidays()
	for _, s := range extra {
		h, err := calendar.ParseHoliday(s)
		if err != nil {
			logger.Warn("skipping invalid holiday entry", logging.String("entry", s), logging.Err(err))
			continue
		}
		items = append(items, h)
	}
	return calendar.NewHolidaySet(items...)
}

//Personal.AI order the ending
