// Package google reads public holidays from the all-day events of a Google
// Calendar.
package google

import (
	"context"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/turtacn/KeyIP-Docket/internal/application/tasking"
	"github.com/turtacn/KeyIP-Docket/internal/config"
	domaincal "github.com/turtacn/KeyIP-Docket/internal/domain/calendar"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

const dateLayout = "2006-01-02"

// HolidayFeed lists the all-day events of one calendar as fixed holidays.
type HolidayFeed struct {
	srv        *calendar.Service
	calendarID string
	logger     logging.Logger
}

var _ tasking.HolidayProvider = (*HolidayFeed)(nil)

// NewHolidayFeed authenticates with the access token in cfg, or with the
// API key when no token is set.
func NewHolidayFeed(ctx context.Context, cfg config.CalendarConfig, log logging.Logger) (*HolidayFeed, error) {
	if cfg.GoogleCalendarID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "google calendar id is required")
	}
	opts := []option.ClientOption{option.WithScopes(calendar.CalendarReadonlyScope)}
	switch {
	case cfg.GoogleAccessToken != "":
		opts = append(opts, option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.GoogleAccessToken})))
	case cfg.GoogleAPIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.GoogleAPIKey))
	default:
		return nil, errors.New(errors.ErrCodeValidation, "google calendar needs an access token or an API key")
	}
	if cfg.GoogleEndpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.GoogleEndpoint))
	}
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "unable to create calendar client")
	}
	return NewHolidayFeedWithService(srv, cfg.GoogleCalendarID, log), nil
}

// NewHolidayFeedWithService wraps a prepared calendar service.
func NewHolidayFeedWithService(srv *calendar.Service, calendarID string, log logging.Logger) *HolidayFeed {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &HolidayFeed{srv: srv, calendarID: calendarID, logger: log.Named("google_calendar")}
}

// Holidays returns one holiday per day covered by an all-day event between
// from and to. Timed and cancelled events are skipped.
func (f *HolidayFeed) Holidays(ctx context.Context, from, to time.Time) ([]domaincal.Holiday, error) {
	out := make([]domaincal.Holiday, 0)
	call := f.srv.Events.List(f.calendarID).
		TimeMin(from.UTC().Format(time.RFC3339)).
		TimeMax(to.UTC().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(250).
		Fields("nextPageToken", "items(status,summary,start,end)")

	err := call.Pages(ctx, func(page *calendar.Events) error {
		for _, ev := range page.Items {
			out = append(out, expand(ev)...)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeExternalService, "failed to list events of %s", f.calendarID)
	}
	f.logger.Debug("holiday events listed",
		logging.String("calendar", f.calendarID),
		logging.Int("days", len(out)))
	return out, nil
}

// expand turns an all-day event into its days. The end date is exclusive.
func expand(ev *calendar.Event) []domaincal.Holiday {
	if ev == nil || ev.Status == "cancelled" || ev.Start == nil || ev.Start.Date == "" {
		return nil
	}
	start, err := time.Parse(dateLayout, ev.Start.Date)
	if err != nil {
		return nil
	}
	end := start.AddDate(0, 0, 1)
	if ev.End != nil && ev.End.Date != "" {
		if e, err := time.Parse(dateLayout, ev.End.Date); err == nil && e.After(start) {
			end = e
		}
	}
	var days []domaincal.Holiday
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		days = append(days, domaincal.FixedHoliday(d, ev.Summary))
	}
	return days
}

//Personal.AI order the ending
