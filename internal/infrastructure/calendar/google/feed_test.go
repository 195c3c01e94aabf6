package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/turtacn/KeyIP-Docket/internal/config"
	domaincal "github.com/turtacn/KeyIP-Docket/internal/domain/calendar"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

func newFeed(t *testing.T, handler http.HandlerFunc) *HolidayFeed {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	svc, err := calendar.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return NewHolidayFeedWithService(svc, "tr.turkish#holiday", nil)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestHolidays(t *testing.T) {
	var pages int
	feed := newFeed(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/events"))
		assert.Equal(t, "true", r.URL.Query().Get("singleEvents"))
		assert.Equal(t, "2025-01-01T00:00:00Z", r.URL.Query().Get("timeMin"))
		pages++
		if r.URL.Query().Get("pageToken") == "" {
			writeJSON(t, w, map[string]interface{}{
				"nextPageToken": "p2",
				"items": []map[string]interface{}{
					{
						"summary": "Ramazan Bayramı",
						"start":   map[string]string{"date": "2025-03-30"},
						"end":     map[string]string{"date": "2025-04-02"},
					},
					{
						"summary": "Meeting",
						"start":   map[string]string{"dateTime": "2025-03-03T10:00:00Z"},
						"end":     map[string]string{"dateTime": "2025-03-03T11:00:00Z"},
					},
				},
			})
			return
		}
		writeJSON(t, w, map[string]interface{}{
			"items": []map[string]interface{}{
				{
					"summary": "Cancelled",
					"status":  "cancelled",
					"start":   map[string]string{"date": "2025-05-05"},
				},
				{
					"summary": "Kurban Bayramı",
					"start":   map[string]string{"date": "2025-06-06"},
				},
			},
		})
	})

	got, err := feed.Holidays(context.Background(),
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, pages)
	assert.Equal(t, []domaincal.Holiday{
		{Name: "Ramazan Bayramı", Month: time.March, Day: 30, Year: 2025},
		{Name: "Ramazan Bayramı", Month: time.March, Day: 31, Year: 2025},
		{Name: "Ramazan Bayramı", Month: time.April, Day: 1, Year: 2025},
		{Name: "Kurban Bayramı", Month: time.June, Day: 6, Year: 2025},
	}, got)
}

func TestHolidays_UpstreamError(t *testing.T) {
	feed := newFeed(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	})

	_, err := feed.Holidays(context.Background(), time.Now(), time.Now().AddDate(1, 0, 0))
	assert.True(t, errors.IsCode(err, errors.ErrCodeExternalService))
}

func TestNewHolidayFeed_Validation(t *testing.T) {
	_, err := NewHolidayFeed(context.Background(), config.CalendarConfig{}, nil)
	assert.True(t, errors.IsValidation(err))

	_, err = NewHolidayFeed(context.Background(), config.CalendarConfig{GoogleCalendarID: "x"}, nil)
	assert.True(t, errors.IsValidation(err))
}

func TestNewHolidayFeed_APIKey(t *testing.T) {
	feed, err := NewHolidayFeed(context.Background(), config.CalendarConfig{
		GoogleCalendarID: "x",
		GoogleAPIKey:     "key",
		GoogleEndpoint:   "http://127.0.0.1:1/",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "x", feed.calendarID)
}

//Personal.AI order the ending
