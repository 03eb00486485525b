package sportsoddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sportlines/oddsfeed/pkg/models"
)

var testLeague = models.League{
	Code:     "NFL",
	SportID:  "FOOTBALL",
	LeagueID: "NFL",
	SportKey: "americanfootball_nfl",
}

func testWindow() models.DateWindow {
	return models.NewDateWindow(time.Now())
}

// newTestClient wires a client at the test server with pacing disabled
func newTestClient(serverURL string) *Client {
	c := NewClient("test-key", zap.NewNop(), WithBaseURL(serverURL))
	c.pace = func(models.RateLimits) time.Duration { return 0 }
	return c
}

// pageResponse builds an envelope with n events and an optional cursor
func pageResponse(page, n int, cursor string) string {
	events := make([]map[string]interface{}, n)
	for i := 0; i < n; i++ {
		events[i] = map[string]interface{}{
			"eventID": fmt.Sprintf("evt_%d_%d", page, i),
			"teams": map[string]interface{}{
				"home": map[string]interface{}{"names": map[string]string{"long": "Home Team"}},
				"away": map[string]interface{}{"names": map[string]string{"long": "Away Team"}},
			},
			"status": map[string]interface{}{"startsAt": "2026-09-13T17:00:00Z"},
			"odds": map[string]interface{}{
				"ml-home": map[string]interface{}{
					"marketName": "Moneyline",
					"betTypeID":  "ml",
					"sideID":     "home",
					"bookOdds":   "-110",
				},
			},
		}
	}
	body, _ := json.Marshal(map[string]interface{}{
		"success":    true,
		"data":       events,
		"nextCursor": cursor,
	})
	return string(body)
}

func TestFetchEventsPaginationTermination(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "NFL", r.URL.Query().Get("leagueID"))
		assert.Equal(t, "match", r.URL.Query().Get("type"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))

		switch r.URL.Query().Get("cursor") {
		case "":
			fmt.Fprint(w, pageResponse(1, 50, "page2"))
		case "page2":
			fmt.Fprint(w, pageResponse(2, 12, ""))
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.FetchEvents(context.Background(), testLeague, testWindow())
	require.NoError(t, err)

	assert.Equal(t, 2, requests, "no requests beyond the final page")
	assert.Equal(t, 2, result.Pages)
	assert.Len(t, result.Events, 62)
	assert.False(t, result.Truncated)
	assert.Len(t, result.QuotesByEvent, 62)
}

func TestFetchEventsEmptyPageStops(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		// Cursor present but zero records: still a normal stop
		fmt.Fprint(w, pageResponse(1, 0, "more"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.FetchEvents(context.Background(), testLeague, testWindow())
	require.NoError(t, err)
	assert.Equal(t, 1, requests)
	assert.Empty(t, result.Events)
}

func TestFetchEventsPageCap(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		// Small pages with an endless cursor: the page cap must stop us
		fmt.Fprint(w, pageResponse(requests, 10, "next"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.FetchEvents(context.Background(), testLeague, testWindow())
	require.NoError(t, err)

	assert.Equal(t, 20, requests)
	assert.Equal(t, 20, result.Pages)
	assert.Len(t, result.Events, 200)
}

func TestFetchEventsRecordCap(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		// Full pages with an endless cursor: the record cap must stop us
		fmt.Fprint(w, pageResponse(requests, 50, "next"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.FetchEvents(context.Background(), testLeague, testWindow())
	require.NoError(t, err)

	assert.Equal(t, 10, requests)
	assert.Len(t, result.Events, 500)
}

func TestFetchEventsDedupesRepeatedEvents(t *testing.T) {
	page := func(cursor string, events ...string) string {
		return fmt.Sprintf(`{"success": true, "data": [%s], "nextCursor": %q}`,
			strings.Join(events, ","), cursor)
	}
	evt := func(id, price string) string {
		return fmt.Sprintf(`{
			"eventID": %q,
			"teams": {"home": {"names": {"long": "A"}}, "away": {"names": {"long": "B"}}},
			"status": {"startsAt": "2026-09-13T17:00:00Z"},
			"odds": {"ml-home": {"marketName": "Moneyline", "betTypeID": "ml", "sideID": "home", "bookOdds": %q}}
		}`, id, price)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// evt_a recurs on the second page with a different price
		if r.URL.Query().Get("cursor") == "" {
			fmt.Fprint(w, page("page2", evt("evt_a", "-110"), evt("evt_b", "-120")))
			return
		}
		fmt.Fprint(w, page("", evt("evt_a", "-150"), evt("evt_c", "-130")))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.FetchEvents(context.Background(), testLeague, testWindow())
	require.NoError(t, err)

	require.Len(t, result.Events, 3, "repeated event kept once")
	ids := make(map[string]int)
	for _, evt := range result.Events {
		ids[evt.EventID]++
	}
	assert.Equal(t, map[string]int{"evt_a": 1, "evt_b": 1, "evt_c": 1}, ids)

	require.Len(t, result.QuotesByEvent["evt_a"], 1)
	require.NotNil(t, result.QuotesByEvent["evt_a"][0].Price)
	assert.Equal(t, -110.0, *result.QuotesByEvent["evt_a"][0].Price,
		"first occurrence wins")
}

func TestFetchEventsRecordCapCountsDroppedEvents(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		// Full pages where half the records are malformed. The cap counts
		// records as returned, so pagination still stops at ten requests.
		events := make([]map[string]interface{}, 50)
		for i := 0; i < 50; i++ {
			events[i] = map[string]interface{}{
				"eventID": fmt.Sprintf("evt_%d_%d", requests, i),
				"status":  map[string]interface{}{"startsAt": "2026-09-13T17:00:00Z"},
			}
			if i%2 == 1 {
				events[i]["status"] = map[string]interface{}{"startsAt": "garbage"}
			}
		}
		body, _ := json.Marshal(map[string]interface{}{
			"success": true, "data": events, "nextCursor": "next",
		})
		w.Write(body)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.FetchEvents(context.Background(), testLeague, testWindow())
	require.NoError(t, err)

	assert.Equal(t, 10, requests)
	assert.Len(t, result.Events, 250)
}

func TestFetchEventsRateLimitedSoftStop(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			fmt.Fprint(w, pageResponse(1, 50, "page2"))
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.FetchEvents(context.Background(), testLeague, testWindow())
	require.NoError(t, err, "429 is a soft stop, not an error")

	assert.True(t, result.Truncated)
	assert.Len(t, result.Events, 50, "partial data kept")
}

func TestFetchEventsHardError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "boom")
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchEvents(context.Background(), testLeague, testWindow())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestFetchEventsProviderFailureEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success": false, "data": []}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchEvents(context.Background(), testLeague, testWindow())
	assert.Error(t, err)
}

func TestFetchEventsDropsMalformedEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success": true, "data": [
			{"eventID": "good", "teams": {"home": {"names": {"long": "A"}}, "away": {"names": {"long": "B"}}}, "status": {"startsAt": "2026-09-13T17:00:00Z"}},
			{"eventID": "bad_time", "status": {"startsAt": "garbage"}},
			{"status": {"startsAt": "2026-09-13T17:00:00Z"}}
		]}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.FetchEvents(context.Background(), testLeague, testWindow())
	require.NoError(t, err)
	require.Len(t, result.Events, 1)
	assert.Equal(t, "good", result.Events[0].EventID)
}

func TestRateLimitHintTracking(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "42")
		fmt.Fprint(w, pageResponse(1, 1, ""))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchEvents(context.Background(), testLeague, testWindow())
	require.NoError(t, err)

	limits := client.RateLimits()
	assert.True(t, limits.HasHint)
	assert.Equal(t, 42, limits.RequestsRemaining)
}

func TestPacingDelay(t *testing.T) {
	tests := []struct {
		name     string
		limits   models.RateLimits
		expected time.Duration
	}{
		{"no hint floor", models.RateLimits{}, 200 * time.Millisecond},
		{"plenty of quota", models.RateLimits{RequestsRemaining: 200, HasHint: true}, 300 * time.Millisecond},
		{"low quota", models.RateLimits{RequestsRemaining: 30, HasHint: true}, 1000 * time.Millisecond},
		{"nearly exhausted", models.RateLimits{RequestsRemaining: 5, HasHint: true}, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pacingDelay(tt.limits))
		})
	}
}

func TestDateWindowParams(t *testing.T) {
	var startsAfter, startsBefore string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startsAfter = r.URL.Query().Get("startsAfter")
		startsBefore = r.URL.Query().Get("startsBefore")
		fmt.Fprint(w, pageResponse(1, 0, ""))
	}))
	defer server.Close()

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	client := newTestClient(server.URL)
	_, err := client.FetchEvents(context.Background(), testLeague, models.NewDateWindow(now))
	require.NoError(t, err)

	assert.Equal(t, "2026-08-31", startsAfter)
	assert.Equal(t, "2026-09-07", startsBefore)
}
