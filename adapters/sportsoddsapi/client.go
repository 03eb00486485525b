// Package sportsoddsapi implements the EventSource interface against the
// provider's cursor-paginated /v2/events endpoint.
package sportsoddsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sportlines/oddsfeed/internal/metrics"
	"github.com/sportlines/oddsfeed/internal/transform"
	"github.com/sportlines/oddsfeed/pkg/contracts"
	"github.com/sportlines/oddsfeed/pkg/models"
)

const (
	defaultBaseURL = "https://api.sportsgameodds.com"
	apiVersion     = "v2"
	userAgent      = "oddsfeed/1.0"
	timeout        = 15 * time.Second
	dateLayout     = "2006-01-02"

	pageSize = 50

	// Safety circuit breakers: one invocation never issues more than
	// maxPages requests and never returns more than maxRecords events,
	// regardless of provider behavior.
	maxPages   = 20
	maxRecords = 500
)

// errRateLimited marks a 429 page response. Pagination stops and whatever
// was accumulated is returned as a truncated result.
var errRateLimited = errors.New("provider rate limited")

// Client fetches events and odds from the provider
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger

	pace func(models.RateLimits) time.Duration

	mu         sync.RWMutex
	rateLimits models.RateLimits
}

var _ contracts.EventSource = (*Client)(nil)

// Option customizes a Client
type Option func(*Client)

// WithBaseURL overrides the provider base URL (used by tests)
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a provider client
func NewClient(apiKey string, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
		pace:       pacingDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// eventsEnvelope is the provider response wrapper
type eventsEnvelope struct {
	Success    bool                 `json:"success"`
	Data       []transform.RawEvent `json:"data"`
	NextCursor string               `json:"nextCursor"`
}

// FetchEvents pages through the provider's events for one league within the
// date window. Termination: no nextCursor, an empty page, the page cap, or
// the record cap. A 429 ends pagination early and sets Truncated on the
// result; any other non-2xx status is a hard error for the league.
func (c *Client) FetchEvents(ctx context.Context, league models.League, window models.DateWindow) (*models.FetchResult, error) {
	result := &models.FetchResult{
		QuotesByEvent: make(map[string][]models.OddsQuote),
	}

	// The provider may repeat an event on a later cursor page. Every row
	// must stage each (eventid, oddid) at most once per bulk statement, so
	// duplicates keep their first occurrence and later ones are skipped.
	seen := make(map[string]bool)
	rawRecords := 0

	cursor := ""
	for result.Pages < maxPages {
		if result.Pages > 0 {
			if err := c.pause(ctx); err != nil {
				return nil, err
			}
		}

		env, err := c.fetchPage(ctx, league, window, cursor)
		if errors.Is(err, errRateLimited) {
			metrics.APIRequests.WithLabelValues(league.Code, "rate_limited").Inc()
			c.log.Warn("rate limited mid-pagination, returning partial result",
				zap.String("league", league.Code),
				zap.Int("pages", result.Pages),
				zap.Int("events", len(result.Events)))
			result.Truncated = true
			break
		}
		if err != nil {
			metrics.APIRequests.WithLabelValues(league.Code, "error").Inc()
			return nil, fmt.Errorf("fetch events for %s: %w", league.Code, err)
		}
		metrics.APIRequests.WithLabelValues(league.Code, "ok").Inc()
		result.Pages++

		if len(env.Data) == 0 {
			break
		}

		rawRecords += len(env.Data)
		for _, raw := range env.Data {
			event, quotes, terr := transform.Event(raw, league.Code)
			if terr != nil {
				metrics.EventsDropped.WithLabelValues(league.Code).Inc()
				c.log.Warn("dropping malformed event",
					zap.String("league", league.Code),
					zap.Error(terr))
				continue
			}
			if seen[event.EventID] {
				c.log.Debug("skipping event repeated across pages",
					zap.String("league", league.Code),
					zap.String("event_id", event.EventID))
				continue
			}
			seen[event.EventID] = true
			result.Events = append(result.Events, event)
			if len(quotes) > 0 {
				result.QuotesByEvent[event.EventID] = quotes
			}
		}

		// The cap counts raw records as returned, dropped or not, so a
		// pathological page mix cannot extend pagination past it.
		if rawRecords >= maxRecords {
			c.truncateToCap(result)
			break
		}
		if env.NextCursor == "" {
			break
		}
		cursor = env.NextCursor
	}

	metrics.EventsFetched.WithLabelValues(league.Code).Add(float64(len(result.Events)))
	return result, nil
}

// RateLimits returns the most recent remaining-quota hint
func (c *Client) RateLimits() models.RateLimits {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rateLimits
}

// fetchPage issues a single cursor-paginated request
func (c *Client) fetchPage(ctx context.Context, league models.League, window models.DateWindow, cursor string) (*eventsEnvelope, error) {
	endpoint := fmt.Sprintf("%s/%s/events", c.baseURL, apiVersion)

	params := url.Values{}
	params.Set("leagueID", league.LeagueID)
	params.Set("type", "match")
	params.Set("startsAfter", window.Start.Format(dateLayout))
	params.Set("startsBefore", window.End.Format(dateLayout))
	params.Set("limit", strconv.Itoa(pageSize))
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	c.updateRateLimits(resp.Header)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &httpError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var env eventsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parse events response: %w", err)
	}
	if !env.Success {
		return nil, fmt.Errorf("provider reported failure for %s", league.Code)
	}

	return &env, nil
}

// pause sleeps between page requests according to the remaining-quota hint
func (c *Client) pause(ctx context.Context) error {
	delay := c.pace(c.RateLimits())
	if delay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// pacingDelay escalates the inter-request delay as quota runs out. Advisory
// only, not a hard token bucket.
func pacingDelay(rl models.RateLimits) time.Duration {
	if !rl.HasHint {
		return 200 * time.Millisecond
	}
	switch {
	case rl.RequestsRemaining > 60:
		return 300 * time.Millisecond
	case rl.RequestsRemaining > 15:
		return 1000 * time.Millisecond
	default:
		return 2000 * time.Millisecond
	}
}

// updateRateLimits extracts the remaining-quota hint from response headers
func (c *Client) updateRateLimits(headers http.Header) {
	remaining := headers.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return
	}
	val, err := strconv.Atoi(remaining)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.rateLimits = models.RateLimits{RequestsRemaining: val, HasHint: true}
	c.mu.Unlock()
}

// truncateToCap trims the result to the record cap, dropping quotes for
// trimmed events
func (c *Client) truncateToCap(result *models.FetchResult) {
	if len(result.Events) <= maxRecords {
		return
	}
	for _, evt := range result.Events[maxRecords:] {
		delete(result.QuotesByEvent, evt.EventID)
	}
	result.Events = result.Events[:maxRecords]
}

// httpError represents a non-2xx provider response
type httpError struct {
	StatusCode int
	Message    string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}
