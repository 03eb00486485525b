package contracts

import (
	"context"

	"github.com/sportlines/oddsfeed/pkg/models"
)

// EventSource defines the interface for fetching events and odds from an
// external provider. Keeping this stable lets the orchestrator swap vendors
// (or fakes in tests) without touching pipeline logic.
type EventSource interface {
	// FetchEvents pages through the provider's events for one league within
	// the date window. A rate-limited (429) response ends pagination early
	// and is reported via FetchResult.Truncated, not as an error.
	FetchEvents(ctx context.Context, league models.League, window models.DateWindow) (*models.FetchResult, error)

	// RateLimits returns the most recent remaining-quota hint
	RateLimits() models.RateLimits
}
