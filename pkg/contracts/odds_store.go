package contracts

import (
	"context"

	"github.com/sportlines/oddsfeed/pkg/models"
)

// OddsStore defines the persistence surface the orchestrator drives.
type OddsStore interface {
	// Persist splits each quote into an immutable opening-odds write and a
	// mutable current-odds upsert, after filtering events too close to start.
	Persist(ctx context.Context, events []models.Event, quotesByEvent map[string][]models.OddsQuote) (*models.PersistSummary, error)

	// MarkStartedGames flips scheduled games whose start time has passed to
	// started, so the freeze rule holds between provider refreshes.
	MarkStartedGames(ctx context.Context) (int64, error)
}
