// Package ingest drives the full pipeline across all leagues: fetch,
// transform, persist, in fixed-size concurrent batches with per-league
// failure isolation.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/sportlines/oddsfeed/internal/leagues"
	"github.com/sportlines/oddsfeed/internal/metrics"
	"github.com/sportlines/oddsfeed/pkg/contracts"
	"github.com/sportlines/oddsfeed/pkg/models"
)

const (
	defaultBatchSize  = 3
	defaultBatchDelay = 500 * time.Millisecond
)

// Orchestrator runs the ingestion pipeline for a list of leagues
type Orchestrator struct {
	registry *leagues.Registry
	source   contracts.EventSource
	store    contracts.OddsStore
	log      *zap.Logger
	pool     pond.Pool

	batchSize  int
	batchDelay time.Duration
	now        func() time.Time
}

// Option customizes an Orchestrator
type Option func(*Orchestrator)

// WithBatchSize overrides the number of leagues dispatched concurrently
func WithBatchSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithBatchDelay overrides the inter-batch delay
func WithBatchDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.batchDelay = d }
}

// WithClock overrides the time source (used by tests)
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an Orchestrator. The worker pool bounds league concurrency to
// the batch size.
func New(registry *leagues.Registry, source contracts.EventSource, store contracts.OddsStore, log *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:   registry,
		source:     source,
		store:      store,
		log:        log,
		batchSize:  defaultBatchSize,
		batchDelay: defaultBatchDelay,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.pool = pond.NewPool(o.batchSize)
	return o
}

// Close releases the worker pool
func (o *Orchestrator) Close() {
	o.pool.StopAndWait()
}

// Run attempts every league exactly once, in batches of batchSize dispatched
// concurrently, with a settle-all join per batch: one league's failure never
// cancels or affects its siblings. Returns the aggregate run summary.
func (o *Orchestrator) Run(ctx context.Context, codes []string) *models.RunSummary {
	start := o.now()

	if n, err := o.store.MarkStartedGames(ctx); err != nil {
		o.log.Warn("mark started games failed", zap.Error(err))
	} else if n > 0 {
		o.log.Info("marked games started", zap.Int64("games", n))
	}

	results := make([]models.LeagueResult, len(codes))

	for batchStart := 0; batchStart < len(codes); batchStart += o.batchSize {
		batchEnd := batchStart + o.batchSize
		if batchEnd > len(codes) {
			batchEnd = len(codes)
		}

		group := o.pool.NewGroup()
		for i := batchStart; i < batchEnd; i++ {
			i := i
			group.Submit(func() {
				results[i] = o.runLeague(ctx, codes[i])
			})
		}
		if err := group.Wait(); err != nil {
			o.log.Warn("batch join reported error", zap.Error(err))
		}

		if batchEnd < len(codes) {
			select {
			case <-ctx.Done():
			case <-time.After(o.batchDelay):
			}
		}
	}

	summary := &models.RunSummary{
		Elapsed: o.now().Sub(start),
		Leagues: results,
	}
	for _, res := range results {
		summary.TotalGames += res.Games
		if res.Success {
			summary.Succeeded++
		}
	}

	metrics.RunDuration.Observe(summary.Elapsed.Seconds())
	o.log.Info("ingestion run complete",
		zap.Int("total_games", summary.TotalGames),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("leagues", len(codes)),
		zap.Duration("elapsed", summary.Elapsed))

	return summary
}

// runLeague executes the fetch -> transform -> persist pipeline for one
// league. Every failure mode, including panics, is contained here and
// surfaced as result data.
func (o *Orchestrator) runLeague(ctx context.Context, code string) (res models.LeagueResult) {
	start := o.now()
	res = models.LeagueResult{League: code}

	defer func() {
		res.Duration = o.now().Sub(start)
		if r := recover(); r != nil {
			res.Success = false
			res.Games = 0
			res.Err = fmt.Errorf("panic: %v", r)
		}
		o.report(res)
	}()

	league, err := o.registry.Resolve(code)
	if err != nil {
		res.Err = err
		return res
	}

	window := models.NewDateWindow(o.now())
	fetched, err := o.source.FetchEvents(ctx, league, window)
	if err != nil {
		res.Err = fmt.Errorf("fetch: %w", err)
		return res
	}

	persisted, err := o.store.Persist(ctx, fetched.Events, fetched.QuotesByEvent)
	if err != nil {
		res.Err = fmt.Errorf("persist: %w", err)
		return res
	}

	res.Success = true
	res.Truncated = fetched.Truncated
	res.Games = persisted.GamesUpserted

	o.log.Info("league processed",
		zap.String("league", code),
		zap.Int("games", persisted.GamesUpserted),
		zap.Int("opening_inserted", persisted.OpeningInserted),
		zap.Int("current_upserted", persisted.CurrentUpserted),
		zap.Int("skipped_imminent", persisted.SkippedImminent),
		zap.Int("frozen_quotes", persisted.FrozenQuotes),
		zap.Bool("truncated", fetched.Truncated))

	return res
}

// report records the per-league outcome in logs and metrics
func (o *Orchestrator) report(res models.LeagueResult) {
	switch {
	case !res.Success:
		metrics.LeagueRuns.WithLabelValues(res.League, "error").Inc()
		o.log.Error("league failed",
			zap.String("league", res.League),
			zap.Duration("duration", res.Duration),
			zap.Error(res.Err))
	case res.Truncated:
		metrics.LeagueRuns.WithLabelValues(res.League, "truncated").Inc()
	default:
		metrics.LeagueRuns.WithLabelValues(res.League, "success").Inc()
	}
}
