package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Provider API metrics
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oddsfeed_api_requests_total",
			Help: "Total provider API requests",
		},
		[]string{"league", "status"}, // ok, rate_limited, error
	)

	EventsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oddsfeed_events_fetched_total",
			Help: "Total events accumulated from the provider",
		},
		[]string{"league"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oddsfeed_events_dropped_total",
			Help: "Total events dropped during transform",
		},
		[]string{"league"},
	)

	// Persistence metrics
	GamesUpserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "oddsfeed_games_upserted_total",
			Help: "Total games rows upserted",
		},
	)

	OpeningOddsInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "oddsfeed_opening_odds_inserted_total",
			Help: "Total opening-odds rows inserted (first observation wins)",
		},
	)

	CurrentOddsUpserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "oddsfeed_current_odds_upserted_total",
			Help: "Total current-odds rows upserted",
		},
	)

	QuotesFrozen = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "oddsfeed_quotes_frozen_total",
			Help: "Total quotes excluded from current-odds writes because their game started",
		},
	)

	// Run metrics
	LeagueRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oddsfeed_league_runs_total",
			Help: "Total per-league ingestion attempts",
		},
		[]string{"league", "status"}, // success, truncated, error
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "oddsfeed_run_duration_seconds",
			Help:    "Duration of full ingestion runs",
			Buckets: []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)
)
