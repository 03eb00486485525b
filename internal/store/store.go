// Package store is the dual-table persistence engine: every quote splits
// into an immutable opening-odds write (first observation wins) and a
// mutable current-odds upsert (last write wins), gated by whether the
// owning game has started.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/sportlines/oddsfeed/internal/metrics"
	"github.com/sportlines/oddsfeed/pkg/contracts"
	"github.com/sportlines/oddsfeed/pkg/models"
)

// startLockout drops events starting too close to lock from persistence
// entirely: their odds are no longer actionable and the game may transition
// to started mid-batch.
const startLockout = 10 * time.Minute

// Store writes games, opening odds, and current odds to Postgres using
// set-based bulk statements. Conflict resolution happens at the database
// level (ON CONFLICT), so concurrent runs racing on the same key are safe.
type Store struct {
	db    *sql.DB
	log   *zap.Logger
	cache *OpenKeyCache
	now   func() time.Time
}

var _ contracts.OddsStore = (*Store)(nil)

// Option customizes a Store
type Option func(*Store)

// WithOpenKeyCache attaches a Redis cache of already-captured opening keys.
// The cache only shrinks the batched existence query; ON CONFLICT DO NOTHING
// remains the correctness guard.
func WithOpenKeyCache(c *OpenKeyCache) Option {
	return func(s *Store) { s.cache = c }
}

// WithClock overrides the time source (used by tests)
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store
func New(db *sql.DB, log *zap.Logger, opts ...Option) *Store {
	s := &Store{
		db:  db,
		log: log,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Persist upserts events into games and splits their quotes across the
// opening-odds and current-odds tables. The three writes are deliberately
// independent statements, not one transaction: a failure partway leaves the
// earlier writes committed, which downstream readers tolerate.
func (s *Store) Persist(ctx context.Context, events []models.Event, quotesByEvent map[string][]models.OddsQuote) (*models.PersistSummary, error) {
	summary := &models.PersistSummary{}
	now := s.now()

	kept, skipped := filterImminent(dedupeEvents(events), now)
	summary.SkippedImminent = skipped
	if len(kept) == 0 {
		return summary, nil
	}

	if err := s.upsertGames(ctx, kept); err != nil {
		return summary, fmt.Errorf("upsert games: %w", err)
	}
	summary.GamesUpserted = len(kept)
	metrics.GamesUpserted.Add(float64(len(kept)))

	all, active, frozen := splitQuotes(kept, quotesByEvent)
	summary.FrozenQuotes = frozen
	metrics.QuotesFrozen.Add(float64(frozen))

	inserted, err := s.insertOpeningOdds(ctx, all)
	if err != nil {
		return summary, fmt.Errorf("insert opening odds: %w", err)
	}
	summary.OpeningInserted = inserted
	metrics.OpeningOddsInserted.Add(float64(inserted))

	upserted, err := s.upsertCurrentOdds(ctx, active)
	if err != nil {
		return summary, fmt.Errorf("upsert current odds: %w", err)
	}
	summary.CurrentUpserted = upserted
	metrics.CurrentOddsUpserted.Add(float64(upserted))

	return summary, nil
}

// MarkStartedGames flips scheduled games whose start time has passed to
// started. Run before each ingestion pass so the freeze rule holds even when
// the provider has not refreshed an event's status yet.
func (s *Store) MarkStartedGames(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE games
		SET status = 'started', updated_at = now()
		WHERE status = 'scheduled' AND start_time <= now()
	`)
	if err != nil {
		return 0, fmt.Errorf("mark started games: %w", err)
	}
	return res.RowsAffected()
}

// dedupeEvents keeps the first occurrence of each event id. A repeated id
// would stage the same row twice in one bulk statement, and Postgres rejects
// a second ON CONFLICT DO UPDATE hit on the same row.
func dedupeEvents(events []models.Event) []models.Event {
	seen := make(map[string]bool, len(events))
	out := make([]models.Event, 0, len(events))
	for _, evt := range events {
		if seen[evt.EventID] {
			continue
		}
		seen[evt.EventID] = true
		out = append(out, evt)
	}
	return out
}

// filterImminent drops scheduled events starting inside the lockout window.
// Events that have already started stay: their games row must keep updating
// even though their quotes are frozen.
func filterImminent(events []models.Event, now time.Time) ([]models.Event, int) {
	lockout := now.Add(startLockout)
	kept := make([]models.Event, 0, len(events))
	skipped := 0
	for _, evt := range events {
		if !evt.HasStarted() && evt.StartTime.Before(lockout) {
			skipped++
			continue
		}
		kept = append(kept, evt)
	}
	return kept, skipped
}

// splitQuotes flattens the surviving events' quotes into one list for the
// opening-odds pass and the subset owned by not-yet-started events for the
// current-odds pass. Quotes of started games are excluded from the current
// upsert entirely, not written with a frozen flag.
func splitQuotes(events []models.Event, quotesByEvent map[string][]models.OddsQuote) (all, active []models.OddsQuote, frozen int) {
	for _, evt := range events {
		quotes := quotesByEvent[evt.EventID]
		if len(quotes) == 0 {
			continue
		}
		all = append(all, quotes...)
		if evt.HasStarted() {
			frozen += len(quotes)
			continue
		}
		active = append(active, quotes...)
	}
	return all, active, frozen
}

// upsertGames bulk-upserts events keyed by id; conflicts overwrite all
// mutable fields
func (s *Store) upsertGames(ctx context.Context, events []models.Event) error {
	query := `
		INSERT INTO games (
			id, league, home_team, away_team, home_team_display,
			away_team_display, start_time, status, home_score, away_score, updated_at
		)
		SELECT UNNEST($1::text[]), UNNEST($2::text[]), UNNEST($3::text[]), UNNEST($4::text[]),
		       UNNEST($5::text[]), UNNEST($6::text[]), UNNEST($7::timestamptz[]),
		       UNNEST($8::text[]), UNNEST($9::int[]), UNNEST($10::int[]), now()
		ON CONFLICT (id)
		DO UPDATE SET
			league = EXCLUDED.league,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			home_team_display = EXCLUDED.home_team_display,
			away_team_display = EXCLUDED.away_team_display,
			start_time = EXCLUDED.start_time,
			status = EXCLUDED.status,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			updated_at = now()
	`

	ids := make([]string, len(events))
	leaguesArr := make([]string, len(events))
	homeTeams := make([]string, len(events))
	awayTeams := make([]string, len(events))
	homeDisplays := make([]string, len(events))
	awayDisplays := make([]string, len(events))
	startTimes := make([]time.Time, len(events))
	statuses := make([]string, len(events))
	homeScores := make([]*int64, len(events))
	awayScores := make([]*int64, len(events))

	for i, evt := range events {
		ids[i] = evt.EventID
		leaguesArr[i] = evt.LeagueCode
		homeTeams[i] = evt.HomeTeam
		awayTeams[i] = evt.AwayTeam
		homeDisplays[i] = evt.HomeTeamDisplay
		awayDisplays[i] = evt.AwayTeamDisplay
		startTimes[i] = evt.StartTime
		statuses[i] = evt.Status
		homeScores[i] = intPtr64(evt.HomeScore)
		awayScores[i] = intPtr64(evt.AwayScore)
	}

	_, err := s.db.ExecContext(ctx, query,
		pq.Array(ids), pq.Array(leaguesArr), pq.Array(homeTeams), pq.Array(awayTeams),
		pq.Array(homeDisplays), pq.Array(awayDisplays), pq.Array(startTimes),
		pq.Array(statuses), pq.Array(homeScores), pq.Array(awayScores),
	)
	return err
}

// insertOpeningOdds dedups candidate keys against the opening-odds store and
// bulk-inserts the genuinely new ones. Returns the number of rows inserted.
func (s *Store) insertOpeningOdds(ctx context.Context, quotes []models.OddsQuote) (int, error) {
	if len(quotes) == 0 {
		return 0, nil
	}

	candidates := quotes
	if s.cache != nil {
		unseen, err := s.cache.FilterSeen(ctx, quotes)
		if err != nil {
			// A broken cache only costs work, never correctness
			s.log.Warn("opening-key cache lookup failed, falling back to SQL", zap.Error(err))
		} else {
			candidates = unseen
		}
	}

	fresh, err := s.filterExisting(ctx, candidates)
	if err != nil {
		return 0, err
	}

	inserted := 0
	if len(fresh) > 0 {
		// A race with a concurrent run on the same key must neither error
		// nor duplicate: whichever insert lands first wins.
		query := fmt.Sprintf(`
			INSERT INTO open_odds (%s, created_at)
			SELECT %s, now()
			ON CONFLICT (eventid, oddid) DO NOTHING
		`, quoteColumnList, quoteUnnestList)

		res, err := s.db.ExecContext(ctx, query, quoteArgs(fresh)...)
		if err != nil {
			return 0, err
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted = int(n)
		}
	}

	if s.cache != nil {
		if err := s.cache.MarkSeen(ctx, quotes); err != nil {
			s.log.Warn("opening-key cache update failed", zap.Error(err))
		}
	}

	return inserted, nil
}

// filterExisting runs a single batched existence check against open_odds and
// returns the quotes whose (eventid, oddid) keys are not yet present.
func (s *Store) filterExisting(ctx context.Context, quotes []models.OddsQuote) ([]models.OddsQuote, error) {
	if len(quotes) == 0 {
		return nil, nil
	}

	eventIDs := make([]string, len(quotes))
	oddIDs := make([]string, len(quotes))
	for i, q := range quotes {
		eventIDs[i] = q.EventID
		oddIDs[i] = q.OddID
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT eventid, oddid FROM open_odds
		WHERE (eventid, oddid) IN (
			SELECT UNNEST($1::text[]), UNNEST($2::text[])
		)
	`, pq.Array(eventIDs), pq.Array(oddIDs))
	if err != nil {
		return nil, fmt.Errorf("query existing opening keys: %w", err)
	}
	defer rows.Close()

	existing := make(map[QuoteKey]bool)
	for rows.Next() {
		var k QuoteKey
		if err := rows.Scan(&k.EventID, &k.OddID); err != nil {
			return nil, fmt.Errorf("scan opening key: %w", err)
		}
		existing[k] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fresh := make([]models.OddsQuote, 0, len(quotes))
	for _, q := range quotes {
		if !existing[QuoteKey{EventID: q.EventID, OddID: q.OddID}] {
			fresh = append(fresh, q)
		}
	}
	return fresh, nil
}

// upsertCurrentOdds bulk-upserts the latest quotes; conflicting rows are
// fully overwritten
func (s *Store) upsertCurrentOdds(ctx context.Context, quotes []models.OddsQuote) (int, error) {
	if len(quotes) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		INSERT INTO odds (%s, updated_at)
		SELECT %s, now()
		ON CONFLICT (eventid, oddid)
		DO UPDATE SET %s, updated_at = now()
	`, quoteColumnList, quoteUnnestList, quoteUpdateList)

	res, err := s.db.ExecContext(ctx, query, quoteArgs(quotes)...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return len(quotes), nil
	}
	return int(n), nil
}

// QuoteKey identifies one quote row in either odds table
type QuoteKey struct {
	EventID string
	OddID   string
}

// The quote column set is shared by open_odds and odds; fixed columns first,
// then a price/link pair per whitelisted sportsbook.
var (
	quoteColumnList string
	quoteUnnestList string
	quoteUpdateList string
)

func init() {
	cols := []string{"eventid", "oddid", "market_name", "bet_type", "side_id", "price", "line"}
	types := []string{"text", "text", "text", "text", "text", "numeric", "numeric"}
	for _, book := range models.Sportsbooks {
		cols = append(cols, book+"_price", book+"_link")
		types = append(types, "numeric", "text")
	}

	unnest := make([]string, len(cols))
	for i := range cols {
		unnest[i] = fmt.Sprintf("UNNEST($%d::%s[])", i+1, types[i])
	}

	// eventid and oddid are the conflict key and never updated
	updates := make([]string, 0, len(cols)-2)
	for _, col := range cols[2:] {
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}

	quoteColumnList = strings.Join(cols, ", ")
	quoteUnnestList = strings.Join(unnest, ", ")
	quoteUpdateList = strings.Join(updates, ", ")
}

// quoteArgs builds the positional bulk arrays matching quoteColumnList order
func quoteArgs(quotes []models.OddsQuote) []interface{} {
	n := len(quotes)
	eventIDs := make([]string, n)
	oddIDs := make([]string, n)
	markets := make([]string, n)
	betTypes := make([]string, n)
	sides := make([]string, n)
	prices := make([]*float64, n)
	lines := make([]*float64, n)

	bookPrices := make(map[string][]*float64, len(models.Sportsbooks))
	bookLinks := make(map[string][]*string, len(models.Sportsbooks))
	for _, book := range models.Sportsbooks {
		bookPrices[book] = make([]*float64, n)
		bookLinks[book] = make([]*string, n)
	}

	for i, q := range quotes {
		eventIDs[i] = q.EventID
		oddIDs[i] = q.OddID
		markets[i] = q.MarketName
		betTypes[i] = q.BetType
		sides[i] = q.SideID
		prices[i] = q.Price
		lines[i] = models.LineValue(q.Line)
		for _, book := range models.Sportsbooks {
			if bq, ok := q.Books[book]; ok {
				bookPrices[book][i] = bq.Price
				bookLinks[book][i] = bq.Link
			}
		}
	}

	args := []interface{}{
		pq.Array(eventIDs), pq.Array(oddIDs), pq.Array(markets),
		pq.Array(betTypes), pq.Array(sides), pq.Array(prices), pq.Array(lines),
	}
	for _, book := range models.Sportsbooks {
		args = append(args, pq.Array(bookPrices[book]), pq.Array(bookLinks[book]))
	}
	return args
}

func intPtr64(p *int) *int64 {
	if p == nil {
		return nil
	}
	v := int64(*p)
	return &v
}
