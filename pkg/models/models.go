package models

import "time"

// Event lifecycle statuses as stored in the games table
const (
	StatusScheduled = "scheduled"
	StatusStarted   = "started"
	StatusLive      = "live"
	StatusFinal     = "final"
)

// Bet type codes used by the provider
const (
	BetTypeMoneyline = "ml"
	BetTypeSpread    = "sp"
	BetTypeOverUnder = "ou"
)

// Sportsbooks is the fixed whitelist of books flattened into named storage
// columns. Any other bookmaker in a provider payload is ignored.
var Sportsbooks = []string{
	"fanduel",
	"draftkings",
	"caesars",
	"betmgm",
	"espnbet",
	"fanatics",
	"bovada",
}

// League maps an internal league code to the provider's identifiers
type League struct {
	Code     string // e.g. "NFL"
	SportID  string // provider sport id, e.g. "FOOTBALL"
	LeagueID string // provider league id, e.g. "NFL"
	SportKey string // vendor sport key, e.g. "americanfootball_nfl"
}

// Event represents a single scheduled game within a league (a games row)
type Event struct {
	EventID         string
	LeagueCode      string
	HomeTeam        string // raw provider name
	AwayTeam        string
	HomeTeamDisplay string // normalized display name
	AwayTeamDisplay string
	StartTime       time.Time
	Status          string
	HomeScore       *int
	AwayScore       *int
}

// HasStarted reports whether the event's lifecycle has left "scheduled".
// Quotes for started events are frozen: the current-odds table no longer
// accepts writes for them.
func (e Event) HasStarted() bool {
	switch e.Status {
	case StatusStarted, StatusLive, StatusFinal:
		return true
	}
	return false
}

// Line is the bet-type-specific portion of a quote. Exactly one variant
// exists per bet type; LineValue flattens a variant to the nullable
// storage column.
type Line interface {
	isLine()
}

// Moneyline carries no line value
type Moneyline struct{}

// Spread carries the point spread (book preferred over fair)
type Spread struct {
	Points *float64
}

// Total carries the over/under total
type Total struct {
	Points *float64
}

// OtherLine covers bet types outside ml/sp/ou; spread fields are preferred,
// then total fields
type OtherLine struct {
	Points *float64
}

func (Moneyline) isLine() {}
func (Spread) isLine()    {}
func (Total) isLine()     {}
func (OtherLine) isLine() {}

// LineValue converts a Line variant to the flat nullable column value
func LineValue(l Line) *float64 {
	switch v := l.(type) {
	case Moneyline:
		return nil
	case Spread:
		return copyFloat(v.Points)
	case Total:
		return copyFloat(v.Points)
	case OtherLine:
		return copyFloat(v.Points)
	default:
		return nil
	}
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// BookQuote is one named sportsbook's price and deeplink for a quote
type BookQuote struct {
	Price *float64
	Link  *string
}

// OddsQuote is one priced market line for one event, one market, one side,
// aggregated across sportsbooks. (eventID, oddID) is the natural key for
// both the opening-odds and current-odds tables.
type OddsQuote struct {
	EventID    string
	OddID      string
	MarketName string
	BetType    string
	SideID     string
	Price      *float64 // primary book price
	Line       Line
	Books      map[string]BookQuote // keyed by Sportsbooks entries
}

// DateWindow bounds a fetch to events starting within [Start, End]
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// NewDateWindow returns the standard ingestion window of [now, now+7 days]
func NewDateWindow(now time.Time) DateWindow {
	return DateWindow{Start: now, End: now.Add(7 * 24 * time.Hour)}
}

// FetchResult contains the events and quotes accumulated by one paginated
// fetch. Truncated is set when the provider rate-limited mid-pagination and
// the result holds only what was fetched before the 429.
type FetchResult struct {
	Events        []Event
	QuotesByEvent map[string][]OddsQuote
	Pages         int
	Truncated     bool
}

// RateLimits carries the provider's remaining-quota hint when available
type RateLimits struct {
	RequestsRemaining int
	HasHint           bool
}

// PersistSummary reports what one persistence pass wrote
type PersistSummary struct {
	GamesUpserted   int
	OpeningInserted int
	CurrentUpserted int
	SkippedImminent int // events dropped by the 10-minute start filter
	FrozenQuotes    int // quotes excluded because their event has started
}

// LeagueResult is the per-league outcome of one ingestion run
type LeagueResult struct {
	League    string
	Games     int
	Success   bool
	Truncated bool
	Duration  time.Duration
	Err       error
}

// RunSummary aggregates per-league results for one run
type RunSummary struct {
	TotalGames int
	Succeeded  int
	Elapsed    time.Duration
	Leagues    []LeagueResult
}
