// Package transform maps vendor event and odds payloads into the internal
// Event and OddsQuote shapes, sanitizing values on the way through.
package transform

import (
	"fmt"
	"time"

	"github.com/sportlines/oddsfeed/pkg/models"
)

const (
	unknownHomeTeam = "Unknown Home Team"
	unknownAwayTeam = "Unknown Away Team"
)

// Event converts one raw provider event into an internal Event and its odds
// quotes. A malformed event returns an error so the caller can drop it and
// continue with the rest of the page.
func Event(raw RawEvent, leagueCode string) (models.Event, []models.OddsQuote, error) {
	if raw.EventID == "" {
		return models.Event{}, nil, fmt.Errorf("event missing eventID")
	}

	startsAt, err := time.Parse(time.RFC3339, raw.Status.StartsAt)
	if err != nil {
		return models.Event{}, nil, fmt.Errorf("event %s: parse startsAt %q: %w", raw.EventID, raw.Status.StartsAt, err)
	}

	homeTeam := teamName(raw.Teams.Home, unknownHomeTeam)
	awayTeam := teamName(raw.Teams.Away, unknownAwayTeam)

	event := models.Event{
		EventID:         raw.EventID,
		LeagueCode:      leagueCode,
		HomeTeam:        homeTeam,
		AwayTeam:        awayTeam,
		HomeTeamDisplay: NormalizeTeamName(homeTeam),
		AwayTeamDisplay: NormalizeTeamName(awayTeam),
		StartTime:       startsAt,
		Status:          eventStatus(raw.Status),
		HomeScore:       raw.Status.HomeScore,
		AwayScore:       raw.Status.AwayScore,
	}

	quotes := make([]models.OddsQuote, 0, len(raw.Odds))
	for oddID, odd := range raw.Odds {
		if oddID == "" {
			continue
		}
		quotes = append(quotes, quote(raw.EventID, oddID, odd))
	}

	return event, quotes, nil
}

// quote converts one raw odds entry into an OddsQuote
func quote(eventID, oddID string, odd RawOdd) models.OddsQuote {
	q := models.OddsQuote{
		EventID:    eventID,
		OddID:      Truncate(oddID),
		MarketName: Truncate(odd.MarketName),
		BetType:    Truncate(odd.BetTypeID),
		SideID:     Truncate(odd.SideID),
		Price:      firstPrice(odd.BookOdds, odd.FairOdds),
		Line:       lineFor(odd),
	}

	for _, book := range models.Sportsbooks {
		entry, ok := odd.ByBookmaker[book]
		if !ok {
			continue
		}
		bq := models.BookQuote{Price: SanitizePrice(entry.Odds)}
		if entry.DeepLink != "" {
			link := entry.DeepLink
			bq.Link = &link
		}
		if q.Books == nil {
			q.Books = make(map[string]models.BookQuote, len(models.Sportsbooks))
		}
		q.Books[book] = bq
	}

	return q
}

// lineFor derives the bet-type variant from the raw entry. Spread prefers
// the book number over the fair number; over/under likewise; moneyline never
// carries a line; anything else tries spread fields first, then totals.
func lineFor(odd RawOdd) models.Line {
	switch odd.BetTypeID {
	case models.BetTypeMoneyline:
		return models.Moneyline{}
	case models.BetTypeSpread:
		return models.Spread{Points: firstPrice(odd.BookSpread, odd.FairSpread)}
	case models.BetTypeOverUnder:
		return models.Total{Points: firstPrice(odd.BookOverUnder, odd.FairOverUnder)}
	default:
		return models.OtherLine{Points: firstPrice(odd.BookSpread, odd.FairSpread, odd.BookOverUnder, odd.FairOverUnder)}
	}
}

// teamName extracts the best available name from a team block, defaulting to
// a placeholder instead of failing the event
func teamName(block RawTeamBlock, fallback string) string {
	for _, name := range []string{block.Names.Long, block.Names.Medium, block.Names.Short} {
		if name != "" {
			return name
		}
	}
	return fallback
}

// eventStatus maps the provider's lifecycle flags to the internal status
func eventStatus(s RawStatus) string {
	switch {
	case s.Completed:
		return models.StatusFinal
	case s.Live:
		return models.StatusLive
	case s.Started:
		return models.StatusStarted
	default:
		return models.StatusScheduled
	}
}
