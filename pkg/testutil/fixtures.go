package testutil

import (
	"time"

	"github.com/sportlines/oddsfeed/pkg/models"
)

// NewTestEvent creates a scheduled test event starting the given number of
// hours from now
func NewTestEvent(eventID, league, homeTeam, awayTeam string, hoursUntilStart float64) models.Event {
	return models.Event{
		EventID:         eventID,
		LeagueCode:      league,
		HomeTeam:        homeTeam,
		AwayTeam:        awayTeam,
		HomeTeamDisplay: homeTeam,
		AwayTeamDisplay: awayTeam,
		StartTime:       time.Now().Add(time.Duration(hoursUntilStart * float64(time.Hour))),
		Status:          models.StatusScheduled,
	}
}

// NewTestQuote creates a moneyline test quote with a single book entry
func NewTestQuote(eventID, oddID string, price float64) models.OddsQuote {
	p := price
	link := "https://sportsbook.example/" + oddID
	return models.OddsQuote{
		EventID:    eventID,
		OddID:      oddID,
		MarketName: "Moneyline",
		BetType:    models.BetTypeMoneyline,
		SideID:     "home",
		Price:      &p,
		Line:       models.Moneyline{},
		Books: map[string]models.BookQuote{
			"fanduel": {Price: &p, Link: &link},
		},
	}
}

// NewTestSpreadQuote creates a spread test quote
func NewTestSpreadQuote(eventID, oddID string, price, points float64) models.OddsQuote {
	p := price
	pts := points
	return models.OddsQuote{
		EventID:    eventID,
		OddID:      oddID,
		MarketName: "Point Spread",
		BetType:    models.BetTypeSpread,
		SideID:     "away",
		Price:      &p,
		Line:       models.Spread{Points: &pts},
	}
}
