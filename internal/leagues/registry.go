package leagues

import (
	"errors"
	"fmt"

	"github.com/sportlines/oddsfeed/pkg/models"
)

// ErrUnsupported is returned by Resolve for a league code the registry does
// not know. Callers treat it as a non-retryable configuration error for that
// league only.
var ErrUnsupported = errors.New("unsupported league")

// Registry is the static league-code -> provider-identifier mapping. It is
// built once at process start and never mutated, so lookups need no locking.
type Registry struct {
	byCode map[string]models.League
	order  []string
}

// defaults lists the nine leagues the pipeline ingests, in dispatch order.
var defaults = []models.League{
	{Code: "NFL", SportID: "FOOTBALL", LeagueID: "NFL", SportKey: "americanfootball_nfl"},
	{Code: "NCAAF", SportID: "FOOTBALL", LeagueID: "NCAAF", SportKey: "americanfootball_ncaaf"},
	{Code: "NBA", SportID: "BASKETBALL", LeagueID: "NBA", SportKey: "basketball_nba"},
	{Code: "NCAAB", SportID: "BASKETBALL", LeagueID: "NCAAB", SportKey: "basketball_ncaab"},
	{Code: "WNBA", SportID: "BASKETBALL", LeagueID: "WNBA", SportKey: "basketball_wnba"},
	{Code: "MLB", SportID: "BASEBALL", LeagueID: "MLB", SportKey: "baseball_mlb"},
	{Code: "NHL", SportID: "HOCKEY", LeagueID: "NHL", SportKey: "icehockey_nhl"},
	{Code: "MLS", SportID: "SOCCER", LeagueID: "MLS", SportKey: "soccer_usa_mls"},
	{Code: "EPL", SportID: "SOCCER", LeagueID: "EPL", SportKey: "soccer_epl"},
}

// NewRegistry builds the registry over the default league set
func NewRegistry() *Registry {
	return NewRegistryWith(defaults)
}

// NewRegistryWith builds a registry over an explicit league set
func NewRegistryWith(leagues []models.League) *Registry {
	r := &Registry{
		byCode: make(map[string]models.League, len(leagues)),
		order:  make([]string, 0, len(leagues)),
	}
	for _, l := range leagues {
		if _, dup := r.byCode[l.Code]; dup {
			continue
		}
		r.byCode[l.Code] = l
		r.order = append(r.order, l.Code)
	}
	return r
}

// Resolve looks up the provider mapping for a league code
func (r *Registry) Resolve(code string) (models.League, error) {
	l, ok := r.byCode[code]
	if !ok {
		return models.League{}, fmt.Errorf("%w: %s", ErrUnsupported, code)
	}
	return l, nil
}

// Codes returns all league codes in registration order
func (r *Registry) Codes() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered leagues
func (r *Registry) Count() int {
	return len(r.byCode)
}
