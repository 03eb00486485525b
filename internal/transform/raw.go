package transform

import "encoding/json"

// Raw payload structures matching the provider's /v2/events JSON.
//
// Numeric odds fields arrive inconsistently typed (number, quoted number,
// garbage string, or null), so they decode through RawValue and are
// normalized by SanitizePrice rather than failing the whole event.

// RawValue holds a provider numeric field as its textual form. Empty means
// absent or null.
type RawValue string

// UnmarshalJSON accepts a JSON number, string, or null
func (v *RawValue) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = RawValue(s)
		return nil
	}
	*v = RawValue(b)
	return nil
}

// RawEvent is one event object from the provider envelope
type RawEvent struct {
	EventID  string            `json:"eventID"`
	LeagueID string            `json:"leagueID"`
	SportID  string            `json:"sportID"`
	Teams    RawTeams          `json:"teams"`
	Status   RawStatus         `json:"status"`
	Odds     map[string]RawOdd `json:"odds"` // keyed by oddID
}

// RawTeams nests the home and away team blocks
type RawTeams struct {
	Home RawTeamBlock `json:"home"`
	Away RawTeamBlock `json:"away"`
}

// RawTeamBlock carries the provider's name variants for one side
type RawTeamBlock struct {
	TeamID string `json:"teamID"`
	Names  struct {
		Long   string `json:"long"`
		Medium string `json:"medium"`
		Short  string `json:"short"`
	} `json:"names"`
}

// RawStatus is the event lifecycle block
type RawStatus struct {
	StartsAt  string `json:"startsAt"`
	Started   bool   `json:"started"`
	Live      bool   `json:"live"`
	Completed bool   `json:"completed"`
	HomeScore *int   `json:"homeScore"`
	AwayScore *int   `json:"awayScore"`
}

// RawOdd is one odds entry within an event
type RawOdd struct {
	MarketName    string                 `json:"marketName"`
	BetTypeID     string                 `json:"betTypeID"`
	SideID        string                 `json:"sideID"`
	BookOdds      RawValue               `json:"bookOdds"`
	FairOdds      RawValue               `json:"fairOdds"`
	BookSpread    RawValue               `json:"bookSpread"`
	FairSpread    RawValue               `json:"fairSpread"`
	BookOverUnder RawValue               `json:"bookOverUnder"`
	FairOverUnder RawValue               `json:"fairOverUnder"`
	ByBookmaker   map[string]RawBookOdds `json:"byBookmaker"`
}

// RawBookOdds is a single sportsbook's entry under byBookmaker
type RawBookOdds struct {
	Odds     RawValue `json:"odds"`
	DeepLink string   `json:"deepLink"`
}
