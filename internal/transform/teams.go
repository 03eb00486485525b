package transform

import "strings"

// displayNames maps full provider team names to the short display names the
// downstream matching layer expects. Unlisted names fall back to
// whitespace-collapsing the raw name. This is a display-stability concern,
// not correctness-critical.
var displayNames = map[string]string{
	// MLB
	"New York Yankees":      "NY Yankees",
	"New York Mets":         "NY Mets",
	"Los Angeles Dodgers":   "LA Dodgers",
	"Los Angeles Angels":    "LA Angels",
	"San Francisco Giants":  "SF Giants",
	"San Diego Padres":      "SD Padres",
	"Tampa Bay Rays":        "TB Rays",
	// NFL
	"New York Giants":       "NY Giants",
	"New York Jets":         "NY Jets",
	"New England Patriots":  "NE Patriots",
	"San Francisco 49ers":   "SF 49ers",
	"Tampa Bay Buccaneers":  "TB Buccaneers",
	"Green Bay Packers":     "GB Packers",
	"Kansas City Chiefs":    "KC Chiefs",
	// NBA
	"Los Angeles Lakers":    "LA Lakers",
	"Los Angeles Clippers":  "LA Clippers",
	"New York Knicks":       "NY Knicks",
	"Golden State Warriors": "GS Warriors",
	"San Antonio Spurs":     "SA Spurs",
	"Oklahoma City Thunder": "OKC Thunder",
	"New Orleans Pelicans":  "NO Pelicans",
	// NHL
	"New York Rangers":      "NY Rangers",
	"New York Islanders":    "NY Islanders",
	"Tampa Bay Lightning":   "TB Lightning",
	"Vegas Golden Knights":  "VGK Golden Knights",
	// MLS
	"Los Angeles FC":        "LAFC",
	"New York City FC":      "NYC FC",
}

// NormalizeTeamName standardizes a vendor team name for display. Known names
// map through the fixed table; anything else has runs of whitespace collapsed
// to single spaces.
func NormalizeTeamName(name string) string {
	collapsed := strings.Join(strings.Fields(name), " ")
	if display, ok := displayNames[collapsed]; ok {
		return display
	}
	return collapsed
}
