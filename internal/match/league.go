package match

import "strings"

// Leagues holds the ordered top-league list and the exclusion markers.
// Matching is a case-insensitive substring test, since providers decorate
// competition names with seasons, sponsors and regions.
type Leagues struct {
	Top     []string
	Exclude []string
}

// DefaultLeagues is used when no leagues file is configured. Order matters:
// the index of the first match is the priority rank.
func DefaultLeagues() Leagues {
	return Leagues{
		Top: []string{
			"CHAMPIONS LEAGUE",
			"PREMIER LEAGUE",
			"LALIGA",
			"LA LIGA",
			"SERIE A",
			"BUNDESLIGA",
			"LIGUE 1",
			"EUROPA LEAGUE",
			"CONFERENCE LEAGUE",
			"WORLD CUP",
			"EUROPEAN CHAMPIONSHIP",
			"EURO 20",
			"COPA AMERICA",
			"NATIONS LEAGUE",
			"FA CUP",
			"COPA DEL REY",
			"DFB POKAL",
			"COPPA ITALIA",
			"EREDIVISIE",
			"PRIMEIRA LIGA",
			"SAUDI PRO LEAGUE",
			"MLS",
		},
		Exclude: []string{
			"U17", "U18", "U19", "U20", "U21", "U23",
			"YOUTH", "RESERVE", "AMATEUR", "REGIONAL",
			"WOMEN",
			"AFC ", "CAF ", "CONCACAF", "OFC ",
		},
	}
}

// Classify reports whether competition is a top league and its priority
// rank; lower ranks are more important.
func (l Leagues) Classify(competition string) (top bool, rank int) {
	name := strings.ToUpper(strings.TrimSpace(competition))
	if name == "" {
		return false, LowestPriority
	}
	// pad so markers with a trailing space also match at the end of a name
	padded := name + " "
	for _, marker := range l.Exclude {
		m := strings.ToUpper(marker)
		if m != "" && strings.Contains(padded, m) {
			return false, LowestPriority
		}
	}
	for i, league := range l.Top {
		t := strings.ToUpper(strings.TrimSpace(league))
		if t != "" && strings.Contains(name, t) {
			return true, i
		}
	}
	return false, LowestPriority
}
