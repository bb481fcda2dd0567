package match

import (
	"log/slog"

	"github.com/deusflow/scorenews/internal/history"
)

// Classifier normalizes raw provider records into Matches.
type Classifier struct {
	leagues Leagues
	logger  *slog.Logger
}

// NewClassifier creates a Classifier using leagues for importance ranking.
func NewClassifier(leagues Leagues, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{leagues: leagues, logger: logger}
}

// Normalize converts one raw record. ok is false when either team name is
// missing after every fallback; such records are never turned into Matches.
func (c *Classifier) Normalize(raw map[string]any, day string) (Match, bool) {
	home := teamName(raw, homeTeamPaths)
	away := teamName(raw, awayTeamPaths)
	if home == "" || away == "" {
		return Match{}, false
	}

	rawStatus := firstText(raw, statusPaths, statusKeys)
	m := Match{
		Key:         history.IdentityKey(day, home, away),
		HomeTeam:    home,
		AwayTeam:    away,
		Competition: firstText(raw, competitionPaths, competitionKeys),
		Round:       firstText(raw, roundPaths, nil),
		State:       NormalizeStatus(rawStatus),
		RawStatus:   rawStatus,
		Score:       extractScore(raw),
		Kickoff:     extractKickoff(raw),
		Venue:       firstText(raw, venuePaths, []string{"name"}),
	}
	if m.State.InPlay() {
		m.Minute = firstText(raw, minutePaths, nil)
	}
	m.TopLeague, m.PriorityRank = c.leagues.Classify(m.Competition)
	return m, true
}

// Classify normalizes every record, dropping invalid ones. Output order
// follows input order.
func (c *Classifier) Classify(raws []map[string]any, day string) []Match {
	out := make([]Match, 0, len(raws))
	invalid := 0
	for _, raw := range raws {
		m, ok := c.Normalize(raw, day)
		if !ok {
			invalid++
			continue
		}
		out = append(out, m)
	}
	if invalid > 0 {
		c.logger.Debug("dropped matches without team names", "count", invalid)
	}
	return out
}
