package match

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// path is a sequence of map keys into a raw provider record.
type path []string

// Extraction table. Each field lists the places providers have been seen to
// put it, in the order they are tried; the first non-empty value wins.
var (
	homeTeamPaths = []path{{"homeTeam"}, {"home_team"}, {"home"}, {"teams", "home"}, {"homeName"}, {"homeTeamName"}, {"participants", "home"}}
	awayTeamPaths = []path{{"awayTeam"}, {"away_team"}, {"away"}, {"teams", "away"}, {"awayName"}, {"awayTeamName"}, {"participants", "away"}}
	teamNameKeys  = []string{"name", "teamName", "team_name", "shortName", "short_name"}

	statusPaths = []path{{"status"}, {"state"}, {"fixture", "status"}, {"matchStatus"}, {"eventStage"}, {"stage"}}
	statusKeys  = []string{"short", "code", "type", "name", "description", "long"}

	competitionPaths = []path{{"competition"}, {"league"}, {"tournament"}, {"competitionName"}, {"leagueName"}, {"tournamentName"}}
	competitionKeys  = []string{"name", "title"}

	roundPaths   = []path{{"round"}, {"matchday"}, {"league", "round"}, {"roundName"}}
	minutePaths  = []path{{"minute"}, {"elapsed"}, {"clock"}, {"liveMinute"}, {"status", "elapsed"}, {"fixture", "status", "elapsed"}, {"time", "minute"}}
	kickoffPaths = []path{{"startTime"}, {"start_time"}, {"kickoff"}, {"startTimestamp"}, {"date"}, {"fixture", "date"}, {"fixture", "timestamp"}}
	venuePaths   = []path{{"venue", "name"}, {"venue"}, {"fixture", "venue", "name"}, {"stadium"}}

	// score shape 1: nested object
	nestedScorePaths = []path{{"score"}, {"scores"}, {"goals"}, {"result"}}
	nestedHomeKeys   = []string{"home", "homeScore", "home_score", "homeTeam"}
	nestedAwayKeys   = []string{"away", "awayScore", "away_score", "awayTeam"}

	// score shape 2: delimited string
	scoreStringPaths = []path{{"score"}, {"result"}, {"scoreline"}, {"ft_score"}}

	// score shape 3: flat top-level fields
	flatHomeKeys = []string{"homeScore", "home_score", "homeGoals", "home_goals", "scoreHome"}
	flatAwayKeys = []string{"awayScore", "away_score", "awayGoals", "away_goals", "scoreAway"}

	// nested numeric wrappers such as {"current": 2}
	numberKeys = []string{"current", "display", "total", "value", "goals"}
)

func lookup(raw map[string]any, p path) (any, bool) {
	var cur any = raw
	for _, key := range p {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// text renders v as a trimmed string. Objects are searched one level deep
// using keys.
func text(v any, keys []string) string {
	switch typed := v.(type) {
	case string:
		return strings.TrimSpace(typed)
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) {
			return ""
		}
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case json.Number:
		return typed.String()
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case map[string]any:
		for _, k := range keys {
			if inner, ok := typed[k]; ok {
				if _, nested := inner.(map[string]any); nested {
					continue
				}
				if s := text(inner, nil); s != "" {
					return s
				}
			}
		}
	}
	return ""
}

func firstText(raw map[string]any, paths []path, keys []string) string {
	for _, p := range paths {
		v, ok := lookup(raw, p)
		if !ok {
			continue
		}
		if s := text(v, keys); s != "" {
			return s
		}
	}
	return ""
}

func teamName(raw map[string]any, paths []path) string {
	for _, p := range paths {
		v, ok := lookup(raw, p)
		if !ok {
			continue
		}
		name := text(v, teamNameKeys)
		if name == "" || strings.EqualFold(name, UnknownTeam) {
			continue
		}
		return name
	}
	return ""
}

// toInt converts a provider number to a non-negative int; anything it cannot
// read, or anything beyond int32, becomes 0.
func toInt(v any) int {
	var n float64
	switch typed := v.(type) {
	case float64:
		n = typed
	case float32:
		n = float64(typed)
	case int:
		n = float64(typed)
	case int64:
		n = float64(typed)
	case json.Number:
		f, err := typed.Float64()
		if err != nil {
			return 0
		}
		n = f
	case string:
		s := strings.TrimSpace(typed)
		if i, err := strconv.Atoi(s); err == nil {
			n = float64(i)
		} else if f, err := strconv.ParseFloat(s, 64); err == nil {
			n = f
		} else {
			return 0
		}
	case map[string]any:
		for _, k := range numberKeys {
			if inner, ok := typed[k]; ok {
				return toInt(inner)
			}
		}
		return 0
	default:
		return 0
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 || n > math.MaxInt32 {
		return 0
	}
	return int(n)
}

func firstKey(m map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// extractScore tries the nested, delimited and flat shapes in that order.
func extractScore(raw map[string]any) Score {
	for _, p := range nestedScorePaths {
		v, ok := lookup(raw, p)
		if !ok {
			continue
		}
		obj, ok := v.(map[string]any)
		if !ok {
			continue
		}
		home, hasHome := firstKey(obj, nestedHomeKeys)
		away, hasAway := firstKey(obj, nestedAwayKeys)
		if hasHome || hasAway {
			return Score{Home: toInt(home), Away: toInt(away)}
		}
	}

	for _, p := range scoreStringPaths {
		v, ok := lookup(raw, p)
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if score, ok := parseScoreString(s); ok {
			return score
		}
	}

	home, hasHome := firstKey(raw, flatHomeKeys)
	away, hasAway := firstKey(raw, flatAwayKeys)
	if hasHome || hasAway {
		return Score{Home: toInt(home), Away: toInt(away)}
	}
	return Score{}
}

func parseScoreString(s string) (Score, bool) {
	for _, sep := range []string{"-", ":"} {
		parts := strings.SplitN(s, sep, 2)
		if len(parts) != 2 {
			continue
		}
		return Score{Home: toInt(parts[0]), Away: toInt(parts[1])}, true
	}
	return Score{}, false
}

var kickoffLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

func extractKickoff(raw map[string]any) time.Time {
	for _, p := range kickoffPaths {
		v, ok := lookup(raw, p)
		if !ok {
			continue
		}
		switch typed := v.(type) {
		case string:
			s := strings.TrimSpace(typed)
			for _, layout := range kickoffLayouts {
				if t, err := time.Parse(layout, s); err == nil {
					return t.UTC()
				}
			}
			if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
				return unixTime(secs)
			}
		case float64:
			return unixTime(int64(typed))
		case json.Number:
			if secs, err := typed.Int64(); err == nil {
				return unixTime(secs)
			}
		}
	}
	return time.Time{}
}

func unixTime(v int64) time.Time {
	if v <= 0 {
		return time.Time{}
	}
	// millisecond timestamps
	if v > 1e12 {
		return time.UnixMilli(v).UTC()
	}
	return time.Unix(v, 0).UTC()
}
