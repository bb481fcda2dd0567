// Package match turns raw provider fixtures into canonical matches.
package match

import "time"

// State is the canonical lifecycle stage of a match.
type State string

const (
	StateScheduled State = "SCHEDULED"
	StateLive      State = "LIVE"
	StateHalfTime  State = "HALFTIME"
	StateFinished  State = "FINISHED"
	StateCancelled State = "CANCELLED"
)

// InPlay reports whether the match is live or at half-time.
func (s State) InPlay() bool {
	return s == StateLive || s == StateHalfTime
}

// LowestPriority is the rank of competitions outside the top-league list.
const LowestPriority = 999

// UnknownTeam is what some providers send when a side is missing.
const UnknownTeam = "Unknown"

// Score is a home/away goal pair.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// Match is the canonical fixture shape.
type Match struct {
	Key          string    `json:"-"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	Competition  string    `json:"competition,omitempty"`
	Round        string    `json:"round,omitempty"`
	State        State     `json:"status"`
	RawStatus    string    `json:"-"`
	Score        Score     `json:"score"`
	Minute       string    `json:"minute,omitempty"`
	Kickoff      time.Time `json:"kickoff,omitempty"`
	Venue        string    `json:"venue,omitempty"`
	TopLeague    bool      `json:"-"`
	PriorityRank int       `json:"-"`
}

// Dedupe drops matches whose Key was already seen, keeping the first one.
func Dedupe(matches []Match) []Match {
	seen := make(map[string]bool, len(matches))
	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		if seen[m.Key] {
			continue
		}
		seen[m.Key] = true
		out = append(out, m)
	}
	return out
}

// Buckets groups matches by lifecycle state.
type Buckets struct {
	Live      []Match
	HalfTime  []Match
	Finished  []Match
	Upcoming  []Match
	Cancelled []Match
}

// Bucket splits matches by state, keeping input order inside each bucket.
// topOnly drops matches outside the top-league list.
func Bucket(matches []Match, topOnly bool) Buckets {
	var b Buckets
	for _, m := range matches {
		if topOnly && !m.TopLeague {
			continue
		}
		switch m.State {
		case StateLive:
			b.Live = append(b.Live, m)
		case StateHalfTime:
			b.HalfTime = append(b.HalfTime, m)
		case StateFinished:
			b.Finished = append(b.Finished, m)
		case StateCancelled:
			b.Cancelled = append(b.Cancelled, m)
		default:
			b.Upcoming = append(b.Upcoming, m)
		}
	}
	return b
}
