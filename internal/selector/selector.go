// Package selector picks which matches a run posts about.
package selector

import (
	"log/slog"
	"sort"
	"time"

	"github.com/deusflow/scorenews/internal/history"
	"github.com/deusflow/scorenews/internal/match"
)

// Rand is the random source used for tie-breaks and the fallback tier.
// *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Tier names the selection bucket a pick came from.
type Tier string

const (
	TierNone     Tier = "none"
	TierLive     Tier = "live"
	TierFinished Tier = "finished"
	TierUpcoming Tier = "upcoming"
	TierFallback Tier = "fallback"
	TierRecap    Tier = "recap"
)

// Config controls dedup and recap batching.
type Config struct {
	// DedupWindow is how many recent history entries count as "already posted".
	DedupWindow int
	// RecapMin is the number of unposted finished matches needed for a recap;
	// zero disables recaps.
	RecapMin int
	// RecapMax caps how many matches one recap covers.
	RecapMax int
	// RecapInterval is the minimum gap between two recaps.
	RecapInterval time.Duration
}

// DefaultConfig returns the selection settings used in production.
func DefaultConfig() Config {
	return Config{
		DedupWindow:   history.DefaultPolicy().DedupWindow,
		RecapMin:      4,
		RecapMax:      6,
		RecapInterval: 6 * time.Hour,
	}
}

// Group is a run of recap matches from one competition.
type Group struct {
	Competition string
	Matches     []match.Match
}

// Selection is the outcome of a pick. Matches is empty when nothing qualifies.
type Selection struct {
	Tier     Tier
	PostType history.PostType
	Matches  []match.Match
	Groups   []Group
}

// Empty reports whether nothing was selected.
func (s Selection) Empty() bool {
	return len(s.Matches) == 0
}

// Keys returns the identity keys of the selected matches.
func (s Selection) Keys() []string {
	keys := make([]string, 0, len(s.Matches))
	for _, m := range s.Matches {
		keys = append(keys, m.Key)
	}
	return keys
}

// Selector applies the tier policy to a classified match set.
type Selector struct {
	cfg    Config
	rng    Rand
	logger *slog.Logger
}

// New creates a Selector. A nil rng makes every random pick take the first
// candidate.
func New(cfg Config, rng Rand, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{cfg: cfg, rng: rng, logger: logger}
}

// Select returns a single match following the tier order: in-play, finished,
// upcoming, then the relaxed fallback.
//
// In-play and finished tiers skip already-posted keys and take the best
// priority rank, ties broken by input order. The upcoming tier ignores
// dedup and picks at random among the best-ranked group. The fallback picks
// uniformly among every non-cancelled match, posted or not, and only runs
// when at least one non-cancelled top-league match exists.
func (s *Selector) Select(matches []match.Match, rec history.Record) Selection {
	posted := history.PostedKeys(rec, s.cfg.DedupWindow)

	var live, finished, upcoming, valid []match.Match
	topSeen := 0
	for _, m := range matches {
		if m.State == match.StateCancelled {
			continue
		}
		valid = append(valid, m)
		if !m.TopLeague {
			continue
		}
		topSeen++
		switch m.State {
		case match.StateLive, match.StateHalfTime:
			if !posted[m.Key] {
				live = append(live, m)
			}
		case match.StateFinished:
			if !posted[m.Key] {
				finished = append(finished, m)
			}
		case match.StateScheduled:
			upcoming = append(upcoming, m)
		}
	}

	if len(live) > 0 {
		return single(TierLive, history.PostLive, byPriority(live)[0])
	}
	if len(finished) > 0 {
		return single(TierFinished, history.PostResult, byPriority(finished)[0])
	}
	if len(upcoming) > 0 {
		best := bestRanked(byPriority(upcoming))
		return single(TierUpcoming, history.PostPreview, best[s.pick(len(best))])
	}
	// fallback only covers a slate whose top-league matches were all posted
	if topSeen > 0 && len(valid) > 0 {
		m := valid[s.pick(len(valid))]
		s.logger.Debug("no fresh top-league match, using fallback",
			"candidates", len(valid),
			"home", m.HomeTeam,
			"away", m.AwayTeam)
		return single(TierFallback, postTypeFor(m.State), m)
	}
	return Selection{Tier: TierNone}
}

// Recap returns a multi-match batch of unposted finished top-league matches,
// grouped by competition in priority order and capped at RecapMax. It
// returns an empty Selection when recaps are disabled, too few matches
// qualify, or the last recap is within RecapInterval of now.
func (s *Selector) Recap(matches []match.Match, rec history.Record, now time.Time) Selection {
	if s.cfg.RecapMin <= 0 || s.cfg.RecapMax <= 0 {
		return Selection{Tier: TierNone}
	}
	if last, ok := rec.LastByType[history.PostRecap]; ok && now.Sub(last) < s.cfg.RecapInterval {
		return Selection{Tier: TierNone}
	}

	posted := history.PostedKeys(rec, s.cfg.DedupWindow)
	var candidates []match.Match
	for _, m := range matches {
		if m.TopLeague && m.State == match.StateFinished && !posted[m.Key] {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) < s.cfg.RecapMin {
		return Selection{Tier: TierNone}
	}

	groups := groupByCompetition(candidates)
	sel := Selection{Tier: TierRecap, PostType: history.PostRecap}
	remaining := s.cfg.RecapMax
	for _, g := range groups {
		if remaining == 0 {
			break
		}
		if len(g.Matches) > remaining {
			g.Matches = g.Matches[:remaining]
		}
		remaining -= len(g.Matches)
		sel.Groups = append(sel.Groups, g)
		sel.Matches = append(sel.Matches, g.Matches...)
	}
	return sel
}

func (s *Selector) pick(n int) int {
	if s.rng == nil || n <= 1 {
		return 0
	}
	i := s.rng.Intn(n)
	if i < 0 || i >= n {
		return 0
	}
	return i
}

func single(tier Tier, postType history.PostType, m match.Match) Selection {
	return Selection{Tier: tier, PostType: postType, Matches: []match.Match{m}}
}

// byPriority returns a copy sorted by ascending rank, stable on input order.
func byPriority(matches []match.Match) []match.Match {
	out := append([]match.Match(nil), matches...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PriorityRank < out[j].PriorityRank
	})
	return out
}

// bestRanked returns the leading run of a priority-sorted slice that shares
// the best rank.
func bestRanked(sorted []match.Match) []match.Match {
	n := 1
	for n < len(sorted) && sorted[n].PriorityRank == sorted[0].PriorityRank {
		n++
	}
	return sorted[:n]
}

func postTypeFor(s match.State) history.PostType {
	switch s {
	case match.StateLive, match.StateHalfTime:
		return history.PostLive
	case match.StateFinished:
		return history.PostResult
	default:
		return history.PostPreview
	}
}

// groupByCompetition groups matches by competition name. Groups are ordered
// by their best rank, then by first appearance.
func groupByCompetition(matches []match.Match) []Group {
	index := make(map[string]int)
	var groups []Group
	best := make([]int, 0)
	for _, m := range matches {
		i, ok := index[m.Competition]
		if !ok {
			i = len(groups)
			index[m.Competition] = i
			groups = append(groups, Group{Competition: m.Competition})
			best = append(best, m.PriorityRank)
		}
		groups[i].Matches = append(groups[i].Matches, m)
		if m.PriorityRank < best[i] {
			best[i] = m.PriorityRank
		}
	}

	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return best[order[a]] < best[order[b]]
	})

	out := make([]Group, 0, len(groups))
	for _, i := range order {
		out = append(out, groups[i])
	}
	return out
}
