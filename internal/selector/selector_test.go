package selector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/scorenews/internal/history"
	"github.com/deusflow/scorenews/internal/match"
)

// scriptedRand returns its values in order and records the bounds it saw.
type scriptedRand struct {
	values []int
	bounds []int
}

func (r *scriptedRand) Intn(n int) int {
	r.bounds = append(r.bounds, n)
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[0]
	r.values = r.values[1:]
	return v
}

var now = time.Date(2024, 5, 18, 15, 30, 0, 0, time.UTC)

func mk(key string, state match.State, top bool, rank int) match.Match {
	return match.Match{
		Key:          key,
		HomeTeam:     key + "-home",
		AwayTeam:     key + "-away",
		Competition:  "League " + key,
		State:        state,
		TopLeague:    top,
		PriorityRank: rank,
	}
}

func posted(keys ...string) history.Record {
	rec := history.Empty()
	for _, k := range keys {
		rec = history.RecordPost(rec, []string{k}, history.PostResult, now.Add(-time.Hour), time.UTC)
	}
	return rec
}

func TestSelectTierOrder(t *testing.T) {
	matches := []match.Match{
		mk("up", match.StateScheduled, true, 0),
		mk("ft", match.StateFinished, true, 0),
		mk("ht", match.StateHalfTime, true, 3),
	}
	s := New(DefaultConfig(), nil, nil)

	sel := s.Select(matches, history.Empty())
	require.False(t, sel.Empty())
	assert.Equal(t, TierLive, sel.Tier)
	assert.Equal(t, history.PostLive, sel.PostType)
	assert.Equal(t, "ht", sel.Matches[0].Key)

	sel = s.Select(matches, posted("ht"))
	assert.Equal(t, TierFinished, sel.Tier)
	assert.Equal(t, history.PostResult, sel.PostType)
	assert.Equal(t, "ft", sel.Matches[0].Key)

	sel = s.Select(matches, posted("ht", "ft"))
	assert.Equal(t, TierUpcoming, sel.Tier)
	assert.Equal(t, history.PostPreview, sel.PostType)
	assert.Equal(t, "up", sel.Matches[0].Key)
}

func TestSelectPriorityWithinTier(t *testing.T) {
	matches := []match.Match{
		mk("a", match.StateLive, true, 5),
		mk("b", match.StateLive, true, 1),
		mk("c", match.StateLive, true, 1),
		mk("d", match.StateLive, false, match.LowestPriority),
	}
	sel := New(DefaultConfig(), nil, nil).Select(matches, history.Empty())
	require.Len(t, sel.Matches, 1)
	assert.Equal(t, "b", sel.Matches[0].Key, "best rank wins, ties keep input order")
}

func TestSelectDedupExcludesPostedFromTopTiers(t *testing.T) {
	matches := []match.Match{
		mk("x", match.StateLive, true, 0),
		mk("y", match.StateFinished, true, 0),
		mk("z", match.StateFinished, true, 1),
	}
	sel := New(DefaultConfig(), nil, nil).Select(matches, posted("x", "y"))
	assert.Equal(t, TierFinished, sel.Tier)
	assert.Equal(t, "z", sel.Matches[0].Key)
}

func TestSelectDedupWindow(t *testing.T) {
	matches := []match.Match{mk("old", match.StateFinished, true, 0)}
	rec := posted("old", "p1", "p2")

	sel := New(Config{DedupWindow: 2}, nil, nil).Select(matches, rec)
	assert.Equal(t, TierFinished, sel.Tier, "entries outside the window do not block")

	sel = New(Config{DedupWindow: 3}, nil, nil).Select(matches, rec)
	assert.Equal(t, TierFallback, sel.Tier)
}

func TestSelectUpcomingIgnoresDedupAndRandomizesBestGroup(t *testing.T) {
	matches := []match.Match{
		mk("u1", match.StateScheduled, true, 2),
		mk("u2", match.StateScheduled, true, 0),
		mk("u3", match.StateScheduled, true, 0),
	}
	rng := &scriptedRand{values: []int{1}}
	sel := New(DefaultConfig(), rng, nil).Select(matches, posted("u2", "u3"))

	assert.Equal(t, TierUpcoming, sel.Tier)
	assert.Equal(t, "u3", sel.Matches[0].Key)
	assert.Equal(t, []int{2}, rng.bounds, "random pick is limited to the best-ranked group")
}

func TestSelectFallbackWhenEverythingPosted(t *testing.T) {
	// two raw records of the same fixture collapse to one key; it was posted
	// earlier today so only the fallback returns it
	matches := []match.Match{
		mk("same", match.StateLive, true, 0),
	}
	rng := &scriptedRand{values: []int{0}}
	sel := New(DefaultConfig(), rng, nil).Select(matches, posted("same"))

	require.False(t, sel.Empty())
	assert.Equal(t, TierFallback, sel.Tier)
	assert.Equal(t, history.PostLive, sel.PostType)
	assert.Equal(t, "same", sel.Matches[0].Key)
}

func TestSelectFallbackUniformOverValid(t *testing.T) {
	matches := []match.Match{
		mk("a", match.StateFinished, true, 0),
		mk("gone", match.StateCancelled, true, 0),
		mk("b", match.StateFinished, false, match.LowestPriority),
	}
	rng := &scriptedRand{values: []int{1}}
	sel := New(DefaultConfig(), rng, nil).Select(matches, posted("a"))

	assert.Equal(t, TierFallback, sel.Tier)
	assert.Equal(t, "b", sel.Matches[0].Key)
	assert.Equal(t, []int{2}, rng.bounds, "cancelled matches are not candidates")
}

func TestSelectSkipsSlateWithoutTopLeague(t *testing.T) {
	matches := []match.Match{
		mk("lower1", match.StateFinished, false, match.LowestPriority),
		mk("lower2", match.StateLive, false, match.LowestPriority),
		mk("cup", match.StateCancelled, true, 0),
	}
	rng := &scriptedRand{}
	sel := New(DefaultConfig(), rng, nil).Select(matches, history.Empty())

	assert.True(t, sel.Empty())
	assert.Equal(t, TierNone, sel.Tier)
	assert.Empty(t, rng.bounds)
}

func TestSelectNothing(t *testing.T) {
	s := New(DefaultConfig(), nil, nil)
	assert.True(t, s.Select(nil, history.Empty()).Empty())

	sel := s.Select([]match.Match{mk("c", match.StateCancelled, true, 0)}, history.Empty())
	assert.True(t, sel.Empty())
	assert.Equal(t, TierNone, sel.Tier)
}

func TestSelectOutOfRangeRandIsClamped(t *testing.T) {
	matches := []match.Match{
		mk("a", match.StateScheduled, true, 0),
		mk("b", match.StateScheduled, true, 0),
	}
	sel := New(DefaultConfig(), &scriptedRand{values: []int{7}}, nil).Select(matches, history.Empty())
	assert.Equal(t, "a", sel.Matches[0].Key)
}

func recapMatches() []match.Match {
	pl := func(key string) match.Match {
		m := mk(key, match.StateFinished, true, 1)
		m.Competition = "Premier League"
		return m
	}
	cl := func(key string) match.Match {
		m := mk(key, match.StateFinished, true, 0)
		m.Competition = "Champions League"
		return m
	}
	return []match.Match{pl("pl1"), pl("pl2"), cl("cl1"), pl("pl3"), cl("cl2"), mk("minor", match.StateFinished, false, match.LowestPriority)}
}

func TestRecapGroupsByCompetitionAndCaps(t *testing.T) {
	cfg := Config{DedupWindow: 50, RecapMin: 3, RecapMax: 4, RecapInterval: 6 * time.Hour}
	sel := New(cfg, nil, nil).Recap(recapMatches(), history.Empty(), now)

	require.Equal(t, TierRecap, sel.Tier)
	assert.Equal(t, history.PostRecap, sel.PostType)
	require.Len(t, sel.Groups, 2)
	assert.Equal(t, "Champions League", sel.Groups[0].Competition)
	assert.Equal(t, "Premier League", sel.Groups[1].Competition)
	assert.Len(t, sel.Groups[1].Matches, 2, "cap trims the last group")
	assert.Equal(t, []string{"cl1", "cl2", "pl1", "pl2"}, sel.Keys())
}

func TestRecapSkipsPostedAndRespectsMinimum(t *testing.T) {
	cfg := Config{DedupWindow: 50, RecapMin: 4, RecapMax: 10, RecapInterval: time.Hour}
	s := New(cfg, nil, nil)

	assert.Len(t, s.Recap(recapMatches(), history.Empty(), now).Matches, 5)
	assert.True(t, s.Recap(recapMatches(), posted("pl1", "cl2"), now).Empty())
}

func TestRecapInterval(t *testing.T) {
	cfg := Config{DedupWindow: 50, RecapMin: 2, RecapMax: 10, RecapInterval: 6 * time.Hour}
	s := New(cfg, nil, nil)

	rec := history.RecordPost(history.Empty(), []string{"older"}, history.PostRecap, now.Add(-2*time.Hour), time.UTC)
	assert.True(t, s.Recap(recapMatches(), rec, now).Empty())

	rec = history.RecordPost(history.Empty(), []string{"older"}, history.PostRecap, now.Add(-7*time.Hour), time.UTC)
	assert.False(t, s.Recap(recapMatches(), rec, now).Empty())
}

func TestRecapDisabled(t *testing.T) {
	s := New(Config{RecapMin: 0, RecapMax: 5}, nil, nil)
	assert.True(t, s.Recap(recapMatches(), history.Empty(), now).Empty())
}
