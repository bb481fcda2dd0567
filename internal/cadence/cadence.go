// Package cadence decides whether the current invocation should post. It
// keeps no state of its own; everything it knows comes from the history
// record passed in, so any number of scheduler ticks agree on the outcome.
package cadence

import (
	"hash/fnv"
	"time"

	"github.com/deusflow/scorenews/internal/history"
)

// Rand is the random source behind the posting draw.
type Rand interface {
	Float64() float64
}

// Window is an hour range [Start, End) in local time. Start > End wraps
// around midnight.
type Window struct {
	Start  int
	End    int
	Factor float64
}

func (w Window) contains(hour int) bool {
	if w.Start == w.End {
		return false
	}
	if w.Start < w.End {
		return hour >= w.Start && hour < w.End
	}
	return hour >= w.Start || hour < w.End
}

// Config holds the pacing policy.
type Config struct {
	MinPostsPerDay int
	MaxPostsPerDay int
	MinSpacing     time.Duration
	BaseChance     float64
	Quiet          Window // low-activity hours, Factor < 1
	Peak           Window // match hours, Factor > 1
	CatchUpFactor  float64
	Location       *time.Location
}

// DefaultConfig is tuned for a trigger every 15 minutes.
func DefaultConfig() Config {
	return Config{
		MinPostsPerDay: 6,
		MaxPostsPerDay: 10,
		MinSpacing:     45 * time.Minute,
		BaseChance:     0.25,
		Quiet:          Window{Start: 1, End: 7, Factor: 0.3},
		Peak:           Window{Start: 17, End: 23, Factor: 1.6},
		CatchUpFactor:  1.5,
		Location:       time.UTC,
	}
}

// Reason explains a Decision.
type Reason string

const (
	ReasonNoTarget    Reason = "no_target"
	ReasonDailyLimit  Reason = "daily_limit_reached"
	ReasonTooSoon     Reason = "min_spacing"
	ReasonDrawLost    Reason = "draw_lost"
	ReasonDrawWon     Reason = "draw_won"
	ReasonForced      Reason = "forced"
	ReasonUnavailable Reason = "unavailable"
)

// Decision is the outcome of one Decide call.
type Decision struct {
	Post        bool
	Reason      Reason
	Target      int
	TodayCount  int
	Probability float64
	Draw        float64
}

// Decider evaluates Config against a history record.
type Decider struct {
	cfg Config
	rng Rand
}

// New creates a Decider. With a nil rng Decide always skips.
func New(cfg Config, rng Rand) *Decider {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Decider{cfg: cfg, rng: rng}
}

// Config returns the policy in use.
func (d *Decider) Config() Config {
	return d.cfg
}

// DailyTarget returns the stable per-day post target for now's calendar day.
func (d *Decider) DailyTarget(now time.Time) int {
	return DailyTarget(history.Day(now, d.cfg.Location), d.cfg.MinPostsPerDay, d.cfg.MaxPostsPerDay)
}

// DailyTarget maps a YYYY-MM-DD day onto [min, max] with an FNV hash of the
// date, so every process computes the same target for the same day.
func DailyTarget(day string, min, max int) int {
	if max < min {
		return min
	}
	h := fnv.New32a()
	h.Write([]byte(day))
	span := uint32(max - min + 1)
	return min + int(h.Sum32()%span)
}

// Decide reports whether to post now. It never panics; a nil decider or rng
// results in a skip.
func (d *Decider) Decide(now time.Time, rec history.Record) (dec Decision) {
	if d == nil || d.rng == nil {
		return Decision{Reason: ReasonUnavailable}
	}
	defer func() {
		if r := recover(); r != nil {
			dec = Decision{Reason: ReasonUnavailable}
		}
	}()

	dec.Target = d.DailyTarget(now)
	dec.TodayCount = rec.TodayCount(now, d.cfg.Location)

	if dec.Target <= 0 {
		dec.Reason = ReasonNoTarget
		return dec
	}
	if dec.TodayCount >= dec.Target {
		dec.Reason = ReasonDailyLimit
		return dec
	}
	if rec.LastPostAt != nil && now.Sub(*rec.LastPostAt) < d.cfg.MinSpacing {
		dec.Reason = ReasonTooSoon
		return dec
	}

	dec.Probability = d.probability(now, dec.TodayCount, dec.Target)
	dec.Draw = d.rng.Float64()
	if dec.Draw < dec.Probability {
		dec.Post = true
		dec.Reason = ReasonDrawWon
	} else {
		dec.Reason = ReasonDrawLost
	}
	return dec
}

// Force returns a posting Decision without running any check. Target and
// TodayCount are still filled in for reporting.
func (d *Decider) Force(now time.Time, rec history.Record) Decision {
	dec := Decision{Post: true, Reason: ReasonForced}
	if d != nil {
		dec.Target = d.DailyTarget(now)
		dec.TodayCount = rec.TodayCount(now, d.cfg.Location)
	}
	return dec
}

func (d *Decider) probability(now time.Time, count, target int) float64 {
	local := now.In(d.cfg.Location)
	hour := local.Hour()

	p := d.cfg.BaseChance
	if d.cfg.Quiet.contains(hour) {
		p *= d.cfg.Quiet.Factor
	}
	if d.cfg.Peak.contains(hour) {
		p *= d.cfg.Peak.Factor
	}

	elapsed := float64(hour*60+local.Minute()) / (24 * 60)
	if float64(count) < elapsed*float64(target) && d.cfg.CatchUpFactor > 0 {
		p *= d.cfg.CatchUpFactor
	}

	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
