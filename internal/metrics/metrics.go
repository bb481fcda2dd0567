// Package metrics collects the statistics of one run, writes them as a JSON
// report and optionally pushes them to a Prometheus Pushgateway.
package metrics

import (
	"sync"
	"time"
)

// Outcome is how a run ended.
type Outcome string

const (
	OutcomePosted  Outcome = "posted"
	OutcomeDryRun  Outcome = "dry_run"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Report is the serialized form of a run.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
	Outcome    Outcome   `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`

	// Cadence
	Forced      bool    `json:"forced"`
	TodayCount  int     `json:"today_count"`
	DailyTarget int     `json:"daily_target"`
	Probability float64 `json:"probability"`

	// Matches
	MatchesFetched int `json:"matches_fetched"`
	MatchesValid   int `json:"matches_valid"`
	TopLeague      int `json:"matches_top_league"`

	// Selection and publishing
	Tier       string   `json:"tier,omitempty"`
	PostType   string   `json:"post_type,omitempty"`
	MatchKeys  []string `json:"match_keys,omitempty"`
	Provider   string   `json:"provider,omitempty"`
	AIRequests int      `json:"ai_requests"`
	PostID     string   `json:"post_id,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Run accumulates statistics while a run progresses.
type Run struct {
	mu     sync.Mutex
	report Report
	now    func() time.Time
}

// NewRun starts a run clock.
func NewRun(runID string, now func() time.Time) *Run {
	if now == nil {
		now = time.Now
	}
	return &Run{
		report: Report{RunID: runID, StartedAt: now()},
		now:    now,
	}
}

func (r *Run) SetCadence(forced bool, todayCount, target int, probability float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Forced = forced
	r.report.TodayCount = todayCount
	r.report.DailyTarget = target
	r.report.Probability = probability
}

func (r *Run) SetMatches(fetched, valid, topLeague int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.MatchesFetched = fetched
	r.report.MatchesValid = valid
	r.report.TopLeague = topLeague
}

func (r *Run) SetSelection(tier, postType string, keys []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Tier = tier
	r.report.PostType = postType
	r.report.MatchKeys = append([]string(nil), keys...)
}

func (r *Run) SetGeneration(provider string, aiRequests int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Provider = provider
	r.report.AIRequests = aiRequests
}

func (r *Run) SetPostID(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.PostID = id
}

// Finish stamps the outcome. err may be nil.
func (r *Run) Finish(outcome Outcome, reason string, err error) Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Outcome = outcome
	r.report.Reason = reason
	if err != nil {
		r.report.Error = err.Error()
	}
	r.report.FinishedAt = r.now()
	r.report.DurationMS = r.report.FinishedAt.Sub(r.report.StartedAt).Milliseconds()
	return r.snapshot()
}

// Report returns a copy of the current state.
func (r *Run) Report() Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

func (r *Run) snapshot() Report {
	out := r.report
	out.MatchKeys = append([]string(nil), r.report.MatchKeys...)
	return out
}
