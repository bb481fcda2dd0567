package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// JobName is the Pushgateway job label.
const JobName = "scorenews"

// WriteReport writes r as indented JSON to path, replacing any previous
// report atomically.
func WriteReport(path string, r Report) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".run_report-*.json")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write run report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close run report: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Collectors returns gauges describing r, registered on a fresh registry.
func Collectors(r Report) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	gauge := func(name, help string, v float64) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scorenews",
			Name:      name,
			Help:      help,
		})
		g.Set(v)
		reg.MustRegister(g)
	}

	gauge("run_duration_seconds", "Duration of the last run.", float64(r.DurationMS)/1000)
	gauge("run_finished_timestamp_seconds", "Unix time the last run finished.", float64(r.FinishedAt.Unix()))
	gauge("posts_today", "Posts published today before this run.", float64(r.TodayCount))
	gauge("daily_target", "Derived post target for today.", float64(r.DailyTarget))
	gauge("post_probability", "Probability used by the cadence draw.", r.Probability)
	gauge("matches_fetched", "Raw matches returned by the sports API.", float64(r.MatchesFetched))
	gauge("matches_valid", "Matches that passed normalization.", float64(r.MatchesValid))
	gauge("matches_top_league", "Valid matches in a top league.", float64(r.TopLeague))
	gauge("ai_requests", "Text-generation requests made.", float64(r.AIRequests))

	outcome := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "scorenews",
		Name:      "run_outcome",
		Help:      "1 for the outcome of the last run, 0 for the others.",
	}, []string{"outcome"})
	for _, o := range []Outcome{OutcomePosted, OutcomeDryRun, OutcomeSkipped, OutcomeFailed} {
		v := 0.0
		if o == r.Outcome {
			v = 1
		}
		outcome.WithLabelValues(string(o)).Set(v)
	}
	reg.MustRegister(outcome)

	return reg
}

// Push sends r to the Pushgateway at url, replacing the job's metrics.
func Push(ctx context.Context, url string, r Report) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, JobName).Gatherer(Collectors(r)).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
