// Package app wires one scheduled invocation together: load history, decide,
// fetch, classify, select, generate, publish and record.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/deusflow/scorenews/internal/cadence"
	"github.com/deusflow/scorenews/internal/generator"
	"github.com/deusflow/scorenews/internal/headlines"
	"github.com/deusflow/scorenews/internal/history"
	"github.com/deusflow/scorenews/internal/match"
	"github.com/deusflow/scorenews/internal/metrics"
	"github.com/deusflow/scorenews/internal/publisher"
	"github.com/deusflow/scorenews/internal/ratelimit"
	"github.com/deusflow/scorenews/internal/selector"
)

// Skip reasons reported when a run ends without posting and without error.
const (
	ReasonNoMatches    = "no_matches"
	ReasonNoCandidates = "no_candidates"
)

// Source returns raw fixtures for the current day.
type Source interface {
	Fetch(ctx context.Context) ([]map[string]any, error)
}

// Writer turns selected matches into a post.
type Writer interface {
	Generate(ctx context.Context, req generator.Request) (generator.Post, error)
}

// HeadlineSource returns rendered headlines about the given matches. It must
// not fail; a broken source returns nothing.
type HeadlineSource interface {
	ForMatches(ctx context.Context, matches []match.Match, limit int) []string
}

// Deps are the collaborators of a run. Headlines and Budget may be nil.
type Deps struct {
	History    history.Store
	Cadence    *cadence.Decider
	Classifier *match.Classifier
	Selector   *selector.Selector
	Source     Source
	Writer     Writer
	Publisher  publisher.Publisher
	Headlines  HeadlineSource
	Budget     *ratelimit.Budget
	Now        func() time.Time
	Logger     *slog.Logger
}

// Options change how a run behaves.
type Options struct {
	// Force skips the cadence decision.
	Force bool
	// DryRun only changes the reported outcome; the publisher in Deps is
	// expected to be a dry-run one.
	DryRun        bool
	Location      *time.Location
	HeadlineLimit int
}

// Result describes how a run ended.
type Result struct {
	Outcome   metrics.Outcome
	Reason    string
	Decision  cadence.Decision
	Selection selector.Selection
	Post      generator.Post
	PostID    string
}

// App runs the posting pipeline.
type App struct {
	deps Deps
	opts Options
}

// New creates an App. Missing optional fields get defaults.
func New(deps Deps, opts Options) *App {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
		if deps.Cadence != nil {
			opts.Location = deps.Cadence.Config().Location
		}
	}
	if opts.HeadlineLimit <= 0 {
		opts.HeadlineLimit = headlines.DefaultLimit
	}
	return &App{deps: deps, opts: opts}
}

// Run executes one invocation. Skips return a nil error with
// OutcomeSkipped; every returned error is fatal for the process. stats may
// be nil.
func (a *App) Run(ctx context.Context, stats *metrics.Run) (Result, error) {
	if stats == nil {
		stats = metrics.NewRun("", a.deps.Now)
	}
	log := a.deps.Logger
	now := a.deps.Now()

	rec := a.deps.History.Load(ctx)

	var dec cadence.Decision
	if a.opts.Force {
		dec = a.deps.Cadence.Force(now, rec)
	} else {
		dec = a.deps.Cadence.Decide(now, rec)
	}
	stats.SetCadence(a.opts.Force, dec.TodayCount, dec.Target, dec.Probability)
	res := Result{Decision: dec}

	log.Info("cadence decision",
		"post", dec.Post,
		"reason", dec.Reason,
		"today", dec.TodayCount,
		"target", dec.Target,
		"probability", dec.Probability)
	if !dec.Post {
		return a.skip(res, string(dec.Reason)), nil
	}

	raws, err := a.deps.Source.Fetch(ctx)
	if err != nil {
		return a.fail(res, "fetch"), fmt.Errorf("fetch matches: %w", err)
	}

	matches := match.Dedupe(a.deps.Classifier.Classify(raws, history.Day(now, a.opts.Location)))
	top := 0
	for _, m := range matches {
		if m.TopLeague {
			top++
		}
	}
	stats.SetMatches(len(raws), len(matches), top)
	log.Info("matches classified", "fetched", len(raws), "valid", len(matches), "top_league", top)
	if len(matches) == 0 {
		return a.skip(res, ReasonNoMatches), nil
	}

	sel := a.deps.Selector.Recap(matches, rec, now)
	if sel.Empty() {
		sel = a.deps.Selector.Select(matches, rec)
	}
	res.Selection = sel
	if sel.Empty() {
		return a.skip(res, ReasonNoCandidates), nil
	}
	stats.SetSelection(string(sel.Tier), string(sel.PostType), sel.Keys())
	log.Info("matches selected", "tier", sel.Tier, "post_type", sel.PostType, "count", len(sel.Matches))

	req := generator.Request{
		PostType: sel.PostType,
		Matches:  sel.Matches,
		Now:      now,
	}
	if a.deps.Headlines != nil {
		req.Headlines = a.deps.Headlines.ForMatches(ctx, sel.Matches, a.opts.HeadlineLimit)
	}

	post, err := a.deps.Writer.Generate(ctx, req)
	stats.SetGeneration(post.Provider, a.deps.Budget.Total())
	a.deps.Budget.LogStats()
	if err != nil {
		return a.fail(res, "generate"), fmt.Errorf("generate post: %w", err)
	}
	res.Post = post

	id, err := a.deps.Publisher.Publish(ctx, post.Message())
	if err != nil {
		return a.fail(res, "publish"), fmt.Errorf("publish post: %w", err)
	}
	res.PostID = id
	stats.SetPostID(id)

	rec = history.RecordPost(rec, sel.Keys(), sel.PostType, now, a.opts.Location)
	if err := a.deps.History.Save(ctx, rec); err != nil {
		return a.fail(res, "save_history"), fmt.Errorf("save history after post %s: %w", id, err)
	}

	res.Outcome = metrics.OutcomePosted
	if a.opts.DryRun {
		res.Outcome = metrics.OutcomeDryRun
	}
	log.Info("run complete", "outcome", res.Outcome, "post_id", id, "keys", sel.Keys())
	return res, nil
}

func (a *App) skip(res Result, reason string) Result {
	res.Outcome = metrics.OutcomeSkipped
	res.Reason = reason
	a.deps.Logger.Info("skipping this run", "reason", reason)
	return res
}

func (a *App) fail(res Result, step string) Result {
	res.Outcome = metrics.OutcomeFailed
	res.Reason = step
	return res
}
