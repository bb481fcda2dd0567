package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/deusflow/scorenews/internal/app"
	"github.com/deusflow/scorenews/internal/cadence"
	"github.com/deusflow/scorenews/internal/config"
	"github.com/deusflow/scorenews/internal/generator"
	"github.com/deusflow/scorenews/internal/headlines"
	"github.com/deusflow/scorenews/internal/history"
	"github.com/deusflow/scorenews/internal/match"
	"github.com/deusflow/scorenews/internal/publisher"
	"github.com/deusflow/scorenews/internal/ratelimit"
	"github.com/deusflow/scorenews/internal/selector"
	"github.com/deusflow/scorenews/internal/sportsdata"
)

// headlineMaxAge drops feed items older than this from the prompt.
const headlineMaxAge = 48 * time.Hour

func historyPolicy() history.Policy {
	return history.DefaultPolicy()
}

func cadenceConfig(cfg *config.Config) cadence.Config {
	cc := cadence.DefaultConfig()
	cc.MinPostsPerDay = cfg.MinPostsPerDay
	cc.MaxPostsPerDay = cfg.MaxPostsPerDay
	cc.MinSpacing = cfg.MinPostSpacing
	cc.BaseChance = cfg.BasePostChance
	cc.Location = cfg.Location
	return cc
}

// historyFile is the file store path for this run. Dry runs keep their own
// file so a trial run does not use up the real day's posts.
func historyFile(cfg *config.Config) string {
	if cfg.DryRun && cfg.DryRunHistoryFile != "" {
		return cfg.DryRunHistoryFile
	}
	return cfg.HistoryFile
}

// openHistory returns the Postgres store when DATABASE_URL is set and the
// JSON file store otherwise.
func openHistory(ctx context.Context, cfg *config.Config, log *slog.Logger) (history.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		path := historyFile(cfg)
		log.Debug("using file history store", "path", path)
		return history.NewFileStore(path, historyPolicy(), cfg.Location, log), func() {}, nil
	}
	if cfg.DryRun {
		log.Warn("dry run records to the postgres history; its posts count toward the real daily target")
	}
	store, err := history.OpenPostgres(ctx, cfg.DatabaseURL, historyPolicy(), cfg.Location, log)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres history: %w", err)
	}
	log.Debug("using postgres history store")
	return store, func() {
		if err := store.Close(); err != nil {
			log.Warn("closing postgres history", "error", err)
		}
	}, nil
}

// buildProviders returns one provider per Gemini model, then OpenAI when a
// key is configured.
func buildProviders(ctx context.Context, cfg *config.Config) ([]generator.Provider, func(), error) {
	client, err := generator.NewGeminiClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, nil, err
	}
	var providers []generator.Provider
	for _, model := range cfg.GeminiModels {
		providers = append(providers, generator.NewGeminiProvider(client, model))
	}
	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, generator.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel))
	}
	return providers, func() { _ = client.Close() }, nil
}

// buildApp converts the configuration into the run's collaborators. The
// returned cleanup releases clients and connections.
func buildApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app.App, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	leagues, err := config.LoadLeagues(cfg.LeaguesConfigPath)
	if err != nil {
		return nil, nil, err
	}

	store, closeStore, err := openHistory(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanups = append(cleanups, closeStore)

	providers, closeProviders, err := buildProviders(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, closeProviders)

	budget := ratelimit.NewBudget(cfg.MaxAIRequests, nil, log)
	brand := generator.Brand{
		PageName:     cfg.PageName,
		CallToAction: cfg.PostCallToAction,
		Hashtag:      cfg.BrandHashtag,
	}
	gen := generator.New(generator.Config{
		AttemptsPerProvider: cfg.AIAttemptsPerModel,
		RetryDelay:          cfg.AIRetryDelay,
		Brand:               brand,
	}, providers, budget, log)

	var pub publisher.Publisher
	if cfg.DryRun {
		pub = publisher.NewDryRun(log)
	} else {
		pub = publisher.NewFacebook(publisher.Config{
			PageID:      cfg.FBPageID,
			AccessToken: cfg.FBPageAccessToken,
			GraphURL:    cfg.FBGraphURL,
			Timeout:     cfg.RequestTimeout,
		}, log)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sel := selector.DefaultConfig()
	sel.RecapMin = cfg.RecapMinMatches
	sel.RecapMax = cfg.RecapMaxMatches
	sel.RecapInterval = cfg.RecapInterval

	a := app.New(app.Deps{
		History:    store,
		Cadence:    cadence.New(cadenceConfig(cfg), rng),
		Classifier: match.NewClassifier(leagues.Leagues(), log),
		Selector:   selector.New(sel, rng, log),
		Source: sportsdata.NewClient(sportsdata.Config{
			BaseURL: cfg.SportDBBaseURL,
			APIKey:  cfg.SportDBAPIKey,
			Timeout: cfg.RequestTimeout,
		}, log),
		Writer:    gen,
		Publisher: pub,
		Headlines: headlines.NewSource(leagues.FeedURLs(), cfg.RequestTimeout, headlineMaxAge, log),
		Budget:    budget,
		Logger:    log,
	}, app.Options{
		Force:    cfg.ForcePost,
		DryRun:   cfg.DryRun,
		Location: cfg.Location,
	})
	return a, cleanup, nil
}
