// Package generator drafts social posts from match data using a list of
// text-generation providers tried in order.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/deusflow/scorenews/internal/ratelimit"
	"github.com/deusflow/scorenews/internal/retry"
)

var (
	// ErrRateLimited marks a provider response that asked us to slow down.
	ErrRateLimited = errors.New("provider rate limited")
	// ErrMalformedOutput is returned when a response holds no usable post.
	ErrMalformedOutput = errors.New("malformed generation output")
	// ErrAllProvidersFailed is returned once every provider has been tried.
	ErrAllProvidersFailed = errors.New("all text-generation providers failed")
)

// Provider is one model endpoint.
type Provider interface {
	Name() string
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Config controls the fallback loop and the house style.
type Config struct {
	// AttemptsPerProvider is how many times a rate-limited provider is
	// retried before moving on.
	AttemptsPerProvider int
	// RetryDelay is the fixed wait after a rate-limit response.
	RetryDelay time.Duration
	Brand      Brand
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		AttemptsPerProvider: 2,
		RetryDelay:          20 * time.Second,
		Brand:               DefaultBrand(),
	}
}

// Generator turns a Request into a Post.
type Generator struct {
	cfg       Config
	providers []Provider
	budget    *ratelimit.Budget
	logger    *slog.Logger
}

// New creates a Generator. budget may be nil for no request cap.
func New(cfg Config, providers []Provider, budget *ratelimit.Budget, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{cfg: cfg, providers: providers, budget: budget, logger: logger}
}

// Generate asks each provider in turn until one returns a parseable post.
// Rate-limited providers are retried after RetryDelay; any other failure,
// including malformed output, moves on to the next provider.
func (g *Generator) Generate(ctx context.Context, req Request) (Post, error) {
	if len(g.providers) == 0 {
		return Post{}, fmt.Errorf("%w: no providers configured", ErrAllProvidersFailed)
	}

	data, err := BuildMatchData(req)
	if err != nil {
		return Post{}, fmt.Errorf("build match data: %w", err)
	}
	system := SystemInstruction(g.cfg.Brand)
	prompt := userPrompt(req.PostType, data)

	var errs []error
	for _, p := range g.providers {
		name := p.Name()
		if !g.budget.Allow(name) {
			errs = append(errs, fmt.Errorf("%s: %w", name, ratelimit.ErrBudgetExhausted))
			continue
		}

		var post Post
		err := retry.Do(ctx, retry.Policy{
			MaxAttempts: g.cfg.AttemptsPerProvider,
			Delay:       g.cfg.RetryDelay,
			Retryable:   func(err error) bool { return errors.Is(err, ErrRateLimited) },
			OnRetry: func(attempt int, err error) {
				g.logger.Warn("provider rate limited, waiting",
					"provider", name,
					"attempt", attempt,
					"delay", g.cfg.RetryDelay)
			},
		}, func(ctx context.Context) error {
			if err := g.budget.Use(name); err != nil {
				return err
			}
			text, err := p.Generate(ctx, system, prompt)
			if err != nil {
				return err
			}
			post, err = ParsePost(text)
			return err
		})
		if err == nil {
			if post.PostType == "" {
				post.PostType = string(req.PostType)
			}
			post.Provider = name
			g.logger.Info("post generated", "provider", name, "chars", len(post.PostText))
			return post, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Post{}, ctxErr
		}

		g.logger.Warn("provider failed, trying next", "provider", name, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}

	return Post{}, fmt.Errorf("%w: %w", ErrAllProvidersFailed, errors.Join(errs...))
}
