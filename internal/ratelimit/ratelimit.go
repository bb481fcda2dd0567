package ratelimit

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// ErrBudgetExhausted is returned by Use once a limit is reached.
var ErrBudgetExhausted = errors.New("ai request budget exhausted")

// Budget caps text-generation requests for one run, per provider and in
// total. A limit of zero means unlimited.
type Budget struct {
	mu       sync.Mutex
	limits   map[string]int
	counts   map[string]int
	total    int
	maxTotal int
	logger   *slog.Logger
}

// NewBudget creates a Budget with a total cap and optional per-provider caps.
func NewBudget(maxTotal int, perProvider map[string]int, logger *slog.Logger) *Budget {
	if logger == nil {
		logger = slog.Default()
	}
	limits := make(map[string]int, len(perProvider))
	for name, limit := range perProvider {
		limits[name] = limit
	}
	return &Budget{
		limits:   limits,
		counts:   make(map[string]int),
		maxTotal: maxTotal,
		logger:   logger,
	}
}

// Allow reports whether provider may make another request.
func (b *Budget) Allow(provider string) bool {
	if b == nil {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.check(provider) == nil
}

// Use records one request for provider, or returns ErrBudgetExhausted.
func (b *Budget) Use(provider string) error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.check(provider); err != nil {
		b.logger.Warn("ai request budget reached", "provider", provider, "error", err)
		return err
	}
	b.counts[provider]++
	b.total++
	b.logger.Debug("ai request", "provider", provider, "used", b.counts[provider], "total", b.total, "max_total", b.maxTotal)
	return nil
}

func (b *Budget) check(provider string) error {
	if limit := b.limits[provider]; limit > 0 && b.counts[provider] >= limit {
		return fmt.Errorf("%w: %s %d/%d", ErrBudgetExhausted, provider, b.counts[provider], limit)
	}
	if b.maxTotal > 0 && b.total >= b.maxTotal {
		return fmt.Errorf("%w: total %d/%d", ErrBudgetExhausted, b.total, b.maxTotal)
	}
	return nil
}

// Total returns the number of recorded requests.
func (b *Budget) Total() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

// Stats returns per-provider usage.
func (b *Budget) Stats() map[string]int {
	out := make(map[string]int)
	if b == nil {
		return out
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for name, n := range b.counts {
		out[name] = n
	}
	return out
}

// LogStats writes one line per provider.
func (b *Budget) LogStats() {
	if b == nil {
		return
	}
	stats := b.Stats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.logger.Info("ai usage", "provider", name, "requests", stats[name])
	}
}
