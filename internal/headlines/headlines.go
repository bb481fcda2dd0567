// Package headlines pulls recent football headlines from RSS feeds to give
// the generator context about the teams in a post.
package headlines

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/deusflow/scorenews/internal/match"
)

// DefaultLimit is how many headlines are attached to one post.
const DefaultLimit = 3

// minTeamNameLen keeps very short names from matching unrelated words.
const minTeamNameLen = 3

// Headline is one feed item.
type Headline struct {
	Title     string
	Summary   string
	Link      string
	Published time.Time
}

// String renders the headline for a prompt.
func (h Headline) String() string {
	if h.Summary == "" {
		return h.Title
	}
	return h.Title + ": " + h.Summary
}

// Source reads a fixed list of feeds.
type Source struct {
	feeds  []string
	parser *gofeed.Parser
	maxAge time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewSource creates a Source. Items older than maxAge are ignored; zero
// keeps everything.
func NewSource(feeds []string, timeout, maxAge time.Duration, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	return &Source{
		feeds:  feeds,
		parser: parser,
		maxAge: maxAge,
		now:    time.Now,
		logger: logger,
	}
}

// Fetch downloads every feed. A broken feed is logged and skipped.
func (s *Source) Fetch(ctx context.Context) []Headline {
	var out []Headline
	ok := 0
	for _, url := range s.feeds {
		feed, err := s.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			s.logger.Warn("error parsing feed", "url", url, "error", err)
			continue
		}
		ok++
		for _, item := range feed.Items {
			h := Headline{
				Title:   strings.TrimSpace(item.Title),
				Summary: PlainText(item.Description),
				Link:    item.Link,
			}
			if item.PublishedParsed != nil {
				h.Published = *item.PublishedParsed
			}
			if h.Title == "" || s.tooOld(h) {
				continue
			}
			out = append(out, h)
		}
	}
	s.logger.Debug("processed feeds", "ok", ok, "total", len(s.feeds), "items", len(out))
	return out
}

func (s *Source) tooOld(h Headline) bool {
	return s.maxAge > 0 && !h.Published.IsZero() && s.now().Sub(h.Published) > s.maxAge
}

// ForMatches returns up to limit rendered headlines mentioning any team in
// matches. Failures yield an empty result.
func (s *Source) ForMatches(ctx context.Context, matches []match.Match, limit int) []string {
	if s == nil || len(s.feeds) == 0 || len(matches) == 0 {
		return nil
	}
	var teams []string
	for _, m := range matches {
		teams = append(teams, m.HomeTeam, m.AwayTeam)
	}
	relevant := Relevant(s.Fetch(ctx), teams, limit)
	out := make([]string, 0, len(relevant))
	for _, h := range relevant {
		out = append(out, h.String())
	}
	return out
}

// Relevant keeps headlines whose title or summary names one of teams, newest
// first, without duplicate titles, capped at limit.
func Relevant(items []Headline, teams []string, limit int) []Headline {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var needles []string
	for _, t := range teams {
		t = strings.ToLower(strings.TrimSpace(t))
		if len(t) >= minTeamNameLen {
			needles = append(needles, t)
		}
	}
	if len(needles) == 0 {
		return nil
	}

	var out []Headline
	seen := make(map[string]bool)
	for _, h := range items {
		key := strings.ToLower(h.Title)
		if seen[key] {
			continue
		}
		text := key + " " + strings.ToLower(h.Summary)
		for _, n := range needles {
			if strings.Contains(text, n) {
				seen[key] = true
				out = append(out, h)
				break
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Published.After(out[j].Published)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// PlainText strips HTML markup from a feed description.
func PlainText(html string) string {
	if !strings.Contains(html, "<") {
		return strings.Join(strings.Fields(html), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
