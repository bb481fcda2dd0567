// Package sportsdata fetches raw football fixtures from the SportDB API.
package sportsdata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

const (
	// DefaultBaseURL is the flashscore football root of SportDB.
	DefaultBaseURL = "https://api.sportdb.dev/api/flashscore/football"

	endpointLive  = "/live"
	endpointToday = "/today"

	maxBodyBytes = 8 << 20
)

// wrapperKeys are the object fields providers nest the fixture array under.
var wrapperKeys = []string{"matches", "events", "data", "response", "fixtures"}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("sportsdata %s: status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("sportsdata %s: status %d: %s", e.Endpoint, e.Status, e.Body)
}

// Config holds the client settings.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the live and today endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

// NewClient creates a Client. Empty fields fall back to defaults.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		logger:     logger,
	}
}

// Live returns the matches currently in play. It is best effort: any failure
// is logged and reported as an empty list.
func (c *Client) Live(ctx context.Context) []map[string]any {
	matches, err := c.get(ctx, endpointLive)
	if err != nil {
		c.logger.Warn("live matches unavailable, continuing without them", "error", err)
		return nil
	}
	return matches
}

// Today returns every fixture scheduled for today. Failures are returned.
func (c *Client) Today(ctx context.Context) ([]map[string]any, error) {
	return c.get(ctx, endpointToday)
}

// Fetch returns live matches followed by today's matches. Only a failure of
// the today endpoint is an error.
func (c *Client) Fetch(ctx context.Context) ([]map[string]any, error) {
	live := c.Live(ctx)
	today, err := c.Today(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch today's matches: %w", err)
	}
	c.logger.Info("fetched matches", "live", len(live), "today", len(today))

	out := make([]map[string]any, 0, len(live)+len(today))
	out = append(out, live...)
	return append(out, today...), nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Endpoint: endpoint, Status: resp.StatusCode, Body: abbreviate(raw)}
	}

	matches, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return matches, nil
}

// decode accepts either a bare array or an object wrapping the array under
// one of wrapperKeys. Array elements that are not objects are skipped.
func decode(raw []byte) ([]map[string]any, error) {
	var payload any
	if err := jsoniter.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return unwrap(payload, 2), nil
}

func unwrap(v any, depth int) []map[string]any {
	switch typed := v.(type) {
	case []any:
		out := make([]map[string]any, 0, len(typed))
		for _, item := range typed {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		if depth == 0 {
			return nil
		}
		for _, k := range wrapperKeys {
			if inner, ok := typed[k]; ok && inner != nil {
				if out := unwrap(inner, depth-1); out != nil {
					return out
				}
			}
		}
	}
	return nil
}

func abbreviate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 300 {
		return s[:300] + "..."
	}
	return s
}
