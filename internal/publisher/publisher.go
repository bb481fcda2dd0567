// Package publisher delivers finished posts to a Facebook page feed.
package publisher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

const (
	// DefaultGraphURL is the public Graph API host.
	DefaultGraphURL = "https://graph.facebook.com"
	// GraphVersion is the pinned Graph API version.
	GraphVersion = "v18.0"

	maxBodyBytes = 1 << 20
)

// Publisher posts a message and returns the created post id.
type Publisher interface {
	Publish(ctx context.Context, message string) (string, error)
}

// APIError is a failed Graph API call. Status is the HTTP status; Code and
// Message come from the error body when it could be parsed.
type APIError struct {
	Status  int
	Code    int
	Message string
	Body    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("facebook api: status %d code %d: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("facebook api: status %d: %s", e.Status, e.Body)
}

// InvalidToken reports whether the error is an expired or revoked token.
func (e *APIError) InvalidToken() bool {
	return e.Code == 190
}

// Config holds the page credentials.
type Config struct {
	PageID      string
	AccessToken string
	GraphURL    string
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// Facebook publishes to a page feed. Publish is never retried, so a timeout
// after the server accepted the post cannot produce a duplicate.
type Facebook struct {
	httpClient *http.Client
	baseURL    string
	pageID     string
	token      string
	logger     *slog.Logger
}

// NewFacebook creates a page client.
func NewFacebook(cfg Config, logger *slog.Logger) *Facebook {
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
	base := strings.TrimRight(strings.TrimSpace(cfg.GraphURL), "/")
	if base == "" {
		base = DefaultGraphURL
	}
	return &Facebook{
		httpClient: httpClient,
		baseURL:    base + "/" + GraphVersion,
		pageID:     cfg.PageID,
		token:      cfg.AccessToken,
		logger:     logger,
	}
}

type graphError struct {
	Error *struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
	} `json:"error"`
}

// Publish posts message to the page feed as a form-encoded request.
func (f *Facebook) Publish(ctx context.Context, message string) (string, error) {
	form := url.Values{}
	form.Set("message", message)
	form.Set("access_token", f.token)

	endpoint := fmt.Sprintf("%s/%s/feed", f.baseURL, url.PathEscape(f.pageID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build publish request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, status, err := f.do(req)
	if err != nil {
		return "", err
	}
	if apiErr := parseError(status, body); apiErr != nil {
		return "", apiErr
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := jsoniter.Unmarshal(body, &out); err != nil || out.ID == "" {
		return "", &APIError{Status: status, Message: "response has no post id", Body: abbreviate(body)}
	}
	f.logger.Info("published to page", "post_id", out.ID)
	return out.ID, nil
}

// PageInfo is what /me returns for a page token.
type PageInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// VerifyToken checks the access token against /me.
func (f *Facebook) VerifyToken(ctx context.Context) (PageInfo, error) {
	q := url.Values{}
	q.Set("access_token", f.token)
	q.Set("fields", "id,name")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/me?"+q.Encode(), nil)
	if err != nil {
		return PageInfo{}, fmt.Errorf("build verify request: %w", err)
	}
	body, status, err := f.do(req)
	if err != nil {
		return PageInfo{}, err
	}
	if apiErr := parseError(status, body); apiErr != nil {
		return PageInfo{}, apiErr
	}

	var info PageInfo
	if err := jsoniter.Unmarshal(body, &info); err != nil {
		return PageInfo{}, fmt.Errorf("decode /me response: %w", err)
	}
	return info, nil
}

func (f *Facebook) do(req *http.Request) ([]byte, int, error) {
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("facebook request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read facebook response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// parseError returns an APIError for non-2xx responses and for 2xx bodies
// that carry an error object.
func parseError(status int, body []byte) *APIError {
	var ge graphError
	_ = jsoniter.Unmarshal(body, &ge)

	ok := status >= 200 && status < 300
	if ok && ge.Error == nil {
		return nil
	}
	apiErr := &APIError{Status: status, Body: abbreviate(body)}
	if ge.Error != nil {
		apiErr.Code = ge.Error.Code
		apiErr.Message = ge.Error.Message
	}
	return apiErr
}

func abbreviate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 500 {
		return s[:500] + "..."
	}
	return s
}

// DryRun logs messages instead of publishing them.
type DryRun struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewDryRun creates a DryRun publisher.
func NewDryRun(logger *slog.Logger) *DryRun {
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRun{logger: logger, now: time.Now}
}

func (d *DryRun) Publish(_ context.Context, message string) (string, error) {
	id := fmt.Sprintf("dry-run-%d", d.now().Unix())
	d.logger.Info("dry run, not publishing", "post_id", id, "message", message)
	return id, nil
}
