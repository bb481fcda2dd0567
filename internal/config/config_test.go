package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/scorenews/internal/match"
)

var allVars = []string{
	"SPORTDB_API_KEY", "GEMINI_API_KEY", "FB_PAGE_ID", "FB_PAGE_ACCESS_TOKEN",
	"OPENAI_API_KEY", "GEMINI_MODELS", "FORCE_POST", "DRY_RUN", "DEBUG", "LOG_LEVEL",
	"TIMEZONE", "MIN_POSTS_PER_DAY", "MAX_POSTS_PER_DAY", "MIN_POST_SPACING_MINUTES",
	"BASE_POST_CHANCE", "RECAP_MIN_MATCHES", "RECAP_MAX_MATCHES", "RECAP_INTERVAL_HOURS",
	"HISTORY_FILE", "DRY_RUN_HISTORY_FILE", "DATABASE_URL", "MAX_AI_REQUESTS", "AI_RETRY_DELAY_SECONDS",
}

// clearEnv blanks every variable Load reads so the host environment does
// not leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allVars {
		t.Setenv(k, "")
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SPORTDB_API_KEY", "sport")
	t.Setenv("GEMINI_API_KEY", "gem")
	t.Setenv("FB_PAGE_ID", "123")
	t.Setenv("FB_PAGE_ACCESS_TOKEN", "tok")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 6, cfg.MinPostsPerDay)
	assert.Equal(t, 10, cfg.MaxPostsPerDay)
	assert.Equal(t, 45*time.Minute, cfg.MinPostSpacing)
	assert.Equal(t, "data/history.json", cfg.HistoryFile)
	assert.Equal(t, "data/history.dry-run.json", cfg.DryRunHistoryFile)
	assert.Equal(t, []string{"gemini-2.0-flash", "gemini-1.5-flash"}, cfg.GeminiModels)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.False(t, cfg.ForcePost)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("FORCE_POST", "true")
	t.Setenv("DRY_RUN", "1")
	t.Setenv("DEBUG", "true")
	t.Setenv("GEMINI_MODELS", " gemini-a , ,gemini-b ")
	t.Setenv("MIN_POSTS_PER_DAY", "2")
	t.Setenv("MAX_POSTS_PER_DAY", "3")
	t.Setenv("MIN_POST_SPACING_MINUTES", "90")
	t.Setenv("BASE_POST_CHANCE", "0.5")
	t.Setenv("RECAP_INTERVAL_HOURS", "12")
	t.Setenv("TIMEZONE", "Europe/London")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.ForcePost)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"gemini-a", "gemini-b"}, cfg.GeminiModels)
	assert.Equal(t, 2, cfg.MinPostsPerDay)
	assert.Equal(t, 3, cfg.MaxPostsPerDay)
	assert.Equal(t, 90*time.Minute, cfg.MinPostSpacing)
	assert.Equal(t, 0.5, cfg.BasePostChance)
	assert.Equal(t, 12*time.Hour, cfg.RecapInterval)
	assert.Equal(t, "Europe/London", cfg.Location.String())
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err := Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("BASE_POST_CHANCE", "often")
	_, err = Load()
	assert.Error(t, err)
}

func TestValidateNamesMissingVariables(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "gem")

	cfg, err := Load()
	require.NoError(t, err)

	err = cfg.Validate()
	var missing *MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"SPORTDB_API_KEY", "FB_PAGE_ID", "FB_PAGE_ACCESS_TOKEN"}, missing.Vars)
	assert.Contains(t, err.Error(), "FB_PAGE_ID")

	err = cfg.ValidatePublisher()
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"FB_PAGE_ID", "FB_PAGE_ACCESS_TOKEN"}, missing.Vars)
}

func TestValidateRanges(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("MIN_POSTS_PER_DAY", "8")
	t.Setenv("MAX_POSTS_PER_DAY", "4")
	t.Setenv("BASE_POST_CHANCE", "1.5")

	cfg, err := Load()
	require.NoError(t, err)
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_POSTS_PER_DAY")
	assert.Contains(t, err.Error(), "BASE_POST_CHANCE")
}

func TestLoadLeagues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leagues.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top:\n  - SERIE A\n  - EREDIVISIE\nfeeds:\n  - https://example.com/rss\n"), 0o644))

	file, err := LoadLeagues(path)
	require.NoError(t, err)

	leagues := file.Leagues()
	assert.Equal(t, []string{"SERIE A", "EREDIVISIE"}, leagues.Top)
	assert.Equal(t, match.DefaultLeagues().Exclude, leagues.Exclude)
	assert.Equal(t, []string{"https://example.com/rss"}, file.FeedURLs())

	top, rank := leagues.Classify("Eredivisie 2024")
	assert.True(t, top)
	assert.Equal(t, 1, rank)
}

func TestLoadLeaguesMissingOrEmpty(t *testing.T) {
	file, err := LoadLeagues(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, match.DefaultLeagues(), file.Leagues())
	assert.Equal(t, DefaultFeeds, file.FeedURLs())

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = LoadLeagues(empty)
	assert.NoError(t, err)

	broken := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("top: [unclosed"), 0o644))
	_, err = LoadLeagues(broken)
	assert.Error(t, err)
}

func TestShippedLeaguesFileMatchesDefaults(t *testing.T) {
	file, err := LoadLeagues(filepath.Join("..", "..", "configs", "leagues.yaml"))
	require.NoError(t, err)
	assert.Equal(t, match.DefaultLeagues(), file.Leagues())
	assert.Equal(t, DefaultFeeds, file.FeedURLs())
}
