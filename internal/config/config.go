// Package config builds the process configuration from the environment.
// Components never read the environment themselves; cmd/scorenews converts
// Config into each component's own settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// SportDB settings
	SportDBAPIKey  string
	SportDBBaseURL string

	// Text generation settings
	GeminiAPIKey       string
	GeminiModels       []string // tried in order
	OpenAIAPIKey       string   // optional last-resort provider
	OpenAIModel        string
	OpenAIBaseURL      string
	AIRetryDelay       time.Duration
	AIAttemptsPerModel int
	MaxAIRequests      int // per run, 0 = unlimited

	// Facebook page settings
	FBPageID          string
	FBPageAccessToken string
	FBGraphURL        string
	PageName          string
	PostCallToAction  string
	BrandHashtag      string

	// Run behaviour
	ForcePost bool
	DryRun    bool
	Debug     bool
	LogLevel  string

	// Cadence settings
	Timezone       string
	Location       *time.Location
	MinPostsPerDay int
	MaxPostsPerDay int
	MinPostSpacing time.Duration
	BasePostChance float64

	// Recap settings
	RecapMinMatches int // 0 disables recaps
	RecapMaxMatches int
	RecapInterval   time.Duration

	// Storage and outputs
	HistoryFile       string
	DryRunHistoryFile string // file history used by dry runs
	DatabaseURL       string // Postgres history store when set
	RunReportPath     string
	PushgatewayURL    string
	LeaguesConfigPath string

	// App settings
	RequestTimeout time.Duration
}

// LoadDotEnv loads .env.local then .env into the environment. Variables that
// are already set win, and missing files are ignored.
func LoadDotEnv() error {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// Load reads the environment into a Config with defaults applied. It does not
// check required credentials; call Validate (or ValidatePublisher) for that.
func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		SportDBBaseURL:     "https://api.sportdb.dev/api/flashscore/football",
		GeminiModels:       []string{"gemini-2.0-flash", "gemini-1.5-flash"},
		OpenAIModel:        "gpt-4o-mini",
		AIRetryDelay:       20 * time.Second,
		AIAttemptsPerModel: 2,
		MaxAIRequests:      6,
		FBGraphURL:         "https://graph.facebook.com",
		PageName:           "Global Score News",
		BrandHashtag:       "#GlobalScoreNews",
		LogLevel:           "info",
		Timezone:           "UTC",
		MinPostsPerDay:     6,
		MaxPostsPerDay:     10,
		MinPostSpacing:     45 * time.Minute,
		BasePostChance:     0.25,
		RecapMinMatches:    4,
		RecapMaxMatches:    6,
		RecapInterval:      6 * time.Hour,
		HistoryFile:        "data/history.json",
		DryRunHistoryFile:  "data/history.dry-run.json",
		RunReportPath:      "data/run_report.json",
		LeaguesConfigPath:  "configs/leagues.yaml",
		RequestTimeout:     30 * time.Second,
	}

	// Credentials
	cfg.SportDBAPIKey = strings.TrimSpace(os.Getenv("SPORTDB_API_KEY"))
	cfg.GeminiAPIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	cfg.OpenAIAPIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	cfg.FBPageID = strings.TrimSpace(os.Getenv("FB_PAGE_ID"))
	cfg.FBPageAccessToken = strings.TrimSpace(os.Getenv("FB_PAGE_ACCESS_TOKEN"))

	cfg.SportDBBaseURL = getEnvOrDefault("SPORTDB_BASE_URL", cfg.SportDBBaseURL)
	cfg.OpenAIModel = getEnvOrDefault("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.OpenAIBaseURL = getEnvOrDefault("OPENAI_BASE_URL", "")
	cfg.FBGraphURL = getEnvOrDefault("FB_GRAPH_URL", cfg.FBGraphURL)
	cfg.PageName = getEnvOrDefault("PAGE_NAME", cfg.PageName)
	cfg.PostCallToAction = getEnvOrDefault("POST_CALL_TO_ACTION", "")
	cfg.BrandHashtag = getEnvOrDefault("BRAND_HASHTAG", cfg.BrandHashtag)
	cfg.HistoryFile = getEnvOrDefault("HISTORY_FILE", cfg.HistoryFile)
	cfg.DryRunHistoryFile = getEnvOrDefault("DRY_RUN_HISTORY_FILE", cfg.DryRunHistoryFile)
	cfg.DatabaseURL = getEnvOrDefault("DATABASE_URL", "")
	cfg.RunReportPath = getEnvOrDefault("RUN_REPORT_PATH", cfg.RunReportPath)
	cfg.PushgatewayURL = getEnvOrDefault("PUSHGATEWAY_URL", "")
	cfg.LeaguesConfigPath = getEnvOrDefault("LEAGUES_CONFIG_PATH", cfg.LeaguesConfigPath)

	if models := splitList(os.Getenv("GEMINI_MODELS")); len(models) > 0 {
		cfg.GeminiModels = models
	}

	cfg.ForcePost = getEnvBool("FORCE_POST")
	cfg.DryRun = getEnvBool("DRY_RUN")
	cfg.Debug = getEnvBool("DEBUG")
	cfg.LogLevel = strings.ToLower(getEnvOrDefault("LOG_LEVEL", cfg.LogLevel))
	if cfg.Debug {
		cfg.LogLevel = "debug"
	}

	cfg.MinPostsPerDay = getEnvIntOrDefault("MIN_POSTS_PER_DAY", cfg.MinPostsPerDay)
	cfg.MaxPostsPerDay = getEnvIntOrDefault("MAX_POSTS_PER_DAY", cfg.MaxPostsPerDay)
	cfg.MinPostSpacing = time.Duration(getEnvIntOrDefault("MIN_POST_SPACING_MINUTES", int(cfg.MinPostSpacing/time.Minute))) * time.Minute
	cfg.AIRetryDelay = time.Duration(getEnvIntOrDefault("AI_RETRY_DELAY_SECONDS", int(cfg.AIRetryDelay/time.Second))) * time.Second
	cfg.AIAttemptsPerModel = getEnvIntOrDefault("AI_ATTEMPTS_PER_MODEL", cfg.AIAttemptsPerModel)
	cfg.MaxAIRequests = getEnvIntOrDefault("MAX_AI_REQUESTS", cfg.MaxAIRequests)
	cfg.RecapMinMatches = getEnvIntOrDefault("RECAP_MIN_MATCHES", cfg.RecapMinMatches)
	cfg.RecapMaxMatches = getEnvIntOrDefault("RECAP_MAX_MATCHES", cfg.RecapMaxMatches)
	cfg.RecapInterval = time.Duration(getEnvIntOrDefault("RECAP_INTERVAL_HOURS", int(cfg.RecapInterval/time.Hour))) * time.Hour
	cfg.RequestTimeout = time.Duration(getEnvIntOrDefault("REQUEST_TIMEOUT_SECONDS", int(cfg.RequestTimeout/time.Second))) * time.Second

	if v := os.Getenv("BASE_POST_CHANCE"); v != "" {
		val, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("BASE_POST_CHANCE: %w", err)
		}
		cfg.BasePostChance = val
	}

	cfg.Timezone = getEnvOrDefault("TIMEZONE", cfg.Timezone)
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// MissingError names required variables that are not set.
type MissingError struct {
	Vars []string
}

func (e *MissingError) Error() string {
	return "missing required environment variables: " + strings.Join(e.Vars, ", ")
}

// Validate checks everything a posting run needs.
func (c *Config) Validate() error {
	required := []struct{ name, value string }{
		{"SPORTDB_API_KEY", c.SportDBAPIKey},
		{"GEMINI_API_KEY", c.GeminiAPIKey},
		{"FB_PAGE_ID", c.FBPageID},
		{"FB_PAGE_ACCESS_TOKEN", c.FBPageAccessToken},
	}
	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return &MissingError{Vars: missing}
	}

	var errs []error
	if c.MinPostsPerDay < 0 || c.MaxPostsPerDay < c.MinPostsPerDay {
		errs = append(errs, fmt.Errorf("MIN_POSTS_PER_DAY (%d) and MAX_POSTS_PER_DAY (%d) must satisfy 0 <= min <= max", c.MinPostsPerDay, c.MaxPostsPerDay))
	}
	if c.BasePostChance < 0 || c.BasePostChance > 1 {
		errs = append(errs, fmt.Errorf("BASE_POST_CHANCE must be between 0 and 1, got %v", c.BasePostChance))
	}
	if c.MinPostSpacing < 0 {
		errs = append(errs, fmt.Errorf("MIN_POST_SPACING_MINUTES must not be negative"))
	}
	if len(c.GeminiModels) == 0 {
		errs = append(errs, fmt.Errorf("GEMINI_MODELS must list at least one model"))
	}
	if c.RecapMinMatches > 0 && c.RecapMaxMatches < c.RecapMinMatches {
		errs = append(errs, fmt.Errorf("RECAP_MAX_MATCHES (%d) must be at least RECAP_MIN_MATCHES (%d)", c.RecapMaxMatches, c.RecapMinMatches))
	}
	return errors.Join(errs...)
}

// ValidatePublisher checks only the page credentials.
func (c *Config) ValidatePublisher() error {
	var missing []string
	if c.FBPageID == "" {
		missing = append(missing, "FB_PAGE_ID")
	}
	if c.FBPageAccessToken == "" {
		missing = append(missing, "FB_PAGE_ACCESS_TOKEN")
	}
	if len(missing) > 0 {
		return &MissingError{Vars: missing}
	}
	return nil
}
