package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/deusflow/scorenews/internal/match"
)

// DefaultFeeds are the football RSS feeds used for headline context when the
// leagues file lists none.
var DefaultFeeds = []string{
	"https://feeds.bbci.co.uk/sport/football/rss.xml",
	"https://www.theguardian.com/football/rss",
	"https://www.espn.com/espn/rss/soccer/news",
}

// LeaguesFile is the YAML structure of the leagues config:
//
//	top:
//	  - CHAMPIONS LEAGUE
//	exclude:
//	  - U19
//	feeds:
//	  - https://...
type LeaguesFile struct {
	Top     []string `yaml:"top"`
	Exclude []string `yaml:"exclude"`
	Feeds   []string `yaml:"feeds"`
}

// Leagues converts the file into classifier settings. Empty lists fall back
// to the built-in defaults.
func (f LeaguesFile) Leagues() match.Leagues {
	l := match.DefaultLeagues()
	if len(f.Top) > 0 {
		l.Top = f.Top
	}
	if len(f.Exclude) > 0 {
		l.Exclude = f.Exclude
	}
	return l
}

// FeedURLs returns the configured feeds or DefaultFeeds.
func (f LeaguesFile) FeedURLs() []string {
	if len(f.Feeds) > 0 {
		return f.Feeds
	}
	return DefaultFeeds
}

// LoadLeagues reads the leagues YAML file. A missing file is not an error and
// yields an empty LeaguesFile, so every field uses its default.
func LoadLeagues(path string) (LeaguesFile, error) {
	var cfg LeaguesFile
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("open leagues config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return LeaguesFile{}, nil
		}
		return LeaguesFile{}, fmt.Errorf("parse leagues config %s: %w", path, err)
	}
	return cfg, nil
}
