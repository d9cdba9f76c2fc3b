package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultFeedName names the feed synthesized from the top-level gtfs/gtfsrt sections
const DefaultFeedName = "default"

// ErrNoConfig is returned when none of the search paths holds a config file
var ErrNoConfig = errors.New("no config file found")

// Config is the global application configuration
var Config AppConfig

var searchPaths = []string{"config.yml", "config.yaml", "config.toml"}

// LoadAppConfig loads and validates the application configuration from the first config file found
// in the working directory and stores it in Config.
func LoadAppConfig() error {
	for _, p := range searchPaths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		cfg, err := LoadFile(p)
		if err != nil {
			return err
		}
		Config = cfg
		return nil
	}
	return ErrNoConfig
}

// LoadFile reads a YAML or TOML file (by extension), applies defaults and validates it.
func LoadFile(path string) (AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	var cfg AppConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return AppConfig{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// Validate checks struct tags and cross-field rules
func Validate(cfg AppConfig) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return err
	}
	seen := map[string]struct{}{}
	for _, f := range cfg.Feeds {
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("duplicate feed name %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 16181
	}
	if cfg.Server.FrameEveryMS == 0 {
		cfg.Server.FrameEveryMS = 200
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Playback.FrameIntervalMS == 0 {
		cfg.Playback.FrameIntervalMS = 16
	}
	if cfg.Playback.RetryIntervalMS == 0 {
		cfg.Playback.RetryIntervalMS = 1000
	}
	if cfg.Playback.Speed == 0 {
		cfg.Playback.Speed = 1
	}
}

// SelectFeed chooses a feed by name; fallback to first; if none, use top-level GTFS/GTFSRT.
func SelectFeed(name string) (GTFSConfig, GTFSRTConfig) {
	f := Config.SelectFeed(name)
	return f.GTFS, f.GTFSRT
}

// SelectFeed chooses a feed by name; fallback to first; if none, use top-level GTFS/GTFSRT.
func (c AppConfig) SelectFeed(name string) Feed {
	if name != "" {
		for _, f := range c.Feeds {
			if f.Name == name {
				return f
			}
		}
	}
	if len(c.Feeds) > 0 {
		return c.Feeds[0]
	}
	return Feed{Name: DefaultFeedName, GTFS: c.GTFS, GTFSRT: c.GTFSRT}
}

// AllFeeds returns the configured feeds, or the top-level sections as a single default feed.
// A default feed without any realtime source is omitted.
func (c AppConfig) AllFeeds() []Feed {
	if len(c.Feeds) > 0 {
		return c.Feeds
	}
	rt := c.GTFSRT
	if rt.VehiclePositionsURL == "" && rt.TripUpdatesURL == "" && rt.ArchiveDir == "" {
		return nil
	}
	return []Feed{{Name: DefaultFeedName, GTFS: c.GTFS, GTFSRT: c.GTFSRT}}
}
