package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	return path
}

// chdir switches into dir for the duration of the test and restores Config afterwards
func chdir(t *testing.T, dir string) {
	t.Helper()
	origConfig := Config
	origDir, _ := os.Getwd()
	t.Cleanup(func() {
		Config = origConfig
		_ = os.Chdir(origDir)
	})
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory: %v", err)
	}
}

// TestConfig_LoadYAML tests loading a complete config.yml
func TestConfig_LoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yml", `
server:
  port: 8080
  codespace: SOF
logging:
  level: debug
playback:
  speed: 4
  live:
    subsequentSeconds: 3
feeds:
  - name: sofia
    gtfs:
      agency_id: SOF
    gtfsrt:
      vehiclePositionsURL: https://example.com/vp.pb
      archiveDir: /var/lib/gtfsrt
      timeoutMS: 2500
`)
	chdir(t, dir)

	if err := LoadAppConfig(); err != nil {
		t.Fatalf("Failed to load config.yml: %v", err)
	}

	if Config.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", Config.Server.Port)
	}
	if Config.Playback.Speed != 4 {
		t.Errorf("expected speed 4, got %v", Config.Playback.Speed)
	}
	if Config.Playback.Live.SubsequentSeconds != 3 {
		t.Errorf("expected live override 3, got %d", Config.Playback.Live.SubsequentSeconds)
	}
	if Config.Playback.FrameIntervalMS != 16 {
		t.Errorf("expected default frame interval 16, got %d", Config.Playback.FrameIntervalMS)
	}
	if len(Config.Feeds) != 1 || Config.Feeds[0].GTFSRT.TimeoutMS != 2500 {
		t.Errorf("feed not decoded: %+v", Config.Feeds)
	}

	t.Logf("✓ Loaded config with feed: %s", Config.Feeds[0].Name)
}

// TestConfig_LoadTOML tests the TOML decoder path
func TestConfig_LoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "playback.toml", `
[server]
port = 9000

[playback]
retryIntervalMS = 250

[[feeds]]
name = "archive"

[feeds.gtfsrt]
archiveDir = "/data/archive"
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("Failed to load toml: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Playback.RetryIntervalMS != 250 {
		t.Errorf("expected retry 250, got %d", cfg.Playback.RetryIntervalMS)
	}
	if got := cfg.SelectFeed("archive").GTFSRT.ArchiveDir; got != "/data/archive" {
		t.Errorf("expected archive dir, got %q", got)
	}
}

// TestConfig_MissingFile tests error handling for missing config
func TestConfig_MissingFile(t *testing.T) {
	chdir(t, t.TempDir())

	err := LoadAppConfig()
	if !errors.Is(err, ErrNoConfig) {
		t.Errorf("expected ErrNoConfig, got %v", err)
	}
}

// TestConfig_InvalidYAML tests error handling for invalid YAML
func TestConfig_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yml", "invalid: yaml: content: [[[")
	chdir(t, dir)

	if err := LoadAppConfig(); err == nil {
		t.Error("Loading invalid YAML should return error")
	}
}

// TestConfig_EmptyFile tests that an empty file yields defaults
func TestConfig_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yml", "")
	chdir(t, dir)

	if err := LoadAppConfig(); err != nil {
		t.Fatalf("empty config should load with defaults: %v", err)
	}
	if Config.Server.Port != 16181 {
		t.Errorf("expected default port 16181, got %d", Config.Server.Port)
	}
	if Config.Logging.Level != "info" {
		t.Errorf("expected default level info, got %s", Config.Logging.Level)
	}
}

func TestConfig_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "negative speed", body: "playback:\n  speed: -1\n"},
		{name: "unknown level", body: "logging:\n  level: loud\n"},
		{name: "feed without name", body: "feeds:\n  - gtfsrt:\n      archiveDir: /tmp\n"},
		{name: "duplicate feed", body: "feeds:\n  - name: a\n  - name: a\n"},
		{name: "negative window", body: "playback:\n  replay:\n    initialSeconds: -5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "config.yml", tt.body)
			if _, err := LoadFile(path); err == nil {
				t.Errorf("expected validation error for %s", tt.name)
			}
		})
	}
}

// TestConfig_SelectFeedByName tests feed selection by name
func TestConfig_SelectFeedByName(t *testing.T) {
	origConfig := Config
	defer func() { Config = origConfig }()

	Config = AppConfig{
		Feeds: []Feed{
			{Name: "feed1", GTFS: GTFSConfig{AgencyID: "AGENCY1"}},
			{Name: "feed2", GTFS: GTFSConfig{AgencyID: "AGENCY2"}},
		},
	}

	gtfsCfg, _ := SelectFeed("feed2")
	if gtfsCfg.AgencyID != "AGENCY2" {
		t.Errorf("Expected AGENCY2, got %s", gtfsCfg.AgencyID)
	}

	gtfsCfg, _ = SelectFeed("")
	if gtfsCfg.AgencyID != "AGENCY1" {
		t.Errorf("Expected first feed for empty name, got %s", gtfsCfg.AgencyID)
	}

	gtfsCfg, _ = SelectFeed("missing")
	if gtfsCfg.AgencyID != "AGENCY1" {
		t.Errorf("Expected first feed for unknown name, got %s", gtfsCfg.AgencyID)
	}
}

func TestConfig_AllFeedsFallsBackToTopLevel(t *testing.T) {
	cfg := AppConfig{GTFSRT: GTFSRTConfig{VehiclePositionsURL: "vp.pb"}}

	feeds := cfg.AllFeeds()
	if len(feeds) != 1 || feeds[0].Name != DefaultFeedName {
		t.Fatalf("expected synthesized default feed, got %+v", feeds)
	}

	if got := (AppConfig{}).AllFeeds(); len(got) != 0 {
		t.Errorf("no realtime source should produce no feeds, got %+v", got)
	}
}
