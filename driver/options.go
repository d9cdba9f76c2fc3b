package driver

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/theoremus-urban-solutions/gtfsrt-playback/buffer"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/config"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/projector"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/utils"
)

// Credentials authenticate a session against its data source
type Credentials struct {
	APIKey string
}

// Options configure one session
type Options struct {
	SourceID      string
	Credentials   Credentials
	Viewport      projector.Viewport
	AnimationTime time.Time // zero means "now"
	Live          bool
	Seeking       bool // suspends the loop logic while true
	Playing       bool
	Speed         float64
}

// needsRestart reports whether moving from a to b requires a new session
func needsRestart(a, b Options) bool {
	return a.SourceID != b.SourceID ||
		a.Credentials != b.Credentials ||
		a.Viewport != b.Viewport ||
		a.Live != b.Live ||
		!a.AnimationTime.Equal(b.AnimationTime)
}

// ValidateSpeed rejects negative and non-finite speed multipliers
func ValidateSpeed(speed float64) error {
	if speed < 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return fmt.Errorf("speed must be a finite number >= 0, got %v", speed)
	}
	return nil
}

// Settings are the process-wide loop parameters
type Settings struct {
	FrameInterval time.Duration
	RetryInterval time.Duration
	Live          buffer.Mode
	Replay        buffer.Mode
}

// DefaultSettings returns a ~60fps loop with the built-in window constants
func DefaultSettings() Settings {
	return Settings{
		FrameInterval: 16 * time.Millisecond,
		RetryInterval: time.Second,
		Live:          buffer.LiveMode,
		Replay:        buffer.ReplayMode,
	}
}

// SettingsFromConfig applies config overrides on top of DefaultSettings
func SettingsFromConfig(cfg config.PlaybackConfig) Settings {
	s := DefaultSettings()
	if cfg.FrameIntervalMS > 0 {
		s.FrameInterval = time.Duration(cfg.FrameIntervalMS) * time.Millisecond
	}
	if cfg.RetryIntervalMS > 0 {
		s.RetryInterval = time.Duration(cfg.RetryIntervalMS) * time.Millisecond
	}
	s.Live = s.Live.Override(cfg.Live.InitialSeconds, cfg.Live.SubsequentSeconds, cfg.Live.RetrieveBeforeSeconds)
	s.Replay = s.Replay.Override(cfg.Replay.InitialSeconds, cfg.Replay.SubsequentSeconds, cfg.Replay.RetrieveBeforeSeconds)
	return s
}

func (s Settings) mode(live bool) buffer.Mode {
	if live {
		return s.Live
	}
	return s.Replay
}

// FetchRequest describes one window of source data
type FetchRequest struct {
	Credentials  Credentials
	SourceID     string
	Live         bool
	WindowStart  time.Time
	WindowLength time.Duration
}

// StartISO is the window start in ISO8601
func (r FetchRequest) StartISO() string {
	return utils.Iso8601(r.WindowStart)
}

// LengthSeconds is the window length in whole seconds
func (r FetchRequest) LengthSeconds() int {
	return int(r.WindowLength / time.Second)
}

// Window returns the requested interval
func (r FetchRequest) Window() buffer.Window {
	return buffer.Window{Start: r.WindowStart, End: r.WindowStart.Add(r.WindowLength)}
}

// Fetcher is the data source boundary. Ready reports whether the transport is usable;
// Fetch returns the entity records observed in the requested window.
type Fetcher interface {
	Ready() bool
	Fetch(ctx context.Context, req FetchRequest) ([]buffer.Record, error)
}

// Sink receives the per-frame output
type Sink interface {
	OnFrame(frame projector.Frame)
	OnLoadingChange(loading bool)
}

// SinkFuncs adapts plain functions to Sink; nil fields are ignored.
type SinkFuncs struct {
	Frame   func(projector.Frame)
	Loading func(bool)
}

func (f SinkFuncs) OnFrame(frame projector.Frame) {
	if f.Frame != nil {
		f.Frame(frame)
	}
}

func (f SinkFuncs) OnLoadingChange(loading bool) {
	if f.Loading != nil {
		f.Loading(loading)
	}
}
