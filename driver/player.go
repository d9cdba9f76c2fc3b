package driver

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Player owns at most one running Session and swaps it whenever options change in a
// way the running timeline cannot absorb (source, credentials, viewport, mode, start time).
// Playing, speed and seeking are applied to the running session in place.
type Player struct {
	fetcher  Fetcher
	sink     Sink
	settings Settings
	clock    clockwork.Clock
	logger   zerolog.Logger

	mu      sync.Mutex
	opts    Options
	session *Session
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPlayer creates an idle player
func NewPlayer(fetcher Fetcher, sink Sink, settings Settings, clock clockwork.Clock, logger zerolog.Logger) *Player {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Player{
		fetcher:  fetcher,
		sink:     sink,
		settings: settings,
		clock:    clock,
		logger:   logger,
	}
}

// Configure applies opts, starting a new session when required. It reports whether
// a new session was started.
func (p *Player) Configure(ctx context.Context, opts Options) (bool, error) {
	if err := ValidateSpeed(opts.Speed); err != nil {
		return false, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session != nil && !needsRestart(p.opts, opts) {
		p.session.SetPlaying(opts.Playing)
		p.session.SetSeeking(opts.Seeking)
		if err := p.session.SetSpeed(opts.Speed); err != nil {
			return false, err
		}
		p.opts = opts
		return false, nil
	}

	p.stopLocked()

	s := NewSession(opts, p.fetcher, p.sink, p.settings, p.clock, p.logger)
	runCtx, cancel := context.WithCancel(ctx)
	p.session = s
	p.cancel = cancel
	p.opts = opts

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		_ = s.Run(runCtx)
	}()
	return true, nil
}

// Session returns the running session, or nil
func (p *Player) Session() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// Options returns the options last applied
func (p *Player) Options() Options {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opts
}

// Stop ends the running session and waits for its loop to exit. It must not be
// called from a Sink callback.
func (p *Player) Stop() {
	p.mu.Lock()
	p.stopLocked()
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Player) stopLocked() {
	if p.session == nil {
		return
	}
	p.cancel()
	p.session.Stop()
	p.session = nil
	p.cancel = nil
}
