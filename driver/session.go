package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/theoremus-urban-solutions/gtfsrt-playback/buffer"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/projector"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/utils"
)

// ErrStopped is returned when running a session that was already stopped
var ErrStopped = errors.New("session stopped")

// State of a session
type State int

const (
	Uninitialized State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "uninitialized"
	}
}

// Status is a point-in-time view of a session
type Status struct {
	ID            uuid.UUID
	State         State
	AnimationTime time.Time
	Window        buffer.Window
	Records       int
	Loading       bool
	Fetched       bool // a fetch has completed successfully
	Live          bool
	Playing       bool
	Speed         float64
}

type fetchResult struct {
	gen   uint64
	req   FetchRequest
	batch []buffer.Record
	err   error
}

// Session is one animation timeline: buffer, window and animation clock, advanced by Tick.
type Session struct {
	id       uuid.UUID
	fetcher  Fetcher
	sink     Sink
	proj     *projector.Projector
	clock    clockwork.Clock
	logger   zerolog.Logger
	settings Settings
	mode     buffer.Mode

	results  chan fetchResult
	done     chan struct{}
	stopOnce sync.Once
	fetchCtx context.Context
	cancel   context.CancelFunc // aborts in-flight fetches on Stop

	mu            sync.Mutex
	opts          Options
	state         State
	buf           buffer.Buffer
	animationTime time.Time
	period        time.Duration
	prevTick      time.Time
	ticked        bool
	loading       bool
	fetched       bool // a fetch has completed successfully
	issued        uint64
	applied       uint64
	resetGen      uint64 // results issued at or before this generation belong to a dropped window
	retry         *FetchRequest
	retryAt       time.Time
}

// NewSession prepares a session; nothing runs until Run or Tick is called.
func NewSession(opts Options, fetcher Fetcher, sink Sink, settings Settings, clock clockwork.Clock, logger zerolog.Logger) *Session {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if sink == nil {
		sink = SinkFuncs{}
	}
	if ValidateSpeed(opts.Speed) != nil {
		opts.Speed = 0
	}
	start := opts.AnimationTime
	if start.IsZero() {
		start = clock.Now()
	}
	mode := settings.mode(opts.Live)
	id := uuid.New()
	fetchCtx, cancel := context.WithCancel(context.Background())

	s := &Session{
		id:            id,
		fetcher:       fetcher,
		sink:          sink,
		proj:          projector.New(nil),
		clock:         clock,
		settings:      settings,
		mode:          mode,
		results:       make(chan fetchResult, 16),
		done:          make(chan struct{}),
		fetchCtx:      fetchCtx,
		cancel:        cancel,
		opts:          opts,
		animationTime: start,
		period:        mode.Initial,
		loading:       true,
	}
	s.buf.Window = buffer.NewWindow(start, mode.Initial)
	s.logger = logger.With().
		Str("session", id.String()).
		Str("source", opts.SourceID).
		Str("mode", mode.Name).
		Logger()
	return s
}

// ID returns the session id
func (s *Session) ID() uuid.UUID { return s.id }

// Run ticks the session on a frame ticker until ctx is cancelled or Stop is called.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.state == Stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.state = Running
	s.mu.Unlock()

	activeSessions.Inc()
	defer activeSessions.Dec()

	s.logger.Info().
		Str("animationTime", utils.Iso8601(s.animationTime)).
		Dur("frameInterval", s.settings.FrameInterval).
		Msg("session started")
	s.sink.OnLoadingChange(true)

	ticker := s.clock.NewTicker(s.settings.FrameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return ctx.Err()
		case <-s.done:
			return nil
		case t := <-ticker.Chan():
			s.Tick(t)
		}
	}
}

// Tick advances the session to wall-clock time now and emits the resulting frame.
func (s *Session) Tick(now time.Time) {
	frame, loadingCleared, ok := s.step(now)
	if !ok || s.isStopped() {
		return
	}
	s.sink.OnFrame(frame)
	if loadingCleared {
		s.sink.OnLoadingChange(false)
	}
}

func (s *Session) step(now time.Time) (projector.Frame, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Stopped {
		return projector.Frame{}, false, false
	}
	s.state = Running
	s.drain(now)

	if s.opts.Seeking || !s.fetcher.Ready() {
		s.observeTick(now)
		ticksTotal.WithLabelValues("suspended").Inc()
		return projector.Frame{}, false, false
	}

	nearEnd := s.buf.IsNearEnd(s.animationTime, s.mode.RetrieveBefore)

	if s.opts.Playing && !s.prevTick.IsZero() {
		if elapsed := now.Sub(s.prevTick); elapsed > 0 {
			if next := s.animationTime.Add(utils.ScaleDuration(elapsed, s.opts.Speed)); next.After(s.animationTime) {
				s.animationTime = next
			}
		}
	}
	s.observeTick(now)

	if s.opts.Live && s.buf.NeedsReset(s.animationTime) {
		s.logger.Info().
			Str("animationTime", utils.Iso8601(s.animationTime)).
			Str("windowStart", utils.Iso8601(s.buf.Start)).
			Msg("window stale after suspension, reinitializing")
		s.resetWindow()
	}

	if nearEnd {
		s.buf.Window = s.buf.Advance(s.period)
	}

	switch {
	case !s.ticked || nearEnd:
		s.issue(s.request())
	case s.retry != nil && !now.Before(s.retryAt):
		s.issue(*s.retry)
	}

	frame := s.proj.Project(s.buf.Data, s.opts.Viewport, s.animationTime)

	if s.issued > 0 {
		s.period = s.mode.Subsequent
	}
	cleared := false
	if s.loading {
		s.loading = false
		cleared = true
	}
	s.ticked = true
	ticksTotal.WithLabelValues("projected").Inc()
	return frame, cleared, true
}

// observeTick remembers the latest wall-clock tick; an earlier timestamp is ignored
// so time is never counted twice.
func (s *Session) observeTick(now time.Time) {
	if now.After(s.prevTick) {
		s.prevTick = now
	}
}

func (s *Session) request() FetchRequest {
	return FetchRequest{
		Credentials:  s.opts.Credentials,
		SourceID:     s.opts.SourceID,
		Live:         s.opts.Live,
		WindowStart:  s.buf.Start,
		WindowLength: s.period,
	}
}

func (s *Session) resetWindow() {
	s.buf.Window = buffer.NewWindow(s.animationTime, s.period)
	s.resetGen = s.issued
	s.retry = nil
}

func (s *Session) issue(req FetchRequest) {
	s.issued++
	s.retry = nil
	s.logger.Debug().
		Uint64("generation", s.issued).
		Str("windowStart", req.StartISO()).
		Int("windowSeconds", req.LengthSeconds()).
		Msg("fetch issued")
	go s.fetch(s.issued, req)
}

func (s *Session) fetch(gen uint64, req FetchRequest) {
	ctx, span := otel.Tracer("playback").Start(s.fetchCtx, "playback.Fetch",
		trace.WithAttributes(
			attribute.String("source", req.SourceID),
			attribute.String("window_start", req.StartISO()),
			attribute.Int("window_seconds", req.LengthSeconds()),
			attribute.Int64("generation", int64(gen)),
		),
	)
	defer span.End()

	timer := prometheus.NewTimer(fetchDuration.WithLabelValues(s.mode.Name))
	batch, err := s.callFetcher(ctx, req)
	timer.ObserveDuration()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("records", len(batch)))
	}

	select {
	case s.results <- fetchResult{gen: gen, req: req, batch: batch, err: err}:
	case <-s.done:
	}
}

func (s *Session) callFetcher(ctx context.Context, req FetchRequest) (batch []buffer.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetcher panic: %v", r)
		}
	}()
	return s.fetcher.Fetch(ctx, req)
}

func (s *Session) drain(now time.Time) {
	for {
		select {
		case r := <-s.results:
			s.apply(r, now)
		default:
			return
		}
	}
}

func (s *Session) apply(r fetchResult, now time.Time) {
	if r.gen <= s.applied || r.gen <= s.resetGen {
		fetchResultsDiscarded.Inc()
		s.logger.Debug().Uint64("generation", r.gen).Msg("discarding superseded fetch result")
		return
	}
	if r.err != nil {
		fetchesTotal.WithLabelValues(s.mode.Name, "error").Inc()
		s.logger.Warn().
			Err(r.err).
			Uint64("generation", r.gen).
			Str("windowStart", r.req.StartISO()).
			Msg("fetch failed")
		retry := r.req
		s.retry = &retry
		s.retryAt = now.Add(s.settings.RetryInterval)
		return
	}

	fetchesTotal.WithLabelValues(s.mode.Name, "ok").Inc()
	s.applied = r.gen
	s.fetched = true
	firstData := s.buf.Apply(r.batch, s.animationTime)
	mergedRecords.Observe(float64(len(s.buf.Data)))
	s.logger.Debug().
		Uint64("generation", r.gen).
		Int("batch", len(r.batch)).
		Int("records", len(s.buf.Data)).
		Msg("fetch merged")

	if firstData && s.opts.Live {
		s.animationTime = s.clock.Now().Add(-buffer.SkewOffset)
		s.resetWindow()
		s.logger.Info().
			Str("animationTime", utils.Iso8601(s.animationTime)).
			Msg("first live data, animation time snapped behind wall clock")
	}
}

// Stop ends the session. It is safe to call more than once; in-flight fetches
// finish but their results are dropped.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.state = Stopped
		s.mu.Unlock()
		close(s.done)
		s.cancel()
		s.logger.Info().Msg("session stopped")
	})
}

func (s *Session) isStopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// SetPlaying pauses or resumes the animation clock; ticks continue either way
func (s *Session) SetPlaying(playing bool) {
	s.mu.Lock()
	s.opts.Playing = playing
	s.mu.Unlock()
}

// SetSpeed changes the animation speed multiplier
func (s *Session) SetSpeed(speed float64) error {
	if err := ValidateSpeed(speed); err != nil {
		return err
	}
	s.mu.Lock()
	s.opts.Speed = speed
	s.mu.Unlock()
	return nil
}

// SetSeeking suspends (true) or resumes (false) the loop logic
func (s *Session) SetSeeking(seeking bool) {
	s.mu.Lock()
	s.opts.Seeking = seeking
	s.mu.Unlock()
}

// Status returns a snapshot of the session
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		ID:            s.id,
		State:         s.state,
		AnimationTime: s.animationTime,
		Window:        s.buf.Window,
		Records:       len(s.buf.Data),
		Loading:       s.loading,
		Fetched:       s.fetched,
		Live:          s.opts.Live,
		Playing:       s.opts.Playing,
		Speed:         s.opts.Speed,
	}
}

// Records returns the currently merged records. The slice must not be modified.
func (s *Session) Records() []buffer.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Data
}
