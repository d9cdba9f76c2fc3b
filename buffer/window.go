package buffer

import "time"

const (
	// SkewOffset places a new window this far behind the animation time to absorb
	// the lag between data being produced and being served.
	SkewOffset = 20 * time.Second
	// ResumeThreshold is the divergence between animation time and window start
	// that marks a suspended (backgrounded) live session.
	ResumeThreshold = 30 * time.Second
	// Retention is how far behind the animation time updates are still kept.
	Retention = 10 * time.Second
)

// Mode carries the window constants of one playback mode
type Mode struct {
	Name           string
	Initial        time.Duration // period of the first fetch
	Subsequent     time.Duration // period of every later fetch
	RetrieveBefore time.Duration // near-end threshold
}

var (
	// LiveMode: sparse recent data, short frequent windows
	LiveMode = Mode{Name: "live", Initial: 40 * time.Second, Subsequent: 5 * time.Second, RetrieveBefore: 10 * time.Second}
	// ReplayMode: historical data fetched in bulk
	ReplayMode = Mode{Name: "replay", Initial: 600 * time.Second, Subsequent: 600 * time.Second, RetrieveBefore: 60 * time.Second}
)

// ModeFor picks LiveMode or ReplayMode
func ModeFor(live bool) Mode {
	if live {
		return LiveMode
	}
	return ReplayMode
}

// Override replaces the non-zero fields of m with the given second counts
func (m Mode) Override(initial, subsequent, retrieveBefore int) Mode {
	if initial > 0 {
		m.Initial = time.Duration(initial) * time.Second
	}
	if subsequent > 0 {
		m.Subsequent = time.Duration(subsequent) * time.Second
	}
	if retrieveBefore > 0 {
		m.RetrieveBefore = time.Duration(retrieveBefore) * time.Second
	}
	return m
}

// Window is the [Start, End) interval of source time being fetched
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow initializes a window SkewOffset behind animationTime spanning period
func NewWindow(animationTime time.Time, period time.Duration) Window {
	start := animationTime.Add(-SkewOffset)
	return Window{Start: start, End: start.Add(period)}
}

// IsNearEnd reports whether the window runs out within retrieveBefore of animationTime
func (w Window) IsNearEnd(animationTime time.Time, retrieveBefore time.Duration) bool {
	return w.End.Sub(animationTime) <= retrieveBefore
}

// Advance returns the next contiguous window: the old End becomes the new Start.
func (w Window) Advance(period time.Duration) Window {
	return Window{Start: w.End, End: w.End.Add(period)}
}

// NeedsReset reports that animationTime drifted more than ResumeThreshold away from Start
func (w Window) NeedsReset(animationTime time.Time) bool {
	d := animationTime.Sub(w.Start)
	if d < 0 {
		d = -d
	}
	return d > ResumeThreshold
}

// Contains reports Start <= t < End
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Length is End - Start
func (w Window) Length() time.Duration {
	return w.End.Sub(w.Start)
}
