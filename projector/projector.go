package projector

import (
	"sort"
	"time"

	"github.com/theoremus-urban-solutions/gtfsrt-playback/buffer"
)

// State is one vehicle as shown in a frame
type State struct {
	EntityID string           `json:"entityId"`
	Time     time.Time        `json:"time"`
	Payload  buffer.Payload   `json:"payload"`
	Schedule *buffer.Schedule `json:"schedule,omitempty"`
}

// Frame is the projector output for one tick
type Frame struct {
	AnimationTime time.Time `json:"animationTime"`
	States        []State   `json:"states"`
}

// Func selects the states to render from a merged snapshot
type Func func(records []buffer.Record, vp Viewport, at time.Time) []State

// SelectLatest shows each vehicle at its newest update not after at, when that
// position is inside vp. Results are ordered by entity id.
func SelectLatest(records []buffer.Record, vp Viewport, at time.Time) []State {
	states := make([]State, 0, len(records))
	for _, r := range records {
		u, ok := r.Latest(at)
		if !ok {
			continue
		}
		if !vp.Contains(u.Payload.Latitude, u.Payload.Longitude) {
			continue
		}
		states = append(states, State{
			EntityID: r.EntityID,
			Time:     u.Time,
			Payload:  u.Payload,
			Schedule: r.Schedule,
		})
	}
	sort.Slice(states, func(i, j int) bool { return states[i].EntityID < states[j].EntityID })
	return states
}

// Projector wraps a projection Func
type Projector struct {
	fn Func
}

// New returns a Projector using fn, or SelectLatest when fn is nil
func New(fn Func) *Projector {
	if fn == nil {
		fn = SelectLatest
	}
	return &Projector{fn: fn}
}

// Project builds the frame for at from the given merged records
func (p *Projector) Project(records []buffer.Record, vp Viewport, at time.Time) Frame {
	states := p.fn(records, vp, at)
	if states == nil {
		states = []State{}
	}
	return Frame{AnimationTime: at, States: states}
}
