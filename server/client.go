package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/theoremus-urban-solutions/gtfsrt-playback/driver"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/formatter"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/projector"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 8
)

type outgoing struct {
	kind int
	data []byte
}

// client is the websocket side of one connection. It is the Sink of the connection's
// player: frames are throttled to frameEvery and dropped rather than queued when the
// peer reads slower than frames are produced.
type client struct {
	conn       *websocket.Conn
	clock      clockwork.Clock
	logger     zerolog.Logger
	frameEvery time.Duration

	send      chan outgoing
	done      chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	encoder  formatter.Encoder
	lastSent time.Time
}

var _ driver.Sink = (*client)(nil)

func newClient(conn *websocket.Conn, enc formatter.Encoder, frameEvery time.Duration, clock clockwork.Clock, logger zerolog.Logger) *client {
	return &client{
		conn:       conn,
		clock:      clock,
		logger:     logger,
		frameEvery: frameEvery,
		encoder:    enc,
		send:       make(chan outgoing, sendBuffer),
		done:       make(chan struct{}),
	}
}

// writeLoop owns all writes to the connection
func (c *client) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(msg.kind, msg.data); err != nil {
				c.logger.Debug().Err(err).Msg("websocket write failed")
				c.close()
				return
			}
		}
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *client) OnFrame(frame projector.Frame) {
	c.mu.Lock()
	now := c.clock.Now()
	if c.frameEvery > 0 && !c.lastSent.IsZero() && now.Sub(c.lastSent) < c.frameEvery {
		c.mu.Unlock()
		framesDropped.WithLabelValues("throttled").Inc()
		return
	}
	enc := c.encoder
	c.lastSent = now
	c.mu.Unlock()

	data, err := enc.Encode(frame)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to encode frame")
		return
	}
	kind := websocket.TextMessage
	select {
	case c.send <- outgoing{kind: kind, data: data}:
		framesSent.Inc()
	case <-c.done:
	default:
		framesDropped.WithLabelValues("backpressure").Inc()
	}
}

func (c *client) OnLoadingChange(loading bool) {
	c.status(statusMessage{Type: "loading", Loading: &loading})
}

// status queues a JSON status message, waiting for room in the send buffer
func (c *client) status(msg statusMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error().Err(err).Str("type", msg.Type).Msg("failed to marshal status")
		return
	}
	select {
	case c.send <- outgoing{kind: websocket.TextMessage, data: data}:
	case <-c.done:
	case <-time.After(writeWait):
		c.logger.Warn().Str("type", msg.Type).Msg("dropping status message for stalled client")
	}
}

func (c *client) setEncoder(enc formatter.Encoder) {
	c.mu.Lock()
	c.encoder = enc
	c.mu.Unlock()
}
