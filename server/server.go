package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/theoremus-urban-solutions/gtfsrt-playback/config"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/driver"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/formatter"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/utils"
)

// sourceLister is implemented by fetchers that know their source ids
type sourceLister interface {
	Sources() []string
}

// Config holds the server settings
type Config struct {
	Port          int
	FrameEvery    time.Duration // minimum gap between frames pushed to one client
	Codespace     string
	DefaultSource string
	DefaultSpeed  float64
}

// ConfigFromApp derives server settings from the application config
func ConfigFromApp(app config.AppConfig) Config {
	cfg := Config{
		Port:         app.Server.Port,
		FrameEvery:   time.Duration(app.Server.FrameEveryMS) * time.Millisecond,
		Codespace:    app.Server.Codespace,
		DefaultSpeed: app.Playback.Speed,
	}
	if feeds := app.AllFeeds(); len(feeds) > 0 {
		cfg.DefaultSource = feeds[0].Name
	}
	if cfg.Codespace == "" {
		cfg.Codespace = app.GTFS.AgencyID
	}
	return cfg
}

// Server serves playback sessions over websockets
type Server struct {
	cfg      Config
	fetcher  driver.Fetcher
	settings driver.Settings
	clock    clockwork.Clock
	logger   zerolog.Logger
	upgrader websocket.Upgrader

	connections atomic.Int64
	http        *http.Server
}

// New creates a server. Nothing listens until ListenAndServe.
func New(cfg Config, fetcher driver.Fetcher, settings driver.Settings, clock clockwork.Clock, logger zerolog.Logger) *Server {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Server{
		cfg:      cfg,
		fetcher:  fetcher,
		settings: settings,
		clock:    clock,
		logger:   logger.With().Str("component", "server").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info().Msg("server shut down successfully")
	return nil
}

type healthResponse struct {
	Status      string   `json:"status"`
	Ready       bool     `json:"ready"`
	Connections int64    `json:"connections"`
	Sources     []string `json:"sources,omitempty"`
	Time        string   `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:      "ok",
		Ready:       s.fetcher.Ready(),
		Connections: s.connections.Load(),
		Time:        utils.Iso8601(s.clock.Now()),
	}
	if l, ok := s.fetcher.(sourceLister); ok {
		resp.Sources = l.Sources()
	}
	if !resp.Ready {
		resp.Status = "starting"
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) knownSource(id string) bool {
	l, ok := s.fetcher.(sourceLister)
	if !ok {
		return true
	}
	for _, src := range l.Sources() {
		if src == id {
			return true
		}
	}
	return false
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	opts, format, err := optionsFromQuery(r.URL.Query(), s.cfg.DefaultSource, s.cfg.DefaultSpeed)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !s.knownSource(opts.SourceID) {
		http.Error(w, "No such source: "+opts.SourceID, http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	logger := s.logger.With().Str("conn", connID).Logger()
	s.connections.Add(1)
	wsConnections.Inc()
	defer func() {
		s.connections.Add(-1)
		wsConnections.Dec()
	}()

	c := newClient(conn, formatter.Encoder{Format: format, Codespace: s.cfg.Codespace, ValidFor: time.Minute}, s.cfg.FrameEvery, s.clock, logger)
	go c.writeLoop()
	defer c.close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	player := driver.NewPlayer(s.fetcher, c, s.settings, s.clock, logger)
	defer player.Stop()

	logger.Info().Str("source", opts.SourceID).Bool("live", opts.Live).Str("format", string(format)).Msg("client connected")
	if err := s.configure(ctx, player, c, opts); err != nil {
		c.status(statusMessage{Type: "error", Error: err.Error()})
		return
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			logger.Info().Msg("client disconnected")
			return
		}

		var msg controlMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			logger.Debug().Err(err).Msg("discarding malformed message")
			c.status(statusMessage{Type: "error", Error: "malformed message"})
			continue
		}

		if msg.Type == "format" {
			f, err := formatter.ParseFormat(msg.Format)
			if err != nil {
				c.status(statusMessage{Type: "error", Error: err.Error()})
				continue
			}
			c.setEncoder(formatter.Encoder{Format: f, Codespace: s.cfg.Codespace, ValidFor: time.Minute})
			continue
		}

		next, err := applyControl(player.Options(), msg)
		if err == nil && !s.knownSource(next.SourceID) {
			err = &QueryError{Msg: "No such source: " + next.SourceID}
		}
		if err != nil {
			c.status(statusMessage{Type: "error", Error: err.Error()})
			continue
		}
		if err := s.configure(ctx, player, c, next); err != nil {
			c.status(statusMessage{Type: "error", Error: err.Error()})
		}
	}
}

// configure applies opts and announces a new session to the client
func (s *Server) configure(ctx context.Context, player *driver.Player, c *client, opts driver.Options) error {
	restarted, err := player.Configure(ctx, opts)
	if err != nil || !restarted {
		return err
	}
	st := player.Session().Status()
	live := st.Live
	c.status(statusMessage{
		Type:          "session",
		Session:       st.ID.String(),
		Source:        opts.SourceID,
		Live:          &live,
		AnimationTime: utils.Iso8601(st.AnimationTime),
	})
	return nil
}
