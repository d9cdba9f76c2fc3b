package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playback_ws_connections",
		Help: "Open websocket playback connections",
	})

	framesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playback_ws_frames_sent_total",
		Help: "Frames written to websocket clients",
	})

	framesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_ws_frames_dropped_total",
		Help: "Frames not sent to a client, by reason",
	}, []string{"reason"})
)
