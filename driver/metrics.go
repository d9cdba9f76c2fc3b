package driver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_ticks_total",
		Help: "Frame ticks processed, by outcome",
	}, []string{"outcome"})

	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "playback_fetches_total",
		Help: "Completed fetches, by mode and result",
	}, []string{"mode", "result"})

	fetchResultsDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playback_fetch_results_discarded_total",
		Help: "Fetch results dropped because a newer fetch already applied or the window was reset",
	})

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "playback_fetch_duration_seconds",
		Help:    "Duration of data source fetches",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"mode"})

	mergedRecords = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "playback_buffered_records",
		Help:    "Records held in a session buffer after each merge",
		Buckets: prometheus.ExponentialBuckets(1, 2, 14),
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playback_sessions_active",
		Help: "Sessions currently running",
	})
)
