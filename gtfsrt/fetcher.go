package gtfsrt

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/theoremus-urban-solutions/gtfsrt-playback/buffer"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/config"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/driver"
)

var (
	// ErrUnknownSource is returned for a source id that names no configured feed
	ErrUnknownSource = errors.New("unknown source")
	// ErrNoArchive is returned for replay requests against a feed without an archive
	ErrNoArchive = errors.New("feed has no archive for replay")
)

var feedFetches = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gtfsrt_feed_fetches_total",
	Help: "GTFS-RT source reads, by feed, mode and result",
}, []string{"feed", "mode", "result"})

const defaultTimeout = 10 * time.Second

// Enricher fills static plan details into a schedule decoded from realtime data
type Enricher interface {
	Enrich(s *buffer.Schedule)
}

type source struct {
	feed    config.Feed
	client  *Client
	archive Archive
	index   Enricher
}

// Fetcher serves driver fetch requests from configured feeds
type Fetcher struct {
	logger zerolog.Logger
	ready  atomic.Bool

	mu      sync.RWMutex
	sources map[string]*source
}

var _ driver.Fetcher = (*Fetcher)(nil)

// NewFetcher builds a fetcher over feeds. It reports Ready as soon as one feed exists.
func NewFetcher(feeds []config.Feed, logger zerolog.Logger) *Fetcher {
	f := &Fetcher{
		logger:  logger.With().Str("component", "gtfsrt").Logger(),
		sources: make(map[string]*source, len(feeds)),
	}
	for _, feed := range feeds {
		timeout := defaultTimeout
		if feed.GTFSRT.TimeoutMS > 0 {
			timeout = time.Duration(feed.GTFSRT.TimeoutMS) * time.Millisecond
		}
		f.sources[feed.Name] = &source{
			feed:    feed,
			client:  NewClient(timeout, feed.GTFSRT.APIKeyHeader, feed.GTFSRT.APIKey),
			archive: Archive{Dir: feed.GTFSRT.ArchiveDir},
		}
	}
	f.ready.Store(len(f.sources) > 0)
	return f
}

// SetIndex attaches static enrichment to a feed
func (f *Fetcher) SetIndex(name string, idx Enricher) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	src, ok := f.sources[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, name)
	}
	src.index = idx
	return nil
}

// SetReady overrides readiness, e.g. while static data is loading
func (f *Fetcher) SetReady(ready bool) {
	f.ready.Store(ready)
}

// Ready reports whether fetches can be served
func (f *Fetcher) Ready() bool {
	return f.ready.Load()
}

// Sources lists the configured feed names
func (f *Fetcher) Sources() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.sources))
	for name := range f.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fetch returns the records for req. Live requests read the current feed snapshot,
// whose observations run ahead of the window and are buffered until animation time
// reaches them. Replay requests read the archived snapshots captured inside the window.
func (f *Fetcher) Fetch(ctx context.Context, req driver.FetchRequest) ([]buffer.Record, error) {
	f.mu.RLock()
	src, ok := f.sources[req.SourceID]
	var idx Enricher
	if ok {
		idx = src.index
	}
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, req.SourceID)
	}

	mode := "replay"
	if req.Live {
		mode = "live"
	}

	records, err := f.read(ctx, src, req)
	if err != nil {
		feedFetches.WithLabelValues(src.feed.Name, mode, "error").Inc()
		return nil, err
	}
	feedFetches.WithLabelValues(src.feed.Name, mode, "ok").Inc()

	if idx != nil {
		for i := range records {
			if records[i].Schedule != nil {
				idx.Enrich(records[i].Schedule)
			}
		}
	}

	f.logger.Debug().
		Str("feed", src.feed.Name).
		Str("mode", mode).
		Str("windowStart", req.StartISO()).
		Int("records", len(records)).
		Msg("fetched")
	return records, nil
}

func (f *Fetcher) read(ctx context.Context, src *source, req driver.FetchRequest) ([]buffer.Record, error) {
	if req.Live {
		rt := src.feed.GTFSRT
		vp, tu, err := src.client.FetchBoth(ctx, rt.VehiclePositionsURL, rt.TripUpdatesURL, req.Credentials.APIKey)
		if err != nil {
			return nil, err
		}
		return Decode(vp, tu)
	}
	if src.archive.Dir == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoArchive, src.feed.Name)
	}
	return src.archive.Load(ctx, req.Window())
}
