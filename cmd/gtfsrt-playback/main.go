package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/theoremus-urban-solutions/gtfsrt-playback/config"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/driver"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/formatter"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/gtfs"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/gtfsrt"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/internal"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/projector"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/server"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/utils"
)

func main() {
	configPath := flag.String("config", "", "config file (default: config.yml|config.yaml|config.toml in the working directory)")
	mode := flag.String("mode", "serve", "serve|oneshot|record")
	feedName := flag.String("feed", "", "feed name from config.feeds[]")
	live := flag.Bool("live", false, "oneshot: play the live feed instead of the archive")
	at := flag.String("time", "", "oneshot: animation start, ISO8601 or unix seconds (default now)")
	speed := flag.Float64("speed", 1, "oneshot: animation speed")
	bbox := flag.String("bbox", "", "oneshot: minLon,minLat,maxLon,maxLat")
	frames := flag.Int("frames", 1, "oneshot: frames with vehicles to print before exiting")
	format := flag.String("format", "json", "json|geojson|siri-json|siri-xml")
	every := flag.Duration("every", 10*time.Second, "record: poll interval")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := internal.InitLogging("gtfsrt-playback", cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "serve":
		err = serve(ctx, cfg, logger)
	case "oneshot":
		err = oneshot(ctx, cfg, logger, oneshotArgs{
			feed: *feedName, live: *live, at: *at, speed: *speed,
			bbox: *bbox, frames: *frames, format: *format,
		})
	case "record":
		err = record(ctx, cfg.SelectFeed(*feedName), *every, logger)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil && ctx.Err() == nil {
		logger.Fatal().Err(err).Str("mode", *mode).Msg("exiting")
	}
}

func loadConfig(path string) (config.AppConfig, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if err := config.LoadAppConfig(); err != nil {
		return config.AppConfig{}, err
	}
	return config.Config, nil
}

// newFetcher builds the feed fetcher and attaches each feed's static index.
// A feed whose index cannot be loaded still plays, just without enrichment.
func newFetcher(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) (*gtfsrt.Fetcher, error) {
	feeds := cfg.AllFeeds()
	if len(feeds) == 0 {
		return nil, fmt.Errorf("no feeds configured")
	}
	f := gtfsrt.NewFetcher(feeds, logger)
	for _, feed := range feeds {
		if feed.GTFS.StaticURL == "" && feed.GTFS.CachePath == "" {
			continue
		}
		idx, err := gtfs.NewIndexFromConfig(ctx, feed.GTFS)
		if err != nil {
			logger.Warn().Err(err).Str("feed", feed.Name).Msg("GTFS index unavailable")
			continue
		}
		if err := f.SetIndex(feed.Name, idx); err != nil {
			return nil, err
		}
		logger.Info().Str("feed", feed.Name).Int("trips", len(idx.TripRoute)).Msg("GTFS index loaded")
	}
	return f, nil
}

func serve(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) error {
	f, err := newFetcher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	srv := server.New(server.ConfigFromApp(cfg), f, driver.SettingsFromConfig(cfg.Playback), clockwork.NewRealClock(), logger)
	return srv.ListenAndServe(ctx)
}

type oneshotArgs struct {
	feed   string
	live   bool
	at     string
	speed  float64
	bbox   string
	frames int
	format string
}

// oneshot plays one session and prints the first frames that carry vehicles
func oneshot(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger, args oneshotArgs) error {
	f, err := newFetcher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	fmtName, err := formatter.ParseFormat(args.format)
	if err != nil {
		return err
	}
	vp, err := projector.ParseBBox(args.bbox)
	if err != nil {
		return err
	}
	opts := driver.Options{
		SourceID: cfg.SelectFeed(args.feed).Name,
		Viewport: vp,
		Live:     args.live,
		Playing:  true,
		Speed:    args.speed,
	}
	if args.at != "" {
		if opts.AnimationTime, err = utils.ParseIso8601(args.at); err != nil {
			return fmt.Errorf("invalid -time: %w", err)
		}
	}

	out := make(chan projector.Frame, 1)
	sink := driver.SinkFuncs{Frame: func(frame projector.Frame) {
		if len(frame.States) == 0 {
			return
		}
		select {
		case out <- frame:
		default:
		}
	}}
	session := driver.NewSession(opts, f, sink, driver.SettingsFromConfig(cfg.Playback), clockwork.NewRealClock(), logger)
	go func() { _ = session.Run(ctx) }()
	defer session.Stop()

	enc := formatter.Encoder{Format: fmtName, Codespace: server.ConfigFromApp(cfg).Codespace, ValidFor: time.Minute}
	for printed := 0; printed < args.frames; printed++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-out:
			data, err := enc.Encode(frame)
			if err != nil {
				return err
			}
			fmt.Println(string(data))
		}
	}
	return nil
}
