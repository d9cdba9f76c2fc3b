package main

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/theoremus-urban-solutions/gtfsrt-playback/config"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/gtfsrt"
)

// record polls a feed's live endpoints and stores each capture in its archive,
// which is what replay sessions read from.
func record(ctx context.Context, feed config.Feed, every time.Duration, logger zerolog.Logger) error {
	rt := feed.GTFSRT
	if rt.ArchiveDir == "" {
		return errors.New("record mode needs gtfsrt.archiveDir")
	}
	if rt.VehiclePositionsURL == "" && rt.TripUpdatesURL == "" {
		return errors.New("record mode needs a vehicle positions or trip updates url")
	}
	timeout := 10 * time.Second
	if rt.TimeoutMS > 0 {
		timeout = time.Duration(rt.TimeoutMS) * time.Millisecond
	}
	client := gtfsrt.NewClient(timeout, rt.APIKeyHeader, rt.APIKey)
	archive := gtfsrt.Archive{Dir: rt.ArchiveDir}
	logger = logger.With().Str("feed", feed.Name).Str("dir", rt.ArchiveDir).Logger()

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	logger.Info().Dur("every", every).Msg("recording")
	for {
		capture(ctx, client, archive, rt, logger)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func capture(ctx context.Context, client *gtfsrt.Client, archive gtfsrt.Archive, rt config.GTFSRTConfig, logger zerolog.Logger) {
	vp, tu, err := client.FetchBoth(ctx, rt.VehiclePositionsURL, rt.TripUpdatesURL, "")
	if err != nil {
		logger.Warn().Err(err).Msg("capture failed")
		return
	}
	at := time.Now()
	if err := archive.Save(at, vp, tu); err != nil {
		logger.Error().Err(err).Msg("failed to store capture")
		return
	}
	logger.Debug().Int("vp", len(vp)).Int("tu", len(tu)).Msg("captured")
}
