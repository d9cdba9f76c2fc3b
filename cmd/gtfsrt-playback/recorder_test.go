package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/theoremus-urban-solutions/gtfsrt-playback/config"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/gtfsrt"
)

func TestCapture_WritesArchiveSnapshot(t *testing.T) {
	dir := t.TempDir()
	vpPath := filepath.Join(dir, "vp.pb")
	if err := os.WriteFile(vpPath, []byte{0x0a, 0x00}, 0o644); err != nil {
		t.Fatal(err)
	}
	rt := config.GTFSRTConfig{VehiclePositionsURL: vpPath, ArchiveDir: filepath.Join(dir, "archive")}
	archive := gtfsrt.Archive{Dir: rt.ArchiveDir}

	capture(context.Background(), gtfsrt.NewClient(time.Second, "", ""), archive, rt, zerolog.Nop())

	snaps, err := archive.Snapshots()
	if err != nil {
		t.Fatalf("snapshots: %v", err)
	}
	if len(snaps) != 1 {
		t.Fatalf("expected one capture, got %d", len(snaps))
	}
	t.Logf("✓ Captured snapshot at %s", snaps[0].Time)
}

func TestRecord_RequiresArchiveAndSource(t *testing.T) {
	ctx := context.Background()
	if err := record(ctx, config.Feed{Name: "x"}, time.Second, zerolog.Nop()); err == nil {
		t.Error("expected error without archive dir")
	}
	feed := config.Feed{Name: "x", GTFSRT: config.GTFSRTConfig{ArchiveDir: t.TempDir()}}
	if err := record(ctx, feed, time.Second, zerolog.Nop()); err == nil {
		t.Error("expected error without a feed url")
	}
}
