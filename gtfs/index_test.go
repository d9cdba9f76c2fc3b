package gtfs

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/theoremus-urban-solutions/gtfsrt-playback/buffer"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/config"
)

func gtfsZip(t *testing.T) []byte {
	t.Helper()
	files := map[string]string{
		"agency.txt": "\ufeffagency_id,agency_name,agency_timezone\nSOF,Sofia Urban Mobility,Europe/Sofia\n",
		"routes.txt": "route_id,route_short_name,route_type\nR1,94,3\nR2,M1,1\n",
		"trips.txt":  "route_id,service_id,trip_id,trip_headsign,direction_id\nR1,WK,T1,Lozenets,0\nR2,WK,T2,Obelya,1\n",
		"stops.txt":  "stop_id,stop_name,stop_lat,stop_lon\nS1,Sofia University,42.6936,23.3347\n",
		"shapes.txt": "shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence\nSH1,42.69,23.33,1\n",
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestNewIndexFromBytes(t *testing.T) {
	g, err := NewIndexFromBytes(gtfsZip(t), "")
	if err != nil {
		t.Fatalf("NewIndexFromBytes: %v", err)
	}

	if g.AgencyID != "SOF" || g.AgencyTZ != "Europe/Sofia" {
		t.Errorf("agency not loaded: %q %q", g.AgencyID, g.AgencyTZ)
	}
	if g.RouteShortName("R1") != "94" || g.RouteTypes["R2"] != 1 {
		t.Errorf("routes not loaded: %+v", g.RouteShortNames)
	}
	if g.RouteIDForTrip("T2") != "R2" || g.TripHeadsign["T2"] != "Obelya" || g.TripDirection["T2"] != "1" {
		t.Errorf("trips not loaded")
	}
	if g.StopName("S1") != "Sofia University" || g.StopCoords["S1"][1] != 42.6936 {
		t.Errorf("stops not loaded: %+v", g.StopCoords)
	}
}

func TestNewIndexFromBytes_ConfiguredAgencyWins(t *testing.T) {
	g, err := NewIndexFromBytes(gtfsZip(t), "SUM")
	if err != nil {
		t.Fatal(err)
	}
	if g.AgencyID != "SUM" {
		t.Errorf("expected configured agency id, got %q", g.AgencyID)
	}
}

func TestNewIndexFromBytes_RejectsNonZip(t *testing.T) {
	if _, err := NewIndexFromBytes([]byte("nope"), ""); err == nil {
		t.Errorf("expected error")
	}
}

func TestIndex_Enrich(t *testing.T) {
	g, err := NewIndexFromBytes(gtfsZip(t), "")
	if err != nil {
		t.Fatal(err)
	}

	s := &buffer.Schedule{TripID: "T1"}
	g.Enrich(s)
	if s.RouteID != "R1" || s.RouteShortName != "94" || s.Headsign != "Lozenets" || s.DirectionID != "0" {
		t.Errorf("unexpected enrichment: %+v", s)
	}

	rt := &buffer.Schedule{TripID: "T1", RouteID: "R2", DirectionID: "1"}
	g.Enrich(rt)
	if rt.RouteID != "R2" || rt.DirectionID != "1" || rt.RouteShortName != "M1" {
		t.Errorf("realtime fields should win: %+v", rt)
	}

	unknown := &buffer.Schedule{TripID: "T9"}
	g.Enrich(unknown)
	if unknown.RouteID != "" || unknown.Headsign != "" {
		t.Errorf("unknown trip should stay empty: %+v", unknown)
	}
	g.Enrich(nil)
}

func TestNewIndexFromConfig_WritesAndReadsCache(t *testing.T) {
	data := gtfsZip(t)
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	cache := filepath.Join(t.TempDir(), "cache", "index.gob")
	cfg := config.GTFSConfig{StaticURL: srv.URL + "/gtfs.zip", CachePath: cache}

	first, err := NewIndexFromConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewIndexFromConfig: %v", err)
	}
	if _, err := os.Stat(cache); err != nil {
		t.Fatalf("cache not written: %v", err)
	}

	second, err := NewIndexFromConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewIndexFromConfig (cached): %v", err)
	}
	if hits != 1 {
		t.Errorf("second load should come from cache, got %d downloads", hits)
	}
	if second.RouteShortName("R1") != first.RouteShortName("R1") || second.TripHeadsign["T1"] != "Lozenets" {
		t.Errorf("cached index differs")
	}
}

func TestCache_RejectsOtherSource(t *testing.T) {
	g, err := NewIndexFromBytes(gtfsZip(t), "")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := EncodeIndex(&buf, "https://a.example/gtfs.zip", g); err != nil {
		t.Fatalf("encode: %v", err)
	}
	data := buf.Bytes()

	if _, err := DecodeIndex(bytes.NewReader(data), "https://b.example/gtfs.zip"); !errors.Is(err, ErrStaleCache) {
		t.Errorf("expected ErrStaleCache, got %v", err)
	}
	got, err := DecodeIndex(bytes.NewReader(data), "https://a.example/gtfs.zip")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.StopName("S1") != "Sofia University" || got.AgencyTZ != "Europe/Sofia" {
		t.Errorf("decoded index differs: %+v", got)
	}
}

func TestNewIndexFromConfig_RebuildsCorruptCache(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "gtfs.zip")
	if err := os.WriteFile(zipPath, gtfsZip(t), 0o644); err != nil {
		t.Fatal(err)
	}
	cache := filepath.Join(dir, "index.gob")
	if err := os.WriteFile(cache, []byte("not gob"), 0o644); err != nil {
		t.Fatal(err)
	}

	g, err := NewIndexFromConfig(context.Background(), config.GTFSConfig{StaticURL: zipPath, CachePath: cache})
	if err != nil {
		t.Fatalf("NewIndexFromConfig: %v", err)
	}
	if g.RouteShortName("R1") != "94" {
		t.Errorf("expected rebuilt index")
	}
	if _, err := ReadCache(cache, zipPath); err != nil {
		t.Errorf("cache should have been rewritten: %v", err)
	}
}

func TestNewIndexFromConfig_LocalPathAndMissingURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gtfs.zip")
	if err := os.WriteFile(path, gtfsZip(t), 0o644); err != nil {
		t.Fatal(err)
	}
	g, err := NewIndexFromConfig(context.Background(), config.GTFSConfig{StaticURL: path})
	if err != nil || g.RouteShortName("R2") != "M1" {
		t.Errorf("expected local zip to load, err=%v", err)
	}

	if _, err := NewIndexFromConfig(context.Background(), config.GTFSConfig{}); err == nil {
		t.Errorf("expected error without static url")
	}
}
