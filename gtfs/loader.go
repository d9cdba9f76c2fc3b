package gtfs

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/theoremus-urban-solutions/gtfsrt-playback/config"
)

// NewIndexFromBytes parses a GTFS zip held in memory
func NewIndexFromBytes(data []byte, agencyID string) (*Index, error) {
	return NewIndexFromReader(bytes.NewReader(data), int64(len(data)), agencyID)
}

// NewIndexFromReader parses a GTFS zip from r
func NewIndexFromReader(r io.ReaderAt, size int64, agencyID string) (*Index, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open gtfs zip: %w", err)
	}
	g := NewIndex(agencyID)
	for _, f := range zr.File {
		switch strings.ToLower(f.Name) {
		case "agency.txt", "routes.txt", "trips.txt", "stops.txt":
			if err := g.consumeCSV(f); err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
		}
	}
	return g, nil
}

// NewIndexFromConfig loads the index named by cfg. A cache at CachePath built from the
// same StaticURL is used as-is; otherwise StaticURL (http(s) or local path) is parsed
// and the cache rewritten.
func NewIndexFromConfig(ctx context.Context, cfg config.GTFSConfig) (*Index, error) {
	if cfg.CachePath != "" {
		g, err := ReadCache(cfg.CachePath, cfg.StaticURL)
		if err == nil {
			log.Debug().Str("path", cfg.CachePath).Msg("GTFS index loaded from cache")
			return g, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			log.Info().Err(err).Str("path", cfg.CachePath).Msg("GTFS index cache unusable, rebuilding")
		}
	}
	if cfg.StaticURL == "" {
		return nil, errors.New("gtfs static url is not configured")
	}

	data, err := FetchGTFSData(ctx, cfg.StaticURL)
	if err != nil {
		return nil, err
	}
	g, err := NewIndexFromBytes(data, cfg.AgencyID)
	if err != nil {
		return nil, err
	}

	if cfg.CachePath != "" {
		if err := WriteCache(cfg.CachePath, cfg.StaticURL, g); err != nil {
			log.Warn().Err(err).Str("path", cfg.CachePath).Msg("failed to write GTFS index cache")
		}
	}
	return g, nil
}

// FetchGTFSData reads a GTFS zip from an http(s) URL or a local path
func FetchGTFSData(ctx context.Context, urlOrPath string) ([]byte, error) {
	if !strings.HasPrefix(urlOrPath, "http://") && !strings.HasPrefix(urlOrPath, "https://") {
		return os.ReadFile(urlOrPath)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlOrPath, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", urlOrPath, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, urlOrPath)
	}
	return io.ReadAll(resp.Body)
}

func (g *Index) consumeCSV(f *zip.File) error {
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	rec, err := csvr.ReadAll()
	if err != nil {
		return err
	}
	if len(rec) == 0 {
		return nil
	}
	head := rec[0]
	if len(head) > 0 {
		head[0] = strings.TrimPrefix(head[0], "\ufeff")
	}
	idx := func(col string) int {
		for i, h := range head {
			if strings.EqualFold(strings.TrimSpace(h), col) {
				return i
			}
		}
		return -1
	}
	cell := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return row[i]
	}

	switch strings.ToLower(f.Name) {
	case "agency.txt":
		if len(rec) > 1 {
			if id := cell(rec[1], idx("agency_id")); id != "" && g.AgencyID == "" {
				g.AgencyID = id
			}
			g.AgencyName = cell(rec[1], idx("agency_name"))
			g.AgencyTZ = cell(rec[1], idx("agency_timezone"))
		}
	case "routes.txt":
		rID := idx("route_id")
		rSN := idx("route_short_name")
		rType := idx("route_type")
		for _, row := range rec[1:] {
			id := cell(row, rID)
			if id == "" {
				continue
			}
			g.RouteShortNames[id] = cell(row, rSN)
			if typeInt, err := strconv.Atoi(cell(row, rType)); err == nil {
				g.RouteTypes[id] = typeInt
			}
		}
	case "trips.txt":
		rID := idx("route_id")
		tID := idx("trip_id")
		hs := idx("trip_headsign")
		dir := idx("direction_id")
		for _, row := range rec[1:] {
			trip := cell(row, tID)
			if trip == "" {
				continue
			}
			g.TripRoute[trip] = cell(row, rID)
			if v := cell(row, hs); v != "" {
				g.TripHeadsign[trip] = v
			}
			if v := cell(row, dir); v != "" {
				g.TripDirection[trip] = v
			}
		}
	case "stops.txt":
		sID := idx("stop_id")
		sN := idx("stop_name")
		sLat := idx("stop_lat")
		sLon := idx("stop_lon")
		for _, row := range rec[1:] {
			id := cell(row, sID)
			if id == "" {
				continue
			}
			g.StopNames[id] = cell(row, sN)
			lat, errLat := strconv.ParseFloat(cell(row, sLat), 64)
			lon, errLon := strconv.ParseFloat(cell(row, sLon), 64)
			if errLat == nil && errLon == nil {
				g.StopCoords[id] = [2]float64{lon, lat}
			}
		}
	}
	return nil
}
