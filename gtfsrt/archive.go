package gtfsrt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/gtfsrt-playback/buffer"
)

// Snapshot is one archived capture of the realtime feeds
type Snapshot struct {
	Time  time.Time
	Files []string
}

// Archive is a directory of feed captures named by unix second:
// <unix>.pb for a combined feed, or <unix>-vp.pb and <unix>-tu.pb.
type Archive struct {
	Dir string
}

// Snapshots lists the archive in time order
func (a Archive) Snapshots() ([]Snapshot, error) {
	entries, err := os.ReadDir(a.Dir)
	if err != nil {
		return nil, fmt.Errorf("read archive %s: %w", a.Dir, err)
	}

	byTime := map[int64]*Snapshot{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".pb") {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), ".pb")
		stem = strings.TrimSuffix(strings.TrimSuffix(stem, "-vp"), "-tu")
		sec, err := strconv.ParseInt(stem, 10, 64)
		if err != nil {
			continue
		}
		s, ok := byTime[sec]
		if !ok {
			s = &Snapshot{Time: time.Unix(sec, 0).UTC()}
			byTime[sec] = s
		}
		s.Files = append(s.Files, filepath.Join(a.Dir, e.Name()))
	}

	out := make([]Snapshot, 0, len(byTime))
	for _, s := range byTime {
		sort.Strings(s.Files)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

// Load decodes every snapshot captured in w into one coalesced batch.
func (a Archive) Load(ctx context.Context, w buffer.Window) ([]buffer.Record, error) {
	snaps, err := a.Snapshots()
	if err != nil {
		return nil, err
	}

	var batch []buffer.Record
	for _, s := range snaps {
		if !w.Contains(s.Time) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		feeds := make([][]byte, 0, len(s.Files))
		for _, f := range s.Files {
			b, err := os.ReadFile(f)
			if err != nil {
				return nil, fmt.Errorf("read snapshot: %w", err)
			}
			feeds = append(feeds, b)
		}
		records, err := Decode(feeds...)
		if err != nil {
			return nil, fmt.Errorf("decode snapshot %d: %w", s.Time.Unix(), err)
		}
		batch = append(batch, records...)
	}
	return buffer.Sanitize(batch), nil
}

// Save writes one capture. Either payload may be empty.
func (a Archive) Save(at time.Time, vehiclePositions, tripUpdates []byte) error {
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	stem := strconv.FormatInt(at.Unix(), 10)
	if len(vehiclePositions) > 0 {
		if err := os.WriteFile(filepath.Join(a.Dir, stem+"-vp.pb"), vehiclePositions, 0o644); err != nil {
			return fmt.Errorf("write vehicle positions: %w", err)
		}
	}
	if len(tripUpdates) > 0 {
		if err := os.WriteFile(filepath.Join(a.Dir, stem+"-tu.pb"), tripUpdates, 0o644); err != nil {
			return fmt.Errorf("write trip updates: %w", err)
		}
	}
	return nil
}
