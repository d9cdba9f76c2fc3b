package projector

import (
	"fmt"
	"strconv"
	"strings"
)

// Viewport is a lat/lon bounding box. The zero Viewport is unbounded.
type Viewport struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// IsZero reports the unbounded viewport
func (v Viewport) IsZero() bool {
	return v == Viewport{}
}

// Contains reports whether the point lies inside the box, edges included
func (v Viewport) Contains(lat, lon float64) bool {
	if v.IsZero() {
		return true
	}
	return lat >= v.MinLat && lat <= v.MaxLat && lon >= v.MinLon && lon <= v.MaxLon
}

// ParseBBox parses "minLon,minLat,maxLon,maxLat" (GeoJSON bbox order). Empty input is the zero Viewport.
func ParseBBox(s string) (Viewport, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Viewport{}, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Viewport{}, fmt.Errorf("bbox needs 4 comma-separated numbers, got %d", len(parts))
	}
	var vals [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Viewport{}, fmt.Errorf("bbox value %q: %w", p, err)
		}
		vals[i] = f
	}
	v := Viewport{MinLon: vals[0], MinLat: vals[1], MaxLon: vals[2], MaxLat: vals[3]}
	if v.MinLat > v.MaxLat || v.MinLon > v.MaxLon {
		return Viewport{}, fmt.Errorf("bbox min exceeds max: %s", s)
	}
	return v, nil
}
