package gtfs

import (
	"github.com/theoremus-urban-solutions/gtfsrt-playback/buffer"
)

// Index stores GTFS static data in memory for fast lookups.
// Fields are exported so the index can be gob-cached.
type Index struct {
	AgencyID        string
	AgencyName      string
	AgencyTZ        string
	RouteShortNames map[string]string     // route_id -> short_name
	RouteTypes      map[string]int        // route_id -> route_type (GTFS enum)
	TripRoute       map[string]string     // trip_id -> route_id
	TripHeadsign    map[string]string     // trip_id -> headsign
	TripDirection   map[string]string     // trip_id -> direction_id ("0"|"1")
	StopNames       map[string]string     // stop_id -> name
	StopCoords      map[string][2]float64 // stop_id -> [lon,lat]
}

// NewIndex creates an empty index
func NewIndex(agencyID string) *Index {
	return &Index{
		AgencyID:        agencyID,
		RouteShortNames: map[string]string{},
		RouteTypes:      map[string]int{},
		TripRoute:       map[string]string{},
		TripHeadsign:    map[string]string{},
		TripDirection:   map[string]string{},
		StopNames:       map[string]string{},
		StopCoords:      map[string][2]float64{},
	}
}

// RouteIDForTrip returns the route serving trip, or ""
func (g *Index) RouteIDForTrip(tripID string) string { return g.TripRoute[tripID] }

// RouteShortName returns the public name of a route, or ""
func (g *Index) RouteShortName(routeID string) string { return g.RouteShortNames[routeID] }

// StopName returns the stop's name, or ""
func (g *Index) StopName(stopID string) string { return g.StopNames[stopID] }

// Enrich fills the fields of s the realtime feed left empty. Realtime values win.
func (g *Index) Enrich(s *buffer.Schedule) {
	if s == nil || s.TripID == "" {
		return
	}
	if s.RouteID == "" {
		s.RouteID = g.TripRoute[s.TripID]
	}
	if s.DirectionID == "" {
		s.DirectionID = g.TripDirection[s.TripID]
	}
	if s.Headsign == "" {
		s.Headsign = g.TripHeadsign[s.TripID]
	}
	if s.RouteShortName == "" && s.RouteID != "" {
		s.RouteShortName = g.RouteShortNames[s.RouteID]
	}
}
