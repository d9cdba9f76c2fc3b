package formatter

import (
	geojson "github.com/paulmach/go.geojson"

	"github.com/theoremus-urban-solutions/gtfsrt-playback/projector"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/utils"
)

// BuildFeatureCollection renders each state as a Point feature ([lon, lat]) whose
// properties carry the vehicle's attributes.
func BuildFeatureCollection(frame projector.Frame) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, st := range frame.States {
		p := st.Payload
		f := geojson.NewPointFeature([]float64{p.Longitude, p.Latitude})
		f.ID = st.EntityID
		f.SetProperty("entityId", st.EntityID)
		f.SetProperty("recordedAt", utils.Iso8601(st.Time))
		if p.Bearing != nil {
			f.SetProperty("bearing", *p.Bearing)
		}
		if p.Speed != nil {
			f.SetProperty("speed", *p.Speed)
		}
		if p.Status != "" {
			f.SetProperty("status", p.Status)
		}
		tripID, routeID := p.TripID, p.RouteID
		if s := st.Schedule; s != nil {
			if s.TripID != "" {
				tripID = s.TripID
			}
			if s.RouteID != "" {
				routeID = s.RouteID
			}
			if s.RouteShortName != "" {
				f.SetProperty("routeShortName", s.RouteShortName)
			}
			if s.Headsign != "" {
				f.SetProperty("headsign", s.Headsign)
			}
			if s.DirectionID != "" {
				f.SetProperty("directionId", s.DirectionID)
			}
		}
		if tripID != "" {
			f.SetProperty("tripId", tripID)
		}
		if routeID != "" {
			f.SetProperty("routeId", routeID)
		}
		fc.AddFeature(f)
	}
	return fc
}
