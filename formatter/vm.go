package formatter

import (
	"math"
	"time"

	"github.com/theoremus-urban-solutions/gtfsrt-playback/buffer"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/projector"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/siri"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/utils"
)

// BuildVehicleMonitoring maps every state of frame to a VehicleActivity.
// Deliveries are valid for validFor past the frame's animation time.
func BuildVehicleMonitoring(frame projector.Frame, codespace string, validFor time.Duration) siri.VehicleMonitoring {
	validUntil := utils.ValidUntil(frame.AnimationTime, validFor)
	vm := siri.VehicleMonitoring{
		ResponseTimestamp: utils.Iso8601(frame.AnimationTime),
		ValidUntil:        validUntil,
		VehicleActivity:   make([]siri.VehicleActivityEntry, 0, len(frame.States)),
	}
	for _, st := range frame.States {
		vm.VehicleActivity = append(vm.VehicleActivity, siri.VehicleActivityEntry{
			RecordedAtTime:          utils.Iso8601(st.Time),
			ValidUntilTime:          validUntil,
			MonitoredVehicleJourney: buildMVJ(st, frame.AnimationTime, codespace),
		})
	}
	return vm
}

func buildMVJ(st projector.State, at time.Time, codespace string) siri.MonitoredVehicleJourney {
	p := st.Payload
	mvj := siri.MonitoredVehicleJourney{
		OperatorRef:     codespace,
		Monitored:       true,
		DataSource:      codespace,
		VehicleLocation: siri.VehicleLocation{Latitude: p.Latitude, Longitude: p.Longitude},
		Bearing:         p.Bearing,
		VehicleStatus:   p.Status,
		VehicleRef:      ref(codespace, "VehicleRef", st.EntityID),
	}
	if p.Speed != nil {
		kmh := int(math.Round(*p.Speed * 3.6))
		mvj.Velocity = &kmh
	}

	routeID, tripID := p.RouteID, p.TripID
	if s := st.Schedule; s != nil {
		if s.RouteID != "" {
			routeID = s.RouteID
		}
		if s.TripID != "" {
			tripID = s.TripID
		}
		mvj.DirectionRef = s.DirectionID
		mvj.PublishedLineName = s.RouteShortName
		mvj.DestinationName = s.Headsign
		mvj.MonitoredCall = nextCall(s, at, codespace)
		if len(s.StartDate) == 8 && tripID != "" { // YYYYMMDD
			mvj.FramedVehicleJourneyRef = &siri.FramedVehicleJourneyRef{
				DataFrameRef:           s.StartDate[:4] + "-" + s.StartDate[4:6] + "-" + s.StartDate[6:8],
				DatedVehicleJourneyRef: ref(codespace, "ServiceJourney", tripID),
			}
		}
	}
	mvj.LineRef = ref(codespace, "Line", routeID)
	return mvj
}

// nextCall is the first stop not yet left at animation time at
func nextCall(s *buffer.Schedule, at time.Time, codespace string) *siri.MonitoredCall {
	for i, stop := range s.StopTimes {
		last := stop.Departure
		if last.IsZero() {
			last = stop.Arrival
		}
		if last.IsZero() || last.Before(at) {
			continue
		}
		call := &siri.MonitoredCall{
			StopPointRef:       ref(codespace, "Quay", stop.StopID),
			Order:              i + 1,
			DestinationDisplay: s.Headsign,
		}
		if !stop.Arrival.IsZero() {
			call.ExpectedArrivalTime = utils.Iso8601(stop.Arrival)
		}
		if !stop.Departure.IsZero() {
			call.ExpectedDepartureTime = utils.Iso8601(stop.Departure)
		}
		return call
	}
	return nil
}

// ref builds {codespace}:{kind}:{id}
func ref(codespace, kind, id string) string {
	if id == "" {
		return ""
	}
	if codespace == "" {
		return id
	}
	return codespace + ":" + kind + ":" + id
}
