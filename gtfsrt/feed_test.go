package gtfsrt

import (
	"testing"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func unix(d time.Duration) uint64 {
	return uint64(t0.Add(d).Unix())
}

func feed(t *testing.T, ts uint64, entities ...*gtfsrtpb.FeedEntity) []byte {
	t.Helper()
	fm := &gtfsrtpb.FeedMessage{
		Header: &gtfsrtpb.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Timestamp:           proto.Uint64(ts),
		},
		Entity: entities,
	}
	b, err := proto.Marshal(fm)
	if err != nil {
		t.Fatalf("marshal feed: %v", err)
	}
	return b
}

func vehicleEntity(entityID, vehicleID, tripID string, lat, lon float32, ts uint64) *gtfsrtpb.FeedEntity {
	vp := &gtfsrtpb.VehiclePosition{
		Position: &gtfsrtpb.Position{
			Latitude:  proto.Float32(lat),
			Longitude: proto.Float32(lon),
			Bearing:   proto.Float32(90),
		},
	}
	if vehicleID != "" {
		vp.Vehicle = &gtfsrtpb.VehicleDescriptor{Id: proto.String(vehicleID)}
	}
	if tripID != "" {
		vp.Trip = &gtfsrtpb.TripDescriptor{TripId: proto.String(tripID), RouteId: proto.String("R1")}
	}
	if ts > 0 {
		vp.Timestamp = proto.Uint64(ts)
	}
	return &gtfsrtpb.FeedEntity{Id: proto.String(entityID), Vehicle: vp}
}

func tripUpdateEntity(entityID, vehicleID, tripID string, stops ...string) *gtfsrtpb.FeedEntity {
	tu := &gtfsrtpb.TripUpdate{
		Trip: &gtfsrtpb.TripDescriptor{
			TripId:      proto.String(tripID),
			RouteId:     proto.String("R1"),
			DirectionId: proto.Uint32(1),
			StartDate:   proto.String("20240501"),
		},
	}
	if vehicleID != "" {
		tu.Vehicle = &gtfsrtpb.VehicleDescriptor{Id: proto.String(vehicleID)}
	}
	for i, stop := range stops {
		tu.StopTimeUpdate = append(tu.StopTimeUpdate, &gtfsrtpb.TripUpdate_StopTimeUpdate{
			StopId:  proto.String(stop),
			Arrival: &gtfsrtpb.TripUpdate_StopTimeEvent{Time: proto.Int64(t0.Add(time.Duration(i+1) * time.Minute).Unix())},
		})
	}
	return &gtfsrtpb.FeedEntity{Id: proto.String(entityID), TripUpdate: tu}
}
