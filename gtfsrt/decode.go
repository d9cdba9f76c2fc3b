package gtfsrt

import (
	"fmt"
	"strconv"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/theoremus-urban-solutions/gtfsrt-playback/buffer"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/utils"
)

// ParseFeed unmarshals one GTFS-RT FeedMessage
func ParseFeed(b []byte) (*gtfsrtpb.FeedMessage, error) {
	var fm gtfsrtpb.FeedMessage
	if err := proto.Unmarshal(b, &fm); err != nil {
		return nil, fmt.Errorf("unmarshal feed message: %w", err)
	}
	return &fm, nil
}

// Decode converts feed payloads into records. Every feed may mix vehicle positions and
// trip updates; empty payloads are skipped. Vehicles are keyed by vehicle id, falling back
// to the entity id. A trip update joins the record of the vehicle it names, or of the
// vehicle serving its trip.
func Decode(feeds ...[]byte) ([]buffer.Record, error) {
	messages := make([]*gtfsrtpb.FeedMessage, 0, len(feeds))
	for _, b := range feeds {
		if len(b) == 0 {
			continue
		}
		fm, err := ParseFeed(b)
		if err != nil {
			return nil, err
		}
		messages = append(messages, fm)
	}

	d := decoder{
		pos:          map[string]int{},
		tripToEntity: map[string]string{},
	}
	for _, fm := range messages {
		d.vehicles(fm)
	}
	for _, fm := range messages {
		d.tripUpdates(fm)
	}
	return buffer.Sanitize(d.records), nil
}

type decoder struct {
	records      []buffer.Record
	pos          map[string]int    // entity id -> index in records
	tripToEntity map[string]string // trip_id -> entity id
}

func (d *decoder) record(id string) *buffer.Record {
	if i, ok := d.pos[id]; ok {
		return &d.records[i]
	}
	d.pos[id] = len(d.records)
	d.records = append(d.records, buffer.Record{EntityID: id})
	return &d.records[len(d.records)-1]
}

func (d *decoder) vehicles(fm *gtfsrtpb.FeedMessage) {
	headerTS := fm.GetHeader().GetTimestamp()
	for _, e := range fm.GetEntity() {
		v := e.GetVehicle()
		if v == nil || v.GetPosition() == nil {
			continue
		}
		id := v.GetVehicle().GetId()
		if id == "" {
			id = e.GetId()
		}
		if id == "" {
			continue
		}

		ts := v.GetTimestamp()
		if ts == 0 {
			ts = headerTS
		}
		pos := v.GetPosition()
		payload := buffer.Payload{
			Latitude:  float64(pos.GetLatitude()),
			Longitude: float64(pos.GetLongitude()),
			TripID:    v.GetTrip().GetTripId(),
			RouteID:   v.GetTrip().GetRouteId(),
		}
		if pos.Bearing != nil {
			b := float64(pos.GetBearing())
			payload.Bearing = &b
		}
		if pos.Speed != nil {
			s := float64(pos.GetSpeed())
			payload.Speed = &s
		}
		if v.CurrentStatus != nil {
			payload.Status = v.GetCurrentStatus().String()
		}

		r := d.record(id)
		r.Updates = append(r.Updates, buffer.Update{
			EntityID: id,
			Time:     utils.FromUnixSeconds(ts),
			Payload:  payload,
		})
		if trip := v.GetTrip(); trip != nil && trip.GetTripId() != "" {
			d.tripToEntity[trip.GetTripId()] = id
			if r.Schedule == nil || len(r.Schedule.StopTimes) == 0 {
				r.Schedule = scheduleFromTrip(trip)
			}
		}
	}
}

func (d *decoder) tripUpdates(fm *gtfsrtpb.FeedMessage) {
	for _, e := range fm.GetEntity() {
		tu := e.GetTripUpdate()
		if tu == nil || tu.GetTrip() == nil {
			continue
		}
		tripID := tu.GetTrip().GetTripId()
		id := tu.GetVehicle().GetId()
		if id == "" {
			id = d.tripToEntity[tripID]
		}
		if id == "" {
			id = e.GetId()
		}
		if id == "" {
			continue
		}

		sched := scheduleFromTrip(tu.GetTrip())
		for _, stu := range tu.GetStopTimeUpdate() {
			if stu.GetStopId() == "" {
				continue
			}
			sched.StopTimes = append(sched.StopTimes, buffer.StopTime{
				StopID:    stu.GetStopId(),
				Arrival:   eventTime(stu.GetArrival()),
				Departure: eventTime(stu.GetDeparture()),
			})
		}
		d.record(id).Schedule = sched
	}
}

func scheduleFromTrip(trip *gtfsrtpb.TripDescriptor) *buffer.Schedule {
	s := &buffer.Schedule{
		TripID:    trip.GetTripId(),
		RouteID:   trip.GetRouteId(),
		StartDate: trip.GetStartDate(),
	}
	if trip.DirectionId != nil {
		s.DirectionID = strconv.FormatUint(uint64(trip.GetDirectionId()), 10)
	}
	return s
}

func eventTime(ev *gtfsrtpb.TripUpdate_StopTimeEvent) time.Time {
	if ev == nil || ev.GetTime() <= 0 {
		return time.Time{}
	}
	return time.Unix(ev.GetTime(), 0).UTC()
}
