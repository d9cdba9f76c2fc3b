package buffer

import "time"

// Payload is the observed state of a vehicle at one instant
type Payload struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Bearing   *float64 `json:"bearing,omitempty"`
	Speed     *float64 `json:"speed,omitempty"` // meters per second
	TripID    string   `json:"tripId,omitempty"`
	RouteID   string   `json:"routeId,omitempty"`
	Status    string   `json:"status,omitempty"`
}

// Update is one observation of an entity
type Update struct {
	EntityID string    `json:"entityId"`
	Time     time.Time `json:"time"`
	Payload  Payload   `json:"payload"`
}

// StopTime is a planned or predicted call at a stop
type StopTime struct {
	StopID    string    `json:"stopId"`
	Arrival   time.Time `json:"arrival,omitempty"`
	Departure time.Time `json:"departure,omitempty"`
}

// Schedule is the static plan attached to a vehicle's current trip
type Schedule struct {
	TripID         string     `json:"tripId,omitempty"`
	RouteID        string     `json:"routeId,omitempty"`
	DirectionID    string     `json:"directionId,omitempty"`
	StartDate      string     `json:"startDate,omitempty"` // YYYYMMDD
	RouteShortName string     `json:"routeShortName,omitempty"`
	Headsign       string     `json:"headsign,omitempty"`
	StopTimes      []StopTime `json:"stopTimes,omitempty"`
}

// IsEmpty reports whether s carries no plan data. A nil schedule is empty.
func (s *Schedule) IsEmpty() bool {
	if s == nil {
		return true
	}
	return s.TripID == "" && s.RouteID == "" && s.DirectionID == "" && s.StartDate == "" &&
		s.RouteShortName == "" && s.Headsign == "" && len(s.StopTimes) == 0
}

// Record is the per-entity aggregate held in the buffer. EntityID is its identity.
type Record struct {
	EntityID string    `json:"entityId"`
	Schedule *Schedule `json:"schedule,omitempty"`
	Updates  []Update  `json:"updates"`
}

// Empty reports a record that has neither updates nor a schedule
func (r Record) Empty() bool {
	return len(r.Updates) == 0 && r.Schedule.IsEmpty()
}

// Latest returns the newest update at or before t, tolerating unsorted updates.
func (r Record) Latest(t time.Time) (Update, bool) {
	var best Update
	found := false
	for _, u := range r.Updates {
		if u.Time.After(t) {
			continue
		}
		if !found || !u.Time.Before(best.Time) {
			best = u
			found = true
		}
	}
	return best, found
}

// Buffer is the session-owned store: the current fetch window plus merged records.
// Populated flips to true the first time a fetch contributes any record.
type Buffer struct {
	Window
	Data      []Record
	Populated bool
}

// Apply merges batch into the buffer at animationTime and reports whether this
// was the first batch that ever brought data.
func (b *Buffer) Apply(batch []Record, animationTime time.Time) (firstData bool) {
	first := !b.Populated
	b.Data = Merge(b.Data, batch, animationTime, first)
	if first && len(b.Data) > 0 {
		b.Populated = true
		return true
	}
	return false
}
