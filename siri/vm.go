package siri

// VehicleMonitoring represents the VehicleMonitoring delivery
type VehicleMonitoring struct {
	ResponseTimestamp string                 `json:"ResponseTimestamp"`
	ValidUntil        string                 `json:"ValidUntil"`
	VehicleActivity   []VehicleActivityEntry `json:"VehicleActivity"`
}

// VehicleActivityEntry represents a single vehicle's activity
type VehicleActivityEntry struct {
	RecordedAtTime          string                  `json:"RecordedAtTime"`
	ValidUntilTime          string                  `json:"ValidUntilTime,omitempty"`
	MonitoredVehicleJourney MonitoredVehicleJourney `json:"MonitoredVehicleJourney"`
}

// FramedVehicleJourneyRef identifies a dated journey
type FramedVehicleJourneyRef struct {
	DataFrameRef           string `json:"DataFrameRef"`
	DatedVehicleJourneyRef string `json:"DatedVehicleJourneyRef"`
}

// MonitoredVehicleJourney contains details about a monitored vehicle journey
type MonitoredVehicleJourney struct {
	LineRef                 string                   `json:"LineRef,omitempty"`
	DirectionRef            string                   `json:"DirectionRef,omitempty"`
	FramedVehicleJourneyRef *FramedVehicleJourneyRef `json:"FramedVehicleJourneyRef,omitempty"`
	PublishedLineName       string                   `json:"PublishedLineName,omitempty"`
	OperatorRef             string                   `json:"OperatorRef,omitempty"`
	DestinationName         string                   `json:"DestinationName,omitempty"`
	Monitored               bool                     `json:"Monitored"`
	DataSource              string                   `json:"DataSource"`
	VehicleLocation         VehicleLocation          `json:"VehicleLocation"`
	Bearing                 *float64                 `json:"Bearing,omitempty"`
	Velocity                *int                     `json:"Velocity,omitempty"` // km/h
	VehicleStatus           string                   `json:"VehicleStatus,omitempty"`
	VehicleRef              string                   `json:"VehicleRef"`
	MonitoredCall           *MonitoredCall           `json:"MonitoredCall,omitempty"` // next stop only
	IsCompleteStopSequence  bool                     `json:"IsCompleteStopSequence"`
}

// VehicleLocation represents the geographical location of a vehicle
type VehicleLocation struct {
	Latitude  float64 `json:"Latitude"`
	Longitude float64 `json:"Longitude"`
}

// MonitoredCall represents the stop the vehicle is heading to
type MonitoredCall struct {
	StopPointRef          string `json:"StopPointRef"`
	Order                 int    `json:"Order,omitempty"`
	ExpectedArrivalTime   string `json:"ExpectedArrivalTime,omitempty"`
	ExpectedDepartureTime string `json:"ExpectedDepartureTime,omitempty"`
	DestinationDisplay    string `json:"DestinationDisplay,omitempty"`
}
