package config

// ServerConfig contains server configuration
type ServerConfig struct {
	Port         int    `yaml:"port" toml:"port" validate:"gt=0"`
	FrameEveryMS int    `yaml:"frameEveryMS" toml:"frameEveryMS" validate:"gte=0"` // minimum gap between frames pushed to a client
	Codespace    string `yaml:"codespace" toml:"codespace"`
}

// LoggingConfig contains log output settings
type LoggingConfig struct {
	Level string `yaml:"level" toml:"level" validate:"omitempty,oneof=trace debug info warn error disabled"`
}

// WindowConfig overrides the buffer window constants of one playback mode.
// Zero values keep the built-in defaults.
type WindowConfig struct {
	InitialSeconds        int `yaml:"initialSeconds" toml:"initialSeconds" validate:"gte=0"`
	SubsequentSeconds     int `yaml:"subsequentSeconds" toml:"subsequentSeconds" validate:"gte=0"`
	RetrieveBeforeSeconds int `yaml:"retrieveBeforeSeconds" toml:"retrieveBeforeSeconds" validate:"gte=0"`
}

// PlaybackConfig contains animation loop settings
type PlaybackConfig struct {
	FrameIntervalMS int          `yaml:"frameIntervalMS" toml:"frameIntervalMS" validate:"gte=0"`
	RetryIntervalMS int          `yaml:"retryIntervalMS" toml:"retryIntervalMS" validate:"gte=0"`
	Speed           float64      `yaml:"speed" toml:"speed" validate:"gte=0"`
	Live            WindowConfig `yaml:"live" toml:"live"`
	Replay          WindowConfig `yaml:"replay" toml:"replay"`
}

// GTFSConfig contains GTFS static feed configuration.
// StaticURL may be an http(s) URL or a local zip path.
type GTFSConfig struct {
	StaticURL string `yaml:"staticURL" toml:"staticURL" validate:"omitempty"`
	AgencyID  string `yaml:"agency_id" toml:"agency_id" validate:"omitempty"`
	CachePath string `yaml:"cachePath" toml:"cachePath" validate:"omitempty"`
}

// GTFSRTConfig contains GTFS-Realtime feed configuration.
// URLs may also be local file paths; ArchiveDir holds historical snapshots for replay.
type GTFSRTConfig struct {
	VehiclePositionsURL string `yaml:"vehiclePositionsURL" toml:"vehiclePositionsURL" validate:"omitempty"`
	TripUpdatesURL      string `yaml:"tripUpdatesURL" toml:"tripUpdatesURL" validate:"omitempty"`
	ArchiveDir          string `yaml:"archiveDir" toml:"archiveDir" validate:"omitempty"`
	TimeoutMS           int    `yaml:"timeoutMS" toml:"timeoutMS" validate:"gte=0"`
	APIKeyHeader        string `yaml:"apiKeyHeader" toml:"apiKeyHeader"`
	APIKey              string `yaml:"apiKey" toml:"apiKey"`
}

// Feed represents a single named data source
type Feed struct {
	Name   string       `yaml:"name" toml:"name" validate:"required"`
	GTFS   GTFSConfig   `yaml:"gtfs" toml:"gtfs"`
	GTFSRT GTFSRTConfig `yaml:"gtfsrt" toml:"gtfsrt"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
	Playback PlaybackConfig `yaml:"playback" toml:"playback"`
	GTFS     GTFSConfig     `yaml:"gtfs" toml:"gtfs"`
	GTFSRT   GTFSRTConfig   `yaml:"gtfsrt" toml:"gtfsrt"`
	Feeds    []Feed         `yaml:"feeds" toml:"feeds" validate:"dive"`
}
