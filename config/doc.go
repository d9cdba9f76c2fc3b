// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml (or config.toml) and validated using struct tags.
// The package supports multiple GTFS-RT feeds and allows feed selection by name;
// playback sessions refer to a feed by that name as their source id.
package config
