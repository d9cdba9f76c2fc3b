// Package utils provides small helpers shared by the playback packages.
//
// It contains:
//   - Time formatting and parsing (ISO8601 / RFC3339, unix seconds)
//   - Duration scaling for playback speed multipliers
package utils
