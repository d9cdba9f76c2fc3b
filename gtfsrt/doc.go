// Package gtfsrt turns GTFS-Realtime protobuf feeds into playback records.
//
// It covers the two feed kinds a vehicle animation needs:
//   - Vehicle Positions: where each vehicle was and when
//   - Trip Updates: the trip a vehicle serves and its predicted stop times
//
// Live sessions read the current feed snapshot over HTTP (or from a local file);
// replay sessions read timestamped snapshots from an Archive directory. Fetcher
// implements driver.Fetcher over both.
package gtfsrt
