// Package server exposes playback sessions over HTTP.
//
//	GET /api/health  readiness and configured sources
//	GET /metrics     Prometheus metrics
//	GET /ws          one playback session per websocket connection
//
// A websocket connection is configured by its query string (source, live, time, speed,
// bbox, key, format, paused) and steered afterwards with JSON control messages such as
// {"type":"pause"} or {"type":"speed","speed":4}. Frames are pushed in the requested
// format; status messages are JSON objects with a "type" field.
package server
