// Package buffer holds the time-windowed entity buffer behind a playback session.
//
// It provides:
//   - Record / Update / Schedule: the per-vehicle aggregate fetched from a data source
//   - Window and Mode: the [Start, End) fetch interval and the live/replay policy for advancing it
//   - Merge: folding a freshly fetched batch into the buffer, trimming stale updates and
//     deduplicating by entity id
//
// Everything here is a value type or a pure function; the owning session is responsible for
// serializing access.
package buffer
