/*
Package gtfs loads the static GTFS tables that decorate realtime vehicles.

Realtime feeds name trips and routes by id only; the index built here maps them to
what a map overlay shows: route short names, headsigns and directions.

# Basic Usage

Load from raw bytes:

	index, err := gtfs.NewIndexFromBytes(gtfsZipBytes, "AGENCY_ID")
	if err != nil {
	    log.Fatal(err)
	}
	index.Enrich(schedule)

Load from configuration (http(s) URL or local path, optionally cached on disk):

	index, err := gtfs.NewIndexFromConfig(ctx, feed.GTFS)

# Performance: Cache the Index

Parse GTFS once at startup and keep the index in memory. Setting CachePath stores a gob
encoding of the index so restarts skip the zip parse.
*/
package gtfs
