// Package driver runs the animation loop of a playback session.
//
// A Session owns one buffer, its fetch window and the animation clock. Every tick it
// advances animation time by speed x elapsed wall time, decides whether the window must
// advance or be reset, issues asynchronous fetches, merges completed fetch results and
// hands the projected frame to a Sink. Fetches never block the loop: their results are
// passed back over a channel and merged at the start of a later tick, newest issue wins.
//
// A Player owns at most one Session and restarts it when options that define the session
// (source, credentials, live flag, start time, viewport) change; playing, speed and
// seeking are applied in place.
//
// Basic usage:
//
//	player := driver.NewPlayer(fetcher, sink, driver.DefaultSettings(), clockwork.NewRealClock(), logger)
//	player.Configure(ctx, driver.Options{SourceID: "sofia", Live: true, Playing: true, Speed: 1})
//	defer player.Stop()
package driver
