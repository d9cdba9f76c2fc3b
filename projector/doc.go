// Package projector selects the vehicle states visible in one animation frame.
//
// A Projector is handed the session's fully merged records, the current viewport and the
// animation instant; the projection Func decides which update of each record applies and
// whether the vehicle falls inside the viewport. SelectLatest is the default Func.
package projector
