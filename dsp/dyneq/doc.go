// Package dyneq implements the signal path of a 16-band dynamic equalizer.
//
// Each band is an equalizer filter whose gain and Q move between a static
// setting and a target setting as a sidechain compressor engages. Bands are
// routed to the stereo signal or to one of its left, right, mid or side
// components. The engine runs one of six filter structures: minimum phase
// biquads, state variable filters, a parallel mix, or minimum phase filters
// followed by a matched or mixed phase FIR correction, or a linear phase FIR
// bank that replaces the filters.
//
// Audio is processed in fixed sub-buffers, so the engine adds a constant
// latency. Controller.Latency reports the total and WithLatencyCallback
// delivers changes off the audio goroutine.
//
// Parameters live in an immutable Params snapshot. Control goroutines
// publish new snapshots through Controller.Update; the audio goroutine
// picks up the newest one at every sub-buffer and never waits for a lock
// held by the control side.
package dyneq
