// Package spectrum runs the background spectrum analyzer that observes the
// engine's pre, post and side signals.
//
// The audio goroutine pushes blocks into per-tap rings and calls Process,
// which hands the latest frames to the worker only if the handoff lock is
// free. The worker, started with Run, computes windowed power spectra with
// exponential averaging. A reader calls TrySnapshot and skips the frame when
// the worker holds the result lock. Neither side ever waits on the other.
package spectrum
