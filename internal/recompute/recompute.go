// Package recompute provides the small state machine shared by every
// resource that is rebuilt lazily on the audio thread: filter coefficients,
// knee coefficients, correction kernels, routing tables.
//
// Writers call MarkDirty from any goroutine. The owner calls Run (or the
// Begin/End pair) once per processing quantum; the rebuild happens at most
// once per quantum and a MarkDirty that races with a rebuild is never lost.
package recompute

import "sync/atomic"

// State is the lifecycle state of a recomputable resource.
type State uint32

const (
	// Clean means the derived data matches the inputs.
	Clean State = iota
	// Dirty means an input changed since the last rebuild.
	Dirty
	// Recomputing means a rebuild is in progress.
	Recomputing
)

// String returns a readable state name.
func (s State) String() string {
	switch s {
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	case Recomputing:
		return "recomputing"
	default:
		return "unknown"
	}
}

// Flag tracks the state of one recomputable resource. The zero value is Clean.
type Flag struct {
	state atomic.Uint32
}

// MarkDirty records that an input changed. Marking a resource that is being
// rebuilt moves it back to Dirty, so End leaves it dirty for the next quantum.
func (f *Flag) MarkDirty() {
	f.state.Store(uint32(Dirty))
}

// State returns the current state.
func (f *Flag) State() State {
	return State(f.state.Load())
}

// IsDirty reports whether a rebuild is pending.
func (f *Flag) IsDirty() bool {
	return f.State() == Dirty
}

// Begin claims a pending rebuild. It returns false when there is nothing to do.
func (f *Flag) Begin() bool {
	return f.state.CompareAndSwap(uint32(Dirty), uint32(Recomputing))
}

// End finishes a rebuild started with Begin. If the resource was marked dirty
// while rebuilding it stays Dirty.
func (f *Flag) End() {
	f.state.CompareAndSwap(uint32(Recomputing), uint32(Clean))
}

// Run rebuilds via fn if the resource is dirty and reports whether fn ran.
func (f *Flag) Run(fn func()) bool {
	if !f.Begin() {
		return false
	}

	fn()
	f.End()

	return true
}
