// Package dynamics provides the level-dependent building blocks of a dynamic
// EQ band: a soft-knee gain computer, a dB-domain attack/release follower, a
// detector that combines both with a loudness tracker, and decaying level
// histograms used to learn thresholds from program material.
//
// All types are single-threaded unless documented otherwise. KneeComputer
// guards its coefficient set with a short critical section so that the
// control surface may adjust it while the audio thread evaluates it.
package dynamics
