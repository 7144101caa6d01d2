package dynamics

import "math"

const ln2 = 0.693147180559945309417232121458

// Follower smooths a level in dB with separate attack and release times.
// Times are half-lives: after one attack time a rising level has covered
// half of the distance to its target.
type Follower struct {
	sampleRate float64
	attack     float64 // seconds
	release    float64 // seconds
	state      float64
	primed     bool
}

// Prepare sets the sample rate and resets the state.
func (f *Follower) Prepare(sampleRate float64) {
	f.sampleRate = sampleRate
	f.Reset()
}

// SetAttack sets the attack half-life in seconds.
func (f *Follower) SetAttack(seconds float64) {
	f.attack = math.Max(seconds, 0)
}

// SetRelease sets the release half-life in seconds.
func (f *Follower) SetRelease(seconds float64) {
	f.release = math.Max(seconds, 0)
}

// Process advances the follower by n samples towards target and returns the
// smoothed level. The first call after Reset jumps straight to target.
func (f *Follower) Process(target float64, n int) float64 {
	if !f.primed {
		f.state = target
		f.primed = true

		return target
	}

	tau := f.release
	if target > f.state {
		tau = f.attack
	}

	if tau <= 0 || f.sampleRate <= 0 {
		f.state = target
		return target
	}

	alpha := mathExp(-ln2 * float64(n) / (tau * f.sampleRate))
	f.state = target + alpha*(f.state-target)

	return f.state
}

// Value returns the current smoothed level.
func (f *Follower) Value() float64 {
	return f.state
}

// Reset forgets the state.
func (f *Follower) Reset() {
	f.state = 0
	f.primed = false
}
