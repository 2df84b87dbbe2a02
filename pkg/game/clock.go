package game

import "time"

// Clock is a fixed-timestep accumulator. Hosts feed it frame deltas and it
// runs every step that has come due, up to a per-frame cap.
type Clock struct {
	now      time.Duration // Simulation time of the last step
	acc      time.Duration
	maxSteps int
	paused   bool
	stopped  bool
}

// NewClock creates a clock draining at most maxSteps per Advance
func NewClock(maxSteps int) *Clock {
	if maxSteps < 1 {
		maxSteps = 1
	}
	return &Clock{maxSteps: maxSteps}
}

// Now returns the simulation time
func (c *Clock) Now() time.Duration {
	return c.now
}

// Pending returns the accumulated time not yet consumed by a step
func (c *Clock) Pending() time.Duration {
	return c.acc
}

// Advance adds delta and runs due steps. stepLen is asked before every step
// so speed changes apply from the next step on. tick returns false to stop
// the clock. Once maxSteps ran, whole steps left in the backlog are dropped.
// It returns the number of steps run.
func (c *Clock) Advance(delta time.Duration, stepLen func() time.Duration, tick func(now time.Duration) bool) int {
	if c.paused || c.stopped || delta <= 0 {
		return 0
	}
	c.acc += delta

	steps := 0
	for {
		step := stepLen()
		if step <= 0 || c.acc < step {
			break
		}
		if steps == c.maxSteps {
			c.acc %= step
			break
		}
		c.acc -= step
		ok := c.Step(step, tick)
		steps++
		if !ok {
			break
		}
	}
	return steps
}

// Step runs a single step of length step regardless of the accumulator
func (c *Clock) Step(step time.Duration, tick func(now time.Duration) bool) bool {
	if c.stopped {
		return false
	}
	c.now += step
	if !tick(c.now) {
		c.stop()
		return false
	}
	return true
}

// Pause freezes the clock. Deltas passed while paused are discarded.
func (c *Clock) Pause() {
	c.paused = true
}

// Resume unfreezes the clock without replaying the paused time
func (c *Clock) Resume() {
	c.paused = false
}

// Stopped reports whether a tick ended the clock
func (c *Clock) Stopped() bool {
	return c.stopped
}

// Reset zeroes time and clears pause and stop
func (c *Clock) Reset() {
	c.now = 0
	c.acc = 0
	c.paused = false
	c.stopped = false
}

func (c *Clock) stop() {
	c.stopped = true
	c.acc = 0
}
