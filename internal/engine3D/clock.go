package engine3D

import (
	"time"
)

// FrameClock turns variable frame times into fixed simulation steps.
// Alpha is how far the frame sits between the last two steps, for
// render interpolation.
type FrameClock struct {
	Step     float32
	MaxSteps int

	accum float32
	ticks uint64
	start time.Time
}

// NewFrameClock runs at rate steps per second. A frame never runs more
// than maxSteps steps; the rest of a long stall is dropped.
func NewFrameClock(rate float32, maxSteps int) *FrameClock {
	if rate <= 0 {
		rate = 60
	}
	if maxSteps <= 0 {
		maxSteps = 5
	}
	return &FrameClock{Step: 1 / rate, MaxSteps: maxSteps, start: time.Now()}
}

// Advance adds one frame's duration and returns how many steps to run
// and the interpolation alpha for rendering afterwards.
func (c *FrameClock) Advance(frameTime float32) (steps int, alpha float32) {
	if frameTime > 0 {
		c.accum += frameTime
	}
	for c.accum >= c.Step && steps < c.MaxSteps {
		c.accum -= c.Step
		steps++
	}
	if steps == c.MaxSteps && c.accum >= c.Step {
		c.accum = 0
	}
	c.ticks += uint64(steps)
	return steps, c.accum / c.Step
}

// Ticks returns the number of steps run so far.
func (c *FrameClock) Ticks() uint64 { return c.ticks }

// Elapsed is simulated time.
func (c *FrameClock) Elapsed() float32 { return float32(c.ticks) * c.Step }

// Uptime is wall time since the clock was created.
func (c *FrameClock) Uptime() time.Duration { return time.Since(c.start) }

// TimeOfDay returns the fraction of the local day that has passed.
func TimeOfDay(t time.Time) float32 {
	hour, minute, second := t.Clock()
	ms := t.Nanosecond() / 1e6
	return (float32(hour*3600+minute*60+second) + float32(ms)/1000) / 86400
}

// Globals returns the time dependent shader inputs for a frame drawn at
// now. Pointer and alpha cutoff are left to the caller.
func (c *FrameClock) Globals(now time.Time) GlobalState {
	return GlobalState{
		Time:       c.Elapsed(),
		Daytime:    TimeOfDay(now),
		Brightness: 1,
	}
}
