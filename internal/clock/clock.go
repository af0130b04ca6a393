// Package clock provides the monotonic timing source used by the task.
package clock

import "time"

// Clock reports the time elapsed since its last reset.
type Clock interface {
	Reset()
	Elapsed() time.Duration
}

// Monotonic is a Clock backed by the runtime's monotonic clock reading.
type Monotonic struct {
	start time.Time
	now   func() time.Time
}

// New returns a Monotonic clock reset to the current instant.
func New() *Monotonic {
	c := &Monotonic{now: time.Now}
	c.Reset()
	return c
}

// Reset sets the zero point to the current instant.
func (c *Monotonic) Reset() {
	c.start = c.now()
}

// Elapsed returns the time since the last Reset.
func (c *Monotonic) Elapsed() time.Duration {
	return c.now().Sub(c.start)
}

// Countdown reports the time left until a deadline.
type Countdown struct {
	deadline time.Time
	now      func() time.Time
}

// NewCountdown starts a countdown of length d.
func NewCountdown(d time.Duration) *Countdown {
	return newCountdown(d, time.Now)
}

func newCountdown(d time.Duration, now func() time.Time) *Countdown {
	return &Countdown{deadline: now().Add(d), now: now}
}

// Remaining returns the time left, or zero once the deadline has passed.
func (c *Countdown) Remaining() time.Duration {
	left := c.deadline.Sub(c.now())
	if left < 0 {
		return 0
	}
	return left
}

// Done reports whether the deadline has passed.
func (c *Countdown) Done() bool {
	return c.Remaining() == 0
}

// SecondsLeft returns the remaining time rounded up to whole seconds.
func (c *Countdown) SecondsLeft() int {
	left := c.Remaining()
	secs := int(left / time.Second)
	if left%time.Second != 0 {
		secs++
	}
	return secs
}
