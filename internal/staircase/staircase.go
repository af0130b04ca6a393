// Package staircase implements the 1-up/1-down stop-signal delay tracker.
package staircase

import (
	"fmt"
	"time"

	"github.com/verte-zerg/stopit/internal/model"
)

// Controller owns the current stop-signal delay.
type Controller struct {
	ssd   time.Duration
	step  time.Duration
	maxRT time.Duration
}

// New returns a controller starting at initial. The initial value is
// clamped into [step, maxRT-step].
func New(initial, step, maxRT time.Duration) (*Controller, error) {
	if step <= 0 {
		return nil, fmt.Errorf("ssd step must be > 0")
	}
	if maxRT-step < step {
		return nil, fmt.Errorf("max RT %v leaves no room for ssd step %v", maxRT, step)
	}
	c := &Controller{step: step, maxRT: maxRT}
	c.ssd = c.Clamp(initial)
	return c, nil
}

// SSD returns the current stop-signal delay.
func (c *Controller) SSD() time.Duration {
	return c.ssd
}

// Step returns the step size.
func (c *Controller) Step() time.Duration {
	return c.step
}

// Bounds returns the valid SSD range.
func (c *Controller) Bounds() (lo, hi time.Duration) {
	return c.step, c.maxRT - c.step
}

// Update applies one staircase step after a trial and returns the new SSD.
// No-signal trials leave the delay untouched. A response on a signal trial
// (failed stop) shortens the delay; a withheld response lengthens it.
func (c *Controller) Update(spec model.TrialSpec, responded bool) time.Duration {
	if !spec.HasSignal {
		return c.ssd
	}
	next := c.ssd
	if responded {
		next -= c.step
	} else {
		next += c.step
	}
	c.ssd = c.Clamp(next)
	return c.ssd
}

// Clamp bounds ssd to [step, maxRT-step].
func (c *Controller) Clamp(ssd time.Duration) time.Duration {
	lo, hi := c.Bounds()
	if ssd < lo {
		ssd = lo
	}
	if ssd > hi {
		ssd = hi
	}
	return ssd
}
