package task

import (
	"time"

	"github.com/verte-zerg/stopit/internal/model"
)

// stepClock advances by step on every Elapsed call.
type stepClock struct {
	now  time.Duration
	step time.Duration
}

func (c *stepClock) Reset() {
	c.now = 0
}

func (c *stepClock) Elapsed() time.Duration {
	c.now += c.step
	return c.now
}

type frame struct {
	stimulus bool
	kind     model.StimulusKind
	dir      model.Direction
	text     string
}

type fakeRenderer struct {
	pending  frame
	current  frame
	frames   []frame
	stopShow int
}

func (r *fakeRenderer) DrawStimulus(kind model.StimulusKind, dir model.Direction) {
	r.pending = frame{stimulus: true, kind: kind, dir: dir}
	if kind == model.StopStimulus {
		r.stopShow++
	}
}

func (r *fakeRenderer) DrawText(text string) {
	r.pending = frame{text: text}
}

func (r *fakeRenderer) Present() {
	r.current = r.pending
	r.frames = append(r.frames, r.pending)
	r.pending = frame{}
}

// scriptedSource answers polls through a callback.
type scriptedSource struct {
	respond func(allowed []model.Key) (model.Key, bool)
	clears  int
}

func (s *scriptedSource) Poll(allowed []model.Key) (model.Key, bool) {
	if s.respond == nil {
		return "", false
	}
	return s.respond(allowed)
}

func (s *scriptedSource) Clear() {
	s.clears++
}

func allows(allowed []model.Key, key model.Key) bool {
	for _, k := range allowed {
		if k == key {
			return true
		}
	}
	return false
}

// respondAt presses key once the clock reaches at.
func respondAt(clk *stepClock, at time.Duration, key model.Key) func([]model.Key) (model.Key, bool) {
	return func(allowed []model.Key) (model.Key, bool) {
		if allows(allowed, key) && clk.now >= at {
			return key, true
		}
		return "", false
	}
}

type memorySink struct {
	outcomes []model.TrialOutcome
	flushes  int
}

func (s *memorySink) Append(o model.TrialOutcome) error {
	s.outcomes = append(s.outcomes, o)
	return nil
}

func (s *memorySink) Flush() error {
	s.flushes++
	return nil
}
