// Package task runs stop-signal trials and sequences them into a session.
package task

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/verte-zerg/stopit/internal/clock"
	"github.com/verte-zerg/stopit/internal/model"
)

// ErrUserAbort is returned when the abort key is pressed during a trial.
var ErrUserAbort = errors.New("experiment aborted by user")

// Renderer draws stimuli and text. Draw calls prepare the next frame;
// Present commits it. Presenting without drawing blanks the screen.
type Renderer interface {
	DrawStimulus(kind model.StimulusKind, dir model.Direction)
	DrawText(text string)
	Present()
}

// ResponseSource reports key presses without blocking.
type ResponseSource interface {
	// Poll returns the oldest unconsumed key in allowed, if any.
	Poll(allowed []model.Key) (model.Key, bool)
	// Clear drops all pending key presses.
	Clear()
}

// RunnerConfig holds the per-trial timing settings.
type RunnerConfig struct {
	ITI   time.Duration
	MaxRT time.Duration
	// DrawLatency is subtracted from the SSD before the onset check to
	// compensate for the time a frame takes to reach the screen.
	DrawLatency time.Duration
	// PollInterval is slept between loop iterations; zero spins.
	PollInterval time.Duration
}

// Runner runs single trials.
type Runner struct {
	cfg       RunnerConfig
	renderer  Renderer
	responses ResponseSource
	clock     clock.Clock
	wait      func(context.Context, time.Duration) error
}

var trialKeys = []model.Key{model.KeyLeft, model.KeyRight, model.KeyAbort}

// NewRunner constructs a trial runner.
func NewRunner(cfg RunnerConfig, renderer Renderer, responses ResponseSource, clk clock.Clock) *Runner {
	return &Runner{
		cfg:       cfg,
		renderer:  renderer,
		responses: responses,
		clock:     clk,
		wait:      sleep,
	}
}

// RunTrial presents one trial and returns what was observed. The loop is
// wall-clock driven: it ends on the first response key or once the
// elapsed time exceeds the maximum RT. On signal trials the stop stimulus
// is presented once, as soon as the elapsed time passes ssd minus the draw
// latency margin.
func (r *Runner) RunTrial(ctx context.Context, ssd time.Duration, spec model.TrialSpec) (model.RawResponse, error) {
	r.responses.Clear()
	r.renderer.Present()
	if err := r.wait(ctx, r.cfg.ITI); err != nil {
		return model.RawResponse{}, err
	}

	r.renderer.DrawStimulus(model.GoStimulus, spec.Direction)
	r.renderer.Present()
	r.clock.Reset()

	threshold := ssd - r.cfg.DrawLatency
	raw := model.RawResponse{Key: model.KeyNone}
	signalShown := false
	for {
		if err := ctx.Err(); err != nil {
			return model.RawResponse{}, err
		}
		elapsed := r.clock.Elapsed()
		key, responded := r.responses.Poll(trialKeys)
		if responded && key == model.KeyAbort {
			return model.RawResponse{}, ErrUserAbort
		}
		if spec.HasSignal && !signalShown && elapsed > threshold {
			r.renderer.DrawStimulus(model.StopStimulus, spec.Direction)
			r.renderer.Present()
			raw.SignalAt = r.clock.Elapsed()
			signalShown = true
		}
		if responded || elapsed > r.cfg.MaxRT {
			if responded {
				raw.Key = key
			}
			raw.Elapsed = elapsed
			return raw, nil
		}
		r.idle()
	}
}

func (r *Runner) idle() {
	if r.cfg.PollInterval > 0 {
		time.Sleep(r.cfg.PollInterval)
		return
	}
	runtime.Gosched()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
