package task

import (
	"math"
	"time"

	"github.com/verte-zerg/stopit/internal/model"
)

// Feedback messages shown after a trial.
const (
	FeedbackCorrect     = "correct response"
	FeedbackIncorrect   = "incorrect response"
	FeedbackTooSlow     = "too slow"
	FeedbackCorrectStop = "correct stop"
	FeedbackFailedStop  = "remember: try to stop"
)

// Classify labels a trial and builds its outcome record. ssd is the delay
// that was requested for the trial, before any staircase update.
func Classify(block, trial int, spec model.TrialSpec, raw model.RawResponse, ssd time.Duration) model.TrialOutcome {
	out := model.TrialOutcome{
		Block:    block,
		Trial:    trial,
		Spec:     spec,
		Response: model.KeyNone,
	}
	responded := raw.Responded()
	if responded {
		out.Response = raw.Key
		out.RTMs = Millis(raw.Elapsed)
	}

	if !spec.HasSignal {
		switch {
		case responded && raw.Key == spec.Direction.Key():
			out.Correct = true
			out.Feedback = FeedbackCorrect
		case responded:
			out.Feedback = FeedbackIncorrect
		default:
			out.Feedback = FeedbackTooSlow
		}
		return out
	}

	out.SignalRequestMs = Millis(ssd)
	out.SignalActualMs = Millis(raw.SignalAt)
	if responded {
		out.Feedback = FeedbackFailedStop
	} else {
		out.Correct = true
		out.Feedback = FeedbackCorrectStop
	}
	return out
}

// Millis converts d to whole milliseconds, rounding half to even.
func Millis(d time.Duration) int64 {
	return int64(math.RoundToEven(float64(d) / float64(time.Millisecond)))
}
