package stats

import (
	"math"
	"strings"

	"github.com/verte-zerg/stopit/internal/model"
)

const sparkChars = " .:-=+*#%@"

// SSDTrack returns the requested SSD (ms) of each signal trial in order.
func SSDTrack(outcomes []model.TrialOutcome) []float64 {
	var track []float64
	for _, o := range outcomes {
		if o.Spec.HasSignal {
			track = append(track, float64(o.SignalRequestMs))
		}
	}
	return track
}

// StopAccuracyTrack returns 1 for each successful stop and 0 otherwise.
func StopAccuracyTrack(outcomes []model.TrialOutcome) []float64 {
	var track []float64
	for _, o := range outcomes {
		if !o.Spec.HasSignal {
			continue
		}
		v := 0.0
		if o.Correct {
			v = 1
		}
		track = append(track, v)
	}
	return track
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}
