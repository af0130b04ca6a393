package stats

import (
	"testing"

	"github.com/verte-zerg/stopit/internal/model"
)

func TestSSDTrackOnlySignalTrials(t *testing.T) {
	log := []model.TrialOutcome{
		signal(model.KeyNone, 200),
		noSignal(model.Left, model.KeyLeft, 300, true),
		signal(model.KeyLeft, 250),
	}
	track := SSDTrack(log)
	if len(track) != 2 || track[0] != 200 || track[1] != 250 {
		t.Fatalf("unexpected track: %v", track)
	}
	acc := StopAccuracyTrack(log)
	if len(acc) != 2 || acc[0] != 1 || acc[1] != 0 {
		t.Fatalf("unexpected accuracy track: %v", acc)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{1, 0, 1, 1}, 2)
	want := []float64{1, 0.5, 0.5, 1}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Fatalf("index %d: expected %f, got %f", i, want[i], got[i])
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{50, 100}); got != " @" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{3, 3, 3}); got != "+++" {
		t.Fatalf("unexpected flat sparkline %q", got)
	}
}
