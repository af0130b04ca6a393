package stats

import (
	"errors"
	"math"
	"testing"

	"github.com/verte-zerg/stopit/internal/model"
)

func noSignal(dir model.Direction, resp model.Key, rt int64, correct bool) model.TrialOutcome {
	return model.TrialOutcome{
		Block:    1,
		Spec:     model.TrialSpec{Direction: dir},
		Response: resp,
		RTMs:     rt,
		Correct:  correct,
	}
}

func signal(resp model.Key, ssd int64) model.TrialOutcome {
	o := model.TrialOutcome{
		Block:           1,
		Spec:            model.TrialSpec{Direction: model.Left, HasSignal: true},
		Response:        resp,
		SignalRequestMs: ssd,
		Correct:         resp == model.KeyNone,
	}
	return o
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func scenarioLog() []model.TrialOutcome {
	var log []model.TrialOutcome
	for i := 0; i < 6; i++ {
		log = append(log, noSignal(model.Left, model.KeyLeft, 300, true))
	}
	log = append(log, noSignal(model.Left, model.KeyRight, 500, false))
	log = append(log, noSignal(model.Right, model.KeyLeft, 500, false))
	for i := 0; i < 4; i++ {
		log = append(log, noSignal(model.Right, model.KeyNone, 0, false))
	}
	log = append(log, signal(model.KeyNone, 200), signal(model.KeyLeft, 250), signal(model.KeyNone, 200), signal(model.KeyNone, 250))
	return log
}

func TestSummarizeProportions(t *testing.T) {
	sum, err := Summarize(scenarioLog())
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.NoSignalTrials != 12 || sum.SignalTrials != 4 {
		t.Fatalf("unexpected subset sizes: %d no-signal, %d signal", sum.NoSignalTrials, sum.SignalTrials)
	}
	if !almostEqual(sum.PropCorrect, 0.5) {
		t.Fatalf("expected proportion correct 0.5, got %f", sum.PropCorrect)
	}
	if !almostEqual(sum.PropMissed, 1.0/3) {
		t.Fatalf("expected proportion missed 1/3, got %f", sum.PropMissed)
	}
	if !almostEqual(sum.PropIncorrect, 1.0/6) {
		t.Fatalf("expected proportion incorrect 1/6, got %f", sum.PropIncorrect)
	}
	if !almostEqual(sum.PropIncorrect, 1-sum.PropCorrect-sum.PropMissed) {
		t.Fatalf("derived incorrect proportion inconsistent")
	}
	if !almostEqual(sum.PropIncorrect, sum.PropIncorrectCounted) {
		t.Fatalf("derived %f and counted %f incorrect proportions differ", sum.PropIncorrect, sum.PropIncorrectCounted)
	}
	// Mean over the 8 responded trials, not the 12 in the subset.
	if !almostEqual(sum.MeanRTMs, (6*300+2*500)/8.0) {
		t.Fatalf("unexpected mean RT %f", sum.MeanRTMs)
	}
	if !almostEqual(sum.PropSignalCorrect, 0.75) {
		t.Fatalf("expected stop proportion 0.75, got %f", sum.PropSignalCorrect)
	}
	if !almostEqual(sum.MeanSSDMs, 225) {
		t.Fatalf("expected mean ssd 225, got %f", sum.MeanSSDMs)
	}
}

func TestSummarizeCountsPartitionSubset(t *testing.T) {
	sum, err := Summarize(scenarioLog())
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.NoSignalCorrect+sum.NoSignalIncorrect+sum.NoSignalMissed != sum.NoSignalTrials {
		t.Fatalf("no-signal counts do not partition the subset: %+v", sum)
	}
	if sum.NoSignalTrials+sum.SignalTrials != len(scenarioLog()) {
		t.Fatalf("subset sizes do not sum to block size")
	}
}

func TestSummarizeEmptySubsets(t *testing.T) {
	cases := map[string][]model.TrialOutcome{
		"empty":     nil,
		"no-signal": {signal(model.KeyNone, 200)},
		"signal":    {noSignal(model.Left, model.KeyLeft, 300, true)},
	}
	for name, log := range cases {
		if _, err := Summarize(log); !errors.Is(err, ErrEmptySubset) {
			t.Fatalf("%s: expected ErrEmptySubset, got %v", name, err)
		}
	}
}

func TestSummarizeNoResponsesGivesNaNMean(t *testing.T) {
	log := []model.TrialOutcome{
		noSignal(model.Left, model.KeyNone, 0, false),
		signal(model.KeyNone, 200),
	}
	sum, err := Summarize(log)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if !math.IsNaN(sum.MeanRTMs) {
		t.Fatalf("expected NaN mean RT, got %f", sum.MeanRTMs)
	}
	if !almostEqual(sum.PropMissed, 1) {
		t.Fatalf("expected all missed, got %f", sum.PropMissed)
	}
}

func TestSummarizeBlocksKeepsOrder(t *testing.T) {
	var log []model.TrialOutcome
	for _, b := range []int{0, 1} {
		for _, o := range scenarioLog() {
			o.Block = b
			log = append(log, o)
		}
	}
	partial := noSignal(model.Left, model.KeyLeft, 300, true)
	partial.Block = 2
	log = append(log, partial)

	results := SummarizeBlocks(log)
	if len(results) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(results))
	}
	for i, r := range results {
		if r.Block != i {
			t.Fatalf("expected block %d at %d, got %d", i, i, r.Block)
		}
	}
	if results[0].Err != nil || results[1].Err != nil {
		t.Fatalf("unexpected errors: %v, %v", results[0].Err, results[1].Err)
	}
	if !errors.Is(results[2].Err, ErrEmptySubset) || results[2].Trials != 1 {
		t.Fatalf("expected partial block to fail with ErrEmptySubset, got %+v", results[2])
	}
}
