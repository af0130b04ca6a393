// Package stats contains block summaries and reporting.
package stats

import (
	"errors"
	"fmt"
	"math"

	"github.com/verte-zerg/stopit/internal/model"
)

// ErrEmptySubset is returned when a block lacks no-signal or signal trials.
var ErrEmptySubset = errors.New("block has no trials of a required type")

const consistencyTolerance = 1e-9

// Summarize computes the statistics of one block's trial log. The log must
// hold at least one no-signal and one signal trial. MeanRTMs is NaN when no
// no-signal trial received a response.
func Summarize(outcomes []model.TrialOutcome) (model.BlockSummary, error) {
	var sum model.BlockSummary
	if len(outcomes) == 0 {
		return sum, fmt.Errorf("%w: log is empty", ErrEmptySubset)
	}
	sum.Block = outcomes[0].Block

	var rtSum, ssdSum int64
	for _, o := range outcomes {
		if o.Spec.HasSignal {
			sum.SignalTrials++
			ssdSum += o.SignalRequestMs
			if o.Correct {
				sum.SignalCorrect++
			}
			continue
		}
		sum.NoSignalTrials++
		switch {
		case o.Missed():
			sum.NoSignalMissed++
		case o.Correct:
			sum.NoSignalCorrect++
		default:
			sum.NoSignalIncorrect++
		}
		if !o.Missed() {
			sum.NoSignalResponded++
			rtSum += o.RTMs
		}
	}
	if sum.NoSignalTrials == 0 {
		return sum, fmt.Errorf("%w: block %d has no no-signal trials", ErrEmptySubset, sum.Block)
	}
	if sum.SignalTrials == 0 {
		return sum, fmt.Errorf("%w: block %d has no signal trials", ErrEmptySubset, sum.Block)
	}

	n := float64(sum.NoSignalTrials)
	sum.MeanRTMs = math.NaN()
	if sum.NoSignalResponded > 0 {
		sum.MeanRTMs = float64(rtSum) / float64(sum.NoSignalResponded)
	}
	sum.PropCorrect = float64(sum.NoSignalCorrect) / n
	sum.PropMissed = float64(sum.NoSignalMissed) / n
	sum.PropIncorrect = 1 - (sum.PropCorrect + sum.PropMissed)
	sum.PropIncorrectCounted = float64(sum.NoSignalIncorrect) / n
	if math.Abs(sum.PropIncorrect-sum.PropIncorrectCounted) > consistencyTolerance {
		return sum, fmt.Errorf("block %d: derived incorrect proportion %.6f differs from counted %.6f",
			sum.Block, sum.PropIncorrect, sum.PropIncorrectCounted)
	}

	sum.PropSignalCorrect = float64(sum.SignalCorrect) / float64(sum.SignalTrials)
	sum.MeanSSDMs = float64(ssdSum) / float64(sum.SignalTrials)
	return sum, nil
}

// BlockResult pairs a block summary with the error that prevented it.
type BlockResult struct {
	Block   int
	Trials  int
	Summary model.BlockSummary
	Err     error
}

// SummarizeBlocks splits a session log by block, in order of first
// appearance, and summarizes each block.
func SummarizeBlocks(outcomes []model.TrialOutcome) []BlockResult {
	var order []int
	byBlock := map[int][]model.TrialOutcome{}
	for _, o := range outcomes {
		if _, ok := byBlock[o.Block]; !ok {
			order = append(order, o.Block)
		}
		byBlock[o.Block] = append(byBlock[o.Block], o)
	}
	results := make([]BlockResult, 0, len(order))
	for _, b := range order {
		log := byBlock[b]
		summary, err := Summarize(log)
		results = append(results, BlockResult{Block: b, Trials: len(log), Summary: summary, Err: err})
	}
	return results
}
