// Package design builds randomized trial lists from the factorial design.
package design

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/verte-zerg/stopit/internal/model"
)

// Weights sets how many cells of each signal type the design holds per direction.
type Weights struct {
	NoSignal int
	Signal   int
}

// DefaultWeights is the 3:1 no-signal to signal design.
var DefaultWeights = Weights{NoSignal: 3, Signal: 1}

// Generator produces shuffled trial lists.
type Generator struct {
	rnd     *rand.Rand
	weights Weights
}

// New returns a Generator. A zero seed uses the current time.
func New(weights Weights, seed int64) (*Generator, error) {
	if weights.NoSignal <= 0 || weights.Signal <= 0 {
		return nil, fmt.Errorf("design weights must be > 0")
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rnd: rand.New(rand.NewSource(seed)), weights: weights}, nil
}

// Factorial returns one replication of the design: both directions crossed
// with the weighted signal list, in design order.
func (g *Generator) Factorial() []model.TrialSpec {
	cells := make([]model.TrialSpec, 0, 2*(g.weights.NoSignal+g.weights.Signal))
	for _, dir := range []model.Direction{model.Left, model.Right} {
		for i := 0; i < g.weights.NoSignal; i++ {
			cells = append(cells, model.TrialSpec{Direction: dir})
		}
		for i := 0; i < g.weights.Signal; i++ {
			cells = append(cells, model.TrialSpec{Direction: dir, HasSignal: true})
		}
	}
	return cells
}

// Block returns reps replications of the design in fully random order.
func (g *Generator) Block(reps int) []model.TrialSpec {
	if reps <= 0 {
		return nil
	}
	base := g.Factorial()
	trials := make([]model.TrialSpec, 0, reps*len(base))
	for i := 0; i < reps; i++ {
		trials = append(trials, base...)
	}
	g.rnd.Shuffle(len(trials), func(i, j int) {
		trials[i], trials[j] = trials[j], trials[i]
	})
	return trials
}
