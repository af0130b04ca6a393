// Package model defines shared data structures.
package model

import "time"

// Direction is the side the go stimulus points to.
type Direction int

// Go stimulus directions.
const (
	Left Direction = iota
	Right
)

// String returns the lowercase direction name used in output files.
func (d Direction) String() string {
	if d == Right {
		return "right"
	}
	return "left"
}

// Key returns the response key that matches the direction.
func (d Direction) Key() Key {
	if d == Right {
		return KeyRight
	}
	return KeyLeft
}

// ParseDirection parses a direction name.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "left":
		return Left, true
	case "right":
		return Right, true
	}
	return Left, false
}

// Key is a logical key reported by a response source.
type Key string

// Logical keys. KeyNone marks the absence of a response.
const (
	KeyNone     Key = "none"
	KeyLeft     Key = "left"
	KeyRight    Key = "right"
	KeyAbort    Key = "abort"
	KeyContinue Key = "continue"
)

// StimulusKind selects which stimulus a renderer draws.
type StimulusKind int

// Stimulus kinds.
const (
	GoStimulus StimulusKind = iota
	StopStimulus
)

// TrialSpec is the fixed configuration of a single trial.
type TrialSpec struct {
	Direction Direction
	HasSignal bool
}

// RawResponse is what the trial runner observed during one trial.
type RawResponse struct {
	Key Key
	// Elapsed is the time since go onset at the last loop iteration.
	Elapsed time.Duration
	// SignalAt is the measured stop-signal onset; zero if never shown.
	SignalAt time.Duration
}

// Responded reports whether a response key was observed.
func (r RawResponse) Responded() bool {
	return r.Key != "" && r.Key != KeyNone
}

// TrialOutcome is the classified, immutable record of one trial.
type TrialOutcome struct {
	Block           int
	Trial           int
	Spec            TrialSpec
	Response        Key
	RTMs            int64
	SignalRequestMs int64
	SignalActualMs  int64
	Correct         bool
	Feedback        string
}

// Missed reports whether no response was given.
func (o TrialOutcome) Missed() bool {
	return o.Response == KeyNone || o.Response == ""
}

// BlockSummary holds statistics derived from one block's trial log.
type BlockSummary struct {
	Block int

	NoSignalTrials    int
	NoSignalResponded int
	NoSignalCorrect   int
	NoSignalIncorrect int
	NoSignalMissed    int

	MeanRTMs             float64
	PropCorrect          float64
	PropIncorrect        float64
	PropMissed           float64
	PropIncorrectCounted float64

	SignalTrials      int
	SignalCorrect     int
	PropSignalCorrect float64
	MeanSSDMs         float64
}

// Participant identifies the subject and session of a run.
type Participant struct {
	ID      string
	Session string
	Gender  string
	Age     string
}

// TaskConfig defines the timing, design and repetition settings of a run.
type TaskConfig struct {
	Blocks         int
	Reps           int
	PracticeReps   int
	ITI            time.Duration
	MaxRT          time.Duration
	InitialSSD     time.Duration
	SSDStep        time.Duration
	DrawLatency    time.Duration
	Feedback       time.Duration
	Break          time.Duration
	Ready          time.Duration
	PollInterval   time.Duration
	NoSignalWeight int
	SignalWeight   int
	Seed           int64
}

// HistoryConfig defines filters for the session history.
type HistoryConfig struct {
	Participant string
	Since       *time.Time
	Last        int
}

// Session status values stored in the history.
const (
	StatusCompleted = "completed"
	StatusAborted   = "aborted"
	StatusFailed    = "failed"
)

// SessionRecord describes a stored session.
type SessionRecord struct {
	ID          string
	Participant Participant
	StartedAt   time.Time
	EndedAt     time.Time
	Status      string
	FinalSSDMs  int64
	OutputPath  string
	Trials      int
}
