package task

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/verte-zerg/stopit/internal/clock"
	"github.com/verte-zerg/stopit/internal/design"
	"github.com/verte-zerg/stopit/internal/model"
	"github.com/verte-zerg/stopit/internal/staircase"
	"github.com/verte-zerg/stopit/internal/stats"
)

const (
	readyText    = "Get ready..."
	continueText = "press the space bar to continue"
	goodbyeText  = "This is the end of the experiment.\n\n" +
		"Please inform the experimenter that you have finished.\n\n" +
		"Thank you for your participation!"

	keyWaitInterval   = 10 * time.Millisecond
	countdownInterval = 100 * time.Millisecond
)

// Sink receives trial outcomes as they are produced.
type Sink interface {
	Append(o model.TrialOutcome) error
	Flush() error
}

// Options configures a Session.
type Options struct {
	Config       model.TaskConfig
	Instructions string
	Renderer     Renderer
	Responses    ResponseSource
	Clock        clock.Clock
	Sink         Sink
	Logger       *slog.Logger
}

// Session sequences blocks of trials and owns the cross-trial state: the
// staircase and the trial log. It is not safe for concurrent use.
type Session struct {
	cfg          model.TaskConfig
	instructions string
	renderer     Renderer
	responses    ResponseSource
	runner       *Runner
	design       *design.Generator
	stair        *staircase.Controller
	sink         Sink
	logger       *slog.Logger
	wait         func(context.Context, time.Duration) error

	outcomes []model.TrialOutcome
	blocks   []stats.BlockResult
}

// NewSession validates opts and builds a session.
func NewSession(opts Options) (*Session, error) {
	cfg := opts.Config
	if opts.Renderer == nil || opts.Responses == nil || opts.Sink == nil {
		return nil, fmt.Errorf("renderer, response source and sink are required")
	}
	if cfg.Blocks <= 0 {
		return nil, fmt.Errorf("blocks must be > 0")
	}
	if cfg.Reps <= 0 || cfg.PracticeReps < 0 {
		return nil, fmt.Errorf("reps must be > 0 and practice reps >= 0")
	}
	stair, err := staircase.New(cfg.InitialSSD, cfg.SSDStep, cfg.MaxRT)
	if err != nil {
		return nil, err
	}
	gen, err := design.New(design.Weights{NoSignal: cfg.NoSignalWeight, Signal: cfg.SignalWeight}, cfg.Seed)
	if err != nil {
		return nil, err
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	runner := NewRunner(RunnerConfig{
		ITI:          cfg.ITI,
		MaxRT:        cfg.MaxRT,
		DrawLatency:  cfg.DrawLatency,
		PollInterval: cfg.PollInterval,
	}, opts.Renderer, opts.Responses, clk)
	return &Session{
		cfg:          cfg,
		instructions: opts.Instructions,
		renderer:     opts.Renderer,
		responses:    opts.Responses,
		runner:       runner,
		design:       gen,
		stair:        stair,
		sink:         opts.Sink,
		logger:       logger,
		wait:         sleep,
	}, nil
}

// Outcomes returns a copy of the trial log of all blocks run so far.
func (s *Session) Outcomes() []model.TrialOutcome {
	out := make([]model.TrialOutcome, len(s.outcomes))
	copy(out, s.outcomes)
	return out
}

// Blocks returns the summaries of the completed blocks.
func (s *Session) Blocks() []stats.BlockResult {
	out := make([]stats.BlockResult, len(s.blocks))
	copy(out, s.blocks)
	return out
}

// SSD returns the current stop-signal delay.
func (s *Session) SSD() time.Duration {
	return s.stair.SSD()
}

// Run presents the instructions, the practice block (if any), the
// experimental blocks with breaks in between, and the closing message.
// It returns ErrUserAbort if the abort key is pressed during a trial.
func (s *Session) Run(ctx context.Context) error {
	if err := s.showUntilKey(ctx, s.instructionText()); err != nil {
		return err
	}
	first := 1
	if s.cfg.PracticeReps > 0 {
		first = 0
	}
	for b := first; b <= s.cfg.Blocks; b++ {
		if err := s.runBlock(ctx, b); err != nil {
			if errors.Is(err, ErrUserAbort) {
				s.logger.Warn("session aborted", "block", b, "completed_trials", len(s.outcomes))
			}
			return err
		}
		if b < s.cfg.Blocks {
			if err := s.blockBreak(ctx); err != nil {
				return err
			}
		}
	}
	return s.showUntilKey(ctx, goodbyeText)
}

func (s *Session) instructionText() string {
	return s.instructions + fmt.Sprintf("\n\nThe experimental phase consists of %d experimental blocks.\n\n"+
		"Press the space bar to start", s.cfg.Blocks)
}

func (s *Session) runBlock(ctx context.Context, block int) error {
	practice := block == 0
	reps := s.cfg.Reps
	if practice {
		reps = s.cfg.PracticeReps
	}
	trials := s.design.Block(reps)
	s.logger.Info("block started", "block", block, "trials", len(trials), "ssd", s.stair.SSD())

	if err := s.show(ctx, readyText, s.cfg.Ready); err != nil {
		return err
	}

	log := make([]model.TrialOutcome, 0, len(trials))
	for i, spec := range trials {
		ssd := s.stair.SSD()
		raw, err := s.runner.RunTrial(ctx, ssd, spec)
		if err != nil {
			return err
		}
		outcome := Classify(block, i+1, spec, raw, ssd)
		if spec.HasSignal {
			next := s.stair.Update(spec, raw.Responded())
			s.logger.Debug("staircase update",
				"block", block, "trial", i+1,
				"requested", ssd, "actual", raw.SignalAt,
				"drift", raw.SignalAt-ssd, "stopped", !raw.Responded(), "next", next)
		}
		log = append(log, outcome)
		s.outcomes = append(s.outcomes, outcome)
		if err := s.sink.Append(outcome); err != nil {
			return fmt.Errorf("failed to record trial: %w", err)
		}
		if practice {
			if err := s.show(ctx, outcome.Feedback, s.cfg.Feedback); err != nil {
				return err
			}
		}
	}

	if err := s.sink.Flush(); err != nil {
		return fmt.Errorf("failed to save block %d: %w", block, err)
	}
	summary, err := stats.Summarize(log)
	if err != nil {
		s.logger.Warn("block summary unavailable", "block", block, "err", err)
	}
	s.blocks = append(s.blocks, stats.BlockResult{Block: block, Trials: len(log), Summary: summary, Err: err})
	return nil
}

func (s *Session) blockBreak(ctx context.Context) error {
	last := s.blocks[len(s.blocks)-1]
	text := func(secondsLeft int) string {
		if last.Err != nil {
			return fmt.Sprintf("Block summary unavailable: %v\n\nSeconds left to wait: %d\n", last.Err, secondsLeft)
		}
		return stats.FormatBlockFeedback(last.Summary, secondsLeft)
	}
	countdown := clock.NewCountdown(s.cfg.Break)
	for !countdown.Done() {
		s.renderer.DrawText(text(countdown.SecondsLeft()))
		s.renderer.Present()
		if err := s.wait(ctx, min(countdownInterval, countdown.Remaining())); err != nil {
			return err
		}
	}
	return s.showUntilKey(ctx, continueText)
}

func (s *Session) show(ctx context.Context, text string, d time.Duration) error {
	s.renderer.DrawText(text)
	s.renderer.Present()
	return s.wait(ctx, d)
}

func (s *Session) showUntilKey(ctx context.Context, text string) error {
	s.responses.Clear()
	s.renderer.DrawText(text)
	s.renderer.Present()
	continueKeys := []model.Key{model.KeyContinue}
	for {
		if _, ok := s.responses.Poll(continueKeys); ok {
			return nil
		}
		if err := s.wait(ctx, keyWaitInterval); err != nil {
			return err
		}
	}
}
