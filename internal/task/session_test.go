package task

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/stopit/internal/model"
)

func testTaskConfig() model.TaskConfig {
	return model.TaskConfig{
		Blocks:         2,
		Reps:           1,
		PracticeReps:   1,
		MaxRT:          1250 * time.Millisecond,
		InitialSSD:     200 * time.Millisecond,
		SSDStep:        50 * time.Millisecond,
		DrawLatency:    10 * time.Millisecond,
		NoSignalWeight: 3,
		SignalWeight:   1,
		Seed:           1,
	}
}

// subject presses continue whenever allowed, answers go stimuli correctly
// after rt and withholds once the stop stimulus is on screen.
func subject(clk *stepClock, r *fakeRenderer, rt time.Duration) func([]model.Key) (model.Key, bool) {
	return func(allowed []model.Key) (model.Key, bool) {
		if allows(allowed, model.KeyContinue) {
			return model.KeyContinue, true
		}
		f := r.current
		if !f.stimulus || f.kind == model.StopStimulus {
			return "", false
		}
		if clk.now >= rt {
			return f.dir.Key(), true
		}
		return "", false
	}
}

func newTestSession(t *testing.T, cfg model.TaskConfig, respond func(*stepClock, *fakeRenderer) func([]model.Key) (model.Key, bool)) (*Session, *fakeRenderer, *memorySink) {
	t.Helper()
	clk := &stepClock{step: time.Millisecond}
	renderer := &fakeRenderer{}
	sink := &memorySink{}
	s, err := NewSession(Options{
		Config:       cfg,
		Instructions: "Respond to the arrow.",
		Renderer:     renderer,
		Responses:    &scriptedSource{respond: respond(clk, renderer)},
		Clock:        clk,
		Sink:         sink,
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s, renderer, sink
}

func countText(frames []frame, text string) int {
	n := 0
	for _, f := range frames {
		if f.text == text {
			n++
		}
	}
	return n
}

func TestSessionRunsAllBlocks(t *testing.T) {
	s, renderer, sink := newTestSession(t, testTaskConfig(), func(clk *stepClock, r *fakeRenderer) func([]model.Key) (model.Key, bool) {
		return subject(clk, r, time.Second)
	})
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	outcomes := s.Outcomes()
	if len(outcomes) != 24 || len(sink.outcomes) != 24 {
		t.Fatalf("expected 24 outcomes, got %d (sink %d)", len(outcomes), len(sink.outcomes))
	}
	if sink.flushes != 3 {
		t.Fatalf("expected one flush per block, got %d", sink.flushes)
	}
	for i, o := range outcomes {
		if o.Block != i/8 || o.Trial != i%8+1 {
			t.Fatalf("outcome %d has block/trial %d/%d", i, o.Block, o.Trial)
		}
		if !o.Correct {
			t.Fatalf("expected every trial correct, got %+v", o)
		}
	}

	// Six successful stops, each raising the delay by one step.
	if s.SSD() != 500*time.Millisecond {
		t.Fatalf("expected final ssd 500ms, got %v", s.SSD())
	}

	blocks := s.Blocks()
	if len(blocks) != 3 {
		t.Fatalf("expected 3 block summaries, got %d", len(blocks))
	}
	for _, b := range blocks {
		if b.Err != nil {
			t.Fatalf("block %d: %v", b.Block, b.Err)
		}
		if b.Summary.PropCorrect != 1 || b.Summary.PropSignalCorrect != 1 {
			t.Fatalf("unexpected summary %+v", b.Summary)
		}
		if b.Summary.NoSignalTrials+b.Summary.SignalTrials != b.Trials {
			t.Fatalf("subset sizes do not sum to block size: %+v", b)
		}
	}

	if !strings.Contains(renderer.frames[0].text, "consists of 2 experimental blocks") {
		t.Fatalf("expected instructions first, got %q", renderer.frames[0].text)
	}
	if got := countText(renderer.frames, FeedbackCorrect); got != 6 {
		t.Fatalf("expected practice feedback for 6 no-signal trials, got %d", got)
	}
	if got := countText(renderer.frames, FeedbackCorrectStop); got != 2 {
		t.Fatalf("expected practice feedback for 2 signal trials, got %d", got)
	}
	if got := countText(renderer.frames, continueText); got != 2 {
		t.Fatalf("expected 2 block breaks, got %d", got)
	}
	if last := renderer.frames[len(renderer.frames)-1].text; last != goodbyeText {
		t.Fatalf("expected goodbye last, got %q", last)
	}
}

func TestSessionWithoutPractice(t *testing.T) {
	cfg := testTaskConfig()
	cfg.PracticeReps = 0
	s, _, _ := newTestSession(t, cfg, func(clk *stepClock, r *fakeRenderer) func([]model.Key) (model.Key, bool) {
		return subject(clk, r, time.Second)
	})
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	outcomes := s.Outcomes()
	if len(outcomes) != 16 || outcomes[0].Block != 1 {
		t.Fatalf("expected 16 outcomes starting at block 1, got %d starting at %d", len(outcomes), outcomes[0].Block)
	}
}

func TestSessionAbort(t *testing.T) {
	s, _, sink := newTestSession(t, testTaskConfig(), func(clk *stepClock, r *fakeRenderer) func([]model.Key) (model.Key, bool) {
		return func(allowed []model.Key) (model.Key, bool) {
			if allows(allowed, model.KeyContinue) {
				return model.KeyContinue, true
			}
			if r.current.stimulus && clk.now >= 100*time.Millisecond {
				return model.KeyAbort, true
			}
			return "", false
		}
	})
	err := s.Run(context.Background())
	if !errors.Is(err, ErrUserAbort) {
		t.Fatalf("expected ErrUserAbort, got %v", err)
	}
	if len(s.Outcomes()) != 0 || sink.flushes != 0 {
		t.Fatalf("expected no recorded trials, got %d outcomes and %d flushes", len(s.Outcomes()), sink.flushes)
	}
}

func TestSessionCanceledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, _, _ := newTestSession(t, testTaskConfig(), func(*stepClock, *fakeRenderer) func([]model.Key) (model.Key, bool) {
		return nil
	})
	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewSessionValidates(t *testing.T) {
	cfg := testTaskConfig()
	cfg.Blocks = 0
	_, err := NewSession(Options{Config: cfg, Renderer: &fakeRenderer{}, Responses: &scriptedSource{}, Sink: &memorySink{}})
	if err == nil {
		t.Fatalf("expected error for zero blocks")
	}
}
