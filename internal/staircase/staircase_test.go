package staircase

import (
	"math/rand"
	"testing"
	"time"

	"github.com/verte-zerg/stopit/internal/model"
)

var signal = model.TrialSpec{Direction: model.Left, HasSignal: true}

func newController(t *testing.T, initial time.Duration) *Controller {
	t.Helper()
	c, err := New(initial, 50*time.Millisecond, 1250*time.Millisecond)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return c
}

func TestSuccessfulStopIncreasesSSD(t *testing.T) {
	c := newController(t, 200*time.Millisecond)
	if got := c.Update(signal, false); got != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %v", got)
	}
}

func TestFailedStopDecreasesSSD(t *testing.T) {
	c := newController(t, 200*time.Millisecond)
	if got := c.Update(signal, true); got != 150*time.Millisecond {
		t.Fatalf("expected 150ms, got %v", got)
	}
}

func TestLowerBoundHolds(t *testing.T) {
	c := newController(t, 50*time.Millisecond)
	if got := c.Update(signal, true); got != 50*time.Millisecond {
		t.Fatalf("expected ssd to stay at step size, got %v", got)
	}
}

func TestUpperBoundHolds(t *testing.T) {
	c := newController(t, 1200*time.Millisecond)
	if got := c.Update(signal, false); got != 1200*time.Millisecond {
		t.Fatalf("expected ssd to stay at maxRT-step, got %v", got)
	}
}

func TestNoSignalTrialLeavesSSD(t *testing.T) {
	c := newController(t, 200*time.Millisecond)
	got := c.Update(model.TrialSpec{Direction: model.Right}, true)
	if got != 200*time.Millisecond {
		t.Fatalf("expected unchanged ssd, got %v", got)
	}
}

func TestInitialValueClamped(t *testing.T) {
	c := newController(t, 5*time.Second)
	if c.SSD() != 1200*time.Millisecond {
		t.Fatalf("expected clamped initial ssd, got %v", c.SSD())
	}
}

func TestNewRejectsInvalidBounds(t *testing.T) {
	if _, err := New(time.Second, 0, time.Second); err == nil {
		t.Fatalf("expected error for zero step")
	}
	if _, err := New(time.Second, 600*time.Millisecond, time.Second); err == nil {
		t.Fatalf("expected error for step larger than half max RT")
	}
}

func TestUpdatesStayInBounds(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		step := time.Duration(1+rnd.Intn(100)) * time.Millisecond
		maxRT := 2*step + time.Duration(rnd.Intn(2000))*time.Millisecond
		c, err := New(step+time.Duration(rnd.Int63n(int64(maxRT-2*step)+1)), step, maxRT)
		if err != nil {
			t.Fatalf("new controller: %v", err)
		}
		lo, hi := c.Bounds()
		for j := 0; j < 50; j++ {
			before := c.SSD()
			responded := rnd.Intn(2) == 0
			after := c.Update(signal, responded)
			if after < lo || after > hi {
				t.Fatalf("ssd %v escaped [%v, %v]", after, lo, hi)
			}
			want := before + step
			if responded {
				want = before - step
			}
			if want >= lo && want <= hi && after != want {
				t.Fatalf("expected unclamped step to %v, got %v", want, after)
			}
		}
	}
}
