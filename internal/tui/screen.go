package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/stopit/internal/model"
)

const keyQueueSize = 64

// Screen connects a session to a Bubble Tea program. Draw and Present are
// called from the session goroutine; key presses arrive from the program's
// event loop through a buffered queue.
type Screen struct {
	keys    KeyMap
	send    func(tea.Msg)
	pending frame
	queue   chan model.Key
}

// NewScreen returns a Screen using the given key bindings.
func NewScreen(keys KeyMap) *Screen {
	return &Screen{
		keys:  keys,
		send:  func(tea.Msg) {},
		queue: make(chan model.Key, keyQueueSize),
	}
}

// Model returns the Bubble Tea model to run.
func (s *Screen) Model() *Model {
	return &Model{screen: s}
}

// Attach routes frames to the running program.
func (s *Screen) Attach(p *tea.Program) {
	s.send = p.Send
}

// DrawStimulus prepares an arrow frame.
func (s *Screen) DrawStimulus(kind model.StimulusKind, dir model.Direction) {
	s.pending = frame{kind: stimulusFrame, stimulus: kind, dir: dir}
}

// DrawText prepares a text frame.
func (s *Screen) DrawText(text string) {
	s.pending = frame{kind: textFrame, text: text}
}

// Present commits the pending frame and starts a blank one.
func (s *Screen) Present() {
	s.send(frameMsg{frame: s.pending})
	s.pending = frame{}
}

// Done asks the program to exit.
func (s *Screen) Done() {
	s.send(doneMsg{})
}

// Poll returns the oldest queued key in allowed. Keys not in allowed that
// are queued ahead of it are consumed.
func (s *Screen) Poll(allowed []model.Key) (model.Key, bool) {
	for {
		select {
		case k := <-s.queue:
			for _, a := range allowed {
				if a == k {
					return k, true
				}
			}
		default:
			return "", false
		}
	}
}

// Clear drops all queued keys.
func (s *Screen) Clear() {
	for {
		select {
		case <-s.queue:
		default:
			return
		}
	}
}

func (s *Screen) push(k model.Key) {
	select {
	case s.queue <- k:
	default:
		// Queue full; the key is dropped.
	}
}
