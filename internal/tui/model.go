// Package tui provides the Bubble Tea task display and key capture.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/stopit/internal/model"
)

type frameKind int

const (
	blankFrame frameKind = iota
	stimulusFrame
	textFrame
)

type frame struct {
	kind     frameKind
	stimulus model.StimulusKind
	dir      model.Direction
	text     string
}

type frameMsg struct {
	frame frame
}

type doneMsg struct{}

// Model implements the Bubble Tea view of a running session. It only
// displays frames pushed by the Screen and forwards key presses to it.
type Model struct {
	screen      *Screen
	frame       frame
	width       int
	height      int
	interrupted bool
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case frameMsg:
		m.frame = msg.frame
		return m, nil
	case doneMsg:
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.interrupted = true
			return m, tea.Quit
		}
		if k, ok := m.screen.keys.Lookup(msg); ok {
			m.screen.push(k)
		}
		return m, nil
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch m.frame.kind {
	case stimulusFrame:
		content = renderArrow(m.frame.stimulus, m.frame.dir)
	case textFrame:
		content = textStyle.Render(m.frame.text)
	default:
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

// Interrupted reports whether the program was closed with ctrl+c.
func (m *Model) Interrupted() bool {
	return m.interrupted
}
