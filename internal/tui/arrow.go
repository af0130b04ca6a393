package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/stopit/internal/model"
)

var (
	goStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#3CB043"))
	stopStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	textStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Align(lipgloss.Center)
)

// leftArrow is the left-pointing stimulus; the right one is its mirror.
var leftArrow = []string{
	"      ██",
	"    ████",
	"  ██████████████████",
	"████████████████████",
	"  ██████████████████",
	"    ████",
	"      ██",
}

func arrowRows(dir model.Direction) []string {
	width := 0
	for _, row := range leftArrow {
		width = max(width, runewidth.StringWidth(row))
	}
	rows := make([]string, len(leftArrow))
	for i, row := range leftArrow {
		row = runewidth.FillRight(row, width)
		if dir == model.Right {
			row = reverse(row)
		}
		rows[i] = row
	}
	return rows
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func renderArrow(kind model.StimulusKind, dir model.Direction) string {
	style := goStyle
	if kind == model.StopStimulus {
		style = stopStyle
	}
	return style.Render(strings.Join(arrowRows(dir), "\n"))
}
