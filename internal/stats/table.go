package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/mattn/go-runewidth"
)

// BlockTableHeaders names the columns of the block summary table.
var BlockTableHeaders = []string{"Block", "Trials", "Mean RT", "Correct", "Incorrect", "Missed", "Stop OK", "Mean SSD"}

// BlockTableRows formats block results as table cells.
func BlockTableRows(blocks []BlockResult) [][]string {
	rows := make([][]string, 0, len(blocks))
	for _, br := range blocks {
		label := fmt.Sprintf("%d", br.Block)
		if br.Block == 0 {
			label = "0 (practice)"
		}
		if br.Err != nil {
			rows = append(rows, []string{label, fmt.Sprintf("%d", br.Trials), "-", "-", "-", "-", "-", "-"})
			continue
		}
		s := br.Summary
		rt := "n/a"
		if !math.IsNaN(s.MeanRTMs) {
			rt = fmt.Sprintf("%.0f ms", s.MeanRTMs)
		}
		rows = append(rows, []string{
			label,
			fmt.Sprintf("%d", br.Trials),
			rt,
			fmt.Sprintf("%.3f", s.PropCorrect),
			fmt.Sprintf("%.3f", s.PropIncorrect),
			fmt.Sprintf("%.3f", s.PropMissed),
			fmt.Sprintf("%.3f", s.PropSignalCorrect),
			fmt.Sprintf("%.0f ms", s.MeanSSDMs),
		})
	}
	return rows
}

// RenderBlockTable prints the per-block summaries of a session.
func RenderBlockTable(w io.Writer, blocks []BlockResult) error {
	if len(blocks) == 0 {
		_, err := fmt.Fprintln(w, "No trials found.")
		return err
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true}
	for _, line := range formatTable(BlockTableHeaders, BlockTableRows(blocks), rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	for _, br := range blocks {
		if br.Err == nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "block %d: %v\n", br.Block, br.Err); err != nil {
			return err
		}
	}
	return nil
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	cells := make([]string, len(widths))
	for i := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		cells[i] = padCell(cell, widths[i], rightAlignCols[i])
	}
	return strings.Join(cells, " ")
}

func padCell(value string, width int, rightAlign bool) string {
	padding := width - runewidth.StringWidth(value)
	if padding <= 0 {
		return value
	}
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}
