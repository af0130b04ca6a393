// Package instructions loads the text shown before the first block.
package instructions

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Default is shown when no instruction file is configured.
const Default = `In this task you will see a green arrow pointing left or right.
Press the LEFT arrow key when it points left and the RIGHT arrow key when it points right.
Respond as quickly and accurately as possible.

On some trials the arrow turns red shortly after it appears.
When this happens, try to stop your response and press nothing.

Stopping will sometimes be easy and sometimes hard.
Do not wait for the red arrow: keep responding as fast as you can.`

// Load reads instruction text from path, trimming trailing whitespace on
// each line. An empty path returns Default.
func Load(path string) (string, error) {
	if path == "" {
		return Default, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only instruction file.
			_ = cerr
		}
	}()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), " \t\r"))
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	text := strings.TrimSpace(strings.Join(lines, "\n"))
	if text == "" {
		return "", fmt.Errorf("instruction file is empty")
	}
	return text, nil
}
