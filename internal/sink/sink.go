// Package sink writes and reads the per-trial comma-separated output file.
package sink

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/verte-zerg/stopit/internal/model"
)

// ErrFileExists is returned when an output file for the same participant
// and session is already present.
var ErrFileExists = errors.New("output file already exists")

// Header lists the output columns in order.
var Header = []string{
	"participant", "session", "gender", "age",
	"block", "trial", "direction", "signal", "response",
	"rt", "ssdReq", "ssdTrue", "acc", "feedback",
}

// FileName returns the output file name for a participant and session.
func FileName(p model.Participant) string {
	return fmt.Sprintf("stopIT_Subject_%s_Session_%s.csv", sanitize(p.ID), sanitize(p.Session))
}

// CheckAvailable returns ErrFileExists if path is already taken.
func CheckAvailable(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrFileExists, path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat output file: %w", err)
	}
	return nil
}

func sanitize(s string) string {
	s = strings.TrimSpace(s)
	return strings.NewReplacer("/", "_", `\`, "_", string(os.PathSeparator), "_").Replace(s)
}

// Writer accumulates trial outcomes and rewrites the output file on Flush.
type Writer struct {
	path        string
	participant model.Participant
	outcomes    []model.TrialOutcome
}

// NewWriter returns a Writer for path.
func NewWriter(path string, p model.Participant) *Writer {
	return &Writer{path: path, participant: p}
}

// Path returns the output file path.
func (w *Writer) Path() string {
	return w.path
}

// Len returns the number of appended outcomes.
func (w *Writer) Len() int {
	return len(w.outcomes)
}

// Append adds an outcome to the log.
func (w *Writer) Append(o model.TrialOutcome) error {
	w.outcomes = append(w.outcomes, o)
	return nil
}

// Flush writes every appended outcome to the output file, replacing the
// previous contents through a temp file and rename.
func (w *Writer) Flush() error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, "stopit-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp output: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := Write(tmpFile, w.participant, w.outcomes); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Write encodes outcomes with a header row.
func Write(out io.Writer, p model.Participant, outcomes []model.TrialOutcome) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, o := range outcomes {
		if err := cw.Write(record(p, o)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

func record(p model.Participant, o model.TrialOutcome) []string {
	return []string{
		p.ID, p.Session, p.Gender, p.Age,
		strconv.Itoa(o.Block),
		strconv.Itoa(o.Trial),
		o.Spec.Direction.String(),
		boolString(o.Spec.HasSignal),
		string(o.Response),
		strconv.FormatInt(o.RTMs, 10),
		strconv.FormatInt(o.SignalRequestMs, 10),
		strconv.FormatInt(o.SignalActualMs, 10),
		boolString(o.Correct),
		o.Feedback,
	}
}

func boolString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
