package sink

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/verte-zerg/stopit/internal/model"
)

// ReadFile decodes an output file.
func ReadFile(path string) (model.Participant, []model.TrialOutcome, error) {
	file, err := os.Open(path)
	if err != nil {
		return model.Participant{}, nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only output file.
			_ = cerr
		}
	}()
	return Read(file)
}

// Read decodes outcomes written by Write. Columns are matched by header
// name; the participant fields are taken from the first row.
func Read(in io.Reader) (model.Participant, []model.TrialOutcome, error) {
	var p model.Participant
	cr := csv.NewReader(in)
	header, err := cr.Read()
	if err != nil {
		return p, nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range Header {
		if _, ok := cols[name]; !ok {
			return p, nil, fmt.Errorf("missing column %q", name)
		}
	}

	var outcomes []model.TrialOutcome
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return p, nil, fmt.Errorf("line %d: %w", line, err)
		}
		field := func(name string) string { return row[cols[name]] }
		if len(outcomes) == 0 {
			p = model.Participant{ID: field("participant"), Session: field("session"), Gender: field("gender"), Age: field("age")}
		}
		o, err := parseRow(field)
		if err != nil {
			return p, nil, fmt.Errorf("line %d: %w", line, err)
		}
		outcomes = append(outcomes, o)
	}
	return p, outcomes, nil
}

func parseRow(field func(string) string) (model.TrialOutcome, error) {
	var o model.TrialOutcome
	var err error
	if o.Block, err = strconv.Atoi(field("block")); err != nil {
		return o, fmt.Errorf("invalid block: %w", err)
	}
	if o.Trial, err = strconv.Atoi(field("trial")); err != nil {
		return o, fmt.Errorf("invalid trial: %w", err)
	}
	dir, ok := model.ParseDirection(field("direction"))
	if !ok {
		return o, fmt.Errorf("invalid direction %q", field("direction"))
	}
	o.Spec = model.TrialSpec{Direction: dir, HasSignal: field("signal") == "1"}
	o.Response = model.Key(field("response"))
	if o.RTMs, err = strconv.ParseInt(field("rt"), 10, 64); err != nil {
		return o, fmt.Errorf("invalid rt: %w", err)
	}
	if o.SignalRequestMs, err = strconv.ParseInt(field("ssdReq"), 10, 64); err != nil {
		return o, fmt.Errorf("invalid ssdReq: %w", err)
	}
	if o.SignalActualMs, err = strconv.ParseInt(field("ssdTrue"), 10, 64); err != nil {
		return o, fmt.Errorf("invalid ssdTrue: %w", err)
	}
	o.Correct = field("acc") == "1"
	o.Feedback = field("feedback")
	return o, nil
}
