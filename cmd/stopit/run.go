package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/stopit/internal/config"
	"github.com/verte-zerg/stopit/internal/instructions"
	"github.com/verte-zerg/stopit/internal/model"
	"github.com/verte-zerg/stopit/internal/sink"
	"github.com/verte-zerg/stopit/internal/store"
	"github.com/verte-zerg/stopit/internal/task"
	"github.com/verte-zerg/stopit/internal/tui"
)

// redrawFPS bounds how late a presented frame reaches the terminal.
const redrawFPS = 120

func runTaskCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := taskConfig(cmd, fileCfg.Task)
	if err != nil {
		return err
	}
	if err := validateTaskConfig(cfg); err != nil {
		return err
	}
	keys, err := keyMap(fileCfg.Keys)
	if err != nil {
		return fmt.Errorf("invalid key bindings: %w", err)
	}
	applyStringConfig(cmd, "instructions", &runInstructions, fileCfg.Task.Instructions)
	text, err := instructions.Load(runInstructions)
	if err != nil {
		return fmt.Errorf("failed to load instructions: %w", err)
	}

	outDir := config.DefaultOutputDir()
	if fileCfg.Output.Dir != nil && *fileCfg.Output.Dir != "" {
		outDir = *fileCfg.Output.Dir
	}
	if cmd.Flags().Changed("out-dir") {
		outDir = runOutDir
	}
	storeEnabled := !runNoStore
	if !cmd.Flags().Changed("no-store") && fileCfg.Output.Store != nil {
		storeEnabled = *fileCfg.Output.Store
	}

	participant := model.Participant{
		ID:      strings.TrimSpace(runParticipant),
		Session: strings.TrimSpace(runSession),
		Gender:  strings.TrimSpace(runGender),
		Age:     strings.TrimSpace(runAge),
	}
	var prompt *prompter
	if isTerminal(os.Stdin) {
		prompt = newPrompter(os.Stdin, os.Stderr)
	}
	outPath, participant, err := resolveOutput(outDir, participant, prompt)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(runLogFile, runLogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	var st *store.Store
	if storeEnabled {
		st, err = store.Open(config.DefaultDBPath())
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}()
	}

	writer := sink.NewWriter(outPath, participant)
	screen := tui.NewScreen(keys)
	sess, err := task.NewSession(task.Options{
		Config:       cfg,
		Instructions: text,
		Renderer:     screen,
		Responses:    screen,
		Sink:         writer,
		Logger:       logger.With("participant", participant.ID, "session", participant.Session),
	})
	if err != nil {
		return err
	}

	rec := model.SessionRecord{Participant: participant, StartedAt: time.Now(), OutputPath: outPath}
	logger.Info("session started", "participant", participant.ID, "session", participant.Session, "output", outPath)
	view := screen.Model()
	program := tea.NewProgram(view, tea.WithAltScreen(), tea.WithFPS(redrawFPS))
	screen.Attach(program)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		err := sess.Run(ctx)
		screen.Done()
		done <- err
	}()
	_, runErr := program.Run()
	cancel()
	sessErr := <-done
	logger.Info("session ended", "status", sessionStatus(sessErr), "trials", writer.Len(), "interrupted", view.Interrupted())

	err = finishSession(context.Background(), os.Stderr, writer, st, sess, rec, sessErr)
	if runErr != nil {
		return fmt.Errorf("failed to run TUI: %w", runErr)
	}
	return err
}

func sessionStatus(err error) string {
	switch {
	case err == nil:
		return model.StatusCompleted
	case errors.Is(err, task.ErrUserAbort), errors.Is(err, context.Canceled):
		return model.StatusAborted
	default:
		return model.StatusFailed
	}
}

// finishSession saves the trial file of an unfinished session, records the
// session in st (when set) and prints the block summaries to out. Aborted
// and cancelled sessions return ErrUserAbort.
func finishSession(ctx context.Context, out io.Writer, writer *sink.Writer, st *store.Store, sess *task.Session, rec model.SessionRecord, sessErr error) error {
	rec.Status = sessionStatus(sessErr)
	if writer.Len() == 0 {
		return sessionResult(rec.Status, sessErr, 0)
	}
	if rec.Status != model.StatusCompleted {
		if err := writer.Flush(); err != nil {
			logErrf("failed to save completed trials: %v\n", err)
		}
	}
	if st != nil {
		rec.EndedAt = time.Now()
		rec.FinalSSDMs = task.Millis(sess.SSD())
		rec.OutputPath = writer.Path()
		if _, err := st.InsertSession(ctx, rec, sess.Outcomes()); err != nil {
			logErrf("failed to record session: %v\n", err)
		}
	}
	// Best-effort summary output.
	_, _ = fmt.Fprintf(out, "Saved %d trials to %s\n%s", writer.Len(), writer.Path(), renderBlocks(sess.Blocks()))
	return sessionResult(rec.Status, sessErr, writer.Len())
}

func sessionResult(status string, sessErr error, trials int) error {
	if status == model.StatusAborted {
		return fmt.Errorf("%w after %d trials", task.ErrUserAbort, trials)
	}
	return sessErr
}

func taskConfig(cmd *cobra.Command, fc config.TaskConfig) (model.TaskConfig, error) {
	applyIntConfig(cmd, "blocks", &runBlocks, fc.Blocks)
	applyIntConfig(cmd, "reps", &runReps, fc.Reps)
	applyIntConfig(cmd, "practice-reps", &runPracticeReps, fc.PracticeReps)
	durations := []struct {
		name   string
		target *time.Duration
		value  *string
	}{
		{"iti", &runITI, fc.ITI},
		{"max-rt", &runMaxRT, fc.MaxRT},
		{"ssd", &runSSD, fc.SSD},
		{"ssd-step", &runSSDStep, fc.SSDStep},
		{"draw-latency", &runDrawLatency, fc.DrawLatency},
		{"feedback", &runFeedback, fc.Feedback},
		{"break", &runBreak, fc.Break},
		{"ready", &runReady, fc.Ready},
		{"poll-interval", &runPollInterval, fc.PollInterval},
	}
	for _, d := range durations {
		if err := applyDurationConfig(cmd, d.name, d.target, d.value); err != nil {
			return model.TaskConfig{}, err
		}
	}
	noSignal, signal := defaultNoSignalWeight, defaultSignalWeight
	if fc.NoSignalWeight != nil {
		noSignal = *fc.NoSignalWeight
	}
	if fc.SignalWeight != nil {
		signal = *fc.SignalWeight
	}
	return model.TaskConfig{
		Blocks:         runBlocks,
		Reps:           runReps,
		PracticeReps:   runPracticeReps,
		ITI:            runITI,
		MaxRT:          runMaxRT,
		InitialSSD:     runSSD,
		SSDStep:        runSSDStep,
		DrawLatency:    runDrawLatency,
		Feedback:       runFeedback,
		Break:          runBreak,
		Ready:          runReady,
		PollInterval:   runPollInterval,
		NoSignalWeight: noSignal,
		SignalWeight:   signal,
		Seed:           runSeed,
	}, nil
}

func validateTaskConfig(cfg model.TaskConfig) error {
	if cfg.Blocks <= 0 {
		return fmt.Errorf("--blocks must be > 0")
	}
	if cfg.Reps <= 0 {
		return fmt.Errorf("--reps must be > 0")
	}
	if cfg.PracticeReps < 0 {
		return fmt.Errorf("--practice-reps must be >= 0")
	}
	if cfg.SSDStep <= 0 {
		return fmt.Errorf("--ssd-step must be > 0")
	}
	if cfg.MaxRT <= 2*cfg.SSDStep {
		return fmt.Errorf("--max-rt must be greater than twice --ssd-step")
	}
	if cfg.InitialSSD < cfg.SSDStep || cfg.InitialSSD > cfg.MaxRT-cfg.SSDStep {
		return fmt.Errorf("--ssd must be between %v and %v", cfg.SSDStep, cfg.MaxRT-cfg.SSDStep)
	}
	nonNegative := map[string]time.Duration{
		"--iti":           cfg.ITI,
		"--draw-latency":  cfg.DrawLatency,
		"--feedback":      cfg.Feedback,
		"--break":         cfg.Break,
		"--ready":         cfg.Ready,
		"--poll-interval": cfg.PollInterval,
	}
	for name, d := range nonNegative {
		if d < 0 {
			return fmt.Errorf("%s must be >= 0", name)
		}
	}
	if cfg.NoSignalWeight <= 0 || cfg.SignalWeight <= 0 {
		return fmt.Errorf("design weights must be > 0")
	}
	return nil
}

func keyMap(kc config.KeysConfig) (tui.KeyMap, error) {
	pick := func(keys, fallback []string) []string {
		if len(keys) > 0 {
			return keys
		}
		return fallback
	}
	return tui.NewKeyMap(
		pick(kc.Left, tui.DefaultLeftKeys),
		pick(kc.Right, tui.DefaultRightKeys),
		pick(kc.Abort, tui.DefaultAbortKeys),
		pick(kc.Continue, tui.DefaultContinueKeys),
	)
}

// resolveOutput returns a free output path for p. With a prompter, taken
// or missing identifiers are asked for again until a free path is found or
// the user enters nothing.
func resolveOutput(dir string, p model.Participant, prompt *prompter) (string, model.Participant, error) {
	for {
		if p.ID == "" || p.Session == "" {
			if prompt == nil {
				return "", p, fmt.Errorf("--participant and --session are required")
			}
			next, ok := prompt.identifiers(p)
			if !ok {
				return "", p, fmt.Errorf("participant entry cancelled")
			}
			p = next
			continue
		}
		path := filepath.Join(dir, sink.FileName(p))
		err := sink.CheckAvailable(path)
		if err == nil {
			return path, p, nil
		}
		if !errors.Is(err, sink.ErrFileExists) || prompt == nil {
			return "", p, err
		}
		prompt.printf("%v\nEnter a different participant or session.\n", err)
		next, ok := prompt.identifiers(p)
		if !ok {
			return "", p, err
		}
		p = next
	}
}

type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

func (pr *prompter) printf(format string, args ...any) {
	// Best-effort prompt output.
	_, _ = fmt.Fprintf(pr.out, format, args...)
}

// identifiers asks for participant and session, then for gender and age
// when they are still empty. An empty participant cancels; other empty
// answers keep the current value.
func (pr *prompter) identifiers(p model.Participant) (model.Participant, bool) {
	pr.printf("Participant: ")
	id, ok := pr.readLine()
	if !ok || id == "" {
		return p, false
	}
	p.ID = id
	if p.Session, ok = pr.field("Session", p.Session); !ok || p.Session == "" {
		return p, false
	}
	if p.Gender == "" {
		p.Gender, _ = pr.field("Gender", "")
	}
	if p.Age == "" {
		p.Age, _ = pr.field("Age", "")
	}
	return p, true
}

func (pr *prompter) field(label, current string) (string, bool) {
	if current != "" {
		pr.printf("%s [%s]: ", label, current)
	} else {
		pr.printf("%s: ", label)
	}
	value, ok := pr.readLine()
	if !ok {
		return current, false
	}
	if value == "" {
		return current, true
	}
	return value, true
}

func (pr *prompter) readLine() (string, bool) {
	line, err := pr.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", false
	}
	return strings.TrimSpace(line), true
}

// newLogger builds the diagnostics logger. Without a path, records are
// discarded since the terminal belongs to the task display.
func newLogger(path, level string) (*slog.Logger, func(), error) {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "info", "":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, nil, fmt.Errorf("invalid log level: %s", level)
	}
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	closeFn := func() {
		if cerr := file.Close(); cerr != nil {
			logErrf("failed to close log file: %v\n", cerr)
		}
	}
	return slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: lvl})), closeFn, nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target *time.Duration, value *string) error {
	if value == nil {
		return nil
	}
	if cmd.Flags().Changed(name) {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(*value))
	if err != nil {
		return fmt.Errorf("invalid %s in config: %w", name, err)
	}
	*target = d
	return nil
}
