// Package main provides the CLI entrypoint for stopit.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/stopit/internal/config"
	"github.com/verte-zerg/stopit/internal/model"
	"github.com/verte-zerg/stopit/internal/sink"
	"github.com/verte-zerg/stopit/internal/stats"
	"github.com/verte-zerg/stopit/internal/statsui"
	"github.com/verte-zerg/stopit/internal/store"
	"github.com/verte-zerg/stopit/internal/task"
)

const (
	defaultBlocks         = 3
	defaultReps           = 12
	defaultPracticeReps   = 4
	defaultITI            = 500 * time.Millisecond
	defaultMaxRT          = 1250 * time.Millisecond
	defaultSSD            = 200 * time.Millisecond
	defaultSSDStep        = 50 * time.Millisecond
	defaultDrawLatency    = 10 * time.Millisecond
	defaultFeedback       = 500 * time.Millisecond
	defaultBreak          = 15 * time.Second
	defaultReady          = 2 * time.Second
	defaultNoSignalWeight = 3
	defaultSignalWeight   = 1
	defaultLogLevel       = "info"
)

// Exit codes.
const (
	exitError = 1
	exitAbort = 2
)

var (
	runParticipant  string
	runSession      string
	runGender       string
	runAge          string
	runOutDir       string
	runBlocks       int
	runReps         int
	runPracticeReps int
	runITI          time.Duration
	runMaxRT        time.Duration
	runSSD          time.Duration
	runSSDStep      time.Duration
	runDrawLatency  time.Duration
	runFeedback     time.Duration
	runBreak        time.Duration
	runReady        time.Duration
	runPollInterval time.Duration
	runInstructions string
	runSeed         int64
	runLogFile      string
	runLogLevel     string
	runNoStore      bool

	historyParticipant string
	historySince       string
	historyLast        int
	historyPlain       bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, task.ErrUserAbort) {
			os.Exit(exitAbort)
		}
		os.Exit(exitError)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "stopit",
		Short:         "Stop-signal reaction time task",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runTaskCmd,
	}

	flags := rootCmd.Flags()
	flags.StringVar(&runParticipant, "participant", "", "participant identifier")
	flags.StringVar(&runSession, "session", "1", "session identifier")
	flags.StringVar(&runGender, "gender", "", "participant gender")
	flags.StringVar(&runAge, "age", "", "participant age")
	flags.StringVar(&runOutDir, "out-dir", "", "directory for trial files (default: XDG data dir)")
	flags.IntVar(&runBlocks, "blocks", defaultBlocks, "number of experimental blocks")
	flags.IntVar(&runReps, "reps", defaultReps, "design repetitions per experimental block")
	flags.IntVar(&runPracticeReps, "practice-reps", defaultPracticeReps, "design repetitions in the practice block (0 skips it)")
	flags.DurationVar(&runITI, "iti", defaultITI, "inter-trial interval")
	flags.DurationVar(&runMaxRT, "max-rt", defaultMaxRT, "response window")
	flags.DurationVar(&runSSD, "ssd", defaultSSD, "initial stop-signal delay")
	flags.DurationVar(&runSSDStep, "ssd-step", defaultSSDStep, "staircase step")
	flags.DurationVar(&runDrawLatency, "draw-latency", defaultDrawLatency, "lead time for presenting the stop signal; should cover one redraw period (about 8ms)")
	flags.DurationVar(&runFeedback, "feedback", defaultFeedback, "practice feedback duration")
	flags.DurationVar(&runBreak, "break", defaultBreak, "minimum break between blocks")
	flags.DurationVar(&runReady, "ready", defaultReady, "get-ready screen duration")
	flags.DurationVar(&runPollInterval, "poll-interval", 0, "sleep between response polls (0 yields only)")
	flags.StringVar(&runInstructions, "instructions", "", "file with instruction text")
	flags.Int64Var(&runSeed, "seed", 0, "trial order seed (0 uses the clock)")
	flags.StringVar(&runLogFile, "log-file", "", "write diagnostics to this file")
	flags.StringVar(&runLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	flags.BoolVar(&runNoStore, "no-store", false, "do not record the session in the history database")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newSummarizeCmd())

	return rootCmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse recorded sessions",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyParticipant, "participant", "", "participant filter")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N sessions")
	cmd.Flags().BoolVar(&historyPlain, "plain", false, "print a text report instead of the interactive view")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := historyConfig(historyParticipant, historySince, historyLast)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	load := func(ctx context.Context, cfg model.HistoryConfig) ([]stats.SessionReport, error) {
		return stats.BuildReport(ctx, st, cfg)
	}

	if historyPlain || !isTerminal(os.Stdout) {
		reports, err := load(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		return stats.RenderHistory(cmd.OutOrStdout(), reports)
	}

	program := tea.NewProgram(statsui.NewModel(load, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run history TUI: %w", err)
	}
	return nil
}

func historyConfig(participant, since string, last int) (model.HistoryConfig, error) {
	if last < 0 {
		return model.HistoryConfig{}, fmt.Errorf("--last must be >= 0")
	}
	cfg := model.HistoryConfig{Participant: strings.TrimSpace(participant), Last: last}
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return model.HistoryConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		cfg.Since = &parsed
	}
	return cfg, nil
}

func newSummarizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summarize FILE.csv",
		Short: "Recompute block summaries from a trial file",
		Args:  cobra.ExactArgs(1),
		RunE:  runSummarizeCmd,
	}
}

func runSummarizeCmd(cmd *cobra.Command, args []string) error {
	p, outcomes, err := sink.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Participant %s · session %s · %d trials\n", p.ID, p.Session, len(outcomes)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return stats.RenderBlockTable(out, stats.SummarizeBlocks(outcomes))
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# stopit configuration
# Uncomment a value to enable it. CLI flags override config values.

[task]
# blocks = %d                # Experimental blocks
# reps = %d                 # Design repetitions per experimental block
# practice-reps = %d         # Design repetitions in the practice block (0 skips it)
# iti = %q              # Inter-trial interval
# max-rt = %q          # Response window
# ssd = %q              # Initial stop-signal delay
# ssd-step = %q          # Staircase step
# draw-latency = %q      # Lead time for presenting the stop signal
# feedback = %q         # Practice feedback duration
# break = %q            # Minimum break between blocks
# ready = %q             # Get-ready screen duration
# poll-interval = "0s"       # Sleep between response polls
# nosignal-weight = %d       # Relative frequency of no-signal trials
# signal-weight = %d         # Relative frequency of signal trials
# instructions = ""          # File with instruction text

[keys]
# left = ["left"]
# right = ["right"]
# abort = ["esc"]
# continue = ["space"]

[output]
# dir = ""                   # Trial file directory (default %q)
# store = true               # Record sessions in the history database
`,
		defaultBlocks,
		defaultReps,
		defaultPracticeReps,
		defaultITI.String(),
		defaultMaxRT.String(),
		defaultSSD.String(),
		defaultSSDStep.String(),
		defaultDrawLatency.String(),
		defaultFeedback.String(),
		defaultBreak.String(),
		defaultReady.String(),
		defaultNoSignalWeight,
		defaultSignalWeight,
		config.DefaultOutputDir(),
	)
}

func isTerminal(file *os.File) bool {
	return term.IsTerminal(int(file.Fd()))
}

func renderBlocks(blocks []stats.BlockResult) string {
	var buf bytes.Buffer
	if err := stats.RenderBlockTable(&buf, blocks); err != nil {
		return err.Error()
	}
	return buf.String()
}

// logErrf writes best-effort diagnostics to stderr.
func logErrf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format, args...)
}
