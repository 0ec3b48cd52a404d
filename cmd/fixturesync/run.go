package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vmunix/fixturesync/internal/config"
	"github.com/vmunix/fixturesync/internal/events"
	"github.com/vmunix/fixturesync/internal/runner"
	"github.com/vmunix/fixturesync/internal/server"
	"github.com/vmunix/fixturesync/pkg/fixture"
)

var runCmd = &cobra.Command{
	Use:   "run <csv|->",
	Short: "Import a CSV in a local browser",
	Long: `Launch a browser, wait for the calendar to be open, then create one
event per CSV row. The run follows the page across reloads and returns
once every row is done.

Examples:
  fixturesync run fixtures.csv
  fixturesync run fixtures.csv --mode type
  fixturesync scrape fixtures.html | fixturesync run - --validate-only`,
	Args: cobra.ExactArgs(1),
	RunE: runRunCmd,
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Continue a stored job in a fresh browser",
	Long: `Continue the job left in the store by an interrupted run. Needs a
store that outlives the browser (store.driver = sqlite or redis).`,
	Args: cobra.NoArgs,
	RunE: runResumeCmd,
}

func init() {
	rootCmd.AddCommand(runCmd, resumeCmd)
	runCmd.Flags().String("mode", "", "full, type or highlight (default from config)")
	runCmd.Flags().Bool("validate-only", false, "Only check the calendar controls")
	runCmd.Flags().Bool("dedupe", false, "Accepted for compatibility; not enforced")
	for _, c := range []*cobra.Command{runCmd, resumeCmd} {
		c.Flags().Bool("no-prompt", false, "Start without waiting for Enter")
	}
}

func readCSV(in io.Reader, arg string) (string, error) {
	if arg == "-" {
		data, err := io.ReadAll(in)
		return string(data), err
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// runOptions overlays the run flags onto the configured import options.
func runOptions(cmd *cobra.Command, base fixture.Options) (fixture.Options, error) {
	f := cmd.Flags()
	opts := base
	if f.Changed("mode") {
		s, _ := f.GetString("mode")
		mode, err := fixture.ParseMode(s)
		if err != nil {
			return opts, err
		}
		opts.Mode = mode
	}
	if f.Changed("validate-only") {
		opts.ValidateOnly, _ = f.GetBool("validate-only")
	}
	if f.Changed("dedupe") {
		opts.Dedupe, _ = f.GetBool("dedupe")
	}
	return opts, nil
}

// waitForEnter blocks until a line is read, giving the operator time to
// log in and open the calendar.
func waitForEnter(cmd *cobra.Command, prompt string) {
	if skip, _ := cmd.Flags().GetBool("no-prompt"); skip {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s, then press Enter: ", prompt)
	_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := runOptions(cmd, cfg.ImportOptions())
	if err != nil {
		return err
	}
	csv, err := readCSV(cmd.InOrStdin(), args[0])
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}
	if args[0] == "-" {
		// stdin carried the CSV, so there is nobody to press Enter
		_ = cmd.Flags().Set("no-prompt", "true")
	}

	return drive(cmd, cfg, func(ctx context.Context, s *server.Stack) (runner.State, error) {
		waitForEnter(cmd, "Open the team calendar month view")
		return s.Session.Drive(ctx, func(ctx context.Context) (runner.State, error) {
			return s.Runner.Start(ctx, csv, opts)
		})
	})
}

func runResumeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return drive(cmd, cfg, func(ctx context.Context, s *server.Stack) (runner.State, error) {
		if err := s.Runner.RequireJob(ctx); err != nil {
			return runner.Idle, err
		}
		waitForEnter(cmd, "Log in if needed")
		return s.Session.Drive(ctx, s.Runner.Resume)
	})
}

// drive opens the local stack, runs fn under a signal-aware context and
// reports the outcome.
func drive(cmd *cobra.Command, cfg *config.Config, fn func(context.Context, *server.Stack) (runner.State, error)) error {
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stack, err := server.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = stack.Close() }()

	validated := stack.Bus.Subscribe(events.EventJobValidated, 1)
	state, err := fn(ctx, stack)
	if err != nil {
		return fmt.Errorf("%s: %w", state, err)
	}
	report(cmd.OutOrStdout(), state, stack, validated)
	return nil
}

func report(w io.Writer, state runner.State, s *server.Stack, validated <-chan events.Event) {
	snap := s.Runner.Reporter().Snapshot()
	switch state {
	case runner.Validated:
		select {
		case e := <-validated:
			if v, ok := e.(*events.JobValidated); ok {
				runner.WriteChecks(w, v.Checks)
				return
			}
		default:
		}
		fmt.Fprintln(w, snap.Message)
	default:
		if jsonOutput {
			printJSON(w, snap)
			return
		}
		fmt.Fprintf(w, "%s: %s\n", state, snap.Message)
	}
}
