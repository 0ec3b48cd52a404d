package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmunix/fixturesync/internal/messages"
)

var importCmd = &cobra.Command{
	Use:   "import <csv|->",
	Short: "Send a CSV to the running daemon",
	Long: `Send a start request to fixturesyncd. The daemon's browser runs the
import; follow it with 'fixturesync status'.

Examples:
  fixturesync import fixtures.csv
  fixturesync import fixtures.csv --mode highlight --server http://box:8585`,
	Args: cobra.ExactArgs(1),
	RunE: runImportCmd,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().String("mode", "", "full, type or highlight (daemon default: full)")
	importCmd.Flags().Bool("validate-only", false, "Only check the calendar controls")
	importCmd.Flags().Bool("dedupe", false, "Accepted for compatibility; not enforced")
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	csv, err := readCSV(cmd.InOrStdin(), args[0])
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}
	var opts messages.ImportOptions
	opts.Mode, _ = cmd.Flags().GetString("mode")
	opts.ValidateOnly, _ = cmd.Flags().GetBool("validate-only")
	opts.Dedupe, _ = cmd.Flags().GetBool("dedupe")

	reply, err := NewClient(serverURL).Import(csv, opts)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	if jsonOutput {
		printJSON(cmd.OutOrStdout(), reply)
		return nil
	}
	if !reply.OK {
		return errors.New("import refused: " + reply.Error)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Import started")
	return nil
}
