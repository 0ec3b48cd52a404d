package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vmunix/fixturesync/internal/events"
	"github.com/vmunix/fixturesync/internal/progress"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the daemon's import progress",
	Long: `Show the progress of the daemon's current or last import.

Examples:
  fixturesync status
  fixturesync status --events 10
  fixturesync status --json`,
	Args: cobra.NoArgs,
	RunE: runStatusCmd,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().Int("events", 0, "Also list this many recent events")
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	client := NewClient(serverURL)
	snap, err := client.Status()
	if err != nil {
		return fmt.Errorf("status check failed: %w", err)
	}

	n, _ := cmd.Flags().GetInt("events")
	var recent *EventsResponse
	if n > 0 {
		if recent, err = client.Events(n); err != nil {
			return fmt.Errorf("list events failed: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if recent != nil {
			printJSON(out, map[string]any{"status": snap, "events": recent.Items})
		} else {
			printJSON(out, snap)
		}
		return nil
	}

	printStatus(out, serverURL, snap)
	if recent != nil {
		fmt.Fprintln(out)
		printEvents(out, recent.Items)
	}
	return nil
}

func optional(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

func stateLabel(s *progress.Snapshot) string {
	switch {
	case s.Error != "":
		return "failed"
	case s.Finished:
		return "finished"
	case s.Navigating:
		return "navigating"
	case s.Started:
		return "running"
	default:
		return "idle"
	}
}

func printStatus(w io.Writer, server string, s *progress.Snapshot) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("fixturesync @ " + server)
	t.AppendRows([]table.Row{
		{"State", stateLabel(s)},
		{"Done", optional(s.IndexDone) + " / " + optional(s.Total)},
		{"Row", optional(s.Index)},
		{"Target", s.Target},
		{"Message", s.Message},
	})
	if s.Error != "" {
		t.AppendRow(table.Row{"Error", s.Error})
	}
	if s.At > 0 {
		t.AppendRow(table.Row{"Updated", time.UnixMilli(s.At).Format(time.RFC3339)})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

var registry = events.DefaultRegistry()

// eventDetail summarises a logged event's payload for the table.
func eventDetail(item EventResponse) string {
	e, err := registry.Unmarshal(events.RawEvent{EventType: item.EventType, Payload: string(item.Payload)})
	if err != nil {
		return ""
	}
	switch e := e.(type) {
	case *events.JobStarted:
		return fmt.Sprintf("%d rows, mode %s", e.Total, e.Mode)
	case *events.JobSuspended:
		return "row " + fmt.Sprint(e.Index) + " -> " + e.Target
	case *events.JobResumed:
		return "row " + fmt.Sprint(e.Index)
	case *events.RowCompleted:
		if e.NotStarted {
			return fmt.Sprintf("%d/%d %s not started", e.Index+1, e.Total, e.Date)
		}
		return fmt.Sprintf("%d/%d %s", e.Index+1, e.Total, e.Date)
	case *events.JobFinished:
		return fmt.Sprintf("%d rows", e.Total)
	case *events.JobFailed:
		return e.Reason
	case *events.JobValidated:
		ok := 0
		for _, c := range e.Checks {
			if c.OK {
				ok++
			}
		}
		return fmt.Sprintf("%d/%d checks passed", ok, len(e.Checks))
	}
	return ""
}

func printEvents(w io.Writer, items []EventResponse) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"ID", "Event", "Job", "Detail", "At"})
	for _, e := range items {
		t.AppendRow(table.Row{e.ID, e.EventType, e.EntityID, eventDetail(e), e.OccurredAt})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
