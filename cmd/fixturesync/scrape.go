package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/fixturesync/internal/scrape"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <file|url>",
	Short: "Scrape a fixtures page into import CSV",
	Long: `Scrape a fixtures page (saved HTML file or URL) into the CSV that
'fixturesync run' and 'fixturesync import' accept.

Defaults come from the [scrape] config section; flags override them.

Examples:
  fixturesync scrape fixtures.html --team "Hawks U11" --out fixtures.csv
  fixturesync scrape https://league.example/fixtures --preview`,
	Args: cobra.ExactArgs(1),
	RunE: runScrapeCmd,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	f := scrapeCmd.Flags()
	f.String("team", "", "Team the calendar belongs to (inferred when empty)")
	f.Int("duration", 0, "Match length in minutes")
	f.String("title-prefix", "", "Prefix for event titles")
	f.String("visibility", "", "private or public")
	f.Int("meet-before", 0, "Meet-before minutes")
	f.Bool("admins", false, "Invite admins and staff")
	f.Bool("players", false, "Invite players")
	f.StringP("out", "o", "", "Write CSV to file instead of stdout")
	f.Bool("preview", false, "Print a preview table to stderr")
}

func runScrapeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	params := cfg.ScrapeParams()

	f := cmd.Flags()
	if f.Changed("team") {
		params.Team, _ = f.GetString("team")
	}
	if f.Changed("duration") {
		params.Duration, _ = f.GetInt("duration")
	}
	if f.Changed("title-prefix") {
		params.TitlePrefix, _ = f.GetString("title-prefix")
	}
	if f.Changed("visibility") {
		params.Visibility, _ = f.GetString("visibility")
	}
	if f.Changed("meet-before") {
		params.MeetBefore, _ = f.GetInt("meet-before")
	}
	if f.Changed("admins") {
		params.AddAdmins, _ = f.GetBool("admins")
	}
	if f.Changed("players") {
		params.AddPlayers, _ = f.GetBool("players")
	}

	matches, err := scrape.NewFetcher().Scrape(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fixtures, team, err := scrape.Build(matches, params)
	if err != nil {
		return err
	}

	if preview, _ := f.GetBool("preview"); preview {
		scrape.WritePreview(cmd.ErrOrStderr(), team, fixtures)
	}

	var w io.Writer = cmd.OutOrStdout()
	if out, _ := f.GetString("out"); out != "" {
		file, err := os.Create(out)
		if err != nil {
			return err
		}
		defer func() { _ = file.Close() }()
		w = file
		defer fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d fixtures for %s to %s\n", len(fixtures), team, out)
	}
	return scrape.WriteCSV(w, fixtures)
}
