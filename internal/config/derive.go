package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/vmunix/fixturesync/internal/browser"
	"github.com/vmunix/fixturesync/internal/runner"
	"github.com/vmunix/fixturesync/internal/scrape"
	"github.com/vmunix/fixturesync/pkg/fixture"
)

// LogLevel maps server.log_level onto slog. Unknown values are info.
func (c *Config) LogLevel() slog.Level {
	return parseLogLevel(c.Server.LogLevel)
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RunnerTiming overlays [timing] onto the runner defaults.
func (c *Config) RunnerTiming() runner.Timing {
	t := runner.DefaultTiming()
	tc := c.Timing
	override(&t.Poll, tc.PollInterval)
	override(&t.Navigate.GridPoll, tc.PollInterval)
	override(&t.FieldWait, tc.WaitField)
	override(&t.FormWait, tc.WaitField)
	override(&t.Navigate.GridWait, tc.WaitGrid)
	override(&t.MenuWait, tc.WaitMenu)
	override(&t.DialogWait, tc.WaitDialog)
	override(&t.Navigate.EnforceInterval, tc.EnforceInterval)
	override(&t.Navigate.EnforceTimeout, tc.EnforceTimeout)
	override(&t.Fill.TypeDelay, tc.TypeDelay)
	override(&t.Navigate.Step, tc.StepDelay)
	override(&t.Fill.Settle, tc.Settle)
	override(&t.FieldSettle, tc.Settle)
	return t
}

func override(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

// Location resolves import.timezone, falling back to the local zone.
func (c *Config) Location() *time.Location {
	if c.Import.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Import.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ImportOptions is the default option set for runs started locally.
func (c *Config) ImportOptions() fixture.Options {
	mode, err := fixture.ParseMode(c.Import.Mode)
	if err != nil {
		mode = fixture.ModeFull
	}
	return fixture.Options{Mode: mode, ValidateOnly: c.Import.ValidateOnly, Dedupe: c.Import.Dedupe}
}

// BrowserOptions converts [browser].
func (c *Config) BrowserOptions(logger *slog.Logger) browser.Options {
	return browser.Options{
		Headless:    c.Browser.Headless,
		UserDataDir: c.Browser.UserDataDir,
		SlowMo:      time.Duration(c.Browser.SlowMoMS) * time.Millisecond,
		Channel:     c.Browser.Channel,
		Logger:      logger,
	}
}

// ScrapeParams converts [scrape].
func (c *Config) ScrapeParams() scrape.Params {
	return scrape.Params{
		Team:        c.Scrape.Team,
		Duration:    c.Scrape.Duration,
		TitlePrefix: c.Scrape.TitlePrefix,
		Visibility:  c.Scrape.Visibility,
		MeetBefore:  c.Scrape.MeetBefore,
		AddAdmins:   c.Scrape.AddAdmins,
		AddPlayers:  c.Scrape.AddPlayers,
	}
}

// StartURL joins site.origin with site.start_path.
func (c *Config) StartURL() string {
	if c.Site.Origin == "" {
		return ""
	}
	return strings.TrimRight(c.Site.Origin, "/") + "/" + strings.TrimLeft(c.Site.StartPath, "/")
}
