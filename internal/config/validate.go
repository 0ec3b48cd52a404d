package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/vmunix/fixturesync/pkg/fixture"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validDrivers = map[string]bool{
	DriverPage: true, DriverSQLite: true, DriverRedis: true, DriverMemory: true,
}

var validVisibility = map[string]bool{
	"private": true, "public": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	if c.Site.Origin != "" {
		u, err := url.Parse(c.Site.Origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("site.origin: must be an absolute URL, got %q", c.Site.Origin))
		}
	}
	if c.Site.GroupPrefix != "" && !strings.HasPrefix(c.Site.GroupPrefix, "/") {
		errs = append(errs, fmt.Sprintf("site.group_prefix: must start with /, got %q", c.Site.GroupPrefix))
	}

	if c.Browser.SlowMoMS < 0 {
		errs = append(errs, "browser.slow_mo_ms: must not be negative")
	}

	if _, err := fixture.ParseMode(c.Import.Mode); err != nil {
		errs = append(errs, "import.mode: "+err.Error())
	}
	if c.Import.Timezone != "" {
		if _, err := time.LoadLocation(c.Import.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("import.timezone: unknown zone %q", c.Import.Timezone))
		}
	}

	if !validDrivers[c.Store.Driver] {
		errs = append(errs, fmt.Sprintf("store.driver: must be one of page, sqlite, redis, memory; got %q", c.Store.Driver))
	}
	if c.Store.Driver == DriverRedis && c.Store.RedisURL == "" {
		errs = append(errs, "store.redis_url: required when driver is redis")
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url: required when nats is enabled")
	}

	if c.Scrape.Duration < 0 {
		errs = append(errs, "scrape.duration: must not be negative")
	}
	if c.Scrape.MeetBefore < 0 {
		errs = append(errs, "scrape.meet_before: must not be negative")
	}
	if !validVisibility[strings.ToLower(c.Scrape.Visibility)] {
		errs = append(errs, fmt.Sprintf("scrape.visibility: must be private or public; got %q", c.Scrape.Visibility))
	}

	return errs
}
