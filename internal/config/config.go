// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Site    SiteConfig    `toml:"site"`
	Browser BrowserConfig `toml:"browser"`
	Import  ImportConfig  `toml:"import"`
	Timing  TimingConfig  `toml:"timing"`
	Store   StoreConfig   `toml:"store"`
	NATS    NATSConfig    `toml:"nats"`
	Scrape  ScrapeConfig  `toml:"scrape"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

// SiteConfig locates the team calendar application.
type SiteConfig struct {
	Origin string `toml:"origin"`
	// GroupPrefix skips prefix discovery, e.g. "/organization/1/group/2".
	GroupPrefix string `toml:"group_prefix"`
	StartPath   string `toml:"start_path"`
}

type BrowserConfig struct {
	Headless    bool   `toml:"headless"`
	UserDataDir string `toml:"user_data_dir"`
	SlowMoMS    int    `toml:"slow_mo_ms"`
	Channel     string `toml:"channel"`
}

type ImportConfig struct {
	Mode         string `toml:"mode"`
	ValidateOnly bool   `toml:"validate_only"`
	Dedupe       bool   `toml:"dedupe"`
	Timezone     string `toml:"timezone"`
}

// TimingConfig overrides the built-in waits. Zero keeps the default.
type TimingConfig struct {
	PollInterval    time.Duration `toml:"poll_interval"`
	WaitField       time.Duration `toml:"wait_field"`
	WaitGrid        time.Duration `toml:"wait_grid"`
	WaitMenu        time.Duration `toml:"wait_menu"`
	WaitDialog      time.Duration `toml:"wait_dialog"`
	EnforceInterval time.Duration `toml:"enforce_interval"`
	EnforceTimeout  time.Duration `toml:"enforce_timeout"`
	TypeDelay       time.Duration `toml:"type_delay"`
	StepDelay       time.Duration `toml:"step_delay"`
	Settle          time.Duration `toml:"settle"`
	LoadTimeout     time.Duration `toml:"load_timeout"`
}

type StoreConfig struct {
	Driver string `toml:"driver"`
	// Path is the SQLite database; the event log lives there for every driver.
	Path      string        `toml:"path"`
	RedisURL  string        `toml:"redis_url"`
	KeyPrefix string        `toml:"key_prefix"`
	TTL       time.Duration `toml:"ttl"`
}

type NATSConfig struct {
	Enabled       bool   `toml:"enabled"`
	URL           string `toml:"url"`
	SubjectPrefix string `toml:"subject_prefix"`
}

type ScrapeConfig struct {
	Team        string `toml:"team"`
	Duration    int    `toml:"duration"`
	TitlePrefix string `toml:"title_prefix"`
	Visibility  string `toml:"visibility"`
	MeetBefore  int    `toml:"meet_before"`
	AddAdmins   bool   `toml:"add_admins"`
	AddPlayers  bool   `toml:"add_players"`
}

// Store drivers.
const (
	DriverPage   = "page"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load reads, parses and validates the configuration file.
func Load(path string) (*Config, error) {
	cfg, err := LoadWithoutValidation(path)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &ConfigError{Path: path, Errors: errs}
	}
	return cfg, nil
}

// LoadWithoutValidation reads and parses the configuration file, applying
// defaults but skipping Validate. Unresolved variables are still an error.
func LoadWithoutValidation(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))
	if len(missing) > 0 {
		return nil, &ConfigError{Path: path, Missing: missing}
	}

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8585
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Import.Mode == "" {
		c.Import.Mode = "full"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DriverPage
	}
	if c.Store.Path == "" {
		c.Store.Path = "./data/fixturesync.db"
	}
	if c.Store.KeyPrefix == "" {
		c.Store.KeyPrefix = "fixturesync:"
	}
	if c.NATS.URL == "" {
		c.NATS.URL = "nats://127.0.0.1:4222"
	}
	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = "fixturesync"
	}
	if c.Scrape.Duration == 0 {
		c.Scrape.Duration = 90
	}
	if c.Scrape.Visibility == "" {
		c.Scrape.Visibility = "private"
	}
}

// Addr is the daemon listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// envVarPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// substituteEnvVars expands variable references. Unset variables without a
// default are left in place and reported in missing.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		m := envVarPattern.FindStringSubmatch(match)
		name, op, arg := m[1], m[2], m[3]
		value, ok := os.LookupEnv(name)
		switch op {
		case ":-":
			if !ok || value == "" {
				return arg
			}
			return value
		case ":?":
			if !ok || value == "" {
				missing = append(missing, name+": "+arg)
				return match
			}
			return value
		}
		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	})
	return out, missing
}
