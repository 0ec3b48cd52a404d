package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[server]\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8585 {
		t.Errorf("expected default port 8585, got %d", cfg.Server.Port)
	}
	if cfg.Store.Driver != DriverPage {
		t.Errorf("expected page driver, got %q", cfg.Store.Driver)
	}
	if cfg.Import.Mode != "full" {
		t.Errorf("expected full mode, got %q", cfg.Import.Mode)
	}
	if cfg.Scrape.Duration != 90 || cfg.Scrape.Visibility != "private" {
		t.Errorf("unexpected scrape defaults %+v", cfg.Scrape)
	}
}

func TestLoad_Sections(t *testing.T) {
	t.Setenv("FS_TEST_REDIS", "redis://cache:6379/1")
	cfg, err := Load(writeConfig(t, `
[site]
origin = "https://app.example.test"
group_prefix = "/organization/1/group/2"

[timing]
wait_grid = "20s"
type_delay = "10ms"

[store]
driver = "redis"
redis_url = "${FS_TEST_REDIS}"

[nats]
enabled = true
subject_prefix = "club"
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.RedisURL != "redis://cache:6379/1" {
		t.Errorf("expected substituted redis url, got %q", cfg.Store.RedisURL)
	}
	if cfg.Timing.WaitGrid != 20*time.Second {
		t.Errorf("expected 20s grid wait, got %v", cfg.Timing.WaitGrid)
	}
	if !cfg.NATS.Enabled || cfg.NATS.SubjectPrefix != "club" {
		t.Errorf("unexpected nats config %+v", cfg.NATS)
	}
	if cfg.Site.GroupPrefix != "/organization/1/group/2" {
		t.Errorf("unexpected group prefix %q", cfg.Site.GroupPrefix)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	_, err := Load(writeConfig(t, "[server]\nport = 99999\n"))
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
	if !strings.Contains(err.Error(), "server.port") {
		t.Errorf("expected server.port in error, got %v", err)
	}
}

func TestLoad_MissingEnvVar(t *testing.T) {
	path := writeConfig(t, "[store]\nredis_url = \"${FIXTURESYNC_NEVER_SET_3}\"\n")
	_, err := Load(path)

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Path != path || len(cfgErr.Missing) != 1 {
		t.Errorf("unexpected error %+v", cfgErr)
	}
}

func TestLoadWithoutValidation(t *testing.T) {
	cfg, err := LoadWithoutValidation(writeConfig(t, "[store]\ndriver = \"mongo\"\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Driver != "mongo" {
		t.Errorf("expected driver mongo, got %q", cfg.Store.Driver)
	}
}

func TestLoad_FileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil || !strings.Contains(err.Error(), "reading config") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestLoad_BadTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "[server\n"))
	if err == nil || !strings.Contains(err.Error(), "parsing config") {
		t.Errorf("expected parse error, got %v", err)
	}
}
