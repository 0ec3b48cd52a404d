package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDefault_LoadsCleanly(t *testing.T) {
	t.Setenv("FIXTURESYNC_ORIGIN", "")
	path := filepath.Join(t.TempDir(), "nested", "fixturesync", "config.toml")
	require.NoError(t, WriteDefault(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "[timing]")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://app.teamcalendar.example", cfg.Site.Origin)
	assert.Equal(t, DriverPage, cfg.Store.Driver)
}

func TestConfig_Write(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 9000
	cfg.Scrape.Team = "Hawks U11"

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, cfg.Write(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, loaded.Server.Port)
	assert.Equal(t, "Hawks U11", loaded.Scrape.Team)
}
