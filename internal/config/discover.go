package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvConfig names the variable that pins the config file.
const EnvConfig = "FIXTURESYNC_CONFIG"

// DefaultPath is $XDG_CONFIG_HOME/fixturesync/config.toml, falling back to
// ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "./config.toml"
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "fixturesync", "config.toml")
}

// SearchPaths lists the locations Discover tries after EnvConfig.
func SearchPaths() []string {
	return []string{"./config.toml", DefaultPath(), "/etc/fixturesync/config.toml"}
}

// Discover returns the config file to load. EnvConfig wins and must exist;
// otherwise the first existing SearchPaths entry is used.
func Discover() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s=%s: %w", EnvConfig, p, err)
		}
		return p, nil
	}

	paths := SearchPaths()
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("config not found, checked: %s", strings.Join(paths, ", "))
}
