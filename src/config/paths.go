package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "convo"

// DefaultConfigPath returns the user config file consulted by the CLI.
func DefaultConfigPath() string {
	// XDG_CONFIG_HOME for user preferences
	return filepath.Join(xdg.ConfigHome, appName, "config.json")
}

// DefaultIndexPath returns the conversation index database path.
func DefaultIndexPath() string {
	// XDG_STATE_HOME for runtime state data; the index can be rebuilt from
	// the conversation files at any time
	return filepath.Join(xdg.StateHome, appName, "index.db")
}
