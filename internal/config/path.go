// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands ~ and environment variables in a file path.
// It handles both ~ for home directory and $VAR style environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// DefaultDataDir returns the default directory for the prediction
// database and artifact store, honoring XDG_DATA_HOME.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "scorecard")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "scorecard-data"
	}
	return filepath.Join(home, ".local", "share", "scorecard")
}

// DefaultDatabasePath returns the default SQLite database location.
func DefaultDatabasePath() string {
	return filepath.Join(DefaultDataDir(), "scorecard.db")
}

// DefaultArtifactDir returns the default model artifact root.
func DefaultArtifactDir() string {
	return filepath.Join(DefaultDataDir(), "models")
}

// DefaultManifestPath returns the default manifest document location.
func DefaultManifestPath() string {
	return filepath.Join(DefaultArtifactDir(), "manifest.json")
}
