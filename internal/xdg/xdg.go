// Package xdg provides helpers to resolve XDG Base Directory paths for movieswipe.
// The config directory holds non-secret settings; the state directory holds the
// encrypted file keyring when no OS credential store is available.
package xdg

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under every XDG base directory.
const AppName = "movieswipe"

// ConfigDir returns the XDG config directory for movieswipe.
// It falls back to ~/.config/movieswipe when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory for movieswipe.
// It falls back to ~/.local/state/movieswipe when XDG_STATE_HOME is unset.
func StateDir() (string, error) {
	return resolve("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

// resolve builds <base>/movieswipe and creates it with private permissions (0700).
func resolve(envKey, homeFallback string) (string, error) {
	base := os.Getenv(envKey)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, homeFallback)
	}
	dir := filepath.Join(base, AppName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
