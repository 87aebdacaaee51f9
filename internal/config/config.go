// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; tokens go to the OS keychain.
//
// Precedence is file < environment < flags. Flags are applied by the caller
// after Load returns.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"movieswipe/cli/internal/xdg"
)

// Environment variables that override the config file.
const (
	EnvBaseURL          = "MOVIESWIPE_BASE_URL"
	EnvExpiryThreshold  = "MOVIESWIPE_EXPIRY_THRESHOLD_SECONDS"
	EnvLogLevel         = "MOVIESWIPE_LOG_LEVEL"
	EnvKeyringBackend   = "MOVIESWIPE_KEYRING_BACKEND"
	EnvKeyringPassword  = "MOVIESWIPE_KEYRING_PASSWORD"
	DefaultBaseURL      = "http://localhost:3000"
	DefaultThresholdSec = 120
)

// Config holds non-sensitive CLI settings.
type Config struct {
	BaseURL                string        `json:"base_url"`
	ExpiryThresholdSeconds int           `json:"expiry_threshold_seconds"`
	LogLevel               string        `json:"log_level"`
	Keyring                KeyringConfig `json:"keyring"`
	Endpoints              Endpoints     `json:"endpoints"`
}

// KeyringConfig selects the secure storage backend.
// An empty Backend lets the keyring library pick the best available one.
type KeyringConfig struct {
	Backend string `json:"backend"`
	FileDir string `json:"file_dir"`
	// Password unlocks the file backend. Never persisted; env only.
	Password string `json:"-"`
}

// Endpoints contains REST API endpoint paths relative to BaseURL.
type Endpoints struct {
	Authenticate string `json:"authenticate"` // e.g., "/auth/"
	Refresh      string `json:"refresh"`      // e.g., "/auth/refresh"
	Groups       string `json:"groups"`       // e.g., "/groups"
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		BaseURL:                DefaultBaseURL,
		ExpiryThresholdSeconds: DefaultThresholdSec,
		LogLevel:               "info",
		Endpoints:              DefaultEndpoints(),
	}
}

// DefaultEndpoints returns the MovieSwipe backend routes.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Authenticate: "/auth/",
		Refresh:      "/auth/refresh",
		Groups:       "/groups",
	}
}

// Threshold returns the expiry threshold as a duration.
func (c Config) Threshold() time.Duration {
	return time.Duration(c.ExpiryThresholdSeconds) * time.Second
}

// Validate checks the settings the session layer depends on.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid base URL %q: must be an absolute http(s) URL", c.BaseURL)
	}
	if c.ExpiryThresholdSeconds < 0 {
		return fmt.Errorf("invalid expiry threshold %d: must not be negative", c.ExpiryThresholdSeconds)
	}
	return nil
}

// Path returns the default path to the config file.
func Path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration from the default path and applies env overrides.
func Load() (Config, error) {
	p, err := Path()
	if err != nil {
		return Config{}, err
	}
	return LoadFile(p)
}

// LoadFile reads configuration from p; a missing file returns defaults.
// Environment overrides are applied in both cases.
func LoadFile(p string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return c, err
	default:
		if err := json.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parse %s: %w", p, err)
		}
	}
	c.fillEndpoints()
	if err := c.applyEnv(); err != nil {
		return c, err
	}
	return c, nil
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := Path()
	if err != nil {
		return err
	}
	return SaveFile(p, c)
}

// SaveFile writes configuration to p with 0600 permissions.
func SaveFile(p string, c Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}

func (c *Config) fillEndpoints() {
	def := DefaultEndpoints()
	if c.Endpoints.Authenticate == "" {
		c.Endpoints.Authenticate = def.Authenticate
	}
	if c.Endpoints.Refresh == "" {
		c.Endpoints.Refresh = def.Refresh
	}
	if c.Endpoints.Groups == "" {
		c.Endpoints.Groups = def.Groups
	}
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		c.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvExpiryThreshold)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvExpiryThreshold, err)
		}
		c.ExpiryThresholdSeconds = n
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvKeyringBackend)); v != "" {
		c.Keyring.Backend = v
	}
	c.Keyring.Password = os.Getenv(EnvKeyringPassword)
	return nil
}
