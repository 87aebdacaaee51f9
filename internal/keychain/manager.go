// Copyright (c) 2025 MovieSwipe
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain implements the secure token store on top of the OS
// credential store (macOS Keychain, Windows Credential Manager, Secret Service,
// KWallet, pass) or an encrypted file keyring.
//
// The store holds exactly two secrets, the access token and the refresh token,
// and treats them as a pair: a successful save always leaves both present, and
// clear always removes both.
package keychain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "movieswipe"

// Keys used for storing secrets in the OS keychain.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// ErrNotFound is returned by the loaders when the token is absent.
var ErrNotFound = errors.New("keychain: token not found")

// Config selects and unlocks the keyring backend.
type Config struct {
	// Backend is one of keychain, wincred, secret-service, kwallet, pass,
	// keyctl, file. Empty lets the keyring library choose.
	Backend string
	// FileDir is where the file backend keeps its encrypted entries.
	FileDir string
	// FilePassword unlocks the file backend.
	FilePassword string
}

// Manager provides thread-safe access to the stored token pair.
type Manager struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

var backendNames = map[string]keyring.BackendType{
	"keychain":       keyring.KeychainBackend,
	"wincred":        keyring.WinCredBackend,
	"secret-service": keyring.SecretServiceBackend,
	"kwallet":        keyring.KWalletBackend,
	"pass":           keyring.PassBackend,
	"keyctl":         keyring.KeyCtlBackend,
	"file":           keyring.FileBackend,
}

// NewManager opens the configured keyring.
func NewManager(cfg Config) (*Manager, error) {
	ring, err := openRing(cfg)
	if err != nil {
		return nil, err
	}
	return NewManagerWithRing(ring), nil
}

// NewManagerWithRing wraps an already opened keyring.
func NewManagerWithRing(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

func openRing(cfg Config) (keyring.Keyring, error) {
	kc := keyring.Config{
		ServiceName:              ServiceName,
		KeychainName:             "login",
		KeychainTrustApplication: true,
		PassPrefix:               ServiceName,
		WinCredPrefix:            ServiceName,
		LibSecretCollectionName:  ServiceName,
		KWalletAppID:             ServiceName,
		KWalletFolder:            ServiceName,
		FileDir:                  cfg.FileDir,
		FilePasswordFunc:         filePassword(cfg.FilePassword),
	}

	if name := strings.ToLower(strings.TrimSpace(cfg.Backend)); name != "" {
		bt, ok := backendNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown keyring backend %q", cfg.Backend)
		}
		kc.AllowedBackends = []keyring.BackendType{bt}
	}

	if kc.FileDir != "" {
		if err := os.MkdirAll(filepath.Clean(kc.FileDir), 0o700); err != nil {
			return nil, fmt.Errorf("create keyring dir: %w", err)
		}
	}

	ring, err := keyring.Open(kc)
	if err != nil {
		return nil, fmt.Errorf("secure storage unavailable: %w", err)
	}
	return ring, nil
}

func filePassword(pw string) keyring.PromptFunc {
	if pw != "" {
		return keyring.FixedStringPrompt(pw)
	}
	return func(string) (string, error) {
		return "", errors.New("file keyring is locked: set MOVIESWIPE_KEYRING_PASSWORD")
	}
}

// SaveTokens overwrites both tokens. If the refresh token cannot be written the
// previous access token is restored, so the store never holds a mixed pair.
func (m *Manager) SaveTokens(accessToken, refreshToken string) error {
	if accessToken == "" || refreshToken == "" {
		return errors.New("keychain: both access and refresh tokens are required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev, prevErr := m.ring.Get(KeyAccessToken)

	if err := m.ring.Set(keyring.Item{Key: KeyAccessToken, Data: []byte(accessToken), Label: "MovieSwipe access token"}); err != nil {
		return fmt.Errorf("save access token: %w", err)
	}
	if err := m.ring.Set(keyring.Item{Key: KeyRefreshToken, Data: []byte(refreshToken), Label: "MovieSwipe refresh token"}); err != nil {
		if prevErr == nil {
			_ = m.ring.Set(prev)
		} else {
			_ = m.ring.Remove(KeyAccessToken)
		}
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// LoadAccessToken retrieves the access token from the keychain.
func (m *Manager) LoadAccessToken() (string, error) {
	return m.load(KeyAccessToken)
}

// LoadRefreshToken retrieves the refresh token from the keychain.
func (m *Manager) LoadRefreshToken() (string, error) {
	return m.load(KeyRefreshToken)
}

func (m *Manager) load(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, err := m.ring.Get(key)
	if err != nil {
		if isMissing(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	if len(it.Data) == 0 {
		return "", ErrNotFound
	}
	return string(it.Data), nil
}

// ClearTokens removes both tokens. Missing entries are not an error.
func (m *Manager) ClearTokens() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, key := range []string{KeyAccessToken, KeyRefreshToken} {
		if err := m.ring.Remove(key); err != nil && !isMissing(err) {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func isMissing(err error) bool {
	return errors.Is(err, keyring.ErrKeyNotFound) || errors.Is(err, os.ErrNotExist)
}
