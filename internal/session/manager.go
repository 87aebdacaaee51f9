// Copyright (c) 2025 MovieSwipe
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package session owns the token lifecycle: deciding at startup whether the
// stored session is usable, refreshing it silently when it is not, and
// authorizing every outbound backend request with refresh-once, retry-once
// semantics.
//
// The package never reaches for global state. A Manager is built once by the
// composition root and shared by the bootstrap flow and every Transport.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/pterm/pterm"
	"golang.org/x/sync/singleflight"

	apperr "movieswipe/cli/internal/errors"
	"movieswipe/cli/internal/keychain"
	"movieswipe/cli/internal/logging"
	"movieswipe/cli/internal/token"
)

// TokenStore is the persisted token pair. keychain.Manager implements it.
// Loaders return keychain.ErrNotFound for an absent token.
type TokenStore interface {
	SaveTokens(accessToken, refreshToken string) error
	LoadAccessToken() (string, error)
	LoadRefreshToken() (string, error)
	ClearTokens() error
}

// Refresher trades a refresh token for a new access token.
// backend.HTTP implements it.
type Refresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}

// Config wires a Manager.
type Config struct {
	Store     TokenStore
	Refresher Refresher
	// Threshold is how close to expiry a token may be and still count as valid.
	Threshold time.Duration
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger *pterm.Logger
	// OnAuthExpired is called after the store has been cleared because the
	// session can no longer be renewed. It stands in for "go to login".
	OnAuthExpired func(reason error)
}

// Manager coordinates token reads, refreshes and clears.
type Manager struct {
	store     TokenStore
	refresher Refresher
	threshold time.Duration
	now       func() time.Time
	log       *pterm.Logger
	onExpired func(error)

	refreshes singleflight.Group
}

// New builds a Manager from cfg.
func New(cfg Config) *Manager {
	m := &Manager{
		store:     cfg.Store,
		refresher: cfg.Refresher,
		threshold: cfg.Threshold,
		now:       cfg.Now,
		log:       cfg.Logger,
		onExpired: cfg.OnAuthExpired,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.log == nil {
		m.log = logging.Discard()
	}
	return m
}

// Threshold returns the configured expiry threshold.
func (m *Manager) Threshold() time.Duration { return m.threshold }

// Tokens reads the stored pair. Absent tokens come back as "".
func (m *Manager) Tokens() (access, refresh string, err error) {
	if access, err = optional(m.store.LoadAccessToken()); err != nil {
		return "", "", apperr.Wrap(apperr.StorageUnavailable, "read access token", err)
	}
	if refresh, err = optional(m.store.LoadRefreshToken()); err != nil {
		return "", "", apperr.Wrap(apperr.StorageUnavailable, "read refresh token", err)
	}
	return access, refresh, nil
}

func optional(v string, err error) (string, error) {
	if errors.Is(err, keychain.ErrNotFound) {
		return "", nil
	}
	return v, err
}

// expiring evaluates tok against the threshold and logs the arithmetic.
func (m *Manager) expiring(kind, tok string) bool {
	now := m.now()
	exp, ok := token.DecodeExpiry(tok)
	if !ok {
		if tok != "" {
			m.log.Debug("token expiry unreadable", m.log.Args("token", kind, "kind", string(apperr.TokenDecodeFailure)))
		}
		return true
	}
	m.log.Debug("token expiry", m.log.Args(
		"token", kind,
		"now", now.Unix(),
		"exp", exp,
		"seconds_left", exp-now.Unix(),
		"threshold", int64(m.threshold/time.Second),
	))
	return token.IsExpiringWithin(tok, m.threshold, now)
}

// refresh obtains a new access token for refreshToken and persists it next to
// the unchanged refresh token. Concurrent callers holding the same refresh
// token share a single backend call. The shared call is detached from every
// caller's cancellation; each caller stops waiting when its own ctx ends and
// gets ctx.Err().
func (m *Manager) refresh(ctx context.Context, refreshToken string) (string, error) {
	flightCtx := context.WithoutCancel(ctx)
	ch := m.refreshes.DoChan(refreshToken, func() (any, error) {
		m.log.Info("refreshing access token")
		access, err := m.refresher.RefreshToken(flightCtx, refreshToken)
		if err != nil {
			return "", err
		}
		if err := m.store.SaveTokens(access, refreshToken); err != nil {
			return "", apperr.Wrap(apperr.StorageUnavailable, "save refreshed token", err)
		}
		return access, nil
	})

	select {
	case <-ctx.Done():
		m.log.Debug("stopped waiting for refresh", m.log.Args("error", ctx.Err().Error()))
		return "", ctx.Err()
	case res := <-ch:
		if res.Shared {
			m.log.Debug("joined in-flight refresh")
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// expire clears the stored pair and signals that a new login is required.
func (m *Manager) expire(reason error) error {
	m.log.Warn("session expired, clearing tokens", m.log.Args("reason", logging.Mask(reason.Error())))
	clearErr := m.store.ClearTokens()
	if clearErr != nil {
		m.log.Error("clear tokens failed", m.log.Args("error", clearErr.Error()))
	}
	if m.onExpired != nil {
		m.onExpired(reason)
	}
	return clearErr
}
