// Copyright (c) 2025 MovieSwipe
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"context"
	"errors"

	apperr "movieswipe/cli/internal/errors"
)

// Decision is the outcome of Bootstrap.
type Decision int

const (
	// RequireLogin means no usable session exists; the store has been cleared.
	RequireLogin Decision = iota
	// Proceed means the stored access token is valid as is.
	Proceed
	// SilentlyRefreshed means a new access token was obtained and stored.
	SilentlyRefreshed
)

func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case SilentlyRefreshed:
		return "silently_refreshed"
	default:
		return "require_login"
	}
}

// Authenticated reports whether the caller may enter the authenticated area.
func (d Decision) Authenticated() bool {
	return d == Proceed || d == SilentlyRefreshed
}

// Bootstrap decides, once per process start, whether the stored session can
// be used. The store is written at most once, on the terminal transition:
//
//   - access token valid                       -> Proceed, no write
//   - refresh token absent or expiring         -> clear, RequireLogin
//   - refresh succeeds                         -> save, SilentlyRefreshed
//   - refresh fails                            -> clear, RequireLogin
//
// If ctx is cancelled while refreshing, nothing is cleared and ctx's error is
// returned. A store read failure returns RequireLogin without touching the store.
func (m *Manager) Bootstrap(ctx context.Context) (Decision, error) {
	access, refresh, err := m.Tokens()
	if err != nil {
		return RequireLogin, err
	}

	if access != "" && !m.expiring("access", access) {
		m.log.Debug("access token valid, proceeding")
		return Proceed, nil
	}

	if refresh == "" || m.expiring("refresh", refresh) {
		m.log.Info("refresh token missing or expiring, login required")
		if err := m.store.ClearTokens(); err != nil {
			return RequireLogin, apperr.Wrap(apperr.StorageUnavailable, "clear tokens", err)
		}
		return RequireLogin, nil
	}

	if _, err := m.refresh(ctx, refresh); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return RequireLogin, ctxErr
		}
		m.log.Warn("silent refresh failed, login required", m.log.Args("kind", string(apperr.KindOf(err))))
		if clearErr := m.store.ClearTokens(); clearErr != nil {
			return RequireLogin, errors.Join(apperr.Wrap(apperr.AuthExpired, "refresh failed", err), clearErr)
		}
		return RequireLogin, apperr.Wrap(apperr.AuthExpired, "refresh failed", err)
	}

	m.log.Info("access token refreshed")
	return SilentlyRefreshed, nil
}
