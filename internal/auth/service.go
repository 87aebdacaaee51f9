// Copyright (c) 2025 MovieSwipe
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package auth provides authentication services for the MovieSwipe CLI.
// It exchanges an identity token for a session, clears the session on logout,
// and reports session status. Tokens live in the OS keychain; the session
// package decides whether they are still usable.
package auth

import (
	"context"
	"strings"
	"time"

	"movieswipe/cli/internal/backend"
	apperr "movieswipe/cli/internal/errors"
	"movieswipe/cli/internal/session"
	"movieswipe/cli/internal/token"
)

// TokenStore is the subset of the keychain the service writes to.
type TokenStore interface {
	SaveTokens(accessToken, refreshToken string) error
	ClearTokens() error
}

// Service centralizes authentication-related operations against the backend
// and local secure storage.
type Service struct {
	be    backend.API
	store TokenStore
	sess  *session.Manager
}

// NewService constructs an auth Service.
func NewService(api backend.API, store TokenStore, sess *session.Manager) *Service {
	return &Service{be: api, store: store, sess: sess}
}

// Login exchanges identityToken for a session pair and stores it.
// Nothing is stored when the exchange fails.
func (s *Service) Login(ctx context.Context, identityToken string) error {
	identityToken = strings.TrimSpace(identityToken)
	if identityToken == "" {
		return apperr.New(apperr.InvalidInput, "identity token is required")
	}
	pair, err := s.be.Authenticate(ctx, identityToken)
	if err != nil {
		return err
	}
	if err := s.store.SaveTokens(pair.AccessToken, pair.RefreshToken); err != nil {
		return apperr.Wrap(apperr.StorageUnavailable, "save tokens", err)
	}
	return nil
}

// Logout clears local credentials. The backend keeps no server-side session.
func (s *Service) Logout() error {
	if err := s.store.ClearTokens(); err != nil {
		return apperr.Wrap(apperr.StorageUnavailable, "clear tokens", err)
	}
	return nil
}

// TokenStatus describes one stored token.
type TokenStatus struct {
	Present bool
	// Remaining is meaningful only when Known is true.
	Remaining time.Duration
	Known     bool
}

// Status is a snapshot of the session after bootstrap.
type Status struct {
	Decision  session.Decision
	Access    TokenStatus
	Refresh   TokenStatus
	Threshold time.Duration
}

// Status runs the bootstrap flow and reports what is stored afterwards.
// A bootstrap error is returned together with the snapshot.
func (s *Service) Status(ctx context.Context, now time.Time) (Status, error) {
	d, bootErr := s.sess.Bootstrap(ctx)
	st := Status{Decision: d, Threshold: s.sess.Threshold()}

	access, refresh, err := s.sess.Tokens()
	if err != nil {
		if bootErr != nil {
			return st, bootErr
		}
		return st, err
	}
	st.Access = describe(access, now)
	st.Refresh = describe(refresh, now)
	return st, bootErr
}

func describe(tok string, now time.Time) TokenStatus {
	if tok == "" {
		return TokenStatus{}
	}
	left, ok := token.Remaining(tok, now)
	return TokenStatus{Present: true, Remaining: left, Known: ok}
}
