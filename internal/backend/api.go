// Copyright (c) 2025 MovieSwipe
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend is the MovieSwipe backend's auth client. It exchanges an
// external identity token for a session token pair and trades a refresh token
// for a new access token. Both calls are single-shot; retry policy lives in the
// session transport.
package backend

import "context"

// TokenPair is the session credential issued by the backend.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// API defines backend auth operations the CLI depends on.
// Implementations may call real HTTP endpoints or provide mocks for tests.
type API interface {
	// Authenticate exchanges a Google ID token for an access/refresh pair.
	Authenticate(ctx context.Context, identityToken string) (TokenPair, error)
	// RefreshToken exchanges a refresh token for a new access token.
	// The refresh token itself is not rotated.
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}
