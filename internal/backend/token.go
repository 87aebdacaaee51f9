// Copyright (c) 2025 MovieSwipe
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"strings"

	apperr "movieswipe/cli/internal/errors"
)

type authRequest struct {
	GoogleToken string `json:"googleToken"`
}

type authResponse struct {
	Message string `json:"message"`
	Data    *struct {
		User         any    `json:"user"`
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	} `json:"data"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	Message string `json:"message"`
	Data    *struct {
		Token string `json:"token"`
	} `json:"data"`
}

// Authenticate calls POST /auth/ with { googleToken }.
// Both tokens must be present in the response for the call to succeed.
func (h *HTTP) Authenticate(ctx context.Context, identityToken string) (TokenPair, error) {
	if strings.TrimSpace(identityToken) == "" {
		return TokenPair{}, apperr.New(apperr.InvalidInput, "identity token is empty")
	}

	var out authResponse
	if err := h.postJSON(ctx, "authenticate", h.endpoints.Authenticate, authRequest{GoogleToken: identityToken}, &out); err != nil {
		return TokenPair{}, err
	}
	if out.Data == nil || out.Data.Token == "" || out.Data.RefreshToken == "" {
		return TokenPair{}, apperr.New(apperr.MalformedResponse, "no access or refresh token in response")
	}
	return TokenPair{AccessToken: out.Data.Token, RefreshToken: out.Data.RefreshToken}, nil
}

// RefreshToken calls POST /auth/refresh with { refreshToken } and returns the
// new access token. The caller keeps using the same refresh token.
func (h *HTTP) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperr.New(apperr.InvalidInput, "refresh token is empty")
	}

	var out refreshResponse
	if err := h.postJSON(ctx, "refresh", h.endpoints.Refresh, refreshRequest{RefreshToken: refreshToken}, &out); err != nil {
		return "", err
	}
	if out.Data == nil || out.Data.Token == "" {
		return "", apperr.New(apperr.MalformedResponse, "no token in response")
	}
	return out.Data.Token, nil
}
