// Copyright (c) 2025 MovieSwipe
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import (
	"bytes"
	"io"
	"net/http"

	apperr "movieswipe/cli/internal/errors"
)

// Transport is an http.RoundTripper that attaches the stored access token and
// recovers from a single 401 by refreshing and retrying once.
type Transport struct {
	m    *Manager
	base http.RoundTripper
}

// Transport wraps base (http.DefaultTransport when nil) with authorization.
func (m *Manager) Transport(base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{m: m, base: base}
}

// Client returns an *http.Client whose requests go through m.Transport(base).
func (m *Manager) Client(base http.RoundTripper) *http.Client {
	return &http.Client{Transport: m.Transport(base)}
}

// RoundTrip implements http.RoundTripper.
//
// On 401 the access token that was sent is re-evaluated. When it is expired or
// expiring and a refresh token exists, the token is refreshed and the request
// is sent exactly once more; that second response is returned whatever its
// status. In every other 401 case, and when the refresh fails, the store is
// cleared, OnAuthExpired fires, and the original response is returned. If the
// request's context ends while the refresh is pending, the context error is
// returned and the store is left alone.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	access, err := optional(t.m.store.LoadAccessToken())
	if err != nil {
		closeBody(req)
		return nil, apperr.Wrap(apperr.StorageUnavailable, "read access token", err)
	}

	getBody, err := replayable(req)
	if err != nil {
		return nil, err
	}

	resp, err := t.base.RoundTrip(authorize(req, access, getBody))
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	log := t.m.log
	log.Debug("401 received", log.Args("method", req.Method, "path", req.URL.Path))

	refresh, err := optional(t.m.store.LoadRefreshToken())
	if err != nil {
		log.Error("read refresh token failed", log.Args("error", err.Error()))
		refresh = ""
	}

	if refresh == "" || !t.m.expiring("access", access) {
		_ = t.m.expire(apperr.Rejected(resp.StatusCode, "backend rejected the access token"))
		return resp, nil
	}

	newAccess, err := t.m.refresh(req.Context(), refresh)
	if ctxErr := req.Context().Err(); ctxErr != nil {
		drain(resp)
		return nil, ctxErr
	}
	if err != nil {
		_ = t.m.expire(apperr.Wrap(apperr.AuthExpired, "refresh failed", err))
		return resp, nil
	}

	drain(resp)
	log.Info("token refreshed, retrying request", log.Args("method", req.Method, "path", req.URL.Path))
	return t.base.RoundTrip(authorize(req, newAccess, getBody))
}

// authorize clones req with the bearer credential set. An empty token leaves
// the headers as the caller built them.
func authorize(req *http.Request, access string, getBody func() (io.ReadCloser, error)) *http.Request {
	out := req.Clone(req.Context())
	if access != "" {
		out.Header.Set("Authorization", "Bearer "+access)
	}
	if getBody != nil {
		out.Body, _ = getBody()
		out.GetBody = getBody
	}
	return out
}

// replayable returns a function producing fresh copies of req's body, buffering
// the body once when the request cannot rebuild it itself. It returns nil for
// requests without a body.
func replayable(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		closeBody(req)
		return req.GetBody, nil
	}
	b, err := io.ReadAll(req.Body)
	closeBody(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, "buffer request body", err)
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(b)), nil
	}, nil
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
