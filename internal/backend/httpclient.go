package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pterm/pterm"

	"movieswipe/cli/internal/config"
	apperr "movieswipe/cli/internal/errors"
	"movieswipe/cli/internal/httperrors"
	"movieswipe/cli/internal/logging"
)

// UserAgent is sent with every backend request.
var UserAgent = "movieswipe-cli/dev"

// HTTP implements API over the backend's REST endpoints.
type HTTP struct {
	// baseURL is the base URL for all HTTP requests (e.g., "https://api.movieswipe.app")
	baseURL string
	// endpoints contains the URL paths for the auth endpoints
	endpoints config.Endpoints
	// client is the underlying HTTP client. No timeout is set; ctx bounds each call.
	client *http.Client
	log    *pterm.Logger
}

// Option customises an HTTP client.
type Option func(*HTTP)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTP) { h.client = c }
}

// WithLogger attaches a logger for request tracing.
func WithLogger(l *pterm.Logger) Option {
	return func(h *HTTP) { h.log = l }
}

// New creates a backend API implementation against baseURL.
func New(baseURL string, endpoints config.Endpoints, opts ...Option) *HTTP {
	h := &HTTP{
		baseURL:   strings.TrimRight(baseURL, "/"),
		endpoints: endpoints,
		client:    &http.Client{},
		log:       logging.Discard(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// SetStandardHeaders stamps the headers every backend request carries.
func SetStandardHeaders(req *http.Request) string {
	id := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("X-Request-ID", id)
	return id
}

// postJSON sends body to path and decodes a 2xx response into out.
func (h *HTTP) postJSON(ctx context.Context, op, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return apperr.Wrap(apperr.InvalidInput, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return apperr.Wrap(apperr.InvalidInput, op, err)
	}
	reqID := SetStandardHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	h.log.Debug("backend request", h.log.Args("op", op, "method", req.Method, "path", path, "request_id", reqID))

	resp, err := h.client.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.NetworkFailure, op, err)
	}
	defer resp.Body.Close()

	h.log.Debug("backend response", h.log.Args("op", op, "status", resp.StatusCode, "request_id", reqID))

	if !httperrors.IsSuccess(resp.StatusCode) {
		return httperrors.FromResponse(op, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.MalformedResponse, op+": decode body", err)
	}
	return nil
}
