package httperrors

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"

	apperr "movieswipe/cli/internal/errors"
)

func TestMain(m *testing.M) {
	pterm.DisableOutput()
	os.Exit(m.Run())
}

func network(err error) error {
	return apperr.Wrap(apperr.NetworkFailure, "GET /groups/", err)
}

func TestClassify(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
	dns := &net.DNSError{Err: "no such host", Name: "api.movieswipe.invalid"}

	tests := []struct {
		name string
		err  error
		want hint
	}{
		{"nil", nil, hintNone},
		{"plain error", errors.New("boom"), hintNone},
		{"deadline", network(fmt.Errorf("refresh: %w", context.DeadlineExceeded)), hintTimeout},
		{"dns", network(fmt.Errorf("dial: %w", dns)), hintDNS},
		{"refused", network(refused), hintRefused},
		{"unknown authority", network(x509.UnknownAuthorityError{}), hintTLS},
		{"hostname mismatch", network(x509.HostnameError{Host: "api.movieswipe.example"}), hintTLS},
		{"unrecognised transport failure", network(errors.New("connection reset by peer")), hintNetwork},
		{"tls wording alone is not a tls failure", network(errors.New("tls handshake said hello")), hintNetwork},
		{"server 503", apperr.Rejected(http.StatusServiceUnavailable, "Service Unavailable"), hintServer},
		{"server 500", apperr.Rejected(http.StatusInternalServerError, "boom"), hintServer},
		{"unauthorized", apperr.Rejected(http.StatusUnauthorized, "token expired"), hintRelogin},
		{"forbidden", apperr.Rejected(http.StatusForbidden, "no"), hintRelogin},
		{"auth expired wrapping 401", apperr.Wrap(apperr.AuthExpired, "refresh failed", apperr.Rejected(401, "revoked")), hintRelogin},
		{"bad request", apperr.Rejected(http.StatusBadRequest, "name is required"), hintNone},
		{"not found", apperr.Rejected(http.StatusNotFound, "no such group"), hintNone},
		{"status text is not a status", apperr.New(apperr.MalformedResponse, "502 bytes of garbage"), hintNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.err))
		})
	}
}

func TestPresent_ReportsWhetherHintShown(t *testing.T) {
	assert.True(t, Present(network(errors.New("connection refused")), "logging in"))
	assert.True(t, Present(apperr.Rejected(http.StatusBadGateway, "Bad Gateway"), "listing groups"))
	assert.True(t, Present(apperr.Rejected(http.StatusUnauthorized, "expired"), "listing groups"))

	assert.False(t, Present(apperr.Rejected(http.StatusBadRequest, "bad"), "logging in"))
	assert.False(t, Present(apperr.New(apperr.StorageUnavailable, "locked"), "logging in"))
	assert.False(t, Present(nil, "logging in"))
}

func TestExtractHostFromURL(t *testing.T) {
	assert.Equal(t, "api.movieswipe.example:8443", ExtractHostFromURL("https://api.movieswipe.example:8443/auth"))
	assert.Equal(t, "server", ExtractHostFromURL("::not a url"))
}
