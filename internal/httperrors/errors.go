// Copyright (c) 2025 MovieSwipe
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors provides user-friendly error handling for HTTP requests
// made to the MovieSwipe backend: decoding rejected responses into typed errors
// and rendering failures as troubleshooting hints.
package httperrors

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/http"
	"net/url"
	"syscall"

	"github.com/pterm/pterm"

	apperr "movieswipe/cli/internal/errors"
	"movieswipe/cli/internal/logging"
)

// hint selects the troubleshooting text shown for a failure.
type hint int

const (
	hintNone hint = iota
	hintTimeout
	hintDNS
	hintRefused
	hintTLS
	hintNetwork
	hintServer
	hintRelogin
)

// Present prints a troubleshooting hint for err and reports whether it did.
// Transport failures get a hint matched to their cause, backend 5xx responses
// get the server hint and 401/403 responses get the sign-in hint. Every other
// error is left to the caller.
func Present(err error, context string) bool {
	h := classify(err)
	if h == hintNone {
		return false
	}
	show(h, context, err)
	return true
}

func classify(err error) hint {
	if err == nil {
		return hintNone
	}
	if apperr.Is(err, apperr.NetworkFailure) {
		return networkHint(err)
	}
	status, ok := rejectedStatus(err)
	switch {
	case !ok:
		return hintNone
	case status >= http.StatusInternalServerError:
		return hintServer
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return hintRelogin
	default:
		return hintNone
	}
}

// rejectedStatus finds the ServerRejected error in err's chain. The lookup
// starts at the outermost error so a rejection wrapped as AuthExpired is
// still found.
func rejectedStatus(err error) (int, bool) {
	for err != nil {
		if apperr.KindOf(err) == apperr.ServerRejected {
			return apperr.StatusOf(err), true
		}
		var e *apperr.E
		if !errors.As(err, &e) {
			return 0, false
		}
		err = e.Err
	}
	return 0, false
}

func networkHint(err error) hint {
	var (
		netErr    net.Error
		dnsErr    *net.DNSError
		verifyErr *tls.CertificateVerificationError
		authErr   x509.UnknownAuthorityError
		hostErr   x509.HostnameError
		invalid   x509.CertificateInvalidError
		record    tls.RecordHeaderError
	)
	switch {
	case errors.As(err, &dnsErr):
		return hintDNS
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return hintTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		return hintRefused
	case errors.As(err, &verifyErr),
		errors.As(err, &authErr),
		errors.As(err, &hostErr),
		errors.As(err, &invalid),
		errors.As(err, &record):
		return hintTLS
	default:
		return hintNetwork
	}
}

func show(h hint, context string, err error) {
	switch h {
	case hintTimeout:
		pterm.Printf("⏱️  Timed out while %s\n", context)
		pterm.Println()
		pterm.Println("The backend did not answer in time. A slow network or an")
		pterm.Println("overloaded server usually causes this. Try again shortly.")
	case hintDNS:
		pterm.Printf("🌐 Could not resolve the backend host while %s\n", context)
		pterm.Println()
		pterm.Println("Check the base URL (--base-url or MOVIESWIPE_BASE_URL) and")
		pterm.Println("that your machine can resolve hostnames.")
	case hintRefused:
		pterm.Printf("🚫 Connection refused while %s\n", context)
		pterm.Println()
		pterm.Println("Nothing is listening at the configured address. The backend")
		pterm.Println("may be down, or the base URL points at the wrong port.")
	case hintTLS:
		pterm.Printf("🔒 Secure connection failed while %s\n", context)
		pterm.Println()
		pterm.Println("The backend certificate could not be verified. Check your")
		pterm.Println("system clock and any proxy that intercepts HTTPS traffic.")
	case hintServer:
		pterm.Printf("⚠️  The backend failed while %s\n", context)
		pterm.Println()
		pterm.Println("This is a server-side problem. Try again in a few minutes.")
	case hintRelogin:
		pterm.Printf("🔑 The backend rejected your credentials while %s\n", context)
		pterm.Println()
		pterm.Println("Run 'movieswipe login' to sign in again.")
	default:
		pterm.Printf("❌ Could not reach the backend while %s\n", context)
		pterm.Println()
		pterm.Println("Check your internet connection and the configured base URL.")
	}
	pterm.Println()
	pterm.Debug.Printf("Technical details: %s\n", logging.Mask(err.Error()))
}

// ExtractHostFromURL extracts the hostname from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}
