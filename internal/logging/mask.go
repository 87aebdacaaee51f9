// Copyright (c) 2025 MovieSwipe
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package logging provides the CLI's structured logger and secret masking.
// Access and refresh tokens are bearer credentials, so every string that may
// carry one passes through Mask before it reaches a log line or the terminal.
package logging

import (
	"regexp"
	"strings"
)

var (
	reBearer   = regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9._~+/=-]+)`)
	reTokenKV  = regexp.MustCompile(`(?i)((?:refresh_?token|access_?token|google_?token|token)["']?\s*[=:]\s*["']?)([A-Za-z0-9._~+/=-]+)`)
	reJWT      = regexp.MustCompile(`\beyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]*`)
	rePassword = regexp.MustCompile(`(?i)(password=)([^\s;&]+)`)
)

// Mask replaces sensitive values in the input string with "***".
// JWT-shaped substrings are redacted wherever they appear.
func Mask(s string) string {
	out := s
	out = reBearer.ReplaceAllString(out, "$1***")
	out = reTokenKV.ReplaceAllString(out, "$1***")
	out = reJWT.ReplaceAllString(out, "***")
	out = rePassword.ReplaceAllString(out, "$1***")
	for _, k := range []string{"MOVIESWIPE_GOOGLE_TOKEN", "MOVIESWIPE_KEYRING_PASSWORD"} {
		out = strings.ReplaceAll(out, k+"=", k+"=***")
	}
	return out
}
