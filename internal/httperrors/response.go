// Copyright (c) 2025 MovieSwipe
// Licensed under the MIT License. See LICENSE file in the project root for details.

package httperrors

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	apperr "movieswipe/cli/internal/errors"
)

// maxErrorBody caps how much of an error response is read into the message.
const maxErrorBody = 4 << 10

// IsSuccess reports whether status is 2xx.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}

// FromResponse converts a non-2xx response into a ServerRejected error.
// The message prefers the backend's JSON "message" field, then the raw body,
// then the status text. The body is consumed but not closed.
func FromResponse(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := serverMessage(b)
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	if op != "" {
		msg = op + ": " + msg
	}
	return apperr.Rejected(resp.StatusCode, msg)
}

func serverMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if m := strings.TrimSpace(payload.Message); m != "" {
			return m
		}
		if m := strings.TrimSpace(payload.Error); m != "" {
			return m
		}
	}
	return strings.TrimSpace(string(body))
}
