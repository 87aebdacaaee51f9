// Copyright (c) 2025 MovieSwipe
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// Every failure that crosses a package boundary in the CLI carries a Kind so that
// callers can branch on the category (retry, re-login, inline message) without
// matching on error strings.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// NetworkFailure indicates the request never produced an HTTP response.
	NetworkFailure Kind = "network_failure"
	// ServerRejected indicates a non-2xx response from the backend.
	ServerRejected Kind = "server_rejected"
	// MalformedResponse indicates a 2xx response missing an expected field.
	MalformedResponse Kind = "malformed_response"
	// TokenDecodeFailure labels log entries for tokens whose expiry could not be read.
	// It is never returned to callers; undecodable tokens are treated as expiring.
	TokenDecodeFailure Kind = "token_decode_failure"
	// AuthExpired indicates the session is gone and the user must log in again.
	AuthExpired Kind = "auth_expired"
	// StorageUnavailable indicates the secure token store could not be read or written.
	StorageUnavailable Kind = "storage_unavailable"
	// InvalidInput indicates a caller-supplied value was rejected before any I/O.
	InvalidInput Kind = "invalid_input"
)

// E wraps an error with kind and human-friendly message.
// Status is the HTTP status for ServerRejected errors and zero otherwise.
type E struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *E) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("%d %s", e.Status, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// Rejected builds a ServerRejected error for the given HTTP status.
func Rejected(status int, msg string) *E {
	return &E{Kind: ServerRejected, Message: msg, Status: status}
}

// KindOf returns the Kind of the first *E in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether any *E in err's chain has the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *E
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// StatusOf returns the HTTP status carried by err, or zero.
func StatusOf(err error) int {
	var e *E
	if stderrors.As(err, &e) {
		return e.Status
	}
	return 0
}
