// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package completion performs the single model request of a narration turn.
package completion

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorKind categorizes completion failures.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindTransport covers network failures and timeouts.
	KindTransport
	// KindStatus covers non-2xx responses from the model server.
	KindStatus
	// KindEnvelope covers responses that could not be decoded or held no choices.
	KindEnvelope
	// KindAudit covers failures writing the audit log.
	KindAudit
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindEnvelope:
		return "envelope"
	case KindAudit:
		return "audit"
	default:
		return "unknown"
	}
}

// Error is returned for every failure of a completion turn.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same kind, so the sentinels below work
// with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Sentinel errors for errors.Is checks by kind.
var (
	ErrTransport = &Error{Kind: KindTransport}
	ErrStatus    = &Error{Kind: KindStatus}
	ErrEnvelope  = &Error{Kind: KindEnvelope}
	ErrAudit     = &Error{Kind: KindAudit}
)

// NewError creates an Error of the given kind.
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// StatusError creates a KindStatus error for an HTTP status code.
func StatusError(code int, message string) *Error {
	return &Error{Kind: KindStatus, Message: message, StatusCode: code}
}
