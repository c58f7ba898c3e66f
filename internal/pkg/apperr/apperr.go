// Package apperr defines the stable error kinds surfaced by the core
// pipeline. Every error crossing a package boundary carries one of these
// kinds; callers branch on Kind, never on message text.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindInvalidArgument    Kind = "invalid_argument"
	KindConflict           Kind = "conflict"
	KindTransientUpstream  Kind = "transient_upstream"
	KindPermanentUpstream  Kind = "permanent_upstream"
	KindCapabilityDisabled Kind = "capability_disabled"
	KindCancelled          Kind = "cancelled"
	KindInternal           Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	Items   []ItemError
	cause   error
}

// ItemError reports a per-item failure inside a batch operation.
type ItemError struct {
	Item    string `json:"item"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, cause: cause}
}

// KindOf extracts the kind from any error chain. Plain errors map to
// internal; context cancellation maps to cancelled.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }

// Retryable reports whether a caller should retry with backoff.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindTransientUpstream, KindInternal:
		return true
	default:
		return false
	}
}
