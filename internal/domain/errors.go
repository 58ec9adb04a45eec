package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by the relay
type ErrorKind string

const (
	KindMissingParameter    ErrorKind = "missing_parameter"
	KindInvalidURL          ErrorKind = "invalid_url"
	KindUnsupportedPlatform ErrorKind = "unsupported_platform"
	KindExtractionFailed    ErrorKind = "extraction_failed"
	KindDownloadFailed      ErrorKind = "download_failed"
	KindStreamingFailed     ErrorKind = "streaming_failed"
)

// Error is the structured error value returned up the call chain.
// Message is safe to show to a caller; Err holds the internal cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrMissingParameter    = &Error{Kind: KindMissingParameter}
	ErrInvalidURL          = &Error{Kind: KindInvalidURL}
	ErrUnsupportedPlatform = &Error{Kind: KindUnsupportedPlatform}
	ErrExtractionFailed    = &Error{Kind: KindExtractionFailed}
	ErrDownloadFailed      = &Error{Kind: KindDownloadFailed}
	ErrStreamingFailed     = &Error{Kind: KindStreamingFailed}
)

// NewError creates an error of the given kind
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind so callers can test against the sentinels
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or an empty kind
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsClientError reports whether the error was caused by bad caller input
func IsClientError(err error) bool {
	switch KindOf(err) {
	case KindMissingParameter, KindInvalidURL, KindUnsupportedPlatform:
		return true
	default:
		return false
	}
}
