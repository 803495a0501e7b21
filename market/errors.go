package market

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownValue is wrapped by DecodeError when an enumerated wire value is
// not part of its closed set.
var ErrUnknownValue = errors.New("unknown enumerated value")

// ErrEmptyPreview reports a preview that succeeded but carries no rows. It is
// presented exactly like a failed preview.
var ErrEmptyPreview = errors.New("preview not available")

// APIError represents a non-success HTTP response from the API.
type APIError struct {
	StatusCode int
	Body       string
	Message    string
	Code       string // Optional server-provided code.
	Details    any    // Optional server-provided details.
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Body
	}
	if e.Code != "" {
		return fmt.Sprintf("market API %d (%s): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("market API %d: %s", e.StatusCode, msg)
}

// RequestError is a transport failure: no usable response was received.
type RequestError struct {
	Op     string
	Method string
	URL    string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was caused by a deadline.
func (e *RequestError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(e.Err, &t) && t.Timeout()
}

// PreviewError is a soft error: the preview endpoint answered successfully
// but reported an application-level failure. The payload that came with it
// is still returned by GetTablePreview.
type PreviewError struct {
	TableReference string
	Message        string
}

func (e *PreviewError) Error() string {
	return fmt.Sprintf("preview %q: %s", e.TableReference, e.Message)
}

// DecodeError reports a value that could not be converted to its typed form.
type DecodeError struct {
	Field string
	Value string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ResolveError names the resolver branch whose request failed.
type ResolveError struct {
	Op  string // search, category or all
	Err error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve datasets (%s): %v", e.Op, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// IsHardError reports whether err is a failure with no trusted payload,
// as opposed to a soft PreviewError or an empty preview.
func IsHardError(err error) bool {
	if err == nil {
		return false
	}
	var pe *PreviewError
	if errors.As(err, &pe) {
		return false
	}
	return !errors.Is(err, ErrEmptyPreview)
}
