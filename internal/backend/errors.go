package backend

import (
	"errors"
	"fmt"
)

// BackendUnavailableError reports an I/O failure talking to a backend. The
// caller may retry; nothing is retried internally.
type BackendUnavailableError struct {
	// Locator is the source locator being read or written.
	Locator string

	// Op is "get", "put", "delete" or "list".
	Op string

	// Err is the adapter error.
	Err error
}

// Error implements the error interface.
func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("backend unavailable: %s %s: %v", e.Op, e.Locator, e.Err)
}

// Unwrap returns the adapter error.
func (e *BackendUnavailableError) Unwrap() error { return e.Err }

// SerializationError reports an encode or decode failure. The in-memory
// tree is never affected by one.
type SerializationError struct {
	// Op is "encode" or "decode".
	Op  string
	Err error
}

// Error implements the error interface.
func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization failed: %s: %v", e.Op, e.Err)
}

// Unwrap returns the codec error.
func (e *SerializationError) Unwrap() error { return e.Err }

// UnknownBackendError reports a locator whose scheme has no adapter.
type UnknownBackendError struct {
	Scheme  string
	Locator string
}

// Error implements the error interface.
func (e *UnknownBackendError) Error() string {
	if e.Scheme == "" {
		return fmt.Sprintf("no backend scheme in locator %q", e.Locator)
	}
	return fmt.Sprintf("no backend registered for scheme %q (locator %q)", e.Scheme, e.Locator)
}

// IsBackendUnavailable returns true if err is or wraps a BackendUnavailableError.
func IsBackendUnavailable(err error) bool {
	var be *BackendUnavailableError
	return errors.As(err, &be)
}

// IsSerialization returns true if err is or wraps a SerializationError.
func IsSerialization(err error) bool {
	var se *SerializationError
	return errors.As(err, &se)
}

// IsUnknownBackend returns true if err is or wraps an UnknownBackendError.
func IsUnknownBackend(err error) bool {
	var ue *UnknownBackendError
	return errors.As(err, &ue)
}
