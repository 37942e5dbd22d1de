package model

import (
	"errors"
	"fmt"
)

// ErrConcurrentAccess is returned when a tree is mutated, committed or
// fetched while another operation holds its Lease.
var ErrConcurrentAccess = errors.New("tree is held by another operation")

// ConstraintViolation reports that a uniqueness, ownership or structural rule
// would be broken. The operation that returns it has not modified anything.
type ConstraintViolation struct {
	// Constraint names the metamodel constraint (e.g. "AASd-022"), if any.
	Constraint string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ConstraintViolation) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("constraint violation %s: %s", e.Constraint, e.Message)
	}
	return "constraint violation: " + e.Message
}

// KeyNotFoundError reports a missed name, index or identifier lookup.
type KeyNotFoundError struct {
	// Key is the id_short, index or identifier that was looked up.
	Key string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *KeyNotFoundError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("key %q not found: %s", e.Key, e.Message)
	}
	return fmt.Sprintf("key %q not found", e.Key)
}

// TypeMismatchError reports that an object's kind does not match the kind a
// key (or caller) expected.
type TypeMismatchError struct {
	Expected KeyType
	Actual   KeyType

	// Key is the lookup value that produced the object.
	Key string
}

// Error implements the error interface.
func (e *TypeMismatchError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("type mismatch for %q: expected %s, got %s", e.Key, e.Expected, e.Actual)
	}
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// IsConstraintViolation returns true if err is or wraps a ConstraintViolation.
func IsConstraintViolation(err error) bool {
	var cv *ConstraintViolation
	return errors.As(err, &cv)
}

// IsKeyNotFound returns true if err is or wraps a KeyNotFoundError.
func IsKeyNotFound(err error) bool {
	var kn *KeyNotFoundError
	return errors.As(err, &kn)
}

// IsTypeMismatch returns true if err is or wraps a TypeMismatchError.
func IsTypeMismatch(err error) bool {
	var tm *TypeMismatchError
	return errors.As(err, &tm)
}

func violation(constraint, format string, args ...any) *ConstraintViolation {
	return &ConstraintViolation{Constraint: constraint, Message: fmt.Sprintf(format, args...)}
}
