package harness

import (
	"errors"

	"github.com/roach88/twinsync/internal/backend"
	"github.com/roach88/twinsync/internal/engine"
	"github.com/roach88/twinsync/internal/model"
)

// TraceEvent records one finished engine operation.
type TraceEvent struct {
	Seq     int64    `json:"seq"`
	Op      string   `json:"op"`
	Locator string   `json:"locator,omitempty"`
	ID      string   `json:"id,omitempty"`
	Path    []string `json:"path,omitempty"`

	// Error is the error class of a failed operation, see ErrorClass.
	Error string `json:"error,omitempty"`
}

func traceEvent(ev engine.Event) TraceEvent {
	te := TraceEvent{
		Seq:     ev.Seq,
		Op:      string(ev.Op),
		Locator: ev.Locator,
		ID:      ev.ID,
		Path:    append([]string(nil), ev.Path...),
	}
	if ev.Err != nil {
		te.Error = ErrorClass(ev.Err)
	}
	return te
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step behaved as expected and every assertion held.
	Pass bool `json:"pass"`

	// Trace contains the engine events in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Error classes used in expect clauses and traces.
const (
	ClassConstraintViolation = "ConstraintViolation"
	ClassKeyNotFound         = "KeyNotFound"
	ClassTypeMismatch        = "TypeMismatch"
	ClassBackendUnavailable  = "BackendUnavailable"
	ClassSerialization       = "Serialization"
	ClassUnknownBackend      = "UnknownBackend"
	ClassConcurrentAccess    = "ConcurrentAccess"
	ClassOther               = "Error"
)

// ErrorClass names the kind of err. Backend classes win over model
// classes they may wrap, so a document that decodes into an invalid tree
// is a Serialization error.
func ErrorClass(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, model.ErrConcurrentAccess):
		return ClassConcurrentAccess
	case backend.IsUnknownBackend(err):
		return ClassUnknownBackend
	case backend.IsBackendUnavailable(err):
		return ClassBackendUnavailable
	case backend.IsSerialization(err):
		return ClassSerialization
	case model.IsConstraintViolation(err):
		return ClassConstraintViolation
	case model.IsKeyNotFound(err):
		return ClassKeyNotFound
	case model.IsTypeMismatch(err):
		return ClassTypeMismatch
	}
	return ClassOther
}
