package engine

import (
	"fmt"
	"strconv"
)

// Policy decides what Fetch does with a tree that has uncommitted changes.
type Policy int

const (
	// RemoteWins overwrites local changes with the backend state.
	RemoteWins Policy = iota

	// RejectDirty refuses to fetch into a dirty tree.
	RejectDirty
)

func (p Policy) String() string {
	switch p {
	case RemoteWins:
		return "remote-wins"
	case RejectDirty:
		return "reject-dirty"
	}
	return "Policy(" + strconv.Itoa(int(p)) + ")"
}

// ParsePolicy is the inverse of Policy.String. The empty string means
// RemoteWins.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "remote-wins":
		return RemoteWins, nil
	case "reject-dirty":
		return RejectDirty, nil
	}
	return 0, fmt.Errorf("unknown fetch policy %q", s)
}

type fetchOptions struct {
	rejectDirty bool
}

// FetchOption adjusts a single Fetch call.
type FetchOption func(*fetchOptions)

// WithRejectDirty makes Fetch fail with a ConstraintViolation instead of
// overwriting uncommitted local changes.
func WithRejectDirty() FetchOption {
	return func(o *fetchOptions) {
		o.rejectDirty = true
	}
}
