// Package backend defines the narrow interfaces the synchronization engine
// uses to reach external stores, and the registry that routes a source
// locator to the adapter responsible for its scheme.
//
// A source locator has the form "scheme:identifier". The registry splits off
// the scheme; the identifier is passed to the adapter untouched and is
// opaque to everything above it.
package backend

import (
	"context"
	"errors"

	"github.com/roach88/twinsync/internal/model"
)

// ErrNotFound is returned by Adapter.Get when nothing is stored under the
// identifier.
var ErrNotFound = errors.New("backend: not found")

// Adapter reads and writes encoded Identifiables.
//
// Implementations must be safe for concurrent use; the engine itself never
// issues more than one call at a time per tree.
type Adapter interface {
	// Get returns the stored encoding, or ErrNotFound.
	Get(ctx context.Context, identifier string) ([]byte, error)

	// Put stores data, replacing any previous encoding.
	Put(ctx context.Context, identifier string, data []byte) error
}

// Deleter is implemented by adapters that can remove an encoding. Deleting
// an absent identifier is not an error.
type Deleter interface {
	Delete(ctx context.Context, identifier string) error
}

// Lister is implemented by adapters that can enumerate their identifiers.
// Identifiers are returned sorted bytewise.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// Serializer converts an Identifiable subtree to and from bytes.
type Serializer interface {
	Encode(obj model.Identifiable) ([]byte, error)
	Decode(data []byte) (model.Identifiable, error)
}

// ValueSerializer is implemented by serializers that can move the value of
// a single element. DecodeValue returns a detached element shaped like r
// holding the decoded value.
type ValueSerializer interface {
	EncodeValue(r model.Referable) ([]byte, error)
	DecodeValue(r model.Referable, data []byte) (model.Referable, error)
}
