// Package memory provides a map-backed backend adapter for tests, the
// scenario harness and throwaway sessions.
package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/roach88/twinsync/internal/backend"
)

var (
	_ backend.Adapter = (*Store)(nil)
	_ backend.Deleter = (*Store)(nil)
	_ backend.Lister  = (*Store)(nil)
)

// Store keeps encodings in memory. Stored and returned byte slices are
// copies, so callers may reuse their buffers.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
	fail map[string]error
	puts int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		data: make(map[string][]byte),
		fail: make(map[string]error),
	}
}

// Get implements backend.Adapter.
func (s *Store) Get(ctx context.Context, identifier string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail["get"]; err != nil {
		return nil, err
	}
	data, ok := s.data[identifier]
	if !ok {
		return nil, backend.ErrNotFound
	}
	return bytes.Clone(data), nil
}

// Put implements backend.Adapter.
func (s *Store) Put(ctx context.Context, identifier string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail["put"]; err != nil {
		return err
	}
	s.data[identifier] = bytes.Clone(data)
	s.puts++
	return nil
}

// Delete implements backend.Deleter.
func (s *Store) Delete(ctx context.Context, identifier string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail["delete"]; err != nil {
		return err
	}
	delete(s.data, identifier)
	return nil
}

// List implements backend.Lister.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail["list"]; err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Fail makes every subsequent call of op ("get", "put", "delete" or
// "list") return err until it is cleared with a nil err.
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, op)
		return
	}
	s.fail[op] = err
}

// Puts returns the number of successful Put calls.
func (s *Store) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}
