package model

import (
	"errors"
	"slices"
	"sort"
)

// Provider looks up Identifiables by id. It is the first hop of
// Reference.Resolve.
type Provider interface {
	// GetIdentifiable returns a KeyNotFoundError when id is unknown.
	GetIdentifiable(id string) (Identifiable, error)
}

// ObjectStore is an in-memory Provider holding at most one object per id.
// It is not safe for concurrent use.
type ObjectStore struct {
	byID  map[string]Identifiable
	order []string
}

// NewObjectStore returns a store holding objs.
func NewObjectStore(objs ...Identifiable) (*ObjectStore, error) {
	s := &ObjectStore{byID: make(map[string]Identifiable)}
	for _, obj := range objs {
		if err := s.Add(obj); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add stores obj. An object with the same id must not be present.
func (s *ObjectStore) Add(obj Identifiable) error {
	id := obj.ID()
	if id == "" {
		return violation("", "cannot store %s without an id", obj.KeyType())
	}
	if _, ok := s.byID[id]; ok {
		return violation("", "an object with id %q is already stored", id)
	}
	s.byID[id] = obj
	s.order = append(s.order, id)
	return nil
}

// Discard removes obj and unbinds it.
func (s *ObjectStore) Discard(obj Identifiable) error {
	id := obj.ID()
	cur, ok := s.byID[id]
	if !ok || cur.base() != obj.base() {
		return &KeyNotFoundError{Key: id, Message: "object is not in the store"}
	}
	if err := obj.Unbind(); err != nil {
		return err
	}
	delete(s.byID, id)
	s.order = slices.DeleteFunc(s.order, func(x string) bool { return x == id })
	return nil
}

// GetIdentifiable implements Provider.
func (s *ObjectStore) GetIdentifiable(id string) (Identifiable, error) {
	obj, ok := s.byID[id]
	if !ok {
		return nil, &KeyNotFoundError{Key: id, Message: "no object with this id"}
	}
	return obj, nil
}

// Len returns the number of stored objects.
func (s *ObjectStore) Len() int { return len(s.byID) }

// Items returns the stored objects in insertion order.
func (s *ObjectStore) Items() []Identifiable {
	out := make([]Identifiable, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// IDs returns the stored ids sorted bytewise.
func (s *ObjectStore) IDs() []string {
	ids := slices.Clone(s.order)
	sort.Strings(ids)
	return ids
}

// SyncResult counts what ObjectStore.Sync did.
type SyncResult struct {
	Added       int
	Overwritten int
	Skipped     int
}

// Sync adds objs to the store. An object whose id is already present
// replaces the stored one when overwrite is set (the old one is discarded)
// and is skipped otherwise. Every object is checked before the store
// changes, so a failed Sync leaves the store as it was.
func (s *ObjectStore) Sync(objs []Identifiable, overwrite bool) (SyncResult, error) {
	if err := s.checkSync(objs, overwrite); err != nil {
		return SyncResult{}, err
	}
	var res SyncResult
	for _, obj := range objs {
		old, exists := s.byID[obj.ID()]
		switch {
		case !exists:
			if err := s.Add(obj); err != nil {
				return res, err
			}
			res.Added++
		case !overwrite || old.base() == obj.base():
			res.Skipped++
		default:
			if err := s.Discard(old); err != nil {
				return res, err
			}
			if err := s.Add(obj); err != nil {
				return res, err
			}
			res.Overwritten++
		}
	}
	return res, nil
}

// checkSync replays Sync against a shadow of the id index and reports the
// first step that would fail.
func (s *ObjectStore) checkSync(objs []Identifiable, overwrite bool) error {
	shadow := make(map[string]Identifiable, len(objs))
	for _, obj := range objs {
		id := obj.ID()
		if id == "" {
			return violation("", "cannot store %s without an id", obj.KeyType())
		}
		old, exists := shadow[id]
		if !exists {
			old, exists = s.byID[id]
		}
		switch {
		case !exists:
			shadow[id] = obj
		case !overwrite || old.base() == obj.base():
		default:
			if st := old.base().binding; st != nil && st.busy.Load() {
				return ErrConcurrentAccess
			}
			shadow[id] = obj
		}
	}
	return nil
}

// ProviderMultiplexer asks each provider in turn.
type ProviderMultiplexer []Provider

// GetIdentifiable returns the first hit. A KeyNotFoundError from one
// provider moves on to the next; any other error is returned as is.
func (m ProviderMultiplexer) GetIdentifiable(id string) (Identifiable, error) {
	for _, p := range m {
		obj, err := p.GetIdentifiable(id)
		if err == nil {
			return obj, nil
		}
		var kn *KeyNotFoundError
		if !errors.As(err, &kn) {
			return nil, err
		}
	}
	return nil, &KeyNotFoundError{Key: id, Message: "not found in any provider"}
}
