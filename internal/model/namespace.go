package model

import (
	"iter"
	"slices"
	"strconv"
)

// nameScope is the type-erased view of a set used by the containment
// machinery (name checks, renames, merge and clone).
type nameScope interface {
	owner() Namespace
	isPositional() bool
	lookup(idShort string) (Referable, bool)
	indexOf(b *referableBase) int
	members() []Referable
	rename(b *referableBase, oldID, newID string)
	rebuildSemanticIndex()
	planMerge(remote nameScope, plan *mergePlan) ([]string, error)
	copyInto(dst nameScope)
	sameMembers(other nameScope) bool
}

// setCore is the shared implementation of NamespaceSet and
// OrderedNamespaceSet.
//
// items is the sequence, byID maps id_short to the member (unused for
// positional sets), bySemantic maps a semantic id to its members in
// sequence order. All three are kept coherent by every mutation.
type setCore[T Referable] struct {
	parent     Namespace
	positional bool
	items      []T
	byID       map[string]T
	bySemantic map[string][]T
	accept     func(obj T, replacing *referableBase) error
}

func newSetCore[T Referable](parent Namespace, positional bool, accept func(T, *referableBase) error) setCore[T] {
	return setCore[T]{
		parent:     parent,
		positional: positional,
		byID:       make(map[string]T),
		bySemantic: make(map[string][]T),
		accept:     accept,
	}
}

// Add inserts obj at the end. obj must not belong to another set, must not
// be an ancestor of the set's parent, and its id_short must be free in the
// parent's name space.
func (s *setCore[T]) Add(obj T) error {
	if err := s.parent.base().checkWritable(); err != nil {
		return err
	}
	if err := s.admit(obj, nil); err != nil {
		return err
	}
	s.items = append(s.items, obj)
	s.link(obj)
	s.rebuildSemanticIndex()
	s.parent.base().touch()
	return nil
}

// Remove detaches obj. It fails with KeyNotFoundError when obj is not a
// member of this set.
func (s *setCore[T]) Remove(obj T) error {
	i := s.indexOf(obj.base())
	if i < 0 {
		return &KeyNotFoundError{Key: obj.IDShort(), Message: "object is not a member of this set"}
	}
	return s.removeAt(i)
}

// RemoveByIDShort detaches the member named idShort.
func (s *setCore[T]) RemoveByIDShort(idShort string) error {
	obj, ok := s.byID[idShort]
	if !ok {
		return &KeyNotFoundError{Key: idShort}
	}
	return s.removeAt(s.indexOf(obj.base()))
}

// Get returns the member named idShort.
func (s *setCore[T]) Get(idShort string) (T, error) {
	obj, ok := s.byID[idShort]
	if !ok {
		var zero T
		return zero, &KeyNotFoundError{Key: idShort}
	}
	return obj, nil
}

// GetBySemanticID returns the first member, in sequence order, whose
// semantic id equals ref.
func (s *setCore[T]) GetBySemanticID(ref *Reference) (T, error) {
	if hits := s.AllBySemanticID(ref); len(hits) > 0 {
		return hits[0], nil
	}
	var zero T
	return zero, &KeyNotFoundError{Key: ref.String(), Message: "no member with this semantic id"}
}

// AllBySemanticID returns every member, in sequence order, whose semantic
// id equals ref. The result is empty, never an error, when none match.
func (s *setCore[T]) AllBySemanticID(ref *Reference) []T {
	if ref == nil {
		return nil
	}
	var out []T
	for _, obj := range s.bySemantic[ref.indexKey()] {
		if any(obj).(HasSemantics).SemanticID().Equal(ref) {
			out = append(out, obj)
		}
	}
	return out
}

// Contains reports whether obj is a member.
func (s *setCore[T]) Contains(obj T) bool {
	return s.indexOf(obj.base()) >= 0
}

// ContainsIDShort reports whether a member is named idShort.
func (s *setCore[T]) ContainsIDShort(idShort string) bool {
	_, ok := s.byID[idShort]
	return ok
}

// Len returns the number of members.
func (s *setCore[T]) Len() int { return len(s.items) }

// All iterates over the members in sequence order.
func (s *setCore[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, obj := range s.items {
			if !yield(obj) {
				return
			}
		}
	}
}

// Items returns a copy of the members in sequence order.
func (s *setCore[T]) Items() []T { return slices.Clone(s.items) }

// admit checks every precondition of placing obj into the set. replacing is
// the member obj would replace, whose name does not count as taken.
func (s *setCore[T]) admit(obj T, replacing *referableBase) error {
	ob := obj.base()
	if ob.parent != nil {
		return violation("", "%s %q already belongs to %s %q", obj.KeyType(), obj.IDShort(), ob.parent.KeyType(), ob.parent.IDShort())
	}
	if _, ok := any(obj).(Identifiable); ok {
		return violation("", "%s %q is identifiable and cannot be contained", obj.KeyType(), obj.IDShort())
	}
	for a := s.parent.base(); a != nil; a = parentBase(a) {
		if a == ob {
			return violation("", "%s %q cannot contain itself", obj.KeyType(), obj.IDShort())
		}
	}
	if s.positional {
		if ob.idShort != "" {
			return violation("AASd-120", "elements of a SubmodelElementList cannot have an id_short, got %q", ob.idShort)
		}
	} else {
		if err := validateIDShort(ob.idShort); err != nil {
			return err
		}
		if err := checkNameFree(s.parent, ob.idShort, replacing); err != nil {
			return err
		}
	}
	if s.accept != nil {
		if err := s.accept(obj, replacing); err != nil {
			return err
		}
	}
	return nil
}

func (s *setCore[T]) link(obj T) {
	ob := obj.base()
	ob.parent = s.parent
	ob.scope = s
	if !s.positional {
		s.byID[ob.idShort] = obj
	}
}

func (s *setCore[T]) unlink(obj T) {
	ob := obj.base()
	if !s.positional {
		delete(s.byID, ob.idShort)
	}
	ob.parent = nil
	ob.scope = nil
}

func (s *setCore[T]) removeAt(i int) error {
	if err := s.parent.base().checkWritable(); err != nil {
		return err
	}
	obj := s.items[i]
	s.items = slices.Delete(s.items, i, i+1)
	s.unlink(obj)
	s.rebuildSemanticIndex()
	s.parent.base().touch()
	return nil
}

func (s *setCore[T]) owner() Namespace { return s.parent }

func (s *setCore[T]) isPositional() bool { return s.positional }

func (s *setCore[T]) lookup(idShort string) (Referable, bool) {
	obj, ok := s.byID[idShort]
	if !ok {
		return nil, false
	}
	return obj, true
}

func (s *setCore[T]) indexOf(b *referableBase) int {
	for i, obj := range s.items {
		if obj.base() == b {
			return i
		}
	}
	return -1
}

func (s *setCore[T]) members() []Referable {
	out := make([]Referable, len(s.items))
	for i, obj := range s.items {
		out[i] = obj
	}
	return out
}

func (s *setCore[T]) rename(b *referableBase, oldID, newID string) {
	obj, ok := s.byID[oldID]
	if !ok || obj.base() != b {
		return
	}
	delete(s.byID, oldID)
	s.byID[newID] = obj
}

func (s *setCore[T]) rebuildSemanticIndex() {
	clear(s.bySemantic)
	for _, obj := range s.items {
		hs, ok := any(obj).(HasSemantics)
		if !ok {
			continue
		}
		if ref := hs.SemanticID(); ref != nil {
			k := ref.indexKey()
			s.bySemantic[k] = append(s.bySemantic[k], obj)
		}
	}
}

// replaceAll swaps the whole membership for next. Used by merge once the
// plan has been validated; members of next must be detached or already
// members of s.
func (s *setCore[T]) replaceAll(next []T) {
	keep := make(map[*referableBase]bool, len(next))
	for _, obj := range next {
		keep[obj.base()] = true
	}
	for _, obj := range s.items {
		if !keep[obj.base()] {
			s.unlink(obj)
		}
	}
	s.items = next
	clear(s.byID)
	for _, obj := range next {
		s.link(obj)
	}
	s.rebuildSemanticIndex()
}

func (s *setCore[T]) copyInto(dst nameScope) {
	d := dst.(*setCore[T])
	for _, obj := range s.items {
		c := cloneReferable(obj).(T)
		d.items = append(d.items, c)
		d.link(c)
	}
	d.rebuildSemanticIndex()
}

func (s *setCore[T]) sameMembers(other nameScope) bool {
	o := other.(*setCore[T])
	if len(s.items) != len(o.items) {
		return false
	}
	for i := range s.items {
		if !DeepEqual(s.items[i], o.items[i]) {
			return false
		}
	}
	return true
}

// NamespaceSet is a set of Referables keyed by id_short with a secondary
// index by semantic id. Iteration follows insertion order but the set
// exposes no positions. A Referable belongs to at most one set.
type NamespaceSet[T Referable] struct {
	setCore[T]
}

func newNamespaceSet[T Referable](parent Namespace, accept func(T, *referableBase) error) *NamespaceSet[T] {
	return &NamespaceSet[T]{setCore: newSetCore(parent, false, accept)}
}

// OrderedNamespaceSet is a NamespaceSet with an explicit sequence and a
// positional API. A positional set (the value of a SubmodelElementList)
// holds unnamed members addressed only by index.
type OrderedNamespaceSet[T Referable] struct {
	setCore[T]
}

func newOrderedSet[T Referable](parent Namespace, positional bool, accept func(T, *referableBase) error) *OrderedNamespaceSet[T] {
	return &OrderedNamespaceSet[T]{setCore: newSetCore(parent, positional, accept)}
}

// At returns the member at index i.
func (s *OrderedNamespaceSet[T]) At(i int) (T, error) {
	if i < 0 || i >= len(s.items) {
		var zero T
		return zero, &KeyNotFoundError{Key: strconv.Itoa(i), Message: "index out of range"}
	}
	return s.items[i], nil
}

// IndexOf returns the position of obj, or -1.
func (s *OrderedNamespaceSet[T]) IndexOf(obj T) int {
	return s.indexOf(obj.base())
}

// InsertAt inserts obj before index i; i == Len() appends.
func (s *OrderedNamespaceSet[T]) InsertAt(i int, obj T) error {
	if i < 0 || i > len(s.items) {
		return &KeyNotFoundError{Key: strconv.Itoa(i), Message: "index out of range"}
	}
	if err := s.parent.base().checkWritable(); err != nil {
		return err
	}
	if err := s.admit(obj, nil); err != nil {
		return err
	}
	s.items = slices.Insert(s.items, i, obj)
	s.link(obj)
	s.rebuildSemanticIndex()
	s.parent.base().touch()
	return nil
}

// SetAt replaces the member at index i with obj. obj may reuse the name of
// the member it replaces.
func (s *OrderedNamespaceSet[T]) SetAt(i int, obj T) error {
	if i < 0 || i >= len(s.items) {
		return &KeyNotFoundError{Key: strconv.Itoa(i), Message: "index out of range"}
	}
	if err := s.parent.base().checkWritable(); err != nil {
		return err
	}
	old := s.items[i]
	if old.base() == obj.base() {
		return nil
	}
	if err := s.admit(obj, old.base()); err != nil {
		return err
	}
	s.unlink(old)
	s.items[i] = obj
	s.link(obj)
	s.rebuildSemanticIndex()
	s.parent.base().touch()
	return nil
}

// DeleteAt detaches the member at index i.
func (s *OrderedNamespaceSet[T]) DeleteAt(i int) error {
	if i < 0 || i >= len(s.items) {
		return &KeyNotFoundError{Key: strconv.Itoa(i), Message: "index out of range"}
	}
	return s.removeAt(i)
}
