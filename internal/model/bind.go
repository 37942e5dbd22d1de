package model

import (
	"strconv"
	"sync/atomic"
)

// BindStatus is the synchronization state of an Identifiable.
type BindStatus int

const (
	Unbound BindStatus = iota
	BoundClean
	BoundDirty
)

func (s BindStatus) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case BoundClean:
		return "clean"
	case BoundDirty:
		return "dirty"
	}
	return "BindStatus(" + strconv.Itoa(int(s)) + ")"
}

// bindState is present only on bound Identifiables. busy is the
// single-writer flag held by a Lease.
type bindState struct {
	locator string
	dirty   bool
	busy    atomic.Bool
}

// Bind attaches the element to a backend locator of the form
// "scheme:identifier". A fresh binding is clean.
func (b *identifiableBase) Bind(locator string) error {
	if locator == "" {
		return violation("", "locator must not be empty")
	}
	if b.binding != nil {
		if b.binding.locator == locator {
			return nil
		}
		return violation("", "%q is already bound to %q", b.id, b.binding.locator)
	}
	b.binding = &bindState{locator: locator}
	return nil
}

// Unbind removes the binding. It fails while a Lease is held.
func (b *identifiableBase) Unbind() error {
	if b.binding == nil {
		return nil
	}
	if b.binding.busy.Load() {
		return ErrConcurrentAccess
	}
	b.binding = nil
	return nil
}

// Source returns the bound locator, or "".
func (b *identifiableBase) Source() string {
	if b.binding == nil {
		return ""
	}
	return b.binding.locator
}

// Status returns the bind status.
func (b *identifiableBase) Status() BindStatus {
	switch {
	case b.binding == nil:
		return Unbound
	case b.binding.dirty:
		return BoundDirty
	default:
		return BoundClean
	}
}

// Dirty reports whether a bound element has changes not yet committed.
func (b *identifiableBase) Dirty() bool {
	return b.binding != nil && b.binding.dirty
}

// FindSource returns the nearest bound ancestor of r, r itself included.
// It performs no I/O.
func FindSource(r Referable) (Identifiable, bool) {
	src, _, ok := FindSourcePath(r)
	return src, ok
}

// FindSourcePath is FindSource plus the path from the bound ancestor down
// to r, one id_short (or list index) per step. The path is empty when r is
// itself bound.
func FindSourcePath(r Referable) (Identifiable, []string, bool) {
	var path []string
	cur := r
	for cur != nil {
		b := cur.base()
		if b.binding != nil {
			if id, ok := cur.(Identifiable); ok {
				reverse(path)
				return id, path, true
			}
		}
		if b.parent == nil {
			break
		}
		step := b.idShort
		if b.scope != nil && b.scope.isPositional() {
			step = strconv.Itoa(b.scope.indexOf(b))
		}
		path = append(path, step)
		cur = b.parent
	}
	return nil, nil, false
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// Lease grants exclusive use of a bound tree. While it is held, setters
// and set mutations anywhere in the tree fail with ErrConcurrentAccess, and
// a second Acquire fails the same way.
type Lease struct {
	root  Identifiable
	state *bindState
}

// Acquire takes the lease on a bound root.
func Acquire(root Identifiable) (*Lease, error) {
	st := root.base().binding
	if st == nil {
		return nil, violation("", "%s %q is not bound", root.KeyType(), root.ID())
	}
	if !st.busy.CompareAndSwap(false, true) {
		return nil, ErrConcurrentAccess
	}
	return &Lease{root: root, state: st}, nil
}

// Release gives the lease back. Releasing twice is harmless.
func (l *Lease) Release() {
	l.state.busy.Store(false)
}

// Root returns the leased element.
func (l *Lease) Root() Identifiable { return l.root }

// Locator returns the root's locator.
func (l *Lease) Locator() string { return l.state.locator }

// Dirty reports whether the root has uncommitted changes.
func (l *Lease) Dirty() bool { return l.state.dirty }

// MarkClean records that the tree matches its backend.
func (l *Lease) MarkClean() { l.state.dirty = false }

// MarkDirty records that the tree has local changes.
func (l *Lease) MarkDirty() { l.state.dirty = true }

// Merge updates local, which must be inside the leased tree, from remote.
// It does not change the dirty flag.
func (l *Lease) Merge(local, remote Referable) error {
	if !within(local, l.root) {
		return violation("", "%s %q is outside the leased tree", local.KeyType(), local.IDShort())
	}
	return merge(local, remote)
}

func within(r Referable, root Referable) bool {
	rb := root.base()
	for b := r.base(); b != nil; b = parentBase(b) {
		if b == rb {
			return true
		}
	}
	return false
}
