package model

import (
	"reflect"
	"regexp"
)

var (
	idShortPattern = regexp.MustCompile(`^[a-zA-Z]([a-zA-Z0-9_-]*[a-zA-Z0-9_])?$`)
	versionPattern = regexp.MustCompile(`^(0|[1-9][0-9]{0,3})$`)
)

const maxIDShortLen = 128

// Referable is any element that can be named inside a namespace.
//
// The set of implementations is closed: every Referable embeds the
// package's base type, which is the only place the parent link and bind
// state live. Only namespace sets change the parent link.
type Referable interface {
	IDShort() string
	SetIDShort(idShort string) error
	Category() string
	SetCategory(category string) error
	DisplayName() LangStringSet
	SetDisplayName(s LangStringSet) error
	Description() LangStringSet
	SetDescription(s LangStringSet) error

	// Parent returns the containing namespace, or nil for a root.
	Parent() Namespace

	// KeyType returns the concrete kind, as used in Keys.
	KeyType() KeyType

	base() *referableBase
	newEmpty() Referable
	copyAttrs(src Referable)
	sameAttrs(other Referable) bool
}

// Namespace is a Referable that owns child sets. All sets of one namespace
// share a single id_short space.
type Namespace interface {
	Referable
	namespaceSets() []nameScope
}

// HasSemantics is implemented by elements that carry a semantic id.
type HasSemantics interface {
	SemanticID() *Reference
	SetSemanticID(ref *Reference) error
}

// referableBase holds the attributes every Referable has plus the
// structural links owned by the containment machinery.
type referableBase struct {
	idShort     string
	category    string
	displayName LangStringSet
	description LangStringSet

	parent  Namespace
	scope   nameScope
	binding *bindState
}

func (b *referableBase) base() *referableBase { return b }

// IDShort returns the short name, empty for positionally addressed elements.
func (b *referableBase) IDShort() string { return b.idShort }

// Parent returns the containing namespace, or nil.
func (b *referableBase) Parent() Namespace { return b.parent }

// Category returns the element category.
func (b *referableBase) Category() string { return b.category }

// DisplayName returns a copy of the display name.
func (b *referableBase) DisplayName() LangStringSet { return b.displayName.Clone() }

// Description returns a copy of the description.
func (b *referableBase) Description() LangStringSet { return b.description.Clone() }

// SetIDShort renames the element. Inside a set the new name must be free in
// the parent's name space (AASd-022) and the set is re-keyed; elements of a
// SubmodelElementList keep an empty name.
func (b *referableBase) SetIDShort(idShort string) error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	if idShort == b.idShort {
		return nil
	}
	if b.scope != nil && b.scope.isPositional() {
		if idShort != "" {
			return violation("AASd-120", "elements of a SubmodelElementList cannot have an id_short")
		}
		return nil
	}
	if idShort != "" || b.scope != nil {
		if err := validateIDShort(idShort); err != nil {
			return err
		}
	}
	if b.scope != nil {
		if err := checkNameFree(b.parent, idShort, b); err != nil {
			return err
		}
		b.scope.rename(b, b.idShort, idShort)
	}
	b.idShort = idShort
	b.touch()
	return nil
}

// SetCategory sets the category.
func (b *referableBase) SetCategory(category string) error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	b.category = category
	b.touch()
	return nil
}

// SetDisplayName replaces the display name.
func (b *referableBase) SetDisplayName(s LangStringSet) error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	b.displayName = s.Clone()
	b.touch()
	return nil
}

// SetDescription replaces the description.
func (b *referableBase) SetDescription(s LangStringSet) error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	b.description = s.Clone()
	b.touch()
	return nil
}

func (b *referableBase) copyReferable(src *referableBase) {
	b.idShort = src.idShort
	b.category = src.category
	b.displayName = src.displayName.Clone()
	b.description = src.description.Clone()
}

func (b *referableBase) sameReferable(o *referableBase) bool {
	return b.idShort == o.idShort &&
		b.category == o.category &&
		reflect.DeepEqual(b.displayName, o.displayName) &&
		reflect.DeepEqual(b.description, o.description)
}

// touch marks the nearest bound ancestor (self included) dirty.
func (b *referableBase) touch() {
	for cur := b; cur != nil; cur = parentBase(cur) {
		if cur.binding != nil {
			cur.binding.dirty = true
			return
		}
	}
}

// checkWritable fails when any bound ancestor is held by a Lease.
func (b *referableBase) checkWritable() error {
	for cur := b; cur != nil; cur = parentBase(cur) {
		if cur.binding != nil && cur.binding.busy.Load() {
			return ErrConcurrentAccess
		}
	}
	return nil
}

func parentBase(b *referableBase) *referableBase {
	if b.parent == nil {
		return nil
	}
	return b.parent.base()
}

func validateIDShort(idShort string) error {
	if idShort == "" {
		return violation("AASd-117", "id_short is required here")
	}
	if len(idShort) > maxIDShortLen {
		return violation("AASd-002", "id_short %q exceeds %d characters", idShort, maxIDShortLen)
	}
	if !idShortPattern.MatchString(idShort) {
		return violation("AASd-002", "id_short %q must start with a letter and contain only letters, digits, '_' and '-', not ending in '-'", idShort)
	}
	return nil
}

// checkNameFree reports a violation when idShort is used by any member of
// any set of ns other than except.
func checkNameFree(ns Namespace, idShort string, except *referableBase) error {
	if ns == nil {
		return nil
	}
	for _, sc := range ns.namespaceSets() {
		if r, ok := sc.lookup(idShort); ok && r.base() != except {
			return violation("AASd-022", "id_short %q is already used in %s %q", idShort, ns.KeyType(), ns.IDShort())
		}
	}
	return nil
}

// Lookup finds a direct child of ns by id_short across all of its sets.
func Lookup(ns Namespace, idShort string) (Referable, error) {
	for _, sc := range ns.namespaceSets() {
		if r, ok := sc.lookup(idShort); ok {
			return r, nil
		}
	}
	return nil, &KeyNotFoundError{Key: idShort, Message: "no such child in " + string(ns.KeyType()) + " " + quote(ns.IDShort())}
}

// Children returns the direct children of ns, set by set.
func Children(ns Namespace) []Referable {
	var out []Referable
	for _, sc := range ns.namespaceSets() {
		out = append(out, sc.members()...)
	}
	return out
}

func quote(s string) string { return `"` + s + `"` }
