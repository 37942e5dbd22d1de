package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ReferenceType tags a Reference as pointing into the model or outside it.
type ReferenceType string

const (
	ModelReference    ReferenceType = "ModelReference"
	ExternalReference ReferenceType = "ExternalReference"
)

// Reference is an immutable, non-empty chain of keys.
//
// Construct with NewReference; the zero value is not a valid reference.
// Keys are copied in and out, so a Reference can be shared freely.
type Reference struct {
	typ                ReferenceType
	keys               []Key
	referredSemanticID *Reference
}

// NewReference validates keys against typ and returns the reference.
//
// Model references must start with an Identifiable key (AASd-123), continue
// with fragment keys (AASd-125), end at the first FragmentReference
// (AASd-126), and address SubmodelElementList children by index (AASd-128).
// External references must start with a GlobalReference (AASd-122) and end
// with a GlobalReference or FragmentReference (AASd-124).
func NewReference(typ ReferenceType, keys []Key, referredSemanticID *Reference) (*Reference, error) {
	if len(keys) == 0 {
		return nil, violation("AASd-121", "reference must contain at least one key")
	}
	for i, k := range keys {
		if !k.Type.Valid() {
			return nil, violation("", "key %d has unknown type %q", i, k.Type)
		}
		if k.Value == "" {
			return nil, violation("", "key %d has an empty value", i)
		}
	}

	switch typ {
	case ModelReference:
		if err := validateModelKeys(keys); err != nil {
			return nil, err
		}
	case ExternalReference:
		if keys[0].Type != KeyGlobalReference {
			return nil, violation("AASd-122", "external reference must start with %s, got %s", KeyGlobalReference, keys[0].Type)
		}
		last := keys[len(keys)-1].Type
		if last != KeyGlobalReference && last != KeyFragmentReference {
			return nil, violation("AASd-124", "external reference must end with a global or fragment key, got %s", last)
		}
	default:
		return nil, violation("", "unknown reference type %q", typ)
	}

	return &Reference{
		typ:                typ,
		keys:               append([]Key(nil), keys...),
		referredSemanticID: referredSemanticID,
	}, nil
}

func validateModelKeys(keys []Key) error {
	if !keys[0].Type.IsIdentifiable() {
		return violation("AASd-123", "model reference must start with an identifiable key, got %s", keys[0].Type)
	}
	for i := 1; i < len(keys); i++ {
		k := keys[i]
		if !k.Type.IsFragment() {
			return violation("AASd-125", "key %d (%s) cannot follow the first key of a model reference", i, k.Type)
		}
		if keys[i-1].Type == KeyFragmentReference {
			return violation("AASd-126", "key %d (%s) follows a fragment reference", i, k.Type)
		}
		if keys[i-1].Type == KeySubmodelElementList {
			if _, err := strconv.Atoi(k.Value); err != nil {
				return violation("AASd-128", "key %d after a SubmodelElementList must be an index, got %q", i, k.Value)
			}
		}
	}
	return nil
}

// MustReference is like NewReference but panics on error.
// Use only in tests or with keys known to be valid.
func MustReference(typ ReferenceType, keys ...Key) *Reference {
	r, err := NewReference(typ, keys, nil)
	if err != nil {
		panic(err)
	}
	return r
}

// GlobalReference returns an external reference with a single
// GlobalReference key, the usual shape of a semantic id.
func GlobalReference(value string) *Reference {
	return &Reference{
		typ:  ExternalReference,
		keys: []Key{{Type: KeyGlobalReference, Value: value}},
	}
}

// Type returns the reference type.
func (r *Reference) Type() ReferenceType { return r.typ }

// Keys returns a copy of the key chain.
func (r *Reference) Keys() []Key { return append([]Key(nil), r.keys...) }

// Len returns the number of keys.
func (r *Reference) Len() int { return len(r.keys) }

// Key returns the i-th key.
func (r *Reference) Key(i int) Key { return r.keys[i] }

// ReferredSemanticID returns the optional semantic id of the referenced
// element, or nil.
func (r *Reference) ReferredSemanticID() *Reference { return r.referredSemanticID }

// String renders the keys as "[Type]value, [Type]value".
func (r *Reference) String() string {
	if r == nil {
		return ""
	}
	parts := make([]string, len(r.keys))
	for i, k := range r.keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, ", ")
}

// indexKey is the semantic index key. Key values are length-prefixed so
// no value can imitate a key boundary; the reference type keeps a model
// and an external reference with equal keys apart. The referred semantic
// id is not part of the key, so lookups confirm hits with Equal.
func (r *Reference) indexKey() string {
	var b strings.Builder
	b.WriteString(string(r.typ))
	for _, k := range r.keys {
		fmt.Fprintf(&b, "|%s|%d:%s", k.Type, len(k.Value), k.Value)
	}
	return b.String()
}

// Equal reports whether both references have the same type, keys and
// referred semantic id. Two nil references are equal.
func (r *Reference) Equal(o *Reference) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.typ != o.typ || len(r.keys) != len(o.keys) {
		return false
	}
	for i := range r.keys {
		if r.keys[i] != o.keys[i] {
			return false
		}
	}
	return r.referredSemanticID.Equal(o.referredSemanticID)
}

// ParseReference parses the String form of a reference. The reference type
// is ModelReference when the first key is identifiable, ExternalReference
// otherwise.
func ParseReference(s string) (*Reference, error) {
	s = strings.TrimSpace(s)
	var keys []Key
	for s != "" {
		if s[0] != '[' {
			return nil, fmt.Errorf("parse reference: expected '[' at %q", s)
		}
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return nil, fmt.Errorf("parse reference: unterminated key type in %q", s)
		}
		typ := KeyType(s[1:end])
		rest := s[end+1:]
		value := rest
		next := strings.Index(rest, ", [")
		if next >= 0 {
			value = rest[:next]
			s = rest[next+2:]
		} else {
			s = ""
		}
		keys = append(keys, Key{Type: typ, Value: value})
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("parse reference: no keys")
	}
	typ := ExternalReference
	if keys[0].Type.IsIdentifiable() {
		typ = ModelReference
	}
	return NewReference(typ, keys, nil)
}

// Resolve walks the key chain against p and returns the live object.
//
// The first key is looked up as an identifier in p; every following key is
// looked up as an id_short (or, below a SubmodelElementList, an index) in
// the previous object's namespace. Resolution stops at a FragmentReference,
// which addresses content inside the element rather than a model object.
func (r *Reference) Resolve(p Provider) (Referable, error) {
	if r.typ != ModelReference {
		return nil, violation("", "only model references can be resolved, got %s", r.typ)
	}

	first := r.keys[0]
	root, err := p.GetIdentifiable(first.Value)
	if err != nil {
		return nil, err
	}
	if !first.Type.Matches(root.KeyType()) {
		return nil, &TypeMismatchError{Expected: first.Type, Actual: root.KeyType(), Key: first.Value}
	}

	var cur Referable = root
	for _, k := range r.keys[1:] {
		if k.Type == KeyFragmentReference {
			break
		}
		ns, ok := cur.(Namespace)
		if !ok {
			return nil, &KeyNotFoundError{Key: k.Value, Message: fmt.Sprintf("%s %q has no children", cur.KeyType(), cur.IDShort())}
		}
		next, err := lookupStep(ns, k.Value)
		if err != nil {
			return nil, err
		}
		if !k.Type.Matches(next.KeyType()) {
			return nil, &TypeMismatchError{Expected: k.Type, Actual: next.KeyType(), Key: k.Value}
		}
		cur = next
	}
	return cur, nil
}

// ResolveAs resolves r and asserts the result's Go type.
func ResolveAs[T Referable](r *Reference, p Provider) (T, error) {
	var zero T
	obj, err := r.Resolve(p)
	if err != nil {
		return zero, err
	}
	typed, ok := obj.(T)
	if !ok {
		return zero, &TypeMismatchError{Expected: zero.KeyType(), Actual: obj.KeyType()}
	}
	return typed, nil
}

// LookupPath follows path down from root, one id_short (or list index)
// per step. It is the inverse of the path FindSourcePath reports.
func LookupPath(root Referable, path []string) (Referable, error) {
	cur := root
	for _, step := range path {
		ns, ok := cur.(Namespace)
		if !ok {
			return nil, &KeyNotFoundError{Key: step, Message: fmt.Sprintf("%s %q has no children", cur.KeyType(), cur.IDShort())}
		}
		next, err := lookupStep(ns, step)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func lookupStep(ns Namespace, value string) (Referable, error) {
	if list, ok := ns.(*SubmodelElementList); ok {
		idx, err := strconv.Atoi(value)
		if err != nil {
			return nil, &KeyNotFoundError{Key: value, Message: "list children are addressed by index"}
		}
		return list.Value().At(idx)
	}
	return Lookup(ns, value)
}

// ModelReferenceFrom builds the model reference that resolves to r by
// walking parents up to the Identifiable root.
func ModelReferenceFrom(r Referable) (*Reference, error) {
	var keys []Key
	cur := r
	for {
		b := cur.base()
		parent := b.parent
		if parent == nil {
			id, ok := cur.(Identifiable)
			if !ok {
				return nil, violation("", "%s %q is not contained in an identifiable", cur.KeyType(), cur.IDShort())
			}
			keys = append(keys, Key{Type: id.KeyType(), Value: id.ID()})
			break
		}
		value := b.idShort
		if b.scope.isPositional() {
			value = strconv.Itoa(b.scope.indexOf(b))
		}
		keys = append(keys, Key{Type: cur.KeyType(), Value: value})
		cur = parent
	}
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
	return NewReference(ModelReference, keys, nil)
}
