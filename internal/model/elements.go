package model

import (
	"bytes"
	"reflect"
	"slices"
)

// SubmodelElement is any element that can live inside a Submodel.
type SubmodelElement interface {
	Referable
	HasSemantics
	Qualifiers() []Qualifier
	Qualifier(typ string) (Qualifier, error)
	SetQualifiers(qs []Qualifier) error
	AddQualifier(q Qualifier) error
	RemoveQualifier(typ string) error
	submodelElement() *elementBase
}

// elementBase holds the attributes shared by all submodel elements.
type elementBase struct {
	referableBase
	qualifiable
	semanticID *Reference
}

func (e *elementBase) submodelElement() *elementBase { return e }

// SemanticID returns the semantic id, or nil.
func (e *elementBase) SemanticID() *Reference { return e.semanticID }

// SetSemanticID replaces the semantic id and re-indexes the containing set.
func (e *elementBase) SetSemanticID(ref *Reference) error {
	return setSemanticID(&e.referableBase, &e.semanticID, ref)
}

// SetQualifiers replaces the qualifier list.
func (e *elementBase) SetQualifiers(qs []Qualifier) error {
	return setQualifiers(&e.referableBase, &e.qualifiable, qs)
}

// AddQualifier appends q; its type must not be in use.
func (e *elementBase) AddQualifier(q Qualifier) error {
	return setQualifiers(&e.referableBase, &e.qualifiable, append(slices.Clone(e.qualifiers), q))
}

// RemoveQualifier removes the qualifier of the given type.
func (e *elementBase) RemoveQualifier(typ string) error {
	return removeQualifier(&e.referableBase, &e.qualifiable, typ)
}

func (e *elementBase) copyElement(src *elementBase) {
	e.copyReferable(&src.referableBase)
	e.semanticID = src.semanticID
	e.qualifiers = slices.Clone(src.qualifiers)
}

func (e *elementBase) sameElement(o *elementBase) bool {
	return e.sameReferable(&o.referableBase) &&
		e.semanticID.Equal(o.semanticID) &&
		e.sameQualifiers(&o.qualifiable)
}

func setSemanticID(b *referableBase, dst **Reference, ref *Reference) error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	if b.scope != nil && b.parent != nil {
		if list, ok := b.parent.(*SubmodelElementList); ok && ref != nil {
			if err := list.checkSemanticID(ref, b, nil); err != nil {
				return err
			}
		}
	}
	*dst = ref
	if b.scope != nil {
		b.scope.rebuildSemanticIndex()
	}
	b.touch()
	return nil
}

func setQualifiers(b *referableBase, dst *qualifiable, qs []Qualifier) error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	if err := checkQualifiers(qs); err != nil {
		return err
	}
	dst.qualifiers = slices.Clone(qs)
	b.touch()
	return nil
}

func removeQualifier(b *referableBase, dst *qualifiable, typ string) error {
	i := slices.IndexFunc(dst.qualifiers, func(q Qualifier) bool { return q.Type == typ })
	if i < 0 {
		return &KeyNotFoundError{Key: typ, Message: "no qualifier of this type"}
	}
	if err := b.checkWritable(); err != nil {
		return err
	}
	dst.qualifiers = slices.Delete(slices.Clone(dst.qualifiers), i, i+1)
	b.touch()
	return nil
}

// Property is a single typed value.
type Property struct {
	elementBase
	valueType DataType
	value     string
	valueID   *Reference
}

// NewProperty creates a detached property.
func NewProperty(idShort string, valueType DataType, value string) (*Property, error) {
	if err := validateDetachedIDShort(idShort); err != nil {
		return nil, err
	}
	if !valueType.Valid() {
		return nil, violation("", "property %q has invalid value type %q", idShort, valueType)
	}
	p := &Property{valueType: valueType, value: value}
	p.idShort = idShort
	return p, nil
}

func (p *Property) KeyType() KeyType    { return KeyProperty }
func (p *Property) ValueType() DataType { return p.valueType }
func (p *Property) Value() string       { return p.value }
func (p *Property) ValueID() *Reference { return p.valueID }

// SetValue replaces the value.
func (p *Property) SetValue(v string) error {
	if err := p.checkWritable(); err != nil {
		return err
	}
	p.value = v
	p.touch()
	return nil
}

// SetValueID replaces the value id.
func (p *Property) SetValueID(ref *Reference) error {
	if err := p.checkWritable(); err != nil {
		return err
	}
	p.valueID = ref
	p.touch()
	return nil
}

func (p *Property) newEmpty() Referable { return &Property{} }

func (p *Property) copyAttrs(src Referable) {
	s := src.(*Property)
	p.copyElement(&s.elementBase)
	p.valueType, p.value, p.valueID = s.valueType, s.value, s.valueID
}

func (p *Property) sameAttrs(other Referable) bool {
	o := other.(*Property)
	return p.sameElement(&o.elementBase) &&
		p.valueType == o.valueType && p.value == o.value && p.valueID.Equal(o.valueID)
}

// MultiLanguageProperty is a value given in several languages.
type MultiLanguageProperty struct {
	elementBase
	value   LangStringSet
	valueID *Reference
}

// NewMultiLanguageProperty creates a detached multi-language property.
func NewMultiLanguageProperty(idShort string, value LangStringSet) (*MultiLanguageProperty, error) {
	if err := validateDetachedIDShort(idShort); err != nil {
		return nil, err
	}
	if err := value.Validate(); err != nil {
		return nil, err
	}
	p := &MultiLanguageProperty{value: value.Clone()}
	p.idShort = idShort
	return p, nil
}

func (p *MultiLanguageProperty) KeyType() KeyType     { return KeyMultiLanguageProperty }
func (p *MultiLanguageProperty) Value() LangStringSet { return p.value.Clone() }
func (p *MultiLanguageProperty) ValueID() *Reference  { return p.valueID }

// SetValue replaces the texts.
func (p *MultiLanguageProperty) SetValue(v LangStringSet) error {
	if err := p.checkWritable(); err != nil {
		return err
	}
	if err := v.Validate(); err != nil {
		return err
	}
	p.value = v.Clone()
	p.touch()
	return nil
}

// SetValueID replaces the value id.
func (p *MultiLanguageProperty) SetValueID(ref *Reference) error {
	if err := p.checkWritable(); err != nil {
		return err
	}
	p.valueID = ref
	p.touch()
	return nil
}

func (p *MultiLanguageProperty) newEmpty() Referable { return &MultiLanguageProperty{} }

func (p *MultiLanguageProperty) copyAttrs(src Referable) {
	s := src.(*MultiLanguageProperty)
	p.copyElement(&s.elementBase)
	p.value, p.valueID = s.value.Clone(), s.valueID
}

func (p *MultiLanguageProperty) sameAttrs(other Referable) bool {
	o := other.(*MultiLanguageProperty)
	return p.sameElement(&o.elementBase) &&
		reflect.DeepEqual(p.value, o.value) && p.valueID.Equal(o.valueID)
}

// Range is an interval of typed values; either bound may be empty.
type Range struct {
	elementBase
	valueType DataType
	min, max  string
}

// NewRange creates a detached range.
func NewRange(idShort string, valueType DataType, min, max string) (*Range, error) {
	if err := validateDetachedIDShort(idShort); err != nil {
		return nil, err
	}
	if !valueType.Valid() {
		return nil, violation("", "range %q has invalid value type %q", idShort, valueType)
	}
	r := &Range{valueType: valueType, min: min, max: max}
	r.idShort = idShort
	return r, nil
}

func (r *Range) KeyType() KeyType    { return KeyRange }
func (r *Range) ValueType() DataType { return r.valueType }
func (r *Range) Min() string         { return r.min }
func (r *Range) Max() string         { return r.max }

// SetBounds replaces both bounds.
func (r *Range) SetBounds(min, max string) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.min, r.max = min, max
	r.touch()
	return nil
}

func (r *Range) newEmpty() Referable { return &Range{} }

func (r *Range) copyAttrs(src Referable) {
	s := src.(*Range)
	r.copyElement(&s.elementBase)
	r.valueType, r.min, r.max = s.valueType, s.min, s.max
}

func (r *Range) sameAttrs(other Referable) bool {
	o := other.(*Range)
	return r.sameElement(&o.elementBase) &&
		r.valueType == o.valueType && r.min == o.min && r.max == o.max
}

// Blob holds binary content inline.
type Blob struct {
	elementBase
	contentType string
	value       []byte
}

// NewBlob creates a detached blob. value is copied.
func NewBlob(idShort, contentType string, value []byte) (*Blob, error) {
	if err := validateDetachedIDShort(idShort); err != nil {
		return nil, err
	}
	if contentType == "" {
		return nil, violation("", "blob %q needs a content type", idShort)
	}
	b := &Blob{contentType: contentType, value: bytes.Clone(value)}
	b.idShort = idShort
	return b, nil
}

func (b *Blob) KeyType() KeyType    { return KeyBlob }
func (b *Blob) ContentType() string { return b.contentType }
func (b *Blob) Value() []byte       { return bytes.Clone(b.value) }

// SetValue replaces the content.
func (b *Blob) SetValue(contentType string, value []byte) error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	if contentType == "" {
		return violation("", "blob %q needs a content type", b.idShort)
	}
	b.contentType, b.value = contentType, bytes.Clone(value)
	b.touch()
	return nil
}

func (b *Blob) newEmpty() Referable { return &Blob{} }

func (b *Blob) copyAttrs(src Referable) {
	s := src.(*Blob)
	b.copyElement(&s.elementBase)
	b.contentType, b.value = s.contentType, bytes.Clone(s.value)
}

func (b *Blob) sameAttrs(other Referable) bool {
	o := other.(*Blob)
	return b.sameElement(&o.elementBase) &&
		b.contentType == o.contentType && bytes.Equal(b.value, o.value)
}

// File points at content by path or URI.
type File struct {
	elementBase
	contentType string
	value       string
}

// NewFile creates a detached file element.
func NewFile(idShort, contentType, value string) (*File, error) {
	if err := validateDetachedIDShort(idShort); err != nil {
		return nil, err
	}
	if contentType == "" {
		return nil, violation("", "file %q needs a content type", idShort)
	}
	f := &File{contentType: contentType, value: value}
	f.idShort = idShort
	return f, nil
}

func (f *File) KeyType() KeyType    { return KeyFile }
func (f *File) ContentType() string { return f.contentType }
func (f *File) Value() string       { return f.value }

// SetValue replaces the path.
func (f *File) SetValue(contentType, value string) error {
	if err := f.checkWritable(); err != nil {
		return err
	}
	if contentType == "" {
		return violation("", "file %q needs a content type", f.idShort)
	}
	f.contentType, f.value = contentType, value
	f.touch()
	return nil
}

func (f *File) newEmpty() Referable { return &File{} }

func (f *File) copyAttrs(src Referable) {
	s := src.(*File)
	f.copyElement(&s.elementBase)
	f.contentType, f.value = s.contentType, s.value
}

func (f *File) sameAttrs(other Referable) bool {
	o := other.(*File)
	return f.sameElement(&o.elementBase) && f.contentType == o.contentType && f.value == o.value
}

// ReferenceElement holds a Reference as its value.
type ReferenceElement struct {
	elementBase
	value *Reference
}

// NewReferenceElement creates a detached reference element; value may be nil.
func NewReferenceElement(idShort string, value *Reference) (*ReferenceElement, error) {
	if err := validateDetachedIDShort(idShort); err != nil {
		return nil, err
	}
	r := &ReferenceElement{value: value}
	r.idShort = idShort
	return r, nil
}

func (r *ReferenceElement) KeyType() KeyType  { return KeyReferenceElement }
func (r *ReferenceElement) Value() *Reference { return r.value }

// SetValue replaces the reference.
func (r *ReferenceElement) SetValue(ref *Reference) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	r.value = ref
	r.touch()
	return nil
}

func (r *ReferenceElement) newEmpty() Referable { return &ReferenceElement{} }

func (r *ReferenceElement) copyAttrs(src Referable) {
	s := src.(*ReferenceElement)
	r.copyElement(&s.elementBase)
	r.value = s.value
}

func (r *ReferenceElement) sameAttrs(other Referable) bool {
	o := other.(*ReferenceElement)
	return r.sameElement(&o.elementBase) && r.value.Equal(o.value)
}

// Capability marks an ability of the asset; it has no value.
type Capability struct {
	elementBase
}

// NewCapability creates a detached capability.
func NewCapability(idShort string) (*Capability, error) {
	if err := validateDetachedIDShort(idShort); err != nil {
		return nil, err
	}
	c := &Capability{}
	c.idShort = idShort
	return c, nil
}

func (c *Capability) KeyType() KeyType    { return KeyCapability }
func (c *Capability) newEmpty() Referable { return &Capability{} }

func (c *Capability) copyAttrs(src Referable) {
	c.copyElement(&src.(*Capability).elementBase)
}

func (c *Capability) sameAttrs(other Referable) bool {
	return c.sameElement(&other.(*Capability).elementBase)
}

// validateDetachedIDShort accepts an empty id_short, which is required for
// list members, or a well-formed one.
func validateDetachedIDShort(idShort string) error {
	if idShort == "" {
		return nil
	}
	return validateIDShort(idShort)
}
