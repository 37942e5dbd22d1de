package model

// Value synchronization moves only the value of a single element, not its
// tree. The elements that carry such a value are Property, Range and
// MultiLanguageProperty.

// IsValueElement reports whether r carries a value that can be
// synchronized on its own.
func IsValueElement(r Referable) bool {
	switch r.(type) {
	case *Property, *Range, *MultiLanguageProperty:
		return true
	}
	return false
}

func notValueElement(r Referable) error {
	return &TypeMismatchError{Expected: KeyDataElement, Actual: r.KeyType(), Key: r.IDShort()}
}

// CopyValue copies the value of src into dst through dst's setters, so a
// held Lease or a read-only tree rejects it. Both must be value elements of
// the same kind; a Property or Range also keeps dst's value type.
func CopyValue(dst, src Referable) error {
	if !IsValueElement(dst) {
		return notValueElement(dst)
	}
	if src.KeyType() != dst.KeyType() {
		return &TypeMismatchError{Expected: dst.KeyType(), Actual: src.KeyType(), Key: dst.IDShort()}
	}
	switch d := dst.(type) {
	case *Property:
		s := src.(*Property)
		if s.valueType != d.valueType {
			return violation("", "property %q holds %s, got %s", d.idShort, d.valueType, s.valueType)
		}
		return d.SetValue(s.value)
	case *Range:
		s := src.(*Range)
		if s.valueType != d.valueType {
			return violation("", "range %q holds %s, got %s", d.idShort, d.valueType, s.valueType)
		}
		return d.SetBounds(s.min, s.max)
	default:
		return dst.(*MultiLanguageProperty).SetValue(src.(*MultiLanguageProperty).value)
	}
}

// ValueSources maps value elements to the locators their values live
// under. Elements are keyed by their model reference at mapping time, so a
// renamed or moved element has to be mapped again.
type ValueSources struct {
	byRef map[string]string
}

// NewValueSources returns an empty mapping.
func NewValueSources() *ValueSources {
	return &ValueSources{byRef: make(map[string]string)}
}

func valueKey(r Referable) (string, error) {
	if !IsValueElement(r) {
		return "", notValueElement(r)
	}
	ref, err := ModelReferenceFrom(r)
	if err != nil {
		return "", err
	}
	return ref.indexKey(), nil
}

// Map records locator as the value source of r, replacing any earlier
// one. r must be a value element contained in an Identifiable.
func (v *ValueSources) Map(r Referable, locator string) error {
	if locator == "" {
		return violation("", "locator must not be empty")
	}
	k, err := valueKey(r)
	if err != nil {
		return err
	}
	v.byRef[k] = locator
	return nil
}

// Unmap forgets the value source of r.
func (v *ValueSources) Unmap(r Referable) error {
	k, err := valueKey(r)
	if err != nil {
		return err
	}
	if _, ok := v.byRef[k]; !ok {
		return &KeyNotFoundError{Key: r.IDShort(), Message: "no value source mapped"}
	}
	delete(v.byRef, k)
	return nil
}

// Source returns the locator mapped to r.
func (v *ValueSources) Source(r Referable) (string, error) {
	k, err := valueKey(r)
	if err != nil {
		return "", err
	}
	locator, ok := v.byRef[k]
	if !ok {
		return "", &KeyNotFoundError{Key: r.IDShort(), Message: "no value source mapped"}
	}
	return locator, nil
}

// Len returns the number of mapped elements.
func (v *ValueSources) Len() int { return len(v.byRef) }
