package model

import (
	"reflect"
	"slices"
	"strings"
)

// DataType is an XSD datatype name such as "xs:string".
type DataType string

const (
	XsString   DataType = "xs:string"
	XsBoolean  DataType = "xs:boolean"
	XsInt      DataType = "xs:int"
	XsLong     DataType = "xs:long"
	XsDouble   DataType = "xs:double"
	XsDecimal  DataType = "xs:decimal"
	XsDateTime DataType = "xs:dateTime"
	XsAnyURI   DataType = "xs:anyURI"
)

// Valid reports whether d looks like an XSD datatype name. Values are not
// parsed against the datatype.
func (d DataType) Valid() bool {
	return strings.HasPrefix(string(d), "xs:") && len(d) > 3
}

// QualifierKind distinguishes value, concept and template qualifiers.
type QualifierKind string

const (
	ValueQualifier    QualifierKind = "ValueQualifier"
	ConceptQualifier  QualifierKind = "ConceptQualifier"
	TemplateQualifier QualifierKind = "TemplateQualifier"
)

// Qualifier refines an element with a typed value. Qualifiers are plain
// values, not Referables.
type Qualifier struct {
	Type       string
	ValueType  DataType
	Value      string
	ValueID    *Reference
	SemanticID *Reference
	Kind       QualifierKind
}

func (q Qualifier) validate() error {
	if q.Type == "" {
		return violation("", "qualifier type must not be empty")
	}
	if !q.ValueType.Valid() {
		return violation("", "qualifier %q has invalid value type %q", q.Type, q.ValueType)
	}
	return nil
}

// qualifiable holds a Qualifier list unique by type (AASd-021). The slice
// is replaced on every change, never mutated in place.
type qualifiable struct {
	qualifiers []Qualifier
}

// Qualifiers returns a copy of the qualifier list.
func (q *qualifiable) Qualifiers() []Qualifier { return slices.Clone(q.qualifiers) }

// Qualifier returns the qualifier of the given type.
func (q *qualifiable) Qualifier(typ string) (Qualifier, error) {
	for _, x := range q.qualifiers {
		if x.Type == typ {
			return x, nil
		}
	}
	return Qualifier{}, &KeyNotFoundError{Key: typ, Message: "no qualifier of this type"}
}

func checkQualifiers(qs []Qualifier) error {
	seen := make(map[string]bool, len(qs))
	for _, x := range qs {
		if err := x.validate(); err != nil {
			return err
		}
		if seen[x.Type] {
			return violation("AASd-021", "duplicate qualifier type %q", x.Type)
		}
		seen[x.Type] = true
	}
	return nil
}

func (q *qualifiable) sameQualifiers(o *qualifiable) bool {
	return reflect.DeepEqual(q.qualifiers, o.qualifiers)
}
