package model

import "fmt"

// KeyType names the kind of element a Key points at.
// Concrete kinds equal the KeyType() of the element; abstract kinds
// (Referable, Identifiable, SubmodelElement, DataElement, EventElement)
// match any of their subkinds during resolution.
type KeyType string

const (
	KeyAssetAdministrationShell     KeyType = "AssetAdministrationShell"
	KeySubmodel                     KeyType = "Submodel"
	KeyConceptDescription           KeyType = "ConceptDescription"
	KeyAnnotatedRelationshipElement KeyType = "AnnotatedRelationshipElement"
	KeyBasicEventElement            KeyType = "BasicEventElement"
	KeyBlob                         KeyType = "Blob"
	KeyCapability                   KeyType = "Capability"
	KeyEntity                       KeyType = "Entity"
	KeyFile                         KeyType = "File"
	KeyMultiLanguageProperty        KeyType = "MultiLanguageProperty"
	KeyOperation                    KeyType = "Operation"
	KeyProperty                     KeyType = "Property"
	KeyRange                        KeyType = "Range"
	KeyReferenceElement             KeyType = "ReferenceElement"
	KeyRelationshipElement          KeyType = "RelationshipElement"
	KeySubmodelElementCollection    KeyType = "SubmodelElementCollection"
	KeySubmodelElementList          KeyType = "SubmodelElementList"

	// Abstract kinds.
	KeyReferable       KeyType = "Referable"
	KeyIdentifiable    KeyType = "Identifiable"
	KeySubmodelElement KeyType = "SubmodelElement"
	KeyDataElement     KeyType = "DataElement"
	KeyEventElement    KeyType = "EventElement"

	// Keys that leave the model.
	KeyGlobalReference   KeyType = "GlobalReference"
	KeyFragmentReference KeyType = "FragmentReference"
)

var identifiableKinds = map[KeyType]bool{
	KeyAssetAdministrationShell: true,
	KeySubmodel:                 true,
	KeyConceptDescription:       true,
	KeyIdentifiable:             true,
}

var dataElementKinds = map[KeyType]bool{
	KeyBlob:                  true,
	KeyFile:                  true,
	KeyMultiLanguageProperty: true,
	KeyProperty:              true,
	KeyRange:                 true,
	KeyReferenceElement:      true,
}

var submodelElementKinds = map[KeyType]bool{
	KeyAnnotatedRelationshipElement: true,
	KeyBasicEventElement:            true,
	KeyBlob:                         true,
	KeyCapability:                   true,
	KeyEntity:                       true,
	KeyFile:                         true,
	KeyMultiLanguageProperty:        true,
	KeyOperation:                    true,
	KeyProperty:                     true,
	KeyRange:                        true,
	KeyReferenceElement:             true,
	KeyRelationshipElement:          true,
	KeySubmodelElementCollection:    true,
	KeySubmodelElementList:          true,
	KeySubmodelElement:              true,
	KeyDataElement:                  true,
	KeyEventElement:                 true,
}

// Valid reports whether t is one of the declared key types.
func (t KeyType) Valid() bool {
	switch t {
	case KeyReferable, KeyGlobalReference, KeyFragmentReference:
		return true
	}
	return identifiableKinds[t] || submodelElementKinds[t]
}

// IsIdentifiable reports whether t addresses an Identifiable.
func (t KeyType) IsIdentifiable() bool { return identifiableKinds[t] }

// IsFragment reports whether t may follow the first key of a model
// reference: a non-identifiable referable kind or a fragment reference.
func (t KeyType) IsFragment() bool {
	return t == KeyFragmentReference || t == KeyReferable || submodelElementKinds[t]
}

// IsSubmodelElement reports whether t is a concrete or abstract submodel
// element kind.
func (t KeyType) IsSubmodelElement() bool { return submodelElementKinds[t] }

// Matches reports whether an object of kind actual satisfies key kind t.
func (t KeyType) Matches(actual KeyType) bool {
	switch t {
	case actual, KeyReferable:
		return true
	case KeyIdentifiable:
		return identifiableKinds[actual]
	case KeySubmodelElement:
		return submodelElementKinds[actual]
	case KeyDataElement:
		return dataElementKinds[actual]
	case KeyEventElement:
		return actual == KeyBasicEventElement
	}
	return false
}

// Key is one typed step of a Reference. Keys are comparable values, so
// equality and map hashing are by (Type, Value).
type Key struct {
	Type  KeyType
	Value string
}

// NewKey creates a key.
func NewKey(t KeyType, value string) Key {
	return Key{Type: t, Value: value}
}

// String renders the key as "[Type]value".
func (k Key) String() string {
	return fmt.Sprintf("[%s]%s", k.Type, k.Value)
}
