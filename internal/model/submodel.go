package model

import "slices"

// ModellingKind separates templates from instances.
type ModellingKind string

const (
	KindInstance ModellingKind = "Instance"
	KindTemplate ModellingKind = "Template"
)

// Submodel is an Identifiable holding an ordered tree of submodel elements.
type Submodel struct {
	identifiableBase
	qualifiable
	semanticID *Reference
	kind       ModellingKind
	elements   *OrderedNamespaceSet[SubmodelElement]
}

// NewSubmodel creates an empty, unbound submodel.
func NewSubmodel(id, idShort string) (*Submodel, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if err := validateDetachedIDShort(idShort); err != nil {
		return nil, err
	}
	sm := newSubmodel()
	sm.id, sm.idShort = id, idShort
	return sm, nil
}

func newSubmodel() *Submodel {
	sm := &Submodel{kind: KindInstance}
	sm.elements = newOrderedSet[SubmodelElement](sm, false, nil)
	return sm
}

func (sm *Submodel) KeyType() KeyType       { return KeySubmodel }
func (sm *Submodel) Kind() ModellingKind    { return sm.kind }
func (sm *Submodel) SemanticID() *Reference { return sm.semanticID }

// Elements returns the top-level element sequence.
func (sm *Submodel) Elements() *OrderedNamespaceSet[SubmodelElement] { return sm.elements }

// SetKind sets whether the submodel is a template or an instance.
func (sm *Submodel) SetKind(k ModellingKind) error {
	if err := sm.checkWritable(); err != nil {
		return err
	}
	if k != KindInstance && k != KindTemplate {
		return violation("", "unknown modelling kind %q", k)
	}
	sm.kind = k
	sm.touch()
	return nil
}

// SetSemanticID replaces the semantic id.
func (sm *Submodel) SetSemanticID(ref *Reference) error {
	return setSemanticID(&sm.referableBase, &sm.semanticID, ref)
}

// SetQualifiers replaces the qualifier list.
func (sm *Submodel) SetQualifiers(qs []Qualifier) error {
	return setQualifiers(&sm.referableBase, &sm.qualifiable, qs)
}

// AddQualifier appends q; its type must not be in use.
func (sm *Submodel) AddQualifier(q Qualifier) error {
	return setQualifiers(&sm.referableBase, &sm.qualifiable, append(slices.Clone(sm.qualifiers), q))
}

// RemoveQualifier removes the qualifier of the given type.
func (sm *Submodel) RemoveQualifier(typ string) error {
	return removeQualifier(&sm.referableBase, &sm.qualifiable, typ)
}

func (sm *Submodel) namespaceSets() []nameScope {
	return []nameScope{&sm.elements.setCore}
}

func (sm *Submodel) newEmpty() Referable { return newSubmodel() }

func (sm *Submodel) copyAttrs(src Referable) {
	s := src.(*Submodel)
	sm.copyIdentifiable(&s.identifiableBase)
	sm.semanticID = s.semanticID
	sm.qualifiers = slices.Clone(s.qualifiers)
	sm.kind = s.kind
}

func (sm *Submodel) sameAttrs(other Referable) bool {
	o := other.(*Submodel)
	return sm.sameIdentifiable(&o.identifiableBase) &&
		sm.semanticID.Equal(o.semanticID) &&
		sm.sameQualifiers(&o.qualifiable) &&
		sm.kind == o.kind
}

// AssetKind says whether an asset is a type or an instance.
type AssetKind string

const (
	AssetType     AssetKind = "Type"
	AssetInstance AssetKind = "Instance"
)

// AssetInformation identifies the asset a shell describes.
type AssetInformation struct {
	AssetKind     AssetKind
	GlobalAssetID string
	AssetType     string
}

// AssetAdministrationShell is the Identifiable describing one asset. It
// refers to its submodels by reference instead of containing them.
type AssetAdministrationShell struct {
	identifiableBase
	assetInformation AssetInformation
	derivedFrom      *Reference
	submodels        []*Reference
}

// NewAssetAdministrationShell creates an unbound shell.
func NewAssetAdministrationShell(id, idShort string, info AssetInformation) (*AssetAdministrationShell, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if err := validateDetachedIDShort(idShort); err != nil {
		return nil, err
	}
	if err := checkAssetInformation(info); err != nil {
		return nil, err
	}
	aas := &AssetAdministrationShell{assetInformation: info}
	aas.id, aas.idShort = id, idShort
	return aas, nil
}

func checkAssetInformation(info AssetInformation) error {
	if info.AssetKind != AssetType && info.AssetKind != AssetInstance {
		return violation("", "unknown asset kind %q", info.AssetKind)
	}
	return nil
}

func (a *AssetAdministrationShell) KeyType() KeyType                   { return KeyAssetAdministrationShell }
func (a *AssetAdministrationShell) AssetInformation() AssetInformation { return a.assetInformation }
func (a *AssetAdministrationShell) DerivedFrom() *Reference            { return a.derivedFrom }

// Submodels returns a copy of the submodel references.
func (a *AssetAdministrationShell) Submodels() []*Reference { return slices.Clone(a.submodels) }

// SetAssetInformation replaces the asset information.
func (a *AssetAdministrationShell) SetAssetInformation(info AssetInformation) error {
	if err := a.checkWritable(); err != nil {
		return err
	}
	if err := checkAssetInformation(info); err != nil {
		return err
	}
	a.assetInformation = info
	a.touch()
	return nil
}

// SetDerivedFrom sets the shell this one is derived from.
func (a *AssetAdministrationShell) SetDerivedFrom(ref *Reference) error {
	if err := a.checkWritable(); err != nil {
		return err
	}
	if ref != nil && (ref.Type() != ModelReference || ref.Key(0).Type != KeyAssetAdministrationShell) {
		return violation("", "derived-from must be a model reference to a shell, got %s", ref)
	}
	a.derivedFrom = ref
	a.touch()
	return nil
}

// AddSubmodel appends a model reference to a submodel. References are kept
// unique.
func (a *AssetAdministrationShell) AddSubmodel(ref *Reference) error {
	if err := a.checkWritable(); err != nil {
		return err
	}
	if ref == nil || ref.Type() != ModelReference || ref.Len() != 1 || ref.Key(0).Type != KeySubmodel {
		return violation("", "submodel reference must be a model reference with one Submodel key, got %s", ref)
	}
	if slices.ContainsFunc(a.submodels, ref.Equal) {
		return violation("", "shell %q already refers to %s", a.idShort, ref)
	}
	a.submodels = append(slices.Clone(a.submodels), ref)
	a.touch()
	return nil
}

// RemoveSubmodel removes a submodel reference.
func (a *AssetAdministrationShell) RemoveSubmodel(ref *Reference) error {
	i := slices.IndexFunc(a.submodels, ref.Equal)
	if i < 0 {
		return &KeyNotFoundError{Key: ref.String(), Message: "shell does not refer to this submodel"}
	}
	if err := a.checkWritable(); err != nil {
		return err
	}
	a.submodels = slices.Delete(slices.Clone(a.submodels), i, i+1)
	a.touch()
	return nil
}

func (a *AssetAdministrationShell) newEmpty() Referable { return &AssetAdministrationShell{} }

func (a *AssetAdministrationShell) copyAttrs(src Referable) {
	s := src.(*AssetAdministrationShell)
	a.copyIdentifiable(&s.identifiableBase)
	a.assetInformation = s.assetInformation
	a.derivedFrom = s.derivedFrom
	a.submodels = slices.Clone(s.submodels)
}

func (a *AssetAdministrationShell) sameAttrs(other Referable) bool {
	o := other.(*AssetAdministrationShell)
	return a.sameIdentifiable(&o.identifiableBase) &&
		a.assetInformation == o.assetInformation &&
		a.derivedFrom.Equal(o.derivedFrom) &&
		slices.EqualFunc(a.submodels, o.submodels, (*Reference).Equal)
}

// ConceptDescription defines the meaning of a semantic id.
type ConceptDescription struct {
	identifiableBase
	isCaseOf []*Reference
}

// NewConceptDescription creates an unbound concept description.
func NewConceptDescription(id, idShort string) (*ConceptDescription, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if err := validateDetachedIDShort(idShort); err != nil {
		return nil, err
	}
	cd := &ConceptDescription{}
	cd.id, cd.idShort = id, idShort
	return cd, nil
}

func (cd *ConceptDescription) KeyType() KeyType { return KeyConceptDescription }

// IsCaseOf returns a copy of the external definitions this concept matches.
func (cd *ConceptDescription) IsCaseOf() []*Reference { return slices.Clone(cd.isCaseOf) }

// SetIsCaseOf replaces the external definitions.
func (cd *ConceptDescription) SetIsCaseOf(refs []*Reference) error {
	if err := cd.checkWritable(); err != nil {
		return err
	}
	cd.isCaseOf = slices.Clone(refs)
	cd.touch()
	return nil
}

func (cd *ConceptDescription) newEmpty() Referable { return &ConceptDescription{} }

func (cd *ConceptDescription) copyAttrs(src Referable) {
	s := src.(*ConceptDescription)
	cd.copyIdentifiable(&s.identifiableBase)
	cd.isCaseOf = slices.Clone(s.isCaseOf)
}

func (cd *ConceptDescription) sameAttrs(other Referable) bool {
	o := other.(*ConceptDescription)
	return cd.sameIdentifiable(&o.identifiableBase) &&
		slices.EqualFunc(cd.isCaseOf, o.isCaseOf, (*Reference).Equal)
}
