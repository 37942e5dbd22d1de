package codec

import (
	"encoding/base64"
	"fmt"

	"github.com/roach88/twinsync/internal/model"
)

// node is the wire shape of every Referable kind. modelType selects which
// of the optional fields apply.
type node struct {
	ModelType      string          `json:"modelType" yaml:"modelType"`
	ID             string          `json:"id,omitempty" yaml:"id,omitempty"`
	IDShort        string          `json:"idShort,omitempty" yaml:"idShort,omitempty"`
	Category       string          `json:"category,omitempty" yaml:"category,omitempty"`
	DisplayName    []langString    `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Description    []langString    `json:"description,omitempty" yaml:"description,omitempty"`
	Administration *administration `json:"administration,omitempty" yaml:"administration,omitempty"`
	SemanticID     *reference      `json:"semanticId,omitempty" yaml:"semanticId,omitempty"`
	Qualifiers     []qualifier     `json:"qualifiers,omitempty" yaml:"qualifiers,omitempty"`

	// Submodel
	Kind             string  `json:"kind,omitempty" yaml:"kind,omitempty"`
	SubmodelElements []*node `json:"submodelElements,omitempty" yaml:"submodelElements,omitempty"`

	// AssetAdministrationShell
	AssetInformation *assetInformation `json:"assetInformation,omitempty" yaml:"assetInformation,omitempty"`
	DerivedFrom      *reference        `json:"derivedFrom,omitempty" yaml:"derivedFrom,omitempty"`
	Submodels        []*reference      `json:"submodels,omitempty" yaml:"submodels,omitempty"`

	// ConceptDescription
	IsCaseOf []*reference `json:"isCaseOf,omitempty" yaml:"isCaseOf,omitempty"`

	// Data elements
	ValueType   string       `json:"valueType,omitempty" yaml:"valueType,omitempty"`
	Value       string       `json:"value,omitempty" yaml:"value,omitempty"`
	LangValue   []langString `json:"langValue,omitempty" yaml:"langValue,omitempty"`
	ValueID     *reference   `json:"valueId,omitempty" yaml:"valueId,omitempty"`
	Reference   *reference   `json:"reference,omitempty" yaml:"reference,omitempty"`
	Min         string       `json:"min,omitempty" yaml:"min,omitempty"`
	Max         string       `json:"max,omitempty" yaml:"max,omitempty"`
	ContentType string       `json:"contentType,omitempty" yaml:"contentType,omitempty"`

	// SubmodelElementCollection, SubmodelElementList
	Children              []*node    `json:"children,omitempty" yaml:"children,omitempty"`
	OrderRelevant         *bool      `json:"orderRelevant,omitempty" yaml:"orderRelevant,omitempty"`
	SemanticIDListElement *reference `json:"semanticIdListElement,omitempty" yaml:"semanticIdListElement,omitempty"`
	TypeValueListElement  string     `json:"typeValueListElement,omitempty" yaml:"typeValueListElement,omitempty"`
	ValueTypeListElement  string     `json:"valueTypeListElement,omitempty" yaml:"valueTypeListElement,omitempty"`

	// Entity
	EntityType    string  `json:"entityType,omitempty" yaml:"entityType,omitempty"`
	GlobalAssetID string  `json:"globalAssetId,omitempty" yaml:"globalAssetId,omitempty"`
	Statements    []*node `json:"statements,omitempty" yaml:"statements,omitempty"`

	// RelationshipElement, AnnotatedRelationshipElement
	First       *reference `json:"first,omitempty" yaml:"first,omitempty"`
	Second      *reference `json:"second,omitempty" yaml:"second,omitempty"`
	Annotations []*node    `json:"annotations,omitempty" yaml:"annotations,omitempty"`

	// Operation
	InputVariables    []*node `json:"inputVariables,omitempty" yaml:"inputVariables,omitempty"`
	OutputVariables   []*node `json:"outputVariables,omitempty" yaml:"outputVariables,omitempty"`
	InOutputVariables []*node `json:"inoutputVariables,omitempty" yaml:"inoutputVariables,omitempty"`

	// BasicEventElement
	Observed      *reference `json:"observed,omitempty" yaml:"observed,omitempty"`
	Direction     string     `json:"direction,omitempty" yaml:"direction,omitempty"`
	State         string     `json:"state,omitempty" yaml:"state,omitempty"`
	MessageTopic  string     `json:"messageTopic,omitempty" yaml:"messageTopic,omitempty"`
	MessageBroker *reference `json:"messageBroker,omitempty" yaml:"messageBroker,omitempty"`
	LastUpdate    string     `json:"lastUpdate,omitempty" yaml:"lastUpdate,omitempty"`
	MinInterval   string     `json:"minInterval,omitempty" yaml:"minInterval,omitempty"`
	MaxInterval   string     `json:"maxInterval,omitempty" yaml:"maxInterval,omitempty"`
}

type langString struct {
	Language string `json:"language" yaml:"language"`
	Text     string `json:"text" yaml:"text"`
}

type administration struct {
	Version    string     `json:"version,omitempty" yaml:"version,omitempty"`
	Revision   string     `json:"revision,omitempty" yaml:"revision,omitempty"`
	Creator    *reference `json:"creator,omitempty" yaml:"creator,omitempty"`
	TemplateID string     `json:"templateId,omitempty" yaml:"templateId,omitempty"`
}

type key struct {
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value" yaml:"value"`
}

type reference struct {
	Type               string     `json:"type" yaml:"type"`
	Keys               []key      `json:"keys" yaml:"keys"`
	ReferredSemanticID *reference `json:"referredSemanticId,omitempty" yaml:"referredSemanticId,omitempty"`
}

type qualifier struct {
	Type       string     `json:"type" yaml:"type"`
	ValueType  string     `json:"valueType" yaml:"valueType"`
	Value      string     `json:"value,omitempty" yaml:"value,omitempty"`
	ValueID    *reference `json:"valueId,omitempty" yaml:"valueId,omitempty"`
	SemanticID *reference `json:"semanticId,omitempty" yaml:"semanticId,omitempty"`
	Kind       string     `json:"kind,omitempty" yaml:"kind,omitempty"`
}

type assetInformation struct {
	AssetKind     string `json:"assetKind" yaml:"assetKind"`
	GlobalAssetID string `json:"globalAssetId,omitempty" yaml:"globalAssetId,omitempty"`
	AssetType     string `json:"assetType,omitempty" yaml:"assetType,omitempty"`
}

// ---- model -> node

func fromReference(r *model.Reference) *reference {
	if r == nil {
		return nil
	}
	out := &reference{Type: string(r.Type()), ReferredSemanticID: fromReference(r.ReferredSemanticID())}
	for _, k := range r.Keys() {
		out.Keys = append(out.Keys, key{Type: string(k.Type), Value: k.Value})
	}
	return out
}

func fromReferences(rs []*model.Reference) []*reference {
	var out []*reference
	for _, r := range rs {
		out = append(out, fromReference(r))
	}
	return out
}

func fromLangStrings(s model.LangStringSet) []langString {
	var out []langString
	for _, ls := range s {
		out = append(out, langString{Language: ls.Language, Text: ls.Text})
	}
	return out
}

func fromQualifiers(qs []model.Qualifier) []qualifier {
	var out []qualifier
	for _, q := range qs {
		out = append(out, qualifier{
			Type:       q.Type,
			ValueType:  string(q.ValueType),
			Value:      q.Value,
			ValueID:    fromReference(q.ValueID),
			SemanticID: fromReference(q.SemanticID),
			Kind:       string(q.Kind),
		})
	}
	return out
}

func fromElements[T model.SubmodelElement](items []T) []*node {
	var out []*node
	for _, e := range items {
		out = append(out, fromReferable(e))
	}
	return out
}

func fromReferable(r model.Referable) *node {
	n := &node{
		ModelType:   string(r.KeyType()),
		IDShort:     r.IDShort(),
		Category:    r.Category(),
		DisplayName: fromLangStrings(r.DisplayName()),
		Description: fromLangStrings(r.Description()),
	}
	if id, ok := r.(model.Identifiable); ok {
		n.ID = id.ID()
		if a := id.Administration(); a != nil {
			n.Administration = &administration{
				Version:    a.Version,
				Revision:   a.Revision,
				Creator:    fromReference(a.Creator),
				TemplateID: a.TemplateID,
			}
		}
	}
	if e, ok := r.(model.SubmodelElement); ok {
		n.SemanticID = fromReference(e.SemanticID())
		n.Qualifiers = fromQualifiers(e.Qualifiers())
	}

	switch v := r.(type) {
	case *model.Submodel:
		n.SemanticID = fromReference(v.SemanticID())
		n.Qualifiers = fromQualifiers(v.Qualifiers())
		if v.Kind() != model.KindInstance {
			n.Kind = string(v.Kind())
		}
		n.SubmodelElements = fromElements(v.Elements().Items())
	case *model.AssetAdministrationShell:
		info := v.AssetInformation()
		n.AssetInformation = &assetInformation{
			AssetKind:     string(info.AssetKind),
			GlobalAssetID: info.GlobalAssetID,
			AssetType:     info.AssetType,
		}
		n.DerivedFrom = fromReference(v.DerivedFrom())
		n.Submodels = fromReferences(v.Submodels())
	case *model.ConceptDescription:
		n.IsCaseOf = fromReferences(v.IsCaseOf())
	case *model.Property:
		n.ValueType = string(v.ValueType())
		n.Value = v.Value()
		n.ValueID = fromReference(v.ValueID())
	case *model.MultiLanguageProperty:
		n.LangValue = fromLangStrings(v.Value())
		n.ValueID = fromReference(v.ValueID())
	case *model.Range:
		n.ValueType = string(v.ValueType())
		n.Min, n.Max = v.Min(), v.Max()
	case *model.Blob:
		n.ContentType = v.ContentType()
		n.Value = base64.StdEncoding.EncodeToString(v.Value())
	case *model.File:
		n.ContentType = v.ContentType()
		n.Value = v.Value()
	case *model.ReferenceElement:
		n.Reference = fromReference(v.Value())
	case *model.SubmodelElementCollection:
		n.Children = fromElements(v.Value().Items())
	case *model.SubmodelElementList:
		if !v.OrderRelevant() {
			n.OrderRelevant = new(bool)
		}
		n.SemanticIDListElement = fromReference(v.SemanticIDListElement())
		n.TypeValueListElement = string(v.TypeValueListElement())
		n.ValueTypeListElement = string(v.ValueTypeListElement())
		n.Children = fromElements(v.Value().Items())
	case *model.Entity:
		n.EntityType = string(v.EntityType())
		n.GlobalAssetID = v.GlobalAssetID()
		n.Statements = fromElements(v.Statements().Items())
	case *model.RelationshipElement:
		n.First, n.Second = fromReference(v.First()), fromReference(v.Second())
	case *model.AnnotatedRelationshipElement:
		n.First, n.Second = fromReference(v.First()), fromReference(v.Second())
		n.Annotations = fromElements(v.Annotations().Items())
	case *model.Operation:
		n.InputVariables = fromElements(v.InputVariables().Items())
		n.OutputVariables = fromElements(v.OutputVariables().Items())
		n.InOutputVariables = fromElements(v.InOutputVariables().Items())
	case *model.BasicEventElement:
		n.Observed = fromReference(v.Observed())
		n.Direction = string(v.Direction())
		n.State = string(v.State())
		n.MessageTopic = v.MessageTopic()
		n.MessageBroker = fromReference(v.MessageBroker())
		n.LastUpdate, n.MinInterval, n.MaxInterval = v.LastUpdate(), v.MinInterval(), v.MaxInterval()
	}
	return n
}

// ---- node -> model

func toReference(r *reference) (*model.Reference, error) {
	if r == nil {
		return nil, nil
	}
	referred, err := toReference(r.ReferredSemanticID)
	if err != nil {
		return nil, fmt.Errorf("referredSemanticId: %w", err)
	}
	keys := make([]model.Key, len(r.Keys))
	for i, k := range r.Keys {
		keys[i] = model.NewKey(model.KeyType(k.Type), k.Value)
	}
	return model.NewReference(model.ReferenceType(r.Type), keys, referred)
}

func toReferences(rs []*reference) ([]*model.Reference, error) {
	var out []*model.Reference
	for i, r := range rs {
		ref, err := toReference(r)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, ref)
	}
	return out, nil
}

func toLangStrings(ls []langString) model.LangStringSet {
	if ls == nil {
		return nil
	}
	out := make(model.LangStringSet, len(ls))
	for i, l := range ls {
		out[i] = model.LangString{Language: l.Language, Text: l.Text}
	}
	return out
}

func toQualifiers(qs []qualifier) ([]model.Qualifier, error) {
	var out []model.Qualifier
	for _, q := range qs {
		valueID, err := toReference(q.ValueID)
		if err != nil {
			return nil, fmt.Errorf("qualifier %q valueId: %w", q.Type, err)
		}
		semanticID, err := toReference(q.SemanticID)
		if err != nil {
			return nil, fmt.Errorf("qualifier %q semanticId: %w", q.Type, err)
		}
		out = append(out, model.Qualifier{
			Type:       q.Type,
			ValueType:  model.DataType(q.ValueType),
			Value:      q.Value,
			ValueID:    valueID,
			SemanticID: semanticID,
			Kind:       model.QualifierKind(q.Kind),
		})
	}
	return out, nil
}

// adder is satisfied by both set flavours.
type adder interface {
	Add(model.SubmodelElement) error
}

func addChildren(set adder, nodes []*node) error {
	for i, c := range nodes {
		e, err := toElement(c)
		if err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
		if err := set.Add(e); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	return nil
}

// applyReferable sets the attributes every Referable shares.
func applyReferable(r model.Referable, n *node) error {
	if err := r.SetCategory(n.Category); err != nil {
		return err
	}
	if err := r.SetDisplayName(toLangStrings(n.DisplayName)); err != nil {
		return err
	}
	return r.SetDescription(toLangStrings(n.Description))
}

func toIdentifiable(n *node) (model.Identifiable, error) {
	var obj model.Identifiable
	switch model.KeyType(n.ModelType) {
	case model.KeySubmodel:
		sm, err := model.NewSubmodel(n.ID, n.IDShort)
		if err != nil {
			return nil, err
		}
		if n.Kind != "" {
			if err := sm.SetKind(model.ModellingKind(n.Kind)); err != nil {
				return nil, err
			}
		}
		sid, err := toReference(n.SemanticID)
		if err != nil {
			return nil, fmt.Errorf("semanticId: %w", err)
		}
		if err := sm.SetSemanticID(sid); err != nil {
			return nil, err
		}
		qs, err := toQualifiers(n.Qualifiers)
		if err != nil {
			return nil, err
		}
		if err := sm.SetQualifiers(qs); err != nil {
			return nil, err
		}
		if err := addChildren(sm.Elements(), n.SubmodelElements); err != nil {
			return nil, fmt.Errorf("submodelElements%w", err)
		}
		obj = sm
	case model.KeyAssetAdministrationShell:
		if n.AssetInformation == nil {
			return nil, fmt.Errorf("shell %q has no assetInformation", n.ID)
		}
		aas, err := model.NewAssetAdministrationShell(n.ID, n.IDShort, model.AssetInformation{
			AssetKind:     model.AssetKind(n.AssetInformation.AssetKind),
			GlobalAssetID: n.AssetInformation.GlobalAssetID,
			AssetType:     n.AssetInformation.AssetType,
		})
		if err != nil {
			return nil, err
		}
		derived, err := toReference(n.DerivedFrom)
		if err != nil {
			return nil, fmt.Errorf("derivedFrom: %w", err)
		}
		if err := aas.SetDerivedFrom(derived); err != nil {
			return nil, err
		}
		refs, err := toReferences(n.Submodels)
		if err != nil {
			return nil, fmt.Errorf("submodels%w", err)
		}
		for _, ref := range refs {
			if err := aas.AddSubmodel(ref); err != nil {
				return nil, err
			}
		}
		obj = aas
	case model.KeyConceptDescription:
		cd, err := model.NewConceptDescription(n.ID, n.IDShort)
		if err != nil {
			return nil, err
		}
		refs, err := toReferences(n.IsCaseOf)
		if err != nil {
			return nil, fmt.Errorf("isCaseOf%w", err)
		}
		if err := cd.SetIsCaseOf(refs); err != nil {
			return nil, err
		}
		obj = cd
	default:
		return nil, fmt.Errorf("modelType %q is not an identifiable kind", n.ModelType)
	}

	if err := applyReferable(obj, n); err != nil {
		return nil, err
	}
	if a := n.Administration; a != nil {
		creator, err := toReference(a.Creator)
		if err != nil {
			return nil, fmt.Errorf("administration creator: %w", err)
		}
		if err := obj.SetAdministration(&model.AdministrativeInformation{
			Version:    a.Version,
			Revision:   a.Revision,
			Creator:    creator,
			TemplateID: a.TemplateID,
		}); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func toElement(n *node) (model.SubmodelElement, error) {
	e, err := newElement(n)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", n.ModelType, n.IDShort, err)
	}
	if err := applyReferable(e, n); err != nil {
		return nil, err
	}
	sid, err := toReference(n.SemanticID)
	if err != nil {
		return nil, fmt.Errorf("%s %q semanticId: %w", n.ModelType, n.IDShort, err)
	}
	if err := e.SetSemanticID(sid); err != nil {
		return nil, err
	}
	qs, err := toQualifiers(n.Qualifiers)
	if err != nil {
		return nil, err
	}
	if err := e.SetQualifiers(qs); err != nil {
		return nil, err
	}
	return e, nil
}

// newElement builds the kind-specific part of an element, children
// included.
func newElement(n *node) (model.SubmodelElement, error) {
	switch model.KeyType(n.ModelType) {
	case model.KeyProperty:
		p, err := model.NewProperty(n.IDShort, model.DataType(n.ValueType), n.Value)
		if err != nil {
			return nil, err
		}
		valueID, err := toReference(n.ValueID)
		if err != nil {
			return nil, err
		}
		return p, p.SetValueID(valueID)

	case model.KeyMultiLanguageProperty:
		p, err := model.NewMultiLanguageProperty(n.IDShort, toLangStrings(n.LangValue))
		if err != nil {
			return nil, err
		}
		valueID, err := toReference(n.ValueID)
		if err != nil {
			return nil, err
		}
		return p, p.SetValueID(valueID)

	case model.KeyRange:
		return model.NewRange(n.IDShort, model.DataType(n.ValueType), n.Min, n.Max)

	case model.KeyBlob:
		data, err := base64.StdEncoding.DecodeString(n.Value)
		if err != nil {
			return nil, fmt.Errorf("blob value: %w", err)
		}
		return model.NewBlob(n.IDShort, n.ContentType, data)

	case model.KeyFile:
		return model.NewFile(n.IDShort, n.ContentType, n.Value)

	case model.KeyReferenceElement:
		ref, err := toReference(n.Reference)
		if err != nil {
			return nil, err
		}
		return model.NewReferenceElement(n.IDShort, ref)

	case model.KeyCapability:
		return model.NewCapability(n.IDShort)

	case model.KeySubmodelElementCollection:
		c, err := model.NewSubmodelElementCollection(n.IDShort)
		if err != nil {
			return nil, err
		}
		if err := addChildren(c.Value(), n.Children); err != nil {
			return nil, fmt.Errorf("children%w", err)
		}
		return c, nil

	case model.KeySubmodelElementList:
		l, err := model.NewSubmodelElementList(n.IDShort, model.KeyType(n.TypeValueListElement))
		if err != nil {
			return nil, err
		}
		if n.OrderRelevant != nil {
			if err := l.SetOrderRelevant(*n.OrderRelevant); err != nil {
				return nil, err
			}
		}
		if n.ValueTypeListElement != "" {
			if err := l.SetValueTypeListElement(model.DataType(n.ValueTypeListElement)); err != nil {
				return nil, err
			}
		}
		sid, err := toReference(n.SemanticIDListElement)
		if err != nil {
			return nil, err
		}
		if err := l.SetSemanticIDListElement(sid); err != nil {
			return nil, err
		}
		if err := addChildren(l.Value(), n.Children); err != nil {
			return nil, fmt.Errorf("children%w", err)
		}
		return l, nil

	case model.KeyEntity:
		e, err := model.NewEntity(n.IDShort, model.EntityType(n.EntityType), n.GlobalAssetID)
		if err != nil {
			return nil, err
		}
		if err := addChildren(e.Statements(), n.Statements); err != nil {
			return nil, fmt.Errorf("statements%w", err)
		}
		return e, nil

	case model.KeyRelationshipElement:
		first, second, err := toEnds(n)
		if err != nil {
			return nil, err
		}
		return model.NewRelationshipElement(n.IDShort, first, second)

	case model.KeyAnnotatedRelationshipElement:
		first, second, err := toEnds(n)
		if err != nil {
			return nil, err
		}
		r, err := model.NewAnnotatedRelationshipElement(n.IDShort, first, second)
		if err != nil {
			return nil, err
		}
		if err := addChildren(r.Annotations(), n.Annotations); err != nil {
			return nil, fmt.Errorf("annotations%w", err)
		}
		return r, nil

	case model.KeyOperation:
		o, err := model.NewOperation(n.IDShort)
		if err != nil {
			return nil, err
		}
		if err := addChildren(o.InputVariables(), n.InputVariables); err != nil {
			return nil, fmt.Errorf("inputVariables%w", err)
		}
		if err := addChildren(o.OutputVariables(), n.OutputVariables); err != nil {
			return nil, fmt.Errorf("outputVariables%w", err)
		}
		if err := addChildren(o.InOutputVariables(), n.InOutputVariables); err != nil {
			return nil, fmt.Errorf("inoutputVariables%w", err)
		}
		return o, nil

	case model.KeyBasicEventElement:
		observed, err := toReference(n.Observed)
		if err != nil {
			return nil, fmt.Errorf("observed: %w", err)
		}
		e, err := model.NewBasicEventElement(n.IDShort, observed,
			model.Direction(n.Direction), model.StateOfEvent(n.State))
		if err != nil {
			return nil, err
		}
		broker, err := toReference(n.MessageBroker)
		if err != nil {
			return nil, fmt.Errorf("messageBroker: %w", err)
		}
		return e, e.SetDetails(model.EventDetails{
			MessageTopic:  n.MessageTopic,
			MessageBroker: broker,
			LastUpdate:    n.LastUpdate,
			MinInterval:   n.MinInterval,
			MaxInterval:   n.MaxInterval,
		})
	}
	return nil, fmt.Errorf("unknown modelType %q", n.ModelType)
}

func toEnds(n *node) (*model.Reference, *model.Reference, error) {
	first, err := toReference(n.First)
	if err != nil {
		return nil, nil, fmt.Errorf("first: %w", err)
	}
	second, err := toReference(n.Second)
	if err != nil {
		return nil, nil, fmt.Errorf("second: %w", err)
	}
	return first, second, nil
}
