package model

import "slices"

// SubmodelElementCollection groups named elements without order.
type SubmodelElementCollection struct {
	elementBase
	value *NamespaceSet[SubmodelElement]
}

// NewSubmodelElementCollection creates an empty, detached collection.
func NewSubmodelElementCollection(idShort string) (*SubmodelElementCollection, error) {
	if err := validateDetachedIDShort(idShort); err != nil {
		return nil, err
	}
	c := newCollection()
	c.idShort = idShort
	return c, nil
}

func newCollection() *SubmodelElementCollection {
	c := &SubmodelElementCollection{}
	c.value = newNamespaceSet[SubmodelElement](c, nil)
	return c
}

func (c *SubmodelElementCollection) KeyType() KeyType { return KeySubmodelElementCollection }

// Value returns the member set.
func (c *SubmodelElementCollection) Value() *NamespaceSet[SubmodelElement] { return c.value }

func (c *SubmodelElementCollection) namespaceSets() []nameScope {
	return []nameScope{&c.value.setCore}
}

func (c *SubmodelElementCollection) newEmpty() Referable { return newCollection() }

func (c *SubmodelElementCollection) copyAttrs(src Referable) {
	c.copyElement(&src.(*SubmodelElementCollection).elementBase)
}

func (c *SubmodelElementCollection) sameAttrs(other Referable) bool {
	return c.sameElement(&other.(*SubmodelElementCollection).elementBase)
}

// SubmodelElementList holds unnamed elements of one kind, addressed by
// index.
type SubmodelElementList struct {
	elementBase
	orderRelevant         bool
	semanticIDListElement *Reference
	typeValueListElement  KeyType
	valueTypeListElement  DataType
	value                 *OrderedNamespaceSet[SubmodelElement]
}

// NewSubmodelElementList creates an empty, detached list whose members
// must all be of kind elementKind (AASd-108).
func NewSubmodelElementList(idShort string, elementKind KeyType) (*SubmodelElementList, error) {
	if err := validateDetachedIDShort(idShort); err != nil {
		return nil, err
	}
	if !concreteElementKind(elementKind) {
		return nil, violation("", "list %q: %q is not a concrete submodel element kind", idShort, elementKind)
	}
	l := newList()
	l.idShort = idShort
	l.typeValueListElement = elementKind
	l.orderRelevant = true
	return l, nil
}

func newList() *SubmodelElementList {
	l := &SubmodelElementList{}
	l.value = newOrderedSet[SubmodelElement](l, true, l.acceptMember)
	return l
}

func concreteElementKind(k KeyType) bool {
	switch k {
	case KeySubmodelElement, KeyDataElement, KeyEventElement:
		return false
	}
	return k.IsSubmodelElement()
}

func (l *SubmodelElementList) KeyType() KeyType                  { return KeySubmodelElementList }
func (l *SubmodelElementList) OrderRelevant() bool               { return l.orderRelevant }
func (l *SubmodelElementList) SemanticIDListElement() *Reference { return l.semanticIDListElement }
func (l *SubmodelElementList) TypeValueListElement() KeyType     { return l.typeValueListElement }
func (l *SubmodelElementList) ValueTypeListElement() DataType    { return l.valueTypeListElement }

// Value returns the member sequence.
func (l *SubmodelElementList) Value() *OrderedNamespaceSet[SubmodelElement] { return l.value }

// SetOrderRelevant sets whether member order is significant.
func (l *SubmodelElementList) SetOrderRelevant(v bool) error {
	if err := l.checkWritable(); err != nil {
		return err
	}
	l.orderRelevant = v
	l.touch()
	return nil
}

// SetSemanticIDListElement sets the semantic id every member must carry
// (AASd-107). Existing members with a different semantic id make it fail.
func (l *SubmodelElementList) SetSemanticIDListElement(ref *Reference) error {
	if err := l.checkWritable(); err != nil {
		return err
	}
	if ref != nil {
		for _, m := range l.value.items {
			if sid := m.SemanticID(); sid != nil && !sid.Equal(ref) {
				return violation("AASd-107", "list %q member semantic id %s differs from %s", l.idShort, sid, ref)
			}
		}
	}
	l.semanticIDListElement = ref
	l.touch()
	return nil
}

// SetValueTypeListElement sets the value type of Property and Range
// members (AASd-109).
func (l *SubmodelElementList) SetValueTypeListElement(dt DataType) error {
	if err := l.checkWritable(); err != nil {
		return err
	}
	if dt != "" && !dt.Valid() {
		return violation("", "list %q: invalid value type %q", l.idShort, dt)
	}
	for _, m := range l.value.items {
		if vt, ok := m.(valueTyped); ok && dt != "" && vt.ValueType() != dt {
			return violation("AASd-109", "list %q member has value type %s, not %s", l.idShort, vt.ValueType(), dt)
		}
	}
	l.valueTypeListElement = dt
	l.touch()
	return nil
}

type valueTyped interface {
	ValueType() DataType
}

func (l *SubmodelElementList) acceptMember(e SubmodelElement, replacing *referableBase) error {
	if e.KeyType() != l.typeValueListElement {
		return violation("AASd-108", "list %q holds %s, got %s", l.idShort, l.typeValueListElement, e.KeyType())
	}
	if vt, ok := e.(valueTyped); ok && l.valueTypeListElement != "" && vt.ValueType() != l.valueTypeListElement {
		return violation("AASd-109", "list %q holds values of type %s, got %s", l.idShort, l.valueTypeListElement, vt.ValueType())
	}
	if sid := e.SemanticID(); sid != nil {
		return l.checkSemanticID(sid, e.base(), replacing)
	}
	return nil
}

// checkSemanticID enforces AASd-107 and AASd-114 for a member (self) about
// to carry ref. replacing, if set, is the member self is about to replace.
func (l *SubmodelElementList) checkSemanticID(ref *Reference, self, replacing *referableBase) error {
	if l.semanticIDListElement != nil && !ref.Equal(l.semanticIDListElement) {
		return violation("AASd-107", "list %q requires semantic id %s, got %s", l.idShort, l.semanticIDListElement, ref)
	}
	for _, m := range l.value.items {
		if mb := m.base(); mb == self || mb == replacing {
			continue
		}
		if sid := m.SemanticID(); sid != nil && !sid.Equal(ref) {
			return violation("AASd-114", "list %q members must share one semantic id, got %s and %s", l.idShort, sid, ref)
		}
	}
	return nil
}

func (l *SubmodelElementList) namespaceSets() []nameScope {
	return []nameScope{&l.value.setCore}
}

func (l *SubmodelElementList) newEmpty() Referable { return newList() }

func (l *SubmodelElementList) copyAttrs(src Referable) {
	s := src.(*SubmodelElementList)
	l.copyElement(&s.elementBase)
	l.orderRelevant = s.orderRelevant
	l.semanticIDListElement = s.semanticIDListElement
	l.typeValueListElement = s.typeValueListElement
	l.valueTypeListElement = s.valueTypeListElement
}

func (l *SubmodelElementList) sameAttrs(other Referable) bool {
	o := other.(*SubmodelElementList)
	return l.sameElement(&o.elementBase) &&
		l.orderRelevant == o.orderRelevant &&
		l.semanticIDListElement.Equal(o.semanticIDListElement) &&
		l.typeValueListElement == o.typeValueListElement &&
		l.valueTypeListElement == o.valueTypeListElement
}

// EntityType says whether an entity's asset is managed on its own.
type EntityType string

const (
	CoManagedEntity   EntityType = "CoManagedEntity"
	SelfManagedEntity EntityType = "SelfManagedEntity"
)

// Entity describes an asset or part of one, with statements about it.
type Entity struct {
	elementBase
	entityType    EntityType
	globalAssetID string
	statements    *NamespaceSet[SubmodelElement]
}

// NewEntity creates a detached entity. A self-managed entity needs a global
// asset id; a co-managed one must not have one (AASd-014).
func NewEntity(idShort string, entityType EntityType, globalAssetID string) (*Entity, error) {
	if err := validateDetachedIDShort(idShort); err != nil {
		return nil, err
	}
	if err := checkEntityAsset(idShort, entityType, globalAssetID); err != nil {
		return nil, err
	}
	e := newEntity()
	e.idShort = idShort
	e.entityType, e.globalAssetID = entityType, globalAssetID
	return e, nil
}

func newEntity() *Entity {
	e := &Entity{}
	e.statements = newNamespaceSet[SubmodelElement](e, nil)
	return e
}

func checkEntityAsset(idShort string, t EntityType, globalAssetID string) error {
	switch t {
	case SelfManagedEntity:
		if globalAssetID == "" {
			return violation("AASd-014", "self-managed entity %q needs a global asset id", idShort)
		}
	case CoManagedEntity:
		if globalAssetID != "" {
			return violation("AASd-014", "co-managed entity %q cannot have a global asset id", idShort)
		}
	default:
		return violation("", "entity %q has unknown type %q", idShort, t)
	}
	return nil
}

func (e *Entity) KeyType() KeyType       { return KeyEntity }
func (e *Entity) EntityType() EntityType { return e.entityType }
func (e *Entity) GlobalAssetID() string  { return e.globalAssetID }

// Statements returns the statement set.
func (e *Entity) Statements() *NamespaceSet[SubmodelElement] { return e.statements }

// SetAsset changes the entity type and global asset id together.
func (e *Entity) SetAsset(t EntityType, globalAssetID string) error {
	if err := e.checkWritable(); err != nil {
		return err
	}
	if err := checkEntityAsset(e.idShort, t, globalAssetID); err != nil {
		return err
	}
	e.entityType, e.globalAssetID = t, globalAssetID
	e.touch()
	return nil
}

func (e *Entity) namespaceSets() []nameScope {
	return []nameScope{&e.statements.setCore}
}

func (e *Entity) newEmpty() Referable { return newEntity() }

func (e *Entity) copyAttrs(src Referable) {
	s := src.(*Entity)
	e.copyElement(&s.elementBase)
	e.entityType, e.globalAssetID = s.entityType, s.globalAssetID
}

func (e *Entity) sameAttrs(other Referable) bool {
	o := other.(*Entity)
	return e.sameElement(&o.elementBase) && e.entityType == o.entityType && e.globalAssetID == o.globalAssetID
}

// relation is the pair of references shared by both relationship kinds.
type relation struct {
	first, second *Reference
}

func (r *relation) First() *Reference  { return r.first }
func (r *relation) Second() *Reference { return r.second }

func (r *relation) sameRelation(o *relation) bool {
	return r.first.Equal(o.first) && r.second.Equal(o.second)
}

func checkRelation(idShort string, first, second *Reference) error {
	if first == nil || second == nil {
		return violation("", "relationship %q needs both ends", idShort)
	}
	return nil
}

// RelationshipElement relates two elements.
type RelationshipElement struct {
	elementBase
	relation
}

// NewRelationshipElement creates a detached relationship.
func NewRelationshipElement(idShort string, first, second *Reference) (*RelationshipElement, error) {
	if err := validateDetachedIDShort(idShort); err != nil {
		return nil, err
	}
	if err := checkRelation(idShort, first, second); err != nil {
		return nil, err
	}
	r := &RelationshipElement{relation: relation{first: first, second: second}}
	r.idShort = idShort
	return r, nil
}

func (r *RelationshipElement) KeyType() KeyType { return KeyRelationshipElement }

// SetEnds replaces both ends.
func (r *RelationshipElement) SetEnds(first, second *Reference) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if err := checkRelation(r.idShort, first, second); err != nil {
		return err
	}
	r.first, r.second = first, second
	r.touch()
	return nil
}

func (r *RelationshipElement) newEmpty() Referable { return &RelationshipElement{} }

func (r *RelationshipElement) copyAttrs(src Referable) {
	s := src.(*RelationshipElement)
	r.copyElement(&s.elementBase)
	r.relation = s.relation
}

func (r *RelationshipElement) sameAttrs(other Referable) bool {
	o := other.(*RelationshipElement)
	return r.sameElement(&o.elementBase) && r.sameRelation(&o.relation)
}

// AnnotatedRelationshipElement is a relationship with data element
// annotations.
type AnnotatedRelationshipElement struct {
	elementBase
	relation
	annotations *OrderedNamespaceSet[SubmodelElement]
}

// NewAnnotatedRelationshipElement creates a detached annotated relationship.
func NewAnnotatedRelationshipElement(idShort string, first, second *Reference) (*AnnotatedRelationshipElement, error) {
	if err := validateDetachedIDShort(idShort); err != nil {
		return nil, err
	}
	if err := checkRelation(idShort, first, second); err != nil {
		return nil, err
	}
	r := newAnnotated()
	r.idShort = idShort
	r.first, r.second = first, second
	return r, nil
}

func newAnnotated() *AnnotatedRelationshipElement {
	r := &AnnotatedRelationshipElement{}
	r.annotations = newOrderedSet[SubmodelElement](r, false, func(e SubmodelElement, _ *referableBase) error {
		if !KeyDataElement.Matches(e.KeyType()) {
			return violation("", "annotation %q must be a data element, got %s", e.IDShort(), e.KeyType())
		}
		return nil
	})
	return r
}

func (r *AnnotatedRelationshipElement) KeyType() KeyType { return KeyAnnotatedRelationshipElement }

// Annotations returns the annotation sequence.
func (r *AnnotatedRelationshipElement) Annotations() *OrderedNamespaceSet[SubmodelElement] {
	return r.annotations
}

// SetEnds replaces both ends.
func (r *AnnotatedRelationshipElement) SetEnds(first, second *Reference) error {
	if err := r.checkWritable(); err != nil {
		return err
	}
	if err := checkRelation(r.idShort, first, second); err != nil {
		return err
	}
	r.first, r.second = first, second
	r.touch()
	return nil
}

func (r *AnnotatedRelationshipElement) namespaceSets() []nameScope {
	return []nameScope{&r.annotations.setCore}
}

func (r *AnnotatedRelationshipElement) newEmpty() Referable { return newAnnotated() }

func (r *AnnotatedRelationshipElement) copyAttrs(src Referable) {
	s := src.(*AnnotatedRelationshipElement)
	r.copyElement(&s.elementBase)
	r.relation = s.relation
}

func (r *AnnotatedRelationshipElement) sameAttrs(other Referable) bool {
	o := other.(*AnnotatedRelationshipElement)
	return r.sameElement(&o.elementBase) && r.sameRelation(&o.relation)
}

// Operation declares input, output and in-out variables. The three sets
// share one id_short space.
type Operation struct {
	elementBase
	input, output, inoutput *OrderedNamespaceSet[SubmodelElement]
}

// NewOperation creates a detached operation without variables.
func NewOperation(idShort string) (*Operation, error) {
	if err := validateDetachedIDShort(idShort); err != nil {
		return nil, err
	}
	o := newOperation()
	o.idShort = idShort
	return o, nil
}

func newOperation() *Operation {
	o := &Operation{}
	o.input = newOrderedSet[SubmodelElement](o, false, nil)
	o.output = newOrderedSet[SubmodelElement](o, false, nil)
	o.inoutput = newOrderedSet[SubmodelElement](o, false, nil)
	return o
}

func (o *Operation) KeyType() KeyType { return KeyOperation }

func (o *Operation) InputVariables() *OrderedNamespaceSet[SubmodelElement]    { return o.input }
func (o *Operation) OutputVariables() *OrderedNamespaceSet[SubmodelElement]   { return o.output }
func (o *Operation) InOutputVariables() *OrderedNamespaceSet[SubmodelElement] { return o.inoutput }

func (o *Operation) namespaceSets() []nameScope {
	return []nameScope{&o.input.setCore, &o.output.setCore, &o.inoutput.setCore}
}

func (o *Operation) newEmpty() Referable { return newOperation() }

func (o *Operation) copyAttrs(src Referable) {
	o.copyElement(&src.(*Operation).elementBase)
}

func (o *Operation) sameAttrs(other Referable) bool {
	return o.sameElement(&other.(*Operation).elementBase)
}

// Direction of a BasicEventElement.
type Direction string

const (
	DirectionInput  Direction = "input"
	DirectionOutput Direction = "output"
)

// StateOfEvent says whether an event is emitted.
type StateOfEvent string

const (
	StateOn  StateOfEvent = "on"
	StateOff StateOfEvent = "off"
)

// BasicEventElement declares an event about an observed element.
type BasicEventElement struct {
	elementBase
	observed      *Reference
	direction     Direction
	state         StateOfEvent
	messageTopic  string
	messageBroker *Reference
	lastUpdate    string
	minInterval   string
	maxInterval   string
}

// NewBasicEventElement creates a detached event element.
func NewBasicEventElement(idShort string, observed *Reference, direction Direction, state StateOfEvent) (*BasicEventElement, error) {
	if err := validateDetachedIDShort(idShort); err != nil {
		return nil, err
	}
	if err := checkEvent(idShort, observed, direction, state); err != nil {
		return nil, err
	}
	e := &BasicEventElement{observed: observed, direction: direction, state: state}
	e.idShort = idShort
	return e, nil
}

func checkEvent(idShort string, observed *Reference, d Direction, s StateOfEvent) error {
	if observed == nil {
		return violation("", "event %q needs an observed reference", idShort)
	}
	if !slices.Contains([]Direction{DirectionInput, DirectionOutput}, d) {
		return violation("", "event %q has unknown direction %q", idShort, d)
	}
	if !slices.Contains([]StateOfEvent{StateOn, StateOff}, s) {
		return violation("", "event %q has unknown state %q", idShort, s)
	}
	return nil
}

func (e *BasicEventElement) KeyType() KeyType          { return KeyBasicEventElement }
func (e *BasicEventElement) Observed() *Reference      { return e.observed }
func (e *BasicEventElement) Direction() Direction      { return e.direction }
func (e *BasicEventElement) State() StateOfEvent       { return e.state }
func (e *BasicEventElement) MessageTopic() string      { return e.messageTopic }
func (e *BasicEventElement) MessageBroker() *Reference { return e.messageBroker }
func (e *BasicEventElement) LastUpdate() string        { return e.lastUpdate }
func (e *BasicEventElement) MinInterval() string       { return e.minInterval }
func (e *BasicEventElement) MaxInterval() string       { return e.maxInterval }

// EventDetails are the optional attributes of a BasicEventElement.
type EventDetails struct {
	MessageTopic  string
	MessageBroker *Reference
	LastUpdate    string
	MinInterval   string
	MaxInterval   string
}

// SetDetails replaces the optional attributes.
func (e *BasicEventElement) SetDetails(d EventDetails) error {
	if err := e.checkWritable(); err != nil {
		return err
	}
	e.messageTopic, e.messageBroker = d.MessageTopic, d.MessageBroker
	e.lastUpdate, e.minInterval, e.maxInterval = d.LastUpdate, d.MinInterval, d.MaxInterval
	e.touch()
	return nil
}

// SetState switches the event on or off.
func (e *BasicEventElement) SetState(s StateOfEvent) error {
	if err := e.checkWritable(); err != nil {
		return err
	}
	if err := checkEvent(e.idShort, e.observed, e.direction, s); err != nil {
		return err
	}
	e.state = s
	e.touch()
	return nil
}

func (e *BasicEventElement) newEmpty() Referable { return &BasicEventElement{} }

func (e *BasicEventElement) copyAttrs(src Referable) {
	s := src.(*BasicEventElement)
	e.copyElement(&s.elementBase)
	e.observed, e.direction, e.state = s.observed, s.direction, s.state
	e.messageTopic, e.messageBroker = s.messageTopic, s.messageBroker
	e.lastUpdate, e.minInterval, e.maxInterval = s.lastUpdate, s.minInterval, s.maxInterval
}

func (e *BasicEventElement) sameAttrs(other Referable) bool {
	o := other.(*BasicEventElement)
	return e.sameElement(&o.elementBase) &&
		e.observed.Equal(o.observed) && e.direction == o.direction && e.state == o.state &&
		e.messageTopic == o.messageTopic && e.messageBroker.Equal(o.messageBroker) &&
		e.lastUpdate == o.lastUpdate && e.minInterval == o.minInterval && e.maxInterval == o.maxInterval
}
