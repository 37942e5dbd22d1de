package model

import (
	"reflect"

	"github.com/google/uuid"
)

// Identifiable is a Referable with a globally unique identifier. Only
// Identifiables can be bound to a backend.
type Identifiable interface {
	Referable
	ID() string
	Administration() *AdministrativeInformation
	SetAdministration(a *AdministrativeInformation) error

	// Bind attaches the element to locator. Binding an already bound element
	// to the same locator is a no-op; to a different one it fails.
	Bind(locator string) error
	Unbind() error
	Source() string
	Status() BindStatus
	Dirty() bool

	identifiable()
}

type identifiableBase struct {
	referableBase
	id             string
	administration *AdministrativeInformation
}

func (b *identifiableBase) identifiable() {}

// ID returns the global identifier.
func (b *identifiableBase) ID() string { return b.id }

// Administration returns a copy of the administrative information, or nil.
func (b *identifiableBase) Administration() *AdministrativeInformation {
	return b.administration.clone()
}

// SetAdministration replaces the administrative information.
func (b *identifiableBase) SetAdministration(a *AdministrativeInformation) error {
	if err := b.checkWritable(); err != nil {
		return err
	}
	if err := a.Validate(); err != nil {
		return err
	}
	b.administration = a.clone()
	b.touch()
	return nil
}

func (b *identifiableBase) copyIdentifiable(src *identifiableBase) {
	b.copyReferable(&src.referableBase)
	b.id = src.id
	b.administration = src.administration.clone()
}

func (b *identifiableBase) sameIdentifiable(o *identifiableBase) bool {
	return b.sameReferable(&o.referableBase) &&
		b.id == o.id &&
		reflect.DeepEqual(b.administration, o.administration)
}

func validateID(id string) error {
	if id == "" {
		return violation("", "identifier must not be empty")
	}
	return nil
}

// NewUUIDIdentifier returns a fresh "urn:uuid:" identifier.
func NewUUIDIdentifier() string {
	return "urn:uuid:" + uuid.NewString()
}
