// Package testutil holds fixtures shared by the package tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/twinsync/internal/model"
)

// SampleID is the identifier of SampleSubmodel.
const SampleID = "urn:ex:sm1"

// IntProperty returns a detached xs:int property.
func IntProperty(t testing.TB, idShort, value string) *model.Property {
	t.Helper()
	p, err := model.NewProperty(idShort, model.XsInt, value)
	require.NoError(t, err)
	return p
}

// Collection returns a detached collection holding members.
func Collection(t testing.TB, idShort string, members ...model.SubmodelElement) *model.SubmodelElementCollection {
	t.Helper()
	c, err := model.NewSubmodelElementCollection(idShort)
	require.NoError(t, err)
	for _, m := range members {
		require.NoError(t, c.Value().Add(m))
	}
	return c
}

// SampleSubmodel builds urn:ex:sm1 (idShort "S") with
//
//	P1 = 5
//	Motor { Speed = 1200, Temp = 40 }
//	Readings [ 1, 2 ]
func SampleSubmodel(t testing.TB) *model.Submodel {
	t.Helper()
	sm, err := model.NewSubmodel(SampleID, "S")
	require.NoError(t, err)
	require.NoError(t, sm.Elements().Add(IntProperty(t, "P1", "5")))
	require.NoError(t, sm.Elements().Add(Collection(t, "Motor",
		IntProperty(t, "Speed", "1200"),
		IntProperty(t, "Temp", "40"),
	)))

	list, err := model.NewSubmodelElementList("Readings", model.KeyProperty)
	require.NoError(t, err)
	require.NoError(t, list.SetValueTypeListElement(model.XsInt))
	require.NoError(t, list.Value().Add(IntProperty(t, "", "1")))
	require.NoError(t, list.Value().Add(IntProperty(t, "", "2")))
	require.NoError(t, sm.Elements().Add(list))
	return sm
}

// AllKindsSubmodel builds a submodel that uses every element kind and
// every optional attribute the codec knows about.
func AllKindsSubmodel(t testing.TB) *model.Submodel {
	t.Helper()
	must := require.New(t)

	sm, err := model.NewSubmodel("urn:ex:all", "AllKinds")
	must.NoError(err)
	must.NoError(sm.SetKind(model.KindTemplate))
	must.NoError(sm.SetSemanticID(model.GlobalReference("urn:sem:all")))
	must.NoError(sm.SetAdministration(&model.AdministrativeInformation{Version: "1", Revision: "2", TemplateID: "urn:tpl:1"}))
	must.NoError(sm.AddQualifier(model.Qualifier{Type: "Cardinality", ValueType: model.XsString, Value: "One", Kind: model.TemplateQualifier}))
	desc, err := model.NewLangStringSet("en", "All element kinds", "de", "Alle Elementarten")
	must.NoError(err)
	must.NoError(sm.SetDescription(desc))
	must.NoError(sm.SetCategory("PARAMETER"))

	p := IntProperty(t, "Count", "3")
	must.NoError(p.SetValueID(model.GlobalReference("urn:val:3")))
	must.NoError(p.SetSemanticID(model.GlobalReference("urn:sem:count")))

	text, err := model.NewLangStringSet("en", "hello", "fr", "bonjour")
	must.NoError(err)
	mlp, err := model.NewMultiLanguageProperty("Greeting", text)
	must.NoError(err)
	must.NoError(mlp.SetValueID(model.GlobalReference("urn:val:greeting")))

	rng, err := model.NewRange("Window", model.XsDouble, "0.5", "1.5")
	must.NoError(err)
	blob, err := model.NewBlob("Thumb", "image/png", []byte{0x89, 'P', 'N', 'G', 0x00, 0xff})
	must.NoError(err)
	file, err := model.NewFile("Manual", "application/pdf", "/docs/manual.pdf")
	must.NoError(err)

	countRef := model.MustReference(model.ModelReference,
		model.NewKey(model.KeySubmodel, "urn:ex:all"),
		model.NewKey(model.KeyProperty, "Count"))
	refElem, err := model.NewReferenceElement("Link", countRef)
	must.NoError(err)
	capability, err := model.NewCapability("CanWeld")
	must.NoError(err)

	list, err := model.NewSubmodelElementList("Samples", model.KeyProperty)
	must.NoError(err)
	must.NoError(list.SetOrderRelevant(false))
	must.NoError(list.SetValueTypeListElement(model.XsInt))
	must.NoError(list.SetSemanticIDListElement(model.GlobalReference("urn:sem:sample")))
	must.NoError(list.Value().Add(IntProperty(t, "", "7")))

	entity, err := model.NewEntity("Part", model.SelfManagedEntity, "urn:asset:part")
	must.NoError(err)
	must.NoError(entity.Statements().Add(IntProperty(t, "Weight", "12")))

	rel, err := model.NewRelationshipElement("Feeds", countRef, model.GlobalReference("urn:ext:sink"))
	must.NoError(err)
	ann, err := model.NewAnnotatedRelationshipElement("Drives", countRef, model.GlobalReference("urn:ext:motor"))
	must.NoError(err)
	must.NoError(ann.Annotations().Add(IntProperty(t, "Torque", "9")))

	op, err := model.NewOperation("Calibrate")
	must.NoError(err)
	must.NoError(op.InputVariables().Add(IntProperty(t, "Offset", "0")))
	must.NoError(op.OutputVariables().Add(IntProperty(t, "Error", "0")))
	must.NoError(op.InOutputVariables().Add(IntProperty(t, "Gain", "1")))

	ev, err := model.NewBasicEventElement("Overheat", countRef, model.DirectionOutput, model.StateOn)
	must.NoError(err)
	must.NoError(ev.SetDetails(model.EventDetails{MessageTopic: "plant/overheat", MaxInterval: "PT1M"}))

	for _, e := range []model.SubmodelElement{
		p, mlp, rng, blob, file, refElem, capability,
		Collection(t, "Group", IntProperty(t, "Inner", "1")),
		list, entity, rel, ann, op, ev,
	} {
		must.NoError(sm.Elements().Add(e))
	}
	return sm
}
