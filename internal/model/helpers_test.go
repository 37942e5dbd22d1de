package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustProperty(t *testing.T, idShort, value string) *Property {
	t.Helper()
	p, err := NewProperty(idShort, XsInt, value)
	require.NoError(t, err)
	return p
}

func mustSubmodel(t *testing.T, id, idShort string) *Submodel {
	t.Helper()
	sm, err := NewSubmodel(id, idShort)
	require.NoError(t, err)
	return sm
}

func mustCollection(t *testing.T, idShort string) *SubmodelElementCollection {
	t.Helper()
	c, err := NewSubmodelElementCollection(idShort)
	require.NoError(t, err)
	return c
}

// sampleSubmodel builds urn:ex:sm1 with
//
//	P1 = 5
//	Motor { Speed = 1200, Temp = 40 }
//	Readings [ 1, 2 ]
func sampleSubmodel(t *testing.T) *Submodel {
	t.Helper()
	sm := mustSubmodel(t, "urn:ex:sm1", "S")
	require.NoError(t, sm.Elements().Add(mustProperty(t, "P1", "5")))

	motor := mustCollection(t, "Motor")
	require.NoError(t, motor.Value().Add(mustProperty(t, "Speed", "1200")))
	require.NoError(t, motor.Value().Add(mustProperty(t, "Temp", "40")))
	require.NoError(t, sm.Elements().Add(motor))

	list, err := NewSubmodelElementList("Readings", KeyProperty)
	require.NoError(t, err)
	require.NoError(t, list.Value().Add(mustProperty(t, "", "1")))
	require.NoError(t, list.Value().Add(mustProperty(t, "", "2")))
	require.NoError(t, sm.Elements().Add(list))
	return sm
}
