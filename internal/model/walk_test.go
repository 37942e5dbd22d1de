package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalk_PostOrder(t *testing.T) {
	sm := sampleSubmodel(t)

	var names []string
	err := Walk(sm, func(e SubmodelElement) error {
		name := e.IDShort()
		if name == "" {
			p := e.(*Property)
			name = "#" + p.Value()
		}
		names = append(names, name)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "Speed", "Temp", "Motor", "#1", "#2", "Readings"}, names)
}

func TestWalk_StopsOnError(t *testing.T) {
	sm := sampleSubmodel(t)
	stop := errors.New("stop")

	var count int
	err := Walk(sm, func(SubmodelElement) error {
		count++
		if count == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, count)
}

func TestWalkPre_SkipChildren(t *testing.T) {
	sm := sampleSubmodel(t)

	var names []string
	err := WalkPre(sm, func(r Referable) error {
		names = append(names, r.IDShort())
		if r.KeyType() == KeySubmodelElementCollection {
			return SkipChildren
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "P1", "Motor", "Readings", "", ""}, names)
}

func TestSemanticIDs(t *testing.T) {
	sm := sampleSubmodel(t)
	require.NoError(t, sm.SetSemanticID(GlobalReference("urn:sem:sm")))
	p1, err := sm.Elements().Get("P1")
	require.NoError(t, err)
	require.NoError(t, p1.SetSemanticID(GlobalReference("urn:sem:p1")))

	ids := SemanticIDs(sm)
	require.Len(t, ids, 2)
	assert.Equal(t, "[GlobalReference]urn:sem:sm", ids[0].String())
	assert.Equal(t, "[GlobalReference]urn:sem:p1", ids[1].String())
}
