package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBind_StateMachine(t *testing.T) {
	sm := sampleSubmodel(t)
	assert.Equal(t, Unbound, sm.Status())
	assert.Equal(t, "", sm.Source())

	require.NoError(t, sm.Bind("mem:sm1"))
	assert.Equal(t, BoundClean, sm.Status())
	assert.Equal(t, "mem:sm1", sm.Source())

	p1, err := sm.Elements().Get("P1")
	require.NoError(t, err)
	require.NoError(t, p1.(*Property).SetValue("6"))
	assert.Equal(t, BoundDirty, sm.Status())
	assert.True(t, sm.Dirty())

	lease, err := Acquire(sm)
	require.NoError(t, err)
	lease.MarkClean()
	lease.Release()
	assert.Equal(t, BoundClean, sm.Status())

	require.NoError(t, sm.Unbind())
	assert.Equal(t, Unbound, sm.Status())
	assert.False(t, sm.Dirty())
}

func TestBind_SameLocatorIsNoOp(t *testing.T) {
	sm := mustSubmodel(t, "urn:ex:sm1", "S")
	require.NoError(t, sm.Bind("mem:a"))
	require.NoError(t, sm.Elements().Add(mustProperty(t, "P", "1")))

	require.NoError(t, sm.Bind("mem:a"))
	assert.Equal(t, BoundDirty, sm.Status(), "rebinding keeps the dirty flag")

	err := sm.Bind("mem:b")
	assert.True(t, IsConstraintViolation(err))
	assert.Equal(t, "mem:a", sm.Source())

	assert.True(t, IsConstraintViolation(sm.Bind("")))
}

func TestMutationsMarkDirty(t *testing.T) {
	mutations := map[string]func(sm *Submodel) error{
		"add": func(sm *Submodel) error {
			return sm.Elements().Add(mustProperty(t, "New", "1"))
		},
		"remove": func(sm *Submodel) error {
			return sm.Elements().RemoveByIDShort("P1")
		},
		"nested setter": func(sm *Submodel) error {
			motor, _ := sm.Elements().Get("Motor")
			speed, _ := motor.(*SubmodelElementCollection).Value().Get("Speed")
			return speed.(*Property).SetValue("900")
		},
		"list member": func(sm *Submodel) error {
			list, _ := sm.Elements().Get("Readings")
			return list.(*SubmodelElementList).Value().DeleteAt(0)
		},
		"rename": func(sm *Submodel) error {
			p, _ := sm.Elements().Get("P1")
			return p.SetIDShort("P2")
		},
		"root attribute": func(sm *Submodel) error {
			return sm.SetCategory("PARAMETER")
		},
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			sm := sampleSubmodel(t)
			require.NoError(t, sm.Bind("mem:sm1"))
			require.Equal(t, BoundClean, sm.Status())

			require.NoError(t, mutate(sm))
			assert.Equal(t, BoundDirty, sm.Status())
		})
	}
}

func TestFindSource(t *testing.T) {
	sm := sampleSubmodel(t)
	motor, err := sm.Elements().Get("Motor")
	require.NoError(t, err)
	speed, err := motor.(*SubmodelElementCollection).Value().Get("Speed")
	require.NoError(t, err)

	_, ok := FindSource(speed)
	assert.False(t, ok, "nothing bound yet")

	require.NoError(t, sm.Bind("mem:sm1"))

	src, path, ok := FindSourcePath(speed)
	require.True(t, ok)
	assert.Same(t, sm, src)
	assert.Equal(t, []string{"Motor", "Speed"}, path)

	src, path, ok = FindSourcePath(sm)
	require.True(t, ok)
	assert.Same(t, sm, src)
	assert.Empty(t, path)

	list, err := sm.Elements().Get("Readings")
	require.NoError(t, err)
	second, err := list.(*SubmodelElementList).Value().At(1)
	require.NoError(t, err)
	_, path, ok = FindSourcePath(second)
	require.True(t, ok)
	assert.Equal(t, []string{"Readings", "1"}, path)
}

func TestLease_BlocksMutation(t *testing.T) {
	sm := sampleSubmodel(t)
	require.NoError(t, sm.Bind("mem:sm1"))

	lease, err := Acquire(sm)
	require.NoError(t, err)
	assert.Equal(t, "mem:sm1", lease.Locator())
	assert.Same(t, sm, lease.Root())

	_, err = Acquire(sm)
	assert.True(t, errors.Is(err, ErrConcurrentAccess))

	err = sm.Elements().Add(mustProperty(t, "New", "1"))
	assert.ErrorIs(t, err, ErrConcurrentAccess)
	assert.Equal(t, 3, sm.Elements().Len())

	motor, err := sm.Elements().Get("Motor")
	require.NoError(t, err)
	speed, err := motor.(*SubmodelElementCollection).Value().Get("Speed")
	require.NoError(t, err)
	assert.ErrorIs(t, speed.(*Property).SetValue("0"), ErrConcurrentAccess)
	assert.ErrorIs(t, sm.Unbind(), ErrConcurrentAccess)
	assert.ErrorIs(t, UpdateFrom(sm, Clone(sm)), ErrConcurrentAccess)

	lease.Release()
	lease.Release()

	require.NoError(t, speed.(*Property).SetValue("0"))
	assert.Equal(t, BoundDirty, sm.Status())
}

func TestAcquire_Unbound(t *testing.T) {
	_, err := Acquire(mustSubmodel(t, "urn:ex:sm1", "S"))
	assert.True(t, IsConstraintViolation(err))
}

func TestLookupPath_InvertsFindSourcePath(t *testing.T) {
	sm := sampleSubmodel(t)
	require.NoError(t, sm.Bind("mem:sm1"))

	err := Walk(sm, func(e SubmodelElement) error {
		_, path, ok := FindSourcePath(e)
		require.True(t, ok)
		got, err := LookupPath(sm, path)
		require.NoError(t, err)
		assert.Same(t, e, got, "path %v", path)
		return nil
	})
	require.NoError(t, err)

	_, err = LookupPath(sm, []string{"P1", "x"})
	assert.True(t, IsKeyNotFound(err))
	_, err = LookupPath(sm, []string{"Readings", "nine"})
	assert.True(t, IsKeyNotFound(err))
}
