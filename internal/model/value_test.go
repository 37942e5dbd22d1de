package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLangStrings(t *testing.T, pairs ...string) LangStringSet {
	t.Helper()
	set, err := NewLangStringSet(pairs...)
	require.NoError(t, err)
	return set
}

func TestCopyValue(t *testing.T) {
	rng := func(vt DataType, min, max string) *Range {
		r, err := NewRange("R", vt, min, max)
		require.NoError(t, err)
		return r
	}
	mlp := func(pairs ...string) *MultiLanguageProperty {
		p, err := NewMultiLanguageProperty("M", mustLangStrings(t, pairs...))
		require.NoError(t, err)
		return p
	}
	str, err := NewProperty("S", XsString, "x")
	require.NoError(t, err)

	tests := []struct {
		name    string
		dst     Referable
		src     Referable
		check   func(t *testing.T, dst Referable)
		wantErr func(error) bool
	}{
		{
			name:  "property",
			dst:   mustProperty(t, "P", "1"),
			src:   mustProperty(t, "", "2"),
			check: func(t *testing.T, dst Referable) { assert.Equal(t, "2", dst.(*Property).Value()) },
		},
		{
			name: "range",
			dst:  rng(XsInt, "0", "1"),
			src:  rng(XsInt, "", "9"),
			check: func(t *testing.T, dst Referable) {
				assert.Equal(t, "", dst.(*Range).Min())
				assert.Equal(t, "9", dst.(*Range).Max())
			},
		},
		{
			name: "multi-language property",
			dst:  mlp("en", "hello"),
			src:  mlp("de", "hallo", "en", "hi"),
			check: func(t *testing.T, dst Referable) {
				assert.Equal(t, mustLangStrings(t, "de", "hallo", "en", "hi"), dst.(*MultiLanguageProperty).Value())
			},
		},
		{
			name:    "different kinds",
			dst:     mustProperty(t, "P", "1"),
			src:     rng(XsInt, "0", "1"),
			wantErr: IsTypeMismatch,
		},
		{
			name:    "property value type differs",
			dst:     mustProperty(t, "P", "1"),
			src:     str,
			wantErr: IsConstraintViolation,
		},
		{
			name:    "range value type differs",
			dst:     rng(XsInt, "0", "1"),
			src:     rng(XsDouble, "0.5", "1"),
			wantErr: IsConstraintViolation,
		},
		{
			name:    "not a value element",
			dst:     mustCollection(t, "C"),
			src:     mustCollection(t, "C"),
			wantErr: IsTypeMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CopyValue(tt.dst, tt.src)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, tt.wantErr(err), "unexpected error %v", err)
				return
			}
			require.NoError(t, err)
			tt.check(t, tt.dst)
		})
	}
}

func TestCopyValue_RejectedWhileLeased(t *testing.T) {
	sm := sampleSubmodel(t)
	require.NoError(t, sm.Bind("mem:sm1"))
	lease, err := Acquire(sm)
	require.NoError(t, err)
	defer lease.Release()

	p1, err := sm.Elements().Get("P1")
	require.NoError(t, err)
	assert.ErrorIs(t, CopyValue(p1, mustProperty(t, "", "7")), ErrConcurrentAccess)
	assert.Equal(t, "5", p1.(*Property).Value())
	assert.Equal(t, BoundClean, sm.Status())
}

func TestValueSources(t *testing.T) {
	sm := sampleSubmodel(t)
	p1, err := sm.Elements().Get("P1")
	require.NoError(t, err)
	motor, err := sm.Elements().Get("Motor")
	require.NoError(t, err)
	speed, err := motor.(*SubmodelElementCollection).Value().Get("Speed")
	require.NoError(t, err)

	v := NewValueSources()
	require.NoError(t, v.Map(p1, "mem:p1"))
	require.NoError(t, v.Map(speed, "mem:speed"))
	require.NoError(t, v.Map(p1, "mem:p1-v2"))
	assert.Equal(t, 2, v.Len())

	got, err := v.Source(p1)
	require.NoError(t, err)
	assert.Equal(t, "mem:p1-v2", got)

	// A second tree with the same id and layout shares the mapping.
	twin := sampleSubmodel(t)
	twinMotor, err := twin.Elements().Get("Motor")
	require.NoError(t, err)
	twinSpeed, err := twinMotor.(*SubmodelElementCollection).Value().Get("Speed")
	require.NoError(t, err)
	got, err = v.Source(twinSpeed)
	require.NoError(t, err)
	assert.Equal(t, "mem:speed", got)

	require.NoError(t, v.Unmap(p1))
	_, err = v.Source(p1)
	assert.True(t, IsKeyNotFound(err))
	assert.True(t, IsKeyNotFound(v.Unmap(p1)))
	assert.Equal(t, 1, v.Len())
}

func TestValueSources_Rejects(t *testing.T) {
	sm := sampleSubmodel(t)
	p1, err := sm.Elements().Get("P1")
	require.NoError(t, err)
	motor, err := sm.Elements().Get("Motor")
	require.NoError(t, err)

	v := NewValueSources()
	assert.True(t, IsConstraintViolation(v.Map(p1, "")))
	assert.True(t, IsTypeMismatch(v.Map(motor, "mem:motor")))
	assert.True(t, IsConstraintViolation(v.Map(mustProperty(t, "Loose", "1"), "mem:loose")))
	assert.Zero(t, v.Len())
}
