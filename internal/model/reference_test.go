package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_Comparable(t *testing.T) {
	a := NewKey(KeyProperty, "P1")
	b := NewKey(KeyProperty, "P1")
	c := NewKey(KeyRange, "P1")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	seen := map[Key]int{a: 1}
	seen[b]++
	assert.Equal(t, 2, seen[a])
	assert.Equal(t, "[Property]P1", a.String())
}

func TestKeyType_Matches(t *testing.T) {
	tests := []struct {
		key    KeyType
		actual KeyType
		want   bool
	}{
		{KeyProperty, KeyProperty, true},
		{KeyProperty, KeyRange, false},
		{KeyReferable, KeySubmodel, true},
		{KeySubmodelElement, KeyEntity, true},
		{KeySubmodelElement, KeySubmodel, false},
		{KeyDataElement, KeyBlob, true},
		{KeyDataElement, KeyOperation, false},
		{KeyEventElement, KeyBasicEventElement, true},
		{KeyIdentifiable, KeyConceptDescription, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.key)+"/"+string(tt.actual), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.key.Matches(tt.actual))
		})
	}
}

func TestNewReference_Validation(t *testing.T) {
	tests := []struct {
		name       string
		typ        ReferenceType
		keys       []Key
		constraint string
	}{
		{"empty", ModelReference, nil, "AASd-121"},
		{"model starts with element", ModelReference, []Key{{KeyProperty, "P1"}}, "AASd-123"},
		{"identifiable after first key", ModelReference, []Key{{KeySubmodel, "urn:a"}, {KeySubmodel, "urn:b"}}, "AASd-125"},
		{"global key inside model reference", ModelReference, []Key{{KeySubmodel, "urn:a"}, {KeyGlobalReference, "x"}}, "AASd-125"},
		{"key after fragment", ModelReference, []Key{{KeySubmodel, "urn:a"}, {KeyFragmentReference, "f"}, {KeyProperty, "P"}}, "AASd-126"},
		{"list child not an index", ModelReference, []Key{{KeySubmodel, "urn:a"}, {KeySubmodelElementList, "L"}, {KeyProperty, "P"}}, "AASd-128"},
		{"external starts with model key", ExternalReference, []Key{{KeySubmodel, "urn:a"}}, "AASd-122"},
		{"external ends with element", ExternalReference, []Key{{KeyGlobalReference, "urn:a"}, {KeyProperty, "P"}}, "AASd-124"},
		{"empty value", ModelReference, []Key{{KeySubmodel, ""}}, ""},
		{"unknown key type", ModelReference, []Key{{"Bogus", "x"}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReference(tt.typ, tt.keys, nil)
			require.Error(t, err)
			var cv *ConstraintViolation
			require.ErrorAs(t, err, &cv)
			assert.Equal(t, tt.constraint, cv.Constraint)
		})
	}
}

func TestNewReference_Valid(t *testing.T) {
	keys := []Key{{KeySubmodel, "urn:ex:sm1"}, {KeySubmodelElementList, "Readings"}, {KeyProperty, "0"}}
	ref, err := NewReference(ModelReference, keys, GlobalReference("urn:sem:reading"))
	require.NoError(t, err)

	keys[0].Value = "mutated"
	assert.Equal(t, "urn:ex:sm1", ref.Key(0).Value, "keys are copied in")

	out := ref.Keys()
	out[1].Value = "mutated"
	assert.Equal(t, "Readings", ref.Key(1).Value, "keys are copied out")

	assert.Equal(t, 3, ref.Len())
	assert.True(t, ref.ReferredSemanticID().Equal(GlobalReference("urn:sem:reading")))
	assert.Equal(t, "[Submodel]urn:ex:sm1, [SubmodelElementList]Readings, [Property]0", ref.String())
}

func TestReference_Equal(t *testing.T) {
	a := MustReference(ModelReference, NewKey(KeySubmodel, "urn:a"), NewKey(KeyProperty, "P"))
	b := MustReference(ModelReference, NewKey(KeySubmodel, "urn:a"), NewKey(KeyProperty, "P"))
	c := MustReference(ExternalReference, NewKey(KeyGlobalReference, "urn:a"))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))

	var nilRef *Reference
	assert.True(t, nilRef.Equal(nil))
}

func TestParseReference(t *testing.T) {
	ref, err := ParseReference("[Submodel]urn:ex:sm1, [SubmodelElementCollection]Motor, [Property]Speed")
	require.NoError(t, err)
	assert.Equal(t, ModelReference, ref.Type())
	assert.Equal(t, 3, ref.Len())
	assert.Equal(t, NewKey(KeyProperty, "Speed"), ref.Key(2))

	ext, err := ParseReference("[GlobalReference]https://example.com/ids/cd/1")
	require.NoError(t, err)
	assert.Equal(t, ExternalReference, ext.Type())

	_, err = ParseReference("Submodel]x")
	assert.Error(t, err)

	_, err = ParseReference("")
	assert.Error(t, err)
}

func TestReference_Resolve(t *testing.T) {
	sm := sampleSubmodel(t)
	store, err := NewObjectStore(sm)
	require.NoError(t, err)

	t.Run("nested element", func(t *testing.T) {
		ref, err := ParseReference("[Submodel]urn:ex:sm1, [SubmodelElementCollection]Motor, [Property]Speed")
		require.NoError(t, err)

		got, err := ref.Resolve(store)
		require.NoError(t, err)

		motor, err := sm.Elements().Get("Motor")
		require.NoError(t, err)
		speed, err := motor.(*SubmodelElementCollection).Value().Get("Speed")
		require.NoError(t, err)
		assert.Same(t, speed, got, "resolution returns the live object")
	})

	t.Run("list index", func(t *testing.T) {
		ref, err := ParseReference("[Submodel]urn:ex:sm1, [SubmodelElementList]Readings, [Property]1")
		require.NoError(t, err)

		got, err := ResolveAs[*Property](ref, store)
		require.NoError(t, err)
		assert.Equal(t, "2", got.Value())
	})

	t.Run("abstract key kinds", func(t *testing.T) {
		ref, err := ParseReference("[Identifiable]urn:ex:sm1, [SubmodelElement]Motor, [DataElement]Temp")
		require.NoError(t, err)

		got, err := ref.Resolve(store)
		require.NoError(t, err)
		assert.Equal(t, "Temp", got.IDShort())
	})

	t.Run("fragment stops resolution", func(t *testing.T) {
		ref, err := ParseReference("[Submodel]urn:ex:sm1, [Property]P1, [FragmentReference]unit")
		require.NoError(t, err)

		got, err := ref.Resolve(store)
		require.NoError(t, err)
		assert.Equal(t, "P1", got.IDShort())
	})

	t.Run("unknown identifier", func(t *testing.T) {
		ref := MustReference(ModelReference, NewKey(KeySubmodel, "urn:ex:missing"))
		_, err := ref.Resolve(store)
		assert.True(t, IsKeyNotFound(err))
	})

	t.Run("missing child", func(t *testing.T) {
		ref := MustReference(ModelReference, NewKey(KeySubmodel, "urn:ex:sm1"), NewKey(KeyProperty, "Nope"))
		_, err := ref.Resolve(store)
		assert.True(t, IsKeyNotFound(err))
	})

	t.Run("index out of range", func(t *testing.T) {
		ref, err := ParseReference("[Submodel]urn:ex:sm1, [SubmodelElementList]Readings, [Property]7")
		require.NoError(t, err)
		_, err = ref.Resolve(store)
		assert.True(t, IsKeyNotFound(err))
	})

	t.Run("kind mismatch", func(t *testing.T) {
		ref := MustReference(ModelReference, NewKey(KeySubmodel, "urn:ex:sm1"), NewKey(KeyRange, "P1"))
		_, err := ref.Resolve(store)
		var tm *TypeMismatchError
		require.ErrorAs(t, err, &tm)
		assert.Equal(t, KeyRange, tm.Expected)
		assert.Equal(t, KeyProperty, tm.Actual)
	})

	t.Run("descend into a leaf", func(t *testing.T) {
		ref := MustReference(ModelReference, NewKey(KeySubmodel, "urn:ex:sm1"), NewKey(KeyProperty, "P1"), NewKey(KeyProperty, "X"))
		_, err := ref.Resolve(store)
		assert.True(t, IsKeyNotFound(err))
	})

	t.Run("external reference", func(t *testing.T) {
		_, err := GlobalReference("urn:x").Resolve(store)
		assert.True(t, IsConstraintViolation(err))
	})

	t.Run("go type mismatch", func(t *testing.T) {
		ref := MustReference(ModelReference, NewKey(KeySubmodel, "urn:ex:sm1"), NewKey(KeyProperty, "P1"))
		_, err := ResolveAs[*Range](ref, store)
		assert.True(t, IsTypeMismatch(err))
	})
}

func TestModelReferenceFrom_ResolvesBack(t *testing.T) {
	sm := sampleSubmodel(t)
	store, err := NewObjectStore(sm)
	require.NoError(t, err)

	var visited int
	err = WalkPre(sm, func(r Referable) error {
		visited++
		ref, err := ModelReferenceFrom(r)
		require.NoError(t, err)

		got, err := ref.Resolve(store)
		require.NoError(t, err)
		assert.Same(t, r.base(), got.base(), "path %s", ref)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 8, visited)

	readings, err := sm.Elements().Get("Readings")
	require.NoError(t, err)
	second, err := readings.(*SubmodelElementList).Value().At(1)
	require.NoError(t, err)
	ref, err := ModelReferenceFrom(second)
	require.NoError(t, err)
	assert.Equal(t, "[Submodel]urn:ex:sm1, [SubmodelElementList]Readings, [Property]1", ref.String())
}

func TestModelReferenceFrom_DetachedElement(t *testing.T) {
	_, err := ModelReferenceFrom(mustProperty(t, "Loose", "1"))
	assert.True(t, IsConstraintViolation(err))
}
