package codec

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/twinsync/internal/model"
	"github.com/roach88/twinsync/internal/testutil"
)

func goldenSubmodel(t *testing.T) *model.Submodel {
	t.Helper()
	sm := testutil.SampleSubmodel(t)
	require.NoError(t, sm.SetSemanticID(model.GlobalReference("urn:sem:sm")))
	p1, err := sm.Elements().Get("P1")
	require.NoError(t, err)
	desc, err := model.NewLangStringSet("en", "Motor <speed> & load")
	require.NoError(t, err)
	require.NoError(t, p1.SetDescription(desc))
	return sm
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestCanonical_Golden(t *testing.T) {
	out, err := Canonical(goldenSubmodel(t))
	require.NoError(t, err)
	newGoldie(t).Assert(t, "sample_submodel", out)
}

func TestEncodeJSON_Golden(t *testing.T) {
	out, err := JSON().Encode(goldenSubmodel(t))
	require.NoError(t, err)
	newGoldie(t).Assert(t, "sample_submodel_json", out)
}

func TestRoundTrip(t *testing.T) {
	for _, c := range []*Codec{JSON(), YAML()} {
		t.Run(string(c.Format()), func(t *testing.T) {
			for name, build := range map[string]func(testing.TB) *model.Submodel{
				"sample":    testutil.SampleSubmodel,
				"all_kinds": testutil.AllKindsSubmodel,
			} {
				orig := build(t)
				data, err := c.Encode(orig)
				require.NoError(t, err, name)

				got, err := c.Decode(data)
				require.NoError(t, err, name)
				assert.True(t, model.DeepEqual(orig, got), "%s: decoded tree differs:\n%s", name, data)

				again, err := c.Encode(got)
				require.NoError(t, err, name)
				assert.Equal(t, string(data), string(again), "%s: encoding is stable", name)
			}
		})
	}
}

func TestRoundTrip_OtherIdentifiables(t *testing.T) {
	aas, err := model.NewAssetAdministrationShell("urn:ex:aas1", "Press", model.AssetInformation{
		AssetKind:     model.AssetInstance,
		GlobalAssetID: "urn:asset:press-7",
	})
	require.NoError(t, err)
	require.NoError(t, aas.AddSubmodel(model.MustReference(model.ModelReference,
		model.NewKey(model.KeySubmodel, testutil.SampleID))))
	require.NoError(t, aas.SetDerivedFrom(model.MustReference(model.ModelReference,
		model.NewKey(model.KeyAssetAdministrationShell, "urn:ex:aas-type"))))

	cd, err := model.NewConceptDescription("urn:cd:speed", "Speed")
	require.NoError(t, err)
	require.NoError(t, cd.SetIsCaseOf([]*model.Reference{model.GlobalReference("urn:eclass:0173-1")}))

	for _, obj := range []model.Identifiable{aas, cd} {
		for _, c := range []*Codec{JSON(), YAML()} {
			data, err := c.Encode(obj)
			require.NoError(t, err)
			got, err := c.Decode(data)
			require.NoError(t, err)
			assert.True(t, model.DeepEqual(obj, got), "%s %s", c.Format(), obj.KeyType())
		}
	}
}

func TestDecode_EnforcesModelConstraints(t *testing.T) {
	tests := []struct {
		name       string
		doc        string
		constraint string
	}{
		{
			name: "duplicate id_short",
			doc: `{"modelType":"Submodel","id":"urn:x","submodelElements":[
				{"modelType":"Capability","idShort":"A"},
				{"modelType":"Capability","idShort":"A"}]}`,
			constraint: "AASd-022",
		},
		{
			name: "list member of wrong kind",
			doc: `{"modelType":"Submodel","id":"urn:x","submodelElements":[
				{"modelType":"SubmodelElementList","idShort":"L","typeValueListElement":"Property",
				 "children":[{"modelType":"Capability"}]}]}`,
			constraint: "AASd-108",
		},
		{
			name: "named list member",
			doc: `{"modelType":"Submodel","id":"urn:x","submodelElements":[
				{"modelType":"SubmodelElementList","idShort":"L","typeValueListElement":"Capability",
				 "children":[{"modelType":"Capability","idShort":"C"}]}]}`,
			constraint: "AASd-120",
		},
		{
			name: "bad reference",
			doc: `{"modelType":"Submodel","id":"urn:x","semanticId":{"type":"ModelReference",
				"keys":[{"type":"Property","value":"P"}]}}`,
			constraint: "AASd-123",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := JSON().Decode([]byte(tt.doc))
			require.Error(t, err)
			var cv *model.ConstraintViolation
			require.ErrorAs(t, err, &cv)
			assert.Equal(t, tt.constraint, cv.Constraint)
		})
	}
}

func TestDecode_RejectsMalformedDocuments(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown field":        `{"modelType":"Submodel","id":"urn:x","colour":"red"}`,
		"unknown model type":   `{"modelType":"Gadget","id":"urn:x"}`,
		"element at the root":  `{"modelType":"Property","idShort":"P","valueType":"xs:int"}`,
		"trailing document":    `{"modelType":"Submodel","id":"urn:x"} {}`,
		"not json":             `modelType: Submodel`,
		"bad blob":             `{"modelType":"Submodel","id":"urn:x","submodelElements":[{"modelType":"Blob","idShort":"B","contentType":"a/b","value":"***"}]}`,
		"shell without assets": `{"modelType":"AssetAdministrationShell","id":"urn:x"}`,
	} {
		_, err := JSON().Decode([]byte(doc))
		assert.Error(t, err, name)
	}

	_, err := YAML().Decode([]byte("modelType: Submodel\nid: urn:x\ncolour: red\n"))
	assert.Error(t, err, "yaml unknown field")
	_, err = YAML().Decode(nil)
	assert.Error(t, err, "yaml empty document")
}

func TestRoundTrip_MultiLanguagePropertyValueID(t *testing.T) {
	sm := testutil.AllKindsSubmodel(t)
	for _, c := range []*Codec{JSON(), YAML()} {
		data, err := c.Encode(sm)
		require.NoError(t, err)
		back, err := c.Decode(data)
		require.NoError(t, err)

		got, err := model.Lookup(back.(*model.Submodel), "Greeting")
		require.NoError(t, err)
		mlp := got.(*model.MultiLanguageProperty)
		require.NotNil(t, mlp.ValueID(), "%s", c.Format())
		assert.True(t, mlp.ValueID().Equal(model.GlobalReference("urn:val:greeting")), "%s", c.Format())
	}
}

func TestRoundTrip_KeepsTextByteExact(t *testing.T) {
	// Decomposed "e" + combining acute must survive encode and decode
	// unchanged, in the identifier as well as in values.
	const id = "urn:ex:cafe\u0301"
	sm, err := model.NewSubmodel(id, "S")
	require.NoError(t, err)
	p, err := model.NewProperty("P", model.XsString, "e\u0301")
	require.NoError(t, err)
	require.NoError(t, sm.Elements().Add(p))

	for _, c := range []*Codec{JSON(), YAML()} {
		data, err := c.Encode(sm)
		require.NoError(t, err)
		back, err := c.Decode(data)
		require.NoError(t, err)

		assert.Equal(t, id, back.ID(), "%s", c.Format())
		got, err := model.Lookup(back.(*model.Submodel), "P")
		require.NoError(t, err)
		assert.Equal(t, "e\u0301", got.(*model.Property).Value(), "%s", c.Format())
		assert.True(t, model.DeepEqual(sm, back), "%s", c.Format())
	}
}

func TestDigest_FoldsCanonicallyEquivalentText(t *testing.T) {
	a, err := model.NewSubmodel("urn:ex:caf\u00e9", "S")
	require.NoError(t, err)
	b, err := model.NewSubmodel("urn:ex:cafe\u0301", "S")
	require.NoError(t, err)

	da, err := Digest(a)
	require.NoError(t, err)
	db, err := Digest(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func TestDigest(t *testing.T) {
	a := testutil.SampleSubmodel(t)
	b := testutil.SampleSubmodel(t)

	da, err := Digest(a)
	require.NoError(t, err)
	db, err := Digest(b)
	require.NoError(t, err)
	assert.Len(t, da, 64)
	assert.Equal(t, da, db, "equal trees have equal digests")

	p1, err := b.Elements().Get("P1")
	require.NoError(t, err)
	require.NoError(t, p1.(*model.Property).SetValue("6"))
	db, err = Digest(b)
	require.NoError(t, err)
	assert.NotEqual(t, da, db)

	// The digest does not depend on the wire format.
	data, err := YAML().Encode(a)
	require.NoError(t, err)
	fromYAML, err := YAML().Decode(data)
	require.NoError(t, err)
	dy, err := Digest(fromYAML)
	require.NoError(t, err)
	assert.Equal(t, da, dy)
}

func TestWriteCanonicalString(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", `"plain"`},
		{`a"b\c`, `"a\"b\\c"`},
		{"<&>", `"<&>"`},
		{"tab\there\n", `"tab\there\n"`},
		{"\x01", `"\u0001"`},
		{"\u2028", "\"\u2028\""},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		require.NoError(t, writeCanonicalString(&buf, tt.in))
		assert.Equal(t, tt.want, buf.String(), "input %q", tt.in)
	}
}

func TestCompareUTF16(t *testing.T) {
	// U+10000 is a surrogate pair in UTF-16 and sorts before U+FF61.
	assert.Negative(t, compareUTF16("\U00010000", "\uff61"))
	assert.Negative(t, compareUTF16("a", "b"))
	assert.Zero(t, compareUTF16("x", "x"))
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFor("twin.YAML"))
	assert.Equal(t, FormatYAML, FormatFor("twin.yml"))
	assert.Equal(t, FormatJSON, FormatFor("twin.json"))
	assert.Equal(t, FormatJSON, FormatFor("twin"))

	_, err := New("xml")
	assert.Error(t, err)
	c, err := New(FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, c.Format())
}

func TestCanonicalJSON(t *testing.T) {
	out, err := CanonicalJSON(map[string]any{
		"b":      []any{int64(2), "x"},
		"a":      true,
		"\u00e9": "Cafe\u0301",
	})
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":true,\"b\":[2,\"x\"],\"\u00e9\":\"Caf\u00e9\"}", string(out))

	_, err = CanonicalJSON(map[string]any{"f": 1.5})
	assert.Error(t, err)
	_, err = CanonicalJSON(map[string]any{"n": nil})
	assert.Error(t, err)
}
