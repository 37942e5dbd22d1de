package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Seq: 1, Op: "commit", Locator: "mem:a", ID: "urn:ex:a"},
		{Seq: 2, Op: "fetch", Locator: "mem:b", ID: "urn:ex:b", Path: []string{"Motor"}},
		{Seq: 3, Op: "commit", Locator: "mem:a", ID: "urn:ex:a", Error: ClassBackendUnavailable},
		{Seq: 4, Op: "update", Locator: "mem:a", ID: "urn:ex:a"},
	}
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	tests := []struct {
		name string
		ops  []string
		ok   bool
	}{
		{"consecutive", []string{"commit", "fetch"}, true},
		{"gaps allowed", []string{"commit", "update"}, true},
		{"repeats", []string{"commit", "fetch", "commit", "update"}, true},
		{"wrong order", []string{"update", "commit"}, false},
		{"too many repeats", []string{"commit", "commit", "commit"}, false},
		{"missing op", []string{"delete"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertTraceOrder(trace, Assertion{Type: AssertTraceOrder, Ops: tt.ops})
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var ae *AssertionError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, AssertTraceOrder, ae.Type)
		})
	}
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Op: "commit", Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Op: "load", Count: 0}))

	err := assertTraceCount(trace, Assertion{Op: "fetch", Count: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected: 3 occurrences of fetch")
	assert.Contains(t, err.Error(), "Actual: 1 occurrences")
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertTraceCount,
		Expected: "2 occurrences of commit",
		Actual:   "1 occurrences",
		Trace:    sampleTrace()[1:3],
	}

	want := "Assertion failed: trace_count\n" +
		"  Expected: 2 occurrences of commit\n" +
		"  Actual: 1 occurrences\n" +
		"\nFull trace:\n" +
		"  [2] fetch mem:b /Motor\n" +
		"  [3] commit mem:a -> BackendUnavailable\n"
	assert.Equal(t, want, err.Error())

	bare := &AssertionError{Type: AssertValue, Expected: `"6"`, Actual: `"5"`}
	assert.NotContains(t, bare.Error(), "Full trace")
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	result.Trace = sampleTrace()

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceCount, Op: "commit", Count: 2},
		{Type: AssertTraceOrder, Ops: []string{"fetch", "commit"}},
		{Type: AssertTraceCount, Op: "update", Count: 5},
		{Type: AssertValue, Tree: "S", Path: "P1", Equals: "1"},
		{Type: "final_state"},
	}, nil)

	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], "assertion[2]: Assertion failed: trace_count")
	assert.Equal(t, "assertion[3]: value requires the harness state", errs[1])
	assert.Equal(t, `assertion[4]: unknown assertion type "final_state"`, errs[2])
}

func TestEvaluateAssertions_TreeState(t *testing.T) {
	s := &Scenario{
		Name:        "state",
		Description: "d",
		Steps: []Step{
			{Op: OpNew, Tree: "A", ID: "urn:ex:a", IDShort: "A"},
			{Op: OpAdd, Tree: "A", IDShort: "P1", ValueType: "xs:int", Value: "5"},
			{Op: OpNew, Tree: "B", ID: "urn:ex:a", IDShort: "A"},
			{Op: OpBind, Tree: "A", Locator: "mem:a"},
			{Op: OpCommit, Tree: "A"},
		},
		Assertions: []Assertion{
			{Type: AssertValue, Tree: "A", Path: "P1", Equals: "6"},
			{Type: AssertStatus, Tree: "A", Equals: "dirty"},
			{Type: AssertCount, Tree: "B", Count: 1},
			{Type: AssertEqual, Tree: "A", Other: "B"},
			{Type: AssertStored, Locator: "mem:a", Path: "P1", Equals: "4"},
			{Type: AssertStored, Locator: "mem:missing", Path: "P1", Equals: "4"},
			{Type: AssertStored, Locator: "file:a", Path: "P1", Equals: "4"},
			{Type: AssertCount, Tree: "A", Path: "P1", Count: 0},
			{Type: AssertValue, Tree: "ghost", Path: "P1", Equals: "1"},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 9)
	assert.Contains(t, result.Errors[0], `Expected: A/P1 = "6"`)
	assert.Contains(t, result.Errors[1], "Actual: clean")
	assert.Contains(t, result.Errors[2], "Actual: 0 children")
	assert.Contains(t, result.Errors[3], "trees differ")
	assert.Contains(t, result.Errors[4], `Actual: "5"`)
	assert.Contains(t, result.Errors[5], "Expected: a document under mem:missing")
	assert.Contains(t, result.Errors[6], "needs a mem: locator")
	assert.Contains(t, result.Errors[7], `Property "P1" has no children`)
	assert.Contains(t, result.Errors[8], `unknown tree "ghost"`)
}
