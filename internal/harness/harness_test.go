package harness

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/twinsync/internal/backend"
	"github.com/roach88/twinsync/internal/model"
)

func TestRun_Scenarios(t *testing.T) {
	for _, name := range []string{"commit_then_fetch", "duplicate_add", "motor_sync", "failure_modes", "value_sync"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_CommitThenFetchTrace(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/commit_then_fetch.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	require.Len(t, result.Trace, 3)
	for i, ev := range result.Trace {
		assert.Equal(t, int64(i+1), ev.Seq)
		assert.Equal(t, "mem:L", ev.Locator)
		assert.Equal(t, "urn:ex:sm1", ev.ID)
		assert.Empty(t, ev.Error)
	}
	assert.Equal(t, "fetch", result.Trace[2].Op)
}

func TestRun_UnexpectedErrorStopsScenario(t *testing.T) {
	s := &Scenario{
		Name:        "stops",
		Description: "d",
		Steps: []Step{
			{Op: OpNew, Tree: "S", ID: "urn:ex:sm1", IDShort: "S"},
			{Op: OpCommit, Tree: "S"},
			{Op: OpAdd, Tree: "S", IDShort: "P1", Value: "x"},
		},
		Assertions: []Assertion{{Type: AssertCount, Tree: "S", Count: 1}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "steps[1] (commit): unexpected error")
	assert.Contains(t, result.Errors[0], "no bound ancestor")
}

func TestRun_ExpectationMismatch(t *testing.T) {
	s := &Scenario{
		Name:        "mismatch",
		Description: "d",
		Steps: []Step{
			{Op: OpNew, Tree: "S", ID: "urn:ex:sm1", IDShort: "S"},
			{Op: OpAdd, Tree: "S", IDShort: "P1", Expect: &Expect{Error: ClassConstraintViolation}},
			{Op: OpSet, Tree: "S", Path: "Missing", Value: "1", Expect: &Expect{Error: ClassTypeMismatch}},
			{Op: OpBind, Tree: "S", Locator: "mem:x", Expect: &Expect{Status: "dirty"}},
		},
		Assertions: []Assertion{{Type: AssertValue, Tree: "S", Path: "P1", Equals: "nope"}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Equal(t, "steps[1] (add): expected ConstraintViolation, got success", result.Errors[0])
	assert.Contains(t, result.Errors[1], "steps[2] (set): expected TypeMismatch, got KeyNotFound")
	assert.Equal(t, "steps[3] (bind): expected status dirty, got clean", result.Errors[2])
	assert.Contains(t, result.Errors[3], "assertion[0]: Assertion failed: value")
}

func TestRun_BrokenScenario(t *testing.T) {
	tests := []struct {
		name    string
		steps   []Step
		wantErr string
	}{
		{
			name:    "unknown tree",
			steps:   []Step{{Op: OpCommit, Tree: "ghost"}},
			wantErr: `steps[0] (commit): unknown tree "ghost"`,
		},
		{
			name: "tree defined twice",
			steps: []Step{
				{Op: OpNew, Tree: "S", ID: "urn:ex:a"},
				{Op: OpNew, Tree: "S", ID: "urn:ex:b"},
			},
			wantErr: `tree "S" already exists`,
		},
		{
			name:    "missing document",
			steps:   []Step{{Op: OpNew, Tree: "S", Document: "does-not-exist.json"}},
			wantErr: "read document",
		},
		{
			name: "unknown update source",
			steps: []Step{
				{Op: OpNew, Tree: "S", ID: "urn:ex:a"},
				{Op: OpUpdate, Tree: "S", From: "ghost"},
			},
			wantErr: `unknown tree "ghost"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Scenario{
				Name:        tt.name,
				Description: "d",
				dir:         t.TempDir(),
				Steps:       tt.steps,
				Assertions:  []Assertion{{Type: AssertTraceCount, Op: "commit"}},
			}
			_, err := Run(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRun_AddIntoContainers(t *testing.T) {
	s := &Scenario{
		Name:        "containers",
		Description: "d",
		dir:         "testdata/scenarios",
		Steps: []Step{
			{Op: OpNew, Tree: "S", Document: "docs/sample.yaml"},
			{Op: OpAdd, Tree: "S", Path: "Motor", IDShort: "Load", ValueType: "xs:double", Value: "0.5"},
			{Op: OpAdd, Tree: "S", Path: "Readings", ValueType: "xs:int", Value: "3"},
			{Op: OpAdd, Tree: "S", Path: "Readings", IDShort: "Named", ValueType: "xs:int", Value: "4",
				Expect: &Expect{Error: ClassConstraintViolation}},
			{Op: OpAdd, Tree: "S", Path: "P1", IDShort: "X", Expect: &Expect{Error: ClassTypeMismatch}},
			{Op: OpRemove, Tree: "S", Path: "Motor/Temp"},
			{Op: OpRemove, Tree: "S", Path: "Readings/first", Expect: &Expect{Error: ClassKeyNotFound}},
			{Op: OpSet, Tree: "S", Path: "Motor", Value: "1", Expect: &Expect{Error: ClassTypeMismatch}},
		},
		Assertions: []Assertion{
			{Type: AssertCount, Tree: "S", Path: "Motor", Count: 2},
			{Type: AssertValue, Tree: "S", Path: "Motor/Load", Equals: "0.5"},
			{Type: AssertCount, Tree: "S", Path: "Readings", Count: 3},
			{Type: AssertValue, Tree: "S", Path: "Readings/2", Equals: "3"},
			{Type: AssertStatus, Tree: "S", Equals: "unbound"},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Trace)
}

func TestErrorClass(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{model.ErrConcurrentAccess, ClassConcurrentAccess},
		{fmt.Errorf("wrapped: %w", model.ErrConcurrentAccess), ClassConcurrentAccess},
		{&backend.UnknownBackendError{Scheme: "s3", Locator: "s3:x"}, ClassUnknownBackend},
		{&backend.BackendUnavailableError{Locator: "mem:x", Op: "get", Err: errors.New("down")}, ClassBackendUnavailable},
		{&backend.SerializationError{Op: "decode", Err: &model.ConstraintViolation{Message: "bad"}}, ClassSerialization},
		{&model.ConstraintViolation{Message: "bad"}, ClassConstraintViolation},
		{&model.KeyNotFoundError{Key: "P9"}, ClassKeyNotFound},
		{&model.TypeMismatchError{Expected: model.KeyProperty, Actual: model.KeyEntity}, ClassTypeMismatch},
		{errors.New("boom"), ClassOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorClass(tt.err), "%v", tt.err)
	}
}
