package harness

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGolden_Scenarios(t *testing.T) {
	for _, name := range []string{"commit_then_fetch", "duplicate_add", "motor_sync", "failure_modes", "value_sync"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			require.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestAssertGolden_ReusesResult(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/commit_then_fetch.yaml")
	require.NoError(t, err)
	result, err := Run(s)
	require.NoError(t, err)

	require.NoError(t, AssertGolden(t, "commit_then_fetch", result))
}

func TestSnapshot(t *testing.T) {
	result := NewResult()
	result.Trace = append(result.Trace,
		TraceEvent{Seq: 1, Op: "commit", Locator: "mem:a", ID: "urn:ex:a", Path: []string{"Readings", "0"}},
		TraceEvent{Seq: 2, Op: "fetch", Locator: "mem:a", ID: "urn:ex:a", Error: ClassKeyNotFound},
	)

	got, err := Snapshot("snap", result)
	require.NoError(t, err)
	require.Equal(t,
		`{"scenario_name":"snap","trace":[`+
			`{"id":"urn:ex:a","locator":"mem:a","op":"commit","path":["Readings","0"],"seq":1},`+
			`{"error":"KeyNotFound","id":"urn:ex:a","locator":"mem:a","op":"fetch","seq":2}]}`,
		string(got))
}
