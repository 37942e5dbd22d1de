package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/twinsync/internal/codec"
	"github.com/roach88/twinsync/internal/model"
	"github.com/roach88/twinsync/internal/testutil"
)

const testConfig = `codec: json
log_level: warn
metrics: true
backends:
  - scheme: file
    kind: file
    path: twins
  - scheme: db
    kind: sqlite
    path: twins.db
`

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// workspace writes a config and a sample document into a temp dir and
// returns their paths.
func workspace(t *testing.T) (cfgPath, docPath string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath = filepath.Join(dir, "twinsync.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(testConfig), 0o644))

	data, err := codec.YAML().Encode(testutil.SampleSubmodel(t))
	require.NoError(t, err)
	docPath = filepath.Join(dir, "sample.yaml")
	require.NoError(t, os.WriteFile(docPath, data, 0o644))
	return cfgPath, docPath
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestImportShowExport(t *testing.T) {
	cfg, doc := workspace(t)
	locator := "file:" + testutil.SampleID

	out, _, err := execute(t, "-c", cfg, "import", doc, locator)
	require.NoError(t, err)
	assert.Contains(t, out, "committed Submodel urn:ex:sm1 to file:urn:ex:sm1")

	out, _, err = execute(t, "-c", cfg, "show", locator, "Motor/Speed")
	require.NoError(t, err)
	assert.Contains(t, out, `"value": "1200"`)

	exported := filepath.Join(t.TempDir(), "out.json")
	_, _, err = execute(t, "-c", cfg, "export", locator, exported)
	require.NoError(t, err)
	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	got, err := codec.JSON().Decode(data)
	require.NoError(t, err)
	assert.True(t, model.DeepEqual(testutil.SampleSubmodel(t), got))
}

func TestInit(t *testing.T) {
	cfg, _ := workspace(t)

	out, _, err := execute(t, "-c", cfg, "--format", "json", "init", "db:twin-1", "--id", "urn:ex:new", "--id-short", "Fresh")
	require.NoError(t, err)
	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)

	out, _, err = execute(t, "-c", cfg, "ls", "db")
	require.NoError(t, err)
	assert.Equal(t, "db:twin-1\n", out)

	out, _, err = execute(t, "-c", cfg, "show", "db:twin-1")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "urn:ex:new"`)
	assert.Contains(t, out, `"idShort": "Fresh"`)
}

func TestSet(t *testing.T) {
	cfg, doc := workspace(t)
	locator := "file:" + testutil.SampleID
	_, _, err := execute(t, "-c", cfg, "import", doc, locator)
	require.NoError(t, err)

	out, _, err := execute(t, "-c", cfg, "set", locator, "Readings/1", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "Readings/1: 2 -> 20")

	out, _, err = execute(t, "-c", cfg, "show", locator, "Readings/1")
	require.NoError(t, err)
	assert.Contains(t, out, `"value": "20"`)

	_, stderr, err := execute(t, "-c", cfg, "set", locator, "Motor", "1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stderr, "Error [E005]")
}

func TestResolve(t *testing.T) {
	cfg, doc := workspace(t)
	_, _, err := execute(t, "-c", cfg, "import", doc, "db:sm1")
	require.NoError(t, err)

	out, _, err := execute(t, "-c", cfg, "--format", "json", "resolve",
		"[Submodel]urn:ex:sm1, [SubmodelElementCollection]Motor, [Property]Speed", "db:sm1")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   ResolveResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "Property", resp.Data.Kind)
	assert.Equal(t, "db:sm1", resp.Data.Source)
	assert.Equal(t, "[Submodel]urn:ex:sm1, [SubmodelElementCollection]Motor, [Property]Speed", resp.Data.Reference)
	assert.Contains(t, resp.Data.Document, "1200")

	_, _, err = execute(t, "-c", cfg, "resolve", "[Submodel]urn:ex:sm1, [Property]Nope", "db:sm1")
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestDigest_IndependentOfBackend(t *testing.T) {
	cfg, doc := workspace(t)
	for _, locator := range []string{"file:a", "db:a"} {
		_, _, err := execute(t, "-c", cfg, "import", doc, locator)
		require.NoError(t, err)
	}

	want, err := codec.Digest(testutil.SampleSubmodel(t))
	require.NoError(t, err)

	out, _, err := execute(t, "-c", cfg, "digest", "file:a", "db:a")
	require.NoError(t, err)
	assert.Equal(t, want+"  file:a\n"+want+"  db:a\n", out)
}

func TestRemove(t *testing.T) {
	cfg, doc := workspace(t)
	_, _, err := execute(t, "-c", cfg, "import", doc, "file:gone")
	require.NoError(t, err)

	_, _, err = execute(t, "-c", cfg, "rm", "file:gone")
	require.NoError(t, err)

	out, _, err := execute(t, "-c", cfg, "--format", "json", "show", "file:gone")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestUnknownScheme(t *testing.T) {
	cfg, doc := workspace(t)
	_, stderr, err := execute(t, "-c", cfg, "import", doc, "s3:bucket/key")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stderr, "Error [E008]")
}

func TestImport_BadDocument(t *testing.T) {
	cfg, _ := workspace(t)
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"modelType":"Gadget"}`), 0o644))

	_, stderr, err := execute(t, "-c", cfg, "import", bad, "file:x")
	require.Error(t, err)
	assert.Contains(t, stderr, "Error [E007]")
}

func TestValidateConfig(t *testing.T) {
	cfg, _ := workspace(t)

	out, _, err := execute(t, "validate-config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid: 2 backend(s), json codec")

	out, _, err = execute(t, "validate-config")
	require.NoError(t, err)
	assert.Contains(t, out, "default config is valid: 1 backend(s)")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("backends:\n  - {scheme: f, kind: file}\n"), 0o644))
	out, _, err = execute(t, "--format", "json", "validate-config", bad)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	resp := decodeResponse(t, out)
	assert.Equal(t, ErrCodeConfig, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.Details)
}

func TestVerboseLogsEngineRecords(t *testing.T) {
	cfg, doc := workspace(t)
	_, stderr, err := execute(t, "-c", cfg, "-v", "import", doc, "file:v")
	require.NoError(t, err)
	assert.Contains(t, stderr, "msg=commit")
	assert.Contains(t, stderr, "msg=metric")
}
