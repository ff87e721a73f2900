package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchemaCUE = `
tables: {
	tracks: {
		fields: {
			id:    "bigint"
			title: "text"
			plays: "bigint"
		}
	}
}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestValidateCommand(t *testing.T) {
	path := writeFile(t, "schema.cue", testSchemaCUE)

	stdout, _, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Schema valid (1 table(s))")
}

func TestValidateCommandJSON(t *testing.T) {
	path := writeFile(t, "schema.cue", testSchemaCUE)

	stdout, _, err := execute(t, "--format", "json", "validate", path)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestValidateCommandBadSchema(t *testing.T) {
	path := writeFile(t, "schema.cue", `
tables: {
	tracks: {
		fields: {
			id: "varchar"
		}
	}
}
`)

	stdout, _, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "E002")
}

func TestValidateCommandMissingFile(t *testing.T) {
	_, _, err := execute(t, "validate", filepath.Join(t.TempDir(), "absent.cue"))
	require.Error(t, err)
}

func TestBadFormatRejected(t *testing.T) {
	path := writeFile(t, "schema.cue", testSchemaCUE)
	_, _, err := execute(t, "--format", "xml", "validate", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestExecCommand(t *testing.T) {
	schemaPath := writeFile(t, "schema.cue", testSchemaCUE)
	stepsPath := writeFile(t, "steps.yaml", `
- insert:
    table: tracks
    values: {id: 1, title: alpha, plays: 10}
- update:
    table: tracks
    set: {plays: 11}
    where: [{field: id, op: eq, value: 1}]
`)
	dbPath := filepath.Join(t.TempDir(), "test.db")

	stdout, _, err := execute(t, "exec", "--db", dbPath, "--schema", schemaPath, stepsPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Applied 2 statement(s)")
}

func TestExecCommandValidationFailure(t *testing.T) {
	schemaPath := writeFile(t, "schema.cue", testSchemaCUE)
	stepsPath := writeFile(t, "steps.yaml", `
- insert:
    table: tracks
    values: {id: 1, title: 7}
`)
	dbPath := filepath.Join(t.TempDir(), "test.db")

	_, _, err := execute(t, "exec", "--db", dbPath, "--schema", schemaPath, stepsPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestExecCommandMissingSteps(t *testing.T) {
	schemaPath := writeFile(t, "schema.cue", testSchemaCUE)
	dbPath := filepath.Join(t.TempDir(), "test.db")

	_, _, err := execute(t, "exec", "--db", dbPath, "--schema", schemaPath,
		filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.cue")
	require.NoError(t, os.WriteFile(schemaPath, []byte(testSchemaCUE), 0o644))

	scenarioPath := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(scenarioPath, []byte(`
name: cli_demo
schema: schema.cue
setup:
  - insert:
      table: tracks
      values: {id: 1, title: alpha, plays: 10}
subscribe:
  table: tracks
  fields: [id, title]
steps:
  - insert:
      table: tracks
      values: {id: 2, title: beta, plays: 20}
`), 0o644))

	stdout, _, err := execute(t, "run", scenarioPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "scenario: cli_demo")
	assert.Contains(t, stdout, "== initial")
	assert.Contains(t, stdout, "id=2 title=beta")
}

func TestRunCommandBadScenario(t *testing.T) {
	path := writeFile(t, "scenario.yaml", "name: x\n")
	_, _, err := execute(t, "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "boom")))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
}
