package spec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSpecFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	path := writeSpecFile(t, `
name: nginx-smoke
modules:
  - ./modules/base.nix
  - ./modules/nginx.nix
commands:
  - systemctl is-active nginx
  - curl -fsS http://localhost
env:
  CURL_TIMEOUT: "5"
`)

	ts, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "nginx-smoke", ts.Name)
	assert.Equal(t, []string{"./modules/base.nix", "./modules/nginx.nix"}, ts.Modules)
	assert.Len(t, ts.Commands, 2)
	assert.Equal(t, "5", ts.Env["CURL_TIMEOUT"])
	assert.True(t, ts.Diagnostics, "diagnostics defaults to enabled")
}

func TestLoad_SingleModuleCoercedToList(t *testing.T) {
	path := writeSpecFile(t, `
name: single-module
modules: ./modules/base.nix
commands:
  - "true"
`)

	ts, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"./modules/base.nix"}, ts.Modules)
}

func TestLoad_DiagnosticsCanBeDisabled(t *testing.T) {
	path := writeSpecFile(t, `
name: quiet
modules: base.nix
commands: ["true"]
diagnostics: false
`)

	ts, err := Load(path)
	require.NoError(t, err)
	assert.False(t, ts.Diagnostics)
}

func TestLoad_ExtraMachines(t *testing.T) {
	path := writeSpecFile(t, `
name: multi
modules: base.nix
commands: ["true"]
extra_machines:
  client: client.nix
  backup:
    - base.nix
    - backup.nix
`)

	ts, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"client.nix"}, ts.ExtraMachines["client"])
	assert.Equal(t, []string{"base.nix", "backup.nix"}, ts.ExtraMachines["backup"])
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	path := writeSpecFile(t, `
name: typo
modules: base.nix
commands: ["true"]
comands: ["false"]
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/spec.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read spec file")
}

func TestNormalize_EmptyCommandsIsConfigError(t *testing.T) {
	raw := &Spec{Name: "empty", Modules: ModuleList{"base.nix"}}

	_, err := raw.Normalize()
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "non-empty")
}

func TestNormalize_EmptyModulesIsConfigError(t *testing.T) {
	raw := &Spec{Name: "no-machine", Commands: []string{"true"}}

	_, err := raw.Normalize()
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestNormalize_BadEnvNameRejectedBySchema(t *testing.T) {
	raw := &Spec{
		Name:     "bad-env",
		Modules:  ModuleList{"base.nix"},
		Commands: []string{"true"},
		Env:      map[string]string{"BAD NAME": "x"},
	}

	_, err := raw.Normalize()
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestNormalize_BadNameRejectedBySchema(t *testing.T) {
	raw := &Spec{
		Name:     "spaced out name",
		Modules:  ModuleList{"base.nix"},
		Commands: []string{"true"},
	}

	_, err := raw.Normalize()
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestPayload_Deterministic(t *testing.T) {
	ts := &TestSpec{
		Name:        "payload",
		Modules:     []string{"base.nix"},
		Commands:    []string{"echo one", "echo two"},
		Env:         map[string]string{"B": "2", "A": "1"},
		Diagnostics: true,
	}

	first, err := ts.Payload()
	require.NoError(t, err)
	second, err := ts.Payload()
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.JSONEq(t, `{"commands":["echo one","echo two"],"env":{"A":"1","B":"2"}}`, string(first))
}

func TestPayload_EmptyEnvSerializesAsEmptyObject(t *testing.T) {
	ts := &TestSpec{
		Name:        "no-env",
		Modules:     []string{"base.nix"},
		Commands:    []string{"true"},
		Diagnostics: true,
	}

	data, err := ts.Payload()
	require.NoError(t, err)
	assert.JSONEq(t, `{"commands":["true"],"env":{}}`, string(data))
}
