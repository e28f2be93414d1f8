package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvCriteria(t *testing.T) {
	env, err := parseEnvCriteria(nil)
	require.NoError(t, err)
	assert.Nil(t, env)

	env, err = parseEnvCriteria([]string{"HOSTNAME=^prod-", "DC=east"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"HOSTNAME": "^prod-", "DC": "east"}, env)

	// the regex side may itself contain '='
	env, err = parseEnvCriteria([]string{"X=a=b"})
	require.NoError(t, err)
	assert.Equal(t, "a=b", env["X"])

	_, err = parseEnvCriteria([]string{"missing-separator"})
	assert.Error(t, err)
	_, err = parseEnvCriteria([]string{"=value"})
	assert.Error(t, err)
}

func TestParsePayload(t *testing.T) {
	p := parsePayload([]byte(`{"port": 80}`))
	assert.False(t, p.IsRaw())
	assert.Equal(t, float64(80), p.Data()["port"])

	p = parsePayload([]byte("plain text config\n"))
	assert.True(t, p.IsRaw())
	assert.Equal(t, "plain text config\n", p.Text())

	// arrays and bare literals are stored as raw text
	p = parsePayload([]byte("[1, 2, 3]"))
	assert.True(t, p.IsRaw())
	p = parsePayload([]byte("null"))
	assert.True(t, p.IsRaw())
}

func TestLoadPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"debug": true}`), 0o644))

	p, err := loadPayload(path)
	require.NoError(t, err)
	assert.Equal(t, true, p.Data()["debug"])

	_, err = loadPayload(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestParseOverrideSpecs(t *testing.T) {
	dir := t.TempDir()
	prodPath := filepath.Join(dir, "prod.json")
	require.NoError(t, os.WriteFile(prodPath, []byte(`{"port": 443}`), 0o644))

	overrides, err := parseOverrideSpecs([]string{"Prod=" + prodPath})
	require.NoError(t, err)
	require.Contains(t, overrides, "prod")
	assert.Equal(t, float64(443), overrides["prod"].Data()["port"])

	_, err = parseOverrideSpecs([]string{"prod"})
	assert.Error(t, err)
	_, err = parseOverrideSpecs([]string{"prod=" + filepath.Join(dir, "missing.json")})
	assert.Error(t, err)

	overrides, err = parseOverrideSpecs(nil)
	require.NoError(t, err)
	assert.Nil(t, overrides)
}
