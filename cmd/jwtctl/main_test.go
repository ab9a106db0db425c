package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
default: main
configurations:
  - name: main
    secret: main-secret
    issuer: jwtctl-test
  - name: invite
    algorithm: HS384
    secret: invite-secret
types:
  - name: access
    ttl: 1h
  - name: invite
    configuration: invite
    claims:
      scope: invite
`

func writeTestConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "jwt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCreateAndParse(t *testing.T) {
	path := writeTestConfig(t)

	out, err := run(t, "--config", path, "create", "access", "-c", "sub=u1", "-c", "admin=true", "-H", "kid=k1")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	assert.Equal(t, 2, strings.Count(token, "."))

	out, err = run(t, "--config", path, "parse", "access", token)
	require.NoError(t, err)

	var parsed struct {
		Headers map[string]any `json:"headers"`
		Claims  map[string]any `json:"claims"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, "k1", parsed.Headers["kid"])
	assert.Equal(t, "HS256", parsed.Headers["alg"])
	assert.Equal(t, "u1", parsed.Claims["sub"])
	assert.Equal(t, true, parsed.Claims["admin"])
	assert.Equal(t, "jwtctl-test", parsed.Claims["iss"])

	_, err = run(t, "--config", path, "parse", "invite", token)
	assert.ErrorContains(t, err, "unexpected algorithm")
}

func TestTypesCommand(t *testing.T) {
	out, err := run(t, "--config", writeTestConfig(t), "types")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "access\tmain\tHS256\t(default)", lines[0])
	assert.Equal(t, "invite\tinvite\tHS384", lines[1])
}

func TestConfigFromEnvironment(t *testing.T) {
	t.Setenv("JWTCTL_CONFIG", writeTestConfig(t))

	out, err := run(t, "create", "invite")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))
}

func TestCommandErrors(t *testing.T) {
	path := writeTestConfig(t)

	_, err := run(t, "--config", path, "create", "missing")
	assert.ErrorContains(t, err, "unknown token type")

	_, err = run(t, "--config", path, "create", "access", "-c", "novalue")
	assert.ErrorContains(t, err, "expected key=value")

	_, err = run(t, "--config", path, "parse", "access", "garbage")
	assert.ErrorContains(t, err, "malformed")

	_, err = run(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "types")
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = run(t, "--config", path, "--log-level", "loud", "types")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestParsePairs(t *testing.T) {
	pairs, err := parsePairs([]string{"n=42", "s=text", "b=false", "o={\"a\":1}", "eq=a=b"})
	require.NoError(t, err)

	assert.Equal(t, float64(42), pairs["n"])
	assert.Equal(t, "text", pairs["s"])
	assert.Equal(t, false, pairs["b"])
	assert.Equal(t, map[string]any{"a": float64(1)}, pairs["o"])
	assert.Equal(t, "a=b", pairs["eq"])

	_, err = parsePairs([]string{"=v"})
	assert.Error(t, err)
}
