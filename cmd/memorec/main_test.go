// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/memorec/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body = strings.ReplaceAll(body, "$DIR", dir)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const validConfig = `
dataDir: $DIR/data
logLevel: debug
api:
  listenAddr: 127.0.0.1:9999
store:
  backend: redis
  redis:
    addr: 127.0.0.1:6379
    password: hunter2
`

func TestConfigValidate(t *testing.T) {
	var out, errOut bytes.Buffer
	path := writeConfig(t, validConfig)
	assert.Equal(t, 0, configCLI([]string{"validate", "-f", path}, &out, &errOut), errOut.String())
	assert.Contains(t, out.String(), "is valid")

	bad := writeConfig(t, "logLevel: loud\n")
	out.Reset()
	errOut.Reset()
	assert.Equal(t, 1, configCLI([]string{"validate", "--file", bad}, &out, &errOut))
	assert.Contains(t, errOut.String(), "logLevel")

	unknown := writeConfig(t, "nonsense: true\n")
	assert.Equal(t, 1, configCLI([]string{"validate", "-f", unknown}, &out, &errOut))
}

func TestConfigDump_RedactsSecrets(t *testing.T) {
	path := writeConfig(t, validConfig)

	var out, errOut bytes.Buffer
	require.Equal(t, 0, configCLI([]string{"dump", "--effective", "-f", path}, &out, &errOut), errOut.String())
	assert.NotContains(t, out.String(), "hunter2")

	var dumped config.FileConfig
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &dumped))
	assert.Equal(t, redacted, dumped.Store.Redis.Password)
	assert.Equal(t, "redis", dumped.Store.Backend)
	assert.Equal(t, "127.0.0.1:9999", dumped.API.ListenAddr)
	assert.Equal(t, "debug", dumped.LogLevel)

	out.Reset()
	require.Equal(t, 0, configCLI([]string{"dump", "--effective", "-f", path, "--format", "json"}, &out, &errOut))
	assert.True(t, json.Valid(out.Bytes()))
	assert.NotContains(t, out.String(), "hunter2")
}

func TestConfigCLI_Usage(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 0, configCLI(nil, &out, &errOut))
	assert.Contains(t, errOut.String(), "Usage")
	assert.Equal(t, 2, configCLI([]string{"frobnicate"}, &out, &errOut))
	assert.Equal(t, 2, configCLI([]string{"dump"}, &out, &errOut))
}

func TestHealthcheck(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	var out, errOut bytes.Buffer
	addr := strings.TrimPrefix(healthy.URL, "http://")
	assert.Equal(t, 0, healthcheckCLI([]string{"-addr", addr}, &out, &errOut), errOut.String())

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer failing.Close()
	assert.Equal(t, 1, healthcheckCLI([]string{"-addr", strings.TrimPrefix(failing.URL, "http://")}, &out, &errOut))
}

func TestResolveDefaultConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MEMOREC_DATA", dir)
	assert.Empty(t, resolveDefaultConfigPath())

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))
	assert.Equal(t, path, resolveDefaultConfigPath())
}
