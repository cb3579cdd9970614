// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("MEMOREC_DATA", dataDir)

	cfg, err := NewLoader("", "test").Load()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Version)
	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dataDir, "recordings"), cfg.RecordingsDir)
	assert.Equal(t, BackendFile, cfg.StoreBackend)
	assert.Equal(t, filepath.Join(dataDir, "store"), cfg.StorePath)
	assert.Equal(t, defaultListenAddr, cfg.APIListenAddr)
	assert.Equal(t, DefaultCaptureCommand, cfg.CaptureCommand)
	assert.Equal(t, defaultStopGrace, cfg.CaptureStopGrace)
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	dataDir := t.TempDir()
	path := writeConfig(t, `
dataDir: `+dataDir+`
logLevel: debug
api:
  listenAddr: 127.0.0.1:9000
  authRateLimit: 3
store:
  backend: sqlite
capture:
  command: ["ffmpeg", "-f", "pulse", "-i", "default", "{output}"]
  extension: .ogg
  stopGrace: 5s
`)
	t.Setenv("MEMOREC_LISTEN", "127.0.0.1:9100")

	cfg, err := NewLoader(path, "test").Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:9100", cfg.APIListenAddr, "env must win over file")
	assert.Equal(t, 3, cfg.APIAuthRateLimit)
	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, filepath.Join(dataDir, "memorec.db"), cfg.StorePath)
	assert.Equal(t, "ogg", cfg.CaptureExtension)
	assert.Equal(t, 5*time.Second, cfg.CaptureStopGrace)
	assert.Equal(t, "ffmpeg", cfg.CaptureCommand[0])
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	path := writeConfig(t, "dataDir: /tmp\nrecordingz: nope\n")

	_, err := NewLoader(path, "test").Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownConfigField), "got %v", err)
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	t.Setenv("MEMOREC_DATA", t.TempDir())
	path := writeConfig(t, "")

	cfg, err := NewLoader(path, "test").Load()
	require.NoError(t, err)
	assert.Equal(t, BackendFile, cfg.StoreBackend)
}

func TestLoad_TracksConsumedEnvKeys(t *testing.T) {
	t.Setenv("MEMOREC_DATA", t.TempDir())
	l := NewLoader("", "test")
	_, err := l.Load()
	require.NoError(t, err)

	assert.Contains(t, l.ConsumedEnvKeys, "MEMOREC_STORE_BACKEND")
	assert.Contains(t, l.ConsumedEnvKeys, "MEMOREC_REDIS_PASSWORD")
}

func TestValidate(t *testing.T) {
	valid := Defaults()
	valid.StorePath = "/tmp/store"
	require.NoError(t, Validate(valid))

	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"unknown backend", func(c *AppConfig) { c.StoreBackend = "etcd" }},
		{"missing path", func(c *AppConfig) { c.StoreBackend = BackendBadger; c.StorePath = "" }},
		{"bad listen addr", func(c *AppConfig) { c.APIListenAddr = "nohostport" }},
		{"bad level", func(c *AppConfig) { c.LogLevel = "loud" }},
		{"no placeholder", func(c *AppConfig) { c.CaptureCommand = []string{"arecord", "out.wav"} }},
		{"negative grace", func(c *AppConfig) { c.CaptureStopGrace = -time.Second }},
		{"telemetry without endpoint", func(c *AppConfig) { c.TelemetryEnabled = true }},
		{"sampling out of range", func(c *AppConfig) { c.TelemetrySamplingRate = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			cfg.CaptureCommand = append([]string(nil), valid.CaptureCommand...)
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
