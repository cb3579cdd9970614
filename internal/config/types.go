// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the daemon configuration with precedence
// ENV > YAML file > defaults.
package config

import "time"

// Store backends understood by kv.Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

// FileConfig represents the YAML configuration structure.
type FileConfig struct {
	DataDir       string `yaml:"dataDir,omitempty"`
	RecordingsDir string `yaml:"recordingsDir,omitempty"`
	LogLevel      string `yaml:"logLevel,omitempty"`
	LogService    string `yaml:"logService,omitempty"`

	API       APIFileConfig       `yaml:"api,omitempty"`
	Store     StoreFileConfig     `yaml:"store,omitempty"`
	Capture   CaptureFileConfig   `yaml:"capture,omitempty"`
	Telemetry TelemetryFileConfig `yaml:"telemetry,omitempty"`
}

// APIFileConfig holds the HTTP listener settings.
type APIFileConfig struct {
	ListenAddr    string `yaml:"listenAddr,omitempty"`
	AuthRateLimit *int   `yaml:"authRateLimit,omitempty"` // requests per minute per IP on account routes
}

// StoreFileConfig selects and configures the key-value backend.
type StoreFileConfig struct {
	Backend string          `yaml:"backend,omitempty"`
	Path    string          `yaml:"path,omitempty"`
	Redis   RedisFileConfig `yaml:"redis,omitempty"`
}

// RedisFileConfig holds redis connection settings.
type RedisFileConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

// CaptureFileConfig configures the microphone capture command.
type CaptureFileConfig struct {
	Command   []string `yaml:"command,omitempty"`
	Extension string   `yaml:"extension,omitempty"`
	StopGrace string   `yaml:"stopGrace,omitempty"` // e.g. "3s"
}

// TelemetryFileConfig configures OpenTelemetry tracing.
type TelemetryFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"` // grpc or http
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}

// AppConfig is the resolved runtime configuration.
type AppConfig struct {
	Version       string
	ConfigPath    string
	DataDir       string
	RecordingsDir string
	LogLevel      string
	LogService    string

	APIListenAddr    string
	APIAuthRateLimit int

	StoreBackend       string
	StorePath          string
	StoreRedisAddr     string
	StoreRedisPassword string
	StoreRedisDB       int
	StoreRedisPrefix   string

	CaptureCommand   []string
	CaptureExtension string
	CaptureStopGrace time.Duration

	TelemetryEnabled      bool
	TelemetryExporter     string
	TelemetryEndpoint     string
	TelemetrySamplingRate float64
}
