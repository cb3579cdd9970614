// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/memorec/internal/capture"
)

// OutputPlaceholder is replaced by the capture target path in CaptureCommand.
const OutputPlaceholder = capture.OutputPlaceholder

const (
	defaultDataDir       = "/var/lib/memorec"
	defaultListenAddr    = "127.0.0.1:8088"
	defaultAuthRateLimit = 10
	defaultRedisAddr     = "127.0.0.1:6379"
	defaultRedisPrefix   = "memorec:"
	defaultExtension     = "wav"
	defaultStopGrace     = 3 * time.Second
)

// DefaultCaptureCommand records CD-quality WAV from the default ALSA device.
var DefaultCaptureCommand = []string{"arecord", "-q", "-f", "cd", "-t", "wav", OutputPlaceholder}

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults.
// Parse File (Strict) -> Apply Env -> Derive paths -> Validate.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()
	cfg.Version = l.version
	cfg.ConfigPath = l.configPath

	if l.configPath != "" {
		fileCfg, err := LoadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)

	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	derivePaths(&cfg)

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Defaults returns the configuration used when neither file nor env set a key.
func Defaults() AppConfig {
	return AppConfig{
		DataDir:               defaultDataDir,
		LogLevel:              "info",
		LogService:            "memorec",
		APIListenAddr:         defaultListenAddr,
		APIAuthRateLimit:      defaultAuthRateLimit,
		StoreBackend:          BackendFile,
		StoreRedisAddr:        defaultRedisAddr,
		StoreRedisPrefix:      defaultRedisPrefix,
		CaptureCommand:        append([]string(nil), DefaultCaptureCommand...),
		CaptureExtension:      defaultExtension,
		CaptureStopGrace:      defaultStopGrace,
		TelemetryExporter:     "http",
		TelemetrySamplingRate: 1.0,
	}
}

// LoadFile parses a YAML config file in strict mode (unknown keys are errors).
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

func mergeFileConfig(dst *AppConfig, src *FileConfig) error {
	if src.DataDir != "" {
		dst.DataDir = src.DataDir
	}
	if src.RecordingsDir != "" {
		dst.RecordingsDir = src.RecordingsDir
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.LogService != "" {
		dst.LogService = src.LogService
	}

	if src.API.ListenAddr != "" {
		dst.APIListenAddr = src.API.ListenAddr
	}
	if src.API.AuthRateLimit != nil {
		dst.APIAuthRateLimit = *src.API.AuthRateLimit
	}

	if src.Store.Backend != "" {
		dst.StoreBackend = strings.ToLower(src.Store.Backend)
	}
	if src.Store.Path != "" {
		dst.StorePath = src.Store.Path
	}
	if src.Store.Redis.Addr != "" {
		dst.StoreRedisAddr = src.Store.Redis.Addr
	}
	if src.Store.Redis.Password != "" {
		dst.StoreRedisPassword = src.Store.Redis.Password
	}
	if src.Store.Redis.DB != 0 {
		dst.StoreRedisDB = src.Store.Redis.DB
	}
	if src.Store.Redis.Prefix != "" {
		dst.StoreRedisPrefix = src.Store.Redis.Prefix
	}

	if len(src.Capture.Command) > 0 {
		dst.CaptureCommand = append([]string(nil), src.Capture.Command...)
	}
	if src.Capture.Extension != "" {
		dst.CaptureExtension = strings.TrimPrefix(src.Capture.Extension, ".")
	}
	if src.Capture.StopGrace != "" {
		d, err := time.ParseDuration(src.Capture.StopGrace)
		if err != nil {
			return fmt.Errorf("capture.stopGrace: %w", err)
		}
		dst.CaptureStopGrace = d
	}

	if src.Telemetry.Enabled != nil {
		dst.TelemetryEnabled = *src.Telemetry.Enabled
	}
	if src.Telemetry.Exporter != "" {
		dst.TelemetryExporter = src.Telemetry.Exporter
	}
	if src.Telemetry.Endpoint != "" {
		dst.TelemetryEndpoint = src.Telemetry.Endpoint
	}
	if src.Telemetry.SamplingRate != nil {
		dst.TelemetrySamplingRate = *src.Telemetry.SamplingRate
	}
	return nil
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.DataDir = l.envString("MEMOREC_DATA", cfg.DataDir)
	cfg.RecordingsDir = l.envString("MEMOREC_RECORDINGS_DIR", cfg.RecordingsDir)
	cfg.LogLevel = l.envString("MEMOREC_LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = l.envString("MEMOREC_LOG_SERVICE", cfg.LogService)

	cfg.APIListenAddr = l.envString("MEMOREC_LISTEN", cfg.APIListenAddr)
	cfg.APIAuthRateLimit = l.envInt("MEMOREC_AUTH_RATE_LIMIT", cfg.APIAuthRateLimit)

	cfg.StoreBackend = strings.ToLower(l.envString("MEMOREC_STORE_BACKEND", cfg.StoreBackend))
	cfg.StorePath = l.envString("MEMOREC_STORE_PATH", cfg.StorePath)
	cfg.StoreRedisAddr = l.envString("MEMOREC_REDIS_ADDR", cfg.StoreRedisAddr)
	cfg.StoreRedisPassword = l.envString("MEMOREC_REDIS_PASSWORD", cfg.StoreRedisPassword)
	cfg.StoreRedisDB = l.envInt("MEMOREC_REDIS_DB", cfg.StoreRedisDB)
	cfg.StoreRedisPrefix = l.envString("MEMOREC_REDIS_PREFIX", cfg.StoreRedisPrefix)

	if cmd := l.envString("MEMOREC_CAPTURE_COMMAND", ""); cmd != "" {
		cfg.CaptureCommand = strings.Fields(cmd)
	}
	cfg.CaptureExtension = strings.TrimPrefix(l.envString("MEMOREC_CAPTURE_EXTENSION", cfg.CaptureExtension), ".")
	cfg.CaptureStopGrace = l.envDuration("MEMOREC_CAPTURE_STOP_GRACE", cfg.CaptureStopGrace)

	cfg.TelemetryEnabled = l.envBool("MEMOREC_TELEMETRY_ENABLED", cfg.TelemetryEnabled)
	cfg.TelemetryExporter = l.envString("MEMOREC_OTLP_EXPORTER", cfg.TelemetryExporter)
	cfg.TelemetryEndpoint = l.envString("MEMOREC_OTLP_ENDPOINT", cfg.TelemetryEndpoint)
	cfg.TelemetrySamplingRate = l.envFloat("MEMOREC_TRACE_SAMPLING", cfg.TelemetrySamplingRate)
}

// derivePaths fills backend and recordings paths that default to locations under DataDir.
func derivePaths(cfg *AppConfig) {
	if cfg.RecordingsDir == "" {
		cfg.RecordingsDir = filepath.Join(cfg.DataDir, "recordings")
	}
	if cfg.StorePath != "" {
		return
	}
	switch cfg.StoreBackend {
	case BackendFile:
		cfg.StorePath = filepath.Join(cfg.DataDir, "store")
	case BackendSQLite:
		cfg.StorePath = filepath.Join(cfg.DataDir, "memorec.db")
	case BackendBadger:
		cfg.StorePath = filepath.Join(cfg.DataDir, "badger")
	}
}
