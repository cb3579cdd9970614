// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/memorec/internal/config"
)

const redacted = "***"

func runConfigCLI(args []string) int {
	return configCLI(args, os.Stdout, os.Stderr)
}

func configCLI(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(stderr)
		return 0
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:], stdout, stderr)
	case "dump":
		return runConfigDump(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage(stderr)
		return 2
	}
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  memorec config validate [--file|-f config.yaml]")
	fmt.Fprintln(w, "  memorec config dump --effective [--file|-f config.yaml] [--format=yaml|json]")
}

func runConfigValidate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("memorec config validate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var file string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	configPath := strings.TrimSpace(file)
	if configPath == "" {
		configPath = resolveDefaultConfigPath()
	}
	if configPath == "" {
		fmt.Fprintln(stderr, "Error: --file is required (no default config.yaml found in $MEMOREC_DATA)")
		return 2
	}

	if _, err := config.NewLoader(configPath, version).Load(); err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", configPath, err)
		return 1
	}

	fmt.Fprintf(stdout, "%s is valid\n", configPath)
	return 0
}

func runConfigDump(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("memorec config dump", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		file      string
		format    string
		effective bool
	)
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	fs.StringVar(&format, "format", "yaml", "output format: yaml or json")
	fs.BoolVar(&effective, "effective", false, "dump effective configuration (defaults + file + env)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if !effective {
		fmt.Fprintln(stderr, "Error: --effective is required")
		return 2
	}

	configPath := strings.TrimSpace(file)
	if configPath == "" {
		configPath = resolveDefaultConfigPath()
	}

	cfg, err := config.NewLoader(configPath, version).Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error:\n  %v\n", err)
		return 1
	}

	fileCfg := fileConfigFromAppConfig(cfg)
	if fileCfg.Store.Redis.Password != "" {
		fileCfg.Store.Redis.Password = redacted
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(fileCfg); err != nil {
			fmt.Fprintf(stderr, "Failed to encode YAML: %v\n", err)
			return 1
		}
		_ = enc.Close()
		return 0
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(fileCfg); err != nil {
			fmt.Fprintf(stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown format: %s\n", format)
		return 2
	}
}

func fileConfigFromAppConfig(cfg config.AppConfig) config.FileConfig {
	rate := cfg.APIAuthRateLimit
	enabled := cfg.TelemetryEnabled
	sampling := cfg.TelemetrySamplingRate
	return config.FileConfig{
		DataDir:       cfg.DataDir,
		RecordingsDir: cfg.RecordingsDir,
		LogLevel:      cfg.LogLevel,
		LogService:    cfg.LogService,
		API: config.APIFileConfig{
			ListenAddr:    cfg.APIListenAddr,
			AuthRateLimit: &rate,
		},
		Store: config.StoreFileConfig{
			Backend: cfg.StoreBackend,
			Path:    cfg.StorePath,
			Redis: config.RedisFileConfig{
				Addr:     cfg.StoreRedisAddr,
				Password: cfg.StoreRedisPassword,
				DB:       cfg.StoreRedisDB,
				Prefix:   cfg.StoreRedisPrefix,
			},
		},
		Capture: config.CaptureFileConfig{
			Command:   cfg.CaptureCommand,
			Extension: cfg.CaptureExtension,
			StopGrace: cfg.CaptureStopGrace.String(),
		},
		Telemetry: config.TelemetryFileConfig{
			Enabled:      &enabled,
			Exporter:     cfg.TelemetryExporter,
			Endpoint:     cfg.TelemetryEndpoint,
			SamplingRate: &sampling,
		},
	}
}
