// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix is the prefix for all environment variables.
	EnvPrefix = "COVSUBMIT"
	// ProjectConfigFile is the project-level config file name.
	ProjectConfigFile = ".covsubmit.yaml"
	// GlobalConfigDir is the global config directory name.
	GlobalConfigDir = ".covsubmit"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
)

// Loader loads configuration from files and environment.
type Loader struct {
	projectRoot string
	configFile  string
	skipGlobal  bool
}

// NewLoader creates a new config loader.
func NewLoader() *Loader {
	return &Loader{}
}

// WithProjectRoot sets the project root directory.
func (l *Loader) WithProjectRoot(root string) *Loader {
	l.projectRoot = root
	return l
}

// WithConfigFile replaces the project config with an explicit file, which
// must exist.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// SkipGlobal skips loading global config.
func (l *Loader) SkipGlobal() *Loader {
	l.skipGlobal = true
	return l
}

// Load loads configuration with full precedence order:
// 1. Defaults
// 2. Global Config ($HOME/.covsubmit/config.yaml)
// 3. Project Config (./.covsubmit.yaml) or the explicit config file
// 4. Environment Variables (COVSUBMIT_*)
//
// Missing optional files are skipped; malformed ones are errors.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if !l.skipGlobal {
		if homeDir, err := os.UserHomeDir(); err == nil {
			globalPath := filepath.Join(homeDir, GlobalConfigDir, GlobalConfigFile)
			if err := decodeFile(cfg, globalPath, true); err != nil {
				return nil, err
			}
		}
	}

	if l.configFile != "" {
		if err := decodeFile(cfg, l.configFile, false); err != nil {
			return nil, err
		}
	} else if err := decodeFile(cfg, GetProjectConfigPath(l.projectRoot), true); err != nil {
		return nil, err
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromPath loads defaults overlaid with a single file.
func (l *Loader) LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := decodeFile(cfg, path, false); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeFile overlays the keys present in path onto cfg.
func decodeFile(cfg *Config, path string, optional bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &ConfigError{Path: path, Err: err}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return &ConfigError{Path: path, Err: err}
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
// Format: COVSUBMIT_SECTION__KEY=value
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"UPLOAD__BINARY":                       &cfg.Upload.Binary,
		"UPLOAD__REPO_TOKEN_ENV":               &cfg.Upload.RepoTokenEnv,
		"UPLOAD__FLAG_NAME":                    &cfg.Upload.FlagName,
		"UPLOAD__ARCHIVE_DIR":                  &cfg.Upload.ArchiveDir,
		"GLOBAL__LOG_LEVEL":                    &cfg.Global.LogLevel,
		"GLOBAL__LOG_FORMAT":                   &cfg.Global.LogFormat,
		"OBSERVABILITY__METRICS_FILE":          &cfg.Observability.MetricsFile,
		"OBSERVABILITY__TRACING__ENDPOINT":     &cfg.Observability.Tracing.Endpoint,
		"OBSERVABILITY__TRACING__SERVICE_NAME": &cfg.Observability.Tracing.ServiceName,
	}
	for key, dst := range strs {
		if v, ok := lookupEnv(key); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"UPLOAD__PARALLEL":                &cfg.Upload.Parallel,
		"UPLOAD__DRY_RUN":                 &cfg.Upload.DryRun,
		"OBSERVABILITY__TRACING__ENABLED":  &cfg.Observability.Tracing.Enabled,
		"OBSERVABILITY__TRACING__INSECURE": &cfg.Observability.Tracing.Insecure,
	}
	for key, dst := range bools {
		if v, ok := lookupEnv(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return &ConfigError{Field: envFieldName(key), Err: err}
			}
			*dst = b
		}
	}

	if v, ok := lookupEnv("UPLOAD__TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &ConfigError{Field: "upload.timeout", Err: err}
		}
		cfg.Upload.Timeout = d
	}
	if v, ok := lookupEnv("UPLOAD__CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{Field: "upload.concurrency", Err: err}
		}
		cfg.Upload.Concurrency = n
	}
	if v, ok := lookupEnv("UPLOAD__MAX_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return &ConfigError{Field: "upload.max_bytes", Err: err}
		}
		cfg.Upload.MaxBytes = n
	}
	if v, ok := lookupEnv("OBSERVABILITY__TRACING__SAMPLE_RATIO"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &ConfigError{Field: "observability.tracing.sample_ratio", Err: err}
		}
		cfg.Observability.Tracing.SampleRatio = f
	}

	return nil
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + "_" + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// envFieldName maps UPLOAD__DRY_RUN to upload.dry_run.
func envFieldName(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, "__", "."))
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Path  string
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return "config error in " + e.Path + ": " + e.Err.Error()
	}
	if e.Field != "" {
		return "config error for " + e.Field + ": " + e.Err.Error()
	}
	return "config error: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// FindConfigPaths returns the config files Load would read, in precedence order.
func (l *Loader) FindConfigPaths() []string {
	var paths []string

	if !l.skipGlobal {
		if homeDir, err := os.UserHomeDir(); err == nil {
			globalPath := filepath.Join(homeDir, GlobalConfigDir, GlobalConfigFile)
			if _, err := os.Stat(globalPath); err == nil {
				paths = append(paths, globalPath)
			}
		}
	}

	project := l.configFile
	if project == "" {
		project = GetProjectConfigPath(l.projectRoot)
	}
	if _, err := os.Stat(project); err == nil {
		paths = append(paths, project)
	}

	return paths
}

// GetEnvConfig returns all environment variables that start with COVSUBMIT_.
func GetEnvConfig() map[string]string {
	result := make(map[string]string)

	for _, env := range os.Environ() {
		if strings.HasPrefix(env, EnvPrefix+"_") {
			kv := strings.SplitN(env, "=", 2)
			if len(kv) == 2 {
				result[kv[0]] = kv[1]
			}
		}
	}

	return result
}

// Describe renders the effective configuration as YAML.
func Describe(cfg *Config) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(data), nil
}
