// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cicd-ai-toolkit/covsubmit/pkg/config"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

// TestDefaultConfig tests the default configuration.
func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	if cfg.Upload.Binary != "coveralls" {
		t.Errorf("Expected default binary 'coveralls', got '%s'", cfg.Upload.Binary)
	}
	if cfg.Upload.Timeout != 2*time.Minute {
		t.Errorf("Expected default timeout 2m, got %v", cfg.Upload.Timeout)
	}
	if cfg.Upload.Concurrency != 0 {
		t.Errorf("Expected unbounded concurrency, got %d", cfg.Upload.Concurrency)
	}
	if cfg.Upload.RepoTokenEnv != "COVERALLS_REPO_TOKEN" {
		t.Errorf("Expected repo_token_env COVERALLS_REPO_TOKEN, got '%s'", cfg.Upload.RepoTokenEnv)
	}
	if cfg.Global.LogLevel != "info" {
		t.Errorf("Expected default log level 'info', got '%s'", cfg.Global.LogLevel)
	}
	if len(cfg.Targets) != 0 {
		t.Errorf("Expected no default targets, got %d", len(cfg.Targets))
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

// TestLoadFromPath tests loading config from a file.
func TestLoadFromPath(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", `
upload:
  binary: /opt/bin/coveralls
  args: ["--verbose"]
  timeout: 30s
  concurrency: 4
  parallel: true

global:
  log_level: debug
  log_format: json

targets:
  basic:
    src: test/fixtures/lcov.info
  multiple:
    src:
      - test/fixtures/lcov.info
      - test/fixtures/lcov2.info
    flag_name: unit

observability:
  metrics_file: /tmp/covsubmit.prom
  tracing:
    enabled: true
    endpoint: collector:4317
`)

	cfg, err := config.NewLoader().LoadFromPath(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Upload.Binary != "/opt/bin/coveralls" {
		t.Errorf("Expected binary '/opt/bin/coveralls', got '%s'", cfg.Upload.Binary)
	}
	if len(cfg.Upload.Args) != 1 || cfg.Upload.Args[0] != "--verbose" {
		t.Errorf("Expected args [--verbose], got %v", cfg.Upload.Args)
	}
	if cfg.Upload.Timeout != 30*time.Second {
		t.Errorf("Expected timeout 30s, got %v", cfg.Upload.Timeout)
	}
	if cfg.Upload.Concurrency != 4 {
		t.Errorf("Expected concurrency 4, got %d", cfg.Upload.Concurrency)
	}
	if !cfg.Upload.Parallel {
		t.Error("Expected parallel true")
	}
	// Untouched keys keep their defaults.
	if cfg.Upload.RepoTokenEnv != "COVERALLS_REPO_TOKEN" {
		t.Errorf("Expected default repo_token_env, got '%s'", cfg.Upload.RepoTokenEnv)
	}
	if cfg.Global.LogFormat != "json" {
		t.Errorf("Expected log format 'json', got '%s'", cfg.Global.LogFormat)
	}

	basic, ok := cfg.Target("basic")
	if !ok || len(basic.Src) != 1 || basic.Src[0] != "test/fixtures/lcov.info" {
		t.Errorf("Expected basic target with one src, got %+v", basic)
	}
	multiple, ok := cfg.Target("multiple")
	if !ok || len(multiple.Src) != 2 || multiple.FlagName != "unit" {
		t.Errorf("Expected multiple target with two src, got %+v", multiple)
	}
	if names := cfg.TargetNames(); strings.Join(names, ",") != "basic,multiple" {
		t.Errorf("TargetNames() = %v", names)
	}

	if !cfg.Observability.Tracing.Enabled || cfg.Observability.Tracing.Endpoint != "collector:4317" {
		t.Errorf("unexpected tracing config %+v", cfg.Observability.Tracing)
	}
	if cfg.Observability.Tracing.SampleRatio != 1.0 {
		t.Errorf("Expected default sample ratio 1.0, got %v", cfg.Observability.Tracing.SampleRatio)
	}
}

// TestLoadFromPathInvalid tests loading an invalid config file.
func TestLoadFromPathInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad duration", "upload:\n  timeout: not_a_duration\n"},
		{"src mapping", "targets:\n  x:\n    src:\n      a: b\n"},
		{"not yaml", "upload: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), "config.yaml", tt.content)
			_, err := config.NewLoader().LoadFromPath(path)
			if err == nil {
				t.Fatal("Expected error for invalid config, got nil")
			}
			var cfgErr *config.ConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Path != path {
				t.Errorf("Expected ConfigError for %s, got %v", path, err)
			}
		})
	}
}

// TestLoadPrecedence checks project config over defaults and env over both.
func TestLoadPrecedence(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, config.ProjectConfigFile, `
upload:
  binary: project-coveralls
  timeout: 45s
global:
  log_level: warn
`)

	t.Setenv("COVSUBMIT_UPLOAD__TIMEOUT", "10s")
	t.Setenv("COVSUBMIT_UPLOAD__CONCURRENCY", "3")
	t.Setenv("COVSUBMIT_UPLOAD__DRY_RUN", "true")
	t.Setenv("COVSUBMIT_GLOBAL__LOG_LEVEL", "debug")

	cfg, err := config.NewLoader().WithProjectRoot(root).SkipGlobal().Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Upload.Binary != "project-coveralls" {
		t.Errorf("Expected binary from project config, got '%s'", cfg.Upload.Binary)
	}
	if cfg.Upload.Timeout != 10*time.Second {
		t.Errorf("Expected timeout 10s from env, got %v", cfg.Upload.Timeout)
	}
	if cfg.Upload.Concurrency != 3 {
		t.Errorf("Expected concurrency 3 from env, got %d", cfg.Upload.Concurrency)
	}
	if !cfg.Upload.DryRun {
		t.Error("Expected dry_run from env")
	}
	if cfg.Global.LogLevel != "debug" {
		t.Errorf("Expected log level 'debug' from env, got '%s'", cfg.Global.LogLevel)
	}
}

func TestLoadGlobalConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if err := os.MkdirAll(filepath.Join(home, config.GlobalConfigDir), 0755); err != nil {
		t.Fatal(err)
	}
	writeConfig(t, filepath.Join(home, config.GlobalConfigDir), config.GlobalConfigFile, `
upload:
  binary: global-coveralls
  flag_name: from-global
`)
	root := t.TempDir()
	writeConfig(t, root, config.ProjectConfigFile, "upload:\n  binary: project-coveralls\n")

	cfg, err := config.NewLoader().WithProjectRoot(root).Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Upload.Binary != "project-coveralls" {
		t.Errorf("project config should win, got '%s'", cfg.Upload.Binary)
	}
	if cfg.Upload.FlagName != "from-global" {
		t.Errorf("global value should survive, got '%s'", cfg.Upload.FlagName)
	}

	paths := config.NewLoader().WithProjectRoot(root).FindConfigPaths()
	if len(paths) != 2 {
		t.Errorf("Expected 2 config paths, got %v", paths)
	}
}

func TestLoadExplicitConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "ci.yaml", "targets:\n  ci:\n    src: coverage/*.info\n")

	cfg, err := config.NewLoader().SkipGlobal().WithConfigFile(path).Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if _, ok := cfg.Target("ci"); !ok {
		t.Error("Expected target 'ci' from explicit config")
	}

	_, err = config.NewLoader().SkipGlobal().WithConfigFile(filepath.Join(dir, "missing.yaml")).Load()
	if err == nil {
		t.Error("Expected error for missing explicit config file")
	}
}

func TestLoadMissingProjectConfigIsFine(t *testing.T) {
	cfg, err := config.NewLoader().WithProjectRoot(t.TempDir()).SkipGlobal().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Upload.Binary != "coveralls" {
		t.Errorf("Expected defaults, got binary '%s'", cfg.Upload.Binary)
	}
}

func TestEnvOverrideInvalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
		field string
	}{
		{"COVSUBMIT_UPLOAD__TIMEOUT", "soon", "upload.timeout"},
		{"COVSUBMIT_UPLOAD__CONCURRENCY", "many", "upload.concurrency"},
		{"COVSUBMIT_UPLOAD__PARALLEL", "sometimes", "upload.parallel"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := config.NewLoader().WithProjectRoot(t.TempDir()).SkipGlobal().Load()
			var cfgErr *config.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %s, want %s", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestValidator(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"ok", func(*config.Config) {}, ""},
		{"empty binary", func(c *config.Config) { c.Upload.Binary = "" }, "upload.binary"},
		{"empty binary dry run", func(c *config.Config) { c.Upload.Binary = ""; c.Upload.DryRun = true }, ""},
		{"dry run without dir", func(c *config.Config) { c.Upload.DryRun = true; c.Upload.ArchiveDir = "" }, "upload.archive_dir"},
		{"negative timeout", func(c *config.Config) { c.Upload.Timeout = -time.Second }, "upload.timeout"},
		{"concurrency too high", func(c *config.Config) { c.Upload.Concurrency = 1000 }, "upload.concurrency"},
		{"token in config", func(c *config.Config) { c.Upload.RepoTokenEnv = "abc-123-secret" }, "upload.repo_token_env"},
		{"bad log level", func(c *config.Config) { c.Global.LogLevel = "loud" }, "global.log_level"},
		{"bad log format", func(c *config.Config) { c.Global.LogFormat = "xml" }, "global.log_format"},
		{"bad sample ratio", func(c *config.Config) { c.Observability.Tracing.SampleRatio = 2 }, "observability.tracing.sample_ratio"},
		{"empty src", func(c *config.Config) {
			c.Targets = map[string]config.TargetConfig{"x": {Src: []string{" "}}}
		}, "targets.x.src[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)
			err := config.NewValidator().Validate(cfg)
			if tt.field == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			var vErr *config.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if vErr.Field != tt.field {
				t.Errorf("Field = %s, want %s", vErr.Field, tt.field)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	out, err := config.Describe(config.DefaultConfig())
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if !strings.Contains(out, "binary: coveralls") {
		t.Errorf("Describe() missing binary:\n%s", out)
	}
}

func TestGetEnvConfig(t *testing.T) {
	t.Setenv("COVSUBMIT_GLOBAL__LOG_FORMAT", "json")
	env := config.GetEnvConfig()
	if env["COVSUBMIT_GLOBAL__LOG_FORMAT"] != "json" {
		t.Errorf("GetEnvConfig() = %v", env)
	}
}
