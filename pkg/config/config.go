// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package config provides configuration management for covsubmit.
//
// Configuration Loading Order (later overrides earlier):
// 1. Defaults (hardcoded)
// 2. Global Config: $HOME/.covsubmit/config.yaml
// 3. Project Config: ./.covsubmit.yaml, or the file given with --config
// 4. Environment Variables: COVSUBMIT_*
// 5. Command-line flags (applied by the CLI)
package config

import (
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration.
type Config struct {
	Upload        UploadConfig            `yaml:"upload"`
	Targets       map[string]TargetConfig `yaml:"targets,omitempty"`
	Global        GlobalConfig            `yaml:"global"`
	Observability ObservabilityConfig     `yaml:"observability"`
}

// UploadConfig controls how reports reach the coverage service.
type UploadConfig struct {
	Binary      string        `yaml:"binary"`
	Args        []string      `yaml:"args,omitempty"`
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"` // 0 = unbounded
	MaxBytes    int64         `yaml:"max_bytes"`

	// RepoTokenEnv names the variable holding the repo token. The token
	// itself is never stored in a config file.
	RepoTokenEnv string `yaml:"repo_token_env"`
	Parallel     bool   `yaml:"parallel"`
	FlagName     string `yaml:"flag_name,omitempty"`

	DryRun     bool   `yaml:"dry_run"`
	ArchiveDir string `yaml:"archive_dir"`
}

// TargetConfig is a named list of report paths or glob patterns.
type TargetConfig struct {
	Src []string `yaml:"src"`
	// FlagName overrides upload.flag_name for this target.
	FlagName string `yaml:"flag_name,omitempty"`
}

// UnmarshalYAML accepts src as a single string or a list.
func (t *TargetConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Src      yaml.Node `yaml:"src"`
		FlagName string    `yaml:"flag_name"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	t.FlagName = raw.FlagName

	switch raw.Src.Kind {
	case 0:
		t.Src = nil
	case yaml.ScalarNode:
		var one string
		if err := raw.Src.Decode(&one); err != nil {
			return err
		}
		t.Src = []string{one}
	case yaml.SequenceNode:
		var many []string
		if err := raw.Src.Decode(&many); err != nil {
			return err
		}
		t.Src = many
	default:
		return fmt.Errorf("line %d: src must be a string or a list of strings", raw.Src.Line)
	}
	return nil
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text, json
}

// ObservabilityConfig controls metrics and tracing output.
type ObservabilityConfig struct {
	// MetricsFile receives a node-exporter textfile after each run.
	MetricsFile string        `yaml:"metrics_file,omitempty"`
	Tracing     TracingConfig `yaml:"tracing"`
}

// TracingConfig configures OTLP trace export.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint,omitempty"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
	ServiceName string  `yaml:"service_name,omitempty"`
}

// Target returns the named target.
func (c *Config) Target(name string) (TargetConfig, bool) {
	t, ok := c.Targets[name]
	return t, ok
}

// TargetNames returns target names in sorted order.
func (c *Config) TargetNames() []string {
	names := make([]string, 0, len(c.Targets))
	for name := range c.Targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
