// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultConfig returns the default configuration.
// These values are used when no config file is present.
func DefaultConfig() *Config {
	return &Config{
		Upload:        DefaultUploadConfig(),
		Global:        DefaultGlobalConfig(),
		Observability: DefaultObservabilityConfig(),
	}
}

// DefaultUploadConfig returns the default uploader configuration.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		Binary:       "coveralls",
		Timeout:      2 * time.Minute,
		Concurrency:  0,         // one helper per report, all at once
		MaxBytes:     256 << 20, // 256MB
		RepoTokenEnv: "COVERALLS_REPO_TOKEN",
		ArchiveDir:   filepath.Join(".covsubmit", "archive"),
	}
}

// DefaultGlobalConfig returns default global configuration.
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// DefaultObservabilityConfig returns default metrics and tracing settings.
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Tracing: TracingConfig{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			SampleRatio: 1.0,
			ServiceName: "covsubmit",
		},
	}
}

// GetDefaultConfigPath returns the default global config file path.
func GetDefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, GlobalConfigDir, GlobalConfigFile)
}

// GetProjectConfigPath returns the project config file path.
func GetProjectConfigPath(projectRoot string) string {
	if projectRoot == "" {
		projectRoot = "."
	}
	return filepath.Join(projectRoot, ProjectConfigFile)
}
