// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"fmt"
	"strings"
)

// MaxConcurrency caps upload.concurrency.
const MaxConcurrency = 64

// Validator validates configuration.
type Validator struct{}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates a configuration.
func (v *Validator) Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if err := v.ValidateUpload(&cfg.Upload); err != nil {
		return err
	}
	if err := v.ValidateTargets(cfg.Targets); err != nil {
		return err
	}
	if err := v.ValidateGlobal(&cfg.Global); err != nil {
		return err
	}
	return v.ValidateObservability(&cfg.Observability)
}

// ValidateUpload validates uploader configuration.
func (v *Validator) ValidateUpload(cfg *UploadConfig) error {
	if !cfg.DryRun && strings.TrimSpace(cfg.Binary) == "" {
		return &ValidationError{
			Field:   "upload.binary",
			Message: "must be set",
		}
	}
	if cfg.DryRun && strings.TrimSpace(cfg.ArchiveDir) == "" {
		return &ValidationError{
			Field:   "upload.archive_dir",
			Message: "must be set when dry_run is enabled",
		}
	}
	if cfg.Timeout < 0 {
		return &ValidationError{
			Field:   "upload.timeout",
			Value:   cfg.Timeout,
			Message: "must be non-negative",
		}
	}
	if cfg.Concurrency < 0 || cfg.Concurrency > MaxConcurrency {
		return &ValidationError{
			Field:   "upload.concurrency",
			Value:   cfg.Concurrency,
			Message: fmt.Sprintf("must be between 0 and %d", MaxConcurrency),
		}
	}
	if cfg.MaxBytes < 0 {
		return &ValidationError{
			Field:   "upload.max_bytes",
			Value:   cfg.MaxBytes,
			Message: "must be non-negative",
		}
	}
	// A variable name, not the token itself.
	if cfg.RepoTokenEnv != "" && !isEnvName(cfg.RepoTokenEnv) {
		return &ValidationError{
			Field:   "upload.repo_token_env",
			Message: "must name an environment variable (the token itself is not allowed)",
		}
	}
	return nil
}

// ValidateTargets validates named targets.
func (v *Validator) ValidateTargets(targets map[string]TargetConfig) error {
	for name, t := range targets {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Field: "targets", Message: "target name must not be empty"}
		}
		for i, src := range t.Src {
			if strings.TrimSpace(src) == "" {
				return &ValidationError{
					Field:   fmt.Sprintf("targets.%s.src[%d]", name, i),
					Message: "must not be empty",
				}
			}
		}
	}
	return nil
}

// ValidateGlobal validates global configuration.
func (v *Validator) ValidateGlobal(cfg *GlobalConfig) error {
	if err := oneOf("global.log_level", cfg.LogLevel, "debug", "info", "warn", "error"); err != nil {
		return err
	}
	return oneOf("global.log_format", cfg.LogFormat, "text", "json")
}

// ValidateObservability validates metrics and tracing settings.
func (v *Validator) ValidateObservability(cfg *ObservabilityConfig) error {
	r := cfg.Tracing.SampleRatio
	if r < 0 || r > 1 {
		return &ValidationError{
			Field:   "observability.tracing.sample_ratio",
			Value:   r,
			Message: "must be between 0 and 1",
		}
	}
	return nil
}

func oneOf(field, value string, allowed ...string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

func isEnvName(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation error for %s: %s (got: %v)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}
