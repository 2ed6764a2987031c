// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package uploader submits one coverage report to the aggregation service.
package uploader

import (
	"context"
	"errors"
)

// Uploader submits the content of a single report. It returns nil on success
// and an error when the service, or the helper talking to it, rejected it.
type Uploader interface {
	Upload(ctx context.Context, content string) error
}

// Func adapts a function to the Uploader interface.
type Func func(ctx context.Context, content string) error

// Upload calls f.
func (f Func) Upload(ctx context.Context, content string) error {
	return f(ctx, content)
}

// Errors
var (
	ErrHelperNotFound    = errors.New("uploader helper binary not found in PATH")
	ErrProcessNotRunning = errors.New("process is not running")
	ErrProcessAlreadyRun = errors.New("process has already been started")
	ErrTimeout           = errors.New("upload timed out")
	ErrInterrupted       = errors.New("upload interrupted")
)
