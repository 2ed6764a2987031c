// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package uploader

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	cerrors "github.com/cicd-ai-toolkit/covsubmit/pkg/errors"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/observability"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/security"
)

const (
	// DefaultBinary is the uploader helper invoked when none is configured.
	DefaultBinary = "coveralls"
	// DefaultTimeout bounds a single helper run.
	DefaultTimeout = 2 * time.Minute

	stderrExcerptBytes = 512
)

// ProcessOptions configures a ProcessUploader.
type ProcessOptions struct {
	Binary   string
	Args     []string
	Env      []string // full helper environment; nil inherits ours
	Timeout  time.Duration
	Redactor *security.Redactor
	Logger   observability.Logger
}

// ProcessUploader submits each report by piping it to a fresh helper process.
// Exit status 0 means the service accepted the report.
type ProcessUploader struct {
	binary   string
	args     []string
	env      []string
	timeout  time.Duration
	redactor *security.Redactor
	log      observability.Logger
}

// NewProcessUploader creates a new process uploader.
func NewProcessUploader(opts ProcessOptions) *ProcessUploader {
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger()
	}
	return &ProcessUploader{
		binary:   opts.Binary,
		args:     opts.Args,
		env:      opts.Env,
		timeout:  opts.Timeout,
		redactor: opts.Redactor,
		log:      opts.Logger,
	}
}

// Binary returns the configured helper binary.
func (u *ProcessUploader) Binary() string {
	return u.binary
}

// Preflight resolves the helper binary without running it.
func (u *ProcessUploader) Preflight() (string, error) {
	path, err := exec.LookPath(u.binary)
	if err != nil {
		return "", cerrors.HelperError(fmt.Sprintf("cannot resolve %q", u.binary), ErrHelperNotFound)
	}
	return path, nil
}

// Upload spawns the helper, writes content to its stdin and waits for it.
func (u *ProcessUploader) Upload(ctx context.Context, content string) error {
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	if ctx.Err() != nil {
		return u.contextFailure(contextErr(ctx))
	}

	p := NewHelperProcess(u.binary, u.args).WithEnv(u.env)
	if err := p.Start(ctx); err != nil {
		if errors.Is(err, ErrHelperNotFound) {
			return cerrors.HelperError(fmt.Sprintf("cannot resolve %q", u.binary), err)
		}
		return cerrors.HelperError("failed to start uploader", err)
	}

	// A helper that exits before reading everything closes the pipe under
	// us; its exit status is the more useful verdict, so wait first.
	writeErr := p.WriteInput(content)
	_, waitErr := p.Wait(ctx)

	if stdout := strings.TrimSpace(p.Stdout()); stdout != "" {
		u.log.Debug("uploader output", observability.String("stdout", u.redactor.Redact(excerpt(stdout))))
	}

	if waitErr != nil {
		if errors.Is(waitErr, ErrTimeout) || errors.Is(waitErr, ErrInterrupted) {
			return u.contextFailure(waitErr)
		}
		msg := fmt.Sprintf("uploader failed with exit code %d", p.ExitCode())
		if stderr := strings.TrimSpace(p.Stderr()); stderr != "" {
			return cerrors.UploadError(msg, errors.New(u.redactor.Redact(excerpt(stderr)))).
				WithContext("exit_code", p.ExitCode())
		}
		return cerrors.UploadError(msg, nil).WithContext("exit_code", p.ExitCode())
	}
	if writeErr != nil {
		return cerrors.UploadError("failed to send report to uploader", writeErr)
	}
	return nil
}

func (u *ProcessUploader) contextFailure(err error) error {
	if errors.Is(err, ErrTimeout) {
		return cerrors.TimeoutError(fmt.Sprintf("uploader did not finish within %s", u.timeout), err)
	}
	return cerrors.UploadError("uploader interrupted", err)
}

// excerpt keeps the tail of helper output, where the verdict usually is.
func excerpt(s string) string {
	if len(s) <= stderrExcerptBytes {
		return s
	}
	return "..." + s[len(s)-stderrExcerptBytes:]
}
