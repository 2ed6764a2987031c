// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package uploader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// syncBuffer is a bytes.Buffer safe for concurrent write and read.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// HelperProcess manages one uploader helper subprocess. A process is spawned
// for a single report and never reused.
type HelperProcess struct {
	mu sync.RWMutex

	cmd   *exec.Cmd
	stdin io.WriteCloser

	args    []string
	binary  string
	env     []string
	started bool
	exited  bool

	stdoutBuf syncBuffer
	stderrBuf syncBuffer

	waitCh   chan error
	exitCode int
}

// NewHelperProcess creates a helper process for binary with the given arguments.
func NewHelperProcess(binary string, args []string) *HelperProcess {
	return &HelperProcess{
		args:     args,
		binary:   binary,
		waitCh:   make(chan error, 1),
		exitCode: -1,
	}
}

// WithEnv sets the full environment of the helper. A nil env inherits ours.
func (p *HelperProcess) WithEnv(env []string) *HelperProcess {
	p.env = env
	return p
}

// Start starts the helper process.
func (p *HelperProcess) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return ErrProcessAlreadyRun
	}

	if _, err := exec.LookPath(p.binary); err != nil {
		return ErrHelperNotFound
	}

	p.cmd = exec.CommandContext(ctx, p.binary, p.args...)
	p.cmd.Env = p.env
	p.cmd.Stdout = &p.stdoutBuf
	p.cmd.Stderr = &p.stderrBuf

	var err error
	p.stdin, err = p.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	if err := p.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start uploader process: %w", err)
	}

	p.started = true

	go func() {
		err := p.cmd.Wait()
		p.mu.Lock()
		p.exited = true
		if p.cmd.ProcessState != nil {
			p.exitCode = p.cmd.ProcessState.ExitCode()
		}
		p.mu.Unlock()
		p.waitCh <- err
	}()

	return nil
}

// WriteInput writes the report to the helper's stdin and closes stdin.
func (p *HelperProcess) WriteInput(content string) error {
	p.mu.RLock()
	if !p.started {
		p.mu.RUnlock()
		return ErrProcessNotRunning
	}
	stdin := p.stdin
	p.mu.RUnlock()

	_, writeErr := io.WriteString(stdin, content)
	closeErr := stdin.Close()
	if writeErr != nil {
		return fmt.Errorf("failed to write report: %w", writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close stdin: %w", closeErr)
	}
	return nil
}

// Wait waits for the process to exit and returns its stdout.
func (p *HelperProcess) Wait(ctx context.Context) (string, error) {
	select {
	case err := <-p.waitCh:
		output := p.stdoutBuf.String()
		if err != nil {
			if ctx.Err() != nil {
				return output, contextErr(ctx)
			}
			return output, fmt.Errorf("process failed (exit code %d): %w", p.ExitCode(), err)
		}
		return output, nil

	case <-ctx.Done():
		_ = p.Kill()
		if err := <-p.waitCh; err == nil {
			// Exited cleanly just as the deadline hit.
			return p.stdoutBuf.String(), nil
		}
		return p.stdoutBuf.String(), contextErr(ctx)
	}
}

// contextErr tells a deadline apart from a plain cancellation.
func contextErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ErrInterrupted
}

// Kill forcefully kills the helper process.
func (p *HelperProcess) Kill() error {
	p.mu.RLock()
	if !p.started || p.exited {
		p.mu.RUnlock()
		return nil
	}
	cmd := p.cmd
	p.mu.RUnlock()

	if cmd.Process == nil {
		return nil
	}

	if err := cmd.Process.Kill(); err != nil {
		if !strings.Contains(err.Error(), "process already finished") {
			return fmt.Errorf("failed to kill process: %w", err)
		}
	}
	return nil
}

// IsRunning checks if the process is running.
func (p *HelperProcess) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.started && !p.exited
}

// ExitCode returns the process exit code, or -1 if it has not exited.
func (p *HelperProcess) ExitCode() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.exitCode
}

// Stdout returns the captured stdout.
func (p *HelperProcess) Stdout() string {
	return p.stdoutBuf.String()
}

// Stderr returns the captured stderr.
func (p *HelperProcess) Stderr() string {
	return p.stderrBuf.String()
}
