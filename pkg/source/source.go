// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package source reads coverage reports and expands input patterns.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultMaxBytes caps a single report read.
const DefaultMaxBytes = 256 << 20

// Source reads the content of one input.
type Source interface {
	Read(ctx context.Context, path string) (string, error)
}

// FileSource reads inputs from the local filesystem.
type FileSource struct {
	root     string
	maxBytes int64
}

// NewFileSource creates a source resolving relative paths against root.
// An empty root means the working directory.
func NewFileSource(root string) *FileSource {
	return &FileSource{root: root, maxBytes: DefaultMaxBytes}
}

// WithMaxBytes overrides the per-file size cap.
func (s *FileSource) WithMaxBytes(n int64) *FileSource {
	s.maxBytes = n
	return s
}

// Read returns the file content as text.
func (s *FileSource) Read(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	full := s.resolve(path)
	info, err := os.Stat(full)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	if s.maxBytes > 0 && info.Size() > s.maxBytes {
		return "", fmt.Errorf("%s is %d bytes, limit is %d", path, info.Size(), s.maxBytes)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *FileSource) resolve(path string) string {
	if s.root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.root, path)
}
