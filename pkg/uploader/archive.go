// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package uploader

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	cerrors "github.com/cicd-ai-toolkit/covsubmit/pkg/errors"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/observability"
)

// ArchiveUploader stores reports in a local directory instead of sending
// them anywhere. It backs --dry-run.
type ArchiveUploader struct {
	rootDir string
	log     observability.Logger
}

// NewArchiveUploader creates an uploader writing into rootDir.
func NewArchiveUploader(rootDir string, log observability.Logger) *ArchiveUploader {
	if log == nil {
		log = observability.NopLogger()
	}
	return &ArchiveUploader{rootDir: rootDir, log: log}
}

// Upload writes content to a new uuid-named .info file.
func (u *ArchiveUploader) Upload(ctx context.Context, content string) error {
	dst, err := u.Archive(ctx, content)
	if err != nil {
		return err
	}
	u.log.Info("archived report", observability.String("file", dst))
	return nil
}

// Archive writes content and returns the absolute path of the stored file.
func (u *ArchiveUploader) Archive(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", cerrors.UploadError("archive cancelled", err)
	}
	if err := os.MkdirAll(u.rootDir, 0o755); err != nil {
		return "", cerrors.UploadError("failed to create archive dir", err)
	}

	dst := filepath.Join(u.rootDir, uuid.NewString()+".info")
	if err := os.WriteFile(dst, []byte(content), 0o644); err != nil {
		return "", cerrors.UploadError("failed to write archive file", err)
	}
	abs, err := filepath.Abs(dst)
	if err != nil {
		return dst, nil
	}
	return abs, nil
}
