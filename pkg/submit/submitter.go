// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package submit

import (
	"context"
	"errors"
	"fmt"
	"time"

	cerrors "github.com/cicd-ai-toolkit/covsubmit/pkg/errors"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/observability"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/source"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/uploader"
)

// Submitter reads one report and hands its content to an uploader.
type Submitter struct {
	src source.Source
	up  uploader.Uploader
	log observability.Logger
}

// NewSubmitter creates a submitter. A nil logger discards output.
func NewSubmitter(src source.Source, up uploader.Uploader, log observability.Logger) *Submitter {
	if log == nil {
		log = observability.NopLogger()
	}
	return &Submitter{src: src, up: up, log: log}
}

// SubmitOne reads req and uploads its content. The uploader is not called
// when the report cannot be read.
func (s *Submitter) SubmitOne(ctx context.Context, req Request) Outcome {
	start := time.Now()
	log := s.log.With(observability.String("path", req.Path))

	if err := ctx.Err(); err != nil {
		return interrupted(req, err, start)
	}

	content, err := s.src.Read(ctx, req.Path)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return interrupted(req, err, start)
	}
	if err != nil {
		return Outcome{
			Request:  req,
			Err:      cerrors.InputError(fmt.Sprintf("cannot read %s", req.Path), err).WithContext("path", req.Path),
			Duration: time.Since(start),
		}
	}
	log.Debug("read coverage report", observability.Int("bytes", len(content)))

	if err := s.up.Upload(ctx, content); err != nil {
		return Outcome{
			Request:  req,
			Err:      uploadFailure(req.Path, err),
			Duration: time.Since(start),
		}
	}

	return Outcome{Request: req, Success: true, Duration: time.Since(start)}
}

// Func returns SubmitOne as a SubmitFunc.
func (s *Submitter) Func() SubmitFunc {
	return s.SubmitOne
}

// interrupted reports a submission stopped before its report was read. The
// report itself may be fine, so it is not an input failure.
func interrupted(req Request, err error, start time.Time) Outcome {
	return Outcome{
		Request:  req,
		Err:      cerrors.UploadError(fmt.Sprintf("submission of %s interrupted", req.Path), err).WithContext("path", req.Path),
		Duration: time.Since(start),
	}
}

// uploadFailure keeps the uploader's own classification when it has one.
func uploadFailure(path string, err error) error {
	if t, ok := cerrors.TypeOf(err); ok {
		switch t {
		case cerrors.ErrUpload, cerrors.ErrHelper, cerrors.ErrTimeout:
			if se, ok := err.(*cerrors.SubmitError); ok {
				return se.WithContext("path", path)
			}
			return err
		}
	}
	return cerrors.UploadError(fmt.Sprintf("upload of %s failed", path), err).WithContext("path", path)
}
