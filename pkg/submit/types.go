// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package submit submits a batch of coverage reports and folds the
// per-report verdicts into one result.
package submit

import (
	"context"
	"errors"
	"time"

	cerrors "github.com/cicd-ai-toolkit/covsubmit/pkg/errors"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/observability"
)

// ErrNoInputs is recorded when a batch has nothing to submit.
var ErrNoInputs = errors.New("no coverage reports to submit")

// Request identifies one report to submit.
type Request struct {
	Path string `json:"path" yaml:"path"`
}

// Requests builds requests from paths, keeping their order.
func Requests(paths []string) []Request {
	reqs := make([]Request, 0, len(paths))
	for _, p := range paths {
		reqs = append(reqs, Request{Path: p})
	}
	return reqs
}

// Outcome is the verdict for one request.
type Outcome struct {
	Request  Request
	Success  bool
	Err      error
	Duration time.Duration
}

// Kind labels the outcome for logs and metrics.
func (o Outcome) Kind() string {
	switch {
	case o.Success:
		return observability.OutcomeSuccess
	case cerrors.IsType(o.Err, cerrors.ErrInput):
		return observability.OutcomeInputUnavailable
	default:
		return observability.OutcomeUploadRejected
	}
}

// SubmitFunc submits a single request and reports exactly one outcome.
type SubmitFunc func(ctx context.Context, req Request) Outcome

// Result is the aggregate of a batch.
type Result struct {
	BatchID string
	// Success is true only when every outcome succeeded.
	Success bool
	Total   int
	Failed  int
	// Outcomes are in input order, whatever order they completed in.
	Outcomes []Outcome
	Duration time.Duration
	// Err summarises why the batch failed; nil on success.
	Err error
}

// FailedOutcomes returns the outcomes that did not succeed.
func (r Result) FailedOutcomes() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if !o.Success {
			failed = append(failed, o)
		}
	}
	return failed
}
