// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package submit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	cerrors "github.com/cicd-ai-toolkit/covsubmit/pkg/errors"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/observability"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/perf"
)

// Status lines logged when a batch is finalized.
const (
	MsgSuccess = "Successfully submitted coverage results"
	MsgFailure = "Failed to submit coverage results"
)

// Observer is called once per outcome, from a single goroutine, in the
// order outcomes complete. completed counts outcomes seen so far.
type Observer func(o Outcome, completed, total int)

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the logger.
func WithLogger(log observability.Logger) Option {
	return func(a *Aggregator) {
		if log != nil {
			a.log = log
		}
	}
}

// WithMetrics records outcomes and batches into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// WithTracer traces batches and submissions.
func WithTracer(t *observability.Tracer) Option {
	return func(a *Aggregator) { a.tracer = t }
}

// WithConcurrency bounds how many submissions run at once. Zero or less
// means unbounded.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) { a.concurrency = n }
}

// WithObserver registers an outcome observer.
func WithObserver(fn Observer) Option {
	return func(a *Aggregator) { a.observers = append(a.observers, fn) }
}

// Aggregator runs batches of independent submissions.
type Aggregator struct {
	log         observability.Logger
	metrics     *observability.Metrics
	tracer      *observability.Tracer
	concurrency int
	observers   []Observer
}

// New creates an Aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{log: observability.NopLogger()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type indexedOutcome struct {
	index   int
	outcome Outcome
}

// RunBatch submits every input concurrently and calls done exactly once,
// after all submissions have reported. Failures do not cancel siblings.
// An empty batch fails at once without calling submitOne.
//
// For a non-empty batch RunBatch returns before done is called.
func (a *Aggregator) RunBatch(ctx context.Context, inputs []Request, submitOne SubmitFunc, done func(Result)) {
	start := time.Now()
	batchID := uuid.NewString()
	log := a.log.With(observability.String("batch_id", batchID))

	if len(inputs) == 0 {
		res := Result{
			BatchID:  batchID,
			Err:      cerrors.ConfigError("empty batch", ErrNoInputs),
			Duration: time.Since(start),
		}
		a.metrics.RecordBatch(false, 0)
		log.Error(MsgFailure, observability.Err(res.Err))
		done(res)
		return
	}

	ctx, batchSpan := a.tracer.Start(ctx, "covsubmit.batch",
		observability.String("batch_id", batchID),
		observability.Int("inputs", len(inputs)),
	)
	limiter := perf.NewRateLimiter(a.concurrency)
	results := make(chan indexedOutcome, len(inputs))

	log.Debug("submitting batch",
		observability.Int("inputs", len(inputs)),
		observability.Int("concurrency", limiter.Limit()),
	)

	for i, req := range inputs {
		go func(i int, req Request) {
			results <- indexedOutcome{index: i, outcome: a.submit(ctx, limiter, submitOne, req)}
		}(i, req)
	}

	go func() {
		outcomes := make([]Outcome, len(inputs))
		pending := len(inputs)
		success := true
		failed := 0

		for pending > 0 {
			r := <-results
			pending--
			outcomes[r.index] = r.outcome
			success = success && r.outcome.Success
			if !r.outcome.Success {
				failed++
			}
			a.record(log, r.outcome, len(inputs)-pending, len(inputs))
		}
		_ = limiter.Close()

		res := Result{
			BatchID:  batchID,
			Success:  success,
			Total:    len(inputs),
			Failed:   failed,
			Outcomes: outcomes,
			Duration: time.Since(start),
		}
		if !success {
			res.Err = batchError(res)
		}

		a.metrics.RecordBatch(success, len(inputs))
		batchSpan.SetFields(observability.Bool("success", success), observability.Int("failed", failed))
		batchSpan.Fail(res.Err)
		batchSpan.End()

		if success {
			log.Info(MsgSuccess, observability.Int("inputs", res.Total), observability.Duration("duration", res.Duration))
		} else {
			log.Error(MsgFailure, observability.Int("inputs", res.Total), observability.Int("failed", failed))
		}
		done(res)
	}()
}

// Run is the blocking form of RunBatch.
func (a *Aggregator) Run(ctx context.Context, inputs []Request, submitOne SubmitFunc) Result {
	ch := make(chan Result, 1)
	a.RunBatch(ctx, inputs, submitOne, func(r Result) { ch <- r })
	return <-ch
}

// submit runs one submission and always produces an outcome for req.
func (a *Aggregator) submit(ctx context.Context, limiter *perf.RateLimiter, submitOne SubmitFunc, req Request) (out Outcome) {
	ctx, span := a.tracer.Start(ctx, "covsubmit.submit", observability.String("path", req.Path))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Err: fmt.Errorf("submission of %s panicked: %v", req.Path, r)}
		}
		out.Request = req
		if out.Duration == 0 {
			out.Duration = time.Since(start)
		}
		span.SetFields(observability.String("outcome", out.Kind()))
		span.Fail(out.Err)
		span.End()
	}()

	// Waiting for a slot must not be abandoned, or the input would never
	// report. Cancellation still reaches submitOne through ctx.
	err := limiter.Do(context.WithoutCancel(ctx), func() error {
		out = submitOne(ctx, req)
		return nil
	})
	if err != nil {
		out = Outcome{Err: cerrors.UploadError("submission not scheduled", err)}
	}
	if !out.Success && out.Err == nil {
		out.Err = cerrors.UploadError(fmt.Sprintf("upload of %s failed", req.Path), nil)
	}
	return out
}

func (a *Aggregator) record(log observability.Logger, o Outcome, completed, total int) {
	a.metrics.RecordSubmission(o.Kind(), o.Duration)

	fields := []observability.Field{
		observability.String("path", o.Request.Path),
		observability.String("outcome", o.Kind()),
		observability.Duration("duration", o.Duration),
	}
	if o.Success {
		log.Debug("report submitted", fields...)
	} else {
		log.Warn("report not submitted", append(fields, observability.Err(o.Err))...)
	}

	for _, fn := range a.observers {
		fn(o, completed, total)
	}
}

func batchError(res Result) error {
	for _, o := range res.Outcomes {
		if cerrors.IsType(o.Err, cerrors.ErrTimeout) {
			return cerrors.TimeoutError(fmt.Sprintf("%d of %d reports not submitted", res.Failed, res.Total), o.Err)
		}
	}
	return cerrors.UploadError(fmt.Sprintf("%d of %d reports not submitted", res.Failed, res.Total), nil)
}
