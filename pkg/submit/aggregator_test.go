// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package submit_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	cerrors "github.com/cicd-ai-toolkit/covsubmit/pkg/errors"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/observability"
	"github.com/cicd-ai-toolkit/covsubmit/pkg/submit"
)

func succeedWhen(pred func(path string) bool) submit.SubmitFunc {
	return func(_ context.Context, req submit.Request) submit.Outcome {
		if pred(req.Path) {
			return submit.Outcome{Request: req, Success: true}
		}
		return submit.Outcome{Request: req, Err: cerrors.UploadError("rejected", nil)}
	}
}

func TestEmptyBatchFailsWithoutSubmitting(t *testing.T) {
	var calls atomic.Int32
	submitOne := func(_ context.Context, req submit.Request) submit.Outcome {
		calls.Add(1)
		return submit.Outcome{Request: req, Success: true}
	}

	var doneCalls int
	var got submit.Result
	submit.New().RunBatch(context.Background(), nil, submitOne, func(r submit.Result) {
		doneCalls++
		got = r
	})

	// An empty batch reports before RunBatch returns.
	assert.Equal(t, 1, doneCalls)
	assert.False(t, got.Success)
	assert.Zero(t, calls.Load())
	assert.ErrorIs(t, got.Err, submit.ErrNoInputs)
	assert.Equal(t, cerrors.ExitUsageError, cerrors.ExitCode(got.Err))
}

func TestEverySubmissionRunsExactlyOnce(t *testing.T) {
	const n = 50

	var mu sync.Mutex
	seen := make(map[string]int)
	submitOne := func(_ context.Context, req submit.Request) submit.Outcome {
		mu.Lock()
		seen[req.Path]++
		mu.Unlock()
		return submit.Outcome{Request: req, Success: true}
	}

	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("r%02d.info", i)
	}

	res := submit.New().Run(context.Background(), submit.Requests(paths), submitOne)

	assert.True(t, res.Success)
	assert.Len(t, seen, n)
	for p, c := range seen {
		assert.Equal(t, 1, c, "path %s", p)
	}
}

func TestResultIsConjunction(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		ok    map[string]bool
		want  bool
	}{
		{"single success", []string{"a"}, map[string]bool{"a": true}, true},
		{"single failure", []string{"a"}, map[string]bool{}, false},
		{"all succeed", []string{"a", "b", "c"}, map[string]bool{"a": true, "b": true, "c": true}, true},
		{"first fails", []string{"a", "b", "c"}, map[string]bool{"b": true, "c": true}, false},
		{"last fails", []string{"a", "b", "c"}, map[string]bool{"a": true, "b": true}, false},
		{"all fail", []string{"a", "b"}, map[string]bool{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := submit.New().Run(context.Background(), submit.Requests(tt.paths),
				succeedWhen(func(p string) bool { return tt.ok[p] }))
			if res.Success != tt.want {
				t.Errorf("Success = %v, want %v", res.Success, tt.want)
			}
			if res.Total != len(tt.paths) {
				t.Errorf("Total = %d, want %d", res.Total, len(tt.paths))
			}
		})
	}
}

func TestEarlyFailureDoesNotShortCircuit(t *testing.T) {
	release := make(chan struct{})
	var slowDone atomic.Bool

	submitOne := func(_ context.Context, req submit.Request) submit.Outcome {
		if req.Path == "fast" {
			return submit.Outcome{Request: req, Err: errors.New("boom")}
		}
		<-release
		slowDone.Store(true)
		return submit.Outcome{Request: req, Success: true}
	}

	doneCh := make(chan submit.Result, 1)
	submit.New().RunBatch(context.Background(), submit.Requests([]string{"slow", "fast"}), submitOne,
		func(r submit.Result) { doneCh <- r })

	select {
	case <-doneCh:
		t.Fatal("batch finalized before every submission reported")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	res := <-doneCh
	assert.True(t, slowDone.Load())
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Failed)
}

func TestOutcomesKeepInputOrder(t *testing.T) {
	// Later inputs finish first.
	submitOne := func(_ context.Context, req submit.Request) submit.Outcome {
		switch req.Path {
		case "first":
			time.Sleep(30 * time.Millisecond)
		case "second":
			time.Sleep(10 * time.Millisecond)
		}
		return submit.Outcome{Request: req, Success: true}
	}

	var order []string
	res := submit.New(submit.WithObserver(func(o submit.Outcome, completed, total int) {
		order = append(order, o.Request.Path)
		assert.Equal(t, 3, total)
		assert.Equal(t, len(order), completed)
	})).Run(context.Background(), submit.Requests([]string{"first", "second", "third"}), submitOne)

	require.Len(t, res.Outcomes, 3)
	assert.Equal(t, "first", res.Outcomes[0].Request.Path)
	assert.Equal(t, "second", res.Outcomes[1].Request.Path)
	assert.Equal(t, "third", res.Outcomes[2].Request.Path)
	assert.ElementsMatch(t, []string{"first", "second", "third"}, order)
}

func TestConcurrencyBound(t *testing.T) {
	var running, peak atomic.Int32
	submitOne := func(_ context.Context, req submit.Request) submit.Outcome {
		cur := running.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return submit.Outcome{Request: req, Success: true}
	}

	paths := []string{"a", "b", "c", "d", "e", "f"}
	res := submit.New(submit.WithConcurrency(2)).Run(context.Background(), submit.Requests(paths), submitOne)

	assert.True(t, res.Success)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestCancelledContextStillReportsEveryInput(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	submitOne := func(ctx context.Context, req submit.Request) submit.Outcome {
		if ctx.Err() != nil {
			return submit.Outcome{Request: req, Err: cerrors.UploadError("cancelled", ctx.Err())}
		}
		return submit.Outcome{Request: req, Success: true}
	}

	res := submit.New(submit.WithConcurrency(1)).Run(ctx, submit.Requests([]string{"a", "b", "c"}), submitOne)
	assert.False(t, res.Success)
	assert.Len(t, res.Outcomes, 3)
	assert.Equal(t, 3, res.Failed)
}

func TestPanickingSubmissionBecomesFailure(t *testing.T) {
	submitOne := func(_ context.Context, req submit.Request) submit.Outcome {
		if req.Path == "bad" {
			panic("kaboom")
		}
		return submit.Outcome{Request: req, Success: true}
	}

	res := submit.New().Run(context.Background(), submit.Requests([]string{"good", "bad"}), submitOne)
	assert.False(t, res.Success)
	require.Len(t, res.Outcomes, 2)
	assert.Equal(t, "bad", res.Outcomes[1].Request.Path)
	assert.Contains(t, res.Outcomes[1].Err.Error(), "kaboom")
}

func TestFailureWithoutErrorGetsOne(t *testing.T) {
	submitOne := func(_ context.Context, req submit.Request) submit.Outcome {
		return submit.Outcome{Request: req}
	}
	res := submit.New().Run(context.Background(), submit.Requests([]string{"a"}), submitOne)
	require.Len(t, res.Outcomes, 1)
	assert.Error(t, res.Outcomes[0].Err)
}

func TestTimeoutSetsBatchError(t *testing.T) {
	submitOne := func(_ context.Context, req submit.Request) submit.Outcome {
		return submit.Outcome{Request: req, Err: cerrors.TimeoutError("slow helper", nil)}
	}
	res := submit.New().Run(context.Background(), submit.Requests([]string{"a"}), submitOne)
	assert.Equal(t, cerrors.ExitTimeout, cerrors.ExitCode(res.Err))
}

func TestMetricsAndTraces(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	metrics := observability.NewMetrics()

	agg := submit.New(
		submit.WithMetrics(metrics),
		submit.WithTracer(observability.NewTracerFromProvider(tp)),
	)
	res := agg.Run(context.Background(), submit.Requests([]string{"ok", "bad"}),
		succeedWhen(func(p string) bool { return p == "ok" }))
	require.False(t, res.Success)

	count, err := testutil.GatherAndCount(metrics.Gatherer(), "covsubmit_submissions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	spans := rec.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "covsubmit.batch", spans[2].Name())
}

func TestBatchIDsAreUnique(t *testing.T) {
	agg := submit.New()
	r1 := agg.Run(context.Background(), submit.Requests([]string{"a"}), succeedWhen(func(string) bool { return true }))
	r2 := agg.Run(context.Background(), submit.Requests([]string{"a"}), succeedWhen(func(string) bool { return true }))
	assert.NotEmpty(t, r1.BatchID)
	assert.NotEqual(t, r1.BatchID, r2.BatchID)
}
