// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "covsubmit"

// Outcome labels used on submission metrics.
const (
	OutcomeSuccess          = "success"
	OutcomeInputUnavailable = "input_unavailable"
	OutcomeUploadRejected   = "upload_rejected"
)

// Metrics collects per-run submission metrics in a private registry.
// A CLI run is short-lived, so the registry is written out once at exit
// rather than scraped.
type Metrics struct {
	registry *prometheus.Registry

	submissions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	batches     *prometheus.CounterVec
	batchSize   prometheus.Histogram
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submissions_total",
				Help:      "Total number of coverage report submissions, labeled by outcome.",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "submission_duration_seconds",
				Help:      "Time from reading a report to the uploader's verdict (seconds).",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"outcome"},
		),
		batches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_total",
				Help:      "Total number of batches, labeled by aggregate result.",
			},
			[]string{"result"},
		),
		batchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "inputs_per_batch",
				Help:      "Number of inputs submitted per batch.",
				Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
			},
		),
	}

	m.registry.MustRegister(m.submissions, m.duration, m.batches, m.batchSize)
	return m
}

// RecordSubmission records one submission outcome.
func (m *Metrics) RecordSubmission(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordBatch records a finalized batch.
func (m *Metrics) RecordBatch(success bool, inputs int) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.batches.WithLabelValues(result).Inc()
	m.batchSize.Observe(float64(inputs))
}

// Gatherer exposes the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes all metrics in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
