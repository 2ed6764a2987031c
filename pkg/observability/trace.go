// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package observability

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/credentials"
)

const tracerName = "github.com/cicd-ai-toolkit/covsubmit"

// TraceConfig configures the OTLP exporter.
type TraceConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

// SetupTracing installs a global tracer provider and returns a tracer bound to
// it. When tracing is disabled, or the exporter cannot be created, it returns a
// tracer on the global (no-op) provider and a no-op shutdown.
func SetupTracing(ctx context.Context, cfg TraceConfig, log Logger) (*Tracer, func(context.Context) error, error) {
	if log == nil {
		log = NopLogger()
	}
	noop := func(context.Context) error { return nil }

	otel.SetTextMapPropagator(propagation.TraceContext{})
	if !cfg.Enabled {
		return NewTracer(), noop, nil
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = strings.TrimSpace(os.Getenv("OTEL_SERVICE_NAME"))
	}
	if serviceName == "" {
		serviceName = "covsubmit"
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	}
	if endpoint == "" {
		endpoint = "localhost:4317"
	}
	endpoint = sanitizeEndpoint(endpoint)

	sampleRatio := cfg.SampleRatio
	if sampleRatio <= 0 || sampleRatio > 1 {
		sampleRatio = 1
	}

	expOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
	if cfg.Insecure {
		expOpts = append(expOpts, otlptracegrpc.WithInsecure())
	} else {
		expOpts = append(expOpts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}

	exp, err := otlptracegrpc.New(ctx, expOpts...)
	if err != nil {
		log.Warn("otel exporter init failed; tracing disabled", Err(err))
		return NewTracer(), noop, nil
	}

	res, err := newResource(serviceName)
	if err != nil {
		log.Warn("otel resource init failed; using default", Err(err))
		res = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio))),
	)
	otel.SetTracerProvider(tp)

	return NewTracerFromProvider(tp), tp.Shutdown, nil
}

// newResource names the service on top of the SDK defaults. The service
// attribute carries no schema URL so it merges with whatever schema the
// SDK's default resource uses.
func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(resource.Default(), resource.NewSchemaless(semconv.ServiceName(serviceName)))
}

func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			return u.Host
		}
	}
	return strings.TrimSuffix(raw, "/")
}

// Tracer provides distributed tracing.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer from the global provider.
func NewTracer() *Tracer {
	return &Tracer{tracer: otel.Tracer(tracerName)}
}

// NewTracerFromProvider creates a tracer bound to a specific provider.
func NewTracerFromProvider(tp trace.TracerProvider) *Tracer {
	return &Tracer{tracer: tp.Tracer(tracerName)}
}

// Start starts a new trace span.
func (t *Tracer) Start(ctx context.Context, name string, fields ...Field) (context.Context, *Span) {
	if t == nil || t.tracer == nil {
		return ctx, &Span{span: trace.SpanFromContext(context.Background())}
	}
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(toAttributes(fields)...))
	return ctx, &Span{span: span}
}

// Span represents a trace span.
type Span struct {
	span trace.Span
}

// SetFields records fields as span attributes.
func (s *Span) SetFields(fields ...Field) {
	s.span.SetAttributes(toAttributes(fields)...)
}

// Fail marks the span as failed.
func (s *Span) Fail(err error) {
	if err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// End ends the span.
func (s *Span) End() {
	s.span.End()
}

func toAttributes(fields []Field) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(fields))
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			attrs = append(attrs, attribute.String(f.Key, v))
		case int:
			attrs = append(attrs, attribute.Int(f.Key, v))
		case bool:
			attrs = append(attrs, attribute.Bool(f.Key, v))
		case error:
			attrs = append(attrs, attribute.String(f.Key, v.Error()))
		default:
			attrs = append(attrs, attribute.String(f.Key, fmt.Sprint(v)))
		}
	}
	return attrs
}
