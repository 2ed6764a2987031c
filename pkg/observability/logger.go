// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package observability provides logging, metrics and tracing.
package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is the structured logger interface.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field represents a log field.
type Field struct {
	Key   string
	Value any
}

// LogOptions configures NewLoggerWithOptions.
type LogOptions struct {
	Level  string    // debug, info, warn, error
	Format string    // text or json
	Output io.Writer // defaults to os.Stderr
}

// logger is the logrus-backed implementation.
type logger struct {
	entry *logrus.Entry
}

// NewLogger creates a new text logger writing to stderr.
func NewLogger(level string) Logger {
	return NewLoggerWithOptions(LogOptions{Level: level})
}

// NewLoggerWithOptions creates a logger with an explicit format and output.
func NewLoggerWithOptions(opts LogOptions) Logger {
	base := logrus.New()

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	base.SetOutput(out)

	lvl, err := logrus.ParseLevel(strings.TrimSpace(opts.Level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)

	if strings.EqualFold(opts.Format, "json") {
		base.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		base.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: true,
		})
	}

	return &logger{entry: logrus.NewEntry(base)}
}

// NopLogger returns a logger that discards everything.
func NopLogger() Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)
	base.SetLevel(logrus.PanicLevel)
	return &logger{entry: logrus.NewEntry(base)}
}

func (l *logger) Debug(msg string, fields ...Field) {
	l.withFields(fields).Debug(msg)
}

func (l *logger) Info(msg string, fields ...Field) {
	l.withFields(fields).Info(msg)
}

func (l *logger) Warn(msg string, fields ...Field) {
	l.withFields(fields).Warn(msg)
}

func (l *logger) Error(msg string, fields ...Field) {
	l.withFields(fields).Error(msg)
}

func (l *logger) With(fields ...Field) Logger {
	return &logger{entry: l.withFields(fields)}
}

func (l *logger) withFields(fields []Field) *logrus.Entry {
	if len(fields) == 0 {
		return l.entry
	}
	lf := make(logrus.Fields, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok && err != nil {
			lf[f.Key] = err.Error()
			continue
		}
		lf[f.Key] = f.Value
	}
	return l.entry.WithFields(lf)
}

// String creates a string field.
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field.
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field.
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Err creates an error field.
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}
