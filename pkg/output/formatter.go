// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package output renders batch results for humans and machines.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cicd-ai-toolkit/covsubmit/pkg/submit"
)

// Supported summary formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Summary is the serialisable view of a batch result.
type Summary struct {
	Target     string           `json:"target,omitempty" yaml:"target,omitempty"`
	BatchID    string           `json:"batch_id" yaml:"batch_id"`
	Success    bool             `json:"success" yaml:"success"`
	Total      int              `json:"total" yaml:"total"`
	Failed     int              `json:"failed" yaml:"failed"`
	DurationMs int64            `json:"duration_ms" yaml:"duration_ms"`
	Error      string           `json:"error,omitempty" yaml:"error,omitempty"`
	Outcomes   []OutcomeSummary `json:"outcomes" yaml:"outcomes"`
}

// OutcomeSummary describes one submitted report.
type OutcomeSummary struct {
	Path       string `json:"path" yaml:"path"`
	Success    bool   `json:"success" yaml:"success"`
	Outcome    string `json:"outcome" yaml:"outcome"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMs int64  `json:"duration_ms" yaml:"duration_ms"`
}

// Summarize converts a result for output. Errors are passed through redact
// when it is non-nil.
func Summarize(target string, res submit.Result, redact func(string) string) Summary {
	if redact == nil {
		redact = func(s string) string { return s }
	}
	s := Summary{
		Target:     target,
		BatchID:    res.BatchID,
		Success:    res.Success,
		Total:      res.Total,
		Failed:     res.Failed,
		DurationMs: res.Duration.Milliseconds(),
		Outcomes:   make([]OutcomeSummary, 0, len(res.Outcomes)),
	}
	if res.Err != nil {
		s.Error = redact(res.Err.Error())
	}
	for _, o := range res.Outcomes {
		item := OutcomeSummary{
			Path:       o.Request.Path,
			Success:    o.Success,
			Outcome:    o.Kind(),
			DurationMs: o.Duration.Milliseconds(),
		}
		if o.Err != nil {
			item.Error = redact(o.Err.Error())
		}
		s.Outcomes = append(s.Outcomes, item)
	}
	return s
}

// Formatter renders summaries.
type Formatter struct {
	format string
}

// NewFormatter creates a formatter for text, json or yaml.
func NewFormatter(format string) (*Formatter, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatText
	}
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return &Formatter{format: format}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

// Format returns the rendered summary.
func (f *Formatter) Format(s Summary) (string, error) {
	switch f.format {
	case FormatJSON:
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	case FormatYAML:
		data, err := yaml.Marshal(s)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return formatText(s), nil
	}
}

func formatText(s Summary) string {
	var b strings.Builder
	status := "success"
	if !s.Success {
		status = "failure"
	}
	if s.Target != "" {
		fmt.Fprintf(&b, "target:   %s\n", s.Target)
	}
	fmt.Fprintf(&b, "batch:    %s\n", s.BatchID)
	fmt.Fprintf(&b, "result:   %s (%d/%d submitted)\n", status, s.Total-s.Failed, s.Total)
	fmt.Fprintf(&b, "duration: %s\n", time.Duration(s.DurationMs)*time.Millisecond)
	if s.Error != "" && len(s.Outcomes) == 0 {
		fmt.Fprintf(&b, "error:    %s\n", s.Error)
	}
	for _, o := range s.Outcomes {
		if o.Success {
			fmt.Fprintf(&b, "  ok    %s\n", o.Path)
			continue
		}
		fmt.Fprintf(&b, "  fail  %s [%s] %s\n", o.Path, o.Outcome, o.Error)
	}
	return b.String()
}
