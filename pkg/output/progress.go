// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package output

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"

	"github.com/cicd-ai-toolkit/covsubmit/pkg/submit"
)

// Progress shows batch progress while submissions run.
type Progress interface {
	// Observe matches submit.Observer.
	Observe(o submit.Outcome, completed, total int)
	Finish()
}

// NewProgress picks a display for a batch of total reports: a bar for
// several, a spinner for one, nothing when w is not interactive.
func NewProgress(w io.Writer, total int, interactive bool) Progress {
	switch {
	case !interactive || total < 1:
		return nopProgress{}
	case total == 1:
		spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond, spinner.WithWriter(w))
		spin.Suffix = " Submitting coverage report..."
		spin.Start()
		return &spinnerProgress{spin: spin}
	default:
		return &barProgress{bar: progressbar.NewOptions(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("Submitting coverage reports"),
			progressbar.OptionSetWidth(18),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)}
	}
}

type nopProgress struct{}

func (nopProgress) Observe(submit.Outcome, int, int) {}
func (nopProgress) Finish()                          {}

type spinnerProgress struct {
	spin *spinner.Spinner
}

func (p *spinnerProgress) Observe(submit.Outcome, int, int) {}

func (p *spinnerProgress) Finish() {
	p.spin.Stop()
}

type barProgress struct {
	bar *progressbar.ProgressBar
}

func (p *barProgress) Observe(submit.Outcome, int, int) {
	_ = p.bar.Add(1)
}

func (p *barProgress) Finish() {
	_ = p.bar.Finish()
}
