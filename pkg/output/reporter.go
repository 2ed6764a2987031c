// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/cicd-ai-toolkit/covsubmit/pkg/submit"
)

// IsInteractive reports whether f is a terminal.
func IsInteractive(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

type palette struct {
	ok   *color.Color
	err  *color.Color
	warn *color.Color
	dim  *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		ok:   color.New(color.FgGreen, color.Bold),
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow),
		dim:  color.New(color.FgHiBlack),
	}
	for _, c := range []*color.Color{p.ok, p.err, p.warn, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Reporter prints per-report and final status lines.
type Reporter struct {
	mu     sync.Mutex
	w      io.Writer
	ui     palette
	redact func(string) string
}

// NewReporter creates a reporter writing to w. Colors are used only when
// colored is true.
func NewReporter(w io.Writer, colored bool, redact func(string) string) *Reporter {
	if redact == nil {
		redact = func(s string) string { return s }
	}
	return &Reporter{w: w, ui: newPalette(colored), redact: redact}
}

// Outcome prints one report's status line.
func (r *Reporter) Outcome(o submit.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o.Success {
		fmt.Fprintf(r.w, "%s %s %s\n", r.ui.ok.Sprint("[OK]"), o.Request.Path,
			r.ui.dim.Sprintf("(%s)", o.Duration.Round(time.Millisecond)))
		return
	}
	msg := ""
	if o.Err != nil {
		msg = r.redact(o.Err.Error())
	}
	fmt.Fprintf(r.w, "%s %s %s %s\n", r.ui.err.Sprint("[FAIL]"), o.Request.Path,
		r.ui.warn.Sprintf("[%s]", o.Kind()), msg)
}

// Result prints the final batch line.
func (r *Reporter) Result(res submit.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if res.Success {
		fmt.Fprintf(r.w, "%s %s\n", r.ui.ok.Sprint("[OK]"), submit.MsgSuccess)
		return
	}
	if res.Total == 0 {
		fmt.Fprintf(r.w, "%s %s: no coverage reports found\n", r.ui.err.Sprint("[ERROR]"), submit.MsgFailure)
		return
	}
	fmt.Fprintf(r.w, "%s %s (%d of %d failed)\n", r.ui.err.Sprint("[ERROR]"), submit.MsgFailure, res.Failed, res.Total)
}
