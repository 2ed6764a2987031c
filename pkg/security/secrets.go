// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package security keeps credentials out of logs and error messages.
package security

import (
	"regexp"
	"sort"
	"strings"
)

const redacted = "[REDACTED]"

// repoTokenPattern catches tokens echoed back by uploader helpers in
// key/value or JSON form, even when the value was never registered.
var repoTokenPattern = regexp.MustCompile(`(?i)("?repo_token"?\s*[:=]\s*"?)([A-Za-z0-9_\-]{8,})`)

// Redactor masks known secret values.
type Redactor struct {
	secrets []string
}

// NewRedactor creates a redactor for the given secret values. Empty values
// and values shorter than four characters are ignored.
func NewRedactor(secrets ...string) *Redactor {
	r := &Redactor{}
	for _, s := range secrets {
		r.Add(s)
	}
	return r
}

// Add registers another secret value.
func (r *Redactor) Add(secret string) {
	secret = strings.TrimSpace(secret)
	if len(secret) < 4 {
		return
	}
	r.secrets = append(r.secrets, secret)
	// Longest first so a secret containing another is masked whole.
	sort.Slice(r.secrets, func(i, j int) bool { return len(r.secrets[i]) > len(r.secrets[j]) })
}

// Redact masks every registered secret and any repo_token assignment in s.
func (r *Redactor) Redact(s string) string {
	if r == nil {
		return s
	}
	for _, secret := range r.secrets {
		s = strings.ReplaceAll(s, secret, redacted)
	}
	return repoTokenPattern.ReplaceAllString(s, "${1}"+redacted)
}

// Mask shortens a secret for display, keeping only its ends.
func Mask(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "<unset>"
	}
	if len(v) <= 8 {
		return "****"
	}
	return v[:4] + "..." + v[len(v)-4:]
}
