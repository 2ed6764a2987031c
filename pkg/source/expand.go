// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Expand turns a list of paths and glob patterns into input identifiers.
//
// Literal paths are returned unchanged whether or not they exist; a missing
// file must surface later as a failed read. Patterns are matched against
// files below root ("" is the working directory) and contribute their matches
// in lexical order; a pattern matching nothing contributes nothing.
// Duplicates are dropped, first occurrence wins.
func Expand(root string, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}

	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if !HasMeta(pattern) {
			add(pattern)
			continue
		}
		matches, err := match(root, pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}

// HasMeta reports whether s contains glob syntax.
func HasMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

func match(root, pattern string) ([]string, error) {
	pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")
	var globs []glob.Glob
	for _, variant := range zeroDirVariants(pattern) {
		g, err := glob.Compile(variant, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}

	abs := strings.HasPrefix(pattern, "/")
	base := staticPrefix(pattern)
	walkRoot := filepath.FromSlash(base)
	if !abs {
		if root == "" {
			root = "."
		}
		walkRoot = filepath.Join(root, walkRoot)
	}

	var matches []string
	err := filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		candidate := filepath.ToSlash(path)
		if !abs {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return relErr
			}
			candidate = filepath.ToSlash(rel)
		}
		for _, g := range globs {
			if g.Match(candidate) {
				matches = append(matches, candidate)
				break
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return matches, nil
}

// staticPrefix returns the leading path segments that contain no glob syntax.
func staticPrefix(pattern string) string {
	segments := strings.Split(pattern, "/")
	var static []string
	for _, seg := range segments[:len(segments)-1] {
		if HasMeta(seg) {
			break
		}
		static = append(static, seg)
	}
	prefix := strings.Join(static, "/")
	if prefix == "" {
		if strings.HasPrefix(pattern, "/") {
			return "/"
		}
		return "."
	}
	return prefix
}

// zeroDirVariants expands each "**/" segment into itself and nothing, so
// that "a/**/b" also matches "a/b".
func zeroDirVariants(pattern string) []string {
	idx := strings.Index(pattern, "**/")
	if idx < 0 || (idx > 0 && pattern[idx-1] != '/') {
		return []string{pattern}
	}
	head, tail := pattern[:idx], pattern[idx+len("**/"):]
	var out []string
	for _, rest := range zeroDirVariants(tail) {
		out = append(out, head+"**/"+rest, head+rest)
	}
	return out
}
