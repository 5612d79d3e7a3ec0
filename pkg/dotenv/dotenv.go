// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package dotenv reads and creates the local credentials file that the tool
// server's launch entry is populated from.
//
// The format is deliberately small: one KEY=VALUE per line, blank lines and
// lines starting with '#' ignored, keys and values trimmed. There is no
// quoting, escaping, "export" prefix or multi-line value support.
package dotenv

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Vars maps credential names to values. Keys are case-sensitive.
type Vars map[string]string

// RequiredKeys are the credentials the tool server needs: a Canvas access
// token and domain, and a Gradescope email and password.
var RequiredKeys = []string{
	"CANVAS_ACCESS_TOKEN",
	"CANVAS_DOMAIN",
	"GRADESCOPE_EMAIL",
	"GRADESCOPE_PASSWORD",
}

// maxLineSize bounds a single line of the credentials file.
const maxLineSize = 1 << 20

// ParseError reports a line that is not a KEY=VALUE pair.
type ParseError struct {
	// Line is the 1-based line number.
	Line int
	// Text is the offending line, trimmed.
	Text string
	// Reason describes what is wrong with the line.
	Reason string
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// Parse reads KEY=VALUE lines from r.
func Parse(r io.Reader) (Vars, error) {
	vars := make(Vars)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, &ParseError{Line: lineNo, Text: line, Reason: "expected KEY=VALUE"}
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, &ParseError{Line: lineNo, Text: line, Reason: "empty key"}
		}
		vars[key] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	return vars, nil
}

// Load parses the credentials file at path.
func Load(path string) (Vars, error) {
	// #nosec G304 -- path is the operator's own credentials file
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	vars, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return vars, nil
}

// Missing returns the keys of required that are absent from vars, in the
// order they were declared. An empty value counts as present.
func Missing(vars Vars, required []string) []string {
	var missing []string
	for _, key := range required {
		if _, ok := vars[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

// Exists reports whether a regular file exists at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
