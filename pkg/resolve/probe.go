// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package resolve finds the runtime, package and console script that the
// host application should use to launch the tool server.
package resolve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long a killed probe may hold its output pipes open.
const waitDelay = 500 * time.Millisecond

// Prober runs a runtime with arguments and returns what it printed.
type Prober interface {
	// Output runs runtime with args and returns its standard output. A
	// non-zero exit, a start failure or a timeout is an error.
	Output(ctx context.Context, runtime string, args ...string) (string, error)
}

// ExecProber is a Prober backed by subprocesses.
type ExecProber struct {
	// Timeout bounds each probe. Zero means no bound beyond ctx.
	Timeout time.Duration
}

// NewExecProber returns an ExecProber with the given per-probe timeout.
func NewExecProber(timeout time.Duration) *ExecProber {
	return &ExecProber{Timeout: timeout}
}

// Output implements Prober.
func (p *ExecProber) Output(ctx context.Context, runtime string, args ...string) (string, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	// #nosec G204 -- runtime is a configured or PATH-resolved interpreter and
	// args are fixed probe snippets.
	cmd := exec.CommandContext(ctx, runtime, args...)
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return "", fmt.Errorf("probe of %s timed out after %v", runtime, p.Timeout)
		}
		return "", fmt.Errorf("probe of %s cancelled: %w", runtime, ctxErr)
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("probe of %s failed: %w: %s", runtime, err, lastLine(msg))
		}
		return "", fmt.Errorf("probe of %s failed: %w", runtime, err)
	}
	return stdout.String(), nil
}

// lastLine returns the last non-empty line of s, which for an interpreter
// traceback is the exception itself.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
