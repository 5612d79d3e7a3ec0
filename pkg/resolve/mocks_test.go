// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// fakeProber provides a minimal test double for Prober. It records every
// call and answers through outputFunc.
type fakeProber struct {
	outputFunc func(runtime string, args ...string) (string, error)

	mu    sync.Mutex
	calls []string
}

func (f *fakeProber) Output(_ context.Context, runtime string, args ...string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, runtime)
	f.mu.Unlock()

	if f.outputFunc != nil {
		return f.outputFunc(runtime, args...)
	}
	return "", errors.New("no output configured")
}

func (f *fakeProber) probedRuntimes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// importProber succeeds the import probe only for the runtimes in ok.
func importProber(ok ...string) *fakeProber {
	return &fakeProber{outputFunc: func(runtime string, args ...string) (string, error) {
		for _, r := range ok {
			if r == runtime {
				return "Found\n", nil
			}
		}
		return "", errors.New("exit status 1: ModuleNotFoundError: No module named 'school_mcp'")
	}}
}

// fakeLookPath resolves only the names in paths.
func fakeLookPath(paths map[string]string) LookPathFunc {
	return func(file string) (string, error) {
		if p, ok := paths[file]; ok {
			return p, nil
		}
		return "", fmt.Errorf("exec: %q: executable file not found in $PATH", file)
	}
}

func snippetOf(args []string) string {
	if len(args) == 2 && args[0] == "-c" {
		return args[1]
	}
	return strings.Join(args, " ")
}
