// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/school-mcp/school-mcp-setup/pkg/logger"
)

// probeSentinel is printed by a runtime that can import the package.
const probeSentinel = "Found"

// defaultCurrentRuntimes are tried, in order, when no runtime is pinned.
var defaultCurrentRuntimes = []string{"python3", "python"}

// LookPathFunc resolves an executable name against the search path.
type LookPathFunc func(file string) (string, error)

// RuntimeResolver picks the interpreter that can import the tool package.
type RuntimeResolver struct {
	Prober      Prober
	LookPath    LookPathFunc
	PackageName string
	// Current is probed first and returned when nothing else succeeds.
	Current string
	// Alternates are resolved through LookPath and probed in order.
	Alternates []string
}

// Resolve returns the first runtime whose probe succeeds, or Current.
// Probe failures are logged and otherwise ignored.
func (r *RuntimeResolver) Resolve(ctx context.Context) string {
	if r.Current != "" && r.probe(ctx, r.Current) {
		return r.Current
	}

	for _, name := range r.Alternates {
		if ctx.Err() != nil {
			break
		}
		path, err := r.LookPath(name)
		if err != nil {
			logger.Debugw("runtime candidate not on search path", "runtime", name)
			continue
		}
		if path == r.Current {
			continue
		}
		if r.probe(ctx, path) {
			return path
		}
	}

	logger.Debugw("no runtime could import the package, using the current runtime",
		"package", r.PackageName, "runtime", r.Current)
	return r.Current
}

func (r *RuntimeResolver) probe(ctx context.Context, runtime string) bool {
	snippet := fmt.Sprintf("import %s; print('%s')", r.PackageName, probeSentinel)
	out, err := r.Prober.Output(ctx, runtime, "-c", snippet)
	if err != nil {
		logger.Debugw("runtime probe failed", "runtime", runtime, "error", err)
		return false
	}
	if !strings.Contains(out, probeSentinel) {
		logger.Debugw("runtime probe produced no sentinel", "runtime", runtime)
		return false
	}
	logger.Debugw("runtime can import package", "runtime", runtime, "package", r.PackageName)
	return true
}

// DetectCurrentRuntime returns the runtime a run starts from. A pinned
// runtime containing a path separator is made absolute, a bare name is
// resolved through lookPath. Without a pin the first of python3 and python
// found on the search path is used. When nothing resolves, the pinned value
// (or "python3") is returned as is.
func DetectCurrentRuntime(pinned string, lookPath LookPathFunc) string {
	if pinned != "" {
		if strings.ContainsAny(pinned, `/\`) {
			if abs, err := filepath.Abs(pinned); err == nil {
				return abs
			}
			return pinned
		}
		if path, err := lookPath(pinned); err == nil {
			return path
		}
		return pinned
	}

	for _, name := range defaultCurrentRuntimes {
		if path, err := lookPath(name); err == nil {
			return path
		}
	}
	return defaultCurrentRuntimes[0]
}
