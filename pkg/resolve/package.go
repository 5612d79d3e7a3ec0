// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/school-mcp/school-mcp-setup/pkg/logger"
)

// PackageLocator finds the directory holding the tool package's source.
type PackageLocator struct {
	Prober      Prober
	PackageName string
	// WorkDir anchors the source-tree and walk strategies.
	WorkDir string
}

type locateStrategy struct {
	name   string
	locate func(ctx context.Context, runtime string) (string, bool)
}

// Locate tries, in order: asking runtime where the package was imported
// from, scanning runtime's site-packages directories, <WorkDir>/src, and a
// walk of WorkDir. The first hit wins.
func (l *PackageLocator) Locate(ctx context.Context, runtime string) (string, bool) {
	strategies := []locateStrategy{
		{name: "import", locate: l.fromImport},
		{name: "site-packages", locate: l.fromSitePackages},
		{name: "source tree", locate: l.fromSourceTree},
		{name: "walk", locate: l.fromWalk},
	}

	for _, s := range strategies {
		if ctx.Err() != nil {
			return "", false
		}
		if path, ok := s.locate(ctx, runtime); ok {
			logger.Debugw("located package", "package", l.PackageName, "strategy", s.name, "path", path)
			return path, true
		}
		logger.Debugw("package not found by strategy", "package", l.PackageName, "strategy", s.name)
	}
	return "", false
}

func (l *PackageLocator) fromImport(ctx context.Context, runtime string) (string, bool) {
	if runtime == "" {
		return "", false
	}
	snippet := fmt.Sprintf(
		"import os, %[1]s; print(os.path.dirname(os.path.abspath(%[1]s.__file__)))", l.PackageName)
	out, err := l.Prober.Output(ctx, runtime, "-c", snippet)
	if err != nil {
		logger.Debugw("import probe failed", "runtime", runtime, "error", err)
		return "", false
	}
	dir := lastLine(out)
	if dir == "" || !isDir(dir) {
		return "", false
	}
	return dir, true
}

func (l *PackageLocator) fromSitePackages(ctx context.Context, runtime string) (string, bool) {
	if runtime == "" {
		return "", false
	}
	out, err := l.Prober.Output(ctx, runtime, "-c", "import site; print('\\n'.join(site.getsitepackages()))")
	if err != nil {
		logger.Debugw("site-packages probe failed", "runtime", runtime, "error", err)
		return "", false
	}
	for _, line := range strings.Split(out, "\n") {
		siteDir := strings.TrimSpace(line)
		if siteDir == "" {
			continue
		}
		candidate := filepath.Join(siteDir, l.relativeDir())
		if isDir(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (l *PackageLocator) fromSourceTree(_ context.Context, _ string) (string, bool) {
	candidate := filepath.Join(l.WorkDir, "src", l.relativeDir())
	if isDir(candidate) {
		return candidate, true
	}
	return "", false
}

// fromWalk visits WorkDir top-down and returns the first visited directory's
// child that is the package. Unreadable directories are skipped.
func (l *PackageLocator) fromWalk(ctx context.Context, _ string) (string, bool) {
	rel := l.relativeDir()
	var found string
	err := filepath.WalkDir(l.WorkDir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if candidate := filepath.Join(path, rel); isDir(candidate) {
			found = candidate
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		logger.Debugw("walk for package stopped", "root", l.WorkDir, "error", err)
	}
	return found, found != ""
}

// relativeDir maps a dotted package name to its directory path.
func (l *PackageLocator) relativeDir() string {
	return filepath.Join(strings.Split(l.PackageName, ".")...)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
