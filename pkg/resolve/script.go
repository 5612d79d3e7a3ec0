// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"path/filepath"

	"github.com/school-mcp/school-mcp-setup/pkg/logger"
)

// ScriptResolver finds the tool package's console script.
type ScriptResolver struct {
	Name     string
	GOOS     string
	LookPath LookPathFunc
}

// Resolve looks for the script on the search path, then in the scripts
// directory beside runtime ("bin", or "Scripts" on windows), then next to
// runtime itself. A missing script is not an error.
func (s *ScriptResolver) Resolve(runtime string) (string, bool) {
	name := s.executableName()
	if path, err := s.LookPath(name); err == nil {
		return path, true
	}

	if runtime == "" || !filepath.IsAbs(runtime) {
		return "", false
	}

	runtimeDir := filepath.Dir(runtime)
	for _, candidate := range []string{
		filepath.Join(runtimeDir, s.scriptsDirName(), name),
		filepath.Join(runtimeDir, name),
	} {
		if isRegularFile(candidate) {
			return candidate, true
		}
	}

	logger.Debugw("console script not found", "script", name, "runtime", runtime)
	return "", false
}

func (s *ScriptResolver) executableName() string {
	if s.GOOS == "windows" {
		return s.Name + ".exe"
	}
	return s.Name
}

func (s *ScriptResolver) scriptsDirName() string {
	if s.GOOS == "windows" {
		return "Scripts"
	}
	return "bin"
}
