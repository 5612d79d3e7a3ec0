// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"context"
	"os/exec"
	"runtime"

	"github.com/school-mcp/school-mcp-setup/pkg/config"
)

// Environment is what a run discovered about the local installation.
type Environment struct {
	RuntimePath string `json:"runtime_path" yaml:"runtime_path"`
	PackagePath string `json:"package_path,omitempty" yaml:"package_path,omitempty"`
	ScriptPath  string `json:"script_path,omitempty" yaml:"script_path,omitempty"`
}

// HasPackage reports whether the package directory was found.
func (e Environment) HasPackage() bool {
	return e.PackagePath != ""
}

// HasScript reports whether the console script was found.
func (e Environment) HasScript() bool {
	return e.ScriptPath != ""
}

// Resolver computes an Environment. The runtime is resolved once and then
// shared by the package and script lookups.
type Resolver struct {
	Runtime *RuntimeResolver
	Package *PackageLocator
	Script  *ScriptResolver
}

// NewResolver wires the resolvers from settings, using subprocess probes
// and the process search path.
func NewResolver(s config.Settings) *Resolver {
	prober := NewExecProber(s.ProbeTimeout)
	return &Resolver{
		Runtime: &RuntimeResolver{
			Prober:      prober,
			LookPath:    exec.LookPath,
			PackageName: s.PackageName,
			Current:     DetectCurrentRuntime(s.Python, exec.LookPath),
			Alternates:  s.AlternateRuntimes,
		},
		Package: &PackageLocator{
			Prober:      prober,
			PackageName: s.PackageName,
			WorkDir:     s.WorkDir,
		},
		Script: &ScriptResolver{
			Name:     s.ScriptName,
			GOOS:     runtime.GOOS,
			LookPath: exec.LookPath,
		},
	}
}

// Resolve runs every lookup and returns what was found.
func (r *Resolver) Resolve(ctx context.Context) Environment {
	env := Environment{RuntimePath: r.Runtime.Resolve(ctx)}
	if path, ok := r.Script.Resolve(env.RuntimePath); ok {
		env.ScriptPath = path
	}
	if path, ok := r.Package.Locate(ctx, env.RuntimePath); ok {
		env.PackagePath = path
	}
	return env
}
