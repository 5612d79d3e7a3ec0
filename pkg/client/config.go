// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package client provides utilities for locating and editing the host
// application's MCP client configuration file.
package client

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/adrg/xdg"

	"github.com/stacklok/toolhive-core/env"

	"github.com/school-mcp/school-mcp-setup/pkg/logger"
)

// lockTimeout is the maximum time to wait for a file lock
const lockTimeout = 1 * time.Second

const (
	// HostConfigFileName is the name of the Claude Desktop config file.
	HostConfigFileName = "claude_desktop_config.json"
	// HostConfigDirName is the directory Claude Desktop keeps it in.
	HostConfigDirName = "Claude"
	// MCPServersPathPrefix is the JSON pointer of the server container.
	MCPServersPathPrefix = "/mcpServers"
)

// PathLocator computes where the host application keeps its configuration.
type PathLocator struct {
	// GOOS selects the platform convention.
	GOOS string
	// Env supplies APPDATA and XDG_CONFIG_HOME.
	Env env.Reader
	// Home is the user's home directory.
	Home string
}

// NewPathLocator returns a PathLocator for the running platform.
func NewPathLocator() *PathLocator {
	return &PathLocator{
		GOOS: runtime.GOOS,
		Env:  &env.OSReader{},
		Home: xdg.Home,
	}
}

// Candidates returns the conventional host config paths for the platform,
// in the order they are checked. It does not touch the filesystem.
func (l *PathLocator) Candidates() []string {
	var dirs []string

	switch l.GOOS {
	case "darwin":
		dirs = append(dirs, filepath.Join(l.Home, "Library", "Application Support"))
	case "windows":
		// Claude Desktop uses the roaming profile; no fallback without APPDATA.
		if appData := l.Env.Getenv("APPDATA"); appData != "" {
			dirs = append(dirs, appData)
		}
	default:
		configHome := l.Env.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			configHome = filepath.Join(l.Home, ".config")
		}
		dirs = append(dirs, configHome)
	}

	paths := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		paths = append(paths, filepath.Clean(filepath.Join(dir, HostConfigDirName, HostConfigFileName)))
	}
	return paths
}

// Locate returns the first candidate that exists. It never creates one.
func (l *PathLocator) Locate() (string, bool) {
	for _, path := range l.Candidates() {
		if err := validateConfigFileExists(path); err != nil {
			logger.Debugw("host config candidate not usable", "path", path, "error", err)
			continue
		}
		return path, true
	}
	return "", false
}

// OverrideLocator returns a fixed path, provided it exists. It is used when
// the operator names the host config file explicitly.
type OverrideLocator struct {
	Path string
}

// Candidates returns the override path.
func (o *OverrideLocator) Candidates() []string {
	return []string{o.Path}
}

// Locate returns the override path if it exists.
func (o *OverrideLocator) Locate() (string, bool) {
	if err := validateConfigFileExists(o.Path); err != nil {
		logger.Debugw("host config override not usable", "path", o.Path, "error", err)
		return "", false
	}
	return o.Path, true
}

// validateConfigFileExists validates that a host configuration file exists
// and is not a directory.
func validateConfigFileExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return &os.PathError{Op: "stat", Path: path, Err: errIsDirectory}
	}
	return nil
}
