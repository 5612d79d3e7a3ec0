// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config contains the settings that drive a setup run and the logic
// required to build them from flags and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Viper keys. Each is bound to a flag of the same name and to a
// SCHOOL_MCP_<KEY> environment variable.
const (
	KeyServerName   = "server-name"
	KeyPackageName  = "package-name"
	KeyScriptName   = "script-name"
	KeyEnvFile      = "env-file"
	KeyEnvTemplate  = "env-template"
	KeyPython       = "python"
	KeyRuntimes     = "runtimes"
	KeyProbeTimeout = "probe-timeout"
	KeyConfigPath   = "config-path"
	KeyWorkDir      = "work-dir"
	KeyAssumeYes    = "yes"
	KeyDryRun       = "dry-run"
)

// EnvPrefix is the prefix viper uses for environment variable overrides.
const EnvPrefix = "SCHOOL_MCP"

const (
	// DefaultServerName is the key of the entry inside mcpServers.
	DefaultServerName = "school-tools"
	// DefaultPackageName is the importable name of the tool package.
	DefaultPackageName = "school_mcp"
	// DefaultScriptName is the console script installed with the package.
	DefaultScriptName = "school-mcp"
	// DefaultEnvFile is the credentials file, relative to the work dir.
	DefaultEnvFile = ".env"
	// DefaultEnvTemplate is the credentials template, relative to the work dir.
	DefaultEnvTemplate = ".env.template"
	// DefaultProbeTimeout bounds a single runtime probe.
	DefaultProbeTimeout = 10 * time.Second
)

// DefaultAlternateRuntimes are probed, in order, after the current runtime.
var DefaultAlternateRuntimes = []string{"python", "python3", "python3.8", "python3.9", "python3.10", "python3.11"}

var packageNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// Settings holds everything a setup run needs to know.
type Settings struct {
	ServerName        string
	PackageName       string
	ScriptName        string
	EnvFile           string
	EnvTemplate       string
	Python            string
	AlternateRuntimes []string
	ProbeTimeout      time.Duration
	HostConfigPath    string
	WorkDir           string
	AssumeYes         bool
	DryRun            bool
}

// Default returns the settings used when nothing is overridden.
func Default() Settings {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return Settings{
		ServerName:        DefaultServerName,
		PackageName:       DefaultPackageName,
		ScriptName:        DefaultScriptName,
		EnvFile:           DefaultEnvFile,
		EnvTemplate:       DefaultEnvTemplate,
		AlternateRuntimes: append([]string(nil), DefaultAlternateRuntimes...),
		ProbeTimeout:      DefaultProbeTimeout,
		WorkDir:           wd,
	}
}

// SetDefaults registers the default values with v so unset flags and
// environment variables fall back to them.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyServerName, d.ServerName)
	v.SetDefault(KeyPackageName, d.PackageName)
	v.SetDefault(KeyScriptName, d.ScriptName)
	v.SetDefault(KeyEnvFile, d.EnvFile)
	v.SetDefault(KeyEnvTemplate, d.EnvTemplate)
	v.SetDefault(KeyRuntimes, d.AlternateRuntimes)
	v.SetDefault(KeyProbeTimeout, d.ProbeTimeout)
	v.SetDefault(KeyWorkDir, d.WorkDir)
}

// ConfigureEnv makes v read SCHOOL_MCP_* environment variables, mapping
// dashes in keys to underscores.
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// FromViper builds Settings from v and validates them.
func FromViper(v *viper.Viper) (Settings, error) {
	s := Settings{
		ServerName:        strings.TrimSpace(v.GetString(KeyServerName)),
		PackageName:       strings.TrimSpace(v.GetString(KeyPackageName)),
		ScriptName:        strings.TrimSpace(v.GetString(KeyScriptName)),
		EnvFile:           v.GetString(KeyEnvFile),
		EnvTemplate:       v.GetString(KeyEnvTemplate),
		Python:            strings.TrimSpace(v.GetString(KeyPython)),
		AlternateRuntimes: v.GetStringSlice(KeyRuntimes),
		ProbeTimeout:      v.GetDuration(KeyProbeTimeout),
		HostConfigPath:    v.GetString(KeyConfigPath),
		WorkDir:           v.GetString(KeyWorkDir),
		AssumeYes:         v.GetBool(KeyAssumeYes),
		DryRun:            v.GetBool(KeyDryRun),
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate reports the first setting that cannot be used.
func (s Settings) Validate() error {
	if s.ServerName == "" {
		return errors.New("server name must not be empty")
	}
	// The package name is interpolated into probe snippets.
	if !packageNamePattern.MatchString(s.PackageName) {
		return fmt.Errorf("invalid package name %q: must be a dotted Python identifier", s.PackageName)
	}
	if s.ScriptName == "" || strings.ContainsAny(s.ScriptName, `/\`) {
		return fmt.Errorf("invalid script name %q", s.ScriptName)
	}
	if s.EnvFile == "" {
		return errors.New("env file must not be empty")
	}
	if s.ProbeTimeout <= 0 {
		return fmt.Errorf("probe timeout must be positive, got %v", s.ProbeTimeout)
	}
	if s.WorkDir == "" {
		return errors.New("work dir must not be empty")
	}
	return nil
}

// EnvFilePath returns the credentials file path, resolved against WorkDir.
func (s Settings) EnvFilePath() string {
	return s.resolve(s.EnvFile)
}

// EnvTemplatePath returns the credentials template path, resolved against
// WorkDir. It is empty when no template is configured.
func (s Settings) EnvTemplatePath() string {
	if s.EnvTemplate == "" {
		return ""
	}
	return s.resolve(s.EnvTemplate)
}

// ModuleArgs returns the arguments that run the package as a module.
func (s Settings) ModuleArgs() []string {
	return []string{"-m", s.PackageName}
}

func (s Settings) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.WorkDir, p)
}
