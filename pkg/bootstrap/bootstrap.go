// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package bootstrap registers the tool server with the host application.
//
// A run moves through four stages: locate the host config, resolve the
// local installation, resolve credentials, and merge the launch entry into
// the host config. Each stage either hands its result to the next one or
// ends the run. Only a completed merge (or a dry run of it) is a success.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/school-mcp/school-mcp-setup/pkg/client"
	"github.com/school-mcp/school-mcp-setup/pkg/config"
	"github.com/school-mcp/school-mcp-setup/pkg/dotenv"
	setuperrors "github.com/school-mcp/school-mcp-setup/pkg/errors"
	"github.com/school-mcp/school-mcp-setup/pkg/logger"
	"github.com/school-mcp/school-mcp-setup/pkg/resolve"
)

// ErrSetupIncomplete ends a run that created a credentials file the
// operator still has to fill in. Nothing is written to the host config.
var ErrSetupIncomplete = errors.New("setup incomplete: edit the credentials file and run setup again")

// ConfigLocator finds the host config file.
type ConfigLocator interface {
	Locate() (string, bool)
}

// EnvironmentResolver discovers the local installation.
type EnvironmentResolver interface {
	Resolve(ctx context.Context) resolve.Environment
}

// Result describes a finished run.
type Result struct {
	HostConfigPath string              `json:"host_config_path,omitempty" yaml:"host_config_path,omitempty"`
	Environment    resolve.Environment `json:"environment" yaml:"environment"`
	// CredentialsFile is the file credentials were loaded from, if any.
	CredentialsFile string             `json:"credentials_file,omitempty" yaml:"credentials_file,omitempty"`
	Entry           client.ServerEntry `json:"entry" yaml:"entry"`
	Written         bool               `json:"written" yaml:"written"`
	// Document is the merged host config of a dry run.
	Document []byte `json:"-" yaml:"-"`
}

// Bootstrapper runs the setup stages.
type Bootstrapper struct {
	settings   config.Settings
	locator    ConfigLocator
	resolver   EnvironmentResolver
	prompter   Prompter
	newUpdater func(path string) client.ConfigUpdater
	out        printer
}

// Option configures a Bootstrapper.
type Option func(*Bootstrapper)

// WithLocator replaces host config discovery.
func WithLocator(l ConfigLocator) Option {
	return func(b *Bootstrapper) { b.locator = l }
}

// WithResolver replaces installation discovery.
func WithResolver(r EnvironmentResolver) Option {
	return func(b *Bootstrapper) { b.resolver = r }
}

// WithPrompter replaces the operator prompt.
func WithPrompter(p Prompter) Option {
	return func(b *Bootstrapper) { b.prompter = p }
}

// WithUpdaterFactory replaces the host config updater.
func WithUpdaterFactory(f func(path string) client.ConfigUpdater) Option {
	return func(b *Bootstrapper) { b.newUpdater = f }
}

// WithOutput sends progress lines to w.
func WithOutput(w io.Writer) Option {
	return func(b *Bootstrapper) { b.out = printer{w: w} }
}

// New returns a Bootstrapper for s. Without options it discovers the host
// config for the running platform (or uses s.HostConfigPath), probes real
// runtimes, and prompts on the terminal unless s.AssumeYes is set.
func New(s config.Settings, opts ...Option) *Bootstrapper {
	b := &Bootstrapper{
		settings: s,
		resolver: resolve.NewResolver(s),
		newUpdater: func(path string) client.ConfigUpdater {
			return client.NewJSONConfigUpdater(path)
		},
		out: printer{w: os.Stdout},
	}
	if s.HostConfigPath != "" {
		b.locator = &client.OverrideLocator{Path: s.HostConfigPath}
	} else {
		b.locator = client.NewPathLocator()
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.prompter == nil {
		if s.AssumeYes {
			b.prompter = &AutoPrompter{Out: b.out.w}
		} else {
			b.prompter = NewTerminalPrompter()
		}
	}
	return b
}

// Run executes every stage and returns what happened. The error is nil
// only when the entry was merged (or, for a dry run, computed).
func (b *Bootstrapper) Run(ctx context.Context) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorw("setup failed unexpectedly", "panic", r)
			err = setuperrors.NewInternalError(fmt.Sprintf("unexpected failure: %v", r), nil)
		}
	}()

	b.out.title("School-MCP Setup Helper")
	b.out.line("======================")
	b.out.line("This utility will help you configure Claude Desktop to use School-MCP.")

	path, found := b.locator.Locate()
	if !found {
		b.out.fail("Could not find Claude Desktop configuration file.")
		b.out.line("Please manually add the configuration to your Claude Desktop config.")
		result.Environment = b.resolver.Resolve(ctx)
		b.printManualInstructions(result.Environment)
		return result, setuperrors.NewDiscoveryError("Claude Desktop configuration file not found", nil)
	}
	result.HostConfigPath = path
	b.out.line("Found Claude Desktop configuration at: %s", path)

	env, err := b.resolveEnvironment(ctx)
	result.Environment = env
	if err != nil {
		return result, err
	}

	vars, credentialsFile, err := b.resolveCredentials()
	if err != nil {
		return result, err
	}
	result.CredentialsFile = credentialsFile

	result.Entry = BuildEntry(b.settings, env, vars)
	return b.mergeConfig(result)
}

func (b *Bootstrapper) resolveEnvironment(ctx context.Context) (resolve.Environment, error) {
	env := b.resolver.Resolve(ctx)
	if err := ctx.Err(); err != nil {
		return env, setuperrors.NewAbortedError("setup interrupted", err)
	}

	if !env.HasPackage() {
		b.out.fail("Error: Could not find the %s package.", b.settings.PackageName)
		b.out.line("Please make sure you have installed the package with 'pip install -e .'")
		return env, setuperrors.NewDiscoveryError(
			fmt.Sprintf("package %s not found", b.settings.PackageName), nil)
	}

	b.out.line("Found Python executable: %s", env.RuntimePath)
	if env.HasScript() {
		b.out.line("Found %s script: %s", b.settings.ScriptName, env.ScriptPath)
	} else {
		b.out.line("Using Python module approach with package at: %s", env.PackagePath)
	}
	return env, nil
}

// resolveCredentials returns the parsed credentials and the file they came
// from. A run without a credentials file continues with no env when the
// operator declines to create one.
func (b *Bootstrapper) resolveCredentials() (dotenv.Vars, string, error) {
	envPath := b.settings.EnvFilePath()

	if !dotenv.Exists(envPath) {
		if templatePath := b.settings.EnvTemplatePath(); templatePath != "" && dotenv.Exists(templatePath) {
			b.out.blank()
			create, err := b.prompter.Confirm(
				fmt.Sprintf("%s file not found. Create from template?", b.settings.EnvFile), true)
			if err != nil {
				return nil, "", setuperrors.NewAbortedError("failed to read answer", err)
			}
			if create {
				return nil, "", b.createCredentialsFile(envPath, "from template", func() error {
					return dotenv.CopyTemplate(templatePath, envPath)
				})
			}
		}
	}

	if !dotenv.Exists(envPath) {
		b.out.blank()
		b.out.line("No %s file found.", b.settings.EnvFile)
		create, err := b.prompter.Confirm(fmt.Sprintf("Create %s file now?", b.settings.EnvFile), true)
		if err != nil {
			return nil, "", setuperrors.NewAbortedError("failed to read answer", err)
		}
		if create {
			return nil, "", b.createCredentialsFile(envPath, "", func() error {
				return dotenv.WriteSkeleton(envPath)
			})
		}
		logger.Debugw("continuing without credentials", "path", envPath)
		return nil, "", nil
	}

	vars, err := dotenv.Load(envPath)
	if err != nil {
		b.out.fail("Error: could not read %s: %v", envPath, err)
		return nil, "", setuperrors.NewCredentialsError("invalid credentials file", err)
	}
	b.out.blank()
	b.out.line("Loaded environment variables from %s", envPath)

	if missing := dotenv.Missing(vars, dotenv.RequiredKeys); len(missing) > 0 {
		b.out.warn("Warning: Missing required environment variables: %s", strings.Join(missing, ", "))
		b.out.line("Please edit %s to include these variables.", envPath)
		proceed, err := b.prompter.Confirm("Continue with setup anyway?", false)
		if err != nil {
			return nil, "", setuperrors.NewAbortedError("failed to read answer", err)
		}
		if !proceed {
			return nil, "", setuperrors.NewAbortedError(
				fmt.Sprintf("missing credentials: %s", strings.Join(missing, ", ")), nil)
		}
	}
	return vars, envPath, nil
}

// createCredentialsFile runs create and ends the run so the operator can
// fill in the new file. A dry run only reports what it would create.
func (b *Bootstrapper) createCredentialsFile(path, how string, create func() error) error {
	if b.settings.DryRun {
		b.out.line("Dry run: would create %s", path)
		return ErrSetupIncomplete
	}
	if err := create(); err != nil {
		b.out.fail("Error: could not create %s: %v", path, err)
		return setuperrors.NewCredentialsError("failed to create credentials file", err)
	}
	if how != "" {
		b.out.success("Created %s file %s. Please edit %s with your credentials.", b.settings.EnvFile, how, path)
	} else {
		b.out.success("Created %s file. Please edit %s with your credentials.", b.settings.EnvFile, path)
	}
	b.out.line("After editing, run this setup again.")
	return ErrSetupIncomplete
}

func (b *Bootstrapper) mergeConfig(result Result) (Result, error) {
	name := b.settings.ServerName

	if b.settings.DryRun {
		// #nosec G304 -- path is the discovered host config file
		content, err := os.ReadFile(result.HostConfigPath)
		if err != nil && !os.IsNotExist(err) {
			return result, setuperrors.NewPersistenceError("failed to read host config", err)
		}
		doc, err := client.MergeDocument(content, client.MCPServersPathPrefix, name, result.Entry)
		if err != nil {
			return result, setuperrors.NewPersistenceError("failed to merge server entry", err)
		}
		result.Document = doc
		b.out.blank()
		b.out.line("Dry run: %s would contain:", result.HostConfigPath)
		b.out.raw(doc)
		return result, nil
	}

	if err := b.newUpdater(result.HostConfigPath).Upsert(name, result.Entry); err != nil {
		b.out.fail("Error updating configuration file: %v", err)
		b.printManualInstructions(result.Environment)
		return result, err
	}
	result.Written = true

	b.out.blank()
	b.out.success("Successfully updated Claude Desktop configuration!")
	b.out.line("School-MCP has been configured as '%s' in Claude Desktop.", name)
	b.out.line("Please restart Claude Desktop for the changes to take effect.")
	return result, nil
}

// printManualInstructions shows the entry this run would have written, with
// placeholder credentials.
func (b *Bootstrapper) printManualInstructions(env resolve.Environment) {
	entry := BuildEntry(b.settings, env, dotenv.Placeholders())
	if err := client.ManualInstructions(b.out.w, b.settings.ServerName, entry); err != nil {
		logger.Warnw("failed to print manual instructions", "error", err)
	}
}

// ExitCode maps the error returned by Run to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// IsIncomplete reports whether err is a soft stop after creating a
// credentials file.
func IsIncomplete(err error) bool {
	return errors.Is(err, ErrSetupIncomplete)
}
