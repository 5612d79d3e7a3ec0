// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"context"
	"fmt"
	"slices"

	"github.com/school-mcp/school-mcp-setup/pkg/client"
	"github.com/school-mcp/school-mcp-setup/pkg/dotenv"
	setuperrors "github.com/school-mcp/school-mcp-setup/pkg/errors"
	"github.com/school-mcp/school-mcp-setup/pkg/resolve"
)

// redacted replaces credential values in status output.
const redacted = "********"

// Status is a read-only report of what a setup run would find.
type Status struct {
	ServerName      string              `json:"server_name" yaml:"server_name"`
	HostConfigPath  string              `json:"host_config_path,omitempty" yaml:"host_config_path,omitempty"`
	HostConfigFound bool                `json:"host_config_found" yaml:"host_config_found"`
	Registered      bool                `json:"registered" yaml:"registered"`
	Entry           *client.ServerEntry `json:"entry,omitempty" yaml:"entry,omitempty"`
	Environment     resolve.Environment `json:"environment" yaml:"environment"`
	CredentialsFile string              `json:"credentials_file" yaml:"credentials_file"`
	CredentialsOK   bool                `json:"credentials_found" yaml:"credentials_found"`
	// MissingCredentials lists required keys absent from the credentials file.
	MissingCredentials []string `json:"missing_credentials,omitempty" yaml:"missing_credentials,omitempty"`
}

// Status inspects the host config, the installation and the credentials
// file without changing anything. Credential values are redacted.
func (b *Bootstrapper) Status(ctx context.Context) (Status, error) {
	status := Status{
		ServerName:      b.settings.ServerName,
		CredentialsFile: b.settings.EnvFilePath(),
	}

	if path, found := b.locator.Locate(); found {
		status.HostConfigPath = path
		status.HostConfigFound = true

		entry, registered, err := b.newUpdater(path).Get(b.settings.ServerName)
		if err != nil {
			return status, err
		}
		if registered {
			status.Registered = true
			redactedEntry := redact(entry)
			status.Entry = &redactedEntry
		}
	}

	status.Environment = b.resolver.Resolve(ctx)
	if err := ctx.Err(); err != nil {
		return status, setuperrors.NewAbortedError("status interrupted", err)
	}

	if dotenv.Exists(status.CredentialsFile) {
		vars, err := dotenv.Load(status.CredentialsFile)
		if err != nil {
			return status, setuperrors.NewCredentialsError("invalid credentials file", err)
		}
		status.CredentialsOK = true
		status.MissingCredentials = dotenv.Missing(vars, dotenv.RequiredKeys)
	} else {
		status.MissingCredentials = slices.Clone(dotenv.RequiredKeys)
	}
	return status, nil
}

// Remove deletes the server entry from the host config. Removing an entry
// that is not there succeeds.
func (b *Bootstrapper) Remove() (string, error) {
	path, found := b.locator.Locate()
	if !found {
		return "", setuperrors.NewDiscoveryError("Claude Desktop configuration file not found", nil)
	}
	if err := b.newUpdater(path).Remove(b.settings.ServerName); err != nil {
		return path, err
	}
	b.out.success("Removed '%s' from %s", b.settings.ServerName, path)
	b.out.line("Please restart Claude Desktop for the changes to take effect.")
	return path, nil
}

func redact(entry client.ServerEntry) client.ServerEntry {
	out := client.ServerEntry{Command: entry.Command, Args: slices.Clone(entry.Args)}
	if len(entry.Env) > 0 {
		out.Env = make(map[string]string, len(entry.Env))
		for key := range entry.Env {
			out.Env[key] = redacted
		}
	}
	return out
}

// String summarises the registration state.
func (s Status) String() string {
	switch {
	case !s.HostConfigFound:
		return "host config not found"
	case s.Registered:
		return fmt.Sprintf("'%s' is registered in %s", s.ServerName, s.HostConfigPath)
	default:
		return fmt.Sprintf("'%s' is not registered in %s", s.ServerName, s.HostConfigPath)
	}
}
