// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/school-mcp/school-mcp-setup/cmd/school-mcp-setup/app/ui"
	"github.com/school-mcp/school-mcp-setup/pkg/bootstrap"
)

func newStatusCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what setup would find, without changing anything",
		Long: `Display the Claude Desktop configuration path, whether the School-MCP entry
is registered, the Python interpreter, package and console script that setup
would use, and which required credentials are missing. Credential values are
never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return statusCmdFunc(cmd, format)
		},
	}

	addFormatFlag(cmd, &format, FormatText, FormatJSON, FormatYAML)
	return cmd
}

func statusCmdFunc(cmd *cobra.Command, format string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	status, err := bootstrap.New(settings, bootstrap.WithOutput(cmd.ErrOrStderr())).Status(cmd.Context())
	if err != nil {
		return err
	}

	return printStatus(cmd.OutOrStdout(), status, format)
}

func printStatus(w io.Writer, status bootstrap.Status, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			return fmt.Errorf("failed to encode status: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(status); err != nil {
			return fmt.Errorf("failed to encode status: %w", err)
		}
		return enc.Close()
	default:
		return ui.RenderStatusTable(w, status)
	}
}
