// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"github.com/spf13/cobra"

	"github.com/school-mcp/school-mcp-setup/pkg/bootstrap"
)

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove",
		Short: "Remove the School-MCP entry from Claude Desktop",
		Long: `Remove the School-MCP entry (named by --server-name) from the mcpServers
section of the Claude Desktop configuration. Other entries and settings are
left untouched. Removing an entry that does not exist succeeds.`,
		Args: cobra.NoArgs,
		RunE: removeCmdFunc,
	}
}

func removeCmdFunc(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	_, err = bootstrap.New(settings, bootstrap.WithOutput(cmd.OutOrStdout())).Remove()
	return err
}
