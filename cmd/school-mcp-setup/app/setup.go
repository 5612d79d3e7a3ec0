// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/school-mcp/school-mcp-setup/cmd/school-mcp-setup/app/ui"
	"github.com/school-mcp/school-mcp-setup/pkg/bootstrap"
)

func setupCmdFunc(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	opts := []bootstrap.Option{bootstrap.WithOutput(cmd.OutOrStdout())}
	// Interactive terminals get the key-driven prompt; piped input keeps
	// the line-based one.
	if !settings.AssumeYes && term.IsTerminal(int(os.Stdin.Fd())) { // #nosec G115 -- file descriptors fit in int
		opts = append(opts, bootstrap.WithPrompter(ui.NewConfirmPrompter(cmd.InOrStdin(), cmd.OutOrStdout())))
	}

	_, err = bootstrap.New(settings, opts...).Run(cmd.Context())
	return err
}
