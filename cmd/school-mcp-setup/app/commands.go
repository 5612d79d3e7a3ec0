// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app provides the entry point for the school-mcp-setup command-line application.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/school-mcp/school-mcp-setup/pkg/config"
	setuperrors "github.com/school-mcp/school-mcp-setup/pkg/errors"
	"github.com/school-mcp/school-mcp-setup/pkg/logger"
)

// NewRootCmd creates a new root command for the setup CLI. Running it
// without a subcommand registers the tool server with Claude Desktop.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "school-mcp-setup",
		DisableAutoGenTag: true,
		Short:             "Configure Claude Desktop to launch the School-MCP server",
		Long: `school-mcp-setup registers the School-MCP tool server with Claude Desktop.

It finds the Claude Desktop configuration file, locates a Python interpreter
that can import the school_mcp package (or the school-mcp console script),
reads Canvas and Gradescope credentials from a .env file, and adds a
"school-tools" entry to the mcpServers section. Every other setting in the
configuration file is left as it was.`,
		Args: cobra.NoArgs,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			// Pick up --debug now that flags are parsed.
			logger.Initialize()
		},
		RunE: setupCmdFunc,
	}

	addPersistentFlags(rootCmd)

	rootCmd.Flags().BoolP(config.KeyAssumeYes, "y", false, "Answer yes to every prompt")
	rootCmd.Flags().Bool(config.KeyDryRun, false, "Print the resulting configuration instead of writing it")
	bindFlags(rootCmd.Flags().Lookup, config.KeyAssumeYes, config.KeyDryRun)

	// Add subcommands
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newRemoveCmd())
	rootCmd.AddCommand(newVersionCmd())

	// Silence printing the usage on error
	rootCmd.SilenceUsage = true
	// main reports errors; the stages already printed what went wrong
	rootCmd.SilenceErrors = true

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	defaults := config.Default()
	flags := cmd.PersistentFlags()

	flags.Bool("debug", false, "Enable debug mode")
	flags.String(config.KeyConfigPath, "", "Path to claude_desktop_config.json (skips discovery)")
	flags.String(config.KeyServerName, defaults.ServerName, "Name of the entry under mcpServers")
	flags.String(config.KeyEnvFile, defaults.EnvFile, "Credentials file, relative to the work dir")
	flags.String(config.KeyEnvTemplate, defaults.EnvTemplate, "Credentials template, relative to the work dir")
	flags.String(config.KeyPython, "", "Python interpreter to try first (default: python3 or python on PATH)")
	flags.Duration(config.KeyProbeTimeout, defaults.ProbeTimeout, "Timeout for each interpreter probe")
	flags.String(config.KeyWorkDir, defaults.WorkDir, "Directory holding the credentials file and package sources")

	bindFlags(flags.Lookup, "debug",
		config.KeyConfigPath, config.KeyServerName, config.KeyEnvFile, config.KeyEnvTemplate,
		config.KeyPython, config.KeyProbeTimeout, config.KeyWorkDir)

	config.SetDefaults(viper.GetViper())
	config.ConfigureEnv(viper.GetViper())
}

func bindFlags(lookup func(string) *pflag.Flag, names ...string) {
	for _, name := range names {
		if err := viper.BindPFlag(name, lookup(name)); err != nil {
			logger.Errorw("error binding flag", "flag", name, "error", err)
		}
	}
}

// loadSettings builds the run settings from flags, SCHOOL_MCP_* environment
// variables and defaults, in that order of precedence.
func loadSettings() (config.Settings, error) {
	s, err := config.FromViper(viper.GetViper())
	if err != nil {
		return config.Settings{}, setuperrors.NewInvalidArgumentError("invalid settings", err)
	}
	return s, nil
}
