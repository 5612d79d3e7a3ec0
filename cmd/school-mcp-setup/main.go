// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package main is the entry point for the School-MCP setup helper.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/school-mcp/school-mcp-setup/cmd/school-mcp-setup/app"
	"github.com/school-mcp/school-mcp-setup/pkg/bootstrap"
	"github.com/school-mcp/school-mcp-setup/pkg/logger"
)

func main() {
	// Initialize the logger
	logger.Initialize()

	// Create a context that will be canceled on signal
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := app.NewRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		if !bootstrap.IsIncomplete(err) {
			logger.Errorw("command failed", "error", err)
		}
		os.Exit(bootstrap.ExitCode(err))
	}
}
