// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package ui provides terminal UI helpers for the setup CLI.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/school-mcp/school-mcp-setup/pkg/bootstrap"
)

const notFound = "-"

// RenderStatusTable renders the setup status table to w.
func RenderStatusTable(w io.Writer, status bootstrap.Status) error {
	table := tablewriter.NewWriter(w)
	table.Options(
		tablewriter.WithHeader([]string{"Item", "Status", "Detail"}),
		tablewriter.WithRendition(
			tw.Rendition{
				Borders: tw.Border{
					Left:   tw.State(1),
					Top:    tw.State(1),
					Right:  tw.State(1),
					Bottom: tw.State(1),
				},
			},
		),
		tablewriter.WithAlignment(tw.MakeAlign(3, tw.AlignLeft)),
	)

	rows := [][]string{
		{"Claude Desktop config", yesNo(status.HostConfigFound), orNotFound(status.HostConfigPath)},
		{fmt.Sprintf("Entry '%s'", status.ServerName), yesNo(status.Registered), entryDetail(status)},
		{"Python executable", yesNo(status.Environment.RuntimePath != ""), orNotFound(status.Environment.RuntimePath)},
		{"Package", yesNo(status.Environment.HasPackage()), orNotFound(status.Environment.PackagePath)},
		{"Console script", yesNo(status.Environment.HasScript()), orNotFound(status.Environment.ScriptPath)},
		{"Credentials file", yesNo(status.CredentialsOK), status.CredentialsFile},
		{"Missing credentials", yesNo(len(status.MissingCredentials) == 0), missingDetail(status.MissingCredentials)},
	}
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

func yesNo(ok bool) string {
	if ok {
		return "✅ Yes"
	}
	return "❌ No"
}

func orNotFound(s string) string {
	if s == "" {
		return notFound
	}
	return s
}

func entryDetail(status bootstrap.Status) string {
	if status.Entry == nil {
		return notFound
	}
	return strings.TrimSpace(strings.Join(append([]string{status.Entry.Command}, status.Entry.Args...), " "))
}

func missingDetail(missing []string) string {
	if len(missing) == 0 {
		return "none"
	}
	return strings.Join(missing, ", ")
}
