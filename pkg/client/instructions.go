// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"fmt"
	"io"
	"strings"
)

// ManualInstructions writes the steps an operator follows to add the entry
// to the host config by hand, including a paste-ready JSON snippet.
func ManualInstructions(w io.Writer, serverName string, entry ServerEntry) error {
	snippet, err := Snippet(serverName, entry)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("\nManual Configuration Instructions:\n")
	b.WriteString("1. Open Claude Desktop\n")
	b.WriteString("2. Go to Settings > Developer > Edit Config\n")
	fmt.Fprintf(&b, "3. Add the following to your %s:\n", HostConfigFileName)
	b.Write(snippet)
	b.WriteString("\n4. Replace the environment variable values with your actual credentials.\n")
	b.WriteString("5. Save the file and restart Claude Desktop\n")

	_, err = io.WriteString(w, b.String())
	return err
}

// Snippet returns a standalone host config document holding only the entry,
// indented with four spaces.
func Snippet(serverName string, entry ServerEntry) ([]byte, error) {
	doc, err := MergeDocument(nil, MCPServersPathPrefix, serverName, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to build configuration snippet: %w", err)
	}
	return indentDocumentWith(doc, "    ")
}
