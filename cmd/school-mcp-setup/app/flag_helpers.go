// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

// addFormatFlag adds a --format flag defaulting to text and rejects values
// outside allowed before the command runs.
func addFormatFlag(cmd *cobra.Command, format *string, allowed ...string) {
	description := fmt.Sprintf("Output format (%s)", strings.Join(allowed, ", "))
	cmd.Flags().StringVar(format, "format", FormatText, description)

	cmd.PreRunE = func(_ *cobra.Command, _ []string) error {
		if slices.Contains(allowed, *format) {
			return nil
		}
		return fmt.Errorf("invalid format %q, must be one of: %s", *format, strings.Join(allowed, ", "))
	}
}
