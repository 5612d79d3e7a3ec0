// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// printer writes operator-facing progress lines. Styles are applied per
// line; lipgloss pads multi-line blocks to a common width.
type printer struct {
	w io.Writer
}

func (p printer) blank() {
	_, _ = fmt.Fprintln(p.w)
}

func (p printer) raw(b []byte) {
	_, _ = p.w.Write(b)
}

func (p printer) line(format string, args ...any) {
	_, _ = fmt.Fprintln(p.w, fmt.Sprintf(format, args...))
}

func (p printer) title(format string, args ...any) {
	_, _ = fmt.Fprintln(p.w, titleStyle.Render(fmt.Sprintf(format, args...)))
}

func (p printer) success(format string, args ...any) {
	_, _ = fmt.Fprintln(p.w, successStyle.Render(fmt.Sprintf(format, args...)))
}

func (p printer) warn(format string, args ...any) {
	_, _ = fmt.Fprintln(p.w, warningStyle.Render(fmt.Sprintf(format, args...)))
}

func (p printer) fail(format string, args ...any) {
	_, _ = fmt.Fprintln(p.w, errorStyle.Render(fmt.Sprintf(format, args...)))
}
