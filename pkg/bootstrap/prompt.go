// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the operator yes/no questions.
type Prompter interface {
	// Confirm asks prompt and returns the answer. An empty answer selects
	// defaultYes.
	Confirm(prompt string, defaultYes bool) (bool, error)
}

// LinePrompter reads one answer per line. Only "y" and "yes" (any case)
// accept; an empty line or end of input selects the default; anything else
// declines.
type LinePrompter struct {
	out    io.Writer
	reader *bufio.Reader
	// echo writes the answer back so transcripts of piped input stay readable.
	echo bool
}

// NewLinePrompter returns a LinePrompter reading from in and writing
// prompts to out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{out: out, reader: bufio.NewReader(in)}
}

// NewTerminalPrompter returns a LinePrompter on the process's standard
// streams. Answers are echoed when stdin is not a terminal.
func NewTerminalPrompter() *LinePrompter {
	p := NewLinePrompter(os.Stdin, os.Stdout)
	p.echo = !term.IsTerminal(int(os.Stdin.Fd())) // #nosec G115 -- file descriptors fit in int
	return p
}

// Confirm implements Prompter.
func (p *LinePrompter) Confirm(prompt string, defaultYes bool) (bool, error) {
	if _, err := fmt.Fprintf(p.out, "%s %s: ", prompt, choices(defaultYes)); err != nil {
		return false, err
	}

	line, err := p.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read user input: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))

	if p.echo || errors.Is(err, io.EOF) {
		_, _ = fmt.Fprintln(p.out, answer)
	}
	return interpretAnswer(answer, defaultYes), nil
}

// AutoPrompter accepts every prompt without reading input.
type AutoPrompter struct {
	Out io.Writer
}

// Confirm implements Prompter.
func (p *AutoPrompter) Confirm(prompt string, defaultYes bool) (bool, error) {
	if p.Out != nil {
		if _, err := fmt.Fprintf(p.Out, "%s %s: y (assumed)\n", prompt, choices(defaultYes)); err != nil {
			return false, err
		}
	}
	return true, nil
}

func choices(defaultYes bool) string {
	if defaultYes {
		return "[Y/n]"
	}
	return "[y/N]"
}

func interpretAnswer(answer string, defaultYes bool) bool {
	switch answer {
	case "":
		return defaultYes
	case "y", "yes":
		return true
	default:
		return false
	}
}
