// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrPromptCancelled is returned when the operator quits a prompt.
var ErrPromptCancelled = errors.New("prompt cancelled")

var (
	promptStyle = lipgloss.NewStyle().Bold(true)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	answerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
)

type confirmModel struct {
	Prompt     string
	DefaultYes bool
	Answer     bool
	Done       bool
	Cancelled  bool
}

func (*confirmModel) Init() tea.Cmd { return nil }

func (m *confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "y", "Y":
		m.Answer, m.Done = true, true
	case "n", "N":
		m.Answer, m.Done = false, true
	case "enter":
		m.Answer, m.Done = m.DefaultYes, true
	case "ctrl+c", "esc", "q":
		m.Cancelled = true
		return m, tea.Quit
	default:
		return m, nil
	}
	return m, tea.Quit
}

func (m *confirmModel) View() string {
	hint := "[y/N]"
	if m.DefaultYes {
		hint = "[Y/n]"
	}
	line := fmt.Sprintf("%s %s: ", promptStyle.Render(m.Prompt), hintStyle.Render(hint))
	switch {
	case m.Cancelled:
		return line + "\n"
	case m.Done && m.Answer:
		return line + answerStyle.Render("yes") + "\n"
	case m.Done:
		return line + answerStyle.Render("no") + "\n"
	}
	return line
}

// ConfirmPrompter asks yes/no questions with single key presses. It
// implements bootstrap.Prompter.
type ConfirmPrompter struct {
	in  io.Reader
	out io.Writer
}

// NewConfirmPrompter returns a ConfirmPrompter reading keys from in.
func NewConfirmPrompter(in io.Reader, out io.Writer) *ConfirmPrompter {
	return &ConfirmPrompter{in: in, out: out}
}

// Confirm runs the prompt until the operator answers or quits.
func (c *ConfirmPrompter) Confirm(prompt string, defaultYes bool) (bool, error) {
	model := &confirmModel{Prompt: prompt, DefaultYes: defaultYes}
	p := tea.NewProgram(model, tea.WithInput(c.in), tea.WithOutput(c.out))
	finalModel, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("failed to run prompt: %w", err)
	}
	m := finalModel.(*confirmModel)
	if m.Cancelled {
		return false, ErrPromptCancelled
	}
	return m.Answer, nil
}
