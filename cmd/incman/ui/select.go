package ui

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Select asks the user to pick one option from a short list on stderr
// and returns the chosen value. bypassHint describes the flag to use
// instead (e.g. "use --image <value>"). Non-interactive terminals
// return *ErrNoInteraction.
func Select(label string, options []string, bypassHint string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("select %s: no options", label)
	}
	if err := RequireInteraction(bypassHint); err != nil {
		return "", fmt.Errorf("selection required: %w", err)
	}

	m := &selectModel{label: label, options: options}
	p := tea.NewProgram(m,
		tea.WithOutput(os.Stderr),
	)

	if _, err := p.Run(); err != nil {
		return "", fmt.Errorf("select prompt: %w", err)
	}

	if m.cancelled {
		return "", ErrCancelled
	}
	return m.options[m.cursor], nil
}

// selectModel is a bubbletea model for single-choice selection.
type selectModel struct {
	label     string
	options   []string
	cursor    int
	chosen    bool
	cancelled bool
}

func (m *selectModel) Init() tea.Cmd { return nil }

func (m *selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case "enter":
			m.chosen = true
			return m, tea.Quit
		case "ctrl+c", "esc", "q":
			m.cancelled = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *selectModel) View() string {
	if m.chosen || m.cancelled {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(AccentStyle.Render("?") + " " + m.label + "\n")
	for i, opt := range m.options {
		if i == m.cursor {
			sb.WriteString("  " + AccentStyle.Render("❯ "+opt) + "\n")
			continue
		}
		sb.WriteString("    " + Muted(opt) + "\n")
	}
	sb.WriteString(MutedStyle.Render("  ↑/↓ navigate  enter select  esc cancel") + "\n")
	return sb.String()
}
