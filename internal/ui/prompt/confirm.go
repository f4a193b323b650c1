// Package prompt provides the interactive yes/no prompt used before
// destructive operations such as pruning snapshots.
package prompt

import (
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/raphi011/doccache/internal/ui/static"
)

// ConfirmResult holds the result of a confirmation prompt.
type ConfirmResult struct {
	Confirmed bool
	Cancelled bool
}

type confirmModel struct {
	prompt    string
	details   []string // listed above the question, e.g. snapshots to delete
	confirmed bool
	done      bool
	cancelled bool
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "y", "Y":
		m.confirmed = true
	case "n", "N", "enter":
		// enter takes the default, which is no
	case "ctrl+c", "q", "esc":
		m.cancelled = true
	default:
		return m, nil
	}
	m.done = true
	return m, tea.Quit
}

func (m confirmModel) View() tea.View {
	if m.done {
		return tea.NewView("")
	}

	var b strings.Builder
	for _, d := range m.details {
		b.WriteString("  ")
		b.WriteString(static.Muted(d))
		b.WriteString("\n")
	}
	b.WriteString(m.prompt)
	b.WriteString(" [y/N] ")
	return tea.NewView(b.String())
}

// Confirm asks prompt on stderr and returns the user's choice. details are
// listed above the question. Pressing enter answers no.
func Confirm(prompt string, details ...string) (ConfirmResult, error) {
	p := tea.NewProgram(confirmModel{prompt: prompt, details: details}, tea.WithOutput(os.Stderr))
	finalModel, err := p.Run()
	if err != nil {
		return ConfirmResult{}, err
	}
	m := finalModel.(confirmModel)
	return ConfirmResult{
		Confirmed: m.confirmed,
		Cancelled: m.cancelled,
	}, nil
}
