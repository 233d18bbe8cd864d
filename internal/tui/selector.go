package tui

import (
	"errors"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrCanceled is returned when the user leaves the selector without choosing.
var ErrCanceled = errors.New("selection canceled")

type model struct {
	choices  []string
	cursor   int
	selected bool
	canceled bool
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}
		case "enter":
			m.selected = true
			return m, tea.Quit
		case "q", "esc", "ctrl+c":
			m.canceled = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	s := "Choose a test header:\n\n"
	for i, choice := range m.choices {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}
		s += cursor + " " + filepath.Base(choice) + "\n"
	}
	if m.selected {
		s += "\nGenerating driver...\n"
	}
	return s
}

// SelectHeader lets the user pick one of headers and returns it.
func SelectHeader(headers []string) (string, error) {
	if len(headers) == 0 {
		return "", errors.New("no test headers to choose from")
	}
	p := tea.NewProgram(model{choices: headers})
	m, err := p.Run()
	if err != nil {
		return "", err
	}
	return result(m.(model))
}

func result(m model) (string, error) {
	if m.canceled || !m.selected {
		return "", ErrCanceled
	}
	return m.choices[m.cursor], nil
}
