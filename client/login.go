package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// loginModel is the name prompt shown before connecting, when the -login
// flag is set or no -name was given.
type loginModel struct {
	textInput textinput.Model
	done      bool
	quitting  bool
}

func initialLoginModel() loginModel {
	ti := textinput.New()
	ti.Placeholder = "Username"
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 20

	return loginModel{textInput: ti}
}

func (m loginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m loginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			if m.textInput.Value() != "" {
				m.done = true
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m loginModel) View() string {
	if m.done || m.quitting {
		return ""
	}
	return fmt.Sprintf(
		"Enter username:\n\n%s\n\n%s\n",
		m.textInput.View(),
		"(esc to quit)",
	)
}

// promptName runs the login prompt and returns the entered name.
func promptName() (string, error) {
	p := tea.NewProgram(initialLoginModel())
	m, err := p.Run()
	if err != nil {
		return "", err
	}
	lm, ok := m.(loginModel)
	if !ok || lm.quitting {
		return "", errors.New("login aborted")
	}
	return lm.textInput.Value(), nil
}
