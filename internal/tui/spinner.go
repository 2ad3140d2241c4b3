// internal/tui/spinner.go

// Package tui holds the terminal presentation pieces shared by the CLI
// commands: a progress spinner, Markdown rendering and lipgloss styles.
package tui

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/storyqa/internal/logging"
)

type doneMsg struct{}

// spinnerModel animates a spinner next to a label until doneMsg arrives.
type spinnerModel struct {
	spinner spinner.Model
	label   string
	start   time.Time
	done    bool
}

func newSpinnerModel(label string) *spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return &spinnerModel{spinner: s, label: label, start: time.Now()}
}

// Init starts the spinner animation.
func (m *spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update advances the spinner and quits once the work is done.
func (m *spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// View renders the spinner line, or nothing once finished.
func (m *spinnerModel) View() string {
	if m.done {
		return ""
	}
	elapsed := fmt.Sprintf("%.1f", time.Since(m.start).Seconds())
	return fmt.Sprintf("%s %s %s\n", m.spinner.View(), m.label, CaptionStyle.Render(elapsed+"s"))
}

// RunWithSpinner shows a spinner on out while fn runs and returns fn's error.
func RunWithSpinner(out io.Writer, label string, fn func() error) error {
	if out == nil {
		return fn()
	}

	result := make(chan error, 1)
	p := tea.NewProgram(newSpinnerModel(label), tea.WithOutput(out), tea.WithInput(nil))
	go func() {
		result <- fn()
		p.Send(doneMsg{})
	}()

	if _, err := p.Run(); err != nil {
		logging.LogEvent("tui: spinner stopped: %v", err)
	}
	return <-result
}
