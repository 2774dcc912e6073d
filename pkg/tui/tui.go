package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Program wraps the bubbletea program so that the reader monitor can
// request a refresh from its own goroutine.
type Program struct {
	p *tea.Program
}

// NewProgram prepares the full screen front end on in and out.
func NewProgram(r Runner, in io.Reader, out io.Writer) *Program {
	return &Program{p: tea.NewProgram(New(r), tea.WithAltScreen(), tea.WithInput(in), tea.WithOutput(out))}
}

// Run blocks until the user leaves.
func (p *Program) Run() error {
	_, err := p.p.Run()
	return err
}

// Refresh is safe to call from any goroutine.
func (p *Program) Refresh() {
	p.p.Send(RefreshMsg{})
}
