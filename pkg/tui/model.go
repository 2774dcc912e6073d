// Package tui is the interactive front end: a scrollback of every turn, an
// input line with history and a footer showing the connected reader.
package tui

import (
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gregLibert/smart-card-shell/pkg/shell"
)

// Runner is the part of the shell the front end drives.
type Runner interface {
	Turn(line string) (shell.Result, string, error)
	Drain() string
	Reader() string
}

// RefreshMsg asks the model to pick up output produced outside a turn,
// such as reader events.
type RefreshMsg struct{}

// turnMsg carries the outcome of one executed line.
type turnMsg struct {
	line string
	out  string
	err  error
	exit bool
}

const (
	footerHeight = 2
	inputHeight  = 1
	title        = "rscsh"
)

// copyFunc is replaced in tests.
var copyFunc = clipboard.WriteAll

// Model is the bubbletea model. It is copied on every Update, so it holds
// no values that must not be copied.
type Model struct {
	runner   Runner
	input    textinput.Model
	view     viewport.Model
	scroll   string
	lastTurn string

	history []string
	histPos int

	busy     bool
	status   string
	ready    bool
	quitting bool
}

// New returns a model driving r.
func New(r Runner) Model {
	in := textinput.New()
	in.Prompt = promptStyle.Render("> ")
	in.Placeholder = "help"
	in.Focus()

	return Model{
		runner: r,
		input:  in,
		view:   viewport.New(80, 20),
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// execute runs line off the event loop; card exchanges may take a while.
func execute(r Runner, line string) tea.Cmd {
	return func() tea.Msg {
		res, out, err := r.Turn(line)
		return turnMsg{line: line, out: out, err: err, exit: res.Exit}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.view.Width = msg.Width
		m.view.Height = max(1, msg.Height-footerHeight-inputHeight)
		m.input.Width = max(10, msg.Width-4)
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case turnMsg:
		m.busy = false
		m.onTurn(msg)
		if msg.exit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case RefreshMsg:
		if out := m.runner.Drain(); out != "" {
			m.append(out)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "ctrl+d":
		m.quitting = true
		return m, tea.Quit

	case "enter":
		if m.busy {
			return m, nil
		}
		line := m.input.Value()
		m.input.Reset()
		if strings.TrimSpace(line) != "" {
			m.history = append(m.history, line)
		}
		m.histPos = len(m.history)
		m.busy = true
		m.status = ""
		return m, execute(m.runner, line)

	case "up":
		if m.histPos > 0 {
			m.histPos--
			m.input.SetValue(m.history[m.histPos])
			m.input.CursorEnd()
		}
		return m, nil

	case "down":
		if m.histPos < len(m.history)-1 {
			m.histPos++
			m.input.SetValue(m.history[m.histPos])
			m.input.CursorEnd()
		} else {
			m.histPos = len(m.history)
			m.input.Reset()
		}
		return m, nil

	case "ctrl+y":
		if err := copyFunc(m.lastTurn); err != nil {
			m.status = errorStyle.Render("copy failed: " + err.Error())
		} else {
			m.status = statusStyle.Render("last output copied")
		}
		return m, nil

	case "ctrl+l":
		m.scroll = ""
		m.refresh()
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// onTurn appends the echo of the line, its output and its error.
func (m *Model) onTurn(t turnMsg) {
	out := t.out
	if t.err != nil {
		out += "Error: " + t.err.Error() + "\n"
	}
	m.lastTurn = out

	var sb strings.Builder
	sb.WriteString(echoStyle.Render("> "+t.line) + "\n")
	sb.WriteString(t.out)
	if t.err != nil {
		sb.WriteString(errorStyle.Render("Error: "+t.err.Error()) + "\n")
	}
	m.append(sb.String())
}

func (m *Model) append(text string) {
	m.scroll += text
	m.refresh()
}

func (m *Model) refresh() {
	m.view.SetContent(m.scroll)
	m.view.GotoBottom()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "starting...\n"
	}

	reader := m.runner.Reader()
	if reader == "" {
		reader = "no card"
	}
	left := titleStyle.Render(title) + " " + helpStyle.Render(reader)
	if m.busy {
		left += " " + helpStyle.Render("(running)")
	}
	right := m.status
	if right == "" {
		right = helpStyle.Render("ctrl+y copy  ctrl+l clear  ctrl+c quit")
	}
	gap := max(1, m.view.Width-lipgloss.Width(left)-lipgloss.Width(right))
	footer := footerStyle.Width(m.view.Width).Render(left + strings.Repeat(" ", gap) + right)

	return m.view.View() + "\n" + m.input.View() + "\n" + footer
}
