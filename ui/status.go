// Package ui renders live component status in the terminal.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ZacxDev/eagerstart/executor"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"
)

// StatusSource is satisfied by executor.StatusManager.
type StatusSource interface {
	Snapshot() map[string]executor.ExecutionStatus
	FailedCount() int
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	helpStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("243"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
)

func statusStyle(status executor.Status) lipgloss.Style {
	switch status {
	case executor.StatusCompleted, executor.StatusStopped:
		return pendingStyle.Foreground(lipgloss.Color("82"))
	case executor.StatusFailed:
		return pendingStyle.Foreground(lipgloss.Color("160"))
	case executor.StatusSkipped:
		return pendingStyle.Foreground(lipgloss.Color("243"))
	case executor.StatusRunning, executor.StatusStopping:
		return pendingStyle.Foreground(lipgloss.Color("214"))
	}
	return pendingStyle
}

type tickMsg time.Time

// DoneMsg tells the model the work it is watching has finished.
type DoneMsg struct {
	Err error
}

type Model struct {
	title  string
	names  []string
	source StatusSource

	viewport      viewport.Model
	logView       viewport.Model
	selectedIdx   int
	showingLogs   bool
	logAutoscroll bool

	done bool
	err  error
	now  func() time.Time
}

// NewModel shows names, in the given order, with their status from source.
func NewModel(title string, names []string, source StatusSource) *Model {
	return &Model{
		title:         title,
		names:         names,
		source:        source,
		viewport:      viewport.New(160, 40),
		logView:       viewport.New(160, 20),
		logAutoscroll: true,
		now:           time.Now,
	}
}

func (m *Model) Init() tea.Cmd {
	return tickCmd()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.done = true
			return m, tea.Quit
		case "up", "k":
			if !m.showingLogs {
				m.move(-1)
			} else {
				m.logAutoscroll = false
				m.logView, cmd = m.logView.Update(msg)
				cmds = append(cmds, cmd)
			}
		case "down", "j":
			if !m.showingLogs {
				m.move(1)
			} else {
				m.logView, cmd = m.logView.Update(msg)
				cmds = append(cmds, cmd)
			}
		case "enter", " ":
			m.showingLogs = !m.showingLogs
			m.logAutoscroll = m.showingLogs
		case "esc":
			m.showingLogs = false
		}
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 1
		m.logView.Width = msg.Width
		m.logView.Height = msg.Height / 2
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		m.viewport.SetContent(m.statusView())
		return m, tea.Quit
	case tickMsg:
		if !m.done {
			cmds = append(cmds, tickCmd())
		}
	}

	m.viewport.SetContent(m.statusView())
	if m.showingLogs && m.logAutoscroll {
		m.updateLogView()
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.viewport.View())
	if m.showingLogs {
		sb.WriteString("\n\nOutput:\n")
		sb.WriteString(m.logView.View())
	}
	if m.done {
		if m.err != nil {
			sb.WriteString("\n" + statusStyle(executor.StatusFailed).Render("Error: "+m.err.Error()))
		}
		return sb.String() + "\n"
	}
	sb.WriteString("\n" + helpStyle.Render("Press q to quit, enter/space to toggle output, up/down or j/k to navigate"))
	return sb.String()
}

// Err returns the error carried by DoneMsg, if any.
func (m *Model) Err() error {
	return m.err
}

func (m *Model) move(delta int) {
	if len(m.names) == 0 {
		return
	}
	m.selectedIdx = (m.selectedIdx + delta + len(m.names)) % len(m.names)
}

func (m *Model) statusView() string {
	snapshot := m.source.Snapshot()
	now := m.now()

	statuses := make([]executor.ExecutionStatus, len(m.names))
	finished := 0
	for i, name := range m.names {
		status, ok := snapshot[name]
		if !ok {
			status = executor.ExecutionStatus{Status: executor.StatusQueued}
		}
		if status.Status.Done() {
			finished++
		}
		statuses[i] = status
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d/%d done)", m.title, finished, len(m.names))))
	if failed := m.source.FailedCount(); failed > 0 {
		sb.WriteString(" " + statusStyle(executor.StatusFailed).Render(fmt.Sprintf("%d failed", failed)))
	}
	sb.WriteString("\n\n")

	for i, name := range m.names {
		status := statuses[i]

		prefix := "  "
		if i == m.selectedIdx {
			prefix = "> "
		}

		sb.WriteString(fmt.Sprintf(
			"%s%-3d %-24s | %-10s | %s\n",
			prefix,
			i+1,
			name,
			statusStyle(status.Status).Render(string(status.Status)),
			status.Duration(now).Round(time.Millisecond),
		))
	}

	return sb.String()
}

func (m *Model) updateLogView() {
	m.logView.SetContent("")
	if m.selectedIdx >= len(m.names) {
		return
	}

	status := m.source.Snapshot()[m.names[m.selectedIdx]]
	if len(status.LogLines) == 0 {
		m.logView.SetContent("No output yet")
	} else {
		m.logView.SetContent(strings.Join(status.LogLines, "\n"))
	}
	if m.logAutoscroll {
		m.logView.GotoBottom()
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Run shows the status view while work runs. Quitting the view cancels the
// context passed to work; Run returns work's error once it has finished.
func Run(ctx context.Context, title string, names []string, source StatusSource, work func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(title, names, source))
	result := make(chan error, 1)

	go func() {
		err := work(ctx)
		result <- err
		p.Send(DoneMsg{Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-result
		return err
	}

	cancel()
	return <-result
}
