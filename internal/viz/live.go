package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/motionlab/gaittrack/internal/solver"
)

const historyCapacity = 600

var (
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(40)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// ProgressMsg carries an optimizer update into the UI.
type ProgressMsg solver.ProgressUpdate

// DoneMsg ends the live view when the solve finishes.
type DoneMsg struct {
	Solution *solver.Solution
	Err      error
}

type TickMsg time.Time

// Model is the bubbletea model for a running solve.
type Model struct {
	study   string
	started time.Time

	iteration int
	objective float64
	history   []float64

	done     bool
	solution *solver.Solution
	err      error
	canceled bool
}

func NewModel(study string) Model {
	return Model{
		study:   study,
		started: time.Now(),
		history: make([]float64, 0, historyCapacity),
	}
}

// Canceled reports whether the user quit before the solve finished.
func (m Model) Canceled() bool { return m.canceled }

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if !m.done {
				m.canceled = true
			}
			return m, tea.Quit
		}

	case ProgressMsg:
		m.iteration = msg.Iteration
		m.objective = msg.Objective
		if len(m.history) == historyCapacity {
			m.history = m.history[1:]
		}
		m.history = append(m.history, msg.Objective)

	case DoneMsg:
		m.done = true
		m.solution = msg.Solution
		m.err = msg.Err
		return m, tea.Quit

	case TickMsg:
		return m, tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m Model) View() string {
	var graphView string
	if len(m.history) >= 2 {
		graphView = graphStyle.Render(asciigraph.Plot(m.history,
			asciigraph.Height(12),
			asciigraph.Width(60),
			asciigraph.Caption("objective"),
		))
	} else {
		graphView = graphStyle.Render("waiting for first iteration...")
	}

	var stats strings.Builder
	stats.WriteString(headerStyle.Render(m.study) + "\n")
	row := func(label, value string) {
		stats.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("iteration", fmt.Sprintf("%d", m.iteration))
	row("objective", fmt.Sprintf("%.6g", m.objective))
	row("elapsed", time.Since(m.started).Round(time.Second).String())

	if m.done {
		switch {
		case m.err != nil:
			stats.WriteString("\n" + doneStyle.Render("failed: "+m.err.Error()))
		case m.solution != nil && m.solution.Converged:
			stats.WriteString("\n" + doneStyle.Render("converged"))
		default:
			stats.WriteString("\n" + doneStyle.Render("stopped"))
		}
	}

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, graphView, statsStyle.Render(stats.String()))
	return mainView + "\n" + helpStyle.Render("q: quit")
}
