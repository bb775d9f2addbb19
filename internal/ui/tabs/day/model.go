// Package day provides the tab showing today's progress toward the step goal.
package day

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/steps-dashboard-tui/internal/app"
	"github.com/j-veylop/steps-dashboard-tui/internal/models"
	"github.com/j-veylop/steps-dashboard-tui/internal/ui/components"
)

// keyMap defines the key bindings specific to the day tab.
type keyMap struct {
	Refresh     key.Binding
	Reauthorize key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh now"),
		),
		Reauthorize: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "allow access"),
		),
	}
}

// Model represents the day tab state.
type Model struct {
	state    *app.State
	commands *app.Commands
	spinner  components.LoadingSpinner
	goalBar  components.GoalBar
	keys     keyMap
	width    int
	height   int
}

// New creates a new day tab model.
func New(state *app.State) *Model {
	return &Model{
		state:    state,
		commands: app.NewCommands(),
		spinner:  components.NewSpinner("Reading today's activity..."),
		goalBar:  components.NewGoalBar(30),
		keys:     defaultKeyMap(),
	}
}

// Init initializes the day tab.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Init(), m.syncGoalBar())
}

// Update handles messages for the day tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	cmds := []tea.Cmd{m.syncGoalBar()}

	switch msg := msg.(type) {
	case components.AnimationTickMsg:
		var cmd tea.Cmd
		m.goalBar, cmd = m.goalBar.Update(msg)
		cmds = append(cmds, cmd)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Reauthorize) && m.state.Denied() {
			cmds = append(cmds, m.commands.Reauthorize())
		}
	}

	return m, tea.Batch(cmds...)
}

// syncGoalBar points the bar at the displayed snapshot's progress.
func (m *Model) syncGoalBar() tea.Cmd {
	snap, ok := m.state.Snapshot()
	if !ok {
		return nil
	}
	return m.goalBar.SetPercent(models.ProjectDay(snap).Progress * 100)
}

// SetSize sets the available size for the day tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.goalBar.SetWidth(min(max(width-40, 10), 50))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Refresh, m.keys.Reauthorize}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{{m.keys.Refresh, m.keys.Reauthorize}}
}
