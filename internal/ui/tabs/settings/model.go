// Package settings provides the read-only settings tab.
package settings

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/steps-dashboard-tui/internal/app"
	"github.com/j-veylop/steps-dashboard-tui/internal/config"
)

type keyMap struct {
	Preview key.Binding
	Up      key.Binding
	Down    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Preview: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "toggle widget preview"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
	}
}

// Model represents the settings tab state.
type Model struct {
	state          *app.State
	commands       *app.Commands
	config         *config.Config
	widgetsEnabled bool
	showPreview    bool
	keys           keyMap
	viewport       viewport.Model
	width          int
	height         int
}

// New creates the settings tab. widgetsEnabled is the resolved widget
// capability, which may be off even when the configuration enables widgets.
func New(state *app.State, cfg *config.Config, widgetsEnabled bool) *Model {
	return &Model{
		state:          state,
		commands:       app.NewCommands(),
		config:         cfg,
		widgetsEnabled: widgetsEnabled,
		showPreview:    true,
		keys:           defaultKeyMap(),
		viewport:       viewport.New(0, 0),
	}
}

// Init initializes the settings tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the settings tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if key.Matches(keyMsg, m.keys.Preview) {
		m.showPreview = !m.showPreview
		if m.showPreview && !m.widgetsEnabled {
			return m, m.commands.NotifyWarning("Widgets are not published; the preview is local only")
		}
		if m.showPreview {
			return m, m.commands.NotifyInfo("Widget preview shown")
		}
		return m, m.commands.NotifyInfo("Widget preview hidden")
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(keyMsg)
	return m, cmd
}

// SetSize sets the available size for the settings tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Preview}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Preview},
		{m.keys.Up, m.keys.Down},
	}
}
