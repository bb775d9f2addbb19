package settings

import (
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/steps-dashboard-tui/internal/health"
	"github.com/j-veylop/steps-dashboard-tui/internal/models"
	"github.com/j-veylop/steps-dashboard-tui/internal/services/widget"
	"github.com/j-veylop/steps-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/steps-dashboard-tui/internal/ui/styles"
	"github.com/j-veylop/steps-dashboard-tui/internal/version"
)

// View renders the settings tab.
func (m *Model) View() string {
	sections := []string{
		styles.TitleStyle.Render("Settings"),
		styles.HelpStyle.Render("Coming Soon: editing goals and cadences from here."),
		"",
		m.renderConfigCard(),
	}

	if m.showPreview {
		sections = append(sections, m.renderPreviewCard())
	}
	sections = append(sections, m.renderAboutCard())

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.Render(m.viewport.View())
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 80)
}

func (m *Model) renderConfigCard() string {
	rows := []string{styles.CardTitleStyle.Render("Configuration")}

	if m.config == nil {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	c := m.config
	widgets := "disabled"
	if m.widgetsEnabled {
		widgets = "enabled"
	} else if c.WidgetsEnabled {
		widgets = "unavailable (directory not writable)"
	}

	rows = append(rows,
		renderRow("App goal", models.FormatCount(c.Goals.InApp)+" steps"),
		renderRow("Widget goal", models.FormatCount(c.Goals.Widget)+" steps"),
		renderRow("Refresh", "every "+c.RefreshInterval.String()),
		renderRow("Widget cadence", fmt.Sprintf("%s from %02d:00 to %02d:59, else %s",
			c.WidgetCadence.DayInterval, c.WidgetCadence.ActiveStartHour,
			c.WidgetCadence.ActiveEndHour, c.WidgetCadence.NightInterval)),
		renderRow("Missing days", c.WidgetGapPolicy),
		renderRow("Widgets", widgets),
		renderRow("Widget dir", c.WidgetDir),
		renderRow("Import dir", c.ImportDir),
		renderRow("Database", c.DatabasePath),
		renderRow("Notifications", onOff(c.GoalNotifications)),
	)

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// previewEntry builds a widget entry from what the TUI already shows. It is
// the sample entry until today's snapshot is known.
func (m *Model) previewEntry(kind models.WidgetKind) models.WidgetEntry {
	snap, ok := m.state.Snapshot()
	if !ok {
		return widget.PlaceholderEntry(time.Now(), kind)
	}

	goal := snap.StepsGoal
	if m.config != nil {
		goal = m.config.Goals.Widget
	}

	entry := models.WidgetEntry{
		AsOf:            snap.AsOf,
		Steps:           int(snap.Steps),
		Goal:            goal,
		DurationMinutes: int(snap.DurationMinutes),
		Style:           kind.Style(),
	}
	if month, ok := m.state.Totals(models.PeriodMonth); ok {
		entry.MonthlyAverage = int(month.Average(health.StepCount))
	}
	return entry
}

func (m *Model) renderPreviewCard() string {
	var previews []string
	for _, kind := range models.AllWidgetKinds {
		previews = append(previews, components.RenderWidget(models.ProjectWidget(m.previewEntry(kind))))
		previews = append(previews, "  ")
	}

	rows := []string{
		styles.CardTitleStyle.Render("Widget preview"),
		lipgloss.JoinHorizontal(lipgloss.Top, previews...),
	}
	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.CardTitleStyle.Render("About " + version.Name),
		renderRow("Version", version.GetVersion()),
		renderRow("Commit", version.GetCommit()),
		renderRow("Build date", version.GetDate()),
		renderRow("Go version", runtime.Version()),
		renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	}
	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(16).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
