package day

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/steps-dashboard-tui/internal/health"
	"github.com/j-veylop/steps-dashboard-tui/internal/models"
	"github.com/j-veylop/steps-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/steps-dashboard-tui/internal/ui/styles"
)

// View renders the day tab.
func (m *Model) View() string {
	snap, ok := m.state.Snapshot()

	var body string
	switch {
	case !ok && m.state.Denied():
		body = m.renderDenied()
	case !ok && m.state.IsInitialLoading():
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	case !ok:
		body = m.renderEmpty()
	default:
		body = m.renderSnapshot(models.ProjectDay(snap))
	}

	return styles.DocStyle.Width(m.width).Render(body)
}

func (m *Model) renderSnapshot(p models.DayProjection) string {
	var sections []string

	title := styles.TitleStyle.Render("Today")
	date := styles.MutedTextStyle.Render(p.AsOf.Format("Monday, Jan 2"))
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", date))

	ring := styles.GetProgressStyle(p.Progress).Render(components.RingGlyph(p.Progress))
	steps := styles.BigNumberStyle.Render(p.StepsLabel + " steps")
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Center, ring, "  ", steps))
	sections = append(sections, "")

	sections = append(sections, m.goalBar.View("Goal"))
	sections = append(sections, styles.MutedTextStyle.Render(p.GoalLabel))
	sections = append(sections, "")

	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top,
		renderStat("Energy", p.CaloriesLabel, styles.MetricColor(health.ActiveEnergy)),
		renderStat("Distance", p.DistanceLabel, styles.MetricColor(health.Distance)),
		renderStat("Exercise", p.DurationLabel, styles.MetricColor(health.ExerciseDuration)),
	))

	if banner := m.renderStatus(); banner != "" {
		sections = append(sections, banner)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderStatus explains why the shown values may be stale.
func (m *Model) renderStatus() string {
	updated := "Updated " + m.state.GetLastUpdated().Format("15:04")

	if m.state.Denied() {
		return styles.ErrorTextStyle.Render("Access denied. Press a to allow access. ") +
			styles.MutedTextStyle.Render(updated)
	}
	if err := m.state.SnapshotError(); err != nil {
		return styles.WarningTextStyle.Render(fmt.Sprintf("Last refresh failed: %v. ", err)) +
			styles.MutedTextStyle.Render(updated)
	}
	return styles.MutedTextStyle.Render(updated)
}

func renderStat(label, value string, color lipgloss.Color) string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.MutedTextStyle.Render(label),
		lipgloss.NewStyle().Bold(true).Foreground(color).Render(value),
	)
	return styles.CardStyle.Width(18).MarginRight(1).Render(content)
}

func (m *Model) renderDenied() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("Today"),
		styles.ErrorTextStyle.Render("Health data access was denied."),
		styles.HelpStyle.Render("Press a to ask for access again, or run `steps access allow`."),
	)
}

func (m *Model) renderEmpty() string {
	msg := "No activity data yet. Drop an export into the import directory or press r."
	if err := m.state.SnapshotError(); err != nil {
		msg = fmt.Sprintf("Could not read today's activity: %v", err)
		return lipgloss.JoinVertical(lipgloss.Left,
			styles.TitleStyle.Render("Today"),
			styles.WarningTextStyle.Render(msg),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("Today"),
		styles.HelpStyle.Render(msg),
	)
}
