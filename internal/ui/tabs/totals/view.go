package totals

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/steps-dashboard-tui/internal/models"
	"github.com/j-veylop/steps-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/steps-dashboard-tui/internal/ui/styles"
)

// View renders the totals tab.
func (m *Model) View() string {
	period := m.state.Period()

	sections := []string{m.renderToggle(period), ""}

	stats, ok := m.state.Totals(period)
	err := m.state.TotalsError(period)

	switch {
	case !ok && err != nil:
		sections = append(sections, styles.WarningTextStyle.Render(
			fmt.Sprintf("Could not load %s totals: %v", period, err)))
		sections = append(sections, styles.HelpStyle.Render("Press r to try again."))
	case !ok:
		sections = append(sections, m.renderLoading())
	default:
		sections = append(sections, m.renderTotals(models.ProjectTotals(stats, period))...)
		if err != nil {
			sections = append(sections, styles.WarningTextStyle.Render(
				fmt.Sprintf("Showing earlier numbers, reload failed: %v", err)))
		}
	}

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.Render(m.viewport.View())
}

func (m *Model) renderLoading() string {
	width := max(m.width-8, 20)
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.CenterHorizontal(m.spinner.ViewWithLabel(), width),
		"",
		styles.CenterHorizontal(components.RenderShimmer(min(width, 40), m.frame), width),
	)
}

func (m *Model) renderToggle(active models.Period) string {
	var segments []string
	for _, p := range []models.Period{models.PeriodWeek, models.PeriodMonth} {
		style := styles.ButtonInactiveStyle
		if p == active {
			style = styles.ButtonActiveStyle
		}
		segments = append(segments, style.Render(p.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, segments...)
}

func (m *Model) renderTotals(p models.TotalsProjection) []string {
	var sections []string

	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Bottom,
		styles.BigNumberStyle.Render(p.StepsLabel+" steps"),
		styles.MutedTextStyle.Render("  avg "+p.AverageLabel),
	))
	sections = append(sections, "")
	sections = append(sections, m.renderStatTable(p.Rows))
	sections = append(sections, m.renderChart(p))

	if p.Partial {
		sections = append(sections, styles.WarningTextStyle.Render("Some metrics could not be read and show as zero."))
	}
	return sections
}

func (m *Model) renderStatTable(rows []models.StatRow) string {
	const labelWidth, valueWidth = 12, 14

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.TableHeaderStyle.Width(labelWidth).Render(""),
		styles.TableHeaderStyle.Width(valueWidth).Render("Total"),
		styles.TableHeaderStyle.Width(valueWidth).Render("Per day"),
	)

	lines := []string{header}
	for _, r := range rows {
		total, avg := r.Total, r.Average
		if r.Failed {
			total, avg = "n/a", "n/a"
		}
		label := lipgloss.NewStyle().Foreground(styles.MetricColor(r.Metric)).Render(r.Label)
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			styles.TableCellStyle.Width(labelWidth).Render(label),
			styles.TableCellStyle.Width(valueWidth).Render(total),
			styles.TableCellStyle.Width(valueWidth).Render(avg),
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...) + "\n"
}

func (m *Model) renderChart(p models.TotalsProjection) string {
	width := max(m.width-20, 20)
	title := styles.SubTitleStyle.Render("Daily steps")

	if len(p.Series) <= 7 {
		return lipgloss.JoinVertical(lipgloss.Left, title,
			components.RenderBarChart(p.Series, components.DayLabels(p.Days), min(width, 70)))
	}

	goal := 0
	if snap, ok := m.state.Snapshot(); ok {
		goal = snap.StepsGoal
	}

	legend := []components.LegendItem{{Label: "steps", Color: styles.StepsColor}}
	if goal > 0 {
		legend = append(legend, components.LegendItem{Label: "goal " + models.FormatCount(goal), Color: styles.Subtle})
	}

	chart := components.RenderGoalChart(p.Series, goal, min(width, 90), 8, "daily steps")
	spark := components.RenderGoalSparkline(p.Series, goal)
	return lipgloss.JoinVertical(lipgloss.Left, title, chart, components.RenderLegend(legend), "", spark)
}
