package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/steps-dashboard-tui/internal/models"
	"github.com/j-veylop/steps-dashboard-tui/internal/ui/styles"
)

// ringGlyphs fill a circular gauge in eighths.
var ringGlyphs = []string{"○", "◔", "◔", "◑", "◑", "◕", "◕", "◕", "●"}

var widgetFrame = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(styles.Subtle).
	Padding(0, 1)

// RingGlyph returns the gauge glyph for progress in [0, 1].
func RingGlyph(progress float64) string {
	idx := int(min(max(progress, 0), 1) * float64(len(ringGlyphs)-1))
	return ringGlyphs[idx]
}

// RenderCircular draws the compact widget: a gauge with steps over goal.
func RenderCircular(p models.WidgetProjection) string {
	style := styles.GetProgressStyle(p.Progress)

	lines := []string{
		style.Render(fmt.Sprintf("%s %d%%", RingGlyph(p.Progress), p.Percent)),
		styles.BigNumberStyle.Render(p.StepsLabel),
		styles.MutedTextStyle.Render("/ " + p.GoalLabel),
	}
	if p.Placeholder {
		lines = append(lines, styles.MutedTextStyle.Render("sample"))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, lines...)
	return widgetFrame.Render(content)
}

// RenderRectangular draws the wide widget: steps, a bar, the 30-day average
// and exercise time.
func RenderRectangular(p models.WidgetProjection) string {
	const barWidth = 24

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		styles.BigNumberStyle.Render(p.StepsLabel),
		styles.MutedTextStyle.Render(" / "+p.GoalLabel+" steps"),
	)

	bar := RenderGradientBar(p.Progress*100, barWidth) + " " +
		styles.GetProgressStyle(p.Progress).Render(fmt.Sprintf("%d%%", p.Percent))

	footer := strings.Join([]string{p.AverageLabel, p.DurationLabel, p.AsOfLabel}, " · ")
	if p.Placeholder {
		footer = "sample data · " + footer
	}

	content := lipgloss.JoinVertical(lipgloss.Left, header, bar, styles.MutedTextStyle.Render(footer))
	return widgetFrame.Render(content)
}

// RenderWidget draws p in its presentation style.
func RenderWidget(p models.WidgetProjection) string {
	if p.Style == models.StyleCircular {
		return RenderCircular(p)
	}
	return RenderRectangular(p)
}

// RenderWidgetPlain draws p without terminal escape sequences, for files read
// by the widget host.
func RenderWidgetPlain(p models.WidgetProjection) string {
	return ansi.Strip(RenderWidget(p))
}
