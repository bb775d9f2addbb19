// Package components provides reusable UI components.
package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/steps-dashboard-tui/internal/logger"
	"github.com/j-veylop/steps-dashboard-tui/internal/ui/styles"
)

const (
	goalGradientFrom = "#ff6b6b"
	goalGradientTo   = "#51cf66"

	animationInterval = 50 * time.Millisecond
	stallAfter        = 5 * animationInterval
)

// AnimationTickMsg advances the goal bar animation.
type AnimationTickMsg time.Time

func animationTick() tea.Cmd {
	return tea.Tick(animationInterval, func(t time.Time) tea.Msg {
		return AnimationTickMsg(t)
	})
}

// GoalBar renders progress toward the step goal. Changes to the target are
// eased in over a few animation ticks.
type GoalBar struct {
	progress       progress.Model
	isAnimating    bool
	lastTick       time.Time
	targetPercent  float64
	currentPercent float64
}

// NewGoalBar creates a goal bar of the given width.
func NewGoalBar(width int) GoalBar {
	p := progress.New(
		progress.WithScaledGradient(goalGradientFrom, goalGradientTo),
		progress.WithWidth(max(width, 10)),
		progress.WithoutPercentage(),
	)
	return GoalBar{progress: p}
}

// Update handles animation ticks.
func (g GoalBar) Update(msg tea.Msg) (GoalBar, tea.Cmd) {
	if _, ok := msg.(AnimationTickMsg); !ok || !g.isAnimating {
		return g, nil
	}

	g.lastTick = time.Now()
	diff := g.targetPercent - g.currentPercent
	if diff == 0 {
		g.isAnimating = false
		return g, nil
	}

	step := diff / 10
	if step > 0 && step < 0.5 {
		step = 0.5
	} else if step < 0 && step > -0.5 {
		step = -0.5
	}
	g.currentPercent += step
	if (step > 0 && g.currentPercent > g.targetPercent) || (step < 0 && g.currentPercent < g.targetPercent) {
		g.currentPercent = g.targetPercent
	}
	return g, animationTick()
}

// SetPercent sets the target percentage in [0, 100].
func (g *GoalBar) SetPercent(percent float64) tea.Cmd {
	percent = min(max(percent, 0), 100)
	g.targetPercent = percent
	if g.currentPercent == percent {
		return nil
	}
	// The running chain picks up the new target. Chains die while the owning
	// tab is hidden, so a stale one is restarted.
	if g.isAnimating && time.Since(g.lastTick) < stallAfter {
		return nil
	}
	g.isAnimating = true
	g.lastTick = time.Now()
	return animationTick()
}

// Percent returns the currently displayed percentage.
func (g GoalBar) Percent() float64 {
	return g.currentPercent
}

// SetWidth sets the bar width.
func (g *GoalBar) SetWidth(width int) {
	g.progress.Width = max(width, 10)
}

// View renders the bar with label and percentage.
func (g GoalBar) View(label string) string {
	bar := g.progress.ViewAs(g.currentPercent / 100)

	percentStr := styles.GetProgressStyle(g.currentPercent/100).
		Width(6).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", g.currentPercent))

	labelStr := styles.ProgressLabelStyle.Width(15).Render(label)

	return lipgloss.JoinHorizontal(lipgloss.Center, labelStr, bar, " ", percentStr)
}

// RenderGradientBar renders a plain bar with gradient colors for a percent
// in [0, 100].
func RenderGradientBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := min(max(int(float64(width)*percent/100), 0), width)

	var b strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor(goalGradientFrom, goalGradientTo, t)
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("█"))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Subtle).Render("░"))
		}
	}
	return b.String()
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}

// RenderShimmer renders an indeterminate loading bar for the given frame.
func RenderShimmer(width, frame int) string {
	width = max(width, 10)

	const cycle = 120
	t := float64(frame%cycle) / float64(cycle)
	p := t * 2
	if t >= 0.5 {
		p = (1 - t) * 2
	}
	eased := p * p * (3 - 2*p)
	pos := int(eased * float64(width))

	var b strings.Builder
	for i := 0; i < width; i++ {
		dist := pos - i
		if dist < 0 {
			dist = -dist
		}
		switch {
		case dist < 3:
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Primary).Render("▓"))
		case dist < 5:
			b.WriteString(lipgloss.NewStyle().Foreground(styles.TextSecondary).Render("▒"))
		default:
			b.WriteString(lipgloss.NewStyle().Foreground(styles.BgLight).Render("░"))
		}
	}
	return b.String()
}
