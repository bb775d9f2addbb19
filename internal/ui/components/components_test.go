package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/steps-dashboard-tui/internal/models"
)

func TestSpinner_Methods(t *testing.T) {
	s := NewSpinner("Init")

	s.SetLabel("Loading")
	if s.View() == "" {
		t.Error("View returned empty")
	}
	if !strings.Contains(s.ViewWithLabel(), "Loading") {
		t.Error("ViewWithLabel should contain the label")
	}
	if s.Init() == nil {
		t.Error("Init should return command")
	}
	if _, cmd := s.Update(spinner.TickMsg{}); cmd == nil {
		t.Error("Update should return command for tick")
	}
}

func TestRenderSpinnerCentered(t *testing.T) {
	s := NewSpinner("Loading...")
	if RenderSpinnerCentered(s, 20, 5) == "" {
		t.Error("RenderSpinnerCentered returned empty")
	}
}

func TestGoalBar_Animates(t *testing.T) {
	g := NewGoalBar(30)

	cmd := g.SetPercent(50)
	if cmd == nil {
		t.Fatal("SetPercent should start the animation")
	}

	for i := 0; i < 200 && g.Percent() != 50; i++ {
		g, _ = g.Update(AnimationTickMsg(time.Now()))
	}
	if g.Percent() != 50 {
		t.Errorf("Percent = %v, want 50 after animation", g.Percent())
	}

	g, cmd = g.Update(AnimationTickMsg(time.Now()))
	if cmd != nil {
		t.Error("animation should stop at the target")
	}
}

func TestGoalBar_ClampsAndAnimatesDown(t *testing.T) {
	g := NewGoalBar(30)
	g.SetPercent(250)
	for i := 0; i < 200; i++ {
		g, _ = g.Update(AnimationTickMsg(time.Now()))
	}
	if g.Percent() != 100 {
		t.Fatalf("Percent = %v, want clamp to 100", g.Percent())
	}

	g.SetPercent(20)
	for i := 0; i < 200; i++ {
		g, _ = g.Update(AnimationTickMsg(time.Now()))
	}
	if g.Percent() != 20 {
		t.Errorf("Percent = %v, want 20", g.Percent())
	}

	if !strings.Contains(ansi.Strip(g.View("Steps")), "20%") {
		t.Error("View should show the percentage")
	}
}

func TestGoalBar_IgnoresOtherMessages(t *testing.T) {
	g := NewGoalBar(30)
	g.SetPercent(40)
	g, cmd := g.Update(spinner.TickMsg{})
	if cmd != nil || g.Percent() != 0 {
		t.Errorf("unrelated message changed the bar: percent %v", g.Percent())
	}
}

func TestRenderGradientBar(t *testing.T) {
	bar := ansi.Strip(RenderGradientBar(50, 10))
	if got := strings.Count(bar, "█"); got != 5 {
		t.Errorf("filled cells = %d, want 5", got)
	}
	if got := strings.Count(bar, "░"); got != 5 {
		t.Errorf("empty cells = %d, want 5", got)
	}
	if RenderGradientBar(50, 0) != "" {
		t.Error("zero width should render nothing")
	}
	if got := strings.Count(ansi.Strip(RenderGradientBar(140, 8)), "█"); got != 8 {
		t.Errorf("overfull bar = %d cells, want 8", got)
	}
}

func TestRenderShimmer(t *testing.T) {
	if w := lipgloss.Width(RenderShimmer(20, 7)); w != 20 {
		t.Errorf("shimmer width = %d, want 20", w)
	}
}

func TestRenderLineChart(t *testing.T) {
	if RenderLineChart([]float64{1, 2, 3, 4}, 20, 5, "Test") == "" {
		t.Error("RenderLineChart returned empty")
	}
	if !strings.Contains(RenderLineChart(nil, 20, 5, ""), "No data") {
		t.Error("empty chart should say so")
	}
}

func TestRenderGoalChart(t *testing.T) {
	chart := RenderGoalChart([]float64{4000, 12000, 9000}, 10000, 30, 6, "steps")
	if !strings.Contains(chart, "steps") {
		t.Error("chart should carry the caption")
	}
	if RenderGoalChart([]float64{5}, 10000, 30, 6, "") == "" {
		t.Error("single point falls back to a line chart")
	}
}

func TestRenderBarChart(t *testing.T) {
	s := ansi.Strip(RenderBarChart([]float64{10, 20}, []string{"Mon", "Tue"}, 30))
	lines := strings.Split(s, "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if strings.Count(lines[0], "█") >= strings.Count(lines[1], "█") {
		t.Error("larger value should have the longer bar")
	}
	if RenderBarChart(nil, nil, 30) != "" {
		t.Error("empty chart should render nothing")
	}
}

func TestDayLabels(t *testing.T) {
	start := time.Date(2026, 10, 12, 0, 0, 0, 0, time.Local) // Monday
	week := make([]time.Time, 7)
	for i := range week {
		week[i] = start.AddDate(0, 0, i)
	}
	if got := DayLabels(week)[0]; got != "Mon" {
		t.Errorf("week label = %q, want Mon", got)
	}

	month := make([]time.Time, 30)
	for i := range month {
		month[i] = start.AddDate(0, 0, i)
	}
	if got := DayLabels(month)[0]; got != "Oct 12" {
		t.Errorf("month label = %q, want Oct 12", got)
	}
}

func TestRenderSparkline(t *testing.T) {
	s := RenderSparkline([]float64{0, 4, 8}, 10)
	if s != "▁▄█" {
		t.Errorf("sparkline = %q", s)
	}
	if RenderSparkline(nil, 10) != "" {
		t.Error("empty sparkline should render nothing")
	}
	if got := len([]rune(ansi.Strip(RenderGoalSparkline([]float64{1, 2, 3}, 3)))); got != 3 {
		t.Errorf("goal sparkline runes = %d, want 3", got)
	}
}

func TestRenderLegend(t *testing.T) {
	s := RenderLegend([]LegendItem{{Label: "Steps", Color: lipgloss.Color("#ffffff")}})
	if !strings.Contains(s, "Steps") {
		t.Error("legend should contain the label")
	}
}

func TestRingGlyph(t *testing.T) {
	tests := []struct {
		progress float64
		want     string
	}{
		{-1, "○"},
		{0, "○"},
		{0.5, "◑"},
		{1, "●"},
		{3, "●"},
	}
	for _, tt := range tests {
		if got := RingGlyph(tt.progress); got != tt.want {
			t.Errorf("RingGlyph(%v) = %q, want %q", tt.progress, got, tt.want)
		}
	}
}

func TestRenderWidget(t *testing.T) {
	entry := models.WidgetEntry{
		AsOf:            time.Date(2026, 10, 19, 14, 5, 0, 0, time.Local),
		Steps:           6000,
		Goal:            12000,
		MonthlyAverage:  8100,
		DurationMinutes: 25,
	}

	entry.Style = models.StyleCircular
	small := RenderWidgetPlain(models.ProjectWidget(entry))
	for _, want := range []string{"◑ 50%", "6,000", "12,000"} {
		if !strings.Contains(small, want) {
			t.Errorf("circular widget missing %q:\n%s", want, small)
		}
	}

	entry.Style = models.StyleRectangular
	medium := RenderWidgetPlain(models.ProjectWidget(entry))
	for _, want := range []string{"6,000", "30d avg 8,100", "25 min", "14:05"} {
		if !strings.Contains(medium, want) {
			t.Errorf("rectangular widget missing %q:\n%s", want, medium)
		}
	}
	if strings.Contains(medium, "\x1b[") {
		t.Error("plain rendering should not contain escape sequences")
	}
}

func TestRenderWidget_Placeholder(t *testing.T) {
	entry := models.WidgetEntry{Steps: 10345, Goal: 12000, Placeholder: true, Style: models.StyleRectangular}
	if !strings.Contains(RenderWidgetPlain(models.ProjectWidget(entry)), "sample data") {
		t.Error("placeholder should be labelled")
	}
}
