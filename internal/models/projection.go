package models

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/j-veylop/steps-dashboard-tui/internal/health"
)

// DayProjection is the display form of a TodaySnapshot.
type DayProjection struct {
	AsOf          time.Time
	Progress      float64 // 0..1
	Percent       int
	StepsLabel    string
	GoalLabel     string
	CaloriesLabel string
	DistanceLabel string
	DurationLabel string
}

// StatRow is one metric line of the totals view.
type StatRow struct {
	Metric  health.MetricKind
	Label   string
	Total   string
	Average string
	Failed  bool
}

// TotalsProjection is the display form of PeriodStats.
type TotalsProjection struct {
	Heading      string
	TotalSteps   int
	StepsLabel   string
	AverageSteps float64
	AverageLabel string
	Rows         []StatRow
	// Series holds daily steps for every day of the window, zero where the
	// day had no data.
	Series []float64
	Days   []time.Time
	// Partial is set when some metrics could not be read.
	Partial bool
}

// WidgetProjection is the display form of a WidgetEntry.
type WidgetProjection struct {
	Style         PresentationStyle
	Progress      float64
	Percent       int
	StepsLabel    string
	GoalLabel     string
	AverageLabel  string
	DurationLabel string
	AsOfLabel     string
	Placeholder   bool
}

// Progress returns value/goal clamped to [0, 1]; 0 when goal is not positive.
func Progress(value float64, goal int) float64 {
	if goal <= 0 {
		return 0
	}
	return min(max(value/float64(goal), 0), 1)
}

// ProjectDay maps today's snapshot to labels.
func ProjectDay(s TodaySnapshot) DayProjection {
	progress := Progress(s.Steps, s.StepsGoal)
	return DayProjection{
		AsOf:          s.AsOf,
		Progress:      progress,
		Percent:       int(progress * 100),
		StepsLabel:    FormatCount(int(s.Steps)),
		GoalLabel:     fmt.Sprintf("Goal: %s steps", FormatCount(s.StepsGoal)),
		CaloriesLabel: fmt.Sprintf("%.0f kcal", s.Calories),
		DistanceLabel: fmt.Sprintf("%.3f km", s.Distance/1000),
		DurationLabel: fmt.Sprintf("%.0f min", s.DurationMinutes),
	}
}

// ProjectTotals maps period stats to the totals view.
func ProjectTotals(s PeriodStats, period Period) TotalsProjection {
	steps := s.Total(health.StepCount)
	avg := s.Average(health.StepCount)

	p := TotalsProjection{
		Heading:      period.String(),
		TotalSteps:   int(steps),
		StepsLabel:   FormatCount(int(steps)),
		AverageSteps: avg,
		AverageLabel: fmt.Sprintf("%s steps/day", FormatCount(int(avg))),
		Partial:      s.Partial(),
	}

	for _, m := range []health.MetricKind{health.Distance, health.ActiveEnergy, health.ExerciseDuration} {
		_, failed := s.Failed[m]
		p.Rows = append(p.Rows, StatRow{
			Metric:  m,
			Label:   m.Label(),
			Total:   formatMetric(m, s.Total(m)),
			Average: formatMetric(m, s.Average(m)),
			Failed:  failed,
		})
	}

	byDay := make(map[string]float64, len(s.Series(health.StepCount)))
	for _, b := range s.Series(health.StepCount) {
		byDay[b.Day()] += b.Value
	}
	for _, b := range s.Window.Buckets(health.DailyInterval) {
		day := health.SampleBucket{Date: b.Start}.Day()
		p.Days = append(p.Days, b.Start)
		p.Series = append(p.Series, byDay[day])
	}

	return p
}

// ProjectWidget maps a widget entry to labels.
func ProjectWidget(e WidgetEntry) WidgetProjection {
	progress := Progress(float64(e.Steps), e.Goal)
	return WidgetProjection{
		Style:         e.Style,
		Progress:      progress,
		Percent:       int(progress * 100),
		StepsLabel:    FormatCount(e.Steps),
		GoalLabel:     FormatCount(e.Goal),
		AverageLabel:  fmt.Sprintf("30d avg %s", FormatCount(e.MonthlyAverage)),
		DurationLabel: fmt.Sprintf("%d min", e.DurationMinutes),
		AsOfLabel:     e.AsOf.Format("15:04"),
		Placeholder:   e.Placeholder,
	}
}

func formatMetric(m health.MetricKind, v float64) string {
	switch m {
	case health.Distance:
		return fmt.Sprintf("%.2f km", v/1000)
	case health.ActiveEnergy:
		return fmt.Sprintf("%.0f kcal", v)
	case health.ExerciseDuration:
		return fmt.Sprintf("%.0f min", v)
	default:
		return FormatCount(int(v))
	}
}

// FormatCount formats n with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}
