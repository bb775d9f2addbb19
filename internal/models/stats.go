// Package models defines data structures and domain types.
package models

import (
	"time"

	"github.com/j-veylop/steps-dashboard-tui/internal/health"
)

// PeriodStats holds the daily series and aggregates of every metric over one
// window.
type PeriodStats struct {
	Window    health.Window
	PerMetric map[health.MetricKind][]health.SampleBucket
	Totals    map[health.MetricKind]float64
	Averages  map[health.MetricKind]float64
	// Failed records metrics whose fetch failed and were reported empty.
	Failed map[health.MetricKind]error
}

// NewPeriodStats derives totals and averages from the per-metric series.
// Metrics missing from perMetric get an empty series.
func NewPeriodStats(w health.Window, perMetric map[health.MetricKind][]health.SampleBucket) PeriodStats {
	s := PeriodStats{
		Window:    w,
		PerMetric: make(map[health.MetricKind][]health.SampleBucket, len(health.AllMetrics)),
		Totals:    make(map[health.MetricKind]float64, len(health.AllMetrics)),
		Averages:  make(map[health.MetricKind]float64, len(health.AllMetrics)),
		Failed:    make(map[health.MetricKind]error),
	}

	for _, m := range health.AllMetrics {
		series := perMetric[m]
		if series == nil {
			series = []health.SampleBucket{}
		}

		total := 0.0
		for _, b := range series {
			total += b.Value
		}

		s.PerMetric[m] = series
		s.Totals[m] = total
		if len(series) > 0 {
			s.Averages[m] = total / float64(len(series))
		}
	}

	return s
}

// Series returns the daily buckets of m.
func (s PeriodStats) Series(m health.MetricKind) []health.SampleBucket {
	return s.PerMetric[m]
}

// Total returns the sum of m over the window.
func (s PeriodStats) Total(m health.MetricKind) float64 {
	return s.Totals[m]
}

// Average returns the mean of m per bucket with data.
func (s PeriodStats) Average(m health.MetricKind) float64 {
	return s.Averages[m]
}

// First returns the value of m's first bucket, 0 when there is none.
func (s PeriodStats) First(m health.MetricKind) float64 {
	if series := s.PerMetric[m]; len(series) > 0 {
		return series[0].Value
	}
	return 0
}

// Partial reports whether any metric failed.
func (s PeriodStats) Partial() bool {
	return len(s.Failed) > 0
}

// TodaySnapshot is today's totals for the in-app surface.
type TodaySnapshot struct {
	AsOf            time.Time
	Steps           float64
	Distance        float64 // meters
	Calories        float64 // kilocalories
	DurationMinutes float64
	StepsGoal       int
}
