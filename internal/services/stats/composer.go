// Package stats composes per-metric daily sums into period statistics and
// today's snapshot.
package stats

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/steps-dashboard-tui/internal/clock"
	"github.com/j-veylop/steps-dashboard-tui/internal/config"
	"github.com/j-veylop/steps-dashboard-tui/internal/health"
	"github.com/j-veylop/steps-dashboard-tui/internal/logger"
	"github.com/j-veylop/steps-dashboard-tui/internal/models"
)

// ErrAllMetricsFailed is matched by a CompositionError.
var ErrAllMetricsFailed = errors.New("all metrics failed")

// CompositionError reports that no metric of a window could be read.
type CompositionError struct {
	Window health.Window
	Errs   map[health.MetricKind]error
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("%s: %v", ErrAllMetricsFailed, e.Unwrap())
}

// Unwrap exposes every per-metric error together with ErrAllMetricsFailed.
func (e *CompositionError) Unwrap() error {
	errs := []error{ErrAllMetricsFailed}
	for _, m := range health.AllMetrics {
		if err, ok := e.Errs[m]; ok {
			errs = append(errs, fmt.Errorf("%s: %w", m, err))
		}
	}
	return errors.Join(errs...)
}

// Fetcher reads one metric's daily sums. *health.Aggregator implements it.
type Fetcher interface {
	FetchDailySums(ctx context.Context, metric health.MetricKind, w health.Window) ([]health.SampleBucket, error)
}

// Composer runs the four metric fetches of a window concurrently.
type Composer struct {
	fetcher Fetcher
	clock   clock.Clock
	goals   config.Goals
}

// New creates a composer.
func New(fetcher Fetcher, clk clock.Clock, goals config.Goals) *Composer {
	if clk == nil {
		clk = clock.System{}
	}
	return &Composer{fetcher: fetcher, clock: clk, goals: goals}
}

// Clock returns the composer's time source.
func (c *Composer) Clock() clock.Clock {
	return c.clock
}

// ComposePeriod fetches every metric over w. A failed metric is reported as
// an empty series and listed in Failed. When all metrics fail the result is
// discarded and a *CompositionError is returned.
func (c *Composer) ComposePeriod(ctx context.Context, w health.Window) (models.PeriodStats, error) {
	type outcome struct {
		series []health.SampleBucket
		err    error
	}
	outcomes := make([]outcome, len(health.AllMetrics))

	var g errgroup.Group
	for i, m := range health.AllMetrics {
		g.Go(func() error {
			series, err := c.fetcher.FetchDailySums(ctx, m, w)
			outcomes[i] = outcome{series: series, err: err}
			return nil
		})
	}
	_ = g.Wait()

	perMetric := make(map[health.MetricKind][]health.SampleBucket, len(health.AllMetrics))
	failed := make(map[health.MetricKind]error)
	for i, m := range health.AllMetrics {
		if err := outcomes[i].err; err != nil {
			failed[m] = err
			continue
		}
		perMetric[m] = outcomes[i].series
	}

	if len(failed) == len(health.AllMetrics) {
		return models.PeriodStats{}, &CompositionError{Window: w, Errs: failed}
	}

	for m, err := range failed {
		logger.Warn("metric fetch failed, showing empty series", "metric", m.String(), "error", err)
	}

	stats := models.NewPeriodStats(w, perMetric)
	stats.Failed = failed
	return stats, nil
}

// ComposeFor composes the window of period ending now.
func (c *Composer) ComposeFor(ctx context.Context, period models.Period) (models.PeriodStats, error) {
	return c.ComposePeriod(ctx, period.Window(c.clock.Now()))
}

// BuildTodaySnapshot composes today's window into the in-app snapshot.
func (c *Composer) BuildTodaySnapshot(ctx context.Context) (models.TodaySnapshot, error) {
	now := c.clock.Now()

	stats, err := c.ComposePeriod(ctx, health.TodayWindow(now))
	if err != nil {
		return models.TodaySnapshot{}, err
	}

	return models.TodaySnapshot{
		AsOf:            now,
		Steps:           stats.First(health.StepCount),
		Distance:        stats.First(health.Distance),
		Calories:        stats.First(health.ActiveEnergy),
		DurationMinutes: stats.First(health.ExerciseDuration),
		StepsGoal:       c.goals.InApp,
	}, nil
}
