// Package widget produces widget timeline entries and publishes them to the
// desktop widget host.
package widget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/steps-dashboard-tui/internal/clock"
	"github.com/j-veylop/steps-dashboard-tui/internal/config"
	"github.com/j-veylop/steps-dashboard-tui/internal/health"
	"github.com/j-veylop/steps-dashboard-tui/internal/logger"
	"github.com/j-veylop/steps-dashboard-tui/internal/models"
)

// Placeholder values shown when real data cannot be read.
const (
	placeholderSteps    = 10345
	placeholderGoal     = 12000
	placeholderAverage  = 3456
	placeholderDuration = 34
)

// PlaceholderEntry returns the canned entry stamped with now.
func PlaceholderEntry(now time.Time, kind models.WidgetKind) models.WidgetEntry {
	return models.WidgetEntry{
		AsOf:            now,
		Steps:           placeholderSteps,
		Goal:            placeholderGoal,
		MonthlyAverage:  placeholderAverage,
		DurationMinutes: placeholderDuration,
		Style:           kind.Style(),
		Placeholder:     true,
	}
}

// Fetcher reads one metric's daily sums. *health.Aggregator implements it.
type Fetcher interface {
	FetchDailySums(ctx context.Context, metric health.MetricKind, w health.Window) ([]health.SampleBucket, error)
}

// Timeline is one entry plus when the host should ask again.
type Timeline struct {
	Entry       models.WidgetEntry
	NextRefresh time.Time
}

// TimelineProvider builds widget entries straight from the provider on every
// request.
type TimelineProvider struct {
	fetcher Fetcher
	clock   clock.Clock
	goal    int
	cadence config.Cadence
	gap     GapPolicy
}

// NewTimelineProvider creates a timeline provider.
func NewTimelineProvider(fetcher Fetcher, clk clock.Clock, goal int, cadence config.Cadence, gap GapPolicy) *TimelineProvider {
	if clk == nil {
		clk = clock.System{}
	}
	return &TimelineProvider{
		fetcher: fetcher,
		clock:   clk,
		goal:    goal,
		cadence: cadence,
		gap:     gap,
	}
}

// Timeline returns the current entry for kind. It never fails: when data
// cannot be read the placeholder entry is returned.
func (p *TimelineProvider) Timeline(ctx context.Context, kind models.WidgetKind) Timeline {
	now := p.clock.Now()

	entry, err := p.entryAt(ctx, kind, now)
	if err != nil {
		logger.Warn("widget entry unavailable, using placeholder", "kind", string(kind), "error", err)
		entry = PlaceholderEntry(now, kind)
	}

	return Timeline{Entry: entry, NextRefresh: p.NextRefresh(now)}
}

// Entry computes the entry for kind, returning the read error instead of a
// placeholder.
func (p *TimelineProvider) Entry(ctx context.Context, kind models.WidgetKind) (models.WidgetEntry, error) {
	return p.entryAt(ctx, kind, p.clock.Now())
}

// entryAt fetches the three series independently. A failed series counts as
// zero; the entry only falls back to the placeholder when the provider is
// unavailable or every fetch failed.
func (p *TimelineProvider) entryAt(ctx context.Context, kind models.WidgetKind, now time.Time) (models.WidgetEntry, error) {
	if p.fetcher == nil {
		return models.WidgetEntry{}, health.ErrProviderUnavailable
	}

	today := health.TodayWindow(now)
	month := health.MonthlyWindow(now)

	fetches := []struct {
		name   string
		metric health.MetricKind
		window health.Window
		series []health.SampleBucket
		err    error
	}{
		{name: "steps", metric: health.StepCount, window: today},
		{name: "exercise", metric: health.ExerciseDuration, window: today},
		{name: "monthly steps", metric: health.StepCount, window: month},
	}

	var g errgroup.Group
	for i := range fetches {
		g.Go(func() error {
			f := &fetches[i]
			f.series, f.err = p.fetcher.FetchDailySums(ctx, f.metric, f.window)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, f := range fetches {
		if f.err == nil {
			continue
		}
		if errors.Is(f.err, health.ErrProviderUnavailable) {
			return models.WidgetEntry{}, fmt.Errorf("widget %s: %w", kind, f.err)
		}
		errs = append(errs, fmt.Errorf("%s: %w", f.name, f.err))
	}
	if len(errs) == len(fetches) {
		return models.WidgetEntry{}, fmt.Errorf("widget %s: %w", kind, errors.Join(errs...))
	}
	for _, err := range errs {
		logger.Warn("widget series unavailable, counting it as zero", "kind", string(kind), "error", err)
	}

	return models.WidgetEntry{
		AsOf:            now,
		Steps:           int(sum(fetches[0].series)),
		Goal:            p.goal,
		MonthlyAverage:  int(p.gap.Average(fetches[2].series, month)),
		DurationMinutes: int(sum(fetches[1].series)),
		Style:           kind.Style(),
	}, nil
}

// NextRefresh returns when the host should request a new entry: the day
// interval during active hours, the night interval otherwise.
func (p *TimelineProvider) NextRefresh(now time.Time) time.Time {
	if p.activeHour(now.Hour()) {
		return now.Add(p.cadence.DayInterval)
	}
	return now.Add(p.cadence.NightInterval)
}

func (p *TimelineProvider) activeHour(h int) bool {
	start, end := p.cadence.ActiveStartHour, p.cadence.ActiveEndHour
	if start <= end {
		return h >= start && h <= end
	}
	return h >= start || h <= end
}

func sum(series []health.SampleBucket) float64 {
	total := 0.0
	for _, b := range series {
		total += b.Value
	}
	return total
}
