package health

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// Aggregator turns provider cumulative-sum buckets into daily sums in the
// metric's canonical unit.
type Aggregator struct {
	provider Provider
}

// NewAggregator creates an aggregator over provider.
func NewAggregator(provider Provider) *Aggregator {
	return &Aggregator{provider: provider}
}

// FetchDailySums returns the metric's daily buckets inside w, ordered by date.
// Days without samples are absent.
func (a *Aggregator) FetchDailySums(ctx context.Context, metric MetricKind, w Window) ([]SampleBucket, error) {
	if a.provider == nil || !a.provider.IsAvailable() {
		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, metric)
	}
	if !metric.Valid() {
		return nil, fmt.Errorf("%w: invalid metric %d", ErrQueryFailed, int(metric))
	}
	if w.Empty() {
		return []SampleBucket{}, nil
	}

	raw, err := a.provider.QueryCumulativeSum(ctx, metric, w.Start, w.End, DailyInterval)
	if err != nil {
		return nil, classify(metric, err)
	}

	buckets := make([]SampleBucket, 0, len(raw))
	for _, rb := range raw {
		if len(rb.Sums) == 0 || !w.Contains(rb.Start) {
			continue
		}

		total := 0.0
		for _, q := range rb.Sums {
			v, err := Convert(metric, q.Value, q.Unit)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrQueryFailed, metric, err)
			}
			total += v
		}
		buckets = append(buckets, SampleBucket{Date: rb.Start, Value: max(total, 0)})
	}

	slices.SortFunc(buckets, func(x, y SampleBucket) int {
		return x.Date.Compare(y.Date)
	})
	return buckets, nil
}

func classify(metric MetricKind, err error) error {
	switch {
	case errors.Is(err, ErrProviderUnavailable),
		errors.Is(err, ErrNotAuthorized),
		errors.Is(err, ErrAuthorizationDenied):
		return fmt.Errorf("%w: %s: %w", ErrProviderUnavailable, metric, err)
	default:
		return fmt.Errorf("%w: %s: %w", ErrQueryFailed, metric, err)
	}
}
