package health

import (
	"context"
	"time"
)

// Quantity is a partial sum reported in a provider unit.
type Quantity struct {
	Value float64
	Unit  Unit
}

// RawBucket is one interval of a cumulative-sum query before unit conversion.
// A bucket with no Sums had no samples.
type RawBucket struct {
	Start time.Time
	End   time.Time
	Sums  []Quantity
}

// Provider is the read-only health data source.
type Provider interface {
	// IsAvailable reports whether the source can be queried at all.
	IsAvailable() bool

	// RequestAuthorization asks for read access to kinds. Calling it again is
	// harmless. It returns false (or ErrAuthorizationDenied) when access is
	// refused.
	RequestAuthorization(ctx context.Context, kinds []MetricKind) (bool, error)

	// QueryCumulativeSum returns one bucket per interval in [start, end),
	// anchored at start, counting samples whose start time is in the bucket.
	QueryCumulativeSum(ctx context.Context, kind MetricKind, start, end time.Time, interval Interval) ([]RawBucket, error)
}
