package widget

import (
	"fmt"
	"strings"

	"github.com/j-veylop/steps-dashboard-tui/internal/health"
)

// GapPolicy decides how days without samples count toward the monthly
// average.
type GapPolicy int

const (
	// GapSkip averages over days that have data.
	GapSkip GapPolicy = iota
	// GapZeroFill counts missing days as zero.
	GapZeroFill
)

// ParseGapPolicy accepts "skip" or "zero".
func ParseGapPolicy(s string) (GapPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return GapSkip, nil
	case "zero", "zerofill", "zero-fill":
		return GapZeroFill, nil
	default:
		return GapSkip, fmt.Errorf("unknown gap policy %q", s)
	}
}

func (g GapPolicy) String() string {
	if g == GapZeroFill {
		return "zero"
	}
	return "skip"
}

// Average returns the mean daily value of series over w.
func (g GapPolicy) Average(series []health.SampleBucket, w health.Window) float64 {
	total := 0.0
	for _, b := range series {
		total += b.Value
	}

	divisor := len(series)
	if g == GapZeroFill {
		divisor = w.BucketCount()
	}
	if divisor == 0 {
		return 0
	}
	return total / float64(divisor)
}
