package health

import "time"

// Interval is a bucketing interval expressed in calendar days.
type Interval struct {
	Days int
}

// DailyInterval buckets by one calendar day.
var DailyInterval = Interval{Days: 1}

// Window is a half-open time range [Start, End) bucketed daily.
type Window struct {
	Start time.Time
	End   time.Time
}

// Bounds is one bucket's half-open range inside a window.
type Bounds struct {
	Start time.Time
	End   time.Time
}

// SampleBucket is the cumulative sum of one metric for one daily bucket.
type SampleBucket struct {
	Date  time.Time
	Value float64
}

// Day returns the bucket's local calendar day as YYYY-MM-DD.
func (b SampleBucket) Day() string {
	return b.Date.Format("2006-01-02")
}

// StartOfDay returns local midnight for t in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// TodayWindow runs from local midnight to now.
func TodayWindow(now time.Time) Window {
	return Window{Start: StartOfDay(now), End: now}
}

// WeeklyWindow is the trailing seven days ending now.
func WeeklyWindow(now time.Time) Window {
	return Window{Start: now.AddDate(0, 0, -7), End: now}
}

// MonthlyWindow is the trailing thirty days ending now.
func MonthlyWindow(now time.Time) Window {
	return Window{Start: now.AddDate(0, 0, -30), End: now}
}

// Empty reports whether the window contains no instants.
func (w Window) Empty() bool {
	return !w.End.After(w.Start)
}

// Contains reports whether t lies in [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Buckets splits the window into intervals anchored at Start. The last
// bucket is clipped to End.
func (w Window) Buckets(interval Interval) []Bounds {
	if w.Empty() {
		return nil
	}
	days := interval.Days
	if days <= 0 {
		days = 1
	}

	var out []Bounds
	for start := w.Start; start.Before(w.End); {
		end := start.AddDate(0, 0, days)
		if end.After(w.End) {
			end = w.End
		}
		out = append(out, Bounds{Start: start, End: end})
		start = start.AddDate(0, 0, days)
	}
	return out
}

// BucketCount returns the number of daily buckets in the window.
func (w Window) BucketCount() int {
	return len(w.Buckets(DailyInterval))
}
