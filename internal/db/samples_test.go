package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/j-veylop/steps-dashboard-tui/internal/health"
)

func testNow() time.Time {
	return time.Date(2026, 10, 19, 14, 30, 0, 0, time.Local)
}

func stepSample(at time.Time, steps float64) Sample {
	return Sample{
		Kind:   health.StepCount,
		Start:  at,
		End:    at.Add(10 * time.Minute),
		Value:  steps,
		Unit:   health.UnitCount,
		Source: "test",
	}
}

func TestInsertSamples_DeduplicatesByContent(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	samples := []Sample{
		stepSample(testNow().Add(-time.Hour), 1200),
		stepSample(testNow().Add(-2*time.Hour), 800),
	}

	n, err := db.InsertSamples(ctx, samples)
	if err != nil {
		t.Fatalf("InsertSamples failed: %v", err)
	}
	if n != 2 {
		t.Errorf("inserted = %d, want 2", n)
	}

	again := []Sample{
		stepSample(testNow().Add(-time.Hour), 1200),
		stepSample(testNow().Add(-3*time.Hour), 50),
	}
	n, err = db.InsertSamples(ctx, again)
	if err != nil {
		t.Fatalf("second InsertSamples failed: %v", err)
	}
	if n != 1 {
		t.Errorf("re-insert counted %d new rows, want 1", n)
	}
}

func TestInsertSamples_RejectsInvalidMetric(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	bad := stepSample(testNow(), 1)
	bad.Kind = health.MetricKind(99)
	if _, err := db.InsertSamples(context.Background(), []Sample{bad}); err == nil {
		t.Error("expected error for invalid metric")
	}
}

func TestSampleID_Stable(t *testing.T) {
	s := stepSample(testNow(), 10)
	if SampleID(s) != SampleID(s) {
		t.Error("SampleID should be deterministic")
	}
	other := s
	other.Value = 11
	if SampleID(s) == SampleID(other) {
		t.Error("different samples should have different ids")
	}
}

func TestQueryCumulativeSum_RequiresGrant(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	w := health.WeeklyWindow(testNow())
	_, err := db.QueryCumulativeSum(context.Background(), health.StepCount, w.Start, w.End, health.DailyInterval)
	if !errors.Is(err, health.ErrNotAuthorized) {
		t.Errorf("err = %v, want ErrNotAuthorized", err)
	}
}

func TestQueryCumulativeSum_BucketsAnchoredAtStart(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	if err := db.SetAuthorization(ctx, health.StepCount, AuthGranted); err != nil {
		t.Fatalf("SetAuthorization failed: %v", err)
	}

	w := health.WeeklyWindow(testNow())
	samples := []Sample{
		stepSample(w.Start, 100),
		stepSample(w.Start.Add(23*time.Hour), 200),
		stepSample(w.Start.AddDate(0, 0, 1), 300),
		stepSample(w.Start.Add(-time.Minute), 9999),
		stepSample(w.End, 9999),
	}
	if _, err := db.InsertSamples(ctx, samples); err != nil {
		t.Fatalf("InsertSamples failed: %v", err)
	}

	got, err := db.QueryCumulativeSum(ctx, health.StepCount, w.Start, w.End, health.DailyInterval)
	if err != nil {
		t.Fatalf("QueryCumulativeSum failed: %v", err)
	}
	if len(got) != 7 {
		t.Fatalf("got %d buckets, want 7", len(got))
	}
	if !got[0].Start.Equal(w.Start) {
		t.Errorf("first bucket start = %v, want %v", got[0].Start, w.Start)
	}
	if len(got[0].Sums) != 1 || got[0].Sums[0].Value != 300 {
		t.Errorf("bucket 0 = %+v, want 300 steps", got[0].Sums)
	}
	if len(got[1].Sums) != 1 || got[1].Sums[0].Value != 300 {
		t.Errorf("bucket 1 = %+v, want 300 steps", got[1].Sums)
	}
	for i := 2; i < len(got); i++ {
		if len(got[i].Sums) != 0 {
			t.Errorf("bucket %d should be empty, got %+v", i, got[i].Sums)
		}
	}
}

func TestQueryCumulativeSum_KeepsUnitsSeparate(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	_ = db.SetAuthorization(ctx, health.Distance, AuthGranted)
	w := health.TodayWindow(testNow())
	start := w.Start.Add(time.Hour)
	samples := []Sample{
		{Kind: health.Distance, Start: start, End: start.Add(time.Minute), Value: 1.2, Unit: health.UnitKilometer},
		{Kind: health.Distance, Start: start.Add(time.Hour), End: start.Add(61 * time.Minute), Value: 300, Unit: health.UnitMeter},
	}
	if _, err := db.InsertSamples(ctx, samples); err != nil {
		t.Fatalf("InsertSamples failed: %v", err)
	}

	got, err := db.QueryCumulativeSum(ctx, health.Distance, w.Start, w.End, health.DailyInterval)
	if err != nil {
		t.Fatalf("QueryCumulativeSum failed: %v", err)
	}
	if len(got) != 1 || len(got[0].Sums) != 2 {
		t.Fatalf("got %+v, want one bucket with two unit sums", got)
	}

	// The aggregator converts the mixed units.
	sums, err := health.NewAggregator(db).FetchDailySums(ctx, health.Distance, w)
	if err != nil {
		t.Fatalf("FetchDailySums failed: %v", err)
	}
	if len(sums) != 1 || sums[0].Value < 1499.99 || sums[0].Value > 1500.01 {
		t.Errorf("daily distance = %+v, want 1500 m", sums)
	}
}

func TestSummary(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	empty, err := db.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if empty.Total != 0 {
		t.Errorf("empty total = %d", empty.Total)
	}

	early := testNow().AddDate(0, 0, -3)
	_, _ = db.InsertSamples(ctx, []Sample{stepSample(early, 10), stepSample(testNow(), 20)})

	summary, err := db.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.Total != 2 || summary.PerKind[health.StepCount] != 2 {
		t.Errorf("summary = %+v, want 2 step samples", summary)
	}
	if !summary.Earliest.Equal(early.Truncate(time.Millisecond)) {
		t.Errorf("earliest = %v, want %v", summary.Earliest, early)
	}
}
