package db

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/steps-dashboard-tui/internal/health"
)

// sampleNamespace scopes deterministic sample ids.
var sampleNamespace = uuid.MustParse("6f1c0a52-3d7e-4b8e-9a43-5c1d2e7f9b10")

// Sample is one recorded activity quantity.
type Sample struct {
	ID     uuid.UUID
	Kind   health.MetricKind
	Start  time.Time
	End    time.Time
	Value  float64
	Unit   health.Unit
	Source string
}

// SampleID derives a stable id from the sample's content so re-importing the
// same export does not duplicate data.
func SampleID(s Sample) uuid.UUID {
	key := fmt.Sprintf("%s|%d|%d|%s|%s|%s",
		s.Kind, s.Start.UnixMilli(), s.End.UnixMilli(),
		strconv.FormatFloat(s.Value, 'g', -1, 64), s.Unit, s.Source)
	return uuid.NewSHA1(sampleNamespace, []byte(key))
}

// InsertSamples stores samples, skipping ones already present. It returns the
// number of new rows.
func (db *DB) InsertSamples(ctx context.Context, samples []Sample) (int, error) {
	if len(samples) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO samples (id, kind, start_ms, end_ms, value, unit, source)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for i := range samples {
		s := &samples[i]
		if !s.Kind.Valid() {
			return 0, fmt.Errorf("sample %d: invalid metric", i)
		}
		if s.ID == uuid.Nil {
			s.ID = SampleID(*s)
		}
		res, err := stmt.ExecContext(ctx, s.ID.String(), s.Kind.String(),
			s.Start.UnixMilli(), s.End.UnixMilli(), s.Value, string(s.Unit), s.Source)
		if err != nil {
			return 0, fmt.Errorf("failed to insert sample %s: %w", s.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit samples: %w", err)
	}
	return inserted, nil
}

// QueryCumulativeSum implements health.Provider. Samples are assigned to the
// bucket containing their start time; per-unit sums are reported unconverted.
func (db *DB) QueryCumulativeSum(ctx context.Context, kind health.MetricKind, start, end time.Time, interval health.Interval) ([]health.RawBucket, error) {
	authorized, err := db.isAuthorized(ctx, kind)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return nil, fmt.Errorf("%w: %s", health.ErrNotAuthorized, kind)
	}

	bounds := health.Window{Start: start, End: end}.Buckets(interval)
	if len(bounds) == 0 {
		return []health.RawBucket{}, nil
	}

	rows, err := db.QueryContext(ctx, `
		SELECT start_ms, value, unit
		FROM samples
		WHERE kind = ? AND start_ms >= ? AND start_ms < ?
		ORDER BY start_ms`,
		kind.String(), start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sums := make([]map[health.Unit]float64, len(bounds))
	idx := 0
	for rows.Next() {
		var (
			startMS int64
			value   float64
			unit    string
		)
		if err := rows.Scan(&startMS, &value, &unit); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}

		at := time.UnixMilli(startMS)
		for idx < len(bounds) && !at.Before(bounds[idx].End) {
			idx++
		}
		if idx == len(bounds) {
			break
		}
		if sums[idx] == nil {
			sums[idx] = make(map[health.Unit]float64)
		}
		sums[idx][health.Unit(unit)] += value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read samples: %w", err)
	}

	out := make([]health.RawBucket, len(bounds))
	for i, b := range bounds {
		out[i] = health.RawBucket{Start: b.Start, End: b.End, Sums: quantities(sums[i])}
	}
	return out, nil
}

func quantities(byUnit map[health.Unit]float64) []health.Quantity {
	if len(byUnit) == 0 {
		return nil
	}
	out := make([]health.Quantity, 0, len(byUnit))
	for u, v := range byUnit {
		out = append(out, health.Quantity{Value: v, Unit: u})
	}
	slices.SortFunc(out, func(a, b health.Quantity) int {
		switch {
		case a.Unit < b.Unit:
			return -1
		case a.Unit > b.Unit:
			return 1
		}
		return 0
	})
	return out
}

// SampleSummary describes what the store holds.
type SampleSummary struct {
	Total    int64
	PerKind  map[health.MetricKind]int64
	Earliest time.Time
	Latest   time.Time
}

// Summary returns sample counts and the covered time range.
func (db *DB) Summary(ctx context.Context) (*SampleSummary, error) {
	summary := &SampleSummary{PerKind: make(map[health.MetricKind]int64)}

	rows, err := db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM samples GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to count samples: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			name  string
			count int64
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("failed to scan sample count: %w", err)
		}
		summary.Total += count
		if kind, err := health.ParseMetricKind(name); err == nil {
			summary.PerKind[kind] = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sample counts: %w", err)
	}

	if summary.Total == 0 {
		return summary, nil
	}

	var earliest, latest int64
	err = db.QueryRowContext(ctx, `SELECT MIN(start_ms), MAX(start_ms) FROM samples`).Scan(&earliest, &latest)
	if err != nil {
		return nil, fmt.Errorf("failed to query sample range: %w", err)
	}
	summary.Earliest = time.UnixMilli(earliest)
	summary.Latest = time.UnixMilli(latest)

	return summary, nil
}
