package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/j-veylop/steps-dashboard-tui/internal/db"
	"github.com/j-veylop/steps-dashboard-tui/internal/health"
)

// ErrUnsupportedFormat is returned for files that are neither JSON nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported import format")

// ExportFile is the on-disk schema shared by JSON and YAML exports.
type ExportFile struct {
	Metrics []ExportMetric `json:"metrics" yaml:"metrics"`
}

// ExportMetric is one metric's data points.
type ExportMetric struct {
	Name  string        `json:"name" yaml:"name"`
	Units string        `json:"units,omitempty" yaml:"units,omitempty"`
	Data  []ExportPoint `json:"data" yaml:"data"`
}

// ExportPoint is a single sample.
type ExportPoint struct {
	Start  string  `json:"start" yaml:"start"`
	End    string  `json:"end,omitempty" yaml:"end,omitempty"`
	Qty    float64 `json:"qty" yaml:"qty"`
	Unit   string  `json:"unit,omitempty" yaml:"unit,omitempty"`
	Source string  `json:"source,omitempty" yaml:"source,omitempty"`
}

// Batch is the result of parsing one export.
type Batch struct {
	Samples []db.Sample
	// Skipped lists metric names that are not tracked.
	Skipped []string
}

// timeLayouts are the timestamp formats seen in health exports.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Supported reports whether path has an importable extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// Parse decodes an export, picking the decoder by the file extension.
func Parse(path string, data []byte) (*Batch, error) {
	var file ExportFile

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}

	return file.toBatch()
}

func (f *ExportFile) toBatch() (*Batch, error) {
	batch := &Batch{}

	for _, metric := range f.Metrics {
		kind, err := health.ParseMetricKind(metric.Name)
		if err != nil {
			batch.Skipped = append(batch.Skipped, metric.Name)
			continue
		}

		for i, point := range metric.Data {
			sample, err := point.toSample(kind, metric.Units)
			if err != nil {
				return nil, fmt.Errorf("%s point %d: %w", metric.Name, i, err)
			}
			batch.Samples = append(batch.Samples, sample)
		}
	}

	return batch, nil
}

func (p ExportPoint) toSample(kind health.MetricKind, defaultUnit string) (db.Sample, error) {
	start, err := parseTime(p.Start)
	if err != nil {
		return db.Sample{}, fmt.Errorf("start: %w", err)
	}

	end := start
	if p.End != "" {
		if end, err = parseTime(p.End); err != nil {
			return db.Sample{}, fmt.Errorf("end: %w", err)
		}
	}
	if end.Before(start) {
		return db.Sample{}, fmt.Errorf("end %s before start %s", p.End, p.Start)
	}

	if p.Qty < 0 {
		return db.Sample{}, fmt.Errorf("negative quantity %v", p.Qty)
	}

	unit := kind.Unit()
	if name := firstNonEmpty(p.Unit, defaultUnit); name != "" {
		if unit, err = health.ParseUnit(name); err != nil {
			return db.Sample{}, err
		}
		if !health.Compatible(kind, unit) {
			return db.Sample{}, fmt.Errorf("%w: %s is not a %s unit", health.ErrUnitMismatch, unit, kind.Label())
		}
	}

	sample := db.Sample{
		Kind:   kind,
		Start:  start,
		End:    end,
		Value:  p.Qty,
		Unit:   unit,
		Source: p.Source,
	}
	sample.ID = db.SampleID(sample)
	return sample, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
