// Package health defines the metric model, the health data provider contract and
// the sample aggregator that turns provider buckets into daily sums.
package health

import (
	"fmt"
	"strings"
)

// MetricKind identifies one of the tracked activity metrics.
type MetricKind int

const (
	// StepCount is the number of steps, measured as a count.
	StepCount MetricKind = iota
	// Distance is walking and running distance in meters.
	Distance
	// ActiveEnergy is active energy burned in kilocalories.
	ActiveEnergy
	// ExerciseDuration is exercise time in minutes.
	ExerciseDuration
)

// AllMetrics lists every metric in canonical order.
var AllMetrics = []MetricKind{StepCount, Distance, ActiveEnergy, ExerciseDuration}

// String returns the stable identifier used in storage and import files.
func (m MetricKind) String() string {
	switch m {
	case StepCount:
		return "step_count"
	case Distance:
		return "distance_walking_running"
	case ActiveEnergy:
		return "active_energy"
	case ExerciseDuration:
		return "apple_exercise_time"
	default:
		return "unknown"
	}
}

// Label returns a short human label.
func (m MetricKind) Label() string {
	switch m {
	case StepCount:
		return "Steps"
	case Distance:
		return "Distance"
	case ActiveEnergy:
		return "Calories"
	case ExerciseDuration:
		return "Exercise"
	default:
		return "Unknown"
	}
}

// Unit returns the canonical unit the aggregator reports values in.
func (m MetricKind) Unit() Unit {
	switch m {
	case StepCount:
		return UnitCount
	case Distance:
		return UnitMeter
	case ActiveEnergy:
		return UnitKilocalorie
	case ExerciseDuration:
		return UnitMinute
	default:
		return ""
	}
}

// Valid reports whether m is one of the known metrics.
func (m MetricKind) Valid() bool {
	return m >= StepCount && m <= ExerciseDuration
}

// metricAliases maps accepted spellings to metrics.
var metricAliases = map[string]MetricKind{
	"step_count":               StepCount,
	"steps":                    StepCount,
	"stepcount":                StepCount,
	"distance_walking_running": Distance,
	"walking_running_distance": Distance,
	"distance":                 Distance,
	"active_energy":            ActiveEnergy,
	"active_energy_burned":     ActiveEnergy,
	"calories":                 ActiveEnergy,
	"energy":                   ActiveEnergy,
	"apple_exercise_time":      ExerciseDuration,
	"exercise_time":            ExerciseDuration,
	"exercise":                 ExerciseDuration,
	"duration":                 ExerciseDuration,
}

// ParseMetricKind resolves a metric name, accepting common aliases.
func ParseMetricKind(name string) (MetricKind, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "-", "_")
	if m, ok := metricAliases[key]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("unknown metric %q", name)
}
