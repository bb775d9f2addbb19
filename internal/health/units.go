package health

import (
	"fmt"
	"strings"
)

// Unit is a unit of measure as reported by the provider.
type Unit string

// Canonical and accepted units.
const (
	UnitCount       Unit = "count"
	UnitMeter       Unit = "m"
	UnitKilometer   Unit = "km"
	UnitMile        Unit = "mi"
	UnitFoot        Unit = "ft"
	UnitYard        Unit = "yd"
	UnitKilocalorie Unit = "kcal"
	UnitCalorie     Unit = "cal"
	UnitKilojoule   Unit = "kJ"
	UnitJoule       Unit = "J"
	UnitMinute      Unit = "min"
	UnitSecond      Unit = "s"
	UnitHour        Unit = "h"
	UnitMillisecond Unit = "ms"
)

type unitFactor struct {
	metric MetricKind
	factor float64 // multiply to reach the metric's canonical unit
}

var unitTable = map[Unit]unitFactor{
	UnitCount:       {StepCount, 1},
	UnitMeter:       {Distance, 1},
	UnitKilometer:   {Distance, 1000},
	UnitMile:        {Distance, 1609.344},
	UnitFoot:        {Distance, 0.3048},
	UnitYard:        {Distance, 0.9144},
	UnitKilocalorie: {ActiveEnergy, 1},
	UnitCalorie:     {ActiveEnergy, 0.001},
	UnitKilojoule:   {ActiveEnergy, 1 / 4.184},
	UnitJoule:       {ActiveEnergy, 1 / 4184.0},
	UnitMinute:      {ExerciseDuration, 1},
	UnitSecond:      {ExerciseDuration, 1.0 / 60},
	UnitHour:        {ExerciseDuration, 60},
	UnitMillisecond: {ExerciseDuration, 1.0 / 60000},
}

var unitAliases = map[string]Unit{
	"count": UnitCount, "steps": UnitCount, "step": UnitCount,
	"m": UnitMeter, "meter": UnitMeter, "meters": UnitMeter,
	"km": UnitKilometer, "kilometer": UnitKilometer, "kilometers": UnitKilometer,
	"mi": UnitMile, "mile": UnitMile, "miles": UnitMile,
	"ft": UnitFoot, "feet": UnitFoot,
	"yd": UnitYard, "yard": UnitYard, "yards": UnitYard,
	"kcal": UnitKilocalorie, "large calorie": UnitKilocalorie,
	"cal": UnitCalorie, "small calorie": UnitCalorie,
	"kj": UnitKilojoule, "kilojoule": UnitKilojoule, "kilojoules": UnitKilojoule,
	"j": UnitJoule, "joule": UnitJoule, "joules": UnitJoule,
	"min": UnitMinute, "mins": UnitMinute, "minute": UnitMinute, "minutes": UnitMinute,
	"s": UnitSecond, "sec": UnitSecond, "second": UnitSecond, "seconds": UnitSecond,
	"h": UnitHour, "hr": UnitHour, "hour": UnitHour, "hours": UnitHour,
	"ms": UnitMillisecond,
}

// ParseUnit normalizes a unit string. "Cal" (capital C) is the dietary
// calorie and maps to kcal.
func ParseUnit(s string) (Unit, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "Cal" {
		return UnitKilocalorie, nil
	}
	if u, ok := unitAliases[strings.ToLower(trimmed)]; ok {
		return u, nil
	}
	return "", fmt.Errorf("%w: unknown unit %q", ErrUnitMismatch, s)
}

// Convert converts value in unit u to the canonical unit of metric.
func Convert(metric MetricKind, value float64, u Unit) (float64, error) {
	f, ok := unitTable[u]
	if !ok {
		return 0, fmt.Errorf("%w: unknown unit %q", ErrUnitMismatch, u)
	}
	if f.metric != metric {
		return 0, fmt.Errorf("%w: %s cannot measure %s", ErrUnitMismatch, u, metric)
	}
	return value * f.factor, nil
}

// Compatible reports whether u can measure metric.
func Compatible(metric MetricKind, u Unit) bool {
	f, ok := unitTable[u]
	return ok && f.metric == metric
}
