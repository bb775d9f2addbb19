package models

import (
	"time"

	"github.com/j-veylop/steps-dashboard-tui/internal/health"
)

// Period selects one of the rolling windows.
type Period int

const (
	// PeriodToday covers local midnight to now.
	PeriodToday Period = iota
	// PeriodWeek covers the trailing 7 days.
	PeriodWeek
	// PeriodMonth covers the trailing 30 days.
	PeriodMonth
)

// String returns the display name for a period.
func (p Period) String() string {
	switch p {
	case PeriodToday:
		return "TODAY"
	case PeriodWeek:
		return "WEEK"
	case PeriodMonth:
		return "MONTH"
	default:
		return "UNKNOWN"
	}
}

// Window returns the period's window ending at now.
func (p Period) Window(now time.Time) health.Window {
	switch p {
	case PeriodToday:
		return health.TodayWindow(now)
	case PeriodMonth:
		return health.MonthlyWindow(now)
	default:
		return health.WeeklyWindow(now)
	}
}

// Next toggles between WEEK and MONTH.
func (p Period) Next() Period {
	if p == PeriodWeek {
		return PeriodMonth
	}
	return PeriodWeek
}
