package app

import (
	"time"

	"github.com/j-veylop/steps-dashboard-tui/internal/models"
	"github.com/j-veylop/steps-dashboard-tui/internal/services"
)

// TickMsg is sent periodically to expire notifications.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// SnapshotRefreshedMsg carries the result of a manual refresh.
type SnapshotRefreshedMsg struct {
	Snapshot models.TodaySnapshot
	Error    error
}

// SnapshotUpdatedMsg is forwarded to tabs when the displayed snapshot changes.
type SnapshotUpdatedMsg struct {
	Snapshot models.TodaySnapshot
}

// TotalsLoadedMsg carries composed statistics for a period.
type TotalsLoadedMsg struct {
	Period models.Period
	Stats  models.PeriodStats
	Error  error
}

// LoadTotalsMsg requests statistics for a period.
type LoadTotalsMsg struct {
	Period models.Period
}

// ReauthorizeMsg requests read access again after a denial.
type ReauthorizeMsg struct{}

// ReauthorizeResultMsg carries the outcome of a reauthorization.
type ReauthorizeResultMsg struct {
	Error error
}

// RefreshMsg requests a refresh of data.
type RefreshMsg struct {
	Resource string // "all", "snapshot", "totals"
}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}
