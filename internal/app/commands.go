package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/steps-dashboard-tui/internal/models"
	"github.com/j-veylop/steps-dashboard-tui/internal/services"
)

const (
	// DefaultTickInterval is the default interval between ticks.
	DefaultTickInterval = 2 * time.Second

	// DefaultNotificationDuration is the default duration for notifications.
	DefaultNotificationDuration = 5 * time.Second

	// QuickNotificationDuration is for brief notifications.
	QuickNotificationDuration = 3 * time.Second

	// LongNotificationDuration is for important notifications.
	LongNotificationDuration = 10 * time.Second

	// totalsTimeout bounds one period composition.
	totalsTimeout = 30 * time.Second
)

// Services is the part of the service manager the TUI drives.
type Services interface {
	Subscribe() (chan services.ServiceEvent, tea.Cmd)
	RefreshNow() (models.TodaySnapshot, error)
	Reauthorize() error
	Snapshot() (models.TodaySnapshot, bool)
	ComposePeriod(ctx context.Context, period models.Period) (models.PeriodStats, error)
}

// tickCmd returns a command that sends a TickMsg after the specified interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

func defaultTickCmd() tea.Cmd {
	return tickCmd(DefaultTickInterval)
}

// loadInitialData shows the last snapshot, if any, and composes the totals
// for period.
func loadInitialData(svc Services, period models.Period) tea.Cmd {
	return tea.Batch(
		loadSnapshotCmd(svc),
		loadTotalsCmd(svc, period),
	)
}

// loadSnapshotCmd emits the scheduler's current snapshot without fetching.
func loadSnapshotCmd(svc Services) tea.Cmd {
	return func() tea.Msg {
		snap, ok := svc.Snapshot()
		if !ok {
			return nil
		}
		return SnapshotUpdatedMsg{Snapshot: snap}
	}
}

// refreshNowCmd fetches today's snapshot on demand.
func refreshNowCmd(svc Services) tea.Cmd {
	return func() tea.Msg {
		snap, err := svc.RefreshNow()
		return SnapshotRefreshedMsg{Snapshot: snap, Error: err}
	}
}

// loadTotalsCmd composes statistics for period.
func loadTotalsCmd(svc Services, period models.Period) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), totalsTimeout)
		defer cancel()

		stats, err := svc.ComposePeriod(ctx, period)
		return TotalsLoadedMsg{Period: period, Stats: stats, Error: err}
	}
}

// reauthorizeCmd asks for read access again.
func reauthorizeCmd(svc Services) tea.Cmd {
	return func() tea.Msg {
		return ReauthorizeResultMsg{Error: svc.Reauthorize()}
	}
}

// subscribeToServicesCmd returns a command that subscribes to service events.
func subscribeToServicesCmd(svc Services) tea.Cmd {
	ch, _ := svc.Subscribe()
	return func() tea.Msg {
		return SubscriptionEventMsg{Channel: ch}
	}
}

// waitForServiceEventCmd returns a command that waits for the next service event.
func waitForServiceEventCmd(ch <-chan services.ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ServiceEventMsg{Event: event}
	}
}

// clearNotificationCmd returns a command that removes a notification after a delay.
func clearNotificationCmd(id string, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(_ time.Time) tea.Msg {
		return RemoveNotificationMsg{ID: id}
	})
}

func notifySuccessCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationSuccess,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

func notifyErrorCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationError,
			Message:  message,
			Duration: LongNotificationDuration,
		}
	}
}

func notifyWarningCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationWarning,
			Message:  message,
			Duration: DefaultNotificationDuration,
		}
	}
}

func notifyInfoCmd(message string) tea.Cmd {
	return func() tea.Msg {
		return AddNotificationMsg{
			Type:     NotificationInfo,
			Message:  message,
			Duration: QuickNotificationDuration,
		}
	}
}

// Commands exposes message constructors to the tabs, which do not hold the
// service manager.
type Commands struct{}

// NewCommands creates a new Commands instance.
func NewCommands() *Commands {
	return &Commands{}
}

// Refresh requests an immediate snapshot fetch.
func (c *Commands) Refresh() tea.Cmd {
	return func() tea.Msg { return RefreshMsg{Resource: "snapshot"} }
}

// LoadTotals requests statistics for period.
func (c *Commands) LoadTotals(period models.Period) tea.Cmd {
	return func() tea.Msg { return LoadTotalsMsg{Period: period} }
}

// Reauthorize requests read access again.
func (c *Commands) Reauthorize() tea.Cmd {
	return func() tea.Msg { return ReauthorizeMsg{} }
}

// NotifyWarning returns a command that adds a warning notification.
func (c *Commands) NotifyWarning(message string) tea.Cmd {
	return notifyWarningCmd(message)
}

// NotifyInfo returns a command that adds an info notification.
func (c *Commands) NotifyInfo(message string) tea.Cmd {
	return notifyInfoCmd(message)
}
