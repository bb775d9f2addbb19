package app

import (
	"sync"
	"time"

	"github.com/j-veylop/steps-dashboard-tui/internal/models"
)

// NotificationType defines the type of notification.
type NotificationType int

const (
	// NotificationSuccess represents a success notification.
	NotificationSuccess NotificationType = iota
	// NotificationError represents an error notification.
	NotificationError
	// NotificationWarning represents a warning notification.
	NotificationWarning
	// NotificationInfo represents an informational notification.
	NotificationInfo
	// NotificationLoading represents a loading notification with spinner.
	NotificationLoading
)

const (
	// LoadingNotificationID is the fixed ID for loading notifications.
	LoadingNotificationID = "__loading__"

	maxNotifications = 10
)

// String returns the string representation of a NotificationType.
func (n NotificationType) String() string {
	switch n {
	case NotificationSuccess:
		return "success"
	case NotificationError:
		return "error"
	case NotificationWarning:
		return "warning"
	case NotificationInfo:
		return "info"
	case NotificationLoading:
		return "loading"
	default:
		return "unknown"
	}
}

// Notification represents a user-facing notification message.
type Notification struct {
	ID        string
	Type      NotificationType
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the notification has expired.
func (n *Notification) IsExpired() bool {
	if n.Duration <= 0 {
		return false
	}
	return time.Since(n.CreatedAt) > n.Duration
}

// LoadingState tracks loading states for different resources.
type LoadingState struct {
	Initial  bool
	Snapshot bool
	Totals   bool
}

// State is shared by the root model and the tabs. Displayed values are only
// replaced by successful fetches; failures are recorded next to them.
type State struct {
	mu sync.RWMutex

	snapshot    *models.TodaySnapshot
	snapshotErr error
	denied      bool

	period    models.Period
	totals    map[models.Period]models.PeriodStats
	totalsErr map[models.Period]error

	Loading     LoadingState
	LastUpdated time.Time

	notifications   []Notification
	notificationSeq int
}

// NewState creates an empty state showing the weekly totals.
func NewState() *State {
	return &State{
		period:        models.PeriodWeek,
		totals:        make(map[models.Period]models.PeriodStats),
		totalsErr:     make(map[models.Period]error),
		notifications: make([]Notification, 0),
		Loading: LoadingState{
			Initial: true,
		},
	}
}

// SetLoading sets the loading state for a specific resource.
func (s *State) SetLoading(resource string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch resource {
	case "initial":
		s.Loading.Initial = loading
	case "snapshot":
		s.Loading.Snapshot = loading
	case "totals":
		s.Loading.Totals = loading
	}
}

// AnyLoading returns true if any resource is currently loading.
func (s *State) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.Loading.Initial || s.Loading.Snapshot || s.Loading.Totals
}

// IsInitialLoading returns true if initial data is still loading.
func (s *State) IsInitialLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Loading.Initial
}

// SetSnapshot stores a successfully fetched snapshot and clears the last
// refresh error.
func (s *State) SetSnapshot(snap models.TodaySnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = &snap
	s.snapshotErr = nil
	s.denied = false
	s.Loading.Initial = false
	s.LastUpdated = snap.AsOf
}

// SetSnapshotError records a failed refresh. The previous snapshot is kept.
func (s *State) SetSnapshotError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshotErr = err
	s.Loading.Initial = false
}

// SetDenied records an authorization refusal.
func (s *State) SetDenied(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.denied = true
	s.snapshotErr = err
	s.Loading.Initial = false
}

// Snapshot returns the last good snapshot.
func (s *State) Snapshot() (models.TodaySnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snapshot == nil {
		return models.TodaySnapshot{}, false
	}
	return *s.snapshot, true
}

// SnapshotError returns the error of the latest refresh, nil after a success.
func (s *State) SnapshotError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotErr
}

// Denied reports whether read access was refused.
func (s *State) Denied() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.denied
}

// Period returns the period shown by the totals tab.
func (s *State) Period() models.Period {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.period
}

// TogglePeriod switches between the weekly and monthly totals and returns
// the new period.
func (s *State) TogglePeriod() models.Period {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.period = s.period.Next()
	return s.period
}

// SetTotals stores statistics for period.
func (s *State) SetTotals(period models.Period, stats models.PeriodStats) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totals[period] = stats
	delete(s.totalsErr, period)
}

// SetTotalsError records a failed composition. Previous statistics are kept.
func (s *State) SetTotalsError(period models.Period, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalsErr[period] = err
}

// Totals returns the last statistics loaded for period.
func (s *State) Totals(period models.Period) (models.PeriodStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats, ok := s.totals[period]
	return stats, ok
}

// TotalsError returns the last composition error for period.
func (s *State) TotalsError(period models.Period) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalsErr[period]
}

// AddNotification adds a new notification and returns its ID.
func (s *State) AddNotification(notifType NotificationType, message string, duration time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notificationSeq++
	id := time.Now().Format("20060102150405") + "-" + string(rune('A'+s.notificationSeq%26))

	s.notifications = append(s.notifications, Notification{
		ID:        id,
		Type:      notifType,
		Message:   message,
		CreatedAt: time.Now(),
		Duration:  duration,
	})

	if len(s.notifications) > maxNotifications {
		s.notifications = s.notifications[len(s.notifications)-maxNotifications:]
	}

	return id
}

// RemoveNotification removes a notification by ID.
func (s *State) RemoveNotification(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// ClearExpiredNotifications removes all expired notifications.
func (s *State) ClearExpiredNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	s.notifications = active
}

// GetNotifications returns a copy of all active notifications.
func (s *State) GetNotifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make([]Notification, 0, len(s.notifications))
	for _, n := range s.notifications {
		if !n.IsExpired() {
			active = append(active, n)
		}
	}
	return active
}

// ClearAllNotifications removes all notifications.
func (s *State) ClearAllNotifications() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = make([]Notification, 0)
}

// SetLoadingNotification sets a loading notification message.
func (s *State) SetLoadingNotification(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications[i].Message = message
			return
		}
	}

	s.notifications = append(s.notifications, Notification{
		ID:        LoadingNotificationID,
		Type:      NotificationLoading,
		Message:   message,
		CreatedAt: time.Now(),
	})
}

// ClearLoadingNotification removes the loading notification.
func (s *State) ClearLoadingNotification() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID == LoadingNotificationID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return
		}
	}
}

// GetLastUpdated returns when the displayed snapshot was taken.
func (s *State) GetLastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastUpdated
}
