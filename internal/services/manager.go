// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/j-veylop/steps-dashboard-tui/internal/clock"
	"github.com/j-veylop/steps-dashboard-tui/internal/config"
	"github.com/j-veylop/steps-dashboard-tui/internal/db"
	"github.com/j-veylop/steps-dashboard-tui/internal/health"
	"github.com/j-veylop/steps-dashboard-tui/internal/logger"
	"github.com/j-veylop/steps-dashboard-tui/internal/models"
	"github.com/j-veylop/steps-dashboard-tui/internal/services/importer"
	"github.com/j-veylop/steps-dashboard-tui/internal/services/refresh"
	"github.com/j-veylop/steps-dashboard-tui/internal/services/stats"
	"github.com/j-veylop/steps-dashboard-tui/internal/services/widget"
)

type (
	// RefreshingEvent is emitted when a snapshot fetch starts.
	RefreshingEvent struct{}

	// SnapshotUpdatedEvent is emitted when today's snapshot changes.
	SnapshotUpdatedEvent struct {
		Snapshot models.TodaySnapshot
	}

	// RefreshFailedEvent is emitted when a fetch fails. The previous snapshot
	// stays current.
	RefreshFailedEvent struct {
		Error error
	}

	// AuthorizationDeniedEvent is emitted when read access is refused.
	AuthorizationDeniedEvent struct {
		Error error
	}

	// ImportCompletedEvent is emitted when a watched file was imported.
	ImportCompletedEvent struct {
		Result *importer.Result
	}

	// GoalReachedEvent is emitted when today's steps cross a goal.
	GoalReachedEvent struct {
		Surface string
		Goal    int
		Steps   int
	}

	// ErrorEvent is emitted when an error occurs in any service.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (RefreshingEvent) isServiceEvent()          {}
func (SnapshotUpdatedEvent) isServiceEvent()     {}
func (RefreshFailedEvent) isServiceEvent()       {}
func (AuthorizationDeniedEvent) isServiceEvent() {}
func (ImportCompletedEvent) isServiceEvent()     {}
func (GoalReachedEvent) isServiceEvent()         {}
func (ErrorEvent) isServiceEvent()               {}

// NotifyFunc shows a desktop notification.
type NotifyFunc func(title, body string) error

func desktopNotify(title, body string) error {
	return beeep.Notify(title, body, "")
}

// Options overrides collaborators, mostly for tests and one-shot commands.
type Options struct {
	Clock     clock.Clock
	NewTicker refresh.TickerFunc
	Render    widget.Renderer
	Notify    NotifyFunc
}

// Manager orchestrates services and event routing.
type Manager struct {
	cfg *config.Config

	database   *db.DB
	aggregator *health.Aggregator
	composer   *stats.Composer
	scheduler  *refresh.Scheduler
	timeline   *widget.TimelineProvider
	bridge     *widget.HostBridge
	importer   *importer.Service
	notify     NotifyFunc

	mu          sync.RWMutex
	closed      bool
	subscribers []chan ServiceEvent
	lastSteps   float64
	seenFirst   bool

	stopChan  chan struct{}
	routeDone chan struct{}
	closeOnce sync.Once
}

// NewManager opens the sample store and wires the refresh pipeline. Nothing
// runs until Start.
func NewManager(cfg *config.Config, opts Options) (*Manager, error) {
	gap, err := widget.ParseGapPolicy(cfg.WidgetGapPolicy)
	if err != nil {
		return nil, err
	}

	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.System{}
	}
	notify := opts.Notify
	if notify == nil {
		notify = desktopNotify
	}

	m := &Manager{
		cfg:       cfg,
		database:  database,
		notify:    notify,
		stopChan:  make(chan struct{}),
		routeDone: make(chan struct{}),
	}

	m.aggregator = health.NewAggregator(database)
	m.composer = stats.New(m.aggregator, clk, cfg.Goals)
	m.timeline = widget.NewTimelineProvider(m.aggregator, clk, cfg.Goals.Widget, cfg.WidgetCadence, gap)

	enabled := cfg.WidgetsEnabled && widget.ProbeDir(cfg.WidgetDir)
	if cfg.WidgetsEnabled && !enabled {
		logger.Warn("widget directory not writable, widgets disabled", "dir", cfg.WidgetDir)
	}
	m.bridge = widget.NewHostBridge(m.timeline, widget.BridgeConfig{
		Dir:         cfg.WidgetDir,
		Enabled:     enabled,
		MinInterval: cfg.WidgetReloadMinInterval,
		Render:      opts.Render,
	})

	m.scheduler = refresh.New(m.composer, database, m.bridge, refresh.Config{
		Interval:  cfg.RefreshInterval,
		NewTicker: opts.NewTicker,
	})
	m.importer = importer.New(database)

	go m.routeEvents()

	return m, nil
}

// Start begins the refresh loop and watches the import directory.
func (m *Manager) Start(ctx context.Context) {
	if m.cfg.ImportDir != "" {
		if err := m.importer.Watch(ctx, m.cfg.ImportDir); err != nil {
			logger.Warn("import watcher unavailable", "dir", m.cfg.ImportDir, "error", err)
			m.broadcast(ErrorEvent{Service: "importer", Error: err})
		}
	}
	m.scheduler.Start(ctx)
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	defer close(m.routeDone)

	for {
		select {
		case event := <-m.scheduler.Events():
			m.handleRefreshEvent(event)

		case event := <-m.importer.Events():
			m.handleImportEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleRefreshEvent(event refresh.Event) {
	switch event.Type {
	case refresh.EventRefreshing:
		m.broadcast(RefreshingEvent{})

	case refresh.EventSnapshotUpdated:
		if event.Snapshot == nil {
			return
		}
		m.broadcast(SnapshotUpdatedEvent{Snapshot: *event.Snapshot})
		m.checkNotifications(*event.Snapshot)

	case refresh.EventRefreshFailed:
		m.broadcast(RefreshFailedEvent{Error: event.Error})

	case refresh.EventAuthorizationDenied:
		m.broadcast(AuthorizationDeniedEvent{Error: event.Error})
	}
}

func (m *Manager) handleImportEvent(event importer.Event) {
	switch event.Type {
	case importer.EventImported:
		m.broadcast(ImportCompletedEvent{Result: event.Result})

		if event.Result != nil && event.Result.Inserted > 0 {
			go func() {
				if _, err := m.scheduler.RefreshNow(); err != nil {
					// The scheduler reloads widgets on success only.
					logger.Debug("refresh after import skipped", "error", err)
					if err := m.bridge.ReloadAll(); err != nil {
						logger.Debug("widget reload after import skipped", "error", err)
					}
				}
			}()
		}

	case importer.EventError:
		m.broadcast(ErrorEvent{Service: "importer", Error: event.Error})
	}
}

// checkNotifications notifies when today's steps cross a goal upwards. The
// first snapshot only sets the baseline.
func (m *Manager) checkNotifications(snap models.TodaySnapshot) {
	m.mu.Lock()
	prev, seen := m.lastSteps, m.seenFirst
	m.lastSteps, m.seenFirst = snap.Steps, true
	m.mu.Unlock()

	if !seen || snap.Steps < prev {
		// New day or first read.
		return
	}

	goals := []struct {
		surface string
		goal    int
	}{
		{"app", m.cfg.Goals.InApp},
		{"widget", m.cfg.Goals.Widget},
	}

	for _, g := range goals {
		if g.goal <= 0 {
			continue
		}
		threshold := float64(g.goal)
		if prev < threshold && snap.Steps >= threshold {
			steps := int(snap.Steps)
			m.broadcast(GoalReachedEvent{Surface: g.surface, Goal: g.goal, Steps: steps})

			if m.cfg.GoalNotifications {
				title := fmt.Sprintf("Goal reached: %s steps", models.FormatCount(g.goal))
				body := fmt.Sprintf("You have walked %s steps today.", models.FormatCount(steps))
				if err := m.notify(title, body); err != nil {
					logger.Debug("notification failed", "error", err)
				}
			}
		}
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return
	}

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	if m.closed {
		close(ch)
	} else {
		m.subscribers = append(m.subscribers, ch)
	}
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel. It yields
// nil once the channel is closed.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return event
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// RefreshNow fetches today's snapshot, joining a fetch already in flight.
func (m *Manager) RefreshNow() (models.TodaySnapshot, error) {
	return m.scheduler.RefreshNow()
}

// Reauthorize asks for read access again after a denial.
func (m *Manager) Reauthorize() error {
	return m.scheduler.Reauthorize()
}

// Snapshot returns the last good snapshot.
func (m *Manager) Snapshot() (models.TodaySnapshot, bool) {
	return m.scheduler.Snapshot()
}

// ComposePeriod builds statistics for period.
func (m *Manager) ComposePeriod(ctx context.Context, period models.Period) (models.PeriodStats, error) {
	return m.composer.ComposeFor(ctx, period)
}

// Timeline returns the current widget timeline for kind.
func (m *Manager) Timeline(ctx context.Context, kind models.WidgetKind) widget.Timeline {
	return m.timeline.Timeline(ctx, kind)
}

// Authorize requests read access for every metric without starting the loop.
func (m *Manager) Authorize(ctx context.Context) (bool, error) {
	return m.database.RequestAuthorization(ctx, health.AllMetrics)
}

// Clock returns the pipeline's time source.
func (m *Manager) Clock() clock.Clock {
	return m.composer.Clock()
}

// Config returns the configuration the manager was built with.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// Bridge returns the widget host bridge.
func (m *Manager) Bridge() *widget.HostBridge {
	return m.bridge
}

// Importer returns the import service.
func (m *Manager) Importer() *importer.Service {
	return m.importer
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	var errs []error

	m.closeOnce.Do(func() {
		m.scheduler.Stop()

		if err := m.importer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("importer: %w", err))
		}

		close(m.stopChan)
		<-m.routeDone

		m.mu.Lock()
		m.closed = true
		for _, sub := range m.subscribers {
			close(sub)
		}
		m.subscribers = nil
		m.mu.Unlock()

		if err := m.database.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	})

	return errors.Join(errs...)
}
