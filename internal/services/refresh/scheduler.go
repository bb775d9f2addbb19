// Package refresh drives the in-app refresh cadence: authorize on start, fetch
// today's snapshot, then refetch on every tick until stopped.
package refresh

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/j-veylop/steps-dashboard-tui/internal/health"
	"github.com/j-veylop/steps-dashboard-tui/internal/logger"
	"github.com/j-veylop/steps-dashboard-tui/internal/models"
)

// ErrNotRunning is returned by RefreshNow before Start or after Stop.
var ErrNotRunning = errors.New("refresh scheduler not running")

// EventType defines the type of scheduler event.
type EventType int

const (
	// EventRefreshing indicates a fetch started.
	EventRefreshing EventType = iota
	// EventSnapshotUpdated carries a new snapshot.
	EventSnapshotUpdated
	// EventRefreshFailed carries the error of a failed fetch. The previous
	// snapshot stays current.
	EventRefreshFailed
	// EventAuthorizationDenied indicates read access was refused.
	EventAuthorizationDenied
)

// Event represents a scheduler event.
type Event struct {
	Snapshot *models.TodaySnapshot
	Error    error
	At       time.Time
	Type     EventType
}

// SnapshotBuilder builds today's snapshot. *stats.Composer implements it.
type SnapshotBuilder interface {
	BuildTodaySnapshot(ctx context.Context) (models.TodaySnapshot, error)
}

// Authorizer requests read access. Every health.Provider implements it.
type Authorizer interface {
	RequestAuthorization(ctx context.Context, kinds []health.MetricKind) (bool, error)
}

// Reloader asks the widget host to refresh the step widgets.
type Reloader interface {
	ReloadSteps() error
}

// Ticker is the subset of time.Ticker the scheduler uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTicker wraps time.NewTicker.
func NewTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Config holds configuration for the scheduler.
type Config struct {
	Interval  time.Duration
	NewTicker TickerFunc
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Interval:  5 * time.Minute,
		NewTicker: NewTicker,
	}
}

// Scheduler owns the in-app refresh loop.
type Scheduler struct {
	builder  SnapshotBuilder
	auth     Authorizer
	reloader Reloader
	config   Config

	group     singleflight.Group
	eventChan chan Event

	mu         sync.RWMutex
	running    bool
	runCtx     context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	inflight   sync.WaitGroup
	authorized bool
	denied     bool
	last       *models.TodaySnapshot
	lastErr    error
}

// New creates a scheduler. reloader may be nil.
func New(builder SnapshotBuilder, auth Authorizer, reloader Reloader, config Config) *Scheduler {
	defaults := DefaultConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.NewTicker == nil {
		config.NewTicker = defaults.NewTicker
	}

	return &Scheduler{
		builder:   builder,
		auth:      auth,
		reloader:  reloader,
		config:    config,
		eventChan: make(chan Event, 32),
	}
}

// Events returns the event channel.
func (s *Scheduler) Events() <-chan Event {
	return s.eventChan
}

// Start requests authorization, runs the first fetch once it is granted, and
// then refetches every interval until Stop. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.runCtx = runCtx
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(runCtx, s.done)
}

// Stop halts the loop and waits for in-flight fetches and widget reloads. No
// fetch starts after Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	done := s.done
	s.mu.Unlock()

	<-done
	s.inflight.Wait()
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	if s.authorize(ctx) {
		_, _ = s.refresh(ctx)
	}

	ticker := s.config.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if ctx.Err() != nil {
				return
			}
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	s.mu.RLock()
	denied, authorized := s.denied, s.authorized
	s.mu.RUnlock()

	if denied {
		return
	}
	if !authorized && !s.authorize(ctx) {
		return
	}
	_, _ = s.refresh(ctx)
}

// authorize asks for access to every metric. A refusal is terminal until
// Reauthorize; other errors are retried on the next tick.
func (s *Scheduler) authorize(ctx context.Context) bool {
	ok, err := s.auth.RequestAuthorization(ctx, health.AllMetrics)

	switch {
	case err == nil && ok:
		s.mu.Lock()
		s.authorized, s.denied = true, false
		s.mu.Unlock()
		return true

	case err == nil || errors.Is(err, health.ErrAuthorizationDenied):
		if err == nil {
			err = health.ErrAuthorizationDenied
		}
		s.markDenied(err)
		return false

	default:
		logger.Warn("authorization request failed", "error", err)
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		s.sendEvent(Event{Type: EventRefreshFailed, Error: err, At: time.Now()})
		return false
	}
}

func (s *Scheduler) markDenied(err error) {
	s.mu.Lock()
	s.authorized, s.denied = false, true
	s.lastErr = err
	s.mu.Unlock()

	logger.Warn("health authorization denied", "error", err)
	s.sendEvent(Event{Type: EventAuthorizationDenied, Error: err, At: time.Now()})
}

// refresh builds a snapshot. Concurrent callers share one fetch.
func (s *Scheduler) refresh(ctx context.Context) (models.TodaySnapshot, error) {
	v, err, _ := s.group.Do("today", func() (any, error) {
		s.sendEvent(Event{Type: EventRefreshing, At: time.Now()})

		snap, err := s.builder.BuildTodaySnapshot(ctx)
		if err != nil {
			if errors.Is(err, health.ErrAuthorizationDenied) || errors.Is(err, health.ErrNotAuthorized) {
				s.markDenied(err)
				return nil, err
			}

			logger.Warn("refresh failed, keeping previous snapshot", "error", err)
			s.mu.Lock()
			s.lastErr = err
			s.mu.Unlock()
			s.sendEvent(Event{Type: EventRefreshFailed, Error: err, At: time.Now()})
			return nil, err
		}

		s.mu.Lock()
		s.last = &snap
		s.lastErr = nil
		s.mu.Unlock()

		updated := snap
		s.sendEvent(Event{Type: EventSnapshotUpdated, Snapshot: &updated, At: snap.AsOf})

		if s.reloader != nil {
			s.inflight.Add(1)
			go func() {
				defer s.inflight.Done()
				s.reloadWidgets()
			}()
		}
		return snap, nil
	})
	if err != nil {
		return models.TodaySnapshot{}, err
	}
	return v.(models.TodaySnapshot), nil
}

func (s *Scheduler) reloadWidgets() {
	if err := s.reloader.ReloadSteps(); err != nil {
		logger.Debug("widget reload skipped", "error", err)
	}
}

// RefreshNow fetches immediately, joining a fetch already in flight.
func (s *Scheduler) RefreshNow() (models.TodaySnapshot, error) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return models.TodaySnapshot{}, ErrNotRunning
	}
	if s.denied {
		err := s.lastErr
		s.mu.Unlock()
		if err == nil {
			err = health.ErrAuthorizationDenied
		}
		return models.TodaySnapshot{}, err
	}
	ctx := s.runCtx
	authorized := s.authorized
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	if !authorized && !s.authorize(ctx) {
		return models.TodaySnapshot{}, s.LastError()
	}
	return s.refresh(ctx)
}

// Reauthorize clears a denial, asks for access again, and refreshes when it
// is granted.
func (s *Scheduler) Reauthorize() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.denied = false
	s.authorized = false
	ctx := s.runCtx
	s.inflight.Add(1)
	s.mu.Unlock()
	defer s.inflight.Done()

	if !s.authorize(ctx) {
		return s.LastError()
	}
	_, err := s.refresh(ctx)
	return err
}

// Snapshot returns the last good snapshot.
func (s *Scheduler) Snapshot() (models.TodaySnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return models.TodaySnapshot{}, false
	}
	return *s.last, true
}

// LastError returns the error of the latest attempt, nil after a success.
func (s *Scheduler) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Denied reports whether authorization was refused.
func (s *Scheduler) Denied() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.denied
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Scheduler) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}
