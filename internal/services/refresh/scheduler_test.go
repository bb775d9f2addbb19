package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/j-veylop/steps-dashboard-tui/internal/health"
	"github.com/j-veylop/steps-dashboard-tui/internal/models"
)

type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func newManualTicker() *manualTicker {
	return &manualTicker{ch: make(chan time.Time)}
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               { t.stopped.Store(true) }

// fire delivers one tick, failing if the loop does not take it.
func (t *manualTicker) fire(tb testing.TB) {
	tb.Helper()
	select {
	case t.ch <- time.Now():
	case <-time.After(2 * time.Second):
		tb.Fatal("scheduler did not consume tick")
	}
}

type fakeBuilder struct {
	mu    sync.Mutex
	calls int
	steps float64
	err   error
	block chan struct{}
	seen  chan struct{}
}

func newFakeBuilder() *fakeBuilder {
	return &fakeBuilder{steps: 1000, seen: make(chan struct{}, 100)}
}

func (b *fakeBuilder) BuildTodaySnapshot(context.Context) (models.TodaySnapshot, error) {
	b.mu.Lock()
	b.calls++
	steps, err, block := b.steps, b.err, b.block
	b.mu.Unlock()

	b.seen <- struct{}{}
	if block != nil {
		<-block
	}
	if err != nil {
		return models.TodaySnapshot{}, err
	}
	return models.TodaySnapshot{Steps: steps, StepsGoal: 5000, AsOf: time.Now()}, nil
}

func (b *fakeBuilder) set(steps float64, err error) {
	b.mu.Lock()
	b.steps, b.err = steps, err
	b.mu.Unlock()
}

func (b *fakeBuilder) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func (b *fakeBuilder) waitCall(tb testing.TB) {
	tb.Helper()
	select {
	case <-b.seen:
	case <-time.After(2 * time.Second):
		tb.Fatal("timeout waiting for fetch")
	}
}

type fakeAuth struct {
	mu    sync.Mutex
	ok    bool
	err   error
	calls int
}

func (a *fakeAuth) RequestAuthorization(context.Context, []health.MetricKind) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return a.ok, a.err
}

func (a *fakeAuth) set(ok bool, err error) {
	a.mu.Lock()
	a.ok, a.err = ok, err
	a.mu.Unlock()
}

type fakeReloader struct {
	calls chan struct{}
	err   error
}

func (r *fakeReloader) ReloadSteps() error {
	r.calls <- struct{}{}
	return r.err
}

func newTestScheduler(b *fakeBuilder, a *fakeAuth, r Reloader) (*Scheduler, *manualTicker) {
	ticker := newManualTicker()
	s := New(b, a, r, Config{
		Interval:  5 * time.Minute,
		NewTicker: func(time.Duration) Ticker { return ticker },
	})
	return s, ticker
}

func waitEvent(tb testing.TB, s *Scheduler, want EventType) Event {
	tb.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-s.Events():
			if ev.Type == want {
				return ev
			}
		case <-timeout:
			tb.Fatalf("timeout waiting for event %d", want)
			return Event{}
		}
	}
}

func TestScheduler_FetchesOncePerTickWhileRunning(t *testing.T) {
	b := newFakeBuilder()
	s, ticker := newTestScheduler(b, &fakeAuth{ok: true}, nil)

	s.Start(context.Background())
	b.waitCall(t)

	for range 3 {
		ticker.fire(t)
		b.waitCall(t)
	}

	s.Stop()
	if got := b.callCount(); got != 4 {
		t.Errorf("fetches = %d, want 4 (mount + 3 ticks)", got)
	}
	if !ticker.stopped.Load() {
		t.Error("ticker should be stopped")
	}

	// Nothing reads ticks after Stop.
	select {
	case ticker.ch <- time.Now():
		t.Error("tick consumed after Stop")
	case <-time.After(50 * time.Millisecond):
	}
	if got := b.callCount(); got != 4 {
		t.Errorf("fetches after Stop = %d, want 4", got)
	}
	if _, err := s.RefreshNow(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("RefreshNow after Stop err = %v, want ErrNotRunning", err)
	}
}

func TestScheduler_AuthorizesBeforeFirstFetch(t *testing.T) {
	b := newFakeBuilder()
	auth := &fakeAuth{ok: false}
	s, ticker := newTestScheduler(b, auth, nil)

	s.Start(context.Background())
	defer s.Stop()

	ev := waitEvent(t, s, EventAuthorizationDenied)
	if !errors.Is(ev.Error, health.ErrAuthorizationDenied) {
		t.Errorf("event error = %v, want ErrAuthorizationDenied", ev.Error)
	}

	// Ticks while denied do not fetch.
	ticker.fire(t)
	ticker.fire(t)
	if got := b.callCount(); got != 0 {
		t.Errorf("fetches while denied = %d, want 0", got)
	}
	if !s.Denied() {
		t.Error("scheduler should report denial")
	}
	if _, err := s.RefreshNow(); !errors.Is(err, health.ErrAuthorizationDenied) {
		t.Errorf("RefreshNow while denied err = %v", err)
	}

	// The user grants access.
	auth.set(true, nil)
	if err := s.Reauthorize(); err != nil {
		t.Fatalf("Reauthorize failed: %v", err)
	}
	if got := b.callCount(); got != 1 {
		t.Errorf("fetches after reauthorize = %d, want 1", got)
	}
	if s.Denied() {
		t.Error("denial should be cleared")
	}
}

func TestScheduler_AuthorizationErrorRetriedOnTick(t *testing.T) {
	b := newFakeBuilder()
	auth := &fakeAuth{err: health.ErrProviderUnavailable}
	s, ticker := newTestScheduler(b, auth, nil)

	s.Start(context.Background())
	defer s.Stop()

	waitEvent(t, s, EventRefreshFailed)
	if s.Denied() {
		t.Error("an unavailable provider is not a denial")
	}

	auth.set(true, nil)
	ticker.fire(t)
	b.waitCall(t)
	waitEvent(t, s, EventSnapshotUpdated)
}

func TestScheduler_KeepsLastSnapshotOnFailure(t *testing.T) {
	b := newFakeBuilder()
	b.set(4200, nil)
	s, ticker := newTestScheduler(b, &fakeAuth{ok: true}, nil)

	s.Start(context.Background())
	defer s.Stop()

	ev := waitEvent(t, s, EventSnapshotUpdated)
	if ev.Snapshot == nil || ev.Snapshot.Steps != 4200 {
		t.Fatalf("snapshot event = %+v", ev.Snapshot)
	}

	boom := errors.New("all metrics failed")
	b.set(9999, boom)
	ticker.fire(t)
	failed := waitEvent(t, s, EventRefreshFailed)
	if !errors.Is(failed.Error, boom) {
		t.Errorf("failure event error = %v", failed.Error)
	}

	snap, ok := s.Snapshot()
	if !ok || snap.Steps != 4200 {
		t.Errorf("Snapshot() = %+v, %v; want previous 4200", snap, ok)
	}
	if !errors.Is(s.LastError(), boom) {
		t.Errorf("LastError() = %v", s.LastError())
	}
}

func TestScheduler_NotAuthorizedDuringFetchIsDenial(t *testing.T) {
	b := newFakeBuilder()
	b.set(0, health.ErrNotAuthorized)
	s, ticker := newTestScheduler(b, &fakeAuth{ok: true}, nil)

	s.Start(context.Background())
	defer s.Stop()

	waitEvent(t, s, EventAuthorizationDenied)

	ticker.fire(t)
	if got := b.callCount(); got != 1 {
		t.Errorf("fetches = %d, want 1 (denied ticks skip)", got)
	}
}

func TestScheduler_RefreshNowJoinsInFlight(t *testing.T) {
	b := newFakeBuilder()
	release := make(chan struct{})
	b.block = release
	s, _ := newTestScheduler(b, &fakeAuth{ok: true}, nil)

	s.Start(context.Background())
	b.waitCall(t)

	var wg sync.WaitGroup
	results := make(chan float64, 3)
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := s.RefreshNow()
			if err == nil {
				results <- snap.Steps
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	b.mu.Lock()
	b.block = nil
	b.mu.Unlock()
	close(release)
	wg.Wait()
	s.Stop()

	// Callers that arrived while the mount fetch was running share it; a
	// straggler may start one more.
	if got := b.callCount(); got > 2 {
		t.Errorf("fetches = %d, want at most 2", got)
	}
	if len(results) != 3 {
		t.Errorf("got %d results, want 3", len(results))
	}
}

func TestScheduler_ReloadsWidgetsAfterSuccess(t *testing.T) {
	b := newFakeBuilder()
	r := &fakeReloader{calls: make(chan struct{}, 10), err: errors.New("host busy")}
	s, _ := newTestScheduler(b, &fakeAuth{ok: true}, r)

	s.Start(context.Background())
	defer s.Stop()

	select {
	case <-r.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("widgets were not reloaded after a successful fetch")
	}

	if s.LastError() != nil {
		t.Errorf("reload errors must not surface: %v", s.LastError())
	}
}

func TestScheduler_StartTwiceAndStopTwice(t *testing.T) {
	b := newFakeBuilder()
	s, _ := newTestScheduler(b, &fakeAuth{ok: true}, nil)

	s.Start(context.Background())
	s.Start(context.Background())
	b.waitCall(t)

	s.Stop()
	s.Stop()

	if s.Running() {
		t.Error("scheduler should not be running")
	}
	if got := b.callCount(); got != 1 {
		t.Errorf("fetches = %d, want 1", got)
	}
}
