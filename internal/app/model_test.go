package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/steps-dashboard-tui/internal/health"
	"github.com/j-veylop/steps-dashboard-tui/internal/models"
	"github.com/j-veylop/steps-dashboard-tui/internal/services"
	"github.com/j-veylop/steps-dashboard-tui/internal/services/importer"
)

type fakeServices struct {
	snapshot    models.TodaySnapshot
	hasSnapshot bool
	refreshErr  error
	authErr     error
	totals      models.PeriodStats
	totalsErr   error

	refreshCalls int
	authCalls    int
	composed     []models.Period
}

func (f *fakeServices) Subscribe() (chan services.ServiceEvent, tea.Cmd) {
	return make(chan services.ServiceEvent), nil
}

func (f *fakeServices) RefreshNow() (models.TodaySnapshot, error) {
	f.refreshCalls++
	if f.refreshErr != nil {
		return models.TodaySnapshot{}, f.refreshErr
	}
	return f.snapshot, nil
}

func (f *fakeServices) Reauthorize() error {
	f.authCalls++
	return f.authErr
}

func (f *fakeServices) Snapshot() (models.TodaySnapshot, bool) {
	return f.snapshot, f.hasSnapshot
}

func (f *fakeServices) ComposePeriod(_ context.Context, period models.Period) (models.PeriodStats, error) {
	f.composed = append(f.composed, period)
	return f.totals, f.totalsErr
}

// collect runs cmd and any batched commands, dropping those that block
// longer than a short timeout such as ticks.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}

	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(50 * time.Millisecond):
		return nil
	}

	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func findNotification(msgs []tea.Msg, typ NotificationType) (AddNotificationMsg, bool) {
	for _, msg := range msgs {
		if n, ok := msg.(AddNotificationMsg); ok && n.Type == typ {
			return n, true
		}
	}
	return AddNotificationMsg{}, false
}

func readyModel(svc Services) *Model {
	m := NewModel(svc)
	m.ready = true
	m.width = 100
	m.height = 30
	return m
}

var testSnapshot = models.TodaySnapshot{
	AsOf:      time.Date(2026, 10, 19, 9, 30, 0, 0, time.Local),
	Steps:     4200,
	StepsGoal: 5000,
}

func TestNewModel(t *testing.T) {
	model := NewModel(nil)
	if model == nil {
		t.Fatal("NewModel returned nil")
	}
	if model.state == nil {
		t.Error("State should be initialized")
	}
	if model.activeTab != TabDay {
		t.Error("Default tab should be Day")
	}
	if len(model.tabs) != 3 {
		t.Errorf("Should have 3 tabs placeholder, got %d", len(model.tabs))
	}
}

func TestModel_Init(t *testing.T) {
	model := NewModel(nil)
	if cmd := model.Init(); cmd == nil {
		t.Error("Init returned nil command")
	}
}

func TestModel_InitLoadsSnapshotAndTotals(t *testing.T) {
	svc := &fakeServices{snapshot: testSnapshot, hasSnapshot: true}
	model := NewModel(svc)

	msgs := collect(model.Init())

	var sawSnapshot, sawTotals, sawSubscription bool
	for _, msg := range msgs {
		switch msg := msg.(type) {
		case SnapshotUpdatedMsg:
			sawSnapshot = msg.Snapshot.Steps == 4200
		case TotalsLoadedMsg:
			sawTotals = msg.Period == models.PeriodWeek
		case SubscriptionEventMsg:
			sawSubscription = msg.Channel != nil
		}
	}
	if !sawSnapshot || !sawTotals || !sawSubscription {
		t.Errorf("init messages: snapshot=%v totals=%v subscription=%v", sawSnapshot, sawTotals, sawSubscription)
	}
	if !model.state.Loading.Totals {
		t.Error("totals should be loading after Init")
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	model := NewModel(nil)

	newModel, _ := model.Update(tea.WindowSizeMsg{Width: 100, Height: 50})

	m, ok := newModel.(*Model)
	if !ok {
		t.Fatal("Update returned wrong model type")
	}
	if m.width != 100 || m.height != 50 {
		t.Errorf("size = %dx%d, want 100x50", m.width, m.height)
	}
	if !m.ready {
		t.Error("Model should be ready after WindowSizeMsg")
	}
}

func TestModel_Update_TabSwitch(t *testing.T) {
	model := readyModel(nil)

	model.Update(TabSwitchMsg{Tab: TabTotals})
	if model.activeTab != TabTotals {
		t.Errorf("ActiveTab = %v, want Totals", model.activeTab)
	}

	model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}})
	if model.activeTab != TabSettings {
		t.Errorf("ActiveTab = %v, want Settings", model.activeTab)
	}

	model.Update(tea.KeyMsg{Type: tea.KeyTab})
	if model.activeTab != TabDay {
		t.Errorf("next tab should wrap to Day, got %v", model.activeTab)
	}

	model.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if model.activeTab != TabSettings {
		t.Errorf("prev tab should wrap to Settings, got %v", model.activeTab)
	}
}

func TestModel_RefreshKey(t *testing.T) {
	model := readyModel(nil)

	msgs := collect(model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}))
	if len(msgs) != 1 || msgs[0] != (RefreshMsg{Resource: "snapshot"}) {
		t.Errorf("r on Day = %v, want snapshot refresh", msgs)
	}

	model.switchTab(TabTotals)
	msgs = collect(model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}))
	if len(msgs) != 1 || msgs[0] != (RefreshMsg{Resource: "all"}) {
		t.Errorf("r on Totals = %v, want full refresh", msgs)
	}
}

func TestModel_Update_Tick(t *testing.T) {
	model := NewModel(nil)
	if _, cmd := model.Update(TickMsg{Time: time.Now()}); cmd == nil {
		t.Error("TickMsg should return a command (next tick)")
	}
}

func TestModel_View(t *testing.T) {
	model := NewModel(nil)

	if view := model.View(); !strings.Contains(view, "Loading...") {
		t.Error("View should show Loading when not ready")
	}

	model.ready = true
	model.width = 80
	model.height = 24

	view := model.View()
	for _, name := range []string{"Day", "Totals", "Settings"} {
		if !strings.Contains(view, name) {
			t.Errorf("navbar should show %s", name)
		}
	}
	if !strings.Contains(view, "not yet implemented") {
		t.Error("View should show placeholder text")
	}
}

func TestModel_Help(t *testing.T) {
	model := readyModel(nil)

	model.Update(ToggleHelpMsg{})
	if !model.showHelp {
		t.Error("showHelp should be true")
	}
	if !strings.Contains(model.View(), "Keyboard Shortcuts") {
		t.Error("View should show help modal")
	}

	model.handleKeyMsg(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	if model.showHelp {
		t.Error("showHelp should be false after toggle")
	}
}

func TestModel_Notifications(t *testing.T) {
	model := readyModel(nil)

	model.Update(AddNotificationMsg{Message: "Test Note", Type: NotificationInfo})

	if n := len(model.state.GetNotifications()); n != 1 {
		t.Errorf("Expected 1 notification, got %d", n)
	}
	if !strings.Contains(model.View(), "Test Note") {
		t.Error("View should show notification")
	}
}

func TestModel_EscapeClosesHelpThenDismissesNotifications(t *testing.T) {
	model := readyModel(nil)
	model.Update(AddNotificationMsg{Message: "Test Note", Type: NotificationInfo})
	model.showHelp = true

	esc := tea.KeyMsg{Type: tea.KeyEsc}
	model.handleKeyMsg(esc)
	if model.showHelp {
		t.Error("first esc should close help")
	}
	if n := len(model.state.GetNotifications()); n != 1 {
		t.Errorf("closing help should keep notifications, got %d", n)
	}

	model.handleKeyMsg(esc)
	if n := len(model.state.GetNotifications()); n != 0 {
		t.Errorf("second esc should dismiss notifications, got %d", n)
	}
}

func TestModel_RefreshSuccess(t *testing.T) {
	svc := &fakeServices{snapshot: testSnapshot}
	model := readyModel(svc)

	_, cmd := model.Update(RefreshMsg{Resource: "snapshot"})
	if !model.state.Loading.Snapshot {
		t.Error("snapshot should be loading")
	}

	for _, msg := range collect(cmd) {
		model.Update(msg)
	}

	if svc.refreshCalls != 1 {
		t.Errorf("RefreshNow called %d times", svc.refreshCalls)
	}
	snap, ok := model.state.Snapshot()
	if !ok || snap.Steps != 4200 {
		t.Errorf("snapshot = %+v, %v", snap, ok)
	}
	if model.state.Loading.Snapshot {
		t.Error("snapshot loading should be cleared")
	}
}

func TestModel_RefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	svc := &fakeServices{refreshErr: errors.New("store offline")}
	model := readyModel(svc)
	model.state.SetSnapshot(testSnapshot)

	cmds := model.handleSnapshotRefreshed(SnapshotRefreshedMsg{Error: svc.refreshErr})

	snap, ok := model.state.Snapshot()
	if !ok || snap.Steps != 4200 {
		t.Fatalf("previous snapshot lost: %+v", snap)
	}
	if !errors.Is(model.state.SnapshotError(), svc.refreshErr) {
		t.Errorf("SnapshotError = %v", model.state.SnapshotError())
	}
	if len(cmds) != 1 {
		t.Fatalf("expected a warning, got %d commands", len(cmds))
	}
	if _, ok := findNotification(collect(cmds[0]), NotificationWarning); !ok {
		t.Error("failure should show a warning toast")
	}
}

func TestModel_RefreshDenied(t *testing.T) {
	model := readyModel(&fakeServices{})
	denied := fmt.Errorf("fetch steps: %w", health.ErrAuthorizationDenied)

	cmds := model.handleSnapshotRefreshed(SnapshotRefreshedMsg{Error: denied})
	if !model.state.Denied() {
		t.Error("denied refresh should mark the state denied")
	}
	if len(cmds) != 0 {
		t.Error("denied refresh is shown in the tab, not as a toast")
	}
}

func TestModel_Reauthorize(t *testing.T) {
	svc := &fakeServices{}
	model := readyModel(svc)
	model.state.SetDenied(health.ErrAuthorizationDenied)

	_, cmd := model.Update(ReauthorizeMsg{})
	msgs := collect(cmd)
	if svc.authCalls != 1 {
		t.Fatalf("Reauthorize called %d times", svc.authCalls)
	}

	var result ReauthorizeResultMsg
	for _, msg := range msgs {
		if r, ok := msg.(ReauthorizeResultMsg); ok {
			result = r
		}
	}

	cmds := model.handleReauthorizeResult(result)
	var all []tea.Msg
	for _, c := range cmds {
		all = append(all, collect(c)...)
	}
	if _, ok := findNotification(all, NotificationSuccess); !ok {
		t.Error("granted access should show a success toast")
	}
	if len(svc.composed) != 1 {
		t.Error("granted access should reload totals")
	}
}

func TestModel_ReauthorizeStillDenied(t *testing.T) {
	model := readyModel(&fakeServices{})

	cmds := model.handleReauthorizeResult(ReauthorizeResultMsg{Error: health.ErrAuthorizationDenied})
	if !model.state.Denied() {
		t.Error("state should stay denied")
	}
	if _, ok := findNotification(collect(cmds[0]), NotificationError); !ok {
		t.Error("expected an error toast")
	}
}

func TestModel_TotalsLoaded(t *testing.T) {
	model := readyModel(nil)
	model.state.SetLoading("totals", true)

	stats := models.PeriodStats{Failed: map[health.MetricKind]error{}}
	if cmds := model.handleTotalsLoaded(TotalsLoadedMsg{Period: models.PeriodWeek, Stats: stats}); len(cmds) != 0 {
		t.Errorf("complete totals should not notify, got %d commands", len(cmds))
	}
	if _, ok := model.state.Totals(models.PeriodWeek); !ok {
		t.Error("totals should be stored")
	}
	if model.state.Loading.Totals {
		t.Error("totals loading should be cleared")
	}
}

func TestModel_TotalsErrorKeepsPreviousTotals(t *testing.T) {
	model := readyModel(nil)
	prev := models.PeriodStats{Failed: map[health.MetricKind]error{}}
	model.state.SetTotals(models.PeriodMonth, prev)

	cmds := model.handleTotalsLoaded(TotalsLoadedMsg{Period: models.PeriodMonth, Error: errors.New("timeout")})

	if _, ok := model.state.Totals(models.PeriodMonth); !ok {
		t.Error("previous totals should be kept")
	}
	if model.state.TotalsError(models.PeriodMonth) == nil {
		t.Error("error should be recorded")
	}
	if _, ok := findNotification(collect(cmds[0]), NotificationWarning); !ok {
		t.Error("expected a warning toast")
	}
}

func TestModel_PartialTotalsWarn(t *testing.T) {
	model := readyModel(nil)
	stats := models.PeriodStats{Failed: map[health.MetricKind]error{health.ActiveEnergy: errors.New("denied")}}

	cmds := model.handleTotalsLoaded(TotalsLoadedMsg{Period: models.PeriodWeek, Stats: stats})
	if len(cmds) != 1 {
		t.Fatalf("partial totals should warn, got %d commands", len(cmds))
	}
	n, ok := findNotification(collect(cmds[0]), NotificationWarning)
	if !ok || !strings.Contains(n.Message, "incomplete") {
		t.Errorf("warning = %+v", n)
	}
}

func TestModel_LoadTotalsUsesServices(t *testing.T) {
	svc := &fakeServices{}
	model := readyModel(svc)

	_, cmd := model.Update(LoadTotalsMsg{Period: models.PeriodMonth})
	collect(cmd)

	if len(svc.composed) != 1 || svc.composed[0] != models.PeriodMonth {
		t.Errorf("composed = %v, want [MONTH]", svc.composed)
	}
}

func TestModel_HandleServiceEvent(t *testing.T) {
	model := readyModel(nil)

	msgs := collect(model.handleServiceEvent(services.SnapshotUpdatedEvent{Snapshot: testSnapshot}))
	if len(msgs) != 1 {
		t.Fatalf("snapshot event should be forwarded to the tabs, got %v", msgs)
	}
	if _, ok := model.state.Snapshot(); !ok {
		t.Error("snapshot should be stored")
	}

	model.handleServiceEvent(services.RefreshFailedEvent{Error: errors.New("flaky")})
	if _, ok := model.state.Snapshot(); !ok {
		t.Error("failed refresh should keep the snapshot")
	}

	msgs = collect(model.handleServiceEvent(services.AuthorizationDeniedEvent{Error: health.ErrAuthorizationDenied}))
	if !model.state.Denied() {
		t.Error("denied event should mark the state denied")
	}
	if n, ok := findNotification(msgs, NotificationError); !ok || !strings.Contains(n.Message, "Press a") {
		t.Errorf("denied toast = %+v", n)
	}

	msgs = collect(model.handleServiceEvent(services.GoalReachedEvent{Goal: 5000, Steps: 5012}))
	if n, ok := findNotification(msgs, NotificationSuccess); !ok || !strings.Contains(n.Message, "5,000") {
		t.Errorf("goal toast = %+v", n)
	}

	if cmd := model.handleServiceEvent(services.ErrorEvent{Service: "test"}); cmd == nil {
		t.Error("Error event should trigger notification command")
	}
}

func TestModel_ImportEvent(t *testing.T) {
	svc := &fakeServices{}
	model := readyModel(svc)

	if cmd := model.handleServiceEvent(services.ImportCompletedEvent{Result: &importer.Result{Path: "/tmp/x.csv", Unchanged: true}}); cmd != nil {
		t.Error("imports without new samples should stay quiet")
	}

	result := &importer.Result{Path: "/data/inbox/steps.csv", Parsed: 12, Inserted: 12}
	msgs := collect(model.handleServiceEvent(services.ImportCompletedEvent{Result: result}))

	n, ok := findNotification(msgs, NotificationInfo)
	if !ok || !strings.Contains(n.Message, "12 samples from steps.csv") {
		t.Errorf("import toast = %+v", n)
	}
	if len(svc.composed) != 1 {
		t.Error("import should reload totals")
	}
}

func TestModel_Update_Messages(t *testing.T) {
	model := NewModel(nil)

	model.Update(StartLoadingMsg{Resource: "totals"})
	if !model.state.Loading.Totals {
		t.Error("Loading.Totals should be true")
	}

	model.Update(StopLoadingMsg{Resource: "totals"})
	if model.state.Loading.Totals {
		t.Error("Loading.Totals should be false")
	}

	model.Update(SnapshotUpdatedMsg{Snapshot: testSnapshot})
	if model.state.Loading.Initial {
		t.Error("Initial loading should be false")
	}

	// services is nil, so these only exercise the switch
	model.Update(RefreshMsg{Resource: "all"})
	model.Update(RefreshMsg{Resource: "totals"})
	model.Update(ReauthorizeMsg{})

	model.Update(AddNotificationMsg{Message: "test", Type: NotificationInfo})
	model.Update(RemoveNotificationMsg{ID: "nonexistent"})
	model.Update(ClearExpiredNotificationsMsg{})
}

func TestModel_HandleSpinnerTick(t *testing.T) {
	model := NewModel(nil)
	if _, cmd := model.Update(spinner.TickMsg{}); cmd == nil {
		t.Error("Spinner tick should return command")
	}
}

func TestTabID_String(t *testing.T) {
	tests := map[TabID]string{
		TabDay:      "Day",
		TabTotals:   "Totals",
		TabSettings: "Settings",
		TabID(999):  "Unknown",
	}
	for id, want := range tests {
		if got := id.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", id, got, want)
		}
	}
}

func TestDefaultKeyMap(t *testing.T) {
	km := DefaultKeyMap()
	if len(km.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(km.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}
