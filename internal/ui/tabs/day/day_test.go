package day

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/steps-dashboard-tui/internal/app"
	"github.com/j-veylop/steps-dashboard-tui/internal/health"
	"github.com/j-veylop/steps-dashboard-tui/internal/models"
	"github.com/j-veylop/steps-dashboard-tui/internal/ui/components"
)

func snapshot() models.TodaySnapshot {
	return models.TodaySnapshot{
		AsOf:            time.Date(2026, 10, 19, 14, 5, 0, 0, time.Local),
		Steps:           2500,
		Distance:        1234,
		Calories:        210.4,
		DurationMinutes: 18,
		StepsGoal:       5000,
	}
}

func newModel(t *testing.T) (*Model, *app.State) {
	t.Helper()
	state := app.NewState()
	m := New(state)
	m.SetSize(120, 40)
	return m, state
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestModel_ViewLoading(t *testing.T) {
	m, _ := newModel(t)
	if !strings.Contains(ansi.Strip(m.View()), "Reading today's activity") {
		t.Error("initial view should show the spinner label")
	}
}

func TestModel_ViewSnapshot(t *testing.T) {
	m, state := newModel(t)
	state.SetSnapshot(snapshot())

	view := ansi.Strip(m.View())
	for _, want := range []string{"2,500 steps", "210 kcal", "1.234 km", "18 min", "Goal: 5,000 steps", "Updated 14:05"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_KeepsValuesOnFailure(t *testing.T) {
	m, state := newModel(t)
	state.SetSnapshot(snapshot())
	state.SetSnapshotError(errors.New("provider timeout"))

	view := ansi.Strip(m.View())
	if !strings.Contains(view, "2,500 steps") {
		t.Error("previous values should stay visible")
	}
	if !strings.Contains(view, "Last refresh failed: provider timeout") {
		t.Error("failure should be reported")
	}
}

func TestModel_Denied(t *testing.T) {
	m, state := newModel(t)
	state.SetDenied(health.ErrAuthorizationDenied)

	if !strings.Contains(ansi.Strip(m.View()), "access was denied") {
		t.Error("denied view expected")
	}

	_, cmd := m.Update(keyPress('a'))
	if cmd == nil {
		t.Fatal("a should request reauthorization")
	}
	found := false
	for _, msg := range drain(cmd) {
		if _, ok := msg.(app.ReauthorizeMsg); ok {
			found = true
		}
	}
	if !found {
		t.Error("expected ReauthorizeMsg")
	}
}

func TestModel_ReauthorizeOnlyWhenDenied(t *testing.T) {
	m, state := newModel(t)
	state.SetSnapshot(snapshot())

	_, cmd := m.Update(keyPress('a'))
	for _, msg := range drain(cmd) {
		if _, ok := msg.(app.ReauthorizeMsg); ok {
			t.Error("a should do nothing while access is granted")
		}
	}
}

func TestModel_GoalBarFollowsSnapshot(t *testing.T) {
	m, state := newModel(t)
	state.SetSnapshot(snapshot())

	m.Update(app.SnapshotUpdatedMsg{Snapshot: snapshot()})
	for i := 0; i < 200 && m.goalBar.Percent() != 50; i++ {
		m.Update(components.AnimationTickMsg(time.Now()))
	}
	if got := m.goalBar.Percent(); got != 50 {
		t.Errorf("goal bar = %v%%, want 50", got)
	}
}

func TestModel_Help(t *testing.T) {
	m, _ := newModel(t)
	if len(m.ShortHelp()) != 2 {
		t.Errorf("ShortHelp = %d bindings, want 2", len(m.ShortHelp()))
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp should not be empty")
	}
}

// drain runs cmd and flattens batches, skipping commands that block on timers.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := runWithTimeout(cmd)
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, drain(c)...)
	}
	return out
}

func runWithTimeout(cmd tea.Cmd) tea.Msg {
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		return msg
	case <-time.After(20 * time.Millisecond):
		return nil
	}
}
