package settings

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dwtexe/cursor-stats/internal/app"
	"github.com/Dwtexe/cursor-stats/internal/config"
	"github.com/Dwtexe/cursor-stats/internal/models"
)

func testConfig() *config.Config {
	return &config.Config{
		StateDBPath:               "/tmp/state.vscdb",
		SnapshotDBPath:            "/tmp/snapshots.db",
		LogFile:                   "/tmp/cursor-stats.log",
		LogLevel:                  "info",
		RefreshInterval:           time.Minute,
		EnableAlerts:              true,
		DesktopNotifications:      true,
		UsageAlertThresholds:      []int{10, 30, 50, 75, 90, 100},
		UsageBasedAlertThresholds: []int{75, 90, 100},
		SpendingAlertThreshold:    1,
		Currency:                  "USD",
		BillingCycleBoundaryDay:   3,
	}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNew(t *testing.T) {
	state := app.NewState()
	m := New(state, nil, testConfig())
	if m == nil {
		t.Fatal("New returned nil")
	}
}

func TestModel_Init(t *testing.T) {
	state := app.NewState()
	m := New(state, nil, testConfig())
	if m.Init() == nil {
		t.Error("Init returned nil")
	}
}

func TestModel_CapturingInput(t *testing.T) {
	state := app.NewState()
	m := New(state, nil, testConfig())

	if m.CapturingInput() {
		t.Error("should not capture input at rest")
	}
	m.editing = true
	if !m.CapturingInput() {
		t.Error("should capture input while the form is open")
	}
	m.editing = false
	m.confirmReset = true
	if !m.CapturingInput() {
		t.Error("should capture input while confirming")
	}
}

func TestModel_OpenLimitForm(t *testing.T) {
	state := app.NewState()
	state.SetReport(&models.UsageReport{
		Limit: models.UsageLimit{HardLimitDollars: 50},
	})
	m := New(state, nil, testConfig())

	_, cmd := m.Update(keyRune('l'))
	if !m.editing {
		t.Fatal("l should open the limit form")
	}
	if cmd == nil {
		t.Error("opening the form should start the cursor blink")
	}
	if got := m.limitInput.Value(); got != "50.00" {
		t.Errorf("input seeded with %q, want 50.00", got)
	}
	if m.focusedField != fieldLimit {
		t.Errorf("focus = %v, want the limit field", m.focusedField)
	}
}

func TestModel_OpenLimitForm_Disabled(t *testing.T) {
	state := app.NewState()
	state.SetReport(&models.UsageReport{
		Limit: models.UsageLimit{NoUsageBasedAllowed: true},
	})
	m := New(state, nil, testConfig())

	m.Update(keyRune('l'))
	if !m.noUsageBased {
		t.Error("checkbox should mirror the disabled state")
	}
	if got := m.limitInput.Value(); got != "" {
		t.Errorf("input should stay empty, got %q", got)
	}
}

func TestModel_FormNavigation(t *testing.T) {
	state := app.NewState()
	m := New(state, nil, testConfig())
	m.Update(keyRune('l'))

	want := []formField{fieldDisable, fieldSubmit, fieldCancel, fieldLimit}
	for _, expected := range want {
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		if m.focusedField != expected {
			t.Fatalf("after tab, focus = %v, want %v", m.focusedField, expected)
		}
	}

	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.focusedField != fieldCancel {
		t.Errorf("after shift+tab, focus = %v, want cancel", m.focusedField)
	}
}

func TestModel_FormToggleDisable(t *testing.T) {
	state := app.NewState()
	m := New(state, nil, testConfig())
	m.Update(keyRune('l'))

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.focusedField != fieldDisable {
		t.Fatalf("focus = %v, want the disable checkbox", m.focusedField)
	}

	m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !m.noUsageBased {
		t.Error("space should toggle the checkbox on")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.noUsageBased {
		t.Error("enter should toggle the checkbox off again")
	}
}

func TestModel_FormCancel(t *testing.T) {
	state := app.NewState()
	m := New(state, nil, testConfig())

	m.Update(keyRune('l'))
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.editing {
		t.Error("esc should close the form")
	}

	m.Update(keyRune('l'))
	m.focusedField = fieldCancel
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.editing {
		t.Error("enter on cancel should close the form")
	}
}

func TestModel_FormTyping(t *testing.T) {
	state := app.NewState()
	m := New(state, nil, testConfig())
	m.Update(keyRune('l'))

	for _, r := range "25.50" {
		m.Update(keyRune(r))
	}
	if got := m.limitInput.Value(); got != "25.50" {
		t.Errorf("input = %q, want 25.50", got)
	}
}

func TestModel_SubmitValidation(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		disable     bool
		wantClosed  bool
		wantErrText string
	}{
		{
			name:        "empty input",
			input:       "",
			wantClosed:  false,
			wantErrText: "positive limit",
		},
		{
			name:        "garbage input",
			input:       "abc",
			wantClosed:  false,
			wantErrText: "dollar amount",
		},
		{
			name:       "valid amount",
			input:      "25.50",
			wantClosed: true,
		},
		{
			name:       "dollar prefix",
			input:      "$30",
			wantClosed: true,
		},
		{
			name:       "disable without amount",
			input:      "",
			disable:    true,
			wantClosed: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			state := app.NewState()
			m := New(state, nil, testConfig())
			m.Update(keyRune('l'))
			m.limitInput.SetValue(tc.input)
			m.noUsageBased = tc.disable
			m.focusedField = fieldSubmit

			_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

			if m.editing == tc.wantClosed {
				t.Errorf("editing = %v, want closed=%v", m.editing, tc.wantClosed)
			}
			if cmd == nil {
				t.Fatal("submit should always produce a command")
			}
			if tc.wantErrText != "" {
				msg, ok := cmd().(app.AddNotificationMsg)
				if !ok || msg.Type != app.NotificationError {
					t.Fatalf("expected an error notification, got %T", cmd())
				}
				if !strings.Contains(msg.Message, tc.wantErrText) {
					t.Errorf("error %q should mention %q", msg.Message, tc.wantErrText)
				}
			}
		})
	}
}

func TestModel_ResetConfirm(t *testing.T) {
	state := app.NewState()
	m := New(state, nil, testConfig())

	m.Update(keyRune('x'))
	if !m.confirmReset {
		t.Fatal("x should open the reset confirmation")
	}

	m.Update(keyRune('n'))
	if m.confirmReset {
		t.Error("n should cancel the confirmation")
	}

	m.Update(keyRune('x'))
	_, cmd := m.Update(keyRune('y'))
	if m.confirmReset {
		t.Error("y should close the confirmation")
	}
	if cmd == nil {
		t.Error("y should issue the reset command")
	}
}

func TestModel_View(t *testing.T) {
	state := app.NewState()
	state.SetReport(&models.UsageReport{
		Limit: models.UsageLimit{HardLimitDollars: 50},
	})
	m := New(state, nil, testConfig())
	m.SetSize(100, 60)

	view := m.View()
	for _, want := range []string{
		"Settings",
		"Spending Limit",
		"$50.00",
		"Alerts",
		"75, 90, 100%",
		"Configuration",
		"About Cursor Stats",
	} {
		if !strings.Contains(view, want) {
			t.Logf("View content: %q", view)
			t.Errorf("View should contain %q", want)
		}
	}
}

func TestModel_View_Form(t *testing.T) {
	state := app.NewState()
	m := New(state, nil, testConfig())
	m.SetSize(100, 40)
	m.Update(keyRune('l'))

	view := m.View()
	if !strings.Contains(view, "Set Spending Limit") {
		t.Error("View should show the form title")
	}
	if !strings.Contains(view, "Disable usage-based pricing") {
		t.Error("View should show the disable checkbox")
	}
}

func TestModel_View_ResetConfirm(t *testing.T) {
	state := app.NewState()
	m := New(state, nil, testConfig())
	m.SetSize(100, 40)
	m.Update(keyRune('x'))

	view := m.View()
	if !strings.Contains(view, "Reset fired alerts?") {
		t.Error("View should show the confirmation dialog")
	}
}

func TestModel_SetSize(t *testing.T) {
	state := app.NewState()
	m := New(state, nil, testConfig())
	m.SetSize(100, 50)
	if m.width != 100 || m.height != 50 {
		t.Errorf("SetSize not applied: %dx%d", m.width, m.height)
	}
}

func TestModel_Help(t *testing.T) {
	state := app.NewState()
	m := New(state, nil, testConfig())
	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}

	m.editing = true
	if len(m.ShortHelp()) != 3 {
		t.Error("form help should show form bindings")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}

func TestFormatThresholds(t *testing.T) {
	if got := formatThresholds(nil); got != "off" {
		t.Errorf("formatThresholds(nil) = %q, want off", got)
	}
	if got := formatThresholds([]int{10, 30}); got != "10, 30%" {
		t.Errorf("formatThresholds = %q", got)
	}
}

func TestOnOff(t *testing.T) {
	if onOff(true) != "on" || onOff(false) != "off" {
		t.Error("onOff mapping wrong")
	}
}
