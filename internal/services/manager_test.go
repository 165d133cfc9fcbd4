package services

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Dwtexe/cursor-stats/internal/config"
	"github.com/Dwtexe/cursor-stats/internal/creds"
	"github.com/Dwtexe/cursor-stats/internal/models"
	"github.com/Dwtexe/cursor-stats/internal/notify"
)

// makeStateDB creates an empty state database so the manager starts signed
// out instead of degraded, and never touches the network.
func makeStateDB(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "state.vscdb")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE ItemTable (key TEXT PRIMARY KEY, value TEXT)`); err != nil {
		t.Fatalf("create ItemTable: %v", err)
	}
	return path
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	tmpDir := t.TempDir()
	return &config.Config{
		StateDBPath:               makeStateDB(t, tmpDir),
		SnapshotDBPath:            filepath.Join(tmpDir, "usage.db"),
		RefreshInterval:           time.Hour,
		EnableAlerts:              true,
		UsageAlertThresholds:      []int{90},
		UsageBasedAlertThresholds: []int{75},
		SpendingAlertThreshold:    1,
		Currency:                  "USD",
		BillingCycleBoundaryDay:   3,
	}
}

func newTestManager(t *testing.T, cfg *config.Config) *Manager {
	t.Helper()
	mgr, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(func() {
		if err := mgr.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return mgr
}

// waitFor drains the subscription until an event of the wanted type
// arrives.
func waitFor[T ServiceEvent](t *testing.T, ch <-chan ServiceEvent) T {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				t.Fatal("subscription closed while waiting")
			}
			if typed, ok := event.(T); ok {
				return typed
			}
		case <-deadline:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func TestNewManager(t *testing.T) {
	mgr := newTestManager(t, newTestConfig(t))

	if mgr.Usage() == nil {
		t.Error("usage service should be initialized")
	}
	if mgr.Database() == nil {
		t.Error("database should be initialized")
	}
	if mgr.Converter() == nil {
		t.Error("converter should be initialized")
	}
	if mgr.Config() == nil {
		t.Error("config should be accessible")
	}
	if mgr.Report() != nil {
		t.Error("report should be nil before the first successful cycle")
	}
	if mgr.Forecast() != nil {
		t.Error("forecast should be nil before the first report")
	}
}

func TestManager_InitialState(t *testing.T) {
	mgr := newTestManager(t, newTestConfig(t))

	report, forecast := mgr.InitialState()
	if report != nil {
		t.Error("expected nil report at startup")
	}
	if forecast != nil {
		t.Error("expected nil forecast at startup")
	}
}

func TestManager_StartsSignedOut(t *testing.T) {
	mgr := newTestManager(t, newTestConfig(t))

	ch, _ := mgr.Subscribe()
	mgr.Refresh()

	waitFor[SignedOutEvent](t, ch)

	if mgr.Report() != nil {
		t.Error("report should stay nil while signed out")
	}
}

func TestManager_DegradedWhenStateDBUnavailable(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.StateDBPath = filepath.Join(t.TempDir(), "absent.vscdb")
	mgr := newTestManager(t, cfg)

	ch, _ := mgr.Subscribe()
	mgr.Refresh()

	event := waitFor[ErrorEvent](t, ch)
	if event.Service != "usage" {
		t.Errorf("ErrorEvent.Service = %q, want %q", event.Service, "usage")
	}
	if event.Error == nil {
		t.Error("ErrorEvent should carry the cycle error")
	}
}

func TestManager_Subscription(t *testing.T) {
	mgr := newTestManager(t, newTestConfig(t))

	ch, cmd := mgr.Subscribe()
	if ch == nil {
		t.Fatal("Subscribe returned nil channel")
	}
	if cmd == nil {
		t.Fatal("Subscribe returned nil command")
	}

	mgr.Unsubscribe(ch)

	// Buffered events may precede the close; drain until it lands.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after Unsubscribe")
		}
	}
}

func TestManager_Broadcast(t *testing.T) {
	mgr := newTestManager(t, newTestConfig(t))

	ch, _ := mgr.Subscribe()
	defer mgr.Unsubscribe(ch)

	// RatesLoadedEvent never occurs naturally with a USD config, so the
	// one below is unambiguously ours.
	mgr.broadcast(RatesLoadedEvent{Currency: "EUR"})

	event := waitFor[RatesLoadedEvent](t, ch)
	if event.Currency != "EUR" {
		t.Errorf("Currency = %q, want %q", event.Currency, "EUR")
	}
}

func TestManager_HandleAlerts(t *testing.T) {
	mgr := newTestManager(t, newTestConfig(t))

	ch, _ := mgr.Subscribe()

	alerts := []notify.Alert{
		{Axis: models.AxisPremium, Threshold: 90, Message: "Premium request usage has reached 90%"},
		{Axis: models.AxisSpending, Threshold: 5, Message: "Usage-based spending passed $5.00"},
	}
	mgr.handleAlerts(alerts)

	event := waitFor[AlertsFiredEvent](t, ch)
	if len(event.Alerts) != 2 {
		t.Fatalf("broadcast %d alerts, want 2", len(event.Alerts))
	}

	records, err := mgr.RecentAlerts(10)
	if err != nil {
		t.Fatalf("RecentAlerts failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("persisted %d alerts, want 2", len(records))
	}
	if records[0].Axis != models.AxisSpending && records[0].Axis != models.AxisPremium {
		t.Errorf("unexpected axis %q", records[0].Axis)
	}
	for _, rec := range records {
		if rec.Message == "" {
			t.Error("persisted alert lost its message")
		}
	}
}

func TestManager_HandleAlerts_Empty(t *testing.T) {
	mgr := newTestManager(t, newTestConfig(t))

	mgr.handleAlerts(nil)

	records, err := mgr.RecentAlerts(10)
	if err != nil {
		t.Fatalf("RecentAlerts failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no persisted alerts, got %d", len(records))
	}
}

func TestManager_CredentialChangeTriggersRefresh(t *testing.T) {
	mgr := newTestManager(t, newTestConfig(t))

	ch, _ := mgr.Subscribe()
	mgr.Refresh()
	waitFor[SignedOutEvent](t, ch)

	mgr.handleCredentialEvent(creds.Event{Type: creds.EventCredentialsChanged})

	// The refresh kicked by the credential change runs a full cycle.
	waitFor[RefreshingEvent](t, ch)
	waitFor[SignedOutEvent](t, ch)
}

func TestManager_CredentialErrorBroadcast(t *testing.T) {
	mgr := newTestManager(t, newTestConfig(t))

	ch, _ := mgr.Subscribe()

	wantErr := errors.New("watch failed")
	mgr.handleCredentialEvent(creds.Event{Type: creds.EventError, Error: wantErr})

	event := waitFor[ErrorEvent](t, ch)
	if event.Service != "credentials" {
		t.Errorf("ErrorEvent.Service = %q, want %q", event.Service, "credentials")
	}
	if !errors.Is(event.Error, wantErr) {
		t.Errorf("ErrorEvent.Error = %v, want %v", event.Error, wantErr)
	}
}

func TestTrackerConfig(t *testing.T) {
	cfg := &config.Config{
		EnableAlerts:              true,
		UsageAlertThresholds:      []int{50, 90},
		UsageBasedAlertThresholds: []int{75},
		SpendingAlertThreshold:    2.5,
	}

	got := trackerConfig(cfg)
	if len(got.PremiumThresholds) != 2 || got.PremiumThresholds[1] != 90 {
		t.Errorf("PremiumThresholds = %v", got.PremiumThresholds)
	}
	if len(got.UsageBasedThresholds) != 1 {
		t.Errorf("UsageBasedThresholds = %v", got.UsageBasedThresholds)
	}
	if got.SpendingStep != 2.5 {
		t.Errorf("SpendingStep = %v, want 2.5", got.SpendingStep)
	}

	cfg.EnableAlerts = false
	got = trackerConfig(cfg)
	if got.PremiumThresholds != nil || got.UsageBasedThresholds != nil || got.SpendingStep != 0 {
		t.Errorf("disabled alerts should produce an empty config, got %+v", got)
	}
}

func TestManager_SinksHonorDesktopSetting(t *testing.T) {
	mgr := &Manager{cfg: &config.Config{DesktopNotifications: false}}
	sinks := mgr.sinks()
	if len(sinks) != 1 {
		t.Fatalf("got %d sinks, want 1", len(sinks))
	}
	if _, ok := sinks[0].(notify.LogSink); !ok {
		t.Errorf("fallback sink is %T, want LogSink", sinks[0])
	}

	mgr.cfg.DesktopNotifications = true
	sinks = mgr.sinks()
	if len(sinks) != 2 {
		t.Fatalf("got %d sinks, want 2", len(sinks))
	}
	if _, ok := sinks[0].(notify.DesktopSink); !ok {
		t.Errorf("preferred sink is %T, want DesktopSink", sinks[0])
	}
}

func TestManager_ResetAlerts(t *testing.T) {
	mgr := newTestManager(t, newTestConfig(t))

	fired := mgr.tracker.Evaluate(notify.Input{
		PremiumPercent: 95,
		PremiumCurrent: 475,
		PremiumLimit:   500,
	})
	if len(fired) == 0 {
		t.Fatal("expected the 90% threshold to fire")
	}
	if len(mgr.tracker.NotifiedThresholds(models.AxisPremium)) == 0 {
		t.Fatal("expected notified thresholds before reset")
	}

	mgr.ResetAlerts()

	if got := mgr.tracker.NotifiedThresholds(models.AxisPremium); len(got) != 0 {
		t.Errorf("thresholds still notified after reset: %v", got)
	}
}

func TestManager_SetHardLimit_RequiresSession(t *testing.T) {
	mgr := newTestManager(t, newTestConfig(t))

	err := mgr.SetHardLimit(context.Background(), 100, false)
	if err == nil {
		t.Fatal("expected error while signed out")
	}
	if !errors.Is(err, creds.ErrCredentialMissing) {
		t.Errorf("error = %v, want ErrCredentialMissing", err)
	}
}

func TestManager_DailyUsagePassthrough(t *testing.T) {
	mgr := newTestManager(t, newTestConfig(t))

	snapshot := &models.Snapshot{
		TakenAt:    time.Now().UTC(),
		Month:      8,
		Year:       2026,
		TotalCents: 1234,
	}
	if err := mgr.Database().InsertSnapshot(snapshot); err != nil {
		t.Fatalf("InsertSnapshot failed: %v", err)
	}

	days, err := mgr.DailyUsage(7)
	if err != nil {
		t.Fatalf("DailyUsage failed: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("got %d days, want 1", len(days))
	}
	if days[0].TotalCents != 1234 {
		t.Errorf("TotalCents = %d, want 1234", days[0].TotalCents)
	}
}

func TestManager_Close(t *testing.T) {
	mgr, err := NewManager(newTestConfig(t))
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	ch, _ := mgr.Subscribe()

	if err := mgr.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscriber channel not closed by Close")
		}
	}
}

func TestWaitForEvent(t *testing.T) {
	ch := make(chan ServiceEvent, 1)
	ch <- RefreshingEvent{}

	cmd := WaitForEvent(ch)
	if msg := cmd(); msg == nil {
		t.Error("WaitForEvent cmd returned nil msg")
	}
}

func TestServiceEvent_Interface(t *testing.T) {
	var _ ServiceEvent = ReportUpdatedEvent{}
	var _ ServiceEvent = RefreshingEvent{}
	var _ ServiceEvent = SignedOutEvent{}
	var _ ServiceEvent = AlertsFiredEvent{}
	var _ ServiceEvent = ForecastUpdatedEvent{}
	var _ ServiceEvent = RatesLoadedEvent{}
	var _ ServiceEvent = ErrorEvent{}
}
