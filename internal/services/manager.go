// Package services provides service orchestration for the TUI.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dwtexe/cursor-stats/internal/billing"
	"github.com/Dwtexe/cursor-stats/internal/config"
	"github.com/Dwtexe/cursor-stats/internal/creds"
	"github.com/Dwtexe/cursor-stats/internal/cursor"
	"github.com/Dwtexe/cursor-stats/internal/db"
	"github.com/Dwtexe/cursor-stats/internal/forecast"
	"github.com/Dwtexe/cursor-stats/internal/logger"
	"github.com/Dwtexe/cursor-stats/internal/models"
	"github.com/Dwtexe/cursor-stats/internal/notify"
	"github.com/Dwtexe/cursor-stats/internal/services/usage"
)

// Snapshot history older than this is pruned at startup.
const historyRetentionDays = 365

type (
	// ReportUpdatedEvent is emitted when a poll cycle produced a fresh report.
	ReportUpdatedEvent struct {
		Report *models.UsageReport
	}

	// RefreshingEvent is emitted when a poll cycle starts.
	RefreshingEvent struct{}

	// SignedOutEvent is emitted when no session credential is available.
	SignedOutEvent struct{}

	// AlertsFiredEvent carries threshold alerts raised by an applied cycle.
	AlertsFiredEvent struct {
		Alerts []notify.Alert
	}

	// ForecastUpdatedEvent is emitted when the spend projection was recomputed.
	ForecastUpdatedEvent struct {
		Forecast *models.SpendForecast
	}

	// RatesLoadedEvent is emitted once the exchange rate table arrived and
	// amounts can render in the configured currency.
	RatesLoadedEvent struct {
		Currency string
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

func (ReportUpdatedEvent) isServiceEvent()   {}
func (RefreshingEvent) isServiceEvent()      {}
func (SignedOutEvent) isServiceEvent()       {}
func (AlertsFiredEvent) isServiceEvent()     {}
func (ForecastUpdatedEvent) isServiceEvent() {}
func (RatesLoadedEvent) isServiceEvent()     {}
func (ErrorEvent) isServiceEvent()           {}

// Manager orchestrates services and event routing.
type Manager struct {
	mu          sync.RWMutex
	cfg         *config.Config
	store       *creds.Store
	watcher     *creds.Watcher
	client      *cursor.Client
	usage       *usage.Service
	tracker     *notify.Tracker
	forecast    *forecast.Service
	database    *db.DB
	converter   *billing.Converter
	eventChan   chan ServiceEvent
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent
}

// NewManager creates a new service manager.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg:       cfg,
		eventChan: make(chan ServiceEvent, 100),
		stopChan:  make(chan struct{}),
		converter: billing.NewConverter(nil, cfg.Currency),
	}

	var err error
	m.database, err = db.New(cfg.SnapshotDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	m.store = creds.NewStore(cfg.StateDBPath)
	m.client = cursor.NewClient()
	m.forecast = forecast.New(m.database)
	m.tracker = notify.NewTracker(trackerConfig(cfg))

	m.usage = usage.New(m.client, m.store, m.database, m.tracker, usage.Config{
		Interval:    cfg.RefreshInterval,
		BoundaryDay: cfg.BillingCycleBoundaryDay,
		TeamID:      cfg.TeamID,
	})

	// The watcher only accelerates sign-in detection; polling still reads
	// the credential every cycle, so a watch failure is not fatal.
	m.watcher, err = creds.NewWatcher(m.store)
	if err != nil {
		logger.Warn("credential watcher unavailable", "error", err)
		m.watcher = nil
	}

	go m.routeEvents()
	go m.loadRates()
	go m.pruneHistory()

	return m, nil
}

// trackerConfig maps alert settings onto tracker thresholds. Disabled
// alerts produce an empty config, which silences every axis.
func trackerConfig(cfg *config.Config) notify.Config {
	if !cfg.EnableAlerts {
		return notify.Config{}
	}
	return notify.Config{
		PremiumThresholds:    cfg.UsageAlertThresholds,
		UsageBasedThresholds: cfg.UsageBasedAlertThresholds,
		SpendingStep:         cfg.SpendingAlertThreshold,
	}
}

// routeEvents routes events from individual services to subscribers.
func (m *Manager) routeEvents() {
	var credEvents <-chan creds.Event
	if m.watcher != nil {
		credEvents = m.watcher.Events()
	}

	for {
		select {
		case event := <-m.usage.Events():
			m.handleUsageEvent(event)

		case event := <-credEvents:
			m.handleCredentialEvent(event)

		case <-m.stopChan:
			return
		}
	}
}

func (m *Manager) handleUsageEvent(event usage.Event) {
	switch event.Type {
	case usage.EventRefreshing:
		m.broadcast(RefreshingEvent{})

	case usage.EventReportUpdated:
		m.broadcast(ReportUpdatedEvent{Report: event.Report})
		if event.Report != nil {
			go m.updateForecast(event.Report)
		}

	case usage.EventAlertsFired:
		m.handleAlerts(event.Alerts)

	case usage.EventNotSignedIn:
		m.broadcast(SignedOutEvent{})

	case usage.EventDegraded:
		m.broadcast(ErrorEvent{
			Service: "usage",
			Error:   event.Err,
		})
	}
}

func (m *Manager) handleCredentialEvent(event creds.Event) {
	switch event.Type {
	case creds.EventCredentialsChanged:
		m.usage.Refresh()

	case creds.EventError:
		m.broadcast(ErrorEvent{
			Service: "credentials",
			Error:   event.Error,
		})
	}
}

// handleAlerts records fired alerts, delivers them through the sink chain
// and hands them to subscribers for in-app display.
func (m *Manager) handleAlerts(alerts []notify.Alert) {
	if len(alerts) == 0 {
		return
	}

	sinks := m.sinks()
	for _, alert := range alerts {
		record := &models.AlertRecord{
			FiredAt:   time.Now(),
			Axis:      alert.Axis,
			Threshold: alert.Threshold,
			Message:   alert.Message,
		}
		if err := m.database.InsertAlert(record); err != nil {
			logger.Error("failed to record alert", "axis", string(alert.Axis), "error", err)
		}
		notify.Dispatch(alert, sinks...)
	}

	m.broadcast(AlertsFiredEvent{Alerts: alerts})
}

// sinks returns the delivery chain in preference order.
func (m *Manager) sinks() []notify.Sink {
	if m.cfg.DesktopNotifications {
		return []notify.Sink{notify.DesktopSink{}, notify.LogSink{}}
	}
	return []notify.Sink{notify.LogSink{}}
}

// updateForecast recomputes the spend projection from the snapshot history
// backing the report's billing period.
func (m *Manager) updateForecast(report *models.UsageReport) {
	if report.Current == nil {
		return
	}

	fc, err := m.forecast.Calculate(report.Current.Period, report.Limit.HardLimitDollars, time.Now())
	if err != nil {
		logger.Warn("forecast update failed", "error", err)
		return
	}

	m.broadcast(ForecastUpdatedEvent{Forecast: fc})
}

// loadRates fetches the exchange rate table once at startup. Until it
// arrives, and whenever it is unavailable, amounts render in USD.
func (m *Manager) loadRates() {
	if m.cfg.Currency == "" || m.cfg.Currency == "USD" {
		return
	}

	rates, err := cursor.FetchExchangeRates(context.Background())
	if err != nil {
		logger.Warn("exchange rates unavailable, amounts shown in USD", "error", err)
		return
	}

	conv := billing.NewConverter(billing.StaticRates(rates), m.cfg.Currency)

	m.mu.Lock()
	m.converter = conv
	m.mu.Unlock()

	m.broadcast(RatesLoadedEvent{Currency: conv.Currency()})
}

// pruneHistory drops snapshot and alert rows past the retention window.
func (m *Manager) pruneHistory() {
	pruned, err := m.database.PruneBefore(historyRetentionDays)
	if err != nil {
		logger.Warn("history prune failed", "error", err)
		return
	}
	if pruned > 0 {
		logger.Info("pruned old history rows", "rows", pruned)
	}
}

// broadcast sends an event to all subscribers.
func (m *Manager) broadcast(event ServiceEvent) {
	// Send to main event channel
	select {
	case m.eventChan <- event:
	default:
	}

	// Send to subscribers
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber channel full, skip
		}
	}
}

// Events returns the main event stream for headless consumers. The stream
// is lossy when nobody drains it; the TUI subscribes instead.
func (m *Manager) Events() <-chan ServiceEvent {
	return m.eventChan
}

// Subscribe creates a channel for receiving service events.
// Returns a tea.Cmd that can be used in Bubble Tea's Init or Update.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, waitForEvent(ch)
}

// waitForEvent returns a tea.Cmd that waits for the next event.
func waitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return waitForEvent(ch)
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

// Report returns the most recent usage report, nil before the first
// successful cycle or while signed out.
func (m *Manager) Report() *models.UsageReport {
	return m.usage.Report()
}

// Forecast returns the most recently computed spend projection, nil before
// the first one.
func (m *Manager) Forecast() *models.SpendForecast {
	return m.forecast.Cached()
}

// Converter returns the currency converter for rendering amounts.
func (m *Manager) Converter() *billing.Converter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.converter
}

// Config returns the loaded configuration.
func (m *Manager) Config() *config.Config {
	return m.cfg
}

// Refresh forces a poll cycle outside the regular interval.
func (m *Manager) Refresh() {
	m.usage.Refresh()
}

// Pause suspends timer-driven polling while the terminal is unfocused.
func (m *Manager) Pause() {
	m.usage.Pause()
}

// Resume re-enables polling and triggers an immediate catch-up cycle.
func (m *Manager) Resume() {
	m.usage.Resume()
}

// SetHardLimit updates the account's usage-based spending limit and
// re-arms the alert thresholds against the new denominator.
func (m *Manager) SetHardLimit(ctx context.Context, hardLimitDollars float64, noUsageBased bool) error {
	session, err := m.store.Session(ctx)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	if err := m.client.SetUsageLimit(ctx, session, hardLimitDollars, noUsageBased); err != nil {
		return err
	}

	m.ResetAlerts()
	m.usage.Refresh()
	return nil
}

// ResetAlerts clears all notified thresholds, e.g. after alert settings
// changed.
func (m *Manager) ResetAlerts() {
	m.tracker.Reset()
}

// RecentAlerts returns the latest persisted alerts, newest first.
func (m *Manager) RecentAlerts(limit int) ([]models.AlertRecord, error) {
	return m.database.RecentAlerts(limit)
}

// DailyUsage returns per-day usage rollups for the last days of history.
func (m *Manager) DailyUsage(days int) ([]models.DailyUsage, error) {
	return m.database.DailyUsage(days)
}

// Usage returns the usage poll service.
func (m *Manager) Usage() *usage.Service {
	return m.usage
}

// Database returns the database instance for direct access.
func (m *Manager) Database() *db.DB {
	return m.database
}

// InitialState returns the current report and forecast for TUI
// initialization.
func (m *Manager) InitialState() (*models.UsageReport, *models.SpendForecast) {
	return m.Report(), m.Forecast()
}

// Close closes the manager and all its services.
func (m *Manager) Close() error {
	if m.stopChan != nil {
		close(m.stopChan)
	}

	m.mu.Lock()
	for _, sub := range m.subscribers {
		close(sub)
	}
	m.subscribers = nil
	m.mu.Unlock()

	var errs []error

	if m.watcher != nil {
		if err := m.watcher.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if m.usage != nil {
		if err := m.usage.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if m.database != nil {
		if err := m.database.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
