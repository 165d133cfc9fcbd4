// Package usage drives the polling cycle: read the session, fetch billing
// data, aggregate it, persist a snapshot, evaluate thresholds, publish.
package usage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Dwtexe/cursor-stats/internal/billing"
	"github.com/Dwtexe/cursor-stats/internal/creds"
	"github.com/Dwtexe/cursor-stats/internal/logger"
	"github.com/Dwtexe/cursor-stats/internal/models"
	"github.com/Dwtexe/cursor-stats/internal/notify"
)

// API is the billing endpoint surface one poll cycle needs.
type API interface {
	GetUsageLimit(ctx context.Context, session models.Session) (*models.UsageLimit, error)
	GetMonthlyInvoice(ctx context.Context, session models.Session, period models.BillingPeriod) (*models.Invoice, error)
	GetPremiumUsage(ctx context.Context, session models.Session) (models.PremiumUsage, error)
	GetTeamMemberID(ctx context.Context, session models.Session, teamID int) (int, error)
	GetTeamPremiumUsage(ctx context.Context, session models.Session, teamID, memberID int) (models.PremiumUsage, error)
}

// SessionSource reads the current editor credential.
type SessionSource interface {
	Session(ctx context.Context) (models.Session, error)
}

// SnapshotStore persists one reading per applied cycle.
type SnapshotStore interface {
	InsertSnapshot(*models.Snapshot) error
}

// Event is a usage service event.
type Event struct {
	Report *models.UsageReport
	Alerts []notify.Alert
	Err    error
	Type   EventType
}

// EventType defines the type of usage event.
type EventType int

const (
	// EventReportUpdated indicates a fresh usage report was applied.
	EventReportUpdated EventType = iota
	// EventRefreshing indicates a poll cycle has started.
	EventRefreshing
	// EventNotSignedIn indicates no session token was readable this cycle.
	EventNotSignedIn
	// EventDegraded indicates the cycle failed; the previous report stands.
	EventDegraded
	// EventAlertsFired carries threshold alerts raised by an applied cycle.
	EventAlertsFired
)

// Config holds configuration for the usage service.
type Config struct {
	Interval    time.Duration
	BoundaryDay int
	TeamID      int
}

// Service polls the billing API on a timer and publishes reports. Cycles
// may overlap when a manual refresh lands while a timer cycle is still in
// flight; every cycle carries a sequence number and only a result newer
// than the last applied one is kept.
type Service struct {
	api      API
	sessions SessionSource
	store    SnapshotStore
	tracker  *notify.Tracker

	config    Config
	eventChan chan Event
	stopChan  chan struct{}
	kickChan  chan struct{}

	cycleSeq atomic.Uint64

	mu             sync.RWMutex
	lastReport     *models.UsageReport
	lastAppliedSeq uint64
	paused         bool
	teamMemberID   int
}

// New creates a usage service and starts its polling goroutine.
func New(api API, sessions SessionSource, store SnapshotStore, tracker *notify.Tracker, config Config) *Service {
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}

	s := &Service{
		api:       api,
		sessions:  sessions,
		store:     store,
		tracker:   tracker,
		config:    config,
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
		kickChan:  make(chan struct{}, 1),
	}

	go s.poll()

	return s
}

// Events returns the event channel.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Report returns a copy of the last applied report, or nil when none
// exists (startup, signed out).
func (s *Service) Report() *models.UsageReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastReport == nil {
		return nil
	}
	clone := s.lastReport.Clone()
	return &clone
}

// Refresh requests an immediate poll cycle without waiting for the timer.
func (s *Service) Refresh() {
	select {
	case s.kickChan <- struct{}{}:
	default:
	}
}

// Pause stops timer-driven cycles while the terminal is backgrounded.
// Manual refreshes still work.
func (s *Service) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
	logger.Debug("usage polling paused")
}

// Resume reenables timer cycles and refreshes immediately.
func (s *Service) Resume() {
	s.mu.Lock()
	wasPaused := s.paused
	s.paused = false
	s.mu.Unlock()

	if wasPaused {
		logger.Debug("usage polling resumed")
		s.Refresh()
	}
}

func (s *Service) isPaused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused
}

// poll runs the background polling goroutine.
func (s *Service) poll() {
	go s.runCycle()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.isPaused() {
				continue
			}
			go s.runCycle()
		case <-s.kickChan:
			go s.runCycle()
		case <-s.stopChan:
			return
		}
	}
}

// runCycle performs one fetch-aggregate-apply pass.
func (s *Service) runCycle() {
	seq := s.cycleSeq.Add(1)
	ctx := context.Background()

	s.sendEvent(Event{Type: EventRefreshing})

	session, err := s.sessions.Session(ctx)
	if err != nil {
		if errors.Is(err, creds.ErrCredentialMissing) {
			s.applySignedOut(seq)
			return
		}
		logger.Error("failed to read session", "error", err)
		s.sendEvent(Event{Type: EventDegraded, Err: err})
		return
	}

	report, err := s.fetchReport(ctx, session)
	if err != nil {
		logger.Warn("poll cycle failed", "seq", seq, "error", err)
		s.sendEvent(Event{Type: EventDegraded, Err: err})
		return
	}

	s.apply(seq, report)
}

func (s *Service) fetchReport(ctx context.Context, session models.Session) (*models.UsageReport, error) {
	limit, err := s.api.GetUsageLimit(ctx, session)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	period := models.CurrentBillingPeriod(now, s.config.BoundaryDay)

	invoice, err := s.api.GetMonthlyInvoice(ctx, session, period)
	if err != nil {
		return nil, err
	}

	report := &models.UsageReport{
		LastUpdated: now,
		Limit:       *limit,
		Current:     billing.Aggregate(period, invoice.Items, invoice.Events),
		Membership:  session.Membership,
	}

	// The previous period is supplementary display data; losing it does
	// not fail the cycle.
	prevPeriod := period.Previous()
	if prev, err := s.api.GetMonthlyInvoice(ctx, session, prevPeriod); err != nil {
		logger.Warn("failed to fetch previous invoice", "error", err)
	} else {
		report.Previous = billing.Aggregate(prevPeriod, prev.Items, prev.Events)
	}

	premium, err := s.fetchPremium(ctx, session)
	if err != nil {
		return nil, err
	}
	report.Premium = premium

	return report, nil
}

func (s *Service) fetchPremium(ctx context.Context, session models.Session) (models.PremiumUsage, error) {
	if s.config.TeamID <= 0 {
		return s.api.GetPremiumUsage(ctx, session)
	}

	s.mu.RLock()
	memberID := s.teamMemberID
	s.mu.RUnlock()

	if memberID == 0 {
		id, err := s.api.GetTeamMemberID(ctx, session, s.config.TeamID)
		if err != nil {
			return models.PremiumUsage{}, err
		}
		s.mu.Lock()
		s.teamMemberID = id
		s.mu.Unlock()
		memberID = id
	}

	return s.api.GetTeamPremiumUsage(ctx, session, s.config.TeamID, memberID)
}

// apply installs a cycle's result unless a newer cycle already landed.
func (s *Service) apply(seq uint64, report *models.UsageReport) {
	s.mu.Lock()
	if seq <= s.lastAppliedSeq {
		s.mu.Unlock()
		logger.Debug("dropping result from superseded cycle", "seq", seq)
		return
	}
	s.lastAppliedSeq = seq
	s.lastReport = report
	s.mu.Unlock()

	s.persist(report)
	alerts := s.evaluate(report)

	s.sendEvent(Event{Type: EventReportUpdated, Report: report})
	if len(alerts) > 0 {
		s.sendEvent(Event{Type: EventAlertsFired, Report: report, Alerts: alerts})
	}
}

func (s *Service) applySignedOut(seq uint64) {
	s.mu.Lock()
	if seq <= s.lastAppliedSeq {
		s.mu.Unlock()
		return
	}
	s.lastAppliedSeq = seq
	s.lastReport = nil
	s.mu.Unlock()

	s.sendEvent(Event{Type: EventNotSignedIn})
}

func (s *Service) persist(report *models.UsageReport) {
	if s.store == nil || report.Current == nil {
		return
	}

	snapshot := &models.Snapshot{
		TakenAt:       report.LastUpdated,
		Month:         report.Current.Period.Month,
		Year:          report.Current.Period.Year,
		TotalCents:    report.Current.TotalCents,
		UnpaidCents:   report.Current.UnpaidCents(),
		MidMonthCents: report.Current.MidMonthCents,
		PremiumUsed:   report.Premium.Current,
		PremiumLimit:  report.Premium.Limit,
	}
	if err := s.store.InsertSnapshot(snapshot); err != nil {
		logger.Error("failed to persist snapshot", "error", err)
	}
}

// evaluate runs the threshold tracker over the applied report. Every
// applied cycle evaluates, even when the numbers did not move; the tracker
// itself is idempotent.
func (s *Service) evaluate(report *models.UsageReport) []notify.Alert {
	if s.tracker == nil {
		return nil
	}

	in := notify.Input{
		PremiumPercent:   report.Premium.Percent(),
		PremiumCurrent:   report.Premium.Current,
		PremiumLimit:     report.Premium.Limit,
		HardLimitDollars: report.Limit.HardLimitDollars,
	}
	if report.Current != nil {
		in.SpendDollars = float64(report.Current.TotalCents) / 100
		if report.Limit.HardLimitDollars > 0 && !report.Limit.NoUsageBasedAllowed {
			in.UsageBasedActive = true
			in.UsageBasedPercent = float64(report.Current.TotalCents) / (report.Limit.HardLimitDollars * 100) * 100
		}
	}

	return s.tracker.Evaluate(in)
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
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

// Close stops the service and cleans up resources.
func (s *Service) Close() error {
	close(s.stopChan)
	return nil
}
