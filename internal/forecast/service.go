// Package forecast projects month-end usage-based spend from snapshot
// history. Projections feed the dashboard only; threshold alerts always
// run on actual readings.
package forecast

import (
	"fmt"
	"sync"
	"time"

	"github.com/Dwtexe/cursor-stats/internal/db"
	"github.com/Dwtexe/cursor-stats/internal/models"
)

const (
	lowConfThreshold = 3
	medConfThreshold = 7

	warningPercent  = 75
	criticalPercent = 100
)

type Service struct {
	mu    sync.RWMutex
	db    *db.DB
	cache *models.SpendForecast
}

func New(database *db.DB) *Service {
	return &Service{db: database}
}

// Calculate builds a forecast for the billing period from its persisted
// snapshots and caches it for the UI.
func (s *Service) Calculate(period models.BillingPeriod, limitDollars float64, now time.Time) (*models.SpendForecast, error) {
	snapshots, err := s.db.SnapshotsForPeriod(period.Month, period.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to load period snapshots: %w", err)
	}

	fc := build(period, snapshots, limitDollars, now)

	s.mu.Lock()
	s.cache = fc
	s.mu.Unlock()

	return fc, nil
}

// Cached returns the last calculated forecast, or nil before the first
// calculation.
func (s *Service) Cached() *models.SpendForecast {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache
}

func build(period models.BillingPeriod, snapshots []models.Snapshot, limitDollars float64, now time.Time) *models.SpendForecast {
	fc := &models.SpendForecast{
		GeneratedAt: now,
		Status:      models.ForecastUnknown,
		Confidence:  "low",
		LimitCents:  int64(limitDollars * 100),
		DataPoints:  len(snapshots),
	}

	daysInPeriod := daysIn(period)
	fc.DaysElapsed = elapsedDays(period, now, daysInPeriod)
	fc.DaysRemaining = daysInPeriod - fc.DaysElapsed

	if len(snapshots) == 0 {
		return fc
	}

	days := coveredDays(snapshots)
	if days >= medConfThreshold {
		fc.Confidence = "high"
	} else if days >= lowConfThreshold {
		fc.Confidence = "medium"
	}

	// Totals are cumulative within the period, so the latest reading over
	// elapsed days is the observed burn rate.
	latest := snapshots[len(snapshots)-1]
	fc.DailyRateCents = latest.TotalCents / int64(fc.DaysElapsed)
	fc.ProjectedCents = fc.DailyRateCents * int64(daysInPeriod)

	if fc.LimitCents <= 0 {
		return fc
	}

	fc.PercentOfLimit = float64(fc.ProjectedCents) / float64(fc.LimitCents) * 100

	switch {
	case fc.PercentOfLimit >= criticalPercent || latest.TotalCents >= fc.LimitCents:
		fc.Status = models.ForecastCritical
	case fc.PercentOfLimit >= warningPercent:
		fc.Status = models.ForecastWarning
	default:
		fc.Status = models.ForecastSafe
	}

	return fc
}

func daysIn(period models.BillingPeriod) int {
	first := time.Date(period.Year, time.Month(period.Month), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, 1, -1).Day()
}

// elapsedDays counts period days up to now, clamped to [1, daysInPeriod]
// so rates never divide by zero.
func elapsedDays(period models.BillingPeriod, now time.Time, daysInPeriod int) int {
	first := time.Date(period.Year, time.Month(period.Month), 1, 0, 0, 0, 0, time.UTC)
	switch {
	case now.Before(first):
		return 1
	case now.Year() == period.Year && int(now.Month()) == period.Month:
		return now.Day()
	default:
		return daysInPeriod
	}
}

func coveredDays(snapshots []models.Snapshot) int {
	seen := make(map[string]struct{}, len(snapshots))
	for _, s := range snapshots {
		seen[s.TakenAt.Format("2006-01-02")] = struct{}{}
	}
	return len(seen)
}
