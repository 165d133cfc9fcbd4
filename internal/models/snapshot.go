// Package models defines data structures and domain types.
package models

import "time"

// Snapshot is a persisted point-in-time usage reading (DB model).
type Snapshot struct {
	TakenAt       time.Time
	ID            int64
	Month         int
	Year          int
	TotalCents    int64
	UnpaidCents   int64
	MidMonthCents int64
	PremiumUsed   int
	PremiumLimit  int
}

// DailyUsage is one day of snapshot history rolled up for charting.
// Cents values are the highest reading seen that day since totals only
// grow within a billing period.
type DailyUsage struct {
	Day         time.Time
	TotalCents  int64
	UnpaidCents int64
	PremiumUsed int
}

// AlertAxis names the threshold dimension an alert fired on.
type AlertAxis string

const (
	AxisPremium    AlertAxis = "premium"
	AxisUsageBased AlertAxis = "usage-based"
	AxisSpending   AlertAxis = "spending"
)

// AlertRecord is a persisted threshold alert (DB model).
type AlertRecord struct {
	FiredAt   time.Time
	Axis      AlertAxis
	Message   string
	ID        int64
	Threshold float64
}

// ForecastStatus indicates urgency of the projected month-end spend.
type ForecastStatus string

const (
	ForecastSafe     ForecastStatus = "SAFE"
	ForecastWarning  ForecastStatus = "WARNING"
	ForecastCritical ForecastStatus = "CRITICAL"
	ForecastUnknown  ForecastStatus = "UNKNOWN"
)

// SpendForecast projects the month-end usage-based spend from snapshot
// history. DailyRateCents is the observed average per day, ProjectedCents
// the estimate for the full period, LimitCents the hard limit (0 when
// unset). Confidence is "low", "medium" or "high" depending on how much
// history backs the projection. Forecasts only inform the dashboard;
// alerts stay driven by actuals.
type SpendForecast struct {
	GeneratedAt    time.Time
	Status         ForecastStatus
	Confidence     string
	DailyRateCents int64
	ProjectedCents int64
	LimitCents     int64
	PercentOfLimit float64
	DaysElapsed    int
	DaysRemaining  int
	DataPoints     int
}
