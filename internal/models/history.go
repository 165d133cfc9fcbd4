// Package models defines data structures and domain types.
package models

import "time"

// TimeRange represents the selected history time range.
type TimeRange int

const (
	// TimeRange7Days shows data from the last 7 days.
	TimeRange7Days TimeRange = iota
	// TimeRange30Days shows data from the last 30 days.
	TimeRange30Days
	// TimeRange90Days shows data from the last 90 days.
	TimeRange90Days
)

// String returns the display name for a time range.
func (t TimeRange) String() string {
	switch t {
	case TimeRange7Days:
		return "7 Days"
	case TimeRange30Days:
		return "30 Days"
	case TimeRange90Days:
		return "90 Days"
	default:
		return "Unknown"
	}
}

// Days returns the number of days covered by the time range.
func (t TimeRange) Days() int {
	switch t {
	case TimeRange7Days:
		return 7
	case TimeRange30Days:
		return 30
	case TimeRange90Days:
		return 90
	default:
		return 30
	}
}

// Next cycles to the next time range.
func (t TimeRange) Next() TimeRange {
	return (t + 1) % 3
}

// SpendHistory bundles the daily snapshot rollups and fired alerts for one
// history window.
type SpendHistory struct {
	Days   []DailyUsage
	Alerts []AlertRecord
	Range  TimeRange
}

// HasData returns true if the window contains at least one day.
func (h *SpendHistory) HasData() bool {
	return len(h.Days) > 0
}

// DailySpendCents returns per-day spend increments. Totals within a billing
// period only grow, so the increment is the difference between consecutive
// days; a drop means the period rolled over and the day restarts from its
// own total. The first day has no baseline and reports zero.
func (h *SpendHistory) DailySpendCents() []int64 {
	deltas := make([]int64, len(h.Days))
	for i := 1; i < len(h.Days); i++ {
		d := h.Days[i].TotalCents - h.Days[i-1].TotalCents
		if d < 0 {
			d = h.Days[i].TotalCents
		}
		deltas[i] = d
	}
	return deltas
}

// DailyPremiumRequests returns per-day premium request increments, computed
// the same way as DailySpendCents.
func (h *SpendHistory) DailyPremiumRequests() []int64 {
	deltas := make([]int64, len(h.Days))
	for i := 1; i < len(h.Days); i++ {
		d := int64(h.Days[i].PremiumUsed - h.Days[i-1].PremiumUsed)
		if d < 0 {
			d = int64(h.Days[i].PremiumUsed)
		}
		deltas[i] = d
	}
	return deltas
}

// WindowSpendCents returns the total spend accumulated inside the window.
func (h *SpendHistory) WindowSpendCents() int64 {
	var total int64
	for _, d := range h.DailySpendCents() {
		total += d
	}
	return total
}

// PeakSpendDay returns the day with the highest spend increment. The bool is
// false when the window is empty.
func (h *SpendHistory) PeakSpendDay() (time.Time, int64, bool) {
	deltas := h.DailySpendCents()
	if len(deltas) == 0 {
		return time.Time{}, 0, false
	}
	peakIdx := 0
	for i, d := range deltas {
		if d > deltas[peakIdx] {
			peakIdx = i
		}
	}
	return h.Days[peakIdx].Day, deltas[peakIdx], true
}

// WeekdayAverages returns the average spend increment per weekday, indexed
// by time.Weekday (Sunday first), together with short day names.
func (h *SpendHistory) WeekdayAverages() ([]float64, []string) {
	sums := make([]float64, 7)
	counts := make([]int, 7)
	for i, d := range h.DailySpendCents() {
		wd := h.Days[i].Day.Weekday()
		sums[wd] += float64(d)
		counts[wd]++
	}

	avgs := make([]float64, 7)
	names := make([]string, 7)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		names[wd] = wd.String()[:3]
		if counts[wd] > 0 {
			avgs[wd] = sums[wd] / float64(counts[wd])
		}
	}
	return avgs, names
}
