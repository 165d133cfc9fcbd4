package models

import (
	"testing"
	"time"
)

func TestTimeRange_String(t *testing.T) {
	tests := []struct {
		name string
		tr   TimeRange
		want string
	}{
		{"7Days", TimeRange7Days, "7 Days"},
		{"30Days", TimeRange30Days, "30 Days"},
		{"90Days", TimeRange90Days, "90 Days"},
		{"Unknown", TimeRange(999), "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.String(); got != tt.want {
				t.Errorf("TimeRange.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimeRange_Days(t *testing.T) {
	tests := []struct {
		name string
		tr   TimeRange
		want int
	}{
		{"7Days", TimeRange7Days, 7},
		{"30Days", TimeRange30Days, 30},
		{"90Days", TimeRange90Days, 90},
		{"Unknown", TimeRange(999), 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.Days(); got != tt.want {
				t.Errorf("TimeRange.Days() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimeRange_Next(t *testing.T) {
	tests := []struct {
		name string
		tr   TimeRange
		want TimeRange
	}{
		{"7Days -> 30Days", TimeRange7Days, TimeRange30Days},
		{"30Days -> 90Days", TimeRange30Days, TimeRange90Days},
		{"90Days -> 7Days", TimeRange90Days, TimeRange7Days},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.Next(); got != tt.want {
				t.Errorf("TimeRange.Next() = %v, want %v", got, tt.want)
			}
		})
	}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestSpendHistory_HasData(t *testing.T) {
	h := &SpendHistory{}
	if h.HasData() {
		t.Error("empty history should have no data")
	}
	h.Days = []DailyUsage{{Day: day(2025, 3, 1)}}
	if !h.HasData() {
		t.Error("history with one day should have data")
	}
}

func TestSpendHistory_DailySpendCents(t *testing.T) {
	tests := []struct {
		name string
		days []DailyUsage
		want []int64
	}{
		{
			name: "Empty",
			days: nil,
			want: []int64{},
		},
		{
			name: "Growing",
			days: []DailyUsage{
				{Day: day(2025, 3, 1), TotalCents: 100},
				{Day: day(2025, 3, 2), TotalCents: 250},
				{Day: day(2025, 3, 3), TotalCents: 250},
				{Day: day(2025, 3, 4), TotalCents: 400},
			},
			want: []int64{0, 150, 0, 150},
		},
		{
			name: "PeriodRollover",
			days: []DailyUsage{
				{Day: day(2025, 3, 30), TotalCents: 900},
				{Day: day(2025, 3, 31), TotalCents: 1000},
				{Day: day(2025, 4, 1), TotalCents: 50},
			},
			want: []int64{0, 100, 50},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &SpendHistory{Days: tt.days}
			got := h.DailySpendCents()
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("delta[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSpendHistory_DailyPremiumRequests(t *testing.T) {
	h := &SpendHistory{Days: []DailyUsage{
		{Day: day(2025, 3, 1), PremiumUsed: 100},
		{Day: day(2025, 3, 2), PremiumUsed: 130},
		{Day: day(2025, 3, 3), PremiumUsed: 5},
	}}
	got := h.DailyPremiumRequests()
	want := []int64{0, 30, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("delta[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSpendHistory_WindowSpendCents(t *testing.T) {
	h := &SpendHistory{Days: []DailyUsage{
		{Day: day(2025, 3, 1), TotalCents: 100},
		{Day: day(2025, 3, 2), TotalCents: 250},
		{Day: day(2025, 3, 3), TotalCents: 400},
	}}
	if got := h.WindowSpendCents(); got != 300 {
		t.Errorf("WindowSpendCents = %d, want 300", got)
	}
}

func TestSpendHistory_PeakSpendDay(t *testing.T) {
	h := &SpendHistory{}
	if _, _, ok := h.PeakSpendDay(); ok {
		t.Error("empty history should report no peak")
	}

	h.Days = []DailyUsage{
		{Day: day(2025, 3, 1), TotalCents: 100},
		{Day: day(2025, 3, 2), TotalCents: 600},
		{Day: day(2025, 3, 3), TotalCents: 700},
	}
	peakDay, peakVal, ok := h.PeakSpendDay()
	if !ok {
		t.Fatal("expected a peak day")
	}
	if !peakDay.Equal(day(2025, 3, 2)) {
		t.Errorf("peak day = %v, want Mar 2", peakDay)
	}
	if peakVal != 500 {
		t.Errorf("peak value = %d, want 500", peakVal)
	}
}

func TestSpendHistory_WeekdayAverages(t *testing.T) {
	// Mar 2 2025 is a Sunday, Mar 3 a Monday.
	h := &SpendHistory{Days: []DailyUsage{
		{Day: day(2025, 3, 2), TotalCents: 100},
		{Day: day(2025, 3, 3), TotalCents: 300},
		{Day: day(2025, 3, 9), TotalCents: 400},
		{Day: day(2025, 3, 10), TotalCents: 800},
	}}

	avgs, names := h.WeekdayAverages()
	if names[time.Sunday] != "Sun" || names[time.Monday] != "Mon" {
		t.Errorf("unexpected day names: %v", names)
	}
	// Mondays saw increments of 200 and 400.
	if avgs[time.Monday] != 300 {
		t.Errorf("Monday average = %v, want 300", avgs[time.Monday])
	}
	// Saturday never appears in the window.
	if avgs[time.Saturday] != 0 {
		t.Errorf("Saturday average = %v, want 0", avgs[time.Saturday])
	}
}
