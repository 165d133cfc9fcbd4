package models

import (
	"testing"
	"time"
)

func TestCurrentBillingPeriod(t *testing.T) {
	tests := []struct {
		name        string
		now         time.Time
		boundaryDay int
		want        BillingPeriod
	}{
		{
			name:        "AfterBoundary",
			now:         time.Date(2026, time.August, 25, 10, 0, 0, 0, time.UTC),
			boundaryDay: 3,
			want:        BillingPeriod{Month: 8, Year: 2026},
		},
		{
			name:        "OnBoundary",
			now:         time.Date(2026, time.August, 3, 0, 0, 0, 0, time.UTC),
			boundaryDay: 3,
			want:        BillingPeriod{Month: 8, Year: 2026},
		},
		{
			name:        "BeforeBoundary",
			now:         time.Date(2026, time.August, 2, 23, 59, 0, 0, time.UTC),
			boundaryDay: 3,
			want:        BillingPeriod{Month: 7, Year: 2026},
		},
		{
			name:        "JanuaryRollsToPreviousYear",
			now:         time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC),
			boundaryDay: 3,
			want:        BillingPeriod{Month: 12, Year: 2025},
		},
		{
			name:        "BoundaryDisabled",
			now:         time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC),
			boundaryDay: 0,
			want:        BillingPeriod{Month: 8, Year: 2026},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CurrentBillingPeriod(tt.now, tt.boundaryDay); got != tt.want {
				t.Errorf("CurrentBillingPeriod() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBillingPeriod_Previous(t *testing.T) {
	tests := []struct {
		name string
		p    BillingPeriod
		want BillingPeriod
	}{
		{"MidYear", BillingPeriod{Month: 8, Year: 2026}, BillingPeriod{Month: 7, Year: 2026}},
		{"January", BillingPeriod{Month: 1, Year: 2026}, BillingPeriod{Month: 12, Year: 2025}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Previous(); got != tt.want {
				t.Errorf("Previous() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBillingPeriod_Labels(t *testing.T) {
	p := BillingPeriod{Month: 8, Year: 2026}
	if got := p.Label(); got != "August 2026" {
		t.Errorf("Label() = %q, want %q", got, "August 2026")
	}
	if got := p.Key(); got != "2026-08" {
		t.Errorf("Key() = %q, want %q", got, "2026-08")
	}
}
