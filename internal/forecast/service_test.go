package forecast

import (
	"testing"
	"time"

	"github.com/Dwtexe/cursor-stats/internal/models"
)

var august = models.BillingPeriod{Month: 8, Year: 2026}

func snapshotsOverDays(days int, latestTotal int64) []models.Snapshot {
	var out []models.Snapshot
	for i := 0; i < days; i++ {
		out = append(out, models.Snapshot{
			TakenAt:    time.Date(2026, 8, 1+i, 12, 0, 0, 0, time.UTC),
			Month:      8,
			Year:       2026,
			TotalCents: latestTotal * int64(i+1) / int64(days),
		})
	}
	return out
}

func TestBuild_ProjectsFromBurnRate(t *testing.T) {
	now := time.Date(2026, 8, 10, 15, 0, 0, 0, time.UTC)
	fc := build(august, snapshotsOverDays(5, 5000), 200, now)

	if fc.DaysElapsed != 10 || fc.DaysRemaining != 21 {
		t.Errorf("day math wrong: elapsed=%d remaining=%d", fc.DaysElapsed, fc.DaysRemaining)
	}
	if fc.DailyRateCents != 500 {
		t.Errorf("daily rate = %d, want 500", fc.DailyRateCents)
	}
	if fc.ProjectedCents != 15500 {
		t.Errorf("projected = %d, want 15500", fc.ProjectedCents)
	}
	if fc.Status != models.ForecastWarning {
		t.Errorf("status = %s, want WARNING at 77.5%% of limit", fc.Status)
	}
	if fc.Confidence != "medium" {
		t.Errorf("confidence = %s, want medium with 5 covered days", fc.Confidence)
	}
}

func TestBuild_CriticalWhenProjectionExceedsLimit(t *testing.T) {
	now := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	fc := build(august, snapshotsOverDays(5, 10000), 200, now)

	if fc.Status != models.ForecastCritical {
		t.Errorf("status = %s, want CRITICAL", fc.Status)
	}
	if fc.PercentOfLimit < 150 {
		t.Errorf("percent of limit = %v", fc.PercentOfLimit)
	}
}

func TestBuild_CriticalWhenAlreadyOverLimit(t *testing.T) {
	// On the last day the floored daily rate can project a hair under the
	// limit even though the actual total already reached it.
	now := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	snapshots := []models.Snapshot{
		{TakenAt: time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC), Month: 8, Year: 2026, TotalCents: 20000},
	}
	fc := build(august, snapshots, 200, now)

	if fc.ProjectedCents >= fc.LimitCents {
		t.Fatalf("test premise broken: projected %d should floor under limit %d", fc.ProjectedCents, fc.LimitCents)
	}
	if fc.Status != models.ForecastCritical {
		t.Errorf("status = %s, want CRITICAL when spend reached the limit", fc.Status)
	}
}

func TestBuild_SafeUnderLimit(t *testing.T) {
	now := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	fc := build(august, snapshotsOverDays(10, 2000), 200, now)

	if fc.Status != models.ForecastSafe {
		t.Errorf("status = %s, want SAFE", fc.Status)
	}
	if fc.Confidence != "high" {
		t.Errorf("confidence = %s, want high with 10 covered days", fc.Confidence)
	}
}

func TestBuild_UnknownWithoutHistory(t *testing.T) {
	now := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	fc := build(august, nil, 200, now)

	if fc.Status != models.ForecastUnknown {
		t.Errorf("status = %s, want UNKNOWN", fc.Status)
	}
	if fc.ProjectedCents != 0 || fc.DailyRateCents != 0 {
		t.Errorf("empty history should not project: %+v", fc)
	}
}

func TestBuild_UnknownWithoutLimit(t *testing.T) {
	now := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	fc := build(august, snapshotsOverDays(5, 5000), 0, now)

	if fc.Status != models.ForecastUnknown {
		t.Errorf("status = %s, want UNKNOWN with no limit to compare", fc.Status)
	}
	if fc.ProjectedCents == 0 {
		t.Error("projection should still be computed without a limit")
	}
}

func TestBuild_LowConfidenceEarly(t *testing.T) {
	now := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	fc := build(august, snapshotsOverDays(2, 400), 200, now)

	if fc.Confidence != "low" {
		t.Errorf("confidence = %s, want low with 2 covered days", fc.Confidence)
	}
}

func TestElapsedDays_Clamping(t *testing.T) {
	daysInAugust := daysIn(august)
	if daysInAugust != 31 {
		t.Fatalf("daysIn(august) = %d", daysInAugust)
	}

	before := time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)
	if got := elapsedDays(august, before, daysInAugust); got != 1 {
		t.Errorf("before period start = %d, want 1", got)
	}

	after := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	if got := elapsedDays(august, after, daysInAugust); got != 31 {
		t.Errorf("after period end = %d, want 31", got)
	}
}
