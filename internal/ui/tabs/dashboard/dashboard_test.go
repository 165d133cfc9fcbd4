package dashboard

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dwtexe/cursor-stats/internal/app"
	"github.com/Dwtexe/cursor-stats/internal/models"
)

func testReport() *models.UsageReport {
	return &models.UsageReport{
		LastUpdated: time.Now(),
		Premium: models.PremiumUsage{
			StartOfMonth: time.Now().AddDate(0, 0, -10),
			Current:      150,
			Limit:        500,
		},
		Current: &models.UsageSummary{
			TotalCents:    2500,
			MidMonthCents: 1000,
		},
		Limit: models.UsageLimit{HardLimitDollars: 50},
	}
}

func TestNew(t *testing.T) {
	state := app.NewState()
	m := New(state, nil, nil)
	if m == nil {
		t.Fatal("New returned nil")
	}
}

func TestModel_Init(t *testing.T) {
	state := app.NewState()
	m := New(state, nil, nil)
	if m.Init() == nil {
		t.Error("Init returned nil")
	}
}

func TestModel_Update(t *testing.T) {
	state := app.NewState()
	m := New(state, nil, nil)

	updated, cmd := m.Update(nil)
	if updated == nil {
		t.Error("Update returned nil model")
	}
	_ = cmd
}

func TestModel_View_Loading(t *testing.T) {
	state := app.NewState()
	m := New(state, nil, nil)
	m.SetSize(80, 24)

	view := m.View()
	if view == "" {
		t.Error("View returned empty string while loading")
	}
}

func TestModel_View_SignedOut(t *testing.T) {
	state := app.NewState()
	state.SetLoading("initial", false)
	state.SetSignedOut(true)
	m := New(state, nil, nil)
	m.SetSize(80, 24)

	view := m.View()
	if !strings.Contains(view, "Signed out") {
		t.Logf("View content: %q", view)
		t.Error("View should mention the signed-out state")
	}
	if !strings.Contains(view, "press r") {
		t.Error("View should tell the user how to retry")
	}
}

func TestModel_View_Pending(t *testing.T) {
	state := app.NewState()
	state.SetLoading("initial", false)
	m := New(state, nil, nil)
	m.SetSize(80, 24)

	view := m.View()
	if !strings.Contains(view, "Waiting for the first update") {
		t.Logf("View content: %q", view)
		t.Error("View should render the pending state when no report exists")
	}
}

func TestModel_View_WithReport(t *testing.T) {
	state := app.NewState()
	state.SetLoading("initial", false)
	state.SetReport(testReport())
	m := New(state, nil, nil)
	m.SetSize(100, 40)

	view := m.View()
	for _, want := range []string{"Cursor Stats", "Premium Requests", "150 / 500", "Usage-Based Spending", "Details"} {
		if !strings.Contains(view, want) {
			t.Logf("View content: %q", view)
			t.Errorf("View should contain %q", want)
		}
	}
}

func TestModel_View_UsageBasedStates(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.UsageReport)
		want   string
	}{
		{
			name: "disabled",
			mutate: func(r *models.UsageReport) {
				r.Limit.NoUsageBasedAllowed = true
			},
			want: "disabled",
		},
		{
			name: "no limit",
			mutate: func(r *models.UsageReport) {
				r.Limit.HardLimitDollars = 0
			},
			want: "No spending limit",
		},
		{
			name: "no activity",
			mutate: func(r *models.UsageReport) {
				r.Current = nil
			},
			want: "No usage-based activity",
		},
		{
			name: "mid-month payment",
			mutate: func(r *models.UsageReport) {
				r.Current.MidMonthCents = 1000
			},
			want: "Mid-month payment",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			state := app.NewState()
			state.SetLoading("initial", false)
			rep := testReport()
			tc.mutate(rep)
			state.SetReport(rep)

			m := New(state, nil, nil)
			m.SetSize(100, 40)

			view := m.View()
			if !strings.Contains(view, tc.want) {
				t.Logf("View content: %q", view)
				t.Errorf("View should contain %q", tc.want)
			}
		})
	}
}

func TestModel_View_Forecast(t *testing.T) {
	state := app.NewState()
	state.SetLoading("initial", false)
	state.SetReport(testReport())
	state.SetForecast(&models.SpendForecast{
		GeneratedAt:    time.Now(),
		Status:         models.ForecastWarning,
		Confidence:     "medium",
		DailyRateCents: 250,
		ProjectedCents: 7500,
		LimitCents:     10000,
		PercentOfLimit: 75,
		DaysElapsed:    10,
		DaysRemaining:  20,
		DataPoints:     10,
	})

	m := New(state, nil, nil)
	m.SetSize(100, 50)

	view := m.View()
	if !strings.Contains(view, "Spending Forecast") {
		t.Logf("View content: %q", view)
		t.Error("View should contain the forecast card")
	}
	if !strings.Contains(view, "WARNING") {
		t.Error("View should show the forecast status badge")
	}
	if !strings.Contains(view, "medium") {
		t.Error("View should show the forecast confidence")
	}
}

func TestModel_Animation(t *testing.T) {
	state := app.NewState()
	state.SetLoading("initial", false)
	state.SetReport(testReport())
	m := New(state, nil, nil)

	m.Update(app.ReportLoadedMsg{Report: testReport()})
	if len(m.animations) == 0 {
		t.Fatal("animations should be seeded after a report loads")
	}

	anim, ok := m.animations[animPremium]
	if !ok {
		t.Fatal("premium animation missing")
	}
	if anim.TargetPercent != 30 {
		t.Errorf("premium target = %v, want 30", anim.TargetPercent)
	}

	m.Update(animationTickMsg(time.Now().Add(2 * time.Second)))
	if anim.CurrentPercent != anim.TargetPercent {
		t.Errorf("animation should settle at target, got %v", anim.CurrentPercent)
	}
}

func TestModel_AnimationSkipsDisabledBar(t *testing.T) {
	state := app.NewState()
	state.SetLoading("initial", false)
	rep := testReport()
	rep.Limit.NoUsageBasedAllowed = true
	state.SetReport(rep)

	m := New(state, nil, nil)
	m.Update(app.RefreshMsg{})

	if _, ok := m.animations[animUsageBased]; ok {
		t.Error("usage-based animation should not exist when pricing is disabled")
	}
}

func TestModel_ToggleExtended(t *testing.T) {
	state := app.NewState()
	m := New(state, nil, nil)

	before := m.showExtended
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'e'}})
	if m.showExtended == before {
		t.Error("e should toggle the extended breakdown")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'e'}})
	if m.showExtended != before {
		t.Error("e should toggle back")
	}
}

func TestModel_SetSize(t *testing.T) {
	state := app.NewState()
	m := New(state, nil, nil)
	m.SetSize(100, 50)
	if m.width != 100 || m.height != 50 {
		t.Errorf("SetSize not applied: %dx%d", m.width, m.height)
	}
}

func TestModel_Help(t *testing.T) {
	state := app.NewState()
	m := New(state, nil, nil)
	if len(m.ShortHelp()) == 0 {
		t.Error("ShortHelp empty")
	}
	if len(m.FullHelp()) == 0 {
		t.Error("FullHelp empty")
	}
}

func TestUsageBasedPercent(t *testing.T) {
	tests := []struct {
		name string
		rep  *models.UsageReport
		want float64
	}{
		{
			name: "half of limit",
			rep:  testReport(),
			want: 50,
		},
		{
			name: "disabled",
			rep: &models.UsageReport{
				Limit:   models.UsageLimit{HardLimitDollars: 50, NoUsageBasedAllowed: true},
				Current: &models.UsageSummary{TotalCents: 2500},
			},
			want: -1,
		},
		{
			name: "no limit",
			rep: &models.UsageReport{
				Current: &models.UsageSummary{TotalCents: 2500},
			},
			want: -1,
		},
		{
			name: "no activity",
			rep: &models.UsageReport{
				Limit: models.UsageLimit{HardLimitDollars: 50},
			},
			want: -1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := usageBasedPercent(tc.rep); got != tc.want {
				t.Errorf("usageBasedPercent = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCycleDays(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	elapsed, total := cycleDays(start, start.AddDate(0, 0, 10))
	if elapsed != 10 {
		t.Errorf("elapsed = %d, want 10", elapsed)
	}
	if total != 31 {
		t.Errorf("total = %d, want 31", total)
	}

	// Clamp below the cycle start and past the cycle end.
	elapsed, _ = cycleDays(start, start.AddDate(0, 0, -5))
	if elapsed != 0 {
		t.Errorf("elapsed before start = %d, want 0", elapsed)
	}
	elapsed, total = cycleDays(start, start.AddDate(0, 2, 0))
	if elapsed != total {
		t.Errorf("elapsed past end = %d, want %d", elapsed, total)
	}
}
