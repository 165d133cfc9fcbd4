// Package notify holds the threshold tracking state machine that decides
// when usage and spending alerts fire, and the sinks that render them.
package notify

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/Dwtexe/cursor-stats/internal/logger"
	"github.com/Dwtexe/cursor-stats/internal/models"
)

// Command identifies the follow-up action an alert offers. How a command is
// executed belongs to the UI layer; the tracker only decides what to offer.
type Command int

const (
	CommandNone Command = iota
	CommandOpenSettings
	CommandManageLimit
)

// Action is one selectable follow-up on an alert.
type Action struct {
	Label   string
	Command Command
}

// Alert is a fired threshold crossing.
type Alert struct {
	Axis      models.AlertAxis
	Threshold float64 // percent for usage axes, dollar boundary for spending
	Message   string
	Detail    string
	Actions   []Action
}

// Config sets the thresholds per axis. Empty threshold lists and a
// non-positive spending step disable their axis.
type Config struct {
	PremiumThresholds    []int
	UsageBasedThresholds []int
	SpendingStep         float64 // dollars per boundary
}

// Input is one evaluation's worth of fresh usage numbers.
type Input struct {
	PremiumPercent    float64
	PremiumCurrent    int
	PremiumLimit      int
	UsageBasedActive  bool // false when no hard limit is set or usage-based is disallowed
	UsageBasedPercent float64
	SpendDollars      float64
	HardLimitDollars  float64
}

// Tracker maintains which thresholds have already fired across three
// independent axes. State lives for the process lifetime only and is
// cleared on Reset.
//
// A single guard covers all three axes: while one evaluation is in flight,
// any other is dropped outright, never queued. The next timer tick
// re-evaluates with fresh numbers, and the catch-up marking below makes
// dropped crossings fire then.
type Tracker struct {
	cfg Config

	evaluating atomic.Bool

	mu         sync.Mutex
	premium    map[int]bool // threshold percent -> notified
	usageBased map[int]bool // threshold percent -> notified
	spending   map[int]bool // step multiple -> notified
}

// NewTracker creates a tracker with all thresholds unnotified.
func NewTracker(cfg Config) *Tracker {
	t := &Tracker{cfg: cfg}
	t.resetLocked()
	return t
}

// Reset clears every axis, e.g. after the user changes alert settings.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
}

func (t *Tracker) resetLocked() {
	t.premium = make(map[int]bool)
	t.usageBased = make(map[int]bool)
	t.spending = make(map[int]bool)
}

// Evaluate runs all three axis checks against fresh numbers and returns the
// alerts that fired, oldest threshold first. When another evaluation is
// already in flight the call is dropped and returns nil.
func (t *Tracker) Evaluate(in Input) []Alert {
	if !t.evaluating.CompareAndSwap(false, true) {
		logger.Debug("threshold evaluation already in flight, dropping")
		return nil
	}
	defer t.evaluating.Store(false)

	t.mu.Lock()
	defer t.mu.Unlock()

	var alerts []Alert

	if alert := t.checkPremium(in); alert != nil {
		alerts = append(alerts, *alert)
	}
	if alert := t.checkUsageBased(in); alert != nil {
		alerts = append(alerts, *alert)
	}
	alerts = append(alerts, t.checkSpending(in)...)

	return alerts
}

// checkPremium fires the highest crossed premium threshold not yet
// notified, marking everything below it as caught up.
func (t *Tracker) checkPremium(in Input) *Alert {
	fired := checkPercentAxis(t.premium, t.cfg.PremiumThresholds, in.PremiumPercent)
	if fired == 0 {
		return nil
	}
	return &Alert{
		Axis:      models.AxisPremium,
		Threshold: float64(fired),
		Message:   fmt.Sprintf("Premium request usage has reached %d%%", fired),
		Detail:    fmt.Sprintf("%d of %d fast requests used this period.", in.PremiumCurrent, in.PremiumLimit),
		Actions: []Action{
			{Label: "Open Settings", Command: CommandOpenSettings},
		},
	}
}

// checkUsageBased is the same engine as premium with one extra rule:
// nothing fires until the flat-rate allotment is exhausted, because
// usage-based billing is idle until then. Hysteresis still runs while
// suppressed so a stale set never survives a usage drop.
func (t *Tracker) checkUsageBased(in Input) *Alert {
	if !in.UsageBasedActive {
		return nil
	}

	applyHysteresis(t.usageBased, in.UsageBasedPercent)

	if in.PremiumPercent < 100 {
		return nil
	}

	fired := checkPercentAxis(t.usageBased, t.cfg.UsageBasedThresholds, in.UsageBasedPercent)
	if fired == 0 {
		return nil
	}
	return &Alert{
		Axis:      models.AxisUsageBased,
		Threshold: float64(fired),
		Message:   fmt.Sprintf("Usage-based spending has reached %d%% of your limit", fired),
		Detail: fmt.Sprintf("$%.2f of $%.2f spent this period.",
			in.SpendDollars, in.HardLimitDollars),
		Actions: []Action{
			{Label: "Manage Limit", Command: CommandManageLimit},
			{Label: "Open Settings", Command: CommandOpenSettings},
		},
	}
}

// checkSpending fires one alert per newly crossed step multiple, ascending.
// Spend only grows within a billing period, so crossed boundaries are never
// cleared.
func (t *Tracker) checkSpending(in Input) []Alert {
	step := t.cfg.SpendingStep
	if step <= 0 {
		return nil
	}

	highest := int(math.Floor(in.SpendDollars / step))
	if highest < 1 {
		return nil
	}

	var alerts []Alert
	for multiple := 1; multiple <= highest; multiple++ {
		if t.spending[multiple] {
			continue
		}
		t.spending[multiple] = true
		boundary := float64(multiple) * step
		alerts = append(alerts, Alert{
			Axis:      models.AxisSpending,
			Threshold: boundary,
			Message:   fmt.Sprintf("Usage-based spending passed $%.2f", boundary),
			Detail:    fmt.Sprintf("$%.2f spent this period.", in.SpendDollars),
			Actions: []Action{
				{Label: "Manage Limit", Command: CommandManageLimit},
			},
		})
	}
	return alerts
}

// checkPercentAxis runs hysteresis then the crossing check for one percent
// axis. Returns the threshold that fired, or 0.
//
// Crossing: the highest configured threshold <= pct that is not yet
// notified fires, and every threshold at or below it is marked notified so
// intermediate values catch up silently instead of firing one by one.
func checkPercentAxis(notified map[int]bool, thresholds []int, pct float64) int {
	applyHysteresis(notified, pct)

	if len(thresholds) == 0 {
		return 0
	}

	sorted := append([]int(nil), thresholds...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	fired := 0
	for _, th := range sorted {
		if float64(th) <= pct && !notified[th] {
			fired = th
			break
		}
	}
	if fired == 0 {
		return 0
	}

	for _, th := range sorted {
		if th <= fired {
			notified[th] = true
		}
	}
	return fired
}

// applyHysteresis clears any notified threshold the percentage has dropped
// back below, permitting a re-fire on the next climb.
func applyHysteresis(notified map[int]bool, pct float64) {
	for th := range notified {
		if float64(th) > pct {
			delete(notified, th)
		}
	}
}

// NotifiedThresholds returns a sorted copy of one axis's notified set,
// spending expressed as step multiples.
func (t *Tracker) NotifiedThresholds(axis models.AlertAxis) []int {
	t.mu.Lock()
	defer t.mu.Unlock()

	var set map[int]bool
	switch axis {
	case models.AxisPremium:
		set = t.premium
	case models.AxisUsageBased:
		set = t.usageBased
	case models.AxisSpending:
		set = t.spending
	default:
		return nil
	}

	out := make([]int, 0, len(set))
	for th := range set {
		out = append(out, th)
	}
	sort.Ints(out)
	return out
}
