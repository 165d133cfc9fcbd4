// Package dashboard provides the main usage overview tab for Cursor Stats.
package dashboard

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dwtexe/cursor-stats/internal/app"
	"github.com/Dwtexe/cursor-stats/internal/billing"
	"github.com/Dwtexe/cursor-stats/internal/config"
	"github.com/Dwtexe/cursor-stats/internal/services"
	"github.com/Dwtexe/cursor-stats/internal/ui/components"
)

type animationTickMsg time.Time

func animationTickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*40, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// Animation keys for the two metered axes.
const (
	animPremium    = "premium"
	animUsageBased = "usage-based"
)

// keyMap defines the key bindings specific to the dashboard tab.
type keyMap struct {
	ToggleExtended key.Binding
	Refresh        key.Binding
}

// defaultKeyMap returns the default key bindings for the dashboard tab.
func defaultKeyMap() keyMap {
	return keyMap{
		ToggleExtended: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "toggle details"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
	}
}

// AnimationState tracks the state of an animation.
type AnimationState struct {
	StartTime      time.Time
	CurrentPercent float64
	TargetPercent  float64
	StartPercent   float64
}

// Model represents the dashboard tab state.
type Model struct {
	state          *app.State
	services       *services.Manager
	config         *config.Config
	animations     map[string]*AnimationState
	spinner        components.LoadingSpinner
	keys           keyMap
	viewport       viewport.Model
	periodBar      components.PeriodBar
	forecastBar    components.UsageBar
	width          int
	height         int
	animationFrame int
	showExtended   bool
}

// New creates a new dashboard model.
func New(state *app.State, mgr *services.Manager, cfg *config.Config) *Model {
	showExtended := false
	if cfg != nil {
		showExtended = cfg.ShowExtendedUsage
	}

	return &Model{
		state:       state,
		services:    mgr,
		config:      cfg,
		spinner:     components.NewSpinner("Loading usage..."),
		periodBar:   components.NewPeriodBar(),
		forecastBar: components.NewUsageBar(),
		keys:        defaultKeyMap(),
		viewport:     viewport.New(0, 0),
		animations:   make(map[string]*AnimationState),
		showExtended: showExtended,
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Init(), animationTickCmd())
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case animationTickMsg:
		cmds = append(cmds, m.handleAnimationTick(msg))

	case app.StartLoadingMsg:
		cmds = append(cmds, animationTickCmd())

	case app.ServiceEventMsg, app.ReportLoadedMsg, app.RefreshMsg:
		m.syncAnimationTargets(time.Now())
		cmds = append(cmds, animationTickCmd())

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleAnimationTick(msg animationTickMsg) tea.Cmd {
	m.animationFrame++
	now := time.Time(msg)

	animating, hasPendingData := m.syncAnimationTargets(now)
	m.stepAnimations(now)

	shouldTick := animating || m.state.AnyLoading() || m.state.IsInitialLoading() || hasPendingData
	if shouldTick {
		return animationTickCmd()
	}
	return nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.ToggleExtended):
		m.showExtended = !m.showExtended
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
	return nil
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// converter returns the currency converter, falling back to static rates
// when no service manager is attached.
func (m *Model) converter() *billing.Converter {
	if m.services != nil {
		return m.services.Converter()
	}
	return billing.NewConverter(billing.StaticRates{}, m.state.GetCurrency())
}

func (m *Model) syncAnimationTargets(now time.Time) (animating, hasPendingData bool) {
	rep := m.state.GetReport()
	if rep == nil {
		return false, true
	}

	premiumTarget := rep.Premium.Percent()
	if premiumTarget > 100 {
		premiumTarget = 100
	}
	if m.updateAnimationState(animPremium, premiumTarget, now) {
		animating = true
	}

	usageTarget := usageBasedPercent(rep)
	if m.updateAnimationState(animUsageBased, usageTarget, now) {
		animating = true
	}

	return animating, false
}

func (m *Model) updateAnimationState(animKey string, target float64, now time.Time) bool {
	if target < 0 {
		return false
	}

	state, exists := m.animations[animKey]
	if !exists {
		state = &AnimationState{
			CurrentPercent: 0,
			StartPercent:   0,
			TargetPercent:  0,
			StartTime:      now,
		}
		m.animations[animKey] = state
	}

	if target != state.TargetPercent {
		state.StartPercent = state.CurrentPercent
		state.TargetPercent = target
		state.StartTime = now
	}

	return state.CurrentPercent != state.TargetPercent
}

func (m *Model) stepAnimations(now time.Time) {
	for _, state := range m.animations {
		if state.CurrentPercent != state.TargetPercent {
			elapsed := now.Sub(state.StartTime).Seconds()
			duration := 1.5

			if elapsed >= duration {
				state.CurrentPercent = state.TargetPercent
			} else {
				progress := elapsed / duration
				ease := 1.0 - (1.0-progress)*(1.0-progress)
				state.CurrentPercent = state.StartPercent + (state.TargetPercent-state.StartPercent)*ease
			}
		}
	}
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ToggleExtended,
		m.keys.Refresh,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ToggleExtended},
		{m.keys.Refresh},
	}
}
