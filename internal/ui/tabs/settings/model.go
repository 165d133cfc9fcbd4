// Package settings provides the settings tab for inspecting configuration
// and managing the usage-based spending limit.
package settings

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dwtexe/cursor-stats/internal/app"
	"github.com/Dwtexe/cursor-stats/internal/config"
	"github.com/Dwtexe/cursor-stats/internal/services"
)

// formField represents which field is currently focused in the limit form.
type formField int

const (
	fieldLimit formField = iota
	fieldDisable
	fieldSubmit
	fieldCancel
)

const formFieldCount = 4

// keyMap defines the key bindings specific to the settings tab.
type keyMap struct {
	EditLimit   key.Binding
	ResetAlerts key.Binding
	Escape      key.Binding
	Up          key.Binding
	Down        key.Binding
}

// defaultKeyMap returns the default key bindings for the settings tab.
func defaultKeyMap() keyMap {
	return keyMap{
		EditLimit: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "set spending limit"),
		),
		ResetAlerts: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "reset alerts"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// Model represents the settings tab state.
type Model struct {
	state    *app.State
	services *services.Manager
	commands *app.Commands
	config   *config.Config
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	editing      bool
	limitInput   textinput.Model
	noUsageBased bool
	focusedField formField
	confirmReset bool
}

// New creates a new settings model.
func New(state *app.State, svc *services.Manager, cfg *config.Config) *Model {
	limitInput := textinput.New()
	limitInput.Placeholder = "20.00"
	limitInput.CharLimit = 10
	limitInput.Width = 20

	return &Model{
		state:      state,
		services:   svc,
		commands:   app.NewCommands(svc),
		config:     cfg,
		keys:       defaultKeyMap(),
		viewport:   viewport.New(0, 0),
		limitInput: limitInput,
	}
}

// Init initializes the settings tab.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// CapturingInput reports whether the tab owns the keyboard. Global
// bindings back off while the limit form or a confirmation is open.
func (m *Model) CapturingInput() bool {
	return m.editing || m.confirmReset
}

// Update handles messages for the settings tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	if m.editing {
		return m.updateLimitForm(msg)
	}
	if m.confirmReset {
		return m.updateResetConfirm(msg)
	}

	var cmds []tea.Cmd

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.EditLimit):
			return m, m.openLimitForm()

		case key.Matches(keyMsg, m.keys.ResetAlerts):
			m.confirmReset = true

		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(keyMsg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// openLimitForm opens the limit dialog seeded from the last report.
func (m *Model) openLimitForm() tea.Cmd {
	m.editing = true
	m.focusedField = fieldLimit
	m.noUsageBased = false
	m.limitInput.SetValue("")

	if rep := m.state.GetReport(); rep != nil {
		m.noUsageBased = rep.Limit.NoUsageBasedAllowed
		if rep.Limit.HardLimitDollars > 0 {
			m.limitInput.SetValue(strconv.FormatFloat(rep.Limit.HardLimitDollars, 'f', 2, 64))
		}
	}

	m.limitInput.Focus()
	return textinput.Blink
}

func (m *Model) closeLimitForm() {
	m.editing = false
	m.limitInput.Blur()
}

// updateLimitForm handles the limit dialog.
func (m *Model) updateLimitForm(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.closeLimitForm()
			return m, nil

		case "tab", "down":
			m.focusedField = (m.focusedField + 1) % formFieldCount
			m.updateFormFocus()
			return m, textinput.Blink

		case "shift+tab", "up":
			m.focusedField = (m.focusedField - 1 + formFieldCount) % formFieldCount
			m.updateFormFocus()
			return m, textinput.Blink

		case " ":
			if m.focusedField == fieldDisable {
				m.noUsageBased = !m.noUsageBased
				return m, nil
			}

		case "enter":
			switch m.focusedField {
			case fieldDisable:
				m.noUsageBased = !m.noUsageBased
				return m, nil
			case fieldSubmit:
				return m, m.submitLimit()
			case fieldCancel:
				m.closeLimitForm()
				return m, nil
			default:
				m.focusedField = (m.focusedField + 1) % formFieldCount
				m.updateFormFocus()
				return m, textinput.Blink
			}
		}
	}

	if m.focusedField == fieldLimit {
		var cmd tea.Cmd
		m.limitInput, cmd = m.limitInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// submitLimit validates the form and issues the limit change.
func (m *Model) submitLimit() tea.Cmd {
	raw := strings.TrimSpace(m.limitInput.Value())
	raw = strings.TrimPrefix(raw, "$")

	var limit float64
	if raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			return m.commands.NotifyError("Enter a dollar amount like 20.00")
		}
		limit = parsed
	}

	if !m.noUsageBased && limit <= 0 {
		return m.commands.NotifyError("A positive limit is required unless usage-based pricing is disabled")
	}

	m.closeLimitForm()
	return m.commands.SetHardLimit(limit, m.noUsageBased)
}

// updateResetConfirm handles the alert reset confirmation.
func (m *Model) updateResetConfirm(msg tea.Msg) (app.Tab, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "y", "Y":
			m.confirmReset = false
			return m, m.commands.ResetAlerts()
		case "n", "N", "esc":
			m.confirmReset = false
		}
	}
	return m, nil
}

// updateFormFocus updates which form field is focused.
func (m *Model) updateFormFocus() {
	if m.focusedField == fieldLimit {
		m.limitInput.Focus()
	} else {
		m.limitInput.Blur()
	}
}

// SetSize sets the available size for the settings tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.editing {
		return []key.Binding{
			key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
			m.keys.Escape,
		}
	}
	return []key.Binding{
		m.keys.EditLimit,
		m.keys.ResetAlerts,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.EditLimit, m.keys.ResetAlerts},
		{m.keys.Up, m.keys.Down},
	}
}
