package settings

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dwtexe/cursor-stats/internal/ui/styles"
	"github.com/Dwtexe/cursor-stats/internal/version"
)

// View renders the settings tab.
func (m *Model) View() string {
	var sections []string

	sections = append(sections, m.renderTitle())

	if m.editing {
		sections = append(sections, m.renderLimitForm())
	} else {
		if m.confirmReset {
			sections = append(sections, m.renderResetConfirm())
		}
		sections = append(sections,
			m.renderLimitCard(),
			m.renderAlertsCard(),
			m.renderConfigCard(),
			m.renderAboutCard(),
		)
	}

	sections = append(sections, m.renderFooter())

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderTitle renders the settings tab title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Settings")
	subtitle := styles.HelpStyle.Render("Spending limit, alerts and configuration")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	w := m.width - 6
	if w < 50 {
		w = 50
	}
	if w > 80 {
		w = 80
	}
	return w
}

// renderLimitCard renders the current spending limit state.
func (m *Model) renderLimitCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Spending Limit"))
	rows = append(rows, "")

	rep := m.state.GetReport()
	switch {
	case rep == nil:
		rows = append(rows, styles.HelpStyle.Render("No usage data yet."))

	case rep.Limit.NoUsageBasedAllowed:
		rows = append(rows, m.renderConfigRow("Usage-based", "disabled"))

	case rep.Limit.HardLimitDollars > 0:
		rows = append(rows, m.renderConfigRow("Usage-based", "enabled"))
		rows = append(rows, m.renderConfigRow("Hard limit", fmt.Sprintf("$%.2f", rep.Limit.HardLimitDollars)))

	default:
		rows = append(rows, m.renderConfigRow("Usage-based", "enabled"))
		rows = append(rows, m.renderConfigRow("Hard limit", "not set"))
	}

	rows = append(rows, "")
	rows = append(rows, styles.HelpStyle.Render("Press 'l' to change the limit"))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderAlertsCard renders the alert threshold configuration.
func (m *Model) renderAlertsCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Alerts"))
	rows = append(rows, "")

	if m.config != nil {
		rows = append(rows, m.renderConfigRow("Alerts", onOff(m.config.EnableAlerts)))
		rows = append(rows, m.renderConfigRow("Desktop popups", onOff(m.config.DesktopNotifications)))
		rows = append(rows, m.renderConfigRow("Premium", formatThresholds(m.config.UsageAlertThresholds)))
		rows = append(rows, m.renderConfigRow("Usage-based", formatThresholds(m.config.UsageBasedAlertThresholds)))
		if m.config.SpendingAlertThreshold > 0 {
			rows = append(rows, m.renderConfigRow("Spending step", fmt.Sprintf("$%.2f", m.config.SpendingAlertThreshold)))
		} else {
			rows = append(rows, m.renderConfigRow("Spending step", "off"))
		}
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	rows = append(rows, "")
	rows = append(rows, styles.HelpStyle.Render("Press 'x' to clear fired alerts so they notify again"))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderConfigCard renders the effective configuration paths and knobs.
func (m *Model) renderConfigCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"))
	rows = append(rows, "")

	if m.config != nil {
		rows = append(rows, m.renderConfigRow("State DB", m.config.StateDBPath))
		rows = append(rows, m.renderConfigRow("Snapshot DB", m.config.SnapshotDBPath))
		rows = append(rows, m.renderConfigRow("Log file", m.config.LogFile))
		rows = append(rows, m.renderConfigRow("Log level", m.config.LogLevel))
		rows = append(rows, m.renderConfigRow("Refresh every", m.config.RefreshInterval.String()))
		rows = append(rows, m.renderConfigRow("Currency", m.config.Currency))
		rows = append(rows, m.renderConfigRow("Cycle boundary", fmt.Sprintf("day %d", m.config.BillingCycleBoundaryDay)))
		if m.config.TeamID != 0 {
			rows = append(rows, m.renderConfigRow("Team ID", fmt.Sprintf("%d", m.config.TeamID)))
		}
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderAboutCard renders the about/version information card.
func (m *Model) renderAboutCard() string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("About Cursor Stats"))
	rows = append(rows, "")

	rows = append(rows, m.renderConfigRow("Version", version.GetVersion()))
	rows = append(rows, m.renderConfigRow("Commit", version.GetCommit()))
	rows = append(rows, m.renderConfigRow("Built", version.GetDate()))
	rows = append(rows, m.renderConfigRow("Go version", runtime.Version()))
	rows = append(rows, m.renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)))

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderConfigRow renders a configuration key-value row.
func (m *Model) renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// renderLimitForm renders the spending limit dialog.
func (m *Model) renderLimitForm() string {
	cardWidth := m.cardWidth()

	var rows []string

	rows = append(rows, styles.CardTitleStyle.Render("Set Spending Limit"))
	rows = append(rows, "")

	limitLabel := styles.BlurredStyle.Render("  Limit (USD):")
	if m.focusedField == fieldLimit {
		limitLabel = styles.FocusedStyle.Render("> Limit (USD):")
	}
	rows = append(rows, limitLabel)

	inputStyle := styles.BlurredBorderStyle
	if m.focusedField == fieldLimit {
		inputStyle = styles.FocusedBorderStyle
	}
	rows = append(rows, inputStyle.Width(cardWidth-10).Render(m.limitInput.View()))
	rows = append(rows, "")

	check := "[ ]"
	if m.noUsageBased {
		check = "[x]"
	}
	disableLabel := fmt.Sprintf("  %s Disable usage-based pricing", check)
	if m.focusedField == fieldDisable {
		disableLabel = styles.FocusedStyle.Render(fmt.Sprintf("> %s Disable usage-based pricing", check))
	} else {
		disableLabel = styles.BlurredStyle.Render(disableLabel)
	}
	rows = append(rows, disableLabel)
	rows = append(rows, "")

	submitStyle := styles.ButtonInactiveStyle
	cancelStyle := styles.ButtonInactiveStyle
	if m.focusedField == fieldSubmit {
		submitStyle = styles.ButtonActiveStyle
	}
	if m.focusedField == fieldCancel {
		cancelStyle = styles.ButtonActiveStyle
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Center,
		submitStyle.Render(" Save "),
		"  ",
		cancelStyle.Render(" Cancel "),
	)
	rows = append(rows, buttons)
	rows = append(rows, "")

	rows = append(rows, styles.HelpStyle.Render("Tab: next field | Enter: submit | Esc: cancel"))

	content := lipgloss.JoinVertical(lipgloss.Left, rows...)

	return styles.ModalContentStyle.Width(cardWidth).Render(content)
}

// renderResetConfirm renders the alert reset confirmation dialog.
func (m *Model) renderResetConfirm() string {
	cardWidth := 50

	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.WarningTextStyle.Bold(true).Render("Reset fired alerts?"),
		"",
		"Cleared thresholds will notify again",
		"the next time usage crosses them.",
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			styles.ButtonActiveStyle.Render(" (Y)es "),
			"  ",
			styles.ButtonInactiveStyle.Render(" (N)o "),
		),
		"",
	)

	return styles.CenterHorizontal(
		styles.ModalContentStyle.Width(cardWidth).Render(content),
		m.width,
	)
}

// renderFooter renders the footer with keyboard shortcuts.
func (m *Model) renderFooter() string {
	var shortcuts []string

	switch {
	case m.editing:
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Tab") + " next",
			styles.HelpKeyStyle.Render("Enter") + " submit",
			styles.HelpKeyStyle.Render("Esc") + " cancel",
		}
	case m.confirmReset:
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Y") + " confirm",
			styles.HelpKeyStyle.Render("N") + " cancel",
		}
	default:
		shortcuts = []string{
			styles.HelpKeyStyle.Render("l") + " limit",
			styles.HelpKeyStyle.Render("x") + " reset alerts",
			styles.HelpKeyStyle.Render("r") + " refresh",
		}
	}

	footer := ""
	for i, s := range shortcuts {
		if i > 0 {
			footer += styles.HelpSeparatorStyle.Render(" | ")
		}
		footer += s
	}

	return lipgloss.NewStyle().
		MarginTop(1).
		Foreground(styles.TextMuted).
		Render(footer)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// formatThresholds renders percent thresholds as "10, 30, 50%".
func formatThresholds(thresholds []int) string {
	if len(thresholds) == 0 {
		return "off"
	}
	parts := make([]string, len(thresholds))
	for i, t := range thresholds {
		parts[i] = fmt.Sprintf("%d", t)
	}
	return strings.Join(parts, ", ") + "%"
}
