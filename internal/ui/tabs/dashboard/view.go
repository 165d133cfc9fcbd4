package dashboard

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/Dwtexe/cursor-stats/internal/models"
	"github.com/Dwtexe/cursor-stats/internal/status"
	"github.com/Dwtexe/cursor-stats/internal/ui/components"
	"github.com/Dwtexe/cursor-stats/internal/ui/styles"
)

// View renders the dashboard component.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return m.renderLoading()
	}

	if m.state.IsSignedOut() {
		return m.renderSignedOut()
	}

	rep := m.state.GetReport()
	if rep == nil {
		return m.renderPending()
	}

	var sections []string

	sections = append(sections, m.renderTitle(rep))
	sections = append(sections, m.renderUsageCard(rep))
	sections = append(sections, m.renderDetailsCard(rep))

	if forecastCard := m.renderForecastCard(); forecastCard != "" {
		sections = append(sections, forecastCard)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderLoading renders the loading state.
func (m *Model) renderLoading() string {
	return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
}

// renderTitle renders the dashboard title and the condensed status line.
func (m *Model) renderTitle(rep *models.UsageReport) string {
	title := styles.TitleStyle.Render("Cursor Stats")

	colorOverride := ""
	colorsEnabled := false
	if m.config != nil {
		colorOverride = m.config.StatusBarColor
		colorsEnabled = m.config.EnableStatusBarColors
	}
	statusLine := styles.StatusLineStyle(colorOverride, colorsEnabled).
		Render(status.Line(rep, m.converter()))

	lines := []string{title, statusLine}
	if updated := m.state.GetLastUpdated(); !updated.IsZero() {
		lines = append(lines, styles.HelpStyle.Render("Updated "+humanize.Time(updated)))
	}
	lines = append(lines, "")

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderUsageCard renders the premium and usage-based meters.
func (m *Model) renderUsageCard(rep *models.UsageReport) string {
	cardWidth := max(m.width-6, 40)
	contentWidth := max(cardWidth-4, 20)

	var rows []string

	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	rows = append(rows, fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("This Billing Cycle")))
	rows = append(rows, "")

	rows = append(rows, m.renderPremiumBlock(rep, contentWidth)...)
	rows = append(rows, "")
	rows = append(rows, m.renderUsageBasedBlock(rep, contentWidth)...)

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderPremiumBlock(rep *models.UsageReport, width int) []string {
	var lines []string

	icon := lipgloss.NewStyle().Foreground(styles.Primary).Render("⚡")
	label := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).Render("Premium Requests")
	counts := styles.HelpStyle.Render(fmt.Sprintf("%d / %d", rep.Premium.Current, rep.Premium.Limit))
	lines = append(lines, fmt.Sprintf("  %s %s  %s", icon, label, counts))

	percent := rep.Premium.Percent()
	displayPercent := percent
	if displayPercent > 100 {
		displayPercent = 100
	}
	if anim, ok := m.animations[animPremium]; ok {
		displayPercent = anim.CurrentPercent
	}

	overLimit := rep.Premium.Limit > 0 && rep.Premium.Current > rep.Premium.Limit
	lines = append(lines, m.renderMeterLine(displayPercent, percent, width, "", overLimit))

	if !rep.Premium.StartOfMonth.IsZero() {
		elapsed, total := cycleDays(rep.Premium.StartOfMonth, time.Now())
		lines = append(lines, m.periodBar.ViewWithLabel(elapsed, total, "  ", width))
	}

	return lines
}

func (m *Model) renderUsageBasedBlock(rep *models.UsageReport, width int) []string {
	var lines []string

	icon := lipgloss.NewStyle().Foreground(styles.Secondary).Render("◎")
	label := lipgloss.NewStyle().Foreground(styles.Secondary).Bold(true).Render("Usage-Based Spending")

	switch {
	case rep.Limit.NoUsageBasedAllowed:
		lines = append(lines, fmt.Sprintf("  %s %s", icon, label))
		lines = append(lines, "    "+styles.HelpStyle.Render("Usage-based pricing is disabled"))

	case rep.Limit.HardLimitDollars <= 0:
		lines = append(lines, fmt.Sprintf("  %s %s", icon, label))
		lines = append(lines, "    "+styles.HelpStyle.Render("No spending limit configured"))

	case rep.Current == nil:
		lines = append(lines, fmt.Sprintf("  %s %s", icon, label))
		lines = append(lines, "    "+styles.HelpStyle.Render("No usage-based activity yet"))

	default:
		conv := m.converter()
		limitCents := int64(rep.Limit.HardLimitDollars * 100)
		counts := styles.HelpStyle.Render(fmt.Sprintf("%s of %s",
			conv.Format(rep.Current.TotalCents), conv.Format(limitCents)))
		lines = append(lines, fmt.Sprintf("  %s %s  %s", icon, label, counts))

		percent := usageBasedPercent(rep)
		displayPercent := percent
		if displayPercent > 100 {
			displayPercent = 100
		}
		if anim, ok := m.animations[animUsageBased]; ok {
			displayPercent = anim.CurrentPercent
		}

		rate := ""
		if f := m.state.GetForecast(); f != nil && f.DailyRateCents > 0 {
			rate = fmt.Sprintf("%s/day", conv.Format(f.DailyRateCents))
		}

		lines = append(lines, m.renderMeterLine(displayPercent, percent, width, rate, percent >= 100))

		if rep.Current.MidMonthCents > 0 {
			note := fmt.Sprintf("Mid-month payment %s · unpaid %s",
				conv.Format(rep.Current.MidMonthCents), conv.Format(rep.Current.UnpaidCents()))
			lines = append(lines, "    "+styles.HelpStyle.Render(note))
		}
	}

	return lines
}

const indentSpace = "    "

// renderMeterLine renders one gradient meter row: bar, percentage, an
// optional rate column and a severity badge.
func (m *Model) renderMeterLine(displayPercent, truePercent float64, width int, rate string, overLimit bool) string {
	const (
		indentWidth  = 4
		percentWidth = 6
		rateWidth    = 10
		badgeWidth   = 10
	)

	rightSideWidth := percentWidth + rateWidth + badgeWidth
	barWidth := max(width-indentWidth-rightSideWidth-4, 10)

	percentStr := styles.GetUsageStyle(truePercent, overLimit).
		Width(percentWidth).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", truePercent))

	rateStr := lipgloss.NewStyle().Width(rateWidth).Render("")
	if rate != "" {
		rateStr = styles.HelpStyle.Width(rateWidth).Align(lipgloss.Right).Render(rate)
	}

	badgeStr := lipgloss.NewStyle().Width(badgeWidth).Render("")
	switch {
	case overLimit:
		badgeStr = styles.UsageOverLimitStyle.Width(badgeWidth).Align(lipgloss.Right).Render("▲ OVER")
	case status.BandFor(truePercent) == status.BandRed:
		badgeStr = styles.UsageCriticalStyle.Width(badgeWidth).Align(lipgloss.Right).Render("▲ CRITICAL")
	case status.BandFor(truePercent) == status.BandYellow:
		badgeStr = styles.UsageHighStyle.Width(badgeWidth).Align(lipgloss.Right).Render("▲ WARNING")
	}

	bar := components.RenderGradientBar(displayPercent, barWidth)

	return lipgloss.JoinHorizontal(lipgloss.Left,
		indentSpace,
		bar,
		" ",
		percentStr,
		" ",
		rateStr,
		" ",
		badgeStr,
	)
}

// renderDetailsCard renders the full usage breakdown as labelled rows.
func (m *Model) renderDetailsCard(rep *models.UsageReport) string {
	cardWidth := max(m.width-6, 40)

	report := status.BuildReport(rep, m.converter(), status.ReportOptions{
		ShowExtended: m.showExtended,
	})

	var rows []string
	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	hint := styles.HelpStyle.Render("(e: line items)")
	rows = append(rows, fmt.Sprintf("%s %s %s", titleIcon, styles.CardTitleStyle.Render("Details"), hint))

	for _, section := range report.Sections {
		rows = append(rows, "")
		rows = append(rows, "  "+styles.SubTitleStyle.Render(section.Title))
		for _, row := range section.Rows {
			rows = append(rows, m.renderDetailRow(row))
		}
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderDetailRow(row status.Row) string {
	label := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Width(22).
		Render(row.Label)

	value := bandStyle(row.Band).Render(row.Value)

	return fmt.Sprintf("    %s %s", label, value)
}

func bandStyle(b status.Band) lipgloss.Style {
	switch b {
	case status.BandRed:
		return styles.UsageCriticalStyle
	case status.BandYellow:
		return styles.UsageHighStyle
	case status.BandGreen:
		return styles.UsageModerateStyle
	default:
		return lipgloss.NewStyle().Foreground(styles.TextPrimary)
	}
}

// renderForecastCard renders the month-end spend projection.
func (m *Model) renderForecastCard() string {
	f := m.state.GetForecast()
	if f == nil {
		return ""
	}

	cardWidth := max(m.width-6, 40)
	contentWidth := max(cardWidth-8, 20)
	conv := m.converter()

	var badge string
	switch f.Status {
	case models.ForecastCritical:
		badge = styles.ForecastCriticalStyle.Render("▲ CRITICAL")
	case models.ForecastWarning:
		badge = styles.ForecastWarningStyle.Render("▲ WARNING")
	case models.ForecastSafe:
		badge = styles.ForecastSafeStyle.Render("● SAFE")
	default:
		badge = styles.ForecastUnknownStyle.Render("○ UNKNOWN")
	}

	var rows []string
	titleIcon := lipgloss.NewStyle().Foreground(styles.Secondary).Render("◈")
	rows = append(rows, fmt.Sprintf("%s %s %s", titleIcon, styles.CardTitleStyle.Render("Spending Forecast"), badge))
	rows = append(rows, "")

	if f.LimitCents > 0 {
		rows = append(rows, "  "+m.forecastBar.ViewCompact(f.PercentOfLimit, contentWidth))
		rows = append(rows, "")
	}

	projected := fmt.Sprintf("%s (%.0f%% of limit)", conv.Format(f.ProjectedCents), f.PercentOfLimit)
	if f.LimitCents <= 0 {
		projected = conv.Format(f.ProjectedCents)
	}

	rows = append(rows, m.renderDetailRow(status.Row{Label: "Projected", Value: projected}))
	rows = append(rows, m.renderDetailRow(status.Row{Label: "Daily rate", Value: conv.Format(f.DailyRateCents) + "/day"}))
	rows = append(rows, m.renderDetailRow(status.Row{
		Label: "Cycle",
		Value: fmt.Sprintf("day %d, %d left", f.DaysElapsed, f.DaysRemaining),
	}))
	rows = append(rows, m.renderDetailRow(status.Row{
		Label: "Confidence",
		Value: fmt.Sprintf("%s (%d samples)", f.Confidence, f.DataPoints),
	}))

	return styles.ForecastCardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderSignedOut renders the signed-out screen.
func (m *Model) renderSignedOut() string {
	title := styles.ErrorTextStyle.Bold(true).Render("⨯ Signed out of Cursor")

	lines := []string{
		title,
		"",
		styles.HelpStyle.Render("No session token was found, or the API rejected it."),
		styles.HelpStyle.Render("Sign in to Cursor, then press r to refresh."),
		"",
		styles.InfoTextStyle.Render("Token sources: CURSOR_SESSION_TOKEN, Cursor's state database"),
	}

	card := styles.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return styles.CenterBoth(card, m.width, m.height)
}

// renderPending renders shimmer meters while the first report is in flight.
func (m *Model) renderPending() string {
	cardWidth := max(m.width-6, 40)
	contentWidth := max(cardWidth-4, 20)

	var rows []string
	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	rows = append(rows, fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("This Billing Cycle")))
	rows = append(rows, "")

	icon := lipgloss.NewStyle().Foreground(styles.Primary).Render("⚡")
	label := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).Render("Premium Requests")
	rows = append(rows, fmt.Sprintf("  %s %s", icon, label))
	rows = append(rows, components.SimpleUsageBarLoading("premium", contentWidth, m.animationFrame))
	rows = append(rows, components.SimplePeriodBarLoading("premium", contentWidth, m.animationFrame))
	rows = append(rows, "")

	icon = lipgloss.NewStyle().Foreground(styles.Secondary).Render("◎")
	label = lipgloss.NewStyle().Foreground(styles.Secondary).Bold(true).Render("Usage-Based Spending")
	rows = append(rows, fmt.Sprintf("  %s %s", icon, label))
	rows = append(rows, components.SimpleUsageBarLoading("usage", contentWidth, m.animationFrame))
	rows = append(rows, "")
	rows = append(rows, "  "+styles.HelpStyle.Render("Waiting for the first update..."))

	card := styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)

	return styles.DocStyle.Width(m.width).Height(m.height).Render(card)
}

// usageBasedPercent returns spend as a percentage of the hard limit, or -1
// when usage-based pricing is off or no limit is known.
func usageBasedPercent(rep *models.UsageReport) float64 {
	if rep.Limit.NoUsageBasedAllowed || rep.Limit.HardLimitDollars <= 0 || rep.Current == nil {
		return -1
	}
	limitCents := rep.Limit.HardLimitDollars * 100
	return float64(rep.Current.TotalCents) / limitCents * 100
}

// cycleDays splits the premium cycle into elapsed and total days.
func cycleDays(start time.Time, now time.Time) (elapsed, total int) {
	end := start.AddDate(0, 1, 0)
	total = int(end.Sub(start).Hours() / 24)
	elapsed = int(now.Sub(start).Hours() / 24)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > total {
		elapsed = total
	}
	return elapsed, total
}
