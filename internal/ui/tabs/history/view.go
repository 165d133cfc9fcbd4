package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dwtexe/cursor-stats/internal/models"
	"github.com/Dwtexe/cursor-stats/internal/ui/components"
	"github.com/Dwtexe/cursor-stats/internal/ui/styles"
)

// View renders the history tab.
func (m *Model) View() string {
	if m.loading {
		return m.renderLoading()
	}
	if m.errorMsg != "" {
		return m.renderError()
	}
	if m.history == nil || !m.history.HasData() {
		return m.renderEmpty()
	}

	var sections []string

	sections = append(sections,
		m.renderHeader(),
		m.renderSpendChart(),
		m.renderPremiumChart(),
		m.renderWeeklyPattern(),
		m.renderAlerts(),
	)

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderLoading() string {
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(styles.HelpStyle.Render("Loading history..."))
}

func (m *Model) renderError() string {
	content := fmt.Sprintf("%s %s",
		styles.ErrorTextStyle.Render("Error:"),
		m.errorMsg,
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderEmpty() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("History"),
		"",
		styles.HelpStyle.Render("No historical data available yet."),
		styles.HelpStyle.Render("Data will appear as usage snapshots are recorded."),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("Spend History")

	// Time range indicator with toggle hint
	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)

	rangeIndicator := rangeStyle.Render(fmt.Sprintf("[t] %s", m.timeRange.String()))

	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", rangeIndicator)

	days := m.history.Days
	dataRange := fmt.Sprintf("Data: %s → %s (%d days) · spent %s",
		days[0].Day.Format("Jan 2, 2006"),
		days[len(days)-1].Day.Format("Jan 2, 2006"),
		len(days),
		m.converter().Format(m.history.WindowSpendCents()),
	)
	subtitle := styles.HelpStyle.Render(dataRange)

	spend := toDollars(m.history.DailySpendCents())
	trend := "  " + components.RenderColoredSparkline(spend, min(len(spend), 40))

	return lipgloss.JoinVertical(lipgloss.Left, header, subtitle, trend, "")
}

func (m *Model) renderSpendChart() string {
	cardWidth := max(m.width-6, 40)

	var rows []string

	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	rows = append(rows, fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Daily Spend")), "")

	days := m.history.Days
	total := make([]float64, len(days))
	unpaid := make([]float64, len(days))
	for i, d := range days {
		total[i] = float64(d.TotalCents) / 100
		unpaid[i] = float64(d.UnpaidCents) / 100
	}

	chartWidth := max(cardWidth-12, 30)
	chartHeight := 8

	chart := components.RenderDualLineChart(total, unpaid, chartWidth, chartHeight,
		fmt.Sprintf("Last %d days in %s", len(days), m.converter().Currency()))

	for _, line := range strings.Split(chart, "\n") {
		rows = append(rows, "  "+line)
	}

	rows = append(rows, "")
	legend := components.RenderLegend([]components.LegendItem{
		{Label: "Total", Color: components.ChartSpendColor},
		{Label: "Unpaid", Color: components.ChartUnpaidColor},
	})
	rows = append(rows, "  "+legend, "")

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderPremiumChart() string {
	cardWidth := max(m.width-6, 40)

	var rows []string

	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	rows = append(rows,
		fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Premium Requests per Day")),
		"",
	)

	// Only the trailing week keeps the bars readable.
	days := m.history.Days
	deltas := m.history.DailyPremiumRequests()
	start := max(len(days)-7, 0)

	values := make([]float64, 0, 7)
	labels := make([]string, 0, 7)
	for i := start; i < len(days); i++ {
		values = append(values, float64(deltas[i]))
		labels = append(labels, days[i].Day.Weekday().String()[:3])
	}

	chartWidth := max(cardWidth-12, 30)
	barChart := components.RenderBarChart(values, labels, chartWidth)

	for _, line := range strings.Split(barChart, "\n") {
		rows = append(rows, "  "+line)
	}
	rows = append(rows, "")

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderWeeklyPattern() string {
	cardWidth := max(m.width-6, 40)

	var rows []string

	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	rows = append(rows,
		fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Weekly Pattern")),
		"",
	)

	avgs, names := m.history.WeekdayAverages()
	rows = append(rows, "  "+components.RenderWeeklyPattern(avgs, names))

	if peakDay, peakVal, ok := m.history.PeakSpendDay(); ok && peakVal > 0 {
		rows = append(rows,
			"",
			fmt.Sprintf("  Peak: %s (%s)",
				lipgloss.NewStyle().Bold(true).Foreground(styles.Primary).
					Render(peakDay.Format("Mon Jan 2")),
				m.converter().Format(peakVal),
			),
		)
	}

	rows = append(rows, "")

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderAlerts() string {
	cardWidth := max(m.width-6, 40)

	var rows []string

	titleIcon := lipgloss.NewStyle().Foreground(styles.Warning).Render("◈")
	rows = append(rows,
		fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Recent Alerts")),
		"",
	)

	if len(m.history.Alerts) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No alerts fired."))
	} else {
		for _, alert := range m.history.Alerts {
			rows = append(rows, m.renderAlertRow(alert))
		}
	}

	rows = append(rows, "")

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderAlertRow(alert models.AlertRecord) string {
	when := styles.HelpStyle.Render(alert.FiredAt.Format("Jan 2 15:04"))
	badge := axisBadge(alert.Axis)
	return fmt.Sprintf("  %s %s %s", when, badge, alert.Message)
}

func axisBadge(axis models.AlertAxis) string {
	var color lipgloss.Color
	switch axis {
	case models.AxisPremium:
		color = styles.Primary
	case models.AxisUsageBased:
		color = styles.Secondary
	case models.AxisSpending:
		color = styles.Warning
	default:
		color = styles.Subtle
	}
	return lipgloss.NewStyle().
		Foreground(color).
		Bold(true).
		Width(12).
		Render(string(axis))
}

func toDollars(cents []int64) []float64 {
	out := make([]float64, len(cents))
	for i, c := range cents {
		out[i] = float64(c) / 100
	}
	return out
}
