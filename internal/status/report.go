package status

import (
	"fmt"
	"strings"

	"github.com/Dwtexe/cursor-stats/internal/billing"
	"github.com/Dwtexe/cursor-stats/internal/models"
)

// Row is one label/value pair in a report section. Band hints at how the
// value should be colored; BandOK means neutral.
type Row struct {
	Label string
	Value string
	Band  Band
}

// Section groups related rows under a heading.
type Section struct {
	Title string
	Rows  []Row
}

// Report is the structured equivalent of the old tooltip: assembled once
// per aggregation pass and rendered by whichever surface wants it.
type Report struct {
	Sections []Section
}

// ReportOptions controls optional report content.
type ReportOptions struct {
	ShowExtended bool
}

// BuildReport assembles the multi-section report from one usage snapshot.
// Mid-month payments surface as exactly one row regardless of how many
// partial payments the invoice carried.
func BuildReport(rep *models.UsageReport, conv *billing.Converter, opts ReportOptions) Report {
	var report Report
	if rep == nil {
		return report
	}

	report.Sections = append(report.Sections, premiumSection(rep))

	if rep.Current != nil {
		report.Sections = append(report.Sections, usageSection("Usage-Based Pricing", rep.Current, conv, true))
	}
	if opts.ShowExtended && rep.Previous != nil && len(rep.Previous.Lines) > 0 {
		report.Sections = append(report.Sections, usageSection("Previous Period", rep.Previous, conv, false))
	}

	report.Sections = append(report.Sections, accountSection(rep, conv))

	return report
}

func premiumSection(rep *models.UsageReport) Section {
	percent := rep.Premium.Percent()
	section := Section{Title: "Premium Requests"}

	used := fmt.Sprintf("%d", rep.Premium.Current)
	if rep.Premium.Limit > 0 {
		used = fmt.Sprintf("%d / %d (%.0f%%)", rep.Premium.Current, rep.Premium.Limit, percent)
	}
	section.Rows = append(section.Rows, Row{Label: "Used", Value: used, Band: BandFor(percent)})

	if !rep.Premium.StartOfMonth.IsZero() {
		section.Rows = append(section.Rows, Row{
			Label: "Period start",
			Value: rep.Premium.StartOfMonth.Format("Jan 2, 2006"),
		})
	}

	return section
}

func usageSection(title string, summary *models.UsageSummary, conv *billing.Converter, withUnpaid bool) Section {
	section := Section{Title: fmt.Sprintf("%s (%s)", title, summary.Period.Label())}

	for _, line := range summary.Lines {
		section.Rows = append(section.Rows, Row{Label: line.Calculation, Value: conv.Format(line.Cents)})
	}
	if len(summary.Lines) == 0 {
		section.Rows = append(section.Rows, Row{Label: "No usage-based charges", Value: conv.Format(0)})
		return section
	}

	section.Rows = append(section.Rows, Row{Label: "Total", Value: conv.Format(summary.TotalCents)})

	// Unpaid only differs from the total when a mid-month payment exists,
	// so both extra rows ride on the same condition.
	if summary.MidMonthCents > 0 {
		section.Rows = append(section.Rows, Row{Label: "Mid-month payment", Value: conv.Format(summary.MidMonthCents)})
		if withUnpaid {
			section.Rows = append(section.Rows, Row{Label: "Unpaid", Value: conv.Format(summary.UnpaidCents())})
		}
	}

	return section
}

func accountSection(rep *models.UsageReport, conv *billing.Converter) Section {
	section := Section{Title: "Account"}

	if rep.Membership != "" {
		section.Rows = append(section.Rows, Row{Label: "Plan", Value: planLabel(rep.Membership)})
	}

	switch {
	case rep.Limit.NoUsageBasedAllowed:
		section.Rows = append(section.Rows, Row{Label: "Usage-based pricing", Value: "Disabled"})
	case rep.Limit.HardLimitDollars > 0:
		section.Rows = append(section.Rows, Row{
			Label: "Usage-based pricing",
			Value: fmt.Sprintf("Enabled, %s limit", conv.Format(int64(rep.Limit.HardLimitDollars*100))),
		})
	default:
		section.Rows = append(section.Rows, Row{Label: "Usage-based pricing", Value: "No limit set"})
	}

	if !rep.LastUpdated.IsZero() {
		section.Rows = append(section.Rows, Row{Label: "Last updated", Value: rep.LastUpdated.Format("15:04:05")})
	}

	return section
}

// planLabel turns the state database's plan value ("pro", "free_trial")
// into display form ("Pro", "Free Trial").
func planLabel(membership string) string {
	words := strings.FieldsFunc(membership, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
