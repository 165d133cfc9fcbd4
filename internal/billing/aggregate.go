// Package billing turns raw invoice line items into the aggregated usage
// summary the rest of the program consumes.
package billing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Dwtexe/cursor-stats/internal/logger"
	"github.com/Dwtexe/cursor-stats/internal/models"
)

const (
	midMonthMarker = "mid-month usage paid"
	fastMarker     = "extra fast premium request"

	// genericLabel stands in when no model name is extractable.
	genericLabel = "(Requests)"

	// maxMarker is appended to a model label when the event stream shows
	// max-mode invocations at that per-request price.
	maxMarker = " (MAX)"

	// priceTolerance matches item unit prices against event prices, in
	// cents.
	priceTolerance = 0.01
)

var (
	modelPattern = regexp.MustCompile(`(?i)calls? to ([^,]+),`)
	countPattern = regexp.MustCompile(`^(\d+)`)
)

type lineKind int

const (
	kindModel lineKind = iota
	kindFast
	kindGeneric
)

// parsedItem is one billable row after description parsing.
type parsedItem struct {
	kind            lineKind
	model           string
	count           int
	cents           int64
	perRequestCents float64 // 0 when no count was present
}

// Aggregate builds the usage summary for one billing period. Items without
// a cost field are metadata and dropped; mid-month payment rows accumulate
// into MidMonthCents instead of appearing as lines. The output is
// deterministic for identical input.
//
// Rows whose description cannot be parsed at all are skipped with a log
// line; one bad row never aborts the pass.
func Aggregate(period models.BillingPeriod, items []models.UsageLineItem, events []models.UsageEvent) *models.UsageSummary {
	summary := &models.UsageSummary{Period: period}

	parsed := make([]parsedItem, 0, len(items))
	for _, item := range items {
		if !item.HasCost() {
			continue
		}
		if isMidMonthPayment(item.Description) {
			// Magnitude only; a negative sign just marks it as a credit.
			cents := *item.Cents
			if cents < 0 {
				cents = -cents
			}
			summary.MidMonthCents += cents
			continue
		}

		row, err := parseItem(item)
		if err != nil {
			logger.Warn("skipping invoice item", "description", item.Description, "error", err)
			continue
		}
		parsed = append(parsed, row)
	}

	width := padWidth(parsed)

	summary.Lines = make([]models.SummaryLine, 0, len(parsed))
	for _, row := range parsed {
		summary.Lines = append(summary.Lines, models.SummaryLine{
			Calculation: buildLabel(row, width, events),
			Cents:       row.cents,
		})
		summary.TotalCents += row.cents
	}

	return summary
}

// isMidMonthPayment reports whether a row is a partial payment rather than
// billable usage.
func isMidMonthPayment(description string) bool {
	return strings.Contains(strings.ToLower(description), midMonthMarker)
}

// parseItem classifies one billable row from its description.
func parseItem(item models.UsageLineItem) (parsedItem, error) {
	desc := strings.TrimSpace(item.Description)
	if desc == "" {
		return parsedItem{}, fmt.Errorf("empty description")
	}

	row := parsedItem{cents: *item.Cents}

	if m := countPattern.FindStringSubmatch(desc); m != nil {
		count, err := strconv.Atoi(m[1])
		if err != nil {
			return parsedItem{}, fmt.Errorf("request count %q: %w", m[1], err)
		}
		row.count = count
		if count > 0 {
			row.perRequestCents = float64(row.cents) / float64(count)
		}
	}

	switch {
	case strings.Contains(strings.ToLower(desc), fastMarker):
		row.kind = kindFast
	default:
		if m := modelPattern.FindStringSubmatch(desc); m != nil {
			row.kind = kindModel
			row.model = strings.TrimSpace(m[1])
		} else {
			row.kind = kindGeneric
		}
	}

	return row, nil
}

// padWidth is the digit count of the largest request count among the rows,
// never below 1, so counts align column-wise in the rendered report.
func padWidth(rows []parsedItem) int {
	maxCount := 0
	for _, row := range rows {
		if row.count > maxCount {
			maxCount = row.count
		}
	}
	width := 1
	for maxCount >= 10 {
		maxCount /= 10
		width++
	}
	return width
}

// buildLabel renders one row's calculation label with the common padding
// width applied to its request count.
func buildLabel(row parsedItem, width int, events []models.UsageEvent) string {
	name := ""
	switch row.kind {
	case kindFast:
		name = "fast requests"
	case kindModel:
		name = row.model
		if isMaxMode(row, events) {
			name += maxMarker
		}
	case kindGeneric:
		name = genericLabel
	}

	if row.count <= 0 {
		return name
	}
	return fmt.Sprintf("%0*d %s at $%s each", width, row.count, name, formatUnitPrice(row.perRequestCents))
}

// isMaxMode reports whether the event stream contains a max-mode event for
// the row's model at the row's per-request price.
func isMaxMode(row parsedItem, events []models.UsageEvent) bool {
	if row.kind != kindModel || row.count <= 0 {
		return false
	}
	for _, ev := range events {
		if !ev.MaxMode || ev.Model != row.model {
			continue
		}
		if math.Abs(ev.PriceCents-row.perRequestCents) < priceTolerance {
			return true
		}
	}
	return false
}

// formatUnitPrice renders a per-request price in dollars: two decimals for
// cent-scale prices, four for sub-cent ones.
func formatUnitPrice(perRequestCents float64) string {
	dollars := perRequestCents / 100
	if perRequestCents >= 1 || perRequestCents == 0 {
		return strconv.FormatFloat(math.Round(dollars*100)/100, 'f', 2, 64)
	}
	return strconv.FormatFloat(math.Round(dollars*10000)/10000, 'f', 4, 64)
}
