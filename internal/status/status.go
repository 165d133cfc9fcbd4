// Package status renders aggregated usage into the short status line, the
// progress bars, and the multi-section report. Everything here is pure
// formatting over the models types; nothing mutates tracking state.
package status

import (
	"fmt"
	"math"
	"strings"

	"github.com/Dwtexe/cursor-stats/internal/billing"
	"github.com/Dwtexe/cursor-stats/internal/logger"
	"github.com/Dwtexe/cursor-stats/internal/models"
)

// Band is the coarse severity classification of a usage percentage.
type Band int

const (
	BandOK Band = iota
	BandGreen
	BandYellow
	BandRed
)

// BandFor classifies a percentage: >=90 red, >=75 yellow, >=50 green,
// everything below is ok.
func BandFor(percent float64) Band {
	switch {
	case percent >= 90:
		return BandRed
	case percent >= 75:
		return BandYellow
	case percent >= 50:
		return BandGreen
	default:
		return BandOK
	}
}

// Emoji is the glyph shown next to the status line for the band.
func (b Band) Emoji() string {
	switch b {
	case BandRed:
		return "🔴"
	case BandYellow:
		return "🟡"
	case BandGreen:
		return "🟢"
	default:
		return "✅"
	}
}

func (b Band) String() string {
	switch b {
	case BandRed:
		return "red"
	case BandYellow:
		return "yellow"
	case BandGreen:
		return "green"
	default:
		return "ok"
	}
}

const (
	gradientLow  = "#51cf66"
	gradientHigh = "#ff6b6b"
	gradientBins = 10
)

// GradientColor maps a percentage onto an eleven-step green-to-red ramp
// and returns the bin's hex color. The extra resolution beyond the four
// bands drives background coloring.
func GradientColor(percent float64) string {
	bin := int(percent / 10)
	if bin < 0 {
		bin = 0
	}
	if bin > gradientBins {
		bin = gradientBins
	}
	return interpolateColor(gradientLow, gradientHigh, float64(bin)/gradientBins)
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}

const (
	fillGlyph  = "█"
	emptyGlyph = "░"
	overGlyph  = "▓"
)

// ProgressBar renders current against limit over a fixed glyph count.
// When current exceeds the limit the bar stays full and the portion past
// the limit switches to a distinct glyph.
func ProgressBar(current, limit float64, width int) string {
	if width < 1 {
		return ""
	}
	if limit <= 0 || current <= 0 {
		return strings.Repeat(emptyGlyph, width)
	}

	if current <= limit {
		filled := int(math.Round(current / limit * float64(width)))
		if filled > width {
			filled = width
		}
		return strings.Repeat(fillGlyph, filled) + strings.Repeat(emptyGlyph, width-filled)
	}

	within := int(math.Round(limit / current * float64(width)))
	if within > width-1 {
		within = width - 1
	}
	if within < 0 {
		within = 0
	}
	return strings.Repeat(fillGlyph, within) + strings.Repeat(overGlyph, width-within)
}

// Line builds the short status string: band emoji, premium request count,
// and the unpaid usage-based amount when the period has one.
func Line(rep *models.UsageReport, conv *billing.Converter) string {
	if rep == nil {
		return "…"
	}

	percent := rep.Premium.Percent()
	parts := []string{BandFor(percent).Emoji()}

	if rep.Premium.Limit > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d", rep.Premium.Current, rep.Premium.Limit))
	} else {
		parts = append(parts, fmt.Sprintf("%d", rep.Premium.Current))
	}

	if rep.Current != nil && rep.Current.TotalCents != 0 {
		parts = append(parts, "•", conv.Format(rep.Current.UnpaidCents()))
	}

	return strings.Join(parts, " ")
}
