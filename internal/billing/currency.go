package billing

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// RateSource supplies exchange rates as units-per-USD, keyed by upper-case
// currency code.
type RateSource interface {
	Rate(code string) (float64, bool)
}

// StaticRates is a RateSource backed by a fixed table, as returned by the
// exchange rate fetch.
type StaticRates map[string]float64

func (r StaticRates) Rate(code string) (float64, bool) {
	rate, ok := r[strings.ToUpper(code)]
	if !ok || rate <= 0 {
		return 0, false
	}
	return rate, true
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"INR": "₹",
	"KRW": "₩",
	"TRY": "₺",
}

// Converter renders USD cent amounts in a preferred display currency. A
// missing or unusable rate falls back to USD rather than failing; display
// must keep working when the rate fetch did not.
type Converter struct {
	rates    RateSource
	currency string
}

// NewConverter builds a converter targeting the given currency code. A nil
// source pins the converter to USD.
func NewConverter(rates RateSource, currency string) *Converter {
	return &Converter{rates: rates, currency: strings.ToUpper(currency)}
}

// Currency is the code amounts actually render in, after fallback.
func (c *Converter) Currency() string {
	if c.currency == "" || c.currency == "USD" || c.rates == nil {
		return "USD"
	}
	if _, ok := c.rates.Rate(c.currency); !ok {
		return "USD"
	}
	return c.currency
}

// Format renders a USD cent amount in the display currency, with a symbol
// when one is known and thousands separators throughout.
func (c *Converter) Format(cents int64) string {
	code := c.Currency()
	amount := float64(cents) / 100
	if code != "USD" {
		rate, _ := c.rates.Rate(code)
		amount *= rate
	}
	return FormatAmount(amount, code)
}

// FormatAmount renders a major-unit amount in the given currency.
func FormatAmount(amount float64, code string) string {
	amount = math.Round(amount*100) / 100
	rendered := humanize.CommafWithDigits(amount, 2)
	if !strings.Contains(rendered, ".") {
		rendered += ".00"
	} else if len(rendered)-strings.Index(rendered, ".") == 2 {
		rendered += "0"
	}
	if symbol, ok := currencySymbols[strings.ToUpper(code)]; ok {
		return symbol + rendered
	}
	return strings.ToUpper(code) + " " + rendered
}
