package cursor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RatesURL is the URL for the daily USD exchange rate JSON.
// Exported so tests can override it via httptest.
var RatesURL = "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@latest/v1/currencies/usd.json"

// ratesClient is a shared client for rate fetches; the CDN is slow to cold
// start so the timeout is generous.
var ratesClient = &http.Client{Timeout: 15 * time.Second}

// FetchExchangeRates fetches the daily USD conversion table. Keys are
// upper-cased currency codes; the table always contains USD at 1.
func FetchExchangeRates(ctx context.Context) (map[string]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, RatesURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := ratesClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch exchange rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exchange rates: HTTP %d", resp.StatusCode)
	}

	var raw struct {
		Date string             `json:"date"`
		USD  map[string]float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode exchange rates: %w", err)
	}
	if len(raw.USD) == 0 {
		return nil, fmt.Errorf("exchange rates: empty table")
	}

	rates := make(map[string]float64, len(raw.USD)+1)
	for code, rate := range raw.USD {
		if rate > 0 {
			rates[strings.ToUpper(code)] = rate
		}
	}
	rates["USD"] = 1

	return rates, nil
}
