// Package models defines data structures and domain types.
package models

import "time"

// Session carries the credential material needed to talk to the usage API.
// The raw token never appears in logs; use TokenPrefix for diagnostics.
// Membership is the cached plan name ("pro", "free_trial", ...) and may be
// empty when the editor has not cached one.
type Session struct {
	UserID     string
	Token      string
	Membership string
}

// TokenPrefix returns the first few characters of the token for logging.
func (s Session) TokenPrefix() string {
	const n = 8
	if len(s.Token) <= n {
		return s.Token
	}
	return s.Token[:n] + "…"
}

// Valid reports whether the session has both parts needed for cookie auth.
func (s Session) Valid() bool {
	return s.UserID != "" && s.Token != ""
}

// UsageLineItem is one raw invoice row before aggregation. Cents is a
// pointer because rows without a cost field carry no amount at all and are
// discarded rather than treated as free.
type UsageLineItem struct {
	Description string `json:"description"`
	Cents       *int64 `json:"cents,omitempty"`
}

// HasCost reports whether the row carries an amount.
func (i UsageLineItem) HasCost() bool {
	return i.Cents != nil
}

// UsageEvent is one entry of the invoice's usage event stream. Events are
// cross-referenced against line items to recover per-model billing modes
// that the item description alone does not encode.
type UsageEvent struct {
	Model      string  `json:"model"`
	PriceCents float64 `json:"priceCents"`
	MaxMode    bool    `json:"maxMode"`
}

// Invoice is the raw monthly invoice as fetched: line items plus the usage
// event stream used for billing-mode cross-referencing.
type Invoice struct {
	Items  []UsageLineItem `json:"items"`
	Events []UsageEvent    `json:"events"`
}

// SummaryLine is one rendered line of an aggregated invoice: a formatted
// calculation label and its exact amount in cents.
type SummaryLine struct {
	Calculation string `json:"calculation"`
	Cents       int64  `json:"cents"`
}

// UsageSummary is the aggregation result for one billing period. It is
// immutable after construction; consumers receive copies via Clone.
type UsageSummary struct {
	Period        BillingPeriod `json:"period"`
	Lines         []SummaryLine `json:"lines"`
	TotalCents    int64         `json:"totalCents"`
	MidMonthCents int64         `json:"midMonthCents"`
}

// UnpaidCents returns the amount still owed this period. Mid-month payments
// can exceed the running total, so the result may be negative and is
// reported as-is.
func (s *UsageSummary) UnpaidCents() int64 {
	return s.TotalCents - s.MidMonthCents
}

// Clone returns a deep copy of the summary.
func (s *UsageSummary) Clone() UsageSummary {
	clone := UsageSummary{
		Period:        s.Period,
		TotalCents:    s.TotalCents,
		MidMonthCents: s.MidMonthCents,
	}
	if s.Lines != nil {
		clone.Lines = make([]SummaryLine, len(s.Lines))
		copy(clone.Lines, s.Lines)
	}
	return clone
}

// PremiumUsage is the flat-rate request allotment state for the period.
type PremiumUsage struct {
	StartOfMonth time.Time `json:"startOfMonth"`
	Current      int       `json:"numRequests"`
	Limit        int       `json:"maxRequestUsage"`
}

// Percent returns consumption as a percentage of the allotment, 0 when no
// limit is known.
func (p PremiumUsage) Percent() float64 {
	if p.Limit <= 0 {
		return 0
	}
	return float64(p.Current) / float64(p.Limit) * 100
}

// UsageLimit is the account's usage-based spending configuration.
type UsageLimit struct {
	HardLimitDollars    float64 `json:"hardLimit"`
	NoUsageBasedAllowed bool    `json:"noUsageBasedAllowed"`
}

// Team identifies a team the account belongs to; team accounts read their
// premium usage through the team-scoped endpoint.
type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// UsageReport bundles everything one successful poll cycle produced.
type UsageReport struct {
	LastUpdated time.Time     `json:"lastUpdated"`
	Premium     PremiumUsage  `json:"premium"`
	Current     *UsageSummary `json:"current,omitempty"`
	Previous    *UsageSummary `json:"previous,omitempty"`
	Limit       UsageLimit    `json:"limit"`
	Membership  string        `json:"membership,omitempty"`
}

// Clone returns a deep copy of the report.
func (r *UsageReport) Clone() UsageReport {
	clone := UsageReport{
		LastUpdated: r.LastUpdated,
		Premium:     r.Premium,
		Limit:       r.Limit,
		Membership:  r.Membership,
	}
	if r.Current != nil {
		c := r.Current.Clone()
		clone.Current = &c
	}
	if r.Previous != nil {
		p := r.Previous.Clone()
		clone.Previous = &p
	}
	return clone
}
