// Package models defines data structures and domain types.
package models

import (
	"fmt"
	"time"
)

// BillingPeriod identifies one monthly billing cycle.
type BillingPeriod struct {
	Month int `json:"month"` // 1-12
	Year  int `json:"year"`
}

// CurrentBillingPeriod resolves the billing period containing now. Days
// before boundaryDay still belong to the previous month's cycle, matching
// how the invoice API closes a cycle a few days into the next month.
func CurrentBillingPeriod(now time.Time, boundaryDay int) BillingPeriod {
	p := BillingPeriod{Month: int(now.Month()), Year: now.Year()}
	if now.Day() < boundaryDay {
		return p.Previous()
	}
	return p
}

// Previous returns the billing period one month earlier.
func (p BillingPeriod) Previous() BillingPeriod {
	if p.Month == 1 {
		return BillingPeriod{Month: 12, Year: p.Year - 1}
	}
	return BillingPeriod{Month: p.Month - 1, Year: p.Year}
}

// Label returns a human-readable period name such as "August 2026".
func (p BillingPeriod) Label() string {
	return fmt.Sprintf("%s %d", time.Month(p.Month).String(), p.Year)
}

// Key returns a sortable "YYYY-MM" identifier.
func (p BillingPeriod) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
