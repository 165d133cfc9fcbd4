// Package cursor talks to the Cursor billing and usage API.
package cursor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Dwtexe/cursor-stats/internal/logger"
	"github.com/Dwtexe/cursor-stats/internal/models"
)

const (
	defaultBaseURL = "https://cursor.com/api"
	userAgent      = "cursor-stats/1.0"
)

// Client is an authenticated Cursor API client. Calls never retry; the
// poll timer owns the next attempt.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client against the production API.
func NewClient() *Client {
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// sessionCookie builds the WorkosCursorSessionToken cookie the dashboard
// endpoints authenticate with. The separator stays percent-encoded.
func sessionCookie(session models.Session) string {
	return "WorkosCursorSessionToken=" + session.UserID + "%3A%3A" + session.Token
}

// do executes one authenticated JSON call and decodes the response into out.
func (c *Client) do(ctx context.Context, session models.Session, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &TransportError{Endpoint: path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Cookie", sessionCookie(session))

	requestID := uuid.NewString()
	logger.Debug("api request", "endpoint", path, "request_id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Endpoint: path, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Endpoint: path, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		logger.Warn("api request failed", "endpoint", path,
			"status", resp.StatusCode, "request_id", requestID)
		return &TransportError{
			Endpoint: path,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("unexpected status"),
		}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return &PayloadError{Endpoint: path, Err: err}
		}
	}
	return nil
}

// GetUsageLimit fetches the account's usage-based spending configuration.
func (c *Client) GetUsageLimit(ctx context.Context, session models.Session) (*models.UsageLimit, error) {
	var resp struct {
		HardLimit           *float64 `json:"hardLimit"`
		NoUsageBasedAllowed bool     `json:"noUsageBasedAllowed"`
	}
	if err := c.do(ctx, session, http.MethodPost, "/dashboard/get-hard-limit", struct{}{}, &resp); err != nil {
		return nil, err
	}

	limit := &models.UsageLimit{NoUsageBasedAllowed: resp.NoUsageBasedAllowed}
	if resp.HardLimit != nil {
		limit.HardLimitDollars = *resp.HardLimit
	}
	return limit, nil
}

// SetUsageLimit updates the hard limit and whether usage-based pricing is
// allowed at all.
func (c *Client) SetUsageLimit(ctx context.Context, session models.Session, hardLimitDollars float64, noUsageBased bool) error {
	payload := struct {
		HardLimitPerUser    float64 `json:"hardLimitPerUser"`
		NoUsageBasedAllowed bool    `json:"noUsageBasedAllowed"`
	}{
		HardLimitPerUser:    hardLimitDollars,
		NoUsageBasedAllowed: noUsageBased,
	}
	return c.do(ctx, session, http.MethodPost, "/dashboard/set-hard-limit", payload, nil)
}

// invoiceItemWire tolerates the cents field arriving as any numeric shape
// or not at all.
type invoiceItemWire struct {
	Description string          `json:"description"`
	Cents       json.RawMessage `json:"cents"`
}

type usageEventWire struct {
	Model      string          `json:"model"`
	PriceCents json.RawMessage `json:"priceCents"`
	MaxMode    bool            `json:"maxMode"`
}

// GetMonthlyInvoice fetches one billing period's line items and usage
// events. Individual rows that fail to parse are skipped, not fatal.
func (c *Client) GetMonthlyInvoice(ctx context.Context, session models.Session, period models.BillingPeriod) (*models.Invoice, error) {
	payload := struct {
		Month              int  `json:"month"`
		Year               int  `json:"year"`
		IncludeUsageEvents bool `json:"includeUsageEvents"`
	}{
		Month:              period.Month,
		Year:               period.Year,
		IncludeUsageEvents: true,
	}

	var resp struct {
		Items       []json.RawMessage `json:"items"`
		UsageEvents []json.RawMessage `json:"usageEvents"`
	}
	if err := c.do(ctx, session, http.MethodPost, "/dashboard/get-monthly-invoice", payload, &resp); err != nil {
		return nil, err
	}

	invoice := &models.Invoice{
		Items:  make([]models.UsageLineItem, 0, len(resp.Items)),
		Events: make([]models.UsageEvent, 0, len(resp.UsageEvents)),
	}

	for _, raw := range resp.Items {
		var wire invoiceItemWire
		if err := json.Unmarshal(raw, &wire); err != nil {
			logger.Warn("skipping unparseable invoice item", "error", err)
			continue
		}
		item := models.UsageLineItem{Description: wire.Description}
		if cents, ok := parseNumber(wire.Cents); ok {
			v := int64(math.Round(cents))
			item.Cents = &v
		}
		invoice.Items = append(invoice.Items, item)
	}

	for _, raw := range resp.UsageEvents {
		var wire usageEventWire
		if err := json.Unmarshal(raw, &wire); err != nil {
			logger.Warn("skipping unparseable usage event", "error", err)
			continue
		}
		price, ok := parseNumber(wire.PriceCents)
		if !ok || wire.Model == "" {
			continue
		}
		invoice.Events = append(invoice.Events, models.UsageEvent{
			Model:      wire.Model,
			PriceCents: price,
			MaxMode:    wire.MaxMode,
		})
	}

	return invoice, nil
}

// parseNumber accepts a JSON number or a numeric string. The usage event
// stream has shipped both over time.
func parseNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// GetPremiumUsage fetches the flat-rate request counters for an individual
// account.
func (c *Client) GetPremiumUsage(ctx context.Context, session models.Session) (models.PremiumUsage, error) {
	var resp struct {
		GPT4 struct {
			NumRequests     int `json:"numRequests"`
			MaxRequestUsage int `json:"maxRequestUsage"`
		} `json:"gpt-4"`
		StartOfMonth string `json:"startOfMonth"`
	}
	if err := c.do(ctx, session, http.MethodGet, "/usage?user="+session.UserID, nil, &resp); err != nil {
		return models.PremiumUsage{}, err
	}

	usage := models.PremiumUsage{
		Current: resp.GPT4.NumRequests,
		Limit:   resp.GPT4.MaxRequestUsage,
	}
	if resp.StartOfMonth != "" {
		if t, err := time.Parse(time.RFC3339, resp.StartOfMonth); err == nil {
			usage.StartOfMonth = t
		}
	}
	return usage, nil
}

// GetTeams lists the teams the account belongs to. An empty list means an
// individual account.
func (c *Client) GetTeams(ctx context.Context, session models.Session) ([]models.Team, error) {
	var resp struct {
		Teams []models.Team `json:"teams"`
	}
	if err := c.do(ctx, session, http.MethodPost, "/dashboard/teams", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.Teams, nil
}

// GetTeamMemberID resolves the caller's numeric member ID inside a team,
// which the team usage rows are keyed by.
func (c *Client) GetTeamMemberID(ctx context.Context, session models.Session, teamID int) (int, error) {
	payload := struct {
		TeamID int `json:"teamId"`
	}{TeamID: teamID}

	var resp struct {
		UserID int `json:"userId"`
	}
	if err := c.do(ctx, session, http.MethodPost, "/dashboard/team", payload, &resp); err != nil {
		return 0, err
	}
	if resp.UserID == 0 {
		return 0, &PayloadError{Endpoint: "/dashboard/team", Err: fmt.Errorf("no member id for caller")}
	}
	return resp.UserID, nil
}

// GetTeamPremiumUsage fetches team usage and extracts the caller's premium
// request counters, normalized to the individual shape.
func (c *Client) GetTeamPremiumUsage(ctx context.Context, session models.Session, teamID, memberID int) (models.PremiumUsage, error) {
	payload := struct {
		TeamID int `json:"teamId"`
	}{TeamID: teamID}

	var resp struct {
		TeamMemberUsage []struct {
			ID        int `json:"id"`
			UsageData []struct {
				ModelType       string `json:"modelType"`
				NumRequests     int    `json:"numRequests"`
				MaxRequestUsage int    `json:"maxRequestUsage"`
			} `json:"usageData"`
		} `json:"teamMemberUsage"`
	}
	if err := c.do(ctx, session, http.MethodPost, "/dashboard/get-team-usage", payload, &resp); err != nil {
		return models.PremiumUsage{}, err
	}

	for _, member := range resp.TeamMemberUsage {
		if member.ID != memberID {
			continue
		}
		for _, usage := range member.UsageData {
			if usage.ModelType == "gpt-4" {
				return models.PremiumUsage{
					Current: usage.NumRequests,
					Limit:   usage.MaxRequestUsage,
				}, nil
			}
		}
	}
	return models.PremiumUsage{}, &PayloadError{
		Endpoint: "/dashboard/get-team-usage",
		Err:      fmt.Errorf("member %d not present in team usage", memberID),
	}
}
