// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the optional YAML settings file. Every field is a
// pointer so an absent key leaves the default untouched.
type fileConfig struct {
	StateDBPath               *string  `yaml:"stateDbPath"`
	SnapshotDBPath            *string  `yaml:"snapshotDbPath"`
	LogFile                   *string  `yaml:"logFile"`
	LogLevel                  *string  `yaml:"logLevel"`
	RefreshIntervalSeconds    *int     `yaml:"refreshIntervalSeconds"`
	EnableAlerts              *bool    `yaml:"enableAlerts"`
	DesktopNotifications      *bool    `yaml:"desktopNotifications"`
	UsageAlertThresholds      *[]int   `yaml:"usageAlertThresholds"`
	UsageBasedAlertThresholds *[]int   `yaml:"usageBasedAlertThresholds"`
	SpendingAlertThreshold    *float64 `yaml:"spendingAlertThreshold"`
	EnableStatusBarColors     *bool    `yaml:"enableStatusBarColors"`
	StatusBarColor            *string  `yaml:"statusBarColor"`
	ShowExtendedUsage         *bool    `yaml:"showExtendedUsage"`
	Currency                  *string  `yaml:"currency"`
	Locale                    *string  `yaml:"locale"`
	BillingCycleBoundaryDay   *int     `yaml:"billingCycleBoundaryDay"`
	TeamID                    *int     `yaml:"teamId"`
}

// settingsFilePath returns the YAML settings file to read, or "" when none
// exists. CURSOR_STATS_CONFIG overrides the default location.
func settingsFilePath() string {
	if path := os.Getenv("CURSOR_STATS_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, ".config", "cursor-stats", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// applyFile overlays settings from a YAML file onto the config.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read settings file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse settings file: %w", err)
	}

	if fc.StateDBPath != nil {
		c.StateDBPath = *fc.StateDBPath
	}
	if fc.SnapshotDBPath != nil {
		c.SnapshotDBPath = *fc.SnapshotDBPath
	}
	if fc.LogFile != nil {
		c.LogFile = *fc.LogFile
	}
	if fc.LogLevel != nil {
		c.LogLevel = *fc.LogLevel
	}
	if fc.RefreshIntervalSeconds != nil {
		c.RefreshInterval = time.Duration(*fc.RefreshIntervalSeconds) * time.Second
	}
	if fc.EnableAlerts != nil {
		c.EnableAlerts = *fc.EnableAlerts
	}
	if fc.DesktopNotifications != nil {
		c.DesktopNotifications = *fc.DesktopNotifications
	}
	if fc.UsageAlertThresholds != nil {
		c.UsageAlertThresholds = append([]int(nil), (*fc.UsageAlertThresholds)...)
	}
	if fc.UsageBasedAlertThresholds != nil {
		c.UsageBasedAlertThresholds = append([]int(nil), (*fc.UsageBasedAlertThresholds)...)
	}
	if fc.SpendingAlertThreshold != nil {
		c.SpendingAlertThreshold = *fc.SpendingAlertThreshold
	}
	if fc.EnableStatusBarColors != nil {
		c.EnableStatusBarColors = *fc.EnableStatusBarColors
	}
	if fc.StatusBarColor != nil {
		c.StatusBarColor = *fc.StatusBarColor
	}
	if fc.ShowExtendedUsage != nil {
		c.ShowExtendedUsage = *fc.ShowExtendedUsage
	}
	if fc.Currency != nil {
		c.Currency = *fc.Currency
	}
	if fc.Locale != nil {
		c.Locale = *fc.Locale
	}
	if fc.BillingCycleBoundaryDay != nil {
		c.BillingCycleBoundaryDay = *fc.BillingCycleBoundaryDay
	}
	if fc.TeamID != nil {
		c.TeamID = *fc.TeamID
	}

	return nil
}
