// Package config contains everything related to configuration
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Dwtexe/cursor-stats/internal/logger"
)

// Config holds the application configuration.
type Config struct {
	// Paths
	StateDBPath    string // Cursor's state.vscdb holding the session credential
	SnapshotDBPath string // local usage history database
	LogFile        string
	LogLevel       string

	// Polling
	RefreshInterval time.Duration // floored at minRefreshInterval

	// Alerts
	EnableAlerts              bool
	DesktopNotifications      bool
	UsageAlertThresholds      []int   // premium request percent thresholds
	UsageBasedAlertThresholds []int   // usage-based spend percent thresholds
	SpendingAlertThreshold    float64 // dollars per alert step, <= 0 disables

	// Display
	EnableStatusBarColors bool
	StatusBarColor        string // override; empty picks the gradient color
	ShowExtendedUsage     bool
	Currency              string
	Locale                string

	// Billing
	BillingCycleBoundaryDay int

	// Team accounts read premium usage through the team-scoped endpoint.
	TeamID int
}

// Default values
const (
	defaultRefreshInterval = 60 * time.Second
	minRefreshInterval     = 5 * time.Second
	defaultBoundaryDay     = 3
	defaultSpendingStep    = 1.0
	defaultCurrency        = "USD"
	defaultLocale          = "en"
)

var (
	defaultUsageThresholds      = []int{10, 30, 50, 75, 90, 100}
	defaultUsageBasedThresholds = []int{75, 90, 100}
)

// Load reads configuration from .env files, an optional YAML settings file,
// and environment variables. Environment variables win over the file, the
// file wins over defaults.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := defaults()

	if path := settingsFilePath(); path != "" {
		if err := cfg.applyFile(path); err != nil {
			logger.Warn("ignoring unreadable settings file", "path", path, "error", err)
		}
	}

	cfg.applyEnv()
	cfg.normalize()

	// Ensure the snapshot database directory exists
	if err := ensureDir(filepath.Dir(cfg.SnapshotDBPath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		StateDBPath:               defaultStateDBPath(),
		SnapshotDBPath:            defaultSnapshotDBPath(),
		LogFile:                   defaultLogFilePath(),
		LogLevel:                  "info",
		RefreshInterval:           defaultRefreshInterval,
		EnableAlerts:              true,
		DesktopNotifications:      true,
		UsageAlertThresholds:      append([]int(nil), defaultUsageThresholds...),
		UsageBasedAlertThresholds: append([]int(nil), defaultUsageBasedThresholds...),
		SpendingAlertThreshold:    defaultSpendingStep,
		EnableStatusBarColors:     true,
		ShowExtendedUsage:         false,
		Currency:                  defaultCurrency,
		Locale:                    defaultLocale,
		BillingCycleBoundaryDay:   defaultBoundaryDay,
	}
}

func (c *Config) applyEnv() {
	c.StateDBPath = getEnvString("CURSOR_STATE_DB", c.StateDBPath)
	c.SnapshotDBPath = getEnvString("SNAPSHOT_DB_PATH", c.SnapshotDBPath)
	c.LogFile = getEnvString("LOG_FILE", c.LogFile)
	c.LogLevel = getEnvString("LOG_LEVEL", c.LogLevel)
	c.RefreshInterval = getEnvDuration("REFRESH_INTERVAL", c.RefreshInterval)
	c.EnableAlerts = getEnvBool("ENABLE_ALERTS", c.EnableAlerts)
	c.DesktopNotifications = getEnvBool("DESKTOP_NOTIFICATIONS", c.DesktopNotifications)
	c.UsageAlertThresholds = getEnvIntList("USAGE_ALERT_THRESHOLDS", c.UsageAlertThresholds)
	c.UsageBasedAlertThresholds = getEnvIntList("USAGE_BASED_ALERT_THRESHOLDS", c.UsageBasedAlertThresholds)
	c.SpendingAlertThreshold = getEnvFloat("SPENDING_ALERT_THRESHOLD", c.SpendingAlertThreshold)
	c.EnableStatusBarColors = getEnvBool("STATUS_BAR_COLORS", c.EnableStatusBarColors)
	c.StatusBarColor = getEnvString("STATUS_BAR_COLOR", c.StatusBarColor)
	c.ShowExtendedUsage = getEnvBool("SHOW_EXTENDED_USAGE", c.ShowExtendedUsage)
	c.Currency = getEnvString("DISPLAY_CURRENCY", c.Currency)
	c.Locale = getEnvString("LOCALE", c.Locale)
	c.BillingCycleBoundaryDay = getEnvInt("BILLING_BOUNDARY_DAY", c.BillingCycleBoundaryDay)
	c.TeamID = getEnvInt("CURSOR_TEAM_ID", c.TeamID)
}

// normalize clamps and de-duplicates values so the rest of the program can
// trust the config without re-checking.
func (c *Config) normalize() {
	if c.RefreshInterval < minRefreshInterval {
		logger.Warn("refresh interval below minimum, clamping",
			"requested", c.RefreshInterval, "minimum", minRefreshInterval)
		c.RefreshInterval = minRefreshInterval
	}
	if c.BillingCycleBoundaryDay < 0 || c.BillingCycleBoundaryDay > 28 {
		c.BillingCycleBoundaryDay = defaultBoundaryDay
	}
	c.UsageAlertThresholds = sanitizeThresholds(c.UsageAlertThresholds)
	c.UsageBasedAlertThresholds = sanitizeThresholds(c.UsageBasedAlertThresholds)
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
	if c.Currency == "" {
		c.Currency = defaultCurrency
	}
}

// sanitizeThresholds drops non-positive and duplicate entries and returns
// the remainder sorted ascending. An empty result disables the axis.
func sanitizeThresholds(in []int) []int {
	seen := make(map[int]bool, len(in))
	out := make([]int, 0, len(in))
	for _, v := range in {
		if v <= 0 || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "cursor-stats", ".env"),
			filepath.Join(home, ".cursor-stats", ".env"),
		)
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
	}

	return paths
}

// defaultStateDBPath locates Cursor's global storage database for the
// current platform.
func defaultStateDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "state.vscdb"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Cursor",
			"User", "globalStorage", "state.vscdb")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "Cursor", "User", "globalStorage", "state.vscdb")
	default:
		return filepath.Join(home, ".config", "Cursor", "User", "globalStorage", "state.vscdb")
	}
}

// defaultSnapshotDBPath returns the default path for the local history DB.
func defaultSnapshotDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "usage.db"
	}
	return filepath.Join(home, ".config", "cursor-stats", "usage.db")
}

// defaultLogFilePath keeps log lines out of the terminal while the
// alternate screen is active.
func defaultLogFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "cursor-stats.log"
	}
	return filepath.Join(home, ".config", "cursor-stats", "cursor-stats.log")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		logger.Warn("invalid boolean env value, using default", "key", key, "value", value)
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		logger.Warn("invalid integer env value, using default", "key", key, "value", value)
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns the default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		logger.Warn("invalid numeric env value, using default", "key", key, "value", value)
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms", or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
		logger.Warn("invalid duration env value, using default", "key", key, "value", value)
	}
	return defaultValue
}

// getEnvIntList retrieves a comma-separated integer list or returns the default.
func getEnvIntList(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			logger.Warn("invalid list env value, using default", "key", key, "value", value)
			return defaultValue
		}
		out = append(out, n)
	}
	return out
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
