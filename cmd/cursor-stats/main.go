// Package main is the entry point for the cursor-stats terminal application.
// It initializes configuration, services, and runs the Bubble Tea program.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dwtexe/cursor-stats/internal/app"
	"github.com/Dwtexe/cursor-stats/internal/config"
	"github.com/Dwtexe/cursor-stats/internal/logger"
	"github.com/Dwtexe/cursor-stats/internal/services"
	"github.com/Dwtexe/cursor-stats/internal/ui/tabs/dashboard"
	"github.com/Dwtexe/cursor-stats/internal/ui/tabs/history"
	"github.com/Dwtexe/cursor-stats/internal/ui/tabs/settings"
	"github.com/Dwtexe/cursor-stats/internal/version"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Handle help flag
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	// Run the application
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run() error {
	// 1. Load configuration from .env files, the YAML settings file, and
	// environment variables
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Route log output to a file so the alternate screen stays clean
	if err := logger.Setup(cfg.LogFile, cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	logger.Info("starting cursor-stats", "version", version.GetVersion())

	// 3. Initialize the service manager
	// This starts the background usage poller and alert evaluation
	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	// Ensure cleanup on exit
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	// 4. Create the root Bubble Tea model
	model := app.NewModel(svcManager)

	// 5. Initialize tabs with shared state and services
	// Each tab receives the shared application state for consistent data access
	state := model.GetState()
	tabs := []app.Tab{
		dashboard.New(state, svcManager, cfg), // Tab 0: Dashboard - usage overview
		history.New(state, svcManager),        // Tab 1: History - spend history and alerts
		settings.New(state, svcManager, cfg),  // Tab 2: Settings - limits and configuration
	}
	model.SetTabs(tabs)

	// 6. Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// 7. Create and configure the Bubble Tea program
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),       // Use alternate screen buffer (full terminal)
		tea.WithMouseCellMotion(), // Enable mouse support for selection
		tea.WithReportFocus(),     // Focus events pause polling in the background
	)

	// 8. Handle signals in a separate goroutine
	go func() {
		<-sigChan
		// Send quit message to the program
		p.Send(tea.Quit())
	}()

	// 9. Run the TUI program
	// This blocks until the user quits or an error occurs
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`Cursor Stats - Cursor usage and spending monitor for the terminal

Usage:
  cursor-stats [flags]

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-3             Switch between tabs (Dashboard, History, Settings)
  Tab/Shift+Tab   Navigate between tabs
  j/k, Up/Down    Scroll
  e               Toggle extended usage details (Dashboard)
  t               Toggle time range (History)
  l               Set the usage-based spending limit (Settings)
  x               Reset fired alerts (Settings)
  r               Refresh data
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  CURSOR_SESSION_TOKEN          Session token (overrides the state database)
  CURSOR_STATE_DB               Path to Cursor's state.vscdb
  SNAPSHOT_DB_PATH              Local usage history database path
  REFRESH_INTERVAL              Polling interval (default: 60s, minimum 5s)
  USAGE_ALERT_THRESHOLDS        Premium request alert percents (comma separated)
  USAGE_BASED_ALERT_THRESHOLDS  Usage-based spend alert percents
  SPENDING_ALERT_THRESHOLD      Dollars per spending alert step
  DISPLAY_CURRENCY              Display currency code (default: USD)

Configuration:
  Settings are read from ~/.config/cursor-stats/config.yaml when present
  (override the path with CURSOR_STATS_CONFIG). The application also looks
  for .env files in the following locations:
  - Current directory
  - ~/.config/cursor-stats/.env
  - ~/.cursor-stats/.env

For more information, visit: https://github.com/Dwtexe/cursor-stats`)
}
