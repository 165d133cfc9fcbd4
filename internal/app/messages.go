package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dwtexe/cursor-stats/internal/models"
	"github.com/Dwtexe/cursor-stats/internal/services"
)

// TickMsg is sent periodically to trigger state refresh.
type TickMsg struct {
	Time time.Time
}

// StartLoadingMsg signals that a resource is starting to load.
type StartLoadingMsg struct {
	Resource string
}

// StopLoadingMsg signals that a resource has finished loading.
type StopLoadingMsg struct {
	Resource string
}

// ReportLoadedMsg carries the report and forecast present at startup, so a
// restart with a warm service does not begin on an empty dashboard.
type ReportLoadedMsg struct {
	Report   *models.UsageReport
	Forecast *models.SpendForecast
}

// RefreshMsg requests an immediate poll cycle.
type RefreshMsg struct{}

// SetLimitResultMsg contains the result of a hard limit change.
type SetLimitResultMsg struct {
	Limit        float64
	NoUsageBased bool
	Success      bool
	Error        error
}

// AlertsResetMsg confirms that notified thresholds were cleared.
type AlertsResetMsg struct{}

// AddNotificationMsg requests adding a new notification.
type AddNotificationMsg struct {
	Type     NotificationType
	Message  string
	Duration time.Duration
}

// RemoveNotificationMsg requests removal of a notification.
type RemoveNotificationMsg struct {
	ID string
}

// ClearExpiredNotificationsMsg triggers clearing of expired notifications.
type ClearExpiredNotificationsMsg struct{}

// ServiceEventMsg wraps a service event from the service manager.
type ServiceEventMsg struct {
	Event services.ServiceEvent
}

// SubscriptionEventMsg is the callback wrapper for service subscription.
type SubscriptionEventMsg struct {
	Channel chan services.ServiceEvent
}

// ErrorMsg represents a general error.
type ErrorMsg struct {
	Error   error
	Context string
}

// QuitMsg requests the application to quit.
type QuitMsg struct{}

// TabSwitchMsg requests switching to a specific tab.
type TabSwitchMsg struct {
	Tab TabID
}

// ToggleHelpMsg toggles the help display.
type ToggleHelpMsg struct{}

// DelayedMsg wraps a message to be sent after a delay.
type DelayedMsg struct {
	Delay time.Duration
	Msg   tea.Msg
}
