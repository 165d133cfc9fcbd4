package notify

import (
	"strings"

	"github.com/gen2brain/beeep"

	"github.com/Dwtexe/cursor-stats/internal/logger"
)

// Sink renders fired alerts. Implementations return an error when their
// surface is unavailable; callers fall back down a chain rather than losing
// the alert.
type Sink interface {
	Notify(alert Alert) error
}

// DesktopSink shows alerts as native desktop notifications.
type DesktopSink struct {
	Title string
}

// Notify implements Sink.
func (s DesktopSink) Notify(alert Alert) error {
	title := s.Title
	if title == "" {
		title = "Cursor Stats"
	}

	body := alert.Message
	if alert.Detail != "" {
		body += "\n" + alert.Detail
	}
	return beeep.Notify(title, body, "")
}

// LogSink writes alerts to the log. It never fails, which makes it the
// fallback of last resort.
type LogSink struct{}

// Notify implements Sink.
func (LogSink) Notify(alert Alert) error {
	labels := make([]string, 0, len(alert.Actions))
	for _, a := range alert.Actions {
		labels = append(labels, a.Label)
	}
	logger.Warn("usage alert",
		"axis", string(alert.Axis),
		"threshold", alert.Threshold,
		"message", alert.Message,
		"actions", strings.Join(labels, ","))
	return nil
}

// Dispatch delivers the alert to the first sink that accepts it, falling
// back down the chain on failure. Threshold state is already recorded by
// the time an alert reaches a sink, so a delivery failure never un-fires a
// threshold.
func Dispatch(alert Alert, sinks ...Sink) {
	for _, sink := range sinks {
		if sink == nil {
			continue
		}
		if err := sink.Notify(alert); err != nil {
			logger.Error("alert delivery failed, falling back",
				"axis", string(alert.Axis), "error", err)
			continue
		}
		return
	}
}
