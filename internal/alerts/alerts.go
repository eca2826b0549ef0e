package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Severity levels for alerts
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// Alert represents an alert message
type Alert struct {
	Title     string
	Message   string
	Severity  Severity
	Timestamp time.Time
	Metadata  map[string]interface{}
}

// Alerter defines the interface for sending alerts
type Alerter interface {
	Send(ctx context.Context, alert Alert) error
}

// Manager fans an alert out to every configured channel
type Manager struct {
	alerters []Alerter
}

// NewManager creates a new alert manager
func NewManager(alerters ...Alerter) *Manager {
	return &Manager{
		alerters: alerters,
	}
}

// Send sends an alert to all configured alerters
func (m *Manager) Send(ctx context.Context, alert Alert) error {
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now()
	}

	var lastErr error
	for _, alerter := range m.alerters {
		if err := alerter.Send(ctx, alert); err != nil {
			log.Error().
				Err(err).
				Str("title", alert.Title).
				Msg("Failed to send alert")
			lastErr = err
		}
	}

	return lastErr
}

// SendCritical is a convenience method for sending critical alerts
func (m *Manager) SendCritical(ctx context.Context, title, message string, metadata map[string]interface{}) error {
	return m.Send(ctx, Alert{
		Title:    title,
		Message:  message,
		Severity: SeverityCritical,
		Metadata: metadata,
	})
}

// SendWarning is a convenience method for sending warning alerts
func (m *Manager) SendWarning(ctx context.Context, title, message string, metadata map[string]interface{}) error {
	return m.Send(ctx, Alert{
		Title:    title,
		Message:  message,
		Severity: SeverityWarning,
		Metadata: metadata,
	})
}

// SendInfo is a convenience method for sending info alerts
func (m *Manager) SendInfo(ctx context.Context, title, message string, metadata map[string]interface{}) error {
	return m.Send(ctx, Alert{
		Title:    title,
		Message:  message,
		Severity: SeverityInfo,
		Metadata: metadata,
	})
}

// LogAlerter logs alerts using zerolog
type LogAlerter struct{}

// NewLogAlerter creates a new log-based alerter
func NewLogAlerter() *LogAlerter {
	return &LogAlerter{}
}

// Send sends an alert by logging it
func (l *LogAlerter) Send(ctx context.Context, alert Alert) error {
	var event = log.Log()
	switch alert.Severity {
	case SeverityCritical:
		event = log.Error()
	case SeverityWarning:
		event = log.Warn()
	case SeverityInfo:
		event = log.Info()
	}

	for key, value := range alert.Metadata {
		event = event.Interface(key, value)
	}

	event.
		Str("alert_title", alert.Title).
		Str("alert_severity", string(alert.Severity)).
		Time("alert_time", alert.Timestamp).
		Msg(fmt.Sprintf("ALERT: %s", alert.Message))

	return nil
}

// Default global alert manager (can be replaced with custom configuration)
var defaultManager = NewManager(NewLogAlerter())

// GetDefaultManager returns the default alert manager
func GetDefaultManager() *Manager {
	return defaultManager
}

// SetDefaultManager sets the default alert manager
func SetDefaultManager(manager *Manager) {
	defaultManager = manager
}

// Helper functions for the bot's common alerts

// AlertIndexEvent announces a detected index membership change
func AlertIndexEvent(ctx context.Context, source string, added, removed []string, confidence float64) {
	defaultManager.SendInfo(ctx, "S&P 500 Index Change Detected", fmt.Sprintf(
		"%s reports %d addition(s), %d removal(s) (confidence %.2f)",
		source, len(added), len(removed), confidence,
	), map[string]interface{}{
		"source":     source,
		"added":      added,
		"removed":    removed,
		"confidence": confidence,
	})
}

// AlertRiskLevelChanged announces a change in the assessed risk level
func AlertRiskLevelChanged(ctx context.Context, previous, current string, score float64) {
	send := defaultManager.SendWarning
	if current == "CRITICAL" {
		send = defaultManager.SendCritical
	}
	send(ctx, "Risk Level Changed", fmt.Sprintf(
		"Systemic risk level moved from %s to %s (score %.3f)", previous, current, score,
	), map[string]interface{}{
		"previous": previous,
		"current":  current,
		"score":    score,
	})
}

// AlertHedgeRecommended announces a hedge recommendation
func AlertHedgeRecommended(ctx context.Context, symbol string, value float64, reason string) {
	defaultManager.SendWarning(ctx, "Hedge Recommended", fmt.Sprintf(
		"Opening %s hedge worth $%.2f: %s", symbol, value, reason,
	), map[string]interface{}{
		"symbol": symbol,
		"value":  value,
		"reason": reason,
	})
}

// AlertOrderFailed sends an alert for an execution failure
func AlertOrderFailed(ctx context.Context, ticker, side string, value float64, err error) {
	defaultManager.SendCritical(ctx, "Order Placement Failed", fmt.Sprintf(
		"Failed to open %s position for %s: %v", side, ticker, err,
	), map[string]interface{}{
		"ticker": ticker,
		"side":   side,
		"value":  value,
		"error":  err.Error(),
	})
}

// AlertProviderDegraded sends an alert when market data cannot be fetched
func AlertProviderDegraded(ctx context.Context, provider string, err error) {
	defaultManager.SendWarning(ctx, "Market Data Degraded", fmt.Sprintf(
		"Provider %s is failing: %v", provider, err,
	), map[string]interface{}{
		"provider": provider,
		"error":    err.Error(),
	})
}

// AlertSystemError sends an alert for critical system errors
func AlertSystemError(ctx context.Context, component string, err error) {
	defaultManager.SendCritical(ctx, "System Error", fmt.Sprintf(
		"Critical error in %s: %v", component, err,
	), map[string]interface{}{
		"component": component,
		"error":     err.Error(),
	})
}
