package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/zulandar/signalbox/internal/models"
)

// severityColor maps a severity string to a sidebar color.
func severityColor(severity string) string {
	switch severity {
	case "success":
		return ColorSuccess
	case "info":
		return ColorInfo
	case "warning":
		return ColorWarning
	case "error":
		return ColorError
	default:
		return ColorInfo
	}
}

// alertSeverity maps an alert severity onto an event severity.
func alertSeverity(s models.Severity) string {
	switch s {
	case models.SeverityCritical:
		return "error"
	case models.SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

func newEvent(title, body, severity string, fields ...Field) Event {
	return Event{
		Title:    title,
		Body:     body,
		Severity: severity,
		Color:    severityColor(severity),
		Fields:   fields,
		At:       time.Now(),
	}
}

// AlertAcknowledged formats a controller acknowledgement.
func AlertAcknowledged(a models.Alert) Event {
	return newEvent(
		fmt.Sprintf("Alert %s acknowledged", a.ID),
		a.Title+": "+a.Description,
		alertSeverity(a.Severity),
		Field{Name: "Severity", Value: string(a.Severity), Short: true},
		Field{Name: "Trains", Value: strings.Join(a.RelatedTrains, ", "), Short: true},
	)
}

// FallbackUsed formats the substitution of the fallback recommendation.
func FallbackUsed(a models.Alert, rec models.AIRecommendation) Event {
	return newEvent(
		fmt.Sprintf("Fallback recommendation for alert %s", a.ID),
		"AI recommendation unavailable. Proposed: "+rec.Action,
		"warning",
		Field{Name: "Recommendation", Value: rec.ID, Short: true},
	)
}

// RecommendationResolved formats an approval or override.
func RecommendationResolved(rec models.AIRecommendation, approved bool) Event {
	if approved {
		return newEvent(
			fmt.Sprintf("Recommendation %s approved", rec.ID),
			rec.Action,
			"success",
			Field{Name: "Alert", Value: rec.RelatedAlertID, Short: true},
		)
	}
	return newEvent(
		fmt.Sprintf("Recommendation %s overridden", rec.ID),
		"Controller overrode the AI recommendation.",
		"warning",
		Field{Name: "Alert", Value: rec.RelatedAlertID, Short: true},
	)
}

// DigestEvent formats a shift digest.
func DigestEvent(s Summary) Event {
	body := fmt.Sprintf("%d open alert(s), %d train(s) moving, %d stopped.", s.OpenAlerts, s.Moving, s.Stopped)
	return newEvent(
		"Shift digest",
		body,
		"info",
		Field{Name: "Audit entries", Value: fmt.Sprintf("%d", s.AuditEntries), Short: true},
		Field{Name: "Approved", Value: fmt.Sprintf("%d", s.Approved), Short: true},
		Field{Name: "Overridden", Value: fmt.Sprintf("%d", s.Overridden), Short: true},
		Field{Name: "Fallbacks", Value: fmt.Sprintf("%d", s.Fallbacks), Short: true},
	)
}
