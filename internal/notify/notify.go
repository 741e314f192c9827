// Package notify fans signalbox events out to chat platforms and message
// buses (Slack, Discord, NATS).
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Color constants for event severity.
const (
	ColorSuccess = "#36a64f"
	ColorInfo    = "#2196f3"
	ColorWarning = "#ff9800"
	ColorError   = "#e53935"
)

// Notifier delivers a single event.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Event is a signalbox event formatted for display in chat.
type Event struct {
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Severity string    `json:"severity"` // "info", "warning", "error", "success"
	Color    string    `json:"color"`
	Fields   []Field   `json:"fields,omitempty"`
	At       time.Time `json:"at"`
}

// Field is a key-value pair displayed alongside an event.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Short bool   `json:"short"` // hint: render side-by-side with another field
}

// Fanout delivers every event to all of its notifiers. A failing notifier
// does not stop delivery to the rest.
type Fanout []Notifier

// Notify sends ev to each notifier and joins their errors.
func (f Fanout) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range f {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %w", errors.Join(errs...))
	}
	return nil
}

// Summary is the shift digest payload.
type Summary struct {
	Since        time.Time
	OpenAlerts   int
	Moving       int
	Stopped      int
	AuditEntries int
	Approved     int
	Overridden   int
	Fallbacks    int
}
