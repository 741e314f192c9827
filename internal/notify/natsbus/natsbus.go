// Package natsbus publishes signalbox events as JSON on a NATS subject.
package natsbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/zulandar/signalbox/internal/notify"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "signalbox.events"

type publisher interface {
	Publish(subject string, data []byte) error
}

// Publisher implements notify.Notifier over NATS.
type Publisher struct {
	conn    publisher
	subject string
	close   func()
}

// Connect dials url and returns a Publisher for subject.
func Connect(url, subject string) (*Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("signalbox"))
	if err != nil {
		return nil, fmt.Errorf("natsbus: connect %s: %w", url, err)
	}
	p := newPublisher(nc, subject)
	p.close = nc.Close
	return p, nil
}

func newPublisher(conn publisher, subject string) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{conn: conn, subject: subject, close: func() {}}
}

// Notify publishes ev as JSON.
func (p *Publisher) Notify(ctx context.Context, ev notify.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("natsbus: marshal event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("natsbus: publish %s: %w", p.subject, err)
	}
	return nil
}

// Close drops the NATS connection.
func (p *Publisher) Close() {
	p.close()
}
