// Package events publishes property lifecycle notifications.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Event types.
const (
	PropertyCreated = "property.created"
	PropertyUpdated = "property.updated"
	PropertyDeleted = "property.deleted"
)

// Event describes a committed change to a property.
type Event struct {
	Type       string    `json:"type"`
	PropertyID uuid.UUID `json:"propertyId"`
	CreatorID  uuid.UUID `json:"creatorId"`
	OccurredAt time.Time `json:"occurredAt"`
}

// New builds an event stamped with the current time.
func New(typ string, propertyID, creatorID uuid.UUID) Event {
	return Event{Type: typ, PropertyID: propertyID, CreatorID: creatorID, OccurredAt: time.Now().UTC()}
}

// Publisher sends events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Noop discards events.
type Noop struct{}

// Publish does nothing.
func (Noop) Publish(context.Context, Event) error { return nil }

// NATSPublisher publishes each event on a subject named after its type,
// prefixed with the configured subject prefix.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
}

// ConnectNATS dials url and returns a publisher using subjectPrefix.
func ConnectNATS(url, subjectPrefix string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("yariga-api"),
		nats.MaxReconnects(-1),
		nats.Timeout(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSPublisher{nc: nc, prefix: subjectPrefix}, nil
}

// Subject returns the subject an event of type typ is published on.
func (p *NATSPublisher) Subject(typ string) string {
	if p.prefix == "" {
		return typ
	}
	return p.prefix + "." + typ
}

// Publish encodes event as JSON and publishes it.
func (p *NATSPublisher) Publish(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.nc.Publish(p.Subject(event.Type), data); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}
