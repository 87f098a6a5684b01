package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Subjects for marketplace events. Consumers (notification service,
// analytics) subscribe to "marketplace.>".
const (
	SubjectRouteMaterialized = "marketplace.route.materialized"
	SubjectTicketReserved    = "marketplace.ticket.reserved"
	SubjectTicketCancelled   = "marketplace.ticket.cancelled"
	SubjectTicketPaid        = "marketplace.ticket.paid"
)

// Publisher emits marketplace events. Publishing is fire-and-forget: a
// failed publish is logged, never propagated into the booking flow.
type Publisher interface {
	Publish(subject string, payload interface{})
	Close()
}

// NATSPublisher publishes events to a NATS broker
type NATSPublisher struct {
	nc     *nats.Conn
	logger *logrus.Logger
}

// NewNATSPublisher connects to the broker at the given URL
func NewNATSPublisher(url string, logger *logrus.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("marketplace-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{nc: nc, logger: logger}, nil
}

// Publish emits one event, logging failures instead of returning them
func (p *NATSPublisher) Publish(subject string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.WithError(err).WithField("subject", subject).Error("Failed to encode event")
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.WithError(err).WithField("subject", subject).Error("Failed to publish event")
	}
}

// Close drains and closes the connection
func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		p.nc.Close()
	}
}

// NoopPublisher discards all events. Used when no broker is configured.
type NoopPublisher struct{}

// Publish discards the event
func (NoopPublisher) Publish(string, interface{}) {}

// Close does nothing
func (NoopPublisher) Close() {}
