package client

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// AlertPublisher publishes operational alerts to NATS for consumption by the
// notifications service.
//
// Subject convention: alerts.waste.<event_type>
// Event types: weighing_variance_review, retrieval_exhausted
//
// All publish operations are non-fatal — errors are logged but never
// propagated to the caller, so alerting failures never interrupt dashboard
// operations.
type AlertPublisher struct {
	nc  *nats.Conn
	log zerolog.Logger
}

// AlertEvent is the JSON schema published to NATS.
type AlertEvent struct {
	EventID    string         `json:"event_id"`
	EventType  string         `json:"event_type"`
	ActorID    string         `json:"actor_id,omitempty"`
	Severity   string         `json:"severity"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// NewAlertPublisher creates a publisher backed by the given NATS connection.
// A nil connection disables publishing.
func NewAlertPublisher(nc *nats.Conn, log zerolog.Logger) *AlertPublisher {
	return &AlertPublisher{nc: nc, log: log.With().Str("component", "alerts").Logger()}
}

// Publish sends an alert event. Subject: alerts.waste.<eventType>.
func (p *AlertPublisher) Publish(eventType, severity, actorID string, payload map[string]any) {
	if p.nc == nil {
		return
	}

	event := AlertEvent{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		ActorID:    actorID,
		Severity:   severity,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error().Err(err).Str("event_type", eventType).Msg("Failed to encode alert event")
		return
	}

	subject := "alerts.waste." + eventType
	if err := p.nc.Publish(subject, data); err != nil {
		p.log.Error().Err(err).Str("subject", subject).Msg("Failed to publish alert event")
		return
	}

	p.log.Debug().
		Str("subject", subject).
		Str("event_id", event.EventID).
		Msg("Alert event published")
}
