// Package audit publishes admin action events to Kafka. Publishing is
// best-effort: the withdrawal and deposit records themselves are the
// authoritative audit trail, the event stream only feeds downstream
// consumers.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cryptopay-server/internal/client"
)

// Actions recorded on the audit stream.
const (
	ActionWithdrawalExecuted = "withdrawal_executed"
	ActionWithdrawalRejected = "withdrawal_rejected"
	ActionDepositVerified    = "deposit_verified"
)

// Event is one admin action.
type Event struct {
	EventID  string    `json:"eventId"`
	Action   string    `json:"action"`
	Entity   string    `json:"entity"`
	EntityID string    `json:"entityId"`
	Actor    string    `json:"actor"`
	At       time.Time `json:"at"`
	Detail   string    `json:"detail,omitempty"`
}

// Publisher writes events to the audit topic. A nil Publisher is valid and
// drops everything.
type Publisher struct {
	producer *client.KafkaProducer
	topic    string
	logger   *zap.Logger
}

// NewPublisher wraps the shared Kafka producer. producer may be nil when
// Kafka is not configured.
func NewPublisher(producer *client.KafkaProducer, topic string, logger *zap.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}
}

// Publish emits an admin action event. Failures are logged, never returned:
// an audit-stream outage must not fail the admin action itself.
func (p *Publisher) Publish(ctx context.Context, action, entity, entityID, actor, detail string) {
	if p == nil || p.producer == nil {
		return
	}

	event := Event{
		EventID:  uuid.NewString(),
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Actor:    actor,
		At:       time.Now().UTC(),
		Detail:   detail,
	}

	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to encode audit event", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.producer.ProduceMessage(ctx, p.topic, []byte(entityID), value); err != nil {
		p.logger.Warn("Failed to publish audit event",
			zap.String("action", action),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}
