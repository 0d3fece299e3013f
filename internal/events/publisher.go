package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/marketly/marketly-backend/pkg/logger"
)

type EventType string

const (
	OrderCreated              EventType = "order.created"
	OrderStatusChanged        EventType = "order.status_changed"
	OrderPaymentStatusChanged EventType = "order.payment_status_changed"
)

const (
	envelopeVersion       = 1
	defaultPublishTimeout = 10 * time.Second
)

// OrderEvent describes a change to an order aggregate.
type OrderEvent struct {
	Type       EventType
	OrderID    uuid.UUID
	ActorID    *uuid.UUID
	Data       any
	OccurredAt time.Time
}

// Envelope is the JSON body published for every event.
type Envelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	Type       EventType       `json:"type"`
	OrderID    uuid.UUID       `json:"orderId"`
	ActorID    *uuid.UUID      `json:"actorId,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// Publisher fans order events out to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type topicPublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

type gcpPublisher struct {
	pub *gcppubsub.Publisher
}

func (g gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return g.pub.Publish(ctx, msg)
}

// PubSubPublisher publishes order events to a Pub/Sub topic.
type PubSubPublisher struct {
	topic topicPublisher
	logg  *logger.Logger
	now   func() time.Time
}

// NewPubSubPublisher wraps a Pub/Sub publisher handle.
func NewPubSubPublisher(pub *gcppubsub.Publisher, logg *logger.Logger) (*PubSubPublisher, error) {
	if pub == nil {
		return nil, errors.New("pubsub publisher required")
	}
	return newPubSubPublisher(gcpPublisher{pub: pub}, logg), nil
}

func newPubSubPublisher(topic topicPublisher, logg *logger.Logger) *PubSubPublisher {
	return &PubSubPublisher{topic: topic, logg: logg, now: time.Now}
}

func (p *PubSubPublisher) Publish(ctx context.Context, event OrderEvent) error {
	envelope, err := BuildEnvelope(event, p.now)
	if err != nil {
		return err
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	msg := &gcppubsub.Message{
		Data: body,
		Attributes: map[string]string{
			"event_id":    envelope.EventID,
			"event_type":  string(envelope.Type),
			"order_id":    envelope.OrderID.String(),
			"occurred_at": envelope.OccurredAt.Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := p.topic.Publish(publishCtx, msg)
	if result == nil {
		return errors.New("publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publish %s: %w", envelope.Type, err)
	}

	if p.logg != nil {
		logCtx := p.logg.WithFields(ctx, map[string]any{
			"event_id":   envelope.EventID,
			"event_type": envelope.Type,
			"order_id":   envelope.OrderID.String(),
		})
		p.logg.Info(logCtx, "order event published")
	}
	return nil
}

// BuildEnvelope stamps an event with an id and timestamp.
func BuildEnvelope(event OrderEvent, now func() time.Time) (Envelope, error) {
	if event.Type == "" {
		return Envelope{}, errors.New("event type required")
	}
	if event.OrderID == uuid.Nil {
		return Envelope{}, errors.New("order id required")
	}
	data, err := json.Marshal(event.Data)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode event data: %w", err)
	}
	occurred := event.OccurredAt
	if occurred.IsZero() {
		if now == nil {
			now = time.Now
		}
		occurred = now()
	}
	return Envelope{
		Version:    envelopeVersion,
		EventID:    uuid.NewString(),
		Type:       event.Type,
		OrderID:    event.OrderID,
		ActorID:    event.ActorID,
		OccurredAt: occurred.UTC(),
		Data:       data,
	}, nil
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, OrderEvent) error { return nil }
