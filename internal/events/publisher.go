// Package events publishes segment-change notifications for the external
// workflow system. Publishing is fire-and-forget: a broker outage must
// never fail a classification request.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"segmentation_service/internal/models"
)

const exchangeName = "segment_changed"

// SegmentChangedEvent is the message emitted whenever a stored segment
// value changes, by auto-detection or manual override.
type SegmentChangedEvent struct {
	CustomerID      string         `json:"customerId"`
	PreviousSegment models.Segment `json:"previousSegment"`
	NewSegment      models.Segment `json:"newSegment"`
	Reason          string         `json:"reason"`
	AutoDetected    bool           `json:"autoDetected"`
	OccurredAt      time.Time      `json:"occurredAt"`
}

type Publisher interface {
	PublishSegmentChanged(event SegmentChangedEvent) error
}

type rabbitPublisher struct {
	ch *amqp091.Channel
}

// NewRabbitPublisher declares the fanout exchange and returns a publisher
// bound to it.
func NewRabbitPublisher(ch *amqp091.Channel) (Publisher, error) {
	err := ch.ExchangeDeclare(
		exchangeName,
		"fanout",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return &rabbitPublisher{ch: ch}, nil
}

func (p *rabbitPublisher) PublishSegmentChanged(event SegmentChangedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = p.ch.PublishWithContext(ctx,
		exchangeName,
		"", // fanout ignores routing key
		false,
		false,
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
