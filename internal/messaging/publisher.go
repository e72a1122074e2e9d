package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// TurnEventPayload is published after every successfully persisted turn.
// Consumers (analytics aggregation, notification fanout) are external.
type TurnEventPayload struct {
	UserID       string    `json:"userId"`
	StoryID      string    `json:"storyId"`
	StoryTitle   string    `json:"storyTitle"`
	TurnIndex    int       `json:"turnIndex"`
	TotalTokens  int       `json:"totalTokens"`
	EstCostUSD   float64   `json:"estCostUsd"`
	OccurredAt   time.Time `json:"occurredAt"`
	FirstTurn    bool      `json:"firstTurn"`
	ProviderName string    `json:"provider,omitempty"`
}

// TurnEventPublisher defines the interface for publishing turn events.
type TurnEventPublisher interface {
	PublishTurnEvent(ctx context.Context, payload TurnEventPayload) error
}

type rabbitMQPublisher struct {
	channel   *amqp.Channel
	queueName string
}

// NewRabbitMQTurnEventPublisher creates a TurnEventPublisher on its own
// channel. The queue is declared here so the service does not depend on
// consumer start order.
func NewRabbitMQTurnEventPublisher(conn *amqp.Connection, queueName string) (TurnEventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("turn event publisher: failed to open channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("turn event publisher: failed to declare queue %q: %w", queueName, err)
	}
	return &rabbitMQPublisher{channel: ch, queueName: queueName}, nil
}

func (p *rabbitMQPublisher) PublishTurnEvent(ctx context.Context, payload TurnEventPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("turn event publisher: failed to marshal payload: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(pubCtx,
		"",          // exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("turn event publisher: failed to publish: %w", err)
	}
	return nil
}
