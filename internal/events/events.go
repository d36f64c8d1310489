// Package events carries schedule change notifications from the API process
// to the notify worker over RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/C4NU/hanavi-schedule/internal/domain"
)

const QueueName = "schedule_events"

// DeclareQueue declares the durable schedule event queue. Both the API and
// the worker declare it so either can start first.
func DeclareQueue(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(
		QueueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	return err
}

type Publisher struct {
	ch      *amqp.Channel
	timeout time.Duration
}

func NewPublisher(ch *amqp.Channel, timeout time.Duration) *Publisher {
	return &Publisher{
		ch:      ch,
		timeout: timeout,
	}
}

// PublishScheduleChanged enqueues one change event. Delivery to subscribers
// happens asynchronously in the notify worker.
func (p *Publisher) PublishScheduleChanged(ev domain.ChangeEvent) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		"",
		QueueName,
		true, // mandatory
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
