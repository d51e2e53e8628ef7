// Package service publishes domain events to the message broker.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/emclab/station-booking/internal/queue"
)

// EventPublisher pushes events onto the reservation.created queue.  Every
// failure is logged and returned; callers on the booking path ignore the
// error because losing an audit event must never undo a booking.
type EventPublisher struct {
	URL    string
	Logger *zerolog.Logger
}

func NewEventPublisher(url string, logger *zerolog.Logger) *EventPublisher {
	return &EventPublisher{URL: url, Logger: logger}
}

// PublishReservationCreated marshals the event and publishes it as a
// persistent message.  A connection is dialed per publish; booking volume in
// a test lab stays far below where that matters.
func (p *EventPublisher) PublishReservationCreated(ctx context.Context, ev queue.ReservationCreatedEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Logger.Warn().Err(err).Msg("broker dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Logger.Warn().Err(err).Msg("broker channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue.ReservationQueueName, true, false, false, false, nil); err != nil {
		p.Logger.Warn().Err(err).Msg("queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		p.Logger.Error().Err(err).Msg("marshal event failed")
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.ReservationQueueName, false, false, pub); err != nil {
		p.Logger.Warn().Err(err).Msg("publish reservation event failed")
		return err
	}
	return nil
}
