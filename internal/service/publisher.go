// Package service holds the booking workflow, the broker publisher and
// the periodic housekeeping job.  Handlers and the operator CLI call into
// it; it calls the repositories.
package service

import (
    "context"
    "encoding/json"
    "log"
    "time"

    "github.com/google/uuid"
    amqp "github.com/rabbitmq/amqp091-go"

    q "github.com/iliyamo/parkease/internal/queue"
)

// Publisher sends booking lifecycle events.
type Publisher interface {
    Publish(ctx context.Context, ev q.BookingEvent) error
}

// AMQPPublisher publishes to RabbitMQ.  Errors are logged and returned so
// the caller can ignore failures without interrupting the request flow.
type AMQPPublisher struct {
    URL string
}

// NewAMQPPublisher uses queue.BrokerURL when url is empty.
func NewAMQPPublisher(url string) *AMQPPublisher {
    if url == "" {
        url = q.BrokerURL()
    }
    return &AMQPPublisher{URL: url}
}

// Publish sends ev to the booking.events queue.  Messages are persistent
// and carry a fresh MessageId.
func (p *AMQPPublisher) Publish(ctx context.Context, ev q.BookingEvent) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        q.BookingQueue, // name
        true,           // durable
        false,          // autoDelete
        false,          // exclusive
        false,          // noWait
        nil,            // args
    ); err != nil {
        log.Printf("rabbitmq: queue declare failed: %v", err)
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        log.Printf("rabbitmq: marshal event failed: %v", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        MessageId:    uuid.NewString(),
        Type:         ev.Type,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",             // default exchange
        q.BookingQueue, // routing key = queue name
        false,          // mandatory
        false,          // immediate
        pub,
    ); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
        return err
    }
    return nil
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, q.BookingEvent) error { return nil }
