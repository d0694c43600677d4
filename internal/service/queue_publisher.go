// Package service holds adapters that connect the conversation engine to
// outside systems.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/restaurant-chatbot/internal/logger"
	"github.com/iliyamo/restaurant-chatbot/internal/model"
	"github.com/iliyamo/restaurant-chatbot/internal/queue"
)

// amqpChannel is the part of *amqp.Channel used for publishing.
type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// OrderPublisher publishes order.placed events to RabbitMQ.  It dials a
// fresh connection per event; checkout volume is low and this keeps the
// publisher free of reconnect state.
type OrderPublisher struct {
	url  string
	logg *logger.Logger
	dial func(url string) (amqpChannel, func() error, error)
}

func NewOrderPublisher(url string, logg *logger.Logger) *OrderPublisher {
	if logg == nil {
		logg = logger.Nop()
	}
	return &OrderPublisher{url: url, logg: logg, dial: dialChannel}
}

func dialChannel(url string) (amqpChannel, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("channel open: %w", err)
	}
	return ch, conn.Close, nil
}

// OrderPlaced publishes o as a persistent JSON message on the order.placed
// queue.
func (p *OrderPublisher) OrderPlaced(ctx context.Context, o model.PlacedOrder) error {
	body, err := json.Marshal(queue.NewOrderPlacedEvent(o))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ch, closeConn, err := p.dial(p.url)
	if err != nil {
		return err
	}
	defer func() { _ = closeConn() }()
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue.OrderPlacedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.OrderPlacedQueue, false, false, msg); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	p.logg.Debug(p.logg.WithField(ctx, "order_id", o.ID), "order.placed published")
	return nil
}
