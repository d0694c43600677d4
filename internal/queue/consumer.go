package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/restaurant-chatbot/internal/catalog"
	"github.com/iliyamo/restaurant-chatbot/internal/logger"
)

// ConsumerParams configure StartOrderConsumer.
type ConsumerParams struct {
	URL    string
	LogDir string // directory of orders.log; defaults to "logs"
	Logger *logger.Logger
}

// StartOrderConsumer declares the order.placed queue and appends one line
// per event to <LogDir>/orders.log.  It reconnects with backoff until ctx is
// canceled.  Messages that cannot be handled are rejected without requeue.
func StartOrderConsumer(ctx context.Context, p ConsumerParams) error {
	if p.LogDir == "" {
		p.LogDir = "logs"
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	ctx = logg.WithField(ctx, "component", "order-consumer")

	backoff := time.Second
	for {
		conn, err := amqp.Dial(p.URL)
		if err != nil {
			logg.Warn(logg.WithFields(ctx, map[string]any{"error": err.Error(), "retry_in": backoff.String()}), "broker dial failed")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consume(ctx, conn, p.LogDir, logg)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logg.Error(ctx, "consume loop ended; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consume(ctx context.Context, conn *amqp.Connection, logDir string, logg *logger.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "set qos failed")
	}
	if _, err := ch.QueueDeclare(OrderPlacedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(OrderPlacedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleMessage(d.Body, logDir); err != nil {
				logg.Error(ctx, "handle order event failed", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleMessage(body []byte, logDir string) error {
	var ev OrderPlacedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(logDir, "orders.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatEvent(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatEvent(ev OrderPlacedEvent) string {
	items := make([]string, 0, len(ev.Lines))
	for _, l := range ev.Lines {
		items = append(items, fmt.Sprintf("%dx %s", l.Quantity, l.Name))
	}
	return fmt.Sprintf("[%s] Order placed | order_id=%d | device_id=%s | total=%s | items=[%s]\n",
		ev.PlacedAt, ev.OrderID, ev.DeviceID, catalog.FormatPrice(ev.Total), strings.Join(items, ", "))
}
