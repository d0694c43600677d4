package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-chatbot/internal/logger"
	"github.com/iliyamo/restaurant-chatbot/internal/model"
	"github.com/iliyamo/restaurant-chatbot/internal/queue"
)

type fakeChannel struct {
	declared  []string
	published []amqp.Publishing
	keys      []string
	closed    bool
	pubErr    error
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	f.declared = append(f.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.pubErr != nil {
		return f.pubErr
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error { f.closed = true; return nil }

func publisherWith(ch *fakeChannel) *OrderPublisher {
	p := NewOrderPublisher("amqp://test", logger.Nop())
	p.dial = func(string) (amqpChannel, func() error, error) {
		return ch, func() error { return nil }, nil
	}
	return p
}

func TestOrderPlacedPublishesPersistentJSON(t *testing.T) {
	ch := &fakeChannel{}
	order := model.PlacedOrder{
		ID:        3,
		DeviceID:  "dev-1",
		Status:    model.OrderStatusPlaced,
		Lines:     []model.OrderLine{{ItemID: 5, Name: "Soda", Price: decimal.NewFromInt(3), Quantity: 2}},
		CreatedAt: time.Now(),
	}
	require.NoError(t, publisherWith(ch).OrderPlaced(context.Background(), order))

	assert.Equal(t, []string{queue.OrderPlacedQueue}, ch.declared)
	assert.Equal(t, []string{queue.OrderPlacedQueue}, ch.keys)
	require.Len(t, ch.published, 1)
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)
	assert.True(t, ch.closed)

	var ev queue.OrderPlacedEvent
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &ev))
	assert.Equal(t, uint64(3), ev.OrderID)
	assert.True(t, ev.Total.Equal(decimal.NewFromInt(6)))
}

func TestOrderPlacedReturnsErrors(t *testing.T) {
	ch := &fakeChannel{pubErr: errors.New("blocked")}
	err := publisherWith(ch).OrderPlaced(context.Background(), model.PlacedOrder{ID: 1})
	assert.ErrorContains(t, err, "blocked")

	p := NewOrderPublisher("amqp://test", nil)
	p.dial = func(string) (amqpChannel, func() error, error) { return nil, nil, errors.New("refused") }
	assert.ErrorContains(t, p.OrderPlaced(context.Background(), model.PlacedOrder{ID: 1}), "refused")
}
