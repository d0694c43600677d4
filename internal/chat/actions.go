package chat

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/restaurant-chatbot/internal/model"
	"github.com/iliyamo/restaurant-chatbot/internal/repository"
)

// publishTimeout bounds the asynchronous order.placed notification.
const publishTimeout = 5 * time.Second

func (e *Engine) checkout(ctx context.Context, deviceID string) (string, error) {
	lines, err := e.store.GetCurrentOrder(ctx, deviceID)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return msgNoOrderToPlace, nil
	}
	order, err := e.store.PlaceOrder(ctx, deviceID)
	if errors.Is(err, repository.ErrEmptyOrder) {
		return msgNoOrderToPlace, nil
	}
	if err != nil {
		return "", err
	}
	e.metrics.OrderPlaced()
	e.logg.Info(e.logg.WithFields(ctx, map[string]any{"order_id": order.ID, "total": order.Total().String()}), "order placed")
	e.notifyPlaced(ctx, order)
	return msgOrderPlaced, nil
}

func (e *Engine) notifyPlaced(ctx context.Context, order model.PlacedOrder) {
	if e.events == nil {
		return
	}
	go func() {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := e.events.OrderPlaced(pctx, order); err != nil {
			e.logg.Error(pctx, "publish order.placed failed", err)
		}
	}()
}

func (e *Engine) history(ctx context.Context, deviceID string) (string, error) {
	orders, err := e.store.ListPlacedOrders(ctx, deviceID)
	if err != nil {
		return "", err
	}
	if len(orders) == 0 {
		return msgNoOrdersFound, nil
	}
	return historyText(orders), nil
}

func (e *Engine) currentOrder(ctx context.Context, deviceID string) (string, error) {
	lines, err := e.store.GetCurrentOrder(ctx, deviceID)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return msgNoCurrentOrder, nil
	}
	return currentOrderText(lines), nil
}

func (e *Engine) cancel(ctx context.Context, deviceID string) (string, error) {
	lines, err := e.store.GetCurrentOrder(ctx, deviceID)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return msgNoOrderToCancel, nil
	}
	if err := e.store.ClearCurrentOrder(ctx, deviceID); err != nil {
		return "", err
	}
	return msgOrderCancelled, nil
}
