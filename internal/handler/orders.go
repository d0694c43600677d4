package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-chatbot/internal/logger"
	"github.com/iliyamo/restaurant-chatbot/internal/middleware"
	"github.com/iliyamo/restaurant-chatbot/internal/model"
)

// orderReader is the read side of the order store.
type orderReader interface {
	GetCurrentOrder(ctx context.Context, deviceID string) ([]model.OrderLine, error)
	ListPlacedOrders(ctx context.Context, deviceID string) ([]model.PlacedOrder, error)
}

// OrderHandler exposes the caller's orders over HTTP.  Routes must run
// behind middleware.DeviceAuth.
type OrderHandler struct {
	Store  orderReader
	Logger *logger.Logger
}

type currentOrderResponse struct {
	DeviceID string            `json:"device_id"`
	Items    []model.OrderLine `json:"items"`
	Total    decimal.Decimal   `json:"total"`
}

type placedOrderResponse struct {
	ID        uint64            `json:"id"`
	Status    string            `json:"status"`
	Items     []model.OrderLine `json:"items"`
	Total     decimal.Decimal   `json:"total"`
	CreatedAt time.Time         `json:"created_at"`
}

func (h *OrderHandler) GetCurrent(c echo.Context) error {
	ctx := c.Request().Context()
	deviceID := middleware.DeviceID(c)
	lines, err := h.Store.GetCurrentOrder(ctx, deviceID)
	if err != nil {
		h.Logger.Error(ctx, "load current order failed", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, currentOrderResponse{
		DeviceID: deviceID,
		Items:    lines,
		Total:    model.OrderTotal(lines),
	})
}

func (h *OrderHandler) GetHistory(c echo.Context) error {
	ctx := c.Request().Context()
	orders, err := h.Store.ListPlacedOrders(ctx, middleware.DeviceID(c))
	if err != nil {
		h.Logger.Error(ctx, "load order history failed", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]placedOrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, placedOrderResponse{
			ID:        o.ID,
			Status:    o.Status,
			Items:     o.Lines,
			Total:     o.Total(),
			CreatedAt: o.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
