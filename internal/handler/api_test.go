package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-chatbot/internal/catalog"
	"github.com/iliyamo/restaurant-chatbot/internal/logger"
	"github.com/iliyamo/restaurant-chatbot/internal/middleware"
	"github.com/iliyamo/restaurant-chatbot/internal/repository"
)

type downDB struct{}

func (downDB) PingContext(context.Context) error { return errors.New("down") }

func TestHealth(t *testing.T) {
	e := echo.New()
	e.GET("/ok", (&HealthHandler{}).Health)
	e.GET("/down", (&HealthHandler{DB: downDB{}}).Health)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/down", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetMenu(t *testing.T) {
	e := echo.New()
	e.GET("/v1/menu", (&MenuHandler{Catalog: catalog.Default()}).GetMenu)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/menu", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []struct {
			ID      int    `json:"id"`
			Name    string `json:"name"`
			Price   string `json:"price"`
			Options []struct {
				Name  string `json:"name"`
				Price string `json:"price"`
			} `json:"options"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 5)
	assert.Equal(t, "Pizza", body.Items[0].Name)
	assert.Equal(t, "10", body.Items[0].Price)
	require.Len(t, body.Items[0].Options, 2)
	assert.Equal(t, "15", body.Items[0].Options[1].Price)
}

func TestOrderEndpoints(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryOrderStore()
	require.NoError(t, store.EnsureSession(ctx, "dev-1"))
	_, err := store.AddLine(ctx, "dev-1", 2, "Burger", decimal.NewFromInt(8))
	require.NoError(t, err)
	_, err = store.PlaceOrder(ctx, "dev-1")
	require.NoError(t, err)
	_, err = store.AddLine(ctx, "dev-1", 5, "Soda", decimal.NewFromInt(3))
	require.NoError(t, err)
	_, err = store.AddLine(ctx, "dev-1", 5, "Soda", decimal.NewFromInt(3))
	require.NoError(t, err)

	h := &OrderHandler{Store: store, Logger: logger.Nop()}
	e := echo.New()
	setDevice := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.ContextDeviceID, "dev-1")
			return next(c)
		}
	}
	e.GET("/current", h.GetCurrent, setDevice)
	e.GET("/history", h.GetHistory, setDevice)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/current", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var current struct {
		DeviceID string `json:"device_id"`
		Items    []struct {
			Name     string `json:"name"`
			Quantity int    `json:"quantity"`
		} `json:"items"`
		Total string `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &current))
	assert.Equal(t, "dev-1", current.DeviceID)
	require.Len(t, current.Items, 1)
	assert.Equal(t, 2, current.Items[0].Quantity)
	assert.Equal(t, "6", current.Total)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Items []struct {
			ID     uint64 `json:"id"`
			Status string `json:"status"`
			Total  string `json:"total"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history.Items, 1)
	assert.Equal(t, "PLACED", history.Items[0].Status)
	assert.Equal(t, "16", history.Items[0].Total)
}
