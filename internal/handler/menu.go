package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-chatbot/internal/catalog"
)

// MenuHandler serves the static catalog.
type MenuHandler struct {
	Catalog *catalog.Catalog
}

// GetMenu returns {"items": [...]} in catalog order.
func (h *MenuHandler) GetMenu(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"items": h.Catalog.Items()})
}
