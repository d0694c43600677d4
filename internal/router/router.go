// Package router registers the HTTP and WebSocket routes of the service.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/restaurant-chatbot/internal/config"
	"github.com/iliyamo/restaurant-chatbot/internal/handler"
	"github.com/iliyamo/restaurant-chatbot/internal/logger"
	"github.com/iliyamo/restaurant-chatbot/internal/middleware"
)

// Deps are the handlers and shared clients the routes need.  Redis may be
// nil, which disables rate limiting and response caching.
type Deps struct {
	Logger      *logger.Logger
	Redis       *redis.Client
	RateLimit   config.RateLimitConfig
	Cache       config.CacheConfig
	TokenSecret string
	Gatherer    prometheus.Gatherer

	Health *handler.HealthHandler
	Menu   *handler.MenuHandler
	Orders *handler.OrderHandler
	Chat   *handler.ChatSocket
}

// New builds the echo instance with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLogger(d.Logger))

	RegisterRoutes(e, d)
	return e
}

// RegisterRoutes registers the routes on e.
func RegisterRoutes(e *echo.Echo, d Deps) {
	limiter := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Logger)

	e.GET("/healthz", d.Health.Health)
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	e.GET("/ws", d.Chat.Serve, limiter)

	v1 := e.Group("/v1", limiter)
	v1.GET("/menu", d.Menu.GetMenu, middleware.NewRedisCache(d.Cache, d.Redis))

	// order routes need device tokens; without a secret they are not exposed
	if d.TokenSecret != "" {
		orders := v1.Group("/orders", middleware.DeviceAuth(d.TokenSecret))
		orders.GET("/current", d.Orders.GetCurrent)
		orders.GET("/history", d.Orders.GetHistory)
	}
}
