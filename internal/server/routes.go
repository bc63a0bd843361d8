package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	e.HTTPErrorHandler = NotFoundJSON()

	e.Use(SetJSONContentType)
	e.Use(SetNoCacheHeaders)

	// Optional API key authentication
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}

	// API v1 routes
	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)
	v1.GET("/tokens", h.Tokens)            // Token directory, ?refresh=true to bypass cache
	v1.GET("/prices", h.Prices)            // Cached USD price map
	v1.GET("/balances/:wallet", h.Balances)
	v1.GET("/swaps/recent", h.RecentSwaps)

	// Quote proxy with rate limiting; the upstream API is shared and
	// throttled.
	quoteGroup := v1.Group("/quote")
	quoteGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(2), // 2 requests per second per client
		Burst:     5,
		ExpiresIn: 2 * time.Minute,
	})))
	quoteGroup.GET("", h.Quote)

	// Favorites endpoints
	favGroup := v1.Group("/favorites")
	favGroup.GET("", h.FavoritesList)
	favGroup.POST("/:mint", h.FavoritesToggle)
	favGroup.DELETE("/:mint", h.FavoritesDelete)

	// Insights endpoints with rate limiting
	insightsGroup := v1.Group("/insights")
	insightsGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(0.2), // 1 request every 5 seconds
		Burst:     2,
		ExpiresIn: 2 * time.Minute,
	})))
	insightsGroup.POST("/ask", h.InsightsAsk)

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
